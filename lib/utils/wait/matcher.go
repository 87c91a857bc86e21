/*
 * Copyright 2016-2022, Mirantis, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package wait

import (
	"errors"
)

// Matcher tells if an error belongs to a kind of errors
type Matcher func(error) bool

// Kind returns a Matcher recognizing errors of type T in the chain of an error
func Kind[T error]() Matcher {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// Is returns a Matcher recognizing 'target' in the chain of an error
func Is(target error) Matcher {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

// AnyError is a Matcher recognizing all errors
func AnyError(err error) bool {
	return err != nil
}
