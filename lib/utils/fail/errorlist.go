/*
 * Copyright 2018-2022, CS Systemes d'Information, http://csgroup.eu
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

package fail

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
)

// ErrorList ...
type ErrorList struct {
	*errorCore
	errors []error
}

// NewErrorList creates a ErrorList; nil errors are discarded
func NewErrorList(errs []error) *ErrorList {
	filtered := make([]error, 0, len(errs))
	for _, v := range errs {
		if v != nil {
			filtered = append(filtered, v)
		}
	}
	return &ErrorList{
		errorCore: newError(nil, nil, ""),
		errors:    filtered,
	}
}

// IsNull tells if the instance is null
func (e *ErrorList) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// Error returns a string containing all the errors
func (e *ErrorList) Error() string {
	if e.IsNull() {
		logrus.Errorf("invalid call of ErrorList.Error() from null instance")
		return ""
	}
	msgs := make([]string, 0, len(e.errors))
	for _, v := range e.errors {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "\n")
}

// UnformattedError ...
func (e *ErrorList) UnformattedError() string {
	return e.Error()
}

// Is allows errors.Is to look into every error of the list
func (e *ErrorList) Is(target error) bool {
	if e.IsNull() {
		return false
	}
	for _, v := range e.errors {
		if errors.Is(v, target) {
			return true
		}
	}
	return false
}

// Len returns the number of errors in the list
func (e *ErrorList) Len() int {
	if e.IsNull() {
		return 0
	}
	return len(e.errors)
}

// ToErrorSlice transforms ErrorList to []error
func (e *ErrorList) ToErrorSlice() []error {
	if e.IsNull() {
		logrus.Errorf("invalid call of ErrorList.ToErrorSlice() from null instance")
		return []error{}
	}
	return e.errors
}
