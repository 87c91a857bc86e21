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

package ids

import (
	"fmt"

	"github.com/sethvargo/go-password/password"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

var generator *password.Generator

// GeneratePassword generates a password with length at least 12, used as admin password of servers
func GeneratePassword(length uint8) (string, fail.Error) {
	if length < 12 {
		return "", fail.InvalidParameterError("length", "cannot be under 12")
	}
	numsym := int(length) / 3
	pass, err := generator.Generate(int(length), numsym, numsym, false, true)
	if err != nil {
		return "", fail.ConvertError(err)
	}
	return pass, nil
}

func init() {
	var err error
	// Removed characters:
	// - confusing characters like: il|! or 0O
	// - symbols that are troublesome inside cloud-init user data, like: #'"$`
	generator, err = password.NewGenerator(&password.GeneratorInput{
		LowerLetters: "abcdefghjkmnpqrstuvwxyz",
		UpperLetters: "ABCDEFGHJKLMNPQRSTUVWXYZ",
		Digits:       "123456789",
		Symbols:      "-+*/.,:;()_",
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create password generator: %v!", err))
	}
}
