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

package verdict

import "strconv"

// Enum represents the decision of an Arbiter about a try
type Enum int

const (
	// Undecided means the arbiter has no opinion; the loop treats it as Retry
	Undecided Enum = iota
	// Retry means a new try is wanted
	Retry
	// Done means the tries are over, successfully or not
	Done
	// Abort means the tries are over because a condition prevents to go on
	Abort
)

var stringMap = map[Enum]string{
	Undecided: "Undecided",
	Retry:     "Retry",
	Done:      "Done",
	Abort:     "Abort",
}

// String returns a string representation of an Enum
func (e Enum) String() string {
	if s, ok := stringMap[e]; ok {
		return s
	}
	return "Enum(" + strconv.Itoa(int(e)) + ")"
}
