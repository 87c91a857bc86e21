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

package helpers

import (
	"fmt"
	"strings"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/ids"
)

// nameLength is the length of the random part of the generated names
const nameLength = 8

// GetNames returns 'count' unique names starting with 'prefix', so that concurrent runs on the same
// cloud do not collide
func GetNames(prefix string, count int) []string {
	if count <= 0 {
		return []string{}
	}
	prefix = strings.ToLower(prefix)
	names, xerr := ids.GenerateIDs(prefix, "", uint(count), nameLength)
	if xerr != nil {
		names = make([]string, 0, count)
		for i := 1; i <= count; i++ {
			names = append(names, fmt.Sprintf("%s-%d", prefix, i))
		}
	}
	return names
}
