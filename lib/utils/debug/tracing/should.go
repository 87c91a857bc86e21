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

package tracing

import (
	"os"
	"strings"
	"sync"
)

var (
	settings     map[string]map[string]bool
	settingsOnce sync.Once
)

// loadSettings reads MOS_TRACE, a comma separated list of 'key' or 'key.subkey', '!key' disabling a key
func loadSettings() {
	newSettings := map[string]map[string]bool{}
	for _, part := range strings.Split(os.Getenv("MOS_TRACE"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keys := strings.Split(part, ".")
		key := strings.TrimSpace(keys[0])
		reverse := false
		if strings.HasPrefix(key, "!") {
			key = key[1:]
			reverse = true
		}
		if key == "" {
			continue
		}

		if len(keys) == 1 {
			if reverse {
				delete(newSettings, key)
			} else {
				newSettings[key] = map[string]bool{}
			}
			continue
		}
		if _, ok := newSettings[key]; !ok {
			newSettings[key] = map[string]bool{}
		}
		newSettings[key][strings.TrimSpace(keys[1])] = !reverse
	}
	settings = newSettings
}

// ShouldTrace tells if a specific trace is asked for
func ShouldTrace(key string) bool {
	settingsOnce.Do(loadSettings)

	if key = strings.TrimSpace(key); key == "" {
		return false
	}

	parts := strings.Split(key, ".")
	// If key.subkey is defined, return its value
	if len(parts) >= 2 {
		if setting, ok := settings[parts[0]][parts[1]]; ok {
			return setting
		}
	}
	// If key is defined and there is no subkey, return true (key enabled as a whole)
	if sub, ok := settings[parts[0]]; ok && len(sub) == 0 {
		return true
	}
	return false
}
