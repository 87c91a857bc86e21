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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstScenario(t *testing.T)  {}
func secondScenario(t *testing.T) {}

func TestScenariosOrder(t *testing.T) {
	s := NewScenarios()
	s.add("rabbitmq", secondScenario)
	s.add("nova", firstScenario)
	s.add("nova", secondScenario)
	s.add("nova", firstScenario)
	s.add("cinder", firstScenario)

	assert.Equal(t, []string{"firstScenario", "secondScenario"}, s.scenariosOrder["nova"])
	assert.Equal(t, []section{"nova", "neutron", "glance", "rabbitmq", "cinder"}, s.order())
}

func TestScenariosRun(t *testing.T) {
	var played []string
	s := NewScenarios()
	s.setups = append(s.setups, func(t *testing.T) { played = append(played, "setup") })
	s.add("glance", func(t *testing.T) { played = append(played, "glance") })
	s.add("nova", func(t *testing.T) { played = append(played, "nova") })

	s.Run(t)
	assert.Equal(t, []string{"setup", "nova", "glance"}, played)
}

func TestGetNames(t *testing.T) {
	names := GetNames("Server", 3)
	require.Len(t, names, 3)
	for _, n := range names {
		assert.Regexp(t, `^server-[0-9a-f]{8}$`, n)
	}
	assert.NotEqual(t, names[0], names[1])
	assert.Empty(t, GetNames("server", 0))
}
