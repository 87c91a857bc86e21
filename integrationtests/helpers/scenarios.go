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
	"reflect"
	"runtime"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type (
	ScenarioFunc func(*testing.T)

	section string

	Scenarios struct {
		sectionsOrder  []section
		scenariosOrder map[section][]string
		scenarios      map[section]map[string]ScenarioFunc
		setups         []ScenarioFunc
	}
)

var (
	scenarios = NewScenarios()
)

// InSection returns the section 'label' in which scenarios are registered
func InSection(label string) section {
	return section(label)
}

// AddScenario registers 'scenario' in the section, under the name of the function
func (section section) AddScenario(scenario ScenarioFunc) section {
	scenarios.add(section, scenario)
	return section
}

// BeforeScenarios registers a setup run once before all the sections
func BeforeScenarios(setup ScenarioFunc) {
	scenarios.setups = append(scenarios.setups, setup)
}

func scenarioName(scenario ScenarioFunc) string {
	name := runtime.FuncForPC(reflect.ValueOf(scenario).Pointer()).Name()
	if lastPeriod := strings.LastIndex(name, "."); lastPeriod >= 0 {
		name = name[lastPeriod+1:]
	}
	return name
}

func (s *Scenarios) add(section section, scenario ScenarioFunc) {
	if _, ok := s.scenarios[section]; !ok {
		s.scenarios[section] = make(map[string]ScenarioFunc)
	}
	name := scenarioName(scenario)
	if _, ok := s.scenarios[section][name]; !ok {
		s.scenariosOrder[section] = append(s.scenariosOrder[section], name)
	}
	s.scenarios[section][name] = scenario
}

// NewScenarios returns an empty registry; sections unknown to it are played last, in registration order
func NewScenarios() Scenarios {
	return Scenarios{
		sectionsOrder: []section{
			"nova",
			"neutron",
			"glance",
			"rabbitmq",
		},
		scenariosOrder: make(map[section][]string),
		scenarios:      make(map[section]map[string]ScenarioFunc),
	}
}

func (s Scenarios) order() []section {
	out := append([]section{}, s.sectionsOrder...)
	known := make(map[section]bool, len(out))
	for _, sec := range out {
		known[sec] = true
	}
	var extra []string
	for sec := range s.scenariosOrder {
		if !known[sec] {
			extra = append(extra, string(sec))
		}
	}
	sort.Strings(extra)
	for _, sec := range extra {
		out = append(out, section(sec))
	}
	return out
}

// Run plays the setups then every section in order
func (s Scenarios) Run(t *testing.T) {
	if len(s.setups) > 0 {
		ok := t.Run("setup", func(t *testing.T) {
			for _, setup := range s.setups {
				setup(t)
			}
		})
		require.True(t, ok)
	}

	for _, sec := range s.order() {
		sec := sec
		if len(s.scenariosOrder[sec]) == 0 {
			continue
		}
		t.Run(string(sec), func(t *testing.T) {
			for _, name := range s.scenariosOrder[sec] {
				name := name
				t.Run(name, func(t *testing.T) {
					s.scenarios[sec][name](t)
				})
			}
		})
	}
}

// RunScenarios plays all the registered scenarios
func RunScenarios(t *testing.T) {
	scenarios.Run(t)
}
