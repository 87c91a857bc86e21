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

package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

func TestParseAndRender(t *testing.T) {
	tmpl, xerr := Parse("hosts", `{{ .Hosts | join ", " | upper }}{{ if hasField . "Port" }}:{{ .Port }}{{ end }}`, nil)
	require.Nil(t, xerr)

	out, xerr := Render(tmpl, struct {
		Hosts []string
		Port  int
	}{Hosts: []string{"a", "b"}, Port: 5673})
	require.Nil(t, xerr)
	assert.Equal(t, "A, B:5673", out)

	out, xerr = Render(tmpl, map[string]interface{}{"Hosts": []string{"c"}})
	require.Nil(t, xerr)
	assert.Equal(t, "C", out)
}

func TestParseErrors(t *testing.T) {
	_, xerr := Parse("", "x", nil)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
	_, xerr = Parse("broken", "{{ .Hosts ", nil)
	assert.IsType(t, &fail.ErrSyntax{}, xerr)

	tmpl, xerr := Parse("custom", `{{ twice 2 }}`, map[string]interface{}{"twice": func(i int) int { return 2 * i }})
	require.Nil(t, xerr)
	out, xerr := Render(tmpl, nil)
	require.Nil(t, xerr)
	assert.Equal(t, "4", out)

	assert.Panics(t, func() { MustParse("broken", "{{") })
}
