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

// Package template parses text templates with the sprig functions available
package template

import (
	"bytes"
	txttmpl "text/template"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// Parse returns a text template with default funcs declared
func Parse(title, content string, funcMap map[string]interface{}) (*txttmpl.Template, fail.Error) {
	if title == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("title")
	}
	if content == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("content")
	}
	tmpl, err := txttmpl.New(title).Funcs(MergeFuncs(funcMap)).Parse(content)
	if err != nil {
		return nil, fail.SyntaxErrorWithCause(err, "invalid template '%s'", title)
	}
	return tmpl, nil
}

// MustParse is like Parse but panics on error; for templates known at compile time
func MustParse(title, content string) *txttmpl.Template {
	tmpl, xerr := Parse(title, content, nil)
	if xerr != nil {
		panic(xerr)
	}
	return tmpl
}

// Render executes 'tmpl' with 'data' and returns the result
func Render(tmpl *txttmpl.Template, data interface{}) (string, fail.Error) {
	if tmpl == nil {
		return "", fail.InvalidParameterCannotBeNilError("tmpl")
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fail.Wrap(err, "failed to render template '%s'", tmpl.Name())
	}
	return buf.String(), nil
}
