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

package ids

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

func TestGenerateIDs(t *testing.T) {
	list, xerr := GenerateIDs("server", "", 5, 8)
	require.Nil(t, xerr)
	require.Len(t, list, 5)

	seen := map[string]bool{}
	for _, v := range list {
		assert.True(t, strings.HasPrefix(v, "server-"))
		assert.Len(t, strings.TrimPrefix(v, "server-"), 8)
		assert.False(t, seen[v])
		seen[v] = true
	}
}

func TestGenerateIDs_DefaultLengthAndPostfix(t *testing.T) {
	list, xerr := GenerateIDs("img", "qcow2", 1, 0)
	require.Nil(t, xerr)
	name := list[0]
	assert.True(t, strings.HasSuffix(name, "-qcow2"))
	assert.Len(t, strings.TrimSuffix(strings.TrimPrefix(name, "img-"), "-qcow2"), DefaultLength)
}

func TestGenerateIDs_SeparatorsOnlyAroundNonEmptyParts(t *testing.T) {
	list, xerr := GenerateIDs("", "", 1, 6)
	require.Nil(t, xerr)
	assert.Len(t, list[0], 6)
	assert.NotContains(t, list[0], "-")

	list, xerr = GenerateIDs("", "tail", 1, 6)
	require.Nil(t, xerr)
	parts := strings.Split(list[0], "-")
	require.Len(t, parts, 2)
	assert.Len(t, parts[0], 6)
	assert.Equal(t, "tail", parts[1])
}

func TestGenerateIDs_InvalidLength(t *testing.T) {
	_, xerr := GenerateIDs("x", "", 1, 33)
	require.NotNil(t, xerr)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
}

func TestGenerateID(t *testing.T) {
	id, xerr := GenerateID("net")
	require.Nil(t, xerr)
	assert.Len(t, id, len("net-")+DefaultLength)
}

func TestGenerateFiles(t *testing.T) {
	dir := t.TempDir()
	paths, xerr := GenerateFiles(dir, 3, 1024)
	require.Nil(t, xerr)
	require.Len(t, paths, 3)
	for _, p := range paths {
		st, err := os.Stat(p)
		require.NoError(t, err)
		assert.EqualValues(t, 1024, st.Size())
		assert.True(t, strings.HasPrefix(filepath.Base(p), "file-"))
		assert.Equal(t, ".bin", filepath.Ext(p))
	}

	_, xerr = GenerateFiles("", 1, 1)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
}

func TestGeneratePassword(t *testing.T) {
	_, xerr := GeneratePassword(8)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)

	pass, xerr := GeneratePassword(16)
	require.Nil(t, xerr)
	assert.Len(t, pass, 16)
	assert.NotContains(t, pass, "0")
	assert.NotContains(t, pass, "O")
}
