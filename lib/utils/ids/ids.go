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

// Package ids generates unique names, passwords and filler files for test resources
package ids

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/uuid"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// DefaultLength is the length of the hex part of a generated id
const DefaultLength = 32

// GenerateIDs returns 'count' unique names built as <prefix>-<hex>-<postfix>, where hex is
// the first 'length' hexadecimal digits of a random UUID. An empty prefix or postfix is left
// out together with its separator. A 'length' of 0 means DefaultLength.
func GenerateIDs(prefix, postfix string, count uint, length uint) ([]string, fail.Error) {
	if length == 0 {
		length = DefaultLength
	}
	if length > DefaultLength {
		return nil, fail.InvalidParameterError("length", "cannot be greater than %d", DefaultLength)
	}

	seen := make(map[string]struct{}, count)
	out := make([]string, 0, count)
	for uint(len(out)) < count {
		id, err := uuid.NewV4()
		if err != nil {
			return nil, fail.Wrap(err, "failed to generate uuid")
		}
		name := hex.EncodeToString(id.Bytes())[:length]
		if prefix != "" {
			name = prefix + "-" + name
		}
		if postfix != "" {
			name += "-" + postfix
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// GenerateID returns a single name built like GenerateIDs does
func GenerateID(prefix string) (string, fail.Error) {
	list, xerr := GenerateIDs(prefix, "", 1, 0)
	if xerr != nil {
		return "", xerr
	}
	return list[0], nil
}

// GenerateFiles creates 'count' files of 'size' random bytes in 'dir' and returns their paths
func GenerateFiles(dir string, count uint, size int64) (_ []string, ferr fail.Error) {
	if dir == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("dir")
	}
	if size < 0 {
		return nil, fail.InvalidParameterError("size", "cannot be negative")
	}

	names, xerr := GenerateIDs("file", "", count, 0)
	if xerr != nil {
		return nil, xerr
	}

	paths := make([]string, 0, count)
	defer func() {
		if ferr != nil {
			for _, p := range paths {
				_ = os.Remove(p)
			}
		}
	}()
	for _, name := range names {
		path := filepath.Join(dir, name+".bin")
		if err := writeRandom(path, size); err != nil {
			return nil, fail.Wrap(err, "failed to generate file '%s'", path)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeRandom(path string, size int64) (ferr error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && ferr == nil {
			ferr = cerr
		}
	}()
	_, err = io.CopyN(f, rand.Reader, size)
	return err
}
