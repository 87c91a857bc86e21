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

// Package novaconf edits the ini configuration files of the nodes, keeping a backup to restore them
package novaconf

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"

	"github.com/sergeychipiga/mos-integration-tests/lib/system/ssh"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// Path of the nova configuration on every node
const Path = "/etc/nova/nova.conf"

const backupSuffix = ".bak"

// Remote is a node whose files can be edited
type Remote interface {
	CheckCall(ctx context.Context, cmd string) (ssh.Result, fail.Error)
	ReadFile(ctx context.Context, path string) ([]byte, fail.Error)
	WriteFile(ctx context.Context, path string, content []byte, perm os.FileMode) fail.Error
	Exists(ctx context.Context, path string) (bool, fail.Error)
}

// SetValue returns 'content' with 'key' of 'section' set to 'value'; comments and other keys are kept
func SetValue(content []byte, section, key, value string) ([]byte, fail.Error) {
	if section == "" {
		section = ini.DefaultSection
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{PreserveSurroundedQuote: true}, content)
	if err != nil {
		return nil, fail.SyntaxErrorWithCause(err, "cannot parse ini content")
	}
	cfg.Section(section).Key(key).SetValue(value)

	var buf bytes.Buffer
	if _, err = cfg.WriteTo(&buf); err != nil {
		return nil, fail.Wrap(err, "failed to render ini content")
	}
	return buf.Bytes(), nil
}

// Value returns the value of 'key' in 'section'; *fail.ErrNotFound if unset
func Value(content []byte, section, key string) (string, fail.Error) {
	if section == "" {
		section = ini.DefaultSection
	}
	cfg, err := ini.Load(content)
	if err != nil {
		return "", fail.SyntaxErrorWithCause(err, "cannot parse ini content")
	}
	s, err := cfg.GetSection(section)
	if err != nil || !s.HasKey(key) {
		return "", fail.NotFoundError("no %s in [%s]", key, section)
	}
	return s.Key(key).String(), nil
}

// Set sets 'key' of 'section' in the remote file 'path' to 'value'. The original file is saved once, so a
// following Restore gives back the file as it was before the first Set.
func Set(ctx context.Context, r Remote, path, section, key, value string) fail.Error {
	backup := path + backupSuffix
	found, xerr := r.Exists(ctx, backup)
	if xerr != nil {
		return xerr
	}
	if !found {
		if _, xerr = r.CheckCall(ctx, fmt.Sprintf("cp -p %s %s", path, backup)); xerr != nil {
			return fail.Wrap(xerr, "failed to back up %s", path)
		}
	}

	content, xerr := r.ReadFile(ctx, path)
	if xerr != nil {
		return xerr
	}
	updated, xerr := SetValue(content, section, key, value)
	if xerr != nil {
		return xerr
	}
	if xerr = r.WriteFile(ctx, path, updated, 0); xerr != nil {
		return xerr
	}
	logrus.Debugf("[%s] %s = %s set in %s", section, key, value, path)
	return nil
}

// Restore puts back the file saved by the first Set; nothing is done if there is no backup
func Restore(ctx context.Context, r Remote, path string) fail.Error {
	backup := path + backupSuffix
	found, xerr := r.Exists(ctx, backup)
	if xerr != nil {
		return xerr
	}
	if !found {
		logrus.Debugf("no backup of %s to restore", path)
		return nil
	}
	_, xerr = r.CheckCall(ctx, fmt.Sprintf("mv -f %s %s", backup, path))
	return xerr
}
