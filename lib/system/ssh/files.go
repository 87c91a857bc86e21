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

package ssh

import (
	"context"
	"io"
	"os"

	"github.com/pkg/sftp"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/retry"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
)

// transferTries is the number of attempts to open a SFTP session
const transferTries = 3

func (r *Remote) transferClient() (*sftp.Client, fail.Error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.client == nil {
		return nil, fail.InvalidInstanceContentError("r.client", "connection is closed")
	}
	// sshd may refuse a session while it still serves the previous ones
	var client *sftp.Client
	xerr := retry.WhileUnsuccessfulWithLimitedRetries(context.Background(), func() (innerErr error) {
		client, innerErr = sftp.NewClient(r.client)
		return innerErr
	}, temporal.SmallDelay(), r.cfg.timeout(), transferTries)
	if xerr != nil {
		return nil, fail.NotAvailableErrorWithCause(fail.Cause(xerr), "cannot open new SFTP session on %s", r.cfg)
	}
	return client, nil
}

func closeTransferClient(client *sftp.Client) {
	if err := client.Close(); err != nil {
		logrus.Warn(fail.Wrap(err, "failed to close SFTP client").Error())
	}
}

// ReadFile returns the content of the remote file 'path'
func (r *Remote) ReadFile(ctx context.Context, path string) ([]byte, fail.Error) {
	if ctx.Err() != nil {
		return nil, fail.ConvertError(ctx.Err())
	}
	client, xerr := r.transferClient()
	if xerr != nil {
		return nil, xerr
	}
	defer closeTransferClient(client)

	f, err := client.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fail.NotFoundError("remote file '%s' not found on %s", path, r.cfg.Host)
		}
		return nil, fail.Wrap(err, "failed to open remote file '%s'", path)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fail.Wrap(err, "failed to read remote file '%s'", path)
	}
	return content, nil
}

// WriteFile replaces the content of the remote file 'path'
func (r *Remote) WriteFile(ctx context.Context, path string, content []byte, perm os.FileMode) fail.Error {
	if ctx.Err() != nil {
		return fail.ConvertError(ctx.Err())
	}
	client, xerr := r.transferClient()
	if xerr != nil {
		return xerr
	}
	defer closeTransferClient(client)

	f, err := client.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fail.Wrap(err, "failed to create remote file '%s'", path)
	}
	written, err := f.Write(content)
	if err != nil {
		_ = f.Close()
		return fail.Wrap(err, "failed to write remote file '%s'", path)
	}
	if err = f.Close(); err != nil {
		return fail.Wrap(err, "failed to close remote file '%s'", path)
	}
	if perm != 0 {
		if err = client.Chmod(path, perm); err != nil {
			return fail.Wrap(err, "failed to chmod remote file '%s'", path)
		}
	}
	logrus.Debugf("%d bytes copied to %s:%s", written, r.cfg.Host, path)
	return nil
}

// Exists tells if the remote path exists
func (r *Remote) Exists(ctx context.Context, path string) (bool, fail.Error) {
	if ctx.Err() != nil {
		return false, fail.ConvertError(ctx.Err())
	}
	client, xerr := r.transferClient()
	if xerr != nil {
		return false, xerr
	}
	defer closeTransferClient(client)

	if _, err := client.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fail.Wrap(err, "failed to stat remote path '%s'", path)
	}
	return true, nil
}
