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
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	libssh "golang.org/x/crypto/ssh"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug/tracing"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// Result is the outcome of a remote command
type Result struct {
	RetCode int
	Stdout  string
	Stderr  string
}

// IsOK tells if the command succeeded
func (r Result) IsOK() bool {
	return r.RetCode == 0
}

// Remote is an ssh connection to a node
type Remote struct {
	cfg Config

	lock   sync.Mutex
	client *libssh.Client
}

// Connect opens an ssh connection; network and authentication failures are reported as *fail.ErrNotAvailable, as
// they are expected while a node boots
func Connect(ctx context.Context, cfg Config) (*Remote, fail.Error) {
	if ctx == nil {
		return nil, fail.InvalidParameterCannotBeNilError("ctx")
	}
	if xerr := cfg.Validate(); xerr != nil {
		return nil, xerr
	}
	cc, xerr := cfg.clientConfig()
	if xerr != nil {
		return nil, xerr
	}

	addr := cfg.address()
	dialer := net.Dialer{Timeout: cfg.timeout()}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fail.ConvertError(ctx.Err())
		}
		return nil, fail.NotAvailableErrorWithCause(err, "cannot connect %s", addr)
	}

	// the handshake does not honor the dialer timeout
	_ = conn.SetDeadline(time.Now().Add(cfg.timeout()))
	c, chans, reqs, err := libssh.NewClientConn(conn, addr, cc)
	if err != nil {
		_ = conn.Close()
		return nil, fail.NotAvailableErrorWithCause(err, "ssh handshake with %s failed", cfg)
	}
	_ = conn.SetDeadline(time.Time{})

	logrus.Debugf("connected to %s", cfg)
	return &Remote{cfg: cfg, client: libssh.NewClient(c, chans, reqs)}, nil
}

// Host returns the address of the node
func (r *Remote) Host() string {
	return r.cfg.Host
}

// Close closes the connection
func (r *Remote) Close() fail.Error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	if err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
		return fail.Wrap(err, "failed to close connection to %s", r.cfg)
	}
	return nil
}

func (r *Remote) session() (*libssh.Session, fail.Error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.client == nil {
		return nil, fail.InvalidInstanceContentError("r.client", "connection is closed")
	}
	session, err := r.client.NewSession()
	if err != nil {
		return nil, fail.NotAvailableErrorWithCause(err, "cannot open new session on %s", r.cfg)
	}
	return session, nil
}

// Execute runs 'cmd' on the node. A non-zero exit code is not an error: it is reported in Result.RetCode.
// When the outcome is unknown, RetCode is 255 and a *fail.ErrNotAvailable is returned.
func (r *Remote) Execute(ctx context.Context, cmd string) (_ Result, ferr fail.Error) {
	res := Result{RetCode: networkFailure}
	if r == nil {
		return res, fail.InvalidInstanceError()
	}
	if cmd == "" {
		return res, fail.InvalidParameterCannotBeEmptyStringError("cmd")
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("ssh"), "(%s)", r.cfg.Host).WithStopwatch().Entering()
	defer tracer.Exiting()
	tracer.Trace("command=\n%s\n", cmd)

	session, xerr := r.session()
	if xerr != nil {
		return res, xerr
	}
	defer func() { _ = session.Close() }()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(cmd)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(libssh.SIGKILL)
		return res, fail.ConvertError(ctx.Err())
	}

	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	switch casted := err.(type) {
	case nil:
		res.RetCode = 0
	case *libssh.ExitError:
		res.RetCode = casted.ExitStatus()
	default:
		return res, fail.NotAvailableErrorWithCause(err, "lost the outcome of command on %s", r.cfg)
	}
	tracer.Trace("retcode=%d", res.RetCode)
	return res, nil
}

// CheckCall runs 'cmd' and fails with a *fail.ErrExecution annotated with retcode, stdout and stderr if it does not
// succeed
func (r *Remote) CheckCall(ctx context.Context, cmd string) (Result, fail.Error) {
	res, xerr := r.Execute(ctx, cmd)
	if xerr != nil {
		return res, xerr
	}
	if !res.IsOK() {
		fe := fail.ExecutionError(nil, "command '%s' failed on %s with code %d", cmd, r.cfg.Host, res.RetCode)
		fe.Annotate("retcode", res.RetCode)
		fe.Annotate("stdout", res.Stdout)
		fe.Annotate("stderr", res.Stderr)
		return res, fe
	}
	return res, nil
}

// BackgroundCall starts 'cmd' detached from the session and returns its pid
func (r *Remote) BackgroundCall(ctx context.Context, cmd string) (int, fail.Error) {
	quoted := "'" + strings.ReplaceAll(cmd, "'", `'\''`) + "'"
	res, xerr := r.CheckCall(ctx, "nohup sh -c "+quoted+" > /dev/null 2>&1 & echo $!")
	if xerr != nil {
		return 0, xerr
	}
	pid, err := strconv.Atoi(strings.TrimSpace(res.Stdout))
	if err != nil {
		return 0, fail.SyntaxErrorWithCause(err, "unexpected pid '%s'", strings.TrimSpace(res.Stdout))
	}
	return pid, nil
}

// WaitReady waits until a command can be run on the node. Options are applied after the defaults (sleep
// between attempts for instance).
func WaitReady(ctx context.Context, cfg Config, timeout time.Duration, options ...wait.Option) fail.Error {
	if xerr := cfg.Validate(); xerr != nil {
		return xerr
	}

	opts := []wait.Option{
		wait.Timeout(timeout),
		wait.WaitingFor("ssh on %s to be ready", cfg),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
	}
	err := wait.For(ctx,
		func() (bool, error) {
			remote, xerr := Connect(ctx, cfg)
			if xerr != nil {
				return false, xerr
			}
			defer func() { _ = remote.Close() }()

			res, xerr := remote.Execute(ctx, "true")
			if xerr != nil {
				return false, xerr
			}
			return res.IsOK(), nil
		},
		append(opts, options...)...,
	)
	return fail.ConvertError(err)
}
