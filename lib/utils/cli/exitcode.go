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

package cli

import (
	"errors"

	urfcli "github.com/urfave/cli"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// ExitCode is the exit status of the mostests commands
type ExitCode int

const (
	Success ExitCode = iota
	Run
	InvalidArgument
	InvalidOption
	NotFound
	Timeout
	NotAvailable
	Aborted
	Execution
	NotAuthenticated
)

// ExitCodeFromError chooses the exit code matching the kind of 'err'
func ExitCodeFromError(err error) ExitCode {
	if err == nil {
		return Success
	}
	switch fail.ConvertError(err).(type) {
	case *fail.ErrInvalidParameter, *fail.ErrInvalidRequest, *fail.ErrSyntax:
		return InvalidArgument
	case *fail.ErrNotFound:
		return NotFound
	case *fail.ErrTimeout:
		return Timeout
	case *fail.ErrNotAvailable, *fail.ErrOverload:
		return NotAvailable
	case *fail.ErrAborted:
		return Aborted
	case *fail.ErrExecution:
		return Execution
	case *fail.ErrNotAuthenticated, *fail.ErrForbidden:
		return NotAuthenticated
	default:
		return Run
	}
}

// ExitOnInvalidArgument returns an urfave/cli ExitCoder for a bad command-line argument
func ExitOnInvalidArgument(msg string) error {
	return urfcli.NewExitError(msg, int(InvalidArgument))
}

// ExitOnInvalidOption returns an urfave/cli ExitCoder for a bad flag value
func ExitOnInvalidOption(msg string) error {
	return urfcli.NewExitError(msg, int(InvalidOption))
}

// ExitOnError converts 'err' to an urfave/cli ExitCoder carrying the exit code of its kind
func ExitOnError(err error) error {
	if err == nil {
		return nil
	}
	var coder urfcli.ExitCoder
	if errors.As(err, &coder) {
		return coder
	}
	return urfcli.NewExitError(err.Error(), int(ExitCodeFromError(err)))
}
