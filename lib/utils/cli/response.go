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

// Package cli holds the helpers shared by the commands of mostests: exit codes and the json responses
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	urfcli "github.com/urfave/cli"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/data/json"
)

// Output receives the responses of the commands
var Output io.Writer = os.Stdout

type status string

const (
	statusSuccess status = "success"
	statusFailure status = "failure"
)

type jsonError struct {
	Message  string `json:"message"`
	ExitCode int    `json:"exitcode"`
}

// responseDisplay is what is printed for every command
type responseDisplay struct {
	Status status      `json:"status"`
	Error  *jsonError  `json:"error,omitempty"`
	Result interface{} `json:"result,omitempty"`
}

func (r responseDisplay) display() {
	out, err := json.Marshal(r)
	if err != nil {
		logrus.Errorf("failed to marshal the response: %v", err)
		return
	}
	if r.Status == statusFailure {
		logrus.Debug(string(out))
	}
	_, _ = fmt.Fprintln(Output, string(out))
}

// SuccessResponse prints 'result' as a successful response
func SuccessResponse(result interface{}) error {
	responseDisplay{Status: statusSuccess, Result: result}.display()
	return nil
}

// FailureResponse prints 'err' as a failed response and returns an exit error without message, the message
// being already part of the response
func FailureResponse(err error) error {
	if err == nil {
		return nil
	}
	coder, _ := ExitOnError(err).(urfcli.ExitCoder)
	responseDisplay{
		Status: statusFailure,
		Error:  &jsonError{Message: coder.Error(), ExitCode: coder.ExitCode()},
	}.display()
	return urfcli.NewExitError("", coder.ExitCode())
}
