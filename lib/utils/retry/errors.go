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

package retry

import (
	"fmt"
	"time"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
)

// ErrTimeout is used when a timeout occurs.
type ErrTimeout = fail.ErrTimeout

// TimeoutError ...
func TimeoutError(err error, limit time.Duration) *ErrTimeout {
	return fail.TimeoutError(err, limit, fmt.Sprintf("retries timed out after %s", temporal.FormatDuration(limit)))
}

// ErrLimit is used when a limit is reached.
type ErrLimit = fail.ErrOverflow

// LimitError ...
func LimitError(err error, limit uint) *ErrLimit {
	return fail.OverflowError(err, limit, "retry limit exceeded")
}

// ErrStopRetry is returned when the context needs to stop the retries
type ErrStopRetry = fail.ErrAborted

// StopRetryError ...
func StopRetryError(err error, msg ...interface{}) *ErrStopRetry {
	var newMessage string
	switch len(msg) {
	case 0:
	case 1:
		newMessage = fmt.Sprint(msg[0])
	default:
		if format, ok := msg[0].(string); ok {
			newMessage = fmt.Sprintf(format, msg[1:]...)
		} else {
			newMessage = fmt.Sprint(msg...)
		}
	}
	if newMessage == "" {
		newMessage = "stopping retries"
	} else {
		newMessage = "stopping retries: " + newMessage
	}
	return fail.AbortedError(err, newMessage)
}
