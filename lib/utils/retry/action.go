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

// Package retry implements a mean to retry an action with ability to define complex
// delays and stop conditions
package retry

import (
	"context"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/retry/enums/verdict"
)

// Try keeps track of the number of tries, starting from 1. Action is valid only when Err is nil.
type Try struct {
	Start time.Time
	Count uint
	Err   error
}

// Notify is called after each try with the verdict of the arbiter
type Notify func(Try, verdict.Enum)

type action struct {
	// Officer is used to apply needed delay between 2 tries. If nil, no delay will be used.
	Officer *Officer
	// Arbiter is called for every try to determine if next try is wanted
	Arbiter Arbiter
	// Run is called for every try
	Run func() error
	// Notify
	Notify Notify
}

// Action tries to execute 'run' following verdicts from arbiter, with delay decided by 'officer'.
// If defined, 'first' is executed before trying (and may fail), and last is executed after the
// tries (whatever the state of the tries is, and cannot fail)
func Action(
	ctx context.Context,
	run func() error,
	arbiter Arbiter,
	officer *Officer,
	first func() error,
	last func() error,
	notify Notify,
) (ferr fail.Error) {
	if ctx == nil {
		return fail.InvalidParameterCannotBeNilError("ctx")
	}
	if run == nil {
		return fail.InvalidParameterCannotBeNilError("run")
	}
	if arbiter == nil {
		return fail.InvalidParameterCannotBeNilError("arbiter")
	}
	if officer == nil {
		return fail.InvalidParameterCannotBeNilError("officer")
	}

	if first != nil {
		if err := first(); err != nil {
			return fail.Wrap(err, "failed to prepare the tries")
		}
	}
	if last != nil {
		defer func() {
			if err := last(); err != nil {
				logrus.Warnf("ignoring error of the function called after the tries: %v", err)
			}
		}()
	}

	return action{
		Officer: officer,
		Arbiter: arbiter,
		Run:     run,
		Notify:  notify,
	}.loop(ctx)
}

// BackoffSelector allows change the backoff delays between retries
func BackoffSelector() Backoff {
	switch os.Getenv("MOS_ALGO_DELAY") {
	case "Incremental":
		return Incremental
	case "Linear":
		return Linear
	case "Exponential":
		return Exponential
	case "Fibonacci":
		return Fibonacci
	default:
		return Constant
	}
}

// WhileUnsuccessfulWithLimitedRetries retries 'run' while it fails, at most 'retries' times and during 'timeout',
// waiting 'delay' between tries. A 'timeout' or 'retries' of 0 means no such limit.
func WhileUnsuccessfulWithLimitedRetries(ctx context.Context, run func() error, delay time.Duration, timeout time.Duration, retries uint) fail.Error {
	if delay <= 0 {
		delay = time.Second
	}

	arbiters := []Arbiter{Unsuccessful()}
	if timeout > 0 {
		arbiters = append(arbiters, Timeout(timeout))
	}
	if retries >= 1 {
		arbiters = append(arbiters, Max(retries))
	}
	return Action(ctx, run, PrevailDone(arbiters...), BackoffSelector()(delay), nil, nil, DefaultNotifier())
}

// DefaultNotifier provides a default Notifier, active only when MOS_FORENSICS is set
func DefaultNotifier() Notify {
	if forensics := os.Getenv("MOS_FORENSICS"); forensics == "" {
		return nil
	}

	return func(t Try, v verdict.Enum) {
		switch v {
		case verdict.Retry:
			logrus.Tracef("retrying (#%d), previous error was: %v [%s]", t.Count, t.Err, spew.Sdump(fail.RootCause(t.Err)))
		case verdict.Done:
			if t.Err != nil {
				logrus.Tracef("no more retries, operation had an error %v [%s] but it's considered OK", t.Err, spew.Sdump(fail.RootCause(t.Err)))
			} else if t.Count > 1 {
				logrus.Tracef("no more retries, operation was OK")
			}
		case verdict.Undecided:
			logrus.Tracef("nothing to do")
		case verdict.Abort:
			logrus.Tracef("aborting, previous error was: %v [%s]", t.Err, spew.Sdump(fail.RootCause(t.Err)))
		}
	}
}

// runOnce executes a.Run, converting a panic into *fail.ErrRuntimePanic
func (a action) runOnce() (err error) {
	defer fail.OnPanic(&err)
	return a.Run()
}

// loop executes the tries and stops if the elapsed time is gone beyond the timeout decided by the arbiter,
// or when 'ctx' is done
func (a action) loop(ctx context.Context) fail.Error {
	arbiter := a.Arbiter
	start := time.Now()
	for count := uint(1); ; count++ {
		if err := ctx.Err(); err != nil {
			return fail.AbortedError(err, "aborted before try #%d", count)
		}

		// Collects the result of the try
		try := Try{
			Start: start,
			Count: count,
			Err:   a.runOnce(),
		}

		// Asks what to do now
		v, retryErr := arbiter(try)

		// Notify to interested parties
		if a.Notify != nil {
			a.Notify(try, v)
		}

		switch v {
		case verdict.Done, verdict.Abort:
			return retryErr
		default:
			// Retry is wanted, so blocks the loop the amount of time needed
			if xerr := a.Officer.Block(ctx, try); xerr != nil {
				return xerr
			}
		}
	}
}
