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

// Package wait blocks until a condition becomes true, a deadline is reached or the condition fails
// with an error that is not tolerated.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug/tracing"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/retry"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/retry/enums/verdict"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
)

// Predicate is a check evaluated until it returns true
type Predicate func() (bool, error)

// Attempt describes a check that did not succeed
type Attempt = retry.Try

// errNotMet marks a check that returned false, or failed with a tolerated error
var errNotMet = errors.New("condition not met")

type waiter struct {
	timeout    time.Duration
	sleep      time.Duration
	waitingFor string
	tolerated  []Matcher
	notify     func(Attempt)

	lastTolerated error
	fatal         error
}

// Option configures a wait
type Option func(*waiter)

// Timeout sets the duration after which the wait fails; 0 means a single check
func Timeout(d time.Duration) Option {
	return func(w *waiter) {
		w.timeout = d
	}
}

// Sleep sets the interval between two checks
func Sleep(d time.Duration) Option {
	return func(w *waiter) {
		w.sleep = d
	}
}

// WaitingFor sets the description of what is awaited, used in the timeout error
func WaitingFor(format string, args ...interface{}) Option {
	return func(w *waiter) {
		if len(args) > 0 {
			w.waitingFor = fmt.Sprintf(format, args...)
		} else {
			w.waitingFor = format
		}
	}
}

// Tolerate declares the errors considered as "condition not met yet"
func Tolerate(matchers ...Matcher) Option {
	return func(w *waiter) {
		for _, m := range matchers {
			if m != nil {
				w.tolerated = append(w.tolerated, m)
			}
		}
	}
}

// Notify registers a function called after each unsuccessful check that will be followed by another one
func Notify(fn func(Attempt)) Option {
	return func(w *waiter) {
		w.notify = fn
	}
}

func (w *waiter) tolerates(err error) bool {
	for _, m := range w.tolerated {
		if m(err) {
			return true
		}
	}
	return false
}

// For evaluates 'predicate' until it returns true.
//
// A check returning false, or an error matched by a tolerated Matcher, is followed by a sleep then
// another check, while the elapsed time stays under the timeout. When time is over, For returns
// a *fail.ErrTimeout whose message contains the elapsed time and the description given by WaitingFor.
// Any other error returned by 'predicate' is returned as-is, immediately. A panic in 'predicate'
// is returned as *fail.ErrRuntimePanic. Cancellation of 'ctx' stops the wait with *fail.ErrAborted.
func For(ctx context.Context, predicate Predicate, options ...Option) error {
	if ctx == nil {
		return fail.InvalidParameterCannotBeNilError("ctx")
	}
	if predicate == nil {
		return fail.InvalidParameterCannotBeNilError("predicate")
	}

	w := &waiter{
		timeout:    temporal.WaitTimeout(),
		sleep:      temporal.SmallDelay(),
		waitingFor: "condition to be met",
	}
	for _, opt := range options {
		opt(w)
	}
	if w.timeout < 0 {
		return fail.InvalidParameterError("timeout", "cannot be negative")
	}
	if w.sleep <= 0 {
		return fail.InvalidParameterError("sleep", "must be greater than 0")
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("wait"), "(%s)", w.waitingFor).WithStopwatch().Entering()
	defer tracer.Exiting()

	run := func() error {
		met, err := predicate()
		if err != nil {
			if w.tolerates(err) {
				w.lastTolerated = err
				return errNotMet
			}
			w.fatal = err
			return retry.StopRetryError(err)
		}
		// a plain false supersedes an error tolerated earlier
		w.lastTolerated = nil
		if !met {
			return errNotMet
		}
		return nil
	}

	officer := &retry.Officer{
		Delay: func(t retry.Try) time.Duration {
			return temporal.MinTimeout(w.sleep, w.timeout-time.Since(t.Start))
		},
	}

	notify := func(t retry.Try, v verdict.Enum) {
		if v != verdict.Retry {
			return
		}
		if tracing.ShouldTrace("wait.poll") {
			logrus.Tracef("still waiting for %s (check #%d, elapsed: %s)", w.waitingFor, t.Count, temporal.FormatDuration(time.Since(t.Start)))
		}
		if w.notify != nil {
			w.notify(Attempt{Start: t.Start, Count: t.Count, Err: w.lastTolerated})
		}
	}

	xerr := retry.Action(ctx, run, w.arbiter, officer, nil, nil, notify)
	if w.fatal != nil {
		return w.fatal
	}
	if xerr != nil {
		return xerr
	}
	return nil
}

// arbiter decides to stop as soon as the condition is met, to retry while time remains, and to
// abort on any other error
func (w *waiter) arbiter(t retry.Try) (verdict.Enum, fail.Error) {
	switch {
	case t.Err == nil:
		return verdict.Done, nil
	case t.Err == errNotMet:
		elapsed := time.Since(t.Start)
		if elapsed >= w.timeout {
			return verdict.Abort, fail.TimeoutError(w.lastTolerated, w.timeout, "timed out waiting for %s (elapsed: %s)", w.waitingFor, temporal.FormatDuration(elapsed))
		}
		return verdict.Retry, nil
	default:
		return verdict.Abort, fail.ConvertError(t.Err)
	}
}

// Check adapts a boolean check into a Predicate
func Check(fn func() bool) Predicate {
	return func() (bool, error) {
		return fn(), nil
	}
}

// All returns a Predicate that is true when all the predicates are true; it stops at the first one
// that is false or failing
func All(predicates ...Predicate) Predicate {
	return func() (bool, error) {
		for _, p := range predicates {
			ok, err := p()
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
}

// Any returns a Predicate that is true as soon as one of the predicates is true
func Any(predicates ...Predicate) Predicate {
	return func() (bool, error) {
		for _, p := range predicates {
			ok, err := p()
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
}

// Not returns a Predicate that is true when 'predicate' is false
func Not(predicate Predicate) Predicate {
	return func() (bool, error) {
		ok, err := predicate()
		if err != nil {
			return false, err
		}
		return !ok, nil
	}
}
