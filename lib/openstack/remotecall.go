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

package openstack

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/retry"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/retry/enums/verdict"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
)

// consecutiveFailuresToTrip is the number of consecutive communication failures opening the circuit
const consecutiveFailuresToTrip = 5

// Caller protects remote calls with retries on communication failures and a circuit breaker
type Caller struct {
	breaker *gobreaker.CircuitBreaker
	delay    time.Duration
	timeout  time.Duration
	maxTries uint
}

// NewCaller creates a Caller retrying every 'delay' during 'timeout'; the circuit, once open,
// stays open during 'openFor'
func NewCaller(name string, delay, timeout, openFor time.Duration) *Caller {
	return &Caller{
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= consecutiveFailuresToTrip
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logrus.Warnf("circuit breaker '%s' changed from %s to %s", name, from, to)
			},
		}),
		delay:   delay,
		timeout: timeout,
	}
}

// WithMaxTries caps the number of calls made by one Call; 0 means only the timeout applies
func (c *Caller) WithMaxTries(n uint) *Caller {
	c.maxTries = n
	return c
}

// defaultMaxTries bounds the retries when the delays are shortened through the environment
const defaultMaxTries = 20

var defaultCaller = NewCaller("openstack", temporal.NormalDelay(), temporal.CommunicationTimeout(), temporal.BigDelay()).WithMaxTries(defaultMaxTries)

// RetryableRemoteCall calls a remote API with tolerance to communication failures, using the default Caller
func RetryableRemoteCall(ctx context.Context, callback func() error, normalizer func(error) fail.Error) fail.Error {
	return defaultCaller.Call(ctx, callback, normalizer)
}

// transient tells if a normalized error is worth a retry
func transient(xerr fail.Error) bool {
	switch xerr.(type) {
	case *fail.ErrNotAvailable, *fail.ErrOverload, *fail.ErrTimeout:
		return true
	default:
		return false
	}
}

// Call executes 'callback'; errors returned by 'callback' are converted with 'normalizer' (NormalizeError
// if nil). Calls ending with *fail.ErrNotAvailable, *fail.ErrOverload or *fail.ErrTimeout are retried,
// any other error is returned as soon as it occurs.
func (c *Caller) Call(ctx context.Context, callback func() error, normalizer func(error) fail.Error) (ferr fail.Error) {
	defer fail.OnPanic(&ferr)

	if c == nil {
		return fail.InvalidInstanceError()
	}
	if ctx == nil {
		return fail.InvalidParameterCannotBeNilError("ctx")
	}
	if callback == nil {
		return fail.InvalidParameterCannotBeNilError("callback")
	}
	if normalizer == nil {
		normalizer = NormalizeError
	}

	// final is the error of the callback that stopped the retries
	var final fail.Error
	run := func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			if innerErr := callback(); innerErr != nil {
				captured := normalizer(innerErr)
				if transient(captured) {
					// counted as a failure by the breaker
					return nil, captured
				}
				final = captured
			}
			return nil, nil
		})
		switch {
		case err == nil:
			if final != nil {
				return retry.StopRetryError(final)
			}
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return fail.NotAvailableErrorWithCause(err, "calls to the API suspended")
		default:
			return err
		}
	}

	arbiters := []retry.Arbiter{retry.Unsuccessful(), retry.Timeout(c.timeout)}
	if c.maxTries > 0 {
		arbiters = append(arbiters, retry.Max(c.maxTries))
	}
	arbiter := retry.PrevailDone(arbiters...)
	xerr := retry.Action(ctx, run, arbiter, retry.BackoffSelector()(c.delay), nil, nil, notifyRemoteRetry)
	if final != nil {
		return final
	}
	if xerr != nil {
		switch xerr.(type) {
		case *retry.ErrTimeout:
			// the last communication failure is kept as cause
			return fail.TimeoutError(fail.Cause(xerr), c.timeout, "timeout calling the API")
		case *retry.ErrLimit:
			return fail.NotAvailableErrorWithCause(fail.Cause(xerr), "API still unavailable after %d calls", c.maxTries)
		default:
			return xerr
		}
	}
	return nil
}

func notifyRemoteRetry(t retry.Try, v verdict.Enum) {
	if v == verdict.Retry {
		logrus.Debugf("remote call failed (try #%d), retrying: %v", t.Count, t.Err)
	}
}
