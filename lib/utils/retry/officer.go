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
	"context"
	"math"
	"time"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// Officer sleeps or selects any amount of time for each attempt
type Officer struct {
	// Delay returns the amount of time to wait after the try 't'
	Delay func(t Try) time.Duration
}

// Backoff is the type of the functions building an Officer from a base duration
type Backoff func(duration time.Duration) *Officer

// Block waits for the delay decided for try 't', or until 'ctx' is done
func (o *Officer) Block(ctx context.Context, t Try) fail.Error {
	if o == nil || o.Delay == nil {
		return nil
	}

	d := o.Delay(t)
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fail.AbortedError(ctx.Err(), "aborted while waiting between tries")
	}
}

// Constant sleeps for duration duration
func Constant(duration time.Duration) *Officer {
	return &Officer{
		Delay: func(Try) time.Duration {
			return duration
		},
	}
}

// Incremental sleeps for duration + the number of tries
func Incremental(duration time.Duration) *Officer {
	return &Officer{
		Delay: func(t Try) time.Duration {
			return duration + time.Duration(t.Count)
		},
	}
}

// Linear sleeps for duration * the number of tries
func Linear(duration time.Duration) *Officer {
	return &Officer{
		Delay: func(t Try) time.Duration {
			return duration * time.Duration(t.Count)
		},
	}
}

// Exponential sleeps for duration base * 2^tries
func Exponential(base time.Duration) *Officer {
	return &Officer{
		Delay: func(t Try) time.Duration {
			return time.Duration(float64(base) * math.Pow(2, float64(t.Count)))
		},
	}
}

// Fibonacci sleeps for duration * fib(tries)
func Fibonacci(base time.Duration) *Officer {
	return &Officer{
		Delay: func(t Try) time.Duration {
			var pre, cur uint64 = 0, 1
			for i := uint(1); i < t.Count; i++ {
				pre, cur = cur, pre+cur
			}
			return base * time.Duration(cur)
		},
	}
}
