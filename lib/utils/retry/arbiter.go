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
	"time"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/retry/enums/verdict"
)

// Arbiter decides for each try whether to retry, to stop, or to abort
type Arbiter func(Try) (verdict.Enum, fail.Error)

// PrevailDone aggregates verdicts from Arbiters for a try:
// - Returns Abort and the error as soon as an Abort is decided.
// - If at least one arbiter return Done without any Abort, returns Done with nil error.
// - Otherwise returns Retry with nil error.
func PrevailDone(arbiters ...Arbiter) Arbiter {
	return func(t Try) (verdict.Enum, fail.Error) {
		final := verdict.Retry
		for _, a := range arbiters {
			v, err := a(t)
			if err != nil {
				return verdict.Abort, err
			}

			switch v {
			case verdict.Done:
				final = verdict.Done
			case verdict.Abort:
				return verdict.Abort, nil
			}
		}
		return final, nil
	}
}

// stopping tells if the error of a try ends the retries whatever the other conditions are
func stopping(err error) (fail.Error, bool) {
	switch cerr := err.(type) {
	case *ErrStopRetry:
		return cerr, true
	case *fail.ErrRuntimePanic:
		return cerr, true
	}
	return nil, false
}

// Unsuccessful returns Retry when the try produced an error; returns Done otherwise
func Unsuccessful() Arbiter {
	return func(t Try) (verdict.Enum, fail.Error) {
		if t.Err != nil {
			if cerr, ok := stopping(t.Err); ok {
				return verdict.Done, cerr
			}
			return verdict.Retry, nil
		}
		return verdict.Done, nil
	}
}

// Timeout returns Abort after a duration of time passes since the first try, while the try returns an error; returns Done if no error occurred during the last try
func Timeout(limit time.Duration) Arbiter {
	return func(t Try) (verdict.Enum, fail.Error) {
		if t.Err == nil {
			return verdict.Done, nil
		}
		if cerr, ok := stopping(t.Err); ok {
			return verdict.Done, cerr
		}
		if time.Since(t.Start) >= limit {
			return verdict.Abort, TimeoutError(t.Err, limit)
		}
		return verdict.Retry, nil
	}
}

// Max errors after a limited number of tries, while the last try returned an error; returns Done if no error occurred during the last try
func Max(limit uint) Arbiter {
	if limit == 0 {
		panic("invalid Max configuration")
	}
	return func(t Try) (verdict.Enum, fail.Error) {
		if t.Err == nil {
			return verdict.Done, nil
		}
		if cerr, ok := stopping(t.Err); ok {
			return verdict.Done, cerr
		}
		if t.Count >= limit {
			return verdict.Abort, LimitError(t.Err, limit)
		}
		return verdict.Retry, nil
	}
}
