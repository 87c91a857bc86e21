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
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/retry/enums/verdict"
)

func TestPrevailDone(t *testing.T) {
	retrying := func(Try) (verdict.Enum, fail.Error) { return verdict.Retry, nil }
	done := func(Try) (verdict.Enum, fail.Error) { return verdict.Done, nil }

	v, err := PrevailDone(retrying, done)(Try{})
	require.Nil(t, err)
	require.Equal(t, verdict.Done, v)

	v, err = PrevailDone(retrying, retrying)(Try{})
	require.Nil(t, err)
	require.Equal(t, verdict.Retry, v)

	failing := func(Try) (verdict.Enum, fail.Error) { return verdict.Done, fail.NotFoundError("gone") }
	v, err = PrevailDone(done, failing)(Try{})
	require.NotNil(t, err)
	require.Equal(t, verdict.Abort, v)
}

func TestTimeoutArbiter(t *testing.T) {
	arb := Timeout(50 * time.Millisecond)

	v, err := arb(Try{Start: time.Now(), Count: 1})
	require.Nil(t, err)
	require.Equal(t, verdict.Done, v)

	v, err = arb(Try{Start: time.Now(), Count: 1, Err: errors.New("not yet")})
	require.Nil(t, err)
	require.Equal(t, verdict.Retry, v)

	v, err = arb(Try{Start: time.Now().Add(-time.Second), Count: 5, Err: errors.New("not yet")})
	require.NotNil(t, err)
	require.Equal(t, verdict.Abort, v)
	require.Equal(t, 50*time.Millisecond, err.(*ErrTimeout).Duration())
}

func TestMax(t *testing.T) {
	func() {
		defer func() {
			r := recover()
			require.EqualValues(t, "invalid Max configuration", r)
		}()
		Max(0)
	}()

	arb := Max(2)
	v, err := arb(Try{Count: 1, Err: errors.New("again")})
	require.Nil(t, err)
	require.Equal(t, verdict.Retry, v)

	v, err = arb(Try{Count: 2, Err: errors.New("again")})
	require.NotNil(t, err)
	require.Equal(t, verdict.Abort, v)
	require.EqualValues(t, 2, err.(*ErrLimit).Limit())
}

func TestUnsuccessfulStopsOnPanic(t *testing.T) {
	v, err := Unsuccessful()(Try{Err: fail.RuntimePanicError("boom")})
	require.Equal(t, verdict.Done, v)
	require.NotNil(t, err)
}
