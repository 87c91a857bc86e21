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
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

func TestOfficerDelays(t *testing.T) {
	base := 10 * time.Millisecond

	require.Equal(t, base, Constant(base).Delay(Try{Count: 4}))
	require.Equal(t, base*3, Linear(base).Delay(Try{Count: 3}))
	require.Equal(t, base+3, Incremental(base).Delay(Try{Count: 3}))
	require.Equal(t, base*8, Exponential(base).Delay(Try{Count: 3}))

	fib := Fibonacci(base)
	var got []time.Duration
	for i := uint(1); i <= 6; i++ {
		got = append(got, fib.Delay(Try{Count: i}))
	}
	require.Equal(t, []time.Duration{base, base, 2 * base, 3 * base, 5 * base, 8 * base}, got)
}

func TestOfficerBlockCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	xerr := Constant(time.Hour).Block(ctx, Try{Count: 1})
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrAborted)
	require.True(t, ok)

	var nilOfficer *Officer
	require.Nil(t, nilOfficer.Block(ctx, Try{}))
}

func TestBackoffSelector(t *testing.T) {
	t.Setenv("MOS_ALGO_DELAY", "Linear")
	require.Equal(t, 20*time.Millisecond, BackoffSelector()(10*time.Millisecond).Delay(Try{Count: 2}))

	t.Setenv("MOS_ALGO_DELAY", "")
	require.Equal(t, 10*time.Millisecond, BackoffSelector()(10*time.Millisecond).Delay(Try{Count: 2}))
}
