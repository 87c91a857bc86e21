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

package wait

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

func TestFor_CounterReachesThreshold(t *testing.T) {
	calls := 0
	begin := time.Now()
	err := For(context.Background(), func() (bool, error) {
		calls++
		return calls >= 3, nil
	}, Timeout(10*time.Second), Sleep(time.Second))
	elapsed := time.Since(begin)

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, elapsed, 2*time.Second)
	assert.Less(t, elapsed, 3*time.Second)
}

func TestFor_AlwaysFalseTimesOut(t *testing.T) {
	calls := 0
	begin := time.Now()
	err := For(context.Background(), Check(func() bool {
		calls++
		return false
	}), Timeout(2*time.Second), Sleep(time.Second), WaitingFor("thing to happen"))
	elapsed := time.Since(begin)

	require.Error(t, err)
	var timeout *fail.ErrTimeout
	require.True(t, errors.As(err, &timeout))
	assert.Contains(t, err.Error(), "thing to happen")
	assert.Contains(t, err.Error(), "00h00m02")
	assert.Equal(t, 3, calls)
	assert.GreaterOrEqual(t, elapsed, 2*time.Second)
}

func TestFor_TimeoutZeroChecksOnce(t *testing.T) {
	calls := 0
	err := For(context.Background(), Check(func() bool {
		calls++
		return false
	}), Timeout(0))
	require.Error(t, err)
	assert.IsType(t, &fail.ErrTimeout{}, err)
	assert.Equal(t, 1, calls)

	calls = 0
	err = For(context.Background(), Check(func() bool {
		calls++
		return true
	}), Timeout(0))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestFor_ToleratedKindRetries(t *testing.T) {
	calls := 0
	err := For(context.Background(), func() (bool, error) {
		calls++
		if calls < 3 {
			return false, fail.NotFoundError("server 'vm1' not found")
		}
		return true, nil
	}, Timeout(time.Second), Sleep(10*time.Millisecond), Tolerate(Kind[*fail.ErrNotFound]()))

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestFor_TimeoutKeepsLastToleratedError(t *testing.T) {
	err := For(context.Background(), func() (bool, error) {
		return false, fail.NotAvailableError("service is down")
	}, Timeout(50*time.Millisecond), Sleep(10*time.Millisecond), Tolerate(Kind[*fail.ErrNotAvailable]()))

	require.Error(t, err)
	var timeout *fail.ErrTimeout
	require.True(t, errors.As(err, &timeout))
	var cause *fail.ErrNotAvailable
	assert.True(t, errors.As(timeout.Cause(), &cause))
	assert.Contains(t, err.Error(), "service is down")
}

func TestFor_PlainFalseClearsToleratedError(t *testing.T) {
	calls := 0
	var notified []error
	err := For(context.Background(), func() (bool, error) {
		calls++
		if calls == 1 {
			return false, fail.NotFoundError("first lookup 404")
		}
		return false, nil
	}, Timeout(50*time.Millisecond), Sleep(5*time.Millisecond), Tolerate(Kind[*fail.ErrNotFound]()), Notify(func(a Attempt) {
		notified = append(notified, a.Err)
	}))

	require.Error(t, err)
	var timeout *fail.ErrTimeout
	require.True(t, errors.As(err, &timeout))
	assert.Nil(t, timeout.Cause())
	assert.NotContains(t, err.Error(), "first lookup 404")
	require.NotEmpty(t, notified)
	assert.Error(t, notified[0])
	assert.Nil(t, notified[len(notified)-1])
}

func TestFor_UntoleratedErrorIsReturnedUnchanged(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := For(context.Background(), func() (bool, error) {
		calls++
		return false, boom
	}, Timeout(time.Second), Sleep(10*time.Millisecond), Tolerate(Kind[*fail.ErrNotFound]()))

	assert.Equal(t, 1, calls)
	assert.True(t, err == boom)
}

func TestFor_ToleratedByIdentity(t *testing.T) {
	transient := errors.New("transient")
	calls := 0
	err := For(context.Background(), func() (bool, error) {
		calls++
		if calls == 1 {
			return false, fmt.Errorf("wrapped: %w", transient)
		}
		return true, nil
	}, Sleep(time.Millisecond), Tolerate(Is(transient)))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFor_PanicIsNeverTolerated(t *testing.T) {
	calls := 0
	err := For(context.Background(), func() (bool, error) {
		calls++
		panic("out of order")
	}, Timeout(time.Second), Sleep(time.Millisecond), Tolerate(AnyError))

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	var rp *fail.ErrRuntimePanic
	assert.True(t, errors.As(err, &rp))
	assert.True(t, strings.Contains(err.Error(), "out of order"))
}

func TestFor_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	begin := time.Now()
	err := For(ctx, Check(func() bool { return false }), Timeout(10*time.Second), Sleep(10*time.Millisecond))
	require.Error(t, err)
	assert.IsType(t, &fail.ErrAborted{}, err)
	assert.Less(t, time.Since(begin), 5*time.Second)
}

func TestFor_SleepCappedByRemainingTime(t *testing.T) {
	begin := time.Now()
	err := For(context.Background(), Check(func() bool { return false }), Timeout(100*time.Millisecond), Sleep(10*time.Second))
	require.Error(t, err)
	assert.Less(t, time.Since(begin), 2*time.Second)
}

func TestFor_InvalidParameters(t *testing.T) {
	var nilCtx context.Context
	err := For(nilCtx, Check(func() bool { return true }))
	assert.IsType(t, &fail.ErrInvalidParameter{}, err)

	err = For(context.Background(), nil)
	assert.IsType(t, &fail.ErrInvalidParameter{}, err)

	err = For(context.Background(), Check(func() bool { return true }), Timeout(-time.Second))
	assert.IsType(t, &fail.ErrInvalidParameter{}, err)

	err = For(context.Background(), Check(func() bool { return true }), Sleep(0))
	assert.IsType(t, &fail.ErrInvalidParameter{}, err)
}

func TestFor_NotifyReceivesUnsuccessfulChecks(t *testing.T) {
	var counts []uint
	calls := 0
	err := For(context.Background(), Check(func() bool {
		calls++
		return calls == 3
	}), Sleep(time.Millisecond), Notify(func(a Attempt) {
		counts = append(counts, a.Count)
	}))

	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2}, counts)
}

func TestCombinators(t *testing.T) {
	yes := Check(func() bool { return true })
	no := Check(func() bool { return false })
	broken := func() (bool, error) { return false, errors.New("broken") }

	ok, err := All(yes, yes)()
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = All(yes, no, broken)()
	assert.NoError(t, err)
	assert.False(t, ok)

	_, err = All(yes, broken)()
	assert.Error(t, err)

	ok, err = Any(no, yes, broken)()
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = Any(no, no)()
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = Not(no)()
	assert.NoError(t, err)
	assert.True(t, ok)

	_, err = Not(broken)()
	assert.Error(t, err)
}

func TestMatchers(t *testing.T) {
	nf := fail.NotFoundError("gone")
	wrapped := fmt.Errorf("listing: %w", nf)

	assert.True(t, Kind[*fail.ErrNotFound]()(wrapped))
	assert.False(t, Kind[*fail.ErrTimeout]()(wrapped))
	assert.True(t, Is(nf)(wrapped))
	assert.True(t, AnyError(wrapped))
	assert.False(t, AnyError(nil))
}
