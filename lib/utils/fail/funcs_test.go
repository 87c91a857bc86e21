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

package fail

import (
	"context"
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_AddConsequence(t *testing.T) {
	err := AddConsequence(nil, nil)
	require.Nil(t, err)

	err = AddConsequence(NotFoundError("Any message"), errors.New("cleanup failed"))
	require.Contains(t, err.Error(), "Any message")
	require.Contains(t, err.Error(), "with consequence:\n- cleanup failed")

	err = AddConsequence(errors.New("Any message"), errors.New("Consequence"))
	require.Equal(t, "Any message", err.Error())

	err = AddConsequence(NotFoundError("Any message 1"), NotFoundError("Any message 2"))
	require.Contains(t, err.Error(), "Any message 2")
}

func Test_Consequences(t *testing.T) {
	require.Len(t, Consequences(nil), 0)
	require.Len(t, Consequences(errors.New("Any error")), 0)

	xerr := NewErrorWithCauseAndConsequences(errors.New("math: can't divide by zero"), []error{errors.New("can't resolve equation"), errors.New("can't find any result")}, "computation failed")
	require.Len(t, Consequences(xerr), 2)
	require.Contains(t, xerr.Error(), "with consequences:")
}

func Test_ConvertError(t *testing.T) {
	require.Nil(t, ConvertError(nil))

	nf := NotFoundError("missing")
	require.Equal(t, Error(nf), ConvertError(nf))

	xerr := ConvertError(context.DeadlineExceeded)
	_, ok := xerr.(*ErrTimeout)
	require.True(t, ok)

	xerr = ConvertError(fmt.Errorf("stopped: %w", context.Canceled))
	_, ok = xerr.(*ErrAborted)
	require.True(t, ok)

	xerr = ConvertError(pkgerrors.Wrap(nf, "while looking"))
	require.Equal(t, Error(nf), xerr)

	xerr = ConvertError(errors.New("plain"))
	_, ok = xerr.(*ErrUnqualified)
	require.True(t, ok)
	require.Equal(t, "plain", xerr.Error())
}

func Test_OnPanic(t *testing.T) {
	run := func() (err error) {
		defer OnPanic(&err)
		panic("something bad")
	}
	err := run()
	require.NotNil(t, err)
	var rp *ErrRuntimePanic
	require.True(t, errors.As(err, &rp))
	assert.Contains(t, rp.UnformattedError(), "something bad")

	runTyped := func() (xerr Error) {
		defer OnPanic(&xerr)
		var m map[string]int
		m["boom"]++
		return nil
	}
	xerr := runTyped()
	require.NotNil(t, xerr)
	_, ok := xerr.(*ErrRuntimePanic)
	require.True(t, ok)
}

func Test_ErrorList(t *testing.T) {
	target := errors.New("second")
	list := NewErrorList([]error{errors.New("first"), nil, target})
	require.Equal(t, 2, list.Len())
	require.Equal(t, "first\nsecond", list.Error())
	require.True(t, errors.Is(list, target))
	require.Len(t, list.ToErrorSlice(), 2)
}
