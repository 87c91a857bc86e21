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
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterfaceMatching(t *testing.T) {
	values := []interface{}{
		AbortedError(nil),
		DuplicateError(),
		NewErrorList(nil),
		ForbiddenError(),
		InconsistentError(),
		InvalidInstanceError(),
		InvalidInstanceContentError("", ""),
		InvalidParameterError("", ""),
		InvalidRequestError(),
		NotAuthenticatedError(),
		NotAvailableError(),
		NotFoundError(),
		NotImplementedError(),
		OverflowError(nil, 1),
		OverloadError(),
		RuntimePanicError("boom"),
		SyntaxError(),
		TimeoutError(nil, time.Second),
		ExecutionError(nil),
		NewError(),
	}
	for _, val := range values {
		_, ok := val.(Error)
		assert.True(t, ok, "%T doesn't satisfy interface Error", val)
		_, ok = val.(error)
		assert.True(t, ok, "%T doesn't satisfy interface error", val)
	}
}

func TestTimeoutError(t *testing.T) {
	xerr := TimeoutError(nil, 2*time.Second, "waiting for %s", "something")
	require.NotNil(t, xerr)
	assert.Equal(t, "waiting for something (timeout: 2s)", xerr.Error())
	assert.Equal(t, 2*time.Second, xerr.Duration())

	xerr = TimeoutError(errors.New("last error"), 0, "waiting")
	assert.Equal(t, "waiting: last error", xerr.Error())

	var nilErr *ErrTimeout
	assert.True(t, nilErr.IsNull())
	assert.EqualValues(t, 0, nilErr.Duration())
}

func TestOverflowError(t *testing.T) {
	xerr := OverflowError(nil, 5, "too many")
	assert.Equal(t, "too many (limit: 5)", xerr.Error())
	assert.EqualValues(t, 5, xerr.Limit())
}

func TestErrorCause(t *testing.T) {
	root := errors.New("root")
	mid := NotFoundErrorWithCause(root, "middle")
	top := Wrap(mid, "top")

	assert.Equal(t, "top: middle: root", top.Error())
	assert.Equal(t, mid, Cause(top))
	assert.Equal(t, root, RootCause(top))
	assert.Equal(t, root, top.RootCause())

	var nf *ErrNotFound
	assert.True(t, errors.As(top, &nf))
	assert.True(t, errors.Is(top, root))
}

func TestCauseOfPlainError(t *testing.T) {
	err := errors.New("plain")
	assert.Equal(t, err, Cause(err))
	assert.Equal(t, err, RootCause(err))
	assert.Nil(t, Cause(nil))

	wrapped := fmt.Errorf("wrapped: %w", err)
	assert.Equal(t, err, RootCause(wrapped))
}

func TestAnnotations(t *testing.T) {
	xerr := ExecutionError(nil, "command failed")
	assert.Equal(t, -1, xerr.RetCode())

	xerr.Annotate("retcode", 2)
	xerr.Annotate("stderr", "no such file")
	assert.Equal(t, 2, xerr.RetCode())

	v, ok := xerr.Annotation("stderr")
	require.True(t, ok)
	assert.Equal(t, "no such file", v)

	assert.True(t, strings.HasPrefix(xerr.Error(), "command failed\nWith annotations: "))
	assert.Contains(t, xerr.Error(), `"retcode":2`)
	assert.Equal(t, "command failed", xerr.UnformattedError())

	annotations := xerr.Annotations()
	annotations["retcode"] = 42
	assert.Equal(t, 2, xerr.RetCode())
}

func TestPrepend(t *testing.T) {
	var xerr Error = NotFoundError("server not found")
	xerr = Prepend(xerr, "failed to delete %s", "srv01")
	assert.Equal(t, "failed to delete srv01: server not found", xerr.Error())
}

func TestNullValues(t *testing.T) {
	var core *errorCore
	assert.True(t, core.IsNull())
	assert.Equal(t, "", core.Error())
	assert.Nil(t, core.Cause())
	assert.Empty(t, core.Consequences())

	empty := &ErrNotFound{}
	assert.True(t, empty.IsNull())
}
