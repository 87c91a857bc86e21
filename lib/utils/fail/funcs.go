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
	"runtime/debug"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AddConsequence adds an error 'cons' to the list of consequences of 'err'
func AddConsequence(err error, cons error) error {
	if err != nil {
		if conseq, ok := err.(consequencer); ok {
			if cons != nil {
				conseq.AddConsequence(cons)
			}
			return err
		}
		if cons != nil {
			logrus.Errorf("trying to add error [%s] to existing error [%s] but failed", cons, err)
		}
	}
	return err
}

// Consequences returns the list of consequences
func Consequences(err error) []error {
	if err != nil {
		if conseq, ok := err.(consequencer); ok {
			return conseq.Consequences()
		}
	}
	return []error{}
}

// Wrap creates a new error with a message 'msg' and a cause 'cause'
func Wrap(cause error, msg ...interface{}) Error {
	return NewErrorWithCause(cause, msg...)
}

// Prepend adds 'msg' in front of the message of 'err'
func Prepend(err Error, msg ...interface{}) Error {
	if err != nil && !err.IsNull() {
		err.prependToMessage(formatStrings(msg...))
	}
	return err
}

// Cause returns the immediate cause of an error if it has one, the error itself otherwise
func Cause(err error) error {
	if err == nil {
		return nil
	}
	if c, ok := err.(causer); ok {
		if cause := c.Cause(); cause != nil {
			return cause
		}
	}
	return err
}

// RootCause follows the chain of causes until the last one
func RootCause(err error) error {
	for err != nil {
		var next error
		switch c := err.(type) {
		case causer:
			next = c.Cause()
		default:
			next = errors.Unwrap(err)
			if next == nil {
				next = pkgerrors.Cause(err)
				if next == err {
					next = nil
				}
			}
		}
		if next == nil {
			return err
		}
		err = next
	}
	return err
}

// ConvertError converts an error to a fail.Error
func ConvertError(err error) Error {
	if err == nil {
		return nil
	}

	if casted, ok := err.(Error); ok {
		return casted
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return TimeoutError(err, 0)
	case errors.Is(err, context.Canceled):
		return AbortedError(err)
	}

	// errors built with github.com/pkg/errors only add a stack to their origin
	if _, ok := err.(interface{ Cause() error }); ok {
		var casted Error
		if errors.As(err, &casted) {
			return casted
		}
	}
	return NewErrorWithCause(err)
}

// OnPanic captures panic error and fill the error pointer with a ErrRuntimePanic.
// Must be called directly with defer: defer fail.OnPanic(&err)
func OnPanic(err interface{}) {
	if x := recover(); x != nil {
		xerr := RuntimePanicError("runtime panic occurred: %+v", x)
		xerr.Annotate("stack", string(debug.Stack()))
		switch v := err.(type) {
		case *Error:
			if v != nil {
				*v = xerr
			}
		case *error:
			if v != nil {
				*v = xerr
			}
		default:
			logrus.Errorf("fail.OnPanic() called with unsupported parameter type %T; panic was: %v", err, x)
		}
	}
}

// OnExitLogError logs error with level logrus.ErrorLevel if 'err' points to a non-nil error.
// Intended to be used with defer: defer fail.OnExitLogError(&err, "while doing something")
func OnExitLogError(err interface{}, msg ...interface{}) {
	var e error
	switch v := err.(type) {
	case *Error:
		if v != nil && *v != nil && !(*v).IsNull() {
			e = *v
		}
	case *error:
		if v != nil {
			e = *v
		}
	default:
		logrus.Errorf("fail.OnExitLogError() called with unsupported parameter type %T", err)
		return
	}
	if e == nil {
		return
	}

	prefix := formatStrings(msg...)
	if prefix == "" {
		logrus.Error(e.Error())
		return
	}
	logrus.Error(fmt.Sprintf("%s: %s", prefix, e.Error()))
}
