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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/data/json"
)

// Annotations contains additional information attached to an error (return code, stdout, ...)
type Annotations map[string]interface{}

// consequencer is the interface exposing the methods manipulating consequences
type consequencer interface {
	Consequences() []error // returns a slice of consequences
	AddConsequence(error)  // adds a consequence to an error
}

// causer is the interface exposing the methods manipulating cause
type causer interface {
	Cause() error     // returns the first immediate cause of an error
	RootCause() error // returns the root cause of an error
}

// Error defines the interface of an error produced by this module
type Error interface {
	causer
	consequencer
	error

	Annotate(key string, value interface{})
	Annotation(key string) (interface{}, bool)
	Annotations() Annotations

	UnformattedError() string
	IsNull() bool

	prependToMessage(string)
}

// errorCore is the implementation of interface Error
type errorCore struct {
	message      string
	cause        error
	annotations  Annotations
	consequences []error
	lock         *sync.RWMutex
}

// ErrUnqualified is a generic Error type that has no particular signification
type ErrUnqualified struct {
	*errorCore
}

// NewError creates a new failure report
func NewError(msg ...interface{}) Error {
	return &ErrUnqualified{errorCore: newError(nil, nil, msg...)}
}

// NewErrorWithCause creates a new failure report with a cause
func NewErrorWithCause(cause error, msg ...interface{}) Error {
	return &ErrUnqualified{errorCore: newError(cause, nil, msg...)}
}

// NewErrorWithCauseAndConsequences creates a new failure report with a cause and a list of teardown problems 'consequences'
func NewErrorWithCauseAndConsequences(cause error, consequences []error, msg ...interface{}) Error {
	return &ErrUnqualified{errorCore: newError(cause, consequences, msg...)}
}

// newError creates a new failure report with a message 'message', a causer error 'causer' and a list of teardown problems 'consequences'
func newError(cause error, consequences []error, msg ...interface{}) *errorCore {
	if consequences == nil {
		consequences = []error{}
	}
	return &errorCore{
		message:      strings.TrimSpace(formatStrings(msg...)),
		cause:        cause,
		consequences: consequences,
		annotations:  make(Annotations),
		lock:         &sync.RWMutex{},
	}
}

// formatStrings formats 'msg' using the first item as format when there is more than one item
func formatStrings(msg ...interface{}) string {
	switch len(msg) {
	case 0:
		return ""
	case 1:
		if msg[0] == nil {
			return ""
		}
		if s, ok := msg[0].(string); ok {
			return s
		}
		return fmt.Sprint(msg[0])
	default:
		if format, ok := msg[0].(string); ok {
			return fmt.Sprintf(format, msg[1:]...)
		}
		return fmt.Sprint(msg...)
	}
}

// IsNull tells if the instance is to be considered as null value
func (e *errorCore) IsNull() bool {
	return e == nil || e.lock == nil
}

// Unwrap implements the Wrapper interface
func (e *errorCore) Unwrap() error {
	if e.IsNull() {
		return nil
	}
	e.lock.RLock()
	defer e.lock.RUnlock()

	return e.cause
}

// Cause is just an accessor for internal e.cause
func (e *errorCore) Cause() error {
	return e.Unwrap()
}

// RootCause returns the initial error's cause
func (e *errorCore) RootCause() error {
	if e.IsNull() {
		return nil
	}
	return RootCause(e)
}

// Annotate adds an annotation (key-value) pair to current error 'e'
func (e *errorCore) Annotate(key string, value interface{}) {
	if e.IsNull() {
		logrus.Errorf("invalid call: errorCore.Annotate() from null value")
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	if e.annotations == nil {
		e.annotations = make(Annotations)
	}
	e.annotations[key] = value
}

// Annotation returns the value of annotation 'key', if any
func (e *errorCore) Annotation(key string) (interface{}, bool) {
	if e.IsNull() {
		return nil, false
	}
	e.lock.RLock()
	defer e.lock.RUnlock()

	r, ok := e.annotations[key]
	return r, ok
}

// Annotations ...
func (e *errorCore) Annotations() Annotations {
	if e.IsNull() {
		return Annotations{}
	}
	e.lock.RLock()
	defer e.lock.RUnlock()

	out := make(Annotations, len(e.annotations))
	for k, v := range e.annotations {
		out[k] = v
	}
	return out
}

// AddConsequence adds an error 'err' to the list of consequences
func (e *errorCore) AddConsequence(err error) {
	if err == nil || e.IsNull() {
		return
	}
	if c, ok := err.(interface{ Cause() error }); ok && c.Cause() == error(e) {
		return
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	e.consequences = append(e.consequences, err)
}

// Consequences returns the consequences of current error (detected teardown problems)
func (e *errorCore) Consequences() []error {
	if e.IsNull() {
		return []error{}
	}
	e.lock.RLock()
	defer e.lock.RUnlock()

	out := make([]error, len(e.consequences))
	copy(out, e.consequences)
	return out
}

func (e *errorCore) prependToMessage(msg string) {
	if e.IsNull() || msg == "" {
		return
	}
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.message == "" {
		e.message = msg
	} else {
		e.message = msg + ": " + e.message
	}
}

// Error returns a human-friendly error explanation
// satisfies interface error
func (e *errorCore) Error() string {
	if e.IsNull() {
		return ""
	}

	msgFinal := e.UnformattedError()

	e.lock.RLock()
	defer e.lock.RUnlock()

	if len(e.annotations) > 0 {
		if j, err := json.Marshal(e.annotations); err == nil {
			msgFinal += "\nWith annotations: " + string(j)
		}
	}
	return msgFinal
}

// UnformattedError returns the message of the error and its causes, without annotations
func (e *errorCore) UnformattedError() string {
	if e.IsNull() {
		return ""
	}

	e.lock.RLock()
	defer e.lock.RUnlock()

	msgFinal := e.message
	if e.cause != nil {
		var raw string
		if cerr, ok := e.cause.(Error); ok {
			raw = cerr.UnformattedError()
		} else {
			raw = e.cause.Error()
		}
		switch {
		case raw == "":
		case msgFinal == "":
			msgFinal = raw
		default:
			msgFinal += ": " + raw
		}
	}

	if l := len(e.consequences); l > 0 {
		msgFinal += "\nwith consequence"
		if l > 1 {
			msgFinal += "s"
		}
		msgFinal += ":"
		for _, con := range e.consequences {
			msgFinal += "\n- " + con.Error()
		}
	}
	return msgFinal
}

// ErrTimeout defines a ErrTimeout error
type ErrTimeout struct {
	*errorCore
	dur time.Duration
}

// TimeoutError returns an ErrTimeout instance
func TimeoutError(cause error, dur time.Duration, msg ...interface{}) *ErrTimeout {
	message := formatStrings(msg...)
	if dur > 0 {
		limitMsg := fmt.Sprintf("(timeout: %s)", dur)
		if message != "" {
			message += " "
		}
		message += limitMsg
	}
	return &ErrTimeout{
		errorCore: newError(cause, nil, message),
		dur:       dur,
	}
}

// IsNull tells if the instance is null
func (e *ErrTimeout) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// Duration returns the timeout that has been exceeded
func (e *ErrTimeout) Duration() time.Duration {
	if e.IsNull() {
		return 0
	}
	return e.dur
}

// ErrNotFound resource not found error
type ErrNotFound struct {
	*errorCore
}

// NotFoundError creates an ErrNotFound error
func NotFoundError(msg ...interface{}) *ErrNotFound {
	return &ErrNotFound{newError(nil, nil, msg...)}
}

// NotFoundErrorWithCause creates an ErrNotFound error initialized with cause 'cause'
func NotFoundErrorWithCause(cause error, msg ...interface{}) *ErrNotFound {
	return &ErrNotFound{newError(cause, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrNotFound) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrNotAvailable resource not available error
type ErrNotAvailable struct {
	*errorCore
}

// NotAvailableError creates an ErrNotAvailable error
func NotAvailableError(msg ...interface{}) *ErrNotAvailable {
	return &ErrNotAvailable{newError(nil, nil, msg...)}
}

// NotAvailableErrorWithCause creates an ErrNotAvailable error initialized with a cause
func NotAvailableErrorWithCause(cause error, msg ...interface{}) *ErrNotAvailable {
	return &ErrNotAvailable{newError(cause, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrNotAvailable) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrDuplicate already exists error
type ErrDuplicate struct {
	*errorCore
}

// DuplicateError creates an ErrDuplicate error
func DuplicateError(msg ...interface{}) *ErrDuplicate {
	return &ErrDuplicate{newError(nil, nil, msg...)}
}

// DuplicateErrorWithCause creates an ErrDuplicate error initialized with a cause
func DuplicateErrorWithCause(cause error, msg ...interface{}) *ErrDuplicate {
	return &ErrDuplicate{newError(cause, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrDuplicate) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrInvalidRequest ...
type ErrInvalidRequest struct {
	*errorCore
}

// InvalidRequestError creates an ErrInvalidRequest error
func InvalidRequestError(msg ...interface{}) *ErrInvalidRequest {
	return &ErrInvalidRequest{newError(nil, nil, msg...)}
}

// InvalidRequestErrorWithCause creates an ErrInvalidRequest error initialized with a cause
func InvalidRequestErrorWithCause(cause error, msg ...interface{}) *ErrInvalidRequest {
	return &ErrInvalidRequest{newError(cause, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrInvalidRequest) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrSyntax ...
type ErrSyntax struct {
	*errorCore
}

// SyntaxError creates an ErrSyntax error
func SyntaxError(msg ...interface{}) *ErrSyntax {
	return &ErrSyntax{newError(nil, nil, msg...)}
}

// SyntaxErrorWithCause creates an ErrSyntax error initialized with a cause
func SyntaxErrorWithCause(cause error, msg ...interface{}) *ErrSyntax {
	return &ErrSyntax{newError(cause, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrSyntax) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrNotAuthenticated when action is done without being authenticated first
type ErrNotAuthenticated struct {
	*errorCore
}

// NotAuthenticatedError creates an ErrNotAuthenticated error
func NotAuthenticatedError(msg ...interface{}) *ErrNotAuthenticated {
	return &ErrNotAuthenticated{newError(nil, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrNotAuthenticated) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrForbidden when action is not allowed
type ErrForbidden struct {
	*errorCore
}

// ForbiddenError creates an ErrForbidden error
func ForbiddenError(msg ...interface{}) *ErrForbidden {
	return &ErrForbidden{newError(nil, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrForbidden) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrAborted is used to signal abortion
type ErrAborted struct {
	*errorCore
}

// AbortedError creates an ErrAborted error
func AbortedError(cause error, msg ...interface{}) *ErrAborted {
	var message string
	if len(msg) == 0 {
		message = "aborted"
	} else {
		message = formatStrings(msg...)
	}
	return &ErrAborted{newError(cause, nil, message)}
}

// IsNull tells if the instance is null
func (e *ErrAborted) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrOverflow is used when a limit is reached
type ErrOverflow struct {
	*errorCore
	limit uint
}

// OverflowError creates an ErrOverflow error
func OverflowError(cause error, limit uint, msg ...interface{}) *ErrOverflow {
	message := formatStrings(msg...)
	if limit > 0 {
		limitMsg := fmt.Sprintf("(limit: %d)", limit)
		if message != "" {
			message += " "
		}
		message += limitMsg
	}
	return &ErrOverflow{
		errorCore: newError(cause, nil, message),
		limit:     limit,
	}
}

// IsNull tells if the instance is null
func (e *ErrOverflow) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// Limit returns the limit that has been reached
func (e *ErrOverflow) Limit() uint {
	if e.IsNull() {
		return 0
	}
	return e.limit
}

// ErrOverload when action cannot be honored because provider is overloaded (ie too many requests occurred in a given time)
type ErrOverload struct {
	*errorCore
}

// OverloadError creates an ErrOverload error
func OverloadError(msg ...interface{}) *ErrOverload {
	return &ErrOverload{newError(nil, nil, msg...)}
}

// OverloadErrorWithCause creates an ErrOverload error initialized with a cause
func OverloadErrorWithCause(cause error, msg ...interface{}) *ErrOverload {
	return &ErrOverload{newError(cause, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrOverload) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrNotImplemented ...
type ErrNotImplemented struct {
	*errorCore
}

// NotImplementedError creates an ErrNotImplemented error
func NotImplementedError(msg ...interface{}) *ErrNotImplemented {
	return &ErrNotImplemented{newError(nil, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrNotImplemented) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrRuntimePanic ...
type ErrRuntimePanic struct {
	*errorCore
}

// RuntimePanicError creates an ErrRuntimePanic error
func RuntimePanicError(pattern string, args ...interface{}) *ErrRuntimePanic {
	return &ErrRuntimePanic{newError(nil, nil, fmt.Sprintf(pattern, args...))}
}

// IsNull tells if the instance is null
func (e *ErrRuntimePanic) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrInvalidInstance has to be used when a method is called from an instance equal to nil
type ErrInvalidInstance struct {
	*errorCore
}

// InvalidInstanceError creates an ErrInvalidInstance error
func InvalidInstanceError() *ErrInvalidInstance {
	return &ErrInvalidInstance{newError(nil, nil, "invalid instance: calling method from a nil pointer")}
}

// IsNull tells if the instance is null
func (e *ErrInvalidInstance) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrInvalidParameter ...
type ErrInvalidParameter struct {
	*errorCore
}

// InvalidParameterError creates an ErrInvalidParameter error
func InvalidParameterError(what string, why ...interface{}) *ErrInvalidParameter {
	return &ErrInvalidParameter{newError(nil, nil, "invalid parameter '"+what+"': "+formatStrings(why...))}
}

// InvalidParameterCannotBeNilError is a specialized *ErrInvalidParameter with message "cannot be nil"
func InvalidParameterCannotBeNilError(what string) *ErrInvalidParameter {
	return InvalidParameterError(what, "cannot be nil")
}

// InvalidParameterCannotBeEmptyStringError is a specialized *ErrInvalidParameter with message "cannot be empty string"
func InvalidParameterCannotBeEmptyStringError(what string) *ErrInvalidParameter {
	return InvalidParameterError(what, "cannot be empty string")
}

// IsNull tells if the instance is null
func (e *ErrInvalidParameter) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrInvalidInstanceContent has to be used when a property of an instance contains invalid value
type ErrInvalidInstanceContent struct {
	*errorCore
}

// InvalidInstanceContentError creates an ErrInvalidInstanceContent error
func InvalidInstanceContentError(what, why string) *ErrInvalidInstanceContent {
	return &ErrInvalidInstanceContent{newError(nil, nil, "invalid instance content '"+what+"': "+why)}
}

// IsNull tells if the instance is null
func (e *ErrInvalidInstanceContent) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrInconsistent is used when data used is inconsistent
type ErrInconsistent struct {
	*errorCore
}

// InconsistentError creates an ErrInconsistent error
func InconsistentError(msg ...interface{}) *ErrInconsistent {
	return &ErrInconsistent{newError(nil, nil, msg...)}
}

// IsNull tells if the instance is null
func (e *ErrInconsistent) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// ErrExecution is used when code ran but did not succeed
type ErrExecution struct {
	*errorCore
}

// ExecutionError creates an ErrExecution error
func ExecutionError(cause error, msg ...interface{}) *ErrExecution {
	r := newError(cause, nil, msg...)
	r.annotations["retcode"] = -1
	return &ErrExecution{r}
}

// IsNull tells if the instance is null
func (e *ErrExecution) IsNull() bool {
	return e == nil || e.errorCore.IsNull()
}

// RetCode returns the value of annotation "retcode", -1 if not set
func (e *ErrExecution) RetCode() int {
	if e.IsNull() {
		return -1
	}
	if v, ok := e.Annotation("retcode"); ok {
		if code, ok := v.(int); ok {
			return code
		}
	}
	return -1
}
