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

package debug

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/gofrs/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
)

type contextKey string

// KeyForID is the context key holding the identifier of the current scenario; tracers reuse it as signature
const KeyForID contextKey = "ID"

// Tracer ...
type Tracer interface {
	WithStopwatch() Tracer
	EnteringMessage() string
	Entering() Tracer
	ExitingMessage() string
	Exiting() Tracer
	TraceMessage(msg ...interface{}) string
	Trace(msg ...interface{}) Tracer
	TraceAsError(msg ...interface{}) Tracer
	Stopwatch() temporal.Stopwatch
}

// tracer ...
type tracer struct {
	taskSig      string
	fileName     string
	funcName     string
	callerParams string
	enabled      bool
	inDone       bool
	outDone      bool
	sw           temporal.Stopwatch
}

const (
	unknownFunction string = "<unknown function>"
	unknownFile     string = "<unknown file>"
	goingInPrefix   string = ">>> "
	goingOutPrefix  string = "<<< "
)

// WithID returns a context carrying 'id' as signature for the tracers created from it
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, KeyForID, id)
}

// NewTracer creates a new Tracer instance
func NewTracer(ctx context.Context, enable bool, msg ...interface{}) Tracer {
	if ctx == nil {
		ctx = context.Background()
	}

	t := tracer{enabled: enable}
	if aID, ok := ctx.Value(KeyForID).(string); ok && aID != "" {
		t.taskSig = "[" + aID + "]"
	} else {
		nID, _ := uuid.NewV4() // nolint
		t.taskSig = "[" + nID.String() + "]"
	}

	message := formatStrings(msg...)
	if message == "" {
		message = "()"
	}
	t.callerParams = strings.TrimSpace(message)

	if pc, file, _, ok := runtime.Caller(1); ok {
		t.fileName = filepath.Base(file)
		if f := runtime.FuncForPC(pc); f != nil {
			t.funcName = filepath.Base(f.Name())
		}
	}
	if t.funcName == "" {
		t.funcName = unknownFunction
	}
	if t.fileName == "" {
		t.fileName = unknownFile
	}

	return &t
}

func formatStrings(msg ...interface{}) string {
	switch len(msg) {
	case 0:
		return ""
	case 1:
		return fmt.Sprint(msg[0])
	default:
		if format, ok := msg[0].(string); ok {
			return fmt.Sprintf(format, msg[1:]...)
		}
		return fmt.Sprint(msg...)
	}
}

// EnteringMessage returns the content of the message when entering the function
func (instance *tracer) EnteringMessage() string {
	if instance == nil {
		return ""
	}
	return goingInPrefix + instance.buildMessage(0)
}

// WithStopwatch will add a measure of duration between Entering and Exiting.
// Exiting will add the elapsed time in the log message (if it has to be logged...).
func (instance *tracer) WithStopwatch() Tracer {
	if instance.sw == nil {
		instance.sw = temporal.NewStopwatch()
	}
	return instance
}

// Entering logs the input message (signifying we are going in) using TRACE level
func (instance *tracer) Entering() Tracer {
	if instance != nil && !instance.inDone {
		if instance.sw != nil {
			instance.sw.Start()
		}
		if instance.enabled {
			instance.inDone = true
			logrus.Trace(goingInPrefix + instance.buildMessage(0))
		}
	}
	return instance
}

// ExitingMessage returns the content of the message when exiting the function
func (instance *tracer) ExitingMessage() string {
	if instance == nil {
		return ""
	}
	return goingOutPrefix + instance.buildMessage(0)
}

// Exiting logs the output message (signifying we are going out) using TRACE level and adds duration if WithStopwatch() has been called.
func (instance *tracer) Exiting() Tracer {
	if instance != nil && !instance.outDone {
		if instance.sw != nil {
			instance.sw.Stop()
		}
		if instance.enabled {
			instance.outDone = true
			msg := goingOutPrefix + instance.buildMessage(0)
			if instance.sw != nil {
				msg += " (duration: " + instance.sw.String() + ")"
			}
			logrus.Trace(msg)
		}
	}
	return instance
}

// buildMessage builds the message with available information from stack trace
func (instance *tracer) buildMessage(extra uint) string {
	// this value makes sure the internal calls of this package do not interfere with the real caller we want to catch
	skipCallers := 2 + int(extra)

	message := instance.taskSig
	if _, _, line, ok := runtime.Caller(skipCallers); ok {
		message += " " + instance.funcName + instance.callerParams + " [" + instance.fileName + ":" + strconv.Itoa(line) + "]"
	}
	return message
}

// TraceMessage returns a string containing a trace message
func (instance *tracer) TraceMessage(msg ...interface{}) string {
	if instance == nil {
		return ""
	}
	return "--- " + instance.buildMessage(0) + ": " + formatStrings(msg...)
}

// Trace traces a message
func (instance *tracer) Trace(msg ...interface{}) Tracer {
	if instance != nil && instance.enabled {
		logrus.Trace("--- " + instance.buildMessage(0) + ": " + formatStrings(msg...))
	}
	return instance
}

// TraceAsError traces a message with error level
func (instance *tracer) TraceAsError(msg ...interface{}) Tracer {
	if instance != nil && instance.enabled {
		logrus.Error("--- " + instance.buildMessage(0) + ": " + formatStrings(msg...))
	}
	return instance
}

// Stopwatch returns the stopwatch used (if a stopwatch has been asked with WithStopwatch() )
func (instance *tracer) Stopwatch() temporal.Stopwatch {
	if instance == nil || instance.sw == nil {
		return temporal.NewStopwatch()
	}
	return instance.sw
}
