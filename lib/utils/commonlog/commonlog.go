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

package commonlog

import (
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// LogLevelFnMap is a map between loglevel and log functions from logrus
var LogLevelFnMap = map[logrus.Level]func(args ...interface{}){
	logrus.TraceLevel: logrus.Trace,
	logrus.DebugLevel: logrus.Debug,
	logrus.InfoLevel:  logrus.Info,
	logrus.WarnLevel:  logrus.Warn,
	logrus.ErrorLevel: logrus.Error,
}

// MyFormatter adds the pid and the untruncated level after the timestamp
type MyFormatter struct {
	logrus.TextFormatter
	pid string
}

// GetDefaultFormatter returns the default formatter used by all modules; colors are enabled only on a terminal
func GetDefaultFormatter() *MyFormatter {
	return &MyFormatter{
		TextFormatter: logrus.TextFormatter{
			ForceColors:            term.IsTerminal(int(os.Stderr.Fd())),
			DisableColors:          !term.IsTerminal(int(os.Stderr.Fd())),
			TimestampFormat:        "2006-01-02 15:04:05.000",
			FullTimestamp:          true,
			DisableLevelTruncation: true,
		},
	}
}

// Format ...
func (f *MyFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	if f.pid == "" {
		f.pid = strconv.Itoa(os.Getpid())
	}

	bc, err := f.TextFormatter.Format(entry)
	if err != nil {
		return nil, err
	}
	if !f.TextFormatter.ForceColors {
		return bc, nil
	}

	ticket := string(bc)
	replaced := strings.Replace(ticket, "[20", strings.Repeat(" ", 8-len(entry.Level.String()))+"[20", 1)
	replaced = strings.Replace(replaced, "] ", "]["+entry.Level.String()+"]["+f.pid+"] ", 1)
	return []byte(replaced), nil
}

// SetupLogger applies the default formatter and the level deduced from the flags
func SetupLogger(verbose, debug bool) {
	logrus.SetFormatter(GetDefaultFormatter())
	logrus.SetOutput(os.Stderr)
	switch {
	case debug && verbose:
		logrus.SetLevel(logrus.TraceLevel)
	case debug:
		logrus.SetLevel(logrus.DebugLevel)
	case verbose:
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}
