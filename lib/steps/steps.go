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

// Package steps gathers what the steps of every OpenStack service share
package steps

import (
	"context"
	"strings"
	"time"

	"github.com/sanity-io/litter"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/openstack"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// Call executes a remote call with tolerance to communication failures
func Call(ctx context.Context, callback func() error) fail.Error {
	return openstack.RetryableRemoteCall(ctx, callback, openstack.NormalizeError)
}

// Dump logs the content of an API object at debug level
func Dump(what string, obj interface{}) {
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		logrus.Debugf("%s: %s", what, litter.Sdump(obj))
	}
}

// Presence returns a Predicate true when 'get' reports the resource as present ('present' == true) or absent.
// A *fail.ErrNotFound returned by 'get' means absent; other errors are returned as-is.
func Presence(get func() fail.Error, present bool) wait.Predicate {
	return func() (bool, error) {
		xerr := get()
		if xerr != nil {
			if _, ok := xerr.(*fail.ErrNotFound); ok {
				return !present, nil
			}
			return false, xerr
		}
		return present, nil
	}
}

// CheckPresence waits until the resource is present or absent; with 'timeout' 0 it is a plain assertion
func CheckPresence(ctx context.Context, what string, get func() fail.Error, present bool, timeout time.Duration, options ...wait.Option) error {
	state := "present"
	if !present {
		state = "absent"
	}
	opts := []wait.Option{
		wait.Timeout(timeout),
		wait.WaitingFor("%s to be %s", what, state),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
	}
	return wait.For(ctx, Presence(get, present), append(opts, options...)...)
}

// SameStatus compares statuses without regard to case
func SameStatus(current, expected string) bool {
	return strings.EqualFold(current, expected)
}

// InStatuses tells if 'status' is in 'list', without regard to case
func InStatuses(status string, list []string) bool {
	for _, v := range list {
		if strings.EqualFold(v, status) {
			return true
		}
	}
	return false
}
