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

package openstack

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/gophercloud/gophercloud"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug/tracing"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// NormalizeError translates gophercloud errors to fail.Error
func NormalizeError(err error) fail.Error {
	if err == nil {
		return nil
	}

	tracer := debug.NewTracer(context.Background(), tracing.ShouldTrace("openstack.errors"), "").Entering()
	defer tracer.Exiting()

	if resp, ok := responseOf(err); ok {
		tracer.Trace("received HTTP error %d, requalifying based on code...", resp.Actual)
		return qualifyResponseCode(resp.Actual, reduceBody(resp.Body), err)
	}

	switch e := err.(type) {
	case fail.Error:
		return e
	case gophercloud.ErrResourceNotFound:
		return fail.NotFoundErrorWithCause(err, e.Error())
	case *gophercloud.ErrResourceNotFound:
		return fail.NotFoundErrorWithCause(err, e.Error())
	case gophercloud.ErrMultipleResourcesFound:
		return fail.DuplicateErrorWithCause(err, e.Error())
	case *gophercloud.ErrMultipleResourcesFound:
		return fail.DuplicateErrorWithCause(err, e.Error())
	case gophercloud.ErrMissingInput:
		return fail.InvalidRequestErrorWithCause(err, e.Error())
	case *gophercloud.ErrMissingInput:
		return fail.InvalidRequestErrorWithCause(err, e.Error())
	case gophercloud.ErrEndpointNotFound:
		return fail.NotFoundErrorWithCause(err, e.Error())
	case *gophercloud.ErrEndpointNotFound:
		return fail.NotFoundErrorWithCause(err, e.Error())
	case *url.Error:
		// go connection errors, a 'subclass' of net.Error
		return fail.NotAvailableErrorWithCause(err, "failed to reach the API")
	case net.Error:
		return fail.NotAvailableErrorWithCause(err, "failed to reach the API")
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fail.ConvertError(err)
	case err.Error() == "EOF":
		return fail.NotAvailableErrorWithCause(err, "connection closed by the API")
	}

	logrus.Debugf("unhandled error (%T) received from OpenStack: %s", err, err.Error())
	return fail.NewErrorWithCause(err, "unhandled error received from OpenStack")
}

// responseOf extracts the HTTP response details carried by the gophercloud error 'err'
func responseOf(err error) (*gophercloud.ErrUnexpectedResponseCode, bool) {
	switch e := err.(type) {
	case gophercloud.ErrUnexpectedResponseCode:
		return &e, true
	case *gophercloud.ErrUnexpectedResponseCode:
		return e, true
	case gophercloud.ErrDefault400:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault400:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault401:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault401:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault403:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault403:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault404:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault404:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault405:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault405:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault408:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault408:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault409:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault409:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault429:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault429:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault500:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault500:
		return &e.ErrUnexpectedResponseCode, true
	case gophercloud.ErrDefault503:
		return &e.ErrUnexpectedResponseCode, true
	case *gophercloud.ErrDefault503:
		return &e.ErrUnexpectedResponseCode, true
	}
	return nil, false
}

// qualifyResponseCode chooses the kind of fail.Error matching the HTTP code
func qualifyResponseCode(code int, msg string, cause error) fail.Error {
	switch code {
	case 400:
		return fail.InvalidRequestErrorWithCause(cause, msg)
	case 401:
		return fail.NotAuthenticatedError(msg)
	case 403:
		return fail.ForbiddenError(msg)
	case 404:
		return fail.NotFoundErrorWithCause(cause, msg)
	case 408, 504:
		return fail.TimeoutError(cause, 0, msg)
	case 409:
		return fail.DuplicateErrorWithCause(cause, msg)
	case 413, 425, 429:
		return fail.OverloadErrorWithCause(cause, msg)
	case 500:
		xerr := fail.ExecutionError(cause, msg)
		xerr.Annotate("retcode", code)
		return xerr
	case 502, 503:
		return fail.NotAvailableErrorWithCause(cause, msg)
	default:
		return fail.NewErrorWithCause(cause, "unexpected response code %d: %s", code, msg)
	}
}

// faultPaths lists where OpenStack services put the message of an error in the body of the response
var faultPaths = []string{
	"badRequest.message",
	"itemNotFound.message",
	"conflictingRequest.message",
	"forbidden.message",
	"overLimit.message",
	"computeFault.message",
	"NeutronError.message",
	"error.message",
	"message",
}

// reduceBody extracts the message of an OpenStack fault; falls back to the whole body
func reduceBody(body []byte) string {
	if len(body) == 0 {
		return "no details given by the API"
	}
	if gjson.ValidBytes(body) {
		for _, p := range faultPaths {
			if r := gjson.GetBytes(body, p); r.Exists() && r.Type == gjson.String {
				return r.String()
			}
		}
	}
	return strings.TrimSpace(string(body))
}
