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
	"net/url"
	"strings"

	"github.com/gophercloud/gophercloud"
	"github.com/hashicorp/go-version"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// MaxMicroversion asks the service behind 'client' for the highest microversion it supports.
// Returns "" if the service does not support microversions.
func MaxMicroversion(ctx context.Context, client *gophercloud.ServiceClient) (string, fail.Error) {
	if client == nil {
		return "", fail.InvalidParameterCannotBeNilError("client")
	}

	var body struct {
		Version struct {
			ID         string `json:"id"`
			Version    string `json:"version"`
			MinVersion string `json:"min_version"`
		} `json:"version"`
	}
	xerr := RetryableRemoteCall(ctx,
		func() error {
			_, err := client.Get(versionURL(client.Endpoint), &body, &gophercloud.RequestOpts{OkCodes: []int{200}})
			return err
		},
		NormalizeError,
	)
	if xerr != nil {
		return "", xerr
	}
	return body.Version.Version, nil
}

// versionURL removes the project id that some catalogs append to the compute endpoint
func versionURL(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if last := segments[len(segments)-1]; last != "" && !strings.HasPrefix(last, "v") {
		segments = segments[:len(segments)-1]
	}
	u.Path = "/" + strings.Join(segments, "/")
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// Supports tells if microversion 'want' is lower or equal than 'max'
func Supports(max, want string) (bool, fail.Error) {
	if max == "" {
		return false, nil
	}
	mv, err := version.NewVersion(max)
	if err != nil {
		return false, fail.SyntaxErrorWithCause(err, "invalid microversion '%s'", max)
	}
	wv, err := version.NewVersion(want)
	if err != nil {
		return false, fail.SyntaxErrorWithCause(err, "invalid microversion '%s'", want)
	}
	return mv.GreaterThanOrEqual(wv), nil
}

// SupportsMicroversion tells if the compute API of the cloud supports the microversion 'want'
func (c *Connection) SupportsMicroversion(ctx context.Context, want string) (bool, fail.Error) {
	if c == nil {
		return false, fail.InvalidInstanceError()
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	if c.maxComputeMicroversion == "" {
		max, xerr := MaxMicroversion(ctx, c.Compute)
		if xerr != nil {
			return false, xerr
		}
		c.maxComputeMicroversion = max
	}
	return Supports(c.maxComputeMicroversion, want)
}
