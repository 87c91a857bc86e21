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

// Package openstack opens authenticated clients on the services of the cloud under test
package openstack

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack"
	"github.com/gophercloud/gophercloud/openstack/identity/v3/tokens"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/config"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug/tracing"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
)

// Connection contains the service clients of the cloud under test
type Connection struct {
	Provider      *gophercloud.ProviderClient
	Identity      *gophercloud.ServiceClient
	Compute       *gophercloud.ServiceClient
	Network       *gophercloud.ServiceClient
	BlockStorage  *gophercloud.ServiceClient
	Image         *gophercloud.ServiceClient
	ObjectStorage *gophercloud.ServiceClient // nil when swift is not deployed

	ProjectID string
	Region    string
	Timings   temporal.Timings

	lock                   sync.Mutex
	maxComputeMicroversion string
}

// New authenticates on keystone then opens a client on each service
func New(ctx context.Context, auth config.Auth, timings temporal.Timings) (_ *Connection, ferr fail.Error) {
	if ctx == nil {
		return nil, fail.InvalidParameterCannotBeNilError("ctx")
	}
	if auth.URL == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("auth.URL")
	}
	if timings == nil {
		timings = temporal.NewTimings()
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("openstack"), "(%s)", auth.URL).WithStopwatch().Entering()
	defer tracer.Exiting()
	defer fail.OnExitLogError(&ferr, tracer.TraceMessage())

	if auth.UserDomain == "" {
		auth.UserDomain = "Default"
	}
	if auth.ProjectDomain == "" {
		auth.ProjectDomain = auth.UserDomain
	}
	gcOpts := gophercloud.AuthOptions{
		IdentityEndpoint: auth.URL,
		Username:         auth.Username,
		Password:         auth.Password,
		DomainName:       auth.UserDomain,
		AllowReauth:      true,
		Scope: &gophercloud.AuthScope{
			ProjectName: auth.Project,
			DomainName:  auth.ProjectDomain,
		},
	}

	provider, err := openstack.NewClient(auth.URL)
	if err != nil {
		return nil, NormalizeError(err)
	}
	if auth.Insecure {
		provider.HTTPClient = http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // nolint
			},
		}
	}

	xerr := RetryableRemoteCall(ctx,
		func() error {
			return openstack.Authenticate(provider, gcOpts)
		},
		NormalizeError,
	)
	if xerr != nil {
		switch xerr.(type) {
		case *fail.ErrNotAuthenticated:
			return nil, fail.NotAuthenticatedError("authentication failed for user '%s'", auth.Username)
		default:
			return nil, xerr
		}
	}

	c := &Connection{
		Provider: provider,
		Region:   auth.Region,
		Timings:  timings,
	}
	if r, ok := provider.GetAuthResult().(tokens.CreateResult); ok {
		if project, err := r.ExtractProject(); err == nil && project != nil {
			c.ProjectID = project.ID
		}
	}

	endpointOpts := gophercloud.EndpointOpts{Region: auth.Region}
	services := []struct {
		name     string
		target   **gophercloud.ServiceClient
		factory  func(*gophercloud.ProviderClient, gophercloud.EndpointOpts) (*gophercloud.ServiceClient, error)
		optional bool
	}{
		{"identity", &c.Identity, openstack.NewIdentityV3, false},
		{"compute", &c.Compute, openstack.NewComputeV2, false},
		{"network", &c.Network, openstack.NewNetworkV2, false},
		{"volumev3", &c.BlockStorage, openstack.NewBlockStorageV3, true},
		{"image", &c.Image, openstack.NewImageServiceV2, false},
		{"object-store", &c.ObjectStorage, openstack.NewObjectStorageV1, true},
	}
	for _, s := range services {
		s := s
		xerr := RetryableRemoteCall(ctx,
			func() error {
				client, innerErr := s.factory(provider, endpointOpts)
				if innerErr != nil {
					return innerErr
				}
				*s.target = client
				return nil
			},
			NormalizeError,
		)
		if xerr != nil {
			if _, ok := xerr.(*fail.ErrNotFound); ok && s.optional {
				logrus.Warnf("service '%s' not found in catalog, related steps will be unavailable", s.name)
				continue
			}
			return nil, fail.Wrap(xerr, "failed to open client on service '%s'", s.name)
		}
	}

	return c, nil
}
