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

package nova

import (
	"context"
	"strings"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/services"
	"github.com/gophercloud/gophercloud/pagination"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// ServiceSteps contains the steps acting on the nova services
type ServiceSteps struct {
	client  *gophercloud.ServiceClient
	timings temporal.Timings
}

// NewServiceSteps ...
func NewServiceSteps(client *gophercloud.ServiceClient, timings temporal.Timings) *ServiceSteps {
	if timings == nil {
		timings = temporal.NewTimings()
	}
	return &ServiceSteps{client: client, timings: timings}
}

// List returns the nova services, only those running 'binary' if not empty
func (s *ServiceSteps) List(ctx context.Context, binary string) ([]services.Service, fail.Error) {
	var out []services.Service
	xerr := steps.Call(ctx, func() error {
		out = nil
		return services.List(s.client, services.ListOpts{Binary: binary}).EachPage(func(page pagination.Page) (bool, error) {
			list, err := services.ExtractServices(page)
			if err != nil {
				return false, err
			}
			out = append(out, list...)
			return true, nil
		})
	})
	if xerr != nil {
		return nil, xerr
	}
	return out, nil
}

// notReady returns the enabled services not up
func notReady(list []services.Service) []string {
	var down []string
	for _, svc := range list {
		if strings.EqualFold(svc.Status, "enabled") && !strings.EqualFold(svc.State, "up") {
			down = append(down, svc.Binary+"@"+svc.Host)
		}
	}
	return down
}

// CheckNovaReady waits for all the enabled nova services to be up; any error is tolerated while time remains
func (s *ServiceSteps) CheckNovaReady(ctx context.Context, timeout time.Duration) fail.Error {
	err := wait.For(ctx,
		func() (bool, error) {
			list, xerr := s.List(ctx, "")
			if xerr != nil {
				return false, xerr
			}
			if len(list) == 0 {
				return false, nil
			}
			return len(notReady(list)) == 0, nil
		},
		wait.Timeout(timeout),
		wait.WaitingFor("Nova services to be alive"),
		wait.Tolerate(wait.AnyError),
		wait.Sleep(s.timings.NormalDelay()),
	)
	return fail.ConvertError(err)
}
