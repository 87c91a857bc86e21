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

package neutron

import (
	"context"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/quotas"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// Quota is the part of the neutron quotas changed by the tests
type Quota struct {
	Network int
	Router  int
	Subnet  int
	Port    int
}

// DefaultTestQuota is the quota allowing the creation of many networks
var DefaultTestQuota = Quota{Network: 50, Router: 50, Subnet: 50, Port: 150}

// GetQuota returns the networking quotas of the project
func (s *NetworkSteps) GetQuota(ctx context.Context) (*quotas.Quota, fail.Error) {
	if s.projectID == "" {
		return nil, fail.InvalidInstanceContentError("s.projectID", "cannot be empty")
	}
	var q *quotas.Quota
	xerr := steps.Call(ctx, func() (innerErr error) {
		q, innerErr = quotas.Get(s.client, s.projectID).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, xerr
	}
	return q, nil
}

// SetQuota updates the networking quotas of the project and returns the previous ones
func (s *NetworkSteps) SetQuota(ctx context.Context, q Quota) (*Quota, fail.Error) {
	previous, xerr := s.GetQuota(ctx)
	if xerr != nil {
		return nil, xerr
	}
	xerr = steps.Call(ctx, func() error {
		_, err := quotas.Update(s.client, s.projectID, quotas.UpdateOpts{
			Network: gophercloud.IntToPointer(q.Network),
			Router:  gophercloud.IntToPointer(q.Router),
			Subnet:  gophercloud.IntToPointer(q.Subnet),
			Port:    gophercloud.IntToPointer(q.Port),
		}).Extract()
		return err
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to update networking quotas")
	}
	return &Quota{Network: previous.Network, Router: previous.Router, Subnet: previous.Subnet, Port: previous.Port}, nil
}
