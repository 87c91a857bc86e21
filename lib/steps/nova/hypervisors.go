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
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/hypervisors"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/pagination"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// HypervisorSteps contains the steps acting on hypervisors
type HypervisorSteps struct {
	client  *gophercloud.ServiceClient
	timings temporal.Timings
}

// NewHypervisorSteps ...
func NewHypervisorSteps(client *gophercloud.ServiceClient, timings temporal.Timings) *HypervisorSteps {
	if timings == nil {
		timings = temporal.NewTimings()
	}
	return &HypervisorSteps{client: client, timings: timings}
}

// List returns all the hypervisors
func (s *HypervisorSteps) List(ctx context.Context) ([]hypervisors.Hypervisor, fail.Error) {
	var out []hypervisors.Hypervisor
	xerr := steps.Call(ctx, func() error {
		out = nil
		return hypervisors.List(s.client, nil).EachPage(func(page pagination.Page) (bool, error) {
			list, err := hypervisors.ExtractHypervisors(page)
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

// Get returns the hypervisor identified by 'id'
func (s *HypervisorSteps) Get(ctx context.Context, id string) (*hypervisors.Hypervisor, fail.Error) {
	var h *hypervisors.Hypervisor
	xerr := steps.Call(ctx, func() (innerErr error) {
		h, innerErr = hypervisors.Get(s.client, id).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, xerr
	}
	return h, nil
}

// CheckHypervisorFree waits for the hypervisor to report no running server
func (s *HypervisorSteps) CheckHypervisorFree(ctx context.Context, id string, timeout time.Duration) fail.Error {
	err := wait.For(ctx,
		func() (bool, error) {
			h, xerr := s.Get(ctx, id)
			if xerr != nil {
				return false, xerr
			}
			return h.RunningVMs == 0, nil
		},
		wait.Timeout(timeout),
		wait.WaitingFor("hypervisor %s info be updated", id),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		wait.Sleep(s.timings.SmallDelay()),
	)
	return fail.ConvertError(err)
}

// Capacity returns how many servers of flavor 'flavor' the hypervisor can still host
func Capacity(h hypervisors.Hypervisor, flavor flavors.Flavor) int {
	capacity := -1
	limit := func(free, need int) {
		if need <= 0 {
			return
		}
		n := free / need
		if n < 0 {
			n = 0
		}
		if capacity < 0 || n < capacity {
			capacity = n
		}
	}
	limit(h.FreeRamMB, flavor.RAM)
	limit(h.VCPUs-h.VCPUsUsed, flavor.VCPUs)
	limit(h.FreeDiskGB, flavor.Disk)
	if capacity < 0 {
		return 0
	}
	return capacity
}

// SuitableHypervisors returns the hypervisors able to host at least one server of each flavor
func SuitableHypervisors(list []hypervisors.Hypervisor, flavorList []flavors.Flavor) []hypervisors.Hypervisor {
	var out []hypervisors.Hypervisor
	for _, h := range list {
		ok := true
		for _, f := range flavorList {
			if Capacity(h, f) == 0 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, h)
		}
	}
	return out
}
