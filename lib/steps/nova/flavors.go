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

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/pagination"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// FlavorSteps contains the steps acting on flavors
type FlavorSteps struct {
	client *gophercloud.ServiceClient
}

// NewFlavorSteps ...
func NewFlavorSteps(client *gophercloud.ServiceClient) *FlavorSteps {
	return &FlavorSteps{client: client}
}

// List returns all the flavors
func (s *FlavorSteps) List(ctx context.Context) ([]flavors.Flavor, fail.Error) {
	var out []flavors.Flavor
	xerr := steps.Call(ctx, func() error {
		out = nil
		return flavors.ListDetail(s.client, flavors.ListOpts{AccessType: flavors.AllAccess}).EachPage(func(page pagination.Page) (bool, error) {
			list, err := flavors.ExtractFlavors(page)
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

// Find returns the flavor named 'name'
func (s *FlavorSteps) Find(ctx context.Context, name string) (*flavors.Flavor, fail.Error) {
	list, xerr := s.List(ctx)
	if xerr != nil {
		return nil, xerr
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i], nil
		}
	}
	return nil, fail.NotFoundError("flavor '%s' not found", name)
}

// Create creates a flavor
func (s *FlavorSteps) Create(ctx context.Context, name string, ramMB, vcpus, diskGB int) (*flavors.Flavor, fail.Error) {
	if name == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("name")
	}
	var flavor *flavors.Flavor
	xerr := steps.Call(ctx, func() (innerErr error) {
		flavor, innerErr = flavors.Create(s.client, flavors.CreateOpts{
			Name:  name,
			RAM:   ramMB,
			VCPUs: vcpus,
			Disk:  gophercloud.IntToPointer(diskGB),
		}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, xerr
	}
	return flavor, nil
}

// Delete deletes the flavor identified by 'id'
func (s *FlavorSteps) Delete(ctx context.Context, id string) fail.Error {
	return steps.Call(ctx, func() error {
		return flavors.Delete(s.client, id).ExtractErr()
	})
}
