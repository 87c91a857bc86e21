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

// Package swift contains the steps acting on the object storage service
package swift

import (
	"context"
	"fmt"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/objectstorage/v1/containers"
	"github.com/gophercloud/gophercloud/pagination"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// ContainerSteps contains the steps acting on containers
type ContainerSteps struct {
	client  *gophercloud.ServiceClient
	timings temporal.Timings
}

// NewContainerSteps ...
func NewContainerSteps(client *gophercloud.ServiceClient, timings temporal.Timings) *ContainerSteps {
	if timings == nil {
		timings = temporal.NewTimings()
	}
	return &ContainerSteps{client: client, timings: timings}
}

// CreateContainer creates the container 'name'; if 'check' is set, asserts it is listed
func (s *ContainerSteps) CreateContainer(ctx context.Context, name string, check bool) fail.Error {
	if name == "" {
		return fail.InvalidParameterCannotBeEmptyStringError("name")
	}
	xerr := steps.Call(ctx, func() error {
		_, err := containers.Create(s.client, name, containers.CreateOpts{}).Extract()
		return err
	})
	if xerr != nil {
		return fail.Wrap(xerr, "failed to create container '%s'", name)
	}
	if check {
		return s.CheckContainerPresence(ctx, name, true, 0)
	}
	return nil
}

// DeleteContainer deletes the container 'name'; if 'check' is set, asserts it is no more listed
func (s *ContainerSteps) DeleteContainer(ctx context.Context, name string, check bool) fail.Error {
	xerr := steps.Call(ctx, func() error {
		_, err := containers.Delete(s.client, name).Extract()
		return err
	})
	if xerr != nil {
		return fail.Wrap(xerr, "failed to delete container '%s'", name)
	}
	if check {
		return s.CheckContainerPresence(ctx, name, false, 0)
	}
	return nil
}

// ListContainers returns the names of the containers starting with 'prefix'
func (s *ContainerSteps) ListContainers(ctx context.Context, prefix string) ([]string, fail.Error) {
	var names []string
	xerr := steps.Call(ctx, func() error {
		names = nil
		return containers.List(s.client, containers.ListOpts{Prefix: prefix}).EachPage(func(page pagination.Page) (bool, error) {
			list, err := containers.ExtractNames(page)
			if err != nil {
				return false, err
			}
			names = append(names, list...)
			return true, nil
		})
	})
	if xerr != nil {
		return nil, xerr
	}
	return names, nil
}

// CheckContainerPresence checks the container is listed or not, waiting up to 'timeout'
func (s *ContainerSteps) CheckContainerPresence(ctx context.Context, name string, present bool, timeout time.Duration) fail.Error {
	get := func() fail.Error {
		names, xerr := s.ListContainers(ctx, name)
		if xerr != nil {
			return xerr
		}
		for _, v := range names {
			if v == name {
				return nil
			}
		}
		return fail.NotFoundError("container '%s' not listed", name)
	}
	err := steps.CheckPresence(ctx, fmt.Sprintf("container '%s'", name), get, present, timeout, wait.Sleep(s.timings.SmallDelay()))
	return fail.ConvertError(err)
}
