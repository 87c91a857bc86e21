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

// Package cinder contains the steps acting on the block storage service
package cinder

import (
	"context"
	"fmt"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/blockstorage/v3/volumes"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// Volume statuses
const (
	StatusAvailable = "available"
	StatusCreating  = "creating"
	StatusInUse     = "in-use"
	StatusError     = "error"
)

// VolumeSteps contains the steps acting on volumes
type VolumeSteps struct {
	client  *gophercloud.ServiceClient
	timings temporal.Timings
}

// NewVolumeSteps ...
func NewVolumeSteps(client *gophercloud.ServiceClient, timings temporal.Timings) *VolumeSteps {
	if timings == nil {
		timings = temporal.NewTimings()
	}
	return &VolumeSteps{client: client, timings: timings}
}

// CreateVolume creates a volume of 'sizeGB', from image 'imageID' if not empty; if 'check' is set, waits for it to be
// available
func (s *VolumeSteps) CreateVolume(ctx context.Context, name string, sizeGB int, imageID string, check bool) (*volumes.Volume, fail.Error) {
	if sizeGB <= 0 {
		return nil, fail.InvalidParameterError("sizeGB", "must be positive")
	}
	var volume *volumes.Volume
	xerr := steps.Call(ctx, func() (innerErr error) {
		volume, innerErr = volumes.Create(s.client, volumes.CreateOpts{
			Name:    name,
			Size:    sizeGB,
			ImageID: imageID,
		}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to create volume '%s'", name)
	}
	if check {
		if xerr = s.CheckVolumeStatus(ctx, volume.ID, StatusAvailable, s.timings.VolumeTimeout()); xerr != nil {
			return nil, xerr
		}
		return s.GetVolume(ctx, volume.ID)
	}
	return volume, nil
}

// GetVolume returns the volume identified by 'id'
func (s *VolumeSteps) GetVolume(ctx context.Context, id string) (*volumes.Volume, fail.Error) {
	var volume *volumes.Volume
	xerr := steps.Call(ctx, func() (innerErr error) {
		volume, innerErr = volumes.Get(s.client, id).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, xerr
	}
	return volume, nil
}

// DeleteVolume deletes the volume and its snapshots; if 'check' is set, waits for it to disappear
func (s *VolumeSteps) DeleteVolume(ctx context.Context, id string, check bool) fail.Error {
	xerr := steps.Call(ctx, func() error {
		return volumes.Delete(s.client, id, volumes.DeleteOpts{Cascade: true}).ExtractErr()
	})
	if xerr != nil {
		return fail.Wrap(xerr, "failed to delete volume '%s'", id)
	}
	if check {
		return s.CheckVolumePresence(ctx, id, false, s.timings.VolumeTimeout())
	}
	return nil
}

// CheckVolumePresence checks the volume is present or absent, waiting up to 'timeout'
func (s *VolumeSteps) CheckVolumePresence(ctx context.Context, id string, present bool, timeout time.Duration) fail.Error {
	get := func() fail.Error {
		_, xerr := s.GetVolume(ctx, id)
		return xerr
	}
	err := steps.CheckPresence(ctx, fmt.Sprintf("volume '%s'", id), get, present, timeout, wait.Sleep(s.timings.SmallDelay()))
	return fail.ConvertError(err)
}

// CheckVolumeStatus waits for the volume to reach 'status'; a volume in error aborts the wait unless awaited
func (s *VolumeSteps) CheckVolumeStatus(ctx context.Context, id, status string, timeout time.Duration) fail.Error {
	err := wait.For(ctx,
		func() (bool, error) {
			volume, xerr := s.GetVolume(ctx, id)
			if xerr != nil {
				return false, xerr
			}
			switch {
			case steps.SameStatus(volume.Status, status):
				return true, nil
			case steps.SameStatus(volume.Status, StatusError):
				return false, fail.InconsistentError("volume '%s' went into error while waiting for %s", id, status)
			default:
				return false, nil
			}
		},
		wait.Timeout(timeout),
		wait.WaitingFor("volume '%s' to be %s", id, status),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		wait.Sleep(s.timings.SmallDelay()),
	)
	return fail.ConvertError(err)
}
