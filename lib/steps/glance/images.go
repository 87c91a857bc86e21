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

// Package glance contains the steps acting on the image service
package glance

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/imageservice/v2/imagedata"
	"github.com/gophercloud/gophercloud/openstack/imageservice/v2/imageimport"
	"github.com/gophercloud/gophercloud/openstack/imageservice/v2/images"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/openstack"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug/tracing"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

const (
	// DiskFormat of the uploaded images
	DiskFormat = "qcow2"
	// ContainerFormat of the uploaded images
	ContainerFormat = "bare"
)

// ImageSteps contains the steps acting on images
type ImageSteps struct {
	client  *gophercloud.ServiceClient
	timings temporal.Timings
}

// NewImageSteps ...
func NewImageSteps(client *gophercloud.ServiceClient, timings temporal.Timings) *ImageSteps {
	if timings == nil {
		timings = temporal.NewTimings()
	}
	return &ImageSteps{client: client, timings: timings}
}

func (s *ImageSteps) poll() wait.Option {
	return wait.Sleep(s.timings.SmallDelay())
}

func (s *ImageSteps) create(ctx context.Context, name string) (*images.Image, fail.Error) {
	var image *images.Image
	xerr := steps.Call(ctx, func() (innerErr error) {
		image, innerErr = images.Create(s.client, images.CreateOpts{
			Name:            name,
			DiskFormat:      DiskFormat,
			ContainerFormat: ContainerFormat,
		}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to create image '%s'", name)
	}
	logrus.Debugf("image '%s' registered with id '%s'", name, image.ID)
	return image, nil
}

// CreateImage registers the image 'name' then uploads 'data' into it; if 'check' is set, waits for it to be active.
// The registered image is deleted when a later stage fails.
func (s *ImageSteps) CreateImage(ctx context.Context, name string, data io.Reader, check bool) (_ *images.Image, ferr fail.Error) {
	if name == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("name")
	}
	if data == nil {
		return nil, fail.InvalidParameterCannotBeNilError("data")
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("steps.glance"), "(%s)", name).WithStopwatch().Entering()
	defer tracer.Exiting()
	defer fail.OnExitLogError(&ferr, tracer.TraceMessage())

	image, xerr := s.create(ctx, name)
	if xerr != nil {
		return nil, xerr
	}
	defer func() {
		if ferr != nil {
			if derr := s.DeleteImage(context.Background(), image.ID, false); derr != nil {
				_ = fail.AddConsequence(ferr, derr)
			}
		}
	}()

	// the reader is consumed by the first attempt, so no retry here
	if xerr = openstack.NormalizeError(imagedata.Upload(s.client, image.ID, data).ExtractErr()); xerr != nil {
		return nil, fail.Wrap(xerr, "failed to upload data of image '%s'", name)
	}

	if check {
		if xerr = s.CheckImageStatus(ctx, image.ID, string(images.ImageStatusActive), s.timings.ImageActiveTimeout()); xerr != nil {
			return nil, xerr
		}
		return s.GetImage(ctx, image.ID)
	}
	return image, nil
}

// CreateImageFromFile creates the image 'name' with the content of the file 'path'
func (s *ImageSteps) CreateImageFromFile(ctx context.Context, name, path string, check bool) (*images.Image, fail.Error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fail.NotFoundError("image file '%s' not found", path)
		}
		return nil, fail.ConvertError(err)
	}
	defer func() { _ = f.Close() }()

	return s.CreateImage(ctx, name, f, check)
}

// CreateImageFromURL creates the image 'name' and lets glance download its content from 'url'
func (s *ImageSteps) CreateImageFromURL(ctx context.Context, name, url string, check bool) (_ *images.Image, ferr fail.Error) {
	image, xerr := s.create(ctx, name)
	if xerr != nil {
		return nil, xerr
	}
	defer func() {
		if ferr != nil {
			if derr := s.DeleteImage(context.Background(), image.ID, false); derr != nil {
				_ = fail.AddConsequence(ferr, derr)
			}
		}
	}()
	xerr = steps.Call(ctx, func() error {
		return imageimport.Create(s.client, image.ID, imageimport.CreateOpts{
			Name: imageimport.WebDownloadMethod,
			URI:  url,
		}).ExtractErr()
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to import image '%s' from %s", name, url)
	}
	if check {
		if xerr = s.CheckImageStatus(ctx, image.ID, string(images.ImageStatusActive), s.timings.ImageActiveTimeout()); xerr != nil {
			return nil, xerr
		}
	}
	return s.GetImage(ctx, image.ID)
}

// CreateImages creates one image per name with the content of 'path'; if 'check' is set, waits for all of them
// to be active
func (s *ImageSteps) CreateImages(ctx context.Context, names []string, path string, check bool) ([]*images.Image, fail.Error) {
	created := make([]*images.Image, 0, len(names))
	for _, name := range names {
		image, xerr := s.CreateImageFromFile(ctx, name, path, false)
		if xerr != nil {
			return created, xerr
		}
		created = append(created, image)
	}
	if check {
		for i, image := range created {
			if xerr := s.CheckImageStatus(ctx, image.ID, string(images.ImageStatusActive), s.timings.ImageActiveTimeout()); xerr != nil {
				return created, xerr
			}
			refreshed, xerr := s.GetImage(ctx, image.ID)
			if xerr != nil {
				return created, xerr
			}
			created[i] = refreshed
		}
	}
	return created, nil
}

// GetImage returns the image identified by 'id'
func (s *ImageSteps) GetImage(ctx context.Context, id string) (*images.Image, fail.Error) {
	var image *images.Image
	xerr := steps.Call(ctx, func() (innerErr error) {
		image, innerErr = images.Get(s.client, id).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, xerr
	}
	return image, nil
}

// DeleteImage deletes the image identified by 'id'; if 'check' is set, waits for it to disappear
func (s *ImageSteps) DeleteImage(ctx context.Context, id string, check bool) fail.Error {
	return s.DeleteImages(ctx, []string{id}, check)
}

// DeleteImages deletes the images in 'ids'
func (s *ImageSteps) DeleteImages(ctx context.Context, ids []string, check bool) (ferr fail.Error) {
	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("steps.glance"), "(%s)", strings.Join(ids, ",")).WithStopwatch().Entering()
	defer tracer.Exiting()
	defer fail.OnExitLogError(&ferr, tracer.TraceMessage())

	for _, id := range ids {
		id := id
		xerr := steps.Call(ctx, func() error {
			return images.Delete(s.client, id).ExtractErr()
		})
		if xerr != nil {
			return fail.Wrap(xerr, "failed to delete image '%s'", id)
		}
	}
	if check {
		for _, id := range ids {
			if xerr := s.CheckImagePresence(ctx, id, false, s.timings.ImageActiveTimeout()); xerr != nil {
				return xerr
			}
		}
	}
	return nil
}

// CheckImagePresence checks the image is present or absent, waiting up to 'timeout'
func (s *ImageSteps) CheckImagePresence(ctx context.Context, id string, present bool, timeout time.Duration) fail.Error {
	get := func() fail.Error {
		_, xerr := s.GetImage(ctx, id)
		return xerr
	}
	return fail.ConvertError(steps.CheckPresence(ctx, fmt.Sprintf("image '%s'", id), get, present, timeout, s.poll()))
}

// CheckImageStatus waits for the image to reach 'status' (case is ignored); a killed image aborts the wait
func (s *ImageSteps) CheckImageStatus(ctx context.Context, id, status string, timeout time.Duration) fail.Error {
	err := wait.For(ctx,
		func() (bool, error) {
			image, xerr := s.GetImage(ctx, id)
			if xerr != nil {
				return false, xerr
			}
			current := string(image.Status)
			if steps.SameStatus(current, status) {
				return true, nil
			}
			if steps.SameStatus(current, string(images.ImageStatusKilled)) {
				return false, fail.InconsistentError("image '%s' was killed while waiting for %s", id, status)
			}
			return false, nil
		},
		wait.Timeout(timeout),
		wait.WaitingFor("image '%s' to be %s", id, status),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		s.poll(),
	)
	return fail.ConvertError(err)
}
