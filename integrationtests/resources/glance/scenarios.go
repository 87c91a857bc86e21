//go:build integrationtests
// +build integrationtests

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

package glance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/integrationtests/helpers"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps/glance"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/ids"
)

const imageSize = 16 << 20

func init() {
	helpers.InSection("glance").
		AddScenario(CreateAndDeleteImages)
}

// CreateAndDeleteImages uploads random content as several images, waits for them to be active then deletes them
func CreateAndDeleteImages(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	imageSteps := env.Images()

	files, xerr := ids.GenerateFiles(t.TempDir(), 1, imageSize)
	require.Nil(t, xerr)

	created, xerr := imageSteps.CreateImages(ctx, helpers.GetNames("image", 3), files[0], true)
	imageIDs := make([]string, 0, len(created))
	for _, image := range created {
		imageIDs = append(imageIDs, image.ID)
	}
	t.Cleanup(func() { _ = imageSteps.DeleteImages(context.Background(), imageIDs, false) })
	require.Nil(t, xerr)

	for _, image := range created {
		assert.Equal(t, glance.DiskFormat, image.DiskFormat)
		assert.Equal(t, glance.ContainerFormat, image.ContainerFormat)
		assert.EqualValues(t, imageSize, image.SizeBytes)
	}

	require.Nil(t, imageSteps.DeleteImages(ctx, imageIDs, true))
	for _, id := range imageIDs {
		require.Nil(t, imageSteps.CheckImagePresence(ctx, id, false, 0))
	}
}
