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

package cinder

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	th "github.com/gophercloud/gophercloud/testhelper"
	fake "github.com/gophercloud/gophercloud/testhelper/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
)

func fastTimings() *temporal.MutableTimings {
	timings := temporal.NewTimings()
	timings.Small = 10 * time.Millisecond
	timings.Volume = 5 * time.Second
	return timings
}

func volumeJSON(id, status string) string {
	return fmt.Sprintf(`{"volume": {"id": "%s", "name": "vol", "size": 1, "status": "%s", "attachments": []}}`, id, status)
}

func TestCreateAndDeleteVolume(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	var lock sync.Mutex
	gets, deleted := 0, false
	th.Mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "POST")
		th.TestJSONRequest(t, r, `{"volume": {"name": "vol", "size": 1}}`)
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, volumeJSON("v1", StatusCreating))
	})
	th.Mux.HandleFunc("/volumes/v1", func(w http.ResponseWriter, r *http.Request) {
		lock.Lock()
		defer lock.Unlock()
		switch r.Method {
		case "DELETE":
			assert.Equal(t, "true", r.URL.Query().Get("cascade"))
			deleted = true
			w.WriteHeader(http.StatusAccepted)
		case "GET":
			if deleted {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			gets++
			status := StatusCreating
			if gets > 1 {
				status = StatusAvailable
			}
			w.Header().Add("Content-Type", "application/json")
			fmt.Fprint(w, volumeJSON("v1", status))
		}
	})

	s := NewVolumeSteps(fake.ServiceClient(), fastTimings())
	volume, xerr := s.CreateVolume(context.Background(), "vol", 1, "", true)
	require.Nil(t, xerr)
	assert.Equal(t, StatusAvailable, volume.Status)

	require.Nil(t, s.DeleteVolume(context.Background(), "v1", true))
	assert.Nil(t, s.CheckVolumePresence(context.Background(), "v1", false, 0))
}

func TestCheckVolumeStatus_Error(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	th.Mux.HandleFunc("/volumes/v2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		fmt.Fprint(w, volumeJSON("v2", StatusError))
	})

	s := NewVolumeSteps(fake.ServiceClient(), fastTimings())
	assert.IsType(t, &fail.ErrInconsistent{}, s.CheckVolumeStatus(context.Background(), "v2", StatusAvailable, 5*time.Second))
	assert.Nil(t, s.CheckVolumeStatus(context.Background(), "v2", StatusError, 0))

	_, xerr := s.CreateVolume(context.Background(), "vol", 0, "", false)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
}
