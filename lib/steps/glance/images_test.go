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
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
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
	timings.ImageActive = 5 * time.Second
	return timings
}

// fakeGlance serves a single image whose status goes from queued to active once data is uploaded
type fakeGlance struct {
	lock     sync.Mutex
	status   string
	uploaded string
	deleted  bool
}

func (f *fakeGlance) register(t *testing.T, id string) {
	th.Mux.HandleFunc("/images", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "POST")
		th.TestJSONRequest(t, r, `{"name": "cirros", "disk_format": "qcow2", "container_format": "bare"}`)
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"id": "%s", "name": "cirros", "status": "queued", "disk_format": "qcow2", "container_format": "bare"}`, id)
	})
	th.Mux.HandleFunc("/images/"+id+"/file", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "PUT")
		th.TestHeader(t, r, "Content-Type", "application/octet-stream")
		body, _ := io.ReadAll(r.Body)
		f.lock.Lock()
		f.uploaded = string(body)
		f.status = "saving"
		f.lock.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	th.Mux.HandleFunc("/images/"+id, func(w http.ResponseWriter, r *http.Request) {
		f.lock.Lock()
		defer f.lock.Unlock()
		switch r.Method {
		case "DELETE":
			f.deleted = true
			w.WriteHeader(http.StatusNoContent)
		case "GET":
			if f.deleted {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			status := f.status
			if status == "saving" {
				// active on next poll
				f.status = "active"
			}
			w.Header().Add("Content-Type", "application/json")
			fmt.Fprintf(w, `{"id": "%s", "name": "cirros", "status": "%s", "size": %d}`, id, status, len(f.uploaded))
		}
	})
}

func TestCreateImage(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	f := &fakeGlance{status: "queued"}
	f.register(t, "img1")

	s := NewImageSteps(fake.ServiceClient(), fastTimings())
	image, xerr := s.CreateImage(context.Background(), "cirros", strings.NewReader("qcow2 data"), true)
	require.Nil(t, xerr)
	assert.Equal(t, "img1", image.ID)
	assert.EqualValues(t, "active", image.Status)
	assert.Equal(t, "qcow2 data", f.uploaded)

	require.Nil(t, s.DeleteImage(context.Background(), "img1", true))
	assert.True(t, f.deleted)
}

func TestCreateImageFromFile(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	f := &fakeGlance{status: "queued"}
	f.register(t, "img2")

	path := filepath.Join(t.TempDir(), "cirros.img")
	require.NoError(t, os.WriteFile(path, []byte("from file"), 0600))

	s := NewImageSteps(fake.ServiceClient(), fastTimings())
	images, xerr := s.CreateImages(context.Background(), []string{"cirros"}, path, true)
	require.Nil(t, xerr)
	require.Len(t, images, 1)
	assert.Equal(t, "from file", f.uploaded)

	_, xerr = s.CreateImageFromFile(context.Background(), "cirros", filepath.Join(t.TempDir(), "missing"), false)
	assert.IsType(t, &fail.ErrNotFound{}, xerr)
}

func TestCheckImageStatus_Killed(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	th.Mux.HandleFunc("/images/img3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		fmt.Fprint(w, `{"id": "img3", "name": "broken", "status": "killed"}`)
	})

	s := NewImageSteps(fake.ServiceClient(), fastTimings())
	xerr := s.CheckImageStatus(context.Background(), "img3", "active", 5*time.Second)
	assert.IsType(t, &fail.ErrInconsistent{}, xerr)

	assert.Nil(t, s.CheckImageStatus(context.Background(), "img3", "KILLED", 0))
}

func TestCreateImage_InvalidParameters(t *testing.T) {
	s := NewImageSteps(fake.ServiceClient(), nil)
	_, xerr := s.CreateImage(context.Background(), "", strings.NewReader(""), false)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
	_, xerr = s.CreateImage(context.Background(), "name", nil, false)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
}

func TestCreateImage_DeletesImageWhenUploadFails(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	th.Mux.HandleFunc("/images", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "POST")
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "leak-1", "name": "cirros", "status": "queued"}`)
	})
	th.Mux.HandleFunc("/images/leak-1/file", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message": "invalid image data"}`)
	})
	var lock sync.Mutex
	deletes := 0
	th.Mux.HandleFunc("/images/leak-1", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "DELETE")
		lock.Lock()
		deletes++
		lock.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	s := NewImageSteps(fake.ServiceClient(), fastTimings())
	image, xerr := s.CreateImage(context.Background(), "cirros", strings.NewReader("broken"), true)
	require.NotNil(t, xerr)
	assert.Nil(t, image)
	assert.IsType(t, &fail.ErrInvalidRequest{}, fail.Cause(xerr))
	assert.Equal(t, 1, deletes)
}

func TestCreateImageFromURL_DeletesImageWhenImportFails(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	th.Mux.HandleFunc("/images", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id": "leak-2", "name": "cirros", "status": "queued"}`)
	})
	th.Mux.HandleFunc("/images/leak-2/import", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	deleted := false
	th.Mux.HandleFunc("/images/leak-2", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "DELETE")
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})

	s := NewImageSteps(fake.ServiceClient(), fastTimings())
	_, xerr := s.CreateImageFromURL(context.Background(), "cirros", "http://download.cirros-cloud.net/cirros.img", false)
	require.NotNil(t, xerr)
	assert.True(t, deleted)
}
