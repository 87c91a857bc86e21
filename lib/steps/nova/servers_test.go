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
	"fmt"
	"io"
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
	timings.Normal = 10 * time.Millisecond
	timings.ServerBoot = 5 * time.Second
	timings.ServerDelete = 5 * time.Second
	return timings
}

func serverJSON(id, status, host string) string {
	return fmt.Sprintf(`{
  "server": {
    "id": "%s",
    "name": "vm-%s",
    "status": "%s",
    "image": {"id": "img-1"},
    "flavor": {"id": "1"},
    "fault": {"code": 500, "message": "No valid host was found."},
    "OS-EXT-SRV-ATTR:host": "%s",
    "addresses": {
      "net01": [
        {"addr": "192.168.1.5", "version": 4, "OS-EXT-IPS:type": "fixed", "OS-EXT-IPS-MAC:mac_addr": "fa:16:3e:00:00:01"},
        {"addr": "172.16.0.130", "version": 4, "OS-EXT-IPS:type": "floating", "OS-EXT-IPS-MAC:mac_addr": "fa:16:3e:00:00:01"}
      ]
    }
  }
}`, id, id, status, host)
}

// counter counts the calls made to a handler
type counter struct {
	lock sync.Mutex
	n    int
}

func (c *counter) inc() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.n++
	return c.n
}

func (c *counter) get() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.n
}

func TestCreateServers_WaitsForActive(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	th.Mux.HandleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "POST")
		th.TestHeader(t, r, "X-Auth-Token", fake.TokenID)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"key_name":"kp"`)
		assert.Contains(t, string(body), `"availability_zone":"nova"`)
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"server": {"id": "s1", "adminPass": "xyz"}}`)
	})
	gets := &counter{}
	th.Mux.HandleFunc("/servers/s1", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "GET")
		status := StatusBuild
		if gets.inc() >= 3 {
			status = StatusActive
		}
		w.Header().Add("Content-Type", "application/json")
		fmt.Fprint(w, serverJSON("s1", status, "node-4"))
	})

	s := NewServerSteps(fake.ServiceClient(), fastTimings())
	server, xerr := s.CreateServer(context.Background(), "vm-s1", ServerRequest{ImageID: "img-1", FlavorID: "1", NetworkID: "net-1", KeyName: "kp"}, true)
	require.Nil(t, xerr)
	assert.Equal(t, "s1", server.ID)
	assert.Equal(t, StatusActive, server.Status)
	assert.Equal(t, "node-4", ServerHost(server))
	assert.GreaterOrEqual(t, gets.get(), 3)
}

func TestCreateServers_InvalidRequest(t *testing.T) {
	s := NewServerSteps(fake.ServiceClient(), fastTimings())
	_, xerr := s.CreateServers(context.Background(), nil, ServerRequest{}, false)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
	_, xerr = s.CreateServers(context.Background(), []string{"vm"}, ServerRequest{FlavorID: "1"}, false)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
}

func TestCheckServerStatus_ErrorAborts(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	gets := &counter{}
	th.Mux.HandleFunc("/servers/s2", func(w http.ResponseWriter, r *http.Request) {
		gets.inc()
		w.Header().Add("Content-Type", "application/json")
		fmt.Fprint(w, serverJSON("s2", "error", ""))
	})

	s := NewServerSteps(fake.ServiceClient(), fastTimings())
	xerr := s.CheckServerStatus(context.Background(), "s2", StatusActive, nil, 5*time.Second)
	require.NotNil(t, xerr)
	assert.IsType(t, &fail.ErrInconsistent{}, xerr)
	assert.Contains(t, xerr.Error(), "No valid host was found.")
	assert.Equal(t, 1, gets.get())

	// ERROR awaited, case ignored
	xerr = s.CheckServerStatus(context.Background(), "s2", "Error", nil, 0)
	assert.Nil(t, xerr)
}

func TestCheckServerStatus_UnexpectedTransit(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	th.Mux.HandleFunc("/servers/s3", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Content-Type", "application/json")
		fmt.Fprint(w, serverJSON("s3", StatusShutoff, ""))
	})

	s := NewServerSteps(fake.ServiceClient(), fastTimings())
	xerr := s.CheckServerStatus(context.Background(), "s3", StatusActive, []string{StatusBuild}, 5*time.Second)
	assert.IsType(t, &fail.ErrInconsistent{}, xerr)

	xerr = s.CheckServerStatus(context.Background(), "s3", StatusActive, nil, 50*time.Millisecond)
	assert.IsType(t, &fail.ErrTimeout{}, xerr)
}

func TestDeleteServers_ForceAndWait(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	gets := &counter{}
	th.Mux.HandleFunc("/servers/s1/action", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "POST")
		th.TestJSONRequest(t, r, `{"forceDelete": ""}`)
		w.WriteHeader(http.StatusAccepted)
	})
	th.Mux.HandleFunc("/servers/s1", func(w http.ResponseWriter, r *http.Request) {
		if gets.inc() < 2 {
			w.Header().Add("Content-Type", "application/json")
			fmt.Fprint(w, serverJSON("s1", "deleting", ""))
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"itemNotFound": {"message": "Instance s1 could not be found.", "code": 404}}`)
	})
	// already gone
	th.Mux.HandleFunc("/servers/s9/action", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	th.Mux.HandleFunc("/servers/s9", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	s := NewServerSteps(fake.ServiceClient(), fastTimings())
	xerr := s.DeleteServers(context.Background(), []string{"s1", "s9"}, true, true)
	require.Nil(t, xerr)
	assert.GreaterOrEqual(t, gets.get(), 2)

	assert.Nil(t, s.CheckServerPresence(context.Background(), "s1", false, 0))
	assert.IsType(t, &fail.ErrTimeout{}, s.CheckServerPresence(context.Background(), "s1", true, 0))
}

func TestFindServer(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	th.Mux.HandleFunc("/servers/detail", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "GET")
		w.Header().Add("Content-Type", "application/json")
		fmt.Fprint(w, `{"servers": [
			{"id": "a", "name": "web", "status": "ACTIVE", "OS-EXT-SRV-ATTR:host": "node-5"},
			{"id": "b", "name": "web-2", "status": "ACTIVE"}
		]}`)
	})

	s := NewServerSteps(fake.ServiceClient(), fastTimings())
	server, xerr := s.FindServer(context.Background(), "web")
	require.Nil(t, xerr)
	assert.Equal(t, "a", server.ID)
	assert.Equal(t, "node-5", server.Host)

	_, xerr = s.FindServer(context.Background(), "db")
	assert.IsType(t, &fail.ErrNotFound{}, xerr)
}

func TestGetIPs(t *testing.T) {
	server := &Server{}
	server.ID = "s1"
	server.Addresses = map[string]interface{}{
		"net01": []interface{}{
			map[string]interface{}{"addr": "192.168.1.5", "OS-EXT-IPS:type": "fixed", "OS-EXT-IPS-MAC:mac_addr": "fa:16:3e:00:00:01"},
			map[string]interface{}{"addr": "172.16.0.130", "OS-EXT-IPS:type": "floating", "OS-EXT-IPS-MAC:mac_addr": "fa:16:3e:00:00:01"},
		},
	}

	all := GetIPs(server, "")
	assert.Len(t, all, 2)
	assert.Equal(t, "net01", all["192.168.1.5"].Network)

	floating := GetIPs(server, IPFloating)
	require.Len(t, floating, 1)
	assert.Equal(t, "fa:16:3e:00:00:01", floating["172.16.0.130"].MAC)

	ip, xerr := firstIP(server, IPFixed)
	require.Nil(t, xerr)
	assert.Equal(t, "192.168.1.5", ip)

	server.Addresses = nil
	_, xerr = firstIP(server, IPFloating)
	assert.IsType(t, &fail.ErrNotFound{}, xerr)
}

func TestConsoleMarker(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	calls := &counter{}
	th.Mux.HandleFunc("/servers/s1/action", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "POST")
		out := "booting..."
		if calls.inc() >= 2 {
			out += "\nINSTANCE BOOT COMPLETED"
		}
		w.Header().Add("Content-Type", "application/json")
		fmt.Fprintf(w, `{"output": %q}`, out)
	})

	s := NewServerSteps(fake.ServiceClient(), fastTimings())
	xerr := s.CheckConsoleMarker(context.Background(), "s1", "INSTANCE BOOT COMPLETED", 5*time.Second)
	require.Nil(t, xerr)
	assert.Equal(t, 2, calls.get())
}

func TestCreateServers_DeletesCreatedOnFailure(t *testing.T) {
	th.SetupHTTP()
	defer th.TeardownHTTP()

	posts := &counter{}
	th.Mux.HandleFunc("/servers", func(w http.ResponseWriter, r *http.Request) {
		th.TestMethod(t, r, "POST")
		if posts.inc() > 1 {
			w.Header().Add("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"forbidden": {"message": "Quota exceeded for instances", "code": 403}}`)
			return
		}
		w.Header().Add("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, `{"server": {"id": "s1"}}`)
	})
	deletes := &counter{}
	th.Mux.HandleFunc("/servers/s1/action", func(w http.ResponseWriter, r *http.Request) {
		th.TestJSONRequest(t, r, `{"forceDelete": ""}`)
		deletes.inc()
		w.WriteHeader(http.StatusAccepted)
	})

	s := NewServerSteps(fake.ServiceClient(), fastTimings())
	list, xerr := s.CreateServers(context.Background(), []string{"vm-1", "vm-2"}, ServerRequest{ImageID: "img-1", FlavorID: "1"}, false)
	require.NotNil(t, xerr)
	assert.Nil(t, list)
	assert.Equal(t, 2, posts.get())
	assert.Equal(t, 1, deletes.get())
}
