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

// Package nova contains the steps acting on the compute service
package nova

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/extendedserverattributes"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/startstop"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/servers"
	"github.com/gophercloud/gophercloud/pagination"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug/tracing"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/ids"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// Server statuses
const (
	StatusActive       = "ACTIVE"
	StatusBuild        = "BUILD"
	StatusError        = "ERROR"
	StatusShutoff      = "SHUTOFF"
	StatusMigrating    = "MIGRATING"
	StatusResize       = "RESIZE"
	StatusVerifyResize = "VERIFY_RESIZE"
)

// Server is a nova server with its extended attributes
type Server struct {
	servers.Server
	extendedserverattributes.ServerAttributesExt
}

// ServerRequest describes the servers to create
type ServerRequest struct {
	ImageID          string
	FlavorID         string
	NetworkID        string
	KeyName          string
	SecurityGroups   []string
	AvailabilityZone string
	UserData         string
	AdminPass        string
}

// ServerSteps contains the steps acting on servers
type ServerSteps struct {
	client  *gophercloud.ServiceClient
	timings temporal.Timings

	lock            sync.Mutex
	maxMicroversion string
}

// NewServerSteps creates the steps on servers using the compute client 'client'
func NewServerSteps(client *gophercloud.ServiceClient, timings temporal.Timings) *ServerSteps {
	if timings == nil {
		timings = temporal.NewTimings()
	}
	return &ServerSteps{client: client, timings: timings}
}

func (s *ServerSteps) poll() wait.Option {
	return wait.Sleep(s.timings.SmallDelay())
}

// CreateServer creates a server named 'name'; if 'check' is set, waits for the server to be ACTIVE
func (s *ServerSteps) CreateServer(ctx context.Context, name string, req ServerRequest, check bool) (*Server, fail.Error) {
	list, xerr := s.CreateServers(ctx, []string{name}, req, check)
	if xerr != nil {
		return nil, xerr
	}
	return list[0], nil
}

// CreateServers creates one server per name in 'names' then, if 'check' is set, waits for all of them to be ACTIVE.
// On failure the servers already created are force deleted.
func (s *ServerSteps) CreateServers(ctx context.Context, names []string, req ServerRequest, check bool) (_ []*Server, ferr fail.Error) {
	if len(names) == 0 {
		return nil, fail.InvalidParameterError("names", "cannot be empty")
	}
	if req.ImageID == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("req.ImageID")
	}
	if req.FlavorID == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("req.FlavorID")
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("steps.nova"), "(%s)", strings.Join(names, ",")).WithStopwatch().Entering()
	defer tracer.Exiting()
	defer fail.OnExitLogError(&ferr, tracer.TraceMessage())

	if req.AvailabilityZone == "" {
		req.AvailabilityZone = "nova"
	}
	if req.AdminPass == "" {
		pass, xerr := ids.GeneratePassword(16)
		if xerr != nil {
			return nil, xerr
		}
		req.AdminPass = pass
	}

	created := make([]*Server, 0, len(names))
	defer func() {
		if ferr != nil && len(created) > 0 {
			createdIDs := make([]string, 0, len(created))
			for _, srv := range created {
				createdIDs = append(createdIDs, srv.ID)
			}
			if derr := s.DeleteServers(context.Background(), createdIDs, true, false); derr != nil {
				_ = fail.AddConsequence(ferr, derr)
			}
		}
	}()
	for _, name := range names {
		opts := servers.CreateOpts{
			Name:             name,
			ImageRef:         req.ImageID,
			FlavorRef:        req.FlavorID,
			SecurityGroups:   req.SecurityGroups,
			AvailabilityZone: req.AvailabilityZone,
			AdminPass:        req.AdminPass,
		}
		if req.NetworkID != "" {
			opts.Networks = []servers.Network{{UUID: req.NetworkID}}
		}
		if req.UserData != "" {
			opts.UserData = []byte(req.UserData)
		}
		var builder servers.CreateOptsBuilder = opts
		if req.KeyName != "" {
			builder = keypairs.CreateOptsExt{CreateOptsBuilder: opts, KeyName: req.KeyName}
		}

		var server *servers.Server
		xerr := steps.Call(ctx, func() (innerErr error) {
			server, innerErr = servers.Create(s.client, builder).Extract()
			return innerErr
		})
		if xerr != nil {
			return nil, fail.Wrap(xerr, "failed to create server '%s'", name)
		}
		logrus.Debugf("server '%s' created with id '%s'", name, server.ID)
		created = append(created, &Server{Server: *server})
	}

	if check {
		createdIDs := make([]string, 0, len(created))
		for _, srv := range created {
			createdIDs = append(createdIDs, srv.ID)
		}
		if err := s.CheckServersStatus(ctx, createdIDs, StatusActive, []string{StatusBuild}, s.timings.ServerBootTimeout()); err != nil {
			return nil, fail.ConvertError(err)
		}
		for i, srv := range created {
			refreshed, xerr := s.GetServer(ctx, srv.ID)
			if xerr != nil {
				return nil, xerr
			}
			created[i] = refreshed
		}
	}
	return created, nil
}

// GetServer returns the server identified by 'id'; *fail.ErrNotFound if it does not exist
func (s *ServerSteps) GetServer(ctx context.Context, id string) (*Server, fail.Error) {
	if id == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("id")
	}
	var server Server
	xerr := steps.Call(ctx, func() error {
		return servers.Get(s.client, id).ExtractInto(&server)
	})
	if xerr != nil {
		return nil, xerr
	}
	steps.Dump("server", server)
	return &server, nil
}

// FindServer returns the server named 'name'
func (s *ServerSteps) FindServer(ctx context.Context, name string) (*Server, fail.Error) {
	if name == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("name")
	}

	var found []Server
	xerr := steps.Call(ctx, func() error {
		found = nil
		return servers.List(s.client, servers.ListOpts{Name: "^" + name + "$"}).EachPage(func(page pagination.Page) (bool, error) {
			var list []Server
			if err := servers.ExtractServersInto(page, &list); err != nil {
				return false, err
			}
			for _, v := range list {
				if v.Name == name {
					found = append(found, v)
				}
			}
			return true, nil
		})
	})
	if xerr != nil {
		return nil, xerr
	}

	switch len(found) {
	case 0:
		return nil, fail.NotFoundError("server '%s' not found", name)
	case 1:
		return &found[0], nil
	default:
		return nil, fail.DuplicateError("found %d servers named '%s'", len(found), name)
	}
}

// ServerHost returns the compute host running the server
func ServerHost(server *Server) string {
	if server == nil {
		return ""
	}
	return server.Host
}

// DeleteServer deletes the server identified by 'id'
func (s *ServerSteps) DeleteServer(ctx context.Context, id string, force bool, check bool) fail.Error {
	return s.DeleteServers(ctx, []string{id}, force, check)
}

// DeleteServers deletes concurrently the servers identified by 'ids', already deleted servers being ignored.
// If 'check' is set, waits for all of them to disappear.
func (s *ServerSteps) DeleteServers(ctx context.Context, ids []string, force bool, check bool) (ferr fail.Error) {
	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("steps.nova"), "(%s)", strings.Join(ids, ",")).WithStopwatch().Entering()
	defer tracer.Exiting()
	defer fail.OnExitLogError(&ferr, tracer.TraceMessage())

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			xerr := steps.Call(gctx, func() error {
				if force {
					return servers.ForceDelete(s.client, id).ExtractErr()
				}
				return servers.Delete(s.client, id).ExtractErr()
			})
			if xerr != nil {
				if _, ok := xerr.(*fail.ErrNotFound); ok {
					logrus.Debugf("server '%s' already deleted", id)
					return nil
				}
				return fail.Wrap(xerr, "failed to delete server '%s'", id)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fail.ConvertError(err)
	}

	if check {
		predicates := make([]wait.Predicate, 0, len(ids))
		for _, id := range ids {
			predicates = append(predicates, steps.Presence(s.getter(ctx, id), false))
		}
		err := wait.For(ctx, wait.All(predicates...),
			wait.Timeout(s.timings.ServerDeleteTimeout()),
			wait.WaitingFor("servers to be deleted"),
			wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
			s.poll(),
		)
		if err != nil {
			return fail.ConvertError(err)
		}
	}
	return nil
}

func (s *ServerSteps) getter(ctx context.Context, id string) func() fail.Error {
	return func() fail.Error {
		_, xerr := s.GetServer(ctx, id)
		return xerr
	}
}

// CheckServerPresence checks the server identified by 'id' is present or absent, waiting up to 'timeout'
func (s *ServerSteps) CheckServerPresence(ctx context.Context, id string, present bool, timeout time.Duration) fail.Error {
	err := steps.CheckPresence(ctx, fmt.Sprintf("server '%s'", id), s.getter(ctx, id), present, timeout, s.poll())
	return fail.ConvertError(err)
}

// statusPredicate is true when the server has status 'status' (case is ignored). A server in ERROR aborts the wait,
// unless ERROR is awaited; when 'transit' is not empty, any status not in 'transit' aborts the wait too.
func (s *ServerSteps) statusPredicate(ctx context.Context, id, status string, transit []string) wait.Predicate {
	return func() (bool, error) {
		server, xerr := s.GetServer(ctx, id)
		if xerr != nil {
			return false, xerr
		}
		switch {
		case steps.SameStatus(server.Status, status):
			return true, nil
		case steps.SameStatus(server.Status, StatusError):
			reason := "no fault reported"
			if server.Fault.Message != "" {
				reason = server.Fault.Message
			}
			return false, fail.InconsistentError("server '%s' went into ERROR while waiting for %s: %s", id, status, reason)
		case len(transit) > 0 && !steps.InStatuses(server.Status, transit):
			return false, fail.InconsistentError("server '%s' has unexpected status %s while waiting for %s", id, server.Status, status)
		default:
			return false, nil
		}
	}
}

// CheckServerStatus checks the server identified by 'id' reaches status 'status' within 'timeout'
func (s *ServerSteps) CheckServerStatus(ctx context.Context, id, status string, transit []string, timeout time.Duration) fail.Error {
	return s.CheckServersStatus(ctx, []string{id}, status, transit, timeout)
}

// CheckServersStatus checks all the servers in 'ids' reach status 'status' within 'timeout'
func (s *ServerSteps) CheckServersStatus(ctx context.Context, ids []string, status string, transit []string, timeout time.Duration) fail.Error {
	predicates := make([]wait.Predicate, 0, len(ids))
	for _, id := range ids {
		predicates = append(predicates, s.statusPredicate(ctx, id, status, transit))
	}
	err := wait.For(ctx, wait.All(predicates...),
		wait.Timeout(timeout),
		wait.WaitingFor("servers %s to be %s", strings.Join(ids, ","), status),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		s.poll(),
	)
	return fail.ConvertError(err)
}

// Stop stops the server then waits for it to be SHUTOFF
func (s *ServerSteps) Stop(ctx context.Context, id string, check bool) fail.Error {
	xerr := steps.Call(ctx, func() error {
		return startstop.Stop(s.client, id).ExtractErr()
	})
	if xerr != nil {
		return xerr
	}
	if check {
		return s.CheckServerStatus(ctx, id, StatusShutoff, []string{StatusActive, StatusShutoff}, s.timings.OperationTimeout())
	}
	return nil
}

// Start starts the server then waits for it to be ACTIVE
func (s *ServerSteps) Start(ctx context.Context, id string, check bool) fail.Error {
	xerr := steps.Call(ctx, func() error {
		return startstop.Start(s.client, id).ExtractErr()
	})
	if xerr != nil {
		return xerr
	}
	if check {
		return s.CheckServerStatus(ctx, id, StatusActive, []string{StatusShutoff, StatusActive}, s.timings.OperationTimeout())
	}
	return nil
}

// Resize resizes the server to flavor 'flavorID' then waits for it to be VERIFY_RESIZE
func (s *ServerSteps) Resize(ctx context.Context, id, flavorID string, check bool) fail.Error {
	xerr := steps.Call(ctx, func() error {
		return servers.Resize(s.client, id, servers.ResizeOpts{FlavorRef: flavorID}).ExtractErr()
	})
	if xerr != nil {
		return xerr
	}
	if check {
		return s.CheckServerStatus(ctx, id, StatusVerifyResize, []string{StatusActive, StatusResize}, s.timings.MigrationTimeout())
	}
	return nil
}

// ConfirmResize confirms the resize of the server then waits for it to be ACTIVE
func (s *ServerSteps) ConfirmResize(ctx context.Context, id string, check bool) fail.Error {
	xerr := steps.Call(ctx, func() error {
		return servers.ConfirmResize(s.client, id).ExtractErr()
	})
	if xerr != nil {
		return xerr
	}
	if check {
		return s.CheckServerStatus(ctx, id, StatusActive, []string{StatusVerifyResize, StatusActive}, s.timings.OperationTimeout())
	}
	return nil
}

// ConsoleOutput returns the last 'length' lines of the console of the server; 0 means the whole console
func (s *ServerSteps) ConsoleOutput(ctx context.Context, id string, length int) (string, fail.Error) {
	var out string
	xerr := steps.Call(ctx, func() (innerErr error) {
		out, innerErr = servers.ShowConsoleOutput(s.client, id, servers.ShowConsoleOutputOpts{Length: length}).Extract()
		return innerErr
	})
	if xerr != nil {
		return "", xerr
	}
	return out, nil
}

// CheckConsoleMarker waits for 'marker' to appear in the console of the server
func (s *ServerSteps) CheckConsoleMarker(ctx context.Context, id, marker string, timeout time.Duration) fail.Error {
	err := wait.For(ctx,
		func() (bool, error) {
			out, xerr := s.ConsoleOutput(ctx, id, 0)
			if xerr != nil {
				return false, xerr
			}
			return strings.Contains(out, marker), nil
		},
		wait.Timeout(timeout),
		wait.WaitingFor("'%s' in console of server '%s'", marker, id),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable](), wait.Kind[*fail.ErrNotFound]()),
		s.poll(),
	)
	return fail.ConvertError(err)
}
