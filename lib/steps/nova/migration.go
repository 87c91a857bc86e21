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
	"strings"
	"time"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/migrate"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/sergeychipiga/mos-integration-tests/lib/openstack"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// BlockMigration tells how the disks of a server are moved by a live migration
type BlockMigration int

const (
	// BlockMigrationAuto lets nova choose; needs compute microversion 2.25
	BlockMigrationAuto BlockMigration = iota
	// BlockMigrationOn copies the disks
	BlockMigrationOn
	// BlockMigrationOff expects shared storage
	BlockMigrationOff
)

// autoBlockMigrationMicroversion is the first microversion accepting block_migration=auto
const autoBlockMigrationMicroversion = "2.25"

// liveMigrateOpts builds the body of os-migrateLive for the microversion in use
type liveMigrateOpts struct {
	host           string
	block          BlockMigration
	withAutoFields bool
}

// ToLiveMigrateMap implements migrate.LiveMigrateOptsBuilder
func (o liveMigrateOpts) ToLiveMigrateMap() (map[string]interface{}, error) {
	body := map[string]interface{}{}
	if o.host != "" {
		body["host"] = o.host
	} else {
		body["host"] = nil
	}
	switch {
	case o.withAutoFields && o.block == BlockMigrationAuto:
		body["block_migration"] = "auto"
	default:
		body["block_migration"] = o.block == BlockMigrationOn
	}
	if !o.withAutoFields {
		body["disk_over_commit"] = false
	}
	return map[string]interface{}{"os-migrateLive": body}, nil
}

// supportsAutoBlockMigration asks once the compute API if it supports block_migration=auto
func (s *ServerSteps) supportsAutoBlockMigration(ctx context.Context) bool {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.maxMicroversion == "" {
		max, xerr := openstack.MaxMicroversion(ctx, s.client)
		if xerr != nil {
			logrus.Warnf("failed to discover compute microversions, using 2.1: %v", xerr)
			max = "2.1"
		}
		s.maxMicroversion = max
	}
	ok, xerr := openstack.Supports(s.maxMicroversion, autoBlockMigrationMicroversion)
	return xerr == nil && ok
}

// LiveMigrate starts the live migration of the server to 'host' (let the scheduler choose if empty)
func (s *ServerSteps) LiveMigrate(ctx context.Context, id, host string, block BlockMigration) fail.Error {
	opts := liveMigrateOpts{host: host, block: block}
	client := s.client
	if s.supportsAutoBlockMigration(ctx) {
		versioned := *s.client
		versioned.Microversion = autoBlockMigrationMicroversion
		client = &versioned
		opts.withAutoFields = true
	} else if block == BlockMigrationAuto {
		logrus.Warnf("compute API does not support block_migration=auto, using shared storage migration")
	}

	xerr := steps.Call(ctx, func() error {
		return migrate.LiveMigrate(client, id, opts).ExtractErr()
	})
	if xerr != nil {
		return fail.Wrap(xerr, "failed to live migrate server '%s'", id)
	}
	return nil
}

// LiveMigrateAll starts concurrently the live migration of all the servers in 'ids' to 'host'
func (s *ServerSteps) LiveMigrateAll(ctx context.Context, ids []string, host string, block BlockMigration) fail.Error {
	// discovers microversions before spawning the goroutines
	s.supportsAutoBlockMigration(ctx)

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return s.LiveMigrate(gctx, id, host, block)
		})
	}
	if err := g.Wait(); err != nil {
		return fail.ConvertError(err)
	}
	return nil
}

// migratedPredicate is true when all the servers are ACTIVE, on 'target' if set and not on 'source' if set
func (s *ServerSteps) migratedPredicate(ctx context.Context, ids []string, source, target string) wait.Predicate {
	return func() (bool, error) {
		for _, id := range ids {
			server, xerr := s.GetServer(ctx, id)
			if xerr != nil {
				return false, xerr
			}
			if steps.SameStatus(server.Status, StatusError) {
				return false, fail.InconsistentError("server '%s' went into ERROR during migration: %s", id, server.Fault.Message)
			}
			if !steps.SameStatus(server.Status, StatusActive) {
				return false, nil
			}
			if target != "" && server.Host != target {
				return false, nil
			}
			if source != "" && server.Host == source {
				return false, nil
			}
		}
		return true, nil
	}
}

// CheckMigrated waits for all the servers in 'ids' to leave host 'source' or to reach host 'target'; one of
// them is required
func (s *ServerSteps) CheckMigrated(ctx context.Context, ids []string, source, target string, timeout time.Duration) fail.Error {
	if source == "" && target == "" {
		return fail.InvalidRequestError("one of target or source is required")
	}
	what := "servers " + strings.Join(ids, ",") + " to migrate"
	if target != "" {
		what += " to " + target
	}
	if source != "" {
		what += " from " + source
	}
	err := wait.For(ctx, s.migratedPredicate(ctx, ids, source, target),
		wait.Timeout(timeout),
		wait.WaitingFor(what),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		s.poll(),
	)
	return fail.ConvertError(err)
}
