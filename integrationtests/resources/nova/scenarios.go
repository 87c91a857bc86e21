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

package nova

import (
	"context"
	"testing"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/flavors"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/integrationtests/helpers"
	"github.com/sergeychipiga/mos-integration-tests/lib/config"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps/neutron"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps/nova"
	"github.com/sergeychipiga/mos-integration-tests/lib/system/novaconf"
)

const (
	flavorName  = "m1.tiny"
	cirrosUser  = "cirros"
	maxMigrated = 5

	restartNovaCompute = "service nova-compute restart"
)

func init() {
	helpers.InSection("nova").
		AddScenario(BootAndDeleteServers).
		AddScenario(ConcurrentLiveMigration)
}

// fixture gathers what a server needs to boot
type fixture struct {
	request nova.ServerRequest
	keypair *keypairs.KeyPair
}

func newFixture(t *testing.T, ctx context.Context, env *helpers.Environment) fixture {
	names := helpers.GetNames("nova", 3)

	image, xerr := env.Images().CreateImageFromURL(ctx, names[0], env.Config.Images.CirrosURL, true)
	require.Nil(t, xerr)
	t.Cleanup(func() { _ = env.Images().DeleteImage(context.Background(), image.ID, true) })

	flavor, xerr := nova.NewFlavorSteps(env.Conn.Compute).Find(ctx, flavorName)
	require.Nil(t, xerr)

	network, _, xerr := env.Networks().CreateInternalNetworkWithSubnet(ctx, 200)
	require.Nil(t, xerr)
	t.Cleanup(func() { _ = env.Networks().DeleteNetwork(context.Background(), network.ID, true) })

	keypairSteps := nova.NewKeypairSteps(env.Conn.Compute)
	keypair, xerr := keypairSteps.Create(ctx, names[1])
	require.Nil(t, xerr)
	t.Cleanup(func() { _ = keypairSteps.Delete(context.Background(), keypair.Name) })

	groupSteps := neutron.NewSecurityGroupSteps(env.Conn.Network)
	group, xerr := groupSteps.CreateWithRules(ctx, names[2])
	require.Nil(t, xerr)
	t.Cleanup(func() { _ = groupSteps.Delete(context.Background(), group.ID) })

	return fixture{
		request: nova.ServerRequest{
			ImageID:        image.ID,
			FlavorID:       flavor.ID,
			NetworkID:      network.ID,
			KeyName:        keypair.Name,
			SecurityGroups: []string{group.Name},
		},
		keypair: keypair,
	}
}

func serverIDs(list []*nova.Server) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.ID)
	}
	return out
}

// BootAndDeleteServers boots servers, reaches them by ssh through a floating ip, then deletes them
func BootAndDeleteServers(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	fix := newFixture(t, ctx, env)
	serverSteps := env.Servers()

	created, xerr := serverSteps.CreateServers(ctx, helpers.GetNames("server", 2), fix.request, true)
	require.Nil(t, xerr)
	ids := serverIDs(created)
	t.Cleanup(func() { _ = serverSteps.DeleteServers(context.Background(), ids, true, true) })

	for _, server := range created {
		require.NotEmpty(t, nova.ServerHost(server))
		require.NotEmpty(t, nova.GetIPs(server, nova.IPFixed))
	}

	external, xerr := env.Networks().ExternalNetwork(ctx)
	require.Nil(t, xerr)
	fip, xerr := serverSteps.CreateFloatingIP(ctx, external.Name)
	require.Nil(t, xerr)
	t.Cleanup(func() { _ = serverSteps.DeleteFloatingIP(context.Background(), fip.ID) })

	require.Nil(t, serverSteps.AttachFloatingIP(ctx, created[0].ID, fip.IP, true))
	require.Nil(t, serverSteps.CheckSSHConnect(ctx, created[0], fix.keypair, cirrosUser, fip.IP, env.Config.Timings.SSHReadyTimeout()))
	require.Nil(t, serverSteps.DetachFloatingIP(ctx, created[0].ID, fip.IP, true))

	require.Nil(t, serverSteps.DeleteServers(ctx, ids, false, true))
	for _, id := range ids {
		require.Nil(t, serverSteps.CheckServerPresence(ctx, id, false, 0))
	}
}

// unlimitConcurrentMigrations lifts the limit of concurrent live migrations on the computes until the end of the test
func unlimitConcurrentMigrations(t *testing.T, ctx context.Context, env *helpers.Environment, computes []config.Node) {
	services := nova.NewServiceSteps(env.Conn.Compute, env.Config.Timings)
	for _, node := range computes {
		remote := env.Remote(t, node)
		require.Nil(t, novaconf.Set(ctx, remote, novaconf.Path, "DEFAULT", "max_concurrent_live_migrations", "0"))
		_, xerr := remote.CheckCall(ctx, restartNovaCompute)
		require.Nil(t, xerr)

		t.Cleanup(func() {
			cleanupCtx := context.Background()
			if novaconf.Restore(cleanupCtx, remote, novaconf.Path) == nil {
				_, _ = remote.CheckCall(cleanupCtx, restartNovaCompute)
			}
			_ = services.CheckNovaReady(cleanupCtx, env.Config.Timings.ServicesReadyTimeout())
		})
	}
	require.Nil(t, services.CheckNovaReady(ctx, env.Config.Timings.ServicesReadyTimeout()))
}

// ConcurrentLiveMigration fills a hypervisor then migrates all its servers at once to another one
func ConcurrentLiveMigration(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	computes := env.NodesWithRole(t, config.RoleCompute, 2)
	unlimitConcurrentMigrations(t, ctx, env, computes)

	hypervisorSteps := nova.NewHypervisorSteps(env.Conn.Compute, env.Config.Timings)
	list, xerr := hypervisorSteps.List(ctx)
	require.Nil(t, xerr)
	flavor, xerr := nova.NewFlavorSteps(env.Conn.Compute).Find(ctx, flavorName)
	require.Nil(t, xerr)
	suitable := nova.SuitableHypervisors(list, []flavors.Flavor{*flavor})
	if len(suitable) < 2 {
		t.Skipf("needs 2 hypervisors able to host %s, %d found", flavorName, len(suitable))
	}
	source, target := suitable[0], suitable[1]

	count := nova.Capacity(source, *flavor)
	if count > maxMigrated {
		count = maxMigrated
	}
	if capacity := nova.Capacity(target, *flavor); capacity < count {
		count = capacity
	}
	require.Greater(t, count, 0)

	fix := newFixture(t, ctx, env)
	req := fix.request
	req.AvailabilityZone = "nova:" + source.Service.Host
	serverSteps := env.Servers()
	created, xerr := serverSteps.CreateServers(ctx, helpers.GetNames("migrated", count), req, true)
	require.Nil(t, xerr)
	ids := serverIDs(created)
	t.Cleanup(func() { _ = serverSteps.DeleteServers(context.Background(), ids, true, true) })

	require.Nil(t, serverSteps.LiveMigrateAll(ctx, ids, target.Service.Host, nova.BlockMigrationAuto))
	require.Nil(t, serverSteps.CheckMigrated(ctx, ids, source.Service.Host, target.Service.Host, env.Config.Timings.MigrationTimeout()))
	require.Nil(t, hypervisorSteps.CheckHypervisorFree(ctx, source.ID, env.Config.Timings.OperationTimeout()))
}
