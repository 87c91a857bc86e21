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

package neutron

import (
	"context"
	"testing"

	mapset "github.com/deckarep/golang-set"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/integrationtests/helpers"
	"github.com/sergeychipiga/mos-integration-tests/lib/config"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps/neutron"
	"github.com/sergeychipiga/mos-integration-tests/lib/system/ovs"
)

const (
	ovsAgent = "neutron-openvswitch-agent"

	restartOVSAgent = "service " + ovsAgent + " restart"
)

func init() {
	helpers.InSection("neutron").
		AddScenario(NetworkWithSubnetAndRouter).
		AddScenario(OVSAgentRestartKeepsFlows)
}

// NetworkWithSubnetAndRouter creates a network with a subnet routed to the external network, checks DHCP serves
// it, then removes everything
func NetworkWithSubnetAndRouter(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	networks := env.Networks()

	previous, xerr := networks.SetQuota(ctx, neutron.DefaultTestQuota)
	require.Nil(t, xerr)
	t.Cleanup(func() { _, _ = networks.SetQuota(context.Background(), *previous) })

	network, subnet, xerr := networks.CreateInternalNetworkWithSubnet(ctx, 201)
	require.Nil(t, xerr)
	deleted := false
	t.Cleanup(func() {
		if !deleted {
			_ = networks.DeleteNetwork(context.Background(), network.ID, true)
		}
	})

	found, xerr := networks.Find(ctx, network.Name)
	require.Nil(t, xerr)
	assert.Equal(t, network.ID, found.ID)

	external, xerr := networks.ExternalNetwork(ctx)
	require.Nil(t, xerr)
	router, xerr := networks.CreateRouterBetweenNets(ctx, external.ID, subnet.ID, 201)
	require.Nil(t, xerr)

	hosts, xerr := networks.DHCPHostsByNetwork(ctx, network.ID, true)
	require.Nil(t, xerr)
	assert.NotEmpty(t, hosts)

	require.Nil(t, networks.DeleteRouter(ctx, router.ID, subnet.ID))
	require.Nil(t, networks.DeleteNetwork(ctx, network.ID, true))
	deleted = true
	require.Nil(t, networks.CheckNetworkPresence(ctx, network.ID, false, 0))
}

type ovsState struct {
	cookies map[string]mapset.Set
	tags    map[string]string
}

func collectOVSState(t *testing.T, ctx context.Context, env *helpers.Environment, nodes []config.Node) map[string]ovsState {
	out := make(map[string]ovsState, len(nodes))
	for _, node := range nodes {
		remote := env.Remote(t, node)
		cookies, xerr := ovs.FlowCookies(ctx, remote)
		require.Nil(t, xerr)
		tags, xerr := ovs.ShowPortTags(ctx, remote)
		require.Nil(t, xerr)
		out[node.Host] = ovsState{cookies: cookies, tags: tags}
	}
	return out
}

// OVSAgentRestartKeepsFlows restarts the openvswitch agents of the computes and checks the flows are rebuilt with
// new cookies while the port tags stay the same
func OVSAgentRestartKeepsFlows(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	networks := env.Networks()
	computes := env.NodesWithRole(t, config.RoleCompute, 1)

	require.Nil(t, networks.CheckAgentsAlive(ctx, ovsAgent, env.Config.Timings.OperationTimeout()))
	before := collectOVSState(t, ctx, env, computes)

	for _, node := range computes {
		_, xerr := env.Remote(t, node).CheckCall(ctx, restartOVSAgent)
		require.Nil(t, xerr)
	}
	require.Nil(t, networks.CheckAgentsAlive(ctx, ovsAgent, env.Config.Timings.OperationTimeout()))

	after := collectOVSState(t, ctx, env, computes)
	for host, state := range before {
		assert.Equal(t, state.tags, after[host].tags, "port tags changed on %s", host)
		for bridge, cookies := range state.cookies {
			// the agent tags all the flows of a bridge with one cookie
			assert.LessOrEqual(t, cookies.Cardinality(), 1)
			assert.LessOrEqual(t, after[host].cookies[bridge].Cardinality(), 1)
			if cookies.Cardinality() == 0 {
				continue
			}
			assert.False(t, cookies.Equal(after[host].cookies[bridge]), "flows of %s on %s kept their cookies", bridge, host)
		}
	}
}
