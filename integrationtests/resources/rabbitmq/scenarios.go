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

package rabbitmq

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/integrationtests/helpers"
	"github.com/sergeychipiga/mos-integration-tests/lib/config"
	"github.com/sergeychipiga/mos-integration-tests/lib/system/rabbitmq"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

const (
	restartWaitSeconds = 60
	messagesCount      = 1000
	checkToolPort      = 12345
)

func init() {
	helpers.InSection("rabbitmq").
		AddScenario(RabbitNodeRestart).
		AddScenario(MessagesSurviveNodeRestart).
		AddScenario(KilledNodeRejoins).
		AddScenario(RPCSurvivesPrimaryMigration).
		AddScenario(ClusterRestart)
}

// RabbitNodeRestart bans the rabbit resource of a controller in pacemaker then clears it, waiting for the cluster
// to shrink and grow back
func RabbitNodeRestart(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	controllers := env.NodesWithRole(t, config.RoleController, 3)
	remote := env.Remote(t, controllers[0])

	require.Nil(t, rabbitmq.CheckHASettings(ctx, remote))
	timeout := env.Config.Timings.RabbitNodesTimeout()
	require.Nil(t, rabbitmq.Restart(ctx, remote, len(controllers), restartWaitSeconds, timeout, wait.Sleep(env.Config.Timings.BigDelay())))

	res, xerr := remote.CheckCall(ctx, "rabbitmqctl cluster_status --formatter json")
	require.Nil(t, xerr)
	running, xerr := rabbitmq.RunningNodesFromClusterStatus(res.Stdout)
	require.Nil(t, xerr)
	assert.Len(t, running, len(controllers))
}

// MessagesSurviveNodeRestart sends notifications with oslo.messaging-check-tool, restarts a rabbit node, then checks
// every message can still be consumed
func MessagesSurviveNodeRestart(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	controllers := env.NodesWithRole(t, config.RoleController, 3)
	remote := env.Remote(t, controllers[0])

	if res, xerr := remote.Execute(ctx, "which oslo_msg_load_generator"); xerr != nil || !res.IsOK() {
		t.Skip("oslo.messaging-check-tool is not installed on the controller")
	}

	require.Nil(t, rabbitmq.ConfigureCheckTool(ctx, remote, rabbitmq.CheckToolOptions{Event: true, Port: checkToolPort}))
	require.Nil(t, rabbitmq.GenerateMessages(ctx, remote, messagesCount))

	timeout := env.Config.Timings.RabbitNodesTimeout()
	require.Nil(t, rabbitmq.Restart(ctx, remote, len(controllers), restartWaitSeconds, timeout, wait.Sleep(env.Config.Timings.BigDelay())))

	consumed, xerr := rabbitmq.ConsumeMessages(ctx, remote)
	require.Nil(t, xerr)
	assert.Equal(t, messagesCount, consumed)
}

// KilledNodeRejoins kills beam.smp on a controller and waits for pacemaker to bring it back
func KilledNodeRejoins(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	controllers := env.NodesWithRole(t, config.RoleController, 3)
	remote := env.Remote(t, controllers[len(controllers)-1])

	timeout := env.Config.Timings.RabbitNodesTimeout()
	delay := wait.Sleep(env.Config.Timings.BigDelay())
	require.Nil(t, rabbitmq.WaitForRunningNodes(ctx, remote, len(controllers), 1, timeout, delay))
	require.Nil(t, rabbitmq.KillNode(ctx, remote, timeout, delay))
	require.Nil(t, rabbitmq.WaitForRunningNodes(ctx, remote, len(controllers), 1, timeout, delay))
}

// ClusterRestart disables then enables the rabbit resource on all controllers at once
func ClusterRestart(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	controllers := env.NodesWithRole(t, config.RoleController, 3)
	remote := env.Remote(t, controllers[0])

	timeout := env.Config.Timings.RabbitNodesTimeout()
	require.Nil(t, rabbitmq.RestartCluster(ctx, remote, len(controllers), restartWaitSeconds, timeout, wait.Sleep(env.Config.Timings.BigDelay())))
}

// RPCSurvivesPrimaryMigration runs the oslo.messaging RPC check server and client, moves the primary rabbit node,
// then checks the client still gets answers
func RPCSurvivesPrimaryMigration(t *testing.T) {
	env := helpers.Env(t)
	ctx := helpers.Context(t)
	controllers := env.NodesWithRole(t, config.RoleController, 3)
	remote := env.Remote(t, controllers[0])

	if res, xerr := remote.Execute(ctx, "which oslo_msg_check_server"); xerr != nil || !res.IsOK() {
		t.Skip("oslo.messaging-check-tool is not installed on the controller")
	}
	require.Nil(t, rabbitmq.ConfigureCheckTool(ctx, remote, rabbitmq.CheckToolOptions{Port: checkToolPort}))

	for _, start := range []func() (int, error){
		func() (int, error) { return rabbitmq.StartRPCServer(ctx, remote, rabbitmq.CheckToolConfig) },
		func() (int, error) { return rabbitmq.StartRPCClient(ctx, remote, rabbitmq.CheckToolConfig) },
	} {
		pid, err := start()
		require.NoError(t, err)
		t.Cleanup(func() { _, _ = remote.Execute(ctx, fmt.Sprintf("kill %d", pid)) })
	}

	answering := func() (bool, error) {
		code, xerr := rabbitmq.HTTPCode(ctx, remote, "127.0.0.1", checkToolPort)
		if xerr != nil {
			return false, xerr
		}
		return code == 200, nil
	}
	timeout := env.Config.Timings.RabbitNodesTimeout()
	delay := wait.Sleep(env.Config.Timings.BigDelay())
	require.NoError(t, wait.For(ctx, answering, wait.Timeout(timeout), delay, wait.WaitingFor("rpc client to answer")))

	former, xerr := rabbitmq.MigratePrimary(ctx, remote, len(controllers), restartWaitSeconds, timeout, delay)
	require.Nil(t, xerr)
	t.Logf("primary rabbit node moved away from %s", former)

	require.NoError(t, wait.For(ctx, answering, wait.Timeout(timeout), delay, wait.WaitingFor("rpc client to answer after migration")))
}
