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

package helpers

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/config"
	"github.com/sergeychipiga/mos-integration-tests/lib/openstack"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps/glance"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps/neutron"
	"github.com/sergeychipiga/mos-integration-tests/lib/steps/nova"
	"github.com/sergeychipiga/mos-integration-tests/lib/system/ssh"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/commonlog"
)

// scenarioTimeout bounds the duration of one scenario
const scenarioTimeout = 45 * time.Minute

// Environment gives access to the cloud under test
type Environment struct {
	Config *config.Config
	Conn   *openstack.Connection
}

var env *Environment

func init() {
	BeforeScenarios(Setup)
}

// Setup loads the configuration named by MOS_CONFIG (or found in the default locations) and connects to the cloud
func Setup(t *testing.T) {
	commonlog.SetupLogger(os.Getenv("MOS_VERBOSE") != "", os.Getenv("MOS_DEBUG") != "")

	cfg, xerr := config.Load(os.Getenv("MOS_CONFIG"))
	require.Nil(t, xerr)
	require.Nil(t, cfg.Validate())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timings.OperationTimeout())
	defer cancel()
	conn, xerr := openstack.New(ctx, cfg.Auth, cfg.Timings)
	require.Nil(t, xerr)

	env = &Environment{Config: cfg, Conn: conn}
}

// Env returns the environment prepared by Setup
func Env(t *testing.T) *Environment {
	require.NotNil(t, env, "setup did not succeed")
	return env
}

// Context returns the context of a scenario, cancelled when the scenario ends
func Context(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), scenarioTimeout)
	t.Cleanup(cancel)
	return ctx
}

// Servers ...
func (e *Environment) Servers() *nova.ServerSteps {
	return nova.NewServerSteps(e.Conn.Compute, e.Config.Timings)
}

// Networks ...
func (e *Environment) Networks() *neutron.NetworkSteps {
	return neutron.NewNetworkSteps(e.Conn.Network, e.Conn.ProjectID, e.Config.Timings)
}

// Images ...
func (e *Environment) Images() *glance.ImageSteps {
	return glance.NewImageSteps(e.Conn.Image, e.Config.Timings)
}

// Remote opens an ssh connection to 'node', closed at the end of the scenario
func (e *Environment) Remote(t *testing.T, node config.Node) *ssh.Remote {
	cfg := ssh.NodeConfig(e.Config.SSH, node.Host, e.Config.Timings.SSHConnectionTimeout())
	remote, xerr := ssh.Connect(Context(t), cfg)
	require.Nil(t, xerr)
	t.Cleanup(func() { _ = remote.Close() })
	return remote
}

// NodesWithRole returns the nodes of role 'role', skipping the scenario when there are less than 'min'
func (e *Environment) NodesWithRole(t *testing.T, role string, min int) []config.Node {
	nodes := e.Config.NodesWithRole(role)
	if len(nodes) < min {
		t.Skipf("needs %d %s node(s), %d configured", min, role, len(nodes))
	}
	return nodes
}
