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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

const sampleYAML = `
auth:
  url: http://keystone.local:5000/v3
  username: admin
  password: secret
  project: admin
ssh:
  user: root
  private_key: /root/.ssh/id_rsa
  nodes:
    - name: node-1
      host: 10.109.1.3
      roles: [controller]
    - name: node-4
      host: 10.109.1.6
      roles: [compute, cinder]
timings:
  timeouts:
    serverboot: 10m
  delays:
    small: 2s
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func clearOSEnv(t *testing.T) {
	t.Helper()
	for _, envs := range envBindings {
		for _, e := range envs {
			if _, ok := os.LookupEnv(e); ok {
				t.Setenv(e, "")
				_ = os.Unsetenv(e)
			}
		}
	}
}

func TestLoad_YAML(t *testing.T) {
	clearOSEnv(t)
	cfg, xerr := Load(writeFile(t, "mos.yaml", sampleYAML))
	require.Nil(t, xerr)

	assert.Equal(t, "http://keystone.local:5000/v3", cfg.Auth.URL)
	assert.Equal(t, "default", cfg.Auth.UserDomain)
	assert.Equal(t, 22, cfg.SSH.Port)
	require.Len(t, cfg.SSH.Nodes, 2)
	assert.Equal(t, []string{"compute", "cinder"}, cfg.SSH.Nodes[1].Roles)

	assert.Equal(t, 10*time.Minute, cfg.Timings.ServerBootTimeout())
	assert.Equal(t, 2*time.Second, cfg.Timings.SmallDelay())
	// not set in file, default kept
	assert.Equal(t, 3*time.Minute, cfg.Timings.ServerDeleteTimeout())

	assert.Nil(t, cfg.Validate())
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearOSEnv(t)
	t.Setenv("OS_PASSWORD", "from-os")
	t.Setenv("MOS_SSH_PORT", "2222")
	cfg, xerr := Load(writeFile(t, "mos.yaml", sampleYAML))
	require.Nil(t, xerr)
	assert.Equal(t, "from-os", cfg.Auth.Password)
	assert.Equal(t, 2222, cfg.SSH.Port)

	t.Setenv("MOS_AUTH_PASSWORD", "from-mos")
	cfg, xerr = Load(writeFile(t, "mos.yaml", sampleYAML))
	require.Nil(t, xerr)
	assert.Equal(t, "from-mos", cfg.Auth.Password)
}

func TestLoad_TOML(t *testing.T) {
	clearOSEnv(t)
	content := `
[auth]
url = "https://keystone.local:5000/v3"
username = "demo"
password = "demo"
project = "demo"
`
	cfg, xerr := Load(writeFile(t, "mos.toml", content))
	require.Nil(t, xerr)
	assert.Equal(t, "demo", cfg.Auth.Username)
	assert.Nil(t, cfg.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, xerr := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NotNil(t, xerr)
	assert.IsType(t, &fail.ErrNotFound{}, xerr)

	_, xerr = Load(writeFile(t, "mos.yaml", "auth: [unclosed"))
	require.NotNil(t, xerr)
	assert.IsType(t, &fail.ErrSyntax{}, xerr)
}

func TestValidate(t *testing.T) {
	clearOSEnv(t)
	cfg, xerr := Load(writeFile(t, "mos.yaml", sampleYAML))
	require.Nil(t, xerr)

	cfg.Auth.URL = "not an url"
	assert.IsType(t, &fail.ErrInvalidRequest{}, cfg.Validate())

	cfg.Auth.URL = "http://keystone.local:5000/v3"
	cfg.SSH.Port = 70000
	assert.IsType(t, &fail.ErrInvalidRequest{}, cfg.Validate())

	cfg.SSH.Port = 22
	cfg.Auth.Password = ""
	assert.IsType(t, &fail.ErrInvalidRequest{}, cfg.Validate())

	var nilCfg *Config
	assert.IsType(t, &fail.ErrInvalidInstance{}, nilCfg.Validate())
}

func TestNodesWithRole(t *testing.T) {
	clearOSEnv(t)
	cfg, xerr := Load(writeFile(t, "mos.yaml", sampleYAML))
	require.Nil(t, xerr)

	controllers := cfg.NodesWithRole(RoleController)
	require.Len(t, controllers, 1)
	assert.Equal(t, "node-1", controllers[0].Name)
	assert.Len(t, cfg.NodesWithRole("COMPUTE"), 1)
	assert.Empty(t, cfg.NodesWithRole("mongo"))
}
