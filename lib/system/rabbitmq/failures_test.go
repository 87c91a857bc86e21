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
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/system/ssh"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// pacemaker simulates the rabbit resource of a 3 controllers cluster
type pacemaker struct {
	lock    sync.Mutex
	running int
	primary int
	master  string
}

func (p *pacemaker) answer(cmd string) ssh.Result {
	p.lock.Lock()
	defer p.lock.Unlock()
	switch {
	case cmd == runningNodesCmd:
		return ssh.Result{Stdout: strconv.Itoa(p.running)}
	case cmd == primaryNodesCmd:
		return ssh.Result{Stdout: strconv.Itoa(p.primary)}
	case cmd == primaryHostCmd:
		return ssh.Result{Stdout: p.master + "\n"}
	case strings.HasPrefix(cmd, "pcs resource disable"):
		p.running, p.primary = 0, 0
	case strings.HasPrefix(cmd, "pcs resource enable"):
		p.running, p.primary = 3, 1
	case strings.HasPrefix(cmd, "pcs resource ban"):
		p.running = 2
		p.master = "node-2.test.domain.local"
	case strings.HasPrefix(cmd, "pcs resource clear"):
		p.running = 3
	default:
		return ssh.Result{RetCode: 127}
	}
	return ssh.Result{}
}

func TestKillNode(t *testing.T) {
	polls := 0
	f := &fakeController{answer: func(cmd string) ssh.Result {
		switch cmd {
		case beamPidCmd:
			polls++
			if polls < 3 {
				return ssh.Result{}
			}
			return ssh.Result{Stdout: "12345"}
		case killBeamCmd:
			return ssh.Result{}
		}
		return ssh.Result{RetCode: 127}
	}}

	require.Nil(t, KillNode(context.Background(), f, time.Second, wait.Sleep(10*time.Millisecond)))
	assert.Equal(t, 3, polls)
	assert.Equal(t, killBeamCmd, f.commands[len(f.commands)-1])

	none := &fakeController{answer: func(string) ssh.Result { return ssh.Result{} }}
	xerr := KillNode(context.Background(), none, 50*time.Millisecond, wait.Sleep(10*time.Millisecond))
	assert.IsType(t, &fail.ErrTimeout{}, xerr)
	assert.NotContains(t, none.commands, killBeamCmd)
}

func TestRestartCluster(t *testing.T) {
	p := &pacemaker{running: 3, primary: 1}
	f := &fakeController{answer: p.answer}

	require.Nil(t, RestartCluster(context.Background(), f, 3, 120, time.Second, wait.Sleep(10*time.Millisecond)))
	disable, enable := ClusterRestartCommands(120)
	assert.Contains(t, f.commands, disable)
	assert.Contains(t, f.commands, enable)
	assert.Equal(t, `pcs resource disable p_rabbitmq-server --wait=120 $(hostname) || echo "Stopped p_rabbitmq-server"`, disable)
}

func TestMigratePrimary(t *testing.T) {
	p := &pacemaker{running: 3, primary: 1, master: "node-1.test.domain.local"}
	f := &fakeController{answer: p.answer}

	former, xerr := MigratePrimary(context.Background(), f, 3, 60, time.Second, wait.Sleep(10*time.Millisecond))
	require.Nil(t, xerr)
	assert.Equal(t, "node-1.test.domain.local", former)
	assert.Contains(t, f.commands, "pcs resource ban p_rabbitmq-server --wait=60 node-1.test.domain.local")
	assert.Contains(t, f.commands, "pcs resource clear p_rabbitmq-server --wait=60 node-1.test.domain.local")
	assert.Equal(t, "node-2.test.domain.local", p.master)

	p = &pacemaker{running: 3, primary: 1}
	_, xerr = MigratePrimary(context.Background(), &fakeController{answer: p.answer}, 3, 60, time.Second, wait.Sleep(10*time.Millisecond))
	assert.IsType(t, &fail.ErrNotFound{}, xerr)
}

func TestStartRPC(t *testing.T) {
	f := &fakeController{}

	pid, xerr := StartRPCServer(context.Background(), f, CheckToolConfig)
	require.Nil(t, xerr)
	assert.Equal(t, 4242, pid)
	_, xerr = StartRPCClient(context.Background(), f, CheckToolConfig)
	require.Nil(t, xerr)
	assert.Equal(t, []string{
		"oslo_msg_check_server --nodebug --config-file " + CheckToolConfig,
		"oslo_msg_check_client --nodebug --config-file " + CheckToolConfig,
	}, f.commands)

	_, xerr = StartRPCServer(context.Background(), f, "")
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
}
