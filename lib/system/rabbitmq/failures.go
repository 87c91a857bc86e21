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
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// BackgroundRunner starts commands left running after the call returns
type BackgroundRunner interface {
	BackgroundCall(ctx context.Context, cmd string) (int, fail.Error)
}

const (
	beamPidCmd     = `rabbitmqctl status | grep '{pid' | tr -dc '0-9'`
	killBeamCmd    = "pkill beam.smp"
	primaryHostCmd = `pcs status --full | grep p_rabbitmq-server | grep ocf | grep Master | grep -o 'node-.*'`
)

// KillNode waits for the rabbit of the node reached by 'r' to have a pid, then kills beam.smp.
// Options come after the defaults: 30s between polls.
func KillNode(ctx context.Context, r Runner, timeout time.Duration, options ...wait.Option) fail.Error {
	var pid string
	err := wait.For(ctx,
		func() (bool, error) {
			res, xerr := r.CheckCall(ctx, beamPidCmd)
			if xerr != nil {
				return false, xerr
			}
			pid = strings.TrimSpace(res.Stdout)
			return pid != "", nil
		},
		append([]wait.Option{
			wait.Timeout(timeout),
			wait.Sleep(DefaultPollDelay),
			wait.WaitingFor("rabbit to get its pid"),
			wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		}, options...)...,
	)
	if err != nil {
		return fail.ConvertError(err)
	}
	logrus.Debugf("killing rabbit (beam.smp pid %s)", pid)
	_, xerr := r.CheckCall(ctx, killBeamCmd)
	return xerr
}

// ClusterRestartCommands returns the pcs commands disabling and enabling the rabbit resource on every controller
func ClusterRestartCommands(waitSeconds int) (disable string, enable string) {
	disable = fmt.Sprintf(`pcs resource disable %s --wait=%d $(hostname) || echo "Stopped %s"`, resource, waitSeconds, resource)
	enable = fmt.Sprintf(`pcs resource enable %s --wait=%d $(hostname) || echo "Started %s"`, resource, waitSeconds, resource)
	return disable, enable
}

// RestartCluster stops rabbit on all the 'controllers' nodes at once, waits for none to run, then starts it back
func RestartCluster(ctx context.Context, r Runner, controllers int, waitSeconds int, timeout time.Duration, options ...wait.Option) fail.Error {
	disable, enable := ClusterRestartCommands(waitSeconds)

	if xerr := WaitForRunningNodes(ctx, r, controllers, 1, timeout, options...); xerr != nil {
		return xerr
	}
	logrus.Debugf("disabling rabbit cluster")
	if _, xerr := r.CheckCall(ctx, disable); xerr != nil {
		return xerr
	}
	if xerr := WaitForRunningNodes(ctx, r, 0, 0, timeout, options...); xerr != nil {
		return xerr
	}
	logrus.Debugf("enabling rabbit cluster")
	if _, xerr := r.CheckCall(ctx, enable); xerr != nil {
		return xerr
	}
	return WaitForRunningNodes(ctx, r, controllers, 1, timeout, options...)
}

// MigratePrimary bans rabbit from the node currently primary, so that another node takes the role, then clears
// the ban. Returns the former primary node.
func MigratePrimary(ctx context.Context, r Runner, controllers int, waitSeconds int, timeout time.Duration, options ...wait.Option) (string, fail.Error) {
	if xerr := WaitForRunningNodes(ctx, r, controllers, 1, timeout, options...); xerr != nil {
		return "", xerr
	}
	res, xerr := r.CheckCall(ctx, primaryHostCmd)
	if xerr != nil {
		return "", xerr
	}
	primary := strings.TrimSpace(strings.SplitN(res.Stdout, "\n", 2)[0])
	if primary == "" {
		return "", fail.NotFoundError("no primary rabbit node in pacemaker")
	}

	logrus.Debugf("banning rabbit from primary node %s", primary)
	// as with Restart, pcs may exit with non-zero even when it worked
	if _, xerr = r.Execute(ctx, fmt.Sprintf("pcs resource ban %s --wait=%d %s", resource, waitSeconds, primary)); xerr != nil {
		return primary, xerr
	}
	if xerr = WaitForRunningNodes(ctx, r, controllers-1, 1, timeout, options...); xerr != nil {
		return primary, xerr
	}
	if _, xerr = r.Execute(ctx, fmt.Sprintf("pcs resource clear %s --wait=%d %s", resource, waitSeconds, primary)); xerr != nil {
		return primary, xerr
	}
	return primary, WaitForRunningNodes(ctx, r, controllers, 1, timeout, options...)
}

// StartRPCServer starts oslo_msg_check_server in the background and returns its pid
func StartRPCServer(ctx context.Context, r BackgroundRunner, configPath string) (int, fail.Error) {
	return startCheckTool(ctx, r, "oslo_msg_check_server", configPath)
}

// StartRPCClient starts oslo_msg_check_client in the background and returns its pid. The client answers HTTP on
// the listen_port of its configuration, see HTTPCode.
func StartRPCClient(ctx context.Context, r BackgroundRunner, configPath string) (int, fail.Error) {
	return startCheckTool(ctx, r, "oslo_msg_check_client", configPath)
}

func startCheckTool(ctx context.Context, r BackgroundRunner, binary, configPath string) (int, fail.Error) {
	if configPath == "" {
		return 0, fail.InvalidParameterCannotBeEmptyStringError("configPath")
	}
	pid, xerr := r.BackgroundCall(ctx, fmt.Sprintf("%s --nodebug --config-file %s", binary, configPath))
	if xerr != nil {
		return 0, fail.Wrap(xerr, "failed to start %s", binary)
	}
	logrus.Debugf("%s started with pid %d", binary, pid)
	return pid, nil
}
