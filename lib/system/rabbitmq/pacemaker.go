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

// Package rabbitmq checks the RabbitMQ cluster run by pacemaker on the controllers
package rabbitmq

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/sergeychipiga/mos-integration-tests/lib/system/ssh"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// Runner runs commands on a controller
type Runner interface {
	Execute(ctx context.Context, cmd string) (ssh.Result, fail.Error)
	CheckCall(ctx context.Context, cmd string) (ssh.Result, fail.Error)
}

const (
	resource = "p_rabbitmq-server"

	runningNodesCmd = `pcs status --full | grep p_rabbitmq-server | grep ocf | grep -c -E "Master|Started"`
	primaryNodesCmd = `pcs status --full | grep p_rabbitmq-server | grep ocf | grep -c -E "Master"`

	// DefaultPollDelay is the delay between two polls of pacemaker
	DefaultPollDelay = 30 * time.Second
)

// countFrom returns the number printed on the first line of 'stdout', 0 if there is none
func countFrom(stdout string) int {
	line := strings.TrimSpace(strings.SplitN(stdout, "\n", 2)[0])
	n, err := strconv.Atoi(line)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func count(ctx context.Context, r Runner, cmd string) (int, fail.Error) {
	// grep -c exits with 1 when it counts nothing
	res, xerr := r.Execute(ctx, cmd)
	if xerr != nil {
		return 0, xerr
	}
	return countFrom(res.Stdout), nil
}

// RunningNodes returns the number of rabbit nodes Started or Master in pacemaker
func RunningNodes(ctx context.Context, r Runner) (int, fail.Error) {
	return count(ctx, r, runningNodesCmd)
}

// PrimaryNodes returns the number of rabbit nodes Master in pacemaker
func PrimaryNodes(ctx context.Context, r Runner) (int, fail.Error) {
	return count(ctx, r, primaryNodesCmd)
}

// WaitForRunningNodes waits for pacemaker to report 'expected' running nodes then, if 'primary' is not negative,
// 'primary' primary nodes. Options come after the defaults: 30s between polls.
func WaitForRunningNodes(ctx context.Context, r Runner, expected, primary int, timeout time.Duration, options ...wait.Option) fail.Error {
	nodesEqual := func(counter func(context.Context, Runner) (int, fail.Error), want int) wait.Predicate {
		return func() (bool, error) {
			n, xerr := counter(ctx, r)
			if xerr != nil {
				return false, xerr
			}
			return n == want, nil
		}
	}
	opts := func(format string, want int) []wait.Option {
		return append([]wait.Option{
			wait.Timeout(timeout),
			wait.Sleep(DefaultPollDelay),
			wait.WaitingFor(format, want),
			wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		}, options...)
	}

	if err := wait.For(ctx, nodesEqual(RunningNodes, expected), opts("number of running nodes will be %d.", expected)...); err != nil {
		return fail.ConvertError(err)
	}
	if primary >= 0 {
		if err := wait.For(ctx, nodesEqual(PrimaryNodes, primary), opts("number of running primary nodes will be %d.", primary)...); err != nil {
			return fail.ConvertError(err)
		}
	}
	return nil
}

// RunningNodesFromClusterStatus returns the running nodes listed by 'rabbitmqctl cluster_status --formatter json'
func RunningNodesFromClusterStatus(status string) ([]string, fail.Error) {
	if !gjson.Valid(status) {
		return nil, fail.SyntaxError("cluster status is not valid json")
	}
	nodes := gjson.Get(status, "running_nodes")
	if !nodes.Exists() {
		return nil, fail.NotFoundError("no running_nodes in cluster status")
	}
	var out []string
	for _, n := range nodes.Array() {
		out = append(out, n.String())
	}
	return out, nil
}

// RestartCommands returns the pcs commands stopping and starting rabbit on the local controller, waiting up to
// 'waitSeconds'. pcs may exit with non-zero even when it worked, hence the echo.
func RestartCommands(waitSeconds int) (stop string, start string) {
	stop = fmt.Sprintf(`pcs resource ban %s --wait=%d $(hostname) || echo "Stopped %s"`, resource, waitSeconds, resource)
	start = fmt.Sprintf(`pcs resource clear %s --wait=%d $(hostname) || echo "Started %s"`, resource, waitSeconds, resource)
	return stop, start
}

// Restart restarts rabbit on the controller reached by 'r', checking the cluster of 'controllers' nodes before,
// during and after. One primary node is expected at every stage.
func Restart(ctx context.Context, r Runner, controllers int, waitSeconds int, timeout time.Duration, options ...wait.Option) fail.Error {
	stop, start := RestartCommands(waitSeconds)

	if xerr := WaitForRunningNodes(ctx, r, controllers, 1, timeout, options...); xerr != nil {
		return xerr
	}
	logrus.Debugf("stopping rabbit")
	if _, xerr := r.CheckCall(ctx, stop); xerr != nil {
		return xerr
	}
	if xerr := WaitForRunningNodes(ctx, r, controllers-1, 1, timeout, options...); xerr != nil {
		return xerr
	}
	logrus.Debugf("starting rabbit")
	if _, xerr := r.CheckCall(ctx, start); xerr != nil {
		return xerr
	}
	return WaitForRunningNodes(ctx, r, controllers, 1, timeout, options...)
}

// CheckHASettings checks pacemaker runs rabbit with HA notifications and without HA RPC queues
func CheckHASettings(ctx context.Context, r Runner) fail.Error {
	res, xerr := r.CheckCall(ctx, "pcs resource show "+resource)
	if xerr != nil {
		return xerr
	}
	out := res.Stdout
	if !strings.Contains(out, "enable_notifications_ha=true") || strings.Contains(out, "enable_notifications_ha=false") {
		return fail.InconsistentError("disabled HA notifications (should be enabled)")
	}
	if !strings.Contains(out, "enable_rpc_ha=false") || strings.Contains(out, "enable_rpc_ha=true") {
		return fail.InconsistentError("enabled HA RPC (should be disabled)")
	}
	return nil
}
