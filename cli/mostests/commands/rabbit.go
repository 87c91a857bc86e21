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

package commands

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/sergeychipiga/mos-integration-tests/lib/system/rabbitmq"
	"github.com/sergeychipiga/mos-integration-tests/lib/system/ssh"
	clitools "github.com/sergeychipiga/mos-integration-tests/lib/utils/cli"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

var rabbitCmdName = "rabbit"

// RabbitCommand command
var RabbitCommand = cli.Command{
	Name:  "rabbit",
	Usage: "rabbit COMMAND",
	Subcommands: cli.Commands{
		rabbitWaitNodes,
	},
}

var rabbitWaitNodes = cli.Command{
	Name:  "wait-nodes",
	Usage: "Wait for pacemaker to report the expected number of running rabbit nodes",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "host",
			Usage: "Controller to ask pacemaker on",
		},
		cli.IntFlag{
			Name:  "expected",
			Value: 3,
			Usage: "Number of running nodes",
		},
		cli.IntFlag{
			Name:  "primary",
			Value: 1,
			Usage: "Number of primary nodes; negative to skip the check",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "Maximum time to wait (default: rabbit nodes timeout)",
		},
		cli.DurationFlag{
			Name:  "delay",
			Value: rabbitmq.DefaultPollDelay,
			Usage: "Delay between two polls",
		},
	},
	Action: func(c *cli.Context) (ferr error) {
		defer fail.OnPanic(&ferr)
		traceCommand(rabbitCmdName, c)
		host := c.String("host")
		if host == "" {
			return clitools.ExitOnInvalidOption("missing mandatory option --host")
		}

		ctx, cancel := commandContext()
		defer cancel()
		cfg, xerr := loadConfig(c)
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		timeout := c.Duration("timeout")
		if timeout == 0 {
			timeout = cfg.Timings.RabbitNodesTimeout()
		}

		remote, xerr := ssh.Connect(ctx, ssh.NodeConfig(cfg.SSH, host, cfg.Timings.SSHConnectionTimeout()))
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		defer func() { _ = remote.Close() }()

		done := spinner(fmt.Sprintf("waiting for %d running rabbit nodes", c.Int("expected")))
		xerr = rabbitmq.WaitForRunningNodes(ctx, remote, c.Int("expected"), c.Int("primary"), timeout, wait.Sleep(c.Duration("delay")))
		done()
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		return clitools.SuccessResponse(map[string]int{"running": c.Int("expected"), "primary": c.Int("primary")})
	},
}
