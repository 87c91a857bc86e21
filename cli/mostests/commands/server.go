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

	"github.com/sergeychipiga/mos-integration-tests/lib/steps/nova"
	clitools "github.com/sergeychipiga/mos-integration-tests/lib/utils/cli"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

var serverCmdName = "server"

// ServerCommand command
var ServerCommand = cli.Command{
	Name:  "server",
	Usage: "server COMMAND",
	Subcommands: cli.Commands{
		serverWait,
		serverDelete,
	},
}

var serverWait = cli.Command{
	Name:      "wait",
	Usage:     "Wait for a server to reach a status",
	ArgsUsage: "<server_id>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "status",
			Value: nova.StatusActive,
			Usage: "Status to wait for",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "Maximum time to wait (default: server boot timeout)",
		},
	},
	Action: func(c *cli.Context) (ferr error) {
		defer fail.OnPanic(&ferr)
		traceCommand(serverCmdName, c)
		if err := requireArgs(c, 1, "<server_id>"); err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		cfg, conn, xerr := connect(ctx, c)
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		timeout := c.Duration("timeout")
		if timeout == 0 {
			timeout = cfg.Timings.ServerBootTimeout()
		}

		id := c.Args().First()
		done := spinner(fmt.Sprintf("waiting for server %s to be %s", id, c.String("status")))
		xerr = nova.NewServerSteps(conn.Compute, cfg.Timings).CheckServerStatus(ctx, id, c.String("status"), nil, timeout)
		done()
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		return clitools.SuccessResponse(map[string]string{"id": id, "status": c.String("status")})
	},
}

var serverDelete = cli.Command{
	Name:      "delete",
	Aliases:   []string{"rm"},
	Usage:     "Delete servers and wait for them to disappear",
	ArgsUsage: "<server_id> [<server_id>...]",
	Flags: []cli.Flag{
		cli.BoolFlag{
			Name:  "force",
			Usage: "Use force delete",
		},
	},
	Action: func(c *cli.Context) (ferr error) {
		defer fail.OnPanic(&ferr)
		traceCommand(serverCmdName, c)
		if err := requireArgs(c, 1, "<server_id>"); err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		cfg, conn, xerr := connect(ctx, c)
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}

		ids := []string(c.Args())
		done := spinner(fmt.Sprintf("deleting %d server(s)", len(ids)))
		xerr = nova.NewServerSteps(conn.Compute, cfg.Timings).DeleteServers(ctx, ids, c.Bool("force"), true)
		done()
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		return clitools.SuccessResponse(map[string]interface{}{"deleted": ids})
	},
}
