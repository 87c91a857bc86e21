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

	"github.com/sergeychipiga/mos-integration-tests/lib/steps/glance"
	clitools "github.com/sergeychipiga/mos-integration-tests/lib/utils/cli"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

var imageCmdName = "image"

// ImageCommand command
var ImageCommand = cli.Command{
	Name:  "image",
	Usage: "image COMMAND",
	Subcommands: cli.Commands{
		imageWait,
	},
}

var imageWait = cli.Command{
	Name:      "wait",
	Usage:     "Wait for an image to reach a status",
	ArgsUsage: "<image_id>",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "status",
			Value: "active",
			Usage: "Status to wait for",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "Maximum time to wait (default: image active timeout)",
		},
	},
	Action: func(c *cli.Context) (ferr error) {
		defer fail.OnPanic(&ferr)
		traceCommand(imageCmdName, c)
		if err := requireArgs(c, 1, "<image_id>"); err != nil {
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
			timeout = cfg.Timings.ImageActiveTimeout()
		}

		id := c.Args().First()
		done := spinner(fmt.Sprintf("waiting for image %s to be %s", id, c.String("status")))
		xerr = glance.NewImageSteps(conn.Image, cfg.Timings).CheckImageStatus(ctx, id, c.String("status"), timeout)
		done()
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		return clitools.SuccessResponse(map[string]string{"id": id, "status": c.String("status")})
	},
}
