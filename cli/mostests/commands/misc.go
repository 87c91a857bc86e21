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

	"github.com/sergeychipiga/mos-integration-tests/lib/config"
	clitools "github.com/sergeychipiga/mos-integration-tests/lib/utils/cli"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/ids"
)

// IDsCommand command
var IDsCommand = cli.Command{
	Name:  "ids",
	Usage: "ids COMMAND",
	Subcommands: cli.Commands{
		idsGenerate,
	},
}

var idsGenerate = cli.Command{
	Name:  "generate",
	Usage: "Generate unique resource names",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "prefix",
			Usage: "Prefix of the names",
		},
		cli.StringFlag{
			Name:  "postfix",
			Usage: "Postfix of the names",
		},
		cli.UintFlag{
			Name:  "count",
			Value: 1,
			Usage: "Number of names",
		},
		cli.UintFlag{
			Name:  "length",
			Value: 32,
			Usage: "Length of the random part",
		},
	},
	Action: func(c *cli.Context) (ferr error) {
		defer fail.OnPanic(&ferr)
		traceCommand("ids", c)
		names, xerr := ids.GenerateIDs(c.String("prefix"), c.String("postfix"), c.Uint("count"), c.Uint("length"))
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		return clitools.SuccessResponse(names)
	},
}

// TimingsCommand command
var TimingsCommand = cli.Command{
	Name:  "timings",
	Usage: "Print the effective timings as toml",
	Action: func(c *cli.Context) (ferr error) {
		defer fail.OnPanic(&ferr)
		traceCommand("timings", c)
		cfg, xerr := config.Load(c.GlobalString("config"))
		if xerr != nil {
			return clitools.FailureResponse(xerr)
		}
		out, err := cfg.Timings.ToToml()
		if err != nil {
			return clitools.FailureResponse(err)
		}
		_, err = fmt.Fprint(clitools.Output, out)
		return err
	},
}
