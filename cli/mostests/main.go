/*
 * Copyright 2018-2022, CS Systemes d'Information, http://csgroup.eu
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

package main

import (
	"fmt"
	"os"
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/sergeychipiga/mos-integration-tests/cli/mostests/commands"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/commonlog"
)

// Build information, set with -ldflags
var (
	Version   = "dev"
	Revision  = "unknown"
	BuildDate = "unknown"
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())

	app := cli.NewApp()
	app.Writer = os.Stderr
	app.Name = "mostests"
	app.Usage = "mostests COMMAND"
	app.Version = Version + ", build " + Revision + " (" + BuildDate + ")"
	app.EnableBashCompletion = true

	cli.VersionFlag = cli.BoolFlag{
		Name:  "version, V",
		Usage: "Print program version",
	}

	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: "Increase verbosity",
		},
		cli.BoolFlag{
			Name:  "debug, d",
			Usage: "Show debug information",
		},
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "Read the cloud description from `FILE`",
			EnvVar: "MOS_CONFIG",
		},
	}

	app.Before = func(c *cli.Context) error {
		commands.Verbose = c.GlobalBool("verbose")
		commands.Debug = c.GlobalBool("debug")
		commonlog.SetupLogger(commands.Verbose, commands.Debug)
		if strings.Contains(path.Base(os.Args[0]), "-cover") {
			logrus.SetLevel(logrus.TraceLevel)
		}
		return nil
	}

	for _, cmd := range []cli.Command{commands.ServerCommand, commands.ImageCommand, commands.RabbitCommand, commands.IDsCommand} {
		sort.Sort(cli.CommandsByName(cmd.Subcommands))
		app.Commands = append(app.Commands, cmd)
	}
	app.Commands = append(app.Commands, commands.TimingsCommand)
	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.Run(os.Args); err != nil {
		if coder, ok := err.(cli.ExitCoder); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintln(os.Stderr, "Error running mostests: "+err.Error())
		os.Exit(1)
	}
}
