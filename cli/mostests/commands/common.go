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

// Package commands holds the commands of mostests
package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"golang.org/x/term"

	"github.com/sergeychipiga/mos-integration-tests/lib/config"
	"github.com/sergeychipiga/mos-integration-tests/lib/openstack"
	clitools "github.com/sergeychipiga/mos-integration-tests/lib/utils/cli"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

var (
	// Verbose tells if user asks more verbosity
	Verbose bool
	// Debug tells if user asks debug information
	Debug bool
)

// commandContext returns a context cancelled by ctrl+c
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadConfig reads the configuration named by --config; the password is asked on the terminal when none is given
func loadConfig(c *cli.Context) (*config.Config, fail.Error) {
	cfg, xerr := config.Load(c.GlobalString("config"))
	if xerr != nil {
		return nil, xerr
	}
	if cfg.Auth.Password == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "Password of %s: ", cfg.Auth.Username)
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, fail.Wrap(err, "failed to read password")
		}
		cfg.Auth.Password = strings.TrimSpace(string(password))
	}
	return cfg, nil
}

// connect loads the configuration and opens a connection on the cloud under test
func connect(ctx context.Context, c *cli.Context) (*config.Config, *openstack.Connection, fail.Error) {
	cfg, xerr := loadConfig(c)
	if xerr != nil {
		return nil, nil, xerr
	}
	if xerr = cfg.Validate(); xerr != nil {
		return nil, nil, xerr
	}
	conn, xerr := openstack.New(ctx, cfg.Auth, cfg.Timings)
	if xerr != nil {
		return nil, nil, xerr
	}
	return cfg, conn, nil
}

// spinner shows an indeterminate progress bar on stderr until the returned func is called
func spinner(description string) func() {
	pb := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := pb.Add(1); err != nil {
					return
				}
			}
		}
	}()
	return func() {
		close(done)
		_ = pb.Finish()
	}
}

// requireArgs fails when the command got fewer than 'n' arguments
func requireArgs(c *cli.Context, n int, what string) error {
	if c.NArg() < n {
		_ = cli.ShowSubcommandHelp(c)
		return clitools.ExitOnInvalidArgument(fmt.Sprintf("missing mandatory argument %s", what))
	}
	for _, arg := range c.Args()[:n] {
		if strings.TrimSpace(arg) == "" {
			return clitools.ExitOnInvalidArgument(fmt.Sprintf("invalid argument %s", what))
		}
	}
	return nil
}

func traceCommand(group string, c *cli.Context) {
	logrus.Tracef("mostests command: %s %s with args '%s'", group, c.Command.Name, c.Args())
}
