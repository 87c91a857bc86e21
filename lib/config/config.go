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

// Package config loads the description of the cloud under test: credentials, ssh access to the
// nodes, image locations and timings
package config

import (
	"errors"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
)

// Node roles
const (
	RoleController = "controller"
	RoleCompute    = "compute"
)

// Auth contains what is needed to authenticate against Keystone
type Auth struct {
	URL           string `mapstructure:"url"`
	Username      string `mapstructure:"username"`
	Password      string `mapstructure:"password"`
	Project       string `mapstructure:"project"`
	UserDomain    string `mapstructure:"user_domain"`
	ProjectDomain string `mapstructure:"project_domain"`
	Region        string `mapstructure:"region"`
	Insecure      bool   `mapstructure:"insecure"`
}

// Node is a host of the cloud reachable by ssh
type Node struct {
	Name  string   `mapstructure:"name"`
	Host  string   `mapstructure:"host"`
	Roles []string `mapstructure:"roles"`
}

// HasRole tells if the node has the role 'role'
func (n Node) HasRole(role string) bool {
	for _, r := range n.Roles {
		if strings.EqualFold(r, role) {
			return true
		}
	}
	return false
}

// SSH contains the access to the nodes
type SSH struct {
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	PrivateKey string `mapstructure:"private_key"`
	Port       int    `mapstructure:"port"`
	Nodes      []Node `mapstructure:"nodes"`
}

// Images contains the locations of the images uploaded by scenarios
type Images struct {
	UbuntuURL string `mapstructure:"ubuntu_url"`
	CirrosURL string `mapstructure:"cirros_url"`
}

// Config is the content of the mos configuration
type Config struct {
	Auth    Auth                     `mapstructure:"auth"`
	SSH     SSH                      `mapstructure:"ssh"`
	Images  Images                   `mapstructure:"images"`
	Timings *temporal.MutableTimings `mapstructure:"timings"`
}

// NodesWithRole returns the nodes having the role 'role'
func (c *Config) NodesWithRole(role string) []Node {
	if c == nil {
		return nil
	}
	var out []Node
	for _, n := range c.SSH.Nodes {
		if n.HasRole(role) {
			out = append(out, n)
		}
	}
	return out
}

// Validate checks the content of the configuration
func (c *Config) Validate() fail.Error {
	if c == nil {
		return fail.InvalidInstanceError()
	}

	err := validation.ValidateStruct(&c.Auth,
		validation.Field(&c.Auth.URL, validation.Required, is.URL),
		validation.Field(&c.Auth.Username, validation.Required),
		validation.Field(&c.Auth.Password, validation.Required),
		validation.Field(&c.Auth.Project, validation.Required),
	)
	if err != nil {
		return fail.InvalidRequestErrorWithCause(err, "invalid auth section")
	}

	err = validation.ValidateStruct(&c.SSH,
		validation.Field(&c.SSH.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SSH.User, validation.Required),
	)
	if err != nil {
		return fail.InvalidRequestErrorWithCause(err, "invalid ssh section")
	}
	for i := range c.SSH.Nodes {
		n := &c.SSH.Nodes[i]
		err = validation.ValidateStruct(n,
			validation.Field(&n.Host, validation.Required, is.Host),
		)
		if err != nil {
			return fail.InvalidRequestErrorWithCause(err, "invalid ssh node #%d", i)
		}
	}

	err = validation.ValidateStruct(&c.Images,
		validation.Field(&c.Images.UbuntuURL, is.URL),
		validation.Field(&c.Images.CirrosURL, is.URL),
	)
	if err != nil {
		return fail.InvalidRequestErrorWithCause(err, "invalid images section")
	}
	return nil
}

// envBindings lists the keys that may come from the environment; MOS_* take precedence over OS_*
var envBindings = map[string][]string{
	"auth.url":            {"MOS_AUTH_URL", "OS_AUTH_URL"},
	"auth.username":       {"MOS_AUTH_USERNAME", "OS_USERNAME"},
	"auth.password":       {"MOS_AUTH_PASSWORD", "OS_PASSWORD"},
	"auth.project":        {"MOS_AUTH_PROJECT", "OS_PROJECT_NAME", "OS_TENANT_NAME"},
	"auth.user_domain":    {"MOS_AUTH_USER_DOMAIN", "OS_USER_DOMAIN_NAME"},
	"auth.project_domain": {"MOS_AUTH_PROJECT_DOMAIN", "OS_PROJECT_DOMAIN_NAME"},
	"auth.region":         {"MOS_AUTH_REGION", "OS_REGION_NAME"},
	"auth.insecure":       {"MOS_AUTH_INSECURE", "OS_INSECURE"},
	"ssh.user":            {"MOS_SSH_USER"},
	"ssh.password":        {"MOS_SSH_PASSWORD"},
	"ssh.private_key":     {"MOS_SSH_PRIVATE_KEY"},
	"ssh.port":            {"MOS_SSH_PORT"},
	"images.ubuntu_url":   {"MOS_IMAGES_UBUNTU_URL"},
	"images.cirros_url":   {"MOS_IMAGES_CIRROS_URL"},
}

func newReader(path string) (*viper.Viper, fail.Error) {
	reader := viper.New()
	if path != "" {
		reader.SetConfigFile(path)
	} else {
		reader.SetConfigName("mos")
		reader.AddConfigPath(".")
		reader.AddConfigPath("$HOME/.mos")
		reader.AddConfigPath("/etc/mos")
	}

	reader.SetDefault("auth.user_domain", "default")
	reader.SetDefault("auth.project_domain", "default")
	reader.SetDefault("auth.region", "RegionOne")
	reader.SetDefault("ssh.user", "root")
	reader.SetDefault("ssh.port", 22)
	reader.SetDefault("images.ubuntu_url", "https://cloud-images.ubuntu.com/trusty/current/trusty-server-cloudimg-amd64-disk1.img")
	reader.SetDefault("images.cirros_url", "http://download.cirros-cloud.net/0.3.4/cirros-0.3.4-x86_64-disk.img")

	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := reader.BindEnv(args...); err != nil {
			return nil, fail.Wrap(err, "failed to bind environment for '%s'", key)
		}
	}
	return reader, nil
}

// Load reads the configuration from 'path', or from the file named mos (yaml, toml or json) found
// in '.', '$HOME/.mos' or '/etc/mos' when 'path' is empty. The environment overrides the file.
func Load(path string) (*Config, fail.Error) {
	reader, xerr := newReader(path)
	if xerr != nil {
		return nil, xerr
	}

	if err := reader.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			logrus.Debugf("no mos configuration file found, using environment only")
		case errors.Is(err, os.ErrNotExist):
			return nil, fail.NotFoundErrorWithCause(err, "configuration file '%s' not found", path)
		default:
			return nil, fail.SyntaxErrorWithCause(err, "failed to parse configuration")
		}
	} else {
		logrus.Debugf("using configuration file '%s'", reader.ConfigFileUsed())
	}

	return decode(reader)
}

func decode(reader *viper.Viper) (*Config, fail.Error) {
	cfg := &Config{Timings: &temporal.MutableTimings{}}
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := reader.Unmarshal(cfg, hook); err != nil {
		return nil, fail.SyntaxErrorWithCause(err, "failed to decode configuration")
	}
	if cfg.Timings == nil {
		cfg.Timings = &temporal.MutableTimings{}
	}
	if err := cfg.Timings.Update(temporal.NewTimings()); err != nil {
		return nil, fail.ConvertError(err)
	}
	return cfg, nil
}
