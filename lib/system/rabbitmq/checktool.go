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
	"bytes"
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/template"
)

// Remote is a controller able to run commands and transfer files
type Remote interface {
	Runner
	ReadFile(ctx context.Context, path string) ([]byte, fail.Error)
	WriteFile(ctx context.Context, path string, content []byte, perm os.FileMode) fail.Error
}

const (
	// NovaConfig holds the rabbit credentials used by the check tool
	NovaConfig = "/etc/nova/nova.conf"
	// CheckToolConfig is where the configuration of oslo.messaging-check-tool is written
	CheckToolConfig = "/root/oslo_messaging_check_tool/oslo_msg_check.conf"
	// DefaultTopic of the check tool
	DefaultTopic = "oslo_messaging_checktool"
	// directPort is the port rabbit listens on, bypassing haproxy
	directPort = 5673
)

// OsloSettings are the rabbit credentials of the oslo_messaging_rabbit section
type OsloSettings struct {
	UserID   string
	Password string
	Hosts    string
}

// ParseOsloSettings reads the oslo_messaging_rabbit section of an ini file
func ParseOsloSettings(content []byte) (OsloSettings, fail.Error) {
	v := viper.New()
	v.SetConfigType("ini")
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return OsloSettings{}, fail.SyntaxErrorWithCause(err, "cannot parse ini content")
	}

	get := func(key string) (string, fail.Error) {
		full := "oslo_messaging_rabbit." + key
		if !v.IsSet(full) {
			return "", fail.NotFoundError("no %s in [oslo_messaging_rabbit]", key)
		}
		return v.GetString(full), nil
	}

	var (
		out  OsloSettings
		xerr fail.Error
	)
	if out.UserID, xerr = get("rabbit_userid"); xerr != nil {
		return OsloSettings{}, xerr
	}
	if out.Password, xerr = get("rabbit_password"); xerr != nil {
		return OsloSettings{}, xerr
	}
	if out.Hosts, xerr = get("rabbit_hosts"); xerr != nil {
		return OsloSettings{}, xerr
	}
	return out, nil
}

// ReadOsloSettings reads the rabbit credentials from nova.conf on the controller
func ReadOsloSettings(ctx context.Context, r Remote) (OsloSettings, fail.Error) {
	content, xerr := r.ReadFile(ctx, NovaConfig)
	if xerr != nil {
		return OsloSettings{}, xerr
	}
	return ParseOsloSettings(content)
}

// CheckToolOptions tune the configuration of oslo.messaging-check-tool
type CheckToolOptions struct {
	// Topic defaults to DefaultTopic
	Topic string
	// Event prefixes the topic with "event."
	Event bool
	Port  int
	// Hosts replace the rabbit hosts of nova.conf, reached on the direct port
	Hosts []string
}

var checkToolTemplate = template.MustParse("oslo_msg_check.conf", `[DEFAULT]
notif_topic_name = {{ if .Options.Event }}event.{{ end }}{{ .Options.Topic | default "` + DefaultTopic + `" }}
listen_port = {{ .Options.Port }}

[oslo_messaging_rabbit]
rabbit_hosts = {{ if .Options.Hosts }}{{ .Options.Hosts | join .Separator }}:{{ .DirectPort }}{{ else }}{{ .Settings.Hosts | trim }}{{ end }}
rabbit_userid = {{ .Settings.UserID }}
rabbit_password = {{ .Settings.Password }}
`)

// RenderCheckToolConfig returns the content of the configuration file of oslo.messaging-check-tool
func RenderCheckToolConfig(settings OsloSettings, opts CheckToolOptions) (string, fail.Error) {
	if opts.Port <= 0 {
		return "", fail.InvalidParameterError("opts.Port", "must be positive")
	}
	out, xerr := template.Render(checkToolTemplate, map[string]interface{}{
		"Settings":   settings,
		"Options":    opts,
		"DirectPort": directPort,
		"Separator":  fmt.Sprintf(":%d, ", directPort),
	})
	if xerr != nil {
		return "", xerr
	}
	return out, nil
}

// ConfigureCheckTool writes the configuration of oslo.messaging-check-tool on the controller
func ConfigureCheckTool(ctx context.Context, r Remote, opts CheckToolOptions) fail.Error {
	settings, xerr := ReadOsloSettings(ctx, r)
	if xerr != nil {
		return xerr
	}
	content, xerr := RenderCheckToolConfig(settings, opts)
	if xerr != nil {
		return xerr
	}
	return r.WriteFile(ctx, CheckToolConfig, []byte(content), 0644)
}

var numberPattern = regexp.MustCompile(`\d+`)

// ConsumedCount returns the first integer found in the output of oslo_msg_load_consumer
func ConsumedCount(stdout string) (int, fail.Error) {
	found := numberPattern.FindString(stdout)
	if found == "" {
		return 0, fail.SyntaxError("no count in consumer output '%s'", strings.TrimSpace(stdout))
	}
	n, err := strconv.Atoi(found)
	if err != nil {
		return 0, fail.SyntaxErrorWithCause(err, "invalid count '%s'", found)
	}
	return n, nil
}

// GenerateMessages sends 'count' messages, after draining the ones left by previous runs
func GenerateMessages(ctx context.Context, r Runner, count int) fail.Error {
	if _, xerr := ConsumeMessages(ctx, r); xerr != nil {
		return xerr
	}
	_, xerr := r.CheckCall(ctx, fmt.Sprintf("oslo_msg_load_generator --config-file %s --messages_to_send %d --nodebug", CheckToolConfig, count))
	return xerr
}

// ConsumeMessages consumes the pending messages and returns their number
func ConsumeMessages(ctx context.Context, r Runner) (int, fail.Error) {
	res, xerr := r.CheckCall(ctx, "oslo_msg_load_consumer --config-file "+CheckToolConfig+" --nodebug")
	if xerr != nil {
		return 0, xerr
	}
	return ConsumedCount(res.Stdout)
}

// HTTPCode returns the http code answered on http://host:port, 0 if there is no answer
func HTTPCode(ctx context.Context, r Runner, host string, port int) (int, fail.Error) {
	res, xerr := r.Execute(ctx, fmt.Sprintf(`curl --max-time 15 --write-out "%%{http_code}" --silent --output /dev/null "http://%s:%d"`, host, port))
	if xerr != nil {
		return 0, xerr
	}
	return countFrom(res.Stdout), nil
}
