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

// Package ovs reads the state of Open vSwitch on the nodes
package ovs

import (
	"context"
	"encoding/csv"
	"regexp"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/system/ssh"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// Bridges whose flows are followed
const (
	IntegrationBridge = "br-int"
	TunnelBridge      = "br-tun"
)

var cookiePattern = regexp.MustCompile(`cookie=[^,]+`)

// Runner runs commands on a node
type Runner interface {
	Execute(ctx context.Context, cmd string) (ssh.Result, fail.Error)
	CheckCall(ctx context.Context, cmd string) (ssh.Result, fail.Error)
}

// Cookies returns the set of flow cookies found in the output of 'ovs-ofctl dump-flows'
func Cookies(dump string) mapset.Set {
	set := mapset.NewThreadUnsafeSet()
	for _, c := range cookiePattern.FindAllString(dump, -1) {
		set.Add(c)
	}
	return set
}

// FlowCookies returns the flow cookies of br-int and br-tun of the node. br-int must exist; br-tun is absent
// on nodes without tunnels and gets an empty set then.
func FlowCookies(ctx context.Context, r Runner) (map[string]mapset.Set, fail.Error) {
	if r == nil {
		return nil, fail.InvalidParameterCannotBeNilError("r")
	}

	out := map[string]mapset.Set{
		IntegrationBridge: mapset.NewThreadUnsafeSet(),
		TunnelBridge:      mapset.NewThreadUnsafeSet(),
	}

	res, xerr := r.CheckCall(ctx, "ovs-ofctl dump-flows "+IntegrationBridge)
	if xerr != nil {
		return nil, xerr
	}
	out[IntegrationBridge] = Cookies(res.Stdout)

	res, xerr = r.Execute(ctx, "ovs-ofctl dump-flows "+TunnelBridge)
	if xerr != nil {
		return nil, xerr
	}
	if res.IsOK() {
		out[TunnelBridge] = Cookies(res.Stdout)
	} else {
		logrus.Debugf("no %s on this node: %s", TunnelBridge, strings.TrimSpace(res.Stderr))
	}
	return out, nil
}

// PortTags parses the output of 'ovs-vsctl show' and returns the tag of every tagged port. The first line
// (the ovs uuid) is skipped.
func PortTags(lines []string) map[string]string {
	tags := map[string]string{}
	if len(lines) == 0 {
		return tags
	}

	var (
		port       string
		inPort     bool
		lastOffset int
	)
	for _, line := range lines[1:] {
		line = strings.TrimRight(line, " \t\r")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		key := strings.ToLower(fields[0])
		val := strings.TrimSpace(strings.TrimPrefix(strings.TrimLeft(line, " \t"), fields[0]))
		offset := len(line) - len(strings.TrimLeft(line, " \t"))

		switch {
		case !inPort:
			if key == "port" {
				port, inPort, lastOffset = strings.Trim(val, `"`), true, offset
			}
		case offset <= lastOffset:
			inPort = false
			if key == "port" {
				port, inPort, lastOffset = strings.Trim(val, `"`), true, offset
			}
		case key == "tag:":
			tags[port] = val
			inPort = false
		}
	}
	return tags
}

// ShowPortTags runs 'ovs-vsctl show' on the node and returns its port tags
func ShowPortTags(ctx context.Context, r Runner) (map[string]string, fail.Error) {
	res, xerr := r.CheckCall(ctx, "ovs-vsctl show")
	if xerr != nil {
		return nil, xerr
	}
	return PortTags(strings.Split(res.Stdout, "\n")), nil
}

const lostPercentageColumn = 12

// LostPercentage returns the percentage of lost datagrams reported by an iperf client run with '-y C'
func LostPercentage(output string) (float64, fail.Error) {
	output = strings.TrimSpace(output)
	logrus.Debugf("iperf result:\n%s", output)

	reader := csv.NewReader(strings.NewReader(output))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return 0, fail.SyntaxErrorWithCause(err, "invalid iperf csv output")
	}
	if len(rows) == 0 {
		return 0, fail.NotFoundError("empty iperf output")
	}
	last := rows[len(rows)-1]
	if len(last) <= lostPercentageColumn {
		return 0, fail.SyntaxError("iperf report has %d columns, no lost percentage", len(last))
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(last[lostPercentageColumn]), 64)
	if err != nil {
		return 0, fail.SyntaxErrorWithCause(err, "invalid lost percentage '%s'", last[lostPercentageColumn])
	}
	return value, nil
}
