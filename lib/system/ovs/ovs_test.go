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

package ovs

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/system/ssh"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

const vsctlShow = `a4a6e1a8-91f1-4f5c-8d7a-b3c2d6b0e1f2
    Bridge br-int
        fail_mode: secure
        Port "qvo1d2c3b4a-5e"
            tag: 1
            Interface "qvo1d2c3b4a-5e"
        Port patch-tun
            Interface patch-tun
                type: patch
                options: {peer=patch-int}
        Port "qr-9f8e7d6c-5b"
            tag: 2
            Interface "qr-9f8e7d6c-5b"
                type: internal
        Port br-int
            Interface br-int
                type: internal
    ovs_version: "2.4.0"
`

const dumpFlows = `NXST_FLOW reply (xid=0x4):
 cookie=0x9c53f1d8a1b2c3d4, duration=52.1s, table=0, n_packets=0, priority=10,arp,in_port=3 actions=resubmit(,24)
 cookie=0x9c53f1d8a1b2c3d4, duration=52.1s, table=0, n_packets=8, priority=0 actions=NORMAL
 cookie=0x1111, duration=52.1s, table=23, n_packets=0, priority=0 actions=drop
`

type fakeNode struct {
	outputs map[string]ssh.Result
}

func (f fakeNode) Execute(_ context.Context, cmd string) (ssh.Result, fail.Error) {
	res, ok := f.outputs[cmd]
	if !ok {
		return ssh.Result{RetCode: 1, Stderr: "ovs-ofctl: br-tun is not a bridge or a socket"}, nil
	}
	return res, nil
}

func (f fakeNode) CheckCall(ctx context.Context, cmd string) (ssh.Result, fail.Error) {
	res, _ := f.Execute(ctx, cmd)
	if !res.IsOK() {
		return res, fail.ExecutionError(nil, "command failed")
	}
	return res, nil
}

func TestPortTags(t *testing.T) {
	tags := PortTags(strings.Split(vsctlShow, "\n"))
	assert.Equal(t, map[string]string{"qvo1d2c3b4a-5e": "1", "qr-9f8e7d6c-5b": "2"}, tags)
	assert.Empty(t, PortTags(nil))

	tags, xerr := ShowPortTags(context.Background(), fakeNode{outputs: map[string]ssh.Result{"ovs-vsctl show": {Stdout: vsctlShow}}})
	require.Nil(t, xerr)
	assert.Len(t, tags, 2)
}

func TestFlowCookies(t *testing.T) {
	node := fakeNode{outputs: map[string]ssh.Result{"ovs-ofctl dump-flows br-int": {Stdout: dumpFlows}}}
	cookies, xerr := FlowCookies(context.Background(), node)
	require.Nil(t, xerr)
	assert.Equal(t, 2, cookies[IntegrationBridge].Cardinality())
	assert.True(t, cookies[IntegrationBridge].Contains("cookie=0x1111"))
	assert.Equal(t, 0, cookies[TunnelBridge].Cardinality())

	node.outputs["ovs-ofctl dump-flows br-tun"] = ssh.Result{Stdout: dumpFlows}
	after, xerr := FlowCookies(context.Background(), node)
	require.Nil(t, xerr)
	assert.True(t, cookies[IntegrationBridge].Equal(after[IntegrationBridge]))
	assert.Equal(t, 2, after[TunnelBridge].Cardinality())

	_, xerr = FlowCookies(context.Background(), fakeNode{})
	assert.IsType(t, &fail.ErrExecution{}, xerr)
}

func TestLostPercentage(t *testing.T) {
	output := `20160318114432,10.0.0.4,34261,10.0.0.3,5002,3,0.0-10.0,1311240,1048992,0.010,0,17832,0.000,0
20160318114442,10.0.0.4,34261,10.0.0.3,5002,3,0.0-60.0,7867440,1048889,0.012,53,106998,0.050,0
`
	lost, xerr := LostPercentage(output)
	require.Nil(t, xerr)
	assert.InDelta(t, 0.05, lost, 1e-9)

	_, xerr = LostPercentage("")
	assert.IsType(t, &fail.ErrNotFound{}, xerr)
	_, xerr = LostPercentage("a,b,c")
	assert.IsType(t, &fail.ErrSyntax{}, xerr)
}
