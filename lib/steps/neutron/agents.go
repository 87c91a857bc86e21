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

package neutron

import (
	"context"
	"strings"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/agents"
	"github.com/gophercloud/gophercloud/pagination"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// ListAgents returns the neutron agents running 'binary' (all of them if empty)
func (s *NetworkSteps) ListAgents(ctx context.Context, binary string) ([]agents.Agent, fail.Error) {
	var out []agents.Agent
	xerr := steps.Call(ctx, func() error {
		out = nil
		return agents.List(s.client, agents.ListOpts{Binary: binary}).EachPage(func(page pagination.Page) (bool, error) {
			list, err := agents.ExtractAgents(page)
			if err != nil {
				return false, err
			}
			out = append(out, list...)
			return true, nil
		})
	})
	if xerr != nil {
		return nil, xerr
	}
	return out, nil
}

// DHCPHostsByNetwork returns the hosts of the DHCP agents serving the network 'networkID' whose liveness is 'alive'
func (s *NetworkSteps) DHCPHostsByNetwork(ctx context.Context, networkID string, alive bool) ([]string, fail.Error) {
	var body struct {
		Agents []agents.Agent `json:"agents"`
	}
	xerr := steps.Call(ctx, func() error {
		_, err := s.client.Get(s.client.ServiceURL("networks", networkID, "dhcp-agents"), &body, &gophercloud.RequestOpts{
			OkCodes: []int{200},
		})
		return err
	})
	if xerr != nil {
		return nil, xerr
	}

	var hosts []string
	for _, a := range body.Agents {
		if a.Alive == alive {
			hosts = append(hosts, a.Host)
		}
	}
	if len(hosts) == 0 {
		return nil, fail.NotFoundError("no DHCP agent with alive=%t for network '%s'", alive, networkID)
	}
	return hosts, nil
}

// deadAgents returns the agents not alive, as binary@host
func deadAgents(list []agents.Agent) []string {
	var dead []string
	for _, a := range list {
		if !a.Alive {
			dead = append(dead, a.Binary+"@"+a.Host)
		}
	}
	return dead
}

// CheckAgentsAlive waits for all the agents running 'binary' to be alive
func (s *NetworkSteps) CheckAgentsAlive(ctx context.Context, binary string, timeout time.Duration) fail.Error {
	var last []string
	err := wait.For(ctx,
		func() (bool, error) {
			list, xerr := s.ListAgents(ctx, binary)
			if xerr != nil {
				return false, xerr
			}
			if len(list) == 0 {
				return false, fail.NotFoundError("no neutron agent '%s'", binary)
			}
			last = deadAgents(list)
			return len(last) == 0, nil
		},
		wait.Timeout(timeout),
		wait.WaitingFor("neutron agents %s to be alive", binary),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		wait.Sleep(s.timings.NormalDelay()),
	)
	if err != nil {
		xerr := fail.ConvertError(err)
		if len(last) > 0 {
			xerr.Annotate("dead", strings.Join(last, ","))
		}
		return xerr
	}
	return nil
}
