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

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/groups"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/security/rules"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// SecurityGroupSteps contains the steps acting on security groups
type SecurityGroupSteps struct {
	client *gophercloud.ServiceClient
}

// NewSecurityGroupSteps ...
func NewSecurityGroupSteps(client *gophercloud.ServiceClient) *SecurityGroupSteps {
	return &SecurityGroupSteps{client: client}
}

// ingressRules are the rules opening ssh, ping and every tcp and udp port
func ingressRules(groupID string) []rules.CreateOpts {
	rule := func(protocol rules.RuleProtocol, min, max int) rules.CreateOpts {
		return rules.CreateOpts{
			Direction:      rules.DirIngress,
			EtherType:      rules.EtherType4,
			SecGroupID:     groupID,
			Protocol:       protocol,
			PortRangeMin:   min,
			PortRangeMax:   max,
			RemoteIPPrefix: "0.0.0.0/0",
		}
	}
	return []rules.CreateOpts{
		rule(rules.ProtocolTCP, 22, 22),
		rule(rules.ProtocolICMP, 0, 0),
		rule(rules.ProtocolTCP, 1, 65535),
		rule(rules.ProtocolUDP, 1, 65535),
	}
}

// CreateWithRules creates a security group allowing ssh, icmp and all tcp and udp in ingress
func (s *SecurityGroupSteps) CreateWithRules(ctx context.Context, name string) (_ *groups.SecGroup, ferr fail.Error) {
	if name == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("name")
	}

	var group *groups.SecGroup
	xerr := steps.Call(ctx, func() (innerErr error) {
		group, innerErr = groups.Create(s.client, groups.CreateOpts{Name: name, Description: "mos integration tests"}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to create security group '%s'", name)
	}

	defer func() {
		if ferr != nil {
			if derr := s.Delete(context.Background(), group.ID); derr != nil {
				_ = fail.AddConsequence(ferr, derr)
			}
		}
	}()

	for _, opts := range ingressRules(group.ID) {
		opts := opts
		xerr = steps.Call(ctx, func() error {
			_, err := rules.Create(s.client, opts).Extract()
			return err
		})
		if xerr != nil {
			return nil, fail.Wrap(xerr, "failed to add %s rule to security group '%s'", opts.Protocol, name)
		}
	}
	return group, nil
}

// Delete deletes the security group identified by 'id'
func (s *SecurityGroupSteps) Delete(ctx context.Context, id string) fail.Error {
	return steps.Call(ctx, func() error {
		return groups.Delete(s.client, id).ExtractErr()
	})
}
