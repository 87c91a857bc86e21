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

// Package neutron contains the steps acting on the networking service
package neutron

import (
	"context"
	"fmt"
	"time"

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/external"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/networks"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/ports"
	"github.com/gophercloud/gophercloud/openstack/networking/v2/subnets"
	"github.com/gophercloud/gophercloud/pagination"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/debug/tracing"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	netutils "github.com/sergeychipiga/mos-integration-tests/lib/utils/net"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/temporal"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// NetworkSteps contains the steps acting on networks, subnets, routers, quotas and agents
type NetworkSteps struct {
	client    *gophercloud.ServiceClient
	projectID string
	timings   temporal.Timings
}

// NewNetworkSteps creates the steps on networks; 'projectID' is the project whose quotas are handled
func NewNetworkSteps(client *gophercloud.ServiceClient, projectID string, timings temporal.Timings) *NetworkSteps {
	if timings == nil {
		timings = temporal.NewTimings()
	}
	return &NetworkSteps{client: client, projectID: projectID, timings: timings}
}

func (s *NetworkSteps) poll() wait.Option {
	return wait.Sleep(s.timings.SmallDelay())
}

// CreateNetwork creates a network named 'name'; if 'check' is set, waits for it to be visible
func (s *NetworkSteps) CreateNetwork(ctx context.Context, name string, check bool) (_ *networks.Network, ferr fail.Error) {
	if name == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("name")
	}

	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("steps.neutron"), "(%s)", name).WithStopwatch().Entering()
	defer tracer.Exiting()
	defer fail.OnExitLogError(&ferr, tracer.TraceMessage())

	var network *networks.Network
	xerr := steps.Call(ctx, func() (innerErr error) {
		network, innerErr = networks.Create(s.client, networks.CreateOpts{
			Name:         name,
			AdminStateUp: gophercloud.Enabled,
		}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to create network '%s'", name)
	}
	logrus.Debugf("network '%s' created with id '%s'", name, network.ID)

	if check {
		if xerr = s.CheckNetworkPresence(ctx, network.ID, true, s.timings.OperationTimeout()); xerr != nil {
			return nil, xerr
		}
	}
	return network, nil
}

// DeleteNetwork deletes the network identified by 'id'; if 'check' is set, waits for it to disappear
func (s *NetworkSteps) DeleteNetwork(ctx context.Context, id string, check bool) (ferr fail.Error) {
	tracer := debug.NewTracer(ctx, tracing.ShouldTrace("steps.neutron"), "(%s)", id).WithStopwatch().Entering()
	defer tracer.Exiting()
	defer fail.OnExitLogError(&ferr, tracer.TraceMessage())

	xerr := steps.Call(ctx, func() error {
		return networks.Delete(s.client, id).ExtractErr()
	})
	if xerr != nil {
		return fail.Wrap(xerr, "failed to delete network '%s'", id)
	}
	if check {
		return s.CheckNetworkPresence(ctx, id, false, s.timings.OperationTimeout())
	}
	return nil
}

// GetNetwork returns the network identified by 'id'
func (s *NetworkSteps) GetNetwork(ctx context.Context, id string) (*networks.Network, fail.Error) {
	var network *networks.Network
	xerr := steps.Call(ctx, func() (innerErr error) {
		network, innerErr = networks.Get(s.client, id).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, xerr
	}
	return network, nil
}

// CheckNetworkPresence checks the network is present or absent, waiting up to 'timeout'
func (s *NetworkSteps) CheckNetworkPresence(ctx context.Context, id string, present bool, timeout time.Duration) fail.Error {
	get := func() fail.Error {
		_, xerr := s.GetNetwork(ctx, id)
		return xerr
	}
	return fail.ConvertError(steps.CheckPresence(ctx, fmt.Sprintf("network '%s'", id), get, present, timeout, s.poll()))
}

func (s *NetworkSteps) listNetworks(ctx context.Context, opts networks.ListOptsBuilder) ([]networks.Network, fail.Error) {
	var out []networks.Network
	xerr := steps.Call(ctx, func() error {
		out = nil
		return networks.List(s.client, opts).EachPage(func(page pagination.Page) (bool, error) {
			list, err := networks.ExtractNetworks(page)
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

// Find returns the network named 'name'; *fail.ErrNotFound if there is none
func (s *NetworkSteps) Find(ctx context.Context, name string) (*networks.Network, fail.Error) {
	list, xerr := s.listNetworks(ctx, networks.ListOpts{Name: name})
	if xerr != nil {
		return nil, xerr
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i], nil
		}
	}
	return nil, fail.NotFoundError("network '%s' is absent", name)
}

// ExternalNetwork returns the first network flagged router:external
func (s *NetworkSteps) ExternalNetwork(ctx context.Context) (*networks.Network, fail.Error) {
	list, xerr := s.listNetworks(ctx, external.ListOptsExt{
		ListOptsBuilder: networks.ListOpts{},
		External:        gophercloud.Enabled,
	})
	if xerr != nil {
		return nil, xerr
	}
	if len(list) == 0 {
		return nil, fail.NotFoundError("no external network")
	}
	return &list[0], nil
}

// CreateSubnet creates an IPv4 subnet 'cidr' in the network 'networkID'
func (s *NetworkSteps) CreateSubnet(ctx context.Context, networkID, name, cidr string) (*subnets.Subnet, fail.Error) {
	var subnet *subnets.Subnet
	xerr := steps.Call(ctx, func() (innerErr error) {
		subnet, innerErr = subnets.Create(s.client, subnets.CreateOpts{
			NetworkID:      networkID,
			Name:           name,
			CIDR:           cidr,
			IPVersion:      gophercloud.IPv4,
			DNSNameservers: []string{"8.8.8.8"},
		}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to create subnet '%s'", name)
	}
	return subnet, nil
}

// internalRange holds the subnets of the internal networks, one /24 per suffix
const internalRange = "192.168.0.0/16"

// CreateInternalNetworkWithSubnet creates the network net<NN> with the subnet 192.168.<N>.0/24
func (s *NetworkSteps) CreateInternalNetworkWithSubnet(ctx context.Context, suffix int) (_ *networks.Network, _ *subnets.Subnet, ferr fail.Error) {
	if suffix < 0 {
		return nil, nil, fail.InvalidParameterError("suffix", "cannot be negative")
	}
	cidr, xerr := netutils.NthIncludedCIDR(internalRange, 8, uint(suffix))
	if xerr != nil {
		return nil, nil, fail.InvalidParameterError("suffix", "must be in 0..255")
	}

	name := fmt.Sprintf("net%02d", suffix)
	network, xerr := s.CreateNetwork(ctx, name, true)
	if xerr != nil {
		return nil, nil, xerr
	}
	defer func() {
		if ferr != nil {
			if derr := s.DeleteNetwork(context.Background(), network.ID, false); derr != nil {
				_ = fail.AddConsequence(ferr, derr)
			}
		}
	}()

	subnet, xerr := s.CreateSubnet(ctx, network.ID, name+"__subnet", cidr)
	if xerr != nil {
		return nil, nil, xerr
	}
	return network, subnet, nil
}

// NetworkByMAC returns the id of the network holding the port with mac address 'mac'
func (s *NetworkSteps) NetworkByMAC(ctx context.Context, mac string) (string, fail.Error) {
	var found []ports.Port
	xerr := steps.Call(ctx, func() error {
		found = nil
		return ports.List(s.client, ports.ListOpts{MACAddress: mac}).EachPage(func(page pagination.Page) (bool, error) {
			list, err := ports.ExtractPorts(page)
			if err != nil {
				return false, err
			}
			found = append(found, list...)
			return true, nil
		})
	})
	if xerr != nil {
		return "", xerr
	}
	if len(found) == 0 {
		return "", fail.NotFoundError("no port with mac address %s", mac)
	}
	return found[0].NetworkID, nil
}
