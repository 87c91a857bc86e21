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

package nova

import (
	"context"
	"time"

	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/floatingips"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/system/ssh"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/wait"
)

// Types of addresses
const (
	IPFixed    = "fixed"
	IPFloating = "floating"
)

// IP is an address of a server
type IP struct {
	Address string
	MAC     string
	Type    string
	Network string
}

// GetIPs returns the addresses of the server indexed by address, only those of type 'ipType' if not empty
func GetIPs(server *Server, ipType string) map[string]IP {
	out := map[string]IP{}
	if server == nil {
		return out
	}
	for network, content := range server.Addresses {
		entries, ok := content.([]interface{})
		if !ok {
			continue
		}
		for _, e := range entries {
			entry, ok := e.(map[string]interface{})
			if !ok {
				continue
			}
			ip := IP{Network: network}
			ip.Address, _ = entry["addr"].(string)
			ip.Type, _ = entry["OS-EXT-IPS:type"].(string)
			ip.MAC, _ = entry["OS-EXT-IPS-MAC:mac_addr"].(string)
			if ip.Address == "" || (ipType != "" && ip.Type != ipType) {
				continue
			}
			out[ip.Address] = ip
		}
	}
	return out
}

// firstIP returns one of the addresses of type 'ipType' of the server
func firstIP(server *Server, ipType string) (string, fail.Error) {
	for addr := range GetIPs(server, ipType) {
		return addr, nil
	}
	return "", fail.NotFoundError("server '%s' has no %s address", server.ID, ipType)
}

// CreateFloatingIP allocates a floating IP from 'pool'
func (s *ServerSteps) CreateFloatingIP(ctx context.Context, pool string) (*floatingips.FloatingIP, fail.Error) {
	var fip *floatingips.FloatingIP
	xerr := steps.Call(ctx, func() (innerErr error) {
		fip, innerErr = floatingips.Create(s.client, floatingips.CreateOpts{Pool: pool}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, xerr
	}
	return fip, nil
}

// DeleteFloatingIP releases the floating IP identified by 'id'
func (s *ServerSteps) DeleteFloatingIP(ctx context.Context, id string) fail.Error {
	return steps.Call(ctx, func() error {
		return floatingips.Delete(s.client, id).ExtractErr()
	})
}

// AttachFloatingIP associates the floating address 'ip' to the server; if 'check' is set, waits for the
// address to be reported by the server
func (s *ServerSteps) AttachFloatingIP(ctx context.Context, serverID, ip string, check bool) fail.Error {
	xerr := steps.Call(ctx, func() error {
		return floatingips.AssociateInstance(s.client, serverID, floatingips.AssociateOpts{FloatingIP: ip}).ExtractErr()
	})
	if xerr != nil {
		return xerr
	}
	if check {
		return s.checkFloatingIP(ctx, serverID, ip, true)
	}
	return nil
}

// DetachFloatingIP disassociates the floating address 'ip' from the server
func (s *ServerSteps) DetachFloatingIP(ctx context.Context, serverID, ip string, check bool) fail.Error {
	xerr := steps.Call(ctx, func() error {
		return floatingips.DisassociateInstance(s.client, serverID, floatingips.DisassociateOpts{FloatingIP: ip}).ExtractErr()
	})
	if xerr != nil {
		return xerr
	}
	if check {
		return s.checkFloatingIP(ctx, serverID, ip, false)
	}
	return nil
}

func (s *ServerSteps) checkFloatingIP(ctx context.Context, serverID, ip string, attached bool) fail.Error {
	err := wait.For(ctx,
		func() (bool, error) {
			server, xerr := s.GetServer(ctx, serverID)
			if xerr != nil {
				return false, xerr
			}
			_, ok := GetIPs(server, IPFloating)[ip]
			return ok == attached, nil
		},
		wait.Timeout(s.timings.OperationTimeout()),
		wait.WaitingFor("floating ip %s to be updated on server '%s'", ip, serverID),
		wait.Tolerate(wait.Kind[*fail.ErrNotAvailable]()),
		s.poll(),
	)
	return fail.ConvertError(err)
}

// CheckSSHConnect waits for the server to accept ssh connections authenticated with the private key
// of 'keypair'. If 'ip' is empty, the first floating address of the server is used.
func (s *ServerSteps) CheckSSHConnect(ctx context.Context, server *Server, keypair *keypairs.KeyPair, user, ip string, timeout time.Duration) fail.Error {
	if server == nil {
		return fail.InvalidParameterCannotBeNilError("server")
	}
	if keypair == nil {
		return fail.InvalidParameterCannotBeNilError("keypair")
	}
	if ip == "" {
		var xerr fail.Error
		ip, xerr = firstIP(server, IPFloating)
		if xerr != nil {
			return xerr
		}
	}
	if user == "" {
		user = "cirros"
	}

	cfg := ssh.Config{
		User:       user,
		Host:       ip,
		Port:       22,
		PrivateKey: keypair.PrivateKey,
		Timeout:    s.timings.SSHConnectionTimeout(),
	}
	return ssh.WaitReady(ctx, cfg, timeout, wait.Sleep(s.timings.NormalDelay()))
}
