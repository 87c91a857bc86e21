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

	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/openstack/compute/v2/extensions/keypairs"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// KeypairSteps contains the steps acting on keypairs
type KeypairSteps struct {
	client *gophercloud.ServiceClient
}

// NewKeypairSteps ...
func NewKeypairSteps(client *gophercloud.ServiceClient) *KeypairSteps {
	return &KeypairSteps{client: client}
}

// Create creates a keypair generated by nova; the private key is only available in the returned value
func (s *KeypairSteps) Create(ctx context.Context, name string) (*keypairs.KeyPair, fail.Error) {
	if name == "" {
		return nil, fail.InvalidParameterCannotBeEmptyStringError("name")
	}
	var kp *keypairs.KeyPair
	xerr := steps.Call(ctx, func() (innerErr error) {
		kp, innerErr = keypairs.Create(s.client, keypairs.CreateOpts{Name: name}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, xerr
	}
	if kp.PrivateKey == "" {
		return nil, fail.InconsistentError("keypair '%s' created without private key", name)
	}
	return kp, nil
}

// Delete deletes the keypair named 'name'
func (s *KeypairSteps) Delete(ctx context.Context, name string) fail.Error {
	return steps.Call(ctx, func() error {
		return keypairs.Delete(s.client, name, nil).ExtractErr()
	})
}
