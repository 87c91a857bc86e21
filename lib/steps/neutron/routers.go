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
	"fmt"

	"github.com/gophercloud/gophercloud/openstack/networking/v2/extensions/layer3/routers"
	"github.com/sirupsen/logrus"

	"github.com/sergeychipiga/mos-integration-tests/lib/steps"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// CreateRouterBetweenNets creates the router router<NN> with its gateway on 'externalNetworkID' and an interface
// on 'subnetID'
func (s *NetworkSteps) CreateRouterBetweenNets(ctx context.Context, externalNetworkID, subnetID string, suffix int) (_ *routers.Router, ferr fail.Error) {
	name := fmt.Sprintf("router%02d", suffix)

	var router *routers.Router
	xerr := steps.Call(ctx, func() (innerErr error) {
		router, innerErr = routers.Create(s.client, routers.CreateOpts{
			Name:        name,
			GatewayInfo: &routers.GatewayInfo{NetworkID: externalNetworkID},
		}).Extract()
		return innerErr
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to create router '%s'", name)
	}

	defer func() {
		if ferr != nil {
			if derr := s.DeleteRouter(context.Background(), router.ID); derr != nil {
				_ = fail.AddConsequence(ferr, derr)
			}
		}
	}()

	xerr = steps.Call(ctx, func() error {
		_, err := routers.AddInterface(s.client, router.ID, routers.AddInterfaceOpts{SubnetID: subnetID}).Extract()
		return err
	})
	if xerr != nil {
		return nil, fail.Wrap(xerr, "failed to add subnet '%s' to router '%s'", subnetID, name)
	}
	logrus.Debugf("router '%s' links subnet '%s' to network '%s'", name, subnetID, externalNetworkID)
	return router, nil
}

// DeleteRouter removes the interfaces on 'subnetIDs' then deletes the router
func (s *NetworkSteps) DeleteRouter(ctx context.Context, id string, subnetIDs ...string) fail.Error {
	for _, subnetID := range subnetIDs {
		xerr := steps.Call(ctx, func() error {
			_, err := routers.RemoveInterface(s.client, id, routers.RemoveInterfaceOpts{SubnetID: subnetID}).Extract()
			return err
		})
		if xerr != nil {
			if _, ok := xerr.(*fail.ErrNotFound); !ok {
				return fail.Wrap(xerr, "failed to remove subnet '%s' from router '%s'", subnetID, id)
			}
		}
	}
	xerr := steps.Call(ctx, func() error {
		return routers.Delete(s.client, id).ExtractErr()
	})
	if xerr != nil {
		if _, ok := xerr.(*fail.ErrNotFound); ok {
			return nil
		}
		return fail.Wrap(xerr, "failed to delete router '%s'", id)
	}
	return nil
}
