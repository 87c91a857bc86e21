/*
 * Copyright 2018-2022, CS Systemes d'Information, http://csgroup.eu
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

package net

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

func TestIPv4Conversions(t *testing.T) {
	assert.EqualValues(t, 3232235777, IPv4ToUInt32(net.ParseIP("192.168.1.1")))
	assert.True(t, UInt32ToIPv4(167772161).Equal(net.IPv4(10, 0, 0, 1)))
}

func TestNthIncludedSubnet(t *testing.T) {
	base := net.IPNet{
		IP:   net.IPv4(127, 0, 0, 1),
		Mask: net.IPv4Mask(255, 255, 255, 0),
	}

	first, xerr := NthIncludedSubnet(base, 2, 0)
	require.Nil(t, xerr)
	ones, bits := first.Mask.Size()
	assert.Equal(t, 26, ones)
	assert.Equal(t, 32, bits)
	assert.Equal(t, "127.0.0.0/26", first.String())

	_, xerr = NthIncludedSubnet(base, 0, 0)
	assert.IsType(t, &fail.ErrOverflow{}, xerr)
	_, xerr = NthIncludedSubnet(base, 33, 0)
	assert.IsType(t, &fail.ErrOverflow{}, xerr)
	_, xerr = NthIncludedSubnet(base, 2, 4)
	assert.IsType(t, &fail.ErrOverflow{}, xerr)

	_, xerr = NthIncludedSubnet(net.IPNet{IP: net.ParseIP("fd00::"), Mask: net.CIDRMask(64, 128)}, 8, 1)
	assert.IsType(t, &fail.ErrInvalidParameter{}, xerr)
}

func TestNthIncludedCIDR(t *testing.T) {
	cidr, xerr := NthIncludedCIDR("192.168.0.0/16", 8, 4)
	require.Nil(t, xerr)
	assert.Equal(t, "192.168.4.0/24", cidr)

	cidr, xerr = NthIncludedCIDR("192.168.0.0/16", 8, 255)
	require.Nil(t, xerr)
	assert.Equal(t, "192.168.255.0/24", cidr)

	_, xerr = NthIncludedCIDR("192.168.0.0/16", 8, 256)
	assert.IsType(t, &fail.ErrOverflow{}, xerr)
	_, xerr = NthIncludedCIDR("not a cidr", 8, 1)
	assert.IsType(t, &fail.ErrSyntax{}, xerr)
}
