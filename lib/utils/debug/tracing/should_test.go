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

package tracing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShouldTrace(t *testing.T) {
	t.Setenv("MOS_TRACE", "steps.nova, ssh, !rabbitmq, wait.poll")
	loadSettings()

	require.True(t, ShouldTrace("steps.nova"))
	require.False(t, ShouldTrace("steps.glance"))
	require.True(t, ShouldTrace("ssh"))
	require.True(t, ShouldTrace("ssh.remote"))
	require.False(t, ShouldTrace("rabbitmq"))
	require.True(t, ShouldTrace("wait.poll"))
	require.False(t, ShouldTrace("wait"))
	require.False(t, ShouldTrace(""))
}
