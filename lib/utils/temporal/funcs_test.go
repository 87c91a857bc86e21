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

package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_MinTimeout(t *testing.T) {
	require.EqualValues(t, 42*time.Millisecond, MinTimeout(42*time.Millisecond, 6*time.Second))
	require.EqualValues(t, 21*time.Millisecond, MinTimeout(18*time.Second, 21*time.Millisecond))
}

func Test_getFromEnv(t *testing.T) {
	result := getFromEnv(1 * time.Second)
	require.EqualValues(t, result, 1*time.Second)

	t.Setenv("d_test_bad", "not a duration")
	result = getFromEnv(2*time.Second, "d_test_bad")
	require.EqualValues(t, result, 2*time.Second)

	t.Setenv("d_test", "4s")
	result = getFromEnv(3*time.Second, "d_test_bad", "d_test")
	require.EqualValues(t, result, 4*time.Second)
}
