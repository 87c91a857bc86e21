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
	"time"
)

const (
	// defaultOperationTimeout is the default timeout of a single API operation
	defaultOperationTimeout = 2 * time.Minute

	// defaultCommunicationTimeout is the default timeout for HTTP communication with OpenStack endpoints
	defaultCommunicationTimeout = 3 * time.Minute

	// defaultWaitTimeout is the timeout used by a wait without explicit timeout
	defaultWaitTimeout = 5 * time.Minute

	// defaultServerBootTimeout is the time given to a server to become ACTIVE
	defaultServerBootTimeout = 5 * time.Minute

	// defaultServerDeleteTimeout is the time given to a server to disappear
	defaultServerDeleteTimeout = 3 * time.Minute

	// defaultImageActiveTimeout is the time given to an image to become active after upload
	defaultImageActiveTimeout = 3 * time.Minute

	// defaultVolumeTimeout is the time given to a volume to change status
	defaultVolumeTimeout = 3 * time.Minute

	// defaultMigrationTimeout is the time given to servers to migrate
	defaultMigrationTimeout = 5 * time.Minute

	// defaultServicesReadyTimeout is the time given to OpenStack services to be up after a restart
	defaultServicesReadyTimeout = 5 * time.Minute

	// defaultSSHConnectionTimeout is the timeout of a single SSH dial
	defaultSSHConnectionTimeout = 30 * time.Second

	// defaultSSHReadyTimeout is the time given to a server to accept SSH connections
	defaultSSHReadyTimeout = 5 * time.Minute

	// defaultExecutionTimeout is the default timeout of a remote command
	defaultExecutionTimeout = 6 * time.Minute

	// defaultRabbitNodesTimeout is the time given to the RabbitMQ cluster to reach the expected number of nodes
	defaultRabbitNodesTimeout = 5 * time.Minute

	// defaultSmallDelay is the predefined small delay
	defaultSmallDelay = 1 * time.Second

	// defaultNormalDelay is the default delay
	defaultNormalDelay = 5 * time.Second

	// defaultBigDelay is a big delay
	defaultBigDelay = 30 * time.Second
)

// OperationTimeout returns the configured timeout for operation (optionally overloaded from ENV)
func OperationTimeout() time.Duration {
	return getFromEnv(defaultOperationTimeout, "MOS_OPERATION_TIMEOUT")
}

// CommunicationTimeout returns the configured timeout for communication (optionally overloaded from ENV)
func CommunicationTimeout() time.Duration {
	return getFromEnv(defaultCommunicationTimeout, "MOS_COMMUNICATION_TIMEOUT")
}

// WaitTimeout returns the timeout used by default when waiting for a condition
func WaitTimeout() time.Duration {
	return getFromEnv(defaultWaitTimeout, "MOS_WAIT_TIMEOUT")
}

// ServerBootTimeout ...
func ServerBootTimeout() time.Duration {
	return getFromEnv(defaultServerBootTimeout, "MOS_SERVER_BOOT_TIMEOUT")
}

// ServerDeleteTimeout ...
func ServerDeleteTimeout() time.Duration {
	return getFromEnv(defaultServerDeleteTimeout, "MOS_SERVER_DELETE_TIMEOUT")
}

// ImageActiveTimeout ...
func ImageActiveTimeout() time.Duration {
	return getFromEnv(defaultImageActiveTimeout, "MOS_IMAGE_ACTIVE_TIMEOUT")
}

// VolumeTimeout ...
func VolumeTimeout() time.Duration {
	return getFromEnv(defaultVolumeTimeout, "MOS_VOLUME_TIMEOUT")
}

// MigrationTimeout ...
func MigrationTimeout() time.Duration {
	return getFromEnv(defaultMigrationTimeout, "MOS_MIGRATION_TIMEOUT")
}

// ServicesReadyTimeout ...
func ServicesReadyTimeout() time.Duration {
	return getFromEnv(defaultServicesReadyTimeout, "MOS_SERVICES_READY_TIMEOUT")
}

// SSHConnectionTimeout ...
func SSHConnectionTimeout() time.Duration {
	return getFromEnv(defaultSSHConnectionTimeout, "MOS_SSH_CONNECT_TIMEOUT")
}

// SSHReadyTimeout ...
func SSHReadyTimeout() time.Duration {
	return getFromEnv(defaultSSHReadyTimeout, "MOS_SSH_READY_TIMEOUT")
}

// ExecutionTimeout ...
func ExecutionTimeout() time.Duration {
	return getFromEnv(defaultExecutionTimeout, "MOS_EXECUTION_TIMEOUT")
}

// RabbitNodesTimeout ...
func RabbitNodesTimeout() time.Duration {
	return getFromEnv(defaultRabbitNodesTimeout, "MOS_RABBIT_NODES_TIMEOUT")
}

// SmallDelay returns the duration for a small delay
func SmallDelay() time.Duration {
	return getFromEnv(defaultSmallDelay, "MOS_SMALL_DELAY", "MOS_MIN_DELAY")
}

// NormalDelay returns the duration for a normal delay
func NormalDelay() time.Duration {
	return getFromEnv(defaultNormalDelay, "MOS_NORMAL_DELAY", "MOS_DEFAULT_DELAY")
}

// BigDelay returns the duration for a big delay
func BigDelay() time.Duration {
	return getFromEnv(defaultBigDelay, "MOS_BIG_DELAY")
}
