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

	"github.com/pelletier/go-toml/v2"

	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// Timings exposes the timeouts and delays used by the steps
type Timings interface {
	// OperationTimeout ...
	OperationTimeout() time.Duration
	// CommunicationTimeout ...
	CommunicationTimeout() time.Duration
	// ServerBootTimeout ...
	ServerBootTimeout() time.Duration
	// ServerDeleteTimeout ...
	ServerDeleteTimeout() time.Duration
	// ImageActiveTimeout ...
	ImageActiveTimeout() time.Duration
	// VolumeTimeout ...
	VolumeTimeout() time.Duration
	// MigrationTimeout ...
	MigrationTimeout() time.Duration
	// ServicesReadyTimeout ...
	ServicesReadyTimeout() time.Duration
	// SSHConnectionTimeout ...
	SSHConnectionTimeout() time.Duration
	// SSHReadyTimeout ...
	SSHReadyTimeout() time.Duration
	// ExecutionTimeout ...
	ExecutionTimeout() time.Duration
	// RabbitNodesTimeout ...
	RabbitNodesTimeout() time.Duration

	// SmallDelay ...
	SmallDelay() time.Duration
	// NormalDelay returns the currently configure normal delay stored in Timings
	NormalDelay() time.Duration
	// BigDelay returns the currently configured big delay stored in Timings
	BigDelay() time.Duration
}

type Timeouts struct {
	Operation     time.Duration `json:"timeout_operation,omitempty" toml:"operation" mapstructure:"operation"`
	Communication time.Duration `json:"timeout_communication,omitempty" toml:"communication" mapstructure:"communication"`
	ServerBoot    time.Duration `json:"timeout_server_boot,omitempty" toml:"serverboot" mapstructure:"serverboot"`
	ServerDelete  time.Duration `json:"timeout_server_delete,omitempty" toml:"serverdelete" mapstructure:"serverdelete"`
	ImageActive   time.Duration `json:"timeout_image_active,omitempty" toml:"imageactive" mapstructure:"imageactive"`
	Volume        time.Duration `json:"timeout_volume,omitempty" toml:"volume" mapstructure:"volume"`
	Migration     time.Duration `json:"timeout_migration,omitempty" toml:"migration" mapstructure:"migration"`
	ServicesReady time.Duration `json:"timeout_services_ready,omitempty" toml:"servicesready" mapstructure:"servicesready"`
	SSHConnection time.Duration `json:"timeout_ssh_connection,omitempty" toml:"sshconnection" mapstructure:"sshconnection"`
	SSHReady      time.Duration `json:"timeout_ssh_ready,omitempty" toml:"sshready" mapstructure:"sshready"`
	Execution     time.Duration `json:"timeout_execution,omitempty" toml:"execution" mapstructure:"execution"`
	RabbitNodes   time.Duration `json:"timeout_rabbit_nodes,omitempty" toml:"rabbitnodes" mapstructure:"rabbitnodes"`
}

type Delays struct {
	Small  time.Duration `json:"delay_small,omitempty" toml:"small" mapstructure:"small"`
	Normal time.Duration `json:"delay_normal,omitempty" toml:"normal" mapstructure:"normal"`
	Big    time.Duration `json:"delay_big,omitempty" toml:"big" mapstructure:"big"`
}

type MutableTimings struct {
	Timeouts `json:"timeouts" toml:"timeouts" mapstructure:"timeouts"`
	Delays   `json:"delays" toml:"delays" mapstructure:"delays"`
}

// NewTimings creates a new instance of MutableTimings with default values
func NewTimings() *MutableTimings {
	return &MutableTimings{
		Timeouts: Timeouts{
			Operation:     OperationTimeout(),
			Communication: CommunicationTimeout(),
			ServerBoot:    ServerBootTimeout(),
			ServerDelete:  ServerDeleteTimeout(),
			ImageActive:   ImageActiveTimeout(),
			Volume:        VolumeTimeout(),
			Migration:     MigrationTimeout(),
			ServicesReady: ServicesReadyTimeout(),
			SSHConnection: SSHConnectionTimeout(),
			SSHReady:      SSHReadyTimeout(),
			Execution:     ExecutionTimeout(),
			RabbitNodes:   RabbitNodesTimeout(),
		},
		Delays: Delays{
			Small:  SmallDelay(),
			Normal: NormalDelay(),
			Big:    BigDelay(),
		},
	}
}

// Update fills the zero values of 't' with the values of 'a'
func (t *MutableTimings) Update(a *MutableTimings) error {
	if t == nil {
		return fail.InvalidInstanceError()
	}
	if a == nil {
		return nil
	}

	merge := func(dst *time.Duration, src time.Duration) {
		if *dst == 0 && src != 0 {
			*dst = src
		}
	}
	merge(&t.Operation, a.Operation)
	merge(&t.Communication, a.Communication)
	merge(&t.ServerBoot, a.ServerBoot)
	merge(&t.ServerDelete, a.ServerDelete)
	merge(&t.ImageActive, a.ImageActive)
	merge(&t.Volume, a.Volume)
	merge(&t.Migration, a.Migration)
	merge(&t.ServicesReady, a.ServicesReady)
	merge(&t.SSHConnection, a.SSHConnection)
	merge(&t.SSHReady, a.SSHReady)
	merge(&t.Execution, a.Execution)
	merge(&t.RabbitNodes, a.RabbitNodes)
	merge(&t.Small, a.Small)
	merge(&t.Normal, a.Normal)
	merge(&t.Big, a.Big)
	return nil
}

// ToToml returns a toml representation of the timings
func (t MutableTimings) ToToml() (string, error) {
	barr, err := toml.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(barr), nil
}

// OperationTimeout returns the configured timeout for operation
func (t *MutableTimings) OperationTimeout() time.Duration {
	if t == nil {
		return OperationTimeout()
	}
	return t.Timeouts.Operation
}

// CommunicationTimeout returns the configured timeout for communication
func (t *MutableTimings) CommunicationTimeout() time.Duration {
	if t == nil {
		return CommunicationTimeout()
	}
	return t.Timeouts.Communication
}

// ServerBootTimeout ...
func (t *MutableTimings) ServerBootTimeout() time.Duration {
	if t == nil {
		return ServerBootTimeout()
	}
	return t.Timeouts.ServerBoot
}

// ServerDeleteTimeout ...
func (t *MutableTimings) ServerDeleteTimeout() time.Duration {
	if t == nil {
		return ServerDeleteTimeout()
	}
	return t.Timeouts.ServerDelete
}

// ImageActiveTimeout ...
func (t *MutableTimings) ImageActiveTimeout() time.Duration {
	if t == nil {
		return ImageActiveTimeout()
	}
	return t.Timeouts.ImageActive
}

// VolumeTimeout ...
func (t *MutableTimings) VolumeTimeout() time.Duration {
	if t == nil {
		return VolumeTimeout()
	}
	return t.Timeouts.Volume
}

// MigrationTimeout ...
func (t *MutableTimings) MigrationTimeout() time.Duration {
	if t == nil {
		return MigrationTimeout()
	}
	return t.Timeouts.Migration
}

// ServicesReadyTimeout ...
func (t *MutableTimings) ServicesReadyTimeout() time.Duration {
	if t == nil {
		return ServicesReadyTimeout()
	}
	return t.Timeouts.ServicesReady
}

// SSHConnectionTimeout ...
func (t *MutableTimings) SSHConnectionTimeout() time.Duration {
	if t == nil {
		return SSHConnectionTimeout()
	}
	return t.Timeouts.SSHConnection
}

// SSHReadyTimeout ...
func (t *MutableTimings) SSHReadyTimeout() time.Duration {
	if t == nil {
		return SSHReadyTimeout()
	}
	return t.Timeouts.SSHReady
}

// ExecutionTimeout ...
func (t *MutableTimings) ExecutionTimeout() time.Duration {
	if t == nil {
		return ExecutionTimeout()
	}
	return t.Timeouts.Execution
}

// RabbitNodesTimeout ...
func (t *MutableTimings) RabbitNodesTimeout() time.Duration {
	if t == nil {
		return RabbitNodesTimeout()
	}
	return t.Timeouts.RabbitNodes
}

// SmallDelay returns the duration for a small delay
func (t *MutableTimings) SmallDelay() time.Duration {
	if t == nil {
		return SmallDelay()
	}
	return t.Delays.Small
}

// NormalDelay returns the duration for a normal delay
func (t *MutableTimings) NormalDelay() time.Duration {
	if t == nil {
		return NormalDelay()
	}
	return t.Delays.Normal
}

// BigDelay returns the duration for a big delay
func (t *MutableTimings) BigDelay() time.Duration {
	if t == nil {
		return BigDelay()
	}
	return t.Delays.Big
}
