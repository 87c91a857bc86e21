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

// Package ssh runs commands and transfers files on the nodes of the cloud
package ssh

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	libssh "golang.org/x/crypto/ssh"

	"github.com/sergeychipiga/mos-integration-tests/lib/config"
	"github.com/sergeychipiga/mos-integration-tests/lib/utils/fail"
)

// DefaultPort is the port of sshd on every node
const DefaultPort = 22

// networkFailure is the return code given to a command whose outcome is unknown, as the ssh client does
const networkFailure = 255

// Config describes how to reach a node
type Config struct {
	User string
	Host string
	Port int
	// PrivateKey is the content of a PEM encoded private key
	PrivateKey string
	// PrivateKeyFile is read when PrivateKey is empty
	PrivateKeyFile string
	Password       string
	Timeout        time.Duration
}

// NodeConfig returns the configuration reaching 'host' with the ssh access of the mos configuration
func NodeConfig(access config.SSH, host string, timeout time.Duration) Config {
	return Config{
		User:           access.User,
		Host:           host,
		Port:           access.Port,
		PrivateKeyFile: access.PrivateKey,
		Password:       access.Password,
		Timeout:        timeout,
	}
}

// Validate checks the configuration is usable
func (c Config) Validate() fail.Error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.User, validation.Required),
		validation.Field(&c.Host, validation.Required, is.Host),
		validation.Field(&c.Port, validation.Min(0), validation.Max(65535)),
	)
	if err != nil {
		return fail.InvalidRequestErrorWithCause(err, "invalid ssh configuration")
	}
	if c.PrivateKey == "" && c.PrivateKeyFile == "" && c.Password == "" {
		return fail.InvalidRequestError("invalid ssh configuration: a private key or a password is required")
	}
	return nil
}

func (c Config) address() string {
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

func (c Config) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}

// clientConfig builds the configuration of the ssh client; host keys are not checked, nodes being recreated often
func (c Config) clientConfig() (*libssh.ClientConfig, fail.Error) {
	var auth []libssh.AuthMethod

	key := []byte(c.PrivateKey)
	if len(key) == 0 && c.PrivateKeyFile != "" {
		var err error
		key, err = os.ReadFile(c.PrivateKeyFile)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fail.NotFoundError("private key file '%s' not found", c.PrivateKeyFile)
			}
			return nil, fail.Wrap(err, "failed to read private key file '%s'", c.PrivateKeyFile)
		}
	}
	if len(key) > 0 {
		signer, err := libssh.ParsePrivateKey(key)
		if err != nil {
			return nil, fail.SyntaxErrorWithCause(err, "cannot parse private key")
		}
		auth = append(auth, libssh.PublicKeys(signer))
	}
	if c.Password != "" {
		auth = append(auth, libssh.Password(c.Password))
	}

	return &libssh.ClientConfig{
		User:            c.User,
		Auth:            auth,
		Timeout:         c.timeout(),
		HostKeyCallback: libssh.InsecureIgnoreHostKey(),
	}, nil
}

func (c Config) String() string {
	return fmt.Sprintf("%s@%s", c.User, c.address())
}
