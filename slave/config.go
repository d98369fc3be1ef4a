/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package slave

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave/fup"
)

// Fixed capacities of the slave
const (
	MaxPorts     = 16
	MaxEndpoints = 16
)

// EndpointConfig describes a slave endpoint bound to a port
type EndpointConfig struct {
	Port int `yaml:"port"`
	// Announce enables master discovery through Announce messages
	Announce        bool          `yaml:"announce"`
	AnnounceTimeout time.Duration `yaml:"announce_timeout"`
	// StaticMaster pins master clock identity, no learning happens
	StaticMaster    *ptp.ClockIdentity `yaml:"static_master"`
	FollowUpTimeout time.Duration      `yaml:"follow_up_timeout"`
	External        fup.Config         `yaml:"external"`
	// Internal receives the same Sync/Follow_Up pairs on bridges
	Internal *fup.Config `yaml:"internal"`
}

// Validate EndpointConfig is sane
func (c *EndpointConfig) Validate(bridge bool) error {
	if c.Port < 0 || c.Port >= MaxPorts {
		return fmt.Errorf("port must be in range [0, %d)", MaxPorts)
	}
	if c.Announce && c.StaticMaster != nil {
		return fmt.Errorf("announce and static_master are mutually exclusive")
	}
	if c.Announce && c.AnnounceTimeout <= 0 {
		return fmt.Errorf("announce_timeout must be greater than zero")
	}
	if c.FollowUpTimeout <= 0 {
		return fmt.Errorf("follow_up_timeout must be greater than zero")
	}
	if err := c.External.Validate(); err != nil {
		return fmt.Errorf("invalid external config: %w", err)
	}
	if c.Internal != nil {
		if !bridge {
			return fmt.Errorf("internal slave is only supported in bridge mode")
		}
		if err := c.Internal.Validate(); err != nil {
			return fmt.Errorf("invalid internal config: %w", err)
		}
	}
	return nil
}

func (c *EndpointConfig) expectsSubTLVs() bool {
	e := &c.External
	return e.TLVCheck && (e.TimeSecured.Expected || e.Status.Expected || e.UserData.Expected || len(e.Offsets) > 0)
}

// Config specifies slave run options
type Config struct {
	ClockIdentity ptp.ClockIdentity `yaml:"clock_identity"`
	// TickInterval is the period Tick is called with
	TickInterval time.Duration `yaml:"tick_interval"`
	Bridge       bool          `yaml:"bridge"`
	// StrictFollowUpLength requires Follow_Up to carry no TLVs beyond the Follow_Up information TLV
	StrictFollowUpLength bool             `yaml:"strict_follow_up_length"`
	MaxStepsRemoved      uint16           `yaml:"max_steps_removed"`
	Endpoints            []EndpointConfig `yaml:"endpoints"`
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		TickInterval:    10 * time.Millisecond,
		MaxStepsRemoved: 255,
	}
}

// DefaultEndpointConfig returns EndpointConfig of an end station slave on port
func DefaultEndpointConfig(port int) EndpointConfig {
	return EndpointConfig{
		Port:            port,
		FollowUpTimeout: 100 * time.Millisecond,
		External:        fup.DefaultConfig(),
	}
}

// UnmarshalYAML fills keys missing in the document with defaults
func (c *EndpointConfig) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain EndpointConfig
	p := plain(DefaultEndpointConfig(0))
	if err := unmarshal(&p); err != nil {
		return err
	}
	*c = EndpointConfig(p)
	return nil
}

// Validate config is sane
func (c *Config) Validate() error {
	if c.ClockIdentity == 0 {
		return fmt.Errorf("clock_identity must be specified")
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be greater than zero")
	}
	if len(c.Endpoints) == 0 {
		return fmt.Errorf("at least one endpoint must be specified")
	}
	if len(c.Endpoints) > MaxEndpoints {
		return fmt.Errorf("at most %d endpoints are supported, got %d", MaxEndpoints, len(c.Endpoints))
	}
	for i := range c.Endpoints {
		e := &c.Endpoints[i]
		if err := e.Validate(c.Bridge); err != nil {
			return fmt.Errorf("endpoint %d: %w", i, err)
		}
		for _, other := range c.Endpoints[:i] {
			if other.Port == e.Port {
				return fmt.Errorf("endpoint %d: port %d already used", i, e.Port)
			}
		}
		if c.StrictFollowUpLength && e.expectsSubTLVs() {
			return fmt.Errorf("endpoint %d: strict_follow_up_length rejects every Follow_Up with sub-TLVs", i)
		}
	}
	return nil
}

// ticks converts timeout to the number of scheduler ticks, rounding up
func (c *Config) ticks(timeout time.Duration) uint32 {
	if timeout <= 0 {
		return 0
	}
	n := (timeout + c.TickInterval - 1) / c.TickInterval
	if n > 1<<32-1 {
		return 1<<32 - 1
	}
	return uint32(n)
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(cData, &c)
	if err != nil {
		return nil, err
	}

	return c, nil
}
