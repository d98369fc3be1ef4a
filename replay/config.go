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

package replay

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/facebook/gptp/slave"
	"github.com/facebook/gptp/slave/crc"
)

// Config of a capture replay
type Config struct {
	Slave slave.Config       `yaml:"slave"`
	CRC   []crc.DataIDConfig `yaml:"crc"`
	// Port frames of the capture are received on
	Port      int           `yaml:"port"`
	PathDelay time.Duration `yaml:"path_delay"`
	// ResidenceTime is reported for every Sync in bridge mode
	ResidenceTime time.Duration `yaml:"residence_time"`
	// ProcessingDelay is time between capture and virtual local time sampling
	ProcessingDelay time.Duration `yaml:"processing_delay"`
	MonitoringPort  int           `yaml:"monitoring_port"`
}

// DefaultConfig returns Config of a single end station slave on port 0
func DefaultConfig() *Config {
	c := &Config{Slave: *slave.DefaultConfig()}
	c.Slave.Endpoints = []slave.EndpointConfig{slave.DefaultEndpointConfig(0)}
	return c
}

// Validate config is sane
func (c *Config) Validate() error {
	if err := c.Slave.Validate(); err != nil {
		return fmt.Errorf("invalid slave config: %w", err)
	}
	if _, err := crc.FromConfig(c.CRC); err != nil {
		return fmt.Errorf("invalid crc config: %w", err)
	}
	found := false
	for _, e := range c.Slave.Endpoints {
		if e.Port == c.Port {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("no endpoint configured on port %d", c.Port)
	}
	if c.PathDelay < 0 {
		return fmt.Errorf("path_delay must be non-negative")
	}
	if c.ResidenceTime < 0 {
		return fmt.Errorf("residence_time must be non-negative")
	}
	if c.ProcessingDelay < 0 {
		return fmt.Errorf("processing_delay must be non-negative")
	}
	if c.MonitoringPort < 0 {
		return fmt.Errorf("monitoring_port must be non-negative")
	}
	return nil
}

// ReadConfig reads config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// endpoints come from the file only
	c.Slave.Endpoints = nil
	err = yaml.Unmarshal(cData, &c)
	if err != nil {
		return nil, err
	}

	return c, nil
}

// PrepareConfig prepares final version of config based on defaults, parsed config file and CLI flags
func PrepareConfig(cfgPath string, port int, pathDelay time.Duration, monitoringPort int, setFlags map[string]bool) (*Config, error) {
	cfg := DefaultConfig()
	var err error
	warn := func(name string) {
		log.Warningf("overriding %s from CLI flag", name)
	}
	if cfgPath != "" {
		cfg, err = ReadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", cfgPath, err)
		}
	}
	if cfg.Slave.ClockIdentity == 0 {
		// replay never sends, any identity the capture does not use will do
		cfg.Slave.ClockIdentity = 0xfffffffffffffffe
	}
	if setFlags["port"] {
		warn("port")
		cfg.Port = port
	}
	if setFlags["pdelay"] {
		warn("pdelay")
		cfg.PathDelay = pathDelay
	}
	if setFlags["monitoringport"] {
		warn("monitoringport")
		cfg.MonitoringPort = monitoringPort
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	log.Debugf("config: %+v", cfg)
	return cfg, nil
}
