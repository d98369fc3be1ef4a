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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave/fup"
)

func TestConfigValidate(t *testing.T) {
	gm := ptp.ClockIdentity(1)
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{
			name:   "default",
			modify: func(*Config) {},
		},
		{
			name:    "no clock identity",
			modify:  func(c *Config) { c.ClockIdentity = 0 },
			wantErr: true,
		},
		{
			name:    "no tick interval",
			modify:  func(c *Config) { c.TickInterval = 0 },
			wantErr: true,
		},
		{
			name:    "no endpoints",
			modify:  func(c *Config) { c.Endpoints = nil },
			wantErr: true,
		},
		{
			name: "too many endpoints",
			modify: func(c *Config) {
				for i := 1; i <= MaxEndpoints; i++ {
					c.Endpoints = append(c.Endpoints, DefaultEndpointConfig(i%MaxPorts))
				}
			},
			wantErr: true,
		},
		{
			name:    "port out of range",
			modify:  func(c *Config) { c.Endpoints[0].Port = MaxPorts },
			wantErr: true,
		},
		{
			name:    "duplicate port",
			modify:  func(c *Config) { c.Endpoints = append(c.Endpoints, DefaultEndpointConfig(0)) },
			wantErr: true,
		},
		{
			name: "announce with static master",
			modify: func(c *Config) {
				c.Endpoints[0].Announce = true
				c.Endpoints[0].AnnounceTimeout = time.Second
				c.Endpoints[0].StaticMaster = &gm
			},
			wantErr: true,
		},
		{
			name:    "announce without timeout",
			modify:  func(c *Config) { c.Endpoints[0].Announce = true },
			wantErr: true,
		},
		{
			name:    "no follow up timeout",
			modify:  func(c *Config) { c.Endpoints[0].FollowUpTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "bad external",
			modify:  func(c *Config) { c.Endpoints[0].External.CorrectionFieldThreshold = -1 },
			wantErr: true,
		},
		{
			name:    "internal without bridge",
			modify:  func(c *Config) { c.Endpoints[0].Internal = &fup.Config{} },
			wantErr: true,
		},
		{
			name: "bad internal",
			modify: func(c *Config) {
				c.Bridge = true
				c.Endpoints[0].Internal = &fup.Config{CorrectionFieldThreshold: -1}
			},
			wantErr: true,
		},
		{
			name: "bridge",
			modify: func(c *Config) {
				c.Bridge = true
				c.Endpoints[0].Internal = &fup.Config{TimeBaseID: 1}
			},
		},
		{
			name: "strict length with sub-TLVs",
			modify: func(c *Config) {
				c.StrictFollowUpLength = true
				c.Endpoints[0].External.TLVCheck = true
				c.Endpoints[0].External.Status.Expected = true
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.modify(c)
			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestConfigTicks(t *testing.T) {
	c := DefaultConfig()
	require.Equal(t, uint32(0), c.ticks(0))
	require.Equal(t, uint32(1), c.ticks(time.Millisecond))
	require.Equal(t, uint32(10), c.ticks(100*time.Millisecond))
	require.Equal(t, uint32(11), c.ticks(101*time.Millisecond))
	c.TickInterval = time.Nanosecond
	require.Equal(t, uint32(1<<32-1), c.ticks(time.Hour*24*365))
}

func TestReadConfig(t *testing.T) {
	expected := &Config{
		ClockIdentity:   0x0011223344556677,
		TickInterval:    5 * time.Millisecond,
		MaxStepsRemoved: 255,
		Endpoints: []EndpointConfig{
			{
				Port:            0,
				Announce:        true,
				AnnounceTimeout: 3 * time.Second,
				FollowUpTimeout: 100 * time.Millisecond,
				External: fup.Config{
					TimeBaseID:  1,
					ForwardTime: true,
					TLVCheck:    true,
					Status:      fup.SubTLVConfig{Expected: true, CRC: fup.CRCValidated},
				},
			},
		},
	}
	cfg := `clock_identity: 0x0011223344556677
tick_interval: 5ms
endpoints:
  - port: 0
    announce: true
    announce_timeout: 3s
    follow_up_timeout: 100ms
    external:
      time_base_id: 1
      forward_time: true
      tlv_check: true
      status:
        expected: true
        crc: validated
`
	f := filepath.Join(t.TempDir(), "gptp.yaml")
	require.NoError(t, os.WriteFile(f, []byte(cfg), 0644))

	c, err := ReadConfig(f)
	require.NoError(t, err)
	require.Equal(t, expected, c)
	require.NoError(t, c.Validate())

	_, err = ReadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	require.NoError(t, os.WriteFile(f, []byte("tick_interval: [1"), 0644))
	_, err = ReadConfig(f)
	require.Error(t, err)
}

func TestReadConfigEndpointDefaults(t *testing.T) {
	cfg := `clock_identity: 0x0011223344556677
bridge: true
endpoints:
  - port: 1
    external:
      tlv_check: true
    internal:
      time_base_id: 2
  - port: 2
`
	f := filepath.Join(t.TempDir(), "gptp.yaml")
	require.NoError(t, os.WriteFile(f, []byte(cfg), 0644))

	c, err := ReadConfig(f)
	require.NoError(t, err)
	require.NoError(t, c.Validate())
	require.Len(t, c.Endpoints, 2)

	e := c.Endpoints[0]
	require.Equal(t, 1, e.Port)
	require.Equal(t, 100*time.Millisecond, e.FollowUpTimeout)
	require.True(t, e.External.ForwardTime)
	require.True(t, e.External.TLVCheck)
	require.NotNil(t, e.Internal)
	require.Equal(t, fup.Config{TimeBaseID: 2, ForwardTime: true}, *e.Internal)

	require.Equal(t, DefaultEndpointConfig(2), c.Endpoints[1])
}
