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

package fup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestCRCPolicyYAML(t *testing.T) {
	raw := `
time_base_id: 3
forward_time: true
correction_field_threshold: 1ms
tlv_check: true
status:
  expected: true
  crc: validated
user_data:
  expected: true
  crc: optional
offsets:
  - domain: 16
    time_base_id: 16
    crc: ignored
`
	c := Config{}
	require.NoError(t, yaml.UnmarshalStrict([]byte(raw), &c))
	want := Config{
		TimeBaseID:               3,
		ForwardTime:              true,
		CorrectionFieldThreshold: time.Millisecond,
		TLVCheck:                 true,
		Status:                   SubTLVConfig{Expected: true, CRC: CRCValidated},
		UserData:                 SubTLVConfig{Expected: true, CRC: CRCOptional},
		Offsets:                  []OffsetConfig{{Domain: 16, TimeBaseID: 16, CRC: CRCIgnored}},
	}
	require.Equal(t, want, c)
	require.NoError(t, c.Validate())

	out, err := yaml.Marshal(&c)
	require.NoError(t, err)
	require.Contains(t, string(out), "crc: validated")

	require.Error(t, yaml.Unmarshal([]byte("status: {crc: sometimes}"), &c))
}

func TestConfigDefaults(t *testing.T) {
	c := Config{}
	require.NoError(t, yaml.UnmarshalStrict([]byte("time_base_id: 2"), &c))
	require.Equal(t, Config{TimeBaseID: 2, ForwardTime: true}, c)

	c = Config{}
	require.NoError(t, yaml.UnmarshalStrict([]byte("forward_time: false"), &c))
	require.False(t, c.ForwardTime)

	require.Error(t, yaml.UnmarshalStrict([]byte("forward: true"), &c))
}

func TestCRCPolicy(t *testing.T) {
	require.True(t, CRCNotValidated.Accepts(false))
	require.False(t, CRCNotValidated.Accepts(true))
	require.True(t, CRCValidated.Accepts(true))
	require.False(t, CRCValidated.Accepts(false))
	require.True(t, CRCIgnored.Accepts(true))
	require.True(t, CRCOptional.Accepts(false))

	require.True(t, CRCValidated.Checks(true))
	require.True(t, CRCOptional.Checks(true))
	require.False(t, CRCOptional.Checks(false))
	require.False(t, CRCIgnored.Checks(true))
	require.Equal(t, "unknown(9)", CRCPolicy(9).String())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "empty", cfg: Config{}},
		{name: "negative threshold", cfg: Config{CorrectionFieldThreshold: -1}, wantErr: true},
		{
			name:    "time secured never accepted",
			cfg:     Config{TimeSecured: SubTLVConfig{Expected: true, CRC: CRCNotValidated}},
			wantErr: true,
		},
		{name: "bad policy", cfg: Config{Status: SubTLVConfig{CRC: CRCPolicy(7)}}, wantErr: true},
		{
			name:    "duplicate domain",
			cfg:     Config{Offsets: []OffsetConfig{{Domain: 16}, {Domain: 16}}},
			wantErr: true,
		},
		{
			name:    "too many domains",
			cfg:     Config{Offsets: make([]OffsetConfig, MaxOffsets+1)},
			wantErr: true,
		},
		{name: "bad offset policy", cfg: Config{Offsets: []OffsetConfig{{CRC: CRCPolicy(5)}}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
