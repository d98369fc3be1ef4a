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
	"fmt"
	"time"

	"github.com/facebook/gptp/timebase"
)

// MaxOffsets is the number of offset time domains one Follow_Up can carry
const MaxOffsets = 16

// CRCPolicy defines which variant of a sub-TLV is accepted and whether its CRC is checked
type CRCPolicy uint8

// CRC policies
const (
	// CRCNotValidated accepts only the not secured variant
	CRCNotValidated CRCPolicy = iota
	// CRCValidated accepts only the secured variant with a valid CRC
	CRCValidated
	// CRCIgnored accepts both variants and never checks CRC
	CRCIgnored
	// CRCOptional accepts both variants and checks CRC of the secured one
	CRCOptional
)

// CRCPolicyToString is a map from CRCPolicy to string
var CRCPolicyToString = map[CRCPolicy]string{
	CRCNotValidated: "not_validated",
	CRCValidated:    "validated",
	CRCIgnored:      "ignored",
	CRCOptional:     "optional",
}

// CRCPolicyFromString is a map from string to CRCPolicy
var CRCPolicyFromString = map[string]CRCPolicy{
	"not_validated": CRCNotValidated,
	"validated":     CRCValidated,
	"ignored":       CRCIgnored,
	"optional":      CRCOptional,
}

func (p CRCPolicy) String() string {
	if s, ok := CRCPolicyToString[p]; ok {
		return s
	}
	return fmt.Sprintf("unknown(%d)", uint8(p))
}

// UnmarshalYAML reads policy from its name
func (p *CRCPolicy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, ok := CRCPolicyFromString[s]
	if !ok {
		return fmt.Errorf("unknown CRC policy %q", s)
	}
	*p = v
	return nil
}

// MarshalYAML writes policy as its name
func (p CRCPolicy) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// Accepts reports whether a sub-TLV with given securement is acceptable
func (p CRCPolicy) Accepts(secured bool) bool {
	switch p {
	case CRCNotValidated:
		return !secured
	case CRCValidated:
		return secured
	}
	return true
}

// Checks reports whether CRC of a sub-TLV with given securement must be validated
func (p CRCPolicy) Checks(secured bool) bool {
	return secured && (p == CRCValidated || p == CRCOptional)
}

// SubTLVConfig configures reception of one sub-TLV kind
type SubTLVConfig struct {
	Expected bool      `yaml:"expected"`
	CRC      CRCPolicy `yaml:"crc"`
}

// OffsetConfig maps an offset time domain to the time base receiving its time
type OffsetConfig struct {
	Domain     uint8       `yaml:"domain"`
	TimeBaseID timebase.ID `yaml:"time_base_id"`
	CRC        CRCPolicy   `yaml:"crc"`
}

// Config of a Follow_Up receiver
type Config struct {
	TimeBaseID     timebase.ID `yaml:"time_base_id"`
	ForwardTime    bool        `yaml:"forward_time"`
	TimeValidation bool        `yaml:"time_validation"`
	// CorrectionFieldThreshold of zero disables the check
	CorrectionFieldThreshold time.Duration  `yaml:"correction_field_threshold"`
	TLVCheck                 bool           `yaml:"tlv_check"`
	TimeSecured              SubTLVConfig   `yaml:"time_secured"`
	Status                   SubTLVConfig   `yaml:"status"`
	UserData                 SubTLVConfig   `yaml:"user_data"`
	Offsets                  []OffsetConfig `yaml:"offsets"`
}

// DefaultConfig returns Config of a receiver forwarding time to time base 0
func DefaultConfig() Config {
	return Config{ForwardTime: true}
}

// UnmarshalYAML fills keys missing in the document with defaults
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plain Config
	p := plain(DefaultConfig())
	if err := unmarshal(&p); err != nil {
		return err
	}
	*c = Config(p)
	return nil
}

// Validate config is sane
func (c *Config) Validate() error {
	if c.CorrectionFieldThreshold < 0 {
		return fmt.Errorf("correction_field_threshold must be 0 or positive")
	}
	if len(c.Offsets) > MaxOffsets {
		return fmt.Errorf("at most %d offset domains are supported, got %d", MaxOffsets, len(c.Offsets))
	}
	if c.TimeSecured.Expected && c.TimeSecured.CRC == CRCNotValidated {
		return fmt.Errorf("time_secured sub-TLV is always secured, crc policy %s never accepts it", c.TimeSecured.CRC)
	}
	for _, p := range []CRCPolicy{c.TimeSecured.CRC, c.Status.CRC, c.UserData.CRC} {
		if _, ok := CRCPolicyToString[p]; !ok {
			return fmt.Errorf("unsupported crc policy %s", p)
		}
	}
	for i, o := range c.Offsets {
		if _, ok := CRCPolicyToString[o.CRC]; !ok {
			return fmt.Errorf("offset domain %d: unsupported crc policy %s", o.Domain, o.CRC)
		}
		for _, other := range c.Offsets[:i] {
			if other.Domain == o.Domain {
				return fmt.Errorf("offset domain %d configured twice", o.Domain)
			}
		}
	}
	return nil
}

