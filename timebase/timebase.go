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

/*
Package timebase defines the contract of the time base authority: the component
owning synchronized time bases that consumes global time, offset time and slave
timing evidence computed by the slave.
*/
package timebase

import (
	"fmt"
	"time"

	ptp "github.com/facebook/gptp/protocol"
)

// ID identifies a time base
type ID uint16

// VirtualLocalTime is a node-local monotonic time in nanoseconds
type VirtualLocalTime uint64

// Status of a time base as reported by the master
type Status uint8

// Time base statuses
const (
	StatusSyncToGrandmaster Status = iota
	StatusSyncToSubDomain
)

func (s Status) String() string {
	switch s {
	case StatusSyncToGrandmaster:
		return "SYNC_TO_GM"
	case StatusSyncToSubDomain:
		return "SYNC_TO_SUBDOMAIN"
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
}

// MaxUserDataLength is the number of user data bytes distributed with time
const MaxUserDataLength = ptp.MaxUserDataLength

// UserData is opaque data distributed by the master together with time
type UserData struct {
	Length uint8
	Bytes  [MaxUserDataLength]uint8
}

func (u UserData) String() string {
	return fmt.Sprintf("%x", u.Bytes[:u.Length])
}

// Measurement accompanies every time submission
type Measurement struct {
	PathDelay time.Duration
}

// SlaveTimingData is the evidence a slave gathered for one accepted Sync/Follow_Up pair
type SlaveTimingData struct {
	SequenceID             uint16
	SourcePortIdentity     ptp.PortIdentity
	SyncIngress            ptp.Timestamp
	PreciseOriginTimestamp ptp.Timestamp
	CorrectionField        ptp.Correction
	PathDelay              time.Duration
}

//go:generate mockgen -source=timebase.go -destination=mock_authority.go -package=timebase -copyright_file=../LICENSE_HEADER

// Authority consumes time computed by the slave
type Authority interface {
	// SetGlobalTime submits corrected global time of a time base.
	// userData is nil if the master sent none.
	SetGlobalTime(id ID, ts ptp.Timestamp, status Status, userData *UserData, measurement Measurement, vlt VirtualLocalTime) error
	// SetSlaveTimingData submits evidence used for time validation
	SetSlaveTimingData(id ID, data *SlaveTimingData) error
	// SetOffsetTime submits time of an offset time base
	SetOffsetTime(id ID, ts ptp.Timestamp, userData *UserData, measurement Measurement) error
}
