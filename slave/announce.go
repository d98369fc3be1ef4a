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
	"sync/atomic"

	ptp "github.com/facebook/gptp/protocol"
)

// AnnounceState is a state of master discovery
type AnnounceState uint8

// Announce receive states
const (
	AnnounceNoValidMaster AnnounceState = iota
	AnnounceValidMasterSet
)

func (s AnnounceState) String() string {
	switch s {
	case AnnounceNoValidMaster:
		return "NO_VALID_MASTER"
	case AnnounceValidMasterSet:
		return "VALID_MASTER_SET"
	}
	return fmt.Sprintf("UNKNOWN(%d)", s)
}

// announceRcvSm holds master discovery state. Fields are guarded by endpoint mutex.
type announceRcvSm struct {
	state        AnnounceState
	rxTimeout    uint32
	timeoutTicks uint32
	resetPending atomic.Bool
}

func (a *announceRcvSm) init(timeoutTicks uint32) {
	a.state = AnnounceNoValidMaster
	a.rxTimeout = 0
	a.timeoutTicks = timeoutTicks
	a.resetPending.Store(false)
}

// reset is consumed by the next tick
func (a *announceRcvSm) reset() {
	a.resetPending.Store(true)
}

// checkAnnounce validates Announce against loops and hop count.
// It touches no state.
func checkAnnounce(cfg *Config, hdr *ptp.Header, body *ptp.AnnounceBody, msg []byte) error {
	if body.StepsRemoved > cfg.MaxStepsRemoved {
		return fmt.Errorf("%w: %d > %d", ErrStepsRemoved, body.StepsRemoved, cfg.MaxStepsRemoved)
	}
	if hdr.SourcePortIdentity.ClockIdentity == cfg.ClockIdentity {
		return fmt.Errorf("%w: announced by local clock %s", ErrLoop, cfg.ClockIdentity)
	}
	if body.GrandmasterIdentity == cfg.ClockIdentity {
		return fmt.Errorf("%w: local clock %s is grandmaster", ErrLoop, cfg.ClockIdentity)
	}
	if int(hdr.MessageLength) <= ptp.AnnounceLength {
		return nil
	}
	// other TLVs may precede PATH_TRACE, they are skipped
	for tlvs := msg[ptp.AnnounceLength:hdr.MessageLength]; len(tlvs) > 0; {
		head := ptp.TLVHead{}
		if err := head.UnmarshalBinary(tlvs); err != nil {
			return fmt.Errorf("%w: %d trailing bytes: %w", ErrPathTrace, len(tlvs), err)
		}
		if head.TLVType == ptp.TLVPathTrace {
			pt := ptp.PathTraceTLV{}
			if err := pt.UnmarshalBinary(tlvs); err != nil {
				return fmt.Errorf("%w: %w", ErrPathTrace, err)
			}
			if pt.Contains(cfg.ClockIdentity) {
				return fmt.Errorf("%w: local clock %s in path trace", ErrLoop, cfg.ClockIdentity)
			}
			return nil
		}
		if head.Size() > len(tlvs) {
			return fmt.Errorf("%w: %s TLV of %d bytes exceeds %d trailing bytes", ErrPathTrace, head.TLVType, head.Size(), len(tlvs))
		}
		tlvs = tlvs[head.Size():]
	}
	return nil
}

// processAnnounce runs checks and updates master under endpoint lock
func (e *endpoint) processAnnounce(cfg *Config, hdr *ptp.Header, msg []byte) error {
	body := ptp.AnnounceBody{}
	if err := body.UnmarshalBinary(msg); err != nil {
		return fmt.Errorf("%w: %w", ErrBadLength, err)
	}
	if err := checkAnnounce(cfg, hdr, &body, msg); err != nil {
		return err
	}
	gm := body.GrandmasterIdentity

	e.mu.Lock()
	if e.announce.state == AnnounceValidMasterSet && e.master != gm {
		held := e.master
		e.mu.Unlock()
		return fmt.Errorf("%w: announced grandmaster %s, held %s", ErrMasterConflict, gm, held)
	}
	e.master = gm
	e.hasMaster = true
	e.announce.state = AnnounceValidMasterSet
	e.announce.rxTimeout = e.announce.timeoutTicks
	e.mu.Unlock()
	return nil
}

// tickAnnounce reports whether trust in the master expired in this tick
func (e *endpoint) tickAnnounce() bool {
	if e.announce.resetPending.Swap(false) {
		e.mu.Lock()
		e.announce.state = AnnounceNoValidMaster
		e.announce.rxTimeout = 0
		e.master = 0
		e.hasMaster = false
		e.mu.Unlock()
		return false
	}
	expired := false
	e.mu.Lock()
	if e.announce.rxTimeout > 0 {
		e.announce.rxTimeout--
		if e.announce.rxTimeout == 0 {
			e.announce.state = AnnounceNoValidMaster
			e.master = 0
			e.hasMaster = false
			expired = true
		}
	}
	e.mu.Unlock()
	return expired
}
