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
	"sync"
	"sync/atomic"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave/fup"
)

// SyncState is a state of Sync/Follow_Up pairing
type SyncState uint8

// Sync receive states
const (
	SyncWaitRxSync SyncState = iota
	SyncWaitRxFollowUp
)

func (s SyncState) String() string {
	switch s {
	case SyncWaitRxSync:
		return "WAIT_RX_SYNC"
	case SyncWaitRxFollowUp:
		return "WAIT_RX_FOLLOW_UP"
	}
	return fmt.Sprintf("UNKNOWN(%d)", s)
}

// syncRcvSm pairs Sync with its Follow_Up.
// mu guards scalars only and is never held across handler calls.
type syncRcvSm struct {
	mu           sync.Mutex
	state        SyncState
	seq          uint16
	anySync      bool
	src          ptp.PortIdentity
	rxTime       fup.RxTimeInfo
	fupTimeout   uint32
	timeoutTicks uint32
	resetPending atomic.Bool

	// handler is only used from the receive path of the endpoint
	handler fup.Handler
}

func (s *syncRcvSm) init(timeoutTicks uint32) {
	s.mu.Lock()
	s.clear()
	s.timeoutTicks = timeoutTicks
	s.mu.Unlock()
	s.resetPending.Store(false)
}

func (s *syncRcvSm) clear() {
	s.state = SyncWaitRxSync
	s.seq = 0
	s.anySync = false
	s.src = ptp.PortIdentity{}
	s.rxTime = fup.RxTimeInfo{}
	s.fupTimeout = 0
}

// reset is consumed by the next tick
func (s *syncRcvSm) reset() {
	s.resetPending.Store(true)
}

// processSync arms Follow_Up reception. stale reports that a previous Sync never got its Follow_Up.
func (s *syncRcvSm) processSync(hdr *ptp.Header, info *fup.RxTimeInfo) (stale bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, anySync := s.seq, s.anySync
	// stored before acceptance is decided
	s.seq = hdr.SequenceID
	s.anySync = true
	if anySync && prev == hdr.SequenceID {
		return false, fmt.Errorf("%w: %d", ErrDuplicateSequence, hdr.SequenceID)
	}
	if s.state == SyncWaitRxFollowUp {
		stale = true
		s.state = SyncWaitRxSync
	}
	s.src = hdr.SourcePortIdentity
	s.rxTime = *info
	s.fupTimeout = s.timeoutTicks
	s.state = SyncWaitRxFollowUp
	return stale, nil
}

// pending returns a copy of the armed Sync evidence if hdr pairs with it
func (s *syncRcvSm) pending(hdr *ptp.Header) (fup.RxTimeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != SyncWaitRxFollowUp {
		return fup.RxTimeInfo{}, ErrUnexpectedFollowUp
	}
	if s.seq != hdr.SequenceID || s.src != hdr.SourcePortIdentity {
		return fup.RxTimeInfo{}, fmt.Errorf("%w: got %d from %s, want %d from %s",
			ErrFollowUpMismatch, hdr.SequenceID, hdr.SourcePortIdentity, s.seq, s.src)
	}
	return s.rxTime, nil
}

// complete returns to WaitRxSync unless another Sync was armed meanwhile
func (s *syncRcvSm) complete(hdr *ptp.Header) {
	s.mu.Lock()
	if s.state == SyncWaitRxFollowUp && s.seq == hdr.SequenceID && s.src == hdr.SourcePortIdentity {
		s.state = SyncWaitRxSync
		s.fupTimeout = 0
	}
	s.mu.Unlock()
}

// processFollowUp validates Follow_Up against the armed Sync and forwards the time.
// Any rejection leaves the Sync armed until its Follow_Up is accepted, it times out
// or another Sync replaces it.
func (s *syncRcvSm) processFollowUp(hdr *ptp.Header, msg []byte) error {
	info, err := s.pending(hdr)
	if err != nil {
		return err
	}
	if err := s.handler.Validate(hdr, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFollowUp, err)
	}
	if s.handler.Forwards() {
		if err := s.handler.Process(&info, hdr, msg); err != nil {
			return fmt.Errorf("%w: %w", ErrTimeNotForwarded, err)
		}
	}
	s.complete(hdr)
	return nil
}

// tick reports whether the armed Sync timed out in this tick
func (s *syncRcvSm) tick() bool {
	if s.resetPending.Swap(false) {
		s.mu.Lock()
		s.clear()
		s.mu.Unlock()
		return false
	}
	expired := false
	s.mu.Lock()
	if s.state == SyncWaitRxFollowUp && s.fupTimeout > 0 {
		s.fupTimeout--
		if s.fupTimeout == 0 {
			s.state = SyncWaitRxSync
			expired = true
		}
	}
	s.mu.Unlock()
	return expired
}

type syncSnapshot struct {
	state SyncState
	seq   uint16
}

func (s *syncRcvSm) snapshot() syncSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return syncSnapshot{state: s.state, seq: s.seq}
}
