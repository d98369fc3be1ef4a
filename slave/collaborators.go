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
	"time"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave/fup"
	"github.com/facebook/gptp/timebase"
)

//go:generate mockgen -source=collaborators.go -destination=mock_collaborators.go -package=slave -copyright_file=../LICENSE_HEADER

// LinkState reports port readiness for synchronization
type LinkState interface {
	AsCapable(port int) bool
}

// Clock samples port time together with the virtual local time
type Clock interface {
	Now(port int) (ptp.Timestamp, timebase.VirtualLocalTime, error)
}

// PathDelaySource provides measured link delay per port
type PathDelaySource interface {
	PathDelay(port int) (time.Duration, error)
}

// Bridge provides Sync residence time on bridges
type Bridge interface {
	ResidenceTime(port int, sequenceID uint16) (time.Duration, error)
}

// SiteSync receives Sync and Follow_Up accepted on a bridge for downstream distribution
type SiteSync interface {
	ForwardSync(port int, hdr *ptp.Header, info *fup.RxTimeInfo)
	ForwardFollowUp(port int, hdr *ptp.Header, msg []byte)
}

// Stats is a sink of per port counters
type Stats interface {
	IncRX(port int, t ptp.MessageType)
	IncDiscarded(port int, t ptp.MessageType)
	IncSyncCompleted(port int)
	IncFollowUpTimeout(port int)
	IncAnnounceTimeout(port int)
	IncMasterConflict(port int)
}

// Collaborators of the slave. Bridge is required in bridge mode, SiteSync is optional.
type Collaborators struct {
	LinkState LinkState
	Clock     Clock
	PathDelay PathDelaySource
	Bridge    Bridge
	SiteSync  SiteSync
	CRC       fup.CRCValidator
	Authority timebase.Authority
	Stats     Stats
}

// Ingress is a hardware ingress timestamp of a received frame
type Ingress struct {
	Timestamp ptp.Timestamp
	Valid     bool
}

// portPathDelay binds PathDelaySource to a single port
type portPathDelay struct {
	src  PathDelaySource
	port int
}

func (p *portPathDelay) PathDelay() (time.Duration, error) {
	return p.src.PathDelay(p.port)
}
