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
Package slave implements reception side of a gPTP time slave.

Every port has one endpoint. An endpoint pairs Sync with Follow_Up, tracks
the master it trusts (learned from Announce, latched from the first Sync,
or configured statically) and forwards corrected time to the time base
authority. Receive path and Tick may run in different goroutines, but
receive calls for the same port must be serialized by the caller.
*/
package slave

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave/fup"
	"github.com/facebook/gptp/slave/stats"
)

// Errors returned for discarded messages
var (
	ErrUnknownEndpoint    = errors.New("unknown endpoint")
	ErrUnknownPort        = errors.New("no endpoint on port")
	ErrMalformed          = errors.New("malformed message")
	ErrUnsupportedMessage = errors.New("unsupported message type")
	ErrNotAsCapable       = errors.New("port is not asCapable")
	ErrBadLength          = errors.New("bad message length")
	ErrInvalidIngress     = errors.New("invalid ingress time")
	ErrMasterConflict     = errors.New("master conflict")
	ErrNoValidMaster      = errors.New("no valid master")
	ErrDuplicateSequence  = errors.New("duplicate sequence id")
	ErrUnexpectedFollowUp = errors.New("no Sync waiting for Follow_Up")
	ErrFollowUpMismatch   = errors.New("mismatching Follow_Up")
	ErrInvalidFollowUp    = errors.New("invalid Follow_Up content")
	ErrTimeNotForwarded   = errors.New("time not forwarded")
	ErrStepsRemoved       = errors.New("too many steps removed")
	ErrLoop               = errors.New("synchronization loop")
	ErrPathTrace          = errors.New("invalid path trace")
	ErrAnnounceDisabled   = errors.New("announce disabled on endpoint")
)

// EndpointID is a handle of a slave endpoint
type EndpointID uint16

// PortID is a port number as used by collaborators
type PortID = int

type endpoint struct {
	port        PortID
	announceOn  bool
	static      bool
	hasInternal bool

	// mu guards master and announce state
	mu        sync.Mutex
	master    ptp.ClockIdentity
	hasMaster bool
	announce  announceRcvSm

	resetPending atomic.Bool
	external     syncRcvSm
	internal     syncRcvSm
	pathDelay    portPathDelay
}

// EndpointState is a diagnostic snapshot of an endpoint
type EndpointState struct {
	Port           PortID
	Announce       AnnounceState
	Master         ptp.ClockIdentity
	HasMaster      bool
	External       SyncState
	LastSequenceID uint16
	HasInternal    bool
	Internal       SyncState
}

// Slave is a gPTP time slave receiving on up to MaxPorts ports
type Slave struct {
	cfg          Config
	c            Collaborators
	endpoints    [MaxEndpoints]endpoint
	numEndpoints int
	byPort       [MaxPorts]int
}

// New creates a slave with endpoints from cfg
func New(cfg *Config, c Collaborators) (*Slave, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.LinkState == nil || c.Clock == nil || c.PathDelay == nil || c.CRC == nil || c.Authority == nil {
		return nil, fmt.Errorf("link state, clock, path delay, CRC and authority collaborators are required")
	}
	if cfg.Bridge && c.Bridge == nil {
		return nil, fmt.Errorf("bridge collaborator is required in bridge mode")
	}
	if c.Stats == nil {
		c.Stats = stats.NewStats()
	}
	s := &Slave{cfg: *cfg, c: c}
	s.cfg.Endpoints = nil
	for i := range s.byPort {
		s.byPort[i] = -1
	}
	for i := range cfg.Endpoints {
		ec := &cfg.Endpoints[i]
		e := &s.endpoints[i]
		e.port = ec.Port
		e.announceOn = ec.Announce
		e.pathDelay = portPathDelay{src: c.PathDelay, port: ec.Port}
		e.announce.init(cfg.ticks(ec.AnnounceTimeout))
		e.external.init(cfg.ticks(ec.FollowUpTimeout))
		e.external.handler.Init(&ec.External, c.CRC, c.Authority, &e.pathDelay)
		if ec.StaticMaster != nil {
			e.static = true
			e.master = *ec.StaticMaster
			e.hasMaster = true
		}
		if cfg.Bridge && ec.Internal != nil {
			e.hasInternal = true
			e.internal.init(cfg.ticks(ec.FollowUpTimeout))
			e.internal.handler.Init(ec.Internal, c.CRC, c.Authority, &e.pathDelay)
		}
		s.byPort[ec.Port] = i
	}
	s.numEndpoints = len(cfg.Endpoints)
	return s, nil
}

// Endpoint returns the endpoint bound to port
func (s *Slave) Endpoint(port PortID) (EndpointID, bool) {
	if port < 0 || port >= MaxPorts || s.byPort[port] < 0 {
		return 0, false
	}
	return EndpointID(s.byPort[port]), true
}

func (s *Slave) endpoint(id EndpointID) (*endpoint, error) {
	if int(id) >= s.numEndpoints {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEndpoint, id)
	}
	return &s.endpoints[id], nil
}

func logReceive(port PortID, t ptp.MessageType, msg string, v ...interface{}) {
	log.Debugf(color.BlueString("[port %d] master -> %s (%s)", port, t, fmt.Sprintf(msg, v...)))
}

func logDiscard(port PortID, t ptp.MessageType, err error) {
	log.Debugf(color.RedString("[port %d] discarded %s: %v", port, t, err))
}

// Receive dispatches a gPTP frame received on port
func (s *Slave) Receive(port PortID, frame []byte, ingress Ingress) error {
	id, ok := s.Endpoint(port)
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownPort, port)
	}
	msgType, err := ptp.ProbeMsgType(frame)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	switch msgType {
	case ptp.MessageSync, ptp.MessageFollowUp, ptp.MessageAnnounce:
	default:
		return fmt.Errorf("%w %s", ErrUnsupportedMessage, msgType)
	}
	hdr := ptp.Header{}
	if err := hdr.UnmarshalBinary(frame); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	msg := frame[:hdr.MessageLength]
	switch msgType {
	case ptp.MessageSync:
		return s.OnSync(id, &hdr, ingress)
	case ptp.MessageFollowUp:
		return s.OnFollowUp(id, &hdr, msg)
	}
	return s.OnAnnounce(id, &hdr, msg)
}

// OnSync handles decoded Sync header received with ingress time
func (s *Slave) OnSync(id EndpointID, hdr *ptp.Header, ingress Ingress) error {
	e, err := s.endpoint(id)
	if err != nil {
		return err
	}
	s.c.Stats.IncRX(e.port, ptp.MessageSync)
	if err := s.onSync(e, hdr, ingress); err != nil {
		s.c.Stats.IncDiscarded(e.port, ptp.MessageSync)
		logDiscard(e.port, ptp.MessageSync, err)
		return err
	}
	return nil
}

func (s *Slave) onSync(e *endpoint, hdr *ptp.Header, ingress Ingress) error {
	if !s.c.LinkState.AsCapable(e.port) {
		return ErrNotAsCapable
	}
	if hdr.MessageLength != ptp.SyncLength {
		return fmt.Errorf("%w: Sync of %d bytes", ErrBadLength, hdr.MessageLength)
	}
	info, err := s.rxTimeInfo(e, hdr, ingress)
	if err != nil {
		return err
	}
	if err := s.acceptMaster(e, hdr.SourcePortIdentity.ClockIdentity); err != nil {
		return err
	}
	stale, err := e.external.processSync(hdr, &info)
	if stale {
		s.expireSync(e)
		log.Debugf("[port %d] Sync %d replaced Sync still waiting for Follow_Up", e.port, hdr.SequenceID)
	}
	if err != nil {
		return err
	}
	logReceive(e.port, ptp.MessageSync, "seq=%d, src=%s", hdr.SequenceID, hdr.SourcePortIdentity)
	if e.hasInternal {
		if _, err := e.internal.processSync(hdr, &info); err != nil {
			log.Debugf("[port %d] internal slave discarded Sync: %v", e.port, err)
		}
	}
	if s.c.SiteSync != nil {
		s.c.SiteSync.ForwardSync(e.port, hdr, &info)
	}
	return nil
}

func (s *Slave) rxTimeInfo(e *endpoint, hdr *ptp.Header, ingress Ingress) (fup.RxTimeInfo, error) {
	info := fup.RxTimeInfo{}
	if !ingress.Valid || !ingress.Timestamp.Valid() {
		return info, ErrInvalidIngress
	}
	now, vlt, err := s.c.Clock.Now(e.port)
	if err != nil {
		return info, fmt.Errorf("%w: %w", ErrInvalidIngress, err)
	}
	since, err := now.Sub(ingress.Timestamp)
	if err != nil {
		return info, fmt.Errorf("%w: %w", ErrInvalidIngress, err)
	}
	if since < 0 {
		return info, fmt.Errorf("%w: ingress %s is after %s", ErrInvalidIngress, ingress.Timestamp, now)
	}
	if s.cfg.Bridge {
		info.Residence, err = s.c.Bridge.ResidenceTime(e.port, hdr.SequenceID)
		if err != nil {
			return info, fmt.Errorf("%w: residence time: %w", ErrInvalidIngress, err)
		}
	}
	info.Ingress = ingress.Timestamp
	info.SinceIngress = since
	info.VLT = vlt
	info.Valid = true
	return info, nil
}

// acceptMaster checks Sync source against the master held by the endpoint
func (s *Slave) acceptMaster(e *endpoint, clock ptp.ClockIdentity) error {
	e.mu.Lock()
	held, hasMaster := e.master, e.hasMaster
	latched := false
	if !hasMaster && !e.static && !e.announceOn {
		e.master = clock
		e.hasMaster = true
		latched = true
	}
	e.mu.Unlock()

	switch {
	case latched:
		log.Infof("[port %d] latched master %s", e.port, clock)
		return nil
	case !hasMaster:
		return ErrNoValidMaster
	case held != clock:
		s.c.Stats.IncMasterConflict(e.port)
		log.Warningf("[port %d] Sync from %s conflicts with master %s", e.port, clock, held)
		return fmt.Errorf("%w: Sync from %s, held %s", ErrMasterConflict, clock, held)
	}
	return nil
}

// OnFollowUp handles Follow_Up msg with decoded header hdr
func (s *Slave) OnFollowUp(id EndpointID, hdr *ptp.Header, msg []byte) error {
	e, err := s.endpoint(id)
	if err != nil {
		return err
	}
	s.c.Stats.IncRX(e.port, ptp.MessageFollowUp)
	if err := s.onFollowUp(e, hdr, msg); err != nil {
		s.c.Stats.IncDiscarded(e.port, ptp.MessageFollowUp)
		logDiscard(e.port, ptp.MessageFollowUp, err)
		return err
	}
	return nil
}

func (s *Slave) onFollowUp(e *endpoint, hdr *ptp.Header, msg []byte) error {
	if !s.c.LinkState.AsCapable(e.port) {
		return ErrNotAsCapable
	}
	length := int(hdr.MessageLength)
	if length < ptp.FollowUpLength || (s.cfg.StrictFollowUpLength && length != ptp.FollowUpLength) {
		return fmt.Errorf("%w: Follow_Up of %d bytes", ErrBadLength, length)
	}
	if err := e.external.processFollowUp(hdr, msg); err != nil {
		return err
	}
	s.c.Stats.IncSyncCompleted(e.port)
	logReceive(e.port, ptp.MessageFollowUp, "seq=%d, src=%s, cf=%s", hdr.SequenceID, hdr.SourcePortIdentity, hdr.CorrectionField)
	if e.hasInternal {
		if err := e.internal.processFollowUp(hdr, msg); err != nil {
			log.Debugf("[port %d] internal slave discarded Follow_Up: %v", e.port, err)
		}
	}
	if s.c.SiteSync != nil {
		s.c.SiteSync.ForwardFollowUp(e.port, hdr, msg)
	}
	return nil
}

// OnAnnounce handles Announce msg with decoded header hdr
func (s *Slave) OnAnnounce(id EndpointID, hdr *ptp.Header, msg []byte) error {
	e, err := s.endpoint(id)
	if err != nil {
		return err
	}
	s.c.Stats.IncRX(e.port, ptp.MessageAnnounce)
	if err := s.onAnnounce(e, hdr, msg); err != nil {
		s.c.Stats.IncDiscarded(e.port, ptp.MessageAnnounce)
		logDiscard(e.port, ptp.MessageAnnounce, err)
		return err
	}
	return nil
}

func (s *Slave) onAnnounce(e *endpoint, hdr *ptp.Header, msg []byte) error {
	if !s.c.LinkState.AsCapable(e.port) {
		return ErrNotAsCapable
	}
	if hdr.MessageLength < ptp.AnnounceLength {
		return fmt.Errorf("%w: Announce of %d bytes", ErrBadLength, hdr.MessageLength)
	}
	if !e.announceOn {
		return ErrAnnounceDisabled
	}
	err := e.processAnnounce(&s.cfg, hdr, msg)
	if errors.Is(err, ErrMasterConflict) {
		s.c.Stats.IncMasterConflict(e.port)
		log.Warningf("[port %d] %v", e.port, err)
	}
	if err != nil {
		return err
	}
	logReceive(e.port, ptp.MessageAnnounce, "seq=%d, src=%s", hdr.SequenceID, hdr.SourcePortIdentity)
	return nil
}

// expireSync counts a Sync whose Follow_Up never came as discarded
func (s *Slave) expireSync(e *endpoint) {
	s.c.Stats.IncFollowUpTimeout(e.port)
	s.c.Stats.IncDiscarded(e.port, ptp.MessageSync)
}

// Tick advances timeouts and applies pending resets. It is called every TickInterval.
func (s *Slave) Tick() {
	for i := 0; i < s.numEndpoints; i++ {
		e := &s.endpoints[i]
		if e.resetPending.Swap(false) && !e.static {
			e.mu.Lock()
			e.master = 0
			e.hasMaster = false
			e.mu.Unlock()
		}
		if e.announceOn && e.tickAnnounce() {
			s.c.Stats.IncAnnounceTimeout(e.port)
			log.Infof("[port %d] announce receipt timeout, no valid master", e.port)
		}
		if e.external.tick() {
			s.expireSync(e)
			log.Debugf("[port %d] Follow_Up receipt timeout", e.port)
		}
		if e.hasInternal && e.internal.tick() {
			log.Debugf("[port %d] internal Follow_Up receipt timeout", e.port)
		}
	}
}

// Reset returns the endpoint on port to its initial state at the next Tick.
// It is safe to call from any goroutine.
func (s *Slave) Reset(port PortID) error {
	id, ok := s.Endpoint(port)
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownPort, port)
	}
	e := &s.endpoints[id]
	e.resetPending.Store(true)
	e.announce.reset()
	e.external.reset()
	e.internal.reset()
	return nil
}

// EndpointState returns a snapshot of endpoint id
func (s *Slave) EndpointState(id EndpointID) (EndpointState, error) {
	e, err := s.endpoint(id)
	if err != nil {
		return EndpointState{}, err
	}
	st := EndpointState{Port: e.port, HasInternal: e.hasInternal}
	e.mu.Lock()
	st.Announce = e.announce.state
	st.Master = e.master
	st.HasMaster = e.hasMaster
	e.mu.Unlock()
	ext := e.external.snapshot()
	st.External = ext.state
	st.LastSequenceID = ext.seq
	if e.hasInternal {
		st.Internal = e.internal.snapshot().state
	}
	return st, nil
}
