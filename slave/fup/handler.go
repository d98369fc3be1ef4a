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
Package fup validates Follow_Up messages received by a gPTP slave, extracts the
AUTOSAR sub-TLVs they carry and computes corrected global time from them.
*/
package fup

import (
	"errors"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/timebase"
)

// CRCResult is a verdict of the CRC validator
type CRCResult uint8

// CRC validation results
const (
	CRCOK CRCResult = iota
	CRCFailed
	// CRCPending means the CRC can't be checked yet, the sub-TLV is rejected
	CRCPending
)

func (r CRCResult) String() string {
	switch r {
	case CRCOK:
		return "OK"
	case CRCFailed:
		return "FAILED"
	case CRCPending:
		return "PENDING"
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(r))
}

//go:generate mockgen -source=handler.go -destination=mock_handler.go -package=fup -copyright_file=../../LICENSE_HEADER

// CRCValidator checks CRC protected sub-TLVs
type CRCValidator interface {
	// Validate checks the sub-TLV of type t starting at offset in msg
	Validate(timeBase timebase.ID, t ptp.SubTLVType, msg []byte, offset int) CRCResult
}

// PathDelayProvider reports current measured path delay of the port
type PathDelayProvider interface {
	PathDelay() (time.Duration, error)
}

// RxTimeInfo is the reception time evidence gathered for a Sync
type RxTimeInfo struct {
	Ingress ptp.Timestamp
	// SinceIngress is time elapsed between ingress and VLT sampling
	SinceIngress time.Duration
	VLT          timebase.VirtualLocalTime
	// Residence is bridge residence time, zero on end stations
	Residence time.Duration
	Valid     bool
}

// Follow_Up rejection reasons
var (
	ErrCorrectionField        = errors.New("correction field above threshold")
	ErrPreciseOriginTimestamp = errors.New("invalid preciseOriginTimestamp")
	ErrMessageLength          = errors.New("unexpected Follow_Up length")
	ErrOrganizationTLV        = errors.New("invalid organization TLV")
	ErrSubTLVLength           = errors.New("invalid sub-TLV length")
	ErrSubTLVNotAccepted      = errors.New("sub-TLV variant not accepted")
	ErrCRC                    = errors.New("CRC validation failed")
	ErrSubTLVCount            = errors.New("too many sub-TLVs")
	ErrDuplicateOffset        = errors.New("duplicate offset sub-TLV")
	ErrMissingSubTLV          = errors.New("expected sub-TLV missing")
	ErrTLVLength              = errors.New("sub-TLVs do not add up to organization TLV length")
	ErrUserData               = errors.New("malformed user data")
	ErrOffsetTime             = errors.New("invalid offset time")
	ErrInvalidRxTime          = errors.New("invalid Sync reception time")
	ErrPathDelay              = errors.New("path delay unavailable")
	ErrInvalidTerm            = errors.New("invalid correction term")
	ErrOverflow               = errors.New("time overflow")
)

type offsetTime struct {
	ts          ptp.Timestamp
	userData    timebase.UserData
	hasUserData bool
	updated     bool
}

// Handler validates Follow_Up messages of one slave endpoint and forwards the time they carry.
// Validate fills scratch state consumed by the following Process call,
// so a Handler must not be used concurrently.
type Handler struct {
	cfg        Config
	offsetCfg  [MaxOffsets]OffsetConfig
	numOffsets int
	crc        CRCValidator
	authority  timebase.Authority
	pathDelay  PathDelayProvider

	status      timebase.Status
	userData    timebase.UserData
	hasUserData bool
	offsets     [MaxOffsets]offsetTime
	timing      timebase.SlaveTimingData
}

// Init sets up the handler in place
func (h *Handler) Init(cfg *Config, crc CRCValidator, authority timebase.Authority, pathDelay PathDelayProvider) {
	*h = Handler{
		cfg:       *cfg,
		crc:       crc,
		authority: authority,
		pathDelay: pathDelay,
	}
	h.numOffsets = copy(h.offsetCfg[:], cfg.Offsets)
	h.cfg.Offsets = nil
	h.reset()
}

// Forwards reports whether accepted time is submitted to the time base
func (h *Handler) Forwards() bool {
	return h.cfg.ForwardTime
}

// TimeBaseID returns the time base this handler serves
func (h *Handler) TimeBaseID() timebase.ID {
	return h.cfg.TimeBaseID
}

func (h *Handler) reset() {
	h.status = timebase.StatusSyncToGrandmaster
	h.userData = timebase.UserData{}
	h.hasUserData = false
	h.offsets = [MaxOffsets]offsetTime{}
}

func (h *Handler) expectsAny() bool {
	return h.cfg.TimeSecured.Expected || h.cfg.Status.Expected || h.cfg.UserData.Expected || h.numOffsets > 0
}

func (h *Handler) offsetIndex(domain uint8) int {
	for i := 0; i < h.numOffsets; i++ {
		if h.offsetCfg[i].Domain == domain {
			return i
		}
	}
	return -1
}

// Validate checks Follow_Up msg with decoded header hdr.
// It returns nil when the message is acceptable, sub-TLV content is kept for Process.
func (h *Handler) Validate(hdr *ptp.Header, msg []byte) error {
	h.reset()
	if h.cfg.CorrectionFieldThreshold > 0 {
		cf := hdr.CorrectionField.Nanoseconds48()
		if cf > uint64(h.cfg.CorrectionFieldThreshold.Nanoseconds()) {
			return fmt.Errorf("%w: %dns > %v", ErrCorrectionField, cf, h.cfg.CorrectionFieldThreshold)
		}
	}
	pot, err := ptp.PreciseOriginTimestamp(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPreciseOriginTimestamp, err)
	}
	if !pot.Valid() {
		return fmt.Errorf("%w: %v", ErrPreciseOriginTimestamp, pot)
	}
	if !h.cfg.TLVCheck {
		return nil
	}

	msgLen := int(hdr.MessageLength)
	if msgLen > len(msg) {
		return fmt.Errorf("%w: messageLength %d, got %d bytes", ErrMessageLength, msgLen, len(msg))
	}
	msg = msg[:msgLen]
	if msgLen < ptp.AutosarTLVOffset+ptp.AutosarTLVHeaderSize {
		if h.expectsAny() {
			return fmt.Errorf("%w: no organization TLV", ErrMissingSubTLV)
		}
		if msgLen != ptp.FollowUpLength {
			return fmt.Errorf("%w: %d", ErrMessageLength, msgLen)
		}
		return nil
	}
	if err := h.walk(msg); err != nil {
		h.reset()
		return err
	}
	return nil
}

type subTLVCounts struct {
	seen  [ptp.SubTLVKindOffset + 1]int
	found [ptp.SubTLVKindOffset + 1]bool
}

func (h *Handler) walk(msg []byte) error {
	tlv := ptp.AutosarTLV{}
	if err := tlv.UnmarshalBinary(msg[ptp.AutosarTLVOffset:]); err != nil {
		return fmt.Errorf("%w: %w", ErrOrganizationTLV, err)
	}
	if tlv.TLVType != ptp.TLVOrganizationExtension ||
		tlv.OrganizationID != ptp.AutosarOrganizationID ||
		tlv.OrganizationSubType != ptp.AutosarOrganizationSubType {
		return fmt.Errorf("%w: type %s organization %06x/%06x", ErrOrganizationTLV, tlv.TLVType, tlv.OrganizationID, tlv.OrganizationSubType)
	}
	subLen := tlv.SubTLVLength()
	if subLen < ptp.SubTLVHeadSize {
		return fmt.Errorf("%w: length %d leaves no room for sub-TLVs", ErrOrganizationTLV, tlv.LengthField)
	}
	start := ptp.AutosarTLVOffset + ptp.AutosarTLVHeaderSize
	if start+subLen > len(msg) {
		return fmt.Errorf("%w: length %d exceeds message", ErrOrganizationTLV, tlv.LengthField)
	}

	counts := subTLVCounts{}
	consumed := 0
	for consumed+ptp.SubTLVHeadSize <= subLen {
		pos := start + consumed
		head := ptp.SubTLVHead{}
		if err := head.UnmarshalBinary(msg[pos:]); err != nil {
			return fmt.Errorf("%w: %w", ErrTLVLength, err)
		}
		size := ptp.SubTLVHeadSize + int(head.Length)
		if consumed+size > subLen {
			break
		}
		if err := h.subTLV(&head, msg, pos, &counts); err != nil {
			return err
		}
		consumed += size
	}
	if consumed != subLen {
		return fmt.Errorf("%w: consumed %d of %d", ErrTLVLength, consumed, subLen)
	}

	expected := [...]struct {
		kind ptp.SubTLVKind
		want bool
	}{
		{ptp.SubTLVKindTimeSecured, h.cfg.TimeSecured.Expected},
		{ptp.SubTLVKindStatus, h.cfg.Status.Expected},
		{ptp.SubTLVKindUserData, h.cfg.UserData.Expected},
		{ptp.SubTLVKindOffset, h.numOffsets > 0},
	}
	for _, e := range expected {
		if e.want && !counts.found[e.kind] {
			return fmt.Errorf("%w: %s", ErrMissingSubTLV, e.kind)
		}
	}
	return nil
}

type subTLVPolicy struct {
	crc      CRCPolicy
	timeBase timebase.ID
}

// admit checks length, count and CRC of an expected sub-TLV
func (h *Handler) admit(head *ptp.SubTLVHead, policy subTLVPolicy, msg []byte, pos int, counts *subTLVCounts, limit int) error {
	kind := head.Type.Kind()
	if int(head.Length) != kind.Length() {
		return fmt.Errorf("%w: %s length %d, want %d", ErrSubTLVLength, head.Type, head.Length, kind.Length())
	}
	counts.seen[kind]++
	if counts.seen[kind] > limit {
		return fmt.Errorf("%w: %s", ErrSubTLVCount, kind)
	}
	secured := head.Type.Secured()
	if !policy.crc.Accepts(secured) {
		return fmt.Errorf("%w: %s with crc policy %s", ErrSubTLVNotAccepted, head.Type, policy.crc)
	}
	if policy.crc.Checks(secured) {
		if res := h.crc.Validate(policy.timeBase, head.Type, msg, pos); res != CRCOK {
			return fmt.Errorf("%w: %s %s", ErrCRC, head.Type, res)
		}
	}
	return nil
}

func (h *Handler) subTLV(head *ptp.SubTLVHead, msg []byte, pos int, counts *subTLVCounts) error {
	kind := head.Type.Kind()
	b := msg[pos:]
	switch kind {
	case ptp.SubTLVKindTimeSecured:
		if !h.cfg.TimeSecured.Expected {
			return nil
		}
		if err := h.admit(head, subTLVPolicy{h.cfg.TimeSecured.CRC, h.cfg.TimeBaseID}, msg, pos, counts, 1); err != nil {
			return err
		}
	case ptp.SubTLVKindStatus:
		if !h.cfg.Status.Expected {
			return nil
		}
		if err := h.admit(head, subTLVPolicy{h.cfg.Status.CRC, h.cfg.TimeBaseID}, msg, pos, counts, 1); err != nil {
			return err
		}
		s := ptp.StatusSubTLV{}
		if err := s.UnmarshalBinary(b); err != nil {
			return fmt.Errorf("%w: %w", ErrSubTLVLength, err)
		}
		if s.Status&ptp.StatusSyncToGateway != 0 {
			h.status = timebase.StatusSyncToSubDomain
		}
	case ptp.SubTLVKindUserData:
		if !h.cfg.UserData.Expected {
			return nil
		}
		if err := h.admit(head, subTLVPolicy{h.cfg.UserData.CRC, h.cfg.TimeBaseID}, msg, pos, counts, 1); err != nil {
			return err
		}
		u := ptp.UserDataSubTLV{}
		if err := u.UnmarshalBinary(b); err != nil {
			return fmt.Errorf("%w: %w", ErrSubTLVLength, err)
		}
		if u.UserDataLength > ptp.MaxUserDataLength {
			return fmt.Errorf("%w: length %d", ErrUserData, u.UserDataLength)
		}
		h.userData = timebase.UserData{Length: u.UserDataLength, Bytes: u.UserData}
		h.hasUserData = true
	case ptp.SubTLVKindOffset:
		if h.numOffsets == 0 {
			return nil
		}
		return h.offset(head, msg, pos, counts)
	default:
		// unknown sub-TLVs only consume their length
		return nil
	}
	counts.found[kind] = true
	return nil
}

func (h *Handler) offset(head *ptp.SubTLVHead, msg []byte, pos int, counts *subTLVCounts) error {
	if int(head.Length) != ptp.OffsetLength {
		return fmt.Errorf("%w: %s length %d, want %d", ErrSubTLVLength, head.Type, head.Length, ptp.OffsetLength)
	}
	o := ptp.OffsetSubTLV{}
	if err := o.UnmarshalBinary(msg[pos:]); err != nil {
		return fmt.Errorf("%w: %w", ErrSubTLVLength, err)
	}
	idx := h.offsetIndex(o.TimeDomain)
	if idx < 0 {
		counts.seen[ptp.SubTLVKindOffset]++
		if counts.seen[ptp.SubTLVKindOffset] > MaxOffsets {
			return fmt.Errorf("%w: %s", ErrSubTLVCount, ptp.SubTLVKindOffset)
		}
		log.Debugf("ignoring offset sub-TLV of unconfigured domain %d", o.TimeDomain)
		return nil
	}
	if h.offsets[idx].updated {
		return fmt.Errorf("%w: domain %d", ErrDuplicateOffset, o.TimeDomain)
	}
	cfg := &h.offsetCfg[idx]
	if err := h.admit(head, subTLVPolicy{cfg.CRC, cfg.TimeBaseID}, msg, pos, counts, MaxOffsets); err != nil {
		return err
	}
	if o.UserDataLength > ptp.MaxUserDataLength {
		return fmt.Errorf("%w: domain %d length %d", ErrUserData, o.TimeDomain, o.UserDataLength)
	}
	if !o.Time.Valid() {
		return fmt.Errorf("%w: domain %d %v", ErrOffsetTime, o.TimeDomain, o.Time)
	}
	h.offsets[idx] = offsetTime{
		ts:          o.Time,
		userData:    timebase.UserData{Length: o.UserDataLength, Bytes: o.UserData},
		hasUserData: o.UserDataLength > 0,
		updated:     true,
	}
	counts.found[ptp.SubTLVKindOffset] = true
	return nil
}

// sumCorrections adds non-negative terms, failing on overflow
func sumCorrections(terms ...time.Duration) (time.Duration, error) {
	var total time.Duration
	for _, t := range terms {
		if t < 0 {
			return 0, fmt.Errorf("%w: %v", ErrInvalidTerm, t)
		}
		if total > math.MaxInt64-t {
			return 0, fmt.Errorf("%w: sum of corrections", ErrOverflow)
		}
		total += t
	}
	return total, nil
}

// Process computes global time of a validated Follow_Up and submits it to the time base authority.
// Offset times and timing evidence are submitted only after the authority accepted global time.
func (h *Handler) Process(info *RxTimeInfo, hdr *ptp.Header, msg []byte) error {
	if !info.Valid {
		return ErrInvalidRxTime
	}
	pathDelay, err := h.pathDelay.PathDelay()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPathDelay, err)
	}
	cf := time.Duration(hdr.CorrectionField.Nanoseconds48())
	total, err := sumCorrections(info.SinceIngress, info.Residence, cf, pathDelay)
	if err != nil {
		return err
	}
	pot, err := ptp.PreciseOriginTimestamp(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPreciseOriginTimestamp, err)
	}
	global, err := pot.Add(total)
	if err != nil {
		return fmt.Errorf("%w: %v + %v: %w", ErrOverflow, pot, total, err)
	}

	status := timebase.StatusSyncToGrandmaster
	var userData *timebase.UserData
	if h.cfg.TLVCheck {
		status = h.status
		if h.hasUserData {
			userData = &h.userData
		}
	}
	if err := h.authority.SetGlobalTime(h.cfg.TimeBaseID, global, status, userData, timebase.Measurement{PathDelay: pathDelay}, info.VLT); err != nil {
		return fmt.Errorf("time base %d rejected %v: %w", h.cfg.TimeBaseID, global, err)
	}

	if h.cfg.TimeValidation {
		h.timing = timebase.SlaveTimingData{
			SequenceID:             hdr.SequenceID,
			SourcePortIdentity:     hdr.SourcePortIdentity,
			SyncIngress:            info.Ingress,
			PreciseOriginTimestamp: pot,
			CorrectionField:        hdr.CorrectionField,
			PathDelay:              pathDelay,
		}
		if err := h.authority.SetSlaveTimingData(h.cfg.TimeBaseID, &h.timing); err != nil {
			log.Warningf("time base %d rejected slave timing data: %v", h.cfg.TimeBaseID, err)
		}
	}

	for i := 0; i < h.numOffsets; i++ {
		o := &h.offsets[i]
		if !o.updated {
			continue
		}
		var ud *timebase.UserData
		if o.hasUserData {
			ud = &o.userData
		}
		id := h.offsetCfg[i].TimeBaseID
		if err := h.authority.SetOffsetTime(id, o.ts, ud, timebase.Measurement{}); err != nil {
			log.Warningf("offset time base %d rejected %v: %v", id, o.ts, err)
		}
	}
	return nil
}
