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

// Package protocol implements decoding and encoding of the gPTP (IEEE 802.1AS) messages
// a time slave receives: Sync, Follow_Up and Announce, together with the TLVs they carry.
// All decoding is done at fixed offsets into the received buffer, without allocations.
package protocol

// all references are given for IEEE 802.1AS-2020 and IEEE 1588-2019

import (
	"encoding/binary"
	"fmt"
)

// Version is what version of PTP protocol we implement
const Version uint8 = 2

// EtherType of gPTP frames
const EtherType = 0x88F7

// Message sizes as per IEEE 802.1AS clause 11.4 and 10.6
const (
	HeaderSize = 34
	// Sync carries 10 reserved bytes after the header on two-step links
	SyncLength = HeaderSize + 10
	// Follow_Up carries preciseOriginTimestamp and the mandatory Follow_Up information TLV
	FollowUpLength = HeaderSize + timestampSize + FollowUpInformationTLVSize
	// Announce without PATH_TRACE TLV
	AnnounceLength = HeaderSize + 30
)

const timestampSize = 10

// Header Table 35 Common PTP message header
type Header struct {
	SdoIDAndMsgType     SdoIDAndMsgType // first 4 bits is SdoId, next 4 bytes are msgtype
	Version             uint8
	MessageLength       uint16
	DomainNumber        uint8
	MinorSdoID          uint8
	FlagField           uint16
	CorrectionField     Correction
	MessageTypeSpecific uint32
	SourcePortIdentity  PortIdentity
	SequenceID          uint16
	ControlField        uint8
	LogMessageInterval  LogInterval
}

// MessageType returns MessageType
func (p *Header) MessageType() MessageType {
	return p.SdoIDAndMsgType.MsgType()
}

// UnmarshalBinary decodes the common header from b.
// MessageLength must fit into b and be at least the header size.
func (p *Header) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return fmt.Errorf("not enough data to decode PTP header: %d bytes", len(b))
	}
	p.SdoIDAndMsgType = SdoIDAndMsgType(b[0])
	p.Version = b[1]
	p.MessageLength = binary.BigEndian.Uint16(b[2:])
	p.DomainNumber = b[4]
	p.MinorSdoID = b[5]
	p.FlagField = binary.BigEndian.Uint16(b[6:])
	p.CorrectionField = Correction(binary.BigEndian.Uint64(b[8:]))
	p.MessageTypeSpecific = binary.BigEndian.Uint32(b[16:])
	p.SourcePortIdentity.ClockIdentity = ClockIdentity(binary.BigEndian.Uint64(b[20:]))
	p.SourcePortIdentity.PortNumber = binary.BigEndian.Uint16(b[28:])
	p.SequenceID = binary.BigEndian.Uint16(b[30:])
	p.ControlField = b[32]
	p.LogMessageInterval = LogInterval(b[33])
	if int(p.MessageLength) < HeaderSize {
		return fmt.Errorf("messageLength %d is shorter than PTP header", p.MessageLength)
	}
	if int(p.MessageLength) > len(b) {
		return fmt.Errorf("messageLength %d exceeds %d received bytes", p.MessageLength, len(b))
	}
	return nil
}

// MarshalBinaryTo encodes the header into b, which must hold at least HeaderSize bytes
func (p *Header) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, fmt.Errorf("not enough buffer to write PTP header")
	}
	b[0] = byte(p.SdoIDAndMsgType)
	b[1] = p.Version
	binary.BigEndian.PutUint16(b[2:], p.MessageLength)
	b[4] = p.DomainNumber
	b[5] = p.MinorSdoID
	binary.BigEndian.PutUint16(b[6:], p.FlagField)
	binary.BigEndian.PutUint64(b[8:], uint64(p.CorrectionField))
	binary.BigEndian.PutUint32(b[16:], p.MessageTypeSpecific)
	binary.BigEndian.PutUint64(b[20:], uint64(p.SourcePortIdentity.ClockIdentity))
	binary.BigEndian.PutUint16(b[28:], p.SourcePortIdentity.PortNumber)
	binary.BigEndian.PutUint16(b[30:], p.SequenceID)
	b[32] = p.ControlField
	b[33] = byte(p.LogMessageInterval)
	return HeaderSize, nil
}

// DecodeHeader is a convenience wrapper returning the decoded header of a gPTP message
func DecodeHeader(b []byte) (*Header, error) {
	h := &Header{}
	if err := h.UnmarshalBinary(b); err != nil {
		return nil, err
	}
	return h, nil
}

func unmarshalTimestamp(t *Timestamp, b []byte) {
	copy(t.Seconds[:], b[:6])
	t.Nanoseconds = binary.BigEndian.Uint32(b[6:])
}

func marshalTimestamp(t *Timestamp, b []byte) {
	copy(b[:6], t.Seconds[:])
	binary.BigEndian.PutUint32(b[6:], t.Nanoseconds)
}

// AnnounceBody IEEE 802.1AS Table 10-9 Announce message fields
type AnnounceBody struct {
	CurrentUTCOffset        int16
	GrandmasterPriority1    uint8
	GrandmasterClockQuality ClockQuality
	GrandmasterPriority2    uint8
	GrandmasterIdentity     ClockIdentity
	StepsRemoved            uint16
	TimeSource              uint8
}

// UnmarshalBinary decodes Announce body from a complete message b, header included
func (a *AnnounceBody) UnmarshalBinary(b []byte) error {
	if len(b) < AnnounceLength {
		return fmt.Errorf("not enough data to decode Announce: %d bytes", len(b))
	}
	// 10 reserved bytes follow the header
	p := b[HeaderSize+10:]
	a.CurrentUTCOffset = int16(binary.BigEndian.Uint16(p[0:]))
	// 1 reserved byte
	a.GrandmasterPriority1 = p[3]
	a.GrandmasterClockQuality.ClockClass = p[4]
	a.GrandmasterClockQuality.ClockAccuracy = p[5]
	a.GrandmasterClockQuality.OffsetScaledLogVariance = binary.BigEndian.Uint16(p[6:])
	a.GrandmasterPriority2 = p[8]
	a.GrandmasterIdentity = ClockIdentity(binary.BigEndian.Uint64(p[9:]))
	a.StepsRemoved = binary.BigEndian.Uint16(p[17:])
	a.TimeSource = p[19]
	return nil
}

// MarshalBinaryTo encodes Announce body into b at the position following the header
func (a *AnnounceBody) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < AnnounceLength {
		return 0, fmt.Errorf("not enough buffer to write Announce")
	}
	p := b[HeaderSize:]
	for i := 0; i < 10; i++ {
		p[i] = 0
	}
	p = p[10:]
	binary.BigEndian.PutUint16(p[0:], uint16(a.CurrentUTCOffset))
	p[2] = 0
	p[3] = a.GrandmasterPriority1
	p[4] = a.GrandmasterClockQuality.ClockClass
	p[5] = a.GrandmasterClockQuality.ClockAccuracy
	binary.BigEndian.PutUint16(p[6:], a.GrandmasterClockQuality.OffsetScaledLogVariance)
	p[8] = a.GrandmasterPriority2
	binary.BigEndian.PutUint64(p[9:], uint64(a.GrandmasterIdentity))
	binary.BigEndian.PutUint16(p[17:], a.StepsRemoved)
	p[19] = a.TimeSource
	return AnnounceLength, nil
}

// FollowUpBody IEEE 802.1AS Table 11-10 Follow_Up message fields
type FollowUpBody struct {
	PreciseOriginTimestamp Timestamp
	Information            FollowUpInformationTLV
}

// UnmarshalBinary decodes Follow_Up body from a complete message b, header included
func (f *FollowUpBody) UnmarshalBinary(b []byte) error {
	if len(b) < FollowUpLength {
		return fmt.Errorf("not enough data to decode Follow_Up: %d bytes", len(b))
	}
	unmarshalTimestamp(&f.PreciseOriginTimestamp, b[HeaderSize:])
	return f.Information.UnmarshalBinary(b[HeaderSize+timestampSize:])
}

// MarshalBinaryTo encodes Follow_Up body into b at the position following the header
func (f *FollowUpBody) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < FollowUpLength {
		return 0, fmt.Errorf("not enough buffer to write Follow_Up")
	}
	marshalTimestamp(&f.PreciseOriginTimestamp, b[HeaderSize:])
	if _, err := f.Information.MarshalBinaryTo(b[HeaderSize+timestampSize:]); err != nil {
		return 0, err
	}
	return FollowUpLength, nil
}

// PreciseOriginTimestamp reads preciseOriginTimestamp of a Follow_Up without decoding the rest
func PreciseOriginTimestamp(b []byte) (Timestamp, error) {
	t := Timestamp{}
	if len(b) < HeaderSize+timestampSize {
		return t, fmt.Errorf("not enough data to decode preciseOriginTimestamp")
	}
	unmarshalTimestamp(&t, b[HeaderSize:])
	return t, nil
}
