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
Package slavetest provides builders of gPTP frames for tests of the slave and its tools.
*/
package slavetest

import (
	"encoding/binary"

	ptp "github.com/facebook/gptp/protocol"
)

// Master is the port identity used by default in built frames
var Master = ptp.PortIdentity{ClockIdentity: 0x001b19fffe000001, PortNumber: 1}

func header(t ptp.MessageType, length int, src ptp.PortIdentity, seq uint16) ptp.Header {
	return ptp.Header{
		SdoIDAndMsgType:    ptp.NewSdoIDAndMsgType(t, 1),
		Version:            ptp.Version,
		MessageLength:      uint16(length),
		SourcePortIdentity: src,
		SequenceID:         seq,
		LogMessageInterval: -3,
	}
}

// Sync returns a two-step Sync frame
func Sync(src ptp.PortIdentity, seq uint16) []byte {
	b := make([]byte, ptp.SyncLength)
	h := header(ptp.MessageSync, ptp.SyncLength, src, seq)
	h.FlagField = 0x0208
	if _, err := h.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	return b
}

// FollowUp returns a Follow_Up frame. Without sub-TLVs no AUTOSAR TLV is added.
func FollowUp(src ptp.PortIdentity, seq uint16, pot ptp.Timestamp, cf ptp.Correction, subTLVs ...[]byte) []byte {
	var sub []byte
	for _, s := range subTLVs {
		sub = append(sub, s...)
	}
	length := ptp.FollowUpLength
	if len(subTLVs) > 0 {
		length += ptp.AutosarTLVHeaderSize + len(sub)
	}
	b := make([]byte, length)
	h := header(ptp.MessageFollowUp, length, src, seq)
	h.CorrectionField = cf
	if _, err := h.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	body := ptp.FollowUpBody{
		PreciseOriginTimestamp: pot,
		Information: ptp.FollowUpInformationTLV{
			OrganizationID:      ptp.FollowUpInformationOrganizationID,
			OrganizationSubType: ptp.FollowUpInformationOrganizationSubType,
		},
	}
	if _, err := body.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	if len(subTLVs) > 0 {
		if _, err := ptp.MarshalAutosarTLV(sub, b[ptp.AutosarTLVOffset:]); err != nil {
			panic(err)
		}
	}
	return b
}

// Announce returns an Announce frame with a PATH_TRACE TLV when path is not nil
func Announce(src ptp.PortIdentity, seq uint16, gm ptp.ClockIdentity, stepsRemoved uint16, path []ptp.ClockIdentity) []byte {
	length := ptp.AnnounceLength
	if path != nil {
		length += 4 + len(path)*ptp.PathTraceElementSize
	}
	b := make([]byte, length)
	h := header(ptp.MessageAnnounce, length, src, seq)
	h.LogMessageInterval = 0
	if _, err := h.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	body := ptp.AnnounceBody{
		GrandmasterPriority1: 246,
		GrandmasterClockQuality: ptp.ClockQuality{
			ClockClass:              248,
			ClockAccuracy:           0xfe,
			OffsetScaledLogVariance: 0x4100,
		},
		GrandmasterPriority2: 248,
		GrandmasterIdentity:  gm,
		StepsRemoved:         stepsRemoved,
		TimeSource:           0xa0,
	}
	if _, err := body.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	if path != nil {
		if _, err := ptp.MarshalPathTrace(path, b[ptp.AnnounceLength:]); err != nil {
			panic(err)
		}
	}
	return b
}

// TimeSecured returns encoded TimeSecured sub-TLV
func TimeSecured(flags, crc0, crc1 uint8) []byte {
	b := make([]byte, ptp.SubTLVHeadSize+ptp.TimeSecuredLength)
	s := ptp.TimeSecuredSubTLV{
		SubTLVHead:   ptp.SubTLVHead{Type: ptp.SubTLVTimeSecured},
		CRCTimeFlags: flags,
		CRCTime0:     crc0,
		CRCTime1:     crc1,
	}
	if _, err := s.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	return b
}

// Status returns encoded Status sub-TLV of type t
func Status(t ptp.SubTLVType, status, crc uint8) []byte {
	b := make([]byte, ptp.SubTLVHeadSize+ptp.StatusLength)
	s := ptp.StatusSubTLV{SubTLVHead: ptp.SubTLVHead{Type: t}, Status: status, CRC: crc}
	if _, err := s.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	return b
}

// UserData returns encoded UserData sub-TLV of type t
func UserData(t ptp.SubTLVType, data []byte, crc uint8) []byte {
	b := make([]byte, ptp.SubTLVHeadSize+ptp.UserDataLength)
	s := ptp.UserDataSubTLV{SubTLVHead: ptp.SubTLVHead{Type: t}, UserDataLength: uint8(len(data)), CRC: crc}
	copy(s.UserData[:], data)
	if _, err := s.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	return b
}

// Offset returns encoded Offset sub-TLV of type t
func Offset(t ptp.SubTLVType, domain uint8, ts ptp.Timestamp, status uint8, data []byte, crc uint8) []byte {
	b := make([]byte, ptp.SubTLVHeadSize+ptp.OffsetLength)
	s := ptp.OffsetSubTLV{
		SubTLVHead:     ptp.SubTLVHead{Type: t},
		TimeDomain:     domain,
		Time:           ts,
		Status:         status,
		UserDataLength: uint8(len(data)),
		CRC:            crc,
	}
	copy(s.UserData[:], data)
	if _, err := s.MarshalBinaryTo(b); err != nil {
		panic(err)
	}
	return b
}

// Raw returns a sub-TLV of arbitrary type and payload
func Raw(t uint8, payload ...byte) []byte {
	return append([]byte{t, uint8(len(payload))}, payload...)
}

// SetMessageLength overwrites messageLength of frame b
func SetMessageLength(b []byte, length int) {
	binary.BigEndian.PutUint16(b[2:], uint16(length))
}
