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

package protocol

import (
	"encoding/binary"
	"fmt"
)

const tlvHeadSize = 4

// TLVHead is a common part of all TLVs
type TLVHead struct {
	TLVType     TLVType
	LengthField uint16
}

// Type implements TLV interface
func (t TLVHead) Type() TLVType {
	return t.TLVType
}

// UnmarshalBinary decodes type and length of any TLV
func (t *TLVHead) UnmarshalBinary(b []byte) error {
	return unmarshalTLVHeader(t, b)
}

// Size is the number of bytes the whole TLV occupies
func (t TLVHead) Size() int {
	return tlvHeadSize + int(t.LengthField)
}

func tlvHeadMarshalBinaryTo(t *TLVHead, b []byte) {
	binary.BigEndian.PutUint16(b, uint16(t.TLVType))
	binary.BigEndian.PutUint16(b[2:], t.LengthField)
}

func unmarshalTLVHeader(p *TLVHead, b []byte) error {
	if len(b) < tlvHeadSize {
		return fmt.Errorf("not enough data to decode TLV header")
	}
	p.TLVType = TLVType(binary.BigEndian.Uint16(b[0:]))
	p.LengthField = binary.BigEndian.Uint16(b[2:])
	return nil
}

func checkTLVLength(p *TLVHead, l, want int, strict bool) error {
	if strict && int(p.LengthField) != want {
		return fmt.Errorf("expected TLV of type %s (%d) to have length of %d, got %d in the header", p.TLVType, p.TLVType, want, p.LengthField)
	}

	if int(p.LengthField) < want {
		return fmt.Errorf("expected TLV of type %s (%d) to have length of at least %d, got %d in the header", p.TLVType, p.TLVType, want, p.LengthField)
	}
	if tlvHeadSize+int(p.LengthField) > l {
		return fmt.Errorf("cannot decode TLV of length %d from %d bytes", tlvHeadSize+int(p.LengthField), l)
	}
	return nil
}

// PathTraceElementSize is the size of one clock identity in PATH_TRACE TLV
const PathTraceElementSize = 8

// PathTraceTLV Table 115 PATH_TRACE TLV format.
// It is a view over the received bytes, identities are read on demand.
type PathTraceTLV struct {
	TLVHead
	// The value of the lengthField is 8N.
	pathSequence []byte
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *PathTraceTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if t.TLVType != TLVPathTrace {
		return fmt.Errorf("expected TLV of type %s, got %d", TLVPathTrace, t.TLVType)
	}
	if err := checkTLVLength(&t.TLVHead, len(b), 0, false); err != nil {
		return err
	}
	if t.LengthField%PathTraceElementSize != 0 {
		return fmt.Errorf("PATH_TRACE length %d is not a multiple of %d", t.LengthField, PathTraceElementSize)
	}
	t.pathSequence = b[tlvHeadSize : tlvHeadSize+int(t.LengthField)]
	return nil
}

// Len returns number of clock identities in the path
func (t *PathTraceTLV) Len() int {
	return len(t.pathSequence) / PathTraceElementSize
}

// Identity returns i-th clock identity of the path
func (t *PathTraceTLV) Identity(i int) ClockIdentity {
	return ClockIdentity(binary.BigEndian.Uint64(t.pathSequence[i*PathTraceElementSize:]))
}

// Contains reports whether id is present anywhere in the path
func (t *PathTraceTLV) Contains(id ClockIdentity) bool {
	for i := 0; i < t.Len(); i++ {
		if t.Identity(i) == id {
			return true
		}
	}
	return false
}

// MarshalPathTrace writes PATH_TRACE TLV with given identities into b
func MarshalPathTrace(path []ClockIdentity, b []byte) (int, error) {
	size := tlvHeadSize + len(path)*PathTraceElementSize
	if len(b) < size {
		return 0, fmt.Errorf("not enough buffer to write PATH_TRACE")
	}
	tlvHeadMarshalBinaryTo(&TLVHead{TLVType: TLVPathTrace, LengthField: uint16(len(path) * PathTraceElementSize)}, b)
	pos := tlvHeadSize
	for _, id := range path {
		binary.BigEndian.PutUint64(b[pos:], uint64(id))
		pos += PathTraceElementSize
	}
	return pos, nil
}

// IEEE 802.1AS 11.4.4.3 Follow_Up information TLV
const (
	FollowUpInformationTLVSize            = 32
	followUpInformationLength             = 28
	FollowUpInformationOrganizationID     = 0x0080C2
	FollowUpInformationOrganizationSubType = 1
)

// FollowUpInformationTLV carries rate ratio and grandmaster change information
type FollowUpInformationTLV struct {
	TLVHead
	OrganizationID             uint32 // 24 bits
	OrganizationSubType        uint32 // 24 bits
	CumulativeScaledRateOffset int32
	GmTimeBaseIndicator        uint16
	LastGmPhaseChange          [12]uint8
	ScaledLastGmFreqChange     int32
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *FollowUpInformationTLV) UnmarshalBinary(b []byte) error {
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	if err := checkTLVLength(&t.TLVHead, len(b), followUpInformationLength, true); err != nil {
		return err
	}
	t.OrganizationID = uint24(b[4:])
	t.OrganizationSubType = uint24(b[7:])
	t.CumulativeScaledRateOffset = int32(binary.BigEndian.Uint32(b[10:]))
	t.GmTimeBaseIndicator = binary.BigEndian.Uint16(b[14:])
	copy(t.LastGmPhaseChange[:], b[16:28])
	t.ScaledLastGmFreqChange = int32(binary.BigEndian.Uint32(b[28:]))
	return nil
}

// MarshalBinaryTo marshals FollowUpInformationTLV into b
func (t *FollowUpInformationTLV) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < FollowUpInformationTLVSize {
		return 0, fmt.Errorf("not enough buffer to write Follow_Up information TLV")
	}
	t.TLVType = TLVOrganizationExtension
	t.LengthField = followUpInformationLength
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	putUint24(b[4:], t.OrganizationID)
	putUint24(b[7:], t.OrganizationSubType)
	binary.BigEndian.PutUint32(b[10:], uint32(t.CumulativeScaledRateOffset))
	binary.BigEndian.PutUint16(b[14:], t.GmTimeBaseIndicator)
	copy(b[16:28], t.LastGmPhaseChange[:])
	binary.BigEndian.PutUint32(b[28:], uint32(t.ScaledLastGmFreqChange))
	return FollowUpInformationTLVSize, nil
}

func uint24(b []byte) uint32 {
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}
