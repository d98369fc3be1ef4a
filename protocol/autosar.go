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

// AUTOSAR time synchronization over Ethernet extends Follow_Up with an organization TLV
// carrying a sequence of sub-TLVs. The TLV follows the Follow_Up information TLV.
const (
	AutosarOrganizationID      = 0x1A75FB
	AutosarOrganizationSubType = 0x605676
	// AutosarTLVHeaderSize is tlvType, lengthField, organizationId and organizationSubType
	AutosarTLVHeaderSize = 10
	// AutosarOrgFieldsSize is the part of lengthField taken by organizationId and organizationSubType
	AutosarOrgFieldsSize = 6
	// AutosarTLVOffset is where the organization TLV starts in a Follow_Up
	AutosarTLVOffset = FollowUpLength
	// SubTLVHeadSize is type and length of a sub-TLV
	SubTLVHeadSize = 2
)

// SubTLVType is a type of AUTOSAR sub-TLV
type SubTLVType uint8

// AUTOSAR sub-TLV types
const (
	SubTLVTimeSecured        SubTLVType = 0x28
	SubTLVStatusSecured      SubTLVType = 0x50
	SubTLVStatusNotSecured   SubTLVType = 0x51
	SubTLVUserDataSecured    SubTLVType = 0x60
	SubTLVUserDataNotSecured SubTLVType = 0x61
	SubTLVOffsetSecured      SubTLVType = 0x44
	SubTLVOffsetNotSecured   SubTLVType = 0x34
)

// SubTLVTypeToString is a map from SubTLVType to string
var SubTLVTypeToString = map[SubTLVType]string{
	SubTLVTimeSecured:        "TIME_SECURED",
	SubTLVStatusSecured:      "STATUS_SECURED",
	SubTLVStatusNotSecured:   "STATUS_NOT_SECURED",
	SubTLVUserDataSecured:    "USER_DATA_SECURED",
	SubTLVUserDataNotSecured: "USER_DATA_NOT_SECURED",
	SubTLVOffsetSecured:      "OFS_SECURED",
	SubTLVOffsetNotSecured:   "OFS_NOT_SECURED",
}

func (t SubTLVType) String() string {
	if s, ok := SubTLVTypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(t))
}

// SubTLVKind groups secured and not secured variants of the same sub-TLV
type SubTLVKind uint8

// Sub-TLV kinds
const (
	SubTLVKindUnknown SubTLVKind = iota
	SubTLVKindTimeSecured
	SubTLVKindStatus
	SubTLVKindUserData
	SubTLVKindOffset
)

// Payload lengths of the sub-TLVs, sub-TLV header excluded
const (
	TimeSecuredLength = 3
	StatusLength      = 2
	UserDataLength    = 5
	OffsetLength      = 17
)

// Kind returns the kind of the sub-TLV type
func (t SubTLVType) Kind() SubTLVKind {
	switch t {
	case SubTLVTimeSecured:
		return SubTLVKindTimeSecured
	case SubTLVStatusSecured, SubTLVStatusNotSecured:
		return SubTLVKindStatus
	case SubTLVUserDataSecured, SubTLVUserDataNotSecured:
		return SubTLVKindUserData
	case SubTLVOffsetSecured, SubTLVOffsetNotSecured:
		return SubTLVKindOffset
	}
	return SubTLVKindUnknown
}

// Secured reports whether sub-TLV of this type carries a CRC
func (t SubTLVType) Secured() bool {
	switch t {
	case SubTLVTimeSecured, SubTLVStatusSecured, SubTLVUserDataSecured, SubTLVOffsetSecured:
		return true
	}
	return false
}

// Length returns the fixed payload length of the sub-TLV kind, 0 for unknown
func (k SubTLVKind) Length() int {
	switch k {
	case SubTLVKindTimeSecured:
		return TimeSecuredLength
	case SubTLVKindStatus:
		return StatusLength
	case SubTLVKindUserData:
		return UserDataLength
	case SubTLVKindOffset:
		return OffsetLength
	}
	return 0
}

func (k SubTLVKind) String() string {
	switch k {
	case SubTLVKindTimeSecured:
		return "TimeSecured"
	case SubTLVKindStatus:
		return "Status"
	case SubTLVKindUserData:
		return "UserData"
	case SubTLVKindOffset:
		return "Offset"
	}
	return "Unknown"
}

// CRC_Time_Flags select which Follow_Up fields are covered by CRC_Time_0 and CRC_Time_1
const (
	CRCTimeFlagMessageLength          uint8 = 1 << 0
	CRCTimeFlagDomainNumber           uint8 = 1 << 1
	CRCTimeFlagCorrectionField        uint8 = 1 << 2
	CRCTimeFlagSourcePortIdentity     uint8 = 1 << 3
	CRCTimeFlagSequenceID             uint8 = 1 << 4
	CRCTimeFlagPreciseOriginTimestamp uint8 = 1 << 5
)

// StatusSyncToGateway is the SGW bit of sub-TLV status: time base is synchronized to a sub-domain
const StatusSyncToGateway uint8 = 1 << 0

// MaxUserDataLength is the number of user data bytes a sub-TLV can carry
const MaxUserDataLength = 3

// AutosarTLV is the header of the AUTOSAR organization TLV
type AutosarTLV struct {
	TLVHead
	OrganizationID      uint32 // 24 bits
	OrganizationSubType uint32 // 24 bits
}

// UnmarshalBinary decodes the organization TLV header, b starts at tlvType
func (t *AutosarTLV) UnmarshalBinary(b []byte) error {
	if len(b) < AutosarTLVHeaderSize {
		return fmt.Errorf("not enough data to decode AUTOSAR TLV header")
	}
	if err := unmarshalTLVHeader(&t.TLVHead, b); err != nil {
		return err
	}
	t.OrganizationID = uint24(b[4:])
	t.OrganizationSubType = uint24(b[7:])
	return nil
}

// MarshalBinaryTo encodes the organization TLV header into b
func (t *AutosarTLV) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < AutosarTLVHeaderSize {
		return 0, fmt.Errorf("not enough buffer to write AUTOSAR TLV header")
	}
	tlvHeadMarshalBinaryTo(&t.TLVHead, b)
	putUint24(b[4:], t.OrganizationID)
	putUint24(b[7:], t.OrganizationSubType)
	return AutosarTLVHeaderSize, nil
}

// SubTLVLength returns the length of the sub-TLV sequence declared by lengthField
func (t *AutosarTLV) SubTLVLength() int {
	return int(t.LengthField) - AutosarOrgFieldsSize
}

// SubTLVHead is a common part of all sub-TLVs
type SubTLVHead struct {
	Type   SubTLVType
	Length uint8
}

// UnmarshalBinary decodes sub-TLV header
func (h *SubTLVHead) UnmarshalBinary(b []byte) error {
	if len(b) < SubTLVHeadSize {
		return fmt.Errorf("not enough data to decode sub-TLV header")
	}
	h.Type = SubTLVType(b[0])
	h.Length = b[1]
	return nil
}

func (h *SubTLVHead) marshalBinaryTo(b []byte, length int) {
	h.Length = uint8(length)
	b[0] = byte(h.Type)
	b[1] = h.Length
}

func checkSubTLV(h *SubTLVHead, b []byte, want int) error {
	if err := h.UnmarshalBinary(b); err != nil {
		return err
	}
	if int(h.Length) != want {
		return fmt.Errorf("expected sub-TLV %s to have length of %d, got %d", h.Type, want, h.Length)
	}
	if len(b) < SubTLVHeadSize+want {
		return fmt.Errorf("cannot decode sub-TLV %s of length %d from %d bytes", h.Type, want, len(b))
	}
	return nil
}

// TimeSecuredSubTLV protects header and preciseOriginTimestamp fields of Follow_Up
type TimeSecuredSubTLV struct {
	SubTLVHead
	CRCTimeFlags uint8
	CRCTime0     uint8
	CRCTime1     uint8
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *TimeSecuredSubTLV) UnmarshalBinary(b []byte) error {
	if err := checkSubTLV(&t.SubTLVHead, b, TimeSecuredLength); err != nil {
		return err
	}
	t.CRCTimeFlags = b[2]
	t.CRCTime0 = b[3]
	t.CRCTime1 = b[4]
	return nil
}

// MarshalBinaryTo marshals TimeSecuredSubTLV into b
func (t *TimeSecuredSubTLV) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < SubTLVHeadSize+TimeSecuredLength {
		return 0, fmt.Errorf("not enough buffer to write %s", t.Type)
	}
	t.marshalBinaryTo(b, TimeSecuredLength)
	b[2] = t.CRCTimeFlags
	b[3] = t.CRCTime0
	b[4] = t.CRCTime1
	return SubTLVHeadSize + TimeSecuredLength, nil
}

// StatusSubTLV carries time base status
type StatusSubTLV struct {
	SubTLVHead
	Status uint8
	CRC    uint8 // reserved if not secured
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *StatusSubTLV) UnmarshalBinary(b []byte) error {
	if err := checkSubTLV(&t.SubTLVHead, b, StatusLength); err != nil {
		return err
	}
	t.Status = b[2]
	t.CRC = b[3]
	return nil
}

// MarshalBinaryTo marshals StatusSubTLV into b
func (t *StatusSubTLV) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < SubTLVHeadSize+StatusLength {
		return 0, fmt.Errorf("not enough buffer to write %s", t.Type)
	}
	t.marshalBinaryTo(b, StatusLength)
	b[2] = t.Status
	b[3] = t.CRC
	return SubTLVHeadSize + StatusLength, nil
}

// UserDataSubTLV carries up to 3 bytes of user data
type UserDataSubTLV struct {
	SubTLVHead
	UserDataLength uint8
	UserData       [MaxUserDataLength]uint8
	CRC            uint8 // reserved if not secured
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *UserDataSubTLV) UnmarshalBinary(b []byte) error {
	if err := checkSubTLV(&t.SubTLVHead, b, UserDataLength); err != nil {
		return err
	}
	t.UserDataLength = b[2]
	copy(t.UserData[:], b[3:6])
	t.CRC = b[6]
	return nil
}

// MarshalBinaryTo marshals UserDataSubTLV into b
func (t *UserDataSubTLV) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < SubTLVHeadSize+UserDataLength {
		return 0, fmt.Errorf("not enough buffer to write %s", t.Type)
	}
	t.marshalBinaryTo(b, UserDataLength)
	b[2] = t.UserDataLength
	copy(b[3:6], t.UserData[:])
	b[6] = t.CRC
	return SubTLVHeadSize + UserDataLength, nil
}

// OffsetSubTLV carries time of an offset time domain
type OffsetSubTLV struct {
	SubTLVHead
	TimeDomain     uint8
	Time           Timestamp
	Status         uint8
	UserDataLength uint8
	UserData       [MaxUserDataLength]uint8
	CRC            uint8 // reserved if not secured
}

// UnmarshalBinary parses []byte and populates struct fields
func (t *OffsetSubTLV) UnmarshalBinary(b []byte) error {
	if err := checkSubTLV(&t.SubTLVHead, b, OffsetLength); err != nil {
		return err
	}
	t.TimeDomain = b[2]
	copy(t.Time.Seconds[:], b[3:9])
	t.Time.Nanoseconds = binary.BigEndian.Uint32(b[9:])
	t.Status = b[13]
	t.UserDataLength = b[14]
	copy(t.UserData[:], b[15:18])
	t.CRC = b[18]
	return nil
}

// MarshalBinaryTo marshals OffsetSubTLV into b
func (t *OffsetSubTLV) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < SubTLVHeadSize+OffsetLength {
		return 0, fmt.Errorf("not enough buffer to write %s", t.Type)
	}
	t.marshalBinaryTo(b, OffsetLength)
	b[2] = t.TimeDomain
	copy(b[3:9], t.Time.Seconds[:])
	binary.BigEndian.PutUint32(b[9:], t.Time.Nanoseconds)
	b[13] = t.Status
	b[14] = t.UserDataLength
	copy(b[15:18], t.UserData[:])
	b[18] = t.CRC
	return SubTLVHeadSize + OffsetLength, nil
}

// MarshalAutosarTLV writes the organization TLV header followed by encoded sub-TLVs into b
func MarshalAutosarTLV(subTLVs []byte, b []byte) (int, error) {
	size := AutosarTLVHeaderSize + len(subTLVs)
	if len(b) < size {
		return 0, fmt.Errorf("not enough buffer to write AUTOSAR TLV")
	}
	t := AutosarTLV{
		TLVHead:             TLVHead{TLVType: TLVOrganizationExtension, LengthField: uint16(AutosarOrgFieldsSize + len(subTLVs))},
		OrganizationID:      AutosarOrganizationID,
		OrganizationSubType: AutosarOrganizationSubType,
	}
	if _, err := t.MarshalBinaryTo(b); err != nil {
		return 0, err
	}
	copy(b[AutosarTLVHeaderSize:], subTLVs)
	return size, nil
}
