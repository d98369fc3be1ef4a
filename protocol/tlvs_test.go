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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTLVHead(t *testing.T) {
	h := TLVHead{}
	require.NoError(t, h.UnmarshalBinary([]byte{0x00, 0x03, 0x00, 0x04, 1, 2}))
	require.Equal(t, TLVOrganizationExtension, h.Type())
	require.Equal(t, 8, h.Size())
	require.Error(t, h.UnmarshalBinary([]byte{0x00, 0x08, 0x00}))
}

func TestPathTraceTLV(t *testing.T) {
	path := []ClockIdentity{0x001b19fffe000001, 0x4857ddfffe086488}
	b := make([]byte, 4+16)
	n, err := MarshalPathTrace(path, b)
	require.NoError(t, err)
	require.Equal(t, 20, n)
	require.Equal(t, []byte{0x00, 0x08, 0x00, 0x10}, b[:4])

	tlv := PathTraceTLV{}
	require.NoError(t, tlv.UnmarshalBinary(b))
	require.Equal(t, 2, tlv.Len())
	require.Equal(t, path[0], tlv.Identity(0))
	require.Equal(t, path[1], tlv.Identity(1))
	require.True(t, tlv.Contains(0x4857ddfffe086488))
	require.False(t, tlv.Contains(42))

	_, err = MarshalPathTrace(path, b[:10])
	require.Error(t, err)
}

func TestPathTraceTLVEmpty(t *testing.T) {
	b := make([]byte, 4)
	_, err := MarshalPathTrace(nil, b)
	require.NoError(t, err)
	tlv := PathTraceTLV{}
	require.NoError(t, tlv.UnmarshalBinary(b))
	require.Equal(t, 0, tlv.Len())
	require.False(t, tlv.Contains(0))
}

func TestPathTraceTLVErrors(t *testing.T) {
	tlv := PathTraceTLV{}
	// wrong type
	require.Error(t, tlv.UnmarshalBinary([]byte{0x00, 0x03, 0x00, 0x00}))
	// not a multiple of 8
	require.Error(t, tlv.UnmarshalBinary([]byte{0x00, 0x08, 0x00, 0x04, 1, 2, 3, 4}))
	// length beyond buffer
	require.Error(t, tlv.UnmarshalBinary([]byte{0x00, 0x08, 0x00, 0x10, 1, 2, 3, 4, 5, 6, 7, 8}))
	// too short for a header
	require.Error(t, tlv.UnmarshalBinary([]byte{0x00, 0x08}))
}

func TestFollowUpInformationTLV(t *testing.T) {
	tlv := FollowUpInformationTLV{
		OrganizationID:             FollowUpInformationOrganizationID,
		OrganizationSubType:        FollowUpInformationOrganizationSubType,
		CumulativeScaledRateOffset: -100,
		GmTimeBaseIndicator:        7,
		LastGmPhaseChange:          [12]uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		ScaledLastGmFreqChange:     99,
	}
	b := make([]byte, FollowUpInformationTLVSize)
	n, err := tlv.MarshalBinaryTo(b)
	require.NoError(t, err)
	require.Equal(t, FollowUpInformationTLVSize, n)
	require.Equal(t, []byte{0x00, 0x03, 0x00, 0x1c, 0x00, 0x80, 0xc2, 0x00, 0x00, 0x01}, b[:10])

	got := FollowUpInformationTLV{}
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, tlv, got)

	// length must be exactly 28
	b[3] = 0x1d
	require.Error(t, got.UnmarshalBinary(append(b, 0)))

	_, err = tlv.MarshalBinaryTo(b[:20])
	require.Error(t, err)
}
