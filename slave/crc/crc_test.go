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

package crc

import (
	"testing"
	"time"

	"github.com/sigurn/crc8"
	"github.com/stretchr/testify/require"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave/fup"
	"github.com/facebook/gptp/slave/slavetest"
	"github.com/facebook/gptp/timebase"
)

func seqList(base uint8) DataIDList {
	l := DataIDList{}
	for i := range l {
		l[i] = base + uint8(i)
	}
	return l
}

func testValidator() *Validator {
	return NewValidator(map[timebase.ID]DataIDs{
		1: {
			TimeSecured: seqList(0x10),
			Status:      seqList(0x20),
			UserData:    seqList(0x30),
			Offset:      seqList(0x40),
		},
	})
}

const first = ptp.AutosarTLVOffset + ptp.AutosarTLVHeaderSize

func TestChecksumSAEJ1850(t *testing.T) {
	v := testValidator()
	// check value of CRC-8/SAE-J1850 over "123456789"
	require.Equal(t, uint8(0x4b), v.checksum('9', []byte("12345678")))
	require.Equal(t, SAEJ1850.Check, crc8.Checksum([]byte("123456789"), crc8.MakeTable(SAEJ1850)))
}

func TestSignAndValidate(t *testing.T) {
	pot := ptp.NewTimestamp(1000, 500)
	tests := []struct {
		name   string
		typ    ptp.SubTLVType
		subTLV []byte
		// byte covered by the CRC
		covered int
	}{
		{
			name:    "status",
			typ:     ptp.SubTLVStatusSecured,
			subTLV:  slavetest.Status(ptp.SubTLVStatusSecured, ptp.StatusSyncToGateway, 0),
			covered: first + 2,
		},
		{
			name:    "user data",
			typ:     ptp.SubTLVUserDataSecured,
			subTLV:  slavetest.UserData(ptp.SubTLVUserDataSecured, []byte{1, 2, 3}, 0),
			covered: first + 4,
		},
		{
			name:    "offset",
			typ:     ptp.SubTLVOffsetSecured,
			subTLV:  slavetest.Offset(ptp.SubTLVOffsetSecured, 16, ptp.NewTimestamp(5, 5), 0, nil, 0),
			covered: first + 10,
		},
		{
			name:    "time secured",
			typ:     ptp.SubTLVTimeSecured,
			subTLV:  slavetest.TimeSecured(ptp.CRCTimeFlagPreciseOriginTimestamp|ptp.CRCTimeFlagSequenceID, 0, 0),
			covered: ptp.HeaderSize + 9,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := testValidator()
			b := slavetest.FollowUp(slavetest.Master, 5, pot, 0, tt.subTLV)
			require.NoError(t, v.Sign(1, tt.typ, b, first))
			require.Equal(t, fup.CRCOK, v.Validate(1, tt.typ, b, first))

			b[tt.covered] ^= 0xff
			require.Equal(t, fup.CRCFailed, v.Validate(1, tt.typ, b, first))
		})
	}
}

func TestTimeSecuredFlags(t *testing.T) {
	v := testValidator()
	b := slavetest.FollowUp(slavetest.Master, 5, ptp.NewTimestamp(1000, 500), 0,
		slavetest.TimeSecured(ptp.CRCTimeFlagDomainNumber, 0, 0),
	)
	require.NoError(t, v.Sign(1, ptp.SubTLVTimeSecured, b, first))
	// preciseOriginTimestamp is not protected
	b[ptp.HeaderSize+9] ^= 0xff
	require.Equal(t, fup.CRCOK, v.Validate(1, ptp.SubTLVTimeSecured, b, first))
	b[4] ^= 0xff
	require.Equal(t, fup.CRCFailed, v.Validate(1, ptp.SubTLVTimeSecured, b, first))
}

func TestDataIDFollowsSequence(t *testing.T) {
	v := testValidator()
	b := slavetest.FollowUp(slavetest.Master, 5, ptp.NewTimestamp(1000, 500), 0, slavetest.Status(ptp.SubTLVStatusSecured, 0, 0))
	require.NoError(t, v.Sign(1, ptp.SubTLVStatusSecured, b, first))
	require.Equal(t, fup.CRCOK, v.Validate(1, ptp.SubTLVStatusSecured, b, first))

	// sequenceId 21 maps to the same DataID as 5
	b[31] = 21
	require.Equal(t, fup.CRCOK, v.Validate(1, ptp.SubTLVStatusSecured, b, first))
	b[31] = 6
	require.Equal(t, fup.CRCFailed, v.Validate(1, ptp.SubTLVStatusSecured, b, first))
}

func TestValidateErrors(t *testing.T) {
	v := testValidator()
	b := slavetest.FollowUp(slavetest.Master, 5, ptp.NewTimestamp(1000, 500), 0, slavetest.Status(ptp.SubTLVStatusNotSecured, 0, 0))
	require.Equal(t, fup.CRCPending, v.Validate(2, ptp.SubTLVStatusSecured, b, first))
	require.Equal(t, fup.CRCFailed, v.Validate(1, ptp.SubTLVStatusNotSecured, b, first))
	require.Equal(t, fup.CRCFailed, v.Validate(1, ptp.SubTLVStatusSecured, b, len(b)-1))
	require.Error(t, v.Sign(1, ptp.SubTLVStatusNotSecured, b, first))
	require.Error(t, v.Sign(2, ptp.SubTLVStatusSecured, b, first))
}

func TestFromConfig(t *testing.T) {
	ids := make([]uint8, DataIDListSize)
	ids[3] = 7
	v, err := FromConfig([]DataIDConfig{{TimeBaseID: 4, Status: ids}})
	require.NoError(t, err)
	require.Equal(t, uint8(7), v.dataIDs[4].Status[3])
	require.Equal(t, DataIDList{}, v.dataIDs[4].Offset)

	_, err = FromConfig([]DataIDConfig{{TimeBaseID: 4, Status: ids[:3]}})
	require.Error(t, err)
	_, err = FromConfig([]DataIDConfig{{TimeBaseID: 4}, {TimeBaseID: 4}})
	require.Error(t, err)
}

type noPathDelay struct{}

func (noPathDelay) PathDelay() (time.Duration, error) { return 0, nil }

func TestHandlerWithValidator(t *testing.T) {
	v := testValidator()
	h := &fup.Handler{}
	rec := timebase.NewRecorder()
	h.Init(&fup.Config{
		TimeBaseID:  1,
		ForwardTime: true,
		TLVCheck:    true,
		TimeSecured: fup.SubTLVConfig{Expected: true, CRC: fup.CRCValidated},
		Status:      fup.SubTLVConfig{Expected: true, CRC: fup.CRCValidated},
	}, v, rec, noPathDelay{})

	b := slavetest.FollowUp(slavetest.Master, 5, ptp.NewTimestamp(1000, 500), 0,
		slavetest.TimeSecured(ptp.CRCTimeFlagPreciseOriginTimestamp, 0, 0),
		slavetest.Status(ptp.SubTLVStatusSecured, 0, 0),
	)
	require.NoError(t, v.Sign(1, ptp.SubTLVTimeSecured, b, first))
	require.NoError(t, v.Sign(1, ptp.SubTLVStatusSecured, b, first+5))

	hdr, err := ptp.DecodeHeader(b)
	require.NoError(t, err)
	require.NoError(t, h.Validate(hdr, b))
	require.NoError(t, h.Process(&fup.RxTimeInfo{Valid: true}, hdr, b))
	r, ok := rec.Get(1)
	require.True(t, ok)
	require.Equal(t, ptp.NewTimestamp(1000, 500), r.Last)

	// tampered preciseOriginTimestamp
	b[ptp.HeaderSize+9]++
	require.ErrorIs(t, h.Validate(hdr, b), fup.ErrCRC)
}
