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

package timebase

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ptp "github.com/facebook/gptp/protocol"
)

func TestStatusString(t *testing.T) {
	require.Equal(t, "SYNC_TO_GM", StatusSyncToGrandmaster.String())
	require.Equal(t, "SYNC_TO_SUBDOMAIN", StatusSyncToSubDomain.String())
	require.Equal(t, "UNKNOWN(7)", Status(7).String())
}

func TestUserDataString(t *testing.T) {
	u := UserData{Length: 2, Bytes: [3]uint8{0xde, 0xad, 0xff}}
	require.Equal(t, "dead", u.String())
	require.Equal(t, "", UserData{}.String())
}

func TestRecorderGlobalTime(t *testing.T) {
	r := NewRecorder()
	u := &UserData{Length: 1, Bytes: [3]uint8{0x42}}
	err := r.SetGlobalTime(1, ptp.NewTimestamp(1000, 500), StatusSyncToGrandmaster, u, Measurement{PathDelay: 3 * time.Microsecond}, 1000)
	require.NoError(t, err)
	// caller may reuse its buffer
	u.Bytes[0] = 0

	rec, ok := r.Get(1)
	require.True(t, ok)
	require.Equal(t, int64(1), rec.GlobalUpdates)
	require.Equal(t, ptp.NewTimestamp(1000, 500), rec.Last)
	require.Equal(t, VirtualLocalTime(1000), rec.LastVLT)
	require.Equal(t, uint8(0x42), rec.UserData.Bytes[0])
	require.Equal(t, 3*time.Microsecond, rec.PathDelay)

	// global time advanced 10ns more than local time
	err = r.SetGlobalTime(1, ptp.NewTimestamp(1001, 510), StatusSyncToSubDomain, nil, Measurement{}, 1000+vltOf(time.Second))
	require.NoError(t, err)
	rec, _ = r.Get(1)
	require.Equal(t, int64(2), rec.GlobalUpdates)
	require.Equal(t, StatusSyncToSubDomain, rec.Status)
	require.Nil(t, rec.UserData)
	require.InDelta(t, 10.0, rec.DriftMean, 0.001)

	_, ok = r.Get(2)
	require.False(t, ok)
}

func vltOf(d time.Duration) VirtualLocalTime {
	return VirtualLocalTime(d.Nanoseconds())
}

func TestRecorderRejectsInvalidTime(t *testing.T) {
	r := NewRecorder()
	err := r.SetGlobalTime(1, ptp.NewTimestamp(1, 1000000000), StatusSyncToGrandmaster, nil, Measurement{}, 0)
	require.ErrorIs(t, err, ErrInvalidTime)
	err = r.SetOffsetTime(1, ptp.NewTimestamp(1, 1000000000), nil, Measurement{})
	require.ErrorIs(t, err, ErrInvalidTime)
	require.Empty(t, r.Records())
}

func TestRecorderOffsetAndTiming(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.SetOffsetTime(17, ptp.NewTimestamp(3600, 0), nil, Measurement{}))
	require.NoError(t, r.SetSlaveTimingData(1, &SlaveTimingData{SequenceID: 5}))
	require.Error(t, r.SetSlaveTimingData(1, nil))

	records := r.Records()
	require.Len(t, records, 2)
	require.Equal(t, ID(1), records[0].ID)
	require.Equal(t, int64(1), records[0].TimingRecords)
	require.Equal(t, uint16(5), records[0].Timing.SequenceID)
	require.Equal(t, ID(17), records[1].ID)
	require.Equal(t, int64(1), records[1].OffsetUpdates)
}

func TestRecorderWriteTable(t *testing.T) {
	r := NewRecorder()
	require.NoError(t, r.SetGlobalTime(3, ptp.NewTimestamp(1000, 15500), StatusSyncToGrandmaster, nil, Measurement{}, 0))
	var b bytes.Buffer
	require.NoError(t, r.WriteTable(&b))
	require.Contains(t, b.String(), "Timestamp(1000.000015500)")
	require.Contains(t, b.String(), "SYNC_TO_GM")
}
