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
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSdoIDAndMsgType(t *testing.T) {
	sdoIDAndMsgType := NewSdoIDAndMsgType(MessageFollowUp, 1)
	require.Equal(t, MessageFollowUp, sdoIDAndMsgType.MsgType())
}

func TestProbeMsgType(t *testing.T) {
	tests := []struct {
		in      []byte
		want    MessageType
		wantErr bool
	}{
		{
			in:      []byte{},
			wantErr: true,
		},
		{
			in:   []byte{0x10},
			want: MessageSync,
		},
		{
			in:   []byte{0x18},
			want: MessageFollowUp,
		},
		{
			in:   []byte{0x1B},
			want: MessageAnnounce,
		},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("ProbeMsgType in=%d", tt.in), func(t *testing.T) {
			got, err := ProbeMsgType(tt.in)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				require.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMessageTypeString(t *testing.T) {
	require.Equal(t, "SYNC", MessageSync.String())
	require.Equal(t, "FOLLOW_UP", MessageFollowUp.String())
	require.Equal(t, "ANNOUNCE", MessageAnnounce.String())
	require.Equal(t, "PDELAY_REQ", MessagePDelayReq.String())
	require.Equal(t, "UNKNOWN(5)", MessageType(5).String())
}

func TestPortIdentityString(t *testing.T) {
	pi := PortIdentity{}
	require.Equal(t, "000000.0000.000000-0", pi.String())
	pi = PortIdentity{
		ClockIdentity: 5212879185253000328,
		PortNumber:    1,
	}
	require.Equal(t, "4857dd.fffe.086488-1", pi.String())
}

func TestCorrection(t *testing.T) {
	c := NewCorrection(2000)
	require.Equal(t, uint64(2000), c.Nanoseconds48())
	require.InDelta(t, 2000.0, c.Nanoseconds(), 0.001)
	require.Equal(t, "Correction(2000.000ns)", c.String())

	// fractional nanoseconds are dropped
	require.Equal(t, uint64(2), NewCorrection(2.5).Nanoseconds48())

	tooBig := Correction(0x7fffffffffffffff)
	require.True(t, tooBig.TooBig())
	require.True(t, math.IsInf(tooBig.Nanoseconds(), 1))

	// negative value ends up above any sane threshold
	require.Greater(t, NewCorrection(-1).Nanoseconds48(), uint64(1<<47))
}

func TestPTPSeconds(t *testing.T) {
	s := NewPTPSeconds(0x0102030405)
	require.Equal(t, PTPSeconds{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}, s)
	require.Equal(t, uint64(0x0102030405), s.Seconds())
	require.False(t, s.Empty())
	require.True(t, PTPSeconds{}.Empty())
	require.Equal(t, uint64(MaxSeconds), NewPTPSeconds(MaxSeconds).Seconds())
}

func TestTimestampValid(t *testing.T) {
	require.True(t, NewTimestamp(1, 999999999).Valid())
	require.False(t, NewTimestamp(1, 1000000000).Valid())
	require.Equal(t, "Timestamp(1000.000000500)", NewTimestamp(1000, 500).String())
	require.Equal(t, time.Unix(2, 1), NewTimestamp(2, 1).Time())
	require.True(t, Timestamp{}.Time().IsZero())
}

func TestTimestampAdd(t *testing.T) {
	tests := []struct {
		name    string
		in      Timestamp
		d       time.Duration
		want    Timestamp
		wantErr error
	}{
		{
			name: "nanoseconds only",
			in:   NewTimestamp(1000, 500),
			d:    15000,
			want: NewTimestamp(1000, 15500),
		},
		{
			name: "carry into seconds",
			in:   NewTimestamp(10, 999999000),
			d:    2000,
			want: NewTimestamp(11, 1000),
		},
		{
			name: "negative borrow",
			in:   NewTimestamp(10, 100),
			d:    -200,
			want: NewTimestamp(9, 999999900),
		},
		{
			name: "whole seconds",
			in:   NewTimestamp(10, 0),
			d:    3*time.Second + 5,
			want: NewTimestamp(13, 5),
		},
		{
			name:    "before epoch",
			in:      NewTimestamp(0, 100),
			d:       -time.Second,
			wantErr: ErrTimestampOverflow,
		},
		{
			name:    "past 48 bits",
			in:      NewTimestamp(MaxSeconds, 999999999),
			d:       1,
			wantErr: ErrTimestampOverflow,
		},
		{
			name:    "invalid input",
			in:      NewTimestamp(1, 1000000000),
			d:       1,
			wantErr: ErrTimestampRange,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Add(tt.d)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestTimestampSub(t *testing.T) {
	d, err := NewTimestamp(11, 1000).Sub(NewTimestamp(10, 999999000))
	require.NoError(t, err)
	require.Equal(t, 2000*time.Nanosecond, d)

	d, err = NewTimestamp(10, 999999000).Sub(NewTimestamp(11, 1000))
	require.NoError(t, err)
	require.Equal(t, -2000*time.Nanosecond, d)

	d, err = NewTimestamp(5, 5).Sub(NewTimestamp(5, 5))
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), d)

	_, err = NewTimestamp(MaxSeconds, 0).Sub(NewTimestamp(0, 0))
	require.ErrorIs(t, err, ErrTimestampOverflow)

	_, err = NewTimestamp(1, 1000000000).Sub(NewTimestamp(0, 0))
	require.ErrorIs(t, err, ErrTimestampRange)
}

func TestLogIntervalDuration(t *testing.T) {
	require.Equal(t, 125*time.Millisecond, LogInterval(-3).Duration())
	require.Equal(t, time.Second, LogInterval(0).Duration())
}
