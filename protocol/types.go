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
	"errors"
	"fmt"
	"math"
	"time"
)

// 2 ** 16
const twoPow16 = 65536

// MessageType is type for Message Types
type MessageType uint8

// As per IEEE 802.1AS Table 10-5 and IEEE 1588 Table 36
const (
	MessageSync               MessageType = 0x0
	MessagePDelayReq          MessageType = 0x2
	MessagePDelayResp         MessageType = 0x3
	MessageFollowUp           MessageType = 0x8
	MessagePDelayRespFollowUp MessageType = 0xA
	MessageAnnounce           MessageType = 0xB
	MessageSignaling          MessageType = 0xC
)

// MessageTypeToString is a map from MessageType to string
var MessageTypeToString = map[MessageType]string{
	MessageSync:               "SYNC",
	MessagePDelayReq:          "PDELAY_REQ",
	MessagePDelayResp:         "PDELAY_RES",
	MessageFollowUp:           "FOLLOW_UP",
	MessagePDelayRespFollowUp: "PDELAY_RESP_FOLLOW_UP",
	MessageAnnounce:           "ANNOUNCE",
	MessageSignaling:          "SIGNALING",
}

func (m MessageType) String() string {
	if s, ok := MessageTypeToString[m]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", uint8(m))
}

// SdoIDAndMsgType is a uint8 where first 4 bites contain SdoID and last 4 bits MessageType
type SdoIDAndMsgType uint8

// MsgType extracts MessageType from SdoIDAndMsgType
func (m SdoIDAndMsgType) MsgType() MessageType {
	return MessageType(m & 0xf) // last 4 bits
}

// NewSdoIDAndMsgType builds new SdoIDAndMsgType from MessageType and flags
func NewSdoIDAndMsgType(msgType MessageType, sdoID uint8) SdoIDAndMsgType {
	return SdoIDAndMsgType(sdoID<<4 | uint8(msgType))
}

// ProbeMsgType reads first 8 bits of data and tries to decode it to SdoIDAndMsgType, then return MessageType
func ProbeMsgType(data []byte) (msg MessageType, err error) {
	if len(data) < 1 {
		return 0, fmt.Errorf("not enough data to probe MsgType")
	}
	return SdoIDAndMsgType(data[0]).MsgType(), nil
}

// TLVType is type for TLV types
type TLVType uint16

// As per IEEE 1588 Table 52 tlvType values
const (
	TLVOrganizationExtension TLVType = 0x0003
	TLVPathTrace             TLVType = 0x0008
)

// TLVTypeToString is a map from TLVType to string
var TLVTypeToString = map[TLVType]string{
	TLVOrganizationExtension: "ORGANIZATION_EXTENSION",
	TLVPathTrace:             "PATH_TRACE",
}

func (t TLVType) String() string {
	return TLVTypeToString[t]
}

/*
Correction is the value of the correction measured in nanoseconds and multiplied by 2**16.
For example, 2.5 ns is represented as 0000 0000 0002 8000 base 16
A value of one in all bits, except the most significant, of the field shall indicate that the correction is too big to be represented.
*/
type Correction int64

// Nanoseconds decodes Correction to human-understandable nanoseconds
func (t Correction) Nanoseconds() float64 {
	if t.TooBig() {
		return math.Inf(1)
	}
	return float64(t) / twoPow16
}

// Nanoseconds48 returns the integral nanoseconds part of the correction masked to 48 bits.
// Negative corrections come out as large values and are expected to fail range checks.
func (t Correction) Nanoseconds48() uint64 {
	return (uint64(t) >> 16) & 0xffffffffffff
}

func (t Correction) String() string {
	if t.TooBig() {
		return "Correction(Too big)"
	}
	return fmt.Sprintf("Correction(%.3fns)", t.Nanoseconds())
}

// TooBig means correction is too big to be represented.
func (t Correction) TooBig() bool {
	return t == 0x7fffffffffffffff // one in all bits, except the most significant
}

// NewCorrection returns Correction built from Nanoseconds
func NewCorrection(ns float64) Correction {
	t := ns * twoPow16
	if t > 0x7fffffffffffffff {
		return Correction(0x7fffffffffffffff)
	}
	return Correction(t)
}

// The ClockIdentity type identifies unique entities within a PTP Network, e.g. a PTP Instance or an entity of a common service.
type ClockIdentity uint64

// String formats ClockIdentity same way ptp4l pmc client does
func (c ClockIdentity) String() string {
	ptr := make([]byte, 8)
	binary.BigEndian.PutUint64(ptr, uint64(c))
	return fmt.Sprintf("%02x%02x%02x.%02x%02x.%02x%02x%02x",
		ptr[0], ptr[1], ptr[2], ptr[3],
		ptr[4], ptr[5], ptr[6], ptr[7],
	)
}

// The PortIdentity type identifies a PTP Port or a Link Port
type PortIdentity struct {
	ClockIdentity ClockIdentity
	PortNumber    uint16
}

// String formats PortIdentity same way ptp4l pmc client does
func (p PortIdentity) String() string {
	return fmt.Sprintf("%s-%d", p.ClockIdentity, p.PortNumber)
}

// MaxSeconds is the largest value a 48 bit seconds field can hold
const MaxSeconds = 1<<48 - 1

// PTPSeconds type representing seconds
type PTPSeconds [6]uint8 // uint48

// Empty returns 0 seconds
func (s PTPSeconds) Empty() bool {
	return s == [6]uint8{0, 0, 0, 0, 0, 0}
}

// Seconds returns number of seconds as uint64
func (s PTPSeconds) Seconds() uint64 {
	return uint64(s[5]) | uint64(s[4])<<8 | uint64(s[3])<<16 | uint64(s[2])<<24 |
		uint64(s[1])<<32 | uint64(s[0])<<40
}

// NewPTPSeconds creates a new instance of PTPSeconds, dropping bits above 48
func NewPTPSeconds(v uint64) PTPSeconds {
	s := PTPSeconds{}
	s[0] = byte(v >> 40)
	s[1] = byte(v >> 32)
	s[2] = byte(v >> 24)
	s[3] = byte(v >> 16)
	s[4] = byte(v >> 8)
	s[5] = byte(v)
	return s
}

// errors returned by Timestamp arithmetic
var (
	ErrTimestampRange    = errors.New("timestamp out of range")
	ErrTimestampOverflow = errors.New("timestamp arithmetic overflow")
)

/*
Timestamp type represents a positive time with respect to the epoch.
The secondsField member is the integer portion of the timestamp in units of seconds.
The nanosecondsField member is the fractional portion of the timestamp in units of nanoseconds.
The nanosecondsField member is always less than 10**9 .
*/
type Timestamp struct {
	Seconds     PTPSeconds
	Nanoseconds uint32
}

// NewTimestamp builds a Timestamp from seconds and nanoseconds
func NewTimestamp(sec uint64, nsec uint32) Timestamp {
	return Timestamp{Seconds: NewPTPSeconds(sec), Nanoseconds: nsec}
}

// Valid reports whether nanoseconds are within a second
func (t Timestamp) Valid() bool {
	return t.Nanoseconds < uint32(time.Second)
}

// Empty timestamp
func (t Timestamp) Empty() bool {
	return t.Nanoseconds == 0 && t.Seconds.Empty()
}

// Time turns Timestamp into normal Go time.Time
func (t Timestamp) Time() time.Time {
	if t.Empty() {
		return time.Time{}
	}
	return time.Unix(int64(t.Seconds.Seconds()), int64(t.Nanoseconds))
}

// String representation of the timestamp
func (t Timestamp) String() string {
	return fmt.Sprintf("Timestamp(%d.%09d)", t.Seconds.Seconds(), t.Nanoseconds)
}

// Add returns t+d. Results before the epoch or past 48 bit seconds are errors.
func (t Timestamp) Add(d time.Duration) (Timestamp, error) {
	if !t.Valid() {
		return Timestamp{}, ErrTimestampRange
	}
	sec := t.Seconds.Seconds()
	dsec := int64(d / time.Second)
	dnsec := int64(d % time.Second)
	nsec := int64(t.Nanoseconds) + dnsec
	switch {
	case nsec >= int64(time.Second):
		nsec -= int64(time.Second)
		dsec++
	case nsec < 0:
		nsec += int64(time.Second)
		dsec--
	}
	if dsec >= 0 {
		if uint64(dsec) > MaxSeconds-sec {
			return Timestamp{}, ErrTimestampOverflow
		}
		sec += uint64(dsec)
	} else {
		if uint64(-dsec) > sec {
			return Timestamp{}, ErrTimestampOverflow
		}
		sec -= uint64(-dsec)
	}
	return NewTimestamp(sec, uint32(nsec)), nil
}

// maxDurationSeconds is the number of whole seconds time.Duration can represent
const maxDurationSeconds = uint64(math.MaxInt64 / int64(time.Second))

// Sub returns t-u as a duration. Differences time.Duration can't hold are errors.
func (t Timestamp) Sub(u Timestamp) (time.Duration, error) {
	if !t.Valid() || !u.Valid() {
		return 0, ErrTimestampRange
	}
	ts, us := t.Seconds.Seconds(), u.Seconds.Seconds()
	neg := ts < us || (ts == us && t.Nanoseconds < u.Nanoseconds)
	if neg {
		t, u = u, t
		ts, us = us, ts
	}
	sec := ts - us
	nsec := int64(t.Nanoseconds) - int64(u.Nanoseconds)
	if nsec < 0 {
		nsec += int64(time.Second)
		sec--
	}
	if sec > maxDurationSeconds-1 {
		return 0, ErrTimestampOverflow
	}
	d := time.Duration(sec)*time.Second + time.Duration(nsec)
	if neg {
		d = -d
	}
	return d, nil
}

// ClockQuality represents the quality of a clock.
type ClockQuality struct {
	ClockClass              uint8  `json:"clock_class"`
	ClockAccuracy           uint8  `json:"clock_accuracy"`
	OffsetScaledLogVariance uint16 `json:"offset_scaled_log_variance"`
}

// LogInterval shall be the logarithm, to base 2, of the requested period in seconds.
// In layman's terms, it's specified as a power of two in seconds.
type LogInterval int8

// Duration returns LogInterval as time.Duration
func (i LogInterval) Duration() time.Duration {
	secs := math.Pow(2, float64(i))
	return time.Duration(secs * float64(time.Second))
}
