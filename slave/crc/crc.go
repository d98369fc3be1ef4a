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
Package crc validates CRC protected AUTOSAR sub-TLVs of Follow_Up messages.

CRCs are CRC-8 SAE-J1850 computed over the protected fields followed by a DataID.
The DataID is picked from a list of 16 entries by sequenceId modulo 16,
every sub-TLV kind of every time base has its own list.
*/
package crc

import (
	"encoding/binary"
	"fmt"

	"github.com/sigurn/crc8"
	log "github.com/sirupsen/logrus"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave/fup"
	"github.com/facebook/gptp/timebase"
)

// SAEJ1850 is CRC-8 used by AUTOSAR for secured sub-TLVs
var SAEJ1850 = crc8.Params{
	Poly:   0x1D,
	Init:   0xFF,
	XorOut: 0xFF,
	Check:  0x4B,
	Name:   "CRC-8/SAE-J1850",
}

// DataIDListSize is the number of DataIDs in a list
const DataIDListSize = 16

// DataIDList is indexed by sequenceId modulo 16
type DataIDList [DataIDListSize]uint8

// DataIDs of one time base
type DataIDs struct {
	TimeSecured DataIDList
	Status      DataIDList
	UserData    DataIDList
	Offset      DataIDList
}

// DataIDConfig is the YAML representation of DataIDs
type DataIDConfig struct {
	TimeBaseID  timebase.ID `yaml:"time_base_id"`
	TimeSecured []uint8     `yaml:"time_secured"`
	Status      []uint8     `yaml:"status"`
	UserData    []uint8     `yaml:"user_data"`
	Offset      []uint8     `yaml:"offset"`
}

func toList(name string, ids []uint8) (DataIDList, error) {
	l := DataIDList{}
	if len(ids) == 0 {
		return l, nil
	}
	if len(ids) != DataIDListSize {
		return l, fmt.Errorf("%s: DataID list must have %d entries, got %d", name, DataIDListSize, len(ids))
	}
	copy(l[:], ids)
	return l, nil
}

// DataIDs converts config to DataIDs. Missing lists are all zeroes.
func (c *DataIDConfig) DataIDs() (DataIDs, error) {
	var err error
	d := DataIDs{}
	if d.TimeSecured, err = toList("time_secured", c.TimeSecured); err != nil {
		return d, err
	}
	if d.Status, err = toList("status", c.Status); err != nil {
		return d, err
	}
	if d.UserData, err = toList("user_data", c.UserData); err != nil {
		return d, err
	}
	if d.Offset, err = toList("offset", c.Offset); err != nil {
		return d, err
	}
	return d, nil
}

// Validator implements fup.CRCValidator
type Validator struct {
	table   *crc8.Table
	dataIDs map[timebase.ID]DataIDs
}

// NewValidator returns a Validator knowing DataIDs of given time bases
func NewValidator(dataIDs map[timebase.ID]DataIDs) *Validator {
	v := &Validator{
		table:   crc8.MakeTable(SAEJ1850),
		dataIDs: map[timebase.ID]DataIDs{},
	}
	for id, d := range dataIDs {
		v.dataIDs[id] = d
	}
	return v
}

// FromConfig builds a Validator from YAML DataID configs
func FromConfig(cfgs []DataIDConfig) (*Validator, error) {
	ids := map[timebase.ID]DataIDs{}
	for i := range cfgs {
		c := &cfgs[i]
		if _, ok := ids[c.TimeBaseID]; ok {
			return nil, fmt.Errorf("DataIDs of time base %d configured twice", c.TimeBaseID)
		}
		d, err := c.DataIDs()
		if err != nil {
			return nil, fmt.Errorf("time base %d: %w", c.TimeBaseID, err)
		}
		ids[c.TimeBaseID] = d
	}
	return NewValidator(ids), nil
}

func (v *Validator) checksum(dataID uint8, fields ...[]byte) uint8 {
	c := crc8.Init(v.table)
	for _, f := range fields {
		c = crc8.Update(c, f, v.table)
	}
	c = crc8.Update(c, []byte{dataID}, v.table)
	return crc8.Complete(c, v.table)
}

// timeCRCs computes CRC_Time_0 and CRC_Time_1 of the Follow_Up fields selected by flags
func (v *Validator) timeCRCs(dataID, flags uint8, msg []byte) (uint8, uint8) {
	f := []byte{flags}
	var domain, src, pot, length, cf, seq []byte
	if flags&ptp.CRCTimeFlagDomainNumber != 0 {
		domain = msg[4:5]
	}
	if flags&ptp.CRCTimeFlagSourcePortIdentity != 0 {
		src = msg[20:30]
	}
	if flags&ptp.CRCTimeFlagPreciseOriginTimestamp != 0 {
		pot = msg[ptp.HeaderSize : ptp.HeaderSize+10]
	}
	if flags&ptp.CRCTimeFlagMessageLength != 0 {
		length = msg[2:4]
	}
	if flags&ptp.CRCTimeFlagCorrectionField != 0 {
		cf = msg[8:16]
	}
	if flags&ptp.CRCTimeFlagSequenceID != 0 {
		seq = msg[30:32]
	}
	return v.checksum(dataID, f, domain, src, pot), v.checksum(dataID, f, length, cf, seq)
}

// expected computes CRC bytes of the sub-TLV at offset and where they are stored.
// n is the number of CRC bytes, 0 if sub-TLV can't be secured.
func (v *Validator) expected(timeBase timebase.ID, t ptp.SubTLVType, msg []byte, offset int) (crc [2]uint8, pos int, n int, err error) {
	ids, ok := v.dataIDs[timeBase]
	if !ok {
		return crc, 0, 0, fmt.Errorf("no DataIDs for time base %d", timeBase)
	}
	size := ptp.SubTLVHeadSize + t.Kind().Length()
	if !t.Secured() || offset < ptp.FollowUpLength || offset+size > len(msg) {
		return crc, 0, 0, fmt.Errorf("no secured sub-TLV %s at %d", t, offset)
	}
	idx := binary.BigEndian.Uint16(msg[30:]) % DataIDListSize
	b := msg[offset : offset+size]
	switch t {
	case ptp.SubTLVTimeSecured:
		crc[0], crc[1] = v.timeCRCs(ids.TimeSecured[idx], b[2], msg)
		return crc, offset + 3, 2, nil
	case ptp.SubTLVStatusSecured:
		crc[0] = v.checksum(ids.Status[idx], b[2:3])
		return crc, offset + 3, 1, nil
	case ptp.SubTLVUserDataSecured:
		crc[0] = v.checksum(ids.UserData[idx], b[2:6])
		return crc, offset + 6, 1, nil
	case ptp.SubTLVOffsetSecured:
		crc[0] = v.checksum(ids.Offset[idx], b[2:18])
		return crc, offset + 18, 1, nil
	}
	return crc, 0, 0, fmt.Errorf("sub-TLV %s can't be secured", t)
}

// Validate implements fup.CRCValidator
func (v *Validator) Validate(timeBase timebase.ID, t ptp.SubTLVType, msg []byte, offset int) fup.CRCResult {
	if _, ok := v.dataIDs[timeBase]; !ok {
		log.Debugf("no DataIDs provisioned for time base %d", timeBase)
		return fup.CRCPending
	}
	crc, pos, n, err := v.expected(timeBase, t, msg, offset)
	if err != nil {
		log.Debugf("crc: %v", err)
		return fup.CRCFailed
	}
	for i := 0; i < n; i++ {
		if msg[pos+i] != crc[i] {
			return fup.CRCFailed
		}
	}
	return fup.CRCOK
}

// Sign writes CRC bytes of the secured sub-TLV at offset, the way a master does
func (v *Validator) Sign(timeBase timebase.ID, t ptp.SubTLVType, msg []byte, offset int) error {
	crc, pos, n, err := v.expected(timeBase, t, msg, offset)
	if err != nil {
		return err
	}
	copy(msg[pos:pos+n], crc[:n])
	return nil
}
