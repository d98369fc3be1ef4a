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

package replay

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/require"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave"
	"github.com/facebook/gptp/slave/crc"
	"github.com/facebook/gptp/slave/fup"
	"github.com/facebook/gptp/slave/slavetest"
	"github.com/facebook/gptp/slave/stats"
	"github.com/facebook/gptp/timebase"
)

var (
	start = time.Unix(1700000000, 0)
	pot   = ptp.NewTimestamp(1000, 500)
	cf    = ptp.NewCorrection(2000)
)

const statusOffset = ptp.AutosarTLVOffset + ptp.AutosarTLVHeaderSize

type frame struct {
	at        time.Duration
	etherType layers.EthernetType
	data      []byte
}

func gptp(at time.Duration, data []byte) frame {
	return frame{at: at, etherType: layers.EthernetType(ptp.EtherType), data: data}
}

func capture(t *testing.T, frames []frame) *bytes.Reader {
	var b bytes.Buffer
	w := pcapgo.NewWriter(&b)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	for _, f := range frames {
		buf := gopacket.NewSerializeBuffer()
		eth := &layers.Ethernet{
			SrcMAC:       net.HardwareAddr{0x00, 0x1b, 0x19, 0x00, 0x00, 0x01},
			DstMAC:       net.HardwareAddr{0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e},
			EthernetType: f.etherType,
		}
		require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{}, eth, gopacket.Payload(f.data)))
		data := buf.Bytes()
		ci := gopacket.CaptureInfo{Timestamp: start.Add(f.at), CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return bytes.NewReader(b.Bytes())
}

var statusIDs = []uint8{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}

func testConfig() *Config {
	c := DefaultConfig()
	c.Slave.ClockIdentity = 0x0011223344556677
	c.PathDelay = 3 * time.Microsecond
	c.ProcessingDelay = 10 * time.Microsecond
	e := &c.Slave.Endpoints[0]
	e.External.TLVCheck = true
	e.External.Status = fup.SubTLVConfig{Expected: true, CRC: fup.CRCValidated}
	c.CRC = []crc.DataIDConfig{{TimeBaseID: 0, Status: statusIDs}}
	return c
}

// signedFollowUp returns Follow_Up with a secured Status sub-TLV
func signedFollowUp(t *testing.T, seq uint16) []byte {
	b := slavetest.FollowUp(slavetest.Master, seq, pot, cf, slavetest.Status(ptp.SubTLVStatusSecured, 0, 0))
	v := crc.NewValidator(map[timebase.ID]crc.DataIDs{0: {Status: crc.DataIDList(statusIDs)}})
	require.NoError(t, v.Sign(0, ptp.SubTLVStatusSecured, b, statusOffset))
	return b
}

func TestReplay(t *testing.T) {
	malformed := make([]byte, 40)
	malformed[0] = 0x10
	malformed[1] = ptp.Version
	malformed[2] = 0x01 // messageLength beyond the frame
	pdelay := slavetest.Sync(slavetest.Master, 9)
	pdelay[0] = byte(ptp.NewSdoIDAndMsgType(ptp.MessagePDelayReq, 1))
	unsigned := slavetest.FollowUp(slavetest.Master, 4, pot, cf, slavetest.Status(ptp.SubTLVStatusSecured, 0, 0))

	in := capture(t, []frame{
		gptp(0, slavetest.Sync(slavetest.Master, 1)),
		gptp(time.Millisecond, signedFollowUp(t, 1)),
		gptp(2*time.Millisecond, pdelay),
		gptp(3*time.Millisecond, malformed),
		{at: 4 * time.Millisecond, etherType: layers.EthernetTypeARP, data: make([]byte, 28)},
		// never followed up, times out before the next Sync
		gptp(125*time.Millisecond, slavetest.Sync(slavetest.Master, 2)),
		gptp(250*time.Millisecond, slavetest.Sync(slavetest.Master, 3)),
		gptp(251*time.Millisecond, signedFollowUp(t, 3)),
		gptp(260*time.Millisecond, signedFollowUp(t, 3)),
		gptp(375*time.Millisecond, slavetest.Sync(slavetest.Master, 4)),
		gptp(376*time.Millisecond, unsigned),
	})

	recorder := timebase.NewRecorder()
	st := stats.NewStats()
	r, err := New(testConfig(), recorder, st)
	require.NoError(t, err)
	var dump bytes.Buffer
	r.SetDump(&dump)

	summary, err := r.Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, &Summary{
		Frames:    11,
		GPTP:      9,
		Malformed: 1,
		Accepted:  6,
		Discarded: 2,
		Ignored:   1,
		Ticks:     37,
	}, summary)

	rec, ok := recorder.Get(0)
	require.True(t, ok)
	require.Equal(t, int64(2), rec.GlobalUpdates)
	require.Equal(t, ptp.NewTimestamp(1000, 15500), rec.Last)
	require.Equal(t, timebase.VirtualLocalTime(250*time.Millisecond+10*time.Microsecond), rec.LastVLT)
	require.Equal(t, 3*time.Microsecond, rec.PathDelay)
	require.Equal(t, timebase.StatusSyncToGrandmaster, rec.Status)

	require.Equal(t, int64(2), st.Get(0, stats.SyncCompleted))
	require.Equal(t, int64(1), st.Get(0, stats.FollowUpTimeout))
	require.Equal(t, int64(1), st.Get(0, stats.DiscardedSync))
	require.Equal(t, int64(2), st.Get(0, stats.DiscardedFollowUp))

	state, err := r.Slave().EndpointState(0)
	require.NoError(t, err)
	// Sync 4 still waits for a Follow_Up with a valid CRC
	require.Equal(t, slave.SyncWaitRxFollowUp, state.External)
	require.Equal(t, uint16(4), state.LastSequenceID)

	require.Contains(t, dump.String(), "SequenceID")
	require.Contains(t, dump.String(), "PreciseOriginTimestamp")
}

func TestReplayCanceled(t *testing.T) {
	in := capture(t, []frame{gptp(0, slavetest.Sync(slavetest.Master, 1))})
	r, err := New(testConfig(), timebase.NewRecorder(), stats.NewStats())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx, in)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReplayBadCapture(t *testing.T) {
	r, err := New(testConfig(), timebase.NewRecorder(), stats.NewStats())
	require.NoError(t, err)
	_, err = r.Run(context.Background(), bytes.NewReader([]byte("not a capture")))
	require.Error(t, err)
}

func TestReplayLongGap(t *testing.T) {
	in := capture(t, []frame{
		gptp(0, slavetest.Sync(slavetest.Master, 1)),
		gptp(24*time.Hour, slavetest.Sync(slavetest.Master, 2)),
	})
	r, err := New(testConfig(), timebase.NewRecorder(), stats.NewStats())
	require.NoError(t, err)
	summary, err := r.Run(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, maxTicksPerGap, summary.Ticks)
	require.Equal(t, 2, summary.Accepted)
}

func TestConfig(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{name: "slave", modify: func(c *Config) { c.Slave.TickInterval = 0 }},
		{name: "crc", modify: func(c *Config) { c.CRC[0].Status = []uint8{1} }},
		{name: "port", modify: func(c *Config) { c.Port = 3 }},
		{name: "path delay", modify: func(c *Config) { c.PathDelay = -1 }},
		{name: "residence time", modify: func(c *Config) { c.ResidenceTime = -1 }},
		{name: "processing delay", modify: func(c *Config) { c.ProcessingDelay = -1 }},
		{name: "monitoring port", modify: func(c *Config) { c.MonitoringPort = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testConfig()
			tt.modify(c)
			require.Error(t, c.Validate())
		})
	}
}

func TestPrepareConfig(t *testing.T) {
	cfg, err := PrepareConfig("", 0, 0, 0, map[string]bool{})
	require.NoError(t, err)
	require.NotZero(t, cfg.Slave.ClockIdentity)
	require.Len(t, cfg.Slave.Endpoints, 1)

	cfg, err = PrepareConfig("", 0, 7*time.Microsecond, 4269, map[string]bool{"pdelay": true, "monitoringport": true})
	require.NoError(t, err)
	require.Equal(t, 7*time.Microsecond, cfg.PathDelay)
	require.Equal(t, 4269, cfg.MonitoringPort)

	_, err = PrepareConfig("", 5, 0, 0, map[string]bool{"port": true})
	require.Error(t, err)

	_, err = PrepareConfig(filepath.Join(t.TempDir(), "missing.yaml"), 0, 0, 0, map[string]bool{})
	require.Error(t, err)
}

func TestReadConfig(t *testing.T) {
	data := `slave:
  clock_identity: 0x0011223344556677
  bridge: true
  endpoints:
    - port: 2
      follow_up_timeout: 50ms
      external:
        forward_time: true
      internal:
        time_base_id: 7
crc:
  - time_base_id: 7
    status: [1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16]
port: 2
path_delay: 3us
residence_time: 1us
`
	f := filepath.Join(t.TempDir(), "replay.yaml")
	require.NoError(t, os.WriteFile(f, []byte(data), 0644))
	cfg, err := ReadConfig(f)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	require.Equal(t, 10*time.Millisecond, cfg.Slave.TickInterval)
	require.True(t, cfg.Slave.Bridge)
	require.Len(t, cfg.Slave.Endpoints, 1)
	require.Equal(t, timebase.ID(7), cfg.Slave.Endpoints[0].Internal.TimeBaseID)
	require.True(t, cfg.Slave.Endpoints[0].Internal.ForwardTime)
	require.Equal(t, 2, cfg.Port)
	require.Equal(t, time.Microsecond, cfg.ResidenceTime)

	r, err := New(cfg, timebase.NewRecorder(), stats.NewStats())
	require.NoError(t, err)
	_, ok := r.Slave().Endpoint(2)
	require.True(t, ok)
}
