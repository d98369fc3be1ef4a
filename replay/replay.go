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
Package replay feeds gPTP frames from pcap and pcapng captures to the slave.

Capture timestamps serve as hardware ingress timestamps, and scheduler ticks
are derived from capture time, so a replay is deterministic.
*/
package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"

	ptp "github.com/facebook/gptp/protocol"
	"github.com/facebook/gptp/slave"
	"github.com/facebook/gptp/slave/crc"
	"github.com/facebook/gptp/slave/stats"
	"github.com/facebook/gptp/timebase"
)

// maxTicksPerGap bounds ticks run for a silent period of the capture
const maxTicksPerGap = 1 << 16

// Summary of a replay
type Summary struct {
	Frames    int
	GPTP      int
	Malformed int
	Accepted  int
	Discarded int
	// Ignored frames carry messages the slave has no use for
	Ignored int
	Ticks     int
}

func toTimestamp(t time.Time) ptp.Timestamp {
	return ptp.NewTimestamp(uint64(t.Unix()), uint32(t.Nanosecond()))
}

// captureClock reports capture time as port time
type captureClock struct {
	start time.Time
	now   time.Time
}

func (c *captureClock) Now(int) (ptp.Timestamp, timebase.VirtualLocalTime, error) {
	if c.now.Before(c.start) {
		return ptp.Timestamp{}, 0, fmt.Errorf("capture time %v is before start %v", c.now, c.start)
	}
	return toTimestamp(c.now), timebase.VirtualLocalTime(c.now.Sub(c.start)), nil
}

type linkUp struct{}

func (linkUp) AsCapable(int) bool { return true }

// static provides configured path delay and residence time
type static struct {
	pathDelay time.Duration
	residence time.Duration
}

func (s *static) PathDelay(int) (time.Duration, error) {
	return s.pathDelay, nil
}

func (s *static) ResidenceTime(int, uint16) (time.Duration, error) {
	return s.residence, nil
}

// Replayer runs captured frames through a slave
type Replayer struct {
	cfg      *Config
	slave    *slave.Slave
	clock    captureClock
	dump     io.Writer
	started  bool
	nextTick time.Time
	summary  Summary
}

// New creates Replayer submitting time to authority and counting to st
func New(cfg *Config, authority timebase.Authority, st *stats.Stats) (*Replayer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	v, err := crc.FromConfig(cfg.CRC)
	if err != nil {
		return nil, err
	}
	r := &Replayer{cfg: cfg}
	s := &static{pathDelay: cfg.PathDelay, residence: cfg.ResidenceTime}
	c := slave.Collaborators{
		LinkState: linkUp{},
		Clock:     &r.clock,
		PathDelay: s,
		CRC:       v,
		Authority: authority,
		Stats:     st,
	}
	if cfg.Slave.Bridge {
		c.Bridge = s
	}
	r.slave, err = slave.New(&cfg.Slave, c)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// SetDump enables dumping of every decoded gPTP message to w
func (r *Replayer) SetDump(w io.Writer) {
	r.dump = w
}

// Slave returns the slave frames are fed to
func (r *Replayer) Slave() *slave.Slave {
	return r.slave
}

// packetHandle abstracts packet handles provided by pcapgo.Reader and pcapgo.NGReader
type packetHandle interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
}

func openCapture(in io.ReadSeeker) (packetHandle, error) {
	// try NGReader, if it fails - fall back to Reader
	handle, err := pcapgo.NewNgReader(in, pcapgo.DefaultNgReaderOptions)
	if err == nil {
		return handle, nil
	}
	if _, err := in.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seeking in capture: %w", err)
	}
	h, err := pcapgo.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("decoding capture: %w", err)
	}
	return h, nil
}

// Run replays the capture until it ends or ctx is done
func (r *Replayer) Run(ctx context.Context, in io.ReadSeeker) (*Summary, error) {
	handle, err := openCapture(in)
	if err != nil {
		return nil, err
	}
	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	for {
		select {
		case <-ctx.Done():
			return &r.summary, ctx.Err()
		default:
		}
		packet, err := packetSource.NextPacket()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return &r.summary, fmt.Errorf("reading capture: %w", err)
		}
		r.handle(packet)
	}
	log.Infof("replayed %d frames, %d gPTP: %d accepted, %d discarded, %d ignored, %d malformed",
		r.summary.Frames, r.summary.GPTP, r.summary.Accepted, r.summary.Discarded, r.summary.Ignored, r.summary.Malformed)
	return &r.summary, nil
}

func (r *Replayer) advance(ts time.Time) {
	interval := r.cfg.Slave.TickInterval
	if !r.started {
		r.started = true
		r.clock.start = ts
		r.nextTick = ts.Add(interval)
		return
	}
	for n := 0; !ts.Before(r.nextTick); n++ {
		if n == maxTicksPerGap {
			r.nextTick = ts.Add(interval)
			break
		}
		r.slave.Tick()
		r.summary.Ticks++
		r.nextTick = r.nextTick.Add(interval)
	}
}

func (r *Replayer) dumpMessage(g *LayerGPTP) {
	msg := g.Contents
	var body interface{}
	switch g.Header.MessageType() {
	case ptp.MessageFollowUp:
		b := &ptp.FollowUpBody{}
		if b.UnmarshalBinary(msg) == nil {
			body = b
		}
	case ptp.MessageAnnounce:
		b := &ptp.AnnounceBody{}
		if b.UnmarshalBinary(msg) == nil {
			body = b
		}
	}
	spew.Fdump(r.dump, g.Header)
	if body != nil {
		spew.Fdump(r.dump, body)
	}
}

func (r *Replayer) handle(packet gopacket.Packet) {
	r.summary.Frames++
	ts := packet.Metadata().Timestamp
	r.advance(ts)
	l := packet.Layer(LayerTypeGPTP)
	if l == nil {
		if packet.Layer(gopacket.LayerTypeDecodeFailure) != nil && isGPTP(packet) {
			r.summary.Malformed++
			log.Debugf("malformed gPTP frame at %v: %v", ts, packet.ErrorLayer().Error())
		}
		return
	}
	g := l.(*LayerGPTP)
	r.summary.GPTP++
	if r.dump != nil {
		r.dumpMessage(g)
	}
	r.clock.now = ts.Add(r.cfg.ProcessingDelay)
	err := r.slave.Receive(r.cfg.Port, g.Contents, slave.Ingress{Timestamp: toTimestamp(ts), Valid: true})
	if errors.Is(err, slave.ErrUnsupportedMessage) {
		r.summary.Ignored++
		return
	}
	if err != nil {
		r.summary.Discarded++
		return
	}
	r.summary.Accepted++
}

// isGPTP reports whether the innermost EtherType of packet is gPTP
func isGPTP(packet gopacket.Packet) bool {
	if l := packet.Layer(layers.LayerTypeDot1Q); l != nil {
		return l.(*layers.Dot1Q).Type == ptp.EtherType
	}
	if l := packet.Layer(layers.LayerTypeEthernet); l != nil {
		return l.(*layers.Ethernet).EthernetType == ptp.EtherType
	}
	return false
}
