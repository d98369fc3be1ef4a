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
Package stats implements statistics collection and reporting of the gPTP slave.
Counters are kept per port and reported as JSON and as Prometheus metrics.
*/
package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	ptp "github.com/facebook/gptp/protocol"
)

// MaxPorts is the number of ports counters are kept for
const MaxPorts = 16

// Counter identifies one per-port counter
type Counter int

// Counters
const (
	RxSync Counter = iota
	RxFollowUp
	RxAnnounce
	// DiscardedSync includes Syncs whose Follow_Up timed out or was replaced
	DiscardedSync
	DiscardedFollowUp
	DiscardedAnnounce
	SyncCompleted
	FollowUpTimeout
	AnnounceTimeout
	MasterConflict
	numCounters
)

var counterNames = [numCounters]string{
	RxSync:            "rx.sync",
	RxFollowUp:        "rx.follow_up",
	RxAnnounce:        "rx.announce",
	DiscardedSync:     "discarded.sync",
	DiscardedFollowUp: "discarded.follow_up",
	DiscardedAnnounce: "discarded.announce",
	SyncCompleted:     "sync.completed",
	FollowUpTimeout:   "timeout.follow_up",
	AnnounceTimeout:   "timeout.announce",
	MasterConflict:    "master.conflict",
}

func (c Counter) String() string {
	if c < 0 || c >= numCounters {
		return fmt.Sprintf("unknown(%d)", int(c))
	}
	return counterNames[c]
}

var (
	rxCounters = map[ptp.MessageType]Counter{
		ptp.MessageSync:     RxSync,
		ptp.MessageFollowUp: RxFollowUp,
		ptp.MessageAnnounce: RxAnnounce,
	}
	discardedCounters = map[ptp.MessageType]Counter{
		ptp.MessageSync:     DiscardedSync,
		ptp.MessageFollowUp: DiscardedFollowUp,
		ptp.MessageAnnounce: DiscardedAnnounce,
	}
)

type portCounters [numCounters]atomic.Int64

// Stats holds per-port counters
type Stats struct {
	ports [MaxPorts]portCounters
	descs [numCounters]*prometheus.Desc
}

// NewStats returns a new Stats
func NewStats() *Stats {
	s := &Stats{}
	for c := Counter(0); c < numCounters; c++ {
		s.descs[c] = prometheus.NewDesc(
			"gptp_slave_"+flattenKey(c.String())+"_total",
			fmt.Sprintf("number of %s events", c),
			[]string{"port"}, nil,
		)
	}
	return s
}

// Inc atomically adds 1 to counter c of port, unknown ports are ignored
func (s *Stats) Inc(port int, c Counter) {
	if port < 0 || port >= MaxPorts || c < 0 || c >= numCounters {
		return
	}
	s.ports[port][c].Add(1)
}

// Get returns current value of counter c of port
func (s *Stats) Get(port int, c Counter) int64 {
	if port < 0 || port >= MaxPorts || c < 0 || c >= numCounters {
		return 0
	}
	return s.ports[port][c].Load()
}

// IncRX atomically adds 1 to the received counter of message type t
func (s *Stats) IncRX(port int, t ptp.MessageType) {
	if c, ok := rxCounters[t]; ok {
		s.Inc(port, c)
	}
}

// IncDiscarded atomically adds 1 to the discarded counter of message type t
func (s *Stats) IncDiscarded(port int, t ptp.MessageType) {
	if c, ok := discardedCounters[t]; ok {
		s.Inc(port, c)
	}
}

// IncSyncCompleted atomically adds 1 to the counter
func (s *Stats) IncSyncCompleted(port int) {
	s.Inc(port, SyncCompleted)
}

// IncFollowUpTimeout atomically adds 1 to the counter
func (s *Stats) IncFollowUpTimeout(port int) {
	s.Inc(port, FollowUpTimeout)
}

// IncAnnounceTimeout atomically adds 1 to the counter
func (s *Stats) IncAnnounceTimeout(port int) {
	s.Inc(port, AnnounceTimeout)
}

// IncMasterConflict atomically adds 1 to the counter
func (s *Stats) IncMasterConflict(port int) {
	s.Inc(port, MasterConflict)
}

// Reset atomically sets all the counters to 0
func (s *Stats) Reset() {
	for p := range s.ports {
		for c := range s.ports[p] {
			s.ports[p][c].Store(0)
		}
	}
}

func (s *Stats) active(port int) bool {
	for c := range s.ports[port] {
		if s.ports[port][c].Load() != 0 {
			return true
		}
	}
	return false
}

// ToMap returns counters of all active ports keyed as port.N.counter
func (s *Stats) ToMap() map[string]int64 {
	res := map[string]int64{}
	for p := 0; p < MaxPorts; p++ {
		if !s.active(p) {
			continue
		}
		for c := Counter(0); c < numCounters; c++ {
			res[fmt.Sprintf("port.%d.%s", p, c)] = s.ports[p][c].Load()
		}
	}
	return res
}

// Describe implements prometheus.Collector
func (s *Stats) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range s.descs {
		ch <- d
	}
}

// Collect implements prometheus.Collector
func (s *Stats) Collect(ch chan<- prometheus.Metric) {
	for p := 0; p < MaxPorts; p++ {
		if !s.active(p) {
			continue
		}
		label := strconv.Itoa(p)
		for c := Counter(0); c < numCounters; c++ {
			ch <- prometheus.MustNewConstMetric(s.descs[c], prometheus.CounterValue, float64(s.ports[p][c].Load()), label)
		}
	}
}

// handleRequest is a handler used for all http monitoring requests
func (s *Stats) handleRequest(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.ToMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err = w.Write(js); err != nil {
		log.Errorf("Failed to reply: %v", err)
	}
}

// Handler serves JSON counters on / and Prometheus metrics on /metrics
func (s *Stats) Handler() http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(s)
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRequest)
	mux.Handle("/metrics", promhttp.HandlerFor(
		registry,
		promhttp.HandlerOpts{
			// Opt into OpenMetrics to support exemplars.
			EnableOpenMetrics: true,
		},
	))
	return mux
}

// Serve runs http server on monitoringport until ctx is done
func (s *Stats) Serve(ctx context.Context, monitoringport int) error {
	addr := fmt.Sprintf(":%d", monitoringport)
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		if err := srv.Close(); err != nil {
			log.Errorf("Failed to stop http server: %v", err)
		}
	}()
	log.Infof("Starting http json server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	return key
}
