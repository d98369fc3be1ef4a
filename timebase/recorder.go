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
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/eclesh/welford"
	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"

	ptp "github.com/facebook/gptp/protocol"
)

// ErrInvalidTime is returned when submitted time has nanoseconds out of range
var ErrInvalidTime = errors.New("invalid time")

// Record is what Recorder knows about one time base
type Record struct {
	ID            ID
	GlobalUpdates int64
	OffsetUpdates int64
	TimingRecords int64
	Last          ptp.Timestamp
	LastVLT       VirtualLocalTime
	Status        Status
	UserData      *UserData
	PathDelay     time.Duration
	// Timing is the last slave timing evidence
	Timing *SlaveTimingData
	// drift of global time against virtual local time between consecutive updates, ns
	DriftMean   float64
	DriftStddev float64
}

type record struct {
	Record
	drift   *welford.Stats
	samples int
}

// Recorder is an in-memory Authority remembering the last submission per time base
type Recorder struct {
	sync.Mutex
	records map[ID]*record
}

// NewRecorder returns an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{records: map[ID]*record{}}
}

func (r *Recorder) get(id ID) *record {
	rec, ok := r.records[id]
	if !ok {
		rec = &record{Record: Record{ID: id}, drift: welford.New()}
		r.records[id] = rec
	}
	return rec
}

func copyUserData(u *UserData) *UserData {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// SetGlobalTime implements Authority
func (r *Recorder) SetGlobalTime(id ID, ts ptp.Timestamp, status Status, userData *UserData, m Measurement, vlt VirtualLocalTime) error {
	if !ts.Valid() {
		return fmt.Errorf("time base %d: %w: %v", id, ErrInvalidTime, ts)
	}
	r.Lock()
	defer r.Unlock()
	rec := r.get(id)
	if rec.GlobalUpdates > 0 {
		elapsed, err := ts.Sub(rec.Last)
		if err == nil {
			drift := elapsed - time.Duration(int64(vlt-rec.LastVLT))
			rec.drift.Add(float64(drift))
			rec.samples++
		}
	}
	rec.GlobalUpdates++
	rec.Last = ts
	rec.LastVLT = vlt
	rec.Status = status
	rec.UserData = copyUserData(userData)
	rec.PathDelay = m.PathDelay
	if rec.samples > 0 {
		rec.DriftMean = rec.drift.Mean()
	}
	if rec.samples > 1 {
		rec.DriftStddev = rec.drift.Stddev()
	}
	log.Debugf("time base %d: global time %v status %v path delay %v", id, ts, status, m.PathDelay)
	return nil
}

// SetSlaveTimingData implements Authority
func (r *Recorder) SetSlaveTimingData(id ID, data *SlaveTimingData) error {
	if data == nil {
		return fmt.Errorf("time base %d: no timing data", id)
	}
	r.Lock()
	defer r.Unlock()
	rec := r.get(id)
	rec.TimingRecords++
	c := *data
	rec.Timing = &c
	return nil
}

// SetOffsetTime implements Authority
func (r *Recorder) SetOffsetTime(id ID, ts ptp.Timestamp, userData *UserData, m Measurement) error {
	if !ts.Valid() {
		return fmt.Errorf("offset time base %d: %w: %v", id, ErrInvalidTime, ts)
	}
	r.Lock()
	defer r.Unlock()
	rec := r.get(id)
	rec.OffsetUpdates++
	rec.Last = ts
	rec.UserData = copyUserData(userData)
	rec.PathDelay = m.PathDelay
	log.Debugf("offset time base %d: time %v", id, ts)
	return nil
}

// Get returns a copy of what is known about time base id
func (r *Recorder) Get(id ID) (Record, bool) {
	r.Lock()
	defer r.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return Record{}, false
	}
	return rec.Record, true
}

// Records returns copies of all records ordered by time base ID
func (r *Recorder) Records() []Record {
	r.Lock()
	defer r.Unlock()
	res := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		res = append(res, rec.Record)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// WriteTable prints a summary of all time bases
func (r *Recorder) WriteTable(w io.Writer) error {
	table := tablewriter.NewWriter(w)
	table.Header(
		"time base", "updates", "offset updates", "timing", "last time", "status", "user data", "path delay", "drift mean(ns)", "drift stddev(ns)",
	)
	for _, rec := range r.Records() {
		userData := ""
		if rec.UserData != nil {
			userData = rec.UserData.String()
		}
		if err := table.Append([]string{
			fmt.Sprintf("%d", rec.ID),
			fmt.Sprintf("%d", rec.GlobalUpdates),
			fmt.Sprintf("%d", rec.OffsetUpdates),
			fmt.Sprintf("%d", rec.TimingRecords),
			rec.Last.String(),
			rec.Status.String(),
			userData,
			rec.PathDelay.String(),
			fmt.Sprintf("%.3f", rec.DriftMean),
			fmt.Sprintf("%.3f", rec.DriftStddev),
		}); err != nil {
			return err
		}
	}
	return table.Render()
}
