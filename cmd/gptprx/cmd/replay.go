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

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/facebook/gptp/replay"
	"github.com/facebook/gptp/slave/stats"
	"github.com/facebook/gptp/timebase"
)

var (
	replayConfigFlag         string
	replayMonitoringPortFlag int
	replayDumpFlag           bool
	replayPortFlag           int
	replayPathDelayFlag      time.Duration
	replayHoldFlag           time.Duration
)

func init() {
	RootCmd.AddCommand(replayCmd)
	replayCmd.Flags().StringVarP(&replayConfigFlag, "config", "c", "", "path to the config")
	replayCmd.Flags().IntVarP(&replayMonitoringPortFlag, "monitoringport", "m", 0, "port to serve counters on while replaying, 0 disables")
	replayCmd.Flags().BoolVarP(&replayDumpFlag, "dump", "d", false, "dump every decoded gPTP message to stdout")
	replayCmd.Flags().IntVarP(&replayPortFlag, "port", "p", 0, "slave port frames are received on")
	replayCmd.Flags().DurationVar(&replayPathDelayFlag, "pdelay", 0, "path delay of the link")
	replayCmd.Flags().DurationVar(&replayHoldFlag, "hold", 0, "keep serving counters after replay for this long")
}

// report prints what time bases got and what slave counted
func report(w io.Writer, summary *replay.Summary, recorder *timebase.Recorder, st *stats.Stats) {
	fmt.Fprintf(w, "frames: %d, gPTP: %d, accepted: %d, discarded: %d, ignored: %d, malformed: %d, ticks: %d\n",
		summary.Frames, summary.GPTP, summary.Accepted, summary.Discarded, summary.Ignored, summary.Malformed, summary.Ticks)
	if len(recorder.Records()) == 0 {
		fmt.Fprintln(w, "No time submitted")
	} else if err := recorder.WriteTable(w); err != nil {
		log.Errorf("failed to print time bases: %v", err)
	}
	counters := st.ToMap()
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %d\n", k, counters[k])
	}
}

func runReplay(cfg *replay.Config, input string, dump bool, hold time.Duration) error {
	f, err := os.Open(input)
	if err != nil {
		return err
	}
	defer f.Close()

	recorder := timebase.NewRecorder()
	st := stats.NewStats()
	r, err := replay.New(cfg, recorder, st)
	if err != nil {
		return err
	}
	if dump {
		r.SetDump(os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)
	serveCtx, cancelServe := context.WithCancel(ctx)
	defer cancelServe()
	if cfg.MonitoringPort > 0 {
		eg.Go(func() error {
			return st.Serve(serveCtx, cfg.MonitoringPort)
		})
	}
	var summary *replay.Summary
	eg.Go(func() error {
		defer cancelServe()
		var err error
		summary, err = r.Run(ctx, f)
		if err != nil {
			return err
		}
		if hold > 0 && cfg.MonitoringPort > 0 {
			log.Infof("serving counters on port %d for %v", cfg.MonitoringPort, hold)
			select {
			case <-ctx.Done():
			case <-time.After(hold):
			}
		}
		return nil
	})
	err = eg.Wait()
	// report in any case, replay may be interrupted half way
	if summary != nil {
		report(os.Stdout, summary, recorder, st)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

var replayCmd = &cobra.Command{
	Use:   "replay [file]",
	Short: "Replay gPTP frames from a pcap or pcapng capture through the slave",
	Long: `Replay subcommand feeds every gPTP frame (EtherType 0x88F7) of the capture to a slave port.
Capture timestamps are used as ingress timestamps and drive the slave scheduler,
so Follow_Up and Announce timeouts behave as they would have on the wire.
Corrected time is recorded per time base and summarized when the capture ends.`,
	Args: cobra.ExactArgs(1),
	Run: func(c *cobra.Command, args []string) {
		ConfigureVerbosity()
		setFlags := map[string]bool{}
		c.Flags().Visit(func(f *pflag.Flag) {
			setFlags[f.Name] = true
		})
		cfg, err := replay.PrepareConfig(replayConfigFlag, replayPortFlag, replayPathDelayFlag, replayMonitoringPortFlag, setFlags)
		if err != nil {
			log.Fatal(err)
		}
		if err := runReplay(cfg, args[0], replayDumpFlag, replayHoldFlag); err != nil {
			log.Fatal(err)
		}
	},
}
