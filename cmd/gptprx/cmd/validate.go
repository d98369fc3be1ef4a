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
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	yaml "gopkg.in/yaml.v2"

	"github.com/facebook/gptp/replay"
)

var validateDefaultsFlag bool

func init() {
	RootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateDefaultsFlag, "defaults", false, "print default config and exit")
}

func printDefaults(w io.Writer) error {
	out, err := yaml.Marshal(replay.DefaultConfig())
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func runValidate(w io.Writer, path string) error {
	cfg, err := replay.ReadConfig(path)
	if err != nil {
		return fmt.Errorf("reading config from %q: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}
	fmt.Fprintf(w, "%s: %d endpoint(s), bridge: %v, tick interval: %v\n", path, len(cfg.Slave.Endpoints), cfg.Slave.Bridge, cfg.Slave.TickInterval)
	return nil
}

var validateCmd = &cobra.Command{
	Use:   "validate [config]",
	Short: "Check replay config",
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		ConfigureVerbosity()
		if validateDefaultsFlag {
			if err := printDefaults(os.Stdout); err != nil {
				log.Fatal(err)
			}
			return
		}
		if len(args) != 1 {
			log.Fatal("config path is required")
		}
		if err := runValidate(os.Stdout, args[0]); err != nil {
			log.Fatal(err)
		}
	},
}
