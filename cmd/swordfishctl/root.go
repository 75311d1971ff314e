// go-swordfish
// Copyright (c) 2025 The Zaparoo Project Contributors.
// SPDX-License-Identifier: LGPL-3.0-or-later
//
// This file is part of go-swordfish.
//
// go-swordfish is free software; you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public
// License as published by the Free Software Foundation; either
// version 3 of the License, or (at your option) any later version.
//
// go-swordfish is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-swordfish; if not, write to the Free Software Foundation,
// Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	swordfish "github.com/ZaparooProject/go-swordfish"
	"github.com/ZaparooProject/go-swordfish/detection"
)

const appName = "swordfishctl"

var (
	// Global flags
	cfgFile      string
	portName     string
	outputFormat string
	timeout      time.Duration
	debug        bool

	// Shared state set during PersistentPreRun
	cfg       *cliConfig
	logger    zerolog.Logger
	formatter Formatter

	// One manager per process; it refuses a second concurrent session
	manager    = swordfish.NewManager()
	portOpener swordfish.PortOpener = swordfish.OpenSerialPort
	listPorts                       = detection.ListPorts
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Talk to a swordfish board over its serial link",
	Long: `swordfishctl opens the serial link to a swordfish board and exchanges
framed messages with it: pings, version queries, raw frames and a
continuous link monitor.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded := defaultConfig()
		if cfgFile != "" {
			var err error
			if loaded, err = loadConfig(cfgFile); err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
		}

		// Flags override the file
		flags := cmd.Flags()
		if flags.Changed("port") {
			loaded.Port = portName
		}
		if flags.Changed("output") {
			loaded.OutputFormat = outputFormat
		}
		if flags.Changed("timeout") {
			loaded.ResponseTimeout = timeout
		}
		if debug {
			loaded.LogLevel = "debug"
		}

		level, err := zerolog.ParseLevel(loaded.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", loaded.LogLevel, err)
		}

		logger = initLogger(appName, cmd.ErrOrStderr(), level)
		formatter = NewFormatter(loaded.OutputFormat)
		cfg = &loaded
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openSession opens the configured port, or the probable peer port when
// none is configured.
func openSession() (*swordfish.Session, error) {
	name := cfg.Port
	if name == "" {
		ports, err := listPorts()
		if err != nil {
			return nil, err
		}
		p, ok := detection.ProbablePeer(ports, detection.Filter{IgnorePaths: cfg.IgnorePaths})
		if !ok {
			return nil, fmt.Errorf("no --port given: %w", detection.ErrNoPeerFound)
		}
		logger.Info().Str("port", p.Name).Str("vidpid", p.VIDPID).Msg("using probable peer port")
		name = p.Name
	}

	s, err := manager.Open(name,
		swordfish.WithLogger(logger),
		swordfish.WithPortOpener(portOpener),
		swordfish.WithResponseTimeout(cfg.ResponseTimeout),
		swordfish.WithPollInterval(cfg.PollInterval),
	)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	return s, nil
}

func closeSession(s *swordfish.Session) {
	if err := s.Close(); err != nil {
		logger.Warn().Err(err).Msg("close session")
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "",
		"serial device (e.g. /dev/ttyUSB0 or COM3); probable peer port if empty")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "",
		"output format: table, json, yaml (default \"table\")")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", swordfish.DefaultResponseTimeout,
		"how long to wait for each reply")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
