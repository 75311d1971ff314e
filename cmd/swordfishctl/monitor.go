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
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-swordfish/monitor"
)

type monitorReport struct {
	State       string `json:"state" yaml:"state"`
	Pings       int64  `json:"pings" yaml:"pings"`
	Failures    int64  `json:"failures" yaml:"failures"`
	Transitions int64  `json:"transitions" yaml:"transitions"`
	LastLatency string `json:"last_latency" yaml:"last_latency"`
	TxFrames    uint64 `json:"tx_frames" yaml:"tx_frames"`
	RxFrames    uint64 `json:"rx_frames" yaml:"rx_frames"`
}

var (
	monitorDuration  time.Duration
	monitorThreshold int
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Ping the board continuously and report link changes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession(s)

		mcfg := monitor.DefaultConfig()
		mcfg.Interval = cfg.MonitorInterval
		mcfg.MaxInterval = max(mcfg.MaxInterval, cfg.MonitorInterval)
		mcfg.FailureThreshold = monitorThreshold

		actor, err := monitor.NewActor(s, mcfg, monitor.Callbacks{
			OnLinkUp: func() {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "link up")
			},
			OnLinkDown: func(err error) {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "link down: %v\n", err)
			},
		}, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		if monitorDuration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, monitorDuration)
			defer cancel()
		}

		if err := actor.Start(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
		case <-s.Done():
			logger.Warn().Err(s.Err()).Msg("serial link lost")
		}
		actor.Stop()

		m := actor.GetMetrics()
		stats := s.Stats()
		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatter.Format(monitorReport{
			State:       m.State.String(),
			Pings:       m.PingCycles,
			Failures:    m.PingErrors,
			Transitions: m.Transitions,
			LastLatency: m.LastLatency.String(),
			TxFrames:    stats.TxFrames,
			RxFrames:    stats.RxFrames,
		}))
		return nil
	},
}

func init() {
	monitorCmd.Flags().DurationVar(&monitorDuration, "duration", 0, "stop after this long (default: until interrupted)")
	monitorCmd.Flags().IntVar(&monitorThreshold, "threshold", 3, "unanswered pings before the link counts as down")
	rootCmd.AddCommand(monitorCmd)
}
