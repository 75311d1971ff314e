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
	"time"

	"github.com/spf13/cobra"

	swordfish "github.com/ZaparooProject/go-swordfish"
)

type pingResult struct {
	Seq      int    `json:"seq" yaml:"seq"`
	Counter  uint16 `json:"counter" yaml:"counter"`
	Answered bool   `json:"answered" yaml:"answered"`
	Latency  string `json:"latency" yaml:"latency"`
}

var (
	pingCount int
	pingWait  time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping the board and report round-trip times",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession(s)

		if pingWait > 0 {
			if err := s.WaitForPeer(pingWait); err != nil {
				return err
			}
		}

		results := make([]pingResult, 0, pingCount)
		answered := 0
		for seq := 1; seq <= pingCount; seq++ {
			counter := s.NextCounter()
			start := time.Now()
			resp, err := s.Send(swordfish.Encode(&swordfish.Ping{}, counter))
			if err != nil {
				return err
			}

			r := pingResult{Seq: seq, Counter: counter, Latency: "-"}
			if resp != nil {
				r.Answered = true
				r.Latency = time.Since(start).Round(time.Microsecond).String()
				answered++
			}
			results = append(results, r)
		}

		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatter.Format(results))
		if answered == 0 {
			return fmt.Errorf("%w after %d pings", swordfish.ErrNoResponse, pingCount)
		}
		return nil
	},
}

func init() {
	pingCmd.Flags().IntVarP(&pingCount, "count", "c", 4, "number of pings")
	pingCmd.Flags().DurationVar(&pingWait, "wait", 0, "keep pinging up to this long until the board answers first")
	rootCmd.AddCommand(pingCmd)
}
