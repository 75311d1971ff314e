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

	"github.com/spf13/cobra"

	"github.com/ZaparooProject/go-swordfish/detection"
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports on this host",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ports, err := listPorts()
		if err != nil {
			logger.Error().Err(err).Msg("no listing")
			return err
		}

		if _, ok := formatter.(*TableFormatter); ok {
			_, _ = fmt.Fprint(cmd.OutOrStdout(), detection.FormatPorts(ports))
			return nil
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatter.Format(ports))
		return nil
	},
}

var extraIDs []string

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Print the port the board is most likely attached to",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ports, err := listPorts()
		if err != nil {
			return err
		}

		p, ok := detection.ProbablePeer(ports, detection.Filter{
			IgnorePaths: cfg.IgnorePaths,
			Extra:       extraIDs,
		})
		if !ok {
			return fmt.Errorf("%w among %d ports", detection.ErrNoPeerFound, len(ports))
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), p.Name)
		return nil
	},
}

func init() {
	findCmd.Flags().StringSliceVar(&extraIDs, "vidpid", nil, "additional VID:PID to accept")
	rootCmd.AddCommand(portsCmd, findCmd)
}
