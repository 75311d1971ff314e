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
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	swordfish "github.com/ZaparooProject/go-swordfish"
)

type versionInfo struct {
	Port     string `json:"port" yaml:"port"`
	Firmware string `json:"firmware" yaml:"firmware"`
	MCUType  string `json:"mcu_type" yaml:"mcu_type"`
	UUID     string `json:"uuid" yaml:"uuid"`
}

var versionAttempts int

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Query the board's firmware version and MCU identity",
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession(s)

		v, err := swordfish.RequestWithRetry[swordfish.VersionData](s, &swordfish.VersionData{}, versionAttempts, 0)
		if err != nil {
			return fmt.Errorf("failed to get version: %w", err)
		}
		logger.Debug().Msg("version reply\n" + swordfish.Describe(&v))

		info := versionInfo{
			Port:     s.PortName(),
			Firmware: fmt.Sprintf("%d.%d", v.Version, v.Subversion),
			MCUType:  fmt.Sprintf("0x%08X", v.MCUType),
			UUID:     hex.EncodeToString(v.UUID[:]),
		}
		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatter.Format(info))
		return nil
	},
}

func init() {
	versionCmd.Flags().IntVar(&versionAttempts, "attempts", 3, "number of tries before giving up")
	rootCmd.AddCommand(versionCmd)
}
