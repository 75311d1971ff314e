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
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	swordfish "github.com/ZaparooProject/go-swordfish"
)

type frameView struct {
	Counter uint16 `json:"counter" yaml:"counter"`
	Opcode  uint8  `json:"opcode" yaml:"opcode"`
	Length  uint16 `json:"length" yaml:"length"`
	Payload string `json:"payload" yaml:"payload"`
}

var sendCmd = &cobra.Command{
	Use:   "send <opcode> [hex payload]",
	Short: "Send a raw frame and print the reply",
	Long: `Send a raw frame under a registered opcode. The opcode may be decimal or
0x-prefixed hex; the payload is hex, with optional spaces or colons.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		opcode, err := strconv.ParseUint(args[0], 0, 8)
		if err != nil {
			return fmt.Errorf("invalid opcode %q: %w", args[0], err)
		}

		var payload []byte
		if len(args) == 2 {
			if payload, err = parseHex(args[1]); err != nil {
				return err
			}
		}

		s, err := openSession()
		if err != nil {
			return err
		}
		defer closeSession(s)

		f, err := swordfish.NewFrame(s.NextCounter(), uint8(opcode), payload)
		if err != nil {
			return err
		}
		resp, err := s.Send(f)
		if err != nil {
			return err
		}
		if resp == nil {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no response")
			return nil
		}

		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatter.Format(frameView{
			Counter: resp.Counter,
			Opcode:  resp.Opcode,
			Length:  resp.Length,
			Payload: hex.EncodeToString(resp.Payload),
		}))
		return nil
	},
}

func parseHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "").Replace(s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload: %w", err)
	}
	return b, nil
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
