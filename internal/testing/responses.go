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

package testing

import (
	"encoding/binary"

	"github.com/ZaparooProject/go-swordfish/internal/frame"
)

// Echo answers every frame with an identical peer frame.
func Echo(req frame.Frame) []frame.Frame {
	return []frame.Frame{PeerFrame(req.Counter, req.Opcode, req.Payload)}
}

// Silent never answers.
func Silent(frame.Frame) []frame.Frame {
	return nil
}

// ReplyUnder answers frames carrying opcode with a reply under
// responseOpcode. Other opcodes are echoed.
func ReplyUnder(opcode, responseOpcode uint8, payload []byte) Handler {
	return func(req frame.Frame) []frame.Frame {
		if req.Opcode != opcode {
			return Echo(req)
		}
		return []frame.Frame{PeerFrame(req.Counter, responseOpcode, payload)}
	}
}

// Route dispatches to per-opcode handlers and stays silent for the rest.
func Route(routes map[uint8]Handler) Handler {
	return func(req frame.Frame) []frame.Frame {
		if h, ok := routes[req.Opcode]; ok {
			return h(req)
		}
		return nil
	}
}

// AnswerAfter stays silent for the first n frames, then delegates to h.
func AnswerAfter(n int, h Handler) Handler {
	seen := 0
	return func(req frame.Frame) []frame.Frame {
		seen++
		if seen <= n {
			return nil
		}
		return h(req)
	}
}

// PeerFrame builds a peer-to-host frame. It panics on an oversized payload.
func PeerFrame(counter uint16, opcode uint8, payload []byte) frame.Frame {
	f, err := frame.NewWithSync(frame.PeerToHostSync, counter, opcode, payload)
	if err != nil {
		panic(err)
	}
	return f
}

// BuildVersionDataPayload lays out a version record as the firmware sends it.
func BuildVersionDataPayload(version, subversion uint8, mcuType uint32, uuid [8]byte) []byte {
	payload := make([]byte, 14)
	payload[0] = version
	payload[1] = subversion
	binary.LittleEndian.PutUint32(payload[2:6], mcuType)
	copy(payload[6:], uuid[:])
	return payload
}

// VersionReply answers a version request with a fixed record.
func VersionReply(version, subversion uint8, mcuType uint32, uuid [8]byte) Handler {
	payload := BuildVersionDataPayload(version, subversion, mcuType, uuid)
	return func(req frame.Frame) []frame.Frame {
		return []frame.Frame{PeerFrame(req.Counter, req.Opcode, payload)}
	}
}
