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

package swordfish

import "encoding/binary"

// Catalog opcodes
const (
	OpcodePing        uint8 = 0
	OpcodeVersionData uint8 = 2
)

// Ping is an empty message the peer echoes back.
type Ping struct{}

// Opcode implements Message
func (Ping) Opcode() uint8 { return OpcodePing }

// Category implements Message
func (Ping) Category() Category { return Bounce() }

// PayloadSize implements Message
func (Ping) PayloadSize() int { return 0 }

// MarshalPayload implements Message
func (Ping) MarshalPayload() []byte { return []byte{} }

// UnmarshalPayload implements Message
func (*Ping) UnmarshalPayload([]byte) error { return nil }

// VersionData identifies the peer's firmware and MCU.
//
// Wire layout (little-endian):
//
//	offset 0  size 1  version
//	offset 1  size 1  subversion
//	offset 2  size 4  mcu type
//	offset 6  size 8  uuid
type VersionData struct {
	MCUType    uint32
	UUID       [8]byte
	Version    uint8
	Subversion uint8
}

const versionDataSize = 1 + 1 + 4 + 8

// NewVersionData builds a VersionData, copying at most eight uuid bytes.
func NewVersionData(version, subversion uint8, mcuType uint32, uuid []byte) VersionData {
	v := VersionData{Version: version, Subversion: subversion, MCUType: mcuType}
	copy(v.UUID[:], uuid)
	return v
}

// Opcode implements Message
func (VersionData) Opcode() uint8 { return OpcodeVersionData }

// Category implements Message
func (VersionData) Category() Category { return Bounce() }

// PayloadSize implements Message
func (VersionData) PayloadSize() int { return versionDataSize }

// MarshalPayload implements Message
func (v VersionData) MarshalPayload() []byte {
	buf := make([]byte, versionDataSize)
	buf[0] = v.Version
	buf[1] = v.Subversion
	binary.LittleEndian.PutUint32(buf[2:6], v.MCUType)
	copy(buf[6:14], v.UUID[:])
	return buf
}

// UnmarshalPayload implements Message
func (v *VersionData) UnmarshalPayload(payload []byte) error {
	if len(payload) != versionDataSize {
		return ErrLengthMismatch
	}
	v.Version = payload[0]
	v.Subversion = payload[1]
	v.MCUType = binary.LittleEndian.Uint32(payload[2:6])
	copy(v.UUID[:], payload[6:14])
	return nil
}

// DefaultCatalog returns every message type the peer firmware knows about.
func DefaultCatalog() []Message {
	return []Message{
		&Ping{},
		&VersionData{},
	}
}
