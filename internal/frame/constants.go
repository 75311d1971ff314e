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

// Package frame implements the on-wire frame format spoken with the peer:
// encoding, checksum and incremental decoding of a byte stream.
package frame

// Sync words as they appear on the wire, one per direction.
var (
	HostToPeerSync = [SyncSize]byte{0xEF, 0xBE, 0xAD, 0xDE} // Frames sent by the host
	PeerToHostSync = [SyncSize]byte{0xDE, 0xAD, 0xBE, 0xEF} // Frames sent by the peer
)

// Header field offsets
const (
	offsetSync    = 0
	offsetCounter = 4
	offsetOpcode  = 6
	offsetLength  = 7
)

// Frame size limits
const (
	SyncSize       = 4   // Sync word length
	HeaderSize     = 9   // sync + counter + opcode + length
	ChecksumSize   = 1   // Trailing checksum byte
	MaxPayloadSize = 245 // Largest payload a frame may carry
	MaxFrameSize   = 255 // HeaderSize + MaxPayloadSize + ChecksumSize
	MinFrameSize   = HeaderSize + ChecksumSize
)

// decoderCapacity holds three maximum-size frames.
const decoderCapacity = 3 * MaxFrameSize
