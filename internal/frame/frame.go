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

package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame errors
var (
	ErrPayloadTooLarge = errors.New("payload exceeds maximum frame payload size")
	ErrInvalidLength   = errors.New("frame length does not match payload")
)

// Frame is one complete protocol unit: header, payload and checksum.
type Frame struct {
	Payload  []byte
	Sync     [SyncSize]byte
	Counter  uint16
	Length   uint16
	Opcode   uint8
	Checksum uint8
}

// New builds a host-to-peer frame carrying payload.
func New(counter uint16, opcode uint8, payload []byte) (Frame, error) {
	return NewWithSync(HostToPeerSync, counter, opcode, payload)
}

// NewWithSync builds a frame with an explicit sync word. The virtual peer
// uses it to produce peer-to-host frames.
func NewWithSync(sync [SyncSize]byte, counter uint16, opcode uint8, payload []byte) (Frame, error) {
	if len(payload) > MaxPayloadSize {
		return Frame{}, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}

	p := make([]byte, len(payload))
	copy(p, payload)

	length := uint16(len(p))
	return Frame{
		Sync:     sync,
		Counter:  counter,
		Opcode:   opcode,
		Length:   length,
		Payload:  p,
		Checksum: Checksum(sync, counter, opcode, length, p),
	}, nil
}

// MustNew is like New but panics if the payload is too large.
// It is meant for payloads whose size is fixed at compile time.
func MustNew(counter uint16, opcode uint8, payload []byte) Frame {
	f, err := New(counter, opcode, payload)
	if err != nil {
		panic(err)
	}
	return f
}

// Checksum computes the 8-bit wraparound sum over the header fields,
// the sync word and the payload.
func Checksum(sync [SyncSize]byte, counter uint16, opcode uint8, length uint16, payload []byte) uint8 {
	sum := opcode +
		uint8(length) + uint8(length>>8) +
		uint8(counter) + uint8(counter>>8)

	for _, b := range sync {
		sum += b
	}
	if length > 0 {
		for _, b := range payload[:length] {
			sum += b
		}
	}
	return sum
}

// Size returns the number of bytes the frame occupies on the wire.
func (f Frame) Size() int {
	return HeaderSize + int(f.Length) + ChecksumSize
}

// Validate checks the length invariant and the stored checksum.
func (f Frame) Validate() error {
	if int(f.Length) != len(f.Payload) || f.Length > MaxPayloadSize {
		return fmt.Errorf("%w: length field %d, payload %d bytes", ErrInvalidLength, f.Length, len(f.Payload))
	}
	if want := Checksum(f.Sync, f.Counter, f.Opcode, f.Length, f.Payload); want != f.Checksum {
		return fmt.Errorf("checksum mismatch: got 0x%02X, want 0x%02X", f.Checksum, want)
	}
	return nil
}

// Bytes serializes the frame to its wire layout. The result is exactly
// Size() bytes long.
func (f Frame) Bytes() []byte {
	buf := make([]byte, f.Size())
	copy(buf[offsetSync:], f.Sync[:])
	binary.LittleEndian.PutUint16(buf[offsetCounter:], f.Counter)
	buf[offsetOpcode] = f.Opcode
	binary.LittleEndian.PutUint16(buf[offsetLength:], f.Length)
	copy(buf[HeaderSize:], f.Payload[:f.Length])
	buf[HeaderSize+int(f.Length)] = f.Checksum
	return buf
}

// String implements fmt.Stringer
func (f Frame) String() string {
	return fmt.Sprintf("Frame{counter=%d opcode=%d length=%d checksum=0x%02X payload=% X}",
		f.Counter, f.Opcode, f.Length, f.Checksum, f.Payload)
}
