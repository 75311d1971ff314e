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
	"bytes"
	"encoding/binary"
	"fmt"
)

// DecoderStats counts the data a Decoder had to throw away
type DecoderStats struct {
	Frames          uint64 // Verified frames returned
	ChecksumErrors  uint64 // Sync words followed by a bad checksum
	LengthErrors    uint64 // Sync words followed by an over-length declaration
	DiscardedBytes  uint64 // Bytes dropped while searching for a sync word
	EvictedSegments uint64 // Times a full frame's worth of syncless bytes was evicted
}

// Decoder reassembles frames from arbitrarily chunked input. It is not safe
// for concurrent use; the session's I/O loop is its only user.
type Decoder struct {
	buf   [decoderCapacity]byte
	n     int
	sync  [SyncSize]byte
	stats DecoderStats
}

// NewDecoder returns a decoder for peer-to-host frames.
func NewDecoder() *Decoder {
	return NewDecoderFor(PeerToHostSync)
}

// NewDecoderFor returns a decoder that searches for the given sync word.
func NewDecoderFor(sync [SyncSize]byte) *Decoder {
	return &Decoder{sync: sync}
}

// Append adds chunk to the accumulated bytes and tries to extract one frame.
//
// Chunks are expected to be no larger than MaxFrameSize. Appending more than
// the buffer can hold is a programming error and panics.
func (d *Decoder) Append(chunk []byte) (Frame, bool) {
	if d.n+len(chunk) > len(d.buf) {
		panic(fmt.Sprintf("frame decoder overflow: capacity %d, required %d", len(d.buf), d.n+len(chunk)))
	}
	d.n += copy(d.buf[d.n:], chunk)
	return d.Next()
}

// Next tries to extract a frame from already buffered bytes.
func (d *Decoder) Next() (Frame, bool) {
	for {
		start := bytes.Index(d.buf[:d.n], d.sync[:])
		if start < 0 {
			d.evictSyncless()
			return Frame{}, false
		}

		// Everything before the sync word can never become part of a frame
		if start > 0 {
			d.stats.DiscardedBytes += uint64(start)
			d.consume(start)
		}

		if d.n < HeaderSize {
			return Frame{}, false
		}

		length := binary.LittleEndian.Uint16(d.buf[offsetLength:])
		if length > MaxPayloadSize {
			d.stats.LengthErrors++
			d.skipSync()
			continue
		}

		end := HeaderSize + int(length) + ChecksumSize
		if d.n < end {
			return Frame{}, false
		}

		f := d.parse(length)
		if f.Checksum != Checksum(f.Sync, f.Counter, f.Opcode, f.Length, f.Payload) {
			d.stats.ChecksumErrors++
			d.skipSync()
			continue
		}

		d.consume(end)
		d.stats.Frames++
		return f, true
	}
}

// Buffered returns the number of bytes waiting in the decoder.
func (d *Decoder) Buffered() int {
	return d.n
}

// Stats returns a snapshot of the decoder's counters.
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// parse reads a frame starting at the front of the buffer.
func (d *Decoder) parse(length uint16) Frame {
	var f Frame
	copy(f.Sync[:], d.buf[offsetSync:offsetSync+SyncSize])
	f.Counter = binary.LittleEndian.Uint16(d.buf[offsetCounter:])
	f.Opcode = d.buf[offsetOpcode]
	f.Length = length
	f.Payload = make([]byte, length)
	copy(f.Payload, d.buf[HeaderSize:HeaderSize+int(length)])
	f.Checksum = d.buf[HeaderSize+int(length)]
	return f
}

// skipSync drops the first byte so the sync word at the front is not matched again.
func (d *Decoder) skipSync() {
	d.stats.DiscardedBytes++
	d.consume(1)
}

// evictSyncless bounds the buffer when no sync word is present
func (d *Decoder) evictSyncless() {
	if d.n >= 2*MaxFrameSize {
		d.stats.EvictedSegments++
		d.stats.DiscardedBytes += MaxFrameSize
		d.consume(MaxFrameSize)
	}
}

func (d *Decoder) consume(count int) {
	copy(d.buf[:], d.buf[count:d.n])
	d.n -= count
}
