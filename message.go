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

import (
	"fmt"
	"strings"

	"github.com/ZaparooProject/go-swordfish/internal/frame"
)

// Frame is one complete on-wire protocol unit.
type Frame = frame.Frame

// NewFrame builds a host-to-peer frame from a raw payload.
func NewFrame(counter uint16, opcode uint8, payload []byte) (Frame, error) {
	f, err := frame.New(counter, opcode, payload)
	if err != nil {
		return Frame{}, fmt.Errorf("build frame for opcode %d: %w", opcode, err)
	}
	return f, nil
}

// CategoryKind is the protocol role of an opcode
type CategoryKind uint8

const (
	// KindBounce messages are echoed by the peer under the same opcode
	KindBounce CategoryKind = iota
	// KindParam messages get or set a parameter; the reply shares the opcode
	KindParam
	// KindOperation messages trigger an action answered under another opcode
	KindOperation
	// KindResponse messages only ever arrive from the peer
	KindResponse
)

// Category describes how a sent message is answered.
type Category struct {
	Kind           CategoryKind
	responseOpcode uint8
	hasResponse    bool
}

// Bounce returns the category for echoed messages.
func Bounce() Category { return Category{Kind: KindBounce} }

// Param returns the category for parameter get/set messages.
func Param() Category { return Category{Kind: KindParam} }

// Operation returns the category for an operation answered under responseOpcode.
func Operation(responseOpcode uint8) Category {
	return Category{Kind: KindOperation, responseOpcode: responseOpcode, hasResponse: true}
}

// OperationNoResponse returns the category for fire-and-forget operations.
func OperationNoResponse() Category { return Category{Kind: KindOperation} }

// Response returns the category for peer-originated replies.
func Response() Category { return Category{Kind: KindResponse} }

// ResponseOpcode returns the opcode an operation is answered under.
func (c Category) ResponseOpcode() (uint8, bool) {
	return c.responseOpcode, c.hasResponse
}

// AwaitOpcode returns the opcode whose bucket a sender of opcode should
// wait on, or false when no reply is expected.
func (c Category) AwaitOpcode(opcode uint8) (uint8, bool) {
	switch c.Kind {
	case KindBounce, KindParam:
		return opcode, true
	case KindOperation:
		return c.responseOpcode, c.hasResponse
	default:
		return 0, false
	}
}

// String implements fmt.Stringer
func (c Category) String() string {
	switch c.Kind {
	case KindBounce:
		return "Bounce"
	case KindParam:
		return "Param"
	case KindOperation:
		if c.hasResponse {
			return fmt.Sprintf("Operation(%d)", c.responseOpcode)
		}
		return "Operation(none)"
	case KindResponse:
		return "Response"
	default:
		return fmt.Sprintf("Category(%d)", c.Kind)
	}
}

// Message is implemented by every typed payload in the catalog.
//
// Payloads are fixed-size: MarshalPayload always returns PayloadSize bytes and
// UnmarshalPayload is only called with exactly PayloadSize bytes.
type Message interface {
	Opcode() uint8
	Category() Category
	PayloadSize() int
	MarshalPayload() []byte
	UnmarshalPayload(payload []byte) error
}

// Descriptor is the registry's view of a message type
type Descriptor struct {
	Name     string
	Category Category
	Opcode   uint8
}

// DescriptorOf returns the registry descriptor for m.
func DescriptorOf(m Message) Descriptor {
	name := fmt.Sprintf("%T", m)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return Descriptor{Name: name, Opcode: m.Opcode(), Category: m.Category()}
}

// Encode wraps m in a host-to-peer frame.
//
// A message type whose payload does not fit in a frame is a defect in the
// catalog, so Encode panics rather than returning an error.
func Encode(m Message, counter uint16) Frame {
	if m.PayloadSize() > frame.MaxPayloadSize {
		panic(fmt.Sprintf("message %T payload of %d bytes exceeds %d", m, m.PayloadSize(), frame.MaxPayloadSize))
	}
	return frame.MustNew(counter, m.Opcode(), m.MarshalPayload())
}

// Decode reads a frame back into a typed message. It fails with
// ErrOpcodeMismatch or ErrLengthMismatch when f does not carry a T.
func Decode[T any, PT interface {
	*T
	Message
}](f Frame) (T, error) {
	var v T
	m := PT(&v)

	if f.Opcode != m.Opcode() {
		return v, fmt.Errorf("%w: expected %d, got %d", ErrOpcodeMismatch, m.Opcode(), f.Opcode)
	}
	if int(f.Length) != m.PayloadSize() || len(f.Payload) != m.PayloadSize() {
		return v, fmt.Errorf("%w: expected %d, got %d", ErrLengthMismatch, m.PayloadSize(), f.Length)
	}
	if err := m.UnmarshalPayload(f.Payload); err != nil {
		return v, fmt.Errorf("decode opcode %d: %w", f.Opcode, err)
	}
	return v, nil
}

// Describe renders a message for humans: opcode, category and fields.
func Describe(m Message) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "  Opcode: %d\n", m.Opcode())
	_, _ = fmt.Fprintf(&b, "  Category: %s\n", m.Category())
	_, _ = fmt.Fprintf(&b, "      %+v\n", m)
	return b.String()
}
