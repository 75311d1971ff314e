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
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	virt "github.com/ZaparooProject/go-swordfish/internal/testing"
)

const (
	opcodeStartMotor   uint8 = 4
	opcodeMotorStarted uint8 = 5
	opcodeReset        uint8 = 6
	opcodeSpeed        uint8 = 7
)

// startMotor is answered under opcodeMotorStarted
type startMotor struct {
	Speed uint16
}

func (startMotor) Opcode() uint8      { return opcodeStartMotor }
func (startMotor) Category() Category { return Operation(opcodeMotorStarted) }
func (startMotor) PayloadSize() int   { return 2 }
func (m startMotor) MarshalPayload() []byte {
	return binary.LittleEndian.AppendUint16(nil, m.Speed)
}

func (m *startMotor) UnmarshalPayload(p []byte) error {
	m.Speed = binary.LittleEndian.Uint16(p)
	return nil
}

type motorStarted struct {
	Status uint8
}

func (motorStarted) Opcode() uint8            { return opcodeMotorStarted }
func (motorStarted) Category() Category       { return Response() }
func (motorStarted) PayloadSize() int         { return 1 }
func (m motorStarted) MarshalPayload() []byte { return []byte{m.Status} }

func (m *motorStarted) UnmarshalPayload(p []byte) error {
	m.Status = p[0]
	return nil
}

type reset struct{}

func (reset) Opcode() uint8                  { return opcodeReset }
func (reset) Category() Category             { return OperationNoResponse() }
func (reset) PayloadSize() int               { return 0 }
func (reset) MarshalPayload() []byte         { return nil }
func (*reset) UnmarshalPayload([]byte) error { return nil }

type speedParam struct {
	RPM uint32
}

func (speedParam) Opcode() uint8      { return opcodeSpeed }
func (speedParam) Category() Category { return Param() }
func (speedParam) PayloadSize() int   { return 4 }
func (m speedParam) MarshalPayload() []byte {
	return binary.LittleEndian.AppendUint32(nil, m.RPM)
}

func (m *speedParam) UnmarshalPayload(p []byte) error {
	m.RPM = binary.LittleEndian.Uint32(p)
	return nil
}

func testCatalog() []Message {
	return []Message{&startMotor{}, &motorStarted{}, &reset{}, &speedParam{}}
}

// openVirtual opens a session against peer through a fresh Manager.
func openVirtual(t *testing.T, peer *virt.VirtualPeer, opts ...Option) *Session {
	t.Helper()

	all := []Option{
		WithPortOpener(func(name string, timeout time.Duration) (Port, error) {
			return peer.Open(name, timeout)
		}),
		WithMessages(testCatalog()...),
	}
	all = append(all, opts...)

	s, err := NewManager().Open("virtual", all...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}
