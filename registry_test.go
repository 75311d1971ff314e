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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(append(DefaultCatalog(), testCatalog()...))
	require.NoError(t, err)
	return r
}

func TestRegistry_Opcodes(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	assert.Equal(t, []uint8{0, 2, 4, 5, 6, 7}, r.Opcodes())
}

func TestRegistry_LookupUnknown(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	_, err := r.Lookup(99)
	require.ErrorIs(t, err, ErrUnknownOpcode)

	require.ErrorIs(t, r.SetReceiveFunc(99, func(Frame) {}), ErrUnknownOpcode)
	require.ErrorIs(t, r.Deliver(mustFrame(t, 99, nil)), ErrUnknownOpcode)
}

func TestRegistry_Rejects(t *testing.T) {
	t.Parallel()

	_, err := NewRegistryFromDescriptors(
		Descriptor{Name: "a", Opcode: 1, Category: Bounce()},
		Descriptor{Name: "b", Opcode: 1, Category: Param()},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "registered twice")

	_, err = NewRegistryFromDescriptors(Descriptor{Name: "op", Opcode: 1, Category: Operation(2)})
	require.ErrorIs(t, err, ErrUnknownOpcode)
}

func TestRegistry_DeliverThenTake(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	b, err := r.Lookup(OpcodePing)
	require.NoError(t, err)

	require.NoError(t, r.Deliver(mustFrame(t, OpcodePing, nil)))
	got, ok := b.Take(0)
	require.True(t, ok)
	assert.Equal(t, OpcodePing, got.Opcode)

	_, ok = b.Take(0)
	assert.False(t, ok, "Take must clear the bucket")
}

func TestRegistry_LastValueWins(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	require.NoError(t, r.Deliver(mustFrame(t, opcodeMotorStarted, []byte{1})))
	require.NoError(t, r.Deliver(mustFrame(t, opcodeMotorStarted, []byte{2})))

	b, err := r.Lookup(opcodeMotorStarted)
	require.NoError(t, err)
	got, ok := b.Take(0)
	require.True(t, ok)
	assert.Equal(t, []byte{2}, got.Payload)
}

func TestRegistry_ReceiveFuncRunsBeforeWaiterWakes(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	b, err := r.Lookup(opcodeMotorStarted)
	require.NoError(t, err)

	var sawEmpty bool
	require.NoError(t, r.SetReceiveFunc(opcodeMotorStarted, func(Frame) {
		_, taken := b.latest.TryTake()
		sawEmpty = !taken
	}))

	done := make(chan Frame, 1)
	go func() {
		f, _ := b.Take(time.Second)
		done <- f
	}()

	require.NoError(t, r.Deliver(mustFrame(t, opcodeMotorStarted, []byte{9})))
	select {
	case f := <-done:
		assert.Equal(t, []byte{9}, f.Payload)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken")
	}
	assert.True(t, sawEmpty)
}

func TestRegistry_ClearDropsStaleFrame(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t)
	b, err := r.Lookup(OpcodePing)
	require.NoError(t, err)

	require.NoError(t, r.Deliver(mustFrame(t, OpcodePing, nil)))
	b.Clear()

	start := time.Now()
	_, ok := b.Take(20 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}
