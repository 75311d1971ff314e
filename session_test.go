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
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZaparooProject/go-swordfish/internal/frame"
	virt "github.com/ZaparooProject/go-swordfish/internal/testing"
)

func TestSession_PingRoundTrip(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer)

	resp, err := s.SendMessage(&Ping{})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, OpcodePing, resp.Opcode)
	assert.Equal(t, frame.PeerToHostSync, resp.Sync)
	assert.Equal(t, uint64(1), s.TxCount())
	assert.Equal(t, uint64(1), s.RxCount())
	assert.Positive(t, peer.Drains())
}

func TestSession_CountersAdvance(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer)

	for range 3 {
		resp, err := s.SendMessage(&Ping{})
		require.NoError(t, err)
		require.NotNil(t, resp)
	}

	received := peer.Received()
	require.Len(t, received, 3)
	for i, f := range received {
		assert.Equal(t, uint16(i), f.Counter)
		assert.Equal(t, frame.HostToPeerSync, f.Sync)
	}
}

func TestSession_ParamReply(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	peer.SetHandler(virt.Route(map[uint8]virt.Handler{
		opcodeSpeed: func(req frame.Frame) []frame.Frame {
			return []frame.Frame{virt.PeerFrame(req.Counter, opcodeSpeed, []byte{0xE8, 0x03, 0, 0})}
		},
	}))
	s := openVirtual(t, peer)

	got, err := Request[speedParam](s, &speedParam{})
	require.NoError(t, err)
	assert.Equal(t, uint32(1000), got.RPM)
}

func TestSession_OperationWaitsOnResponseOpcode(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	peer.SetHandler(virt.ReplyUnder(opcodeStartMotor, opcodeMotorStarted, []byte{0x01}))
	s := openVirtual(t, peer)

	resp, err := s.SendMessage(&startMotor{Speed: 300})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, opcodeMotorStarted, resp.Opcode)

	started, err := Decode[motorStarted](*resp)
	require.NoError(t, err)
	assert.Equal(t, uint8(1), started.Status)
}

func TestSession_SilentPeerTimesOut(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  Message
		name string
	}{
		{name: "bounce", msg: &Ping{}},
		{name: "operation", msg: &startMotor{Speed: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			peer := virt.NewVirtualPeer()
			peer.SetHandler(virt.Silent)
			s := openVirtual(t, peer)

			start := time.Now()
			resp, err := s.SendMessage(tt.msg)
			elapsed := time.Since(start)

			require.NoError(t, err)
			assert.Nil(t, resp)
			assert.GreaterOrEqual(t, elapsed, DefaultResponseTimeout)
			assert.Less(t, elapsed, DefaultResponseTimeout+time.Second)
			assert.Equal(t, uint64(1), s.Stats().Unanswered)
		})
	}
}

func TestSession_NoWaitCategories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  Message
		name string
	}{
		{name: "operation without response", msg: &reset{}},
		{name: "response", msg: &motorStarted{Status: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			peer := virt.NewVirtualPeer()
			peer.SetHandler(virt.Silent)
			s := openVirtual(t, peer)

			start := time.Now()
			resp, err := s.SendMessage(tt.msg)
			require.NoError(t, err)
			assert.Nil(t, resp)
			assert.Less(t, time.Since(start), DefaultResponseTimeout/2)

			assert.Eventually(t, func() bool {
				received := peer.Received()
				return len(received) == 1 && received[0].Opcode == tt.msg.Opcode()
			}, time.Second, time.Millisecond)
		})
	}
}

func TestSession_StaleReplyIsCleared(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	peer.SetHandler(virt.Silent)
	s := openVirtual(t, peer, WithResponseTimeout(30*time.Millisecond))

	// An unsolicited echo lands in the bucket before anyone asks
	peer.Inject(virt.PeerFrame(0, OpcodePing, nil))
	require.Eventually(t, func() bool { return s.RxCount() == 1 }, time.Second, time.Millisecond)

	resp, err := s.SendMessage(&Ping{})
	require.NoError(t, err)
	assert.Nil(t, resp)
}

func TestSession_UnknownOpcode(t *testing.T) {
	t.Parallel()

	s := openVirtual(t, virt.NewVirtualPeer())

	f, err := NewFrame(0, 99, nil)
	require.NoError(t, err)
	_, err = s.Send(f)
	require.ErrorIs(t, err, ErrUnknownOpcode)
	require.ErrorIs(t, s.SetReceiveFunc(99, func(Frame) {}), ErrUnknownOpcode)
}

func TestSession_InvalidFrame(t *testing.T) {
	t.Parallel()

	s := openVirtual(t, virt.NewVirtualPeer())
	_, err := s.Send(Frame{Opcode: OpcodePing, Length: 3})
	require.ErrorIs(t, err, frame.ErrInvalidLength)
}

func TestSession_ReceiveFunc(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer)

	got := make(chan Frame, 1)
	require.NoError(t, s.SetReceiveFunc(opcodeMotorStarted, func(f Frame) { got <- f }))

	peer.Inject(virt.PeerFrame(11, opcodeMotorStarted, []byte{7}))
	select {
	case f := <-got:
		assert.Equal(t, uint16(11), f.Counter)
		assert.Equal(t, []byte{7}, f.Payload)
	case <-time.After(time.Second):
		t.Fatal("receive function not called")
	}
}

func TestSession_DropsUnknownIncomingOpcode(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer)

	peer.Inject(virt.PeerFrame(0, 99, []byte{1, 2}))
	require.Eventually(t, func() bool { return s.Stats().UnknownOpcodes == 1 }, time.Second, time.Millisecond)
	assert.True(t, s.Alive())

	resp, err := s.SendMessage(&Ping{})
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestSession_SkipsCorruptInput(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer)

	corrupt := virt.PeerFrame(0, OpcodePing, nil).Bytes()
	corrupt[len(corrupt)-1]++
	peer.InjectBytes(append([]byte{0x00, 0x11, 0x22}, corrupt...))

	require.Eventually(t, func() bool { return s.Stats().ChecksumErrors == 1 }, time.Second, time.Millisecond)
	assert.Zero(t, s.RxCount())

	resp, err := s.SendMessage(&Ping{})
	require.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Positive(t, s.Stats().DiscardedBytes)
}

func TestSession_TerminalReadMakesSessionInert(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer, WithResponseTimeout(20*time.Millisecond))

	peer.FailReads(io.EOF)
	select {
	case <-s.Done():
	case <-time.After(time.Second):
		t.Fatal("loop kept running after the link broke")
	}

	assert.False(t, s.Alive())
	require.ErrorIs(t, s.Err(), ErrLinkBroken)
	assert.True(t, IsTerminal(s.Err()))

	start := time.Now()
	resp, err := s.SendMessage(&Ping{})
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	require.NoError(t, s.Close())
}

func TestSession_TerminalWriteStopsLoop(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer, WithResponseTimeout(20*time.Millisecond))

	peer.FailWrites(io.ErrClosedPipe)
	resp, err := s.SendMessage(&Ping{})
	require.NoError(t, err)
	assert.Nil(t, resp)

	require.Eventually(t, func() bool { return !s.Alive() }, time.Second, time.Millisecond)
	assert.Zero(t, s.TxCount())
	require.ErrorIs(t, s.Err(), io.ErrClosedPipe)
}

func TestSession_TransientReadErrorKeepsRunning(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer)

	peer.FailReads(errors.New("framing error"))
	time.Sleep(10 * time.Millisecond)
	assert.True(t, s.Alive())

	peer.FailReads(nil)
	resp, err := s.SendMessage(&Ping{})
	require.NoError(t, err)
	assert.NotNil(t, resp)
}

func TestSession_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	s := openVirtual(t, peer)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, peer.Closed())
	assert.False(t, s.Alive())

	_, err := s.SendMessage(&Ping{})
	require.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_CloseDiscardsQueuedFrames(t *testing.T) {
	t.Parallel()

	port := NewBlockingPort()
	s, err := NewManager(WithPortOpener(port.Open), WithMessages(testCatalog()...)).Open("blocking")
	require.NoError(t, err)

	for range 4 {
		resp, sendErr := s.SendMessage(&reset{})
		require.NoError(t, sendErr)
		require.Nil(t, resp)
	}
	// Let the loop pick up the first frame and block inside Write
	time.Sleep(20 * time.Millisecond)

	closed := make(chan error, 1)
	go func() { closed <- s.Close() }()
	time.Sleep(20 * time.Millisecond)
	port.Unblock()

	select {
	case closeErr := <-closed:
		require.NoError(t, closeErr)
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}

	assert.Len(t, port.Written(), 1)
	assert.Equal(t, uint64(1), s.TxCount())
}

func TestSession_ConcurrentSends(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	peer.SetHandler(virt.ReplyUnder(opcodeStartMotor, opcodeMotorStarted, []byte{0}))
	s := openVirtual(t, peer, WithResponseTimeout(50*time.Millisecond))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.SendMessage(&Ping{})
			assert.NoError(t, err)
			_, err = s.SendMessage(&startMotor{Speed: 5})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return s.TxCount() == 16 }, time.Second, time.Millisecond)
	assert.True(t, s.Alive())
}

func TestSession_WaitForPeer(t *testing.T) {
	t.Parallel()

	t.Run("answers eventually", func(t *testing.T) {
		t.Parallel()
		peer := virt.NewVirtualPeer()
		peer.SetHandler(virt.AnswerAfter(2, virt.Echo))
		s := openVirtual(t, peer, WithResponseTimeout(10*time.Millisecond))
		require.NoError(t, s.WaitForPeer(time.Second))
	})

	t.Run("never answers", func(t *testing.T) {
		t.Parallel()
		peer := virt.NewVirtualPeer()
		peer.SetHandler(virt.Silent)
		s := openVirtual(t, peer, WithResponseTimeout(10*time.Millisecond))
		require.ErrorIs(t, s.WaitForPeer(50*time.Millisecond), ErrNoResponse)
	})
}

func TestSession_SendContextCancelled(t *testing.T) {
	t.Parallel()

	peer := virt.NewVirtualPeer()
	peer.SetHandler(virt.Silent)
	s := openVirtual(t, peer, WithResponseTimeout(5*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	resp, err := s.SendContext(ctx, Encode(&Ping{}, s.NextCounter()))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, resp)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, s.Stats().Unanswered)
}
