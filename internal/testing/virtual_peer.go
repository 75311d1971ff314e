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

// Package testing provides a simulated peer for exercising sessions without
// hardware.
package testing

import (
	"os"
	"sync"
	"time"

	"github.com/ZaparooProject/go-swordfish/internal/frame"
)

// Handler produces the peer's replies to one host frame.
type Handler func(req frame.Frame) []frame.Frame

// VirtualPeer is an in-memory port that behaves like the peer firmware. Host
// frames written to it are decoded and passed to a Handler; the replies are
// queued for the host to read.
type VirtualPeer struct {
	readErr     error
	writeErr    error
	handler     Handler
	dec         *frame.Decoder
	ready       chan struct{}
	pending     []byte
	received    []frame.Frame
	readTimeout time.Duration
	drains      int
	mu          sync.Mutex
	closed      bool
}

// NewVirtualPeer returns a peer that echoes every frame it receives.
func NewVirtualPeer() *VirtualPeer {
	return &VirtualPeer{
		handler:     Echo,
		dec:         frame.NewDecoderFor(frame.HostToPeerSync),
		ready:       make(chan struct{}, 1),
		readTimeout: time.Millisecond,
	}
}

// SetReadTimeout sets how long Read waits for data before returning (0, nil).
func (p *VirtualPeer) SetReadTimeout(timeout time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readTimeout = timeout
}

// SetHandler replaces the reply handler. A nil handler makes the peer silent.
func (p *VirtualPeer) SetHandler(h Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler = h
}

// FailReads makes every following Read return err.
func (p *VirtualPeer) FailReads(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readErr = err
	p.signal()
}

// FailWrites makes every following Write return err.
func (p *VirtualPeer) FailWrites(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writeErr = err
}

// Inject queues unsolicited peer frames for the host.
func (p *VirtualPeer) Inject(frames ...frame.Frame) {
	for _, f := range frames {
		p.InjectBytes(f.Bytes())
	}
}

// InjectBytes queues raw bytes for the host, corrupt or not.
func (p *VirtualPeer) InjectBytes(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, b...)
	p.signal()
}

// Received returns the host frames decoded so far.
func (p *VirtualPeer) Received() []frame.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]frame.Frame, len(p.received))
	copy(out, p.received)
	return out
}

// Drains returns how many times the host flushed the port.
func (p *VirtualPeer) Drains() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drains
}

// Closed reports whether Close was called.
func (p *VirtualPeer) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Open returns the peer itself as an opener result; it ignores the name.
// The read timeout asked for by the session is honoured.
func (p *VirtualPeer) Open(_ string, readTimeout time.Duration) (*VirtualPeer, error) {
	p.SetReadTimeout(readTimeout)
	return p, nil
}

// Read returns queued peer bytes, waiting up to the read timeout for some.
func (p *VirtualPeer) Read(b []byte) (int, error) {
	p.mu.Lock()
	if n, done, err := p.readLocked(b); done {
		p.mu.Unlock()
		return n, err
	}
	timeout := p.readTimeout
	p.mu.Unlock()

	if timeout > 0 {
		timer := time.NewTimer(timeout)
		select {
		case <-p.ready:
		case <-timer.C:
		}
		timer.Stop()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	n, _, err := p.readLocked(b)
	return n, err
}

func (p *VirtualPeer) readLocked(b []byte) (int, bool, error) {
	switch {
	case p.closed:
		return 0, true, os.ErrClosed
	case p.readErr != nil:
		return 0, true, p.readErr
	case len(p.pending) > 0:
		n := copy(b, p.pending)
		p.pending = p.pending[n:]
		if len(p.pending) > 0 {
			p.signal()
		}
		return n, true, nil
	default:
		return 0, false, nil
	}
}

// Write decodes host frames and queues the handler's replies.
func (p *VirtualPeer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, os.ErrClosed
	}
	if p.writeErr != nil {
		return 0, p.writeErr
	}

	for start := 0; start < len(b); start += frame.MaxFrameSize {
		end := min(start+frame.MaxFrameSize, len(b))
		for f, ok := p.dec.Append(b[start:end]); ok; f, ok = p.dec.Next() {
			p.received = append(p.received, f)
			if p.handler == nil {
				continue
			}
			for _, reply := range p.handler(f) {
				p.pending = append(p.pending, reply.Bytes()...)
			}
		}
	}
	if len(p.pending) > 0 {
		p.signal()
	}
	return len(b), nil
}

// Drain records a flush.
func (p *VirtualPeer) Drain() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return os.ErrClosed
	}
	p.drains++
	return nil
}

// Close marks the port closed and wakes a blocked reader.
func (p *VirtualPeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.signal()
	return nil
}

func (p *VirtualPeer) signal() {
	select {
	case p.ready <- struct{}{}:
	default:
	}
}
