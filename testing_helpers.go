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
	"os"
	"sync"
	"time"
)

// BlockingPort is a Port whose writes block until Unblock is called. Reads
// never return data. It is used to hold the I/O loop inside a write while
// frames pile up in the outbound queue.
type BlockingPort struct {
	blockChan   chan struct{}
	written     [][]byte
	readTimeout time.Duration
	mu          sync.Mutex
	closed      bool
}

// NewBlockingPort creates a new blocking port
func NewBlockingPort() *BlockingPort {
	return &BlockingPort{
		blockChan:   make(chan struct{}),
		readTimeout: time.Millisecond,
	}
}

// Open satisfies PortOpener.
func (p *BlockingPort) Open(_ string, readTimeout time.Duration) (Port, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readTimeout = readTimeout
	return p, nil
}

// Write blocks until Unblock or Close is called
func (p *BlockingPort) Write(b []byte) (int, error) {
	p.mu.Lock()
	blockChan := p.blockChan
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return 0, os.ErrClosed
	}

	<-blockChan

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0, os.ErrClosed
	}
	p.written = append(p.written, append([]byte(nil), b...))
	return len(b), nil
}

// Read waits out the read timeout and reports nothing
func (p *BlockingPort) Read([]byte) (int, error) {
	p.mu.Lock()
	timeout := p.readTimeout
	closed := p.closed
	p.mu.Unlock()

	if closed {
		return 0, os.ErrClosed
	}
	time.Sleep(timeout)
	return 0, nil
}

// Drain is a no-op
func (*BlockingPort) Drain() error {
	return nil
}

// Unblock lets one blocked Write proceed
func (p *BlockingPort) Unblock() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		close(p.blockChan)
		p.blockChan = make(chan struct{})
	}
}

// Close unblocks all writes and marks the port closed
func (p *BlockingPort) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.blockChan)
	}
	return nil
}

// Written returns copies of every completed write
func (p *BlockingPort) Written() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]byte, len(p.written))
	copy(out, p.written)
	return out
}
