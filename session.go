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
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/ZaparooProject/go-swordfish/internal/frame"
)

// Stats is a snapshot of a session's traffic counters
type Stats struct {
	TxFrames       uint64 // Frames written and flushed to the port
	RxFrames       uint64 // Verified frames decoded from the port
	Unanswered     uint64 // Sends that timed out waiting for a reply
	UnknownOpcodes uint64 // Received frames whose opcode is not registered
	ChecksumErrors uint64 // Candidate frames dropped for a bad checksum
	LengthErrors   uint64 // Candidate frames dropped for an impossible length
	DiscardedBytes uint64 // Bytes thrown away while resynchronizing
}

// Session is one open connection to the peer. A single goroutine owns the
// port: it drains the outbound queue, reads and decodes incoming bytes and
// hands complete frames to the registry. Callers block in Send until their
// reply arrives or the response timeout elapses.
//
// Thread Safety: Send, SendMessage, SetReceiveFunc and the accessors may be
// called from any goroutine. Send must not be called once Close has started.
type Session struct {
	port     Port
	registry *Registry
	release  func(*Session)
	outbound chan Frame
	stop     chan struct{}
	done     chan struct{}
	cfg      *Config
	loopErr  error
	log      zerolog.Logger
	portName string

	decoderStats frame.DecoderStats

	txFrames       atomic.Uint64
	rxFrames       atomic.Uint64
	unanswered     atomic.Uint64
	unknownOpcodes atomic.Uint64
	counter        atomic.Uint32

	closeOnce sync.Once
	mu        sync.Mutex
	closed    atomic.Bool
}

// openSession opens the port and starts the I/O goroutine.
func openSession(portName string, cfg *Config, release func(*Session)) (*Session, error) {
	registry, err := NewRegistry(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("build message registry: %w", err)
	}

	port, err := cfg.OpenPort(portName, cfg.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to open port %s: %w", portName, err)
	}

	s := &Session{
		port:     port,
		portName: portName,
		registry: registry,
		release:  release,
		outbound: make(chan Frame, cfg.QueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		cfg:      cfg,
		log:      cfg.Logger.With().Str("port", portName).Logger(),
	}

	go s.run()

	s.log.Info().
		Int("baud", BaudRate).
		Dur("response_timeout", cfg.ResponseTimeout).
		Int("opcodes", len(registry.Opcodes())).
		Msg("session opened")
	return s, nil
}

// run is the I/O loop. Each iteration makes at most one write attempt and one
// read attempt, so neither direction starves the other.
func (s *Session) run() {
	defer close(s.done)

	dec := frame.NewDecoder()
	buf := make([]byte, frame.MaxFrameSize)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		select {
		case f := <-s.outbound:
			if err := s.write(f); err != nil && IsTerminal(err) {
				s.fail(err)
				return
			}
		default:
		}

		n, err := s.port.Read(buf)
		if n > 0 {
			s.feed(dec, buf[:n])
		}
		if err != nil {
			te := wrapIOError("read", s.portName, err)
			switch te.Type {
			case ErrorTypeTerminal:
				s.fail(te)
				return
			case ErrorTypeTimeout:
				continue
			default:
				s.log.Error().Err(te).Msg("read failed")
			}
		}
	}
}

func (s *Session) write(f Frame) error {
	if _, err := s.port.Write(f.Bytes()); err != nil {
		te := wrapIOError("write", s.portName, err)
		s.log.Error().Err(te).Uint8("opcode", f.Opcode).Msg("write failed")
		return te
	}
	if err := s.port.Drain(); err != nil {
		te := wrapIOError("flush", s.portName, err)
		s.log.Error().Err(te).Uint8("opcode", f.Opcode).Msg("flush failed")
		return te
	}
	s.txFrames.Add(1)
	return nil
}

// feed decodes a chunk and delivers every complete frame in arrival order.
func (s *Session) feed(dec *frame.Decoder, chunk []byte) {
	for f, ok := dec.Append(chunk); ok; f, ok = dec.Next() {
		s.rxFrames.Add(1)
		if err := s.registry.Deliver(f); err != nil {
			s.unknownOpcodes.Add(1)
			s.log.Warn().Err(err).Uint8("opcode", f.Opcode).Uint16("counter", f.Counter).Msg("dropping frame")
		}
	}

	stats := dec.Stats()
	s.mu.Lock()
	if stats.ChecksumErrors != s.decoderStats.ChecksumErrors || stats.LengthErrors != s.decoderStats.LengthErrors {
		s.log.Debug().
			Uint64("checksum_errors", stats.ChecksumErrors).
			Uint64("length_errors", stats.LengthErrors).
			Msg("discarded corrupt frames")
	}
	s.decoderStats = stats
	s.mu.Unlock()
}

func (s *Session) fail(err error) {
	s.mu.Lock()
	s.loopErr = err
	s.mu.Unlock()
	s.log.Warn().Err(err).Msg("serial link lost, session is now inert")
}

// Send queues f for transmission and, depending on the category of its
// opcode, waits for the reply:
//
//   - Bounce and Param wait on f's own opcode.
//   - Operation with a response opcode waits on that opcode.
//   - Operation without a response and Response return immediately.
//
// A nil frame with a nil error means no reply: either none was expected or
// none arrived within the response timeout. Errors are reserved for misuse:
// an unregistered opcode, an invalid frame or a closed session.
func (s *Session) Send(f Frame) (*Frame, error) {
	return s.SendContext(context.Background(), f)
}

// SendContext is like Send but stops waiting when ctx is done, returning
// ctx's error. A frame already queued is still written.
func (s *Session) SendContext(ctx context.Context, f Frame) (*Frame, error) {
	if s.closed.Load() {
		return nil, ErrSessionClosed
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid frame for opcode %d: %w", f.Opcode, err)
	}

	bucket, err := s.registry.Lookup(f.Opcode)
	if err != nil {
		return nil, err
	}

	var awaited *Bucket
	if opcode, ok := bucket.Category().AwaitOpcode(f.Opcode); ok {
		if awaited, err = s.registry.Lookup(opcode); err != nil {
			return nil, err
		}
		awaited.Clear()
	}

	if err := s.enqueue(ctx, f); err != nil {
		return nil, err
	}
	if awaited == nil {
		return nil, nil
	}

	resp, ok, err := awaited.TakeContext(ctx, s.cfg.ResponseTimeout)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.unanswered.Add(1)
		s.log.Debug().
			Uint8("opcode", f.Opcode).
			Uint16("counter", f.Counter).
			Dur("timeout", s.cfg.ResponseTimeout).
			Msg("no response")
		return nil, nil
	}
	return &resp, nil
}

// SendMessage encodes m with the next counter value and sends it.
func (s *Session) SendMessage(m Message) (*Frame, error) {
	return s.Send(Encode(m, s.NextCounter()))
}

func (s *Session) enqueue(ctx context.Context, f Frame) error {
	select {
	case s.outbound <- f:
	case <-s.done:
		// The loop is gone; the frame can never be written
		s.log.Debug().Uint8("opcode", f.Opcode).Msg("link inert, frame dropped")
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// SetReceiveFunc installs fn for frames arriving under opcode. It runs on
// the I/O goroutine before waiters are woken and must not block.
func (s *Session) SetReceiveFunc(opcode uint8, fn ReceiveFunc) error {
	return s.registry.SetReceiveFunc(opcode, fn)
}

// NextCounter returns the next value of the session's frame counter.
func (s *Session) NextCounter() uint16 {
	return uint16(s.counter.Add(1) - 1)
}

// TxCount returns the number of frames written to the port.
func (s *Session) TxCount() uint64 {
	return s.txFrames.Load()
}

// RxCount returns the number of verified frames received.
func (s *Session) RxCount() uint64 {
	return s.rxFrames.Load()
}

// Stats returns a snapshot of the session's counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	dec := s.decoderStats
	s.mu.Unlock()

	return Stats{
		TxFrames:       s.txFrames.Load(),
		RxFrames:       s.rxFrames.Load(),
		Unanswered:     s.unanswered.Load(),
		UnknownOpcodes: s.unknownOpcodes.Load(),
		ChecksumErrors: dec.ChecksumErrors,
		LengthErrors:   dec.LengthErrors,
		DiscardedBytes: dec.DiscardedBytes,
	}
}

// Registry returns the session's message registry.
func (s *Session) Registry() *Registry {
	return s.registry
}

// PortName returns the name the session was opened with.
func (s *Session) PortName() string {
	return s.portName
}

// Done is closed when the I/O loop has stopped, either because the session
// was closed or because the link broke.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Alive reports whether the I/O loop is still running.
func (s *Session) Alive() bool {
	select {
	case <-s.done:
		return false
	default:
		return true
	}
}

// Err returns the error that stopped the I/O loop, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loopErr
}

// Close stops the I/O loop, waits for it to exit and closes the port.
// Frames still queued are discarded. Close is idempotent.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.stop)
		<-s.done

		if dropped := len(s.outbound); dropped > 0 {
			s.log.Debug().Int("frames", dropped).Msg("discarding queued frames")
		}

		if closeErr := s.port.Close(); closeErr != nil && !errors.Is(closeErr, ErrLinkBroken) {
			err = NewTransportError("close", s.portName, closeErr, ErrorTypePermanent)
		}

		if s.release != nil {
			s.release(s)
		}

		s.log.Info().
			Uint64("tx", s.txFrames.Load()).
			Uint64("rx", s.rxFrames.Load()).
			Msg("session closed")
	})
	return err
}
