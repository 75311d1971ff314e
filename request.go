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
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/go-swordfish/internal/transport"
)

// ErrRetriesExhausted is returned by RequestWithRetry when no attempt got a
// usable reply.
var ErrRetriesExhausted = transport.ErrRetriesExhausted

// Request sends req and decodes the reply as a T. It returns ErrNoResponse
// when the peer stays silent.
func Request[T any, PT interface {
	*T
	Message
}](s *Session, req Message) (T, error) {
	var zero T

	resp, err := s.SendMessage(req)
	if err != nil {
		return zero, err
	}
	if resp == nil {
		return zero, fmt.Errorf("%w to opcode %d", ErrNoResponse, req.Opcode())
	}
	return Decode[T, PT](*resp)
}

// RequestWithRetry is Request with up to attempts tries. Silence and replies
// that fail to decode are retried; misuse errors are not.
func RequestWithRetry[T any, PT interface {
	*T
	Message
}](s *Session, req Message, attempts int, delay time.Duration) (T, error) {
	return transport.WithRetry(transport.RetryConfig{
		Description: fmt.Sprintf("request opcode %d", req.Opcode()),
		MaxAttempts: attempts,
		RetryDelay:  delay,
		OnRetry: func(attempt int) error {
			s.log.Debug().Uint8("opcode", req.Opcode()).Int("attempt", attempt).Msg("retrying request")
			return nil
		},
	}, func() (T, bool, error) {
		v, err := Request[T, PT](s, req)
		switch {
		case err == nil:
			return v, false, nil
		case IsRetryable(err):
			return v, true, nil
		default:
			return v, false, err
		}
	})
}

// WaitForPeer pings until the peer answers or timeout elapses.
func (s *Session) WaitForPeer(timeout time.Duration) error {
	_, err := transport.UntilDeadline(timeout, s.cfg.PollInterval, func() (struct{}, bool, error) {
		resp, err := s.SendMessage(&Ping{})
		if err != nil {
			return struct{}{}, false, err
		}
		return struct{}{}, resp == nil, nil
	})
	if errors.Is(err, transport.ErrDeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrNoResponse, err)
	}
	return err
}
