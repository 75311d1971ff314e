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

// Package transport holds the retry loops used around request/response
// exchanges with the peer.
package transport

import (
	"errors"
	"fmt"
	"time"
)

// Retry errors
var (
	ErrRetriesExhausted = errors.New("retries exhausted")
	ErrDeadlineExceeded = errors.New("deadline exceeded")
)

// Attempt is one try of a retried exchange.
// It returns the result, whether another try is wanted, and an error that
// ends the loop immediately.
type Attempt[T any] func() (T, bool, error)

// RetryConfig configures WithRetry
type RetryConfig struct {
	// OnRetry runs before every retry with the number of the failed attempt
	OnRetry     func(attempt int) error
	Description string
	MaxAttempts int
	RetryDelay  time.Duration
}

// WithRetry runs attempt until it succeeds, fails hard, or MaxAttempts tries
// have asked for another go. MaxAttempts below 1 is treated as 1.
func WithRetry[T any](cfg RetryConfig, attempt Attempt[T]) (T, error) {
	var zero T

	attempts := max(cfg.MaxAttempts, 1)
	for n := 1; ; n++ {
		result, again, err := attempt()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}
		if n >= attempts {
			break
		}

		if cfg.OnRetry != nil {
			if err := cfg.OnRetry(n); err != nil {
				return zero, err
			}
		}
		if cfg.RetryDelay > 0 {
			time.Sleep(cfg.RetryDelay)
		}
	}

	if cfg.Description != "" {
		return zero, fmt.Errorf("%s: %w after %d attempts", cfg.Description, ErrRetriesExhausted, attempts)
	}
	return zero, fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, attempts)
}

// UntilDeadline runs attempt until it stops asking for another go or timeout
// elapses, pausing interval between tries.
func UntilDeadline[T any](timeout, interval time.Duration, attempt Attempt[T]) (T, error) {
	var zero T
	deadline := time.Now().Add(timeout)

	for {
		result, again, err := attempt()
		if err != nil {
			return zero, err
		}
		if !again {
			return result, nil
		}
		if !time.Now().Add(interval).Before(deadline) {
			return zero, fmt.Errorf("%w after %v", ErrDeadlineExceeded, timeout)
		}
		time.Sleep(interval)
	}
}
