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

// Package slot provides a single-value holding cell with last-value-wins
// semantics and a bounded-wait receive.
package slot

import (
	"context"
	"sync"
	"time"
)

// Slot holds at most one value. Put overwrites whatever is stored and wakes
// one waiting receiver. The zero value is not usable; call New.
type Slot[T any] struct {
	value  T
	notify chan struct{}
	mu     sync.Mutex
	full   bool
}

// New creates an empty slot.
func New[T any]() *Slot[T] {
	return &Slot[T]{notify: make(chan struct{}, 1)}
}

// Put stores v, replacing any value that has not been taken yet.
func (s *Slot[T]) Put(v T) {
	s.mu.Lock()
	s.value = v
	s.full = true
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// TryTake takes the stored value without waiting.
func (s *Slot[T]) TryTake() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.takeLocked()
}

// Take waits up to timeout for a value, then takes and clears it.
func (s *Slot[T]) Take(timeout time.Duration) (T, bool) {
	v, ok, _ := s.TakeContext(context.Background(), timeout)
	return v, ok
}

// TakeContext is like Take but also gives up when ctx is done, returning
// ctx's error.
func (s *Slot[T]) TakeContext(ctx context.Context, timeout time.Duration) (T, bool, error) {
	if v, ok := s.TryTake(); ok {
		return v, true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-s.notify:
			// A wakeup may belong to a value another receiver already took
			if v, ok := s.TryTake(); ok {
				return v, true, nil
			}
		case <-timer.C:
			v, ok := s.TryTake()
			return v, ok, nil
		case <-ctx.Done():
			var zero T
			return zero, false, ctx.Err()
		}
	}
}

// Clear discards the stored value, if any.
func (s *Slot[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.full = false
}

func (s *Slot[T]) takeLocked() (T, bool) {
	var zero T
	if !s.full {
		return zero, false
	}
	v := s.value
	s.value = zero
	s.full = false
	return v, true
}
