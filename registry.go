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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ZaparooProject/go-swordfish/internal/slot"
)

// ReceiveFunc is called on the session's I/O goroutine for every frame that
// arrives under a registered opcode. It must return quickly.
type ReceiveFunc func(f Frame)

// Bucket holds the latest frame received for one opcode.
type Bucket struct {
	latest     *slot.Slot[Frame]
	onReceive  ReceiveFunc
	descriptor Descriptor
	mu         sync.Mutex
}

func newBucket(d Descriptor) *Bucket {
	return &Bucket{descriptor: d, latest: slot.New[Frame]()}
}

// Descriptor returns the message type registered for the bucket.
func (b *Bucket) Descriptor() Descriptor {
	return b.descriptor
}

// Category returns the protocol role of the bucket's opcode.
func (b *Bucket) Category() Category {
	return b.descriptor.Category
}

// Take waits up to timeout for a frame, then takes and clears it.
func (b *Bucket) Take(timeout time.Duration) (Frame, bool) {
	return b.latest.Take(timeout)
}

// TakeContext is like Take but returns early with ctx's error when ctx is done.
func (b *Bucket) TakeContext(ctx context.Context, timeout time.Duration) (Frame, bool, error) {
	return b.latest.TakeContext(ctx, timeout)
}

// Clear drops a frame nobody has taken yet.
func (b *Bucket) Clear() {
	b.latest.Clear()
}

func (b *Bucket) setReceiveFunc(fn ReceiveFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onReceive = fn
}

func (b *Bucket) deliver(f Frame) {
	b.mu.Lock()
	fn := b.onReceive
	b.mu.Unlock()

	if fn != nil {
		fn(f)
	}
	b.latest.Put(f)
}

// Registry maps every known opcode to its bucket. The set of opcodes is fixed
// when the registry is built.
type Registry struct {
	buckets map[uint8]*Bucket
	mu      sync.RWMutex
}

// NewRegistry builds a registry from a message catalog.
func NewRegistry(catalog []Message) (*Registry, error) {
	descriptors := make([]Descriptor, 0, len(catalog))
	for _, m := range catalog {
		descriptors = append(descriptors, DescriptorOf(m))
	}
	return NewRegistryFromDescriptors(descriptors...)
}

// NewRegistryFromDescriptors builds a registry from raw descriptors. Every
// opcode may appear once, and every operation's response opcode must be
// registered too.
func NewRegistryFromDescriptors(descriptors ...Descriptor) (*Registry, error) {
	r := &Registry{buckets: make(map[uint8]*Bucket, len(descriptors))}
	for _, d := range descriptors {
		if existing, ok := r.buckets[d.Opcode]; ok {
			return nil, fmt.Errorf("opcode %d registered twice (%s and %s)",
				d.Opcode, existing.descriptor.Name, d.Name)
		}
		r.buckets[d.Opcode] = newBucket(d)
	}

	for _, d := range descriptors {
		if resp, ok := d.Category.ResponseOpcode(); ok {
			if _, known := r.buckets[resp]; !known {
				return nil, fmt.Errorf("%s: response opcode %d: %w", d.Name, resp, ErrUnknownOpcode)
			}
		}
	}
	return r, nil
}

// Lookup returns the bucket for opcode.
func (r *Registry) Lookup(opcode uint8) (*Bucket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.buckets[opcode]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, opcode)
	}
	return b, nil
}

// SetReceiveFunc installs fn for opcode, replacing any previous function.
// A nil fn removes it.
func (r *Registry) SetReceiveFunc(opcode uint8, fn ReceiveFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[opcode]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownOpcode, opcode)
	}
	b.setReceiveFunc(fn)
	return nil
}

// Deliver hands a received frame to its bucket: the receive function runs
// first, then the frame is stored and one waiter is woken.
func (r *Registry) Deliver(f Frame) error {
	b, err := r.Lookup(f.Opcode)
	if err != nil {
		return err
	}
	b.deliver(f)
	return nil
}

// Opcodes returns the registered opcodes in ascending order.
func (r *Registry) Opcodes() []uint8 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opcodes := make([]uint8, 0, len(r.buckets))
	for op := range r.buckets {
		opcodes = append(opcodes, op)
	}
	sort.Slice(opcodes, func(i, j int) bool { return opcodes[i] < opcodes[j] })
	return opcodes
}
