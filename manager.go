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
	"fmt"
	"sync"
)

// Manager hands out sessions and guarantees at most one of its sessions is
// open at a time. The limit is per Manager, not per process: separate
// Managers do not see each other's sessions, so a program that needs a
// single link should own exactly one Manager.
type Manager struct {
	active *Session
	opts   []Option
	mu     sync.Mutex
}

// NewManager returns a Manager whose sessions start from opts.
func NewManager(opts ...Option) *Manager {
	return &Manager{opts: opts}
}

// Open opens portName and starts a session. Options given here are applied
// after the Manager's own. It fails with ErrSessionActive while another
// session from this Manager is still open; that session is left untouched.
func (m *Manager) Open(portName string, opts ...Option) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, fmt.Errorf("%w on %s", ErrSessionActive, m.active.PortName())
	}

	all := make([]Option, 0, len(m.opts)+len(opts))
	all = append(all, m.opts...)
	all = append(all, opts...)

	cfg, err := applyOptions(all)
	if err != nil {
		return nil, fmt.Errorf("invalid session option: %w", err)
	}

	s, err := openSession(portName, cfg, m.release)
	if err != nil {
		return nil, err
	}
	m.active = s
	return s, nil
}

// Active returns the open session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) release(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == s {
		m.active = nil
	}
}
