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

// Package monitor keeps watch over a session's link by pinging the peer.
package monitor

import (
	"errors"
	"time"
)

// Config holds link monitor settings
type Config struct {
	// Interval between pings while the link is up
	Interval time.Duration
	// MaxInterval caps the backed-off interval while the link is down
	MaxInterval time.Duration
	// FailureThreshold is the number of consecutive unanswered pings that
	// marks the link down
	FailureThreshold int
}

// DefaultConfig returns the default monitor configuration
func DefaultConfig() *Config {
	return &Config{
		Interval:         time.Second,
		MaxInterval:      5 * time.Second,
		FailureThreshold: 3,
	}
}

// Validate checks the configuration for consistency
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return errors.New("interval must be positive")
	}
	if c.MaxInterval < c.Interval {
		return errors.New("max interval must not be below interval")
	}
	if c.FailureThreshold < 1 {
		return errors.New("failure threshold must be at least 1")
	}
	return nil
}
