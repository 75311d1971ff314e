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
	"time"

	"github.com/rs/zerolog"
)

// Defaults for session configuration
const (
	DefaultResponseTimeout = 200 * time.Millisecond
	DefaultPollInterval    = time.Millisecond
	DefaultQueueSize       = 64
)

// Config contains configuration options for a Session
type Config struct {
	// Logger receives session diagnostics
	Logger zerolog.Logger
	// OpenPort opens the serial device; defaults to OpenSerialPort
	OpenPort PortOpener
	// Catalog lists the message types the registry is built from
	Catalog []Message
	// ResponseTimeout bounds how long Send waits for a reply
	ResponseTimeout time.Duration
	// PollInterval is the port read timeout, which is also the longest the
	// I/O loop sits idle before checking for outbound frames again
	PollInterval time.Duration
	// QueueSize is the depth of the outbound frame queue
	QueueSize int
}

// DefaultConfig returns default session configuration
func DefaultConfig() *Config {
	return &Config{
		Logger:          zerolog.Nop(),
		OpenPort:        OpenSerialPort,
		Catalog:         DefaultCatalog(),
		ResponseTimeout: DefaultResponseTimeout,
		PollInterval:    DefaultPollInterval,
		QueueSize:       DefaultQueueSize,
	}
}

// Option is a functional option for configuring a Session
type Option func(*Config) error

// WithResponseTimeout sets how long Send waits for the peer to answer
func WithResponseTimeout(timeout time.Duration) Option {
	return func(c *Config) error {
		if timeout <= 0 {
			return errors.New("response timeout must be positive")
		}
		c.ResponseTimeout = timeout
		return nil
	}
}

// WithPollInterval sets the serial read timeout used by the I/O loop.
// A zero timeout makes reads non-blocking, so the interval must be positive.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Config) error {
		if interval <= 0 {
			return errors.New("poll interval must be positive")
		}
		c.PollInterval = interval
		return nil
	}
}

// WithQueueSize sets the outbound queue depth
func WithQueueSize(size int) Option {
	return func(c *Config) error {
		if size < 1 {
			return errors.New("queue size must be at least 1")
		}
		c.QueueSize = size
		return nil
	}
}

// WithLogger sets the logger used for session diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) error {
		c.Logger = logger
		return nil
	}
}

// WithMessages adds message types to the catalog
func WithMessages(msgs ...Message) Option {
	return func(c *Config) error {
		c.Catalog = append(c.Catalog, msgs...)
		return nil
	}
}

// WithPortOpener replaces the function used to open the serial device
func WithPortOpener(opener PortOpener) Option {
	return func(c *Config) error {
		if opener == nil {
			return errors.New("port opener must not be nil")
		}
		c.OpenPort = opener
		return nil
	}
}

func applyOptions(opts []Option) (*Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
