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

package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	swordfish "github.com/ZaparooProject/go-swordfish"
)

// ErrAlreadyStarted is returned when Start is called twice
var ErrAlreadyStarted = errors.New("monitor already started")

// Pinger sends a message and returns the peer's reply, nil meaning silence.
// *swordfish.Session satisfies it.
type Pinger interface {
	SendMessage(m swordfish.Message) (*swordfish.Frame, error)
}

// LinkState is the monitor's view of the link
type LinkState int32

const (
	LinkUnknown LinkState = iota
	LinkUp
	LinkDown
)

// String implements fmt.Stringer
func (s LinkState) String() string {
	switch s {
	case LinkUp:
		return "up"
	case LinkDown:
		return "down"
	default:
		return "unknown"
	}
}

// Callbacks are invoked on the monitor goroutine when the link changes state
type Callbacks struct {
	OnLinkUp   func()
	OnLinkDown func(err error)
}

// Metrics tracks what the monitor has observed
type Metrics struct {
	PingCycles  int64         // Pings sent
	PingErrors  int64         // Pings that got no reply or failed
	Transitions int64         // Link state changes
	LastLatency time.Duration // Round trip of the last answered ping
	State       LinkState
}

// Actor pings the peer on a timer and tracks link health. The interval
// doubles while the link is down, up to MaxInterval.
type Actor struct {
	pinger    Pinger
	config    *Config
	callbacks Callbacks
	logger    zerolog.Logger
	stopChan  chan struct{}
	doneChan  chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once

	pingCycles      atomic.Int64
	pingErrors      atomic.Int64
	transitions     atomic.Int64
	lastLatency     atomic.Int64
	currentInterval atomic.Int64
	state           atomic.Int32
	failures        int
}

// NewActor creates a link monitor for pinger.
func NewActor(pinger Pinger, config *Config, callbacks Callbacks, logger zerolog.Logger) (*Actor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}

	a := &Actor{
		pinger:    pinger,
		config:    config,
		callbacks: callbacks,
		logger:    logger,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
	a.currentInterval.Store(int64(config.Interval))
	return a, nil
}

// Start launches the monitor goroutine. The first ping goes out immediately.
// Cancelling ctx stops the monitor like Stop does.
func (a *Actor) Start(ctx context.Context) error {
	err := ErrAlreadyStarted
	a.startOnce.Do(func() {
		err = nil
		go a.loop(ctx)
	})
	return err
}

func (a *Actor) loop(ctx context.Context) {
	defer close(a.doneChan)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.stopChan:
			return
		case <-timer.C:
			a.cycle()
			timer.Reset(a.CurrentInterval())
		}
	}
}

// cycle sends one ping and updates state.
func (a *Actor) cycle() {
	start := time.Now()
	resp, err := a.pinger.SendMessage(&swordfish.Ping{})
	latency := time.Since(start)
	a.pingCycles.Add(1)

	if err == nil && resp == nil {
		err = swordfish.ErrNoResponse
	}
	if err != nil {
		a.pingErrors.Add(1)
		a.failures++
		a.logger.Debug().Err(err).Int("consecutive", a.failures).Msg("ping failed")
		if a.failures >= a.config.FailureThreshold {
			a.transition(LinkDown, err)
		}
		return
	}

	a.failures = 0
	a.lastLatency.Store(int64(latency))
	a.transition(LinkUp, nil)
}

func (a *Actor) transition(to LinkState, cause error) {
	if to == LinkDown {
		a.currentInterval.Store(int64(min(2*a.CurrentInterval(), a.config.MaxInterval)))
	} else {
		a.currentInterval.Store(int64(a.config.Interval))
	}

	from := LinkState(a.state.Swap(int32(to)))
	if from == to {
		return
	}
	a.transitions.Add(1)

	switch to {
	case LinkUp:
		a.logger.Info().Str("from", from.String()).Msg("link up")
		if a.callbacks.OnLinkUp != nil {
			a.callbacks.OnLinkUp()
		}
	case LinkDown:
		a.logger.Warn().Err(cause).Str("from", from.String()).Msg("link down")
		if a.callbacks.OnLinkDown != nil {
			a.callbacks.OnLinkDown(cause)
		}
	default:
	}
}

// Stop halts the monitor and waits for the goroutine to exit. It is safe to
// call more than once, and before Start.
func (a *Actor) Stop() {
	a.stopOnce.Do(func() { close(a.stopChan) })

	// Consuming startOnce here keeps a later Start from launching the loop
	a.startOnce.Do(func() { close(a.doneChan) })
	<-a.doneChan
}

// Done is closed once the monitor goroutine has exited.
func (a *Actor) Done() <-chan struct{} {
	return a.doneChan
}

// State returns the current link state.
func (a *Actor) State() LinkState {
	return LinkState(a.state.Load())
}

// CurrentInterval returns the delay before the next ping.
func (a *Actor) CurrentInterval() time.Duration {
	return time.Duration(a.currentInterval.Load())
}

// GetMetrics returns current operational metrics
func (a *Actor) GetMetrics() Metrics {
	return Metrics{
		PingCycles:  a.pingCycles.Load(),
		PingErrors:  a.pingErrors.Load(),
		Transitions: a.transitions.Load(),
		LastLatency: time.Duration(a.lastLatency.Load()),
		State:       a.State(),
	}
}
