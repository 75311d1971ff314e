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
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutErr struct{}

func (timeoutErr) Error() string { return "i/o timeout" }
func (timeoutErr) Timeout() bool { return true }

func TestClassifyIOError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "eof", err: io.EOF, want: ErrorTypeTerminal},
		{name: "closed pipe", err: io.ErrClosedPipe, want: ErrorTypeTerminal},
		{name: "closed file", err: fmt.Errorf("read: %w", os.ErrClosed), want: ErrorTypeTerminal},
		{name: "link broken", err: ErrLinkBroken, want: ErrorTypeTerminal},
		{name: "deadline", err: os.ErrDeadlineExceeded, want: ErrorTypeTimeout},
		{name: "timeout interface", err: timeoutErr{}, want: ErrorTypeTimeout},
		{name: "anything else", err: errors.New("framing error"), want: ErrorTypeTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, classifyIOError(tt.err))
		})
	}
}

func TestWrapIOError(t *testing.T) {
	t.Parallel()

	te := wrapIOError("read", "COM4", io.EOF)
	require.ErrorIs(t, te, ErrLinkBroken)
	require.ErrorIs(t, te, io.EOF)
	assert.Equal(t, ErrorTypeTerminal, te.Type)
	assert.False(t, te.Retryable)

	te = wrapIOError("write", "COM4", errors.New("parity"))
	require.ErrorIs(t, te, ErrTransportWrite)
	assert.True(t, te.Retryable)

	te = wrapIOError("read", "COM4", errors.New("overrun"))
	require.ErrorIs(t, te, ErrTransportRead)

	te = wrapIOError("read", "COM4", os.ErrDeadlineExceeded)
	require.ErrorIs(t, te, ErrTransportTimeout)
	require.ErrorIs(t, te, os.ErrDeadlineExceeded)
	assert.Equal(t, ErrorTypeTimeout, te.Type)
	assert.True(t, te.Retryable)
}

func TestOpenSerialPort_Missing(t *testing.T) {
	t.Parallel()

	_, err := OpenSerialPort("/dev/does-not-exist-swordfish", DefaultPollInterval)
	require.Error(t, err)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "open", te.Op)
}
