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
	"testing"
)

func TestIsRetryable(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "transport timeout retryable", err: ErrTransportTimeout, want: true},
		{name: "transport read retryable", err: ErrTransportRead, want: true},
		{name: "transport write retryable", err: ErrTransportWrite, want: true},
		{name: "no response retryable", err: ErrNoResponse, want: true},
		{name: "wrapped no response retryable", err: fmt.Errorf("ping: %w", ErrNoResponse), want: true},
		{name: "opcode mismatch retryable", err: ErrOpcodeMismatch, want: true},
		{name: "wrapped length mismatch retryable", err: fmt.Errorf("decode: %w", ErrLengthMismatch), want: true},
		{name: "unknown opcode not retryable", err: ErrUnknownOpcode, want: false},
		{name: "session closed not retryable", err: ErrSessionClosed, want: false},
		{name: "link broken not retryable", err: ErrLinkBroken, want: false},
		{name: "unwrapped text not retryable", err: errors.New("outer: " + ErrTransportTimeout.Error()), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRetryable_TransportError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		transport *TransportError
		name      string
		want      bool
	}{
		{
			name:      "transient",
			transport: NewTransportError("read", "/dev/ttyUSB0", errors.New("framing"), ErrorTypeTransient),
			want:      true,
		},
		{
			name:      "timeout",
			transport: NewTimeoutError("read", "/dev/ttyUSB0", errors.New("i/o timeout")),
			want:      true,
		},
		{
			name:      "terminal",
			transport: NewLinkBrokenError("write", "/dev/ttyUSB0", errors.New("gone")),
			want:      false,
		},
		{
			name: "explicit flag wins over underlying error",
			transport: &TransportError{
				Err:  ErrTransportTimeout,
				Op:   "read",
				Type: ErrorTypeTimeout,
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := IsRetryable(tt.transport); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err  error
		name string
		want ErrorType
	}{
		{name: "nil error", err: nil, want: ErrorTypePermanent},
		{name: "transport timeout", err: ErrTransportTimeout, want: ErrorTypeTimeout},
		{name: "transport read", err: ErrTransportRead, want: ErrorTypeTransient},
		{name: "transport write", err: ErrTransportWrite, want: ErrorTypeTransient},
		{name: "link broken", err: fmt.Errorf("read: %w", ErrLinkBroken), want: ErrorTypeTerminal},
		{name: "unknown opcode", err: ErrUnknownOpcode, want: ErrorTypePermanent},
		{
			name: "transport error type",
			err:  NewLinkBrokenError("read", "COM3", errors.New("unplugged")),
			want: ErrorTypeTerminal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := GetErrorType(tt.err); got != tt.want {
				t.Errorf("GetErrorType() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransportError_Error(t *testing.T) {
	t.Parallel()

	err := NewTransportError("write", "/dev/ttyUSB0", ErrTransportWrite, ErrorTypeTransient)
	if got, want := err.Error(), "write on /dev/ttyUSB0: transport write failed"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	err = NewTransportError("retry", "", ErrNoResponse, ErrorTypeTransient)
	if got, want := err.Error(), "retry: no response from peer"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrNoResponse) {
		t.Error("TransportError must unwrap to its cause")
	}
}

func TestNewLinkBrokenError_WrapsBoth(t *testing.T) {
	t.Parallel()

	cause := errors.New("device removed")
	err := NewLinkBrokenError("read", "COM3", cause)
	if !errors.Is(err, ErrLinkBroken) || !errors.Is(err, cause) {
		t.Errorf("link broken error %v must wrap ErrLinkBroken and its cause", err)
	}
	if !IsTerminal(err) {
		t.Error("link broken error must be terminal")
	}
}

func TestErrorType_String(t *testing.T) {
	t.Parallel()

	for typ, want := range map[ErrorType]string{
		ErrorTypePermanent: "permanent",
		ErrorTypeTransient: "transient",
		ErrorTypeTimeout:   "timeout",
		ErrorTypeTerminal:  "terminal",
	} {
		if got := typ.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", typ, got, want)
		}
	}
}
