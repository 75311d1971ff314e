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
)

// Session errors
var (
	ErrSessionActive = errors.New("a session is already open")
	ErrSessionClosed = errors.New("session is closed")
	ErrUnknownOpcode = errors.New("opcode is not registered")
	ErrNoResponse    = errors.New("no response from peer")
)

// Message decoding errors
var (
	ErrOpcodeMismatch = errors.New("message opcode mismatch")
	ErrLengthMismatch = errors.New("message length mismatch")
)

// Transport errors
var (
	ErrTransportRead    = errors.New("transport read failed")
	ErrTransportWrite   = errors.New("transport write failed")
	ErrTransportTimeout = errors.New("transport timeout")
	ErrLinkBroken       = errors.New("serial link broken")
)

// ErrorType classifies errors by how the I/O loop reacts to them
type ErrorType int

const (
	// ErrorTypePermanent errors are reported and never retried
	ErrorTypePermanent ErrorType = iota
	// ErrorTypeTransient errors are logged and the loop carries on
	ErrorTypeTransient
	// ErrorTypeTimeout means nothing was available yet
	ErrorTypeTimeout
	// ErrorTypeTerminal errors stop the I/O loop for good
	ErrorTypeTerminal
)

// String implements fmt.Stringer
func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeTerminal:
		return "terminal"
	default:
		return "permanent"
	}
}

// TransportError describes a failed port operation
type TransportError struct {
	Err       error
	Op        string
	Port      string
	Type      ErrorType
	Retryable bool
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.Port != "" {
		return fmt.Sprintf("%s on %s: %v", e.Op, e.Port, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewTransportError creates a new transport error
func NewTransportError(op, port string, err error, errType ErrorType) *TransportError {
	return &TransportError{
		Op:        op,
		Port:      port,
		Err:       err,
		Type:      errType,
		Retryable: errType == ErrorTypeTransient || errType == ErrorTypeTimeout,
	}
}

// NewTimeoutError creates a retryable timeout error
func NewTimeoutError(op, port string, cause error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrTransportTimeout, cause), ErrorTypeTimeout)
}

// NewLinkBrokenError wraps cause as a terminal link failure
func NewLinkBrokenError(op, port string, cause error) *TransportError {
	return NewTransportError(op, port, fmt.Errorf("%w: %w", ErrLinkBroken, cause), ErrorTypeTerminal)
}

// IsRetryable reports whether an operation failing with err may be attempted again
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Retryable
	}

	switch {
	case errors.Is(err, ErrTransportTimeout),
		errors.Is(err, ErrTransportRead),
		errors.Is(err, ErrTransportWrite),
		errors.Is(err, ErrNoResponse),
		errors.Is(err, ErrOpcodeMismatch),
		errors.Is(err, ErrLengthMismatch):
		return true
	default:
		return false
	}
}

// IsTerminal reports whether err means the link cannot be used any more
func IsTerminal(err error) bool {
	return GetErrorType(err) == ErrorTypeTerminal
}

// GetErrorType returns the classification of err
func GetErrorType(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var te *TransportError
	if errors.As(err, &te) {
		return te.Type
	}

	switch {
	case errors.Is(err, ErrLinkBroken):
		return ErrorTypeTerminal
	case errors.Is(err, ErrTransportTimeout):
		return ErrorTypeTimeout
	case errors.Is(err, ErrTransportRead), errors.Is(err, ErrTransportWrite):
		return ErrorTypeTransient
	default:
		return ErrorTypePermanent
	}
}
