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
	"time"

	"go.bug.st/serial"
)

// Serial line settings used by the peer. They are fixed, not negotiated.
const (
	BaudRate = 115200
	DataBits = 8
)

// Port is the byte stream a session drives. A go.bug.st/serial port
// satisfies it; tests substitute a virtual peer.
//
// Read must return within the port's poll interval, reporting (0, nil) when
// nothing arrived.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Drain() error
	Close() error
}

// PortOpener opens the named port with the given read timeout.
type PortOpener func(name string, readTimeout time.Duration) (Port, error)

// OpenSerialPort opens a serial device at 115200 8N1.
func OpenSerialPort(name string, readTimeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: BaudRate,
		DataBits: DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, NewTransportError("open", name, err, ErrorTypePermanent)
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return nil, NewTransportError("set read timeout", name, err, ErrorTypePermanent)
	}

	return port, nil
}

// classifyIOError decides how the I/O loop reacts to a read or write error.
func classifyIOError(err error) ErrorType {
	if err == nil {
		return ErrorTypePermanent
	}

	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PortClosed, serial.PortNotFound:
			return ErrorTypeTerminal
		default:
		}
	}

	switch {
	case errors.Is(err, ErrLinkBroken),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, os.ErrClosed),
		isBrokenLinkErrno(err):
		return ErrorTypeTerminal
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, ErrTransportTimeout),
		isTimeoutErrno(err):
		return ErrorTypeTimeout
	}

	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return ErrorTypeTimeout
	}
	return ErrorTypeTransient
}

// wrapIOError turns a raw port error into a TransportError
func wrapIOError(op, port string, err error) *TransportError {
	switch classifyIOError(err) {
	case ErrorTypeTerminal:
		return NewLinkBrokenError(op, port, err)
	case ErrorTypeTimeout:
		return NewTimeoutError(op, port, err)
	default:
		sentinel := ErrTransportRead
		if op == "write" || op == "flush" {
			sentinel = ErrTransportWrite
		}
		return NewTransportError(op, port, fmt.Errorf("%w: %w", sentinel, err), ErrorTypeTransient)
	}
}
