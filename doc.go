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

/*
Package swordfish is a host-side driver for the swordfish serial protocol.

A swordfish board talks to the host over a UART at 115200 8N1. Every message
travels in a frame: a four byte sync word, a little-endian counter, an opcode,
a little-endian payload length, up to 245 payload bytes and an 8-bit additive
checksum. Each opcode has a category that decides how it is answered:

  - Bounce: the board echoes the message under the same opcode.
  - Param: a parameter get/set, answered under the same opcode.
  - Operation: answered under a separate response opcode, or not at all.
  - Response: only ever sent by the board.

Basic Usage:

	manager := swordfish.NewManager(swordfish.WithLogger(logger))

	session, err := manager.Open("/dev/ttyUSB0")
	if err != nil {
	    log.Fatal(err)
	}
	defer session.Close()

	// Bounce messages come back under their own opcode
	resp, err := session.SendMessage(&swordfish.Ping{})
	if err != nil {
	    log.Fatal(err)
	}
	if resp == nil {
	    log.Println("no answer within the response timeout")
	}

	// Typed request and decode in one step
	version, err := swordfish.Request[swordfish.VersionData](session, &swordfish.VersionData{})
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("firmware %d.%d\n", version.Version, version.Subversion)

Unsolicited frames can be observed with a receive function, which runs on the
session's I/O goroutine before any waiting sender is woken:

	err = session.SetReceiveFunc(swordfish.OpcodePing, func(f swordfish.Frame) {
	    log.Printf("ping echo %d", f.Counter)
	})

Custom messages implement Message and are added with WithMessages. A Manager
allows one open session at a time; Open fails with ErrSessionActive until the
current session is closed. The limit applies per Manager, not per process.

If the serial link breaks, the session's I/O goroutine stops and the session
becomes inert: sends still return after the response timeout, with no reply.
Done and Err report when and why this happened.
*/
package swordfish
