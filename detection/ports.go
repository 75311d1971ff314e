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

// Package detection finds the serial port the peer is attached to.
package detection

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// ErrNoPeerFound is returned when no port matches a known adapter
var ErrNoPeerFound = errors.New("no probable peer port found")

// Device is a USB serial adapter the peer board is known to ship with
type Device struct {
	VIDPID      string
	Vendor      string
	Description string
}

// KnownDevices returns the adapters the peer board uses, in preference order.
func KnownDevices() []Device {
	return []Device{
		{VIDPID: "10C4:EA60", Vendor: "Silicon Labs", Description: "CP210x UART Bridge"},
		{VIDPID: "0403:6015", Vendor: "FTDI", Description: "FT230X Basic UART"},
	}
}

// LookupDevice returns the known adapter with the given id.
func LookupDevice(vidpid string) (Device, bool) {
	vidpid = ParseVIDPID(vidpid)
	for _, d := range KnownDevices() {
		if d.VIDPID == vidpid {
			return d, true
		}
	}
	return Device{}, false
}

// PortInfo describes one serial port on the host
type PortInfo struct {
	Name         string
	VIDPID       string
	SerialNumber string
	Product      string
	IsUSB        bool
}

// VID returns the vendor half of VIDPID.
func (p PortInfo) VID() string {
	vid, _, _ := strings.Cut(p.VIDPID, ":")
	return vid
}

// PID returns the product half of VIDPID.
func (p PortInfo) PID() string {
	_, pid, _ := strings.Cut(p.VIDPID, ":")
	return pid
}

// ListPorts enumerates the host's serial ports.
func ListPorts() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return fromDetails(details), nil
}

func fromDetails(details []*enumerator.PortDetails) []PortInfo {
	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		if d == nil {
			continue
		}
		p := PortInfo{Name: d.Name, IsUSB: d.IsUSB}
		if d.IsUSB {
			p.VIDPID = ParseVIDPID(d.VID + ":" + d.PID)
			p.SerialNumber = d.SerialNumber
			p.Product = d.Product
		}
		ports = append(ports, p)
	}
	return ports
}

// FormatPorts renders a port listing for humans.
func FormatPorts(ports []PortInfo) string {
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Num of devices: %d\n", len(ports))
	for i, p := range ports {
		if !p.IsUSB {
			_, _ = fmt.Fprintf(&b, "%d : Unknown Port : %s\n", i, p.Name)
			continue
		}

		manufacturer := "None"
		if d, ok := LookupDevice(p.VIDPID); ok {
			manufacturer = d.Vendor
		}
		_, _ = fmt.Fprintf(&b, "%d : USB Port : %s\n", i, p.Name)
		_, _ = fmt.Fprintf(&b, "  - VID: 0x%s\n", strings.ToLower(p.VID()))
		_, _ = fmt.Fprintf(&b, "  - PID: 0x%s\n", strings.ToLower(p.PID()))
		_, _ = fmt.Fprintf(&b, "  - Serial Number: %s\n", orNone(p.SerialNumber))
		_, _ = fmt.Fprintf(&b, "  - Manufacturer: %s\n", manufacturer)
		_, _ = fmt.Fprintf(&b, "  - Product: %s\n", orNone(p.Product))
	}
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// Filter narrows the ports considered by ProbablePeer
type Filter struct {
	// IgnorePaths lists port names that are never selected
	IgnorePaths []string
	// Blocklist lists VID:PIDs that are never selected
	Blocklist []string
	// Extra lists additional VID:PIDs to accept after the known devices
	Extra []string
}

// ProbablePeer picks the first USB port whose id matches a known device or
// one of filter.Extra.
func ProbablePeer(ports []PortInfo, filter Filter) (PortInfo, bool) {
	wanted := make(map[string]bool, len(KnownDevices())+len(filter.Extra))
	for _, d := range KnownDevices() {
		wanted[d.VIDPID] = true
	}
	for _, e := range filter.Extra {
		if id := ParseVIDPID(e); id != "" {
			wanted[id] = true
		}
	}

	for _, p := range ports {
		switch {
		case !p.IsUSB, !wanted[p.VIDPID]:
		case IsBlocked(p.VIDPID, filter.Blocklist), IsPathIgnored(p.Name, filter.IgnorePaths):
		default:
			return p, true
		}
	}
	return PortInfo{}, false
}

// FindProbablePeer enumerates the host's ports and returns the name of the
// most likely peer port.
func FindProbablePeer(filter Filter) (string, error) {
	ports, err := ListPorts()
	if err != nil {
		return "", err
	}
	p, ok := ProbablePeer(ports, filter)
	if !ok {
		return "", fmt.Errorf("%w among %d ports", ErrNoPeerFound, len(ports))
	}
	return p.Name, nil
}
