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

package detection

import (
	"path/filepath"
	"strings"
)

// IsBlocked checks if a VID:PID is in the blocklist.
func IsBlocked(vidpid string, blocklist []string) bool {
	vidpid = strings.ToUpper(strings.TrimSpace(vidpid))
	if vidpid == "" {
		return false
	}

	for _, blocked := range blocklist {
		if ParseVIDPID(blocked) == vidpid {
			return true
		}
	}
	return false
}

// ParseVIDPID normalizes a USB id to upper-case "VVVV:PPPP". It accepts
// "10c4:ea60", "VID:10C4 PID:EA60", "vid=10c4 pid=ea60" and
// "vendor=10c4 product=ea60". It returns "" when no id is found.
func ParseVIDPID(descriptor string) string {
	descriptor = strings.ToUpper(strings.TrimSpace(descriptor))

	vid := hexAfter(descriptor, "VID:", "VID=", "VENDOR=")
	pid := hexAfter(descriptor, "PID:", "PID=", "PRODUCT=")
	if vid != "" && pid != "" {
		return pad4(vid) + ":" + pad4(pid)
	}

	if parts := strings.Split(descriptor, ":"); len(parts) == 2 && isHex(parts[0]) && isHex(parts[1]) {
		return pad4(parts[0]) + ":" + pad4(parts[1])
	}
	return ""
}

// hexAfter returns the hex digits following the first marker found.
func hexAfter(s string, markers ...string) string {
	for _, m := range markers {
		if idx := strings.Index(s, m); idx >= 0 {
			return leadingHex(s[idx+len(m):])
		}
	}
	return ""
}

func leadingHex(s string) string {
	end := 0
	for end < len(s) && isHexDigit(rune(s[end])) {
		end++
	}
	return s[:end]
}

func pad4(s string) string {
	if len(s) >= 4 {
		return s
	}
	return strings.Repeat("0", 4-len(s)) + s
}

func isHex(s string) bool {
	if s == "" || len(s) > 4 {
		return false
	}
	for _, r := range s {
		if !isHexDigit(r) {
			return false
		}
	}
	return true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'A' && r <= 'F') || (r >= 'a' && r <= 'f')
}

// IsPathIgnored checks if a device path should be ignored.
// Paths are compared after cleaning and case folding, so "COM3" matches
// "com3" and "/dev/./ttyUSB0" matches "/dev/ttyUSB0".
func IsPathIgnored(devicePath string, ignorePaths []string) bool {
	if devicePath == "" {
		return false
	}

	device := normalizedPath(devicePath)
	for _, ignore := range ignorePaths {
		if ignore != "" && normalizedPath(ignore) == device {
			return true
		}
	}
	return false
}

func normalizedPath(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
