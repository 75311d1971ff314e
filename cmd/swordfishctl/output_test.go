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

package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestTableFormatter(t *testing.T) {
	t.Parallel()

	f := NewFormatter("table")

	out := f.Format([]row{{Name: "a", Count: 1}, {Name: "bb", Count: 22}})
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 3)
	assert.Equal(t, []string{"NAME", "COUNT"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"bb", "22"}, strings.Fields(lines[2]))

	assert.Equal(t, "Nothing found.\n", f.Format([]row{}))
	assert.Contains(t, f.Format(row{Name: "x", Count: 3}), "Count:")
	assert.Equal(t, "a\nb\n", f.Format([]string{"a", "b"}))
}

func TestJSONFormatter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "{\n  \"name\": \"x\",\n  \"count\": 3\n}\n", NewFormatter("JSON").Format(row{Name: "x", Count: 3}))
}

func TestYAMLFormatter(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "name: x\ncount: 3\n", NewFormatter("yaml").Format(row{Name: "x", Count: 3}))
}
