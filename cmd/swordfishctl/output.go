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
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Formatter renders command results
type Formatter interface {
	Format(data any) string
}

// NewFormatter returns a Formatter for "table" (default), "json" or "yaml".
func NewFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return &JSONFormatter{}
	case "yaml":
		return &YAMLFormatter{}
	default:
		return &TableFormatter{}
	}
}

// TableFormatter aligns structs and slices of structs into columns.
type TableFormatter struct{}

func (*TableFormatter) Format(data any) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Slice:
		if v.Len() == 0 {
			return "Nothing found.\n"
		}
		if elem := reflect.Indirect(v.Index(0)); elem.Kind() == reflect.Struct {
			t := elem.Type()
			headers := make([]string, t.NumField())
			for i := range headers {
				headers[i] = strings.ToUpper(t.Field(i).Name)
			}
			_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))

			for i := 0; i < v.Len(); i++ {
				row := reflect.Indirect(v.Index(i))
				vals := make([]string, row.NumField())
				for j := range vals {
					vals[j] = fmt.Sprintf("%v", row.Field(j).Interface())
				}
				_, _ = fmt.Fprintln(w, strings.Join(vals, "\t"))
			}
		} else {
			for i := 0; i < v.Len(); i++ {
				_, _ = fmt.Fprintln(w, v.Index(i).Interface())
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			_, _ = fmt.Fprintf(w, "%s:\t%v\n", t.Field(i).Name, v.Field(i).Interface())
		}
	default:
		_, _ = fmt.Fprintln(w, data)
	}

	_ = w.Flush()
	return buf.String()
}

// JSONFormatter formats data as indented JSON.
type JSONFormatter struct{}

func (*JSONFormatter) Format(data any) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("error formatting JSON: %v\n", err)
	}
	return string(b) + "\n"
}

// YAMLFormatter formats data as YAML.
type YAMLFormatter struct{}

func (*YAMLFormatter) Format(data any) string {
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error formatting YAML: %v\n", err)
	}
	return string(b)
}
