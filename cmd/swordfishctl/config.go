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
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	swordfish "github.com/ZaparooProject/go-swordfish"
)

type cliConfig struct {
	Port            string
	LogLevel        string
	OutputFormat    string
	IgnorePaths     []string
	ResponseTimeout time.Duration
	PollInterval    time.Duration
	MonitorInterval time.Duration
}

type fileConfig struct {
	Port            string   `toml:"port"`
	ResponseTimeout string   `toml:"response_timeout"`
	PollInterval    string   `toml:"poll_interval"`
	LogLevel        string   `toml:"log_level"`
	MonitorInterval string   `toml:"monitor_interval"`
	Output          string   `toml:"output"`
	IgnorePaths     []string `toml:"ignore_paths"`
}

func defaultConfig() cliConfig {
	return cliConfig{
		LogLevel:        "info",
		OutputFormat:    "table",
		IgnorePaths:     []string{},
		ResponseTimeout: swordfish.DefaultResponseTimeout,
		PollInterval:    swordfish.DefaultPollInterval,
		MonitorInterval: time.Second,
	}
}

func loadConfig(path string) (cliConfig, error) {
	cfg := defaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return cliConfig{}, fmt.Errorf("load swordfishctl config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cliConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}

	if meta.IsDefined("port") {
		cfg.Port = strings.TrimSpace(raw.Port)
	}

	durations := []struct {
		dst *time.Duration
		key string
		raw string
	}{
		{key: "response_timeout", raw: raw.ResponseTimeout, dst: &cfg.ResponseTimeout},
		{key: "poll_interval", raw: raw.PollInterval, dst: &cfg.PollInterval},
		{key: "monitor_interval", raw: raw.MonitorInterval, dst: &cfg.MonitorInterval},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return cliConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}

	if meta.IsDefined("output") {
		cfg.OutputFormat = strings.ToLower(strings.TrimSpace(raw.Output))
	}

	if meta.IsDefined("ignore_paths") {
		cfg.IgnorePaths = normalizePaths(raw.IgnorePaths)
	}

	return cfg, nil
}

func normalizePaths(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		v := strings.TrimSpace(p)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
