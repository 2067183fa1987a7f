// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for the
// Fixonway client.
//
// Supports both TOML and JSON formats, with sensible defaults, environment
// variable overrides (FIXONWAY_*), and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.fixonway/config.toml
//   - ~/.fixonway/config.json
//   - Built-in defaults
package config
