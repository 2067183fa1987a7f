// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Unified argument parsing for all CLI commands.
package cli

import (
	"strings"
)

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser provides unified argument parsing for CLI commands. It handles
// the common flag formats consistently:
//
//	--flag value     Long flag with space-separated value
//	--flag=value     Long flag with equals sign
//	-f value         Short flag with space-separated value
//	--flag           Boolean flag (no value)
//
// Arguments without a leading dash are positional; the first positional is
// the subcommand.
type ArgParser struct {
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
	raw        []string
}

// NewArgParser creates a parser from raw arguments.
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
		raw:       raw,
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") {
			p.positional = append(p.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			value := name[eq+1:]
			name = name[:eq]
			// --flag=true / --flag=false are boolean forms.
			if value == "true" || value == "false" {
				p.boolFlags[name] = value == "true"
			} else {
				p.flags[name] = value
			}
			continue
		}

		if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i++
		} else {
			p.boolFlags[name] = true
		}
	}
	return p
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string {
	if len(p.positional) == 0 {
		return ""
	}
	return p.positional[0]
}

// Flag returns the value of a string flag, or "".
func (p *ArgParser) Flag(name string) string {
	return p.flags[name]
}

// FlagOrDefault returns the flag value or a default when unset.
func (p *ArgParser) FlagOrDefault(name, def string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return def
}

// BoolFlag reports whether a boolean flag is set. A flag given a value
// (--flag value) also counts as present.
func (p *ArgParser) BoolFlag(name string) bool {
	if v, ok := p.boolFlags[name]; ok {
		return v
	}
	_, ok := p.flags[name]
	return ok
}

// HasFlag reports whether the flag appeared in any form.
func (p *ArgParser) HasFlag(name string) bool {
	if _, ok := p.flags[name]; ok {
		return true
	}
	_, ok := p.boolFlags[name]
	return ok
}

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < 0 || index >= len(p.positional) {
		return ""
	}
	return p.positional[index]
}

// PositionalCount returns the number of positional arguments.
func (p *ArgParser) PositionalCount() int {
	return len(p.positional)
}

// Raw returns the original arguments.
func (p *ArgParser) Raw() []string {
	return p.raw
}
