// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Command parsing and dispatch for the fixonway client.
package cli

import (
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information (can be overridden at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdLogin
	CmdRegister
	CmdLogout
	CmdStatus
	CmdConfig
	CmdVersion
	CmdHelp
)

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Quiet   bool
	Verbose bool
	JSON    bool

	// Command-specific
	Subcommand string
	ConfigKey  string
	ConfigVal  string
	Email      string
	With       string

	// Raw args remaining after the command name
	Raw []string
}

const usageText = `fixonway - chat with local service providers from your terminal

Fixonway connects homeowners with nearby repair professionals. This client
signs in to your Fixonway account and opens your conversations in a TUI.

Usage:
  fixonway                   Start the chat TUI (default)
  fixonway chat              Same as the default
    --with USER_ID           Open (or start) the conversation with a provider
  fixonway login             Sign in and store the session
    --email ADDRESS          Skip the email prompt
  fixonway register          Create an account and sign in
  fixonway logout            Sign out and clear cached transcripts
  fixonway status, s         Show session and connection settings
  fixonway config [subcommand]
    show                     Print the active configuration
    get <key>                Print one value
    set <key> <value>        Change and persist one value
    keys                     List all settable keys
    path                     Print the config file location
  fixonway version, -v       Show version information
  fixonway help, -h          Show this help

Global flags:
  --json                     Machine-readable output where supported
  --quiet, -q                Suppress non-essential output
  --verbose                  More detail in status output

Environment:
  FIXONWAY_API_URL           Override server.api_url
  FIXONWAY_SOCKET_URL        Override server.socket_url
  FIXONWAY_THEME             Override ui.theme
  FIXONWAY_NO_CACHE          Disable the local transcript cache

Configuration file: ~/.fixonway/config.toml`

// PrintUsage prints the usage text.
func PrintUsage() {
	fmt.Println(usageText)
}

// PrintVersion prints version information.
func PrintVersion() {
	fmt.Printf("fixonway %s (%s, built %s, %s/%s)\n",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// Parse parses os.Args into a command and its arguments.
func Parse() (Command, Args) {
	return parseArgs(os.Args[1:])
}

func parseArgs(argv []string) (Command, Args) {
	remaining, args := parseGlobalFlags(argv)

	if len(remaining) == 0 {
		return CmdTUI, args
	}

	cmd := strings.ToLower(remaining[0])
	remaining = remaining[1:]
	args.Raw = remaining

	switch cmd {
	case "tui", "chat":
		parser := NewArgParser(remaining)
		args.With = parser.Flag("with")
		return CmdTUI, args

	case "login":
		parser := NewArgParser(remaining)
		args.Email = parser.Flag("email")
		return CmdLogin, args

	case "register":
		parser := NewArgParser(remaining)
		args.Email = parser.Flag("email")
		return CmdRegister, args

	case "logout":
		return CmdLogout, args

	case "status", "s":
		return CmdStatus, args

	case "config":
		parser := NewArgParser(remaining)
		args.Subcommand = parser.Subcommand()
		args.ConfigKey = parser.Positional(1)
		args.ConfigVal = parser.Positional(2)
		return CmdConfig, args

	case "version", "-v", "--version":
		return CmdVersion, args

	case "help", "-h", "--help":
		return CmdHelp, args

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return CmdHelp, args
	}
}

// parseGlobalFlags extracts flags valid for every command.
func parseGlobalFlags(argv []string) ([]string, Args) {
	var args Args
	var remaining []string

	for _, arg := range argv {
		switch arg {
		case "--json":
			args.JSON = true
		case "--quiet", "-q":
			args.Quiet = true
		case "--verbose":
			args.Verbose = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return remaining, args
}

// HandleVersion prints the version, honoring --json.
func HandleVersion(args Args) {
	if args.JSON {
		fmt.Printf(`{"version":%q,"commit":%q,"built":%q,"os":%q,"arch":%q}%s`,
			Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH, "\n")
		return
	}
	PrintVersion()
}

// HandleHelp prints usage.
func HandleHelp() {
	PrintUsage()
}
