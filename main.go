// fixonway - terminal client for the Fixonway marketplace chat.
//
// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fixonway/fixonway-tui/internal/chat"
	"github.com/fixonway/fixonway-tui/internal/cli"
	"github.com/fixonway/fixonway-tui/internal/config"
	"github.com/fixonway/fixonway-tui/internal/model"
	"github.com/fixonway/fixonway-tui/internal/realtime"
	"github.com/fixonway/fixonway-tui/internal/session"
	"github.com/fixonway/fixonway-tui/internal/storage"
	uichat "github.com/fixonway/fixonway-tui/internal/ui/chat"
	"github.com/fixonway/fixonway-tui/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func init() {
	// Sync version info with cli package
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args := cli.Parse()

	var err error
	switch cmd {
	case cli.CmdTUI:
		err = runTUI(args)
	case cli.CmdLogin:
		err = cli.HandleLogin(args)
	case cli.CmdRegister:
		err = cli.HandleRegister(args)
	case cli.CmdLogout:
		err = cli.HandleLogout(args)
	case cli.CmdStatus:
		err = cli.HandleStatus(args)
	case cli.CmdConfig:
		err = cli.HandleConfig(args)
	case cli.CmdVersion:
		cli.HandleVersion(args)
	case cli.CmdHelp:
		cli.HandleHelp()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the chat interface: config, session, cache, socket,
// chat service, then the Bubble Tea program.
func runTUI(args cli.Args) error {
	if !cli.IsTTY() {
		return errors.New("the chat TUI needs an interactive terminal (try: fixonway status)")
	}

	cfg := config.Global()

	store, err := session.NewStore("")
	if err != nil {
		return err
	}
	sess, err := store.Load()
	if errors.Is(err, session.ErrNotSignedIn) {
		return errors.New("not signed in (run: fixonway login)")
	}
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}

	var cache *storage.Cache
	if cfg.Chat.CacheEnabled {
		cache, err = storage.Open(cfg.Chat.CachePath)
		if err != nil {
			// The cache is an accelerator. Run without it rather than
			// refusing to start.
			if args.Verbose {
				fmt.Fprintf(os.Stderr, "warning: transcript cache unavailable: %v\n", err)
			}
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	conn := realtime.Dial(realtime.ConnConfig{
		URL:              cfg.ResolveSocketURL(),
		Token:            sess.Token,
		HandshakeTimeout: time.Duration(cfg.Server.HandshakeTimeoutSecs) * time.Second,
		ReconnectEvery:   time.Duration(cfg.Server.ReconnectSecs) * time.Second,
	})
	defer conn.Close()

	opts := chat.Options{
		RequestTimeout: time.Duration(cfg.Chat.RequestTimeoutSecs) * time.Second,
	}
	if cache != nil {
		opts.Store = cache
	}
	svc := chat.NewService(conn, sess.User, opts)
	defer svc.Close()

	// --with jumps straight into a conversation; the server resolves the
	// user pair to a chat id, creating the chat if none exists yet.
	if args.With != "" {
		svc.OpenConversation(model.User{ID: args.With})
	}

	// Adaptive colors resolve against the detected background unless the
	// user pinned a theme.
	switch cfg.UI.Theme {
	case "light":
		lipgloss.SetHasDarkBackground(false)
	case "dark":
		lipgloss.SetHasDarkBackground(true)
	}

	width, height := cli.GetTerminalWidth(), 24
	theme := styles.NewTheme(width, height)

	m := uichat.New(svc, sess.User, theme, uichat.Options{
		RosterWidth: cfg.UI.RosterWidth,
		Clock24h:    cfg.UI.Clock24h,
	})

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Apply config edits while the TUI runs. Socket settings still need a
	// restart; UI settings take effect immediately.
	watcher, werr := config.NewWatcher(0, func(cfg *config.Config) {
		program.Send(uichat.ConfigReloadedMsg{
			RosterWidth: cfg.UI.RosterWidth,
			Clock24h:    cfg.UI.Clock24h,
		})
	})
	if werr == nil {
		if err := watcher.Watch(); err == nil {
			defer watcher.Close()
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("ui error: %w", err)
	}
	return nil
}
