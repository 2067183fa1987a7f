// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// status.go - session and connection status command.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fixonway/fixonway-tui/internal/config"
	"github.com/fixonway/fixonway-tui/internal/session"
)

// statusReport is the collected state printed by HandleStatus.
type statusReport struct {
	SignedIn    bool   `json:"signedIn"`
	UserID      string `json:"userId,omitempty"`
	UserName    string `json:"userName,omitempty"`
	Email       string `json:"email,omitempty"`
	APIURL      string `json:"apiUrl"`
	SocketURL   string `json:"socketUrl"`
	CacheOn     bool   `json:"cacheEnabled"`
	CachePath   string `json:"cachePath,omitempty"`
	ConfigPath  string `json:"configPath"`
	SessionPath string `json:"sessionPath"`
}

// HandleStatus shows the signed-in user and effective connection settings.
func HandleStatus(args Args) error {
	report, err := collectStatus()
	if err != nil {
		return err
	}

	if args.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Println(TitleStyle.Render("Fixonway"))
	if report.SignedIn {
		fmt.Printf("%s %s\n", LabelStyle.Render("Account"), report.UserName)
		if report.Email != "" {
			fmt.Printf("%s %s\n", LabelStyle.Render("Email"), report.Email)
		}
		if args.Verbose {
			fmt.Printf("%s %s\n", LabelStyle.Render("User ID"), report.UserID)
		}
	} else {
		fmt.Printf("%s %s\n", LabelStyle.Render("Account"),
			ErrorStyle.Render("not signed in")+" (run: fixonway login)")
	}
	fmt.Printf("%s %s\n", LabelStyle.Render("API"), report.APIURL)
	fmt.Printf("%s %s\n", LabelStyle.Render("Socket"), report.SocketURL)
	if report.CacheOn {
		fmt.Printf("%s %s\n", LabelStyle.Render("Cache"), report.CachePath)
	} else {
		fmt.Printf("%s disabled\n", LabelStyle.Render("Cache"))
	}
	if args.Verbose {
		fmt.Printf("%s %s\n", LabelStyle.Render("Config"), report.ConfigPath)
		fmt.Printf("%s %s\n", LabelStyle.Render("Session"), report.SessionPath)
	}
	return nil
}

func collectStatus() (statusReport, error) {
	cfg := config.Global()

	report := statusReport{
		APIURL:    cfg.Server.APIURL,
		SocketURL: cfg.ResolveSocketURL(),
		CacheOn:   cfg.Chat.CacheEnabled,
	}
	if cfg.Chat.CacheEnabled {
		report.CachePath = cfg.Chat.CachePath
		if report.CachePath == "" {
			report.CachePath = "~/.fixonway/cache.db"
		}
	}
	if path, err := config.ConfigPathTOML(); err == nil {
		report.ConfigPath = path
	}

	store, err := session.NewStore("")
	if err != nil {
		return report, err
	}
	report.SessionPath = store.Path()

	sess, err := store.Load()
	switch {
	case errors.Is(err, session.ErrNotSignedIn):
		// leave SignedIn false
	case err != nil:
		return report, fmt.Errorf("reading session: %w", err)
	default:
		report.SignedIn = true
		report.UserID = sess.User.ID
		report.UserName = sess.User.DisplayName()
		report.Email = sess.User.Email
	}
	return report, nil
}
