// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth.go - login, register, and logout commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fixonway/fixonway-tui/internal/api"
	"github.com/fixonway/fixonway-tui/internal/config"
	"github.com/fixonway/fixonway-tui/internal/session"
	"github.com/fixonway/fixonway-tui/internal/storage"
)

// authTimeout bounds a single login or register round trip.
const authTimeout = 30 * time.Second

// HandleLogin signs in to the Fixonway server and stores the session.
func HandleLogin(args Args) error {
	email := strings.TrimSpace(args.Email)
	if email == "" {
		var err error
		email, err = PromptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if email == "" {
		return errors.New("email is required")
	}

	password, err := PromptPassword("Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	client := api.NewClient(config.Global().Server.APIURL)
	result, err := client.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, api.ErrInvalidCredentials) {
			return errors.New("invalid email or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	if err := saveSession(result); err != nil {
		return err
	}

	if !args.Quiet {
		fmt.Printf("%s Signed in as %s\n",
			SuccessStyle.Render("✓"), result.User.DisplayName())
	}
	return nil
}

// HandleRegister creates a Fixonway account and signs in.
func HandleRegister(args Args) error {
	fullName, err := PromptLine("Full name: ")
	if err != nil {
		return err
	}
	if fullName == "" {
		return errors.New("full name is required")
	}

	email := strings.TrimSpace(args.Email)
	if email == "" {
		email, err = PromptLine("Email: ")
		if err != nil {
			return err
		}
	}
	if email == "" {
		return errors.New("email is required")
	}

	password, err := PromptPassword("Password: ")
	if err != nil {
		return err
	}
	if len(password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	confirm, err := PromptPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if confirm != password {
		return errors.New("passwords do not match")
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	client := api.NewClient(config.Global().Server.APIURL)
	result, err := client.Register(ctx, fullName, email, password)
	if err != nil {
		if errors.Is(err, api.ErrEmailTaken) {
			return fmt.Errorf("an account already exists for %s", email)
		}
		return fmt.Errorf("registration failed: %w", err)
	}

	if err := saveSession(result); err != nil {
		return err
	}

	if !args.Quiet {
		fmt.Printf("%s Welcome to Fixonway, %s\n",
			SuccessStyle.Render("✓"), result.User.DisplayName())
	}
	return nil
}

// HandleLogout clears the stored session and purges cached transcripts.
func HandleLogout(args Args) error {
	store, err := session.NewStore("")
	if err != nil {
		return err
	}
	if err := store.Clear(); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}

	// Cached transcripts belong to the account, not the machine.
	if cfg := config.Global(); cfg.Chat.CacheEnabled {
		if cache, err := storage.Open(cfg.Chat.CachePath); err == nil {
			if err := cache.Purge(); err != nil && args.Verbose {
				fmt.Fprintf(os.Stderr, "warning: purging cache: %v\n", err)
			}
			cache.Close()
		}
	}

	if !args.Quiet {
		fmt.Println("Signed out.")
	}
	return nil
}

func saveSession(result api.AuthResult) error {
	store, err := session.NewStore("")
	if err != nil {
		return err
	}
	sess := session.Session{
		User:    result.User,
		Token:   result.Token,
		SavedAt: time.Now(),
	}
	if err := store.Save(sess); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}
