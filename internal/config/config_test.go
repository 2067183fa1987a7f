// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func testHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home) // windows
	ResetGlobalForTesting()
	t.Cleanup(ResetGlobalForTesting)
	return home
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoadWithoutFilesReturnsDefaults(t *testing.T) {
	testHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.APIURL != "https://api.fixonway.com" {
		t.Errorf("APIURL = %q, want default", cfg.Server.APIURL)
	}
	if cfg.Chat.RequestTimeoutSecs != 10 {
		t.Errorf("RequestTimeoutSecs = %d, want 10", cfg.Chat.RequestTimeoutSecs)
	}
}

func TestLoadTOMLFile(t *testing.T) {
	home := testHome(t)
	dir := filepath.Join(home, ".fixonway")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	content := `
[server]
api_url = "https://staging.fixonway.com"

[ui]
theme = "light"
roster_width = 40
`
	if err := os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.APIURL != "https://staging.fixonway.com" {
		t.Errorf("APIURL = %q", cfg.Server.APIURL)
	}
	if cfg.UI.Theme != "light" || cfg.UI.RosterWidth != 40 {
		t.Errorf("UI = %+v", cfg.UI)
	}
	// Unset fields keep defaults.
	if cfg.Server.HandshakeTimeoutSecs != 10 {
		t.Errorf("HandshakeTimeoutSecs = %d, want default 10", cfg.Server.HandshakeTimeoutSecs)
	}
}

func TestLoadJSONFallback(t *testing.T) {
	home := testHome(t)
	dir := filepath.Join(home, ".fixonway")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	content := `{"ui": {"theme": "light"}}`
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q, want light", cfg.UI.Theme)
	}
}

func TestEnvOverrides(t *testing.T) {
	testHome(t)
	t.Setenv("FIXONWAY_API_URL", "http://localhost:4000")
	t.Setenv("FIXONWAY_THEME", "light")
	t.Setenv("FIXONWAY_NO_CACHE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.APIURL != "http://localhost:4000" {
		t.Errorf("APIURL = %q", cfg.Server.APIURL)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	if cfg.Chat.CacheEnabled {
		t.Error("CacheEnabled should be overridden to false")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Server.APIURL = "not a url"
	cfg.UI.Theme = "solarized"
	cfg.UI.RosterWidth = 5

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	errs, ok := err.(ValidateErrors)
	if !ok {
		t.Fatalf("expected ValidateErrors, got %T", err)
	}
	if len(errs) != 3 {
		t.Errorf("got %d errors, want 3: %v", len(errs), errs)
	}
}

func TestResolveSocketURL(t *testing.T) {
	tests := []struct {
		name   string
		api    string
		socket string
		want   string
	}{
		{"explicit", "https://api.fixonway.com", "wss://rt.fixonway.com", "wss://rt.fixonway.com"},
		{"derived from https", "https://api.fixonway.com", "", "wss://api.fixonway.com/socket"},
		{"derived from http", "http://localhost:4000", "", "ws://localhost:4000/socket"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server.APIURL = tt.api
			cfg.Server.SocketURL = tt.socket
			if got := cfg.ResolveSocketURL(); got != tt.want {
				t.Errorf("ResolveSocketURL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	cfg := Default()
	for _, key := range AllKeys() {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error: %v", key, err)
		}
	}

	if err := cfg.Set("ui.theme", "light"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	if v, _ := cfg.Get("ui.theme"); v != "light" {
		t.Errorf("ui.theme = %v", v)
	}

	if err := cfg.Set("ui.roster_width", "no"); err == nil {
		t.Error("expected type error for non-integer roster_width")
	}
	if err := cfg.Set("bogus.key", "1"); err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	testHome(t)
	cfg := Default()
	cfg.UI.Theme = "light"

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.UI.Theme != "light" {
		t.Errorf("round-tripped theme = %q", loaded.UI.Theme)
	}
}
