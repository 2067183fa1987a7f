// Copyright (c) 2025 Fixonway
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/fixonway/fixonway-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	Server ServerConfig `toml:"server" json:"server"`
	Chat   ChatConfig   `toml:"chat" json:"chat"`
	UI     UIConfig     `toml:"ui" json:"ui"`
}

// ServerConfig points the client at a Fixonway deployment.
type ServerConfig struct {
	// APIURL is the base URL of the HTTP API (login, register).
	APIURL string `toml:"api_url" json:"api_url"`
	// SocketURL is the realtime channel endpoint. Empty derives it from
	// APIURL by swapping the scheme to ws/wss.
	SocketURL string `toml:"socket_url" json:"socket_url"`
	// HandshakeTimeoutSecs bounds the websocket dial.
	HandshakeTimeoutSecs int `toml:"handshake_timeout_secs" json:"handshake_timeout_secs"`
	// ReconnectSecs is the pause between reconnect attempts.
	ReconnectSecs int `toml:"reconnect_secs" json:"reconnect_secs"`
}

// ChatConfig tunes the conversation core.
type ChatConfig struct {
	// RequestTimeoutSecs bounds how long a join or history request may
	// stay in flight.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// CacheEnabled turns the local transcript cache on.
	CacheEnabled bool `toml:"cache_enabled" json:"cache_enabled"`
	// CachePath overrides the cache file location (empty = default
	// ~/.fixonway/cache.db).
	CachePath string `toml:"cache_path" json:"cache_path"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme" json:"theme"`
	// RosterWidth is the sidebar width in columns.
	RosterWidth int `toml:"roster_width" json:"roster_width"`
	// Clock24h renders message times as 15:04 instead of 3:04 PM.
	Clock24h bool `toml:"clock_24h" json:"clock_24h"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			APIURL:               "https://api.fixonway.com",
			HandshakeTimeoutSecs: 10,
			ReconnectSecs:        2,
		},
		Chat: ChatConfig{
			RequestTimeoutSecs: 10,
			CacheEnabled:       true,
		},
		UI: UIConfig{
			Theme:       "dark",
			RosterWidth: 32,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the Fixonway configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".fixonway"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from disk, preferring TOML over JSON, and falls
// back to defaults when neither file exists. Environment overrides and
// validation apply in every case.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				return nil, fmt.Errorf("failed to load TOML config: %w", err)
			}
			return finishLoad(cfg)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
			return finishLoad(cfg)
		}
	}

	return finishLoad(cfg)
}

func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from an explicit file, selecting the
// format by extension.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	case ".json":
		if err := LoadJSON(cfg, path); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}
	return finishLoad(cfg)
}

// Save writes the configuration to the TOML config file atomically.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg as TOML to path.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode TOML: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0o600)
}

// =============================================================================
// DEFAULTS AND VALIDATION
// =============================================================================

// SetDefaults fills zero-valued fields with built-in defaults.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Server.APIURL == "" {
		c.Server.APIURL = def.Server.APIURL
	}
	if c.Server.HandshakeTimeoutSecs <= 0 {
		c.Server.HandshakeTimeoutSecs = def.Server.HandshakeTimeoutSecs
	}
	if c.Server.ReconnectSecs <= 0 {
		c.Server.ReconnectSecs = def.Server.ReconnectSecs
	}
	if c.Chat.RequestTimeoutSecs <= 0 {
		c.Chat.RequestTimeoutSecs = def.Chat.RequestTimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.RosterWidth <= 0 {
		c.UI.RosterWidth = def.UI.RosterWidth
	}
}

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects all validation failures.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for consistency. All failures are
// reported, not just the first.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Server.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"server.api_url", "must be an absolute http(s) URL"})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{"server.api_url", "scheme must be http or https"})
	}

	if c.Server.SocketURL != "" {
		if u, err := url.Parse(c.Server.SocketURL); err != nil || u.Scheme != "ws" && u.Scheme != "wss" {
			errs = append(errs, ValidationError{"server.socket_url", "scheme must be ws or wss"})
		}
	}

	switch c.UI.Theme {
	case "dark", "light":
	default:
		errs = append(errs, ValidationError{"ui.theme", "must be dark or light"})
	}

	if c.UI.RosterWidth < 16 || c.UI.RosterWidth > 80 {
		errs = append(errs, ValidationError{"ui.roster_width", "must be between 16 and 80"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ResolveSocketURL returns the realtime endpoint, deriving it from the API
// URL when not set explicitly.
func (c *Config) ResolveSocketURL() string {
	if c.Server.SocketURL != "" {
		return c.Server.SocketURL
	}
	u, err := url.Parse(c.Server.APIURL)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/socket"
	return u.String()
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies FIXONWAY_* environment variables on top of the
// loaded values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FIXONWAY_API_URL"); v != "" {
		c.Server.APIURL = v
	}
	if v := os.Getenv("FIXONWAY_SOCKET_URL"); v != "" {
		c.Server.SocketURL = v
	}
	if v := os.Getenv("FIXONWAY_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("FIXONWAY_NO_CACHE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Chat.CacheEnabled = false
		}
	}
	if v := os.Getenv("FIXONWAY_REQUEST_TIMEOUT_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Chat.RequestTimeoutSecs = n
		}
	}
}

// =============================================================================
// KEY ACCESS
// =============================================================================

// knownKeys maps dotted key names used by the config CLI to accessors.
var knownKeys = []string{
	"server.api_url",
	"server.socket_url",
	"server.handshake_timeout_secs",
	"server.reconnect_secs",
	"chat.request_timeout_secs",
	"chat.cache_enabled",
	"chat.cache_path",
	"ui.theme",
	"ui.roster_width",
	"ui.clock_24h",
}

// AllKeys returns every settable configuration key.
func AllKeys() []string {
	out := make([]string, len(knownKeys))
	copy(out, knownKeys)
	return out
}

// Get returns the value for a dotted key name.
func (c *Config) Get(key string) (any, error) {
	switch key {
	case "server.api_url":
		return c.Server.APIURL, nil
	case "server.socket_url":
		return c.Server.SocketURL, nil
	case "server.handshake_timeout_secs":
		return c.Server.HandshakeTimeoutSecs, nil
	case "server.reconnect_secs":
		return c.Server.ReconnectSecs, nil
	case "chat.request_timeout_secs":
		return c.Chat.RequestTimeoutSecs, nil
	case "chat.cache_enabled":
		return c.Chat.CacheEnabled, nil
	case "chat.cache_path":
		return c.Chat.CachePath, nil
	case "ui.theme":
		return c.UI.Theme, nil
	case "ui.roster_width":
		return c.UI.RosterWidth, nil
	case "ui.clock_24h":
		return c.UI.Clock24h, nil
	default:
		return nil, fmt.Errorf("unknown config key: %s", key)
	}
}

// Set parses and assigns a value for a dotted key name. The change is not
// persisted; call Save for that.
func (c *Config) Set(key, value string) error {
	switch key {
	case "server.api_url":
		c.Server.APIURL = value
	case "server.socket_url":
		c.Server.SocketURL = value
	case "server.handshake_timeout_secs":
		return setInt(&c.Server.HandshakeTimeoutSecs, value)
	case "server.reconnect_secs":
		return setInt(&c.Server.ReconnectSecs, value)
	case "chat.request_timeout_secs":
		return setInt(&c.Chat.RequestTimeoutSecs, value)
	case "chat.cache_enabled":
		return setBool(&c.Chat.CacheEnabled, value)
	case "chat.cache_path":
		c.Chat.CachePath = value
	case "ui.theme":
		c.UI.Theme = value
	case "ui.roster_width":
		return setInt(&c.UI.RosterWidth, value)
	case "ui.clock_24h":
		return setBool(&c.UI.Clock24h, value)
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("expected integer, got %q", value)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("expected boolean, got %q", value)
	}
	*dst = b
	return nil
}

// =============================================================================
// GLOBAL INSTANCE
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance. Loads configuration on
// first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
