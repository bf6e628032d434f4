// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/navi-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete navi configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Server ServerConfig `toml:"server" json:"server"`
	Paging PagingConfig `toml:"paging" json:"paging"`
	Stream StreamConfig `toml:"stream" json:"stream"`
	Scroll ScrollConfig `toml:"scroll" json:"scroll"`
	Send   SendConfig   `toml:"send" json:"send"`
	Log    LogConfig    `toml:"log" json:"log"`
	UI     UIConfig     `toml:"ui" json:"ui"`
}

// ServerConfig describes the remote conversation service.
type ServerConfig struct {
	// BaseURL is the service root, e.g. https://navi.example.com/api
	BaseURL string `toml:"base_url" json:"base_url"`
	// Token is sent as a bearer token when set
	Token string `toml:"token" json:"token"`
	// TimeoutSecs bounds every listing request
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxRetries for idempotent requests
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// RequestsPerSecond is the client side rate limit
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// PagingConfig holds page sizes.
type PagingConfig struct {
	SessionPageSize int `toml:"session_page_size" json:"session_page_size"`
	MessagePageSize int `toml:"message_page_size" json:"message_page_size"`
}

// StreamConfig controls the answer reveal.
type StreamConfig struct {
	// TickMs is the delay between revealed characters
	TickMs int `toml:"tick_ms" json:"tick_ms"`
	// CardsDelayMs delays recommendation cards for a freshly sent question
	CardsDelayMs int `toml:"cards_delay_ms" json:"cards_delay_ms"`
}

// ScrollConfig controls when older history is loaded.
type ScrollConfig struct {
	VisibilityThreshold float64 `toml:"visibility_threshold" json:"visibility_threshold"`
	MarginLines         int     `toml:"margin_lines" json:"margin_lines"`
	CooldownMs          int     `toml:"cooldown_ms" json:"cooldown_ms"`
}

// SendConfig controls question submission.
type SendConfig struct {
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
}

// LogConfig controls the log file.
type LogConfig struct {
	// Level is one of trace, debug, info, warn, error
	Level string `toml:"level" json:"level"`
	// Path of the log file (empty = ~/.navi/navi.log)
	Path string `toml:"path" json:"path"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Markdown renders settled answers with glamour
	Markdown bool `toml:"markdown" json:"markdown"`
	// ShowDates draws a separator between messages from different days
	ShowDates bool `toml:"show_dates" json:"show_dates"`
	// Theme is "auto", "dark" or "light"
	Theme string `toml:"theme" json:"theme"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			BaseURL:           "http://localhost:8080",
			TimeoutSecs:       30,
			MaxRetries:        3,
			RequestsPerSecond: 5,
		},
		Paging: PagingConfig{
			SessionPageSize: 15,
			MessagePageSize: 10,
		},
		Stream: StreamConfig{
			TickMs:       10,
			CardsDelayMs: 200,
		},
		Scroll: ScrollConfig{
			VisibilityThreshold: 0.1,
			MarginLines:         2,
			CooldownMs:          300,
		},
		Send: SendConfig{
			TimeoutSecs: 60,
		},
		Log: LogConfig{
			Level: "info",
		},
		UI: UIConfig{
			Markdown:  true,
			ShowDates: true,
			Theme:     "auto",
		},
	}
}

// =============================================================================
// DURATION ACCESSORS
// =============================================================================

// ServerTimeout returns the listing request timeout.
func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSecs) * time.Second
}

// SendTimeout returns the question submission timeout.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Send.TimeoutSecs) * time.Second
}

// RevealInterval returns the delay between revealed characters.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.Stream.TickMs) * time.Millisecond
}

// CardsDelay returns the recommendation card delay.
func (c *Config) CardsDelay() time.Duration {
	return time.Duration(c.Stream.CardsDelayMs) * time.Millisecond
}

// Cooldown returns the history load cooldown.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Scroll.CooldownMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the navi configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".navi"), nil
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

// LogPath returns the configured log file, or ~/.navi/navi.log.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return expandHome(c.Log.Path)
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "navi.log"), nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ./.env)
// into the environment. Variables that are already set are not overridden
// and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	return finish(cfg)
}

// LoadFromPath loads configuration from a specific TOML or JSON file.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	if strings.HasSuffix(path, ".json") {
		err = decodeJSON(cfg, path)
	} else {
		err = decodeTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadForEdit reads path without applying environment overrides, so that a
// later Save does not persist values that only came from the environment.
// A missing file yields the defaults.
func LoadForEdit(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	var err error
	if strings.HasSuffix(path, ".json") {
		err = decodeJSON(cfg, path)
	} else {
		err = decodeTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	cfg.SetDefaults()
	return cfg, nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func decodeTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

func decodeJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to path atomically. The file may hold a
// token, so it is created owner read/write only.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# navi configuration file\n")
	buf.WriteString("# Generated by navi - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true,
}

var validThemes = map[string]bool{"auto": true, "dark": true, "light": true}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if c.Server.BaseURL != "" {
		u, err := url.Parse(c.Server.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			add("server.base_url", fmt.Sprintf("must be an http(s) URL, got %q", c.Server.BaseURL))
		}
	}
	if c.Server.TimeoutSecs < 1 || c.Server.TimeoutSecs > 600 {
		add("server.timeout_secs", "must be between 1 and 600")
	}
	if c.Server.MaxRetries < 1 || c.Server.MaxRetries > 10 {
		add("server.max_retries", "must be between 1 and 10")
	}
	if c.Server.RequestsPerSecond <= 0 {
		add("server.requests_per_second", "must be positive")
	}

	if c.Paging.SessionPageSize < 1 || c.Paging.SessionPageSize > 100 {
		add("paging.session_page_size", "must be between 1 and 100")
	}
	if c.Paging.MessagePageSize < 1 || c.Paging.MessagePageSize > 100 {
		add("paging.message_page_size", "must be between 1 and 100")
	}

	if c.Stream.TickMs < 1 || c.Stream.TickMs > 1000 {
		add("stream.tick_ms", "must be between 1 and 1000")
	}
	if c.Stream.CardsDelayMs < 0 || c.Stream.CardsDelayMs > 10000 {
		add("stream.cards_delay_ms", "must be between 0 and 10000")
	}

	if c.Scroll.VisibilityThreshold <= 0 || c.Scroll.VisibilityThreshold > 1 {
		add("scroll.visibility_threshold", "must be in (0, 1]")
	}
	if c.Scroll.MarginLines < 0 {
		add("scroll.margin_lines", "must not be negative")
	}
	if c.Scroll.CooldownMs < 0 || c.Scroll.CooldownMs > 10000 {
		add("scroll.cooldown_ms", "must be between 0 and 10000")
	}

	if c.Send.TimeoutSecs < 1 || c.Send.TimeoutSecs > 600 {
		add("send.timeout_secs", "must be between 1 and 600")
	}

	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		add("log.level", fmt.Sprintf("unknown level %q", c.Log.Level))
	}
	if !validThemes[c.UI.Theme] {
		add("ui.theme", fmt.Sprintf("must be auto, dark or light, got %q", c.UI.Theme))
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that would otherwise fail validation.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	c.Server.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Server.BaseURL), "/")
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = d.Server.TimeoutSecs
	}
	if c.Server.MaxRetries == 0 {
		c.Server.MaxRetries = d.Server.MaxRetries
	}
	if c.Server.RequestsPerSecond == 0 {
		c.Server.RequestsPerSecond = d.Server.RequestsPerSecond
	}
	if c.Paging.SessionPageSize == 0 {
		c.Paging.SessionPageSize = d.Paging.SessionPageSize
	}
	if c.Paging.MessagePageSize == 0 {
		c.Paging.MessagePageSize = d.Paging.MessagePageSize
	}
	if c.Stream.TickMs == 0 {
		c.Stream.TickMs = d.Stream.TickMs
	}
	if c.Scroll.VisibilityThreshold == 0 {
		c.Scroll.VisibilityThreshold = d.Scroll.VisibilityThreshold
	}
	if c.Send.TimeoutSecs == 0 {
		c.Send.TimeoutSecs = d.Send.TimeoutSecs
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - NAVI_SERVER_URL: overrides server.base_url
//   - NAVI_TOKEN: overrides server.token
//   - NAVI_LOG_LEVEL: overrides log.level
//   - NAVI_MESSAGE_PAGE_SIZE: overrides paging.message_page_size
//   - NAVI_SEND_TIMEOUT: overrides send.timeout_secs
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NAVI_SERVER_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv("NAVI_TOKEN"); v != "" {
		c.Server.Token = v
	}
	if v := os.Getenv("NAVI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("NAVI_MESSAGE_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Paging.MessagePageSize = n
		}
	}
	if v := os.Getenv("NAVI_SEND_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Send.TimeoutSecs = n
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "paging.message_page_size").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// Clone returns a copy of the configuration. Config holds no reference
// types, so a value copy is deep.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as indented JSON with the token redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Server.Token != "" {
		safe.Server.Token = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
