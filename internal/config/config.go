// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for asiafeeds.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.asiafeeds/config.toml
//   - ~/.asiafeeds/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ilovedata6/AsiaFeedsAiAssistant/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete asiafeeds configuration.
type Config struct {
	// Version is the config schema version.
	Version string `toml:"version" json:"version"`

	// Backend describes how the client reaches the relay server.
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Models names the models requests are routed to.
	Models ModelsConfig `toml:"models" json:"models"`

	// Server configures the local relay in front of Ollama.
	Server ServerConfig `toml:"server" json:"server"`

	// Chat configures the interactive front-end behavior.
	Chat ChatConfig `toml:"chat" json:"chat"`

	// UI configures presentation.
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig describes the relay endpoint the chat client talks to.
type BackendConfig struct {
	// URL is the base URL of the backend, without a trailing slash.
	URL string `toml:"url" json:"url"`
	// RequestTimeoutSecs bounds a full non-streaming generation.
	// Local models can take a while to load, so the default is generous.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// HealthTimeoutSecs bounds a single health probe.
	HealthTimeoutSecs int `toml:"health_timeout_secs" json:"health_timeout_secs"`
}

// ModelsConfig names the models used for generation.
type ModelsConfig struct {
	// Default is the model used when the user does not ask for one.
	Default string `toml:"default" json:"default"`
	// Thinking is the model used when thinking mode is on. It overrides
	// any explicitly requested model.
	Thinking string `toml:"thinking" json:"thinking"`
}

// ServerConfig configures the relay server.
type ServerConfig struct {
	// ListenAddr is the address the relay binds to, host:port form.
	ListenAddr string `toml:"listen_addr" json:"listen_addr"`
	// UpstreamURL is the Ollama server the relay forwards to.
	UpstreamURL string `toml:"upstream_url" json:"upstream_url"`
	// UpstreamTimeoutSecs bounds a non-streaming upstream call.
	UpstreamTimeoutSecs int `toml:"upstream_timeout_secs" json:"upstream_timeout_secs"`
	// AllowedOrigins lists the origins the relay accepts browser
	// requests from.
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// ChatConfig configures the interactive chat loop.
type ChatConfig struct {
	// Streaming renders replies token by token when true.
	Streaming bool `toml:"streaming" json:"streaming"`
	// HistoryFile overrides the prompt history location
	// (default ~/.asiafeeds/history).
	HistoryFile string `toml:"history_file" json:"history_file"`
	// HistoryLimit caps the number of prompts kept in the history file.
	HistoryLimit int `toml:"history_limit" json:"history_limit"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders assistant replies as markdown on terminals.
	Markdown bool `toml:"markdown" json:"markdown"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ShowStats displays timing and token counts after each reply.
	ShowStats bool `toml:"show_stats" json:"show_stats"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			URL:                "http://localhost:8000",
			RequestTimeoutSecs: 60,
			HealthTimeoutSecs:  5,
		},

		Models: ModelsConfig{
			Default:  "llama3.2:3b",
			Thinking: "qwen3:4b",
		},

		Server: ServerConfig{
			ListenAddr:          ":8000",
			UpstreamURL:         "http://localhost:11434",
			UpstreamTimeoutSecs: 60,
			AllowedOrigins: []string{
				"http://localhost:8501",
				"http://127.0.0.1:8501",
			},
		},

		Chat: ChatConfig{
			Streaming:    true,
			HistoryFile:  "",
			HistoryLimit: 1000,
		},

		UI: UIConfig{
			Theme:       "dark",
			Markdown:    true,
			CompactMode: false,
			ShowStats:   false,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the asiafeeds configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".asiafeeds"), nil
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
	return os.MkdirAll(dir, 0755)
}

// HistoryPath returns the prompt history file path, honoring the
// chat.history_file override.
func (c *Config) HistoryPath() (string, error) {
	if c.Chat.HistoryFile != "" {
		return c.Chat.HistoryFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	// Try JSON as fallback
	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}

	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finishLoad applies the post-decode pipeline shared by every load path.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.Normalize()
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

// LoadFromPath loads configuration from a specific file path with full
// validation. The file overlays the built-in defaults, so absent keys
// keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		// Default to TOML
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finishLoad(cfg)
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

// SaveTOML saves the configuration to a TOML file.
// The write is atomic so a crash never leaves a half-written config.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# asiafeeds configuration file")
	fmt.Fprintln(&buf, "# Generated by asiafeeds - edit with care")
	fmt.Fprintln(&buf, "")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// defaultTOMLTemplate is the commented config file written by "config init".
// Values are filled in from Default() so the template never drifts.
const defaultTOMLTemplate = `# asiafeeds configuration file
# All keys are optional; unset keys fall back to built-in defaults.
# Environment variables (ASIAFEEDS_*) override values in this file.

version = %q

[backend]
# Base URL the CLI talks to. Point this at the relay (asiafeeds serve)
# or directly at an Ollama server.
url = %q
# Timeout in seconds for a full non-streaming generation.
request_timeout_secs = %d
# Timeout in seconds for a single health probe.
health_timeout_secs = %d

[models]
# Model used when no override is given.
default = %q
# Model used in thinking mode (--think, /think). Overrides any
# explicitly requested model while thinking mode is on.
thinking = %q

[server]
# Listen address for "asiafeeds serve", host:port form.
listen_addr = %q
# Upstream Ollama server the relay forwards to.
upstream_url = %q
# Timeout in seconds for a non-streaming upstream call.
upstream_timeout_secs = %d
# Origins the relay accepts browser requests from.
allowed_origins = [%s]

[chat]
# Stream replies token by token.
streaming = %t
# Prompt history file. Empty means ~/.asiafeeds/history.
history_file = %q
# Maximum prompt history entries kept.
history_limit = %d

[ui]
# Color theme: "dark", "light", or "auto".
theme = %q
# Render replies as markdown on a TTY.
markdown = %t
# Tighter spacing in the TUI.
compact_mode = %t
# Show character counts and timing after each reply.
show_stats = %t
`

// InitDefault writes a commented default config file and returns its path.
// It refuses to overwrite an existing file.
func InitDefault() (string, error) {
	path, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists at %s", path)
	}

	if err := EnsureConfigDir(); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := Default()
	origins := make([]string, len(cfg.Server.AllowedOrigins))
	for i, o := range cfg.Server.AllowedOrigins {
		origins[i] = fmt.Sprintf("%q", o)
	}

	content := fmt.Sprintf(defaultTOMLTemplate,
		cfg.Version,
		cfg.Backend.URL,
		cfg.Backend.RequestTimeoutSecs,
		cfg.Backend.HealthTimeoutSecs,
		cfg.Models.Default,
		cfg.Models.Thinking,
		cfg.Server.ListenAddr,
		cfg.Server.UpstreamURL,
		cfg.Server.UpstreamTimeoutSecs,
		strings.Join(origins, ", "),
		cfg.Chat.Streaming,
		cfg.Chat.HistoryFile,
		cfg.Chat.HistoryLimit,
		cfg.UI.Theme,
		cfg.UI.Markdown,
		cfg.UI.CompactMode,
		cfg.UI.ShowStats,
	)

	if err := util.AtomicWriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
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
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := validateURLField(c.Backend.URL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "backend.url",
			Message: err.Error(),
		})
	}

	if c.Backend.RequestTimeoutSecs < 1 || c.Backend.RequestTimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "backend.request_timeout_secs",
			Message: fmt.Sprintf("must be 1-600, got %d", c.Backend.RequestTimeoutSecs),
		})
	}

	if c.Backend.HealthTimeoutSecs < 1 || c.Backend.HealthTimeoutSecs > 60 {
		errs = append(errs, ValidationError{
			Field:   "backend.health_timeout_secs",
			Message: fmt.Sprintf("must be 1-60, got %d", c.Backend.HealthTimeoutSecs),
		})
	}

	if c.Models.Default == "" {
		errs = append(errs, ValidationError{
			Field:   "models.default",
			Message: "must not be empty",
		})
	}

	if !strings.Contains(c.Server.ListenAddr, ":") {
		errs = append(errs, ValidationError{
			Field:   "server.listen_addr",
			Message: fmt.Sprintf("must be host:port form, got '%s'", c.Server.ListenAddr),
		})
	}

	if err := validateURLField(c.Server.UpstreamURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "server.upstream_url",
			Message: err.Error(),
		})
	}

	if c.Server.UpstreamTimeoutSecs < 1 || c.Server.UpstreamTimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "server.upstream_timeout_secs",
			Message: fmt.Sprintf("must be 1-600, got %d", c.Server.UpstreamTimeoutSecs),
		})
	}

	if c.Chat.HistoryLimit < 0 || c.Chat.HistoryLimit > 100000 {
		errs = append(errs, ValidationError{
			Field:   "chat.history_limit",
			Message: fmt.Sprintf("must be 0-100000, got %d", c.Chat.HistoryLimit),
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// validateURLField checks that a value is an absolute http or https URL.
func validateURLField(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got '%s'", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("URL is missing a host")
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value
// configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Backend.URL == "" {
		c.Backend.URL = defaults.Backend.URL
	}
	if c.Backend.RequestTimeoutSecs == 0 {
		c.Backend.RequestTimeoutSecs = defaults.Backend.RequestTimeoutSecs
	}
	if c.Backend.HealthTimeoutSecs == 0 {
		c.Backend.HealthTimeoutSecs = defaults.Backend.HealthTimeoutSecs
	}

	if c.Models.Default == "" {
		c.Models.Default = defaults.Models.Default
	}
	if c.Models.Thinking == "" {
		c.Models.Thinking = defaults.Models.Thinking
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = defaults.Server.ListenAddr
	}
	if c.Server.UpstreamURL == "" {
		c.Server.UpstreamURL = defaults.Server.UpstreamURL
	}
	if c.Server.UpstreamTimeoutSecs == 0 {
		c.Server.UpstreamTimeoutSecs = defaults.Server.UpstreamTimeoutSecs
	}
	if c.Server.AllowedOrigins == nil {
		c.Server.AllowedOrigins = append([]string(nil), defaults.Server.AllowedOrigins...)
	}

	if c.Chat.HistoryLimit == 0 {
		c.Chat.HistoryLimit = defaults.Chat.HistoryLimit
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// Normalize cleans up values that load in near-miss forms.
func (c *Config) Normalize() {
	// The client joins paths onto the base URL, so a trailing slash
	// would produce double slashes on the wire.
	c.Backend.URL = strings.TrimRight(c.Backend.URL, "/")
	c.Server.UpstreamURL = strings.TrimRight(c.Server.UpstreamURL, "/")

	c.UI.Theme = strings.ToLower(c.UI.Theme)
}

// =============================================================================
// DURATION HELPERS
// =============================================================================

// RequestTimeout returns the generation timeout as a duration.
func (b BackendConfig) RequestTimeout() time.Duration {
	return time.Duration(b.RequestTimeoutSecs) * time.Second
}

// HealthTimeout returns the health probe timeout as a duration.
func (b BackendConfig) HealthTimeout() time.Duration {
	return time.Duration(b.HealthTimeoutSecs) * time.Second
}

// UpstreamTimeout returns the upstream call timeout as a duration.
func (s ServerConfig) UpstreamTimeout() time.Duration {
	return time.Duration(s.UpstreamTimeoutSecs) * time.Second
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ASIAFEEDS_BACKEND_URL: overrides backend.url
//   - ASIAFEEDS_MODEL: overrides models.default
//   - ASIAFEEDS_THINKING_MODEL: overrides models.thinking
//   - ASIAFEEDS_STREAM: set to "1" or "true" to stream, anything else disables
//   - ASIAFEEDS_LISTEN_ADDR: overrides server.listen_addr
//   - ASIAFEEDS_UPSTREAM_URL: overrides server.upstream_url
//   - OLLAMA_BASE_URL: alias for ASIAFEEDS_UPSTREAM_URL
//   - ASIAFEEDS_ALLOWED_ORIGINS: comma-separated list of origins
//   - ASIAFEEDS_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if backend := os.Getenv("ASIAFEEDS_BACKEND_URL"); backend != "" {
		c.Backend.URL = backend
	}

	if model := os.Getenv("ASIAFEEDS_MODEL"); model != "" {
		c.Models.Default = model
	}

	if model := os.Getenv("ASIAFEEDS_THINKING_MODEL"); model != "" {
		c.Models.Thinking = model
	}

	if stream := os.Getenv("ASIAFEEDS_STREAM"); stream != "" {
		c.Chat.Streaming = stream == "1" || strings.ToLower(stream) == "true"
	}

	if addr := os.Getenv("ASIAFEEDS_LISTEN_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}

	if upstream := os.Getenv("ASIAFEEDS_UPSTREAM_URL"); upstream != "" {
		c.Server.UpstreamURL = upstream
	}

	// OLLAMA_BASE_URL is honored for compatibility with existing
	// Ollama deployments.
	if upstream := os.Getenv("OLLAMA_BASE_URL"); upstream != "" {
		c.Server.UpstreamURL = upstream
	}

	if origins := os.Getenv("ASIAFEEDS_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = splitCommaList(origins)
	}

	if theme := os.Getenv("ASIAFEEDS_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// splitCommaList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitCommaList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "models.default").
func (c *Config) Get(key string) (interface{}, error) {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return nil, errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		// Normalize the part name
		fieldName := normalizeFieldName(part)

		// Find the field
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return nil, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, return the value
		if i == len(parts)-1 {
			return field.Interface(), nil
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return nil, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return nil, fmt.Errorf("invalid key: %s", key)
}

// Set sets a configuration value using dot notation (e.g., "models.default").
func (c *Config) Set(key string, value interface{}) error {
	parts := strings.Split(key, ".")
	if len(parts) == 0 {
		return errors.New("empty key")
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		// Normalize the part name
		fieldName := normalizeFieldName(part)

		// Find the field
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})

		if !field.IsValid() {
			return fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}

		// If this is the last part, set the value
		if i == len(parts)-1 {
			if !field.CanSet() {
				return fmt.Errorf("cannot set field: %s", key)
			}
			return setFieldValue(field, value)
		}

		// Otherwise, navigate into the struct
		if field.Kind() == reflect.Struct {
			v = field
		} else {
			return fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
	}

	return fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	// Remove underscores and capitalize following letters
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
	// Handle string input with type conversion
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
			boolVal := strVal == "1" || strings.ToLower(strVal) == "true" || strings.ToLower(strVal) == "yes"
			field.SetBool(boolVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				field.Set(reflect.ValueOf(splitCommaList(strVal)))
				return nil
			}
		}
	}

	// Direct assignment for matching types
	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}

	// Type conversion for compatible types
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}

	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"backend.url",
		"backend.request_timeout_secs",
		"backend.health_timeout_secs",
		"models.default",
		"models.thinking",
		"server.listen_addr",
		"server.upstream_url",
		"server.upstream_timeout_secs",
		"server.allowed_origins",
		"chat.streaming",
		"chat.history_file",
		"chat.history_limit",
		"ui.theme",
		"ui.markdown",
		"ui.compact_mode",
		"ui.show_stats",
	}
}

// Merge merges another config into this one, overwriting only non-zero values.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Version != "" {
		c.Version = other.Version
	}

	if other.Backend.URL != "" {
		c.Backend.URL = other.Backend.URL
	}
	if other.Backend.RequestTimeoutSecs != 0 {
		c.Backend.RequestTimeoutSecs = other.Backend.RequestTimeoutSecs
	}
	if other.Backend.HealthTimeoutSecs != 0 {
		c.Backend.HealthTimeoutSecs = other.Backend.HealthTimeoutSecs
	}

	if other.Models.Default != "" {
		c.Models.Default = other.Models.Default
	}
	if other.Models.Thinking != "" {
		c.Models.Thinking = other.Models.Thinking
	}

	if other.Server.ListenAddr != "" {
		c.Server.ListenAddr = other.Server.ListenAddr
	}
	if other.Server.UpstreamURL != "" {
		c.Server.UpstreamURL = other.Server.UpstreamURL
	}
	if other.Server.UpstreamTimeoutSecs != 0 {
		c.Server.UpstreamTimeoutSecs = other.Server.UpstreamTimeoutSecs
	}
	if other.Server.AllowedOrigins != nil {
		c.Server.AllowedOrigins = append([]string(nil), other.Server.AllowedOrigins...)
	}

	if other.Chat.Streaming {
		c.Chat.Streaming = true
	}
	if other.Chat.HistoryFile != "" {
		c.Chat.HistoryFile = other.Chat.HistoryFile
	}
	if other.Chat.HistoryLimit != 0 {
		c.Chat.HistoryLimit = other.Chat.HistoryLimit
	}

	if other.UI.Theme != "" {
		c.UI.Theme = other.UI.Theme
	}
	if other.UI.Markdown {
		c.UI.Markdown = true
	}
	if other.UI.CompactMode {
		c.UI.CompactMode = true
	}
	if other.UI.ShowStats {
		c.UI.ShowStats = true
	}
}

// Clone creates a deep copy of the configuration.
// The AllowedOrigins slice is copied so mutating the clone never leaks
// into the original through a shared backing array.
func (c *Config) Clone() *Config {
	clone := *c

	if c.Server.AllowedOrigins != nil {
		clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	}

	return &clone
}

// String returns a string representation of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	// Use sync.Once to ensure initialization happens exactly once
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
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

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
