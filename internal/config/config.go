// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for elysian.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.elysian/config.toml
//   - ~/.elysian/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/elysian-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete elysian configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	Chat    ChatConfig    `toml:"chat" json:"chat"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
	Server  ServerConfig  `toml:"server" json:"server"`
}

// ChatConfig configures the chat endpoint client.
type ChatConfig struct {
	// Endpoint is the full URL requests are POSTed to
	Endpoint string `toml:"endpoint" json:"endpoint"`

	// TimeoutSecs bounds each request. 0 means wait indefinitely.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// KeepDraftOnError restores the submitted text after a failed request
	KeepDraftOnError bool `toml:"keep_draft_on_error" json:"keep_draft_on_error"`
}

// Timeout returns the request timeout; zero means none.
func (c ChatConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// StorageConfig selects where the conversation is persisted.
type StorageConfig struct {
	// Backend is one of: file, sqlite, redis, memory
	Backend string `toml:"backend" json:"backend"`

	// DataDir holds the file and sqlite backends. Default: ~/.elysian/data
	DataDir string `toml:"data_dir" json:"data_dir"`

	// Key is the single key the conversation lives under
	Key string `toml:"key" json:"key"`

	RedisURL    string `toml:"redis_url" json:"redis_url"`
	RedisPrefix string `toml:"redis_prefix" json:"redis_prefix"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	Title        string `toml:"title" json:"title"`
	Theme        string `toml:"theme" json:"theme"` // auto, dark, light
	Markdown     bool   `toml:"markdown" json:"markdown"`
	SmoothScroll bool   `toml:"smooth_scroll" json:"smooth_scroll"`
	ShowHelp     bool   `toml:"show_help" json:"show_help"`
}

// LogConfig controls the log file.
type LogConfig struct {
	// Path of the log file. Default: ~/.elysian/elysian.log
	Path  string `toml:"path" json:"path"`
	Level string `toml:"level" json:"level"`
}

// ServerConfig configures the development chat server.
type ServerConfig struct {
	Addr string `toml:"addr" json:"addr"`

	// RatePerSec and Burst bound requests per client IP. RatePerSec 0 disables.
	RatePerSec float64 `toml:"rate_per_sec" json:"rate_per_sec"`
	Burst      int     `toml:"burst" json:"burst"`

	// AllowedOrigins for CORS. "*" allows any origin.
	AllowedOrigins []string `toml:"allowed_origins" json:"allowed_origins"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a new Config with default values.
func Default() *Config {
	return &Config{
		Version: "1",
		Chat: ChatConfig{
			Endpoint:         "http://localhost:8081/api/chat",
			TimeoutSecs:      0,
			KeepDraftOnError: true,
		},
		Storage: StorageConfig{
			Backend:     "file",
			Key:         "chatMessages",
			RedisPrefix: "elysian:",
		},
		UI: UIConfig{
			Title:        "Elysian Circle",
			Theme:        "auto",
			Markdown:     true,
			SmoothScroll: true,
			ShowHelp:     true,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:           "localhost:8081",
			RatePerSec:     5,
			Burst:          10,
			AllowedOrigins: []string{"*"},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the elysian configuration directory path.
// ELYSIAN_HOME overrides the default ~/.elysian.
func ConfigDir() (string, error) {
	if dir := os.Getenv("ELYSIAN_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".elysian"), nil
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

// ActivePath returns the config file Load would read, or the TOML path if
// neither exists.
func ActivePath() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// LoadDotEnv reads KEY=value pairs from the given files (default ".env")
// into the process environment. Missing files are ignored and existing
// variables are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return &LoadError{Path: strings.Join(existing, ","), Err: err}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg := Default()
	return finish(cfg)
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}
	}

	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	if err := cfg.SetDefaults(); err != nil {
		return nil, &LoadError{Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadError is returned when a config or env file cannot be read or decoded,
// or the default locations cannot be resolved.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("failed to load config: %v", e.Err)
	}
	return fmt.Sprintf("failed to load config from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
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

// SetDefaults fills in empty values and expands derived paths.
func (c *Config) SetDefaults() error {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Chat.Endpoint == "" {
		c.Chat.Endpoint = defaults.Chat.Endpoint
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.Storage.Key == "" {
		c.Storage.Key = defaults.Storage.Key
	}
	if c.Storage.RedisPrefix == "" {
		c.Storage.RedisPrefix = defaults.Storage.RedisPrefix
	}
	if c.UI.Title == "" {
		c.UI.Title = defaults.UI.Title
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}

	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = filepath.Join(dir, "data")
	}
	if c.Log.Path == "" {
		c.Log.Path = filepath.Join(dir, "elysian.log")
	}
	c.Storage.DataDir = expandHome(c.Storage.DataDir)
	c.Log.Path = expandHome(c.Log.Path)
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
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
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# elysian configuration file\n")
	b.WriteString("# Generated by elysian - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveTo writes cfg in the format implied by the file extension.
func SaveTo(cfg *Config, path string) error {
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return SaveJSON(cfg, path)
	}
	return SaveTOML(cfg, path)
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

var (
	validBackends  = map[string]bool{"file": true, "sqlite": true, "redis": true, "memory": true}
	validThemes    = map[string]bool{"auto": true, "dark": true, "light": true}
	validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "warning": true, "error": true}
)

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	u, err := url.Parse(c.Chat.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "chat.endpoint",
			Message: fmt.Sprintf("invalid URL '%s', must be an absolute http(s) URL", c.Chat.Endpoint),
		})
	}
	if c.Chat.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.timeout_secs",
			Message: "must be 0 (no timeout) or positive",
		})
	}

	backend := strings.ToLower(c.Storage.Backend)
	if !validBackends[backend] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite, redis, memory", c.Storage.Backend),
		})
	}
	if backend == "redis" && c.Storage.RedisURL == "" {
		errs = append(errs, ValidationError{
			Field:   "storage.redis_url",
			Message: "required when storage.backend is redis",
		})
	}
	if strings.TrimSpace(c.Storage.Key) == "" {
		errs = append(errs, ValidationError{Field: "storage.key", Message: "must not be empty"})
	}

	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme),
		})
	}
	if !validLogLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if c.Server.RatePerSec < 0 {
		errs = append(errs, ValidationError{Field: "server.rate_per_sec", Message: "must not be negative"})
	}
	if c.Server.RatePerSec > 0 && c.Server.Burst < 1 {
		errs = append(errs, ValidationError{Field: "server.burst", Message: "must be at least 1 when rate limiting is enabled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
//   - ELYSIAN_ENDPOINT: overrides chat.endpoint
//   - ELYSIAN_TIMEOUT: overrides chat.timeout_secs
//   - ELYSIAN_STORAGE: overrides storage.backend
//   - ELYSIAN_DATA_DIR: overrides storage.data_dir
//   - ELYSIAN_STORAGE_KEY: overrides storage.key
//   - ELYSIAN_REDIS_URL: overrides storage.redis_url
//   - ELYSIAN_LOG_LEVEL: overrides log.level
//   - ELYSIAN_LOG_FILE: overrides log.path
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ELYSIAN_ENDPOINT"); v != "" {
		c.Chat.Endpoint = v
	}
	if v := os.Getenv("ELYSIAN_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			c.Chat.TimeoutSecs = secs
		}
	}
	if v := os.Getenv("ELYSIAN_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("ELYSIAN_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("ELYSIAN_STORAGE_KEY"); v != "" {
		c.Storage.Key = v
	}
	if v := os.Getenv("ELYSIAN_REDIS_URL"); v != "" {
		c.Storage.RedisURL = v
	}
	if v := os.Getenv("ELYSIAN_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ELYSIAN_LOG_FILE"); v != "" {
		c.Log.Path = v
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "chat.endpoint").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.markdown").
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
	if strings.TrimSpace(key) == "" {
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
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("'%s' is a section, not a value", key)
			}
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
			boolVal, err := strconv.ParseBool(strings.ToLower(strVal))
			if err != nil {
				switch strings.ToLower(strVal) {
				case "yes", "on":
					boolVal = true
				case "no", "off":
					boolVal = false
				default:
					return fmt.Errorf("invalid boolean value: %q", strVal)
				}
			}
			field.SetBool(boolVal)
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, s := range strings.Split(strVal, ",") {
					if s = strings.TrimSpace(s); s != "" {
						items = append(items, s)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
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

// GetAllKeys returns all configuration keys in dot notation, sorted.
func GetAllKeys() []string {
	var keys []string
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		section := t.Field(i)
		sectionName := strings.Split(section.Tag.Get("toml"), ",")[0]
		if section.Type.Kind() != reflect.Struct {
			keys = append(keys, sectionName)
			continue
		}
		for j := 0; j < section.Type.NumField(); j++ {
			name := strings.Split(section.Type.Field(j).Tag.Get("toml"), ",")[0]
			keys = append(keys, sectionName+"."+name)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &clone
}

// String returns a string representation of the config for debugging.
// SECURITY: Redis credentials are redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Storage.RedisURL != "" {
		if u, err := url.Parse(safe.Storage.RedisURL); err == nil && u.User != nil {
			u.User = url.User("[REDACTED]")
			safe.Storage.RedisURL = u.String()
		}
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
