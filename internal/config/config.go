/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	applog "ticketforge/internal/log"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Backend       BackendConfig `yaml:"backend"`
	Export        ExportConfig  `yaml:"export"`
	Library       LibraryConfig `yaml:"library"`
	Server        ServerConfig  `yaml:"server"`
	Logging       LoggingConfig `yaml:"logging"`
}

type GeneralConfig struct {
	Theme    string `yaml:"theme"` // "system" | "light" | "dark"
	Autosave bool   `yaml:"autosave"`
}

type BackendConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
	// Token is not stored on disk; it lives in the OS keychain.
}

type ExportConfig struct {
	DPI        float64 `yaml:"dpi"`
	YieldEvery int     `yaml:"yield_every"`
	TicketGap  float64 `yaml:"ticket_gap"` // default for `layout` and new templates
	CutLines   bool    `yaml:"cut_lines"`
	Preset     string  `yaml:"preset"` // "tickets" | "print"
	OutDir     string  `yaml:"out_dir"`
}

type LibraryConfig struct {
	Path string `yaml:"path"` // sqlite file; empty means <config dir>/library.sqlite
}

// ServerConfig configures the reference template store server. The auth
// secret is read from the environment only.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	DBURL     string `yaml:"db_url"`
	DevTokens bool   `yaml:"dev_tokens"` // unauthenticated POST /api/auth/token
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", Autosave: true},
		Backend:       BackendConfig{BaseURL: "http://localhost:3000", TimeoutMs: 10000},
		Export:        ExportConfig{DPI: 300, YieldEvery: 8, TicketGap: 2, CutLines: true, Preset: "tickets", OutDir: "."},
		Server:        ServerConfig{Addr: ":8080"},
		Logging:       LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvConfigDir        = "TF_CONFIG_DIR"
	EnvBackendURL       = "TF_BACKEND_URL"
	EnvBackendTimeoutMs = "TF_BACKEND_TIMEOUT_MS"
	EnvBackendTLSInsec  = "TF_TLS_INSECURE"
	EnvExportDPI        = "TF_EXPORT_DPI"
	EnvExportYield      = "TF_EXPORT_YIELD_EVERY"
	EnvLibraryPath      = "TF_LIBRARY"
	EnvServerAddr       = "TF_SERVER_ADDR"
	EnvServerDBURL      = "TF_PG_DSN"
	EnvAuthSecret       = "TF_AUTH_SECRET"
	EnvLogLevel         = "TF_LOG_LEVEL"
	EnvLogFormat        = "TF_LOG_FORMAT"
	EnvLogSource        = "TF_LOG_SOURCE"
	EnvLogFile          = "TF_LOG_FILE"
)

// Dir returns the per-user config directory.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "ticketforge"), nil
}

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend token from the token store (returned separately).
func Load() (AppConfig, string, error) {
	path, err := ConfigPath()
	if err != nil {
		return Defaults(), "", err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return cfg, "", err
	}
	tok, _ := LoadToken()
	return cfg, tok, nil
}

// LoadFile is Load for an explicit path without touching the token store.
// A missing file yields defaults; a malformed one is logged and ignored.
func LoadFile(path string) (AppConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		fileCfg := Defaults()
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			applog.WithComponent("config").Warn("ignoring malformed config", "path", path, "err", err)
		} else {
			mergeInto(&cfg, &fileCfg)
		}
	case !errors.Is(err, os.ErrNotExist):
		return cfg, fmt.Errorf("read config: %w", err)
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// Save writes the user config YAML and persists the token into the token store (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := SaveFile(path, cfg); err != nil {
		return err
	}
	if token != "" {
		return SaveToken(token)
	}
	return nil
}

// SaveFile writes cfg as YAML to path.
func SaveFile(path string, cfg AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.Autosave = src.General.Autosave
	if src.Backend.BaseURL != "" {
		dst.Backend.BaseURL = src.Backend.BaseURL
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
	}
	dst.Backend.TLSInsecure = src.Backend.TLSInsecure
	// export
	if src.Export.DPI > 0 {
		dst.Export.DPI = src.Export.DPI
	}
	if src.Export.YieldEvery > 0 {
		dst.Export.YieldEvery = src.Export.YieldEvery
	}
	if src.Export.TicketGap > 0 {
		dst.Export.TicketGap = src.Export.TicketGap
	}
	dst.Export.CutLines = src.Export.CutLines
	if p := strings.ToLower(strings.TrimSpace(src.Export.Preset)); p != "" {
		dst.Export.Preset = p
	}
	if strings.TrimSpace(src.Export.OutDir) != "" {
		dst.Export.OutDir = strings.TrimSpace(src.Export.OutDir)
	}
	if strings.TrimSpace(src.Library.Path) != "" {
		dst.Library.Path = strings.TrimSpace(src.Library.Path)
	}
	if src.Server.Addr != "" {
		dst.Server.Addr = src.Server.Addr
	}
	if src.Server.DBURL != "" {
		dst.Server.DBURL = src.Server.DBURL
	}
	if src.Server.DevTokens {
		dst.Server.DevTokens = true
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func envBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

func applyEnvOverrides(cfg *AppConfig) {
	env := func(k string) string { return strings.TrimSpace(os.Getenv(k)) }
	if v := env(EnvBackendURL); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := env(EnvBackendTimeoutMs); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := env(EnvBackendTLSInsec); v != "" {
		cfg.Backend.TLSInsecure = envBool(v)
	}
	if v := env(EnvExportDPI); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Export.DPI = f
		}
	}
	if v := env(EnvExportYield); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Export.YieldEvery = n
		}
	}
	if v := env(EnvLibraryPath); v != "" {
		cfg.Library.Path = v
	}
	if v := env(EnvServerAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := env(EnvServerDBURL); v != "" {
		cfg.Server.DBURL = v
	}
	// logging overrides
	if v := env(EnvLogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := env(EnvLogFormat); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := env(EnvLogSource); v != "" {
		cfg.Logging.Source = envBool(v)
	}
	if v := env(EnvLogFile); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"backend.base_url":     EnvBackendURL,
	"backend.timeout_ms":   EnvBackendTimeoutMs,
	"backend.tls_insecure": EnvBackendTLSInsec,
	"export.dpi":           EnvExportDPI,
	"export.yield_every":   EnvExportYield,
	"library.path":         EnvLibraryPath,
	"server.addr":          EnvServerAddr,
	"server.db_url":        EnvServerDBURL,
	"logging.level":        EnvLogLevel,
	"logging.format":       EnvLogFormat,
	"logging.source":       EnvLogSource,
	"logging.file":         EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}

// Timeout returns the backend request timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutMs <= 0 {
		return time.Duration(Defaults().Backend.TimeoutMs) * time.Millisecond
	}
	return time.Duration(b.TimeoutMs) * time.Millisecond
}

// LogOptions maps the logging section onto logger options.
func (c AppConfig) LogOptions() applog.Options {
	return applog.Options{
		Level:     c.Logging.Level,
		Format:    c.Logging.Format,
		AddSource: c.Logging.Source,
		File:      c.Logging.File,
	}
}

// LibraryPath returns the sqlite library file, defaulting into the config dir.
func (c AppConfig) LibraryPath() (string, error) {
	if c.Library.Path != "" {
		return c.Library.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "library.sqlite"), nil
}

// AuthSecret returns the server token secret from the environment.
func AuthSecret() string { return os.Getenv(EnvAuthSecret) }
