// Package config loads studio configuration from defaults, an optional
// YAML or JSON file, a .env file and the environment, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	yaml "go.yaml.in/yaml/v2"

	"github.com/vango-go/vai-studio/internal/ratelimit"
	"github.com/vango-go/vai-studio/pkg/core/live"
)

// Config holds all studio configuration.
type Config struct {
	// Gemini API key. Read from GEMINI_API_KEY, GOOGLE_API_KEY or API_KEY.
	APIKey string `json:"api_key" yaml:"api_key"`

	// HTTP server
	Addr            string        `json:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`

	// Per-client limits on the generation routes of the HTTP API.
	RateLimit ratelimit.Config `json:"rate_limit" yaml:"rate_limit"`

	// Logging: debug, info, warn or error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Local key-value store file. Default: <user config dir>/vai-studio/store.json.
	StorePath string `json:"store_path" yaml:"store_path"`

	// Profile backends. Supabase wins when both are set.
	Supabase    SupabaseConfig `json:"supabase" yaml:"supabase"`
	DatabaseURL string         `json:"database_url" yaml:"database_url"`

	Live  live.SessionConfig `json:"live" yaml:"live"`
	Video VideoConfig        `json:"video" yaml:"video"`

	MetricsNamespace string `json:"metrics_namespace" yaml:"metrics_namespace"`
}

// SupabaseConfig locates the hosted profile table.
type SupabaseConfig struct {
	URL string `json:"url" yaml:"url"`
	Key string `json:"key" yaml:"key"`
}

// VideoConfig tunes video generation.
type VideoConfig struct {
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval"`
	Resolution   string        `json:"resolution" yaml:"resolution"`
	AspectRatio  string        `json:"aspect_ratio" yaml:"aspect_ratio"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:             ":8080",
		ShutdownTimeout:  10 * time.Second,
		RateLimit: ratelimit.Config{
			RPS:           1,
			Burst:         10,
			MaxConcurrent: 2,
		},
		LogLevel:         "info",
		Live:             live.DefaultSessionConfig(),
		MetricsNamespace: "studio",
		Video: VideoConfig{
			PollInterval: 10 * time.Second,
			Resolution:   "1080p",
			AspectRatio:  "16:9",
		},
	}
}

// Load builds the configuration. path may be empty, in which case
// STUDIO_CONFIG is consulted; a missing path means defaults only. envFile is
// loaded with godotenv if it exists and never overrides the environment.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("STUDIO_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %q: %w", envFile, err)
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse json config: %w", err)
		}
		return nil
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse yaml config: %w", err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, cfg); err == nil {
		return nil
	}
	if err := json.Unmarshal(data, cfg); err == nil {
		return nil
	}
	return fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
}

func applyEnv(cfg *Config) error {
	for _, key := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY", "API_KEY"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			cfg.APIKey = v
			break
		}
	}
	setString(&cfg.Addr, "STUDIO_ADDR")
	setString(&cfg.LogLevel, "STUDIO_LOG_LEVEL")
	setString(&cfg.StorePath, "STUDIO_STORE_PATH")
	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.Key, "SUPABASE_KEY")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.Live.Model, "STUDIO_LIVE_MODEL")
	setString(&cfg.Live.Voice, "STUDIO_LIVE_VOICE")

	if v := strings.TrimSpace(os.Getenv("STUDIO_VIDEO_POLL_INTERVAL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STUDIO_VIDEO_POLL_INTERVAL: %w", err)
		}
		cfg.Video.PollInterval = d
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Requirement names a capability a command needs.
type Requirement int

const (
	NeedAPIKey Requirement = iota
	NeedProfileStore
	NeedDatabase
)

// Validate reports the first missing setting among reqs.
func (c *Config) Validate(reqs ...Requirement) error {
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	for _, r := range reqs {
		switch r {
		case NeedAPIKey:
			if c.APIKey == "" {
				return errors.New("config: API key is not set (GEMINI_API_KEY)")
			}
		case NeedProfileStore:
			if !c.HasSupabase() && c.DatabaseURL == "" {
				return errors.New("config: no profile store configured (SUPABASE_URL/SUPABASE_KEY or DATABASE_URL)")
			}
		case NeedDatabase:
			if c.DatabaseURL == "" {
				return errors.New("config: DATABASE_URL is not set")
			}
		}
	}
	return nil
}

// HasSupabase reports whether both Supabase settings are present.
func (c *Config) HasSupabase() bool {
	return c.Supabase.URL != "" && c.Supabase.Key != ""
}

// ResolveStorePath returns StorePath or the default location.
func (c *Config) ResolveStorePath() (string, error) {
	if c.StorePath != "" {
		return c.StorePath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "vai-studio", "store.json"), nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log level %q", s)
	}
}
