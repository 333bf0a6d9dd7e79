// Package config loads the engine configuration from a TOML file with
// environment overrides. Every setting has a default so the binary runs with
// no config file at all.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Storage medium names.
const (
	MediumFile   = "file"
	MediumSQLite = "sqlite"
)

// Duration wraps time.Duration so TOML can express it as a string like "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config is the full engine configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	HTTP    HTTPConfig    `toml:"http"`
	AI      AIConfig      `toml:"ai"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig configures the document store.
type StorageConfig struct {
	// Medium selects the persistence backend: "file" or "sqlite".
	Medium string `toml:"medium"`

	// Path is the document file (file medium) or database file (sqlite).
	Path string `toml:"path"`

	// KeyFile holds the API-key sealing key.
	KeyFile string `toml:"key_file"`

	// WatchFile enables reloading when the document file changes on disk.
	// Only meaningful for the file medium.
	WatchFile bool `toml:"watch_file"`

	// WatchDebounce is how long writes must settle before a reload.
	WatchDebounce Duration `toml:"watch_debounce"`
}

// HTTPConfig configures the REST server.
type HTTPConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// AIConfig configures the provider gateway.
type AIConfig struct {
	// Cooldown is the minimum gap between calls to the same provider.
	Cooldown Duration `toml:"cooldown"`

	// RequestTimeout bounds a single upstream call.
	RequestTimeout Duration `toml:"request_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Medium:        MediumFile,
			Path:          "data/edudash.json",
			KeyFile:       "data/seal.key",
			WatchFile:     true,
			WatchDebounce: Duration{500 * time.Millisecond},
		},
		HTTP: HTTPConfig{
			Addr:           "127.0.0.1:8732",
			AllowedOrigins: []string{"http://localhost:5173", "http://127.0.0.1:5173"},
		},
		AI: AIConfig{
			Cooldown:       Duration{5 * time.Second},
			RequestTimeout: Duration{30 * time.Second},
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the config file at path (optional) and applies EDUDASH_*
// environment overrides on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config file %s not found", path)
			}
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("EDUDASH_STORAGE_MEDIUM"); v != "" {
		cfg.Storage.Medium = v
	}
	if v := os.Getenv("EDUDASH_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("EDUDASH_STORAGE_KEY_FILE"); v != "" {
		cfg.Storage.KeyFile = v
	}
	if v := os.Getenv("EDUDASH_STORAGE_WATCH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.WatchFile = b
		}
	}
	if v := os.Getenv("EDUDASH_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("EDUDASH_HTTP_ALLOWED_ORIGINS"); v != "" {
		parts := strings.Split(v, ",")
		origins := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				origins = append(origins, p)
			}
		}
		cfg.HTTP.AllowedOrigins = origins
	}
	if v := os.Getenv("EDUDASH_AI_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.AI.Cooldown = Duration{d}
		}
	}
	if v := os.Getenv("EDUDASH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Validate checks the configuration for values the engine cannot run with.
func (c Config) Validate() error {
	if c.Storage.Medium != MediumFile && c.Storage.Medium != MediumSQLite {
		return fmt.Errorf("storage.medium must be %q or %q, got %q", MediumFile, MediumSQLite, c.Storage.Medium)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.AI.Cooldown.Duration < 0 {
		return fmt.Errorf("ai.cooldown cannot be negative")
	}
	return nil
}
