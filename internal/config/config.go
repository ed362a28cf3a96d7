// Package config resolves flashdeck settings from defaults, an optional YAML
// file, environment variables and command line flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix prefixes every environment variable read by Load.
	EnvPrefix = "FLASHDECK_"
	// LegacyDataDirEnv is honoured when FLASHDECK_DATA_DIR is unset.
	LegacyDataDirEnv = "PROJECTTRACKER_DATA_DIR"
)

// Config holds all application configuration.
type Config struct {
	DataDir  string        `koanf:"data-dir" validate:"required"`
	File     string        `koanf:"file" validate:"required,excludesall=/\\"`
	LogLevel string        `koanf:"log-level" validate:"required,oneof=debug info warn error"`
	Store    StoreConfig   `koanf:"store"`
	History  HistoryConfig `koanf:"history"`
	Backup   BackupConfig  `koanf:"backup"`
}

// StoreConfig tunes the atomic deck writer.
type StoreConfig struct {
	Retries    int           `koanf:"retries" validate:"min=1,max=50"`
	RetryDelay time.Duration `koanf:"retry-delay" validate:"min=0"`
}

// HistoryConfig controls the SQLite review log.
type HistoryConfig struct {
	Enabled bool   `koanf:"enabled"`
	File    string `koanf:"file" validate:"required_if=Enabled true"`
}

// BackupConfig controls git snapshots of the deck file.
type BackupConfig struct {
	Git bool `koanf:"git"`
}

// DeckPath returns the location of the deck file.
func (c Config) DeckPath() string {
	return filepath.Join(c.DataDir, c.File)
}

// HistoryPath returns the location of the review log database.
func (c Config) HistoryPath() string {
	if filepath.IsAbs(c.History.File) {
		return c.History.File
	}
	return filepath.Join(c.DataDir, c.History.File)
}

// SourcesDir is where git card sources are checked out.
func (c Config) SourcesDir() string {
	return filepath.Join(c.DataDir, "sources")
}

// Flags returns the global flag set. Parsing stops at the first
// positional argument so subcommands can define their own flags.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetInterspersed(false)
	fs.String("config", "", "Path to a YAML config file")
	fs.String("data-dir", ".", "Directory holding the deck file")
	fs.String("file", "anki.json", "Deck file name inside the data directory")
	fs.String("log-level", "info", "Log level: debug, info, warn or error")
	fs.Int("store.retries", 5, "Attempts to replace the deck file before giving up")
	fs.Duration("store.retry-delay", 200*time.Millisecond, "Pause between replace attempts")
	fs.Bool("history.enabled", false, "Record reviews in a SQLite history database")
	fs.String("history.file", "history.db", "History database, relative to the data directory")
	fs.Bool("backup.git", false, "Commit each deck write to a git repository in the data directory")
	return fs
}

// Load resolves the configuration from a parsed flag set and the process
// environment, validates it and creates the data directory.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, _ := fs.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if v := os.Getenv(LegacyDataDirEnv); v != "" && !k.Exists("data-dir") {
		if err := k.Set("data-dir", v); err != nil {
			return nil, fmt.Errorf("failed to apply %s: %w", LegacyDataDirEnv, err)
		}
	}

	// Explicit flags override everything; defaults only fill gaps.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, fmt.Errorf("failed to load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory %s: %w", cfg.DataDir, err)
	}
	cfg.DataDir = dir
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", cfg.DataDir, err)
	}
	return &cfg, nil
}

// envKey maps FLASHDECK_STORE__RETRY_DELAY to store.retry-delay.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ReplaceAll(s, "_", "-")
}

// ErrInvalid wraps every validation failure returned by Validate.
var ErrInvalid = errors.New("invalid configuration")

// Validate checks the configuration against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
