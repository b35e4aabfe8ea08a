// Package config handles application configuration from an optional TOML file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"dmhy/internal/filter"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath string `toml:"database_path" validate:"required"`
	LogLevel     string `toml:"log_level" validate:"oneof=debug info warn error"`

	Delimiter      string `toml:"delimiter" validate:"required"`
	NegationMarker string `toml:"negation_marker"`
	QualityMarker  string `toml:"quality_marker"`
	StripQuality   bool   `toml:"strip_quality"`

	CaseSensitive bool `toml:"case_sensitive"`
	FoldWidth     bool `toml:"fold_width"`

	FeedURL       string   `toml:"feed_url" validate:"required,url"`
	CheckInterval Duration `toml:"check_interval" validate:"min=60000000000"`
	UserAgent     string   `toml:"user_agent"`
}

// Duration is a time.Duration written as "30m" in TOML.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		DatabasePath:   "~/.local/share/dmhy/dmhy.db",
		LogLevel:       "info",
		Delimiter:      ",",
		NegationMarker: "!",
		QualityMarker:  "~",
		FoldWidth:      true,
		FeedURL:        "https://share.dmhy.org/topics/rss/rss.xml",
		CheckInterval:  Duration(30 * time.Minute),
		UserAgent:      "dmhy/1.0",
	}
}

const defaultConfigPath = "~/.config/dmhy/config.toml"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load builds the configuration from defaults, the TOML file at path and the
// environment, in that order. An empty path falls back to DMHY_CONFIG and then
// to the default location; only an explicitly named file must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, required, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.readFile(resolved, required); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.DatabasePath != ":memory:" {
		if cfg.DatabasePath, err = ExpandPath(cfg.DatabasePath); err != nil {
			return nil, err
		}
	}
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func resolvePath(path string) (string, bool, error) {
	required := true
	if path == "" {
		path = os.Getenv("DMHY_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
		required = false
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return "", false, err
	}
	return expanded, required, nil
}

func (c *Config) readFile(path string, required bool) error {
	f, err := os.Open(path) //nolint:gosec // config path is chosen by the user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewDecoder(f).DisallowUnknownFields().Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	for key, dst := range map[string]*string{
		"DMHY_DATABASE_PATH": &c.DatabasePath,
		"DMHY_LOG_LEVEL":     &c.LogLevel,
		"DMHY_DELIMITER":     &c.Delimiter,
		"DMHY_FEED_URL":      &c.FeedURL,
	} {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	for key, dst := range map[string]*bool{
		"DMHY_CASE_SENSITIVE": &c.CaseSensitive,
		"DMHY_FOLD_WIDTH":     &c.FoldWidth,
		"DMHY_STRIP_QUALITY":  &c.StripQuality,
	} {
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, raw, err)
		}
		*dst = v
	}

	if raw := os.Getenv("DMHY_CHECK_INTERVAL"); raw != "" {
		v, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid DMHY_CHECK_INTERVAL %q: %w", raw, err)
		}
		c.CheckInterval = Duration(v)
	}
	return nil
}

// Interval returns the feed check interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.CheckInterval)
}

// ParserOptions returns the subscription grammar settings.
func (c *Config) ParserOptions() filter.ParserOptions {
	return filter.ParserOptions{
		Delimiter:      c.Delimiter,
		NegationMarker: c.NegationMarker,
		QualityMarker:  c.QualityMarker,
		StripQuality:   c.StripQuality,
	}
}

// MatcherOptions returns the title matching settings.
func (c *Config) MatcherOptions() filter.MatcherOptions {
	return filter.MatcherOptions{
		CaseSensitive: c.CaseSensitive,
		FoldWidth:     c.FoldWidth,
		QualityMarker: c.QualityMarker,
	}
}

// ExpandPath expands a leading "~" to the home directory and makes the path
// absolute.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", path, err)
	}
	return abs, nil
}
