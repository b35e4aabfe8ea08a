package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"dmhy/internal/config"
	"dmhy/internal/database"
	"dmhy/internal/filter"
	"dmhy/internal/storage"
)

type globalFlags struct {
	config   string
	database string
	logLevel string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and applies flag overrides.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.flags.config))
		if err != nil {
			c.configErr = err
			return
		}
		if db := strings.TrimSpace(c.flags.database); db != "" {
			if cfg.DatabasePath, err = config.ExpandPath(db); err != nil {
				c.configErr = err
				return
			}
		}
		if lvl := strings.TrimSpace(c.flags.logLevel); lvl != "" {
			cfg.LogLevel = lvl
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() *slog.Logger {
	level := "info"
	if c.config != nil {
		level = c.config.LogLevel
	}
	return newLogger(level)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// openStorage creates the data directory when needed and opens the database.
func (c *commandContext) openStorage(ctx context.Context) (*storage.SQLite, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	if cfg.DatabasePath != ":memory:" {
		if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create data directory: %w", err)
			}
		}
	}

	store, err := storage.OpenFile(ctx, cfg.DatabasePath, c.logger())
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DatabasePath, err)
	}
	return store, nil
}

// withDatabase opens the subscription store for the duration of fn.
func (c *commandContext) withDatabase(ctx context.Context, fn func(*database.Database) error) error {
	store, err := c.openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return fn(database.Open(ctx, store, c.logger()))
}

func (c *commandContext) parser() (*filter.Parser, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return filter.NewParser(cfg.ParserOptions()), nil
}

func (c *commandContext) matcher() (*filter.Matcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return filter.NewMatcher(cfg.MatcherOptions()), nil
}
