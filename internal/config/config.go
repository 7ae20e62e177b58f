// Package config reads service settings from the environment, optionally
// seeded from .env files.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvAddr          = "GRIDASTAR_ADDR"
	EnvMaxGrid       = "GRIDASTAR_MAX_GRID"
	EnvWorkers       = "GRIDASTAR_WORKERS"
	EnvMaxExpansions = "GRIDASTAR_MAX_EXPANSIONS"
	EnvStepInterval  = "GRIDASTAR_STEP_INTERVAL"
	EnvLogLevel      = "GRIDASTAR_LOG_LEVEL"
	EnvLogFormat     = "GRIDASTAR_LOG_FORMAT"
)

type Config struct {
	Addr          string
	MaxGridSize   int
	Workers       int
	MaxExpansions int // 0 = unlimited
	StepInterval  time.Duration
	LogLevel      slog.Level
	LogFormat     string // "text" or "json"
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Addr:         ":8080",
		MaxGridSize:  512,
		Workers:      runtime.NumCPU(),
		StepInterval: 50 * time.Millisecond,
		LogLevel:     slog.LevelInfo,
		LogFormat:    "text",
	}
}

// Load applies the given .env files (".env" if none are named) to the
// process environment and then reads the configuration from it. Missing
// .env files are not an error; variables already set win over file values.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading env file: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, falling back to Default for unset
// variables.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if v, ok := lookup(EnvAddr); ok && v != "" {
		cfg.Addr = v
	}
	if err := intVar(lookup, EnvMaxGrid, 1, &cfg.MaxGridSize); err != nil {
		return Config{}, err
	}
	if err := intVar(lookup, EnvWorkers, 1, &cfg.Workers); err != nil {
		return Config{}, err
	}
	if err := intVar(lookup, EnvMaxExpansions, 0, &cfg.MaxExpansions); err != nil {
		return Config{}, err
	}
	if v, ok := lookup(EnvStepInterval); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Config{}, fmt.Errorf("config: %s=%q is not a positive duration", EnvStepInterval, v)
		}
		cfg.StepInterval = d
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", EnvLogLevel, err)
		}
	}
	if v, ok := lookup(EnvLogFormat); ok && v != "" {
		switch f := strings.ToLower(v); f {
		case "text", "json":
			cfg.LogFormat = f
		default:
			return Config{}, fmt.Errorf("config: %s=%q, want text or json", EnvLogFormat, v)
		}
	}
	return cfg, nil
}

func intVar(lookup func(string) (string, bool), name string, minValue int, dst *int) error {
	v, ok := lookup(name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < minValue {
		return fmt.Errorf("config: %s=%q, want an integer >= %d", name, v, minValue)
	}
	*dst = n
	return nil
}

// Logger builds the slog logger described by the config.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
