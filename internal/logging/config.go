// Package logging configures zerolog for the pqasn binaries.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	EnvLogLevel     = "PQASN_LOG_LEVEL"
	EnvLogFormat    = "PQASN_LOG_FORMAT"
	EnvLogTimestamp = "PQASN_LOG_TIMESTAMP"
)

type Profile int

const (
	// ProfileCLI logs warnings and above to stderr in console form.
	ProfileCLI Profile = iota
	// ProfileDaemon logs info and above as timestamped JSON.
	ProfileDaemon
	// ProfileTest logs everything in console form without timestamps.
	ProfileTest
)

type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

type Config struct {
	Level     zerolog.Level
	Format    Format
	Timestamp bool
}

var configureOnce sync.Once

// Configure installs the process-wide logger for app once and returns it.
// Later calls return the logger installed by the first.
func Configure(profile Profile, app string) zerolog.Logger {
	configureOnce.Do(func() {
		cfg := DefaultConfig(profile)
		ApplyEnv(&cfg, os.Getenv)
		zerolog.SetGlobalLevel(cfg.Level)
		zerolog.TimeFieldFormat = time.RFC3339
		log.Logger = New(os.Stderr, cfg, app)
	})
	return log.Logger
}

func DefaultConfig(profile Profile) Config {
	switch profile {
	case ProfileDaemon:
		return Config{Level: zerolog.InfoLevel, Format: FormatJSON, Timestamp: true}
	case ProfileTest:
		return Config{Level: zerolog.TraceLevel, Format: FormatConsole}
	default:
		return Config{Level: zerolog.WarnLevel, Format: FormatConsole}
	}
}

// ApplyEnv overlays the PQASN_LOG_* variables; unset or unparsable values
// leave cfg unchanged.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if lvl, ok := parseLevel(getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if f, ok := parseFormat(getenv(EnvLogFormat)); ok {
		cfg.Format = f
	}
	if v, ok := parseBool(getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
}

// New builds a logger writing to w. The level is applied to the logger
// itself so it does not depend on the global level.
func New(w io.Writer, cfg Config, app string) zerolog.Logger {
	out := w
	if cfg.Format == FormatConsole {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	ctx := zerolog.New(out).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if app != "" {
		ctx = ctx.Str("app", app)
	}
	return ctx.Logger()
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.NoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.NoLevel, false
	}
}

func parseFormat(raw string) (Format, bool) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case FormatConsole, "text":
		return FormatConsole, true
	case FormatJSON:
		return FormatJSON, true
	default:
		return "", false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
