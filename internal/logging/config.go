package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "MOLTSPEAK_LOG_LEVEL"
	EnvLogTimestamp = "MOLTSPEAK_LOG_TIMESTAMP"
	EnvLogNoColor   = "MOLTSPEAK_LOG_NOCOLOR"
	EnvLogJSON      = "MOLTSPEAK_LOG_JSON"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Options shape a logger built by New.
type Options struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
	// JSON selects structured output instead of the console writer.
	JSON bool
	Out  io.Writer
}

var configureOnce sync.Once

func ConfigureRuntime() {
	Configure(ProfileRuntime)
}

func ConfigureTests() {
	Configure(ProfileTest)
}

// Configure sets the process-wide minimum level once per process.
func Configure(profile Profile) {
	configureOnce.Do(func() {
		opts := DefaultOptions(profile)
		zerolog.SetGlobalLevel(opts.Level)
		zerolog.TimeFieldFormat = time.RFC3339
	})
}

// DefaultOptions returns the profile defaults with environment overrides
// applied.
func DefaultOptions(profile Profile) Options {
	opts := Options{Out: os.Stderr}
	switch profile {
	case ProfileTest:
		opts.Level = zerolog.DebugLevel
		opts.Timestamp = false
		opts.NoColor = true
	default:
		opts.Level = zerolog.InfoLevel
		opts.Timestamp = true
	}
	applyEnvOverrides(&opts)
	return opts
}

// New builds a logger from opts.
func New(opts Options) zerolog.Logger {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: out, NoColor: opts.NoColor, TimeFormat: time.RFC3339}
	}
	ctx := zerolog.New(out).Level(opts.Level).With()
	if opts.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

// ParseLevel accepts the level names used in configuration files.
func ParseLevel(raw string) (zerolog.Level, bool) {
	return parseLevel(raw)
}

func applyEnvOverrides(opts *Options) {
	if lvl, ok := parseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		opts.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		opts.JSON = v
	}
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
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
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
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
