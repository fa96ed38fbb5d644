package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"moltspeak/internal/message"
)

// Environment variables read by Load.
const (
	EnvHome               = "MOLTSPEAK_HOME"
	EnvDirectoryURL       = "MOLTSPEAK_DIRECTORY_URL"
	EnvDirectoryAddr      = "MOLTSPEAK_DIRECTORY_ADDR"
	EnvMaxSessions        = "MOLTSPEAK_MAX_SESSIONS"
	EnvSessionTTL         = "MOLTSPEAK_SESSION_TTL"
	EnvMaxMessageAge      = "MOLTSPEAK_MAX_MESSAGE_AGE"
	EnvInsecureTestCrypto = "MOLTSPEAK_INSECURE_TEST_CRYPTO"
)

// Config is the resolved runtime configuration.
type Config struct {
	Home      string
	Agent     AgentConfig
	Directory DirectoryConfig
	Sessions  SessionConfig
	Messages  MessageConfig
	Log       LogConfig
	Crypto    CryptoConfig
}

type AgentConfig struct {
	Name string
	Org  string
}

type DirectoryConfig struct {
	URL     string        // client base URL; empty disables directory lookups
	Addr    string        // listen address for moltdir
	Timeout time.Duration // per-request client timeout
}

type SessionConfig struct {
	Max int
	TTL time.Duration
}

type MessageConfig struct {
	MaxAge  time.Duration
	MaxSize int
}

type LogConfig struct {
	Level string
	JSON  bool
}

// CryptoConfig selects the crypto provider. InsecureTestCrypto swaps in a
// provider that offers no security at all and exists for tests only.
type CryptoConfig struct {
	InsecureTestCrypto bool
}

// fileConfig mirrors the on-disk layout. Durations are Go duration strings.
type fileConfig struct {
	Home  string `toml:"home" yaml:"home"`
	Agent struct {
		Name string `toml:"name" yaml:"name"`
		Org  string `toml:"org" yaml:"org"`
	} `toml:"agent" yaml:"agent"`
	Directory struct {
		URL     string `toml:"url" yaml:"url"`
		Addr    string `toml:"addr" yaml:"addr"`
		Timeout string `toml:"timeout" yaml:"timeout"`
	} `toml:"directory" yaml:"directory"`
	Sessions struct {
		Max int    `toml:"max" yaml:"max"`
		TTL string `toml:"ttl" yaml:"ttl"`
	} `toml:"sessions" yaml:"sessions"`
	Messages struct {
		MaxAge  string `toml:"max_age" yaml:"max_age"`
		MaxSize int    `toml:"max_size" yaml:"max_size"`
	} `toml:"messages" yaml:"messages"`
	Log struct {
		Level string `toml:"level" yaml:"level"`
		JSON  bool   `toml:"json" yaml:"json"`
	} `toml:"log" yaml:"log"`
	Crypto struct {
		InsecureTestCrypto bool `toml:"insecure_test_crypto_do_not_use_in_production" yaml:"insecure_test_crypto_do_not_use_in_production"`
	} `toml:"crypto" yaml:"crypto"`
}

// Default returns the built-in configuration.
func Default() Config {
	home := ".moltspeak"
	if dir, err := os.UserHomeDir(); err == nil {
		home = filepath.Join(dir, ".moltspeak")
	}
	return Config{
		Home: home,
		Directory: DirectoryConfig{
			Addr:    ":8080",
			Timeout: 10 * time.Second,
		},
		Sessions: SessionConfig{Max: 100, TTL: time.Hour},
		Messages: MessageConfig{MaxAge: message.DefaultMaxAge, MaxSize: message.MaxMessageSize},
		Log:      LogConfig{Level: "info"},
	}
}

// Load resolves the configuration. path may be empty; otherwise its
// extension selects the decoder (.toml, .yaml or .yml).
func Load(path string) (Config, error) {
	// Missing .env is fine.
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		fc, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := cfg.overlay(fc); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string) (fileConfig, error) {
	var fc fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.DecodeFile(path, &fc); err != nil {
			return fc, fmt.Errorf("load config %s: %w", path, err)
		}
	case ".yaml", ".yml":
		b, err := os.ReadFile(path)
		if err != nil {
			return fc, fmt.Errorf("load config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("load config %s: %w", path, err)
		}
	default:
		return fc, fmt.Errorf("load config %s: unsupported format %q", path, filepath.Ext(path))
	}
	return fc, nil
}

func (c *Config) overlay(fc fileConfig) error {
	if s := strings.TrimSpace(fc.Home); s != "" {
		c.Home = s
	}
	if s := strings.TrimSpace(fc.Agent.Name); s != "" {
		c.Agent.Name = s
	}
	if s := strings.TrimSpace(fc.Agent.Org); s != "" {
		c.Agent.Org = s
	}
	if s := strings.TrimSpace(fc.Directory.URL); s != "" {
		c.Directory.URL = s
	}
	if s := strings.TrimSpace(fc.Directory.Addr); s != "" {
		c.Directory.Addr = s
	}
	if err := setDuration(&c.Directory.Timeout, "directory.timeout", fc.Directory.Timeout); err != nil {
		return err
	}
	if fc.Sessions.Max != 0 {
		c.Sessions.Max = fc.Sessions.Max
	}
	if err := setDuration(&c.Sessions.TTL, "sessions.ttl", fc.Sessions.TTL); err != nil {
		return err
	}
	if err := setDuration(&c.Messages.MaxAge, "messages.max_age", fc.Messages.MaxAge); err != nil {
		return err
	}
	if fc.Messages.MaxSize != 0 {
		c.Messages.MaxSize = fc.Messages.MaxSize
	}
	if s := strings.TrimSpace(fc.Log.Level); s != "" {
		c.Log.Level = s
	}
	c.Log.JSON = c.Log.JSON || fc.Log.JSON
	c.Crypto.InsecureTestCrypto = c.Crypto.InsecureTestCrypto || fc.Crypto.InsecureTestCrypto
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvHome); v != "" {
		c.Home = v
	}
	if v := os.Getenv(EnvDirectoryURL); v != "" {
		c.Directory.URL = v
	}
	if v := os.Getenv(EnvDirectoryAddr); v != "" {
		c.Directory.Addr = v
	}
	if v := os.Getenv(EnvMaxSessions); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMaxSessions, err)
		}
		c.Sessions.Max = n
	}
	if err := setDuration(&c.Sessions.TTL, EnvSessionTTL, os.Getenv(EnvSessionTTL)); err != nil {
		return err
	}
	if err := setDuration(&c.Messages.MaxAge, EnvMaxMessageAge, os.Getenv(EnvMaxMessageAge)); err != nil {
		return err
	}
	if v := os.Getenv(EnvInsecureTestCrypto); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvInsecureTestCrypto, err)
		}
		c.Crypto.InsecureTestCrypto = on
	}
	return nil
}

func setDuration(dst *time.Duration, name, raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

// Validate rejects settings the services cannot run with.
func (c Config) Validate() error {
	var problems []error
	if c.Home == "" {
		problems = append(problems, errors.New("home is required"))
	}
	if c.Agent.Name != "" {
		if err := message.ValidateName("agent.name", c.Agent.Name); err != nil {
			problems = append(problems, err)
		}
	}
	if c.Agent.Org != "" {
		if err := message.ValidateName("agent.org", c.Agent.Org); err != nil {
			problems = append(problems, err)
		}
	}
	if c.Sessions.Max <= 0 {
		problems = append(problems, fmt.Errorf("sessions.max must be positive, got %d", c.Sessions.Max))
	}
	if c.Sessions.TTL < 0 {
		problems = append(problems, fmt.Errorf("sessions.ttl must not be negative, got %s", c.Sessions.TTL))
	}
	if c.Messages.MaxAge <= 0 {
		problems = append(problems, fmt.Errorf("messages.max_age must be positive, got %s", c.Messages.MaxAge))
	}
	if c.Messages.MaxSize <= 0 || c.Messages.MaxSize > message.MaxMessageSize {
		problems = append(problems, fmt.Errorf("messages.max_size must be in (0, %d], got %d", message.MaxMessageSize, c.Messages.MaxSize))
	}
	if c.Directory.Timeout <= 0 {
		problems = append(problems, fmt.Errorf("directory.timeout must be positive, got %s", c.Directory.Timeout))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(problems...))
	}
	return nil
}
