package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moltspeak/internal/config"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		config.EnvHome, config.EnvDirectoryURL, config.EnvDirectoryAddr,
		config.EnvMaxSessions, config.EnvSessionTTL, config.EnvMaxMessageAge,
		config.EnvInsecureTestCrypto,
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Sessions.Max)
	assert.Equal(t, time.Hour, cfg.Sessions.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Messages.MaxAge)
	assert.Equal(t, 1<<20, cfg.Messages.MaxSize)
	assert.Equal(t, ":8080", cfg.Directory.Addr)
	assert.False(t, cfg.Crypto.InsecureTestCrypto)
	assert.NotEmpty(t, cfg.Home)
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "moltspeak.toml", `
home = "/tmp/molt"

[agent]
name = "weather-bot"
org = "acme"

[directory]
url = "http://127.0.0.1:9000"
timeout = "3s"

[sessions]
max = 7
ttl = "15m"

[crypto]
insecure_test_crypto_do_not_use_in_production = true
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/molt", cfg.Home)
	assert.Equal(t, config.AgentConfig{Name: "weather-bot", Org: "acme"}, cfg.Agent)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.Directory.URL)
	assert.Equal(t, 3*time.Second, cfg.Directory.Timeout)
	assert.Equal(t, 7, cfg.Sessions.Max)
	assert.Equal(t, 15*time.Minute, cfg.Sessions.TTL)
	assert.True(t, cfg.Crypto.InsecureTestCrypto)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "moltspeak.yaml", `
agent:
  name: planner
  org: globex
messages:
  max_age: 2m
  max_size: 4096
log:
  level: debug
  json: true
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "planner", cfg.Agent.Name)
	assert.Equal(t, 2*time.Minute, cfg.Messages.MaxAge)
	assert.Equal(t, 4096, cfg.Messages.MaxSize)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.False(t, cfg.Crypto.InsecureTestCrypto)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "moltspeak.toml", "[sessions]\nmax = 7\n")
	t.Setenv(config.EnvMaxSessions, "12")
	t.Setenv(config.EnvSessionTTL, "90s")
	t.Setenv(config.EnvDirectoryURL, "http://dir.local")
	t.Setenv(config.EnvInsecureTestCrypto, "true")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Sessions.Max)
	assert.Equal(t, 90*time.Second, cfg.Sessions.TTL)
	assert.Equal(t, "http://dir.local", cfg.Directory.URL)
	assert.True(t, cfg.Crypto.InsecureTestCrypto)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		name string
		file string
		body string
		env  map[string]string
	}{
		{"unsupported extension", "cfg.ini", "x=1", nil},
		{"bad duration", "cfg.toml", "[sessions]\nttl = \"soon\"\n", nil},
		{"bad agent name", "cfg.toml", "[agent]\nname = \"bad name!\"\n", nil},
		{"oversized max_size", "cfg.yaml", "messages:\n  max_size: 2000000\n", nil},
		{"bad env int", "cfg.toml", "", map[string]string{config.EnvMaxSessions: "many"}},
		{"zero sessions", "cfg.toml", "", map[string]string{config.EnvMaxSessions: "0"}},
		{"bad env bool", "cfg.toml", "", map[string]string{config.EnvInsecureTestCrypto: "sure"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := config.Load(writeFile(t, tc.file, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}
