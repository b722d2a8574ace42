package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "8001", cfg.Server.Port)
	assert.Equal(t, "~/usr/local/bin", cfg.Paths.CLIBin)
	assert.Equal(t, "~/apps", cfg.Paths.WebApps)
	assert.Equal(t, "http://berrystore.sw7ft.com/bins/", cfg.Remote.CLIURL)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Cache.RemoteTTL)
	assert.Equal(t, time.Minute, cfg.Cache.InstalledTTL)
	assert.Equal(t, 2*time.Second, cfg.Process.StartGrace)
	assert.Equal(t, "python3", cfg.Process.Interpreter)
}

func TestLoadMatchesDefault(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"TASKDOCK_PORT":          "9001",
		"TASKDOCK_WEB_DIR":       "/data/apps",
		"TASKDOCK_FETCH_TIMEOUT": "3s",
		"TASKDOCK_INSTALLED_TTL": "30s",
		"TASKDOCK_START_GRACE":   "500ms",
		"LOG_LEVEL":              "debug",
		"RATE_LIMIT_ENABLED":     "false",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9001", cfg.Server.Port)
	assert.Equal(t, "/data/apps", cfg.Paths.WebApps)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Cache.InstalledTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Process.StartGrace)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.False(t, cfg.RateLimit.Enabled)

	// Untouched sections keep defaults
	assert.Equal(t, "~/usr/local/bin", cfg.Paths.CLIBin)
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("TASKDOCK_START_GRACE", "soon")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, 2*time.Second, cfg.Process.StartGrace)
}

func TestLoadFileOverlaysEnvironment(t *testing.T) {
	t.Setenv("TASKDOCK_PORT", "9100")

	path := filepath.Join(t.TempDir(), "taskdock.yaml")
	content := `
paths:
  web_apps: /srv/apps
remote:
  timeout: 4s
process:
  interpreter: /usr/bin/python3.11
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/apps", cfg.Paths.WebApps)
	assert.Equal(t, 4*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "/usr/bin/python3.11", cfg.Process.Interpreter)
	assert.Equal(t, "9100", cfg.Server.Port)
	assert.Equal(t, "~/.profile", cfg.Paths.Profile)
}

func TestLoadOrDefaultReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskdock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9200\"\n"), 0644))
	t.Setenv("TASKDOCK_CONFIG", path)

	cfg := LoadOrDefault()
	assert.Equal(t, "9200", cfg.Server.Port)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadFileTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskdock.toml")
	content := `
[server]
port = "9300"

[paths]
cli_bin = "/opt/bin"

[rate_limit]
enabled = false
rps = 5

[cache]
installed_ttl = 30000000000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "9300", cfg.Server.Port)
	assert.Equal(t, "/opt/bin", cfg.Paths.CLIBin)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 30*time.Second, cfg.Cache.InstalledTTL)
	assert.Equal(t, "~/apps", cfg.Paths.WebApps)
}

func TestLoadFileBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskdock.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
