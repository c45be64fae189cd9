package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotoarchive/zabava-archive/internal/datespec"
	"github.com/lotoarchive/zabava-archive/internal/discovery"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultURL, cfg.URL)
	assert.Equal(t, "zabava", cfg.Game)
	assert.Equal(t, discovery.DefaultStepPx, cfg.Scroll.StepPx)
	assert.Equal(t, discovery.DefaultPollInterval, time.Duration(cfg.Scroll.PollInterval))
	assert.Equal(t, discovery.DefaultSettleDelay, time.Duration(cfg.Scroll.SettleDelay))
	assert.Equal(t, discovery.DefaultMaxSettleCycles, cfg.Scroll.MaxSettleCycles)
	assert.Equal(t, cfg.Selectors.DrawNumber, cfg.Selectors.Wait)
	assert.Equal(t, "draws_full.csv", cfg.Output.Path)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.Equal(t, datespec.RussianGenitive.Names(), cfg.Months)
	assert.Equal(t, 60*time.Second, time.Duration(cfg.Browser.WaitTimeout))
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
url: https://archive.example.test/draws
scroll:
  step_px: 500
  poll_interval: 50ms
  settle_delay: 2s
  max_settle_cycles: 2
selectors:
  row: div.row
browser:
  headless: true
output:
  path: out/draws.xlsx
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "https://archive.example.test/draws", cfg.URL)
	assert.Equal(t, 500, cfg.Scroll.StepPx)
	assert.Equal(t, 50*time.Millisecond, time.Duration(cfg.Scroll.PollInterval))
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "xlsx", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.LogLevel)

	opts := cfg.DiscoveryOptions()
	assert.Equal(t, 500, opts.StepPx)
	assert.Equal(t, 2*time.Second, opts.SettleDelay)
	assert.Equal(t, 2, opts.MaxSettleCycles)
	assert.Equal(t, "div.row", cfg.DrawSelectors().Row)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("ZABAVA_ARCHIVE_URL", "https://mirror.example.test/")
	t.Setenv("ZABAVA_ARCHIVE_HEADLESS", "true")
	t.Setenv("ZABAVA_ARCHIVE_CHROME_PATH", "/opt/chromium")

	cfg, err := Load(writeConfig(t, "browser:\n  headless: false\n"))
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.example.test/", cfg.URL)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "/opt/chromium", cfg.Browser.ExecPath)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad yaml", "url: [unclosed"},
		{"bad duration", "scroll:\n  poll_interval: soon\n"},
		{"relative url", "url: /zabava/archive\n"},
		{"short months", "months: [a, b, c]\n"},
		{"bad format", "output:\n  format: pdf\n"},
		{"negative limit", "scroll:\n  max_iterations: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_CustomMonths(t *testing.T) {
	cfg, err := Load(writeConfig(t, `months: [january, february, march, april, may, june, july, august, september, october, november, december]`))
	require.NoError(t, err)

	m, ok := cfg.Vocabulary().Lookup("august")
	assert.True(t, ok)
	assert.Equal(t, time.August, m)
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	cfg, err := LoadOrDefault(missing, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultURL, cfg.URL)

	_, err = LoadOrDefault(missing, true)
	assert.Error(t, err)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(EnvConfig, "")
	path, explicit := GetConfigPath()
	assert.Equal(t, DefaultPath, path)
	assert.False(t, explicit)

	t.Setenv(EnvConfig, "/etc/zabava.yaml")
	path, explicit = GetConfigPath()
	assert.Equal(t, "/etc/zabava.yaml", path)
	assert.True(t, explicit)
}

func TestLoad_ExampleFile(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "zabava-archive.example.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultURL, cfg.URL)
	assert.Equal(t, discovery.DefaultMarkerSelector, cfg.Selectors.Marker)
	assert.Equal(t, datespec.RussianGenitive.Names(), cfg.Months)
	assert.Equal(t, 10000, cfg.Scroll.MaxIterations)
}
