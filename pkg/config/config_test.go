package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chrouter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
preprocess:
  weighting: shortest
  max-settled: 80
  priority:
    edge-difference: 2
server:
  addr: ":9000"
  query-timeout: 250ms
logging:
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "shortest", cfg.Preprocess.Weighting)
	assert.Equal(t, 80, cfg.Preprocess.MaxSettled)
	assert.Equal(t, 2.0, cfg.Preprocess.Priority.EdgeDifference)
	assert.Equal(t, 1.0, cfg.Preprocess.Priority.OriginalEdges, "unset keys keep defaults")
	assert.True(t, cfg.Preprocess.TowerNodes)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.QueryTimeout)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "preprocess: [not, a, map]\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "preprocess:\n  weighting: bike\n"))
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"weighting", func(c *Config) { c.Preprocess.Weighting = "" }},
		{"max settled", func(c *Config) { c.Preprocess.MaxSettled = 0 }},
		{"max concurrent", func(c *Config) { c.Server.MaxConcurrent = -1 }},
		{"query timeout", func(c *Config) { c.Server.QueryTimeout = 0 }},
		{"snap radius", func(c *Config) { c.Server.MaxSnapMeters = 0 }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}
