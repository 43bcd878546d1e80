package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MARGIN_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("MARGIN_COSTS_BACKEND", "memory")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "Selesai", cfg.Analysis.CompletedStatus)
	assert.InDelta(t, 0.60, cfg.Analysis.MajorShareRate, 1e-9)
	assert.InDelta(t, 0.40, cfg.Analysis.MinorShareRate, 1e-9)
	assert.Equal(t, "memory", cfg.Costs.Backend)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("MARGIN_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("MARGIN_COSTS_BACKEND", "memory")
	t.Setenv("MARGIN_SERVER_PORT", "9090")
	t.Setenv("MARGIN_ANALYSIS_COMPLETED_STATUS", "Completed")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "Completed", cfg.Analysis.CompletedStatus)
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7070
costs:
  backend: sheets
  spreadsheet_id: sheet-abc-123
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	t.Setenv("MARGIN_CONFIG_FILE", configFile)
	t.Setenv("MARGIN_COSTS_BACKEND", "sheets")
	t.Setenv("MARGIN_SERVER_PORT", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "sheet-abc-123", cfg.Costs.SpreadsheetID)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid logging level",
		},
		{
			name:    "sheets backend without spreadsheet",
			mutate:  func(c *Config) { c.Costs.Backend = "sheets"; c.Costs.SpreadsheetID = "" },
			wantErr: "requires a spreadsheet ID",
		},
		{
			name:    "empty status sentinel",
			mutate:  func(c *Config) { c.Analysis.CompletedStatus = "" },
			wantErr: "sentinel must not be empty",
		},
		{
			name:    "shares do not sum to one",
			mutate:  func(c *Config) { c.Analysis.MajorShareRate = 0.7 },
			wantErr: "share rates must sum to 1.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := validConfig()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.ReportsDir = filepath.Join(dir, "data", "reports")
	cfg.Paths.LogsDir = filepath.Join(dir, "logs")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Paths.ReportsDir)
	assert.DirExists(t, cfg.Paths.LogsDir)
}

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Port: 8080},
		Logging: LoggingConfig{Level: "info"},
		Analysis: AnalysisConfig{
			CompletedStatus: CompletedOrderStatus,
			MajorShareRate:  MajorShareRate,
			MinorShareRate:  MinorShareRate,
		},
		Costs: CostsConfig{Backend: "memory"},
	}
}
