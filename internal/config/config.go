package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Analysis AnalysisConfig `yaml:"analysis" envconfig:"ANALYSIS"`
	Costs    CostsConfig    `yaml:"costs" envconfig:"COSTS"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES" default:"1048576"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	RateLimit       RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// AnalysisConfig tunes the reconciliation and aggregation engines.
type AnalysisConfig struct {
	// CompletedStatus is the order-status sentinel that marks a completed
	// sale in the orders extract.
	CompletedStatus string  `yaml:"completed_status" envconfig:"COMPLETED_STATUS" default:"Selesai"`
	MajorShareRate  float64 `yaml:"major_share_rate" envconfig:"MAJOR_SHARE_RATE" default:"0.60"`
	MinorShareRate  float64 `yaml:"minor_share_rate" envconfig:"MINOR_SHARE_RATE" default:"0.40"`
}

// CostsConfig configures the unit-cost store backend.
type CostsConfig struct {
	// Backend is "sheets" for the Google Sheets store or "memory" for an
	// in-process store that starts empty.
	Backend         string `yaml:"backend" envconfig:"BACKEND" default:"sheets"`
	SpreadsheetID   string `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	SheetName       string `yaml:"sheet_name" envconfig:"SHEET_NAME" default:"Sheet1"`
	CredentialsFile string `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE" default:"credentials.json"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR" default:"data/reports"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("MARGIN", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeConfigs merges file config with env config (env takes precedence)
func mergeConfigs(fileConfig, envConfig Config) Config {
	if envConfig.Server.Port == 0 {
		envConfig.Server.Port = fileConfig.Server.Port
	}
	if envConfig.Costs.SpreadsheetID == "" {
		envConfig.Costs.SpreadsheetID = fileConfig.Costs.SpreadsheetID
	}
	if envConfig.Costs.CredentialsFile == "" {
		envConfig.Costs.CredentialsFile = fileConfig.Costs.CredentialsFile
	}
	if envConfig.Analysis.CompletedStatus == "" {
		envConfig.Analysis.CompletedStatus = fileConfig.Analysis.CompletedStatus
	}
	return envConfig
}

func getConfigFilePath() string {
	if path := os.Getenv("MARGIN_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	switch strings.ToLower(c.Costs.Backend) {
	case "sheets":
		if c.Costs.SpreadsheetID == "" {
			return fmt.Errorf("costs backend %q requires a spreadsheet ID", c.Costs.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("invalid costs backend: %s", c.Costs.Backend)
	}

	if c.Analysis.CompletedStatus == "" {
		return fmt.Errorf("completed order status sentinel must not be empty")
	}

	const tolerance = 1e-9
	if diff := c.Analysis.MajorShareRate + c.Analysis.MinorShareRate - 1.0; diff > tolerance || diff < -tolerance {
		return fmt.Errorf("share rates must sum to 1.0, got %.2f + %.2f",
			c.Analysis.MajorShareRate, c.Analysis.MinorShareRate)
	}

	return nil
}

// EnsureDirectories creates the data, reports and logs directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ReportsDir, c.Paths.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ReportPath returns the path for a generated report file.
func (c *Config) ReportPath(filename string) string {
	return filepath.Join(c.Paths.ReportsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
