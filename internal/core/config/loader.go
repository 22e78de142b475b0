package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/vietddude/standings/internal/infra/retry"
	"github.com/vietddude/standings/internal/infra/source"
)

// Default values applied by Load.
const (
	DefaultPort       = 8080
	DefaultSQLitePath = "standings.db"
	DefaultPushJob    = "standings"
	DefaultLogLevel   = "info"
)

// Load reads configuration from a YAML file and applies defaults.
// It does not validate; call Validate on the result.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, expanding ${VAR} references from the
// environment first.
func Parse(data []byte) (*AppConfig, error) {
	var cfg AppConfig
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Retry.MaxAttempts == 0 && len(cfg.Retry.Schedule) == 0 {
		cfg.Retry = retry.DefaultConfig
	} else if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry.MaxAttempts = retry.DefaultConfig.MaxAttempts
	}

	if cfg.Loader.Driver == "" {
		if cfg.Loader.DSN != "" {
			cfg.Loader.Driver = DriverPostgres
		} else {
			cfg.Loader.Driver = DriverMemory
		}
	}
	if cfg.Loader.Driver == DriverSQLite && cfg.Loader.DSN == "" {
		cfg.Loader.DSN = DefaultSQLitePath
	}

	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = DefaultPushJob
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}

	for i := range cfg.Sources {
		if cfg.Sources[i].BaseURL == "" {
			cfg.Sources[i].BaseURL = source.DefaultBaseURL(cfg.Sources[i].ID)
		}
	}
}
