package config

import (
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/etl/normalize"
	"github.com/vietddude/standings/internal/etl/validate"
	"github.com/vietddude/standings/internal/infra/notify"
	redisclient "github.com/vietddude/standings/internal/infra/redis"
	"github.com/vietddude/standings/internal/infra/retry"
	"github.com/vietddude/standings/internal/infra/source"
	"github.com/vietddude/standings/internal/infra/storage"
)

// Loader drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Season     string             `yaml:"season"`
	Sources    []SourceConfig     `yaml:"sources"`
	Retry      retry.Config       `yaml:"retry"`
	Validation ValidationConfig   `yaml:"validation"`
	Loader     LoaderConfig       `yaml:"loader"`
	Notify     NotifyConfig       `yaml:"notify"`
	Redis      redisclient.Config `yaml:"redis"`
	Metrics    MetricsConfig      `yaml:"metrics"`
	Schedule   ScheduleConfig     `yaml:"schedule"`
	Server     ServerConfig       `yaml:"server"`
	Logging    LoggingConfig      `yaml:"logging"`
	OutputDir  string             `yaml:"output_dir"`
	Sequential bool               `yaml:"sequential"`
}

// SourceConfig holds settings for one upstream API.
type SourceConfig struct {
	source.Config `yaml:",inline"`
	Target        string            `yaml:"target"`
	WriteMode     string            `yaml:"write_mode"` // overrides loader.write_mode
	Mapping       normalize.Mapping `yaml:"mapping"`    // merged over the default mapping
	Disabled      bool              `yaml:"disabled"`
}

// ValidationConfig overrides the severity of validation issue kinds.
type ValidationConfig struct {
	Policy map[domain.IssueKind]domain.Severity `yaml:"policy"`
}

// LoaderConfig selects the analytical sink.
type LoaderConfig struct {
	Driver    string `yaml:"driver"` // postgres, sqlite, memory
	DSN       string `yaml:"dsn"`
	WriteMode string `yaml:"write_mode"`
	MaxConns  int    `yaml:"max_conns"`
	MinConns  int    `yaml:"min_conns"`
}

// NotifyConfig holds the report delivery channels.
type NotifyConfig struct {
	Log     bool                 `yaml:"log"`
	SMTP    notify.SMTPConfig    `yaml:"smtp"`
	Webhook notify.WebhookConfig `yaml:"webhook"`
}

// MetricsConfig holds Pushgateway settings.
type MetricsConfig struct {
	PushURL string `yaml:"push_url"`
	Job     string `yaml:"job"`
}

// ScheduleConfig holds the cron spec of scheduled runs.
type ScheduleConfig struct {
	Cron string `yaml:"cron"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Validation errors.
var (
	ErrNoSources     = errors.New("no sources configured")
	ErrMissingSeason = errors.New("season is required")
)

// EnabledSources returns the sources that take part in a run.
func (c *AppConfig) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Sources))
	for _, s := range c.Sources {
		if !s.Disabled {
			out = append(out, s)
		}
	}
	return out
}

// WriteMode returns the effective write mode of a source.
func (c *AppConfig) WriteMode(s SourceConfig) (storage.WriteMode, error) {
	if s.WriteMode != "" {
		return storage.ParseWriteMode(s.WriteMode)
	}
	return storage.ParseWriteMode(c.Loader.WriteMode)
}

// SourceMapping returns the default mapping of a source merged with its overrides.
func (c *AppConfig) SourceMapping(s SourceConfig) (normalize.Mapping, error) {
	m, err := normalize.DefaultMapping(s.ID)
	if err != nil {
		return nil, err
	}
	return m.Merge(s.Mapping), nil
}

// Validate rejects configurations a run cannot work with.
func (c *AppConfig) Validate() error {
	if c.Season == "" {
		return ErrMissingSeason
	}
	sources := c.EnabledSources()
	if len(sources) == 0 {
		return ErrNoSources
	}

	seen := make(map[domain.SourceID]bool)
	for _, s := range sources {
		if _, ok := domain.SourceNames[s.ID]; !ok {
			return fmt.Errorf("unknown source %q", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("source %s configured twice", s.ID)
		}
		seen[s.ID] = true

		if s.APIKey == "" {
			return fmt.Errorf("source %s: api_key is required", s.ID)
		}
		if s.League == "" {
			return fmt.Errorf("source %s: league is required", s.ID)
		}
		if _, err := c.WriteMode(s); err != nil {
			return fmt.Errorf("source %s: %w", s.ID, err)
		}
		if s.Target != "" {
			if _, err := storage.ParseTarget(s.Target); err != nil {
				return fmt.Errorf("source %s: %w", s.ID, err)
			}
		}
		m, err := c.SourceMapping(s)
		if err != nil {
			return fmt.Errorf("source %s: %w", s.ID, err)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("source %s mapping: %w", s.ID, err)
		}
	}

	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.MaxAttempts > 1 && len(c.Retry.Schedule) == 0 {
		return errors.New("retry.schedule must not be empty when retries are enabled")
	}
	for _, d := range c.Retry.Schedule {
		if d < 0 {
			return fmt.Errorf("retry.schedule contains negative delay %s", d)
		}
	}

	for kind, sev := range c.Validation.Policy {
		if _, ok := validate.DefaultPolicy[kind]; !ok {
			return fmt.Errorf("validation.policy: unknown issue kind %q", kind)
		}
		if kind == domain.IssueEnvelopeShape && sev != domain.SeverityFatal {
			return fmt.Errorf("validation.policy[%s]: envelope_shape is always fatal", kind)
		}
		if sev != domain.SeverityFatal && sev != domain.SeverityWarning {
			return fmt.Errorf("validation.policy[%s]: unknown severity %q", kind, sev)
		}
	}

	switch c.Loader.Driver {
	case DriverPostgres:
		if c.Loader.DSN == "" {
			return errors.New("loader.dsn is required for postgres")
		}
	case DriverSQLite, DriverMemory:
	default:
		return fmt.Errorf("unknown loader driver %q", c.Loader.Driver)
	}

	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			return fmt.Errorf("schedule.cron: %w", err)
		}
	}
	return nil
}
