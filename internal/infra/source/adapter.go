// Package source implements the HTTP adapters of the two upstream
// sports-data APIs.
package source

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
)

// Adapter fetches the raw payload of one endpoint of one source.
type Adapter interface {
	Source() domain.SourceID
	Fetch(ctx context.Context, kind domain.EndpointKind) (any, error)
}

// Config holds the connection settings of one source.
type Config struct {
	ID        domain.SourceID `yaml:"id"`
	BaseURL   string          `yaml:"base_url"`
	APIKey    string          `yaml:"api_key"`
	League    string          `yaml:"league"`
	Timeout   time.Duration   `yaml:"timeout"`
	RateLimit float64         `yaml:"rate_limit"`
	Burst     int             `yaml:"burst"`
}

// Default base URLs.
const (
	APISportsBaseURL   = "https://v3.football.api-sports.io/"
	APIFootballBaseURL = "https://apiv3.apifootball.com/"
)

// DefaultBaseURL returns the public endpoint of a source.
func DefaultBaseURL(id domain.SourceID) string {
	switch id {
	case domain.SourceAPISports:
		return APISportsBaseURL
	case domain.SourceAPIFootball:
		return APIFootballBaseURL
	}
	return ""
}

// New builds the adapter for cfg.ID.
func New(cfg Config, season string) (Adapter, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL(cfg.ID)
	}
	switch cfg.ID {
	case domain.SourceAPISports:
		return NewAPISports(cfg, season), nil
	case domain.SourceAPIFootball:
		return NewAPIFootball(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported source: %s", cfg.ID)
	}
}
