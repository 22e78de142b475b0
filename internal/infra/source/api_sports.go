package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vietddude/standings/internal/core/domain"
)

// APISports talks to v3.football.api-sports.io. Both endpoints answer with
// an object envelope whose records live under "response".
type APISports struct {
	client *Client
	league string
	season string
}

// NewAPISports creates the API-Sports adapter.
func NewAPISports(cfg Config, season string) *APISports {
	return &APISports{
		client: NewClient(ClientConfig{
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
			Headers:   map[string]string{"x-apisports-key": cfg.APIKey},
		}),
		league: cfg.League,
		season: season,
	}
}

func (a *APISports) Source() domain.SourceID { return domain.SourceAPISports }

func (a *APISports) Fetch(ctx context.Context, kind domain.EndpointKind) (any, error) {
	var path string
	switch kind {
	case domain.EndpointTeams:
		path = "teams"
	case domain.EndpointStandings:
		path = "standings"
	default:
		return nil, fmt.Errorf("unsupported endpoint: %s", kind)
	}

	raw, err := a.client.GetJSON(ctx, path, url.Values{
		"league": {a.league},
		"season": {a.season},
	})
	if err != nil {
		return nil, err
	}

	// API errors are reported with HTTP 200 and a non-empty "errors" field.
	if env, ok := raw.(map[string]any); ok {
		if apiErr := envelopeErrors(env["errors"]); apiErr != "" {
			return nil, fmt.Errorf("api-sports error: %s", apiErr)
		}
	}
	return raw, nil
}

func envelopeErrors(v any) string {
	switch e := v.(type) {
	case map[string]any:
		if len(e) > 0 {
			return fmt.Sprint(e)
		}
	case []any:
		if len(e) > 0 {
			return fmt.Sprint(e)
		}
	case string:
		return e
	}
	return ""
}
