package source

import (
	"context"
	"fmt"
	"net/url"

	"github.com/vietddude/standings/internal/core/domain"
)

// APIFootball talks to apiv3.apifootball.com. Successful responses are bare
// lists; errors come back as an object with an "error" key.
type APIFootball struct {
	client *Client
	league string
	apiKey string
}

// NewAPIFootball creates the API-Football adapter.
func NewAPIFootball(cfg Config) *APIFootball {
	return &APIFootball{
		client: NewClient(ClientConfig{
			BaseURL:   cfg.BaseURL,
			Timeout:   cfg.Timeout,
			RateLimit: cfg.RateLimit,
			Burst:     cfg.Burst,
		}),
		league: cfg.League,
		apiKey: cfg.APIKey,
	}
}

func (a *APIFootball) Source() domain.SourceID { return domain.SourceAPIFootball }

func (a *APIFootball) Fetch(ctx context.Context, kind domain.EndpointKind) (any, error) {
	var action string
	switch kind {
	case domain.EndpointTeams:
		action = "get_teams"
	case domain.EndpointStandings:
		action = "get_standings"
	default:
		return nil, fmt.Errorf("unsupported endpoint: %s", kind)
	}

	raw, err := a.client.GetJSON(ctx, "", url.Values{
		"action":    {action},
		"league_id": {a.league},
		"APIkey":    {a.apiKey},
	})
	if err != nil {
		return nil, err
	}

	if env, ok := raw.(map[string]any); ok {
		if msg, has := env["error"]; has {
			return nil, fmt.Errorf("api-football error %v: %v", msg, env["message"])
		}
	}

	if kind == domain.EndpointTeams {
		stripPlayers(raw)
	}
	return raw, nil
}

// stripPlayers drops squad lists, which are not part of the canonical record.
func stripPlayers(raw any) {
	list, ok := raw.([]any)
	if !ok {
		return
	}
	for _, item := range list {
		if team, ok := item.(map[string]any); ok {
			delete(team, "players")
			delete(team, "coaches")
		}
	}
}
