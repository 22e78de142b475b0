package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/standings/internal/core/domain"
	"github.com/vietddude/standings/internal/infra/retry"
)

func TestAPISports_FetchTeams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/teams" {
			t.Errorf("expected path /teams, got %s", r.URL.Path)
		}
		if got := r.Header.Get("x-apisports-key"); got != "secret" {
			t.Errorf("expected api key header, got %q", got)
		}
		if r.URL.Query().Get("league") != "39" || r.URL.Query().Get("season") != "2023" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"errors":[],"results":1,"response":[{"team":{"id":42,"name":"Arsenal"}}]}`))
	}))
	defer server.Close()

	a, err := New(Config{ID: domain.SourceAPISports, BaseURL: server.URL, APIKey: "secret", League: "39"}, "2023")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := a.Fetch(context.Background(), domain.EndpointTeams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env := raw.(map[string]any)
	team := env["response"].([]any)[0].(map[string]any)["team"].(map[string]any)
	id, ok := team["id"].(json.Number)
	if !ok {
		t.Fatalf("expected json.Number id, got %T", team["id"])
	}
	if id.String() != "42" {
		t.Errorf("expected id 42, got %s", id)
	}
}

func TestAPISports_EnvelopeErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":{"token":"Error/Missing application key"},"response":[]}`))
	}))
	defer server.Close()

	a := NewAPISports(Config{BaseURL: server.URL, League: "39"}, "2023")
	if _, err := a.Fetch(context.Background(), domain.EndpointStandings); err == nil {
		t.Fatal("expected api error")
	}
}

func TestAPIFootball_StripsPlayers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("action") != "get_teams" || q.Get("league_id") != "152" || q.Get("APIkey") != "k" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`[{"team_key":"141","team_name":"Arsenal","players":[{"player_name":"Saka"}]}]`))
	}))
	defer server.Close()

	a := NewAPIFootball(Config{BaseURL: server.URL, League: "152", APIKey: "k"})
	raw, err := a.Fetch(context.Background(), domain.EndpointTeams)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	team := raw.([]any)[0].(map[string]any)
	if _, ok := team["players"]; ok {
		t.Error("expected players to be stripped")
	}
	if team["team_name"] != "Arsenal" {
		t.Errorf("unexpected team: %v", team)
	}
}

func TestAPIFootball_ErrorObject(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":404,"message":"No standings found (please check your plan)!"}`))
	}))
	defer server.Close()

	a := NewAPIFootball(Config{BaseURL: server.URL})
	if _, err := a.Fetch(context.Background(), domain.EndpointStandings); err == nil {
		t.Fatal("expected error for error object")
	}
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		status    int
		permanent bool
	}{
		{http.StatusUnauthorized, true},
		{http.StatusForbidden, true},
		{http.StatusNotFound, true},
		{http.StatusTooManyRequests, false},
		{http.StatusInternalServerError, false},
		{http.StatusBadGateway, false},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))

		c := NewClient(ClientConfig{BaseURL: server.URL, Timeout: time.Second, RateLimit: 100})
		_, err := c.GetJSON(context.Background(), "teams", nil)
		server.Close()

		var serr *StatusError
		if !errors.As(err, &serr) || serr.Code != tt.status {
			t.Errorf("status %d: expected StatusError, got %v", tt.status, err)
			continue
		}
		if got := retry.IsPermanent(err); got != tt.permanent {
			t.Errorf("status %d: permanent = %v, want %v", tt.status, got, tt.permanent)
		}
	}
}

func TestNew_UnknownSource(t *testing.T) {
	if _, err := New(Config{ID: "espn"}, "2023"); err == nil {
		t.Fatal("expected error for unknown source")
	}
}
