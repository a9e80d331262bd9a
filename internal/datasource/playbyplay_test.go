package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/models"
)

func newTestClient(t *testing.T, handler http.Handler) (*StatsAPIClient, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	cfg := DefaultHTTPClientConfig()
	cfg.MaxRetries = 0
	cfg.RateLimit = 1000
	httpClient := NewRateLimitedHTTPClient(cfg, nil)
	client := NewStatsAPIClient(httpClient, server.URL, "test-key", nil)
	return client, server.Close
}

// TestFetchPlayByPlay tests decoding a play-by-play payload
func TestFetchPlayByPlay(t *testing.T) {
	gameID := uuid.New()
	client, closeServer := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"team_id": "duke", "event_type": "2pt_make", "period": 1, "game_clock": "18:32"},
			{"team_id": "unc", "event_type": "turnover", "period": 1, "game_clock": "18:10"}
		]`))
	}))
	defer closeServer()

	events, err := client.FetchPlayByPlay(context.Background(), gameID)
	if err != nil {
		t.Fatalf("FetchPlayByPlay failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].GameID != gameID {
		t.Error("event not tagged with requested game ID")
	}
	if events[0].Type != models.EventTwoPointMake {
		t.Errorf("expected 2pt_make, got %s", events[0].Type)
	}
	if events[1].TeamID != "unc" {
		t.Errorf("expected team unc, got %s", events[1].TeamID)
	}
}

// TestFetchBoxScore tests decoding a box score payload
func TestFetchBoxScore(t *testing.T) {
	client, closeServer := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"two_point_makes": 24, "two_point_attempts": 48, "turnovers": 11, "possessions": 68}`))
	}))
	defer closeServer()

	stats, err := client.FetchBoxScore(context.Background(), uuid.New(), "duke")
	if err != nil {
		t.Fatalf("FetchBoxScore failed: %v", err)
	}
	if stats.TeamID != "duke" {
		t.Errorf("expected team ID backfilled to duke, got %s", stats.TeamID)
	}
	if stats.TwoPointMakes != 24 || stats.Possessions != 68 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

// TestFetchErrorCodes tests mapping of HTTP failures to error codes
func TestFetchErrorCodes(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantCode   string
	}{
		{"Unauthorized", http.StatusUnauthorized, ErrCodeAuthenticationFailed},
		{"Not found", http.StatusNotFound, ErrCodeNotFound},
		{"Server error", http.StatusBadRequest, ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, closeServer := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer closeServer()

			_, err := client.FetchPlayByPlay(context.Background(), uuid.New())
			if err == nil {
				t.Fatal("expected error")
			}
			var dsErr DataSourceError
			if !errors.As(err, &dsErr) {
				t.Fatalf("expected DataSourceError, got %T", err)
			}
			if dsErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, dsErr.Code)
			}
		})
	}
}
