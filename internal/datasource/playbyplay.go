package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/models"
)

const statsSourceName = "stats_api"

// StatsAPIClient implements GameDataSource for the hosted stats provider
type StatsAPIClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	logger     *log.Logger
}

// NewStatsAPIClient creates a new stats API client
func NewStatsAPIClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, logger *log.Logger) *StatsAPIClient {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &StatsAPIClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		logger:     logger,
	}
}

// Name returns the name of the data source
func (c *StatsAPIClient) Name() string {
	return statsSourceName
}

// FetchFinalGames retrieves games that went final on the given date
func (c *StatsAPIClient) FetchFinalGames(ctx context.Context, date time.Time) ([]GameSummary, error) {
	url := fmt.Sprintf("%s/games?date=%s&status=final", c.baseURL, date.Format("2006-01-02"))

	var games []GameSummary
	if err := c.getJSON(ctx, url, &games); err != nil {
		return nil, err
	}
	return games, nil
}

// wire forms for the provider's play-by-play and box score payloads
type wireEvent struct {
	TeamID    string    `json:"team_id"`
	Type      string    `json:"event_type"`
	Period    int       `json:"period"`
	GameClock string    `json:"game_clock"`
	Timestamp time.Time `json:"timestamp"`
}

// FetchPlayByPlay retrieves the full play-by-play log for a game
func (c *StatsAPIClient) FetchPlayByPlay(ctx context.Context, gameID uuid.UUID) ([]models.PlayByPlayEvent, error) {
	url := fmt.Sprintf("%s/games/%s/playbyplay", c.baseURL, gameID)

	var wire []wireEvent
	if err := c.getJSON(ctx, url, &wire); err != nil {
		return nil, err
	}

	events := make([]models.PlayByPlayEvent, 0, len(wire))
	for _, w := range wire {
		events = append(events, models.PlayByPlayEvent{
			GameID:    gameID,
			TeamID:    w.TeamID,
			Type:      models.EventType(w.Type),
			Period:    w.Period,
			GameClock: w.GameClock,
			Timestamp: w.Timestamp,
		})
	}
	return events, nil
}

// FetchBoxScore retrieves a team's aggregate box score for a game
func (c *StatsAPIClient) FetchBoxScore(ctx context.Context, gameID uuid.UUID, teamID string) (*models.BoxScoreStats, error) {
	url := fmt.Sprintf("%s/games/%s/boxscore?team=%s", c.baseURL, gameID, teamID)

	stats := &models.BoxScoreStats{}
	if err := c.getJSON(ctx, url, stats); err != nil {
		return nil, err
	}
	if stats.TeamID == "" {
		stats.TeamID = teamID
	}
	return stats, nil
}

// getJSON executes an authenticated GET and decodes the JSON response
func (c *StatsAPIClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewDataSourceError(statsSourceName, ErrCodeNetworkError, "failed to create request", err)
	}

	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return NewDataSourceError(statsSourceName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewDataSourceError(statsSourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return NewDataSourceError(statsSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		return NewDataSourceError(statsSourceName, ErrCodeNotFound, "resource not found", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return NewDataSourceError(statsSourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewDataSourceError(statsSourceName, ErrCodeInvalidData, "failed to parse response", err)
	}
	return nil
}
