package datasource

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/models"
)

// GameDataSource defines the interface for fetching game data from external
// providers
type GameDataSource interface {
	// FetchFinalGames retrieves games that went final on the given date
	FetchFinalGames(ctx context.Context, date time.Time) ([]GameSummary, error)

	// FetchPlayByPlay retrieves the full play-by-play log for a game
	FetchPlayByPlay(ctx context.Context, gameID uuid.UUID) ([]models.PlayByPlayEvent, error)

	// FetchBoxScore retrieves a team's aggregate box score for a game
	FetchBoxScore(ctx context.Context, gameID uuid.UUID, teamID string) (*models.BoxScoreStats, error)

	// Name returns the name of the data source
	Name() string
}

// GameSummary identifies one completed game and its participants
type GameSummary struct {
	GameID     uuid.UUID `json:"game_id"`
	HomeTeamID string    `json:"home_team_id"`
	AwayTeamID string    `json:"away_team_id"`
	Season     string    `json:"season"`
	Tipoff     time.Time `json:"tipoff"`
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// NewDataSourceError creates a DataSourceError
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{Source: source, Code: code, Message: message, Err: err}
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
)
