package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/courtside/internal/database"
	"github.com/yourusername/courtside/internal/models"
)

// PostgresPosteriorRepository implements PosteriorRepository for PostgreSQL
type PostgresPosteriorRepository struct {
	db *database.DB
}

// NewPostgresPosteriorRepository creates a new posterior repository
func NewPostgresPosteriorRepository(db *database.DB) PosteriorRepository {
	return &PostgresPosteriorRepository{db: db}
}

// Get retrieves a team's posterior by team ID
func (r *PostgresPosteriorRepository) Get(ctx context.Context, teamID string) (*models.TeamPosterior, error) {
	query := `
		SELECT team_id, posterior, season, updated_at
		FROM team_posteriors WHERE team_id = $1
	`

	var payload []byte
	posterior := &models.TeamPosterior{}
	err := r.db.GetPool().QueryRow(ctx, query, teamID).Scan(
		&posterior.TeamID, &payload, &posterior.Season, &posterior.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get posterior: %w", err)
	}

	if err := posterior.UnmarshalPersisted(payload); err != nil {
		return nil, fmt.Errorf("corrupt posterior for team %s: %w", teamID, err)
	}
	return posterior, nil
}

// Upsert writes a team's posterior, replacing any previous row
func (r *PostgresPosteriorRepository) Upsert(ctx context.Context, posterior *models.TeamPosterior) error {
	if err := posterior.Validate(); err != nil {
		return err
	}
	payload, err := posterior.MarshalPersisted()
	if err != nil {
		return fmt.Errorf("failed to encode posterior: %w", err)
	}

	query := `
		INSERT INTO team_posteriors (team_id, posterior, season, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id) DO UPDATE SET
			posterior = EXCLUDED.posterior,
			season = EXCLUDED.season,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.GetPool().Exec(ctx, query,
		posterior.TeamID, payload, posterior.Season, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert posterior: %w", err)
	}
	return nil
}

// ListBySeason retrieves all posteriors last updated in the given season
func (r *PostgresPosteriorRepository) ListBySeason(ctx context.Context, season string) ([]*models.TeamPosterior, error) {
	query := `
		SELECT team_id, posterior, season, updated_at
		FROM team_posteriors
		WHERE season = $1
		ORDER BY team_id ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, season)
	if err != nil {
		return nil, fmt.Errorf("failed to query posteriors: %w", err)
	}
	defer rows.Close()

	var posteriors []*models.TeamPosterior
	for rows.Next() {
		var payload []byte
		posterior := &models.TeamPosterior{}
		if err := rows.Scan(&posterior.TeamID, &payload, &posterior.Season, &posterior.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan posterior: %w", err)
		}
		if err := posterior.UnmarshalPersisted(payload); err != nil {
			return nil, fmt.Errorf("corrupt posterior for team %s: %w", posterior.TeamID, err)
		}
		posteriors = append(posteriors, posterior)
	}

	return posteriors, rows.Err()
}
