package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/courtside/internal/database"
	"github.com/yourusername/courtside/internal/models"
)

// PostgresLabelRepository implements LabelRepository for PostgreSQL
type PostgresLabelRepository struct {
	db *database.DB
}

// NewPostgresLabelRepository creates a new label repository
func NewPostgresLabelRepository(db *database.DB) LabelRepository {
	return &PostgresLabelRepository{db: db}
}

// Upsert writes a computed transition label, replacing any previous row for
// the same game and team
func (r *PostgresLabelRepository) Upsert(ctx context.Context, label *models.TransitionLabel) error {
	if !label.IsZero() {
		if err := label.Validate(); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO transition_labels (game_id, team_id, probs, computed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id, team_id) DO UPDATE SET
			probs = EXCLUDED.probs,
			computed_at = EXCLUDED.computed_at
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		label.GameID, label.TeamID, label.Probs[:], label.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert transition label: %w", err)
	}
	return nil
}

// Get retrieves one game's label for a team
func (r *PostgresLabelRepository) Get(ctx context.Context, gameID uuid.UUID, teamID string) (*models.TransitionLabel, error) {
	query := `
		SELECT game_id, team_id, probs, computed_at
		FROM transition_labels WHERE game_id = $1 AND team_id = $2
	`

	label := &models.TransitionLabel{}
	var probs []float64
	err := r.db.GetPool().QueryRow(ctx, query, gameID, teamID).Scan(
		&label.GameID, &label.TeamID, &probs, &label.ComputedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transition label: %w", err)
	}

	if len(probs) != models.NumOutcomes {
		return nil, fmt.Errorf("%w: stored label has %d entries", models.ErrInvalidDistribution, len(probs))
	}
	copy(label.Probs[:], probs)
	return label, nil
}

// GetRandomBatch retrieves up to limit labels from games other than
// excludeGame, in random order. Zero labels (no observed possessions) are
// excluded; they carry no contrastive signal.
func (r *PostgresLabelRepository) GetRandomBatch(ctx context.Context, limit int, excludeGame uuid.UUID) ([]models.TransitionLabel, error) {
	query := `
		SELECT game_id, team_id, probs, computed_at
		FROM transition_labels
		WHERE game_id != $1 AND NOT (probs = ARRAY[0,0,0,0,0,0,0,0]::DOUBLE PRECISION[])
		ORDER BY random()
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, excludeGame, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query random labels: %w", err)
	}
	defer rows.Close()

	var labels []models.TransitionLabel
	for rows.Next() {
		var label models.TransitionLabel
		var probs []float64
		if err := rows.Scan(&label.GameID, &label.TeamID, &probs, &label.ComputedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition label: %w", err)
		}
		if len(probs) != models.NumOutcomes {
			continue
		}
		copy(label.Probs[:], probs)
		labels = append(labels, label)
	}

	return labels, rows.Err()
}
