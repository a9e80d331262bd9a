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

// PostgresModelRepository implements ModelRepository for PostgreSQL
type PostgresModelRepository struct {
	db *database.DB
}

// NewPostgresModelRepository creates a new model snapshot repository
func NewPostgresModelRepository(db *database.DB) ModelRepository {
	return &PostgresModelRepository{db: db}
}

const snapshotColumns = `id, name, model_version, encoder_weights, decoder_weights,
	latent_dim, input_dim, training_completed, frozen, created_at, updated_at`

// SaveSnapshot upserts a model snapshot. Checkpoints during training reuse
// the same (name, model_version) row so an interrupted run never leaves a
// half-written set of weights.
func (r *PostgresModelRepository) SaveSnapshot(ctx context.Context, snapshot *models.ModelSnapshot) error {
	query := `
		INSERT INTO model_snapshots (id, name, model_version, encoder_weights, decoder_weights,
			latent_dim, input_dim, training_completed, frozen, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (name, model_version) DO UPDATE SET
			encoder_weights = EXCLUDED.encoder_weights,
			decoder_weights = EXCLUDED.decoder_weights,
			training_completed = EXCLUDED.training_completed,
			frozen = EXCLUDED.frozen,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		snapshot.ID, snapshot.Name, snapshot.ModelVersion,
		snapshot.EncoderWeights, snapshot.DecoderWeights,
		snapshot.LatentDim, snapshot.InputDim,
		snapshot.TrainingCompleted, snapshot.Frozen,
		snapshot.CreatedAt, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save model snapshot: %w", err)
	}
	return nil
}

// GetLatest retrieves the most recently updated snapshot with the given name
func (r *PostgresModelRepository) GetLatest(ctx context.Context, name string) (*models.ModelSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM model_snapshots
		WHERE name = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, snapshotColumns)

	return r.scanOne(ctx, query, name)
}

// GetByVersion retrieves a specific snapshot version
func (r *PostgresModelRepository) GetByVersion(ctx context.Context, name, version string) (*models.ModelSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM model_snapshots
		WHERE name = $1 AND model_version = $2
	`, snapshotColumns)

	return r.scanOne(ctx, query, name, version)
}

// GetLatestUsable retrieves the newest frozen, training-complete snapshot
// with the given name, the only kind inference may load
func (r *PostgresModelRepository) GetLatestUsable(ctx context.Context, name string) (*models.ModelSnapshot, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM model_snapshots
		WHERE name = $1 AND frozen = true AND training_completed = true
		ORDER BY updated_at DESC
		LIMIT 1
	`, snapshotColumns)

	return r.scanOne(ctx, query, name)
}

func (r *PostgresModelRepository) scanOne(ctx context.Context, query string, args ...any) (*models.ModelSnapshot, error) {
	snapshot := &models.ModelSnapshot{}
	err := r.db.GetPool().QueryRow(ctx, query, args...).Scan(
		&snapshot.ID, &snapshot.Name, &snapshot.ModelVersion,
		&snapshot.EncoderWeights, &snapshot.DecoderWeights,
		&snapshot.LatentDim, &snapshot.InputDim,
		&snapshot.TrainingCompleted, &snapshot.Frozen,
		&snapshot.CreatedAt, &snapshot.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model snapshot: %w", err)
	}
	return snapshot, nil
}
