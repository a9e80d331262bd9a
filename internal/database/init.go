package database

import (
	"context"
	"fmt"

	"github.com/yourusername/courtside/internal/config"
)

// Schema for the engine's three tables. Posteriors and encoder weights are
// stored as opaque payloads; labels are queryable per game and team.
const schema = `
CREATE TABLE IF NOT EXISTS team_posteriors (
	team_id     TEXT PRIMARY KEY,
	posterior   JSONB NOT NULL,
	season      TEXT NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS model_snapshots (
	id                 UUID PRIMARY KEY,
	name               TEXT NOT NULL,
	model_version      TEXT NOT NULL,
	encoder_weights    BYTEA NOT NULL,
	decoder_weights    BYTEA,
	latent_dim         INT NOT NULL,
	input_dim          INT NOT NULL,
	training_completed BOOLEAN NOT NULL DEFAULT FALSE,
	frozen             BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (name, model_version)
);

CREATE TABLE IF NOT EXISTS transition_labels (
	game_id     UUID NOT NULL,
	team_id     TEXT NOT NULL,
	probs       DOUBLE PRECISION[] NOT NULL,
	computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (game_id, team_id)
);

CREATE INDEX IF NOT EXISTS idx_transition_labels_computed_at
	ON transition_labels (computed_at DESC);
`

// Initialize creates a database connection pool and ensures the schema
// exists.
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if _, err := db.pool.Exec(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return db, nil
}
