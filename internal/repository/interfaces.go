// Package repository provides PostgreSQL persistence for posteriors, model
// snapshots, and transition labels.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/models"
)

// PosteriorRepository defines team posterior access
type PosteriorRepository interface {
	Get(ctx context.Context, teamID string) (*models.TeamPosterior, error)
	Upsert(ctx context.Context, posterior *models.TeamPosterior) error
	ListBySeason(ctx context.Context, season string) ([]*models.TeamPosterior, error)
}

// LabelRepository defines transition label access. GetRandomBatch satisfies
// the negative-sample cache's label source contract.
type LabelRepository interface {
	Upsert(ctx context.Context, label *models.TransitionLabel) error
	Get(ctx context.Context, gameID uuid.UUID, teamID string) (*models.TransitionLabel, error)
	GetRandomBatch(ctx context.Context, limit int, excludeGame uuid.UUID) ([]models.TransitionLabel, error)
}

// ModelRepository defines model snapshot access. SaveSnapshot satisfies the
// pretrainer's checkpoint store contract.
type ModelRepository interface {
	SaveSnapshot(ctx context.Context, snapshot *models.ModelSnapshot) error
	GetLatest(ctx context.Context, name string) (*models.ModelSnapshot, error)
	GetByVersion(ctx context.Context, name, version string) (*models.ModelSnapshot, error)
	GetLatestUsable(ctx context.Context, name string) (*models.ModelSnapshot, error)
}
