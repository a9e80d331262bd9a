package repository

import (
	"fmt"

	"github.com/yourusername/courtside/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Posterior PosteriorRepository
	Label     LabelRepository
	Model     ModelRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Posterior: NewPostgresPosteriorRepository(db),
		Label:     NewPostgresLabelRepository(db),
		Model:     NewPostgresModelRepository(db),
	}, nil
}
