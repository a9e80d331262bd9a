package models

import (
	"time"

	"github.com/google/uuid"
)

// Well-known model snapshot names.
const (
	ModelNameLatentEncoder     = "latent_encoder"
	ModelNameTransitionNetwork = "transition_network"
)

// ModelSnapshot is a persisted set of learned weights. Encoder snapshots
// carry decoder weights for reconstruction; the transition network stores
// everything under EncoderWeights with a nil decoder.
type ModelSnapshot struct {
	ID                uuid.UUID `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	ModelVersion      string    `db:"model_version" json:"model_version"`
	EncoderWeights    []byte    `db:"encoder_weights" json:"encoder_weights"`
	DecoderWeights    []byte    `db:"decoder_weights" json:"decoder_weights,omitempty"`
	LatentDim         int       `db:"latent_dim" json:"latent_dim"`
	InputDim          int       `db:"input_dim" json:"input_dim"`
	TrainingCompleted bool      `db:"training_completed" json:"training_completed"`
	Frozen            bool      `db:"frozen" json:"frozen"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// UsableForInference reports whether this snapshot may serve predictions.
// Only frozen snapshots from a completed training run qualify.
func (m *ModelSnapshot) UsableForInference() bool {
	return m.Frozen && m.TrainingCompleted
}
