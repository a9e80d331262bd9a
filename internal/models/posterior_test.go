package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeutralPosterior(t *testing.T) {
	p := NewNeutralPosterior("duke", "2025-26")
	require.NoError(t, p.Validate())
	assert.Len(t, p.Mu, LatentDim)
	assert.Len(t, p.Sigma, LatentDim)
	for i := 0; i < LatentDim; i++ {
		assert.Equal(t, 0.0, p.Mu[i])
		assert.Equal(t, 1.0, p.Sigma[i])
	}
	assert.Equal(t, 0, p.GamesProcessed)
}

func TestPosteriorValidateBounds(t *testing.T) {
	p := NewNeutralPosterior("unc", "2025-26")

	// All sigma entries at the lower bound are accepted.
	for i := range p.Sigma {
		p.Sigma[i] = MinUncertainty
	}
	require.NoError(t, p.Validate())

	// Any entry above the upper bound is rejected.
	p.Sigma[3] = MaxUncertainty + 0.01
	err := p.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidPosterior)

	// Wrong length vectors are rejected.
	short := NewNeutralPosterior("unc", "2025-26")
	short.Mu = short.Mu[:LatentDim-1]
	assert.ErrorIs(t, short.Validate(), ErrInvalidPosterior)
}

func TestPosteriorPersistedRoundTrip(t *testing.T) {
	p := NewNeutralPosterior("gonzaga", "2025-26")
	for i := range p.Mu {
		p.Mu[i] = float64(i) * 0.137
		p.Sigma[i] = 0.1 + float64(i)*0.05
	}
	p.GamesProcessed = 17

	data, err := p.MarshalPersisted()
	require.NoError(t, err)

	restored := &TeamPosterior{TeamID: p.TeamID}
	require.NoError(t, restored.UnmarshalPersisted(data))

	assert.InDeltaSlice(t, p.Mu, restored.Mu, 1e-12)
	assert.InDeltaSlice(t, p.Sigma, restored.Sigma, 1e-12)
	assert.Equal(t, p.GamesProcessed, restored.GamesProcessed)
	assert.Equal(t, p.Season, restored.Season)
}

func TestConfidenceMonotonic(t *testing.T) {
	p := NewNeutralPosterior("kansas", "2025-26")
	prev := p.Confidence()
	for games := 1; games <= 30; games++ {
		p.GamesProcessed = games
		c := p.Confidence()
		assert.Greater(t, c, prev, "confidence must grow with games processed")
		assert.Less(t, c, 1.0)
		prev = c
	}

	p.GamesProcessed = 2
	atTwo := p.Confidence()
	p.GamesProcessed = 5
	assert.Greater(t, p.Confidence(), atTwo)
}

func TestRegressToPrior(t *testing.T) {
	p := NewNeutralPosterior("baylor", "2024-25")
	for i := range p.Mu {
		p.Mu[i] = 1.0
		p.Sigma[i] = 0.4
	}
	p.RegressToPrior(0.5, 1.25, "2025-26")

	require.NoError(t, p.Validate())
	assert.Equal(t, "2025-26", p.Season)
	for i := range p.Mu {
		assert.InDelta(t, 0.5, p.Mu[i], 1e-12)
		assert.Greater(t, p.Sigma[i], 0.4, "variance must inflate at season boundary")
	}
}
