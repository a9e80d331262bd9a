package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateDistribution(t *testing.T) {
	valid := [NumOutcomes]float64{0.30, 0.25, 0.10, 0.15, 0.06, 0.02, 0.05, 0.07}
	assert.NoError(t, ValidateDistribution(valid))

	negative := valid
	negative[OutcomeTurnover] = -0.01
	assert.ErrorIs(t, ValidateDistribution(negative), ErrInvalidDistribution)

	overOne := [NumOutcomes]float64{1.5, 0, 0, 0, 0, 0, 0, 0}
	assert.ErrorIs(t, ValidateDistribution(overOne), ErrInvalidDistribution)

	drifted := valid
	drifted[OutcomeTwoPointMake] += 0.01
	assert.ErrorIs(t, ValidateDistribution(drifted), ErrInvalidDistribution)

	// Within tolerance passes.
	slight := valid
	slight[OutcomeTwoPointMake] += 5e-5
	assert.NoError(t, ValidateDistribution(slight))
}

func TestLabelIsZero(t *testing.T) {
	var l TransitionLabel
	assert.True(t, l.IsZero())
	l.Probs[OutcomeOffensiveRebound] = 0.1
	assert.False(t, l.IsZero())
}
