package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// NumOutcomes is the number of possession outcome categories.
const NumOutcomes = 8

// DistributionTolerance is the maximum allowed deviation of a distribution's
// sum from 1 before it is considered invalid.
const DistributionTolerance = 1e-4

// Possession outcome categories, in wire order.
const (
	OutcomeTwoPointMake = iota
	OutcomeTwoPointMiss
	OutcomeThreePointMake
	OutcomeThreePointMiss
	OutcomeFreeThrowMake
	OutcomeFreeThrowMiss
	OutcomeOffensiveRebound
	OutcomeTurnover
)

// OutcomeNames maps outcome indices to their canonical names.
var OutcomeNames = [NumOutcomes]string{
	"2pt_make", "2pt_miss", "3pt_make", "3pt_miss",
	"ft_make", "ft_miss", "oreb", "turnover",
}

// TransitionLabel is a team's observed 8-way possession outcome distribution
// for a single game. It is computed once from play-by-play counts and is
// immutable afterward.
type TransitionLabel struct {
	GameID     uuid.UUID            `db:"game_id" json:"game_id"`
	TeamID     string               `db:"team_id" json:"team_id"`
	Probs      [NumOutcomes]float64 `db:"probs" json:"probs"`
	ComputedAt time.Time            `db:"computed_at" json:"computed_at"`
}

// IsZero reports whether every entry of the distribution is zero, the
// defined result for a game with no observed possessions.
func (l *TransitionLabel) IsZero() bool {
	for _, p := range l.Probs {
		if p != 0 {
			return false
		}
	}
	return true
}

// Validate flags distributions whose entries are negative, exceed 1, are
// non-finite, or whose sum deviates from 1 beyond tolerance.
func (l *TransitionLabel) Validate() error {
	return ValidateDistribution(l.Probs)
}

// ValidateDistribution checks an 8-way outcome distribution against the
// non-negativity, bounds, and unit-sum contracts.
func ValidateDistribution(probs [NumOutcomes]float64) error {
	sum := 0.0
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("%w: entry %s is not finite", ErrInvalidDistribution, OutcomeNames[i])
		}
		if p < 0 {
			return fmt.Errorf("%w: entry %s is negative (%f)", ErrInvalidDistribution, OutcomeNames[i], p)
		}
		if p > 1 {
			return fmt.Errorf("%w: entry %s exceeds 1 (%f)", ErrInvalidDistribution, OutcomeNames[i], p)
		}
		sum += p
	}
	if math.Abs(sum-1) > DistributionTolerance {
		return fmt.Errorf("%w: sum %f deviates from 1 beyond tolerance", ErrInvalidDistribution, sum)
	}
	return nil
}
