package transition

import (
	"fmt"

	"github.com/yourusername/courtside/internal/models"
)

// Sport tags a transition matrix with the game it models.
type Sport string

// SportBasketball is the only supported sport.
const SportBasketball Sport = "basketball"

// Matrix is the unified tagged form of a per-possession outcome
// distribution. Legacy aggregate shapes are converted into it once at
// ingestion; everything downstream consumes only this type.
type Matrix struct {
	Sport Sport                       `json:"sport"`
	Probs [models.NumOutcomes]float64 `json:"probs"`
}

// Validate checks the sport tag and the distribution contract.
func (m *Matrix) Validate() error {
	if m.Sport != SportBasketball {
		return fmt.Errorf("%w: %q", models.ErrUnsupportedSport, m.Sport)
	}
	return models.ValidateDistribution(m.Probs)
}

// Sport-specific fallback constants used when box-score inputs are zero or
// missing.
const (
	defaultTwoPointPct   = 0.50
	defaultThreePointPct = 0.35
	defaultFreeThrowPct  = 0.72
	defaultTurnoverRate  = 0.14
	defaultOrebRate      = 0.28

	defaultTwoPointShare   = 0.55
	defaultThreePointShare = 0.30
	defaultFreeThrowShare  = 0.15

	// Share of a possession's event mass that an offensive rebound can
	// occupy at the league-maximum rebound rate.
	orebEventWeight = 0.35

	maxTurnoverRate = 0.50
	maxOrebRate     = 0.60
)

// BuildFromBoxScore derives a transition matrix from aggregate box-score
// statistics. This path has no learned components: it is a pure function of
// the inputs, with sport defaults substituted for missing denominators.
func BuildFromBoxScore(stats models.BoxScoreStats, sport Sport) (*Matrix, error) {
	if sport != SportBasketball {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedSport, sport)
	}

	turnoverRate := defaultTurnoverRate
	if stats.Possessions > 0 && stats.Turnovers > 0 {
		turnoverRate = float64(stats.Turnovers) / float64(stats.Possessions)
		if turnoverRate > maxTurnoverRate {
			turnoverRate = maxTurnoverRate
		}
	}

	orebRate := defaultOrebRate
	if stats.TotalRebounds > 0 && stats.OffensiveRebounds > 0 {
		orebRate = float64(stats.OffensiveRebounds) / float64(stats.TotalRebounds)
		if orebRate > maxOrebRate {
			orebRate = maxOrebRate
		}
	}

	twoShare, threeShare, ftShare := attemptShares(stats)
	twoPct := shootingPct(stats.TwoPointMakes, stats.TwoPointAttempts, defaultTwoPointPct)
	threePct := shootingPct(stats.ThreePointMakes, stats.ThreePointAttempts, defaultThreePointPct)
	ftPct := shootingPct(stats.FreeThrowMakes, stats.FreeThrowAttempts, defaultFreeThrowPct)

	orebProb := orebRate * orebEventWeight
	shooting := 1 - turnoverRate - orebProb

	m := &Matrix{Sport: sport}
	m.Probs[models.OutcomeTwoPointMake] = shooting * twoShare * twoPct
	m.Probs[models.OutcomeTwoPointMiss] = shooting * twoShare * (1 - twoPct)
	m.Probs[models.OutcomeThreePointMake] = shooting * threeShare * threePct
	m.Probs[models.OutcomeThreePointMiss] = shooting * threeShare * (1 - threePct)
	m.Probs[models.OutcomeFreeThrowMake] = shooting * ftShare * ftPct
	m.Probs[models.OutcomeFreeThrowMiss] = shooting * ftShare * (1 - ftPct)
	m.Probs[models.OutcomeOffensiveRebound] = orebProb
	m.Probs[models.OutcomeTurnover] = turnoverRate

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func attemptShares(stats models.BoxScoreStats) (two, three, ft float64) {
	total := stats.TwoPointAttempts + stats.ThreePointAttempts + stats.FreeThrowAttempts
	if total == 0 {
		return defaultTwoPointShare, defaultThreePointShare, defaultFreeThrowShare
	}
	return float64(stats.TwoPointAttempts) / float64(total),
		float64(stats.ThreePointAttempts) / float64(total),
		float64(stats.FreeThrowAttempts) / float64(total)
}

func shootingPct(makes, attempts int, fallback float64) float64 {
	if attempts <= 0 {
		return fallback
	}
	pct := float64(makes) / float64(attempts)
	if pct > 1 {
		pct = 1
	}
	return pct
}

// Legacy aggregate split: how a single scoring probability distributes over
// make categories, and how the non-scoring remainder distributes over
// misses, rebounds, and turnovers.
var (
	scoreSplit = [3]float64{0.60, 0.25, 0.15} // 2pt, 3pt, ft makes
	failSplit  = [5]float64{0.40, 0.25, 0.05, 0.12, 0.18}
)

// FromScoreProb converts the legacy single-number aggregate shape (overall
// per-possession scoring probability) into the tagged 8-way matrix. Callers
// holding the old format convert once here and never branch on shape again.
func FromScoreProb(scoreProb float64, sport Sport) (*Matrix, error) {
	if sport != SportBasketball {
		return nil, fmt.Errorf("%w: %q", models.ErrUnsupportedSport, sport)
	}
	if scoreProb < 0 || scoreProb > 1 {
		return nil, fmt.Errorf("%w: score probability %f", models.ErrInvalidDistribution, scoreProb)
	}
	fail := 1 - scoreProb
	m := &Matrix{Sport: sport}
	m.Probs[models.OutcomeTwoPointMake] = scoreProb * scoreSplit[0]
	m.Probs[models.OutcomeThreePointMake] = scoreProb * scoreSplit[1]
	m.Probs[models.OutcomeFreeThrowMake] = scoreProb * scoreSplit[2]
	m.Probs[models.OutcomeTwoPointMiss] = fail * failSplit[0]
	m.Probs[models.OutcomeThreePointMiss] = fail * failSplit[1]
	m.Probs[models.OutcomeFreeThrowMiss] = fail * failSplit[2]
	m.Probs[models.OutcomeOffensiveRebound] = fail * failSplit[3]
	m.Probs[models.OutcomeTurnover] = fail * failSplit[4]
	return m, nil
}

// Generic per-possession scoring rates for the last-resort built-in matrix,
// with a mild home-court edge.
const (
	genericScoreProb = 0.50
	homeCourtEdge    = 0.02
)

// GenericPair returns the built-in home and away matrices used when neither
// the latent model nor a caller-supplied matrix is available.
func GenericPair() (home, away *Matrix) {
	home, _ = FromScoreProb(genericScoreProb+homeCourtEdge, SportBasketball)
	away, _ = FromScoreProb(genericScoreProb, SportBasketball)
	return home, away
}

// Baseline is an OutcomePredictor that ignores its latent inputs and always
// returns the generic league-average distribution. It stands in for the
// transition network until one has been trained, so posterior updates can
// start accumulating evidence from day one.
type Baseline struct{}

// Predict implements OutcomePredictor.
func (Baseline) Predict(_, _, _, _, _ []float64) ([models.NumOutcomes]float64, error) {
	m, err := FromScoreProb(genericScoreProb, SportBasketball)
	if err != nil {
		return [models.NumOutcomes]float64{}, err
	}
	return m.Probs, nil
}
