package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// LatentDim is the dimensionality of a team's latent skill representation.
const LatentDim = 16

// Default uncertainty bounds for posterior sigma entries.
const (
	MinUncertainty = 0.1
	MaxUncertainty = 2.0
)

// TeamPosterior is a team's current Gaussian skill estimate: an independent
// mean and standard deviation per latent dimension. It is created with a
// neutral prior on first reference and mutated exactly once per observed
// game by the posterior updater.
type TeamPosterior struct {
	TeamID         string    `db:"team_id" json:"team_id"`
	Mu             []float64 `db:"-" json:"mu"`
	Sigma          []float64 `db:"-" json:"sigma"`
	GamesProcessed int       `db:"games_processed" json:"games_processed"`
	Season         string    `db:"season" json:"season"`
	LastUpdated    time.Time `db:"last_updated" json:"last_updated"`
}

// persistedPosterior is the serialized text form stored in the database.
type persistedPosterior struct {
	Mu             []float64 `json:"mu"`
	Sigma          []float64 `json:"sigma"`
	GamesProcessed int       `json:"games_processed"`
	LastSeason     string    `json:"last_season"`
}

// NewNeutralPosterior returns the neutral prior for a team: mu=0, sigma=1
// on every latent dimension.
func NewNeutralPosterior(teamID, season string) *TeamPosterior {
	p := &TeamPosterior{
		TeamID:      teamID,
		Mu:          make([]float64, LatentDim),
		Sigma:       make([]float64, LatentDim),
		Season:      season,
		LastUpdated: time.Now().UTC(),
	}
	for i := range p.Sigma {
		p.Sigma[i] = 1.0
	}
	return p
}

// Validate checks the posterior's structural invariants: matching vector
// lengths, finite values, and sigma entries within the uncertainty bounds.
func (p *TeamPosterior) Validate() error {
	if len(p.Mu) != LatentDim || len(p.Sigma) != LatentDim {
		return fmt.Errorf("%w: expected %d dimensions, got mu=%d sigma=%d",
			ErrInvalidPosterior, LatentDim, len(p.Mu), len(p.Sigma))
	}
	for i := 0; i < LatentDim; i++ {
		if math.IsNaN(p.Mu[i]) || math.IsInf(p.Mu[i], 0) {
			return fmt.Errorf("%w: mu[%d] is not finite", ErrInvalidPosterior, i)
		}
		if math.IsNaN(p.Sigma[i]) || math.IsInf(p.Sigma[i], 0) {
			return fmt.Errorf("%w: sigma[%d] is not finite", ErrInvalidPosterior, i)
		}
		if p.Sigma[i] < MinUncertainty || p.Sigma[i] > MaxUncertainty {
			return fmt.Errorf("%w: sigma[%d]=%f outside [%f, %f]",
				ErrInvalidPosterior, i, p.Sigma[i], MinUncertainty, MaxUncertainty)
		}
	}
	return nil
}

// Confidence maps the number of processed games to a saturating confidence
// score in [0,1). More observed games always mean higher confidence.
func (p *TeamPosterior) Confidence() float64 {
	return 1 - math.Exp(-float64(p.GamesProcessed)/4.3)
}

// AverageUncertainty returns the mean of the sigma vector.
func (p *TeamPosterior) AverageUncertainty() float64 {
	if len(p.Sigma) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range p.Sigma {
		sum += s
	}
	return sum / float64(len(p.Sigma))
}

// RegressToPrior shrinks the mean toward zero and inflates the variance,
// applied at season boundaries so stale evidence decays. Sigma stays within
// the uncertainty bounds.
func (p *TeamPosterior) RegressToPrior(meanShrink, varianceInflation float64, season string) {
	for i := 0; i < len(p.Mu); i++ {
		p.Mu[i] *= meanShrink
		p.Sigma[i] = math.Sqrt(p.Sigma[i] * p.Sigma[i] * varianceInflation)
		if p.Sigma[i] > MaxUncertainty {
			p.Sigma[i] = MaxUncertainty
		}
		if p.Sigma[i] < MinUncertainty {
			p.Sigma[i] = MinUncertainty
		}
	}
	p.Season = season
	p.LastUpdated = time.Now().UTC()
}

// Clone returns a deep copy.
func (p *TeamPosterior) Clone() *TeamPosterior {
	c := *p
	c.Mu = append([]float64(nil), p.Mu...)
	c.Sigma = append([]float64(nil), p.Sigma...)
	return &c
}

// MarshalPersisted encodes the posterior into its persisted text form.
func (p *TeamPosterior) MarshalPersisted() ([]byte, error) {
	return json.Marshal(persistedPosterior{
		Mu:             p.Mu,
		Sigma:          p.Sigma,
		GamesProcessed: p.GamesProcessed,
		LastSeason:     p.Season,
	})
}

// UnmarshalPersisted decodes the persisted text form into the posterior.
func (p *TeamPosterior) UnmarshalPersisted(data []byte) error {
	var stored persistedPosterior
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to decode posterior: %w", err)
	}
	p.Mu = stored.Mu
	p.Sigma = stored.Sigma
	p.GamesProcessed = stored.GamesProcessed
	p.Season = stored.LastSeason
	return nil
}
