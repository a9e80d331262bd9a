// Package bayes updates team posteriors after observed games using
// precision-weighted Gaussian fusion. The frozen encoder is never re-run:
// evidence enters through the transition network's prediction error against
// the observed outcome distribution.
package bayes

import (
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/transition"
)

// Config tunes how strongly one game's evidence moves a posterior.
type Config struct {
	// LearningRate scales the likelihood mean's offset from the prior mean.
	LearningRate float64
	// BaseSigma is the likelihood uncertainty when the model's prediction
	// matches the observation exactly.
	BaseSigma float64
	// ErrorScale controls how fast likelihood uncertainty grows with
	// prediction error.
	ErrorScale float64
	// LikelihoodWeight discounts the likelihood precision in the fusion.
	// Must be in (0, 1].
	LikelihoodWeight float64
}

// DefaultConfig returns the production fusion parameters.
func DefaultConfig() Config {
	return Config{
		LearningRate:     0.15,
		BaseSigma:        0.6,
		ErrorScale:       1.5,
		LikelihoodWeight: 1.0,
	}
}

// Per-category value weights for the performance signal. Makes score
// positive, misses and turnovers negative, with three-pointers weighted
// highest.
var performanceWeights = [models.NumOutcomes]float64{
	models.OutcomeTwoPointMake:     1.0,
	models.OutcomeTwoPointMiss:     -0.5,
	models.OutcomeThreePointMake:   1.5,
	models.OutcomeThreePointMiss:   -0.5,
	models.OutcomeFreeThrowMake:    0.5,
	models.OutcomeFreeThrowMiss:    -0.3,
	models.OutcomeOffensiveRebound: 0.3,
	models.OutcomeTurnover:         -1.0,
}

// Context-driven multiplicative adjustments to the fused uncertainty.
const (
	neutralSiteWiden = 1.10
	backToBackWiden  = 1.15
	postseasonNarrow = 0.95
)

const crossEntropyEpsilon = 1e-12

// maxNormalizedCE is the cross-entropy of the uniform distribution, ln(8);
// dividing by it maps prediction error into [0,1].
var maxNormalizedCE = math.Log(float64(models.NumOutcomes))

// Updater performs per-game posterior updates.
type Updater struct {
	predictor transition.OutcomePredictor
	cfg       Config
	log       *logrus.Logger
}

// NewUpdater creates an updater backed by the given likelihood model.
func NewUpdater(predictor transition.OutcomePredictor, cfg Config, log *logrus.Logger) *Updater {
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = DefaultConfig().LearningRate
	}
	if cfg.BaseSigma <= 0 {
		cfg.BaseSigma = DefaultConfig().BaseSigma
	}
	if cfg.ErrorScale < 0 {
		cfg.ErrorScale = DefaultConfig().ErrorScale
	}
	if cfg.LikelihoodWeight <= 0 || cfg.LikelihoodWeight > 1 {
		cfg.LikelihoodWeight = DefaultConfig().LikelihoodWeight
	}
	return &Updater{predictor: predictor, cfg: cfg, log: log}
}

// Update fuses the prior with one game's observed outcome distribution and
// returns the new posterior. The prior is not mutated. A nil opponent uses
// the neutral placeholder (mu=0, sigma=1).
func (u *Updater) Update(prior, opponent *models.TeamPosterior, gameCtx models.GameContext, label *models.TransitionLabel) (*models.TeamPosterior, error) {
	start := time.Now()
	if err := prior.Validate(); err != nil {
		return nil, fmt.Errorf("prior for team %s: %w", prior.TeamID, err)
	}
	if label == nil || label.IsZero() {
		return nil, fmt.Errorf("%w: no observed label for team %s", models.ErrNoTrainingData, prior.TeamID)
	}
	if err := label.Validate(); err != nil {
		return nil, err
	}

	oppMu, oppSigma := opponentVectors(opponent)
	predicted, err := u.predictor.Predict(prior.Mu, prior.Sigma, oppMu, oppSigma, gameCtx.Vector())
	if err != nil {
		return nil, fmt.Errorf("likelihood prediction for team %s: %w", prior.TeamID, err)
	}

	errVal := normalizedCrossEntropy(label.Probs, predicted)
	signal := performanceSignal(label.Probs, predicted)

	likSigma := u.cfg.BaseSigma * (1 + u.cfg.ErrorScale*errVal)
	meanShift := signal * (1 - errVal) * u.cfg.LearningRate

	posterior := prior.Clone()
	clamped := 0
	for i := 0; i < models.LatentDim; i++ {
		likMu := prior.Mu[i] + meanShift

		priorPrec := 1 / (prior.Sigma[i] * prior.Sigma[i])
		likPrec := u.cfg.LikelihoodWeight / (likSigma * likSigma)
		postPrec := priorPrec + likPrec

		posterior.Mu[i] = (prior.Mu[i]*priorPrec + likMu*likPrec) / postPrec
		sigma := math.Sqrt(1 / postPrec)

		sigma *= contextMultiplier(gameCtx)
		if sigma < models.MinUncertainty || sigma > models.MaxUncertainty {
			u.log.WithFields(logrus.Fields{
				"team_id":   prior.TeamID,
				"dimension": i,
				"unclamped": sigma,
			}).Debug("Posterior uncertainty clamped to bounds")
			clamped++
			sigma = math.Min(math.Max(sigma, models.MinUncertainty), models.MaxUncertainty)
		}
		posterior.Sigma[i] = sigma
	}
	if clamped > 0 {
		metrics.PosteriorClampsTotal.Add(float64(clamped))
	}

	posterior.GamesProcessed = prior.GamesProcessed + 1
	posterior.LastUpdated = time.Now().UTC()
	if err := posterior.Validate(); err != nil {
		return nil, fmt.Errorf("fused posterior for team %s: %w", prior.TeamID, err)
	}

	metrics.PosteriorUpdatesTotal.Inc()
	metrics.PosteriorUpdateDuration.Observe(time.Since(start).Seconds())
	u.log.WithFields(logrus.Fields{
		"team_id":            prior.TeamID,
		"game_id":            label.GameID,
		"prediction_error":   errVal,
		"performance_signal": signal,
		"games_processed":    posterior.GamesProcessed,
		"clamped_dimensions": clamped,
	}).Info("Applied posterior update")
	return posterior, nil
}

func opponentVectors(opponent *models.TeamPosterior) (mu, sigma []float64) {
	if opponent != nil && opponent.Validate() == nil {
		return opponent.Mu, opponent.Sigma
	}
	neutral := models.NewNeutralPosterior("", "")
	return neutral.Mu, neutral.Sigma
}

// normalizedCrossEntropy maps the cross-entropy between the observed and
// predicted distributions into [0,1] by dividing by ln(8).
func normalizedCrossEntropy(actual, predicted [models.NumOutcomes]float64) float64 {
	ce := 0.0
	for i := range actual {
		ce -= actual[i] * math.Log(predicted[i]+crossEntropyEpsilon)
	}
	norm := ce / maxNormalizedCE
	return math.Min(math.Max(norm, 0), 1)
}

// performanceSignal squashes the value-weighted residual between observed
// and predicted outcomes into (-1, 1).
func performanceSignal(actual, predicted [models.NumOutcomes]float64) float64 {
	sum := 0.0
	for i := range actual {
		sum += performanceWeights[i] * (actual[i] - predicted[i])
	}
	return math.Tanh(sum)
}

func contextMultiplier(gameCtx models.GameContext) float64 {
	m := 1.0
	if gameCtx.NeutralSite {
		m *= neutralSiteWiden
	}
	if gameCtx.BackToBack() {
		m *= backToBackWiden
	}
	if gameCtx.Postseason {
		m *= postseasonNarrow
	}
	return m
}
