// Package simulation runs possession-level Monte Carlo game simulations on
// top of the latent model, degrading to deterministic fallback matrices when
// the latent pipeline is unavailable.
package simulation

import (
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/transition"
)

// Simulation defaults. A college game averages around 70 possessions per
// side.
const (
	DefaultIterations  = 10000
	DefaultPossessions = 70

	// DefaultMaxOrebChain bounds consecutive offensive-rebound continuations
	// of a single possession. An empirically chosen guard, kept configurable.
	DefaultMaxOrebChain = 10
)

// Config tunes a simulator instance.
type Config struct {
	Iterations   int
	Possessions  int
	MaxOrebChain int
	// KeepScores retains the per-iteration score arrays on the result.
	KeepScores bool
}

// DefaultConfig returns the production simulation parameters.
func DefaultConfig() Config {
	return Config{
		Iterations:   DefaultIterations,
		Possessions:  DefaultPossessions,
		MaxOrebChain: DefaultMaxOrebChain,
	}
}

// Request describes one matchup to simulate. Posteriors and fallback
// matrices are both optional: the simulator picks the best available tier.
type Request struct {
	HomeTeamID string
	AwayTeamID string

	HomePosterior *models.TeamPosterior
	AwayPosterior *models.TeamPosterior
	Context       models.GameContext

	// Caller-supplied deterministic matrices, used when the latent path is
	// unavailable.
	HomeMatrix *transition.Matrix
	AwayMatrix *transition.Matrix
}

// Simulator runs seeded Monte Carlo simulations. It is not safe for
// concurrent use; callers own one instance per goroutine.
type Simulator struct {
	predictor transition.OutcomePredictor
	cfg       Config
	rng       *rand.Rand
	log       *logrus.Logger
}

// New creates a simulator. The predictor may be nil, in which case every
// call uses a fallback tier.
func New(predictor transition.OutcomePredictor, cfg Config, seed int64, log *logrus.Logger) *Simulator {
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.Possessions <= 0 {
		cfg.Possessions = DefaultPossessions
	}
	if cfg.MaxOrebChain <= 0 {
		cfg.MaxOrebChain = DefaultMaxOrebChain
	}
	return &Simulator{
		predictor: predictor,
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		log:       log,
	}
}

// Simulate runs the configured number of independent games and aggregates
// them. It never returns an error: every predictable failure degrades to a
// lower data-source tier, tagged on the result.
func (s *Simulator) Simulate(req Request) *models.SimulationResult {
	start := time.Now()

	homeProbs, awayProbs, source, uncertainty := s.selectSource(req)

	homeScores := make([]int, s.cfg.Iterations)
	awayScores := make([]int, s.cfg.Iterations)
	homeWins, awayWins, ties := 0, 0, 0
	for i := 0; i < s.cfg.Iterations; i++ {
		h := s.simulateTeamGame(homeProbs)
		a := s.simulateTeamGame(awayProbs)
		homeScores[i], awayScores[i] = h, a
		switch {
		case h > a:
			homeWins++
		case a > h:
			awayWins++
		default:
			ties++
		}
	}

	n := float64(s.cfg.Iterations)
	homeMean, homeStd := meanStd(homeScores)
	awayMean, awayStd := meanStd(awayScores)
	marginMean, marginStd := marginStats(homeScores, awayScores)

	result := &models.SimulationResult{
		HomeTeamID:    req.HomeTeamID,
		AwayTeamID:    req.AwayTeamID,
		Iterations:    s.cfg.Iterations,
		HomeWinProb:   float64(homeWins) / n,
		AwayWinProb:   float64(awayWins) / n,
		TieProb:       float64(ties) / n,
		HomeScoreMean: homeMean,
		HomeScoreStd:  homeStd,
		AwayScoreMean: awayMean,
		AwayScoreStd:  awayStd,
		MarginMean:    marginMean,
		MarginStd:     marginStd,
		Source:        source,
		Uncertainty:   uncertainty,
		SimulatedAt:   time.Now().UTC(),
	}
	if s.cfg.KeepScores {
		result.HomeScores = homeScores
		result.AwayScores = awayScores
	}

	metrics.SimulationsTotal.WithLabelValues(string(source)).Inc()
	metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	return result
}

// selectSource resolves the transition probabilities for both teams, walking
// down the tiers: latent model, caller-supplied matrices, built-in generic.
func (s *Simulator) selectSource(req Request) (home, away [models.NumOutcomes]float64, source models.DataSource, uncertainty *models.UncertaintyMetrics) {
	if probs, metricsOut, ok := s.latentProbs(req); ok {
		return probs[0], probs[1], models.DataSourceLatentModel, metricsOut
	}

	if req.HomeMatrix != nil && req.AwayMatrix != nil {
		if req.HomeMatrix.Validate() == nil && req.AwayMatrix.Validate() == nil {
			return req.HomeMatrix.Probs, req.AwayMatrix.Probs, models.DataSourceFallbackMatrix, nil
		}
		s.fallback("invalid_matrix", req, "Caller-supplied matrix failed validation")
	}

	homeMatrix, awayMatrix := transition.GenericPair()
	return homeMatrix.Probs, awayMatrix.Probs, models.DataSourceFallbackGenerated, nil
}

// latentProbs attempts the latent-model tier. Each team's latent vector is
// sampled from its posterior once per call; the posterior's variance rides
// along in the variance slots of the network input.
func (s *Simulator) latentProbs(req Request) ([2][models.NumOutcomes]float64, *models.UncertaintyMetrics, bool) {
	var out [2][models.NumOutcomes]float64
	if s.predictor == nil {
		s.fallback("no_model", req, "No transition network loaded")
		return out, nil, false
	}
	if req.HomePosterior == nil || req.AwayPosterior == nil {
		s.fallback("missing_posterior", req, "Posterior missing for at least one team")
		return out, nil, false
	}
	if err := req.HomePosterior.Validate(); err != nil {
		s.fallback("invalid_posterior", req, "Home posterior failed validation")
		return out, nil, false
	}
	if err := req.AwayPosterior.Validate(); err != nil {
		s.fallback("invalid_posterior", req, "Away posterior failed validation")
		return out, nil, false
	}

	homeSample := s.sampleLatent(req.HomePosterior)
	awaySample := s.sampleLatent(req.AwayPosterior)
	homeCtx := req.Context.Vector()
	awayCtx := flipVenue(req.Context).Vector()

	homeProbs, err := s.predictor.Predict(homeSample, req.HomePosterior.Sigma, awaySample, req.AwayPosterior.Sigma, homeCtx)
	if err != nil {
		s.fallback("prediction_failed", req, "Transition network rejected home input")
		return out, nil, false
	}
	awayProbs, err := s.predictor.Predict(awaySample, req.AwayPosterior.Sigma, homeSample, req.HomePosterior.Sigma, awayCtx)
	if err != nil {
		s.fallback("prediction_failed", req, "Transition network rejected away input")
		return out, nil, false
	}
	if models.ValidateDistribution(homeProbs) != nil || models.ValidateDistribution(awayProbs) != nil {
		s.fallback("invalid_prediction", req, "Transition network produced an invalid distribution")
		return out, nil, false
	}

	out[0], out[1] = homeProbs, awayProbs
	return out, uncertaintyMetrics(req.HomePosterior, req.AwayPosterior), true
}

func (s *Simulator) sampleLatent(p *models.TeamPosterior) []float64 {
	z := make([]float64, models.LatentDim)
	for i := range z {
		z[i] = p.Mu[i] + p.Sigma[i]*s.rng.NormFloat64()
	}
	return z
}

func (s *Simulator) fallback(reason string, req Request, msg string) {
	metrics.SimulationFallbacksTotal.WithLabelValues(reason).Inc()
	s.log.WithFields(logrus.Fields{
		"home_team": req.HomeTeamID,
		"away_team": req.AwayTeamID,
		"reason":    reason,
	}).Warn(msg)
}

// simulateTeamGame plays one team's possessions and returns the points
// scored. An offensive rebound continues the possession, bounded by the
// configured chain limit.
func (s *Simulator) simulateTeamGame(probs [models.NumOutcomes]float64) int {
	points := 0
	for p := 0; p < s.cfg.Possessions; p++ {
		for chain := 0; chain <= s.cfg.MaxOrebChain; chain++ {
			outcome := s.drawOutcome(probs)
			if outcome == models.OutcomeOffensiveRebound {
				continue
			}
			points += outcomePoints(outcome)
			break
		}
	}
	return points
}

// drawOutcome samples one categorical outcome by cumulative probability.
func (s *Simulator) drawOutcome(probs [models.NumOutcomes]float64) int {
	r := s.rng.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if r < cum {
			return i
		}
	}
	return models.NumOutcomes - 1
}

func outcomePoints(outcome int) int {
	switch outcome {
	case models.OutcomeTwoPointMake:
		return 2
	case models.OutcomeThreePointMake:
		return 3
	case models.OutcomeFreeThrowMake:
		return 1
	default:
		return 0
	}
}

// flipVenue mirrors the game context to the visiting team's perspective.
func flipVenue(ctx models.GameContext) models.GameContext {
	if !ctx.NeutralSite {
		ctx.HomeGame = !ctx.HomeGame
	}
	return ctx
}

func uncertaintyMetrics(home, away *models.TeamPosterior) *models.UncertaintyMetrics {
	h := home.AverageUncertainty()
	a := away.AverageUncertainty()
	avg := (h + a) / 2
	// Map average sigma across the [0.1, 2.0] uncertainty range onto a
	// confidence score; sigma near 1.0 (neutral prior) lands at zero.
	confidence := 1 - (avg-models.MinUncertainty)/0.9
	confidence = math.Min(math.Max(confidence, 0), 1)
	return &models.UncertaintyMetrics{
		HomeAvgUncertainty:   h,
		AwayAvgUncertainty:   a,
		PredictionConfidence: confidence,
	}
}

func meanStd(scores []int) (mean, std float64) {
	n := float64(len(scores))
	sum := 0.0
	for _, v := range scores {
		sum += float64(v)
	}
	mean = sum / n
	variance := 0.0
	for _, v := range scores {
		d := float64(v) - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / n)
}

func marginStats(home, away []int) (mean, std float64) {
	n := float64(len(home))
	sum := 0.0
	for i := range home {
		sum += float64(home[i] - away[i])
	}
	mean = sum / n
	variance := 0.0
	for i := range home {
		d := float64(home[i]-away[i]) - mean
		variance += d * d
	}
	return mean, math.Sqrt(variance / n)
}
