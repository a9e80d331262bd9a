package bayes

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/models"
)

// stubPredictor returns a fixed distribution regardless of input.
type stubPredictor struct {
	probs [models.NumOutcomes]float64
	err   error
}

func (s stubPredictor) Predict(_, _, _, _, _ []float64) ([models.NumOutcomes]float64, error) {
	return s.probs, s.err
}

func uniformProbs() [models.NumOutcomes]float64 {
	var p [models.NumOutcomes]float64
	for i := range p {
		p[i] = 1.0 / float64(models.NumOutcomes)
	}
	return p
}

func observedLabel(probs [models.NumOutcomes]float64) *models.TransitionLabel {
	return &models.TransitionLabel{
		GameID:     uuid.New(),
		TeamID:     "unc",
		Probs:      probs,
		ComputedAt: time.Now().UTC(),
	}
}

func newTestUpdater(predicted [models.NumOutcomes]float64) *Updater {
	return NewUpdater(stubPredictor{probs: predicted}, DefaultConfig(), logger.NewLogger("error"))
}

func TestUpdateShrinksUncertainty(t *testing.T) {
	u := newTestUpdater(uniformProbs())
	prior := models.NewNeutralPosterior("unc", "2025-26")

	// Plain context: multiplier is exactly 1, so the fusion invariant is
	// directly observable on the result.
	ctx := models.GameContext{HomeGame: true, RestDays: 3}

	posterior, err := u.Update(prior, nil, ctx, observedLabel(uniformProbs()))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	likSigma := u.cfg.BaseSigma * (1 + u.cfg.ErrorScale) // error can be at most 1
	for i := 0; i < models.LatentDim; i++ {
		bound := math.Min(prior.Sigma[i], likSigma)
		if posterior.Sigma[i] > bound+1e-12 {
			t.Fatalf("sigma[%d]=%v exceeds min(prior, likelihood)=%v", i, posterior.Sigma[i], bound)
		}
	}
	if posterior.GamesProcessed != prior.GamesProcessed+1 {
		t.Fatalf("games processed %d, want %d", posterior.GamesProcessed, prior.GamesProcessed+1)
	}
	// The input prior must not be mutated.
	if prior.GamesProcessed != 0 || prior.Sigma[0] != 1.0 {
		t.Fatal("prior was mutated by Update")
	}
}

func TestUpdateMeanBetweenPriorAndLikelihood(t *testing.T) {
	// The team outperformed the prediction on makes: the performance signal
	// is positive, so the likelihood mean sits above the prior mean and the
	// fused mean must land strictly between them.
	predicted := [models.NumOutcomes]float64{
		models.OutcomeTwoPointMake:     0.30,
		models.OutcomeTwoPointMiss:     0.10,
		models.OutcomeThreePointMake:   0.20,
		models.OutcomeThreePointMiss:   0.10,
		models.OutcomeFreeThrowMake:    0.10,
		models.OutcomeFreeThrowMiss:    0.05,
		models.OutcomeOffensiveRebound: 0.05,
		models.OutcomeTurnover:         0.10,
	}

	var actual [models.NumOutcomes]float64
	actual[models.OutcomeTwoPointMake] = 0.45
	actual[models.OutcomeThreePointMake] = 0.30
	actual[models.OutcomeFreeThrowMake] = 0.15
	actual[models.OutcomeTurnover] = 0.10

	u := newTestUpdater(predicted)
	prior := models.NewNeutralPosterior("duke", "2025-26")
	ctx := models.GameContext{HomeGame: true, RestDays: 2}

	posterior, err := u.Update(prior, nil, ctx, observedLabel(actual))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	for i := 0; i < models.LatentDim; i++ {
		if posterior.Mu[i] <= prior.Mu[i] {
			t.Fatalf("mu[%d]=%v did not move toward the likelihood mean", i, posterior.Mu[i])
		}
	}
}

func TestUpdateClampsToUncertaintyBounds(t *testing.T) {
	u := newTestUpdater(uniformProbs())
	prior := models.NewNeutralPosterior("unc", "2025-26")
	for i := range prior.Sigma {
		prior.Sigma[i] = models.MinUncertainty
	}
	ctx := models.GameContext{HomeGame: true, RestDays: 4}

	posterior, err := u.Update(prior, nil, ctx, observedLabel(uniformProbs()))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	for i, s := range posterior.Sigma {
		if s < models.MinUncertainty || s > models.MaxUncertainty {
			t.Fatalf("sigma[%d]=%v outside uncertainty bounds", i, s)
		}
	}
}

func TestUpdateContextWidensUncertainty(t *testing.T) {
	u := newTestUpdater(uniformProbs())
	prior := models.NewNeutralPosterior("unc", "2025-26")
	plain := models.GameContext{HomeGame: true, RestDays: 3}
	b2b := models.GameContext{NeutralSite: true, RestDays: 0}

	base, err := u.Update(prior, nil, plain, observedLabel(uniformProbs()))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	widened, err := u.Update(prior, nil, b2b, observedLabel(uniformProbs()))
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if widened.Sigma[0] <= base.Sigma[0] {
		t.Fatalf("neutral-site back-to-back should widen uncertainty: %v vs %v",
			widened.Sigma[0], base.Sigma[0])
	}
}

func TestUpdateRejectsBadInputs(t *testing.T) {
	u := newTestUpdater(uniformProbs())
	ctx := models.GameContext{HomeGame: true, RestDays: 3}

	bad := models.NewNeutralPosterior("unc", "2025-26")
	bad.Sigma[3] = math.NaN()
	if _, err := u.Update(bad, nil, ctx, observedLabel(uniformProbs())); err == nil {
		t.Fatal("expected error for non-finite prior")
	}

	prior := models.NewNeutralPosterior("unc", "2025-26")
	if _, err := u.Update(prior, nil, ctx, nil); err == nil {
		t.Fatal("expected error for missing label")
	}
	var skewed [models.NumOutcomes]float64
	skewed[0] = 0.7 // does not sum to 1
	if _, err := u.Update(prior, nil, ctx, observedLabel(skewed)); err == nil {
		t.Fatal("expected error for invalid observed distribution")
	}
}

func TestNormalizedCrossEntropyRange(t *testing.T) {
	uniform := uniformProbs()
	if got := normalizedCrossEntropy(uniform, uniform); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("uniform-vs-uniform normalized CE = %v, want 1", got)
	}

	var confident [models.NumOutcomes]float64
	confident[models.OutcomeTwoPointMake] = 1.0
	if got := normalizedCrossEntropy(confident, confident); got > 1e-9 {
		t.Fatalf("perfect prediction normalized CE = %v, want ~0", got)
	}

	var wrong [models.NumOutcomes]float64
	wrong[models.OutcomeTurnover] = 1.0
	if got := normalizedCrossEntropy(confident, wrong); got != 1.0 {
		t.Fatalf("maximally wrong prediction should clamp to 1, got %v", got)
	}
}
