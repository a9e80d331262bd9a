package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/bayes"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/models"
)

// memPosteriorRepo is a map-backed PosteriorRepository for tests.
type memPosteriorRepo struct {
	mu    sync.Mutex
	store map[string]*models.TeamPosterior
}

func newMemPosteriorRepo() *memPosteriorRepo {
	return &memPosteriorRepo{store: make(map[string]*models.TeamPosterior)}
}

func (r *memPosteriorRepo) Get(_ context.Context, teamID string) (*models.TeamPosterior, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store[teamID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p.Clone(), nil
}

func (r *memPosteriorRepo) Upsert(_ context.Context, posterior *models.TeamPosterior) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[posterior.TeamID] = posterior.Clone()
	return nil
}

func (r *memPosteriorRepo) ListBySeason(_ context.Context, season string) ([]*models.TeamPosterior, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.TeamPosterior
	for _, p := range r.store {
		if p.Season == season {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

type uniformPredictor struct{}

func (uniformPredictor) Predict(_, _, _, _, _ []float64) ([models.NumOutcomes]float64, error) {
	var p [models.NumOutcomes]float64
	for i := range p {
		p[i] = 1.0 / float64(models.NumOutcomes)
	}
	return p, nil
}

func observedLabel(teamID string) *models.TransitionLabel {
	var probs [models.NumOutcomes]float64
	probs[models.OutcomeTwoPointMake] = 0.30
	probs[models.OutcomeTwoPointMiss] = 0.25
	probs[models.OutcomeThreePointMake] = 0.10
	probs[models.OutcomeThreePointMiss] = 0.15
	probs[models.OutcomeFreeThrowMake] = 0.05
	probs[models.OutcomeFreeThrowMiss] = 0.02
	probs[models.OutcomeOffensiveRebound] = 0.05
	probs[models.OutcomeTurnover] = 0.08
	return &models.TransitionLabel{
		GameID:     uuid.New(),
		TeamID:     teamID,
		Probs:      probs,
		ComputedAt: time.Now().UTC(),
	}
}

func newTestPosteriorService(repo *memPosteriorRepo) *PosteriorService {
	log := logger.NewLogger("error")
	updater := bayes.NewUpdater(uniformPredictor{}, bayes.DefaultConfig(), log)
	return NewPosteriorService(repo, updater, "2025-26", log)
}

func TestGetOrCreateReturnsNeutralPrior(t *testing.T) {
	svc := newTestPosteriorService(newMemPosteriorRepo())

	p, err := svc.GetOrCreate(context.Background(), "duke")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if p.GamesProcessed != 0 {
		t.Fatalf("neutral prior has %d games processed", p.GamesProcessed)
	}
	for i := range p.Sigma {
		if p.Mu[i] != 0 || p.Sigma[i] != 1 {
			t.Fatalf("expected neutral prior, got mu[%d]=%v sigma[%d]=%v", i, p.Mu[i], i, p.Sigma[i])
		}
	}
}

func TestApplyGamePersistsUpdate(t *testing.T) {
	repo := newMemPosteriorRepo()
	svc := newTestPosteriorService(repo)
	ctx := models.GameContext{HomeGame: true, RestDays: 3}

	updated, err := svc.ApplyGame(context.Background(), "duke", "unc", ctx, observedLabel("duke"))
	if err != nil {
		t.Fatalf("ApplyGame failed: %v", err)
	}
	if updated.GamesProcessed != 1 {
		t.Fatalf("expected 1 game processed, got %d", updated.GamesProcessed)
	}

	stored, err := repo.Get(context.Background(), "duke")
	if err != nil {
		t.Fatalf("posterior was not persisted: %v", err)
	}
	if stored.GamesProcessed != 1 {
		t.Fatalf("persisted posterior has %d games processed", stored.GamesProcessed)
	}
	if stored.Season != "2025-26" {
		t.Fatalf("persisted posterior season = %s", stored.Season)
	}
}

func TestApplyGameSerializesPerTeam(t *testing.T) {
	repo := newMemPosteriorRepo()
	svc := newTestPosteriorService(repo)
	ctx := models.GameContext{HomeGame: true, RestDays: 3}

	const updates = 20
	var wg sync.WaitGroup
	for i := 0; i < updates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ApplyGame(context.Background(), "duke", "unc", ctx, observedLabel("duke")); err != nil {
				t.Errorf("ApplyGame failed: %v", err)
			}
		}()
	}
	wg.Wait()

	stored, err := repo.Get(context.Background(), "duke")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	// Without per-team serialization the read-then-write race would lose
	// updates and the count would come up short.
	if stored.GamesProcessed != updates {
		t.Fatalf("expected %d games processed, got %d", updates, stored.GamesProcessed)
	}
}

func TestStartNewSeasonRegressesPosteriors(t *testing.T) {
	repo := newMemPosteriorRepo()
	svc := newTestPosteriorService(repo)

	p := models.NewNeutralPosterior("duke", "2025-26")
	for i := range p.Mu {
		p.Mu[i] = 1.0
		p.Sigma[i] = 0.4
	}
	p.GamesProcessed = 30
	if err := repo.Upsert(context.Background(), p); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	n, err := svc.StartNewSeason(context.Background(), "2026-27")
	if err != nil {
		t.Fatalf("StartNewSeason failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 regressed posterior, got %d", n)
	}

	regressed, err := repo.Get(context.Background(), "duke")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if regressed.Season != "2026-27" {
		t.Fatalf("season not rolled over: %s", regressed.Season)
	}
	if regressed.Mu[0] != 0.5 {
		t.Fatalf("mean not shrunk: %v", regressed.Mu[0])
	}
	if regressed.Sigma[0] <= 0.4 {
		t.Fatalf("variance not inflated: %v", regressed.Sigma[0])
	}
}
