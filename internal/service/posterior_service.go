// Package service orchestrates the engine's workflows: posterior updates,
// game simulations, and scheduled label ingestion.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/bayes"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/repository"
)

// PosteriorService serializes per-team posterior updates. The repository's
// read-then-write pattern is not atomic, so concurrent updates for the same
// team are funneled through a per-team lock.
type PosteriorService struct {
	repo    repository.PosteriorRepository
	updater *bayes.Updater
	season  string
	logger  *logrus.Logger

	meanShrink        float64
	varianceInflation float64

	mu        sync.Mutex
	teamLocks map[string]*sync.Mutex
}

// NewPosteriorService creates a posterior service for the given season.
func NewPosteriorService(repo repository.PosteriorRepository, updater *bayes.Updater, season string, logger *logrus.Logger) *PosteriorService {
	return &PosteriorService{
		repo:              repo,
		updater:           updater,
		season:            season,
		logger:            logger,
		meanShrink:        SeasonMeanShrink,
		varianceInflation: SeasonVarianceInflation,
		teamLocks:         make(map[string]*sync.Mutex),
	}
}

// SetSeasonRegression overrides the default rollover parameters. Values out
// of range keep the defaults.
func (s *PosteriorService) SetSeasonRegression(meanShrink, varianceInflation float64) {
	if meanShrink > 0 && meanShrink <= 1 {
		s.meanShrink = meanShrink
	}
	if varianceInflation >= 1 {
		s.varianceInflation = varianceInflation
	}
}

func (s *PosteriorService) lockForTeam(teamID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.teamLocks[teamID]
	if !ok {
		l = &sync.Mutex{}
		s.teamLocks[teamID] = l
	}
	return l
}

// GetOrCreate returns a team's stored posterior, or the neutral prior for a
// team never seen before. The neutral prior is not persisted until the first
// update.
func (s *PosteriorService) GetOrCreate(ctx context.Context, teamID string) (*models.TeamPosterior, error) {
	posterior, err := s.repo.Get(ctx, teamID)
	if errors.Is(err, models.ErrNotFound) {
		return models.NewNeutralPosterior(teamID, s.season), nil
	}
	if err != nil {
		return nil, err
	}
	return posterior, nil
}

// ApplyGame updates one team's posterior from an observed game label and
// persists the result. Updates for the same team are serialized; updates for
// different teams may run concurrently.
func (s *PosteriorService) ApplyGame(ctx context.Context, teamID, opponentID string, gameCtx models.GameContext, label *models.TransitionLabel) (*models.TeamPosterior, error) {
	lock := s.lockForTeam(teamID)
	lock.Lock()
	defer lock.Unlock()

	prior, err := s.GetOrCreate(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to load prior for team %s: %w", teamID, err)
	}

	// Opponent posterior is read-only here; a missing one falls back to the
	// neutral placeholder inside the updater.
	var opponent *models.TeamPosterior
	if opponentID != "" {
		opponent, err = s.repo.Get(ctx, opponentID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("failed to load opponent %s: %w", opponentID, err)
		}
	}

	posterior, err := s.updater.Update(prior, opponent, gameCtx, label)
	if err != nil {
		return nil, err
	}
	posterior.Season = s.season

	if err := s.repo.Upsert(ctx, posterior); err != nil {
		return nil, fmt.Errorf("failed to persist posterior for team %s: %w", teamID, err)
	}
	return posterior, nil
}

// Season boundary regression parameters: shrink means toward the neutral
// prior and inflate variances so stale evidence decays.
const (
	SeasonMeanShrink        = 0.5
	SeasonVarianceInflation = 1.25
)

// StartNewSeason regresses every stored posterior toward the neutral prior
// and re-tags it with the new season.
func (s *PosteriorService) StartNewSeason(ctx context.Context, season string) (int, error) {
	posteriors, err := s.repo.ListBySeason(ctx, s.season)
	if err != nil {
		return 0, fmt.Errorf("failed to list posteriors for season %s: %w", s.season, err)
	}

	regressed := 0
	for _, p := range posteriors {
		lock := s.lockForTeam(p.TeamID)
		lock.Lock()
		p.RegressToPrior(s.meanShrink, s.varianceInflation, season)
		err := s.repo.Upsert(ctx, p)
		lock.Unlock()
		if err != nil {
			return regressed, fmt.Errorf("failed to persist regressed posterior for team %s: %w", p.TeamID, err)
		}
		regressed++
	}

	s.season = season
	s.logger.WithFields(logrus.Fields{
		"season": season,
		"teams":  regressed,
	}).Info("Season rollover applied to all posteriors")
	return regressed, nil
}
