package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/repository"
	"github.com/yourusername/courtside/internal/simulation"
	"github.com/yourusername/courtside/internal/transition"
)

// SimulationService loads posteriors and the frozen transition network, then
// runs Monte Carlo simulations for a matchup.
type SimulationService struct {
	posteriors repository.PosteriorRepository
	models     repository.ModelRepository
	simConfig  simulation.Config
	logger     *logrus.Logger
}

// NewSimulationService creates a simulation service.
func NewSimulationService(posteriors repository.PosteriorRepository, modelRepo repository.ModelRepository, simConfig simulation.Config, logger *logrus.Logger) *SimulationService {
	return &SimulationService{
		posteriors: posteriors,
		models:     modelRepo,
		simConfig:  simConfig,
		logger:     logger,
	}
}

// LoadPredictor restores the newest usable transition network, or nil when
// none has been trained yet. A nil predictor is not an error: the simulator
// degrades to fallback matrices.
func (s *SimulationService) LoadPredictor(ctx context.Context) (*transition.Network, error) {
	snapshot, err := s.models.GetLatestUsable(ctx, models.ModelNameTransitionNetwork)
	if errors.Is(err, models.ErrNotFound) {
		s.logger.Warn("No usable transition network snapshot, simulations will use fallback matrices")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transition network: %w", err)
	}
	return transition.FromSnapshot(snapshot)
}

// HasUsableModel reports whether a frozen, training-complete transition
// network is available. Satisfies the health server's readiness check.
func (s *SimulationService) HasUsableModel(ctx context.Context) bool {
	_, err := s.models.GetLatestUsable(ctx, models.ModelNameTransitionNetwork)
	return err == nil
}

// SimulateMatchup runs the full pipeline for one game: load both posteriors
// (missing ones stay nil and trigger fallback), load the model, simulate.
func (s *SimulationService) SimulateMatchup(ctx context.Context, homeTeamID, awayTeamID string, gameCtx models.GameContext, seed int64) (*models.SimulationResult, error) {
	predictor, err := s.LoadPredictor(ctx)
	if err != nil {
		return nil, err
	}

	req := simulation.Request{
		HomeTeamID: homeTeamID,
		AwayTeamID: awayTeamID,
		Context:    gameCtx,
	}
	req.HomePosterior = s.loadPosterior(ctx, homeTeamID)
	req.AwayPosterior = s.loadPosterior(ctx, awayTeamID)

	sim := simulation.New(predictorOrNil(predictor), s.simConfig, seed, s.logger)
	result := sim.Simulate(req)

	s.logger.WithFields(logrus.Fields{
		"home_team":     homeTeamID,
		"away_team":     awayTeamID,
		"home_win_prob": result.HomeWinProb,
		"data_source":   result.Source,
	}).Info("Simulated matchup")
	return result, nil
}

// loadPosterior returns nil on any failure; the simulator treats a nil
// posterior as a fallback trigger, never a hard error.
func (s *SimulationService) loadPosterior(ctx context.Context, teamID string) *models.TeamPosterior {
	posterior, err := s.posteriors.Get(ctx, teamID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.WithError(err).WithField("team_id", teamID).Warn("Failed to load posterior")
		}
		return nil
	}
	return posterior
}

// predictorOrNil avoids handing the simulator a typed-nil interface.
func predictorOrNil(n *transition.Network) transition.OutcomePredictor {
	if n == nil {
		return nil
	}
	return n
}
