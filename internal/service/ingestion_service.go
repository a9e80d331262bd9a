package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/courtside/internal/datasource"
	"github.com/yourusername/courtside/internal/labels"
	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/repository"
)

// IngestionService handles the nightly label ingestion workflow: fetch final
// games, compute each team's transition label from the play-by-play log,
// persist it, and apply the posterior update.
type IngestionService struct {
	source     datasource.GameDataSource
	labelRepo  repository.LabelRepository
	posteriors *PosteriorService
	computer   *labels.Computer
	logger     *log.Logger
	batchSize  int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	source datasource.GameDataSource,
	labelRepo repository.LabelRepository,
	posteriors *PosteriorService,
	computer *labels.Computer,
	logger *log.Logger,
	batchSize int,
) *IngestionService {
	if batchSize <= 0 {
		batchSize = 100
	}

	return &IngestionService{
		source:     source,
		labelRepo:  labelRepo,
		posteriors: posteriors,
		computer:   computer,
		logger:     logger,
		batchSize:  batchSize,
	}
}

// IngestionReport summarizes one ingestion run
type IngestionReport struct {
	Games          int
	LabelsComputed int
	LabelsFailed   int
	Updates        int
}

func (r IngestionReport) String() string {
	return fmt.Sprintf("games=%d labels=%d failed=%d posterior_updates=%d",
		r.Games, r.LabelsComputed, r.LabelsFailed, r.Updates)
}

// IngestFinalGames processes every game that went final on the given date.
// Per-game failures are logged and skipped so one bad feed does not stall
// the nightly run.
func (s *IngestionService) IngestFinalGames(ctx context.Context, date time.Time) (IngestionReport, error) {
	report := IngestionReport{}

	games, err := s.source.FetchFinalGames(ctx, date)
	if err != nil {
		return report, fmt.Errorf("failed to fetch final games: %w", err)
	}
	report.Games = len(games)
	if len(games) > s.batchSize {
		games = games[:s.batchSize]
		s.logger.Printf("Truncating ingestion run to batch size %d", s.batchSize)
	}

	for _, game := range games {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.ingestGame(ctx, game, &report); err != nil {
			s.logger.Printf("Skipping game %s: %v", game.GameID, err)
		}
	}

	s.logger.Printf("Ingestion completed: %s", report.String())
	return report, nil
}

func (s *IngestionService) ingestGame(ctx context.Context, game datasource.GameSummary, report *IngestionReport) error {
	events, err := s.source.FetchPlayByPlay(ctx, game.GameID)
	if err != nil {
		return fmt.Errorf("failed to fetch play-by-play: %w", err)
	}

	sides := []struct {
		teamID     string
		opponentID string
		home       bool
	}{
		{game.HomeTeamID, game.AwayTeamID, true},
		{game.AwayTeamID, game.HomeTeamID, false},
	}

	for _, side := range sides {
		label, err := s.computer.ComputeLabel(game.GameID, side.teamID, events)
		if err != nil {
			report.LabelsFailed++
			s.logger.Printf("Label computation failed for team %s in game %s: %v",
				side.teamID, game.GameID, err)
			continue
		}
		if err := s.labelRepo.Upsert(ctx, label); err != nil {
			report.LabelsFailed++
			s.logger.Printf("Label persistence failed for team %s in game %s: %v",
				side.teamID, game.GameID, err)
			continue
		}
		report.LabelsComputed++

		// Zero labels (no observed possessions) carry no evidence.
		if label.IsZero() {
			continue
		}
		gameCtx := contextForSide(game, side.home)
		if _, err := s.posteriors.ApplyGame(ctx, side.teamID, side.opponentID, gameCtx, label); err != nil {
			s.logger.Printf("Posterior update failed for team %s in game %s: %v",
				side.teamID, game.GameID, err)
			continue
		}
		report.Updates++
	}
	return nil
}

// contextForSide builds the game context known from the schedule feed alone.
// Rest and travel are not in the feed; the neutral defaults are used.
func contextForSide(game datasource.GameSummary, home bool) models.GameContext {
	return models.GameContext{
		HomeGame:   home,
		RestDays:   3,
		TipoffHour: game.Tipoff.UTC().Hour(),
		DayOfWeek:  game.Tipoff.UTC().Weekday(),
	}
}
