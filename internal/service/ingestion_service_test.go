package service

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/datasource"
	"github.com/yourusername/courtside/internal/labels"
	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/models"
)

// memLabelRepo is a map-backed LabelRepository for tests.
type memLabelRepo struct {
	mu    sync.Mutex
	store map[string]models.TransitionLabel
}

func newMemLabelRepo() *memLabelRepo {
	return &memLabelRepo{store: make(map[string]models.TransitionLabel)}
}

func (r *memLabelRepo) key(gameID uuid.UUID, teamID string) string {
	return gameID.String() + ":" + teamID
}

func (r *memLabelRepo) Upsert(_ context.Context, label *models.TransitionLabel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store[r.key(label.GameID, label.TeamID)] = *label
	return nil
}

func (r *memLabelRepo) Get(_ context.Context, gameID uuid.UUID, teamID string) (*models.TransitionLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	label, ok := r.store[r.key(gameID, teamID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &label, nil
}

func (r *memLabelRepo) GetRandomBatch(_ context.Context, limit int, excludeGame uuid.UUID) ([]models.TransitionLabel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.TransitionLabel
	for _, label := range r.store {
		if label.GameID == excludeGame || label.IsZero() {
			continue
		}
		out = append(out, label)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// fakeGameSource serves canned games and play-by-play logs.
type fakeGameSource struct {
	games  []datasource.GameSummary
	events map[uuid.UUID][]models.PlayByPlayEvent
}

func (s *fakeGameSource) Name() string { return "fake" }

func (s *fakeGameSource) FetchFinalGames(_ context.Context, _ time.Time) ([]datasource.GameSummary, error) {
	return s.games, nil
}

func (s *fakeGameSource) FetchPlayByPlay(_ context.Context, gameID uuid.UUID) ([]models.PlayByPlayEvent, error) {
	return s.events[gameID], nil
}

func (s *fakeGameSource) FetchBoxScore(_ context.Context, _ uuid.UUID, teamID string) (*models.BoxScoreStats, error) {
	return &models.BoxScoreStats{TeamID: teamID}, nil
}

func eventsFor(gameID uuid.UUID, teamID string, types ...models.EventType) []models.PlayByPlayEvent {
	out := make([]models.PlayByPlayEvent, 0, len(types))
	for _, et := range types {
		out = append(out, models.PlayByPlayEvent{
			GameID: gameID,
			TeamID: teamID,
			Type:   et,
			Period: 1,
		})
	}
	return out
}

func TestIngestFinalGames(t *testing.T) {
	gameID := uuid.New()
	source := &fakeGameSource{
		games: []datasource.GameSummary{{
			GameID:     gameID,
			HomeTeamID: "duke",
			AwayTeamID: "unc",
			Season:     "2025-26",
			Tipoff:     time.Date(2026, 1, 10, 19, 0, 0, 0, time.UTC),
		}},
		events: map[uuid.UUID][]models.PlayByPlayEvent{},
	}
	var events []models.PlayByPlayEvent
	events = append(events, eventsFor(gameID, "duke",
		models.EventTwoPointMake, models.EventTwoPointMiss,
		models.EventThreePointMake, models.EventTurnover)...)
	events = append(events, eventsFor(gameID, "unc",
		models.EventTwoPointMake, models.EventTurnover)...)
	source.events[gameID] = events

	labelRepo := newMemLabelRepo()
	posteriorRepo := newMemPosteriorRepo()
	svc := NewIngestionService(
		source,
		labelRepo,
		newTestPosteriorService(posteriorRepo),
		labels.NewComputer(logger.NewLogger("error")),
		log.New(io.Discard, "", 0),
		100,
	)

	report, err := svc.IngestFinalGames(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("IngestFinalGames failed: %v", err)
	}
	if report.Games != 1 || report.LabelsComputed != 2 || report.Updates != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	label, err := labelRepo.Get(context.Background(), gameID, "duke")
	if err != nil {
		t.Fatalf("duke label not stored: %v", err)
	}
	if label.Probs[models.OutcomeTwoPointMake] != 0.25 {
		t.Fatalf("duke 2pt make share = %v, want 0.25", label.Probs[models.OutcomeTwoPointMake])
	}

	posterior, err := posteriorRepo.Get(context.Background(), "unc")
	if err != nil {
		t.Fatalf("unc posterior not stored: %v", err)
	}
	if posterior.GamesProcessed != 1 {
		t.Fatalf("unc posterior games processed = %d", posterior.GamesProcessed)
	}
}

func TestIngestSkipsZeroPossessionTeams(t *testing.T) {
	gameID := uuid.New()
	source := &fakeGameSource{
		games: []datasource.GameSummary{{
			GameID:     gameID,
			HomeTeamID: "duke",
			AwayTeamID: "unc",
			Tipoff:     time.Now().UTC(),
		}},
		events: map[uuid.UUID][]models.PlayByPlayEvent{
			// Only duke has logged possessions.
			gameID: eventsFor(gameID, "duke", models.EventTwoPointMake, models.EventTurnover),
		},
	}

	labelRepo := newMemLabelRepo()
	posteriorRepo := newMemPosteriorRepo()
	svc := NewIngestionService(
		source,
		labelRepo,
		newTestPosteriorService(posteriorRepo),
		labels.NewComputer(logger.NewLogger("error")),
		log.New(io.Discard, "", 0),
		100,
	)

	report, err := svc.IngestFinalGames(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("IngestFinalGames failed: %v", err)
	}
	// Both labels stored (unc's is all-zero), but only duke's posterior moves.
	if report.LabelsComputed != 2 || report.Updates != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if _, err := posteriorRepo.Get(context.Background(), "unc"); err == nil {
		t.Fatal("zero-possession team should not get a posterior update")
	}
}
