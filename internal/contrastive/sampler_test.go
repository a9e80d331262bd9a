package contrastive

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/models"
)

type fakeLabelSource struct {
	labels []models.TransitionLabel
	calls  int
}

func (s *fakeLabelSource) GetRandomBatch(ctx context.Context, limit int, excludeGame uuid.UUID) ([]models.TransitionLabel, error) {
	s.calls++
	out := make([]models.TransitionLabel, 0, limit)
	for _, l := range s.labels {
		if l.GameID == excludeGame {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func validLabel(gameID uuid.UUID, teamID string) models.TransitionLabel {
	return models.TransitionLabel{
		GameID: gameID,
		TeamID: teamID,
		Probs:  [models.NumOutcomes]float64{0.30, 0.25, 0.10, 0.15, 0.06, 0.02, 0.05, 0.07},
	}
}

func TestSampleExcludesOwnGame(t *testing.T) {
	log := logger.NewLogger("error")
	positive := uuid.New()
	other := uuid.New()

	c := NewNegativeSampleCache(nil, time.Minute, 100, 1, log)
	c.Put(validLabel(positive, "home"))
	c.Put(validLabel(positive, "away"))
	c.Put(validLabel(other, "home"))
	c.Put(validLabel(other, "away"))

	negs, err := c.Sample(context.Background(), positive, 10)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(negs) != 2 {
		t.Fatalf("expected 2 negatives after exclusion, got %d", len(negs))
	}
}

func TestSampleSkipsInvalidLabels(t *testing.T) {
	log := logger.NewLogger("error")
	c := NewNegativeSampleCache(nil, time.Minute, 100, 1, log)

	good := validLabel(uuid.New(), "home")
	bad := validLabel(uuid.New(), "home")
	bad.Probs[0] = -0.5
	c.Put(good)
	c.Put(bad)

	negs, err := c.Sample(context.Background(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(negs) != 1 {
		t.Fatalf("expected corrupt label to be skipped, got %d negatives", len(negs))
	}
}

func TestSampleRefillsOnDepletion(t *testing.T) {
	log := logger.NewLogger("error")
	source := &fakeLabelSource{}
	for i := 0; i < 20; i++ {
		source.labels = append(source.labels, validLabel(uuid.New(), "home"))
	}

	c := NewNegativeSampleCache(source, time.Minute, 100, 1, log)
	negs, err := c.Sample(context.Background(), uuid.New(), 10)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(negs) != 10 {
		t.Fatalf("expected on-demand refill to supply 10 negatives, got %d", len(negs))
	}
	if source.calls == 0 {
		t.Fatal("expected the label source to be consulted on depletion")
	}
}

func TestSampleEmptyPoolErrors(t *testing.T) {
	log := logger.NewLogger("error")
	c := NewNegativeSampleCache(&fakeLabelSource{}, time.Minute, 100, 1, log)
	if _, err := c.Sample(context.Background(), uuid.New(), 4); err == nil {
		t.Fatal("expected error sampling from an empty pool")
	}
}

func TestRefreshReplacesPool(t *testing.T) {
	log := logger.NewLogger("error")
	source := &fakeLabelSource{}
	for i := 0; i < 5; i++ {
		source.labels = append(source.labels, validLabel(uuid.New(), "home"))
	}
	c := NewNegativeSampleCache(source, time.Minute, 100, 1, log)
	c.Put(validLabel(uuid.New(), "stale"))

	if err := c.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if c.Size() != 5 {
		t.Fatalf("expected pool of 5 after refresh, got %d", c.Size())
	}
}
