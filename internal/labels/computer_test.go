package labels

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/logger"
	"github.com/yourusername/courtside/internal/models"
)

func event(gameID uuid.UUID, teamID string, t models.EventType) models.PlayByPlayEvent {
	return models.PlayByPlayEvent{GameID: gameID, TeamID: teamID, Type: t}
}

func TestComputeLabelCounts(t *testing.T) {
	gameID := uuid.New()
	c := NewComputer(logger.NewLogger("error"))

	var events []models.PlayByPlayEvent
	add := func(typ models.EventType, n int) {
		for i := 0; i < n; i++ {
			events = append(events, event(gameID, "duke", typ))
		}
	}
	add(models.EventTwoPointMake, 20)
	add(models.EventTwoPointMiss, 18)
	add(models.EventThreePointMake, 8)
	add(models.EventThreePointMiss, 14)
	add(models.EventFreeThrowMake, 12)
	add(models.EventFreeThrowMiss, 4)
	add(models.EventOffensiveRebound, 9)
	add(models.EventTurnover, 15)
	// Defensive rebounds and opponent events must not count.
	add(models.EventDefensiveRebound, 25)
	events = append(events, event(gameID, "unc", models.EventTurnover))

	label, err := c.ComputeLabel(gameID, "duke", events)
	if err != nil {
		t.Fatalf("ComputeLabel failed: %v", err)
	}

	total := 20 + 18 + 8 + 14 + 12 + 4 + 9 + 15
	if got, want := label.Probs[models.OutcomeTwoPointMake], 20.0/float64(total); math.Abs(got-want) > 1e-12 {
		t.Fatalf("2pt_make prob = %v, want %v", got, want)
	}
	if got, want := label.Probs[models.OutcomeTurnover], 15.0/float64(total); math.Abs(got-want) > 1e-12 {
		t.Fatalf("turnover prob = %v, want %v", got, want)
	}

	sum := 0.0
	for _, p := range label.Probs {
		sum += p
	}
	if math.Abs(sum-1) > models.DistributionTolerance {
		t.Fatalf("label sums to %v, expected 1", sum)
	}
	if err := label.Validate(); err != nil {
		t.Fatalf("label failed validation: %v", err)
	}
}

func TestComputeLabelZeroPossessions(t *testing.T) {
	gameID := uuid.New()
	c := NewComputer(logger.NewLogger("error"))

	// Only defensive rebounds: no countable possessions.
	events := []models.PlayByPlayEvent{
		event(gameID, "duke", models.EventDefensiveRebound),
		event(gameID, "duke", models.EventDefensiveRebound),
	}
	label, err := c.ComputeLabel(gameID, "duke", events)
	if err != nil {
		t.Fatalf("ComputeLabel failed: %v", err)
	}
	if !label.IsZero() {
		t.Fatalf("expected all-zero label for zero possessions, got %v", label.Probs)
	}
	for _, p := range label.Probs {
		if math.IsNaN(p) {
			t.Fatal("zero-possession label produced NaN")
		}
	}
}

func TestComputeLabelNormalizesAnyCounts(t *testing.T) {
	gameID := uuid.New()
	c := NewComputer(logger.NewLogger("error"))

	// Awkward count mixes whose naive division accumulates float drift.
	for _, counts := range [][models.NumOutcomes]int{
		{1, 1, 1, 1, 1, 1, 1, 0},
		{3, 0, 0, 0, 0, 0, 0, 0},
		{7, 11, 13, 17, 19, 23, 29, 31},
	} {
		var events []models.PlayByPlayEvent
		for idx, n := range counts {
			for i := 0; i < n; i++ {
				events = append(events, event(gameID, "duke", models.EventType(models.OutcomeNames[idx])))
			}
		}
		label, err := c.ComputeLabel(gameID, "duke", events)
		if err != nil {
			t.Fatalf("ComputeLabel failed for %v: %v", counts, err)
		}
		sum := 0.0
		for _, p := range label.Probs {
			sum += p
		}
		if math.Abs(sum-1) > models.DistributionTolerance {
			t.Fatalf("counts %v: sum %v outside tolerance", counts, sum)
		}
	}
}
