package transition

import (
	"math"
	"testing"

	"github.com/yourusername/courtside/internal/models"
)

func TestBuildFromBoxScore(t *testing.T) {
	stats := models.BoxScoreStats{
		TeamID:             "duke",
		TwoPointMakes:      24,
		TwoPointAttempts:   48,
		ThreePointMakes:    9,
		ThreePointAttempts: 26,
		FreeThrowMakes:     15,
		FreeThrowAttempts:  20,
		Turnovers:          11,
		OffensiveRebounds:  10,
		TotalRebounds:      36,
		Possessions:        68,
	}
	m, err := BuildFromBoxScore(stats, SportBasketball)
	if err != nil {
		t.Fatalf("BuildFromBoxScore failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("built matrix invalid: %v", err)
	}
	if got, want := m.Probs[models.OutcomeTurnover], 11.0/68.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("turnover rate = %v, want %v", got, want)
	}
}

func TestBuildFromBoxScoreCaps(t *testing.T) {
	stats := models.BoxScoreStats{
		Turnovers:         60,
		Possessions:       70,
		OffensiveRebounds: 30,
		TotalRebounds:     32,
	}
	m, err := BuildFromBoxScore(stats, SportBasketball)
	if err != nil {
		t.Fatalf("BuildFromBoxScore failed: %v", err)
	}
	if m.Probs[models.OutcomeTurnover] > 0.50 {
		t.Fatalf("turnover rate %v exceeds cap", m.Probs[models.OutcomeTurnover])
	}
	if m.Probs[models.OutcomeOffensiveRebound] > 0.60*orebEventWeight+1e-12 {
		t.Fatalf("oreb probability %v exceeds capped rate", m.Probs[models.OutcomeOffensiveRebound])
	}
}

func TestBuildFromBoxScoreDefaults(t *testing.T) {
	m, err := BuildFromBoxScore(models.BoxScoreStats{}, SportBasketball)
	if err != nil {
		t.Fatalf("BuildFromBoxScore with empty stats failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("default matrix invalid: %v", err)
	}
	if got := m.Probs[models.OutcomeTurnover]; math.Abs(got-defaultTurnoverRate) > 1e-12 {
		t.Fatalf("expected default turnover rate, got %v", got)
	}
}

func TestUnsupportedSportRejected(t *testing.T) {
	if _, err := BuildFromBoxScore(models.BoxScoreStats{}, Sport("cricket")); err == nil {
		t.Fatal("expected error for unsupported sport")
	}
	if _, err := FromScoreProb(0.5, Sport("hockey")); err == nil {
		t.Fatal("expected error for unsupported sport")
	}
}

func TestFromScoreProb(t *testing.T) {
	m, err := FromScoreProb(0.55, SportBasketball)
	if err != nil {
		t.Fatalf("FromScoreProb failed: %v", err)
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("converted matrix invalid: %v", err)
	}
	makes := m.Probs[models.OutcomeTwoPointMake] +
		m.Probs[models.OutcomeThreePointMake] +
		m.Probs[models.OutcomeFreeThrowMake]
	if math.Abs(makes-0.55) > 1e-12 {
		t.Fatalf("scoring mass %v, want 0.55", makes)
	}

	if _, err := FromScoreProb(1.2, SportBasketball); err == nil {
		t.Fatal("expected error for out-of-range score probability")
	}
}

func TestGenericPairHasHomeEdge(t *testing.T) {
	home, away := GenericPair()
	if err := home.Validate(); err != nil {
		t.Fatalf("home matrix invalid: %v", err)
	}
	if err := away.Validate(); err != nil {
		t.Fatalf("away matrix invalid: %v", err)
	}
	homeMakes := home.Probs[models.OutcomeTwoPointMake] + home.Probs[models.OutcomeThreePointMake] + home.Probs[models.OutcomeFreeThrowMake]
	awayMakes := away.Probs[models.OutcomeTwoPointMake] + away.Probs[models.OutcomeThreePointMake] + away.Probs[models.OutcomeFreeThrowMake]
	if homeMakes <= awayMakes {
		t.Fatalf("expected home scoring edge, got home=%v away=%v", homeMakes, awayMakes)
	}
}
