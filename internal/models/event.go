package models

import (
	"time"

	"github.com/google/uuid"
)

// EventType identifies a play-by-play event.
type EventType string

const (
	EventTwoPointMake     EventType = "2pt_make"
	EventTwoPointMiss     EventType = "2pt_miss"
	EventThreePointMake   EventType = "3pt_make"
	EventThreePointMiss   EventType = "3pt_miss"
	EventFreeThrowMake    EventType = "ft_make"
	EventFreeThrowMiss    EventType = "ft_miss"
	EventOffensiveRebound EventType = "oreb"
	EventDefensiveRebound EventType = "dreb"
	EventTurnover         EventType = "turnover"
)

// PlayByPlayEvent is one logged play, tagged with the team on offense.
type PlayByPlayEvent struct {
	GameID    uuid.UUID `json:"game_id"`
	TeamID    string    `json:"team_id"`
	Type      EventType `json:"type"`
	Period    int       `json:"period"`
	GameClock string    `json:"game_clock"`
	Timestamp time.Time `json:"timestamp"`
}

// BoxScoreStats are per-team aggregate statistics, always derivable from a
// final box score. They feed the deterministic fallback matrix builder.
type BoxScoreStats struct {
	TeamID             string `json:"team_id"`
	TwoPointMakes      int    `json:"two_point_makes"`
	TwoPointAttempts   int    `json:"two_point_attempts"`
	ThreePointMakes    int    `json:"three_point_makes"`
	ThreePointAttempts int    `json:"three_point_attempts"`
	FreeThrowMakes     int    `json:"free_throw_makes"`
	FreeThrowAttempts  int    `json:"free_throw_attempts"`
	Turnovers          int    `json:"turnovers"`
	OffensiveRebounds  int    `json:"offensive_rebounds"`
	TotalRebounds      int    `json:"total_rebounds"`
	Possessions        int    `json:"possessions"`
}

// BoxScoreFeatureDim is the width of the feature vector fed to the latent
// encoder during pretraining.
const BoxScoreFeatureDim = 12

// nominalPossessions scales pace so a typical game lands near 1.
const nominalPossessions = 70.0

// FeatureVector returns the normalized per-game features used for encoder
// pretraining: shooting percentages, attempt shares, turnover and rebound
// rates, pace, and per-possession make rates. Rates are in [0,1]; pace may
// exceed 1 for fast games.
func (s BoxScoreStats) FeatureVector() []float64 {
	attempts := s.TwoPointAttempts + s.ThreePointAttempts + s.FreeThrowAttempts
	return []float64{
		ratio(s.TwoPointMakes, s.TwoPointAttempts),
		ratio(s.ThreePointMakes, s.ThreePointAttempts),
		ratio(s.FreeThrowMakes, s.FreeThrowAttempts),
		ratio(s.TwoPointAttempts, attempts),
		ratio(s.ThreePointAttempts, attempts),
		ratio(s.FreeThrowAttempts, attempts),
		ratio(s.Turnovers, s.Possessions),
		ratio(s.OffensiveRebounds, s.TotalRebounds),
		float64(s.Possessions) / nominalPossessions,
		ratio(s.TwoPointMakes, s.Possessions),
		ratio(s.ThreePointMakes, s.Possessions),
		ratio(s.FreeThrowMakes, s.Possessions),
	}
}

func ratio(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d)
}
