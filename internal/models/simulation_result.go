package models

import "time"

// DataSource tags which tier produced a simulation's transition
// probabilities.
type DataSource string

const (
	DataSourceLatentModel       DataSource = "latent-model"
	DataSourceFallbackMatrix    DataSource = "fallback-matrix"
	DataSourceFallbackGenerated DataSource = "fallback-generated"
)

// UncertaintyMetrics describes how confident the latent model was about the
// teams involved. Only populated when the latent-model path produced the
// simulation.
type UncertaintyMetrics struct {
	HomeAvgUncertainty   float64 `json:"home_avg_uncertainty"`
	AwayAvgUncertainty   float64 `json:"away_avg_uncertainty"`
	PredictionConfidence float64 `json:"prediction_confidence"`
}

// SimulationResult aggregates N independently simulated games.
type SimulationResult struct {
	HomeTeamID     string              `json:"home_team_id"`
	AwayTeamID     string              `json:"away_team_id"`
	Iterations     int                 `json:"iterations"`
	HomeWinProb    float64             `json:"home_win_prob"`
	AwayWinProb    float64             `json:"away_win_prob"`
	TieProb        float64             `json:"tie_prob"`
	HomeScoreMean  float64             `json:"home_score_mean"`
	HomeScoreStd   float64             `json:"home_score_std"`
	AwayScoreMean  float64             `json:"away_score_mean"`
	AwayScoreStd   float64             `json:"away_score_std"`
	MarginMean     float64             `json:"margin_mean"`
	MarginStd      float64             `json:"margin_std"`
	HomeScores     []int               `json:"home_scores,omitempty"`
	AwayScores     []int               `json:"away_scores,omitempty"`
	Source         DataSource          `json:"data_source"`
	Uncertainty    *UncertaintyMetrics `json:"uncertainty,omitempty"`
	SimulatedAt    time.Time           `json:"simulated_at"`
}
