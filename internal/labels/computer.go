// Package labels derives ground-truth possession outcome distributions from
// play-by-play logs. These distributions are the training targets for the
// learned models and the evidence consumed by the posterior updater.
package labels

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/models"
)

// Computer turns ordered play-by-play events into per-team transition
// labels.
type Computer struct {
	logger *logrus.Logger
}

// NewComputer creates a label computer.
func NewComputer(logger *logrus.Logger) *Computer {
	return &Computer{logger: logger}
}

// ComputeLabel counts a team's possession outcomes over one game and
// converts them to probabilities. Defensive rebounds belong to the other
// team's possession and are excluded from the total. A game with zero
// counted possessions yields the all-zero vector rather than NaN.
func (c *Computer) ComputeLabel(gameID uuid.UUID, teamID string, events []models.PlayByPlayEvent) (*models.TransitionLabel, error) {
	if teamID == "" {
		return nil, fmt.Errorf("team id is required")
	}

	var counts [models.NumOutcomes]int
	total := 0
	for _, ev := range events {
		if ev.TeamID != teamID || ev.GameID != gameID {
			continue
		}
		idx, ok := outcomeIndex(ev.Type)
		if !ok {
			// Defensive rebounds and unknown events do not end (or extend)
			// this team's possessions.
			continue
		}
		counts[idx]++
		total++
	}

	label := &models.TransitionLabel{
		GameID:     gameID,
		TeamID:     teamID,
		ComputedAt: time.Now().UTC(),
	}
	if total == 0 {
		c.logger.WithFields(logrus.Fields{
			"game_id": gameID,
			"team_id": teamID,
		}).Warn("No possessions counted for team, returning zero label")
		metrics.LabelsComputedTotal.WithLabelValues("empty").Inc()
		return label, nil
	}

	sum := 0.0
	for i, n := range counts {
		label.Probs[i] = float64(n) / float64(total)
		sum += label.Probs[i]
	}
	if math.Abs(sum-1) > models.DistributionTolerance {
		normalize(&label.Probs, sum)
	}

	if err := label.Validate(); err != nil {
		metrics.LabelsComputedTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("computed label failed validation: %w", err)
	}
	metrics.LabelsComputedTotal.WithLabelValues("valid").Inc()
	return label, nil
}

func normalize(probs *[models.NumOutcomes]float64, sum float64) {
	if sum <= 0 {
		return
	}
	for i := range probs {
		probs[i] /= sum
	}
}

func outcomeIndex(t models.EventType) (int, bool) {
	switch t {
	case models.EventTwoPointMake:
		return models.OutcomeTwoPointMake, true
	case models.EventTwoPointMiss:
		return models.OutcomeTwoPointMiss, true
	case models.EventThreePointMake:
		return models.OutcomeThreePointMake, true
	case models.EventThreePointMiss:
		return models.OutcomeThreePointMiss, true
	case models.EventFreeThrowMake:
		return models.OutcomeFreeThrowMake, true
	case models.EventFreeThrowMiss:
		return models.OutcomeFreeThrowMiss, true
	case models.EventOffensiveRebound:
		return models.OutcomeOffensiveRebound, true
	case models.EventTurnover:
		return models.OutcomeTurnover, true
	default:
		return 0, false
	}
}
