// Package transition produces per-possession outcome distributions: a
// learned feed-forward network over two teams' latent posteriors plus game
// context, and a deterministic matrix builder used when the latent pipeline
// is unavailable.
package transition

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/nn"
)

// Network architecture. Input is both teams' mean and variance vectors plus
// the normalized context features.
const (
	InputDim = 4*models.LatentDim + models.ContextDim

	hiddenOne   = 128
	hiddenTwo   = 64
	hiddenThree = 32
)

// DefaultLearningRate for gradient updates against observed labels.
const DefaultLearningRate = 0.01

// OutcomePredictor is the inference contract consumed by the posterior
// updater and the simulator.
type OutcomePredictor interface {
	Predict(teamAMu, teamASigma, teamBMu, teamBSigma, context []float64) ([models.NumOutcomes]float64, error)
}

// Network is the transition probability network: a fixed-architecture
// feed-forward model with a softmax output over the 8 possession outcomes.
type Network struct {
	net *nn.Network
}

// NewNetwork creates an untrained transition network.
func NewNetwork(learningRate float64, seed int64) (*Network, error) {
	if learningRate <= 0 {
		learningRate = DefaultLearningRate
	}
	net, err := nn.NewNetwork(
		[]int{InputDim, hiddenOne, hiddenTwo, hiddenThree, models.NumOutcomes},
		learningRate, seed,
	)
	if err != nil {
		return nil, err
	}
	return &Network{net: net}, nil
}

// BuildInput concatenates both teams' means and variances (sigma squared,
// not sigma) with the context features into the network's input layout.
func BuildInput(teamAMu, teamASigma, teamBMu, teamBSigma, context []float64) ([]float64, error) {
	if len(teamAMu) != models.LatentDim || len(teamASigma) != models.LatentDim ||
		len(teamBMu) != models.LatentDim || len(teamBSigma) != models.LatentDim {
		return nil, fmt.Errorf("latent vectors must have %d dimensions", models.LatentDim)
	}
	if len(context) != models.ContextDim {
		return nil, fmt.Errorf("context width %d, expected %d", len(context), models.ContextDim)
	}
	input := make([]float64, 0, InputDim)
	input = append(input, teamAMu...)
	for _, s := range teamASigma {
		input = append(input, s*s)
	}
	input = append(input, teamBMu...)
	for _, s := range teamBSigma {
		input = append(input, s*s)
	}
	input = append(input, context...)
	return input, nil
}

// Predict runs a deterministic forward pass and returns the 8-way outcome
// distribution for team A's possessions against team B.
func (n *Network) Predict(teamAMu, teamASigma, teamBMu, teamBSigma, context []float64) ([models.NumOutcomes]float64, error) {
	var out [models.NumOutcomes]float64
	input, err := BuildInput(teamAMu, teamASigma, teamBMu, teamBSigma, context)
	if err != nil {
		return out, err
	}
	probs := n.net.Forward(input)
	copy(out[:], probs)
	return out, nil
}

// TrainExample applies one gradient step against an observed label and
// returns the cross-entropy loss.
func (n *Network) TrainExample(teamAMu, teamASigma, teamBMu, teamBSigma, context []float64, target [models.NumOutcomes]float64) (float64, error) {
	input, err := BuildInput(teamAMu, teamASigma, teamBMu, teamBSigma, context)
	if err != nil {
		return 0, err
	}
	return n.net.TrainStep(input, target[:])
}

// TrainBatch applies one averaged gradient step over a batch of prepared
// inputs and targets and returns the mean loss.
func (n *Network) TrainBatch(inputs [][]float64, targets [][models.NumOutcomes]float64) (float64, error) {
	if len(inputs) == 0 {
		return 0, fmt.Errorf("%w: empty training batch", models.ErrNoTrainingData)
	}
	ts := make([][]float64, len(targets))
	for i := range targets {
		ts[i] = targets[i][:]
	}
	return n.net.TrainBatch(inputs, ts)
}

// ToSnapshot serializes the network into a persisted model snapshot.
func (n *Network) ToSnapshot(version string, completed bool) (*models.ModelSnapshot, error) {
	weights, err := n.net.MarshalWeights()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize transition network: %w", err)
	}
	now := time.Now().UTC()
	return &models.ModelSnapshot{
		ID:                uuid.New(),
		Name:              models.ModelNameTransitionNetwork,
		ModelVersion:      version,
		EncoderWeights:    weights,
		LatentDim:         models.LatentDim,
		InputDim:          InputDim,
		TrainingCompleted: completed,
		Frozen:            completed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// FromSnapshot restores an inference-ready network from a persisted
// snapshot.
func FromSnapshot(snapshot *models.ModelSnapshot) (*Network, error) {
	if !snapshot.UsableForInference() {
		return nil, fmt.Errorf("%w: transition snapshot %s", models.ErrModelNotFrozen, snapshot.ModelVersion)
	}
	n, err := NewNetwork(DefaultLearningRate, 0)
	if err != nil {
		return nil, err
	}
	if err := n.net.UnmarshalWeights(snapshot.EncoderWeights); err != nil {
		return nil, err
	}
	return n, nil
}
