package contrastive

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/courtside/internal/encoder"
	"github.com/yourusername/courtside/internal/metrics"
	"github.com/yourusername/courtside/internal/models"
)

// Default annealing schedule for the InfoNCE weight. Empirically chosen
// bounds, kept configurable.
const (
	DefaultWeightMin   = 0.3
	DefaultWeightMax   = 0.8
	DefaultWarmupSteps = 50
)

// TrainingSample pairs a team's raw feature vector with its observed
// transition label for one game.
type TrainingSample struct {
	GameID   uuid.UUID
	TeamID   string
	Features []float64
	Label    *models.TransitionLabel
}

// CheckpointStore persists encoder weights between batches. Writes must be
// atomic: a checkpoint is only taken after a fully completed batch.
type CheckpointStore interface {
	SaveSnapshot(ctx context.Context, snapshot *models.ModelSnapshot) error
}

// PretrainerConfig tunes the contrastive pretraining loop.
type PretrainerConfig struct {
	LearningRate float64
	Negatives    int
	WeightMin    float64
	WeightMax    float64
	WarmupSteps  int
	ModelVersion string
}

// DefaultPretrainerConfig returns the standard training schedule.
func DefaultPretrainerConfig() PretrainerConfig {
	return PretrainerConfig{
		LearningRate: 0.005,
		Negatives:    DefaultNegatives,
		WeightMin:    DefaultWeightMin,
		WeightMax:    DefaultWeightMax,
		WarmupSteps:  DefaultWarmupSteps,
		ModelVersion: "v1",
	}
}

// BatchReport summarizes one completed training batch.
type BatchReport struct {
	Step        int
	Samples     int
	Skipped     int
	ReconLoss   float64
	KLLoss      float64
	InfoNCELoss float64
	TotalLoss   float64
	InfoNCEWght float64
}

// Pretrainer trains the encoder with the combined reconstruction, KL, and
// annealed InfoNCE objective.
type Pretrainer struct {
	enc    *encoder.Encoder
	loss   *InfoNCE
	cache  *NegativeSampleCache
	store  CheckpointStore
	config PretrainerConfig
	step   int
	logger *logrus.Logger
}

// NewPretrainer wires the encoder, loss module, negative cache, and
// checkpoint store into a training loop.
func NewPretrainer(enc *encoder.Encoder, loss *InfoNCE, cache *NegativeSampleCache, store CheckpointStore, config PretrainerConfig, logger *logrus.Logger) *Pretrainer {
	if config.Negatives <= 0 {
		config.Negatives = DefaultNegatives
	}
	return &Pretrainer{
		enc:    enc,
		loss:   loss,
		cache:  cache,
		store:  store,
		config: config,
		logger: logger,
	}
}

// TrainBatch runs one gradient step over the batch. Samples with missing or
// invalid labels are skipped, not fatal; a batch with zero usable samples
// returns ErrNoTrainingData and leaves the encoder untouched.
func (p *Pretrainer) TrainBatch(ctx context.Context, samples []TrainingSample) (*BatchReport, error) {
	report := &BatchReport{
		Step:        p.step,
		InfoNCEWght: AnnealWeight(p.step, p.config.WeightMin, p.config.WeightMax, p.config.WarmupSteps),
	}
	metrics.InfoNCEWeight.Set(report.InfoNCEWght)

	for _, sample := range samples {
		if sample.Label == nil || sample.Label.IsZero() || sample.Label.Validate() != nil {
			report.Skipped++
			continue
		}

		negatives, err := p.cache.Sample(ctx, sample.GameID, p.config.Negatives)
		if err != nil {
			p.logger.WithError(err).WithField("game_id", sample.GameID).
				Warn("Skipping sample: negative sampling failed")
			report.Skipped++
			continue
		}

		fwd, err := p.enc.ForwardTrain(sample.Features)
		if err != nil {
			p.enc.ZeroGrad()
			return nil, err
		}

		nceLoss, gradZ, err := p.loss.Loss(fwd.Z, sample.Label.Probs, negatives)
		if err != nil {
			report.Skipped++
			continue
		}
		for i := range gradZ {
			gradZ[i] *= report.InfoNCEWght
		}
		if err := p.enc.Backward(fwd, gradZ); err != nil {
			p.enc.ZeroGrad()
			return nil, err
		}

		report.Samples++
		report.ReconLoss += fwd.ReconLoss
		report.KLLoss += fwd.KLLoss
		report.InfoNCELoss += nceLoss
	}

	if report.Samples == 0 {
		p.enc.ZeroGrad()
		metrics.TrainingBatchesTotal.WithLabelValues("empty").Inc()
		return nil, fmt.Errorf("%w: batch of %d samples had none usable", models.ErrNoTrainingData, len(samples))
	}

	n := float64(report.Samples)
	p.enc.Step(p.config.LearningRate / n)
	p.loss.Step(p.config.LearningRate / n)
	p.step++

	report.ReconLoss /= n
	report.KLLoss /= n
	report.InfoNCELoss /= n
	report.TotalLoss = report.ReconLoss + p.enc.KLWeight*report.KLLoss + report.InfoNCEWght*report.InfoNCELoss

	metrics.TrainingBatchesTotal.WithLabelValues("completed").Inc()
	metrics.TrainingLoss.WithLabelValues("reconstruction").Set(report.ReconLoss)
	metrics.TrainingLoss.WithLabelValues("kl").Set(report.KLLoss)
	metrics.TrainingLoss.WithLabelValues("infonce").Set(report.InfoNCELoss)
	metrics.TrainingLoss.WithLabelValues("total").Set(report.TotalLoss)

	return report, nil
}

// Run trains over all batches, checkpointing after each completed batch and
// honoring cancellation between batches so an interrupt never corrupts
// encoder weights mid-update.
func (p *Pretrainer) Run(ctx context.Context, batches [][]TrainingSample) error {
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			p.logger.WithField("completed_batches", i).Info("Pretraining interrupted between batches")
			return err
		}

		report, err := p.TrainBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("batch %d failed: %w", i, err)
		}
		p.logger.WithFields(logrus.Fields{
			"batch":        i,
			"step":         report.Step,
			"samples":      report.Samples,
			"skipped":      report.Skipped,
			"total_loss":   report.TotalLoss,
			"infonce_loss": report.InfoNCELoss,
			"weight":       report.InfoNCEWght,
		}).Info("Completed pretraining batch")

		if err := p.checkpoint(ctx, false); err != nil {
			return err
		}
	}
	return nil
}

// Finalize freezes the encoder and writes the inference-ready snapshot.
func (p *Pretrainer) Finalize(ctx context.Context) error {
	if err := p.checkpoint(ctx, true); err != nil {
		return err
	}
	p.enc.Freeze()
	p.logger.WithField("model_version", p.config.ModelVersion).Info("Encoder frozen for inference")
	return nil
}

func (p *Pretrainer) checkpoint(ctx context.Context, completed bool) error {
	if p.store == nil {
		return nil
	}
	encWeights, err := p.enc.MarshalEncoderWeights()
	if err != nil {
		return fmt.Errorf("failed to serialize encoder: %w", err)
	}
	decWeights, err := p.enc.MarshalDecoderWeights()
	if err != nil {
		return fmt.Errorf("failed to serialize decoder: %w", err)
	}
	snapshot := &models.ModelSnapshot{
		ID:                uuid.New(),
		Name:              models.ModelNameLatentEncoder,
		ModelVersion:      p.config.ModelVersion,
		EncoderWeights:    encWeights,
		DecoderWeights:    decWeights,
		LatentDim:         p.enc.LatentDim(),
		InputDim:          p.enc.InputDim(),
		TrainingCompleted: completed,
		Frozen:            completed,
		CreatedAt:         time.Now().UTC(),
		UpdatedAt:         time.Now().UTC(),
	}
	if err := p.store.SaveSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to checkpoint encoder: %w", err)
	}
	return nil
}
