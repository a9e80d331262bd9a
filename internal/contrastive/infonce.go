// Package contrastive implements the InfoNCE pretraining objective: a
// learnable label embedding, a temperature-scaled contrastive loss between a
// latent sample and its positive/negative labels, a bounded negative-sample
// cache, and the batch pretrainer that ties them to the encoder.
package contrastive

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/nn"
)

// DefaultTemperature is the softmax temperature for similarity scaling.
const DefaultTemperature = 0.1

const normEps = 1e-10

// InfoNCE embeds 8-way outcome labels into the latent space and scores a
// latent sample against one positive and K negative label embeddings. The
// embedding is a linear map trained jointly with the encoder.
type InfoNCE struct {
	Temperature float64

	// Linear label embedding: latentDim x NumOutcomes.
	w  [][]float64
	b  []float64
	dW [][]float64
	dB []float64
}

// NewInfoNCE creates the loss module with a randomly initialized embedding.
func NewInfoNCE(temperature float64, seed int64) *InfoNCE {
	if temperature <= 0 {
		temperature = DefaultTemperature
	}
	rng := rand.New(rand.NewSource(seed))
	l := &InfoNCE{
		Temperature: temperature,
		w:           make([][]float64, models.LatentDim),
		b:           make([]float64, models.LatentDim),
		dW:          make([][]float64, models.LatentDim),
		dB:          make([]float64, models.LatentDim),
	}
	limit := math.Sqrt(6.0 / float64(models.LatentDim+models.NumOutcomes))
	for o := range l.w {
		l.w[o] = make([]float64, models.NumOutcomes)
		l.dW[o] = make([]float64, models.NumOutcomes)
		for i := range l.w[o] {
			l.w[o][i] = (rng.Float64()*2 - 1) * limit
		}
	}
	return l
}

// Embed projects an 8-dim label into the latent dimensionality.
func (l *InfoNCE) Embed(label [models.NumOutcomes]float64) []float64 {
	out := make([]float64, models.LatentDim)
	for o := range l.w {
		sum := l.b[o]
		for i, v := range label {
			sum += l.w[o][i] * v
		}
		out[o] = sum
	}
	return out
}

// Loss computes the InfoNCE loss for one latent sample against its positive
// label and the shared negative pool, returning the loss value and the
// gradient with respect to z. Embedding gradients are accumulated internally
// until Step is called. The softmax over similarities is evaluated through a
// log-sum-exp so extreme similarity ratios stay finite.
func (l *InfoNCE) Loss(z []float64, positive [models.NumOutcomes]float64, negatives [][models.NumOutcomes]float64) (float64, []float64, error) {
	if len(z) != models.LatentDim {
		return 0, nil, fmt.Errorf("latent width %d, expected %d", len(z), models.LatentDim)
	}
	if len(negatives) == 0 {
		return 0, nil, fmt.Errorf("%w: no negative samples", models.ErrNoTrainingData)
	}

	labelVecs := make([][models.NumOutcomes]float64, 0, len(negatives)+1)
	labelVecs = append(labelVecs, positive)
	labelVecs = append(labelVecs, negatives...)

	embeddings := make([][]float64, len(labelVecs))
	logits := make([]float64, len(labelVecs))
	sims := make([]float64, len(labelVecs))
	for j, label := range labelVecs {
		embeddings[j] = l.Embed(label)
		sims[j] = cosine(z, embeddings[j])
		logits[j] = sims[j] / l.Temperature
	}

	lse := nn.LogSumExp(logits)
	loss := -logits[0] + lse

	zNorm := norm(z)
	gradZ := make([]float64, models.LatentDim)
	for j := range labelVecs {
		p := math.Exp(logits[j] - lse)
		dSim := p / l.Temperature
		if j == 0 {
			dSim -= 1 / l.Temperature
		}

		e := embeddings[j]
		eNorm := norm(e)
		denom := zNorm*eNorm + normEps

		// d cos(z,e)/dz and /de for this pair.
		dE := make([]float64, models.LatentDim)
		for i := 0; i < models.LatentDim; i++ {
			gradZ[i] += dSim * (e[i]/denom - sims[j]*z[i]/(zNorm*zNorm+normEps))
			dE[i] = dSim * (z[i]/denom - sims[j]*e[i]/(eNorm*eNorm+normEps))
		}
		for o := 0; o < models.LatentDim; o++ {
			l.dB[o] += dE[o]
			for i := 0; i < models.NumOutcomes; i++ {
				l.dW[o][i] += dE[o] * labelVecs[j][i]
			}
		}
	}

	return loss, gradZ, nil
}

// Step applies accumulated embedding gradients and resets them.
func (l *InfoNCE) Step(lr float64) {
	for o := range l.w {
		l.b[o] -= lr * l.dB[o]
		l.dB[o] = 0
		for i := range l.w[o] {
			l.w[o][i] -= lr * l.dW[o][i]
			l.dW[o][i] = 0
		}
	}
}

// Weights snapshots the embedding parameters.
func (l *InfoNCE) Weights() ([]byte, error) {
	rows := make([][]float64, len(l.w))
	for o := range l.w {
		rows[o] = append([]float64(nil), l.w[o]...)
	}
	return json.Marshal(nn.LayerWeights{W: rows, B: append([]float64(nil), l.b...)})
}

// SetWeights restores the embedding parameters.
func (l *InfoNCE) SetWeights(data []byte) error {
	var w nn.LayerWeights
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode embedding weights: %w", err)
	}
	if len(w.W) != models.LatentDim || len(w.B) != models.LatentDim {
		return fmt.Errorf("embedding shape mismatch: %d rows", len(w.W))
	}
	for o, row := range w.W {
		if len(row) != models.NumOutcomes {
			return fmt.Errorf("embedding shape mismatch: row %d width %d", o, len(row))
		}
		copy(l.w[o], row)
	}
	copy(l.b, w.B)
	return nil
}

// AnnealWeight linearly ramps the InfoNCE weight from min to max over the
// warm-up steps, then holds it at max.
func AnnealWeight(step int, min, max float64, warmupSteps int) float64 {
	if warmupSteps <= 0 || step >= warmupSteps {
		return max
	}
	if step < 0 {
		step = 0
	}
	return min + (max-min)*float64(step)/float64(warmupSteps)
}

func cosine(a, b []float64) float64 {
	dot := 0.0
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (norm(a)*norm(b) + normEps)
}

func norm(v []float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
