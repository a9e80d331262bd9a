// Package encoder implements the latent team encoder: a small network
// mapping a team's raw feature vector to a Gaussian latent posterior. It is
// pretrained jointly with reconstruction, KL, and contrastive objectives,
// then frozen; after freezing only the per-game Bayesian updater moves a
// team's posterior.
package encoder

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/yourusername/courtside/internal/models"
	"github.com/yourusername/courtside/internal/nn"
)

const hiddenSize = 64

// DefaultKLWeight balances the KL term against reconstruction during
// pretraining.
const DefaultKLWeight = 0.1

// Encoder holds the encoder trunk with mean and log-variance heads plus the
// reconstruction decoder used only during pretraining.
type Encoder struct {
	inputDim  int
	latentDim int

	trunk      *nn.Layer // inputDim -> hidden
	muHead     *nn.Layer // hidden -> latent
	logvarHead *nn.Layer // hidden -> latent
	decHidden  *nn.Layer // latent -> hidden
	decOut     *nn.Layer // hidden -> inputDim

	KLWeight float64
	frozen   bool
	rng      *rand.Rand
}

// New creates an untrained encoder for the given feature width.
func New(inputDim int, seed int64) *Encoder {
	rng := rand.New(rand.NewSource(seed))
	return &Encoder{
		inputDim:   inputDim,
		latentDim:  models.LatentDim,
		trunk:      nn.NewLayer(inputDim, hiddenSize, nn.ActivationReLU, rng),
		muHead:     nn.NewLayer(hiddenSize, models.LatentDim, nn.ActivationIdentity, rng),
		logvarHead: nn.NewLayer(hiddenSize, models.LatentDim, nn.ActivationIdentity, rng),
		decHidden:  nn.NewLayer(models.LatentDim, hiddenSize, nn.ActivationReLU, rng),
		decOut:     nn.NewLayer(hiddenSize, inputDim, nn.ActivationIdentity, rng),
		KLWeight:   DefaultKLWeight,
		rng:        rng,
	}
}

// InputDim returns the expected feature width.
func (e *Encoder) InputDim() int { return e.inputDim }

// LatentDim returns the latent width.
func (e *Encoder) LatentDim() int { return e.latentDim }

// Frozen reports whether the encoder may still be trained.
func (e *Encoder) Frozen() bool { return e.frozen }

// Freeze permanently marks the encoder as inference-only.
func (e *Encoder) Freeze() { e.frozen = true }

// Encode maps features to the latent Gaussian posterior. Sigma is clamped to
// the posterior uncertainty bounds so a freshly encoded team is already a
// valid prior.
func (e *Encoder) Encode(features []float64) (mu, sigma []float64, err error) {
	if len(features) != e.inputDim {
		return nil, nil, fmt.Errorf("feature width %d, expected %d", len(features), e.inputDim)
	}
	hidden := e.trunk.Forward(features)
	mu = e.muHead.Forward(hidden)
	logvar := e.logvarHead.Forward(hidden)
	sigma = make([]float64, e.latentDim)
	for i, lv := range logvar {
		sigma[i] = clampSigma(math.Exp(0.5 * lv))
	}
	return mu, sigma, nil
}

func clampSigma(s float64) float64 {
	if s < models.MinUncertainty {
		return models.MinUncertainty
	}
	if s > models.MaxUncertainty {
		return models.MaxUncertainty
	}
	return s
}

// ForwardCache holds one training sample's intermediate values between the
// forward and backward passes.
type ForwardCache struct {
	Features []float64
	Mu       []float64
	LogVar   []float64
	Sigma    []float64
	Eps      []float64
	Z        []float64
	Recon    []float64

	ReconLoss float64
	KLLoss    float64
}

// ForwardTrain runs the full pretraining forward pass: encode, sample via
// reparameterization, decode, and compute reconstruction and KL losses.
func (e *Encoder) ForwardTrain(features []float64) (*ForwardCache, error) {
	if e.frozen {
		return nil, fmt.Errorf("%w: encoder is frozen", models.ErrModelNotFrozen)
	}
	if len(features) != e.inputDim {
		return nil, fmt.Errorf("feature width %d, expected %d", len(features), e.inputDim)
	}

	hidden := e.trunk.Forward(features)
	mu := e.muHead.Forward(hidden)
	logvar := e.logvarHead.Forward(hidden)

	cache := &ForwardCache{
		Features: append([]float64(nil), features...),
		Mu:       mu,
		LogVar:   logvar,
		Sigma:    make([]float64, e.latentDim),
		Eps:      make([]float64, e.latentDim),
		Z:        make([]float64, e.latentDim),
	}
	for i := range mu {
		cache.Sigma[i] = math.Exp(0.5 * logvar[i])
		cache.Eps[i] = e.rng.NormFloat64()
		cache.Z[i] = mu[i] + cache.Sigma[i]*cache.Eps[i]
	}

	decHidden := e.decHidden.Forward(cache.Z)
	cache.Recon = e.decOut.Forward(decHidden)

	for i, r := range cache.Recon {
		diff := r - features[i]
		cache.ReconLoss += diff * diff
	}
	cache.ReconLoss /= float64(e.inputDim)

	for i := range mu {
		cache.KLLoss += mu[i]*mu[i] + math.Exp(logvar[i]) - 1 - logvar[i]
	}
	cache.KLLoss *= 0.5

	return cache, nil
}

// Backward accumulates gradients for the cached sample. latentGrad is an
// additional gradient with respect to the latent sample z (the contrastive
// term, already scaled by its annealed weight); it may be nil.
func (e *Encoder) Backward(cache *ForwardCache, latentGrad []float64) error {
	if e.frozen {
		return fmt.Errorf("%w: encoder is frozen", models.ErrModelNotFrozen)
	}
	if latentGrad != nil && len(latentGrad) != e.latentDim {
		return fmt.Errorf("latent gradient width %d, expected %d", len(latentGrad), e.latentDim)
	}

	// Reconstruction path back to z.
	dRecon := make([]float64, e.inputDim)
	for i, r := range cache.Recon {
		dRecon[i] = 2 * (r - cache.Features[i]) / float64(e.inputDim)
	}
	dDecHidden := e.decOut.Backward(dRecon)
	dZ := e.decHidden.Backward(dDecHidden)

	if latentGrad != nil {
		for i := range dZ {
			dZ[i] += latentGrad[i]
		}
	}

	// Reparameterization plus analytic KL gradients.
	dMu := make([]float64, e.latentDim)
	dLogVar := make([]float64, e.latentDim)
	for i := 0; i < e.latentDim; i++ {
		dMu[i] = dZ[i] + e.KLWeight*cache.Mu[i]
		dLogVar[i] = dZ[i]*cache.Eps[i]*0.5*cache.Sigma[i] +
			e.KLWeight*0.5*(math.Exp(cache.LogVar[i])-1)
	}

	dHiddenMu := e.muHead.Backward(dMu)
	dHiddenLogVar := e.logvarHead.Backward(dLogVar)
	dHidden := make([]float64, hiddenSize)
	for i := range dHidden {
		dHidden[i] = dHiddenMu[i] + dHiddenLogVar[i]
	}
	e.trunk.Backward(dHidden)
	return nil
}

// Step applies accumulated gradients across all encoder and decoder layers.
func (e *Encoder) Step(lr float64) {
	for _, layer := range e.allLayers() {
		layer.Step(lr)
	}
}

// ZeroGrad drops accumulated gradients, used when a batch is abandoned.
func (e *Encoder) ZeroGrad() {
	for _, layer := range e.allLayers() {
		layer.ZeroGrad()
	}
}

func (e *Encoder) allLayers() []*nn.Layer {
	return []*nn.Layer{e.trunk, e.muHead, e.logvarHead, e.decHidden, e.decOut}
}

type encoderWeights struct {
	InputDim  int              `json:"input_dim"`
	LatentDim int              `json:"latent_dim"`
	Layers    []nn.LayerWeights `json:"layers"`
}

// MarshalEncoderWeights serializes the trunk and both heads.
func (e *Encoder) MarshalEncoderWeights() ([]byte, error) {
	return json.Marshal(encoderWeights{
		InputDim:  e.inputDim,
		LatentDim: e.latentDim,
		Layers: []nn.LayerWeights{
			e.trunk.Weights(), e.muHead.Weights(), e.logvarHead.Weights(),
		},
	})
}

// MarshalDecoderWeights serializes the reconstruction decoder.
func (e *Encoder) MarshalDecoderWeights() ([]byte, error) {
	return json.Marshal(encoderWeights{
		InputDim:  e.inputDim,
		LatentDim: e.latentDim,
		Layers:    []nn.LayerWeights{e.decHidden.Weights(), e.decOut.Weights()},
	})
}

// UnmarshalEncoderWeights restores the trunk and heads.
func (e *Encoder) UnmarshalEncoderWeights(data []byte) error {
	var w encoderWeights
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode encoder weights: %w", err)
	}
	if w.InputDim != e.inputDim || w.LatentDim != e.latentDim {
		return fmt.Errorf("encoder shape mismatch: stored %dx%d, have %dx%d",
			w.InputDim, w.LatentDim, e.inputDim, e.latentDim)
	}
	if len(w.Layers) != 3 {
		return fmt.Errorf("expected 3 encoder layers, got %d", len(w.Layers))
	}
	for i, layer := range []*nn.Layer{e.trunk, e.muHead, e.logvarHead} {
		if err := layer.SetWeights(w.Layers[i]); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalDecoderWeights restores the decoder.
func (e *Encoder) UnmarshalDecoderWeights(data []byte) error {
	var w encoderWeights
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode decoder weights: %w", err)
	}
	if len(w.Layers) != 2 {
		return fmt.Errorf("expected 2 decoder layers, got %d", len(w.Layers))
	}
	for i, layer := range []*nn.Layer{e.decHidden, e.decOut} {
		if err := layer.SetWeights(w.Layers[i]); err != nil {
			return err
		}
	}
	return nil
}

// FromSnapshot reconstructs a frozen encoder from a persisted snapshot. Only
// snapshots marked frozen with completed training may serve inference.
func FromSnapshot(snapshot *models.ModelSnapshot) (*Encoder, error) {
	if !snapshot.UsableForInference() {
		return nil, fmt.Errorf("%w: snapshot %s", models.ErrModelNotFrozen, snapshot.ModelVersion)
	}
	e := New(snapshot.InputDim, 0)
	if err := e.UnmarshalEncoderWeights(snapshot.EncoderWeights); err != nil {
		return nil, err
	}
	if len(snapshot.DecoderWeights) > 0 {
		if err := e.UnmarshalDecoderWeights(snapshot.DecoderWeights); err != nil {
			return nil, err
		}
	}
	e.Freeze()
	return e, nil
}
