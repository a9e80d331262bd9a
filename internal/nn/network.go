package nn

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// Model is the minimal contract a gradient-trained component must satisfy.
type Model interface {
	Forward(input []float64) []float64
	TrainStep(input, target []float64) (float64, error)
}

const logEps = 1e-12

// Network is a feed-forward classifier: ReLU hidden layers and a softmax
// output trained with cross-entropy.
type Network struct {
	sizes        []int
	layers       []*Layer
	learningRate float64
}

// NewNetwork builds a network with the given layer sizes, e.g.
// [74 128 64 32 8]. The final layer is linear; Forward applies softmax.
func NewNetwork(sizes []int, learningRate float64, seed int64) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("network needs at least input and output sizes, got %v", sizes)
	}
	rng := rand.New(rand.NewSource(seed))
	n := &Network{
		sizes:        append([]int(nil), sizes...),
		learningRate: learningRate,
	}
	for i := 0; i < len(sizes)-1; i++ {
		activation := ActivationReLU
		if i == len(sizes)-2 {
			activation = ActivationIdentity
		}
		n.layers = append(n.layers, NewLayer(sizes[i], sizes[i+1], activation, rng))
	}
	return n, nil
}

// InputSize returns the expected input width.
func (n *Network) InputSize() int { return n.sizes[0] }

// OutputSize returns the output width.
func (n *Network) OutputSize() int { return n.sizes[len(n.sizes)-1] }

// Forward runs a deterministic forward pass and returns softmax
// probabilities summing to 1.
func (n *Network) Forward(input []float64) []float64 {
	return Softmax(n.forwardLogits(input))
}

func (n *Network) forwardLogits(input []float64) []float64 {
	out := input
	for _, layer := range n.layers {
		out = layer.Forward(out)
	}
	return out
}

// TrainStep performs one gradient descent update against the target
// distribution and returns the cross-entropy loss.
func (n *Network) TrainStep(input, target []float64) (float64, error) {
	loss, err := n.accumulate(input, target)
	if err != nil {
		return 0, err
	}
	n.step(n.learningRate)
	return loss, nil
}

// TrainBatch accumulates gradients over the whole batch before applying a
// single averaged update. Returns the mean loss.
func (n *Network) TrainBatch(inputs, targets [][]float64) (float64, error) {
	if len(inputs) == 0 || len(inputs) != len(targets) {
		return 0, fmt.Errorf("batch size mismatch: %d inputs, %d targets", len(inputs), len(targets))
	}
	total := 0.0
	for i := range inputs {
		loss, err := n.accumulate(inputs[i], targets[i])
		if err != nil {
			n.zeroGrad()
			return 0, err
		}
		total += loss
	}
	n.step(n.learningRate / float64(len(inputs)))
	return total / float64(len(inputs)), nil
}

func (n *Network) accumulate(input, target []float64) (float64, error) {
	if len(input) != n.InputSize() {
		return 0, fmt.Errorf("input width %d, expected %d", len(input), n.InputSize())
	}
	if len(target) != n.OutputSize() {
		return 0, fmt.Errorf("target width %d, expected %d", len(target), n.OutputSize())
	}

	probs := Softmax(n.forwardLogits(input))

	loss := 0.0
	dLogits := make([]float64, len(probs))
	for i := range probs {
		loss -= target[i] * math.Log(probs[i]+logEps)
		// softmax + cross-entropy gradient
		dLogits[i] = probs[i] - target[i]
	}

	grad := dLogits
	for i := len(n.layers) - 1; i >= 0; i-- {
		grad = n.layers[i].Backward(grad)
	}
	return loss, nil
}

func (n *Network) step(lr float64) {
	for _, layer := range n.layers {
		layer.Step(lr)
	}
}

func (n *Network) zeroGrad() {
	for _, layer := range n.layers {
		layer.ZeroGrad()
	}
}

type networkWeights struct {
	Sizes  []int          `json:"sizes"`
	Layers []LayerWeights `json:"layers"`
}

// MarshalWeights serializes the network parameters.
func (n *Network) MarshalWeights() ([]byte, error) {
	w := networkWeights{Sizes: n.sizes}
	for _, layer := range n.layers {
		w.Layers = append(w.Layers, layer.Weights())
	}
	return json.Marshal(w)
}

// UnmarshalWeights restores network parameters; the layer sizes must match.
func (n *Network) UnmarshalWeights(data []byte) error {
	var w networkWeights
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode network weights: %w", err)
	}
	if len(w.Sizes) != len(n.sizes) {
		return fmt.Errorf("network shape mismatch: stored %v, have %v", w.Sizes, n.sizes)
	}
	for i, s := range w.Sizes {
		if s != n.sizes[i] {
			return fmt.Errorf("network shape mismatch: stored %v, have %v", w.Sizes, n.sizes)
		}
	}
	for i, lw := range w.Layers {
		if err := n.layers[i].SetWeights(lw); err != nil {
			return err
		}
	}
	return nil
}

// Softmax converts logits to a probability distribution, shifted by the max
// logit for numerical stability.
func Softmax(logits []float64) []float64 {
	maxLogit := math.Inf(-1)
	for _, v := range logits {
		if v > maxLogit {
			maxLogit = v
		}
	}
	out := make([]float64, len(logits))
	sum := 0.0
	for i, v := range logits {
		out[i] = math.Exp(v - maxLogit)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// LogSumExp computes log(Σ exp(x_i)) without overflow.
func LogSumExp(values []float64) float64 {
	maxVal := math.Inf(-1)
	for _, v := range values {
		if v > maxVal {
			maxVal = v
		}
	}
	if math.IsInf(maxVal, -1) {
		return maxVal
	}
	sum := 0.0
	for _, v := range values {
		sum += math.Exp(v - maxVal)
	}
	return maxVal + math.Log(sum)
}
