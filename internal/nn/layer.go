// Package nn implements the small feed-forward building blocks the engine
// trains: fully connected layers with manual backpropagation and a softmax
// classifier network. It deliberately exposes only forward pass, gradient
// computation, and parameter update so the learned components do not depend
// on any particular autodiff framework.
package nn

import (
	"fmt"
	"math"
	"math/rand"
)

// Activation selects a layer's nonlinearity.
type Activation int

const (
	ActivationIdentity Activation = iota
	ActivationReLU
)

// Layer is a fully connected layer with optional ReLU. It caches the last
// forward input so a following Backward call can accumulate gradients.
// Layers are not safe for concurrent training; the training paths are
// serialized by design.
type Layer struct {
	InputSize  int
	OutputSize int
	W          [][]float64 // [out][in]
	B          []float64
	Activation Activation

	lastInput  []float64
	lastPreact []float64
	dW         [][]float64
	dB         []float64
}

// NewLayer creates a layer with Xavier-uniform initialized weights.
func NewLayer(inputSize, outputSize int, activation Activation, rng *rand.Rand) *Layer {
	l := &Layer{
		InputSize:  inputSize,
		OutputSize: outputSize,
		W:          make([][]float64, outputSize),
		B:          make([]float64, outputSize),
		Activation: activation,
		dW:         make([][]float64, outputSize),
		dB:         make([]float64, outputSize),
	}
	limit := math.Sqrt(6.0 / float64(inputSize+outputSize))
	for o := 0; o < outputSize; o++ {
		l.W[o] = make([]float64, inputSize)
		l.dW[o] = make([]float64, inputSize)
		for i := 0; i < inputSize; i++ {
			l.W[o][i] = (rng.Float64()*2 - 1) * limit
		}
	}
	return l
}

// Forward computes the layer output and caches the activation inputs for a
// subsequent Backward.
func (l *Layer) Forward(input []float64) []float64 {
	l.lastInput = append(l.lastInput[:0], input...)
	if cap(l.lastPreact) < l.OutputSize {
		l.lastPreact = make([]float64, l.OutputSize)
	}
	l.lastPreact = l.lastPreact[:l.OutputSize]

	out := make([]float64, l.OutputSize)
	for o := 0; o < l.OutputSize; o++ {
		sum := l.B[o]
		row := l.W[o]
		for i, x := range input {
			sum += row[i] * x
		}
		l.lastPreact[o] = sum
		if l.Activation == ActivationReLU && sum < 0 {
			out[o] = 0
		} else {
			out[o] = sum
		}
	}
	return out
}

// Backward accumulates parameter gradients for the cached forward pass and
// returns the gradient with respect to the layer input.
func (l *Layer) Backward(dOutput []float64) []float64 {
	dInput := make([]float64, l.InputSize)
	for o := 0; o < l.OutputSize; o++ {
		dPre := dOutput[o]
		if l.Activation == ActivationReLU && l.lastPreact[o] < 0 {
			dPre = 0
		}
		l.dB[o] += dPre
		row := l.W[o]
		dRow := l.dW[o]
		for i := 0; i < l.InputSize; i++ {
			dRow[i] += dPre * l.lastInput[i]
			dInput[i] += dPre * row[i]
		}
	}
	return dInput
}

// Step applies accumulated gradients with the given learning rate and
// resets them.
func (l *Layer) Step(lr float64) {
	for o := 0; o < l.OutputSize; o++ {
		l.B[o] -= lr * l.dB[o]
		l.dB[o] = 0
		for i := 0; i < l.InputSize; i++ {
			l.W[o][i] -= lr * l.dW[o][i]
			l.dW[o][i] = 0
		}
	}
}

// ZeroGrad discards accumulated gradients.
func (l *Layer) ZeroGrad() {
	for o := 0; o < l.OutputSize; o++ {
		l.dB[o] = 0
		for i := 0; i < l.InputSize; i++ {
			l.dW[o][i] = 0
		}
	}
}

// LayerWeights is the serialized form of one layer.
type LayerWeights struct {
	W [][]float64 `json:"w"`
	B []float64   `json:"b"`
}

// Weights snapshots the layer parameters.
func (l *Layer) Weights() LayerWeights {
	w := make([][]float64, l.OutputSize)
	for o := range l.W {
		w[o] = append([]float64(nil), l.W[o]...)
	}
	return LayerWeights{W: w, B: append([]float64(nil), l.B...)}
}

// SetWeights restores layer parameters from a snapshot.
func (l *Layer) SetWeights(weights LayerWeights) error {
	if len(weights.W) != l.OutputSize || len(weights.B) != l.OutputSize {
		return fmt.Errorf("weight shape mismatch: expected %d output rows, got %d", l.OutputSize, len(weights.W))
	}
	for o, row := range weights.W {
		if len(row) != l.InputSize {
			return fmt.Errorf("weight shape mismatch: row %d has %d inputs, expected %d", o, len(row), l.InputSize)
		}
		copy(l.W[o], row)
	}
	copy(l.B, weights.B)
	return nil
}
