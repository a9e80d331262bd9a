package nn

import (
	"math"
	"testing"
)

func TestForwardOutputsDistribution(t *testing.T) {
	net, err := NewNetwork([]int{4, 16, 8}, 0.01, 7)
	if err != nil {
		t.Fatalf("NewNetwork failed: %v", err)
	}
	out := net.Forward([]float64{0.1, 0.9, 0.3, 0.5})
	sum := 0.0
	for _, p := range out {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("softmax output sums to %v, expected 1", sum)
	}
}

func TestForwardDeterministic(t *testing.T) {
	net, err := NewNetwork([]int{3, 8, 4}, 0.01, 11)
	if err != nil {
		t.Fatalf("NewNetwork failed: %v", err)
	}
	in := []float64{0.2, 0.4, 0.6}
	a := net.Forward(in)
	b := net.Forward(in)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("forward pass not deterministic at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestTrainStepReducesLoss(t *testing.T) {
	net, err := NewNetwork([]int{4, 16, 8, 3}, 0.1, 42)
	if err != nil {
		t.Fatalf("NewNetwork failed: %v", err)
	}
	input := []float64{0.5, -0.2, 0.8, 0.1}
	target := []float64{0.7, 0.2, 0.1}

	first, err := net.TrainStep(input, target)
	if err != nil {
		t.Fatalf("TrainStep failed: %v", err)
	}
	var last float64
	for i := 0; i < 200; i++ {
		last, err = net.TrainStep(input, target)
		if err != nil {
			t.Fatalf("TrainStep failed: %v", err)
		}
	}
	if last >= first {
		t.Fatalf("loss did not decrease: first=%v last=%v", first, last)
	}
}

func TestTrainStepRejectsBadShapes(t *testing.T) {
	net, _ := NewNetwork([]int{4, 8, 3}, 0.1, 1)
	if _, err := net.TrainStep([]float64{1, 2}, []float64{1, 0, 0}); err == nil {
		t.Fatal("expected error for short input")
	}
	if _, err := net.TrainStep([]float64{1, 2, 3, 4}, []float64{1, 0}); err == nil {
		t.Fatal("expected error for short target")
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	net, _ := NewNetwork([]int{5, 12, 4}, 0.05, 3)
	in := []float64{0.1, 0.2, 0.3, 0.4, 0.5}
	want := net.Forward(in)

	data, err := net.MarshalWeights()
	if err != nil {
		t.Fatalf("MarshalWeights failed: %v", err)
	}

	restored, _ := NewNetwork([]int{5, 12, 4}, 0.05, 99)
	if err := restored.UnmarshalWeights(data); err != nil {
		t.Fatalf("UnmarshalWeights failed: %v", err)
	}
	got := restored.Forward(in)
	for i := range want {
		if math.Abs(want[i]-got[i]) > 1e-12 {
			t.Fatalf("restored network diverges at %d: %v vs %v", i, want[i], got[i])
		}
	}

	mismatched, _ := NewNetwork([]int{5, 10, 4}, 0.05, 3)
	if err := mismatched.UnmarshalWeights(data); err == nil {
		t.Fatal("expected shape mismatch error")
	}
}

func TestLogSumExpStable(t *testing.T) {
	v := LogSumExp([]float64{1000, 1000})
	want := 1000 + math.Log(2)
	if math.Abs(v-want) > 1e-9 {
		t.Fatalf("LogSumExp unstable: got %v want %v", v, want)
	}
	if math.IsInf(LogSumExp([]float64{-2000, -2000}), 0) {
		t.Fatal("LogSumExp underflowed to -Inf incorrectly")
	}
}
