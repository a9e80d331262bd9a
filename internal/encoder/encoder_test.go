package encoder

import (
	"math"
	"testing"

	"github.com/yourusername/courtside/internal/models"
)

const testInputDim = 24

func testFeatures() []float64 {
	f := make([]float64, testInputDim)
	for i := range f {
		f[i] = math.Sin(float64(i) * 0.7)
	}
	return f
}

func TestEncodeShapeAndBounds(t *testing.T) {
	e := New(testInputDim, 5)
	mu, sigma, err := e.Encode(testFeatures())
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if len(mu) != models.LatentDim || len(sigma) != models.LatentDim {
		t.Fatalf("latent shape mu=%d sigma=%d, want %d", len(mu), len(sigma), models.LatentDim)
	}
	for i, s := range sigma {
		if s < models.MinUncertainty || s > models.MaxUncertainty {
			t.Fatalf("sigma[%d]=%v outside uncertainty bounds", i, s)
		}
	}
	if _, _, err := e.Encode([]float64{1, 2}); err == nil {
		t.Fatal("expected error for wrong feature width")
	}
}

func TestPretrainingReducesReconLoss(t *testing.T) {
	e := New(testInputDim, 42)
	features := testFeatures()

	first, err := e.ForwardTrain(features)
	if err != nil {
		t.Fatalf("ForwardTrain failed: %v", err)
	}
	if err := e.Backward(first, nil); err != nil {
		t.Fatalf("Backward failed: %v", err)
	}
	e.Step(0.01)

	var last *ForwardCache
	for i := 0; i < 300; i++ {
		last, err = e.ForwardTrain(features)
		if err != nil {
			t.Fatalf("ForwardTrain failed: %v", err)
		}
		if err := e.Backward(last, nil); err != nil {
			t.Fatalf("Backward failed: %v", err)
		}
		e.Step(0.01)
	}
	if last.ReconLoss >= first.ReconLoss {
		t.Fatalf("reconstruction loss did not decrease: first=%v last=%v", first.ReconLoss, last.ReconLoss)
	}
}

func TestFrozenEncoderRejectsTraining(t *testing.T) {
	e := New(testInputDim, 1)
	e.Freeze()
	if _, err := e.ForwardTrain(testFeatures()); err == nil {
		t.Fatal("expected error training a frozen encoder")
	}
	// Inference still works.
	if _, _, err := e.Encode(testFeatures()); err != nil {
		t.Fatalf("frozen Encode failed: %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	e := New(testInputDim, 9)
	features := testFeatures()
	wantMu, wantSigma, _ := e.Encode(features)

	enc, err := e.MarshalEncoderWeights()
	if err != nil {
		t.Fatalf("MarshalEncoderWeights failed: %v", err)
	}
	dec, err := e.MarshalDecoderWeights()
	if err != nil {
		t.Fatalf("MarshalDecoderWeights failed: %v", err)
	}

	snapshot := &models.ModelSnapshot{
		Name:              models.ModelNameLatentEncoder,
		ModelVersion:      "v1",
		EncoderWeights:    enc,
		DecoderWeights:    dec,
		LatentDim:         models.LatentDim,
		InputDim:          testInputDim,
		TrainingCompleted: true,
		Frozen:            true,
	}
	restored, err := FromSnapshot(snapshot)
	if err != nil {
		t.Fatalf("FromSnapshot failed: %v", err)
	}
	gotMu, gotSigma, _ := restored.Encode(features)
	for i := range wantMu {
		if math.Abs(wantMu[i]-gotMu[i]) > 1e-12 || math.Abs(wantSigma[i]-gotSigma[i]) > 1e-12 {
			t.Fatalf("restored encoder diverges at dim %d", i)
		}
	}

	// Unfrozen snapshots must be rejected for inference.
	snapshot.Frozen = false
	if _, err := FromSnapshot(snapshot); err == nil {
		t.Fatal("expected rejection of unfrozen snapshot")
	}
	snapshot.Frozen = true
	snapshot.TrainingCompleted = false
	if _, err := FromSnapshot(snapshot); err == nil {
		t.Fatal("expected rejection of incomplete-training snapshot")
	}
}
