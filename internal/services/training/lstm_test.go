package training

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
)

func TestLSTMNetworkDeterministicInference(t *testing.T) {
	net := NewLSTMNetwork(rand.New(rand.NewSource(1)), 5)
	window := []float64{0.1, 0.4, 0.2, 0.8, 0.5}

	a := net.Predict(window)
	b := net.Predict(window)
	if a != b {
		t.Errorf("inference not deterministic: %v vs %v", a, b)
	}
	if math.IsNaN(a) || math.IsInf(a, 0) {
		t.Errorf("invalid output %v", a)
	}
}

func TestLSTMCloneIsIndependent(t *testing.T) {
	net := NewLSTMNetwork(rand.New(rand.NewSource(1)), 5)
	window := []float64{0.1, 0.4, 0.2, 0.8, 0.5}
	before := net.Predict(window)

	cp := net.clone()
	net.B2 += 10

	if got := cp.Predict(window); math.Abs(got-before) > 1e-12 {
		t.Errorf("clone changed with original: %v vs %v", got, before)
	}
}

func TestLSTMGradientDescends(t *testing.T) {
	// One sample, repeated steps: loss on that sample must shrink.
	rng := rand.New(rand.NewSource(7))
	net := NewLSTMNetwork(rng, 4)
	gradNet := zeroLSTMNetwork(4)
	opt := newAdam(net, gradNet, 0.01)

	window := []float64{0.2, 0.5, 0.3, 0.9}
	target := 0.6

	first := math.Abs(net.Predict(window) - target)
	for i := 0; i < 50; i++ {
		gradNet.zeroParams()
		out, caches := net.forward(window, nil, nil)
		net.backward(caches, 2*(out-target), nil, nil, gradNet)
		opt.step(1)
	}
	last := math.Abs(net.Predict(window) - target)

	if last >= first {
		t.Errorf("error did not shrink: %v -> %v", first, last)
	}
}

func TestDropoutMaskScale(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	mask := dropoutMask(rng, 1000, 0.2)

	kept := 0
	for _, v := range mask {
		switch v {
		case 0:
		case 1 / 0.8:
			kept++
		default:
			t.Fatalf("unexpected mask value %v", v)
		}
	}
	// Keep rate should be near 80%.
	if kept < 700 || kept > 900 {
		t.Errorf("kept %d of 1000, want near 800", kept)
	}
}

func lstmFixtureTable(nDays int) []models.FeatureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var table []models.FeatureRow
	for n := 0; n < nDays; n++ {
		table = append(table, models.FeatureRow{
			Date:   start.AddDate(0, 0, n),
			ItemID: 1,
			Sales:  100 + 30*math.Sin(2*math.Pi*float64(n)/7),
		})
	}
	return table
}

func TestLSTMTrainerProducesArtifact(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping lstm fit in short mode")
	}

	table := lstmFixtureTable(80)
	trainer := NewLSTMTrainer(testLogger(t), 15, 7, 3)

	res, err := trainer.Train(context.Background(), table)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if res.Name != models.ModelLSTM {
		t.Errorf("name = %s", res.Name)
	}
	if len(res.ActualTest) != 15 {
		t.Errorf("test windows = %d, want 15", len(res.ActualTest))
	}
	for _, p := range res.ForecastTest {
		if p < 0 || math.IsNaN(p) {
			t.Errorf("invalid holdout prediction %v", p)
		}
	}

	art, ok := res.Artifact.(*LSTMArtifact)
	if !ok {
		t.Fatalf("artifact type %T", res.Artifact)
	}
	if len(art.SeedWindow) != 7 {
		t.Errorf("seed window length = %d, want lookback 7", len(art.SeedWindow))
	}
}

func TestLSTMTrainerSeriesTooShort(t *testing.T) {
	trainer := NewLSTMTrainer(testLogger(t), 90, 30, 1)
	if _, err := trainer.Train(context.Background(), lstmFixtureTable(60)); err == nil {
		t.Fatal("expected error for short series")
	}
}

func TestLSTMArtifactRecursiveHorizon(t *testing.T) {
	scaler := &MinMaxScaler{}
	if err := scaler.Fit([]float64{0, 200}); err != nil {
		t.Fatalf("fit scaler: %v", err)
	}
	art := &LSTMArtifact{
		Net:        NewLSTMNetwork(rand.New(rand.NewSource(5)), 6),
		Scaler:     scaler,
		Lookback:   6,
		SeedWindow: []float64{0.5, 0.6, 0.4, 0.55, 0.5, 0.45},
	}

	preds, err := art.PredictHorizon(time.Now(), 10)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(preds) != 10 {
		t.Fatalf("got %d predictions, want 10", len(preds))
	}
	for i, p := range preds {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Errorf("pred[%d] = %v", i, p)
		}
	}

	// Same artifact, same horizon: recursive generation is deterministic.
	again, err := art.PredictHorizon(time.Now(), 10)
	if err != nil {
		t.Fatalf("predict again: %v", err)
	}
	for i := range preds {
		if preds[i] != again[i] {
			t.Errorf("non-deterministic at %d: %v vs %v", i, preds[i], again[i])
		}
	}
}

func TestLSTMArtifactIncomplete(t *testing.T) {
	art := &LSTMArtifact{Lookback: 30}
	if _, err := art.PredictHorizon(time.Now(), 7); err == nil {
		t.Fatal("expected error for incomplete artifact")
	}
}

func TestLSTMArtifactGobRoundTrip(t *testing.T) {
	scaler := &MinMaxScaler{}
	if err := scaler.Fit([]float64{10, 300}); err != nil {
		t.Fatalf("fit scaler: %v", err)
	}
	art := &LSTMArtifact{
		Net:        NewLSTMNetwork(rand.New(rand.NewSource(9)), 5),
		Scaler:     scaler,
		Lookback:   5,
		SeedWindow: []float64{0.2, 0.3, 0.4, 0.5, 0.6},
	}

	data, err := EncodeArtifact(art)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	restored, err := DecodeArtifact(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if restored.Kind() != models.ModelLSTM {
		t.Errorf("kind = %s", restored.Kind())
	}

	want, _ := art.PredictHorizon(time.Now(), 4)
	got, err := restored.PredictHorizon(time.Now(), 4)
	if err != nil {
		t.Fatalf("restored predict: %v", err)
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("restored pred[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
