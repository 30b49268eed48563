package training

import (
	"context"
	"math"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
)

func sarimaFixtureTable(nDays int) []models.FeatureRow {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var table []models.FeatureRow
	for n := 0; n < nDays; n++ {
		dow := n % 7
		table = append(table, models.FeatureRow{
			Date:   start.AddDate(0, 0, n),
			ItemID: 1,
			Sales:  200 + 40*float64(dow) + 10*math.Sin(float64(n)/20),
		})
	}
	return table
}

func TestSARIMATrainerHoldoutEvaluation(t *testing.T) {
	trainer := NewSARIMATrainer(testLogger(t), 30)

	res, err := trainer.Train(context.Background(), sarimaFixtureTable(200))
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	if res.Name != models.ModelSARIMA {
		t.Errorf("name = %s", res.Name)
	}
	if len(res.ForecastTest) != 30 || len(res.ActualTest) != 30 {
		t.Errorf("holdout sizes = %d/%d, want 30/30", len(res.ForecastTest), len(res.ActualTest))
	}
	for i, p := range res.ForecastTest {
		if p < 0 || math.IsNaN(p) {
			t.Errorf("forecast[%d] = %v", i, p)
		}
	}
	if res.Metrics.RMSE < 0 || math.IsNaN(res.Metrics.RMSE) {
		t.Errorf("invalid rmse %v", res.Metrics.RMSE)
	}
}

func TestSARIMATrainerSeriesTooShort(t *testing.T) {
	trainer := NewSARIMATrainer(testLogger(t), 90)
	if _, err := trainer.Train(context.Background(), sarimaFixtureTable(80)); err == nil {
		t.Fatal("expected error for short series")
	}
}

func TestSARIMAArtifactRefitsAfterReload(t *testing.T) {
	trainer := NewSARIMATrainer(testLogger(t), 30)
	res, err := trainer.Train(context.Background(), sarimaFixtureTable(200))
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	data, err := EncodeArtifact(res.Artifact)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	restored, err := DecodeArtifact(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Only the training series persists; prediction forces a refit.
	preds, err := restored.PredictHorizon(time.Now(), 7)
	if err != nil {
		t.Fatalf("restored predict: %v", err)
	}
	if len(preds) != 7 {
		t.Fatalf("got %d predictions, want 7", len(preds))
	}
	for i, p := range preds {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Errorf("pred[%d] = %v", i, p)
		}
	}
}
