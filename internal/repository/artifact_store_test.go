package repository

import (
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/services/training"
	applogger "DemandCast/pkg/logger"
)

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stdout"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func TestArtifactStoreRoundTrip(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir(), testLogger(t))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	scaler := &training.MinMaxScaler{}
	if err := scaler.Fit([]float64{0, 100}); err != nil {
		t.Fatalf("scaler: %v", err)
	}
	artifact := &training.SARIMAArtifact{Series: []float64{1, 2, 3, 4, 5}}

	if err := store.SaveArtifact(artifact); err != nil {
		t.Fatalf("save: %v", err)
	}

	restored, err := store.LoadArtifact(models.ModelSARIMA)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if restored == nil || restored.Kind() != models.ModelSARIMA {
		t.Fatalf("restored = %v", restored)
	}
	sa, ok := restored.(*training.SARIMAArtifact)
	if !ok {
		t.Fatalf("restored type %T", restored)
	}
	if len(sa.Series) != 5 || sa.Series[4] != 5 {
		t.Errorf("series not preserved: %v", sa.Series)
	}
}

func TestArtifactStoreMissingBlob(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir(), testLogger(t))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	artifact, err := store.LoadArtifact(models.ModelLSTM)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if artifact != nil {
		t.Errorf("expected nil for missing blob, got %v", artifact)
	}
}

func TestComparisonRoundTrip(t *testing.T) {
	store, err := NewFileArtifactStore(t.TempDir(), testLogger(t))
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	if cmp, err := store.LoadComparison(); err != nil || cmp != nil {
		t.Fatalf("fresh store comparison = %v, %v", cmp, err)
	}

	want := &models.ModelComparison{
		BestModel: models.ModelBoost,
		TrainedAt: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Models: map[models.ModelKind]models.ModelMetrics{
			models.ModelBoost:  {RMSE: 25.1, MAE: 18.2, MAPE: 9.5},
			models.ModelSARIMA: {RMSE: 40.9, MAE: 30.1, MAPE: 15.2},
		},
	}
	if err := store.SaveComparison(want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.LoadComparison()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BestModel != want.BestModel {
		t.Errorf("best = %s", got.BestModel)
	}
	if !got.TrainedAt.Equal(want.TrainedAt) {
		t.Errorf("trained_at = %v", got.TrainedAt)
	}
	if got.Models[models.ModelBoost].RMSE != 25.1 {
		t.Errorf("metrics not preserved: %+v", got.Models)
	}
}
