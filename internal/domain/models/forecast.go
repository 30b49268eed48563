package models

import "time"

// ModelKind tags the trained model variants.
type ModelKind string

const (
	ModelSARIMA ModelKind = "SARIMA"
	ModelBoost  ModelKind = "BoostedTrees"
	ModelLSTM   ModelKind = "LSTM"
)

// ModelKinds lists all variants in trainer evaluation order.
func ModelKinds() []ModelKind {
	return []ModelKind{ModelSARIMA, ModelBoost, ModelLSTM}
}

// ConfidenceSpread returns the heuristic band width for a variant
// (lower = pred*(1-spread), upper = pred*(1+spread)).
func ConfidenceSpread(kind ModelKind) float64 {
	switch kind {
	case ModelSARIMA:
		return 0.20
	case ModelBoost:
		return 0.15
	case ModelLSTM:
		return 0.18
	default:
		return 0.20
	}
}

// Artifact is a trained model able to predict a horizon of daily totals.
// Artifacts are immutable once published; each variant implements its own
// recursive or batch strategy internally.
type Artifact interface {
	Kind() ModelKind

	// PredictHorizon produces one raw (unclamped) prediction per future
	// day starting at from. from matters only to variants that derive
	// date features per day.
	PredictHorizon(from time.Time, days int) ([]float64, error)
}

// ModelMetrics holds held-out evaluation scores.
type ModelMetrics struct {
	RMSE float64 `json:"rmse"`
	MAE  float64 `json:"mae"`
	MAPE float64 `json:"mape"`
}

// TrainResult is what each trainer hands to the selector.
type TrainResult struct {
	Name         ModelKind
	Metrics      ModelMetrics
	Artifact     Artifact
	ForecastTest []float64
	ActualTest   []float64
}

// ModelComparison captures all successful candidates of a training run.
// Persisted once training completes; read-only until the next run.
type ModelComparison struct {
	BestModel ModelKind                  `json:"best_model"`
	TrainedAt time.Time                  `json:"trained_at"`
	Models    map[ModelKind]ModelMetrics `json:"models"`
}

// ForecastPoint is one future day's prediction. Ephemeral, never persisted.
type ForecastPoint struct {
	Date      time.Time
	DayName   string
	Predicted float64
	Lower     float64
	Upper     float64
}

// AggregatedPeriod is a contiguous block of ForecastPoints summed into
// one weekly or monthly bucket.
type AggregatedPeriod struct {
	PeriodNumber int
	StartDate    time.Time
	EndDate      time.Time
	Total        float64
	AvgDaily     float64
	Lower        float64
	Upper        float64
}

// TrainingEvent is published after every completed training run.
type TrainingEvent struct {
	BestModel       ModelKind                  `json:"best_model"`
	TrainedAt       time.Time                  `json:"trained_at"`
	Models          map[ModelKind]ModelMetrics `json:"models"`
	DurationSeconds float64                    `json:"duration_seconds"`
}

// HistoricalPoint is one day of actual observed demand.
type HistoricalPoint struct {
	Date   time.Time
	Actual float64
}
