package training

import (
	"math"

	"DemandCast/internal/domain/models"
)

// ComputeMetrics scores predictions against held-out actuals. MAPE is
// computed only over positive actuals and defined as 0 when none exist.
// RMSE/MAE round to 4 decimals, MAPE to 2.
func ComputeMetrics(actual, predicted []float64) models.ModelMetrics {
	n := len(actual)
	if n == 0 || n != len(predicted) {
		return models.ModelMetrics{}
	}

	var sqSum, absSum float64
	for i := 0; i < n; i++ {
		diff := actual[i] - predicted[i]
		sqSum += diff * diff
		absSum += math.Abs(diff)
	}
	rmse := math.Sqrt(sqSum / float64(n))
	mae := absSum / float64(n)

	var pctSum float64
	pctCount := 0
	for i := 0; i < n; i++ {
		if actual[i] > 0 {
			pctSum += math.Abs((actual[i] - predicted[i]) / actual[i])
			pctCount++
		}
	}
	mape := 0.0
	if pctCount > 0 {
		mape = pctSum / float64(pctCount) * 100
	}

	return models.ModelMetrics{
		RMSE: roundTo(rmse, 4),
		MAE:  roundTo(mae, 4),
		MAPE: roundTo(mape, 2),
	}
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func clampNonNegative(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		if x < 0 {
			x = 0
		}
		out[i] = x
	}
	return out
}
