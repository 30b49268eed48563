package training

import (
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
)

// SelectBest picks the candidate with the lowest held-out RMSE among the
// non-nil results (ties broken by evaluation order, first seen wins) and
// builds the comparison record covering every successful candidate.
// All candidates failing is fatal: there is no model to serve.
func SelectBest(results []*models.TrainResult) (*models.TrainResult, *models.ModelComparison, error) {
	var best *models.TrainResult
	comparison := &models.ModelComparison{
		TrainedAt: time.Now(),
		Models:    make(map[models.ModelKind]models.ModelMetrics),
	}

	for _, r := range results {
		if r == nil {
			continue
		}
		comparison.Models[r.Name] = r.Metrics
		if best == nil || r.Metrics.RMSE < best.Metrics.RMSE {
			best = r
		}
	}

	if best == nil {
		return nil, nil, fmt.Errorf("no models were successfully trained")
	}
	comparison.BestModel = best.Name
	return best, comparison, nil
}
