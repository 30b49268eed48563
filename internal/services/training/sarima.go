package training

import (
	"context"
	"fmt"
	"sync"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/logger"

	"github.com/sartorproj/goarima/sarima"
	"github.com/sartorproj/goarima/timeseries"
)

// SARIMA(1,1,1)(1,1,0)[7]: weekly seasonality on the daily total series.
const (
	sarimaP, sarimaD, sarimaQ    = 1, 1, 1
	sarimaSP, sarimaSD, sarimaSQ = 1, 1, 0
	sarimaPeriod                 = 7
)

// SARIMAArtifact carries the training portion of the daily series; the
// fitted state-space model is rebuilt from it lazily after a reload.
type SARIMAArtifact struct {
	Series []float64

	mu    sync.Mutex
	model *sarima.Model
}

func (a *SARIMAArtifact) Kind() models.ModelKind { return models.ModelSARIMA }

// PredictHorizon forecasts days steps with the model's native multi-step
// forecaster. The anchor date is ignored: the model continues from the
// end of its training window.
func (a *SARIMAArtifact) PredictHorizon(_ time.Time, days int) ([]float64, error) {
	model, err := a.fitted()
	if err != nil {
		return nil, err
	}
	return model.Predict(days)
}

func (a *SARIMAArtifact) fitted() (*sarima.Model, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.model != nil {
		return a.model, nil
	}
	m := sarima.New(sarimaP, sarimaD, sarimaQ, sarimaSP, sarimaSD, sarimaSQ, sarimaPeriod)
	if err := m.Fit(&timeseries.Series{Values: a.Series}); err != nil {
		return nil, fmt.Errorf("refit sarima: %w", err)
	}
	a.model = m
	return m, nil
}

// SARIMATrainer fits the seasonal state-space model on aggregated daily
// totals with the trailing holdout reserved for evaluation.
type SARIMATrainer struct {
	logger      *logger.Logger
	holdoutDays int
}

// NewSARIMATrainer creates the statistical trainer.
func NewSARIMATrainer(l *logger.Logger, holdoutDays int) *SARIMATrainer {
	if holdoutDays <= 0 {
		holdoutDays = 90
	}
	return &SARIMATrainer{logger: l, holdoutDays: holdoutDays}
}

func (t *SARIMATrainer) Name() models.ModelKind { return models.ModelSARIMA }

// Train aggregates to daily totals, fills calendar gaps with the series
// median, fits on all but the trailing holdout, and scores the holdout.
func (t *SARIMATrainer) Train(ctx context.Context, table []models.FeatureRow) (*models.TrainResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dates, totals := DailyTotals(table)
	series := FillCalendarGaps(dates, totals)
	if len(series) <= t.holdoutDays+2*sarimaPeriod {
		return nil, fmt.Errorf("series too short for sarima: %d days", len(series))
	}

	split := len(series) - t.holdoutDays
	train, test := series[:split], series[split:]

	t.logger.Info("training sarima",
		logger.Int("train_days", len(train)),
		logger.Int("test_days", len(test)),
	)

	model := sarima.New(sarimaP, sarimaD, sarimaQ, sarimaSP, sarimaSD, sarimaSQ, sarimaPeriod)
	if err := model.Fit(&timeseries.Series{Values: train}); err != nil {
		return nil, fmt.Errorf("sarima fit: %w", err)
	}

	forecast, err := model.Predict(len(test))
	if err != nil {
		return nil, fmt.Errorf("sarima holdout forecast: %w", err)
	}
	forecast = clampNonNegative(forecast)

	metrics := ComputeMetrics(test, forecast)
	t.logger.Info("sarima trained",
		logger.Float64("rmse", metrics.RMSE),
		logger.Float64("mae", metrics.MAE),
		logger.Float64("mape", metrics.MAPE),
	)

	artifact := &SARIMAArtifact{Series: train, model: model}
	return &models.TrainResult{
		Name:         models.ModelSARIMA,
		Metrics:      metrics,
		Artifact:     artifact,
		ForecastTest: forecast,
		ActualTest:   test,
	}, nil
}
