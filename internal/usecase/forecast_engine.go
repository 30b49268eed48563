package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	"DemandCast/internal/domain/models"
	drepo "DemandCast/internal/domain/repository"
	"DemandCast/pkg/logger"
	"DemandCast/pkg/util"
)

// ForecastEngine turns the active artifact into daily points and
// weekly/monthly aggregates. It holds no model state of its own; every
// call reads the current snapshot.
type ForecastEngine struct {
	active  *ActiveModel
	metrics drepo.Metrics
	logger  *logger.Logger
}

// NewForecastEngine creates the serving engine.
func NewForecastEngine(active *ActiveModel, metrics drepo.Metrics, l *logger.Logger) *ForecastEngine {
	return &ForecastEngine{active: active, metrics: metrics, logger: l}
}

// Daily forecasts per-day total demand starting today. The horizon is
// capped, never rejected. When no model is active the result is empty
// with an empty model kind and no error.
func (e *ForecastEngine) Daily(ctx context.Context, days int) ([]models.ForecastPoint, models.ModelKind, error) {
	days = capHorizon(days, models.DailyDefaultDays, models.DailyMaxDays)

	points, kind, err := e.forecastDays(ctx, days)
	if err != nil || kind == "" {
		return nil, kind, err
	}
	e.metrics.RecordForecastServed("daily", string(kind))
	return points, kind, nil
}

// Weekly aggregates daily points into 7-day buckets.
func (e *ForecastEngine) Weekly(ctx context.Context, weeks int) ([]models.AggregatedPeriod, models.ModelKind, error) {
	weeks = capHorizon(weeks, models.WeeklyDefault, models.WeeklyMax)

	points, kind, err := e.forecastDays(ctx, weeks*models.DaysPerWeek)
	if err != nil || kind == "" {
		return nil, kind, err
	}
	e.metrics.RecordForecastServed("weekly", string(kind))
	return aggregate(points, models.DaysPerWeek, models.ConfidenceSpread(kind)), kind, nil
}

// Monthly aggregates daily points into 30-day buckets.
func (e *ForecastEngine) Monthly(ctx context.Context, months int) ([]models.AggregatedPeriod, models.ModelKind, error) {
	months = capHorizon(months, models.MonthlyDefault, models.MonthlyMax)

	points, kind, err := e.forecastDays(ctx, months*models.DaysPerMonth)
	if err != nil || kind == "" {
		return nil, kind, err
	}
	e.metrics.RecordForecastServed("monthly", string(kind))
	return aggregate(points, models.DaysPerMonth, models.ConfidenceSpread(kind)), kind, nil
}

// Comparison returns the evaluation record of the active snapshot.
func (e *ForecastEngine) Comparison() (*models.ModelComparison, models.ModelKind, bool) {
	snap, ok := e.active.Current()
	if !ok {
		return nil, "", false
	}
	return snap.Comparison, snap.Artifact.Kind(), true
}

func (e *ForecastEngine) forecastDays(ctx context.Context, days int) ([]models.ForecastPoint, models.ModelKind, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	snap, ok := e.active.Current()
	if !ok {
		return nil, "", nil
	}
	kind := snap.Artifact.Kind()

	start := time.Now()
	first := util.Midnight(time.Now())
	raw, err := snap.Artifact.PredictHorizon(first, days)
	e.metrics.RecordLatency("predict_horizon", time.Since(start).Seconds())
	if err != nil {
		e.metrics.RecordError("predict")
		e.logger.Error("forecast generation failed",
			logger.String("model", string(kind)),
			logger.Int("days", days),
			logger.Error(err),
		)
		return nil, kind, fmt.Errorf("%s forecast: %w", kind, err)
	}
	if len(raw) != days {
		return nil, kind, fmt.Errorf("%s forecast returned %d of %d days", kind, len(raw), days)
	}

	spread := models.ConfidenceSpread(kind)
	points := make([]models.ForecastPoint, days)
	for i, v := range raw {
		if v < 0 {
			v = 0
		}
		date := first.AddDate(0, 0, i)
		points[i] = models.ForecastPoint{
			Date:      date,
			DayName:   date.Weekday().String(),
			Predicted: round1(v),
			Lower:     round1(v * (1 - spread)),
			Upper:     round1(v * (1 + spread)),
		}
	}
	return points, kind, nil
}

// aggregate sums consecutive points into fixed-size buckets. Bucket
// totals preserve the sum of the daily predictions; the confidence band
// is recomputed on the bucket total at the model's spread rather than
// summed from the daily bands.
func aggregate(points []models.ForecastPoint, bucketSize int, spread float64) []models.AggregatedPeriod {
	var out []models.AggregatedPeriod
	for start := 0; start < len(points); start += bucketSize {
		end := start + bucketSize
		if end > len(points) {
			end = len(points)
		}
		bucket := points[start:end]

		total := 0.0
		for _, p := range bucket {
			total += p.Predicted
		}
		out = append(out, models.AggregatedPeriod{
			PeriodNumber: len(out) + 1,
			StartDate:    bucket[0].Date,
			EndDate:      bucket[len(bucket)-1].Date,
			Total:        round1(total),
			AvgDaily:     round1(total / float64(len(bucket))),
			Lower:        round1(total * (1 - spread)),
			Upper:        round1(total * (1 + spread)),
		})
	}
	return out
}

// capHorizon applies the default for non-positive requests and the hard
// cap otherwise. Oversized horizons are capped, never rejected.
func capHorizon(n, def, max int) int {
	if n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
