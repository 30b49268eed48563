package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"DemandCast/internal/domain/models"
	drepo "DemandCast/internal/domain/repository"
	dservice "DemandCast/internal/domain/service"
	"DemandCast/internal/services/features"
	"DemandCast/internal/services/training"
	"DemandCast/pkg/logger"
	"DemandCast/pkg/util"
)

// ErrTrainingInProgress signals that a run is already executing; callers
// should report busy rather than queue another run.
var ErrTrainingInProgress = errors.New("a training run is already in progress")

const diagnosticLimit = 500

// RunOutcome summarizes one completed training run.
type RunOutcome struct {
	BestModel  models.ModelKind
	Comparison *models.ModelComparison
	Duration   time.Duration
	Output     string
}

// TrainingPipeline runs the full retrain flow: rebuild the feature
// table, fit every candidate, select by held-out RMSE, persist, and
// atomically publish the winner. The previous model keeps serving until
// a run succeeds end to end.
type TrainingPipeline struct {
	sales     drepo.SalesStore
	weather   dservice.WeatherProvider
	calendar  dservice.CalendarProvider
	engineer  *features.Engineer
	trainers  []dservice.Trainer
	artifacts drepo.ArtifactStore
	events    drepo.EventPublisher // nil when event publishing is disabled
	active    *ActiveModel
	metrics   drepo.Metrics
	logger    *logger.Logger
	timeout   time.Duration

	mu      sync.Mutex
	running bool
	table   []models.FeatureRow
	history []models.HistoricalPoint
}

// NewTrainingPipeline wires the retrain flow.
func NewTrainingPipeline(
	sales drepo.SalesStore,
	weather dservice.WeatherProvider,
	calendar dservice.CalendarProvider,
	engineer *features.Engineer,
	trainers []dservice.Trainer,
	artifacts drepo.ArtifactStore,
	events drepo.EventPublisher,
	active *ActiveModel,
	metrics drepo.Metrics,
	l *logger.Logger,
	timeout time.Duration,
) *TrainingPipeline {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &TrainingPipeline{
		sales:     sales,
		weather:   weather,
		calendar:  calendar,
		engineer:  engineer,
		trainers:  trainers,
		artifacts: artifacts,
		events:    events,
		active:    active,
		metrics:   metrics,
		logger:    l,
		timeout:   timeout,
	}
}

// Busy reports whether a run is currently executing.
func (p *TrainingPipeline) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Historical returns the most recent days of actual daily totals from
// the last feature build, newest last.
func (p *TrainingPipeline) Historical(days int) []models.HistoricalPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	if days <= 0 || days > len(p.history) {
		days = len(p.history)
	}
	out := make([]models.HistoricalPoint, days)
	copy(out, p.history[len(p.history)-days:])
	return out
}

// Run executes one training run under the configured timeout. With
// skipFeatures set, a previously built feature table is reused when one
// exists. Only one run executes at a time; concurrent calls fail fast
// with ErrTrainingInProgress.
func (p *TrainingPipeline) Run(ctx context.Context, skipFeatures bool) (*RunOutcome, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrTrainingInProgress
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	outcome, err := p.run(ctx, skipFeatures)
	elapsed := time.Since(start)

	if err != nil {
		p.metrics.RecordTrainingRun("failure", elapsed.Seconds())
		p.metrics.RecordError("training")
		p.logger.Error("training run failed",
			logger.Duration("elapsed", elapsed),
			logger.Error(err),
		)
		return nil, fmt.Errorf("training run: %s", tail(err.Error(), diagnosticLimit))
	}

	outcome.Duration = elapsed
	p.metrics.RecordTrainingRun("success", elapsed.Seconds())
	return outcome, nil
}

func (p *TrainingPipeline) run(ctx context.Context, skipFeatures bool) (*RunOutcome, error) {
	table, err := p.featureTable(ctx, skipFeatures)
	if err != nil {
		return nil, err
	}

	results := make([]*models.TrainResult, 0, len(p.trainers))
	for _, tr := range p.trainers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := tr.Train(ctx, table)
		if err != nil {
			// One candidate failing is recoverable; selection proceeds
			// over the survivors.
			p.metrics.RecordError("train_" + string(tr.Name()))
			p.logger.Warn("model candidate failed",
				logger.String("model", string(tr.Name())),
				logger.Error(err),
			)
			results = append(results, nil)
			continue
		}
		results = append(results, res)
	}

	best, comparison, err := training.SelectBest(results)
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		if res == nil {
			continue
		}
		p.metrics.RecordModelRMSE(string(res.Name), res.Metrics.RMSE)
		if err := p.artifacts.SaveArtifact(res.Artifact); err != nil {
			return nil, fmt.Errorf("persist %s artifact: %w", res.Name, err)
		}
	}
	if err := p.artifacts.SaveComparison(comparison); err != nil {
		return nil, fmt.Errorf("persist comparison: %w", err)
	}

	snap := p.active.Publish(best.Artifact, comparison)
	variants := make([]string, 0, len(models.ModelKinds()))
	for _, k := range models.ModelKinds() {
		variants = append(variants, string(k))
	}
	p.metrics.RecordActiveModel(string(best.Name), variants)

	p.logger.Info("training run complete",
		logger.String("best_model", string(best.Name)),
		logger.Float64("rmse", best.Metrics.RMSE),
		logger.Int64("version", snap.Version),
	)

	p.publishEvent(ctx, best, comparison)

	return &RunOutcome{
		BestModel:  best.Name,
		Comparison: comparison,
		Output: fmt.Sprintf("selected %s (rmse=%.4f) from %d candidates",
			best.Name, best.Metrics.RMSE, len(comparison.Models)),
	}, nil
}

// featureTable rebuilds the feature table, or reuses the cached one when
// the caller asked to skip the rebuild and a table exists.
func (p *TrainingPipeline) featureTable(ctx context.Context, skip bool) ([]models.FeatureRow, error) {
	if skip {
		p.mu.Lock()
		cached := p.table
		p.mu.Unlock()
		if len(cached) > 0 {
			p.logger.Info("reusing cached feature table", logger.Int("rows", len(cached)))
			return cached, nil
		}
		p.logger.Warn("no cached feature table, rebuilding")
	}

	sales, err := p.sales.LoadSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("load sales: %w", err)
	}
	if len(sales) == 0 {
		return nil, fmt.Errorf("sales source returned no records")
	}

	from, to := sales[0].Date, sales[0].Date
	for _, r := range sales[1:] {
		if r.Date.Before(from) {
			from = r.Date
		}
		if r.Date.After(to) {
			to = r.Date
		}
	}

	p.logger.Info("sales history loaded",
		logger.Int("records", len(sales)),
		logger.String("from", util.DayKey(from)),
		logger.String("to", util.DayKey(to)),
		logger.Int("span_days", util.DaysBetween(from, to)+1),
	)

	weather, err := p.weather.Fetch(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch weather: %w", err)
	}
	cal, err := p.calendar.Load()
	if err != nil {
		return nil, fmt.Errorf("load calendar: %w", err)
	}

	table, err := p.engineer.BuildTrainingTable(sales, weather, cal)
	if err != nil {
		return nil, fmt.Errorf("build features: %w", err)
	}

	dates, totals := training.DailyTotals(table)
	history := make([]models.HistoricalPoint, len(dates))
	for i := range dates {
		history[i] = models.HistoricalPoint{Date: dates[i], Actual: totals[i]}
	}

	p.mu.Lock()
	p.table = table
	p.history = history
	p.mu.Unlock()

	return table, nil
}

func (p *TrainingPipeline) publishEvent(ctx context.Context, best *models.TrainResult, cmp *models.ModelComparison) {
	if p.events == nil {
		return
	}
	ev := &models.TrainingEvent{
		BestModel: best.Name,
		TrainedAt: cmp.TrainedAt,
		Models:    cmp.Models,
	}
	// Event delivery is best effort: a broker outage must not fail the run.
	if err := p.events.PublishTrainingCompleted(ctx, ev); err != nil {
		p.metrics.RecordError("event_publish")
		p.logger.Warn("training event publish failed", logger.Error(err))
	}
}

// Restore loads the persisted comparison and its best artifact so a
// restarted process resumes serving without retraining. No persisted
// state is not an error.
func (p *TrainingPipeline) Restore(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	cmp, err := p.artifacts.LoadComparison()
	if err != nil {
		return false, fmt.Errorf("load comparison: %w", err)
	}
	if cmp == nil {
		return false, nil
	}

	artifact, err := p.artifacts.LoadArtifact(cmp.BestModel)
	if err != nil {
		return false, fmt.Errorf("load %s artifact: %w", cmp.BestModel, err)
	}
	if artifact == nil {
		return false, nil
	}

	snap := p.active.Publish(artifact, cmp)
	variants := make([]string, 0, len(models.ModelKinds()))
	for _, k := range models.ModelKinds() {
		variants = append(variants, string(k))
	}
	p.metrics.RecordActiveModel(string(cmp.BestModel), variants)

	p.logger.Info("restored persisted model",
		logger.String("model", string(cmp.BestModel)),
		logger.Time("trained_at", cmp.TrainedAt),
		logger.Int64("version", snap.Version),
	)
	return true, nil
}

// tail bounds diagnostics to the last n characters.
func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
