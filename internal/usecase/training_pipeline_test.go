package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"DemandCast/internal/domain/models"
	dservice "DemandCast/internal/domain/service"
	svcmetrics "DemandCast/internal/service/metrics"
	"DemandCast/internal/services/features"
)

type fakeSalesStore struct {
	mu      sync.Mutex
	records []models.RawSalesRecord
	loads   int
	err     error
}

func (f *fakeSalesStore) Init(ctx context.Context) error { return nil }
func (f *fakeSalesStore) Health(ctx context.Context) error { return nil }
func (f *fakeSalesStore) Close() error                   { return nil }

func (f *fakeSalesStore) LoadSales(ctx context.Context) ([]models.RawSalesRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	return f.records, f.err
}

func (f *fakeSalesStore) loadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads
}

type fakeWeather struct{}

func (fakeWeather) Fetch(_ context.Context, from, to time.Time) ([]models.WeatherRecord, error) {
	var out []models.WeatherRecord
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		out = append(out, models.WeatherRecord{
			Date: d, TempMax: 32, TempMin: 22, TempMean: 27, Precipitation: 1, Rainfall: 0.5,
		})
	}
	return out, nil
}

type fakeCalendar struct{}

func (fakeCalendar) Load() (*models.CalendarDates, error) {
	return models.NewCalendarDates(), nil
}

type fakeTrainer struct {
	kind    models.ModelKind
	rmse    float64
	err     error
	started chan struct{} // optional, closed on entry
	release chan struct{} // optional, Train blocks until closed
}

func (f *fakeTrainer) Name() models.ModelKind { return f.kind }

func (f *fakeTrainer) Train(ctx context.Context, table []models.FeatureRow) (*models.TrainResult, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	return &models.TrainResult{
		Name:     f.kind,
		Metrics:  models.ModelMetrics{RMSE: f.rmse},
		Artifact: &stubArtifact{kind: f.kind, vals: []float64{100}},
	}, nil
}

type fakeArtifactStore struct {
	mu         sync.Mutex
	artifacts  map[models.ModelKind]models.Artifact
	comparison *models.ModelComparison
	saveErr    error
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{artifacts: make(map[models.ModelKind]models.Artifact)}
}

func (f *fakeArtifactStore) SaveArtifact(a models.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.artifacts[a.Kind()] = a
	return nil
}

func (f *fakeArtifactStore) LoadArtifact(kind models.ModelKind) (models.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.artifacts[kind], nil
}

func (f *fakeArtifactStore) SaveComparison(cmp *models.ModelComparison) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comparison = cmp
	return nil
}

func (f *fakeArtifactStore) LoadComparison() (*models.ModelComparison, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.comparison, nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []*models.TrainingEvent
	err    error
}

func (f *fakeEvents) PublishTrainingCompleted(_ context.Context, ev *models.TrainingEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) Close() error { return nil }

func fixtureSales(nDays int) []models.RawSalesRecord {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var out []models.RawSalesRecord
	for n := 0; n < nDays; n++ {
		out = append(out, models.RawSalesRecord{
			Date: start.AddDate(0, 0, n), StoreID: 1, ItemID: 1, Quantity: float64(50 + n%7),
		})
	}
	return out
}

type pipelineFixture struct {
	pipeline *TrainingPipeline
	sales    *fakeSalesStore
	store    *fakeArtifactStore
	events   *fakeEvents
	active   *ActiveModel
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	sales := &fakeSalesStore{records: fixtureSales(60)}
	store := newFakeArtifactStore()
	events := &fakeEvents{}
	active := NewActiveModel()

	l := testLogger(t)
	p := NewTrainingPipeline(
		sales, fakeWeather{}, fakeCalendar{},
		features.NewEngineer(l),
		nil,
		store, events, active,
		svcmetrics.NewNoop(), l,
		time.Minute,
	)
	return &pipelineFixture{pipeline: p, sales: sales, store: store, events: events, active: active}
}

func trainerList(ts ...*fakeTrainer) []dservice.Trainer {
	out := make([]dservice.Trainer, len(ts))
	for i, tr := range ts {
		out[i] = tr
	}
	return out
}

func TestRunPublishesBestModel(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.pipeline.trainers = trainerList(
		&fakeTrainer{kind: models.ModelSARIMA, rmse: 40},
		&fakeTrainer{kind: models.ModelBoost, rmse: 25},
		&fakeTrainer{kind: models.ModelLSTM, rmse: 33},
	)

	outcome, err := fx.pipeline.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.BestModel != models.ModelBoost {
		t.Errorf("best = %s, want %s", outcome.BestModel, models.ModelBoost)
	}

	snap, ok := fx.active.Current()
	if !ok {
		t.Fatal("no active model after successful run")
	}
	if snap.Artifact.Kind() != models.ModelBoost {
		t.Errorf("active artifact = %s", snap.Artifact.Kind())
	}
	if snap.Version != 1 {
		t.Errorf("version = %d, want 1", snap.Version)
	}

	// Every successful candidate persists, plus the comparison.
	if len(fx.store.artifacts) != 3 {
		t.Errorf("persisted %d artifacts, want 3", len(fx.store.artifacts))
	}
	if fx.store.comparison == nil || fx.store.comparison.BestModel != models.ModelBoost {
		t.Errorf("comparison not persisted correctly: %+v", fx.store.comparison)
	}
	if len(fx.events.events) != 1 {
		t.Errorf("published %d events, want 1", len(fx.events.events))
	}
}

func TestRunSurvivesOneFailedCandidate(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.pipeline.trainers = trainerList(
		&fakeTrainer{kind: models.ModelSARIMA, err: fmt.Errorf("did not converge")},
		&fakeTrainer{kind: models.ModelBoost, rmse: 25},
	)

	outcome, err := fx.pipeline.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if outcome.BestModel != models.ModelBoost {
		t.Errorf("best = %s", outcome.BestModel)
	}
	if len(outcome.Comparison.Models) != 1 {
		t.Errorf("comparison covers %d models, want only the survivor", len(outcome.Comparison.Models))
	}
}

func TestRunAllCandidatesFailKeepsOldModel(t *testing.T) {
	fx := newPipelineFixture(t)
	old := &stubArtifact{kind: models.ModelSARIMA, vals: []float64{1}}
	fx.active.Publish(old, &models.ModelComparison{BestModel: models.ModelSARIMA})

	fx.pipeline.trainers = trainerList(
		&fakeTrainer{kind: models.ModelSARIMA, err: fmt.Errorf("boom")},
		&fakeTrainer{kind: models.ModelBoost, err: fmt.Errorf("boom")},
	)

	if _, err := fx.pipeline.Run(context.Background(), false); err == nil {
		t.Fatal("expected error when every candidate fails")
	}

	snap, ok := fx.active.Current()
	if !ok || snap.Artifact != models.Artifact(old) {
		t.Error("failed run must leave the previous model serving")
	}
	if snap.Version != 1 {
		t.Errorf("version changed to %d on failure", snap.Version)
	}
}

func TestRunRejectsConcurrentRuns(t *testing.T) {
	fx := newPipelineFixture(t)
	blocker := &fakeTrainer{
		kind: models.ModelBoost, rmse: 10,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	fx.pipeline.trainers = trainerList(blocker)

	done := make(chan error, 1)
	go func() {
		_, err := fx.pipeline.Run(context.Background(), false)
		done <- err
	}()

	<-blocker.started
	if !fx.pipeline.Busy() {
		t.Error("pipeline not busy during a run")
	}
	if _, err := fx.pipeline.Run(context.Background(), false); err != ErrTrainingInProgress {
		t.Errorf("concurrent run error = %v, want ErrTrainingInProgress", err)
	}

	close(blocker.release)
	if err := <-done; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if fx.pipeline.Busy() {
		t.Error("pipeline still busy after run finished")
	}
}

func TestRunSkipFeaturesReusesTable(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.pipeline.trainers = trainerList(&fakeTrainer{kind: models.ModelBoost, rmse: 10})

	if _, err := fx.pipeline.Run(context.Background(), false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := fx.pipeline.Run(context.Background(), true); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if n := fx.sales.loadCount(); n != 1 {
		t.Errorf("sales loaded %d times, want 1 with skip_features", n)
	}

	// Without a cached table, skip falls back to a rebuild.
	fx2 := newPipelineFixture(t)
	fx2.pipeline.trainers = trainerList(&fakeTrainer{kind: models.ModelBoost, rmse: 10})
	if _, err := fx2.pipeline.Run(context.Background(), true); err != nil {
		t.Fatalf("skip without cache: %v", err)
	}
	if n := fx2.sales.loadCount(); n != 1 {
		t.Errorf("sales loaded %d times, want rebuild", n)
	}
}

func TestRunEventFailureIsNotFatal(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.events.err = fmt.Errorf("broker down")
	fx.pipeline.trainers = trainerList(&fakeTrainer{kind: models.ModelBoost, rmse: 10})

	if _, err := fx.pipeline.Run(context.Background(), false); err != nil {
		t.Fatalf("run failed on event publish: %v", err)
	}
	if _, ok := fx.active.Current(); !ok {
		t.Error("model not published despite successful training")
	}
}

func TestHistoricalWindow(t *testing.T) {
	fx := newPipelineFixture(t)
	fx.pipeline.trainers = trainerList(&fakeTrainer{kind: models.ModelBoost, rmse: 10})

	if got := fx.pipeline.Historical(10); len(got) != 0 {
		t.Errorf("expected no history before a feature build, got %d", len(got))
	}

	if _, err := fx.pipeline.Run(context.Background(), false); err != nil {
		t.Fatalf("run: %v", err)
	}

	all := fx.pipeline.Historical(0)
	if len(all) == 0 {
		t.Fatal("no history after feature build")
	}
	last10 := fx.pipeline.Historical(10)
	if len(last10) != 10 {
		t.Fatalf("got %d points, want 10", len(last10))
	}
	if !last10[9].Date.Equal(all[len(all)-1].Date) {
		t.Error("historical window is not the most recent days")
	}
	for i := 1; i < len(last10); i++ {
		if !last10[i].Date.After(last10[i-1].Date) {
			t.Error("history not in ascending date order")
		}
	}
}

func TestRestoreResumesServing(t *testing.T) {
	fx := newPipelineFixture(t)
	art := &stubArtifact{kind: models.ModelLSTM, vals: []float64{5}}
	if err := fx.store.SaveArtifact(art); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := fx.store.SaveComparison(&models.ModelComparison{BestModel: models.ModelLSTM}); err != nil {
		t.Fatalf("save comparison: %v", err)
	}

	ok, err := fx.pipeline.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !ok {
		t.Fatal("restore found nothing")
	}
	snap, active := fx.active.Current()
	if !active || snap.Artifact.Kind() != models.ModelLSTM {
		t.Error("restored model not active")
	}
}

func TestRestoreWithNothingPersisted(t *testing.T) {
	fx := newPipelineFixture(t)
	ok, err := fx.pipeline.Restore(context.Background())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if ok {
		t.Error("restore reported success with no persisted state")
	}
	if _, active := fx.active.Current(); active {
		t.Error("model active with no persisted state")
	}
}
