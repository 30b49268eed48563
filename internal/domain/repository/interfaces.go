package repository

import (
	"context"

	"DemandCast/internal/domain/models"
)

// SalesStore provides read access to raw sales history.
type SalesStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	LoadSales(ctx context.Context) ([]models.RawSalesRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ArtifactStore persists trained model artifacts and the comparison record.
type ArtifactStore interface {
	SaveArtifact(artifact models.Artifact) error
	LoadArtifact(kind models.ModelKind) (models.Artifact, error)
	SaveComparison(cmp *models.ModelComparison) error
	LoadComparison() (*models.ModelComparison, error)
}

// EventPublisher announces completed training runs to downstream consumers.
type EventPublisher interface {
	PublishTrainingCompleted(ctx context.Context, ev *models.TrainingEvent) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordForecastServed(granularity, model string)
	RecordTrainingRun(result string, seconds float64)
	RecordError(kind string)
	RecordModelRMSE(model string, rmse float64)
	RecordActiveModel(model string, variants []string)
	RecordLatency(op string, seconds float64)
	RecordCacheLookup(outcome string)
}
