package service

import (
	"context"
	"time"

	"DemandCast/internal/domain/models"
)

// WeatherProvider returns one WeatherRecord per day over [from, to].
type WeatherProvider interface {
	Fetch(ctx context.Context, from, to time.Time) ([]models.WeatherRecord, error)
}

// CalendarProvider loads the academic-calendar date sets.
type CalendarProvider interface {
	Load() (*models.CalendarDates, error)
}

// Trainer fits one model family on the feature table. A recoverable
// failure returns an error; the caller proceeds with the remaining
// candidates.
type Trainer interface {
	Name() models.ModelKind
	Train(ctx context.Context, table []models.FeatureRow) (*models.TrainResult, error)
}
