//go:build wireinject
// +build wireinject

package di

import (
	"DemandCast/pkg/config"
	"DemandCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Data sources
		ProvideSalesStore,
		ProvideWeatherProvider,
		ProvideCalendarProvider,

		// Feature engineering and candidate trainers
		ProvideEngineer,
		ProvideTrainers,

		// Persistence and event publishing
		ProvideArtifactStore,
		ProvideEventPublisher,

		// Use cases
		ProvideActiveModel,
		ProvideForecastEngine,
		ProvideTrainingPipeline,
		ProvideQueue,

		// HTTP surface
		ProvideCache,
		ProvideLimiter,
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
