package di

import (
	"fmt"

	"DemandCast/internal/domain/repository"
	dservice "DemandCast/internal/domain/service"
	"DemandCast/internal/handler/api"
	internalrepo "DemandCast/internal/repository"
	"DemandCast/internal/service/cache"
	"DemandCast/internal/service/ratelimit"
	"DemandCast/internal/services/calendar"
	"DemandCast/internal/services/features"
	"DemandCast/internal/services/training"
	"DemandCast/internal/services/weather"
	"DemandCast/internal/usecase"
	pkgch "DemandCast/pkg/clickhouse"
	"DemandCast/pkg/config"
	xhttp "DemandCast/pkg/http"
	pkgkafka "DemandCast/pkg/kafka"
	applogger "DemandCast/pkg/logger"
	pkgmetrics "DemandCast/pkg/metrics"
	"DemandCast/pkg/queue"
	"DemandCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return pkgmetrics.New()
}

// ProvideSalesStore selects the sales source from configuration.
func ProvideSalesStore(cfg *config.Config, l *applogger.Logger) (repository.SalesStore, error) {
	switch cfg.Source.Type {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithClientTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, fmt.Errorf("clickhouse client: %w", err)
		}
		return internalrepo.NewCHSalesStore(client, cfg.ClickHouse.SalesTable, l), nil
	case "csv":
		return internalrepo.NewCSVSalesStore(cfg.Source.CSVPath, l), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Source.Type)
	}
}

// ProvideWeatherProvider creates the Open-Meteo archive adapter.
func ProvideWeatherProvider(cfg *config.Config, l *applogger.Logger) dservice.WeatherProvider {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Weather.Timeout))
	return weather.New(client, weather.Config{
		BaseURL:   cfg.Weather.BaseURL,
		Latitude:  cfg.Weather.Latitude,
		Longitude: cfg.Weather.Longitude,
		Timezone:  cfg.Weather.Timezone,
	}, l)
}

// ProvideCalendarProvider creates the academic-calendar adapter.
func ProvideCalendarProvider(cfg *config.Config, l *applogger.Logger) dservice.CalendarProvider {
	return calendar.New(cfg.Calendar.Path, l)
}

// ProvideEngineer creates the feature-engineering service.
func ProvideEngineer(l *applogger.Logger) *features.Engineer {
	return features.NewEngineer(l)
}

// ProvideTrainers builds the candidate trainers in evaluation order.
func ProvideTrainers(cfg *config.Config, l *applogger.Logger) []dservice.Trainer {
	boostParams := training.DefaultBoostParams()
	boostParams.Rounds = cfg.Training.BoostRounds
	return []dservice.Trainer{
		training.NewSARIMATrainer(l, cfg.Training.HoldoutDays),
		training.NewBoostTrainer(l, cfg.Training.HoldoutDays, boostParams),
		training.NewLSTMTrainer(l, cfg.Training.HoldoutDays, cfg.Training.Lookback, cfg.Training.LSTMEpochs),
	}
}

// ProvideArtifactStore creates the on-disk artifact store.
func ProvideArtifactStore(cfg *config.Config, l *applogger.Logger) (repository.ArtifactStore, error) {
	return internalrepo.NewFileArtifactStore(cfg.Training.ArtifactDir, l)
}

// ProvideEventPublisher creates the Kafka publisher, or nil when event
// publishing is disabled.
func ProvideEventPublisher(cfg *config.Config, l *applogger.Logger) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithRequiredAcks(cfg.Events.RequiredAcks),
		pkgkafka.WithTimeouts(cfg.Events.WriteTimeout, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic, l), nil
}

// ProvideActiveModel creates the shared serving handle.
func ProvideActiveModel() *usecase.ActiveModel {
	return usecase.NewActiveModel()
}

// ProvideForecastEngine creates the serving engine.
func ProvideForecastEngine(active *usecase.ActiveModel, m repository.Metrics, l *applogger.Logger) *usecase.ForecastEngine {
	return usecase.NewForecastEngine(active, m, l)
}

// ProvideTrainingPipeline wires the retrain flow.
func ProvideTrainingPipeline(
	cfg *config.Config,
	sales repository.SalesStore,
	w dservice.WeatherProvider,
	cal dservice.CalendarProvider,
	engineer *features.Engineer,
	trainers []dservice.Trainer,
	artifacts repository.ArtifactStore,
	events repository.EventPublisher,
	active *usecase.ActiveModel,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.TrainingPipeline {
	return usecase.NewTrainingPipeline(
		sales, w, cal, engineer, trainers, artifacts, events, active, m, l,
		cfg.Training.Timeout,
	)
}

// ProvideCache selects Redis when configured, in-process TTL otherwise.
func ProvideCache(cfg *config.Config) cache.BytesCache {
	if cfg.Forecast.Redis.Enabled {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Forecast.Redis.Addr,
			Password: cfg.Forecast.Redis.Password,
			DB:       cfg.Forecast.Redis.DB,
		})
	}
	return cache.NewTTLCache()
}

// ProvideLimiter creates the retrain rate limiter.
func ProvideLimiter() *ratelimit.Limiter {
	return ratelimit.New()
}

// ProvideHandler creates the HTTP handler.
func ProvideHandler(
	cfg *config.Config,
	l *applogger.Logger,
	engine *usecase.ForecastEngine,
	pipeline *usecase.TrainingPipeline,
	active *usecase.ActiveModel,
	c cache.BytesCache,
	limiter *ratelimit.Limiter,
	m repository.Metrics,
) xhttp.Handler {
	return api.NewForecastHandler(l, engine, pipeline, active, c, limiter, m, api.HandlerConfig{
		CacheTTL:      cfg.Forecast.CacheTTL,
		RetrainBurst:  cfg.Training.RetrainBurst,
		RetrainPerMin: cfg.Training.RetrainPerMin,
	})
}

// ProvideQueue creates the in-process job queue with the training job
// registered.
func ProvideQueue(pipeline *usecase.TrainingPipeline, l *applogger.Logger) (*queue.MemoryQueue, error) {
	q := queue.NewMemoryQueue(l, &queue.QueueConfig{Workers: 1, QueueSize: 4})
	if err := q.Register(usecase.NewTrainJob(pipeline, l)); err != nil {
		return nil, fmt.Errorf("register training job: %w", err)
	}
	return q, nil
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	pipeline *usecase.TrainingPipeline,
	q *queue.MemoryQueue,
	sales repository.SalesStore,
	events repository.EventPublisher,
) *server.App {
	return server.New(cfg, l, handler, pipeline, q, sales, events)
}
