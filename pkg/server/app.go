package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"DemandCast/internal/domain/repository"
	"DemandCast/internal/usecase"
	"DemandCast/pkg/config"
	xhttp "DemandCast/pkg/http"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/queue"
)

const initTimeout = 30 * time.Second

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	handler    xhttp.Handler
	pipeline   *usecase.TrainingPipeline
	queue      *queue.MemoryQueue
	sales      repository.SalesStore
	events     repository.EventPublisher
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	pipeline *usecase.TrainingPipeline,
	q *queue.MemoryQueue,
	sales repository.SalesStore,
	events repository.EventPublisher,
) *App {
	return &App{
		cfg:      cfg,
		logger:   l,
		handler:  handler,
		pipeline: pipeline,
		queue:    q,
		sales:    sales,
		events:   events,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	initCtx, cancelInit := context.WithTimeout(ctx, initTimeout)
	defer cancelInit()
	if err := a.sales.Init(initCtx); err != nil {
		return fmt.Errorf("sales store init: %w", err)
	}

	if err := a.queue.Start(ctx); err != nil {
		return fmt.Errorf("queue start: %w", err)
	}

	// Resume serving the last persisted model, otherwise kick off a
	// bootstrap training run in the background so startup never blocks
	// on a full fit.
	restored, err := a.pipeline.Restore(initCtx)
	if err != nil {
		a.logger.Warn("model restore failed", applogger.Error(err))
	}
	if restored {
		a.logger.Info("resumed serving persisted model")
	} else {
		a.logger.Info("no persisted model found, scheduling bootstrap training")
		if err := a.queue.PublishMessage(ctx, usecase.TrainMessageType, usecase.TrainPayload{}); err != nil {
			a.logger.Warn("bootstrap training enqueue failed", applogger.Error(err))
		}
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.logger),
	)
	if err := a.httpServer.Start(); err != nil {
		return fmt.Errorf("http server start: %w", err)
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown()
}

// TrainOnce runs a single training run and returns, for one-shot CLI use.
func (a *App) TrainOnce(ctx context.Context) error {
	initCtx, cancelInit := context.WithTimeout(ctx, initTimeout)
	defer cancelInit()
	if err := a.sales.Init(initCtx); err != nil {
		return fmt.Errorf("sales store init: %w", err)
	}

	outcome, err := a.pipeline.Run(ctx, false)
	if err != nil {
		return err
	}
	a.logger.Info("training completed",
		applogger.String("best_model", string(outcome.BestModel)),
		applogger.Duration("duration", outcome.Duration),
	)
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.logger.Error("http shutdown error", applogger.Error(err))
		}
	}

	// Cancelling the queue context aborts any in-flight training run;
	// the persisted model from the last successful run is unaffected.
	a.queue.Stop()

	if err := a.sales.Close(); err != nil {
		a.logger.Warn("sales store close error", applogger.Error(err))
	}
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
