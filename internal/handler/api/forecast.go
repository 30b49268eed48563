package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"DemandCast/internal/domain/models"
	drepo "DemandCast/internal/domain/repository"
	"DemandCast/internal/service/cache"
	"DemandCast/internal/service/ratelimit"
	"DemandCast/internal/usecase"
	xhttp "DemandCast/pkg/http"
	xlogger "DemandCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

const retrainLimitKey = "retrain"

var metricDescriptions = map[string]string{
	"rmse": "Root Mean Squared Error - lower is better",
	"mae":  "Mean Absolute Error - average error in units sold",
	"mape": "Mean Absolute Percentage Error - relative error over positive actuals",
}

// ForecastHandler exposes the forecast, accuracy, retrain, and health
// endpoints.
type ForecastHandler struct {
	logger   *xlogger.Logger
	engine   *usecase.ForecastEngine
	pipeline *usecase.TrainingPipeline
	active   *usecase.ActiveModel
	cache    cache.BytesCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter
	burst    float64
	perSec   float64
	metrics  drepo.Metrics
}

// HandlerConfig bundles the handler's tunables.
type HandlerConfig struct {
	CacheTTL      time.Duration
	RetrainBurst  float64
	RetrainPerMin float64
}

func NewForecastHandler(
	l *xlogger.Logger,
	engine *usecase.ForecastEngine,
	pipeline *usecase.TrainingPipeline,
	active *usecase.ActiveModel,
	c cache.BytesCache,
	limiter *ratelimit.Limiter,
	metrics drepo.Metrics,
	cfg HandlerConfig,
) *ForecastHandler {
	if cfg.RetrainBurst <= 0 {
		cfg.RetrainBurst = 1
	}
	if cfg.RetrainPerMin <= 0 {
		cfg.RetrainPerMin = 0.2
	}
	return &ForecastHandler{
		logger:   l,
		engine:   engine,
		pipeline: pipeline,
		active:   active,
		cache:    c,
		cacheTTL: cfg.CacheTTL,
		limiter:  limiter,
		burst:    cfg.RetrainBurst,
		perSec:   cfg.RetrainPerMin / 60,
		metrics:  metrics,
	}
}

func (h *ForecastHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/forecast/daily", h.Daily)
	g.GET("/forecast/weekly", h.Weekly)
	g.GET("/forecast/monthly", h.Monthly)
	g.GET("/forecast/accuracy", h.Accuracy)
	g.GET("/forecast/historical", h.Historical)
	g.POST("/forecast/retrain", h.Retrain)
}

func (h *ForecastHandler) Health(c echo.Context) error {
	resp := models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
	}
	if snap, ok := h.active.Current(); ok {
		resp.ModelLoaded = true
		resp.ModelName = snap.Artifact.Kind()
	}
	return xhttp.SuccessResponse(c, resp)
}

func (h *ForecastHandler) Daily(c echo.Context) error {
	req := &models.DailyForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := h.cacheKey("daily", req.Days)
	if cached, ok := h.fromCache(key); ok {
		return xhttp.SuccessResponse(c, cached)
	}

	points, kind, err := h.engine.Daily(c.Request().Context(), req.Days)
	if err != nil {
		h.logger.Error("daily forecast error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("forecast generation failed").WithError(err))
	}
	if kind == "" {
		return h.modelNotTrained(c)
	}

	data := make([]models.ForecastPointHTTP, len(points))
	for i, p := range points {
		data[i] = p.ToHTTP()
	}
	resp := models.ForecastResponse{
		ForecastType:    "daily",
		ModelUsed:       kind,
		GeneratedAt:     time.Now(),
		ForecastHorizon: models.HorizonLabel(len(points), "days"),
		Data:            data,
	}
	h.toCache(key, resp)
	return xhttp.SuccessResponse(c, resp)
}

func (h *ForecastHandler) Weekly(c echo.Context) error {
	req := &models.WeeklyForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := h.cacheKey("weekly", req.Weeks)
	if cached, ok := h.fromCache(key); ok {
		return xhttp.SuccessResponse(c, cached)
	}

	periods, kind, err := h.engine.Weekly(c.Request().Context(), req.Weeks)
	if err != nil {
		h.logger.Error("weekly forecast error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("forecast generation failed").WithError(err))
	}
	if kind == "" {
		return h.modelNotTrained(c)
	}

	resp := h.aggregatedResponse("weekly", kind, periods, "weeks")
	h.toCache(key, resp)
	return xhttp.SuccessResponse(c, resp)
}

func (h *ForecastHandler) Monthly(c echo.Context) error {
	req := &models.MonthlyForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	key := h.cacheKey("monthly", req.Months)
	if cached, ok := h.fromCache(key); ok {
		return xhttp.SuccessResponse(c, cached)
	}

	periods, kind, err := h.engine.Monthly(c.Request().Context(), req.Months)
	if err != nil {
		h.logger.Error("monthly forecast error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("forecast generation failed").WithError(err))
	}
	if kind == "" {
		return h.modelNotTrained(c)
	}

	resp := h.aggregatedResponse("monthly", kind, periods, "months")
	h.toCache(key, resp)
	return xhttp.SuccessResponse(c, resp)
}

func (h *ForecastHandler) Accuracy(c echo.Context) error {
	cmp, kind, ok := h.engine.Comparison()
	if !ok {
		return h.modelNotTrained(c)
	}
	return xhttp.SuccessResponse(c, models.AccuracyResponse{
		BestModel:   cmp.BestModel,
		TrainedAt:   cmp.TrainedAt,
		Models:      cmp.Models,
		ActiveModel: kind,
		Description: metricDescriptions,
	})
}

func (h *ForecastHandler) Historical(c echo.Context) error {
	history := h.pipeline.Historical(models.HistoricalWindow)
	if len(history) == 0 {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("No historical data available yet. Trigger a training run first."))
	}

	var kind models.ModelKind
	if snap, ok := h.active.Current(); ok {
		kind = snap.Artifact.Kind()
	}
	data := make([]models.HistoricalPointHTTP, len(history))
	for i, p := range history {
		data[i] = models.HistoricalPointHTTP{
			Date:         p.Date.Format("2006-01-02"),
			ActualDemand: p.Actual,
		}
	}
	return xhttp.SuccessResponse(c, models.HistoricalResponse{
		ModelUsed: kind,
		Data:      data,
		Period:    models.HorizonLabel(len(data), "days"),
	})
}

func (h *ForecastHandler) Retrain(c echo.Context) error {
	req := &models.RetrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	if !h.limiter.Allow(retrainLimitKey, h.burst, h.perSec) {
		return xhttp.TooManyRequestsResponse(c, models.RetrainResponse{
			Status:  "throttled",
			Message: "Retraining was triggered too recently. Try again later.",
		})
	}

	h.logger.Info("retrain triggered",
		xlogger.Bool("skip_features", req.SkipFeatures),
	)

	outcome, err := h.pipeline.Run(c.Request().Context(), req.SkipFeatures)
	if errors.Is(err, usecase.ErrTrainingInProgress) {
		return xhttp.ConflictResponse(c, models.RetrainResponse{
			Status:  "busy",
			Message: "A training run is already in progress.",
		})
	}
	if err != nil {
		return xhttp.DataResponse(c, http.StatusInternalServerError, models.RetrainResponse{
			Status:  "error",
			Message: "Retraining failed. The previous model keeps serving.",
			Output:  err.Error(),
		})
	}

	return xhttp.SuccessResponse(c, models.RetrainResponse{
		Status:      "success",
		Message:     fmt.Sprintf("Retraining completed in %s.", outcome.Duration.Round(time.Second)),
		ActiveModel: outcome.BestModel,
		Output:      outcome.Output,
	})
}

func (h *ForecastHandler) aggregatedResponse(kindLabel string, model models.ModelKind, periods []models.AggregatedPeriod, unit string) models.ForecastResponse {
	data := make([]models.AggregatedPeriodHTTP, len(periods))
	for i, p := range periods {
		data[i] = p.ToHTTP()
	}
	return models.ForecastResponse{
		ForecastType:    kindLabel,
		ModelUsed:       model,
		GeneratedAt:     time.Now(),
		ForecastHorizon: models.HorizonLabel(len(periods), unit),
		Data:            data,
	}
}

func (h *ForecastHandler) modelNotTrained(c echo.Context) error {
	return xhttp.AppErrorResponse(c, xhttp.UnavailableError("Model not trained yet. Trigger a training run via POST /api/forecast/retrain."))
}

// cacheKey scopes cached responses to the active model version so a
// publish naturally invalidates stale entries.
func (h *ForecastHandler) cacheKey(granularity string, horizon int) string {
	return fmt.Sprintf("forecast:%s:%d:v%d", granularity, horizon, h.active.Version())
}

func (h *ForecastHandler) fromCache(key string) (json.RawMessage, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		h.logger.Warn("cache read failed", xlogger.String("key", key), xlogger.Error(err))
		h.metrics.RecordCacheLookup("error")
		return nil, false
	}
	if !ok {
		h.metrics.RecordCacheLookup("miss")
		return nil, false
	}
	h.metrics.RecordCacheLookup("hit")
	return json.RawMessage(b), true
}

func (h *ForecastHandler) toCache(key string, resp models.ForecastResponse) {
	if h.cache == nil {
		return
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err := h.cache.SetBytes(key, b, h.cacheTTL); err != nil {
		h.logger.Warn("cache write failed", xlogger.String("key", key), xlogger.Error(err))
	}
}
