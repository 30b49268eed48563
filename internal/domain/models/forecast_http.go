package models

import (
	"fmt"
	"time"
)

// HTTP representations of forecast results.

type ConfidenceHTTP struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type ForecastPointHTTP struct {
	Date            string         `json:"date"`
	DayName         string         `json:"day_name"`
	PredictedDemand float64        `json:"predicted_demand"`
	Confidence      ConfidenceHTTP `json:"confidence"`
}

type AggregatedPeriodHTTP struct {
	PeriodNumber         int            `json:"period_number"`
	StartDate            string         `json:"start_date"`
	EndDate              string         `json:"end_date"`
	TotalPredictedDemand float64        `json:"total_predicted_demand"`
	AvgDailyDemand       float64        `json:"avg_daily_demand"`
	Confidence           ConfidenceHTTP `json:"confidence"`
}

type ForecastResponse struct {
	ForecastType    string      `json:"forecast_type"`
	ModelUsed       ModelKind   `json:"model_used"`
	GeneratedAt     time.Time   `json:"generated_at"`
	ForecastHorizon string      `json:"forecast_horizon"`
	Data            interface{} `json:"data"`
}

type AccuracyResponse struct {
	BestModel   ModelKind                  `json:"best_model"`
	TrainedAt   time.Time                  `json:"trained_at"`
	Models      map[ModelKind]ModelMetrics `json:"models"`
	ActiveModel ModelKind                  `json:"active_model"`
	Description map[string]string          `json:"description"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	ModelLoaded bool      `json:"model_loaded"`
	ModelName   ModelKind `json:"model_name,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type RetrainResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	ActiveModel ModelKind `json:"active_model,omitempty"`
	Output      string    `json:"output,omitempty"`
}

type HistoricalPointHTTP struct {
	Date         string  `json:"date"`
	ActualDemand float64 `json:"actual_demand"`
}

type HistoricalResponse struct {
	ModelUsed ModelKind             `json:"model_used"`
	Data      []HistoricalPointHTTP `json:"data"`
	Period    string                `json:"period"`
}

// ToHTTP converts a ForecastPoint for the wire.
func (p ForecastPoint) ToHTTP() ForecastPointHTTP {
	return ForecastPointHTTP{
		Date:            p.Date.Format("2006-01-02"),
		DayName:         p.DayName,
		PredictedDemand: p.Predicted,
		Confidence:      ConfidenceHTTP{Lower: p.Lower, Upper: p.Upper},
	}
}

// ToHTTP converts an AggregatedPeriod for the wire.
func (a AggregatedPeriod) ToHTTP() AggregatedPeriodHTTP {
	return AggregatedPeriodHTTP{
		PeriodNumber:         a.PeriodNumber,
		StartDate:            a.StartDate.Format("2006-01-02"),
		EndDate:              a.EndDate.Format("2006-01-02"),
		TotalPredictedDemand: a.Total,
		AvgDailyDemand:       a.AvgDaily,
		Confidence:           ConfidenceHTTP{Lower: a.Lower, Upper: a.Upper},
	}
}

// HorizonLabel renders "7 days" / "4 weeks" / "3 months".
func HorizonLabel(n int, unit string) string {
	return fmt.Sprintf("%d %s", n, unit)
}
