package models

// Requests for forecast HTTP endpoints. Defined in domain for consistency and reuse.
// Horizons above the hard cap are capped, not rejected, so only lower bounds
// are validated here.

type DailyForecastRequest struct {
	Days int `query:"days" json:"days" default:"7" validate:"gte=1"`
}

type WeeklyForecastRequest struct {
	Weeks int `query:"weeks" json:"weeks" default:"4" validate:"gte=1"`
}

type MonthlyForecastRequest struct {
	Months int `query:"months" json:"months" default:"3" validate:"gte=1"`
}

type RetrainRequest struct {
	// SkipFeatures reuses the cached feature table instead of rebuilding it.
	SkipFeatures bool `json:"skip_features"`
}

// Horizon caps and defaults.
const (
	DailyDefaultDays = 7
	DailyMaxDays     = 30
	WeeklyDefault    = 4
	WeeklyMax        = 12
	MonthlyDefault   = 3
	MonthlyMax       = 6
	DaysPerWeek      = 7
	DaysPerMonth     = 30
	HistoricalWindow = 90
)
