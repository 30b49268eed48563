package models

import (
	"math"
	"time"
)

// FeatureRow is one supervised-learning row per (item, date) after
// aggregating sales across stores. Sales is the target.
type FeatureRow struct {
	Date   time.Time
	ItemID int
	Sales  float64

	// Temporal (Monday = 0 to match the day-of-week convention of the
	// training data).
	DayOfWeek  int
	DayOfMonth int
	Month      int
	Year       int
	WeekOfYear int
	IsWeekend  int
	Quarter    int
	DayOfYear  int

	// Cyclical encodings.
	DowSin   float64
	DowCos   float64
	MonthSin float64
	MonthCos float64

	// Weather (left-joined by date).
	TempMax       float64
	TempMin       float64
	TempMean      float64
	Precipitation float64
	Rainfall      float64
	IsRainy       int
	IsHot         int
	TempRange     float64

	// Academic calendar flags.
	IsSemester int
	IsExam     int
	IsHoliday  int
	IsVacation int

	// Lag features within the same item's series.
	Lag1  float64
	Lag7  float64
	Lag14 float64
	Lag28 float64

	// Rolling and expanding statistics, per item.
	RollMean7     float64
	RollStd7      float64
	RollMean14    float64
	RollStd14     float64
	RollMean30    float64
	RollStd30     float64
	ExpandingMean float64

	// Raw category label; one-hot encoded in the feature vector.
	Category string
}

// FeatureColumns is the canonical ordered numeric feature list for the
// boosted-tree model: every numeric column except the target, the date,
// and the raw category label. Order is fixed and persisted with the model.
func FeatureColumns() []string {
	return []string{
		"item",
		"day_of_week", "day_of_month", "month", "year", "week_of_year",
		"is_weekend", "quarter", "day_of_year",
		"dow_sin", "dow_cos", "month_sin", "month_cos",
		"temperature_max", "temperature_min", "temperature_mean",
		"precipitation", "rainfall",
		"is_rainy", "is_hot", "temp_range",
		"is_semester", "is_exam", "is_holiday", "is_vacation",
		"sales_lag_1", "sales_lag_7", "sales_lag_14", "sales_lag_28",
		"sales_rolling_mean_7", "sales_rolling_std_7",
		"sales_rolling_mean_14", "sales_rolling_std_14",
		"sales_rolling_mean_30", "sales_rolling_std_30",
		"sales_expanding_mean",
		"cat_beverage", "cat_dessert", "cat_non-veg", "cat_snack", "cat_veg",
	}
}

// FeatureMap renders the row as a name -> value map, one-hot encoding
// the category. Used both to build training matrices and as the frozen
// template for future-day feature vectors.
func (r *FeatureRow) FeatureMap() map[string]float64 {
	m := map[string]float64{
		"item":                  float64(r.ItemID),
		"day_of_week":           float64(r.DayOfWeek),
		"day_of_month":          float64(r.DayOfMonth),
		"month":                 float64(r.Month),
		"year":                  float64(r.Year),
		"week_of_year":          float64(r.WeekOfYear),
		"is_weekend":            float64(r.IsWeekend),
		"quarter":               float64(r.Quarter),
		"day_of_year":           float64(r.DayOfYear),
		"dow_sin":               r.DowSin,
		"dow_cos":               r.DowCos,
		"month_sin":             r.MonthSin,
		"month_cos":             r.MonthCos,
		"temperature_max":       r.TempMax,
		"temperature_min":       r.TempMin,
		"temperature_mean":      r.TempMean,
		"precipitation":         r.Precipitation,
		"rainfall":              r.Rainfall,
		"is_rainy":              float64(r.IsRainy),
		"is_hot":                float64(r.IsHot),
		"temp_range":            r.TempRange,
		"is_semester":           float64(r.IsSemester),
		"is_exam":               float64(r.IsExam),
		"is_holiday":            float64(r.IsHoliday),
		"is_vacation":           float64(r.IsVacation),
		"sales_lag_1":           r.Lag1,
		"sales_lag_7":           r.Lag7,
		"sales_lag_14":          r.Lag14,
		"sales_lag_28":          r.Lag28,
		"sales_rolling_mean_7":  r.RollMean7,
		"sales_rolling_std_7":   r.RollStd7,
		"sales_rolling_mean_14": r.RollMean14,
		"sales_rolling_std_14":  r.RollStd14,
		"sales_rolling_mean_30": r.RollMean30,
		"sales_rolling_std_30":  r.RollStd30,
		"sales_expanding_mean":  r.ExpandingMean,
	}
	for _, cat := range Categories {
		m["cat_"+cat] = 0
	}
	if r.Category != "" {
		m["cat_"+r.Category] = 1
	}
	return m
}

// Vector extracts an ordered feature vector from a template map.
// Columns absent from the template are substituted with zero.
func Vector(template map[string]float64, cols []string) []float64 {
	v := make([]float64, len(cols))
	for i, c := range cols {
		v[i] = template[c] // zero value when missing
	}
	return v
}

// OverrideDateFeatures returns a copy of the template with only the
// date-derived fields rewritten for the given date. All other features
// stay frozen at their template values.
func OverrideDateFeatures(template map[string]float64, date time.Time) map[string]float64 {
	out := make(map[string]float64, len(template))
	for k, v := range template {
		out[k] = v
	}

	dow := PandasWeekday(date)
	_, week := date.ISOWeek()

	out["day_of_week"] = float64(dow)
	out["day_of_month"] = float64(date.Day())
	out["month"] = float64(int(date.Month()))
	out["year"] = float64(date.Year())
	out["week_of_year"] = float64(week)
	if dow >= 5 {
		out["is_weekend"] = 1
	} else {
		out["is_weekend"] = 0
	}
	out["quarter"] = float64((int(date.Month())-1)/3 + 1)
	out["day_of_year"] = float64(date.YearDay())
	out["dow_sin"] = math.Sin(2 * math.Pi * float64(dow) / 7)
	out["dow_cos"] = math.Cos(2 * math.Pi * float64(dow) / 7)
	out["month_sin"] = math.Sin(2 * math.Pi * float64(int(date.Month())) / 12)
	out["month_cos"] = math.Cos(2 * math.Pi * float64(int(date.Month())) / 12)
	return out
}

// PandasWeekday maps time.Weekday to the Monday=0..Sunday=6 convention
// the feature table uses.
func PandasWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
