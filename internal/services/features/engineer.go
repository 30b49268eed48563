package features

import (
	"fmt"
	"math"
	"sort"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/logger"
	"DemandCast/pkg/util"

	"gonum.org/v1/gonum/stat"
)

var rollingWindows = []int{7, 14, 30}

// itemDay keys the store-collapsed aggregation.
type itemDay struct {
	item int
	day  string
}

// Engineer turns raw per-store transaction records into the supervised
// training table.
type Engineer struct {
	logger *logger.Logger
}

// NewEngineer creates a feature engineer.
func NewEngineer(l *logger.Logger) *Engineer {
	return &Engineer{logger: l}
}

// BuildTrainingTable joins sales with weather and calendar signals and
// derives the full feature set. The table is rebuilt wholesale on every
// call; rows whose lag/rolling warm-up or weather join left undefined
// values are dropped, and the result is sorted by (item, date).
func (e *Engineer) BuildTrainingTable(
	sales []models.RawSalesRecord,
	weather []models.WeatherRecord,
	cal *models.CalendarDates,
) ([]models.FeatureRow, error) {
	if len(sales) == 0 {
		return nil, fmt.Errorf("no sales records to build features from")
	}
	if cal == nil {
		return nil, fmt.Errorf("calendar date sets are required")
	}

	// Aggregate across stores: one demand value per (item, date).
	agg := make(map[itemDay]float64)
	dates := make(map[string]time.Time)
	itemSet := make(map[int]struct{})
	for _, rec := range sales {
		day := rec.Date.Format("2006-01-02")
		agg[itemDay{rec.ItemID, day}] += rec.Quantity
		dates[day] = midnight(rec.Date)
		itemSet[rec.ItemID] = struct{}{}
	}

	weatherByDay := make(map[string]models.WeatherRecord, len(weather))
	for _, w := range weather {
		weatherByDay[w.Date.Format("2006-01-02")] = w
	}

	items := make([]int, 0, len(itemSet))
	for item := range itemSet {
		items = append(items, item)
	}
	sort.Ints(items)

	table := make([]models.FeatureRow, 0, len(agg))
	dropped := 0
	for _, item := range items {
		rows := e.buildItemRows(item, agg, dates, weatherByDay, cal)

		// Lag, rolling, and expanding statistics never cross item
		// boundaries: each item's series is processed independently.
		series := make([]float64, len(rows))
		for i := range rows {
			series[i] = rows[i].Sales
		}
		applyLags(rows, series)
		applyRollingStats(rows, series)
		applyExpandingMean(rows, series)

		for i := range rows {
			if rowHasUndefined(&rows[i]) {
				dropped++
				continue
			}
			table = append(table, rows[i])
		}
	}

	e.logger.Info("training table built",
		logger.Int("rows", len(table)),
		logger.Int("items", len(items)),
		logger.Int("dropped_warmup", dropped),
	)
	return table, nil
}

// buildItemRows creates one row per date the item sold, sorted by date,
// with temporal, cyclical, weather, calendar, and category features set.
// Lag and rolling fields start undefined.
func (e *Engineer) buildItemRows(
	item int,
	agg map[itemDay]float64,
	dates map[string]time.Time,
	weatherByDay map[string]models.WeatherRecord,
	cal *models.CalendarDates,
) []models.FeatureRow {
	days := make([]string, 0)
	for day := range dates {
		if _, ok := agg[itemDay{item, day}]; ok {
			days = append(days, day)
		}
	}
	sort.Strings(days)

	rows := make([]models.FeatureRow, 0, len(days))
	for _, day := range days {
		date := dates[day]
		row := models.FeatureRow{
			Date:     date,
			ItemID:   item,
			Sales:    agg[itemDay{item, day}],
			Category: models.ItemCategory(item),
		}
		setTemporalFeatures(&row, date)
		setWeatherFeatures(&row, weatherByDay, day)
		setCalendarFeatures(&row, cal, date)
		rows = append(rows, row)
	}
	return rows
}

func setTemporalFeatures(row *models.FeatureRow, date time.Time) {
	dow := models.PandasWeekday(date)
	row.DayOfWeek = dow
	row.DayOfMonth = date.Day()
	row.Month = int(date.Month())
	row.Year = date.Year()
	row.WeekOfYear = util.ISOWeek(date)
	if dow >= 5 {
		row.IsWeekend = 1
	}
	row.Quarter = (int(date.Month())-1)/3 + 1
	row.DayOfYear = date.YearDay()

	row.DowSin = math.Sin(2 * math.Pi * float64(dow) / 7)
	row.DowCos = math.Cos(2 * math.Pi * float64(dow) / 7)
	row.MonthSin = math.Sin(2 * math.Pi * float64(row.Month) / 12)
	row.MonthCos = math.Cos(2 * math.Pi * float64(row.Month) / 12)
}

// setWeatherFeatures left-joins weather by exact date. A missing day
// leaves NaN in every weather field so the row is dropped later.
func setWeatherFeatures(row *models.FeatureRow, weatherByDay map[string]models.WeatherRecord, day string) {
	w, ok := weatherByDay[day]
	if !ok {
		nan := math.NaN()
		row.TempMax, row.TempMin, row.TempMean = nan, nan, nan
		row.Precipitation, row.Rainfall, row.TempRange = nan, nan, nan
		return
	}
	row.TempMax = w.TempMax
	row.TempMin = w.TempMin
	row.TempMean = w.TempMean
	row.Precipitation = w.Precipitation
	row.Rainfall = w.Rainfall
	if w.Rainfall > 2.0 {
		row.IsRainy = 1
	}
	if w.TempMax > 35 {
		row.IsHot = 1
	}
	row.TempRange = w.TempMax - w.TempMin
}

func setCalendarFeatures(row *models.FeatureRow, cal *models.CalendarDates, date time.Time) {
	if cal.IsSemester(date) {
		row.IsSemester = 1
	}
	if cal.IsExam(date) {
		row.IsExam = 1
	}
	if cal.IsHoliday(date) {
		row.IsHoliday = 1
	}
	if cal.IsVacation(date) {
		row.IsVacation = 1
	}
}

// applyLags shifts the item's own series by row offsets. Positions before
// the offset stay NaN (warm-up).
func applyLags(rows []models.FeatureRow, series []float64) {
	for i := range rows {
		rows[i].Lag1 = lagAt(series, i, 1)
		rows[i].Lag7 = lagAt(series, i, 7)
		rows[i].Lag14 = lagAt(series, i, 14)
		rows[i].Lag28 = lagAt(series, i, 28)
	}
}

func lagAt(series []float64, i, lag int) float64 {
	if i < lag {
		return math.NaN()
	}
	return series[i-lag]
}

// applyRollingStats computes trailing-window mean and sample std with a
// minimum of one observation. The std of a single observation is
// undefined, which drops the first row of every item.
func applyRollingStats(rows []models.FeatureRow, series []float64) {
	for i := range rows {
		for _, w := range rollingWindows {
			start := i - w + 1
			if start < 0 {
				start = 0
			}
			window := series[start : i+1]
			mean, std := stat.MeanStdDev(window, nil)
			if len(window) < 2 {
				std = math.NaN()
			}
			switch w {
			case 7:
				rows[i].RollMean7, rows[i].RollStd7 = mean, std
			case 14:
				rows[i].RollMean14, rows[i].RollStd14 = mean, std
			case 30:
				rows[i].RollMean30, rows[i].RollStd30 = mean, std
			}
		}
	}
}

func applyExpandingMean(rows []models.FeatureRow, series []float64) {
	sum := 0.0
	for i := range rows {
		sum += series[i]
		rows[i].ExpandingMean = sum / float64(i+1)
	}
}

func rowHasUndefined(row *models.FeatureRow) bool {
	vals := []float64{
		row.TempMax, row.TempMin, row.TempMean, row.Precipitation,
		row.Rainfall, row.TempRange,
		row.Lag1, row.Lag7, row.Lag14, row.Lag28,
		row.RollMean7, row.RollStd7, row.RollMean14, row.RollStd14,
		row.RollMean30, row.RollStd30, row.ExpandingMean,
	}
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
