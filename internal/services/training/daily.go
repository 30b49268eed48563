package training

import (
	"sort"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/util"
)

// DailyTotals collapses the feature table into one total-demand value per
// date (all items summed), sorted by date.
func DailyTotals(table []models.FeatureRow) ([]time.Time, []float64) {
	byDay := make(map[string]float64)
	dateByDay := make(map[string]time.Time)
	for i := range table {
		key := util.DayKey(table[i].Date)
		byDay[key] += table[i].Sales
		dateByDay[key] = table[i].Date
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	dates := make([]time.Time, len(keys))
	totals := make([]float64, len(keys))
	for i, k := range keys {
		dates[i] = dateByDay[k]
		totals[i] = byDay[k]
	}
	return dates, totals
}

// FillCalendarGaps expands the series to a continuous daily frequency,
// filling absent days with the median of the observed values.
func FillCalendarGaps(dates []time.Time, totals []float64) []float64 {
	if len(dates) == 0 {
		return nil
	}

	med := median(totals)
	byDay := make(map[string]float64, len(dates))
	for i := range dates {
		byDay[util.DayKey(dates[i])] = totals[i]
	}

	var out []float64
	for d := dates[0]; !d.After(dates[len(dates)-1]); d = d.AddDate(0, 0, 1) {
		if v, ok := byDay[util.DayKey(d)]; ok {
			out = append(out, v)
		} else {
			out = append(out, med)
		}
	}
	return out
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
