package models

import "time"

// RawSalesRecord is one per-store daily sales total for an item.
// Source of truth; immutable once ingested.
type RawSalesRecord struct {
	Date     time.Time
	StoreID  int
	ItemID   int
	Quantity float64
}

// WeatherRecord holds one day of weather observations.
type WeatherRecord struct {
	Date          time.Time
	TempMax       float64
	TempMin       float64
	TempMean      float64
	Precipitation float64
	Rainfall      float64
}

// CalendarDates holds the four academic-calendar date sets,
// keyed by day ("2006-01-02"). Membership test only.
type CalendarDates struct {
	Semester map[string]struct{}
	Exam     map[string]struct{}
	Holiday  map[string]struct{}
	Vacation map[string]struct{}
}

// NewCalendarDates returns an empty calendar.
func NewCalendarDates() *CalendarDates {
	return &CalendarDates{
		Semester: make(map[string]struct{}),
		Exam:     make(map[string]struct{}),
		Holiday:  make(map[string]struct{}),
		Vacation: make(map[string]struct{}),
	}
}

func dayKey(t time.Time) string { return t.Format("2006-01-02") }

func (c *CalendarDates) IsSemester(t time.Time) bool {
	_, ok := c.Semester[dayKey(t)]
	return ok
}

func (c *CalendarDates) IsExam(t time.Time) bool {
	_, ok := c.Exam[dayKey(t)]
	return ok
}

func (c *CalendarDates) IsHoliday(t time.Time) bool {
	_, ok := c.Holiday[dayKey(t)]
	return ok
}

func (c *CalendarDates) IsVacation(t time.Time) bool {
	_, ok := c.Vacation[dayKey(t)]
	return ok
}

// Categories are the cafeteria food categories items map onto.
var Categories = []string{"veg", "non-veg", "beverage", "dessert", "snack"}

// ItemCategory deterministically assigns an item to a category.
func ItemCategory(itemID int) string {
	idx := (itemID - 1) % len(Categories)
	if idx < 0 {
		idx += len(Categories)
	}
	return Categories[idx]
}
