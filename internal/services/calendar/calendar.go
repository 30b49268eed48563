package calendar

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"DemandCast/internal/domain/models"
	"DemandCast/pkg/logger"
)

// Provider loads academic-calendar date sets from a JSON file.
type Provider struct {
	path   string
	logger *logger.Logger
}

// New creates a calendar provider reading from path.
func New(path string, l *logger.Logger) *Provider {
	return &Provider{path: path, logger: l}
}

type dateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type calendarFile struct {
	Semesters       []dateRange `json:"semesters"`
	ExamPeriods     []dateRange `json:"exam_periods"`
	Holidays        []struct {
		Name  string   `json:"name"`
		Dates []string `json:"dates"`
	} `json:"holidays"`
	VacationPeriods []dateRange `json:"vacation_periods"`
}

// Load parses the calendar file into the four date sets. A missing or
// malformed file is a fatal configuration error.
func (p *Provider) Load() (*models.CalendarDates, error) {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return nil, fmt.Errorf("read academic calendar: %w", err)
	}

	var file calendarFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse academic calendar: %w", err)
	}

	cal := models.NewCalendarDates()
	if err := addRanges(cal.Semester, file.Semesters); err != nil {
		return nil, fmt.Errorf("semesters: %w", err)
	}
	if err := addRanges(cal.Exam, file.ExamPeriods); err != nil {
		return nil, fmt.Errorf("exam_periods: %w", err)
	}
	if err := addRanges(cal.Vacation, file.VacationPeriods); err != nil {
		return nil, fmt.Errorf("vacation_periods: %w", err)
	}
	for _, hol := range file.Holidays {
		for _, d := range hol.Dates {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				return nil, fmt.Errorf("holidays: bad date %q: %w", d, err)
			}
			cal.Holiday[d] = struct{}{}
		}
	}

	p.logger.Info("academic calendar loaded",
		logger.Int("semester_days", len(cal.Semester)),
		logger.Int("exam_days", len(cal.Exam)),
		logger.Int("holidays", len(cal.Holiday)),
		logger.Int("vacation_days", len(cal.Vacation)),
	)
	return cal, nil
}

func addRanges(set map[string]struct{}, ranges []dateRange) error {
	for _, r := range ranges {
		start, err := time.Parse("2006-01-02", r.Start)
		if err != nil {
			return fmt.Errorf("bad start date %q: %w", r.Start, err)
		}
		end, err := time.Parse("2006-01-02", r.End)
		if err != nil {
			return fmt.Errorf("bad end date %q: %w", r.End, err)
		}
		if end.Before(start) {
			return fmt.Errorf("range %s..%s is inverted", r.Start, r.End)
		}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			set[d.Format("2006-01-02")] = struct{}{}
		}
	}
	return nil
}
