package repository

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"DemandCast/internal/domain/models"
	applogger "DemandCast/pkg/logger"
	"DemandCast/pkg/util"
)

// CSVSalesStore implements SalesStore over a local transaction file for
// development runs. Expected header columns: date, store, item, sales.
type CSVSalesStore struct {
	path string
	l    *applogger.Logger
}

func NewCSVSalesStore(path string, l *applogger.Logger) *CSVSalesStore {
	return &CSVSalesStore{path: path, l: l}
}

// Init verifies the file exists and carries the expected columns.
// A malformed source is a fatal configuration error.
func (s *CSVSalesStore) Init(ctx context.Context) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open sales csv: %w", err)
	}
	defer f.Close()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return fmt.Errorf("read csv header: %w", err)
	}
	if _, err := columnIndexes(header); err != nil {
		return err
	}
	return nil
}

func (s *CSVSalesStore) LoadSales(ctx context.Context) ([]models.RawSalesRecord, error) {
	start := time.Now()
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open sales csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idx, err := columnIndexes(header)
	if err != nil {
		return nil, err
	}

	var out []models.RawSalesRecord
	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++

		rec, err := parseRecord(record, idx)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}

	s.l.Info("sales history loaded",
		applogger.String("path", s.path),
		applogger.Int("rows", len(out)),
		applogger.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (s *CSVSalesStore) Health(ctx context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("sales csv unavailable: %w", err)
	}
	return nil
}

func (s *CSVSalesStore) Close() error { return nil }

type csvColumns struct {
	date, store, item, sales int
}

func columnIndexes(header []string) (csvColumns, error) {
	idx := csvColumns{date: -1, store: -1, item: -1, sales: -1}
	for i, name := range header {
		switch name {
		case "date":
			idx.date = i
		case "store":
			idx.store = i
		case "item":
			idx.item = i
		case "sales":
			idx.sales = i
		}
	}
	for _, c := range []struct {
		name string
		pos  int
	}{
		{"date", idx.date}, {"store", idx.store}, {"item", idx.item}, {"sales", idx.sales},
	} {
		if c.pos < 0 {
			return idx, fmt.Errorf("sales csv is missing required column %q", c.name)
		}
	}
	return idx, nil
}

func parseRecord(record []string, idx csvColumns) (models.RawSalesRecord, error) {
	var rec models.RawSalesRecord

	date, ok := util.ParseDate(record[idx.date])
	if !ok {
		return rec, fmt.Errorf("parse date %q: not a calendar date", record[idx.date])
	}
	store, err := strconv.Atoi(record[idx.store])
	if err != nil {
		return rec, fmt.Errorf("parse store %q: %w", record[idx.store], err)
	}
	item, err := strconv.Atoi(record[idx.item])
	if err != nil {
		return rec, fmt.Errorf("parse item %q: %w", record[idx.item], err)
	}
	sales, err := strconv.ParseFloat(record[idx.sales], 64)
	if err != nil {
		return rec, fmt.Errorf("parse sales %q: %w", record[idx.sales], err)
	}

	rec.Date = date
	rec.StoreID = store
	rec.ItemID = item
	rec.Quantity = sales
	return rec, nil
}
