package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"DemandCast/internal/domain/models"
	pkgch "DemandCast/pkg/clickhouse"
	applogger "DemandCast/pkg/logger"
)

// CHSalesStore implements SalesStore backed by ClickHouse.
type CHSalesStore struct {
	ch    *pkgch.Client
	db    *sql.DB
	table string
	l     *applogger.Logger
}

func NewCHSalesStore(ch *pkgch.Client, table string, l *applogger.Logger) *CHSalesStore {
	if table == "" {
		table = "sales_transactions"
	}
	return &CHSalesStore{ch: ch, db: ch.DB(), table: table, l: l}
}

// Init ensures the sales table exists.
func (s *CHSalesStore) Init(ctx context.Context) error {
	stmt := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            date   Date,
            store  UInt32,
            item   UInt32,
            sales  Float64
        ) ENGINE = MergeTree()
        ORDER BY (date, store, item)
    `, s.table)
	if err := s.ch.InitSchema(ctx, []string{stmt}); err != nil {
		return fmt.Errorf("init sales schema: %w", err)
	}
	return nil
}

// LoadSales reads the full transaction history ordered by date.
func (s *CHSalesStore) LoadSales(ctx context.Context) ([]models.RawSalesRecord, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT date, store, item, sales
        FROM %s
        ORDER BY date ASC, store ASC, item ASC
    `, s.table)

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.l.Error("clickhouse load_sales query error",
			applogger.String("table", s.table),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("load sales: %w", err)
	}
	defer rows.Close()

	out := make([]models.RawSalesRecord, 0, 4096)
	for rows.Next() {
		var r models.RawSalesRecord
		if err := rows.Scan(&r.Date, &r.StoreID, &r.ItemID, &r.Quantity); err != nil {
			s.l.Error("clickhouse load_sales scan error",
				applogger.String("table", s.table),
				applogger.Error(err),
			)
			return nil, fmt.Errorf("scan sales row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	s.l.Info("sales history loaded",
		applogger.String("table", s.table),
		applogger.Int("rows", len(out)),
		applogger.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (s *CHSalesStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHSalesStore) Close() error {
	return s.ch.Close()
}
