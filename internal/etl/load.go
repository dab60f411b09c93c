package etl

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/altiplano-data/salesmirror/internal/datagen"
	"github.com/altiplano-data/salesmirror/internal/logging"
	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

// PGLoader writes warehouse snapshots into the bi_schema tables.
type PGLoader struct {
	pool *pgxpool.Pool
	cfg  datagen.BatchInsertConfig
}

// NewPGLoader returns a loader over the given pool.
func NewPGLoader(pool *pgxpool.Pool) *PGLoader {
	return &PGLoader{pool: pool, cfg: datagen.DefaultBatchConfig()}
}

// LoadWarehouse replaces the bi_schema contents with the warehouse
// snapshot, inside one transaction: either the old dataset is visible or
// the new one, never a mix. total_amount is absent from the fact column
// list; the database derives it.
func (l *PGLoader) LoadWarehouse(ctx context.Context, w *warehouse.Warehouse) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin load transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        TRUNCATE TABLE bi_schema.fact_sales,
                       bi_schema.dim_product,
                       bi_schema.dim_customer_segment,
                       bi_schema.dim_date
        CASCADE`)
	if err != nil {
		return fmt.Errorf("failed to truncate bi_schema: %w", err)
	}

	if err := l.insertDates(ctx, tx, w.Dates()); err != nil {
		return err
	}
	if err := l.insertSegments(ctx, tx, w.Segments()); err != nil {
		return err
	}
	if err := l.insertProducts(ctx, tx, w.Products()); err != nil {
		return err
	}
	if err := l.insertFacts(ctx, tx, w.Facts()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}

	counts := w.Counts()
	logging.Info().
		Int("dates", counts["dim_date"]).
		Int("segments", counts["dim_customer_segment"]).
		Int("products", counts["dim_product"]).
		Int("facts", counts["fact_sales"]).
		Msg("Loaded warehouse into bi_schema")

	return nil
}

func (l *PGLoader) insertDates(ctx context.Context, tx pgx.Tx, rows []warehouse.DimDate) error {
	batch := make([]string, 0, l.cfg.BatchSize)
	for _, d := range rows {
		batch = append(batch, fmt.Sprintf("(%d, '%s', %d, %d, '%s', %d, '%s', %d, %d, '%s')",
			d.DateID, d.Date.Format("2006-01-02"), d.Year,
			d.Quarter, escapeSingleQuote(d.QuarterName),
			d.Month, escapeSingleQuote(d.MonthName),
			d.Day, d.Weekday, escapeSingleQuote(d.WeekdayName)))
		if len(batch) >= l.cfg.BatchSize {
			if err := executeBatchInsert(ctx, tx, "bi_schema.dim_date",
				"(dateid, date, year, quarter, quarter_name, month, month_name, day, weekday, weekday_name)", batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return executeBatchInsert(ctx, tx, "bi_schema.dim_date",
		"(dateid, date, year, quarter, quarter_name, month, month_name, day, weekday, weekday_name)", batch)
}

func (l *PGLoader) insertSegments(ctx context.Context, tx pgx.Tx, rows []warehouse.DimCustomerSegment) error {
	batch := make([]string, 0, l.cfg.BatchSize)
	for _, s := range rows {
		batch = append(batch, fmt.Sprintf("(%d, '%s')", s.SegmentID, escapeSingleQuote(s.City)))
		if len(batch) >= l.cfg.BatchSize {
			if err := executeBatchInsert(ctx, tx, "bi_schema.dim_customer_segment",
				"(segment_id, city)", batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return executeBatchInsert(ctx, tx, "bi_schema.dim_customer_segment", "(segment_id, city)", batch)
}

func (l *PGLoader) insertProducts(ctx context.Context, tx pgx.Tx, rows []warehouse.DimProduct) error {
	batch := make([]string, 0, l.cfg.BatchSize)
	for _, p := range rows {
		batch = append(batch, fmt.Sprintf("(%d, '%s')", p.ProductID, escapeSingleQuote(p.ProductType)))
		if len(batch) >= l.cfg.BatchSize {
			if err := executeBatchInsert(ctx, tx, "bi_schema.dim_product",
				"(product_id, product_type)", batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return executeBatchInsert(ctx, tx, "bi_schema.dim_product", "(product_id, product_type)", batch)
}

func (l *PGLoader) insertFacts(ctx context.Context, tx pgx.Tx, rows []warehouse.FactSales) error {
	progress := datagen.NewProgressReporter("fact_sales", int64(len(rows)), l.cfg.ProgressInterval)
	batch := make([]string, 0, l.cfg.BatchSize)
	for _, f := range rows {
		batch = append(batch, fmt.Sprintf("('%s', %d, %d, %d, %.2f, %d)",
			escapeSingleQuote(f.SalesID), f.DateID, f.ProductID, f.SegmentID,
			f.PricePerUnit, f.QuantitySold))
		if len(batch) >= l.cfg.BatchSize {
			if err := executeBatchInsert(ctx, tx, "bi_schema.fact_sales",
				"(sales_id, date_id, product_id, segment_id, price_per_unit, quantity_sold)", batch); err != nil {
				return err
			}
			progress.Update(int64(l.cfg.BatchSize))
			batch = batch[:0]
		}
	}
	if err := executeBatchInsert(ctx, tx, "bi_schema.fact_sales",
		"(sales_id, date_id, product_id, segment_id, price_per_unit, quantity_sold)", batch); err != nil {
		return err
	}
	progress.Update(int64(len(batch)))
	progress.Done()
	return nil
}

func executeBatchInsert(ctx context.Context, tx pgx.Tx, table, columns string, values []string) error {
	if len(values) == 0 {
		return nil
	}
	sql := fmt.Sprintf("INSERT INTO %s %s VALUES %s", table, columns, strings.Join(values, ", "))
	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

func escapeSingleQuote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
