package etl

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

// Extractor reads the bi_schema star schema out of PostgreSQL.
type Extractor struct {
	conn *pgx.Conn
}

// NewExtractor returns an extractor over a single connection. Extraction
// is sequential table scans; a pool buys nothing here.
func NewExtractor(conn *pgx.Conn) *Extractor {
	return &Extractor{conn: conn}
}

// Extract reads all four tables into a fresh warehouse inside one
// repeatable-read transaction, so the snapshot is consistent even while
// writers are loading. Every row passes warehouse validation on the way
// in; a source row violating the model aborts the extract.
func (e *Extractor) Extract(ctx context.Context) (*warehouse.Warehouse, error) {
	tx, err := e.conn.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin extract transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	w := warehouse.New()

	if err := e.extractDates(ctx, tx, w); err != nil {
		return nil, err
	}
	if err := e.extractSegments(ctx, tx, w); err != nil {
		return nil, err
	}
	if err := e.extractProducts(ctx, tx, w); err != nil {
		return nil, err
	}
	if err := e.extractFacts(ctx, tx, w); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to finish extract: %w", err)
	}
	return w, nil
}

func (e *Extractor) extractDates(ctx context.Context, tx pgx.Tx, w *warehouse.Warehouse) error {
	rows, err := tx.Query(ctx, `
        SELECT dateid, date, year, quarter, quarter_name,
               month, month_name, day, weekday, weekday_name
        FROM bi_schema.dim_date ORDER BY dateid`)
	if err != nil {
		return fmt.Errorf("failed to read dim_date: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var d warehouse.DimDate
		if err := rows.Scan(&d.DateID, &d.Date, &d.Year, &d.Quarter, &d.QuarterName,
			&d.Month, &d.MonthName, &d.Day, &d.Weekday, &d.WeekdayName); err != nil {
			return fmt.Errorf("failed to scan dim_date: %w", err)
		}
		if err := w.InsertDate(d); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (e *Extractor) extractSegments(ctx context.Context, tx pgx.Tx, w *warehouse.Warehouse) error {
	rows, err := tx.Query(ctx, `
        SELECT segment_id, city
        FROM bi_schema.dim_customer_segment ORDER BY segment_id`)
	if err != nil {
		return fmt.Errorf("failed to read dim_customer_segment: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s warehouse.DimCustomerSegment
		if err := rows.Scan(&s.SegmentID, &s.City); err != nil {
			return fmt.Errorf("failed to scan dim_customer_segment: %w", err)
		}
		if err := w.InsertSegment(s); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (e *Extractor) extractProducts(ctx context.Context, tx pgx.Tx, w *warehouse.Warehouse) error {
	rows, err := tx.Query(ctx, `
        SELECT product_id, product_type
        FROM bi_schema.dim_product ORDER BY product_id`)
	if err != nil {
		return fmt.Errorf("failed to read dim_product: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p warehouse.DimProduct
		if err := rows.Scan(&p.ProductID, &p.ProductType); err != nil {
			return fmt.Errorf("failed to scan dim_product: %w", err)
		}
		if err := w.InsertProduct(p); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (e *Extractor) extractFacts(ctx context.Context, tx pgx.Tx, w *warehouse.Warehouse) error {
	rows, err := tx.Query(ctx, `
        SELECT sales_id, date_id, product_id, segment_id, price_per_unit, quantity_sold
        FROM bi_schema.fact_sales ORDER BY sales_id`)
	if err != nil {
		return fmt.Errorf("failed to read fact_sales: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var f warehouse.FactSales
		if err := rows.Scan(&f.SalesID, &f.DateID, &f.ProductID, &f.SegmentID,
			&f.PricePerUnit, &f.QuantitySold); err != nil {
			return fmt.Errorf("failed to scan fact_sales: %w", err)
		}
		if err := w.InsertFact(f); err != nil {
			return err
		}
	}
	return rows.Err()
}
