//-------------------------------------------------------------------------
//
// salesmirror
//
// Portions copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

// Package mirror manages the local SQLite copy of the star schema that
// replication produces and the query commands read. SQLite has no stored
// generated columns we can rely on across driver versions, so total_amount
// is materialized from the warehouse core, which owns the derivation.
package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

const dateLayout = "2006-01-02"

const createMirrorSQL = `
CREATE TABLE IF NOT EXISTS dim_date (
    dateid       INTEGER PRIMARY KEY,
    date         TEXT NOT NULL,
    year         INTEGER NOT NULL,
    quarter      INTEGER NOT NULL,
    quarter_name TEXT NOT NULL,
    month        INTEGER NOT NULL,
    month_name   TEXT NOT NULL,
    day          INTEGER NOT NULL,
    weekday      INTEGER NOT NULL,
    weekday_name TEXT NOT NULL,
    created_at   TEXT DEFAULT CURRENT_TIMESTAMP,
    updated_at   TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS dim_customer_segment (
    segment_id INTEGER PRIMARY KEY,
    city       TEXT NOT NULL,
    created_at TEXT DEFAULT CURRENT_TIMESTAMP,
    updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS dim_product (
    product_id   INTEGER PRIMARY KEY,
    product_type TEXT NOT NULL,
    created_at   TEXT DEFAULT CURRENT_TIMESTAMP,
    updated_at   TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS fact_sales (
    sales_id       TEXT PRIMARY KEY,
    date_id        INTEGER NOT NULL,
    product_id     INTEGER NOT NULL,
    segment_id     INTEGER NOT NULL,
    price_per_unit REAL NOT NULL,
    quantity_sold  INTEGER NOT NULL,
    total_amount   REAL NOT NULL,
    created_at     TEXT DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (date_id) REFERENCES dim_date(dateid),
    FOREIGN KEY (product_id) REFERENCES dim_product(product_id),
    FOREIGN KEY (segment_id) REFERENCES dim_customer_segment(segment_id)
);

CREATE TABLE IF NOT EXISTS etl_control (
    id                     INTEGER PRIMARY KEY AUTOINCREMENT,
    table_name             TEXT NOT NULL,
    last_update            TEXT NOT NULL,
    records_processed      INTEGER NOT NULL,
    execution_time_seconds REAL NOT NULL,
    status                 TEXT NOT NULL,
    error_message          TEXT
);

CREATE INDEX IF NOT EXISTS idx_sales_date ON fact_sales(date_id);
CREATE INDEX IF NOT EXISTS idx_sales_product ON fact_sales(product_id);
CREATE INDEX IF NOT EXISTS idx_sales_segment ON fact_sales(segment_id);
`

// Mirror is an open SQLite mirror database.
type Mirror struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the mirror at path and ensures the
// schema exists. Parent directories are created as needed.
func Open(ctx context.Context, path string) (*Mirror, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create mirror directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mirror: %w", err)
	}
	// A single writer keeps the per-table transactions serial.
	db.SetMaxOpenConns(1)

	// Foreign key enforcement stays off (the SQLite default): tables are
	// replaced one at a time, so facts briefly reference dimension rows
	// that are mid-refresh. The warehouse snapshot already guarantees
	// integrity and replication revalidates after the copy.
	if _, err := db.ExecContext(ctx, createMirrorSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create mirror schema: %w", err)
	}

	return &Mirror{db: db, path: path}, nil
}

// Close closes the underlying database.
func (m *Mirror) Close() error {
	return m.db.Close()
}

// Path returns the mirror file path.
func (m *Mirror) Path() string {
	return m.path
}

// FileSize returns the mirror file size in bytes.
func (m *Mirror) FileSize() (int64, error) {
	info, err := os.Stat(m.path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// ReplaceDates swaps the date dimension for rows, atomically.
func (m *Mirror) ReplaceDates(ctx context.Context, rows []warehouse.DimDate) (int, error) {
	return m.replaceTable(ctx, "dim_date",
		`INSERT INTO dim_date (dateid, date, year, quarter, quarter_name,
		                       month, month_name, day, weekday, weekday_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(rows), func(stmt *sql.Stmt, i int) error {
			d := rows[i]
			_, err := stmt.ExecContext(ctx, d.DateID, d.Date.Format(dateLayout),
				d.Year, d.Quarter, d.QuarterName,
				d.Month, d.MonthName, d.Day, d.Weekday, d.WeekdayName)
			return err
		})
}

// ReplaceSegments swaps the customer segment dimension for rows.
func (m *Mirror) ReplaceSegments(ctx context.Context, rows []warehouse.DimCustomerSegment) (int, error) {
	return m.replaceTable(ctx, "dim_customer_segment",
		`INSERT INTO dim_customer_segment (segment_id, city) VALUES (?, ?)`,
		len(rows), func(stmt *sql.Stmt, i int) error {
			s := rows[i]
			_, err := stmt.ExecContext(ctx, s.SegmentID, s.City)
			return err
		})
}

// ReplaceProducts swaps the product dimension for rows.
func (m *Mirror) ReplaceProducts(ctx context.Context, rows []warehouse.DimProduct) (int, error) {
	return m.replaceTable(ctx, "dim_product",
		`INSERT INTO dim_product (product_id, product_type) VALUES (?, ?)`,
		len(rows), func(stmt *sql.Stmt, i int) error {
			p := rows[i]
			_, err := stmt.ExecContext(ctx, p.ProductID, p.ProductType)
			return err
		})
}

// ReplaceFacts swaps the fact table for rows. total_amount comes from the
// warehouse derivation, never from a caller-supplied value.
func (m *Mirror) ReplaceFacts(ctx context.Context, rows []warehouse.FactSales) (int, error) {
	return m.replaceTable(ctx, "fact_sales",
		`INSERT INTO fact_sales (sales_id, date_id, product_id, segment_id,
		                         price_per_unit, quantity_sold, total_amount)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		len(rows), func(stmt *sql.Stmt, i int) error {
			f := rows[i]
			_, err := stmt.ExecContext(ctx, f.SalesID, f.DateID, f.ProductID,
				f.SegmentID, f.PricePerUnit, f.QuantitySold, f.TotalAmount())
			return err
		})
}

// replaceTable deletes every row of table and inserts n rows through
// insertSQL in one transaction, so readers see the old snapshot or the new
// one, never a half-replaced table.
func (m *Mirror) replaceTable(ctx context.Context, table, insertSQL string, n int, bind func(*sql.Stmt, int) error) (int, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction for %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return 0, fmt.Errorf("failed to clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if err := bind(stmt, i); err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return n, nil
}

// Counts reports the number of rows per star schema table.
func (m *Mirror) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, table := range []string{"dim_date", "dim_customer_segment", "dim_product", "fact_sales"} {
		var n int
		if err := m.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// SalesMetrics summarizes the mirrored fact table.
type SalesMetrics struct {
	Transactions int
	TotalRevenue float64
	AvgSale      float64
}

// Metrics computes revenue totals over the mirrored facts, used to verify
// a replication run against the source.
func (m *Mirror) Metrics(ctx context.Context) (SalesMetrics, error) {
	var metrics SalesMetrics
	err := m.db.QueryRowContext(ctx, `
        SELECT COUNT(*),
               COALESCE(SUM(total_amount), 0),
               COALESCE(AVG(total_amount), 0)
        FROM fact_sales
    `).Scan(&metrics.Transactions, &metrics.TotalRevenue, &metrics.AvgSale)
	if err != nil {
		return SalesMetrics{}, fmt.Errorf("failed to compute metrics: %w", err)
	}
	return metrics, nil
}

// LoadWarehouse reads the whole mirror back into a warehouse, revalidating
// every row on the way in. Query commands operate on the result.
func (m *Mirror) LoadWarehouse(ctx context.Context) (*warehouse.Warehouse, error) {
	w := warehouse.New()

	rows, err := m.db.QueryContext(ctx, `
        SELECT dateid, date, year, quarter, quarter_name,
               month, month_name, day, weekday, weekday_name
        FROM dim_date ORDER BY dateid
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_date: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d warehouse.DimDate
		var date string
		if err := rows.Scan(&d.DateID, &date, &d.Year, &d.Quarter, &d.QuarterName,
			&d.Month, &d.MonthName, &d.Day, &d.Weekday, &d.WeekdayName); err != nil {
			return nil, fmt.Errorf("failed to scan dim_date: %w", err)
		}
		if d.Date, err = time.Parse(dateLayout, date); err != nil {
			return nil, fmt.Errorf("bad date %q in dim_date %d: %w", date, d.DateID, err)
		}
		if err := w.InsertDate(d); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	segRows, err := m.db.QueryContext(ctx, `SELECT segment_id, city FROM dim_customer_segment ORDER BY segment_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_customer_segment: %w", err)
	}
	defer segRows.Close()
	for segRows.Next() {
		var s warehouse.DimCustomerSegment
		if err := segRows.Scan(&s.SegmentID, &s.City); err != nil {
			return nil, fmt.Errorf("failed to scan dim_customer_segment: %w", err)
		}
		if err := w.InsertSegment(s); err != nil {
			return nil, err
		}
	}
	if err := segRows.Err(); err != nil {
		return nil, err
	}

	prodRows, err := m.db.QueryContext(ctx, `SELECT product_id, product_type FROM dim_product ORDER BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to read dim_product: %w", err)
	}
	defer prodRows.Close()
	for prodRows.Next() {
		var p warehouse.DimProduct
		if err := prodRows.Scan(&p.ProductID, &p.ProductType); err != nil {
			return nil, fmt.Errorf("failed to scan dim_product: %w", err)
		}
		if err := w.InsertProduct(p); err != nil {
			return nil, err
		}
	}
	if err := prodRows.Err(); err != nil {
		return nil, err
	}

	factRows, err := m.db.QueryContext(ctx, `
        SELECT sales_id, date_id, product_id, segment_id, price_per_unit, quantity_sold
        FROM fact_sales ORDER BY sales_id
    `)
	if err != nil {
		return nil, fmt.Errorf("failed to read fact_sales: %w", err)
	}
	defer factRows.Close()
	for factRows.Next() {
		var f warehouse.FactSales
		if err := factRows.Scan(&f.SalesID, &f.DateID, &f.ProductID, &f.SegmentID,
			&f.PricePerUnit, &f.QuantitySold); err != nil {
			return nil, fmt.Errorf("failed to scan fact_sales: %w", err)
		}
		if err := w.InsertFact(f); err != nil {
			return nil, err
		}
	}
	if err := factRows.Err(); err != nil {
		return nil, err
	}

	return w, nil
}
