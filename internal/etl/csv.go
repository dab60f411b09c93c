//-------------------------------------------------------------------------
//
// salesmirror
//
// Portions copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

// Package etl moves star schema data between its three homes: CSV extracts,
// the PostgreSQL warehouse and the SQLite mirror. Every row crosses the
// warehouse core on the way, so nothing invalid survives a hop.
package etl

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/altiplano-data/salesmirror/internal/logging"
	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

// Official extract file names, as produced by the upstream export job.
const (
	DimDateFile            = "DimDate.csv"
	DimProductFile         = "DimProduct.csv"
	DimCustomerSegmentFile = "DimCustomerSegment.csv"
	FactSalesFile          = "FactSales.csv"
)

// dateLayouts are the date formats seen in the extracts over the years.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"1/2/2006",
}

// CSVLoader reads the four official extracts from a directory.
type CSVLoader struct {
	dir string
}

// NewCSVLoader returns a loader over the given data directory.
func NewCSVLoader(dir string) *CSVLoader {
	return &CSVLoader{dir: dir}
}

// Load parses all four extracts into a fresh warehouse, dimensions first.
// Any invalid row aborts with the file name and line number attached.
func (l *CSVLoader) Load() (*warehouse.Warehouse, error) {
	w := warehouse.New()

	if err := l.loadDates(w); err != nil {
		return nil, err
	}
	if err := l.loadSegments(w); err != nil {
		return nil, err
	}
	if err := l.loadProducts(w); err != nil {
		return nil, err
	}
	if err := l.loadFacts(w); err != nil {
		return nil, err
	}

	counts := w.Counts()
	logging.Info().
		Int("dates", counts["dim_date"]).
		Int("segments", counts["dim_customer_segment"]).
		Int("products", counts["dim_product"]).
		Int("facts", counts["fact_sales"]).
		Msg("Loaded CSV extracts")

	return w, nil
}

func (l *CSVLoader) loadDates(w *warehouse.Warehouse) error {
	return l.readFile(DimDateFile,
		[]string{"dateid", "date", "year", "quarter", "quartername", "month", "monthname", "day", "weekday", "weekdayname"},
		func(row fields) error {
			d := warehouse.DimDate{
				QuarterName: row.get("quartername"),
				MonthName:   row.get("monthname"),
				WeekdayName: row.get("weekdayname"),
			}
			var err error
			if d.DateID, err = row.getInt("dateid"); err != nil {
				return err
			}
			if d.Date, err = row.getDate("date"); err != nil {
				return err
			}
			if d.Year, err = row.getInt("year"); err != nil {
				return err
			}
			if d.Quarter, err = row.getInt("quarter"); err != nil {
				return err
			}
			if d.Month, err = row.getInt("month"); err != nil {
				return err
			}
			if d.Day, err = row.getInt("day"); err != nil {
				return err
			}
			if d.Weekday, err = row.getInt("weekday"); err != nil {
				return err
			}
			return w.InsertDate(d)
		})
}

func (l *CSVLoader) loadProducts(w *warehouse.Warehouse) error {
	return l.readFile(DimProductFile,
		[]string{"productid", "producttype"},
		func(row fields) error {
			p := warehouse.DimProduct{ProductType: row.get("producttype")}
			var err error
			if p.ProductID, err = row.getInt("productid"); err != nil {
				return err
			}
			return w.InsertProduct(p)
		})
}

func (l *CSVLoader) loadSegments(w *warehouse.Warehouse) error {
	return l.readFile(DimCustomerSegmentFile,
		[]string{"segmentid", "city"},
		func(row fields) error {
			s := warehouse.DimCustomerSegment{City: row.get("city")}
			var err error
			if s.SegmentID, err = row.getInt("segmentid"); err != nil {
				return err
			}
			return w.InsertSegment(s)
		})
}

func (l *CSVLoader) loadFacts(w *warehouse.Warehouse) error {
	return l.readFile(FactSalesFile,
		[]string{"salesid", "dateid", "productid", "segmentid", "priceperunit", "quantitysold"},
		func(row fields) error {
			f := warehouse.FactSales{SalesID: row.get("salesid")}
			var err error
			if f.DateID, err = row.getInt("dateid"); err != nil {
				return err
			}
			if f.ProductID, err = row.getInt("productid"); err != nil {
				return err
			}
			if f.SegmentID, err = row.getInt("segmentid"); err != nil {
				return err
			}
			if f.PricePerUnit, err = row.getFloat("priceperunit"); err != nil {
				return err
			}
			if f.QuantitySold, err = row.getInt("quantitysold"); err != nil {
				return err
			}
			return w.InsertFact(f)
		})
}

// readFile parses one extract, resolving headers case- and
// underscore-insensitively, and hands each record to insert. Errors come
// back as "<file> line <n>: ...".
func (l *CSVLoader) readFile(name string, required []string, insert func(fields) error) error {
	path := filepath.Join(l.dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%s: failed to read header: %w", name, err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[normalizeHeader(h)] = i
	}
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return fmt.Errorf("%s: missing column %q", name, col)
		}
	}

	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("%s line %d: %w", name, line, err)
		}
		if err := insert(fields{cols: cols, record: record}); err != nil {
			return fmt.Errorf("%s line %d: %w", name, line, err)
		}
	}
	return nil
}

// normalizeHeader lowercases a header cell and strips underscores, spaces
// and the UTF-8 BOM, so dateid, DateID and date_id all resolve alike.
func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "_", "")
	h = strings.ReplaceAll(h, " ", "")
	return h
}

// fields is one CSV record with its resolved header map.
type fields struct {
	cols   map[string]int
	record []string
}

func (f fields) get(col string) string {
	i := f.cols[col]
	if i >= len(f.record) {
		return ""
	}
	return strings.TrimSpace(f.record[i])
}

func (f fields) getInt(col string) (int, error) {
	s := f.get(col)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not an integer", col, s)
	}
	return v, nil
}

func (f fields) getFloat(col string) (float64, error) {
	s := f.get(col)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("column %s: %q is not a number", col, s)
	}
	return v, nil
}

func (f fields) getDate(col string) (time.Time, error) {
	s := f.get(col)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("column %s: %q is not a recognized date", col, s)
}
