//-------------------------------------------------------------------------
//
// salesmirror
//
// Copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

// Package warehouse implements the in-memory star schema every sales row
// passes through on its way to PostgreSQL or the SQLite mirror. Dimension
// rows load before facts, facts are checked against the dimensions they
// reference, and the analysis views are computed from a consistent
// snapshot of both.
package warehouse

import (
	"sort"
	"sync"
)

// Warehouse holds the three dimensions and the fact table. A single lock
// covers all four so that view computations always see a consistent
// snapshot and a fact update is never observable half done.
type Warehouse struct {
	mu       sync.RWMutex
	dates    map[int]DimDate
	products map[int]DimProduct
	segments map[int]DimCustomerSegment
	facts    map[string]FactSales
}

// New returns an empty warehouse.
func New() *Warehouse {
	return &Warehouse{
		dates:    make(map[int]DimDate),
		products: make(map[int]DimProduct),
		segments: make(map[int]DimCustomerSegment),
		facts:    make(map[string]FactSales),
	}
}

// InsertDate adds a date dimension row. Inserting an id that already exists
// is a no-op and leaves the stored attributes unchanged. Out-of-range
// calendar attributes are rejected with a ValidationError before any state
// changes.
func (w *Warehouse) InsertDate(d DimDate) error {
	if err := d.validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.dates[d.DateID]; ok {
		return nil
	}
	w.dates[d.DateID] = d
	return nil
}

// InsertProduct adds a product dimension row, ignoring duplicates.
func (w *Warehouse) InsertProduct(p DimProduct) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.products[p.ProductID]; ok {
		return nil
	}
	w.products[p.ProductID] = p
	return nil
}

// InsertSegment adds a customer segment dimension row, ignoring duplicates.
func (w *Warehouse) InsertSegment(s DimCustomerSegment) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.segments[s.SegmentID]; ok {
		return nil
	}
	w.segments[s.SegmentID] = s
	return nil
}

// Date looks up a date dimension row by id.
func (w *Warehouse) Date(dateID int) (DimDate, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	d, ok := w.dates[dateID]
	return d, ok
}

// Product looks up a product dimension row by id.
func (w *Warehouse) Product(productID int) (DimProduct, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, ok := w.products[productID]
	return p, ok
}

// Segment looks up a customer segment dimension row by id.
func (w *Warehouse) Segment(segmentID int) (DimCustomerSegment, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.segments[segmentID]
	return s, ok
}

// Dates returns all date rows ordered by id.
func (w *Warehouse) Dates() []DimDate {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]DimDate, 0, len(w.dates))
	for _, d := range w.dates {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateID < out[j].DateID })
	return out
}

// Products returns all product rows ordered by id.
func (w *Warehouse) Products() []DimProduct {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]DimProduct, 0, len(w.products))
	for _, p := range w.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Segments returns all customer segment rows ordered by id.
func (w *Warehouse) Segments() []DimCustomerSegment {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]DimCustomerSegment, 0, len(w.segments))
	for _, s := range w.segments {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SegmentID < out[j].SegmentID })
	return out
}

// Counts reports the number of rows per table, keyed by table name.
func (w *Warehouse) Counts() map[string]int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return map[string]int{
		"dim_date":             len(w.dates),
		"dim_product":          len(w.products),
		"dim_customer_segment": len(w.segments),
		"fact_sales":           len(w.facts),
	}
}
