//-------------------------------------------------------------------------
//
// salesmirror
//
// Copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"fmt"
	"sort"
)

// InsertFact adds a sales transaction. The referenced dimension rows must
// already exist and both measures must be strictly positive. The total
// amount is computed here; whatever the caller put in the field is
// discarded. A second insert for the same sales id fails with a
// UniquenessConflict, so exactly one of two concurrent inserts wins.
func (w *Warehouse) InsertFact(f FactSales) error {
	if err := f.validateMeasures(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.checkReferences(f); err != nil {
		return err
	}
	if _, ok := w.facts[f.SalesID]; ok {
		return &UniquenessConflict{SalesID: f.SalesID}
	}
	f.totalAmount = f.PricePerUnit * float64(f.QuantitySold)
	w.facts[f.SalesID] = f
	return nil
}

// UpdateFactMeasures replaces the price and quantity of an existing fact
// and recomputes the total in the same critical section, so no reader ever
// observes a total inconsistent with the measures.
func (w *Warehouse) UpdateFactMeasures(salesID string, pricePerUnit float64, quantitySold int) error {
	probe := FactSales{SalesID: salesID, PricePerUnit: pricePerUnit, QuantitySold: quantitySold}
	if err := probe.validateMeasures(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	f, ok := w.facts[salesID]
	if !ok {
		return fmt.Errorf("update %s: %w", salesID, ErrFactNotFound)
	}
	f.PricePerUnit = pricePerUnit
	f.QuantitySold = quantitySold
	f.totalAmount = pricePerUnit * float64(quantitySold)
	w.facts[salesID] = f
	return nil
}

// Fact looks up a sales transaction by id.
func (w *Warehouse) Fact(salesID string) (FactSales, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	f, ok := w.facts[salesID]
	return f, ok
}

// Facts returns all sales transactions ordered by sales id.
func (w *Warehouse) Facts() []FactSales {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.factsLocked()
}

func (w *Warehouse) factsLocked() []FactSales {
	out := make([]FactSales, 0, len(w.facts))
	for _, f := range w.facts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SalesID < out[j].SalesID })
	return out
}

// checkReferences verifies every dimension key on f. Caller holds the lock.
func (w *Warehouse) checkReferences(f FactSales) error {
	if _, ok := w.dates[f.DateID]; !ok {
		return &ReferentialIntegrityError{SalesID: f.SalesID, Dimension: "dim_date", Key: f.DateID}
	}
	if _, ok := w.products[f.ProductID]; !ok {
		return &ReferentialIntegrityError{SalesID: f.SalesID, Dimension: "dim_product", Key: f.ProductID}
	}
	if _, ok := w.segments[f.SegmentID]; !ok {
		return &ReferentialIntegrityError{SalesID: f.SalesID, Dimension: "dim_customer_segment", Key: f.SegmentID}
	}
	return nil
}
