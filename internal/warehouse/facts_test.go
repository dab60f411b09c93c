package warehouse

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func seedDimensions(t *testing.T, w *Warehouse) {
	t.Helper()
	dims := []time.Time{
		time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
	}
	for i, day := range dims {
		if err := w.InsertDate(NewDimDate(i+1, day)); err != nil {
			t.Fatalf("Expected date insert to succeed, got %v", err)
		}
	}
	products := []DimProduct{
		{ProductID: 1, ProductType: "Electronics"},
		{ProductID: 2, ProductType: "Furniture"},
	}
	for _, p := range products {
		if err := w.InsertProduct(p); err != nil {
			t.Fatalf("Expected product insert to succeed, got %v", err)
		}
	}
	segments := []DimCustomerSegment{
		{SegmentID: 1, City: "Austin"},
		{SegmentID: 2, City: "Dallas"},
	}
	for _, s := range segments {
		if err := w.InsertSegment(s); err != nil {
			t.Fatalf("Expected segment insert to succeed, got %v", err)
		}
	}
}

func TestInsertFactDerivesTotal(t *testing.T) {
	w := New()
	seedDimensions(t, w)

	f := FactSales{
		SalesID:      "S1",
		DateID:       1,
		ProductID:    1,
		SegmentID:    1,
		PricePerUnit: 10.00,
		QuantitySold: 3,
		totalAmount:  999.99,
	}
	if err := w.InsertFact(f); err != nil {
		t.Fatalf("Expected insert to succeed, got %v", err)
	}

	got, ok := w.Fact("S1")
	if !ok {
		t.Fatal("Expected fact S1 to exist")
	}
	if got.TotalAmount() != 30.00 {
		t.Errorf("Expected total 30.00, got %v", got.TotalAmount())
	}
}

func TestInsertFactRejectsBadMeasures(t *testing.T) {
	tests := []struct {
		name  string
		price float64
		qty   int
		field string
	}{
		{"zero price", 0, 3, "price_per_unit"},
		{"negative price", -4.50, 3, "price_per_unit"},
		{"zero quantity", 9.99, 0, "quantity_sold"},
		{"negative quantity", 9.99, -2, "quantity_sold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New()
			seedDimensions(t, w)
			err := w.InsertFact(FactSales{
				SalesID:      "S1",
				DateID:       1,
				ProductID:    1,
				SegmentID:    1,
				PricePerUnit: tt.price,
				QuantitySold: tt.qty,
			})
			var cv *ConstraintViolation
			if !errors.As(err, &cv) {
				t.Fatalf("Expected ConstraintViolation, got %v", err)
			}
			if cv.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, cv.Field)
			}
		})
	}
}

func TestInsertFactRejectsMissingDimension(t *testing.T) {
	tests := []struct {
		name      string
		fact      FactSales
		dimension string
		key       int
	}{
		{
			name:      "missing date",
			fact:      FactSales{SalesID: "S1", DateID: 99, ProductID: 1, SegmentID: 1, PricePerUnit: 1, QuantitySold: 1},
			dimension: "dim_date",
			key:       99,
		},
		{
			name:      "missing product",
			fact:      FactSales{SalesID: "S1", DateID: 1, ProductID: 99, SegmentID: 1, PricePerUnit: 1, QuantitySold: 1},
			dimension: "dim_product",
			key:       99,
		},
		{
			name:      "missing segment",
			fact:      FactSales{SalesID: "S1", DateID: 1, ProductID: 1, SegmentID: 99, PricePerUnit: 1, QuantitySold: 1},
			dimension: "dim_customer_segment",
			key:       99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New()
			seedDimensions(t, w)
			err := w.InsertFact(tt.fact)
			var rie *ReferentialIntegrityError
			if !errors.As(err, &rie) {
				t.Fatalf("Expected ReferentialIntegrityError, got %v", err)
			}
			if rie.Dimension != tt.dimension {
				t.Errorf("Expected dimension %s, got %s", tt.dimension, rie.Dimension)
			}
			if rie.Key != tt.key {
				t.Errorf("Expected key %d, got %d", tt.key, rie.Key)
			}
			if _, ok := w.Fact("S1"); ok {
				t.Error("Expected rejected fact to be absent from the store")
			}
		})
	}
}

func TestInsertFactRejectsDuplicate(t *testing.T) {
	w := New()
	seedDimensions(t, w)

	f := FactSales{SalesID: "S1", DateID: 1, ProductID: 1, SegmentID: 1, PricePerUnit: 5, QuantitySold: 2}
	if err := w.InsertFact(f); err != nil {
		t.Fatalf("Expected first insert to succeed, got %v", err)
	}

	f.PricePerUnit = 50
	err := w.InsertFact(f)
	var uc *UniquenessConflict
	if !errors.As(err, &uc) {
		t.Fatalf("Expected UniquenessConflict, got %v", err)
	}
	got, _ := w.Fact("S1")
	if got.PricePerUnit != 5 {
		t.Errorf("Expected original price 5, got %v", got.PricePerUnit)
	}
}

func TestConcurrentDuplicateInsert(t *testing.T) {
	w := New()
	seedDimensions(t, w)

	const workers = 16
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = w.InsertFact(FactSales{
				SalesID:      "S1",
				DateID:       1,
				ProductID:    1,
				SegmentID:    1,
				PricePerUnit: float64(i + 1),
				QuantitySold: 1,
			})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			var uc *UniquenessConflict
			if !errors.As(err, &uc) {
				t.Fatalf("Expected UniquenessConflict, got %v", err)
			}
			conflicts++
		}
	}
	if wins != 1 {
		t.Errorf("Expected exactly 1 winning insert, got %d", wins)
	}
	if conflicts != workers-1 {
		t.Errorf("Expected %d conflicts, got %d", workers-1, conflicts)
	}
}

func TestUpdateFactMeasures(t *testing.T) {
	w := New()
	seedDimensions(t, w)
	if err := w.InsertFact(FactSales{SalesID: "S1", DateID: 1, ProductID: 1, SegmentID: 1, PricePerUnit: 10, QuantitySold: 3}); err != nil {
		t.Fatalf("Expected insert to succeed, got %v", err)
	}

	if err := w.UpdateFactMeasures("S1", 12.50, 4); err != nil {
		t.Fatalf("Expected update to succeed, got %v", err)
	}
	got, _ := w.Fact("S1")
	if got.TotalAmount() != 50.00 {
		t.Errorf("Expected recomputed total 50.00, got %v", got.TotalAmount())
	}

	err := w.UpdateFactMeasures("S1", -1, 4)
	var cv *ConstraintViolation
	if !errors.As(err, &cv) {
		t.Fatalf("Expected ConstraintViolation, got %v", err)
	}
	got, _ = w.Fact("S1")
	if got.TotalAmount() != 50.00 {
		t.Errorf("Expected total to be untouched by rejected update, got %v", got.TotalAmount())
	}

	if err := w.UpdateFactMeasures("S404", 1, 1); !errors.Is(err, ErrFactNotFound) {
		t.Errorf("Expected ErrFactNotFound, got %v", err)
	}
}

func TestReadersNeverSeeStaleTotal(t *testing.T) {
	w := New()
	seedDimensions(t, w)
	if err := w.InsertFact(FactSales{SalesID: "S1", DateID: 1, ProductID: 1, SegmentID: 1, PricePerUnit: 10, QuantitySold: 3}); err != nil {
		t.Fatalf("Expected insert to succeed, got %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 500; i++ {
			price := float64(1 + i%7)
			qty := 1 + i%5
			if err := w.UpdateFactMeasures("S1", price, qty); err != nil {
				t.Errorf("Expected update to succeed, got %v", err)
				return
			}
		}
	}()

	for i := 0; i < 500; i++ {
		f, ok := w.Fact("S1")
		if !ok {
			t.Fatal("Expected fact S1 to exist")
		}
		want := f.PricePerUnit * float64(f.QuantitySold)
		if f.TotalAmount() != want {
			t.Fatalf("Expected total %v for price %v qty %d, got %v",
				want, f.PricePerUnit, f.QuantitySold, f.TotalAmount())
		}
	}
	<-done
}
