package warehouse

import (
	"testing"
	"time"
)

func seedQueryData(t *testing.T) *Warehouse {
	t.Helper()
	w := New()
	if err := w.InsertDate(NewDimDate(1, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Expected date insert to succeed, got %v", err)
	}
	products := []DimProduct{
		{ProductID: 1, ProductType: "Electronics"},
		{ProductID: 2, ProductType: "Furniture"},
		{ProductID: 3, ProductType: "Electronics"},
	}
	for _, p := range products {
		if err := w.InsertProduct(p); err != nil {
			t.Fatalf("Expected product insert to succeed, got %v", err)
		}
	}
	segments := []DimCustomerSegment{
		{SegmentID: 1, City: "Austin"},
		{SegmentID: 2, City: "Dallas"},
		{SegmentID: 3, City: "Austin"},
	}
	for _, s := range segments {
		if err := w.InsertSegment(s); err != nil {
			t.Fatalf("Expected segment insert to succeed, got %v", err)
		}
	}
	facts := []FactSales{
		{SalesID: "S1", DateID: 1, ProductID: 1, SegmentID: 1, PricePerUnit: 100, QuantitySold: 2}, // 200
		{SalesID: "S2", DateID: 1, ProductID: 2, SegmentID: 2, PricePerUnit: 50, QuantitySold: 9},  // 450
		{SalesID: "S3", DateID: 1, ProductID: 3, SegmentID: 3, PricePerUnit: 10, QuantitySold: 30}, // 300
	}
	for _, f := range facts {
		if err := w.InsertFact(f); err != nil {
			t.Fatalf("Expected fact insert to succeed, got %v", err)
		}
	}
	return w
}

func TestTopProductsByRevenue(t *testing.T) {
	w := seedQueryData(t)
	top, err := w.TopProductsByRevenue(2)
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(top))
	}
	if top[0].ProductID != 2 || top[0].Revenue != 450 {
		t.Errorf("Expected product 2 with revenue 450 first, got %d with %v", top[0].ProductID, top[0].Revenue)
	}
	if top[1].ProductID != 3 || top[1].Revenue != 300 {
		t.Errorf("Expected product 3 with revenue 300 second, got %d with %v", top[1].ProductID, top[1].Revenue)
	}
}

func TestTopProductsByQuantity(t *testing.T) {
	w := seedQueryData(t)
	top, err := w.TopProductsByQuantity(1)
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if len(top) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(top))
	}
	if top[0].ProductID != 3 || top[0].QuantitySold != 30 {
		t.Errorf("Expected product 3 with 30 units, got %d with %d", top[0].ProductID, top[0].QuantitySold)
	}
}

func TestTopCitiesByRevenueRollsUpSegments(t *testing.T) {
	w := seedQueryData(t)
	top, err := w.TopCitiesByRevenue(0)
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("Expected 2 cities, got %d", len(top))
	}
	if top[0].City != "Austin" || top[0].Revenue != 500 {
		t.Errorf("Expected Austin with revenue 500 first, got %s with %v", top[0].City, top[0].Revenue)
	}
	if top[0].Transactions != 2 {
		t.Errorf("Expected Austin to roll up 2 transactions, got %d", top[0].Transactions)
	}
	if top[1].City != "Dallas" || top[1].Revenue != 450 {
		t.Errorf("Expected Dallas with revenue 450 second, got %s with %v", top[1].City, top[1].Revenue)
	}
}

func TestRevenueByProductType(t *testing.T) {
	w := seedQueryData(t)
	types, err := w.RevenueByProductType()
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("Expected 2 types, got %d", len(types))
	}
	if types[0].ProductType != "Electronics" || types[0].Revenue != 500 {
		t.Errorf("Expected Electronics with revenue 500 first, got %s with %v", types[0].ProductType, types[0].Revenue)
	}
	if types[1].ProductType != "Furniture" || types[1].Revenue != 450 {
		t.Errorf("Expected Furniture with revenue 450 second, got %s with %v", types[1].ProductType, types[1].Revenue)
	}
}

func TestTopNLargerThanResult(t *testing.T) {
	w := seedQueryData(t)
	top, err := w.TopProductsByRevenue(50)
	if err != nil {
		t.Fatalf("Expected query to succeed, got %v", err)
	}
	if len(top) != 3 {
		t.Errorf("Expected all 3 products, got %d", len(top))
	}
}
