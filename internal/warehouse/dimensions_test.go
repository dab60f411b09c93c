package warehouse

import (
	"errors"
	"testing"
	"time"
)

func TestNewDimDate(t *testing.T) {
	tests := []struct {
		name        string
		date        time.Time
		quarter     int
		quarterName string
		monthName   string
		weekday     int
		weekdayName string
	}{
		{
			name:        "mid January Monday",
			date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			quarter:     1,
			quarterName: "Q1",
			monthName:   "January",
			weekday:     2,
			weekdayName: "Monday",
		},
		{
			name:        "first of June Saturday",
			date:        time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			quarter:     2,
			quarterName: "Q2",
			monthName:   "June",
			weekday:     7,
			weekdayName: "Saturday",
		},
		{
			name:        "end of year Tuesday",
			date:        time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			quarter:     4,
			quarterName: "Q4",
			monthName:   "December",
			weekday:     3,
			weekdayName: "Tuesday",
		},
		{
			name:        "October Sunday",
			date:        time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC),
			quarter:     4,
			quarterName: "Q4",
			monthName:   "October",
			weekday:     1,
			weekdayName: "Sunday",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDimDate(1, tt.date)
			if d.Year != tt.date.Year() {
				t.Errorf("Expected year %d, got %d", tt.date.Year(), d.Year)
			}
			if d.Quarter != tt.quarter {
				t.Errorf("Expected quarter %d, got %d", tt.quarter, d.Quarter)
			}
			if d.QuarterName != tt.quarterName {
				t.Errorf("Expected quarter name %s, got %s", tt.quarterName, d.QuarterName)
			}
			if d.MonthName != tt.monthName {
				t.Errorf("Expected month name %s, got %s", tt.monthName, d.MonthName)
			}
			if d.Day != tt.date.Day() {
				t.Errorf("Expected day %d, got %d", tt.date.Day(), d.Day)
			}
			if d.Weekday != tt.weekday {
				t.Errorf("Expected weekday %d, got %d", tt.weekday, d.Weekday)
			}
			if d.WeekdayName != tt.weekdayName {
				t.Errorf("Expected weekday name %s, got %s", tt.weekdayName, d.WeekdayName)
			}
		})
	}
}

func TestInsertDateValidation(t *testing.T) {
	valid := NewDimDate(1, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name   string
		mutate func(*DimDate)
		field  string
	}{
		{"quarter too low", func(d *DimDate) { d.Quarter = 0 }, "quarter"},
		{"quarter too high", func(d *DimDate) { d.Quarter = 5 }, "quarter"},
		{"month too low", func(d *DimDate) { d.Month = 0 }, "month"},
		{"month too high", func(d *DimDate) { d.Month = 13 }, "month"},
		{"day too low", func(d *DimDate) { d.Day = 0 }, "day"},
		{"day too high", func(d *DimDate) { d.Day = 32 }, "day"},
		{"weekday too low", func(d *DimDate) { d.Weekday = 0 }, "weekday"},
		{"weekday too high", func(d *DimDate) { d.Weekday = 8 }, "weekday"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := New()
			d := valid
			tt.mutate(&d)
			err := w.InsertDate(d)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Expected field %s, got %s", tt.field, verr.Field)
			}
			if _, ok := w.Date(d.DateID); ok {
				t.Error("Expected rejected row to be absent from the store")
			}
		})
	}
}

func TestInsertDateIgnoresDuplicate(t *testing.T) {
	w := New()
	first := NewDimDate(1, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	if err := w.InsertDate(first); err != nil {
		t.Fatalf("Expected first insert to succeed, got %v", err)
	}

	second := NewDimDate(1, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC))
	if err := w.InsertDate(second); err != nil {
		t.Fatalf("Expected duplicate insert to be a no-op, got %v", err)
	}

	got, ok := w.Date(1)
	if !ok {
		t.Fatal("Expected row for date id 1")
	}
	if got.MonthName != "January" {
		t.Errorf("Expected original attributes to survive, got month %s", got.MonthName)
	}
	if n := w.Counts()["dim_date"]; n != 1 {
		t.Errorf("Expected 1 date row, got %d", n)
	}
}

func TestInsertProductIgnoresDuplicate(t *testing.T) {
	w := New()
	if err := w.InsertProduct(DimProduct{ProductID: 10, ProductType: "Electronics"}); err != nil {
		t.Fatalf("Expected insert to succeed, got %v", err)
	}
	if err := w.InsertProduct(DimProduct{ProductID: 10, ProductType: "Furniture"}); err != nil {
		t.Fatalf("Expected duplicate insert to be a no-op, got %v", err)
	}
	got, _ := w.Product(10)
	if got.ProductType != "Electronics" {
		t.Errorf("Expected product type Electronics, got %s", got.ProductType)
	}
}

func TestInsertSegmentIgnoresDuplicate(t *testing.T) {
	w := New()
	if err := w.InsertSegment(DimCustomerSegment{SegmentID: 3, City: "Austin"}); err != nil {
		t.Fatalf("Expected insert to succeed, got %v", err)
	}
	if err := w.InsertSegment(DimCustomerSegment{SegmentID: 3, City: "Dallas"}); err != nil {
		t.Fatalf("Expected duplicate insert to be a no-op, got %v", err)
	}
	got, _ := w.Segment(3)
	if got.City != "Austin" {
		t.Errorf("Expected city Austin, got %s", got.City)
	}
}

func TestDimensionListingsAreOrdered(t *testing.T) {
	w := New()
	for _, id := range []int{5, 1, 3} {
		day := time.Date(2024, 3, id, 0, 0, 0, 0, time.UTC)
		if err := w.InsertDate(NewDimDate(id, day)); err != nil {
			t.Fatalf("Expected insert to succeed, got %v", err)
		}
	}
	dates := w.Dates()
	if len(dates) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(dates))
	}
	for i, want := range []int{1, 3, 5} {
		if dates[i].DateID != want {
			t.Errorf("Expected date id %d at position %d, got %d", want, i, dates[i].DateID)
		}
	}
}
