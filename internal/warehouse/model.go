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
	"time"
)

// DimDate is one row of the date dimension. Rows are immutable once
// inserted; every calendar attribute is derived from the date itself.
type DimDate struct {
	DateID      int
	Date        time.Time
	Year        int
	Quarter     int
	QuarterName string
	Month       int
	MonthName   string
	Day         int
	Weekday     int
	WeekdayName string
}

// NewDimDate builds a date dimension row for t with all calendar
// attributes filled in. Weekday runs 1 (Sunday) through 7 (Saturday).
func NewDimDate(dateID int, t time.Time) DimDate {
	quarter := (int(t.Month())-1)/3 + 1
	return DimDate{
		DateID:      dateID,
		Date:        t,
		Year:        t.Year(),
		Quarter:     quarter,
		QuarterName: fmt.Sprintf("Q%d", quarter),
		Month:       int(t.Month()),
		MonthName:   t.Month().String(),
		Day:         t.Day(),
		Weekday:     int(t.Weekday()) + 1,
		WeekdayName: t.Weekday().String(),
	}
}

func (d DimDate) validate() error {
	checks := []struct {
		field    string
		value    int
		min, max int
	}{
		{"quarter", d.Quarter, 1, 4},
		{"month", d.Month, 1, 12},
		{"day", d.Day, 1, 31},
		{"weekday", d.Weekday, 1, 7},
	}
	for _, c := range checks {
		if c.value < c.min || c.value > c.max {
			return &ValidationError{
				Dimension: "dim_date",
				Field:     c.field,
				Value:     c.value,
				Min:       c.min,
				Max:       c.max,
			}
		}
	}
	return nil
}

// DimProduct is one row of the product dimension.
type DimProduct struct {
	ProductID   int
	ProductType string
}

// DimCustomerSegment is one row of the customer segment dimension. Segments
// are keyed by id and described by the city they cover.
type DimCustomerSegment struct {
	SegmentID int
	City      string
}

// FactSales is one sales transaction. The total amount is derived from the
// measures by the warehouse on every write; it is not writable and any
// value present on an inserted or updated struct is ignored.
type FactSales struct {
	SalesID      string
	DateID       int
	ProductID    int
	SegmentID    int
	PricePerUnit float64
	QuantitySold int

	totalAmount float64
}

// TotalAmount returns the derived price times quantity for the row.
func (f FactSales) TotalAmount() float64 {
	return f.totalAmount
}

func (f FactSales) validateMeasures() error {
	if f.PricePerUnit <= 0 {
		return &ConstraintViolation{SalesID: f.SalesID, Field: "price_per_unit", Value: f.PricePerUnit}
	}
	if f.QuantitySold <= 0 {
		return &ConstraintViolation{SalesID: f.SalesID, Field: "quantity_sold", Value: float64(f.QuantitySold)}
	}
	return nil
}
