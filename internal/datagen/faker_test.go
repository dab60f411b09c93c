//-------------------------------------------------------------------------
//
// salesmirror
//
// Copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

package datagen

import (
	"testing"
	"time"
)

func TestNewFaker(t *testing.T) {
	f := NewFaker()
	if f == nil {
		t.Fatal("NewFaker returned nil")
	}
	if f.faker == nil {
		t.Fatal("faker field is nil")
	}
}

func TestNewFakerWithSeed(t *testing.T) {
	seed := uint64(12345)
	f1 := NewFakerWithSeed(seed)
	f2 := NewFakerWithSeed(seed)

	// Same seed should produce same sequence
	for i := 0; i < 10; i++ {
		v1 := f1.Int(0, 1000)
		v2 := f2.Int(0, 1000)
		if v1 != v2 {
			t.Errorf("Same seed produced different values: %d != %d", v1, v2)
		}
	}
}

func TestFakerName(t *testing.T) {
	f := NewFaker()
	name := f.Name()
	if name == "" {
		t.Error("Name returned empty string")
	}
}

func TestFakerEmail(t *testing.T) {
	f := NewFaker()
	email := f.Email()
	if email == "" {
		t.Error("Email returned empty string")
	}
	if len(email) < 5 {
		t.Error("Email too short")
	}
}

func TestFakerCity(t *testing.T) {
	f := NewFaker()
	city := f.City()
	if city == "" {
		t.Error("City returned empty string")
	}
}

func TestFakerProductName(t *testing.T) {
	f := NewFaker()
	name := f.ProductName()
	if name == "" {
		t.Error("ProductName returned empty string")
	}
}

func TestFakerProductCategory(t *testing.T) {
	f := NewFaker()
	cat := f.ProductCategory()
	if cat == "" {
		t.Error("ProductCategory returned empty string")
	}
}

func TestFakerPrice(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		price := f.Price(5.0, 500.0)
		if price < 5.0 || price > 500.0 {
			t.Errorf("Price %f not in range [5, 500]", price)
		}
	}
}

func TestFakerInt(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Int(1, 20)
		if v < 1 || v > 20 {
			t.Errorf("Int %d not in range [1, 20]", v)
		}
	}
}

func TestFakerFloat64(t *testing.T) {
	f := NewFaker()
	for i := 0; i < 100; i++ {
		v := f.Float64(1.5, 3.5)
		if v < 1.5 || v > 3.5 {
			t.Errorf("Float64 %f not in range [1.5, 3.5]", v)
		}
	}
}

func TestFakerDateRange(t *testing.T) {
	f := NewFaker()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 50; i++ {
		d := f.DateRange(start, end)
		if d.Before(start) || d.After(end) {
			t.Errorf("DateRange %v not in range [%v, %v]", d, start, end)
		}
	}
}

func TestChoose(t *testing.T) {
	f := NewFakerWithSeed(1)
	items := []string{"a", "b", "c"}
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[Choose(f, items)] = true
	}
	for _, item := range items {
		if !seen[item] {
			t.Errorf("Choose never returned %q in 100 draws", item)
		}
	}
}

func TestChooseEmpty(t *testing.T) {
	f := NewFaker()
	v := Choose(f, []string{})
	if v != "" {
		t.Errorf("Expected zero value for empty slice, got %q", v)
	}
}

func TestChooseWeighted(t *testing.T) {
	f := NewFakerWithSeed(7)
	items := []string{"common", "rare"}
	weights := []int{99, 1}

	counts := make(map[string]int)
	for i := 0; i < 1000; i++ {
		counts[ChooseWeighted(f, items, weights)]++
	}
	if counts["common"] < counts["rare"] {
		t.Errorf("Expected 'common' to dominate, got %v", counts)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{"shorter than max", "abc", 10, "abc"},
		{"equal to max", "abcde", 5, "abcde"},
		{"longer than max", "abcdefgh", 5, "abcde"},
		{"empty string", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.input, tt.maxLen)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}
