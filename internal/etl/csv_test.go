package etl

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

// writeExtracts writes CSV files into a fresh directory, falling back to
// the testdata copies for any of the four names not overridden.
func writeExtracts(t *testing.T, overrides map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{DimDateFile, DimProductFile, DimCustomerSegmentFile, FactSalesFile} {
		content, ok := overrides[name]
		if !ok {
			data, err := os.ReadFile(filepath.Join("testdata", name))
			if err != nil {
				t.Fatalf("Failed to read testdata %s: %v", name, err)
			}
			content = string(data)
		}
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	return dir
}

func TestCSVLoaderLoad(t *testing.T) {
	w, err := NewCSVLoader("testdata").Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}

	counts := w.Counts()
	expected := map[string]int{
		"dim_date":             3,
		"dim_product":          2,
		"dim_customer_segment": 2,
		"fact_sales":           3,
	}
	for table, want := range expected {
		if counts[table] != want {
			t.Errorf("Expected %d rows in %s, got %d", want, table, counts[table])
		}
	}

	f, ok := w.Fact("S1")
	if !ok {
		t.Fatal("Expected fact S1 to exist")
	}
	if f.TotalAmount() != 30.00 {
		t.Errorf("Expected derived total 30.00, got %v", f.TotalAmount())
	}

	d, ok := w.Date(1)
	if !ok {
		t.Fatal("Expected date row 1 to exist")
	}
	if d.MonthName != "January" || d.WeekdayName != "Monday" {
		t.Errorf("Expected January/Monday, got %s/%s", d.MonthName, d.WeekdayName)
	}
	if !d.Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Expected date 2024-01-15, got %v", d.Date)
	}
}

func TestCSVLoaderHeaderVariants(t *testing.T) {
	// Warehouse-style column names must resolve to the same fields as the
	// extract-style ones, and a leading BOM on the first header cell is
	// tolerated.
	dir := writeExtracts(t, map[string]string{
		DimDateFile: "\uFEFFDateID,Date,Year,Quarter,Quarter_Name,Month,Month_Name,Day,Weekday,Weekday_Name\n" +
			"1,2024-01-15,2024,1,Q1,1,January,15,2,Monday\n",
		FactSalesFile: "sales_id,date_id,product_id,segment_id,price_per_unit,quantity_sold\n" +
			"S1,1,1,1,10.00,3\n",
	})

	w, err := NewCSVLoader(dir).Load()
	if err != nil {
		t.Fatalf("Expected load to succeed, got %v", err)
	}
	f, ok := w.Fact("S1")
	if !ok {
		t.Fatal("Expected fact S1 to exist")
	}
	if f.TotalAmount() != 30.00 {
		t.Errorf("Expected total 30.00, got %v", f.TotalAmount())
	}
}

func TestCSVLoaderDateLayouts(t *testing.T) {
	tests := []struct {
		name string
		date string
	}{
		{"iso", "2024-01-15"},
		{"timestamped", "2024-01-15 00:00:00"},
		{"slash", "1/15/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeExtracts(t, map[string]string{
				DimDateFile: "dateid,date,year,quarter,quartername,month,monthname,day,weekday,weekdayname\n" +
					"1," + tt.date + ",2024,1,Q1,1,January,15,2,Monday\n",
				FactSalesFile: "salesid,dateid,productid,segmentid,price_perunit,quantitysold\n",
			})
			w, err := NewCSVLoader(dir).Load()
			if err != nil {
				t.Fatalf("Expected load to succeed, got %v", err)
			}
			d, _ := w.Date(1)
			if !d.Date.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
				t.Errorf("Expected 2024-01-15, got %v", d.Date)
			}
		})
	}
}

func TestCSVLoaderOrphanFactHasRowContext(t *testing.T) {
	dir := writeExtracts(t, map[string]string{
		FactSalesFile: "salesid,dateid,productid,segmentid,price_perunit,quantitysold\n" +
			"S1,1,1,1,10.00,3\n" +
			"S2,1,99,1,4.00,2\n",
	})

	_, err := NewCSVLoader(dir).Load()
	if err == nil {
		t.Fatal("Expected orphan fact to fail the load")
	}
	var rie *warehouse.ReferentialIntegrityError
	if !errors.As(err, &rie) {
		t.Fatalf("Expected ReferentialIntegrityError, got %v", err)
	}
	if rie.Dimension != "dim_product" || rie.Key != 99 {
		t.Errorf("Expected missing dim_product 99, got %s %d", rie.Dimension, rie.Key)
	}
	if !strings.Contains(err.Error(), "FactSales.csv line 3") {
		t.Errorf("Expected file and line context, got %q", err.Error())
	}
}

func TestCSVLoaderBadMeasure(t *testing.T) {
	dir := writeExtracts(t, map[string]string{
		FactSalesFile: "salesid,dateid,productid,segmentid,price_perunit,quantitysold\n" +
			"S1,1,1,1,10.00,0\n",
	})

	_, err := NewCSVLoader(dir).Load()
	var cv *warehouse.ConstraintViolation
	if !errors.As(err, &cv) {
		t.Fatalf("Expected ConstraintViolation, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("Expected line context, got %q", err.Error())
	}
}

func TestCSVLoaderMissingColumn(t *testing.T) {
	dir := writeExtracts(t, map[string]string{
		FactSalesFile: "salesid,dateid,productid,segmentid,price_perunit\n" +
			"S1,1,1,1,10.00\n",
	})

	_, err := NewCSVLoader(dir).Load()
	if err == nil || !strings.Contains(err.Error(), "missing column") {
		t.Errorf("Expected missing column error, got %v", err)
	}
}

func TestCSVLoaderMissingFile(t *testing.T) {
	_, err := NewCSVLoader(t.TempDir()).Load()
	if err == nil || !strings.Contains(err.Error(), DimDateFile) {
		t.Errorf("Expected missing file error naming %s, got %v", DimDateFile, err)
	}
}

func TestCSVLoaderDuplicateDimensionIsNoOp(t *testing.T) {
	dir := writeExtracts(t, map[string]string{
		DimProductFile: "productid,producttype\n1,Electronics\n1,Furniture\n2,Furniture\n",
	})

	w, err := NewCSVLoader(dir).Load()
	if err != nil {
		t.Fatalf("Expected duplicate dimension rows to be ignored, got %v", err)
	}
	p, _ := w.Product(1)
	if p.ProductType != "Electronics" {
		t.Errorf("Expected first row to win, got %s", p.ProductType)
	}
	if w.Counts()["dim_product"] != 2 {
		t.Errorf("Expected 2 products, got %d", w.Counts()["dim_product"])
	}
}
