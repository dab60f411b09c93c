package warehouse

import "sort"

// SalesAnalysisRow is one fact joined to all three of its dimensions, the
// shape served by the vw_sales_analysis view.
type SalesAnalysisRow struct {
	SalesID      string
	Date         DimDate
	Product      DimProduct
	Segment      DimCustomerSegment
	PricePerUnit float64
	QuantitySold int
	TotalAmount  float64
}

// MonthlyMetric is one (year, month) aggregate row, the shape served by
// the vw_monthly_metrics view.
type MonthlyMetric struct {
	Year              int
	Month             int
	MonthName         string
	TotalTransactions int
	TotalQuantity     int
	TotalRevenue      float64
	AvgSaleAmount     float64
	UniqueProducts    int
	UniqueSegments    int
}

// SalesAnalysis joins every fact to its date, product and segment rows,
// ordered by sales id. The whole computation runs against one snapshot of
// the warehouse. A fact whose dimension row is missing fails the call with
// an IntegrityError instead of being dropped or null-filled.
func (w *Warehouse) SalesAnalysis() ([]SalesAnalysisRow, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.salesAnalysisLocked()
}

func (w *Warehouse) salesAnalysisLocked() ([]SalesAnalysisRow, error) {
	rows := make([]SalesAnalysisRow, 0, len(w.facts))
	for _, f := range w.factsLocked() {
		d, ok := w.dates[f.DateID]
		if !ok {
			return nil, &IntegrityError{SalesID: f.SalesID, Dimension: "dim_date", Key: f.DateID}
		}
		p, ok := w.products[f.ProductID]
		if !ok {
			return nil, &IntegrityError{SalesID: f.SalesID, Dimension: "dim_product", Key: f.ProductID}
		}
		s, ok := w.segments[f.SegmentID]
		if !ok {
			return nil, &IntegrityError{SalesID: f.SalesID, Dimension: "dim_customer_segment", Key: f.SegmentID}
		}
		rows = append(rows, SalesAnalysisRow{
			SalesID:      f.SalesID,
			Date:         d,
			Product:      p,
			Segment:      s,
			PricePerUnit: f.PricePerUnit,
			QuantitySold: f.QuantitySold,
			TotalAmount:  f.totalAmount,
		})
	}
	return rows, nil
}

// MonthlyMetrics aggregates facts by calendar (year, month) through the
// date dimension, ascending. Months with no sales are omitted. Like
// SalesAnalysis it fails loudly on a dangling dimension reference.
func (w *Warehouse) MonthlyMetrics() ([]MonthlyMetric, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	rows, err := w.salesAnalysisLocked()
	if err != nil {
		return nil, err
	}

	type key struct{ year, month int }
	groups := make(map[key]*MonthlyMetric)
	products := make(map[key]map[int]struct{})
	segments := make(map[key]map[int]struct{})
	for _, r := range rows {
		k := key{r.Date.Year, r.Date.Month}
		m, ok := groups[k]
		if !ok {
			m = &MonthlyMetric{Year: k.year, Month: k.month, MonthName: r.Date.MonthName}
			groups[k] = m
			products[k] = make(map[int]struct{})
			segments[k] = make(map[int]struct{})
		}
		m.TotalTransactions++
		m.TotalQuantity += r.QuantitySold
		m.TotalRevenue += r.TotalAmount
		products[k][r.Product.ProductID] = struct{}{}
		segments[k][r.Segment.SegmentID] = struct{}{}
	}

	out := make([]MonthlyMetric, 0, len(groups))
	for k, m := range groups {
		m.AvgSaleAmount = m.TotalRevenue / float64(m.TotalTransactions)
		m.UniqueProducts = len(products[k])
		m.UniqueSegments = len(segments[k])
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out, nil
}
