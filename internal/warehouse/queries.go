package warehouse

import "sort"

// ProductSummary aggregates the facts of one product.
type ProductSummary struct {
	ProductID    int
	ProductType  string
	Transactions int
	QuantitySold int
	Revenue      float64
}

// CitySummary aggregates the facts of every segment in one city.
type CitySummary struct {
	City         string
	Transactions int
	QuantitySold int
	Revenue      float64
}

// TypeSummary aggregates the facts of one product type.
type TypeSummary struct {
	ProductType  string
	Transactions int
	QuantitySold int
	Revenue      float64
}

// TopProductsByRevenue returns the n products with the highest revenue,
// descending. Ties break on product id so the order is stable.
func (w *Warehouse) TopProductsByRevenue(n int) ([]ProductSummary, error) {
	out, err := w.productSummaries()
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ProductID < out[j].ProductID
	})
	return truncateSummaries(out, n), nil
}

// TopProductsByQuantity returns the n products with the most units sold,
// descending.
func (w *Warehouse) TopProductsByQuantity(n int) ([]ProductSummary, error) {
	out, err := w.productSummaries()
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QuantitySold != out[j].QuantitySold {
			return out[i].QuantitySold > out[j].QuantitySold
		}
		return out[i].ProductID < out[j].ProductID
	})
	return truncateSummaries(out, n), nil
}

// TopCitiesByRevenue returns the n cities with the highest revenue,
// descending. Segments sharing a city roll up into one row.
func (w *Warehouse) TopCitiesByRevenue(n int) ([]CitySummary, error) {
	rows, err := w.SalesAnalysis()
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*CitySummary)
	for _, r := range rows {
		c, ok := groups[r.Segment.City]
		if !ok {
			c = &CitySummary{City: r.Segment.City}
			groups[r.Segment.City] = c
		}
		c.Transactions++
		c.QuantitySold += r.QuantitySold
		c.Revenue += r.TotalAmount
	}
	out := make([]CitySummary, 0, len(groups))
	for _, c := range groups {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].City < out[j].City
	})
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out, nil
}

// RevenueByProductType aggregates facts per product type, ordered by
// revenue descending.
func (w *Warehouse) RevenueByProductType() ([]TypeSummary, error) {
	rows, err := w.SalesAnalysis()
	if err != nil {
		return nil, err
	}
	groups := make(map[string]*TypeSummary)
	for _, r := range rows {
		t, ok := groups[r.Product.ProductType]
		if !ok {
			t = &TypeSummary{ProductType: r.Product.ProductType}
			groups[r.Product.ProductType] = t
		}
		t.Transactions++
		t.QuantitySold += r.QuantitySold
		t.Revenue += r.TotalAmount
	}
	out := make([]TypeSummary, 0, len(groups))
	for _, t := range groups {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].ProductType < out[j].ProductType
	})
	return out, nil
}

func (w *Warehouse) productSummaries() ([]ProductSummary, error) {
	rows, err := w.SalesAnalysis()
	if err != nil {
		return nil, err
	}
	groups := make(map[int]*ProductSummary)
	for _, r := range rows {
		p, ok := groups[r.Product.ProductID]
		if !ok {
			p = &ProductSummary{ProductID: r.Product.ProductID, ProductType: r.Product.ProductType}
			groups[r.Product.ProductID] = p
		}
		p.Transactions++
		p.QuantitySold += r.QuantitySold
		p.Revenue += r.TotalAmount
	}
	out := make([]ProductSummary, 0, len(groups))
	for _, p := range groups {
		out = append(out, *p)
	}
	return out, nil
}

func truncateSummaries(s []ProductSummary, n int) []ProductSummary {
	if n > 0 && n < len(s) {
		return s[:n]
	}
	return s
}
