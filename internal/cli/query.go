package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/altiplano-data/salesmirror/internal/mirror"
	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

var (
	queryLimit  int
	queryFormat string
	queryMirror string
)

var queryCmd = &cobra.Command{
	Use:   "query <name>",
	Short: "Run an analysis query against the mirror",
	Long: `Load the SQLite mirror and run one of the built-in analysis queries:

  sales-analysis    denormalized sales rows with dimension attributes
  monthly-metrics   per-month transactions, quantity, revenue, averages
  top-products      products ranked by revenue
  top-quantity      products ranked by units sold
  top-cities        cities ranked by revenue
  revenue-by-type   revenue rollup per product type

Example:
  salesmirror query monthly-metrics
  salesmirror query top-products --limit 5 --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().IntVar(&queryLimit, "limit", 10,
		"maximum rows to return (0 = no limit)")
	queryCmd.Flags().StringVar(&queryFormat, "format", "table",
		"output format: table, json, csv")
	queryCmd.Flags().StringVar(&queryMirror, "mirror", "",
		"SQLite mirror database file")
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryMirror != "" {
		cfg.Replicate.MirrorPath = queryMirror
	}
	path := cfg.Replicate.MirrorPath
	if path == "" {
		return fmt.Errorf("mirror path is required")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("mirror %s does not exist; run 'salesmirror replicate' first", path)
	}

	ctx := context.Background()
	m, err := mirror.Open(ctx, path)
	if err != nil {
		return err
	}
	w, err := m.LoadWarehouse(ctx)
	m.Close()
	if err != nil {
		return err
	}

	rs, err := buildResult(args[0], w, queryLimit)
	if err != nil {
		return err
	}
	return renderResults(cmd.OutOrStdout(), rs, queryFormat)
}

func buildResult(name string, w *warehouse.Warehouse, limit int) (resultSet, error) {
	switch name {
	case "sales-analysis":
		rows, err := w.SalesAnalysis()
		if err != nil {
			return resultSet{}, err
		}
		if limit > 0 && len(rows) > limit {
			rows = rows[:limit]
		}
		rs := resultSet{cols: []string{
			"sales_id", "date", "month_name", "product_type", "city",
			"price_per_unit", "quantity_sold", "total_amount",
		}}
		for _, r := range rows {
			rs.rows = append(rs.rows, []any{
				r.SalesID, r.Date.Date.Format("2006-01-02"), r.Date.MonthName,
				r.Product.ProductType, r.Segment.City,
				money(r.PricePerUnit), r.QuantitySold, money(r.TotalAmount),
			})
		}
		return rs, nil

	case "monthly-metrics":
		metrics, err := w.MonthlyMetrics()
		if err != nil {
			return resultSet{}, err
		}
		rs := resultSet{cols: []string{
			"year", "month", "month_name", "total_transactions", "total_quantity",
			"total_revenue", "avg_sale_amount", "unique_products", "unique_segments",
		}}
		for _, m := range metrics {
			rs.rows = append(rs.rows, []any{
				m.Year, m.Month, m.MonthName, m.TotalTransactions, m.TotalQuantity,
				money(m.TotalRevenue), money(m.AvgSaleAmount),
				m.UniqueProducts, m.UniqueSegments,
			})
		}
		return rs, nil

	case "top-products":
		products, err := w.TopProductsByRevenue(limit)
		if err != nil {
			return resultSet{}, err
		}
		return productResult(products), nil

	case "top-quantity":
		products, err := w.TopProductsByQuantity(limit)
		if err != nil {
			return resultSet{}, err
		}
		return productResult(products), nil

	case "top-cities":
		cities, err := w.TopCitiesByRevenue(limit)
		if err != nil {
			return resultSet{}, err
		}
		rs := resultSet{cols: []string{"city", "transactions", "quantity_sold", "revenue"}}
		for _, c := range cities {
			rs.rows = append(rs.rows, []any{
				c.City, c.Transactions, c.QuantitySold, money(c.Revenue),
			})
		}
		return rs, nil

	case "revenue-by-type":
		types, err := w.RevenueByProductType()
		if err != nil {
			return resultSet{}, err
		}
		if limit > 0 && len(types) > limit {
			types = types[:limit]
		}
		rs := resultSet{cols: []string{"product_type", "transactions", "quantity_sold", "revenue"}}
		for _, t := range types {
			rs.rows = append(rs.rows, []any{
				t.ProductType, t.Transactions, t.QuantitySold, money(t.Revenue),
			})
		}
		return rs, nil

	default:
		return resultSet{}, fmt.Errorf(
			"unknown query %q (expected sales-analysis, monthly-metrics, top-products, top-quantity, top-cities, or revenue-by-type)",
			name)
	}
}

func productResult(products []warehouse.ProductSummary) resultSet {
	rs := resultSet{cols: []string{
		"product_id", "product_type", "transactions", "quantity_sold", "revenue",
	}}
	for _, p := range products {
		rs.rows = append(rs.rows, []any{
			p.ProductID, p.ProductType, p.Transactions, p.QuantitySold, money(p.Revenue),
		})
	}
	return rs
}
