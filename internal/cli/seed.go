package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/altiplano-data/salesmirror/internal/db"
	"github.com/altiplano-data/salesmirror/internal/etl"
	"github.com/altiplano-data/salesmirror/internal/logging"
)

var (
	seedDays      int
	seedProducts  int
	seedSegments  int
	seedFacts     int
	seedSeed      uint64
	seedStartDate string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo data into the warehouse",
	Long: `Generate a demo dataset: a contiguous dim_date calendar, product and
customer segment dimensions, fact_sales rows, and matching operational
rows in app_schema. Existing warehouse data is replaced.

All generated rows pass through the same validation as loaded data.

Example:
  salesmirror seed --facts 50000
  salesmirror seed --seed 42 --start-date 2024-01-01    # reproducible`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().IntVar(&seedDays, "days", 0,
		"calendar length in days")
	seedCmd.Flags().IntVar(&seedProducts, "products", 0,
		"number of product dimension rows")
	seedCmd.Flags().IntVar(&seedSegments, "segments", 0,
		"number of customer segment rows")
	seedCmd.Flags().IntVar(&seedFacts, "facts", 0,
		"number of sales transactions")
	seedCmd.Flags().Uint64Var(&seedSeed, "seed", 0,
		"random seed for reproducible data (0 = time-based)")
	seedCmd.Flags().StringVar(&seedStartDate, "start-date", "",
		"first calendar day, YYYY-MM-DD (default: one year ago)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if seedDays > 0 {
		cfg.Seed.Days = seedDays
	}
	if seedProducts > 0 {
		cfg.Seed.Products = seedProducts
	}
	if seedSegments > 0 {
		cfg.Seed.Segments = seedSegments
	}
	if seedFacts > 0 {
		cfg.Seed.Facts = seedFacts
	}
	if seedSeed != 0 {
		cfg.Seed.Seed = seedSeed
	}
	if seedStartDate != "" {
		cfg.Seed.StartDate = seedStartDate
	}

	if err := cfg.ValidateSeed(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	w, err := etl.NewSeeder(pool, cfg.Seed).Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed demo data: %w", err)
	}

	counts := w.Counts()
	logging.Info().
		Int("dim_date", counts["dim_date"]).
		Int("dim_product", counts["dim_product"]).
		Int("dim_customer_segment", counts["dim_customer_segment"]).
		Int("fact_sales", counts["fact_sales"]).
		Msg("Seed complete")
	return nil
}
