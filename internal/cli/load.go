package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/altiplano-data/salesmirror/internal/db"
	"github.com/altiplano-data/salesmirror/internal/etl"
	"github.com/altiplano-data/salesmirror/internal/logging"
)

var loadDataDir string

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the official CSV extracts into the warehouse",
	Long: `Load DimDate.csv, DimProduct.csv, DimCustomerSegment.csv and
FactSales.csv from the data directory into bi_schema, replacing the
current contents.

Rows are validated in dependency order: a fact referencing a missing
dimension or carrying a non-positive measure aborts the load with the
offending file and line.

Example:
  salesmirror load --data-dir ./data`,
	RunE: runLoad,
}

func init() {
	loadCmd.Flags().StringVar(&loadDataDir, "data-dir", "",
		"directory containing the CSV extracts")
}

func runLoad(cmd *cobra.Command, args []string) error {
	if loadDataDir != "" {
		cfg.Load.DataDir = loadDataDir
	}
	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	logging.Info().Str("data_dir", cfg.Load.DataDir).Msg("Loading CSV extracts")
	w, err := etl.NewCSVLoader(cfg.Load.DataDir).Load()
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()

	if err := etl.NewPGLoader(pool).LoadWarehouse(ctx, w); err != nil {
		return err
	}

	counts := w.Counts()
	logging.Info().
		Int("dim_date", counts["dim_date"]).
		Int("dim_product", counts["dim_product"]).
		Int("dim_customer_segment", counts["dim_customer_segment"]).
		Int("fact_sales", counts["fact_sales"]).
		Msg("Load complete")
	return nil
}
