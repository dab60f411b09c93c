//go:build integration
// +build integration

// Integration test for the full pipeline: schema creation, demo seed,
// replication into a SQLite mirror, and read-back verification.
// Run with: go test -tags=integration ./internal/etl/...
// Requires PostgreSQL to be available.
// Set SALESMIRROR_TEST_CONN environment variable to override connection string.

package etl_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/altiplano-data/salesmirror/internal/config"
	"github.com/altiplano-data/salesmirror/internal/db"
	"github.com/altiplano-data/salesmirror/internal/etl"
	"github.com/altiplano-data/salesmirror/internal/mirror"
	"github.com/altiplano-data/salesmirror/internal/schema"
	"github.com/altiplano-data/salesmirror/internal/testutil"
	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

func TestPipelineIntegration(t *testing.T) {
	baseConnStr := testutil.SkipIfNoPostgres(t)

	testConnStr := testutil.CreateTestDB(t, baseConnStr, "etl")
	dbName := testutil.GetDBNameFromConnStr(testConnStr)

	cleanup := testutil.NewTestCleanup(t, baseConnStr, dbName)
	t.Cleanup(cleanup.Cleanup)

	pool := testutil.ConnectTestDB(t, testConnStr)
	cleanup.SetPool(pool)

	ctx := context.Background()

	seedCfg := config.SeedConfig{
		Days:      30,
		Products:  5,
		Segments:  3,
		Facts:     200,
		Seed:      42,
		StartDate: "2024-01-01",
	}
	var source *warehouse.Warehouse

	t.Run("CreateSchemas", func(t *testing.T) {
		if err := schema.CreateAll(ctx, pool); err != nil {
			t.Fatalf("CreateAll failed: %v", err)
		}
		if err := schema.SeedConfiguraciones(ctx, pool); err != nil {
			t.Fatalf("SeedConfiguraciones failed: %v", err)
		}
		if err := db.SaveMetadata(ctx, pool, schema.Version); err != nil {
			t.Fatalf("SaveMetadata failed: %v", err)
		}

		got, err := db.GetMetadataValue(ctx, pool, "schema_version")
		if err != nil {
			t.Fatalf("GetMetadataValue failed: %v", err)
		}
		if got != schema.Version {
			t.Errorf("Expected schema_version %s, got %s", schema.Version, got)
		}
	})

	t.Run("Seed", func(t *testing.T) {
		w, err := etl.NewSeeder(pool, seedCfg).Run(ctx)
		if err != nil {
			t.Fatalf("Seed failed: %v", err)
		}
		source = w

		counts := w.Counts()
		if counts["fact_sales"] != seedCfg.Facts {
			t.Errorf("Expected %d facts, got %d", seedCfg.Facts, counts["fact_sales"])
		}

		// The database derives total_amount; spot-check one row agrees
		// with the warehouse derivation.
		f, ok := w.Fact("S1")
		if !ok {
			t.Fatal("Expected seeded fact S1")
		}
		var total float64
		err = pool.QueryRow(ctx,
			"SELECT total_amount FROM bi_schema.fact_sales WHERE sales_id = 'S1'").Scan(&total)
		if err != nil {
			t.Fatalf("Failed to read fact S1: %v", err)
		}
		if diff := total - f.TotalAmount(); diff > 0.01 || diff < -0.01 {
			t.Errorf("Expected total_amount %.2f for S1, got %.2f", f.TotalAmount(), total)
		}
	})

	mirrorPath := filepath.Join(t.TempDir(), "data_warehouse.db")
	reportsDir := t.TempDir()

	t.Run("Replicate", func(t *testing.T) {
		conn, err := db.ConnectSingle(ctx, testConnStr, "replicate")
		if err != nil {
			t.Fatalf("ConnectSingle failed: %v", err)
		}
		defer conn.Close(ctx)

		m, err := mirror.Open(ctx, mirrorPath)
		if err != nil {
			t.Fatalf("Failed to open mirror: %v", err)
		}
		defer m.Close()

		report, reportPath, err := etl.NewReplicator(
			etl.NewExtractor(conn), m, reportsDir, nil).Run(ctx)
		if err != nil {
			t.Fatalf("Replication failed: %v", err)
		}
		if !report.Succeeded() {
			t.Fatalf("Expected successful report, got %d failed tables", report.FailedTables)
		}
		if report.TotalTables != 4 {
			t.Errorf("Expected 4 tables in report, got %d", report.TotalTables)
		}
		if reportPath == "" {
			t.Error("Expected a report path")
		}

		counts, err := m.Counts(ctx)
		if err != nil {
			t.Fatalf("Failed to count mirror rows: %v", err)
		}
		for table, want := range source.Counts() {
			if counts[table] != want {
				t.Errorf("Expected %d rows in mirror %s, got %d", want, table, counts[table])
			}
		}

		control, err := m.ControlRows(ctx, 0)
		if err != nil {
			t.Fatalf("Failed to read control rows: %v", err)
		}
		if len(control) != 4 {
			t.Fatalf("Expected 4 etl_control rows, got %d", len(control))
		}
		for _, c := range control {
			if c.Status != mirror.StatusSuccess {
				t.Errorf("Expected SUCCESS status for %s, got %s", c.TableName, c.Status)
			}
		}
	})

	t.Run("MirrorRoundTrip", func(t *testing.T) {
		m, err := mirror.Open(ctx, mirrorPath)
		if err != nil {
			t.Fatalf("Failed to reopen mirror: %v", err)
		}
		defer m.Close()

		w, err := m.LoadWarehouse(ctx)
		if err != nil {
			t.Fatalf("Failed to load warehouse from mirror: %v", err)
		}

		wantMetrics, err := source.MonthlyMetrics()
		if err != nil {
			t.Fatalf("Failed to compute source metrics: %v", err)
		}
		gotMetrics, err := w.MonthlyMetrics()
		if err != nil {
			t.Fatalf("Failed to compute mirror metrics: %v", err)
		}
		if len(gotMetrics) != len(wantMetrics) {
			t.Fatalf("Expected %d monthly groups, got %d", len(wantMetrics), len(gotMetrics))
		}
		for i := range wantMetrics {
			if gotMetrics[i].TotalTransactions != wantMetrics[i].TotalTransactions {
				t.Errorf("Month %d/%d: expected %d transactions, got %d",
					wantMetrics[i].Year, wantMetrics[i].Month,
					wantMetrics[i].TotalTransactions, gotMetrics[i].TotalTransactions)
			}
		}
	})

	t.Run("ReplicateIsIdempotent", func(t *testing.T) {
		conn, err := db.ConnectSingle(ctx, testConnStr, "replicate")
		if err != nil {
			t.Fatalf("ConnectSingle failed: %v", err)
		}
		defer conn.Close(ctx)

		m, err := mirror.Open(ctx, mirrorPath)
		if err != nil {
			t.Fatalf("Failed to reopen mirror: %v", err)
		}
		defer m.Close()

		report, _, err := etl.NewReplicator(
			etl.NewExtractor(conn), m, reportsDir, nil).Run(ctx)
		if err != nil {
			t.Fatalf("Second replication failed: %v", err)
		}
		if !report.Succeeded() {
			t.Fatalf("Expected second run to succeed")
		}

		counts, err := m.Counts(ctx)
		if err != nil {
			t.Fatalf("Failed to count mirror rows: %v", err)
		}
		if counts["fact_sales"] != seedCfg.Facts {
			t.Errorf("Expected full refresh to keep %d facts, got %d",
				seedCfg.Facts, counts["fact_sales"])
		}
	})
}
