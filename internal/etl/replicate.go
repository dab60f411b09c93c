//-------------------------------------------------------------------------
//
// salesmirror
//
// Portions copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

package etl

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/altiplano-data/salesmirror/internal/logging"
	"github.com/altiplano-data/salesmirror/internal/mirror"
	"github.com/altiplano-data/salesmirror/internal/warehouse"
)

// Replicator copies the bi_schema star schema into the SQLite mirror:
// extract a consistent snapshot, full-refresh each table in dependency
// order, validate counts and revenue totals, write the run report and
// optionally push the artifacts to S3.
type Replicator struct {
	extractor  *Extractor
	mirror     *mirror.Mirror
	reportsDir string
	uploader   *Uploader
}

// NewReplicator wires a replication run. uploader may be nil when uploads
// are disabled.
func NewReplicator(extractor *Extractor, m *mirror.Mirror, reportsDir string, uploader *Uploader) *Replicator {
	return &Replicator{
		extractor:  extractor,
		mirror:     m,
		reportsDir: reportsDir,
		uploader:   uploader,
	}
}

// Run executes one replication. The report is written even when tables
// fail; the returned error then says how many. Per-table outcomes also
// land in the mirror's etl_control audit table.
func (r *Replicator) Run(ctx context.Context) (*Report, string, error) {
	start := time.Now()
	logging.Info().Msg("Starting replication")

	w, err := r.extractor.Extract(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("extract failed: %w", err)
	}

	// Dimensions before facts, same order the mirror's foreign keys need.
	results := []TableResult{
		r.replicateTable(ctx, "dim_date", func() (int, error) {
			return r.mirror.ReplaceDates(ctx, w.Dates())
		}),
		r.replicateTable(ctx, "dim_customer_segment", func() (int, error) {
			return r.mirror.ReplaceSegments(ctx, w.Segments())
		}),
		r.replicateTable(ctx, "dim_product", func() (int, error) {
			return r.mirror.ReplaceProducts(ctx, w.Products())
		}),
		r.replicateTable(ctx, "fact_sales", func() (int, error) {
			return r.mirror.ReplaceFacts(ctx, w.Facts())
		}),
	}

	report := NewReport(results, time.Since(start))
	path, werr := report.Write(r.reportsDir)
	if werr != nil {
		return report, "", werr
	}
	logging.Info().
		Str("report", path).
		Int("tables", report.TotalTables).
		Int("failed", report.FailedTables).
		Int("records", report.TotalRecordsProcessed).
		Float64("seconds", report.TotalExecutionTime).
		Msg("Replication finished")

	if !report.Succeeded() {
		return report, path, fmt.Errorf("replication completed with %d failed tables", report.FailedTables)
	}

	if err := r.validate(ctx, w); err != nil {
		return report, path, err
	}

	if r.uploader != nil {
		if err := r.uploadArtifacts(ctx, path); err != nil {
			return report, path, err
		}
	}

	return report, path, nil
}

func (r *Replicator) replicateTable(ctx context.Context, name string, replace func() (int, error)) TableResult {
	start := time.Now()
	n, err := replace()
	elapsed := time.Since(start)

	result := TableResult{
		Table:   name,
		Records: n,
		Time:    elapsed.Seconds(),
		Status:  mirror.StatusSuccess,
	}
	if err != nil {
		result.Records = 0
		result.Status = mirror.StatusError
		result.Error = err.Error()
		logging.Error().Err(err).Str("table", name).Msg("Table replication failed")
	} else {
		logging.Info().Str("table", name).Int("records", n).Msg("Table replicated")
	}

	// The audit row is best effort; losing it must not change the outcome.
	if cerr := r.mirror.RecordControl(ctx, name, result.Records, elapsed, result.Status, result.Error); cerr != nil {
		logging.Error().Err(cerr).Str("table", name).Msg("Failed to record audit row")
	}
	return result
}

// validate compares source and mirror row counts and revenue totals.
func (r *Replicator) validate(ctx context.Context, w *warehouse.Warehouse) error {
	sourceCounts := w.Counts()
	mirrorCounts, err := r.mirror.Counts(ctx)
	if err != nil {
		return err
	}
	for table, want := range sourceCounts {
		if mirrorCounts[table] != want {
			return fmt.Errorf("validation failed: %s has %d rows in mirror, %d in source",
				table, mirrorCounts[table], want)
		}
	}

	facts := w.Facts()
	var revenue float64
	for _, f := range facts {
		revenue += f.TotalAmount()
	}
	metrics, err := r.mirror.Metrics(ctx)
	if err != nil {
		return err
	}
	if metrics.Transactions != len(facts) {
		return fmt.Errorf("validation failed: mirror has %d transactions, source has %d",
			metrics.Transactions, len(facts))
	}
	if math.Abs(metrics.TotalRevenue-revenue) > 0.01 {
		return fmt.Errorf("validation failed: mirror revenue %.2f, source revenue %.2f",
			metrics.TotalRevenue, revenue)
	}

	logging.Info().
		Int("transactions", metrics.Transactions).
		Float64("revenue", metrics.TotalRevenue).
		Msg("Validation passed")
	return nil
}

func (r *Replicator) uploadArtifacts(ctx context.Context, reportPath string) error {
	for _, path := range []string{r.mirror.Path(), reportPath} {
		location, err := r.uploader.UploadFile(ctx, path)
		if err != nil {
			return fmt.Errorf("upload failed for %s: %w", path, err)
		}
		logging.Info().Str("file", path).Str("location", location).Msg("Uploaded artifact")
	}
	return nil
}
