package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/altiplano-data/salesmirror/internal/datagen"
	"github.com/altiplano-data/salesmirror/internal/db"
	"github.com/altiplano-data/salesmirror/internal/etl"
	"github.com/altiplano-data/salesmirror/internal/logging"
	"github.com/altiplano-data/salesmirror/internal/mirror"
	"github.com/altiplano-data/salesmirror/internal/schema"
)

var statusLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show mirror and pipeline status",
	Long: `Show the state of the replication pipeline: the mirror file and its
size, recent etl_control audit rows, the latest run report, and the
source database metadata when reachable.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().IntVar(&statusLimit, "limit", 8,
		"number of audit rows to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if err := printMirrorStatus(cmd, statusLimit); err != nil {
		return err
	}

	if report, path, err := etl.LatestReport(cfg.Replicate.ReportsDir); err != nil {
		logging.Warn().Err(err).Msg("Could not read latest report")
	} else if report != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Latest report: %s\n", path)
		fmt.Fprintf(out, "  %s  tables %d/%d ok  records %d  %.2fs\n",
			report.Timestamp.Format("2006-01-02 15:04:05"),
			report.SuccessfulTables, report.TotalTables,
			report.TotalRecordsProcessed, report.TotalExecutionTime)
	}

	// Source metadata is informative only; status still works offline.
	if cfg.Connection != "" {
		printSourceMetadata(cmd)
	}
	return nil
}

func printMirrorStatus(cmd *cobra.Command, limit int) error {
	out := cmd.OutOrStdout()
	path := cfg.Replicate.MirrorPath

	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintf(out, "Mirror: %s (not created yet)\n", path)
		return nil
	}

	ctx := context.Background()
	m, err := mirror.Open(ctx, path)
	if err != nil {
		return err
	}
	defer m.Close()

	size, err := m.FileSize()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Mirror: %s (%s)\n", path, datagen.FormatSize(size))

	counts, err := m.Counts(ctx)
	if err != nil {
		return err
	}
	rs := resultSet{cols: []string{"table", "rows"}}
	for _, t := range schema.BITables {
		rs.rows = append(rs.rows, []any{t, counts[t]})
	}
	if err := renderTable(out, rs); err != nil {
		return err
	}

	control, err := m.ControlRows(ctx, limit)
	if err != nil {
		return err
	}
	if len(control) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Recent replications:")
	crs := resultSet{cols: []string{"table", "last_update", "records", "seconds", "status", "error"}}
	for _, c := range control {
		var errVal any
		if c.ErrorMessage != "" {
			errVal = c.ErrorMessage
		}
		crs.rows = append(crs.rows, []any{
			c.TableName, c.LastUpdate.Format("2006-01-02 15:04:05"),
			c.RecordsProcessed, fmt.Sprintf("%.2f", c.ExecutionTime),
			c.Status, errVal,
		})
	}
	return renderTable(out, crs)
}

func printSourceMetadata(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		logging.Warn().Err(err).Msg("Source database unreachable")
		return
	}
	defer pool.Close()

	meta, err := db.GetAllMetadata(ctx, pool)
	if err != nil || len(meta) == 0 {
		logging.Debug().Err(err).Msg("No source metadata")
		return
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Source metadata:")
	for _, k := range keys {
		fmt.Fprintf(out, "  %s: %s\n", k, meta[k])
	}
}
