package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/altiplano-data/salesmirror/internal/db"
	"github.com/altiplano-data/salesmirror/internal/etl"
	"github.com/altiplano-data/salesmirror/internal/mirror"
	"github.com/altiplano-data/salesmirror/internal/schema"
)

var (
	replicateMirrorPath string
	replicateReportsDir string
	replicateTimeout    int
	replicateUpload     bool
)

var replicateCmd = &cobra.Command{
	Use:   "replicate",
	Short: "Replicate the warehouse into the SQLite mirror",
	Long: `Extract a consistent snapshot of bi_schema and fully refresh the
SQLite mirror file, one table at a time in dependency order. Row counts
and revenue totals are compared after the copy, a JSON run report is
written, and each table leaves an audit row in the mirror's etl_control
table.

Example:
  salesmirror replicate
  salesmirror replicate --mirror ./cloud_mirror/data_warehouse.db --upload`,
	RunE: runReplicate,
}

func init() {
	replicateCmd.Flags().StringVar(&replicateMirrorPath, "mirror", "",
		"SQLite mirror database file")
	replicateCmd.Flags().StringVar(&replicateReportsDir, "reports-dir", "",
		"directory for JSON run reports")
	replicateCmd.Flags().IntVar(&replicateTimeout, "timeout", 0,
		"replication timeout in minutes")
	replicateCmd.Flags().BoolVar(&replicateUpload, "upload", false,
		"upload the mirror and report to S3 after a successful run")
}

func runReplicate(cmd *cobra.Command, args []string) error {
	// Override config with CLI flags
	if replicateMirrorPath != "" {
		cfg.Replicate.MirrorPath = replicateMirrorPath
	}
	if replicateReportsDir != "" {
		cfg.Replicate.ReportsDir = replicateReportsDir
	}
	if replicateTimeout > 0 {
		cfg.Replicate.TimeoutMinutes = replicateTimeout
	}
	if replicateUpload {
		cfg.Replicate.Upload.Enabled = true
	}

	if err := cfg.ValidateReplicate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Replicate.TimeoutMinutes)*time.Minute)
	defer cancel()

	_, err := executeReplication(ctx)
	return err
}

// executeReplication wires one replication run. The schedule command uses
// it as its job, so both paths stay identical.
func executeReplication(ctx context.Context) (string, error) {
	conn, err := db.ConnectSingle(ctx, cfg.Connection, "replicate")
	if err != nil {
		return "", fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	// Check that the source was initialized with a compatible schema
	version, err := db.GetMetadataValueConn(ctx, conn, "schema_version")
	if err != nil {
		return "", fmt.Errorf("source database is not initialized; run 'salesmirror init' first")
	}
	if version != schema.Version {
		return "", fmt.Errorf(
			"source schema version %s does not match this build (%s); run 'salesmirror init --drop'",
			version, schema.Version)
	}

	m, err := mirror.Open(ctx, cfg.Replicate.MirrorPath)
	if err != nil {
		return "", err
	}
	defer m.Close()

	var uploader *etl.Uploader
	if cfg.Replicate.Upload.Enabled {
		uploader, err = etl.NewUploader(ctx,
			cfg.Replicate.Upload.Region,
			cfg.Replicate.Upload.Bucket,
			cfg.Replicate.Upload.Prefix)
		if err != nil {
			return "", err
		}
	}

	replicator := etl.NewReplicator(etl.NewExtractor(conn), m, cfg.Replicate.ReportsDir, uploader)
	_, reportPath, err := replicator.Run(ctx)
	return reportPath, err
}
