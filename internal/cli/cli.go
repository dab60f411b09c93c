//-------------------------------------------------------------------------
//
// salesmirror
//
// Portions copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for salesmirror.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/altiplano-data/salesmirror/internal/config"
	"github.com/altiplano-data/salesmirror/internal/logging"
	"github.com/altiplano-data/salesmirror/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string
	logFile    string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "salesmirror",
		Short: "Sales star schema warehouse with SQLite cloud mirror replication",
		Long: `salesmirror manages a sales star schema in PostgreSQL: it creates the
operational and BI schemas, loads the official CSV extracts or seeds
demo data, and replicates the warehouse into a SQLite mirror file for
offline analysis and cloud upload.

Every fact row is validated against the dimension tables before it is
written, and total_amount is always derived from price and quantity,
never accepted from input.

Typical flow:
  salesmirror init --connection "postgres://..."
  salesmirror load --data-dir ./data
  salesmirror replicate
  salesmirror query monthly-metrics`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./salesmirror.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"file receiving a JSON copy of the log stream")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(replicateCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(statusCmd)
}

func initConfig() error {
	// .env before config so SMTP and AWS variables are visible to
	// everything that runs after this point.
	if err := godotenv.Load(); err == nil {
		logging.Debug().Msg("Loaded .env file")
	}

	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.Connection = connection
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	// Reinitialize logger with config
	return logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		File:   cfg.LogFile,
	})
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
