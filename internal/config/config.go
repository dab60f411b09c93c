//-------------------------------------------------------------------------
//
// salesmirror
//
// Portions copyright (c) 2025 - 2026, Altiplano Data SpA
// This software is released under The MIT License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for salesmirror.
// Configuration is loaded from config files and CLI flags; flags take
// precedence over config file values. Secrets never live here: the SMTP
// password and AWS credentials come from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for salesmirror.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// LogFile, when set, receives a JSON copy of the log stream.
	LogFile string `mapstructure:"log_file"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Replicate holds configuration for the replicate subcommand.
	Replicate ReplicateConfig `mapstructure:"replicate"`

	// Schedule holds configuration for the schedule subcommand.
	Schedule ScheduleConfig `mapstructure:"schedule"`
}

// SeedConfig holds configuration for demo data generation.
type SeedConfig struct {
	// Days is the length of the generated calendar.
	Days int `mapstructure:"days"`

	// Products is the number of product dimension rows.
	Products int `mapstructure:"products"`

	// Segments is the number of customer segment rows.
	Segments int `mapstructure:"segments"`

	// Facts is the number of sales transactions.
	Facts int `mapstructure:"facts"`

	// Seed fixes the random source for reproducible datasets (0 = time-based).
	Seed uint64 `mapstructure:"seed"`

	// StartDate is the first calendar day (YYYY-MM-DD). Empty means one
	// year before today.
	StartDate string `mapstructure:"start_date"`
}

// LoadConfig holds configuration for CSV loading.
type LoadConfig struct {
	// DataDir is the directory holding the dimension and fact CSV files.
	DataDir string `mapstructure:"data_dir"`
}

// ReplicateConfig holds configuration for warehouse replication.
type ReplicateConfig struct {
	// MirrorPath is the SQLite mirror database file.
	MirrorPath string `mapstructure:"mirror_path"`

	// ReportsDir is where run reports are written.
	ReportsDir string `mapstructure:"reports_dir"`

	// TimeoutMinutes bounds a single replication run.
	TimeoutMinutes int `mapstructure:"timeout_minutes"`

	// Upload pushes the mirror and report to S3 after a successful run.
	Upload UploadConfig `mapstructure:"upload"`
}

// UploadConfig holds S3 upload settings.
type UploadConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Region  string `mapstructure:"region"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
}

// ScheduleConfig holds configuration for the replication scheduler.
type ScheduleConfig struct {
	// At is the daily run time in 24h HH:MM form.
	At string `mapstructure:"at"`

	// Every, when set, switches to interval mode (e.g. "4h") and At is
	// ignored.
	Every string `mapstructure:"every"`

	// HistoryFile is the JSON execution history backing the status report.
	HistoryFile string `mapstructure:"history_file"`

	// Notify holds email notification settings.
	Notify NotifyConfig `mapstructure:"notify"`
}

// NotifyConfig holds SMTP notification settings. The password is read from
// the SALESMIRROR_SMTP_PASSWORD environment variable, never from a file.
type NotifyConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	SMTPHost string   `mapstructure:"smtp_host"`
	SMTPPort int      `mapstructure:"smtp_port"`
	From     string   `mapstructure:"from"`
	To       []string `mapstructure:"to"`
	Username string   `mapstructure:"username"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Seed: SeedConfig{
			Days:     365,
			Products: 40,
			Segments: 12,
			Facts:    5000,
		},
		Load: LoadConfig{
			DataDir: "./data",
		},
		Replicate: ReplicateConfig{
			MirrorPath:     "./cloud_mirror/data_warehouse.db",
			ReportsDir:     "./reports",
			TimeoutMinutes: 60,
		},
		Schedule: ScheduleConfig{
			At:          "02:00",
			HistoryFile: "./logs/execution_history.json",
			Notify: NotifyConfig{
				SMTPPort: 587,
			},
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./salesmirror.yaml
// 3. ~/.config/salesmirror/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Set config name and type
	v.SetConfigName("salesmirror")
	v.SetConfigType("yaml")

	// Add config paths
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "salesmirror"))
	}

	// Use specific config file if provided
	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Start with defaults
	cfg := DefaultConfig()

	// Unmarshal config file values
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Seed.Days < 1 {
		return fmt.Errorf("seed days must be at least 1")
	}
	if c.Seed.Products < 1 {
		return fmt.Errorf("seed products must be at least 1")
	}
	if c.Seed.Segments < 1 {
		return fmt.Errorf("seed segments must be at least 1")
	}
	if c.Seed.Facts < 1 {
		return fmt.Errorf("seed facts must be at least 1")
	}
	if c.Seed.StartDate != "" {
		if _, err := time.Parse("2006-01-02", c.Seed.StartDate); err != nil {
			return fmt.Errorf("seed start_date must be YYYY-MM-DD: %w", err)
		}
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Load.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	return nil
}

// ValidateReplicate checks configuration required for the replicate command.
func (c *Config) ValidateReplicate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Replicate.MirrorPath == "" {
		return fmt.Errorf("mirror path is required")
	}
	if c.Replicate.TimeoutMinutes < 1 {
		return fmt.Errorf("timeout must be at least 1 minute")
	}
	if c.Replicate.Upload.Enabled && c.Replicate.Upload.Bucket == "" {
		return fmt.Errorf("upload bucket is required when upload is enabled")
	}
	return nil
}

// ValidateSchedule checks configuration required for the schedule command.
func (c *Config) ValidateSchedule() error {
	if err := c.ValidateReplicate(); err != nil {
		return err
	}
	if c.Schedule.Every != "" {
		d, err := time.ParseDuration(c.Schedule.Every)
		if err != nil {
			return fmt.Errorf("schedule interval is not a duration: %w", err)
		}
		if d < time.Minute {
			return fmt.Errorf("schedule interval must be at least 1 minute")
		}
	} else {
		if _, err := time.Parse("15:04", c.Schedule.At); err != nil {
			return fmt.Errorf("schedule time must be 24h HH:MM: %w", err)
		}
	}
	if c.Schedule.HistoryFile == "" {
		return fmt.Errorf("history file is required")
	}
	if c.Schedule.Notify.Enabled {
		if c.Schedule.Notify.SMTPHost == "" {
			return fmt.Errorf("smtp host is required when notifications are enabled")
		}
		if c.Schedule.Notify.From == "" {
			return fmt.Errorf("notification sender is required")
		}
		if len(c.Schedule.Notify.To) == 0 {
			return fmt.Errorf("at least one notification recipient is required")
		}
	}
	return nil
}
