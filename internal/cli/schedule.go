package cli

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/altiplano-data/salesmirror/internal/logging"
	"github.com/altiplano-data/salesmirror/internal/schedule"
)

var (
	scheduleAt          string
	scheduleEvery       string
	scheduleHistoryFile string
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run or inspect the daily replication scheduler",
}

var scheduleRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler until interrupted",
	Long: `Run the replication job on a daily timer. Each run is recorded in the
execution history file and, when configured, reported by email. Stop
with Ctrl+C; an in-flight run still gets its timeout.

Example:
  salesmirror schedule run                # daily at the configured time
  salesmirror schedule run --every 15m    # interval mode for testing`,
	RunE: runScheduleRun,
}

var scheduleStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the scheduler status report",
	Long: `Print a JSON summary of the execution history: total runs, success
rate over the last ten, the most recent run, and the next scheduled
time.`,
	RunE: runScheduleStatus,
}

func init() {
	scheduleRunCmd.Flags().StringVar(&scheduleAt, "at", "",
		"daily run time (24h HH:MM)")
	scheduleRunCmd.Flags().StringVar(&scheduleEvery, "every", "",
		"interval mode, e.g. 15m or 4h (overrides --at)")
	scheduleCmd.PersistentFlags().StringVar(&scheduleHistoryFile, "history-file", "",
		"execution history JSON file")

	scheduleCmd.AddCommand(scheduleRunCmd)
	scheduleCmd.AddCommand(scheduleStatusCmd)
}

func applyScheduleFlags() {
	if scheduleAt != "" {
		cfg.Schedule.At = scheduleAt
	}
	if scheduleEvery != "" {
		cfg.Schedule.Every = scheduleEvery
	}
	if scheduleHistoryFile != "" {
		cfg.Schedule.HistoryFile = scheduleHistoryFile
	}
}

func runScheduleRun(cmd *cobra.Command, args []string) error {
	applyScheduleFlags()
	if err := cfg.ValidateSchedule(); err != nil {
		return err
	}

	history, err := schedule.LoadHistory(cfg.Schedule.HistoryFile)
	if err != nil {
		return err
	}

	var notifier *schedule.Notifier
	if cfg.Schedule.Notify.Enabled {
		n := cfg.Schedule.Notify
		notifier = schedule.NewNotifier(n.SMTPHost, n.SMTPPort, n.From, n.To, n.Username)
	}

	s := schedule.New(executeReplication, history, notifier, schedule.Options{
		At:      cfg.Schedule.At,
		Every:   scheduleInterval(),
		Timeout: time.Duration(cfg.Replicate.TimeoutMinutes) * time.Minute,
	})

	// Handle shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logging.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().
		Str("at", cfg.Schedule.At).
		Str("every", cfg.Schedule.Every).
		Str("history", cfg.Schedule.HistoryFile).
		Bool("notify", notifier != nil).
		Msg("Starting scheduler")
	return s.Run(ctx)
}

func runScheduleStatus(cmd *cobra.Command, args []string) error {
	applyScheduleFlags()

	history, err := schedule.LoadHistory(cfg.Schedule.HistoryFile)
	if err != nil {
		return err
	}

	// Best effort: a bad schedule config just leaves next_scheduled out.
	var next time.Time
	if n, err := schedule.NextRun(time.Now(), cfg.Schedule.At, scheduleInterval()); err == nil {
		next = n
	}

	data, err := json.MarshalIndent(history.Status(next), "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

// scheduleInterval parses the configured interval, zero when unset.
// Validation has already rejected malformed values on the run path.
func scheduleInterval() time.Duration {
	if cfg.Schedule.Every == "" {
		return 0
	}
	d, err := time.ParseDuration(cfg.Schedule.Every)
	if err != nil {
		return 0
	}
	return d
}
