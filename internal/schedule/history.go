package schedule

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Scheduler state for the status command.
const (
	StatusActive       = "ACTIVE"
	StatusNoExecutions = "NO_EXECUTIONS"
)

const maxHistoryEntries = 50

// Execution is one scheduled run, as persisted in the history file.
type Execution struct {
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds float64   `json:"duration_seconds"`
	Success         bool      `json:"success"`
	Error           string    `json:"error,omitempty"`
	ReportPath      string    `json:"report_path,omitempty"`
}

// History is the persisted run log, newest entry last, capped at
// maxHistoryEntries.
type History struct {
	path    string
	entries []Execution
}

// LoadHistory reads the history file. A missing file yields an empty
// history; runs get recorded from here on.
func LoadHistory(path string) (*History, error) {
	h := &History{path: path}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read execution history: %w", err)
	}
	if err := json.Unmarshal(data, &h.entries); err != nil {
		return nil, fmt.Errorf("failed to parse execution history %s: %w", path, err)
	}
	return h, nil
}

// Append records a run, dropping the oldest entries beyond the cap.
func (h *History) Append(e Execution) {
	h.entries = append(h.entries, e)
	if len(h.entries) > maxHistoryEntries {
		h.entries = h.entries[len(h.entries)-maxHistoryEntries:]
	}
}

// Save writes the history back to its file.
func (h *History) Save() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	data, err := json.MarshalIndent(h.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode execution history: %w", err)
	}
	if err := os.WriteFile(h.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write execution history: %w", err)
	}
	return nil
}

// Len returns the number of recorded runs.
func (h *History) Len() int {
	return len(h.entries)
}

// Last returns the most recent run.
func (h *History) Last() (Execution, bool) {
	if len(h.entries) == 0 {
		return Execution{}, false
	}
	return h.entries[len(h.entries)-1], true
}

// recentSuccess counts successes over the last up-to-10 runs.
func (h *History) recentSuccess() (successes, window int) {
	window = len(h.entries)
	if window > 10 {
		window = 10
	}
	for _, e := range h.entries[len(h.entries)-window:] {
		if e.Success {
			successes++
		}
	}
	return successes, window
}

// StatusReport is the summary printed by the status command.
type StatusReport struct {
	Status            string     `json:"status"`
	Message           string     `json:"message,omitempty"`
	TotalExecutions   int        `json:"total_executions,omitempty"`
	RecentSuccessRate string     `json:"recent_success_rate,omitempty"`
	LastExecution     *Execution `json:"last_execution,omitempty"`
	NextScheduled     string     `json:"next_scheduled,omitempty"`
}

// Status summarizes the history. next is the upcoming scheduled time;
// pass the zero time when no scheduler is configured.
func (h *History) Status(next time.Time) StatusReport {
	if len(h.entries) == 0 {
		return StatusReport{
			Status:  StatusNoExecutions,
			Message: "no replication runs recorded yet",
		}
	}

	successes, window := h.recentSuccess()
	last := h.entries[len(h.entries)-1]
	report := StatusReport{
		Status:            StatusActive,
		TotalExecutions:   len(h.entries),
		RecentSuccessRate: fmt.Sprintf("%d/%d", successes, window),
		LastExecution:     &last,
	}
	if !next.IsZero() {
		report.NextScheduled = next.Format("2006-01-02 15:04:05")
	}
	return report
}
