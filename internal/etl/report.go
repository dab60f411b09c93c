package etl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/altiplano-data/salesmirror/internal/mirror"
)

// TableResult records the outcome of replicating one table.
type TableResult struct {
	Table   string  `json:"table"`
	Records int     `json:"records"`
	Time    float64 `json:"time"`
	Status  string  `json:"status"`
	Error   string  `json:"error,omitempty"`
}

// Report summarizes one replication run. Field names match the historical
// report format, which downstream dashboards already parse.
type Report struct {
	Timestamp             time.Time     `json:"timestamp"`
	TotalTables           int           `json:"total_tables"`
	SuccessfulTables      int           `json:"successful_tables"`
	FailedTables          int           `json:"failed_tables"`
	TotalRecordsProcessed int           `json:"total_records_processed"`
	TotalExecutionTime    float64       `json:"total_execution_time"`
	TablesDetail          []TableResult `json:"tables_detail"`
}

// NewReport assembles a report from per-table results.
func NewReport(results []TableResult, elapsed time.Duration) *Report {
	r := &Report{
		Timestamp:          time.Now().UTC(),
		TotalTables:        len(results),
		TotalExecutionTime: elapsed.Seconds(),
		TablesDetail:       results,
	}
	for _, t := range results {
		if t.Status == mirror.StatusSuccess {
			r.SuccessfulTables++
			r.TotalRecordsProcessed += t.Records
		} else {
			r.FailedTables++
		}
	}
	return r
}

// Succeeded reports whether every table replicated cleanly.
func (r *Report) Succeeded() bool {
	return r.FailedTables == 0
}

// Write stores the report as etl_report_<timestamp>.json under dir,
// creating the directory if needed, and returns the file path.
func (r *Report) Write(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create reports directory: %w", err)
	}

	name := fmt.Sprintf("etl_report_%s.json", r.Timestamp.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}

// LatestReport loads the newest report in dir, or nil if there are none.
func LatestReport(dir string) (*Report, string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "etl_report_*.json"))
	if err != nil {
		return nil, "", err
	}
	if len(matches) == 0 {
		return nil, "", nil
	}
	// The timestamp layout sorts lexicographically.
	sort.Strings(matches)
	path := matches[len(matches)-1]

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read report %s: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, "", fmt.Errorf("failed to parse report %s: %w", path, err)
	}
	return &r, path, nil
}
