package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Replication outcomes recorded in etl_control.
const (
	StatusSuccess = "SUCCESS"
	StatusError   = "ERROR"
)

// ControlRow is one etl_control audit entry.
type ControlRow struct {
	ID               int
	TableName        string
	LastUpdate       time.Time
	RecordsProcessed int
	ExecutionTime    float64
	Status           string
	ErrorMessage     string
}

// RecordControl appends an audit row for one table replication.
func (m *Mirror) RecordControl(ctx context.Context, table string, records int, elapsed time.Duration, status, errMsg string) error {
	var msg any
	if errMsg != "" {
		msg = errMsg
	}
	_, err := m.db.ExecContext(ctx, `
        INSERT INTO etl_control (table_name, last_update, records_processed,
                                 execution_time_seconds, status, error_message)
        VALUES (?, ?, ?, ?, ?, ?)
    `, table, time.Now().UTC().Format(time.RFC3339), records, elapsed.Seconds(), status, msg)
	if err != nil {
		return fmt.Errorf("failed to record control row for %s: %w", table, err)
	}
	return nil
}

// ControlRows returns the most recent audit rows, newest first. limit <= 0
// returns everything.
func (m *Mirror) ControlRows(ctx context.Context, limit int) ([]ControlRow, error) {
	query := `
        SELECT id, table_name, last_update, records_processed,
               execution_time_seconds, status, error_message
        FROM etl_control ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to read etl_control: %w", err)
	}
	defer rows.Close()

	var out []ControlRow
	for rows.Next() {
		var r ControlRow
		var updated string
		var msg sql.NullString
		if err := rows.Scan(&r.ID, &r.TableName, &updated, &r.RecordsProcessed,
			&r.ExecutionTime, &r.Status, &msg); err != nil {
			return nil, fmt.Errorf("failed to scan etl_control: %w", err)
		}
		if r.LastUpdate, err = time.Parse(time.RFC3339, updated); err != nil {
			return nil, fmt.Errorf("bad timestamp %q in etl_control %d: %w", updated, r.ID, err)
		}
		r.ErrorMessage = msg.String
		out = append(out, r)
	}
	return out, rows.Err()
}
