package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// resultSet is a rendered query result: ordered columns plus row values.
type resultSet struct {
	cols []string
	rows [][]any
}

func renderResults(w io.Writer, rs resultSet, format string) error {
	switch format {
	case "json":
		return renderJSON(w, rs)
	case "csv":
		return renderCSV(w, rs)
	case "", "table":
		return renderTable(w, rs)
	default:
		return fmt.Errorf("unknown format %q (expected table, json, or csv)", format)
	}
}

func renderTable(w io.Writer, rs resultSet) error {
	if len(rs.rows) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, len(rs.cols))
	for i, col := range rs.cols {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, r := range rs.rows {
		row := make(table.Row, len(rs.cols))
		for i := range rs.cols {
			row[i] = formatValue(r[i])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(rs.rows))
	return nil
}

func renderJSON(w io.Writer, rs resultSet) error {
	results := make([]map[string]any, 0, len(rs.rows))
	for _, r := range rs.rows {
		row := make(map[string]any, len(rs.cols))
		for i, col := range rs.cols {
			row[col] = r[i]
		}
		results = append(results, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, rs resultSet) error {
	_, _ = fmt.Fprintln(w, strings.Join(rs.cols, ","))
	for _, r := range rs.rows {
		values := make([]string, len(rs.cols))
		for i := range rs.cols {
			values[i] = escapeCSV(formatValue(r[i]))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

// money keeps two decimals in every output format.
func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
