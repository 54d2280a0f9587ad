// Package report turns conductor results into the benchmark's output
// surfaces: a flattened CSV for downstream analysis and a terminal
// summary table.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
)

// Row is one graded problem run.
type Row struct {
	ProblemID string
	RunID     string
	Fields    map[string]any
}

// Flatten lowers a stage-keyed result map into dotted columns: a nested
// map becomes "<stage>.<metric>" entries, scalars pass through as-is.
func Flatten(results map[string]any) map[string]any {
	flat := make(map[string]any, len(results))
	for key, v := range results {
		if nested, ok := v.(map[string]any); ok {
			for metric, mv := range nested {
				flat[key+"."+metric] = mv
			}
			continue
		}
		flat[key] = v
	}
	return flat
}

// WriteCSV writes all rows with a union header: problem_id and run_id
// first, then every field name seen across the rows in sorted order.
// Rows missing a column get an empty cell.
func WriteCSV(w io.Writer, rows []Row) error {
	seen := map[string]bool{}
	for _, r := range rows {
		for k := range r.Fields {
			seen[k] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for k := range seen {
		columns = append(columns, k)
	}
	sort.Strings(columns)

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"problem_id", "run_id"}, columns...)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{r.ProblemID, r.RunID}
		for _, col := range columns {
			v, ok := r.Fields[col]
			if !ok {
				record = append(record, "")
				continue
			}
			record = append(record, formatValue(v))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %s: %w", r.ProblemID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatValue(v any) string {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", x)
	case bool:
		return fmt.Sprintf("%t", x)
	default:
		return fmt.Sprint(x)
	}
}

// RenderSummary prints a per-problem verdict table.
func RenderSummary(w io.Writer, rows []Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Problem", "NO-OP", "Detection", "Localization", "Mitigation", "TTD (s)"})
	for _, r := range rows {
		t.AppendRow(table.Row{
			r.ProblemID,
			verdict(r.Fields, "NOOP Detection.success"),
			verdict(r.Fields, "Detection.success"),
			verdict(r.Fields, "Localization.success"),
			verdict(r.Fields, "Mitigation.success"),
			seconds(r.Fields, "TTD"),
		})
	}
	t.Render()
}

func verdict(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return "-"
	}
	if pass, ok := v.(bool); ok && pass {
		return "✅"
	}
	return "❌"
}

func seconds(fields map[string]any, key string) string {
	if v, ok := fields[key].(float64); ok {
		return fmt.Sprintf("%.2f", v)
	}
	return "-"
}
