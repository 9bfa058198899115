package metrics

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WriteJSON writes the report as an indented JSON record.
func (r Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("metrics: encode json: %w", err)
	}
	return nil
}

// csvHeader is the flat tabular shape: one row per rule, run-level fields
// repeated on every row so each row stands alone.
var csvHeader = []string{
	"timestamp", "core_count", "file_count", "failed_count", "finding_count",
	"elapsed_ms", "total_ms", "normalized_ms", "files_per_second",
	"rule", "rule_file_count", "rule_match_count",
	"rule_total_ms", "rule_normalized_ms", "rule_avg_ms",
}

// WriteCSV writes the report as flat rows sharing the JSON export's fields.
// A report with no rule entries still writes one row with empty rule columns.
func (r Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("metrics: write csv header: %w", err)
	}

	runCols := []string{
		r.Timestamp.Format(time.RFC3339),
		strconv.Itoa(r.CoreCount),
		strconv.Itoa(r.FileCount),
		strconv.Itoa(r.FailedCount),
		strconv.Itoa(r.FindingCount),
		formatMs(r.ElapsedMs),
		formatMs(r.TotalMs),
		formatMs(r.NormalizedMs),
		formatMs(r.FilesPerSecond),
	}

	rows := r.Rules
	if len(rows) == 0 {
		rows = []RuleReport{{}}
	}
	for _, rr := range rows {
		row := append(append([]string{}, runCols...),
			rr.Rule,
			strconv.Itoa(rr.FileCount),
			strconv.Itoa(rr.MatchCount),
			formatMs(rr.TotalMs),
			formatMs(rr.NormalizedMs),
			formatMs(rr.AvgMs),
		)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("metrics: write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("metrics: flush csv: %w", err)
	}
	return nil
}

func formatMs(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// WriteSummary prints the human-readable run summary.
func (r Report) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "\n--- Analysis Metrics ---\n")
	fmt.Fprintf(w, "Files analyzed:   %d", r.FileCount)
	if r.FailedCount > 0 {
		fmt.Fprintf(w, " (%d failed)", r.FailedCount)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Findings:         %d\n", r.FindingCount)
	fmt.Fprintf(w, "Elapsed:          %.1fms\n", r.ElapsedMs)
	fmt.Fprintf(w, "Normalized CPU:   %.1fms (%d cores)\n", r.NormalizedMs, r.CoreCount)
	fmt.Fprintf(w, "Parse / semantic: %.1fms / %.1fms\n", r.ParseMs, r.SemanticMs)
	fmt.Fprintf(w, "Files per second: %.2f\n", r.FilesPerSecond)
	if r.SlowestFile != "" {
		fmt.Fprintf(w, "Slowest file:     %s (%.1fms)\n", r.SlowestFile, r.SlowestMs)
	}
	if len(r.Rules) > 0 {
		fmt.Fprintf(w, "Rule cost (slowest first):\n")
		for _, rr := range r.Rules {
			fmt.Fprintf(w, "  %-24s %8.2fms in %d file(s), %d match(es)\n",
				rr.Rule, rr.TotalMs, rr.FileCount, rr.MatchCount)
		}
	}
}
