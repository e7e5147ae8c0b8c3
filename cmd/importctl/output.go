package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, report reconcileReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tSTATUS\tQTY\tDESCRIPTION\tMATCHES")
	for _, row := range report.Rows {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			row.Row, row.Status, row.Quantity, truncate(row.Description, 48), describeMatches(row))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d rows: %d valid, %d rejected, %d with matches\n",
		report.TotalRows, report.ValidRows, report.RejectedRows, report.Matched)
	return err
}

func describeMatches(row reportRow) string {
	if row.RejectionReason != "" {
		return "rejected: " + row.RejectionReason
	}
	if len(row.Matches) == 0 {
		return "-"
	}
	parts := make([]string, len(row.Matches))
	for i, m := range row.Matches {
		label := m.Product
		if m.IdentifierCode != "" {
			label += " [" + m.IdentifierCode + "]"
		}
		parts[i] = fmt.Sprintf("%s %d%% %s", label, m.ConfidencePercent, m.MatchType)
	}
	return strings.Join(parts, "; ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
