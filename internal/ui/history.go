package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// HistoryRow is one stored batch in the history listing.
type HistoryRow struct {
	BatchID     string
	Mode        string
	Category    string
	Sufficiency float64
	Band        string
	Overall     *float64
	Flags       int
	ScoredAt    time.Time
}

// PrintHistory prints stored batches newest first as an aligned table.
func PrintHistory(w io.Writer, rows []HistoryRow) {
	if len(rows) == 0 {
		fmt.Fprintln(w, FormatStatus("info", "no scored batches stored yet"))
		return
	}

	idWidth := len("BATCH")
	for _, r := range rows {
		idWidth = max(idWidth, len(r.BatchID))
	}

	fmt.Fprintln(w, SectionHeader.Render(fmt.Sprintf("%-*s  %-5s  %-8s  %11s  %7s  %5s  %s",
		idWidth, "BATCH", "MODE", "CATEGORY", "SUFFICIENCY", "OVERALL", "FLAGS", "SCORED")))
	for _, r := range rows {
		overall := Muted.Render(fmt.Sprintf("%7s", "n/a"))
		if r.Overall != nil {
			overall = ScoreStyle(*r.Overall).Render(fmt.Sprintf("%7.2f", *r.Overall))
		}
		flags := Success.Render(fmt.Sprintf("%5d", r.Flags))
		if r.Flags > 0 {
			flags = Warning.Render(fmt.Sprintf("%5d", r.Flags))
		}
		fmt.Fprintf(w, "%-*s  %-5s  %-8s  %s  %s  %s  %s\n",
			idWidth, r.BatchID,
			strings.ToUpper(r.Mode),
			r.Category,
			BandStyle(r.Band).Render(fmt.Sprintf("%10.2f%%", r.Sufficiency)),
			overall,
			flags,
			Dim.Render(r.ScoredAt.Local().Format("2006-01-02 15:04")),
		)
	}
}
