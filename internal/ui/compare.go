package ui

import (
	"fmt"
	"io"
	"strings"
)

// CompareRow is one institution in a comparison or ranking. Rank is zero
// in a plain comparison.
type CompareRow struct {
	Rank        int
	BatchID     string
	Name        string
	Mode        string
	Score       float64
	Sufficiency float64
	Flags       int
	Strengths   []string
	Weaknesses  []string
}

// CategoryRow names the best institution for one KPI.
type CategoryRow struct {
	KPI      string
	Winner   string
	Value    float64
	TiedWith []string
}

// SkipRow is a batch left out, with the reason.
type SkipRow struct {
	BatchID string
	Reason  string
}

// ComparisonView is what the compare command prints.
type ComparisonView struct {
	Rows       []CompareRow
	Winner     string
	Categories []CategoryRow
	Skipped    []SkipRow
	Notes      []string
	Valid      bool
	Message    string
}

// RankingView is what the compare --rank command prints.
type RankingView struct {
	Label        string
	Weights      string
	TopN         int
	Rows         []CompareRow
	Insufficient []SkipRow
}

// PrintComparison renders a side-by-side comparison.
func PrintComparison(w io.Writer, v ComparisonView) {
	fmt.Fprintln(w)
	if !v.Valid {
		fmt.Fprintln(w, FormatStatus("warning", v.Message))
		printRows(w, v.Rows, false)
		printSkipped(w, "Skipped", v.Skipped)
		return
	}

	fmt.Fprintln(w, Title.Render("Comparison of "+fmt.Sprint(len(v.Rows))+" institutions"))
	printRows(w, v.Rows, false)

	if len(v.Categories) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, SectionHeader.Render("Category winners"))
		width := 0
		for _, c := range v.Categories {
			width = max(width, len(c.KPI))
		}
		for _, c := range v.Categories {
			line := fmt.Sprintf("  %-*s  %s %s", width, c.KPI, Bold.Render(c.Winner), ScoreStyle(c.Value).Render(fmt.Sprintf("(%.2f)", c.Value)))
			if len(c.TiedWith) > 0 {
				line += Dim.Render(" tied with " + strings.Join(c.TiedWith, ", "))
			}
			fmt.Fprintln(w, line)
		}
	}

	printSkipped(w, "Excluded", v.Skipped)
	if len(v.Notes) > 0 {
		fmt.Fprintln(w)
		for i, n := range v.Notes {
			if i == 0 {
				fmt.Fprintln(w, GetCheckMark()+" "+Bold.Render(n))
				continue
			}
			fmt.Fprintln(w, GetInfoMark()+" "+n)
		}
	}
}

// PrintRanking renders a Top-N ranking.
func PrintRanking(w io.Writer, v RankingView) {
	fmt.Fprintln(w)
	header := fmt.Sprintf("Top %d by %s", v.TopN, v.Label)
	fmt.Fprintln(w, Title.Render(header))
	if v.Weights != "" {
		fmt.Fprintln(w, Dim.Render("weights: "+v.Weights))
	}
	if len(v.Rows) == 0 {
		fmt.Fprintln(w, FormatStatus("warning", "no batch has the KPI data this ranking needs"))
	} else {
		printRows(w, v.Rows, true)
	}
	printSkipped(w, "Insufficient data", v.Insufficient)
}

func printRows(w io.Writer, rows []CompareRow, ranked bool) {
	if len(rows) == 0 {
		return
	}
	nameWidth := len("INSTITUTION")
	for _, r := range rows {
		nameWidth = max(nameWidth, len(r.Name))
	}
	scoreHead := "OVERALL"
	if ranked {
		scoreHead = "SCORE"
	}
	fmt.Fprintln(w, SectionHeader.Render(fmt.Sprintf("%-4s  %-*s  %-5s  %7s  %11s  %5s",
		"#", nameWidth, "INSTITUTION", "MODE", scoreHead, "SUFFICIENCY", "FLAGS")))
	for i, r := range rows {
		pos := i + 1
		if r.Rank > 0 {
			pos = r.Rank
		}
		suff := Muted.Render(fmt.Sprintf("%11s", "-"))
		if !ranked {
			suff = fmt.Sprintf("%10.2f%%", r.Sufficiency)
		}
		flags := Muted.Render(fmt.Sprintf("%5s", "-"))
		if !ranked {
			flags = Success.Render(fmt.Sprintf("%5d", r.Flags))
			if r.Flags > 0 {
				flags = Warning.Render(fmt.Sprintf("%5d", r.Flags))
			}
		}
		fmt.Fprintf(w, "%-4d  %-*s  %-5s  %s  %s  %s\n",
			pos, nameWidth, r.Name, strings.ToUpper(r.Mode),
			ScoreStyle(r.Score).Render(fmt.Sprintf("%7.2f", r.Score)), suff, flags)
		fmt.Fprintln(w, "      "+Dim.Render(r.BatchID))
		for _, s := range r.Strengths {
			fmt.Fprintln(w, "      "+Success.Render("+ "+s))
		}
		for _, s := range r.Weaknesses {
			fmt.Fprintln(w, "      "+Warning.Render("- "+s))
		}
	}
}

func printSkipped(w io.Writer, title string, rows []SkipRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, Warning.Render(fmt.Sprintf("%s (%d)", title, len(rows))))
	for _, s := range rows {
		fmt.Fprintf(w, "  %s %s %s\n", GetWarnMark(), s.BatchID, Dim.Render(strings.ReplaceAll(s.Reason, "_", " ")))
	}
}
