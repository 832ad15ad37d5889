package ui

import (
	"fmt"
	"io"
	"strings"
)

// The report types below mirror the scoring result so that this package
// does not import the engine packages (they import ui for log colours).

// KPIRow is one KPI line. Value is nil when the KPI was not computable.
type KPIRow struct {
	Name  string
	Value *float64
	Note  string
}

// FlagRow is one compliance flag.
type FlagRow struct {
	Concept        string
	Severity       string
	Title          string
	Reason         string
	Recommendation string
}

// TrendRow is one KPI's movement across academic years.
type TrendRow struct {
	Name    string
	Points  int
	Insight string
}

// BlockRow summarises one stored block.
type BlockRow struct {
	Type           string
	Confidence     float64
	Representative bool
	Outdated       bool
	LowQuality     bool
	Invalid        bool
	Evidence       string
	Page           int
}

// BatchReport is everything the score command prints for one batch.
type BatchReport struct {
	BatchID        string
	Mode           string
	NewUniversity  bool
	SourceDoc      string
	Classification string

	Sufficiency   float64
	Band          string
	Present       int
	Required      int
	Penalty       float64
	MissingBlocks []string

	KPIs    []KPIRow
	Overall KPIRow

	// Years lists the academic years with scorable data, oldest first.
	Years  []int
	Trends []TrendRow

	Flags  []FlagRow
	Blocks []BlockRow

	ApprovalType     string
	Readiness        float64
	MissingDocuments []string
}

// ReportUI prints batch reports.
type ReportUI struct {
	writer  io.Writer
	quiet   bool
	verbose bool
}

// NewReportUI returns a printer writing to w. A quiet printer prints
// nothing; a verbose one adds the per-block table.
func NewReportUI(w io.Writer, quiet, verbose bool) *ReportUI {
	return &ReportUI{writer: w, quiet: quiet, verbose: verbose}
}

// PrintReport renders r as a boxed report.
func (u *ReportUI) PrintReport(r BatchReport) {
	if u.quiet {
		return
	}

	sections := []string{
		u.renderHeader(r),
		u.renderSufficiency(r),
		u.renderKPIs(r),
	}
	if len(r.Years) >= 2 {
		sections = append(sections, u.renderTrends(r))
	}
	sections = append(sections,
		u.renderFlags(r.Flags),
		u.renderReadiness(r),
	)
	if u.verbose && len(r.Blocks) > 0 {
		sections = append(sections, u.renderBlocks(r.Blocks))
	}

	box := SuccessBox
	switch {
	case hasSeverity(r.Flags, "high") || r.Band == "red":
		box = ErrorBox
	case len(r.Flags) > 0 || r.Band == "yellow":
		box = WarningBox
	}
	fmt.Fprintln(u.writer)
	fmt.Fprintln(u.writer, box.Render(strings.Join(sections, "\n\n")))
}

func (u *ReportUI) renderHeader(r BatchReport) string {
	var sb strings.Builder
	sb.WriteString(Title.Render("Batch " + r.BatchID))
	sb.WriteString("\n")
	mode := strings.ToUpper(r.Mode)
	if r.NewUniversity {
		mode += Dim.Render(" (new university)")
	}
	sb.WriteString(FormatKeyValue("Mode", mode))
	if r.Classification != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Classification", r.Classification))
	}
	if r.SourceDoc != "" {
		sb.WriteString("\n")
		sb.WriteString(FormatKeyValue("Source", Dim.Render(r.SourceDoc)))
	}
	return sb.String()
}

func (u *ReportUI) renderSufficiency(r BatchReport) string {
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Sufficiency"))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Score", ProgressBar(r.Sufficiency, 40)+" "+BandStyle(r.Band).Render(fmt.Sprintf("%.2f%%", r.Sufficiency))))
	sb.WriteString("\n")
	sb.WriteString(Dim.Render(fmt.Sprintf("(%d/%d required blocks present", r.Present, r.Required)))
	if r.Penalty > 0 {
		sb.WriteString(Dim.Render(fmt.Sprintf(", %.0f penalty points", r.Penalty)))
	}
	sb.WriteString(Dim.Render(")"))
	if len(r.MissingBlocks) > 0 {
		sb.WriteString("\n")
		sb.WriteString(Error.Render(fmt.Sprintf("▼ Missing blocks (%d)", len(r.MissingBlocks))))
		for _, m := range r.MissingBlocks {
			sb.WriteString("\n  " + GetCrossMark() + " " + m)
		}
	}
	return sb.String()
}

func (u *ReportUI) renderKPIs(r BatchReport) string {
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("KPIs"))
	width := len(r.Overall.Name)
	for _, k := range r.KPIs {
		width = max(width, len(k.Name))
	}
	for _, k := range append(append([]KPIRow{}, r.KPIs...), r.Overall) {
		sb.WriteString("\n")
		name := fmt.Sprintf("%-*s", width, k.Name)
		if k.Name == r.Overall.Name {
			name = Bold.Render(name)
		}
		sb.WriteString(name + "  " + formatKPIValue(k.Value))
		if k.Value == nil && k.Note != "" {
			sb.WriteString(" " + Dim.Render(k.Note))
		}
	}
	return sb.String()
}

func (u *ReportUI) renderTrends(r BatchReport) string {
	var sb strings.Builder
	years := make([]string, len(r.Years))
	for i, y := range r.Years {
		years[i] = fmt.Sprint(y)
	}
	sb.WriteString(SectionHeader.Render("Year-wise trends"))
	sb.WriteString("\n")
	sb.WriteString(Dim.Render("(" + strings.Join(years, ", ") + ")"))
	width := 0
	for _, t := range r.Trends {
		width = max(width, len(t.Name))
	}
	for _, t := range r.Trends {
		sb.WriteString("\n")
		line := fmt.Sprintf("%-*s  ", width, t.Name)
		if t.Points < 2 {
			sb.WriteString(line + Muted.Render(t.Insight))
			continue
		}
		style := Secondary
		switch {
		case strings.Contains(t.Insight, "growth"):
			style = Success
		case strings.Contains(t.Insight, "decline"):
			style = Warning
		}
		sb.WriteString(line + style.Render(t.Insight) + Dim.Render(fmt.Sprintf(" [%d years]", t.Points)))
	}
	return sb.String()
}

func formatKPIValue(v *float64) string {
	if v == nil {
		return Muted.Render("n/a")
	}
	return ScoreStyle(*v).Render(fmt.Sprintf("%6.2f", *v))
}

func (u *ReportUI) renderFlags(flags []FlagRow) string {
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render(fmt.Sprintf("Compliance (%d flags)", len(flags))))
	if len(flags) == 0 {
		sb.WriteString("\n" + GetCheckMark() + " " + Success.Render("no compliance gaps found"))
		return sb.String()
	}
	for _, f := range flags {
		sb.WriteString("\n")
		sb.WriteString(SeverityStyle(f.Severity).Render(fmt.Sprintf("[%s]", strings.ToUpper(f.Severity))))
		sb.WriteString(" " + Bold.Render(f.Title))
		sb.WriteString("\n    " + f.Reason)
		if f.Recommendation != "" {
			sb.WriteString("\n    " + Dim.Render("→ "+f.Recommendation))
		}
	}
	return sb.String()
}

func (u *ReportUI) renderReadiness(r BatchReport) string {
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Approval readiness"))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue(r.ApprovalType, ProgressBar(r.Readiness, 20)+" "+FormatPercent(r.Readiness)))
	for _, d := range r.MissingDocuments {
		sb.WriteString("\n  " + GetWarnMark() + " " + Dim.Render(d))
	}
	return sb.String()
}

func (u *ReportUI) renderBlocks(blocks []BlockRow) string {
	var sb strings.Builder
	sb.WriteString(SectionHeader.Render("Blocks"))
	for _, b := range blocks {
		sb.WriteString("\n")
		mark := GetBullet()
		if b.Representative {
			mark = Primary.Render("★")
		}
		sb.WriteString(fmt.Sprintf("%s %-28s %s", mark, b.Type, Dim.Render(fmt.Sprintf("conf %.2f", b.Confidence))))
		if tags := blockTags(b); tags != "" {
			sb.WriteString(" " + Warning.Render(tags))
		}
		if b.Evidence != "" {
			sb.WriteString("\n    " + Muted.Render(fmt.Sprintf("p.%d %q", b.Page, truncate(b.Evidence, 60))))
		}
	}
	return sb.String()
}

func blockTags(b BlockRow) string {
	var tags []string
	if b.Outdated {
		tags = append(tags, "outdated")
	}
	if b.LowQuality {
		tags = append(tags, "low-quality")
	}
	if b.Invalid {
		tags = append(tags, "invalid")
	}
	return strings.Join(tags, ",")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func hasSeverity(flags []FlagRow, severity string) bool {
	for _, f := range flags {
		if f.Severity == severity {
			return true
		}
	}
	return false
}

// PrintSimpleReport prints an uncoloured plain-text summary, one fact per
// line, for logs and non-terminal output.
func (u *ReportUI) PrintSimpleReport(r BatchReport) {
	fmt.Fprintf(u.writer, "Batch %s (%s)\n", r.BatchID, r.Mode)
	fmt.Fprintf(u.writer, "Sufficiency: %.2f%% %s (%d/%d)\n", r.Sufficiency, r.Band, r.Present, r.Required)
	if len(r.MissingBlocks) > 0 {
		fmt.Fprintf(u.writer, "Missing blocks: %s\n", strings.Join(r.MissingBlocks, ", "))
	}
	for _, k := range append(append([]KPIRow{}, r.KPIs...), r.Overall) {
		if k.Value == nil {
			fmt.Fprintf(u.writer, "%s: n/a\n", k.Name)
			continue
		}
		fmt.Fprintf(u.writer, "%s: %.2f\n", k.Name, *k.Value)
	}
	if len(r.Years) >= 2 {
		for _, t := range r.Trends {
			fmt.Fprintf(u.writer, "Trend %s: %s\n", t.Name, t.Insight)
		}
	}
	for _, f := range r.Flags {
		fmt.Fprintf(u.writer, "Flag [%s] %s: %s\n", f.Severity, f.Concept, f.Reason)
	}
	fmt.Fprintf(u.writer, "Readiness %s: %.2f%%\n", r.ApprovalType, r.Readiness)
	if len(r.MissingDocuments) > 0 {
		fmt.Fprintf(u.writer, "Missing documents: %s\n", strings.Join(r.MissingDocuments, ", "))
	}
}
