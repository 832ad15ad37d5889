package cmd

import (
	"github.com/idlab-discover/instiscore/internal/pipeline"
	"github.com/idlab-discover/instiscore/internal/store"
	"github.com/idlab-discover/instiscore/internal/ui"
)

// scoreObserver forwards pipeline stage events to the progress display.
type scoreObserver struct {
	ui *ui.ScoreUI
}

func (o scoreObserver) StageStarted(batchID string, stage pipeline.Stage) {
	o.ui.StageStarted(batchID, string(stage))
}

func (o scoreObserver) StageDone(batchID string, stage pipeline.Stage, detail string) {
	o.ui.StageDone(batchID, string(stage), detail)
}

func stageNames() []string {
	names := make([]string, len(pipeline.Stages))
	for i, s := range pipeline.Stages {
		names[i] = string(s)
	}
	return names
}

// toBatchReport flattens a result into the report view.
func toBatchReport(res *pipeline.Result) ui.BatchReport {
	r := ui.BatchReport{
		BatchID:        res.BatchID,
		Mode:           string(res.Mode),
		NewUniversity:  res.NewUniversity,
		SourceDoc:      res.SourceDoc,
		Classification: res.Classification.String(),
		Sufficiency:    res.Sufficiency.Percentage,
		Band:           string(res.Sufficiency.Color),
		Present:        res.Sufficiency.PresentCount,
		Required:       res.Sufficiency.RequiredCount,
		Penalty:        res.Sufficiency.Penalty,
		MissingBlocks:  res.Sufficiency.MissingBlocks,
		Overall: ui.KPIRow{
			Name:  res.KPIs.Overall.Name,
			Value: res.KPIs.Overall.Value,
			Note:  res.KPIs.Overall.Breakdown.Note,
		},
		ApprovalType: res.Readiness.ApprovalType,
		Readiness:    res.Readiness.Score,
	}
	for _, k := range res.KPIs.KPIs {
		r.KPIs = append(r.KPIs, ui.KPIRow{Name: k.Name, Value: k.Value, Note: k.Breakdown.Note})
	}
	r.Years = res.Trends.Years
	names := res.KPIs.ByID()
	for _, t := range res.Trends.Trends {
		name := names[string(t.KPI)].Name
		if name == "" {
			name = string(t.KPI)
		}
		r.Trends = append(r.Trends, ui.TrendRow{Name: name, Points: t.DataPoints, Insight: t.Insight})
	}
	for _, f := range res.Compliance {
		r.Flags = append(r.Flags, ui.FlagRow{
			Concept:        f.Concept,
			Severity:       string(f.Severity),
			Title:          f.Title,
			Reason:         f.Reason,
			Recommendation: f.Recommendation,
		})
	}
	for _, b := range res.Blocks {
		row := ui.BlockRow{
			Type:           b.BlockType,
			Confidence:     b.Confidence,
			Representative: b.Representative,
			Outdated:       b.IsOutdated,
			LowQuality:     b.IsLowQuality,
			Invalid:        b.IsInvalid,
		}
		if b.Evidence != nil {
			row.Evidence, row.Page = b.Evidence.Snippet, b.Evidence.Page
		}
		r.Blocks = append(r.Blocks, row)
	}
	for _, d := range res.Readiness.Missing {
		r.MissingDocuments = append(r.MissingDocuments, d.Key)
	}
	return r
}

func toHistoryRows(batches []store.BatchSummary) []ui.HistoryRow {
	rows := make([]ui.HistoryRow, len(batches))
	for i, b := range batches {
		rows[i] = ui.HistoryRow{
			BatchID:     b.BatchID,
			Mode:        b.Mode,
			Category:    b.Category,
			Sufficiency: b.Sufficiency,
			Band:        b.SufficiencyColor,
			Overall:     b.Overall,
			Flags:       b.FlagCount,
			ScoredAt:    b.ScoredAt,
		}
	}
	return rows
}
