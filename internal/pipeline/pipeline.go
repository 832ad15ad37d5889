// Package pipeline runs a batch through every scoring stage in order:
// normalization, evidence, quality, then sufficiency, KPIs, compliance and
// approval readiness over the finished blocks.
package pipeline

import (
	"fmt"
	"time"

	"github.com/idlab-discover/instiscore/internal/aggregate"
	"github.com/idlab-discover/instiscore/internal/approval"
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/compliance"
	"github.com/idlab-discover/instiscore/internal/evidence"
	"github.com/idlab-discover/instiscore/internal/ingest"
	"github.com/idlab-discover/instiscore/internal/kpi"
	"github.com/idlab-discover/instiscore/internal/quality"
	"github.com/idlab-discover/instiscore/internal/rules"
	"github.com/idlab-discover/instiscore/internal/sufficiency"
	"github.com/idlab-discover/instiscore/internal/trend"
)

const StatusCompleted = "completed"

// BlockResult is a stored block plus whether it represents its type.
type BlockResult struct {
	block.Record
	Evidence       *block.Evidence `json:"evidence,omitempty"`
	Representative bool            `json:"representative"`
}

// Result is the full outcome of scoring one batch.
type Result struct {
	BatchID        string                  `json:"batch_id"`
	Status         string                  `json:"status"`
	Mode           rules.Mode              `json:"mode"`
	NewUniversity  bool                    `json:"new_university"`
	SourceDoc      string                  `json:"source_doc,omitempty"`
	Classification approval.Classification `json:"classification"`
	Blocks         []BlockResult           `json:"blocks"`
	DroppedKeys    []string                `json:"dropped_keys,omitempty"`
	Sufficiency    sufficiency.Result      `json:"sufficiency"`
	KPIs           kpi.Results             `json:"kpis"`
	Trends         trend.Report            `json:"yearwise"`
	Compliance     []compliance.Flag       `json:"compliance_flags"`
	Readiness      approval.Readiness      `json:"approval_readiness"`
	ScoredAt       time.Time               `json:"scored_at"`
}

// Engine holds the read-only components shared by every batch.
type Engine struct {
	rules      *rules.RuleSet
	quality    *quality.Classifier
	kpi        *kpi.Engine
	trends     *trend.Analyzer
	compliance *compliance.Checker
	observer   Observer
	now        func() time.Time
}

type Option func(*Engine)

// WithObserver reports stage progress to o.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithClock fixes the time used for the outdated check and ScoredAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(rs *rules.RuleSet, opts ...Option) (*Engine, error) {
	kpis, err := kpi.NewEngine(rs)
	if err != nil {
		return nil, fmt.Errorf("kpi registry: %w", err)
	}
	e := &Engine{
		rules:      rs,
		quality:    quality.NewClassifier(rs),
		kpi:        kpis,
		trends:     trend.NewAnalyzer(rs, kpis),
		compliance: compliance.NewChecker(rs),
		observer:   nopObserver{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run scores one batch. It never fails: missing data degrades to empty
// sufficiency, null KPIs and an empty flag list.
func (e *Engine) Run(b *ingest.Batch) *Result {
	now := e.now()
	classifier := *e.quality
	classifier.CurrentYear = now.Year()

	res := &Result{
		BatchID:        b.ID,
		Status:         StatusCompleted,
		Mode:           b.Mode,
		NewUniversity:  b.NewUniversity,
		SourceDoc:      b.SourceDoc,
		Classification: b.Classification,
		DroppedKeys:    b.Dropped,
		ScoredAt:       now.UTC(),
	}
	logf(b.ID, "scoring %d blocks in %s mode", len(b.Blocks), b.Mode)

	e.stage(b.ID, StageEnrich, func() string {
		failures := 0
		for _, blk := range b.Blocks {
			failures += len(block.Enrich(blk, e.rules))
		}
		return fmt.Sprintf("%d blocks, %d parse failures", len(b.Blocks), failures)
	})

	e.stage(b.ID, StageEvidence, func() string {
		found := 0
		for _, blk := range b.Blocks {
			if evidence.Attach(blk, e.spec(blk), b.Document).Found() {
				found++
			}
		}
		return fmt.Sprintf("%d/%d blocks with evidence", found, len(b.Blocks))
	})

	e.stage(b.ID, StageQuality, func() string {
		var flagged int
		for _, blk := range b.Blocks {
			if a := classifier.Apply(blk, e.spec(blk)); a.Flags != (block.Flags{}) {
				flagged++
			}
		}
		return fmt.Sprintf("%d flagged", flagged)
	})

	reps := sufficiency.SelectRepresentatives(b.Blocks)
	e.stage(b.ID, StageSufficiency, func() string {
		res.Sufficiency = sufficiency.Calculate(e.rules, b.Mode, b.NewUniversity, reps)
		sufficiency.LogResult(res.Sufficiency)
		return fmt.Sprintf("%.2f%% (%s)", res.Sufficiency.Percentage, res.Sufficiency.Color)
	})

	e.stage(b.ID, StageKPI, func() string {
		res.KPIs = e.kpi.Evaluate(b.Mode, aggregate.Merge(b.Blocks))
		res.Trends = e.trends.Analyze(b.ID, b.Mode, b.Blocks)
		years := fmt.Sprintf("%d years of history", len(res.Trends.Years))
		if v := res.KPIs.Overall.Value; v != nil {
			return fmt.Sprintf("overall %.2f, %s", *v, years)
		}
		return "overall not computable, " + years
	})

	e.stage(b.ID, StageCompliance, func() string {
		res.Compliance = e.compliance.Check(b.Mode, b.Blocks)
		return fmt.Sprintf("%d flags", len(res.Compliance))
	})

	e.stage(b.ID, StageApproval, func() string {
		res.Readiness = approval.CheckReadiness(e.rules, b.Classification, b.Blocks)
		return fmt.Sprintf("%s %.2f%%", res.Readiness.ApprovalType, res.Readiness.Score)
	})

	res.Blocks = make([]BlockResult, 0, len(b.Blocks))
	for _, blk := range b.Blocks {
		res.Blocks = append(res.Blocks, BlockResult{
			Record:         blk.Record(),
			Evidence:       blk.Evidence,
			Representative: reps[blk.Type] == blk,
		})
	}
	logf(b.ID, "done: sufficiency %.2f%%, %d compliance flags", res.Sufficiency.Percentage, len(res.Compliance))
	return res
}

func (e *Engine) stage(batchID string, s Stage, fn func() string) {
	e.observer.StageStarted(batchID, s)
	detail := fn()
	logf(batchID, "%s: %s", s, detail)
	e.observer.StageDone(batchID, s, detail)
}

func (e *Engine) spec(b *block.Block) rules.BlockSpec {
	if spec, ok := e.rules.Block(b.Type); ok {
		return spec
	}
	return rules.BlockSpec{Type: b.Type}
}
