// Package sufficiency measures how much of a mode's required block set a
// batch actually supplies, less penalties for damaged blocks.
package sufficiency

import (
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

type Color string

const (
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
)

// PenaltyBreakdown counts the flagged blocks behind the penalty.
type PenaltyBreakdown struct {
	Outdated   int `json:"outdated"`
	LowQuality int `json:"low_quality"`
	Invalid    int `json:"invalid"`
}

type Result struct {
	Percentage     float64          `json:"percentage"`
	BasePercentage float64          `json:"base_percentage"`
	Penalty        float64          `json:"penalty_points"`
	PresentCount   int              `json:"present_count"`
	RequiredCount  int              `json:"required_count"`
	MissingBlocks  []string         `json:"missing_blocks"`
	Breakdown      PenaltyBreakdown `json:"penalty_breakdown"`
	Color          Color            `json:"color"`
}

// Calculate scores the representative blocks (one per block type, see
// SelectRepresentatives) against the required set of mode.
//
//	percentage = max(0, P/R*100 - min(cap, O*w_o + L*w_l + I*w_i))
//
// Blocks whose type is not in the required set are ignored.
func Calculate(rs *rules.RuleSet, mode rules.Mode, newUniversity bool, reps map[string]*block.Block) Result {
	required := rs.Blocks(mode, newUniversity)
	r := Result{RequiredCount: len(required), MissingBlocks: []string{}}

	for _, spec := range required {
		b, ok := reps[spec.Type]
		if !ok || b.Empty() {
			r.MissingBlocks = append(r.MissingBlocks, spec.Type)
			continue
		}
		r.PresentCount++
		if b.Flags.IsOutdated {
			r.Breakdown.Outdated++
		}
		if b.Flags.IsLowQuality {
			r.Breakdown.LowQuality++
		}
		if b.Flags.IsInvalid {
			r.Breakdown.Invalid++
		}
	}

	r.compute(rs.Policy.Sufficiency)
	return r
}

// Score is the bare formula, exposed for callers that already hold the counts.
func Score(p rules.SufficiencyPolicy, present, required int, b PenaltyBreakdown) Result {
	r := Result{PresentCount: present, RequiredCount: required, MissingBlocks: []string{}, Breakdown: b}
	r.compute(p)
	return r
}

func (r *Result) compute(p rules.SufficiencyPolicy) {
	base := 0.0
	if r.RequiredCount > 0 {
		base = float64(r.PresentCount) / float64(r.RequiredCount) * 100
	}
	penalty := float64(r.Breakdown.Outdated)*p.OutdatedPenalty +
		float64(r.Breakdown.LowQuality)*p.LowQualityPenalty +
		float64(r.Breakdown.Invalid)*p.InvalidPenalty
	penalty = min(p.PenaltyCap, penalty)

	r.BasePercentage = normalize.Round2(base)
	r.Penalty = penalty
	r.Percentage = normalize.Round2(min(100, max(0, base-penalty)))
	r.Color = band(r.Percentage, p)
}

func band(pct float64, p rules.SufficiencyPolicy) Color {
	switch {
	case pct >= p.GreenAt:
		return ColorGreen
	case pct >= p.YellowAt:
		return ColorYellow
	}
	return ColorRed
}
