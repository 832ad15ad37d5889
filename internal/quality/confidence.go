// Package quality blends extractor confidence with structural completeness
// and classifies each block as outdated, low quality or invalid.
package quality

import (
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// NonNullRatio is the share of the block type's expected fields that the
// block actually carries. Only raw extracted fields count; derived values
// and the evidence field do not. The result is clamped to [0,1].
func NonNullRatio(b *block.Block, spec rules.BlockSpec) float64 {
	expected := len(spec.ExpectedFields())
	n := 0
	for k, v := range b.Fields {
		if k == "evidence" {
			continue
		}
		if block.Present(v) {
			n++
		}
	}
	return clamp01(float64(n) / float64(max(1, expected)))
}

// Blend combines the extractor-reported confidence (nil when the extractor
// gave none) with the non-null ratio into one effective confidence.
func Blend(extracted *float64, ratio float64, p rules.ConfidencePolicy) float64 {
	var llm float64
	switch {
	case extracted != nil:
		llm = clamp01(*extracted)
	case ratio >= p.DefaultHighMinRatio:
		llm = p.DefaultHigh
	default:
		llm = p.DefaultLow
	}

	eff := p.RatioWeight*ratio + (1-p.RatioWeight)*llm
	switch {
	case ratio >= p.UpperFloorMinRatio:
		eff = max(eff, p.UpperFloor)
	case ratio >= p.LowerFloorMinRatio && eff < p.LowerFloor:
		eff = p.LowerFloor
	}
	return clamp01(eff)
}

func clamp01(f float64) float64 {
	return min(1, max(0, f))
}
