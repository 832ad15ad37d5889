package sufficiency

import "github.com/idlab-discover/instiscore/internal/block"

// SelectRepresentatives picks one block per type from all candidates of a
// batch: the valid candidate with the highest extraction confidence, or
// the highest-confidence invalid one when every candidate is invalid.
// Ties keep the earlier candidate. Empty candidates are never picked over
// non-empty ones.
func SelectRepresentatives(blocks []*block.Block) map[string]*block.Block {
	out := make(map[string]*block.Block)
	for _, b := range blocks {
		if b == nil {
			continue
		}
		cur, ok := out[b.Type]
		if !ok || better(b, cur) {
			out[b.Type] = b
		}
	}
	return out
}

func better(cand, cur *block.Block) bool {
	if cand.Empty() != cur.Empty() {
		return !cand.Empty()
	}
	if cand.Flags.IsInvalid != cur.Flags.IsInvalid {
		return !cand.Flags.IsInvalid
	}
	return rank(cand) > rank(cur)
}

// rank is the extraction confidence, or the blended confidence when the
// extractor reported none.
func rank(b *block.Block) float64 {
	if b.ExtractionConfidence != nil {
		return *b.ExtractionConfidence
	}
	return b.Confidence
}
