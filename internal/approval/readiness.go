package approval

import (
	"strings"

	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// Document is one checklist entry and, when present, where it was found.
type Document struct {
	Key         string          `json:"key"`
	Description string          `json:"description"`
	BlockType   string          `json:"block_type,omitempty"`
	Field       string          `json:"field,omitempty"`
	Evidence    *block.Evidence `json:"evidence,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// Readiness is the document checklist outcome for one approval type.
type Readiness struct {
	ApprovalType string     `json:"approval_type"`
	Present      []Document `json:"present_documents"`
	Missing      []Document `json:"missing_documents"`
	Score        float64    `json:"readiness_score"`
}

// CheckReadiness matches the checklist of the classification's approval
// type against the fields of blocks. A document is present when some block
// field named after one of its aliases carries a value.
func CheckReadiness(rs *rules.RuleSet, c Classification, blocks []*block.Block) Readiness {
	r := Readiness{ApprovalType: c.ApprovalType(), Present: []Document{}, Missing: []Document{}}
	docs := rs.Approval.Documents[r.ApprovalType]
	if len(docs) == 0 {
		logf("no document checklist for %s", r.ApprovalType)
		return r
	}

	for _, d := range docs {
		doc := Document{Key: d.Key, Description: d.Description}
		if b, field, ok := findAlias(d.Aliases, blocks); ok {
			doc.BlockType = b.Type
			doc.Field = field
			doc.Evidence = b.Evidence
			r.Present = append(r.Present, doc)
			continue
		}
		doc.Reason = "no extracted field matches " + strings.Join(d.Aliases, ", ")
		r.Missing = append(r.Missing, doc)
	}
	r.Score = normalize.Round2(float64(len(r.Present)) / float64(len(docs)) * 100)
	logf("%s readiness %.2f%% (%d/%d)", r.ApprovalType, r.Score, len(r.Present), len(docs))
	return r
}

func findAlias(aliases []string, blocks []*block.Block) (*block.Block, string, bool) {
	for _, alias := range aliases {
		alias = strings.ToLower(alias)
		for _, b := range blocks {
			if b == nil {
				continue
			}
			for _, f := range b.FieldNames() {
				if f == "evidence" || !strings.Contains(strings.ToLower(f), alias) {
					continue
				}
				if block.Present(b.Fields[f]) {
					return b, f, true
				}
			}
		}
	}
	return nil, "", false
}
