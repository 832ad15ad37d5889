// Package compare puts stored batch results side by side: a head-to-head
// comparison with overall and per-KPI winners, and a weighted Top-N
// ranking.
package compare

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/kpi"
	"github.com/idlab-discover/instiscore/internal/pipeline"
	"github.com/idlab-discover/instiscore/internal/rules"
	"github.com/idlab-discover/instiscore/internal/store"
)

// Reasons a batch is left out of a comparison or ranking.
const (
	ReasonNotFound     = "batch_not_found"
	ReasonNoBlocks     = "no_extracted_blocks"
	ReasonNoKPIs       = "no_valid_kpis"
	ReasonInsufficient = "insufficient_kpi_data"
)

// Source loads a stored batch result. *store.DB satisfies it.
type Source interface {
	LoadResult(batchID string) (*pipeline.Result, error)
}

type Skipped struct {
	BatchID string `json:"batch_id"`
	Reason  string `json:"reason"`
}

// Institution is one batch as it enters a comparison. KPIs holds only
// measured (positive) values.
type Institution struct {
	BatchID         string              `json:"batch_id"`
	Name            string              `json:"institution_name"`
	AcademicYear    string              `json:"academic_year,omitempty"`
	Mode            rules.Mode          `json:"mode"`
	KPIs            map[kpi.ID]*float64 `json:"kpis"`
	Sufficiency     float64             `json:"sufficiency_percent"`
	ComplianceCount int                 `json:"compliance_count"`
	Overall         float64             `json:"overall_score"`
	Strengths       []string            `json:"strengths"`
	Weaknesses      []string            `json:"weaknesses"`
}

// CategoryWinner is the best batch for one KPI. TiedWith lists other batch
// IDs with the same value.
type CategoryWinner struct {
	KPI      kpi.ID   `json:"kpi_key"`
	Name     string   `json:"kpi_name"`
	BatchID  string   `json:"winner_batch_id"`
	Label    string   `json:"winner_label"`
	Value    float64  `json:"winner_value"`
	Tie      bool     `json:"is_tie"`
	TiedWith []string `json:"tied_with"`
}

// Comparison is the outcome of Compare. Institutions are sorted by overall
// score, best first. Winner is empty unless Valid.
type Comparison struct {
	Institutions    []Institution    `json:"institutions"`
	Skipped         []Skipped        `json:"skipped_batches"`
	Winner          string           `json:"winner_batch_id,omitempty"`
	WinnerName      string           `json:"winner_name,omitempty"`
	CategoryWinners []CategoryWinner `json:"category_winners"`
	Notes           []string         `json:"notes"`
	Valid           bool             `json:"valid_for_comparison"`
	Message         string           `json:"validation_message,omitempty"`
}

// Comparer compares and ranks results read from a Source.
type Comparer struct {
	src    Source
	policy rules.RankingPolicy
	kpis   catalogue
}

func New(rs *rules.RuleSet, src Source) *Comparer {
	p := rs.Policy.Ranking
	if p.MinCompare < 2 {
		p.MinCompare = 2
	}
	if p.MaxCompare < p.MinCompare {
		p.MaxCompare = 10
	}
	if p.DefaultTopN <= 0 {
		p.DefaultTopN = 2
	}
	if p.MaxHighlight <= 0 {
		p.MaxHighlight = 3
	}
	return &Comparer{src: src, policy: p, kpis: newCatalogue(rs)}
}

// Compare loads every batch in ids and compares the usable ones. A batch
// is usable when it is stored, completed, has blocks and at least one
// measured KPI. The winner is decided by overall score, then placement
// index, then sufficiency, then the fewest compliance flags.
func (c *Comparer) Compare(ids []string) (*Comparison, error) {
	ids = uniqueIDs(ids)
	if len(ids) < c.policy.MinCompare {
		return nil, apperr.Userf("provide at least %d batch ids to compare", c.policy.MinCompare)
	}
	if len(ids) > c.policy.MaxCompare {
		return nil, apperr.Userf("at most %d batches can be compared, got %d", c.policy.MaxCompare, len(ids))
	}

	out := &Comparison{
		Institutions:    []Institution{},
		Skipped:         []Skipped{},
		CategoryWinners: []CategoryWinner{},
		Notes:           []string{},
	}
	for _, id := range ids {
		res, reason, err := c.load(id)
		if err != nil {
			return nil, err
		}
		if reason == "" && len(res.Blocks) == 0 {
			reason = ReasonNoBlocks
		}
		var inst Institution
		if reason == "" {
			inst = c.institution(res)
			if len(inst.KPIs) == 0 {
				reason = ReasonNoKPIs
			}
		}
		if reason != "" {
			logf(id, "skipped: %s", reason)
			out.Skipped = append(out.Skipped, Skipped{BatchID: id, Reason: reason})
			continue
		}
		out.Institutions = append(out.Institutions, inst)
	}

	if len(out.Institutions) < c.policy.MinCompare {
		out.Message = fmt.Sprintf("Only %d valid institution(s); at least %d are needed. %d batch(es) were skipped.",
			len(out.Institutions), c.policy.MinCompare, len(out.Skipped))
		return out, nil
	}
	out.Valid = true

	sort.SliceStable(out.Institutions, func(i, j int) bool {
		return out.Institutions[i].Overall > out.Institutions[j].Overall
	})
	w := winner(out.Institutions)
	out.Winner, out.WinnerName = w.BatchID, w.Name
	out.CategoryWinners = c.categoryWinners(out.Institutions)

	out.Notes = append(out.Notes, fmt.Sprintf("%s leads with an overall score of %.1f", w.Name, w.Overall))
	if w.ComplianceCount == 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("%s has no compliance issues", w.Name))
	}
	if n := len(out.Skipped); n > 0 {
		out.Notes = append(out.Notes, fmt.Sprintf("%d batch(es) excluded from comparison", n))
	}
	logf(w.BatchID, "wins comparison of %d batches", len(out.Institutions))
	return out, nil
}

// load returns the result for id, or a skip reason when it cannot be used.
// Storage failures other than a missing batch are returned as errors.
func (c *Comparer) load(id string) (*pipeline.Result, string, error) {
	res, err := c.src.LoadResult(id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ReasonNotFound, nil
	}
	if err != nil {
		return nil, "", err
	}
	if res.Status != pipeline.StatusCompleted {
		return nil, "status_" + res.Status, nil
	}
	return res, "", nil
}

func (c *Comparer) institution(res *pipeline.Result) Institution {
	vals := c.kpis.values(res.KPIs)
	inst := Institution{
		BatchID:         res.BatchID,
		Name:            institutionName(res),
		AcademicYear:    academicYear(res),
		Mode:            res.Mode,
		KPIs:            vals,
		Sufficiency:     res.Sufficiency.Percentage,
		ComplianceCount: len(res.Compliance),
	}
	if v := vals[kpi.OverallScore]; v != nil {
		inst.Overall = *v
	} else if len(vals) > 0 {
		var sum float64
		for _, v := range vals {
			sum += *v
		}
		inst.Overall = sum / float64(len(vals))
	}
	inst.Strengths, inst.Weaknesses = c.kpis.highlights(vals, c.policy)
	return inst
}

// winner picks the best institution by overall, placement, sufficiency and
// then fewest compliance flags. insts must not be empty.
func winner(insts []Institution) Institution {
	best := insts[0]
	for _, in := range insts[1:] {
		if beats(in, best) {
			best = in
		}
	}
	return best
}

func beats(a, b Institution) bool {
	if a.Overall != b.Overall {
		return a.Overall > b.Overall
	}
	pa, pb := valueOr0(a.KPIs[kpi.PlacementIndex]), valueOr0(b.KPIs[kpi.PlacementIndex])
	if pa != pb {
		return pa > pb
	}
	if a.Sufficiency != b.Sufficiency {
		return a.Sufficiency > b.Sufficiency
	}
	return a.ComplianceCount < b.ComplianceCount
}

func (c *Comparer) categoryWinners(insts []Institution) []CategoryWinner {
	out := []CategoryWinner{}
	for _, id := range c.kpis.ids {
		var cw *CategoryWinner
		for _, in := range insts {
			v := in.KPIs[id]
			if v == nil {
				continue
			}
			switch {
			case cw == nil || *v > cw.Value:
				cw = &CategoryWinner{KPI: id, Name: c.kpis.name(id), BatchID: in.BatchID, Label: in.Name, Value: *v, TiedWith: []string{}}
			case *v == cw.Value:
				cw.TiedWith = append(cw.TiedWith, in.BatchID)
			}
		}
		if cw != nil {
			cw.Tie = len(cw.TiedWith) > 0
			out = append(out, *cw)
		}
	}
	return out
}

// Block fields that may carry the institution's name, best first.
var nameKeys = []string{"institution_name", "name", "institute_name", "college_name"}

// institutionName returns the first name longer than three characters
// found in the blocks, else a label built from the batch ID.
func institutionName(res *pipeline.Result) string {
	for _, b := range res.Blocks {
		for _, k := range nameKeys {
			if s, ok := b.Data[k].(string); ok && len(strings.TrimSpace(s)) > 3 {
				return strings.TrimSpace(s)
			}
		}
	}
	id := res.BatchID
	if len(id) > 6 {
		id = id[len(id)-6:]
	}
	return "Institution " + id
}

func academicYear(res *pipeline.Result) string {
	for _, b := range res.Blocks {
		if s, ok := b.Data["academic_year"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func uniqueIDs(ids []string) []string {
	seen := map[string]bool{}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func valueOr0(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
