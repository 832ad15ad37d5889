package compare

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/kpi"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// Weights maps KPIs to their share of a ranking score.
type Weights map[kpi.ID]float64

// Ranked is one institution in a ranking. Rank starts at 1.
type Ranked struct {
	Rank       int                 `json:"rank"`
	BatchID    string              `json:"batch_id"`
	Name       string              `json:"name"`
	Mode       rules.Mode          `json:"mode"`
	Score      float64             `json:"ranking_score"`
	KPIs       map[kpi.ID]*float64 `json:"kpis"`
	Strengths  []string            `json:"strengths"`
	Weaknesses []string            `json:"weaknesses"`
}

type Ranking struct {
	Label        string    `json:"ranking_type"`
	TopN         int       `json:"top_n"`
	Institutions []Ranked  `json:"institutions"`
	Insufficient []Skipped `json:"insufficient_batches"`
}

// ParseWeights builds ranking weights. With no raw weights the ranking is
// by the single KPI named by, overall when by is empty. Raw weights map KPI
// names or aliases to numbers; negative weights count as zero and at least
// one must be positive.
func (c *Comparer) ParseWeights(by string, raw map[string]string) (Weights, string, error) {
	if len(raw) == 0 {
		if strings.TrimSpace(by) == "" {
			by = string(kpi.OverallScore)
		}
		id, err := c.kpis.resolve(by)
		if err != nil {
			return nil, "", err
		}
		return Weights{id: 1}, c.kpis.name(id), nil
	}

	w := Weights{}
	for k, v := range raw {
		id, err := c.kpis.resolve(k)
		if err != nil {
			return nil, "", err
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, "", apperr.Userf("weight for %s is not a number: %q", k, v)
		}
		w[id] = max(0, f)
	}
	if len(w.required()) == 0 {
		return nil, "", apperr.User("at least one KPI weight must be greater than zero")
	}
	return w, "Weighted KPI Mix", nil
}

// required lists the KPIs with a positive weight in a stable order.
func (w Weights) required() []kpi.ID {
	var ids []kpi.ID
	for id, v := range w {
		if v > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Rank scores every batch as the weighted sum of its KPI values and
// returns the best topN. A batch missing any positively weighted KPI is
// listed as insufficient. topN <= 0 uses the rule set's default.
func (c *Comparer) Rank(ids []string, weights Weights, label string, topN int) (*Ranking, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, apperr.User("provide at least one batch id to rank")
	}
	required := weights.required()
	if len(required) == 0 {
		return nil, apperr.User("at least one KPI weight must be greater than zero")
	}
	if topN <= 0 {
		topN = c.policy.DefaultTopN
	}

	out := &Ranking{Label: label, TopN: topN, Institutions: []Ranked{}, Insufficient: []Skipped{}}
	for _, id := range ids {
		res, reason, err := c.load(id)
		if err != nil {
			return nil, err
		}
		var r Ranked
		if reason == "" {
			vals := c.kpis.values(res.KPIs)
			var score float64
			for _, k := range required {
				v := vals[k]
				if v == nil {
					reason = ReasonInsufficient
					break
				}
				score += weights[k] * *v
			}
			if reason == "" && score == 0 {
				reason = ReasonInsufficient
			}
			r = Ranked{BatchID: id, Name: institutionName(res), Mode: res.Mode, Score: normalize.Round2(score), KPIs: vals}
			r.Strengths, r.Weaknesses = c.kpis.highlights(vals, c.policy)
		}
		if reason != "" {
			logf(id, "not ranked: %s", reason)
			out.Insufficient = append(out.Insufficient, Skipped{BatchID: id, Reason: reason})
			continue
		}
		out.Institutions = append(out.Institutions, r)
	}

	sort.SliceStable(out.Institutions, func(i, j int) bool {
		return out.Institutions[i].Score > out.Institutions[j].Score
	})
	if len(out.Institutions) > topN {
		out.Institutions = out.Institutions[:topN]
	}
	for i := range out.Institutions {
		out.Institutions[i].Rank = i + 1
	}
	logf("", "%s: ranked %d, %d insufficient", label, len(out.Institutions), len(out.Insufficient))
	return out, nil
}

// String renders weights as "id=w" pairs for logs and headers.
func (w Weights) String() string {
	parts := make([]string, 0, len(w))
	for _, id := range w.required() {
		parts = append(parts, fmt.Sprintf("%s=%g", id, w[id]))
	}
	return strings.Join(parts, ", ")
}
