package compare

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/kpi"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// Short names accepted wherever a KPI is named on the command line.
var kpiAliases = map[string]kpi.ID{
	"fsr":             kpi.FSRScore,
	"infra":           kpi.InfrastructureScore,
	"infrastructure":  kpi.InfrastructureScore,
	"placement":       kpi.PlacementIndex,
	"lab":             kpi.LabComplianceIndex,
	"lab_compliance":  kpi.LabComplianceIndex,
	"research":        kpi.ResearchIndex,
	"governance":      kpi.GovernanceScore,
	"outcome":         kpi.StudentOutcomeIndex,
	"student_outcome": kpi.StudentOutcomeIndex,
	"overall":         kpi.OverallScore,
}

// catalogue is every KPI of every mode in rule order, overall last, with
// display names.
type catalogue struct {
	ids   []kpi.ID
	names map[kpi.ID]string
}

func newCatalogue(rs *rules.RuleSet) catalogue {
	c := catalogue{names: map[kpi.ID]string{}}
	for _, m := range []rules.Mode{rules.AICTE, rules.UGC} {
		for _, s := range rs.KPIs(m) {
			id := kpi.ID(s.ID)
			if _, dup := c.names[id]; dup {
				continue
			}
			c.ids = append(c.ids, id)
			c.names[id] = s.Name
		}
	}
	c.ids = append(c.ids, kpi.OverallScore)
	c.names[kpi.OverallScore] = "Overall Score"
	return c
}

func (c catalogue) name(id kpi.ID) string {
	if n, ok := c.names[id]; ok && n != "" {
		return n
	}
	return string(id)
}

// resolve maps a full ID or a short alias to a known KPI. Unknown names
// are a user error that suggests the closest known ones.
func (c catalogue) resolve(raw string) (kpi.ID, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	if _, ok := c.names[kpi.ID(key)]; ok {
		return kpi.ID(key), nil
	}
	if id, ok := kpiAliases[key]; ok {
		return id, nil
	}

	known := make([]string, 0, len(c.ids)+len(kpiAliases))
	for _, id := range c.ids {
		known = append(known, string(id))
	}
	for a := range kpiAliases {
		known = append(known, a)
	}
	sort.Strings(known)
	if m := fuzzy.Find(key, known); len(m) > 0 {
		return "", apperr.Userf("unknown KPI %q (did you mean %q?)", raw, m[0].Str)
	}
	return "", apperr.Userf("unknown KPI %q (known: %s)", raw, strings.Join(known, ", "))
}

// values returns the positive KPI values of a result, overall included.
// Zero means not measured.
func (c catalogue) values(r kpi.Results) map[kpi.ID]*float64 {
	out := make(map[kpi.ID]*float64, len(c.ids))
	for _, k := range append(append([]kpi.Result{}, r.KPIs...), r.Overall) {
		if k.Value != nil && *k.Value > 0 {
			v := *k.Value
			out[k.ID] = &v
		}
	}
	return out
}

// highlights lists up to max strengths (best first) and weaknesses (worst
// first) of one institution.
func (c catalogue) highlights(vals map[kpi.ID]*float64, p rules.RankingPolicy) (strengths, weaknesses []string) {
	type scored struct {
		id kpi.ID
		v  float64
	}
	var all []scored
	for _, id := range c.ids {
		if v := vals[id]; v != nil {
			all = append(all, scored{id, *v})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].v > all[j].v })

	strengths, weaknesses = []string{}, []string{}
	for i := 0; i < len(all) && i < p.MaxHighlight; i++ {
		s := all[i]
		switch {
		case s.v >= p.ExcellentAt:
			strengths = append(strengths, fmt.Sprintf("Excellent %s (%.1f)", c.name(s.id), s.v))
		case s.v >= p.GoodAt:
			strengths = append(strengths, fmt.Sprintf("Good %s (%.1f)", c.name(s.id), s.v))
		}
	}
	for i := len(all) - 1; i >= 0 && len(weaknesses) < p.MaxHighlight; i-- {
		if s := all[i]; s.v < p.WeakBelow {
			weaknesses = append(weaknesses, fmt.Sprintf("%s needs improvement (%.1f)", c.name(s.id), s.v))
		}
	}
	return strengths, weaknesses
}
