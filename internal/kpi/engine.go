package kpi

import (
	"fmt"
	"strings"

	"github.com/idlab-discover/instiscore/internal/aggregate"
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// ResolvedInput records which aggregate key satisfied a formula input.
type ResolvedInput struct {
	Input     string  `json:"input"`
	Field     string  `json:"field"`
	Value     float64 `json:"value"`
	BlockType string  `json:"block_type,omitempty"`
}

// Component is one scored part of a composite formula.
type Component struct {
	Name     string  `json:"name"`
	Actual   float64 `json:"actual"`
	Required float64 `json:"required"`
	Ratio    float64 `json:"ratio"`
	Weight   float64 `json:"weight,omitempty"`
	Points   float64 `json:"points,omitempty"`
}

// Breakdown explains a KPI value for audit.
type Breakdown struct {
	Inputs     []ResolvedInput `json:"inputs,omitempty"`
	Components []Component     `json:"components,omitempty"`
	Evidence   *block.Evidence `json:"evidence,omitempty"`
	Note       string          `json:"note,omitempty"`
}

// Result is one KPI score. Value is nil when the KPI could not be measured.
type Result struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Value     *float64  `json:"value"`
	Weight    float64   `json:"weight"`
	Breakdown Breakdown `json:"breakdown"`
}

// Results holds a mode's KPIs in rule order plus the overall score.
type Results struct {
	Mode    rules.Mode `json:"mode"`
	KPIs    []Result   `json:"kpis"`
	Overall Result     `json:"overall"`
}

// ByID returns the results keyed by KPI ID, overall_score included.
func (r Results) ByID() map[string]Result {
	out := make(map[string]Result, len(r.KPIs)+1)
	for _, k := range r.KPIs {
		out[string(k.ID)] = k
	}
	out[string(OverallScore)] = r.Overall
	return out
}

// Get returns the result for id.
func (r Results) Get(id ID) (Result, bool) {
	if id == OverallScore {
		return r.Overall, true
	}
	for _, k := range r.KPIs {
		if k.ID == id {
			return k, true
		}
	}
	return Result{}, false
}

// overallFunc combines the full-precision KPI values of a mode.
type overallFunc func(values map[ID]*float64, specs []rules.KPISpec) (*float64, string)

var overalls = map[rules.Mode]struct {
	name string
	fn   overallFunc
}{
	rules.AICTE: {"AICTE Overall Score", aicteOverall},
	rules.UGC:   {"UGC Overall Score", ugcOverall},
}

// Engine evaluates the KPIs a rule set declares.
type Engine struct {
	rules    *rules.RuleSet
	formulas map[ID]Formula
}

// NewEngine binds the rule set's KPI declarations to registered formulas.
// A declared KPI without a formula, or a mode without an overall rule, is
// a construction error.
func NewEngine(rs *rules.RuleSet) (*Engine, error) {
	return NewEngineWithRegistry(rs, Registry())
}

// NewEngineWithRegistry is NewEngine with an explicit formula registry.
func NewEngineWithRegistry(rs *rules.RuleSet, registry map[ID]Formula) (*Engine, error) {
	if rs == nil {
		return nil, fmt.Errorf("kpi: nil rule set")
	}
	for mode := range rs.Modes {
		if _, ok := overalls[mode]; !ok {
			return nil, fmt.Errorf("kpi: no overall score rule for mode %s", mode)
		}
		for _, k := range rs.KPIs(mode) {
			f, ok := registry[ID(k.ID)]
			if !ok || f.Compute == nil {
				return nil, fmt.Errorf("kpi: mode %s declares %q but no formula is registered", mode, k.ID)
			}
		}
	}
	return &Engine{rules: rs, formulas: registry}, nil
}

// Evaluate computes every KPI of mode over agg. It never fails: missing
// inputs produce nil values. Values are rounded to two decimals only
// after the overall score has been computed.
func (e *Engine) Evaluate(mode rules.Mode, agg *aggregate.Aggregate) Results {
	specs := e.rules.KPIs(mode)
	res := Results{Mode: mode, KPIs: make([]Result, 0, len(specs))}
	values := make(map[ID]*float64, len(specs))

	for _, spec := range specs {
		id := ID(spec.ID)
		f := e.formulas[id]
		r := Result{ID: id, Name: spec.Name, Weight: spec.Weight}
		in := newInputs(agg, f, &r.Breakdown)
		if v, ok := f.Compute(in, e.rules.Policy.KPI); ok {
			v = clampScore(v)
			r.Value = &v
		} else if r.Breakdown.Note == "" {
			r.Breakdown.Note = "required input missing: " + missingInputs(f, r.Breakdown)
		}
		values[id] = r.Value
		res.KPIs = append(res.KPIs, r)
		logf("%s = %s", id, format(r.Value))
	}

	ov := overalls[mode]
	res.Overall = Result{ID: OverallScore, Name: ov.name, Weight: 1}
	if ov.fn != nil {
		v, note := ov.fn(values, specs)
		if v != nil {
			c := clampScore(*v)
			v = &c
		}
		res.Overall.Value = v
		res.Overall.Breakdown.Note = note
	}

	for i := range res.KPIs {
		res.KPIs[i].Value = normalize.RoundPtr(res.KPIs[i].Value)
	}
	res.Overall.Value = normalize.RoundPtr(res.Overall.Value)
	logf("overall (%s) = %s", mode, format(res.Overall.Value))
	return res
}

// aicteOverall averages FSR, placement and lab compliance when FSR
// resolves; infrastructure replaces FSR otherwise.
func aicteOverall(values map[ID]*float64, _ []rules.KPISpec) (*float64, string) {
	ids := []ID{FSRScore, PlacementIndex, LabComplianceIndex}
	note := "mean of fsr_score, placement_index, lab_compliance_index"
	if values[FSRScore] == nil {
		ids = []ID{InfrastructureScore, PlacementIndex, LabComplianceIndex}
		note = "fsr_score missing: mean of infrastructure_score, placement_index, lab_compliance_index"
	}
	var sum float64
	n := 0
	for _, id := range ids {
		if v := values[id]; v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil, "no component KPI resolved"
	}
	mean := sum / float64(n)
	return &mean, note
}

// ugcOverall is the weighted sum of every UGC KPI; it resolves only when
// all of them do.
func ugcOverall(values map[ID]*float64, specs []rules.KPISpec) (*float64, string) {
	var sum float64
	for _, s := range specs {
		v := values[ID(s.ID)]
		if v == nil {
			return nil, s.ID + " missing"
		}
		sum += *v * s.Weight
	}
	if len(specs) == 0 {
		return nil, "no KPIs declared"
	}
	return &sum, "weighted sum of all KPIs"
}

// missingInputs names the unresolved required inputs, or every unresolved
// input when the formula declares none as required.
func missingInputs(f Formula, bd Breakdown) string {
	have := map[string]bool{}
	for _, r := range bd.Inputs {
		have[r.Input] = true
	}
	var required, all []string
	for _, in := range f.Inputs {
		if have[in.Name] {
			continue
		}
		all = append(all, in.Name)
		if in.Required {
			required = append(required, in.Name)
		}
	}
	if len(required) > 0 {
		return strings.Join(required, ", ")
	}
	return strings.Join(all, ", ")
}

func clampScore(v float64) float64 {
	return min(100, max(0, v))
}

func format(v *float64) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%.2f", *v)
}
