// Package kpi computes the named KPI scores of a batch from its aggregate.
//
// Every formula is registered under an ID together with the inputs it
// reads. A formula whose required input is missing yields a nil score,
// never zero: zero means "measured and zero", nil means "not measured".
package kpi

import (
	"github.com/idlab-discover/instiscore/internal/aggregate"
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// ID names a KPI. The set is closed: rule sets may only reference IDs that
// have a registered formula.
type ID string

const (
	FSRScore            ID = "fsr_score"
	InfrastructureScore ID = "infrastructure_score"
	PlacementIndex      ID = "placement_index"
	LabComplianceIndex  ID = "lab_compliance_index"
	ResearchIndex       ID = "research_index"
	GovernanceScore     ID = "governance_score"
	StudentOutcomeIndex ID = "student_outcome_index"
	OverallScore        ID = "overall_score"
)

// Input is one declared input of a formula: a logical name and the
// aggregate keys that can satisfy it, best first.
type Input struct {
	Name     string
	Aliases  []string
	Required bool
}

// Formula is a typed KPI computation with its input contract.
type Formula struct {
	ID      ID
	Inputs  []Input
	Compute func(in *Inputs, p rules.KPIPolicy) (float64, bool)
}

// Field aliases shared by several formulas.
var (
	facultyAliases   = []string{"faculty_count", "total_faculty", "faculty"}
	studentAliases   = []string{"student_count", "total_students", "total_intake", "admitted_students", "students"}
	areaAliases      = []string{"built_up_area_sqm", "built_up_area", "built_up_area_raw", "area", "total_area", "campus_area", "building_area"}
	classroomAliases = []string{"classrooms", "total_classrooms", "number_of_classrooms"}
	libraryAliases   = []string{"library_area_sqm", "library_area"}
	digitalAliases   = []string{"digital_library_resources", "digital_resources"}
	hostelAliases    = []string{"hostel_capacity"}
	rateAliases      = []string{"placement_rate", "placement_percentage"}
	placedAliases    = []string{"students_placed", "total_placements", "placed_students", "placement_count"}
	eligibleAliases  = append([]string{"eligible_students", "students_eligible"}, studentAliases...)
	labAliases       = []string{"total_labs", "lab_count", "labs", "laboratories", "number_of_labs"}
	outcomeAliases   = []string{"placement_percentage", "placement_rate"}
)

// Governance bodies counted when no committee count was extracted.
var governanceBodies = []string{"board_of_governors", "academic_council", "finance_committee", "iqac_established", "sc_st_committee"}

// Registry returns the built-in formulas keyed by ID.
func Registry() map[ID]Formula {
	formulas := []Formula{
		{
			ID: FSRScore,
			Inputs: []Input{
				{Name: "faculty", Aliases: facultyAliases, Required: true},
				{Name: "students", Aliases: studentAliases, Required: true},
			},
			Compute: fsrScore,
		},
		{
			ID: InfrastructureScore,
			Inputs: []Input{
				{Name: "students", Aliases: studentAliases, Required: true},
				{Name: "area", Aliases: areaAliases},
				{Name: "classrooms", Aliases: classroomAliases},
				{Name: "library", Aliases: libraryAliases},
				{Name: "digital", Aliases: digitalAliases},
				{Name: "hostel", Aliases: hostelAliases},
			},
			Compute: infrastructureScore,
		},
		{
			ID: PlacementIndex,
			Inputs: []Input{
				{Name: "placement_rate", Aliases: rateAliases},
				{Name: "placed", Aliases: placedAliases},
				{Name: "eligible", Aliases: eligibleAliases},
			},
			Compute: placementIndex,
		},
		{
			ID: LabComplianceIndex,
			Inputs: []Input{
				{Name: "labs", Aliases: labAliases, Required: true},
				{Name: "required_labs", Aliases: []string{"required_labs"}},
				{Name: "students", Aliases: studentAliases},
			},
			Compute: labComplianceIndex,
		},
		{
			ID: ResearchIndex,
			Inputs: []Input{
				{Name: "publications", Aliases: []string{"publication_count", "publications"}},
				{Name: "citations", Aliases: []string{"citation_count", "citations"}},
				{Name: "projects", Aliases: []string{"funded_projects", "projects"}},
			},
			Compute: researchIndex,
		},
		{
			ID: GovernanceScore,
			Inputs: []Input{
				{Name: "committees", Aliases: []string{"committee_count", "present_committees"}},
				{Name: "required_committees", Aliases: []string{"required_committees"}},
				{Name: "governance_bodies", Aliases: governanceBodies},
			},
			Compute: governanceScore,
		},
		{
			ID: StudentOutcomeIndex,
			Inputs: []Input{
				{Name: "placement_rate", Aliases: outcomeAliases, Required: true},
			},
			Compute: studentOutcomeIndex,
		},
	}
	out := make(map[ID]Formula, len(formulas))
	for _, f := range formulas {
		out[f.ID] = f
	}
	return out
}

// Inputs resolves a formula's declared inputs against an aggregate and
// records how each one was satisfied.
type Inputs struct {
	agg      *aggregate.Aggregate
	contract map[string]Input
	bd       *Breakdown
}

func newInputs(agg *aggregate.Aggregate, f Formula, bd *Breakdown) *Inputs {
	in := &Inputs{agg: agg, contract: make(map[string]Input, len(f.Inputs)), bd: bd}
	for _, i := range f.Inputs {
		in.contract[i.Name] = i
	}
	return in
}

// Get resolves the named input through its aliases. Reading an input the
// formula did not declare always fails.
func (in *Inputs) Get(name string) (float64, bool) {
	decl, ok := in.contract[name]
	if !ok {
		logf("formula read undeclared input %q", name)
		return 0, false
	}
	for _, alias := range decl.Aliases {
		v, src, ok := in.agg.Number(alias)
		if !ok {
			continue
		}
		in.record(name, alias, v, src)
		return v, true
	}
	return 0, false
}

// CountTruthy counts the aliases of the named input that hold an
// affirmative value, and reports whether any of them was present at all.
func (in *Inputs) CountTruthy(name string) (count int, seen bool) {
	decl, ok := in.contract[name]
	if !ok {
		logf("formula read undeclared input %q", name)
		return 0, false
	}
	for _, field := range decl.Aliases {
		if v, src, ok := in.agg.Value(field); ok {
			seen = true
			if block.Truthy(v) {
				count++
				in.record(name, field, 1, src)
			}
			continue
		}
		if v, src, ok := in.agg.Number(field); ok {
			seen = true
			if v != 0 {
				count++
				in.record(name, field, v, src)
			}
		}
	}
	return count, seen
}

// List returns a non-numeric list value, for inputs such as programme tables.
func (in *Inputs) List(field string) []any {
	v, _, ok := in.agg.Value(field)
	if !ok {
		return nil
	}
	l, _ := v.([]any)
	return l
}

// Component adds a scored component to the breakdown.
func (in *Inputs) Component(c Component) {
	in.bd.Components = append(in.bd.Components, c)
}

// Note attaches a short explanation to the breakdown.
func (in *Inputs) Note(s string) {
	if in.bd.Note == "" {
		in.bd.Note = s
	}
}

func (in *Inputs) record(input, field string, v float64, src *block.Block) {
	r := ResolvedInput{Input: input, Field: field, Value: v}
	if src != nil {
		r.BlockType = src.Type
		if in.bd.Evidence == nil && src.Evidence != nil {
			ev := *src.Evidence
			in.bd.Evidence = &ev
		}
	}
	in.bd.Inputs = append(in.bd.Inputs, r)
}
