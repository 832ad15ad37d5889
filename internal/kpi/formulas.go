package kpi

import (
	"math"

	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// studentCount resolves the student input, falling back to the sum of
// programme intakes when only a programme table was extracted.
func studentCount(in *Inputs) (float64, bool) {
	if v, ok := in.Get("students"); ok {
		return v, true
	}
	total := 0.0
	for _, p := range in.List("programs_approved") {
		prog, ok := p.(map[string]any)
		if !ok {
			continue
		}
		for _, k := range []string{"intake_2025_26", "intake", "students"} {
			if v, ok := normalize.Value(prog[k]); ok && v > 0 {
				total += v
				break
			}
		}
	}
	if total > 0 {
		in.Note("student count summed from programs_approved intake")
		return total, true
	}
	return 0, false
}

// fsrScore is a step function of faculty/students.
func fsrScore(in *Inputs, p rules.KPIPolicy) (float64, bool) {
	faculty, ok := in.Get("faculty")
	if !ok {
		return 0, false
	}
	students, ok := studentCount(in)
	if !ok {
		return 0, false
	}
	if faculty <= 0 || students <= 0 {
		in.Note("faculty or student count is zero")
		return 0, false
	}
	ratio := faculty / students
	in.Component(Component{Name: "fsr", Actual: ratio, Required: p.FSRFull, Ratio: ratio})
	switch {
	case ratio >= p.FSRFull:
		return 100, true
	case ratio >= p.FSRPartial:
		return p.FSRPartialScore, true
	}
	return 0, true
}

// infrastructureScore weighs five capped norm ratios. Only the student
// count is required; a missing component contributes zero.
func infrastructureScore(in *Inputs, p rules.KPIPolicy) (float64, bool) {
	students, ok := studentCount(in)
	if !ok || students <= 0 {
		return 0, false
	}

	parts := []struct {
		name     string
		input    string
		required float64
		weight   float64
	}{
		{"area", "area", students * p.AreaPerStudentSqm, 0.40},
		{"classrooms", "classrooms", math.Ceil(students / p.StudentsPerClassroom), 0.25},
		{"library", "library", students * p.LibrarySqmPerStudent, 0.15},
		{"digital", "digital", p.DigitalResourcesNorm, 0.10},
		{"hostel", "hostel", students * p.HostelShare, 0.10},
	}

	score := 0.0
	for _, part := range parts {
		actual, _ := in.Get(part.input)
		ratio := 0.0
		if part.required > 0 {
			ratio = min(1, max(0, actual/part.required))
		}
		points := ratio * part.weight * 100
		score += points
		in.Component(Component{Name: part.name, Actual: actual, Required: part.required, Ratio: ratio, Weight: part.weight, Points: points})
	}
	return score, true
}

// placementIndex uses the extracted placement rate, else placed/eligible.
func placementIndex(in *Inputs, _ rules.KPIPolicy) (float64, bool) {
	if rate, ok := in.Get("placement_rate"); ok {
		return min(100, rate), true
	}
	placed, ok := in.Get("placed")
	if !ok {
		return 0, false
	}
	eligible, ok := in.Get("eligible")
	if !ok || eligible <= 0 {
		return 0, false
	}
	rate := placed / eligible * 100
	in.Component(Component{Name: "placement_rate", Actual: placed, Required: eligible, Ratio: placed / eligible})
	return min(100, rate), true
}

// labComplianceIndex compares available labs with the required number,
// derived from the student count when not extracted.
func labComplianceIndex(in *Inputs, p rules.KPIPolicy) (float64, bool) {
	labs, ok := in.Get("labs")
	if !ok {
		return 0, false
	}
	required, ok := in.Get("required_labs")
	if !ok {
		required = p.MinLabs
		if students, ok := studentCount(in); ok && students > 0 {
			required = max(p.MinLabs, math.Floor(students/p.StudentsPerLab))
		}
	}
	if required <= 0 {
		return 0, false
	}
	in.Component(Component{Name: "labs", Actual: labs, Required: required, Ratio: labs / required})
	return min(100, labs/required*100), true
}

// researchIndex averages the capped publication, citation and project
// scores over the components that are present and positive.
func researchIndex(in *Inputs, p rules.KPIPolicy) (float64, bool) {
	parts := []struct {
		input  string
		norm   float64
		weight float64
	}{
		{"publications", p.PublicationsNorm, 0.5},
		{"citations", p.CitationsNorm, 0.3},
		{"projects", p.ProjectsNorm, 0.2},
	}
	var sum, weight float64
	for _, part := range parts {
		v, ok := in.Get(part.input)
		if !ok || v <= 0 || part.norm <= 0 {
			continue
		}
		s := min(100, v/part.norm*100)
		sum += s * part.weight
		weight += part.weight
		in.Component(Component{Name: part.input, Actual: v, Required: part.norm, Ratio: min(1, v/part.norm), Weight: part.weight, Points: s})
	}
	if weight == 0 {
		return 0, false
	}
	return sum / weight, true
}

// governanceScore is present committees over required committees. When
// no committee count was extracted, affirmative governance-body fields are
// counted instead.
func governanceScore(in *Inputs, p rules.KPIPolicy) (float64, bool) {
	present, ok := in.Get("committees")
	if !ok {
		n, seen := in.CountTruthy("governance_bodies")
		if !seen {
			return 0, false
		}
		present = float64(n)
		in.Note("committee count derived from governance body fields")
	}
	required, ok := in.Get("required_committees")
	if !ok {
		required = p.RequiredCommittees
	}
	if required <= 0 {
		return 0, false
	}
	in.Component(Component{Name: "committees", Actual: present, Required: required, Ratio: present / required})
	return min(100, present/required*100), true
}

func studentOutcomeIndex(in *Inputs, _ rules.KPIPolicy) (float64, bool) {
	rate, ok := in.Get("placement_rate")
	if !ok {
		return 0, false
	}
	return min(100, rate), true
}
