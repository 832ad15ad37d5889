package block

import (
	"strings"

	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// Area fields that can stand in for the built-up area, best first.
var areaSources = []string{"built_up_area_sqm", "built_up_area_raw", "built_up_area", "total_area", "campus_area", "building_area", "area"}

var (
	placedSources   = []string{"students_placed", "total_placements", "placed_students"}
	eligibleSources = []string{"eligible_students", "students_eligible"}
	yearSources     = []string{"last_updated_year", "academic_year"}
)

// Enrich derives canonical values from the raw fields of b. It only adds
// entries to b.Derived and never touches b.Fields, so running it twice is
// harmless. It returns the names of numeric fields whose raw value could
// not be parsed.
func Enrich(b *Block, rs *rules.RuleSet) []string {
	if b.Derived == nil {
		b.Derived = map[string]float64{}
	}
	var failures []string

	for _, name := range b.FieldNames() {
		if !rs.IsNumericField(name) {
			continue
		}
		raw := b.Fields[name]
		if !isScalar(raw) || !Present(raw) {
			continue
		}
		res := normalize.Parse(raw)
		if !res.OK {
			failures = append(failures, name)
			logf("%s.%s: cannot parse %v", b.Type, name, raw)
			continue
		}
		if strings.HasSuffix(name, "_num") {
			setOnce(b, name, res.Value)
			continue
		}
		setOnce(b, name+"_num", res.Value)
		if base, ok := strings.CutSuffix(name, "_raw"); ok {
			if _, hasBase := b.Fields[base]; !hasBase {
				setOnce(b, base+"_num", res.Value)
			}
		}
		if res.IsLPA {
			setOnce(b, name+"_inr_num", res.INR)
		}
	}

	deriveStudentTotal(b)
	deriveBuiltUpArea(b)
	derivePlacementRate(b)
	deriveParsedYear(b)
	return failures
}

func deriveStudentTotal(b *Block) {
	if _, ok := b.Number("total_students"); ok {
		return
	}
	ug, hasUG := b.Number("ug_enrollment")
	pg, hasPG := b.Number("pg_enrollment")
	if hasUG || hasPG {
		b.Derived["total_students_num"] = ug + pg
	}
}

func deriveBuiltUpArea(b *Block) {
	if _, ok := b.Derived["built_up_area_sqm_num"]; ok {
		return
	}
	for _, f := range areaSources {
		if v, ok := b.Derived[f+"_num"]; ok {
			b.Derived["built_up_area_sqm_num"] = v
			return
		}
	}
}

func derivePlacementRate(b *Block) {
	if _, ok := b.Derived["placement_rate_num"]; ok {
		return
	}
	placed, ok := firstNumber(b, placedSources)
	if !ok {
		return
	}
	eligible, ok := firstNumber(b, eligibleSources)
	if !ok || eligible <= 0 {
		return
	}
	b.Derived["placement_rate_num"] = placed / eligible * 100
}

func deriveParsedYear(b *Block) {
	if _, ok := b.Derived["parsed_year"]; ok {
		return
	}
	for _, f := range yearSources {
		if v, ok := b.Value(f); ok {
			if y, ok := normalize.ParseYear(v); ok {
				b.Derived["parsed_year"] = float64(y)
				return
			}
		}
	}
}

func firstNumber(b *Block, names []string) (float64, bool) {
	for _, n := range names {
		if v, ok := b.Number(n); ok {
			return v, true
		}
	}
	return 0, false
}

func setOnce(b *Block, key string, v float64) {
	if _, ok := b.Derived[key]; !ok {
		b.Derived[key] = v
	}
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, float64, int, int64:
		return true
	}
	return false
}
