// Package normalize converts noisy extracted values (currency, LPA salaries,
// lakh/crore amounts, areas in assorted units, percentages, counts with
// trailing words) into canonical numbers: INR, square meters and plain counts.
//
// A value that cannot be read is reported as not OK rather than zero, so
// callers can keep "absent" apart from "measured as zero".
package normalize

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Unit names the canonical unit of a parsed value.
type Unit string

const (
	UnitNone    Unit = ""
	UnitPercent Unit = "percent"
	UnitLPA     Unit = "lpa"
	UnitINR     Unit = "inr"
	UnitSqm     Unit = "sqm"
	UnitCount   Unit = "count"
)

// Conversion factors to canonical units.
const (
	LPAToINR     = 100000.0
	Lakh         = 100000.0
	Crore        = 10000000.0
	SqftToSqm    = 0.092903
	AcreToSqm    = 4046.86
	HectareToSqm = 10000.0
)

// Result is a parsed value plus the side channels some callers need.
// Value is always in the canonical unit; for LPA salaries Value stays in
// LPA and the rupee amount is carried in INR.
type Result struct {
	Value  float64
	OK     bool
	Unit   Unit
	Rule   string
	IsLPA  bool
	INR    float64
	HasINR bool
}

const num = `(\d[\d,]*(?:\.\d+)?|\.\d+)`

type rule struct {
	name  string
	re    *regexp.Regexp
	apply func(v float64) Result
}

// Rules run in priority order; the first match wins.
var ruleTable = []rule{
	{"percent", regexp.MustCompile(num + `\s*%`), func(v float64) Result {
		return Result{Value: v, Unit: UnitPercent}
	}},
	{"lpa", regexp.MustCompile(`(?i)` + num + `\s*(?:lpa\b|l\.p\.a\b\.?)`), func(v float64) Result {
		return Result{Value: v, Unit: UnitLPA, IsLPA: true, INR: scale(v, LPAToINR), HasINR: true}
	}},
	{"lakh", regexp.MustCompile(`(?i)` + num + `\s*(?:lakhs?|lacs?)\b`), func(v float64) Result {
		return Result{Value: scale(v, Lakh), Unit: UnitINR, INR: scale(v, Lakh), HasINR: true}
	}},
	{"crore", regexp.MustCompile(`(?i)` + num + `\s*(?:crores?|cr)\b`), func(v float64) Result {
		return Result{Value: scale(v, Crore), Unit: UnitINR, INR: scale(v, Crore), HasINR: true}
	}},
	{"currency", regexp.MustCompile(`(?i)(?:₹|\brs\.?|\binr)\s*` + num), func(v float64) Result {
		return Result{Value: v, Unit: UnitINR, INR: v, HasINR: true}
	}},
	{"sqft", regexp.MustCompile(`(?i)` + num + `\s*(?:sq\.?\s*f(?:ee|oo)?t\b\.?|sqft\b|square\s+f(?:ee|oo)t\b|ft2\b|ft²)`), func(v float64) Result {
		return Result{Value: scale(v, SqftToSqm), Unit: UnitSqm}
	}},
	{"acres", regexp.MustCompile(`(?i)` + num + `\s*(?:acres?|ac)\b`), func(v float64) Result {
		return Result{Value: scale(v, AcreToSqm), Unit: UnitSqm}
	}},
	{"hectares", regexp.MustCompile(`(?i)` + num + `\s*(?:hectares?|ha)\b`), func(v float64) Result {
		return Result{Value: scale(v, HectareToSqm), Unit: UnitSqm}
	}},
	{"sqm", regexp.MustCompile(`(?i)` + num + `\s*(?:sq\.?\s*m(?:eters?|etres?|trs?)?\b\.?|sqm\b|square\s+m(?:eters?|etres?)\b|m2\b|m²)`), func(v float64) Result {
		return Result{Value: v, Unit: UnitSqm}
	}},
}

var (
	noiseWords = regexp.MustCompile(`(?i)\b(?:students?|fte|sq\.?\s*ft|area|count|number|total|per|each|approx(?:imately)?|about|nos?)\b\.?`)
	firstNum   = regexp.MustCompile(`-?` + num)
	nullish    = map[string]bool{"": true, "n/a": true, "na": true, "none": true, "null": true, "nil": true, "-": true, "nan": true}
)

// Parse normalizes v. Numbers pass through unchanged; strings are matched
// against the unit rules in priority order and finally reduced to their
// first well-formed decimal number.
func Parse(v any) Result {
	switch x := v.(type) {
	case nil, bool:
		return Result{}
	case float64:
		return Result{Value: x, OK: true}
	case float32:
		return Result{Value: float64(x), OK: true}
	case int:
		return Result{Value: float64(x), OK: true}
	case int64:
		return Result{Value: float64(x), OK: true}
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Result{}
		}
		return Result{Value: f, OK: true}
	case string:
		return ParseString(x)
	}
	return Result{}
}

// ParseString normalizes a raw string value.
func ParseString(s string) Result {
	s = strings.TrimSpace(s)
	if IsNullish(s) {
		return Result{}
	}

	for _, r := range ruleTable {
		m := r.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v, ok := parseNumber(m[1])
		if !ok {
			continue
		}
		res := r.apply(v)
		res.OK = true
		res.Rule = r.name
		return res
	}

	cleaned := noiseWords.ReplaceAllString(s, " ")
	loc := firstNum.FindStringIndex(cleaned)
	if loc == nil {
		logf("no number in %q", s)
		return Result{}
	}
	match := cleaned[loc[0]:loc[1]]
	// A dash glued to a preceding word or digit is a separator, not a sign.
	if strings.HasPrefix(match, "-") && loc[0] > 0 && isWordByte(cleaned[loc[0]-1]) {
		match = match[1:]
	}
	v, ok := parseNumber(match)
	if !ok {
		logf("unparseable number %q in %q", match, s)
		return Result{}
	}
	return Result{Value: v, OK: true, Unit: UnitCount, Rule: "number"}
}

// Value is Parse reduced to (value, ok).
func Value(v any) (float64, bool) {
	r := Parse(v)
	return r.Value, r.OK
}

// IsNullish reports whether s is one of the placeholder strings extractors
// use for "no value" (N/A, none, null, ...).
func IsNullish(s string) bool {
	return nullish[strings.ToLower(strings.TrimSpace(s))]
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" || s == "-" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isWordByte(b byte) bool {
	return b == '_' || b == '.' || (b >= '0' && b <= '9') || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
