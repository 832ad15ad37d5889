package quality

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// Name segments that mark a field as a percentage or a count.
var (
	percentageMarkers = []string{"percentage", "percent", "rate"}
	countMarkers      = []string{"count", "number"}
)

// Assessment is the outcome of classifying one block. It is a pure
// function of the block's current fields.
type Assessment struct {
	Confidence   float64
	NonNullRatio float64
	Year         int // 0 when no year could be found
	Flags        block.Flags
	Notes        []string
}

// Classifier applies the three quality checks under one policy.
type Classifier struct {
	Policy rules.Policy
	Rules  *rules.RuleSet

	// CurrentYear overrides the clock; zero means time.Now().
	CurrentYear int
}

func NewClassifier(rs *rules.RuleSet) *Classifier {
	return &Classifier{Policy: rs.Policy, Rules: rs}
}

func (c *Classifier) currentYear() int {
	if c.CurrentYear > 0 {
		return c.CurrentYear
	}
	return time.Now().Year()
}

// Apply assesses b and stores the confidence, flags and notes on it.
// Notes are replaced, so applying twice gives the same block.
func (c *Classifier) Apply(b *block.Block, spec rules.BlockSpec) Assessment {
	a := c.Assess(b, spec)
	b.Confidence = a.Confidence
	b.Flags = a.Flags
	b.Notes = a.Notes
	return a
}

// Assess runs the confidence blend and the three independent checks.
// Any check that lacks the data to decide leaves its flag false.
func (c *Classifier) Assess(b *block.Block, spec rules.BlockSpec) Assessment {
	a := Assessment{NonNullRatio: NonNullRatio(b, spec)}
	a.Confidence = Blend(b.ExtractionConfidence, a.NonNullRatio, c.Policy.Confidence)

	if year, ok := c.blockYear(b); ok {
		a.Year = year
		now := c.currentYear()
		if now-year > c.Policy.Quality.OutdatedAfterYears {
			a.Flags.IsOutdated = true
			a.Notes = append(a.Notes, fmt.Sprintf("outdated: information dated %d is more than %d years old (current: %d)",
				year, c.Policy.Quality.OutdatedAfterYears, now))
		}
	}

	if reason := c.lowQuality(b, a.Confidence, a.NonNullRatio); reason != "" {
		a.Flags.IsLowQuality = true
		a.Notes = append(a.Notes, "low quality: "+reason)
	}

	if reason := c.invalid(b, spec); reason != "" {
		a.Flags.IsInvalid = true
		a.Notes = append(a.Notes, "invalid: "+reason)
	}

	if a.Flags != (block.Flags{}) {
		logf("%s: outdated=%t low_quality=%t invalid=%t", b.Type, a.Flags.IsOutdated, a.Flags.IsLowQuality, a.Flags.IsInvalid)
	}
	return a
}

// blockYear resolves the year a block describes: academic-year fields,
// then the derived parsed_year, then last_updated_year, then the latest
// year mentioned in any string value or year-named number.
func (c *Classifier) blockYear(b *block.Block) (int, bool) {
	if v, ok := b.Value("academic_year_start"); ok {
		if y, ok := normalize.ParseStartYear(v); ok {
			return y, true
		}
	}
	if v, ok := b.Value("academic_year_end"); ok {
		if y, ok := normalize.ParseYear(v); ok {
			return y, true
		}
	}
	if v, ok := b.Derived["parsed_year"]; ok {
		if y, ok := normalize.ParseYear(v); ok {
			return y, true
		}
	}
	if v, ok := b.Value("last_updated_year"); ok {
		if y, ok := normalize.ParseYear(v); ok {
			return y, true
		}
	}

	latest := 0
	for _, k := range b.FieldNames() {
		switch v := b.Fields[k].(type) {
		case string:
			for _, y := range normalize.Years(v) {
				latest = max(latest, y)
			}
		case float64:
			if strings.Contains(strings.ToLower(k), "year") {
				if y, ok := normalize.ParseYear(v); ok {
					latest = max(latest, y)
				}
			}
		}
	}
	return latest, latest > 0
}

func (c *Classifier) lowQuality(b *block.Block, confidence, ratio float64) string {
	var reasons []string
	if confidence < c.Policy.Quality.LowConfidenceBelow {
		reasons = append(reasons, fmt.Sprintf("effective confidence %.2f below %.2f (non_null_ratio=%.2f)",
			confidence, c.Policy.Quality.LowConfidenceBelow, ratio))
	}
	if failed := ParseFailures(b, c.Policy.Quality.ParseCheckFields); len(failed) > c.Policy.Quality.MaxParseFailures {
		reasons = append(reasons, fmt.Sprintf("numeric parsing failed for %d fields (%s)", len(failed), strings.Join(failed, ", ")))
	}
	return strings.Join(reasons, "; ")
}

// ParseFailures lists the fields among names whose raw value is present
// but has no canonical "_num" counterpart.
func ParseFailures(b *block.Block, names []string) []string {
	var out []string
	for _, f := range names {
		if _, ok := b.Value(f); !ok {
			continue
		}
		if _, ok := b.Derived[f+"_num"]; !ok {
			out = append(out, f)
		}
	}
	return out
}

func (c *Classifier) invalid(b *block.Block, spec rules.BlockSpec) string {
	q := c.Policy.Quality
	if reason := secondaryInvalid(b); reason != "" {
		return reason
	}

	filled := 0
	for _, f := range spec.Required {
		if _, ok := b.Value(f); ok {
			filled++
		}
	}
	completeness := float64(filled) / float64(max(1, len(spec.Required))) * 100
	major := MajorFieldsPresent(b, spec)
	signals := c.NumericSignals(b)

	if completeness >= q.ValidCompletenessPct || major >= q.MinMajorFields || signals >= q.MinNumericSignals {
		return ""
	}
	if completeness < q.InvalidCompletenessPct && major == 0 && signals == 0 {
		return fmt.Sprintf("completeness %.1f%% < %.0f%%, no major fields and no numeric fields present",
			completeness, q.InvalidCompletenessPct)
	}
	return ""
}

// secondaryInvalid catches impossible values regardless of completeness:
// negative counts and percentages above 100. Markers must be whole name
// segments, so "strategic_vision" is not a rate.
func secondaryInvalid(b *block.Block) string {
	for _, k := range b.FieldNames() {
		if v, ok := numericOf(b, k); ok && v < 0 && rules.HasNameSegment(k, countMarkers...) {
			return fmt.Sprintf("negative value for %s: %v", k, v)
		}
		if v, ok := percentOf(b.Fields[k]); ok && v > 100 && rules.HasNameSegment(k, percentageMarkers...) {
			return fmt.Sprintf("impossible percentage for %s: %v%%", k, v)
		}
	}
	return ""
}

func numericOf(b *block.Block, k string) (float64, bool) {
	if v, ok := b.Fields[k].(float64); ok {
		return v, true
	}
	v, ok := b.Derived[k+"_num"]
	return v, ok
}

// percentOf reads a raw value as a percentage: a JSON number, a string
// the normalizer reads as a percent, or a string that is only a number.
// Free text that merely mentions a number is not a percentage.
func percentOf(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		if res := normalize.ParseString(x); res.OK && res.Unit == normalize.UnitPercent {
			return res.Value, true
		}
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
		return f, err == nil
	}
	return 0, false
}

// MajorFieldsPresent counts the block type's major fields that carry a
// usable value: a positive number, a non-empty string, list or map, any
// boolean, or a canonical "_num" value.
func MajorFieldsPresent(b *block.Block, spec rules.BlockSpec) int {
	n := 0
	for _, f := range spec.Major {
		if _, ok := b.Derived[f+"_num"]; ok {
			n++
			continue
		}
		switch v := b.Fields[f].(type) {
		case float64:
			if v > 0 {
				n++
			}
		case bool:
			n++
		default:
			if block.Present(v) {
				n++
			}
		}
	}
	return n
}

// NumericSignals counts fields (raw or derived) whose name matches a
// numeric-signal pattern and whose value is a positive number.
func (c *Classifier) NumericSignals(b *block.Block) int {
	n := 0
	for k, v := range b.Fields {
		if k == "evidence" || !c.Rules.MatchesNumericSignal(k) {
			continue
		}
		if f, ok := positive(v); ok && f > 0 {
			n++
		}
	}
	for k, v := range b.Derived {
		if c.Rules.MatchesNumericSignal(k) && v > 0 {
			n++
		}
	}
	return n
}

func positive(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		if normalize.IsNullish(x) {
			return 0, false
		}
		return normalize.Value(x)
	}
	return 0, false
}
