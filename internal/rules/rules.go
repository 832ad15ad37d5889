// Package rules holds the immutable rule set the scoring engine runs against:
// the block catalogue per regulatory mode, the field registry for each block,
// compliance concepts with their synonym lists, KPI weights and the tunable
// policy constants. A RuleSet is loaded once and passed to every component.
package rules

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed defaults.yaml
var defaultRules []byte

// Mode is the regulatory body a batch is scored against.
type Mode string

const (
	AICTE Mode = "aicte"
	UGC   Mode = "ugc"
)

func (m Mode) String() string { return string(m) }

// ParseMode accepts "aicte" or "ugc" in any case.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case AICTE:
		return AICTE, nil
	case UGC:
		return UGC, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected aicte|ugc)", s)
}

// BlockSpec describes one block type: its display name and field registry.
type BlockSpec struct {
	Type              string   `yaml:"type"`
	Name              string   `yaml:"name"`
	Keywords          []string `yaml:"keywords"`
	Required          []string `yaml:"required"`
	Optional          []string `yaml:"optional"`
	Major             []string `yaml:"major"`
	NewUniversityOnly bool     `yaml:"new_university_only"`
}

// ExpectedFields is required ∪ optional, in declaration order.
func (b BlockSpec) ExpectedFields() []string {
	out := make([]string, 0, len(b.Required)+len(b.Optional))
	seen := make(map[string]bool, cap(out))
	for _, f := range append(append([]string{}, b.Required...), b.Optional...) {
		if f == "evidence" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

type KPISpec struct {
	ID     string  `yaml:"id"`
	Name   string  `yaml:"name"`
	Weight float64 `yaml:"weight"`
}

// ConceptKind selects how a compliance concept is tested.
type ConceptKind string

const (
	// KindPresence flags the concept when no synonym can be matched.
	KindPresence ConceptKind = "presence"
	// KindExpiry flags only when a synonym is mentioned next to an expiry term.
	KindExpiry ConceptKind = "expiry"
	// KindField flags when none of the listed fields carries a truthy value.
	KindField ConceptKind = "field"
)

type Member struct {
	Name     string   `yaml:"name"`
	Synonyms []string `yaml:"synonyms"`
	Fields   []string `yaml:"fields"`
}

// Concept is one mandatory document, committee or disclosure.
// A concept with several members produces a single flag listing the
// members that could not be found.
type Concept struct {
	ID             string      `yaml:"id"`
	Kind           ConceptKind `yaml:"kind"`
	Severity       string      `yaml:"severity"`
	Title          string      `yaml:"title"`
	Reason         string      `yaml:"reason"`
	Recommendation string      `yaml:"recommendation"`
	BlockTypes     []string    `yaml:"block_types"`
	RequireBlock   bool        `yaml:"require_block"`
	Members        []Member    `yaml:"members"`
}

type ModeRules struct {
	Blocks     []BlockSpec `yaml:"blocks"`
	KPIs       []KPISpec   `yaml:"kpis"`
	Compliance []Concept   `yaml:"compliance"`
}

type ConfidencePolicy struct {
	RatioWeight         float64 `yaml:"ratio_weight"`
	DefaultHigh         float64 `yaml:"default_high"`
	DefaultLow          float64 `yaml:"default_low"`
	DefaultHighMinRatio float64 `yaml:"default_high_min_ratio"`
	UpperFloorMinRatio  float64 `yaml:"upper_floor_min_ratio"`
	UpperFloor          float64 `yaml:"upper_floor"`
	LowerFloorMinRatio  float64 `yaml:"lower_floor_min_ratio"`
	LowerFloor          float64 `yaml:"lower_floor"`
}

type QualityPolicy struct {
	LowConfidenceBelow     float64  `yaml:"low_confidence_below"`
	MaxParseFailures       int      `yaml:"max_parse_failures"`
	OutdatedAfterYears     int      `yaml:"outdated_after_years"`
	ValidCompletenessPct   float64  `yaml:"valid_completeness_pct"`
	InvalidCompletenessPct float64  `yaml:"invalid_completeness_pct"`
	MinMajorFields         int      `yaml:"min_major_fields"`
	MinNumericSignals      int      `yaml:"min_numeric_signals"`
	NumericSignalPatterns  []string `yaml:"numeric_signal_patterns"`
	ParseCheckFields       []string `yaml:"parse_check_fields"`
}

type SufficiencyPolicy struct {
	OutdatedPenalty   float64 `yaml:"outdated_penalty"`
	LowQualityPenalty float64 `yaml:"low_quality_penalty"`
	InvalidPenalty    float64 `yaml:"invalid_penalty"`
	PenaltyCap        float64 `yaml:"penalty_cap"`
	GreenAt           float64 `yaml:"green_at"`
	YellowAt          float64 `yaml:"yellow_at"`
}

type MatchingPolicy struct {
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	MinTokenOverlap     int      `yaml:"min_token_overlap"`
	IgnoredTokens       []string `yaml:"ignored_tokens"`
	ExpiryTerms         []string `yaml:"expiry_terms"`
}

// KPIPolicy holds the norms the KPI formulas measure against.
type KPIPolicy struct {
	AreaPerStudentSqm    float64 `yaml:"area_per_student_sqm"`
	StudentsPerClassroom float64 `yaml:"students_per_classroom"`
	LibrarySqmPerStudent float64 `yaml:"library_sqm_per_student"`
	DigitalResourcesNorm float64 `yaml:"digital_resources_norm"`
	HostelShare          float64 `yaml:"hostel_share"`
	StudentsPerLab       float64 `yaml:"students_per_lab"`
	MinLabs              float64 `yaml:"min_labs"`
	FSRFull              float64 `yaml:"fsr_full"`
	FSRPartial           float64 `yaml:"fsr_partial"`
	FSRPartialScore      float64 `yaml:"fsr_partial_score"`
	PublicationsNorm     float64 `yaml:"publications_norm"`
	CitationsNorm        float64 `yaml:"citations_norm"`
	ProjectsNorm         float64 `yaml:"projects_norm"`
	RequiredCommittees   float64 `yaml:"required_committees"`
}

// TrendPolicy sets when a year counts as history and how slope and
// volatility are described.
type TrendPolicy struct {
	MinYearFields      int     `yaml:"min_year_fields"`
	MinPoints          int     `yaml:"min_points"`
	StrongSlope        float64 `yaml:"strong_slope"`
	ModerateSlope      float64 `yaml:"moderate_slope"`
	HighVolatility     float64 `yaml:"high_volatility"`
	ModerateVolatility float64 `yaml:"moderate_volatility"`
	LowVolatility      float64 `yaml:"low_volatility"`
}

// RankingPolicy bounds comparisons and labels KPI strengths.
type RankingPolicy struct {
	MinCompare   int     `yaml:"min_compare"`
	MaxCompare   int     `yaml:"max_compare"`
	DefaultTopN  int     `yaml:"default_top_n"`
	ExcellentAt  float64 `yaml:"excellent_at"`
	GoodAt       float64 `yaml:"good_at"`
	WeakBelow    float64 `yaml:"weak_below"`
	MaxHighlight int     `yaml:"max_highlight"`
}

type Policy struct {
	Confidence  ConfidencePolicy  `yaml:"confidence"`
	Quality     QualityPolicy     `yaml:"quality"`
	Sufficiency SufficiencyPolicy `yaml:"sufficiency"`
	Matching    MatchingPolicy    `yaml:"matching"`
	KPI         KPIPolicy         `yaml:"kpi"`
	Trend       TrendPolicy       `yaml:"trend"`
	Ranking     RankingPolicy     `yaml:"ranking"`
}

type ApprovalDocument struct {
	Key         string   `yaml:"key"`
	Description string   `yaml:"description"`
	Aliases     []string `yaml:"aliases"`
}

type ApprovalRules struct {
	Keywords struct {
		AICTE   []string `yaml:"aicte"`
		UGC     []string `yaml:"ugc"`
		New     []string `yaml:"new"`
		Renewal []string `yaml:"renewal"`
	} `yaml:"keywords"`
	Documents map[string][]ApprovalDocument `yaml:"documents"`
}

// RuleSet is the complete, read-only configuration of the engine.
// Callers must not mutate the slices it returns.
type RuleSet struct {
	Policy        Policy             `yaml:"policy"`
	NumericFields []string           `yaml:"numeric_fields"`
	Modes         map[Mode]ModeRules `yaml:"modes"`
	Approval      ApprovalRules      `yaml:"approval"`

	byType    map[string]BlockSpec
	modeOf    map[string]Mode
	numericIx map[string]bool
}

var (
	defaultOnce sync.Once
	defaultSet  *RuleSet
	defaultErr  error
)

// Default returns the embedded rule set. It is parsed once per process.
func Default() (*RuleSet, error) {
	defaultOnce.Do(func() {
		defaultSet, defaultErr = Parse(defaultRules)
	})
	return defaultSet, defaultErr
}

// Load reads a rule set from path. An empty path yields the embedded defaults.
func Load(path string) (*RuleSet, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	rs, err := Parse(b)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	logf("loaded rule set from %s", path)
	return rs, nil
}

// Parse decodes and validates a YAML rule set.
func Parse(b []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(b, &rs); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	if err := rs.index(); err != nil {
		return nil, err
	}
	return &rs, nil
}

func (rs *RuleSet) index() error {
	if len(rs.Modes) == 0 {
		return fmt.Errorf("rules define no modes")
	}
	rs.byType = make(map[string]BlockSpec)
	rs.modeOf = make(map[string]Mode)
	for mode, mr := range rs.Modes {
		if _, err := ParseMode(string(mode)); err != nil {
			return err
		}
		if len(mr.Blocks) == 0 {
			return fmt.Errorf("mode %s defines no blocks", mode)
		}
		for _, b := range mr.Blocks {
			if b.Type == "" {
				return fmt.Errorf("mode %s: block without type", mode)
			}
			if _, dup := rs.byType[b.Type]; dup {
				return fmt.Errorf("block type %q defined twice", b.Type)
			}
			rs.byType[b.Type] = b
			rs.modeOf[b.Type] = mode
		}
		for _, c := range mr.Compliance {
			switch c.Kind {
			case KindPresence, KindExpiry, KindField:
			default:
				return fmt.Errorf("concept %q: unknown kind %q", c.ID, c.Kind)
			}
			switch c.Severity {
			case "low", "medium", "high":
			default:
				return fmt.Errorf("concept %q: unknown severity %q", c.ID, c.Severity)
			}
			if len(c.Members) == 0 {
				return fmt.Errorf("concept %q has no members", c.ID)
			}
		}
	}
	rs.numericIx = make(map[string]bool, len(rs.NumericFields))
	for _, f := range rs.NumericFields {
		rs.numericIx[f] = true
	}
	return nil
}

// Blocks returns the required block set for mode in catalogue order.
// Blocks marked new_university_only are included only when newUniversity is set.
func (rs *RuleSet) Blocks(mode Mode, newUniversity bool) []BlockSpec {
	mr := rs.Modes[mode]
	out := make([]BlockSpec, 0, len(mr.Blocks))
	for _, b := range mr.Blocks {
		if b.NewUniversityOnly && !newUniversity {
			continue
		}
		out = append(out, b)
	}
	return out
}

// BlockTypes returns every block type known to mode, including
// new-university-only blocks.
func (rs *RuleSet) BlockTypes(mode Mode) []string {
	mr := rs.Modes[mode]
	out := make([]string, len(mr.Blocks))
	for i, b := range mr.Blocks {
		out[i] = b.Type
	}
	return out
}

// Block looks up a block type in any mode.
func (rs *RuleSet) Block(blockType string) (BlockSpec, bool) {
	b, ok := rs.byType[blockType]
	return b, ok
}

// ExpectedFields returns required ∪ optional for blockType, nil when the
// type is unknown.
func (rs *RuleSet) ExpectedFields(blockType string) []string {
	b, ok := rs.byType[blockType]
	if !ok {
		return nil
	}
	return b.ExpectedFields()
}

// ModeOf returns the mode that declares blockType.
func (rs *RuleSet) ModeOf(blockType string) (Mode, bool) {
	m, ok := rs.modeOf[blockType]
	return m, ok
}

func (rs *RuleSet) KPIs(mode Mode) []KPISpec { return rs.Modes[mode].KPIs }

func (rs *RuleSet) Concepts(mode Mode) []Concept { return rs.Modes[mode].Compliance }

// IsNumericField reports whether name is declared numeric or matches a
// numeric-signal pattern.
func (rs *RuleSet) IsNumericField(name string) bool {
	if rs.numericIx[name] {
		return true
	}
	return rs.MatchesNumericSignal(name)
}

// MatchesNumericSignal reports whether one of the "_"-separated segments
// of name is a numeric-signal pattern (count, area, rate, ...), or its
// plural. "placement_rate" matches "rate"; "strategic_vision" does not.
func (rs *RuleSet) MatchesNumericSignal(name string) bool {
	for _, p := range rs.Policy.Quality.NumericSignalPatterns {
		if p = strings.Trim(p, "_"); p != "" && HasNameSegment(name, p) {
			return true
		}
	}
	return false
}

// HasNameSegment reports whether a "_"-separated segment of name equals
// one of words, or a word followed by "s".
func HasNameSegment(name string, words ...string) bool {
	for _, seg := range strings.FieldsFunc(strings.ToLower(name), isSegmentSep) {
		for _, w := range words {
			if seg == w || seg == w+"s" {
				return true
			}
		}
	}
	return false
}

func isSegmentSep(r rune) bool {
	return r == '_' || r == '-' || r == ' ' || r == '.'
}
