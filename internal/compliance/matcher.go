package compliance

import (
	"strings"

	"github.com/xrash/smetrics"

	"github.com/idlab-discover/instiscore/internal/rules"
)

// Step names the matching step that recognised a synonym.
type Step string

const (
	StepNone       Step = ""
	StepFieldName  Step = "field_name"
	StepSubstring  Step = "substring"
	StepTokens     Step = "token_overlap"
	StepSimilarity Step = "similarity"
)

// shortSynonym is the length up to which a synonym ("ICC", "BoG") only
// matches as a whole word.
const shortSynonym = 3

// Matcher recognises paraphrases of a synonym list in field names and text.
type Matcher struct {
	threshold  float64
	minOverlap int
	ignored    map[string]bool
}

func NewMatcher(p rules.MatchingPolicy) *Matcher {
	m := &Matcher{threshold: p.SimilarityThreshold, minOverlap: p.MinTokenOverlap, ignored: map[string]bool{}}
	for _, t := range p.IgnoredTokens {
		m.ignored[strings.ToLower(t)] = true
	}
	return m
}

// Contains reports whether text mentions synonym: a case-insensitive
// substring match, or a whole-word match for short synonyms.
func (m *Matcher) Contains(text, synonym string) bool {
	text = strings.ToLower(text)
	syn := strings.ToLower(strings.TrimSpace(synonym))
	if syn == "" {
		return false
	}
	if len(syn) > shortSynonym {
		return strings.Contains(text, syn)
	}
	for _, w := range words(text) {
		if w == syn {
			return true
		}
	}
	return false
}

// NameMatches compares a humanised field name with synonym in both
// directions, so "fire_noc" matches "Fire NOC certificate" and
// "fire_safety_certificate_raw" matches "Fire Safety Certificate".
func (m *Matcher) NameMatches(field, synonym string) bool {
	name := humanize(field)
	if m.Contains(name, synonym) {
		return true
	}
	return len(name) > shortSynonym && m.Contains(synonym, name)
}

// TokenOverlap reports whether text shares at least the configured number
// of significant words with synonym.
func (m *Matcher) TokenOverlap(text, synonym string) bool {
	if m.minOverlap <= 0 {
		return false
	}
	have := map[string]bool{}
	for _, w := range words(strings.ToLower(text)) {
		have[w] = true
	}
	shared := 0
	seen := map[string]bool{}
	for _, w := range words(strings.ToLower(synonym)) {
		if m.ignored[w] || seen[w] {
			continue
		}
		seen[w] = true
		if have[w] {
			shared++
		}
	}
	return shared >= m.minOverlap
}

// Similar reports whether phrase is within the similarity threshold of
// synonym.
func (m *Matcher) Similar(phrase, synonym string) bool {
	return Similarity(strings.ToLower(phrase), strings.ToLower(synonym)) >= m.threshold
}

// Similarity is an edit-distance ratio in [0,1]: with a substitution
// costing one insertion plus one deletion, 1 - d/(len(a)+len(b)) equals
// twice the longest common subsequence over the total length.
func Similarity(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 1
	}
	d := smetrics.WagnerFischer(a, b, 1, 1, 2)
	return 1 - float64(d)/float64(total)
}

func humanize(field string) string {
	return strings.ToLower(strings.NewReplacer("_", " ", "-", " ").Replace(field))
}

func words(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r >= 0x80)
	})
}
