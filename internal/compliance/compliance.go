// Package compliance raises regulatory flags for certificates, committees
// and statutory information a batch fails to evidence.
//
// Flags are recomputed from scratch on every run; nothing is carried over
// from a previous pass.
package compliance

import (
	"fmt"
	"strings"

	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/rules"
	"github.com/idlab-discover/instiscore/internal/ui"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Flag is one compliance finding.
type Flag struct {
	Concept        string   `json:"concept"`
	Severity       Severity `json:"severity"`
	Title          string   `json:"title"`
	Reason         string   `json:"reason"`
	Recommendation string   `json:"recommendation"`
}

// Checker evaluates a mode's compliance concepts over a batch's blocks.
type Checker struct {
	rules   *rules.RuleSet
	matcher *Matcher
}

func NewChecker(rs *rules.RuleSet) *Checker {
	return &Checker{rules: rs, matcher: NewMatcher(rs.Policy.Matching)}
}

// Check returns the flags for mode, in concept order. When no usable block
// exists the result is empty: there is nothing to judge compliance on.
func (c *Checker) Check(mode rules.Mode, blocks []*block.Block) []Flag {
	usable := usableBlocks(blocks)
	flags := []Flag{}
	if len(usable) == 0 {
		logf("no usable blocks, skipping compliance checks")
		return flags
	}

	for _, concept := range c.rules.Concepts(mode) {
		scope := ofTypes(usable, concept.BlockTypes)
		if concept.RequireBlock && len(scope) == 0 {
			continue
		}

		var missing []string
		switch concept.Kind {
		case rules.KindExpiry:
			if c.expired(concept, scope) {
				missing = append(missing, concept.Members[0].Name)
			}
		case rules.KindField:
			for _, mem := range concept.Members {
				if !fieldPresent(mem, scope) {
					missing = append(missing, mem.Name)
				}
			}
		default:
			for _, mem := range concept.Members {
				if step := c.present(mem, scope); step == StepNone {
					missing = append(missing, mem.Name)
				} else {
					logf("%s: %s recognised by %s", concept.ID, mem.Name, step)
				}
			}
		}

		if len(missing) == 0 {
			continue
		}
		flag := newFlag(concept, missing)
		flags = append(flags, flag)
		logf("%s: flagged %s (%s)", concept.ID, ui.Color(string(flag.Severity), ui.SeverityCode(string(flag.Severity))), strings.Join(missing, ", "))
	}
	return flags
}

func newFlag(concept rules.Concept, missing []string) Flag {
	reason := concept.Reason
	if strings.Contains(reason, "%s") {
		reason = fmt.Sprintf(reason, strings.Join(missing, ", "))
	}
	return Flag{
		Concept:        concept.ID,
		Severity:       Severity(concept.Severity),
		Title:          concept.Title,
		Reason:         reason,
		Recommendation: concept.Recommendation,
	}
}

// present runs the matching steps in order over every block in scope and
// returns the first step that recognised one of the member's synonyms.
func (c *Checker) present(mem rules.Member, scope []*block.Block) Step {
	for _, b := range scope {
		for _, k := range b.FieldNames() {
			if k == "evidence" || !block.Truthy(b.Fields[k]) {
				continue
			}
			for _, syn := range mem.Synonyms {
				if c.matcher.NameMatches(k, syn) {
					return StepFieldName
				}
			}
		}
	}
	for _, b := range scope {
		text := b.Text()
		for _, syn := range mem.Synonyms {
			if c.matcher.Contains(text, syn) {
				return StepSubstring
			}
		}
	}
	for _, b := range scope {
		text := b.Text()
		for _, syn := range mem.Synonyms {
			if c.matcher.TokenOverlap(text, syn) {
				return StepTokens
			}
		}
	}
	for _, b := range scope {
		for _, phrase := range phrases(b) {
			for _, syn := range mem.Synonyms {
				if c.matcher.Similar(phrase, syn) {
					return StepSimilarity
				}
			}
		}
	}
	return StepNone
}

// expired reports whether a time-bound certificate is mentioned together
// with an expiry term. Silence about the certificate is never a finding.
func (c *Checker) expired(concept rules.Concept, scope []*block.Block) bool {
	for _, b := range scope {
		text := b.Text() + " " + strings.Join(humanNames(b), " ")
		mentioned := false
		for _, mem := range concept.Members {
			for _, syn := range mem.Synonyms {
				if c.matcher.Contains(text, syn) {
					mentioned = true
				}
			}
		}
		if !mentioned {
			continue
		}
		for _, term := range c.rules.Policy.Matching.ExpiryTerms {
			if strings.Contains(text, strings.ToLower(term)) {
				return true
			}
		}
	}
	return false
}

// fieldPresent reports whether any block in scope carries an affirmative
// value (or a canonical number) for one of the member's fields.
func fieldPresent(mem rules.Member, scope []*block.Block) bool {
	for _, b := range scope {
		for _, f := range mem.Fields {
			if block.Truthy(b.Fields[f]) {
				return true
			}
			if v, ok := b.Derived[f+"_num"]; ok && v != 0 {
				return true
			}
		}
	}
	return false
}

// phrases are the short strings compared by similarity: humanised names of
// affirmative fields and string values.
func phrases(b *block.Block) []string {
	var out []string
	for _, k := range b.FieldNames() {
		if k == "evidence" {
			continue
		}
		v := b.Fields[k]
		if block.Truthy(v) {
			out = append(out, humanize(k))
		}
		if s, ok := v.(string); ok && block.Present(s) {
			out = append(out, s)
		}
	}
	return out
}

func humanNames(b *block.Block) []string {
	out := make([]string, 0, len(b.Fields))
	for _, k := range b.FieldNames() {
		if k != "evidence" {
			out = append(out, humanize(k))
		}
	}
	return out
}

func usableBlocks(blocks []*block.Block) []*block.Block {
	var out []*block.Block
	for _, b := range blocks {
		if b == nil || b.Empty() || b.Flags.IsInvalid {
			continue
		}
		out = append(out, b)
	}
	return out
}

func ofTypes(blocks []*block.Block, types []string) []*block.Block {
	if len(types) == 0 {
		return blocks
	}
	var out []*block.Block
	for _, b := range blocks {
		for _, t := range types {
			if b.Type == t {
				out = append(out, b)
				break
			}
		}
	}
	return out
}
