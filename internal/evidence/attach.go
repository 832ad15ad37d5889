package evidence

import (
	"sort"

	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// Attach sets b.Evidence. Evidence supplied by the extractor (an "evidence"
// field with a snippet) is kept and only its page is resolved when
// missing; otherwise the block's representative value is located in doc.
// Attach never replaces evidence that is already set.
func Attach(b *block.Block, spec rules.BlockSpec, doc Document) Match {
	if b.Evidence != nil {
		return Match{Snippet: b.Evidence.Snippet, Page: b.Evidence.Page, Strategy: StrategyExact}
	}

	if snippet, page, ok := extractorEvidence(b); ok {
		if page <= 0 {
			page = ResolvePage(snippet, doc)
		}
		b.Evidence = &block.Evidence{Snippet: snippet, Page: page, SourceDoc: doc.SourceDoc}
		return Match{Snippet: snippet, Page: page, Strategy: StrategyExact}
	}

	value, _ := RepresentativeValue(b, spec)
	m := Locate(value, doc)
	if !m.Found() {
		logf("%s: no anchored evidence for %v (strategy=%s)", b.Type, value, m.Strategy)
	}
	b.Evidence = &block.Evidence{Snippet: m.Snippet, Page: m.Page, SourceDoc: doc.SourceDoc}
	return m
}

// RepresentativeValue picks the value used to anchor a block's evidence:
// the first present string or non-zero number, visiting required fields,
// then optional fields, then every other field in name order.
func RepresentativeValue(b *block.Block, spec rules.BlockSpec) (any, bool) {
	seen := map[string]bool{"evidence": true}
	order := make([]string, 0, len(b.Fields))
	for _, f := range spec.ExpectedFields() {
		if !seen[f] {
			seen[f] = true
			order = append(order, f)
		}
	}
	rest := make([]string, 0, len(b.Fields))
	for k := range b.Fields {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	for _, f := range order {
		switch x := b.Fields[f].(type) {
		case string:
			if !normalize.IsNullish(x) {
				return x, true
			}
		case float64:
			if x != 0 {
				return x, true
			}
		}
	}
	return nil, false
}

func extractorEvidence(b *block.Block) (string, int, bool) {
	switch ev := b.Fields["evidence"].(type) {
	case map[string]any:
		snippet, _ := ev["snippet"].(string)
		if normalize.IsNullish(snippet) {
			return "", 0, false
		}
		page := 0
		if p, ok := ev["page"].(float64); ok && p > 0 {
			page = int(p)
		}
		return snippet, page, true
	case string:
		if !normalize.IsNullish(ev) {
			return ev, 0, true
		}
	}
	return "", 0, false
}
