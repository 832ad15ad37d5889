package ingest

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/idlab-discover/instiscore/internal/rules"
)

// ResolveType maps a payload block key to a catalogue block type: an exact
// type, a block keyword, then the best fuzzy match among the mode's types
// and finally among every known type.
func (p *Parser) ResolveType(key string, mode rules.Mode) (string, bool) {
	norm := strings.Trim(strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(key))), "_")
	if norm == "" {
		return "", false
	}
	if _, ok := p.rules.Block(norm); ok {
		return norm, true
	}

	modes := []rules.Mode{mode}
	for _, m := range []rules.Mode{rules.AICTE, rules.UGC} {
		if m != mode {
			modes = append(modes, m)
		}
	}

	phrase := strings.ReplaceAll(norm, "_", " ")
	for _, m := range modes {
		for _, spec := range p.rules.Blocks(m, true) {
			for _, kw := range spec.Keywords {
				if strings.EqualFold(kw, phrase) {
					return spec.Type, true
				}
			}
		}
	}
	for _, m := range modes {
		if matches := fuzzy.Find(norm, p.rules.BlockTypes(m)); len(matches) > 0 {
			return matches[0].Str, true
		}
	}
	return "", false
}

// FindBlocks returns catalogue block types of mode that fuzzy-match query,
// best first. An empty query returns them all in catalogue order.
func FindBlocks(rs *rules.RuleSet, mode rules.Mode, query string) []rules.BlockSpec {
	specs := rs.Blocks(mode, true)
	if strings.TrimSpace(query) == "" {
		return specs
	}
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Type + " " + strings.ToLower(s.Name)
	}
	var out []rules.BlockSpec
	for _, m := range fuzzy.Find(strings.ToLower(query), names) {
		out = append(out, specs[m.Index])
	}
	return out
}
