package trend

import (
	"sort"

	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/normalize"
)

// Keys that place a whole block in a year, best first. They are not copied
// into the year's fields.
var yearKeys = []string{"academic_year_start", "academic_year", "year", "parsed_year", "last_updated_year"}

// Keys that place one entry of a list field (placements_by_year and the
// like) in a year.
var itemYearKeys = []string{"year", "academic_year"}

// yearFields maps year -> block type -> fields for that year.
type yearFields map[int]map[string]map[string]any

func (yf yearFields) put(year int, blockType, key string, v any) {
	types, ok := yf[year]
	if !ok {
		types = map[string]map[string]any{}
		yf[year] = types
	}
	fields, ok := types[blockType]
	if !ok {
		fields = map[string]any{}
		types[blockType] = fields
	}
	fields[key] = v
}

// collect spreads block fields over years. Later blocks override earlier
// ones for the same year and key.
func collect(blocks []*block.Block) yearFields {
	out := yearFields{}
	for _, b := range blocks {
		if b == nil || b.Flags.IsInvalid {
			continue
		}
		keys := b.FieldNames()
		if y, ok := blockYear(b); ok {
			for _, k := range keys {
				if isYearKey(k) || k == "evidence" {
					continue
				}
				if v := b.Fields[k]; v != nil {
					out.put(y, b.Type, k, v)
				}
			}
		}
		for _, k := range keys {
			items, ok := b.Fields[k].([]any)
			if !ok {
				continue
			}
			for _, it := range items {
				m, ok := it.(map[string]any)
				if !ok {
					continue
				}
				y, ok := itemYear(m)
				if !ok {
					continue
				}
				for ik, iv := range m {
					if ik == "year" || ik == "academic_year" || iv == nil {
						continue
					}
					out.put(y, b.Type, ik, iv)
				}
			}
		}
	}
	return out
}

func blockYear(b *block.Block) (int, bool) {
	if v, ok := b.Value("academic_year_start"); ok {
		if y, ok := normalize.ParseStartYear(v); ok {
			return y, true
		}
	}
	for _, k := range yearKeys[1:] {
		if v, ok := b.Value(k); ok {
			if y, ok := normalize.ParseYear(v); ok {
				return y, true
			}
		}
	}
	if y, ok := b.Derived["parsed_year"]; ok {
		return int(y), true
	}
	return 0, false
}

func itemYear(m map[string]any) (int, bool) {
	for _, k := range itemYearKeys {
		if v, ok := m[k]; ok && v != nil {
			if y, ok := normalize.ParseYear(v); ok {
				return y, true
			}
		}
	}
	return 0, false
}

func isYearKey(k string) bool {
	for _, y := range yearKeys {
		if k == y {
			return true
		}
	}
	return false
}

// positiveNumbers counts distinct field names holding a number above zero.
func positiveNumbers(types map[string]map[string]any) int {
	seen := map[string]bool{}
	for _, fields := range types {
		for k, v := range fields {
			if f, ok := v.(float64); ok && f > 0 {
				seen[k] = true
			}
		}
	}
	return len(seen)
}

func sortedYears(yf yearFields) []int {
	ys := make([]int, 0, len(yf))
	for y := range yf {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	return ys
}
