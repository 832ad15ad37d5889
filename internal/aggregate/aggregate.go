// Package aggregate merges the blocks of one batch into a single read-only
// view for the KPI formulas.
package aggregate

import (
	"sort"

	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/normalize"
)

// Aggregate is the merged view of a batch's usable blocks. Conflicting
// numbers resolve to the maximum, conflicting strings and other values to
// the first non-empty one. Every entry remembers the block that won it.
type Aggregate struct {
	numbers map[string]float64
	values  map[string]any
	source  map[string]*block.Block

	// Blocks lists the merged blocks in merge order.
	Blocks []*block.Block
	// Skipped counts blocks left out because they were flagged invalid.
	Skipped int
}

// Merge folds blocks in order. Nil, empty and invalid blocks are skipped.
func Merge(blocks []*block.Block) *Aggregate {
	a := &Aggregate{
		numbers: map[string]float64{},
		values:  map[string]any{},
		source:  map[string]*block.Block{},
	}
	for _, b := range blocks {
		if b == nil || b.Empty() {
			continue
		}
		if b.Flags.IsInvalid {
			a.Skipped++
			continue
		}
		a.Blocks = append(a.Blocks, b)

		for _, k := range b.FieldNames() {
			if k == "evidence" {
				continue
			}
			switch v := b.Fields[k].(type) {
			case float64:
				a.putNumber(k, v, b)
			default:
				if block.Present(v) {
					a.putValue(k, v, b)
				}
			}
		}
		keys := make([]string, 0, len(b.Derived))
		for k := range b.Derived {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			a.putNumber(k, b.Derived[k], b)
		}
	}
	logf("merged %d blocks (%d invalid skipped) into %d numbers, %d values", len(a.Blocks), a.Skipped, len(a.numbers), len(a.values))
	return a
}

func (a *Aggregate) putNumber(k string, v float64, b *block.Block) {
	if cur, ok := a.numbers[k]; ok && cur >= v {
		return
	}
	a.numbers[k] = v
	a.source[k] = b
}

func (a *Aggregate) putValue(k string, v any, b *block.Block) {
	if _, ok := a.values[k]; ok {
		return
	}
	a.values[k] = v
	if _, ok := a.source[k]; !ok {
		a.source[k] = b
	}
}

// Empty reports whether no usable block was merged.
func (a *Aggregate) Empty() bool { return a == nil || len(a.Blocks) == 0 }

// Number resolves name to a number: the canonical "<name>_num", then a
// number stored under name, then a string value under name read through
// the normalizer. The block that supplied it is returned alongside.
func (a *Aggregate) Number(name string) (float64, *block.Block, bool) {
	if a == nil {
		return 0, nil, false
	}
	for _, k := range []string{name + "_num", name} {
		if v, ok := a.numbers[k]; ok {
			return v, a.source[k], true
		}
	}
	if s, ok := a.values[name].(string); ok {
		if v, ok := normalize.Value(s); ok {
			return v, a.source[name], true
		}
	}
	return 0, nil, false
}

// Value returns the first non-empty non-numeric value merged under name.
func (a *Aggregate) Value(name string) (any, *block.Block, bool) {
	if a == nil {
		return nil, nil, false
	}
	v, ok := a.values[name]
	if !ok {
		return nil, nil, false
	}
	return v, a.source[name], true
}

// Has reports whether anything was merged under name.
func (a *Aggregate) Has(name string) bool {
	if a == nil {
		return false
	}
	_, isNum := a.numbers[name]
	_, isVal := a.values[name]
	return isNum || isVal
}

// Keys returns every merged key in sorted order.
func (a *Aggregate) Keys() []string {
	if a == nil {
		return nil
	}
	keys := make([]string, 0, len(a.numbers)+len(a.values))
	for k := range a.numbers {
		keys = append(keys, k)
	}
	for k := range a.values {
		if _, dup := a.numbers[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
