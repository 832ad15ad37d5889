// Package block defines the extracted information block and the additive
// enrichment pass that derives canonical numeric values from raw fields.
package block

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/idlab-discover/instiscore/internal/normalize"
)

// Evidence is a weak back-reference to the text that supports a block.
type Evidence struct {
	Snippet   string `json:"snippet"`
	Page      int    `json:"page"`
	SourceDoc string `json:"source_doc,omitempty"`
}

type Flags struct {
	IsOutdated   bool `json:"is_outdated"`
	IsLowQuality bool `json:"is_low_quality"`
	IsInvalid    bool `json:"is_invalid"`
}

// Block is one extracted unit of institutional information.
//
// Fields holds the raw extracted values and is never rewritten. Derived
// holds the canonical numbers computed from them, keyed by their output
// name (for example "placement_rate_num" or "parsed_year").
type Block struct {
	Type    string
	Fields  map[string]any
	Derived map[string]float64

	// ExtractionConfidence is what the extractor reported, nil when absent.
	ExtractionConfidence *float64
	// Confidence is the blended effective confidence in [0,1].
	Confidence float64

	Evidence  *Evidence
	Flags     Flags
	Notes     []string
	SourceDoc string
}

// New returns a block with initialized maps.
func New(blockType string, fields map[string]any) *Block {
	if fields == nil {
		fields = map[string]any{}
	}
	return &Block{Type: blockType, Fields: fields, Derived: map[string]float64{}}
}

// Empty reports whether the block carries no present field at all.
func (b *Block) Empty() bool {
	if b == nil {
		return true
	}
	for k, v := range b.Fields {
		if k != "evidence" && Present(v) {
			return false
		}
	}
	return len(b.Derived) == 0
}

// Value returns the raw value of name when it is present.
func (b *Block) Value(name string) (any, bool) {
	v, ok := b.Fields[name]
	if !ok || !Present(v) {
		return nil, false
	}
	return v, true
}

// Number resolves name to a canonical number: the derived "<name>_num",
// then a derived value stored under name itself, then a raw JSON number.
func (b *Block) Number(name string) (float64, bool) {
	if v, ok := b.Derived[name+"_num"]; ok {
		return v, true
	}
	if v, ok := b.Derived[name]; ok {
		return v, true
	}
	switch x := b.Fields[name].(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// FieldNames returns the raw field names in sorted order.
func (b *Block) FieldNames() []string {
	names := make([]string, 0, len(b.Fields))
	for k := range b.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Data merges raw fields, derived values and evidence into the flat
// output representation of the block.
func (b *Block) Data() map[string]any {
	out := make(map[string]any, len(b.Fields)+len(b.Derived)+1)
	for k, v := range b.Fields {
		out[k] = v
	}
	for k, v := range b.Derived {
		out[k] = v
	}
	if b.Evidence != nil {
		out["evidence"] = map[string]any{"snippet": b.Evidence.Snippet, "page": b.Evidence.Page}
	}
	return out
}

// Text flattens the evidence snippet and all string field values into one
// lower-cased string for keyword scanning.
func (b *Block) Text() string {
	var sb strings.Builder
	if b.Evidence != nil {
		sb.WriteString(b.Evidence.Snippet)
	}
	for _, k := range b.FieldNames() {
		if s, ok := b.Fields[k].(string); ok {
			sb.WriteByte(' ')
			sb.WriteString(s)
		}
	}
	return strings.ToLower(sb.String())
}

// Present reports whether v carries information: not nil, not an empty or
// placeholder string, not an empty list or map.
func Present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return !normalize.IsNullish(x)
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	}
	return true
}

// Truthy is Present minus explicit negatives: false, zero and strings such
// as "no" or "not established".
func Truthy(v any) bool {
	if !Present(v) {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		switch s {
		case "no", "false", "0", "absent", "missing", "not available", "not established", "not constituted", "pending":
			return false
		}
		return !strings.HasPrefix(s, "not ")
	}
	return true
}

// Record is the stored/serialized form of a block.
type Record struct {
	BlockType            string         `json:"block_type"`
	Data                 map[string]any `json:"data"`
	Confidence           float64        `json:"confidence"`
	ExtractionConfidence *float64       `json:"extraction_confidence"`
	IsOutdated           bool           `json:"is_outdated"`
	IsLowQuality         bool           `json:"is_low_quality"`
	IsInvalid            bool           `json:"is_invalid"`
	SourceDoc            string         `json:"source_doc,omitempty"`
	Notes                []string       `json:"notes,omitempty"`
}

func (b *Block) Record() Record {
	return Record{
		BlockType:            b.Type,
		Data:                 b.Data(),
		Confidence:           b.Confidence,
		ExtractionConfidence: b.ExtractionConfidence,
		IsOutdated:           b.Flags.IsOutdated,
		IsLowQuality:         b.Flags.IsLowQuality,
		IsInvalid:            b.Flags.IsInvalid,
		SourceDoc:            b.SourceDoc,
		Notes:                b.Notes,
	}
}
