// Package approval classifies the approval a batch is filed for and checks
// the documents that approval requires.
package approval

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/idlab-discover/instiscore/internal/rules"
)

type Category string

const (
	CategoryAICTE   Category = "aicte"
	CategoryUGC     Category = "ugc"
	CategoryMixed   Category = "mixed"
	CategoryUnknown Category = "unknown"
)

type Subtype string

const (
	SubtypeNew     Subtype = "new"
	SubtypeRenewal Subtype = "renewal"
	SubtypeUnknown Subtype = "unknown"
)

// Classification is the approval category and subtype of a batch. It is
// built once, either by Parse from an extractor payload or by Classify from
// document text, and passed around by value afterwards.
type Classification struct {
	Category   Category `json:"category"`
	Subtype    Subtype  `json:"subtype"`
	Confidence float64  `json:"confidence"`
	Signals    []string `json:"signals"`
}

// Unknown is the classification used when nothing could be determined.
func Unknown(signal string) Classification {
	c := Classification{Category: CategoryUnknown, Subtype: SubtypeUnknown, Signals: []string{}}
	if signal != "" {
		c.Signals = append(c.Signals, signal)
	}
	return c
}

// Parse builds a classification from a payload value. Accepted shapes are a
// string ("aicte_new", "ugc-renewal", "aicte") or an object with category,
// subtype, confidence and signals keys. Anything else is Unknown.
func Parse(v gjson.Result) Classification {
	switch {
	case !v.Exists() || v.Type == gjson.Null:
		return Unknown("")
	case v.Type == gjson.String:
		return parseString(v.String())
	case v.IsObject():
		return parseObject(v)
	}
	logf("unrecognised classification value %s", v.Raw)
	return Unknown(fmt.Sprintf("Unknown classification format: %s", v.Raw))
}

func parseString(raw string) Classification {
	s := strings.ToLower(strings.TrimSpace(raw))
	cat, sub, split := strings.Cut(strings.ReplaceAll(s, "-", "_"), "_")
	category, ok := toCategory(cat)
	if !ok || category == CategoryUnknown {
		return Unknown(fmt.Sprintf("Unknown classification format: %q", raw))
	}
	if split {
		if subtype, ok := toSubtype(sub); ok && subtype != SubtypeUnknown {
			return Classification{Category: category, Subtype: subtype, Confidence: 0.5,
				Signals: []string{"Parsed from string: " + raw}}
		}
	}
	return Classification{Category: category, Subtype: SubtypeUnknown, Confidence: 0.4,
		Signals: []string{"Parsed category from string: " + raw}}
}

func parseObject(v gjson.Result) Classification {
	c := Unknown("")
	if cat, ok := toCategory(strings.ToLower(v.Get("category").String())); ok {
		c.Category = cat
	}
	if sub, ok := toSubtype(strings.ToLower(v.Get("subtype").String())); ok {
		c.Subtype = sub
	}
	if conf := v.Get("confidence"); conf.Type == gjson.Number {
		c.Confidence = min(max(conf.Float(), 0), 1)
	}
	for _, s := range v.Get("signals").Array() {
		if s.Type == gjson.String {
			c.Signals = append(c.Signals, s.String())
		}
	}
	return c
}

func toCategory(s string) (Category, bool) {
	switch c := Category(s); c {
	case CategoryAICTE, CategoryUGC, CategoryMixed, CategoryUnknown:
		return c, true
	}
	return CategoryUnknown, false
}

func toSubtype(s string) (Subtype, bool) {
	switch t := Subtype(s); t {
	case SubtypeNew, SubtypeRenewal, SubtypeUnknown:
		return t, true
	}
	return SubtypeUnknown, false
}

// Mode is the regulatory mode a batch is scored under when it does not
// declare one: UGC for UGC approvals, AICTE otherwise.
func (c Classification) Mode() rules.Mode {
	if c.Category == CategoryUGC {
		return rules.UGC
	}
	return rules.AICTE
}

// NewUniversity reports whether the classification implies a new UGC
// university, which adds the future academic plan block.
func (c Classification) NewUniversity() bool {
	return c.Category == CategoryUGC && c.Subtype == SubtypeNew
}

// ApprovalType is the checklist key: aicte_new, aicte_renewal, ugc_new or
// ugc_renewal. Unknown subtypes use the new-approval checklist.
func (c Classification) ApprovalType() string {
	body := "aicte"
	if c.Category == CategoryUGC {
		body = "ugc"
	}
	if c.Subtype == SubtypeRenewal {
		return body + "_renewal"
	}
	return body + "_new"
}

func (c Classification) String() string {
	return fmt.Sprintf("%s/%s (%.2f)", c.Category, c.Subtype, c.Confidence)
}
