package approval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/idlab-discover/instiscore/internal/rules"
)

// academicYear matches references such as "2022-23" or "2021-2022".
var academicYear = regexp.MustCompile(`20[1-2][0-9][-–](?:20[1-2][0-9]|[0-9]{2})`)

// Classifier assigns a classification from keyword counts in document text.
type Classifier struct {
	keywords rules.ApprovalRules
}

func NewClassifier(rs *rules.RuleSet) *Classifier {
	return &Classifier{keywords: rs.Approval}
}

// Classify counts the distinct AICTE, UGC, new-approval and renewal
// keywords mentioned in text.
func (c *Classifier) Classify(text string) Classification {
	if strings.TrimSpace(text) == "" {
		return Unknown("No text content")
	}
	lower := strings.ToLower(text)
	kw := c.keywords.Keywords
	aicte := countKeywords(lower, kw.AICTE)
	ugc := countKeywords(lower, kw.UGC)
	fresh := countKeywords(lower, kw.New)
	renewal := countKeywords(lower, kw.Renewal)

	out := Classification{Signals: []string{}}
	switch {
	case aicte > 2*ugc:
		out.Category = CategoryAICTE
		out.Signals = append(out.Signals, fmt.Sprintf("AICTE keywords: %d", aicte))
	case ugc > 2*aicte:
		out.Category = CategoryUGC
		out.Signals = append(out.Signals, fmt.Sprintf("UGC keywords: %d", ugc))
	case aicte > 0 && ugc > 0:
		out.Category = CategoryMixed
		out.Signals = append(out.Signals, fmt.Sprintf("Both AICTE (%d) and UGC (%d) keywords found", aicte, ugc))
	default:
		out.Category = CategoryUnknown
		out.Signals = append(out.Signals, "No regulatory body keywords found")
	}

	switch {
	case fresh > renewal:
		out.Subtype = SubtypeNew
		out.Signals = append(out.Signals, fmt.Sprintf("New approval signals: %d", fresh))
	case renewal > fresh:
		out.Subtype = SubtypeRenewal
		out.Signals = append(out.Signals, fmt.Sprintf("Renewal signals: %d", renewal))
	default:
		if years := academicYear.FindAllString(text, -1); len(years) >= 2 {
			out.Subtype = SubtypeRenewal
			out.Signals = append(out.Signals, fmt.Sprintf("Multiple year references found: %d", len(years)))
		} else {
			out.Subtype = SubtypeUnknown
			out.Signals = append(out.Signals, "Could not determine new/renewal")
		}
	}

	out.Confidence = confidence(aicte + ugc + fresh + renewal)
	logf("classified as %s", out)
	return out
}

func countKeywords(text string, keywords []string) int {
	n := 0
	for _, k := range keywords {
		if k != "" && strings.Contains(text, strings.ToLower(k)) {
			n++
		}
	}
	return n
}

func confidence(signals int) float64 {
	switch {
	case signals >= 10:
		return 0.9
	case signals >= 5:
		return 0.75
	case signals >= 2:
		return 0.6
	}
	return 0.4
}
