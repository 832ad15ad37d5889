package evidence_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/evidence"
	"github.com/idlab-discover/instiscore/internal/rules"
)

const page1 = "Institute Profile. The institute was established in 2009 and is approved by AICTE."
const page2 = "Faculty Details. As per the mandatory disclosure submitted for the academic year 2024-25, the institute has 96 full-time faculty members across departments."
const page3 = "Safety. Fire Safety NOC valid till March 2026 issued by the district fire officer."

func sampleDoc() evidence.Document {
	return evidence.Document{
		Text:      page1 + "\n" + page2 + "\n" + page3,
		Pages:     map[int]string{1: page1, 2: page2, 3: page3},
		Kind:      evidence.KindPDF,
		SourceDoc: "mandatory_disclosure.pdf",
	}
}

func TestFindSnippet_Exact(t *testing.T) {
	snippet, strategy := evidence.FindSnippet("96 full-time", sampleDoc().Text)
	assert.Equal(t, evidence.StrategyExact, strategy)
	assert.Contains(t, snippet, "96 full-time faculty")
}

func TestFindSnippet_CaseInsensitive(t *testing.T) {
	snippet, strategy := evidence.FindSnippet("FIRE SAFETY NOC", sampleDoc().Text)
	assert.Equal(t, evidence.StrategyCaseInsensitive, strategy)
	assert.Contains(t, snippet, "Fire Safety NOC valid")
}

func TestFindSnippet_FuzzyTokens(t *testing.T) {
	snippet, strategy := evidence.FindSnippet("district officer certificate", sampleDoc().Text)
	assert.Equal(t, evidence.StrategyFuzzy, strategy)
	assert.Contains(t, snippet, "district fire officer")
}

func TestFindSnippet_WindowBounds(t *testing.T) {
	text := strings.Repeat("a", 500) + "NEEDLE" + strings.Repeat("b", 500)
	snippet, strategy := evidence.FindSnippet("NEEDLE", text)
	require.Equal(t, evidence.StrategyExact, strategy)
	assert.Len(t, snippet, 100+len("NEEDLE")+200)
	assert.True(t, strings.HasPrefix(snippet, strings.Repeat("a", 100)+"NEEDLE"))
}

func TestFindSnippet_FallbackAndEmpty(t *testing.T) {
	text := strings.Repeat("x", 300)
	snippet, strategy := evidence.FindSnippet("zz", text)
	assert.Equal(t, evidence.StrategyFallback, strategy)
	assert.Len(t, snippet, 200)

	snippet, strategy = evidence.FindSnippet("anything", "")
	assert.Equal(t, evidence.StrategyNone, strategy)
	assert.Empty(t, snippet)
}

func TestFindSnippet_MultibyteWindowStaysValid(t *testing.T) {
	text := strings.Repeat("₹", 80) + " tuition 85000 " + strings.Repeat("₹", 120)
	snippet, _ := evidence.FindSnippet("85000", text)
	assert.True(t, strings.Contains(snippet, "85000"))
	assert.True(t, strings.ToValidUTF8(snippet, "?") == snippet, "snippet must be valid UTF-8")
}

func TestResolvePage(t *testing.T) {
	doc := sampleDoc()

	assert.Equal(t, 2, evidence.ResolvePage("96 full-time faculty", doc))
	// prefix match when the snippet runs past the page boundary
	assert.Equal(t, 3, evidence.ResolvePage("fire safety noc valid till March 2026 issued by the district fire officer. Appendix follows", doc))
	assert.Equal(t, 1, evidence.ResolvePage("text that is nowhere in the document at all", doc))
	assert.Equal(t, 1, evidence.ResolvePage("", doc))
}

func TestResolvePage_SectionHeadersOnlyForPDF(t *testing.T) {
	doc := evidence.Document{
		Kind:     evidence.KindPDF,
		Sections: []evidence.Section{{Page: 7, Header: "Placement Statistics 2023-24"}},
	}
	assert.Equal(t, 7, evidence.ResolvePage("Summary: Placement Statistics 2023-24 show 84% placed", doc))

	doc.Kind = evidence.KindSpreadsheet
	assert.Equal(t, 1, evidence.ResolvePage("Summary: Placement Statistics 2023-24 show 84% placed", doc))
}

func TestLocate_Number(t *testing.T) {
	m := evidence.Locate(96.0, sampleDoc())
	assert.True(t, m.Found())
	assert.Equal(t, 2, m.Page)
}

func TestAttach_UsesRepresentativeValue(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	spec, ok := rs.Block("faculty_information")
	require.True(t, ok)

	b := block.New("faculty_information", map[string]any{
		"professors":    0.0,
		"total_faculty": 96.0,
		"phd_faculty":   "41",
	})
	m := evidence.Attach(b, spec, sampleDoc())

	require.NotNil(t, b.Evidence)
	assert.Equal(t, evidence.StrategyExact, m.Strategy)
	assert.Equal(t, 2, b.Evidence.Page)
	assert.Equal(t, "mandatory_disclosure.pdf", b.Evidence.SourceDoc)
}

func TestAttach_KeepsExtractorEvidence(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	spec, _ := rs.Block("safety_compliance_information")

	b := block.New("safety_compliance_information", map[string]any{
		"fire_safety_certificate_raw": "Available",
		"evidence":                    map[string]any{"snippet": "Fire Safety NOC valid till March 2026"},
	})
	evidence.Attach(b, spec, sampleDoc())

	require.NotNil(t, b.Evidence)
	assert.Equal(t, "Fire Safety NOC valid till March 2026", b.Evidence.Snippet)
	assert.Equal(t, 3, b.Evidence.Page)
}

func TestRepresentativeValue(t *testing.T) {
	spec := rules.BlockSpec{Required: []string{"a"}, Optional: []string{"b"}}

	tests := []struct {
		name   string
		fields map[string]any
		want   any
	}{
		{"required first", map[string]any{"a": "x", "b": "y"}, "x"},
		{"skips zero and bool", map[string]any{"a": 0.0, "b": true, "c": 12.0}, 12.0},
		{"skips placeholders", map[string]any{"a": "N/A", "z": "found"}, "found"},
		{"unlisted fields sorted", map[string]any{"m": "second", "c": "first"}, "first"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := evidence.RepresentativeValue(block.New("t", tt.fields), spec)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := evidence.RepresentativeValue(block.New("t", map[string]any{"a": nil}), spec)
	assert.False(t, ok)
}
