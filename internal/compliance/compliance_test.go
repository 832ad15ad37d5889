package compliance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/compliance"
	"github.com/idlab-discover/instiscore/internal/rules"
)

const fireTitle = "Missing or Invalid Fire NOC"

func newChecker(t *testing.T) (*compliance.Checker, *rules.RuleSet) {
	t.Helper()
	rs, err := rules.Default()
	require.NoError(t, err)
	return compliance.NewChecker(rs), rs
}

func safetyBlock(fields map[string]any, snippet string) *block.Block {
	b := block.New("safety_compliance_information", fields)
	if snippet != "" {
		b.Evidence = &block.Evidence{Snippet: snippet, Page: 1}
	}
	return b
}

func titled(flags []compliance.Flag, title string) []compliance.Flag {
	var out []compliance.Flag
	for _, f := range flags {
		if f.Title == title {
			out = append(out, f)
		}
	}
	return out
}

func TestCheck_FireNOCInEvidenceIsNotFlagged(t *testing.T) {
	c, _ := newChecker(t)
	b := safetyBlock(map[string]any{"safety_officer_appointed": "Yes"},
		"The institute holds a Fire Safety NOC valid till 31 March 2026.")

	flags := c.Check(rules.AICTE, []*block.Block{b})
	assert.Empty(t, titled(flags, fireTitle))
}

func TestCheck_NoFireSynonymGivesOneHighFlag(t *testing.T) {
	c, _ := newChecker(t)
	b := safetyBlock(map[string]any{"safety_officer_appointed": "Yes", "disaster_management_plan": "Available"},
		"Safety officer appointed. Disaster management plan reviewed annually.")

	flags := titled(c.Check(rules.AICTE, []*block.Block{b}), fireTitle)
	require.Len(t, flags, 1)
	assert.Equal(t, compliance.SeverityHigh, flags[0].Severity)
	assert.Equal(t, "fire_noc", flags[0].Concept)
}

func TestCheck_MissingSafetyBlockFlagsCertificates(t *testing.T) {
	c, _ := newChecker(t)
	faculty := block.New("faculty_information", map[string]any{"total_faculty": 96.0})

	flags := c.Check(rules.AICTE, []*block.Block{faculty})
	assert.Len(t, titled(flags, fireTitle), 1)
	assert.Len(t, titled(flags, "Missing Building Stability Certificate"), 1)
	// committees are only judged when their block exists
	assert.Empty(t, titled(flags, "Missing Mandatory Committees"))
}

func TestCheck_FieldNameMatch(t *testing.T) {
	c, _ := newChecker(t)
	b := safetyBlock(map[string]any{
		"fire_safety_certificate_raw":        "Available",
		"building_stability_certificate_raw": true,
	}, "")

	flags := c.Check(rules.AICTE, []*block.Block{b})
	assert.Empty(t, titled(flags, fireTitle))
	assert.Empty(t, titled(flags, "Missing Building Stability Certificate"))
}

func TestCheck_NegativeFieldValueDoesNotCount(t *testing.T) {
	c, _ := newChecker(t)
	b := safetyBlock(map[string]any{"fire_noc": "Not available", "safety_officer_appointed": "Yes"}, "")

	assert.Len(t, titled(c.Check(rules.AICTE, []*block.Block{b}), fireTitle), 1)
}

func TestCheck_SanitaryOnlyWhenExplicitlyExpired(t *testing.T) {
	c, _ := newChecker(t)
	const title = "Sanitary Certificate Expired"

	silent := safetyBlock(map[string]any{"fire_noc": "Yes"}, "Fire NOC valid.")
	assert.Empty(t, titled(c.Check(rules.AICTE, []*block.Block{silent}), title))

	valid := safetyBlock(map[string]any{"fire_noc": "Yes"}, "Sanitary certificate issued 2024.")
	assert.Empty(t, titled(c.Check(rules.AICTE, []*block.Block{valid}), title))

	expired := safetyBlock(map[string]any{"fire_noc": "Yes"}, "Sanitary certificate expired in 2022.")
	flags := titled(c.Check(rules.AICTE, []*block.Block{expired}), title)
	require.Len(t, flags, 1)
	assert.Equal(t, compliance.SeverityLow, flags[0].Severity)
}

func TestCheck_MandatoryCommittees(t *testing.T) {
	c, _ := newChecker(t)
	const title = "Missing Mandatory Committees"

	both := block.New("mandatory_committees_information", map[string]any{"anti_ragging": "Constituted", "icc": true})
	assert.Empty(t, titled(c.Check(rules.AICTE, []*block.Block{both}), title))

	onlyRagging := block.New("mandatory_committees_information", map[string]any{"anti_ragging_committee": "Constituted 2023"})
	flags := titled(c.Check(rules.AICTE, []*block.Block{onlyRagging}), title)
	require.Len(t, flags, 1)
	assert.Equal(t, "Required committees not found: ICC (Internal Complaints Committee)", flags[0].Reason)

	viaSnippet := block.New("mandatory_committees_information", map[string]any{"grievance_redressal": "Yes"})
	viaSnippet.Evidence = &block.Evidence{Snippet: "An Internal Complaints Committee and an Anti Ragging Committee are functional."}
	assert.Empty(t, titled(c.Check(rules.AICTE, []*block.Block{viaSnippet}), title))
}

func TestCheck_UGCFieldConcepts(t *testing.T) {
	c, _ := newChecker(t)
	blocks := []*block.Block{
		block.New("academic_governance_and_bodies", map[string]any{
			"board_of_governors": "Constituted",
			"academic_council":   "Constituted",
		}),
		block.New("iqac_quality_assurance", map[string]any{"iqac_established": false, "accreditation_status": "NAAC A"}),
		block.New("financial_information", map[string]any{"revenue": "12 crore"}),
	}

	flags := c.Check(rules.UGC, blocks)
	byTitle := map[string]compliance.Flag{}
	for _, f := range flags {
		byTitle[f.Title] = f
	}

	require.Contains(t, byTitle, "Missing Governance Bodies")
	assert.Equal(t, "Required governance bodies not found: Finance Committee (FC)", byTitle["Missing Governance Bodies"].Reason)
	assert.Contains(t, byTitle, "IQAC Not Established")
	assert.Equal(t, compliance.SeverityMedium, byTitle["Financial Information Missing"].Severity)
	// regulatory_compliance block absent: its concepts are not judged
	assert.NotContains(t, byTitle, "UGC Regulations 2018 Non-Compliance")
	assert.NotContains(t, byTitle, "Statutory Committees Missing")
}

func TestCheck_NoUsableBlocks(t *testing.T) {
	c, _ := newChecker(t)
	invalid := safetyBlock(map[string]any{"x": "y"}, "")
	invalid.Flags.IsInvalid = true

	for _, blocks := range [][]*block.Block{nil, {invalid}, {block.New("faculty_information", nil)}} {
		flags := c.Check(rules.AICTE, blocks)
		assert.NotNil(t, flags)
		assert.Empty(t, flags)
	}
}

func TestCheck_IsRecomputedNotAccumulated(t *testing.T) {
	c, _ := newChecker(t)
	b := safetyBlock(map[string]any{"safety_officer_appointed": "Yes"}, "")
	first := c.Check(rules.AICTE, []*block.Block{b})
	second := c.Check(rules.AICTE, []*block.Block{b})
	assert.Equal(t, first, second)
}

func TestMatcher(t *testing.T) {
	rs, err := rules.Default()
	require.NoError(t, err)
	m := compliance.NewMatcher(rs.Policy.Matching)

	assert.True(t, m.Contains("Fire Safety NOC valid", "fire safety noc"))
	assert.True(t, m.Contains("the icc meets monthly", "ICC"))
	assert.False(t, m.Contains("officers of the unit", "ICC"), "short synonyms need a whole word")

	assert.True(t, m.NameMatches("fire_noc", "Fire NOC certificate"))
	assert.True(t, m.NameMatches("fire_safety_certificate_raw", "Fire Safety Certificate"))

	assert.True(t, m.TokenOverlap("the structural stability audit of the building", "Building Stability Certificate"))
	assert.False(t, m.TokenOverlap("certificate of the committee", "Fire Safety Certificate"), "ignored tokens do not count")

	assert.True(t, m.Similar("Fire Safty Certficate", "Fire Safety Certificate"))
	assert.False(t, m.Similar("Library", "Fire Safety Certificate"))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, compliance.Similarity("", ""))
	assert.Equal(t, 1.0, compliance.Similarity("abc", "abc"))
	assert.Equal(t, 0.0, compliance.Similarity("abc", "xyz"))
	assert.InDelta(t, 0.5, compliance.Similarity("abcd", "abxy"), 1e-9)
}
