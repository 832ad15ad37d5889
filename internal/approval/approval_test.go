package approval_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/idlab-discover/instiscore/internal/approval"
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/rules"
)

func ruleSet(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.Default()
	require.NoError(t, err)
	return rs
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		category approval.Category
		subtype  approval.Subtype
		conf     float64
	}{
		{"underscore", `{"c": "aicte_new"}`, approval.CategoryAICTE, approval.SubtypeNew, 0.5},
		{"hyphen", `{"c": "UGC-Renewal"}`, approval.CategoryUGC, approval.SubtypeRenewal, 0.5},
		{"category only", `{"c": "aicte"}`, approval.CategoryAICTE, approval.SubtypeUnknown, 0.4},
		{"bad subtype", `{"c": "ugc_sometime"}`, approval.CategoryUGC, approval.SubtypeUnknown, 0.4},
		{"garbage string", `{"c": "nmc"}`, approval.CategoryUnknown, approval.SubtypeUnknown, 0},
		{"null", `{"c": null}`, approval.CategoryUnknown, approval.SubtypeUnknown, 0},
		{"absent", `{}`, approval.CategoryUnknown, approval.SubtypeUnknown, 0},
		{"number", `{"c": 3}`, approval.CategoryUnknown, approval.SubtypeUnknown, 0},
		{"object", `{"c": {"category": "mixed", "subtype": "renewal", "confidence": 0.8, "signals": ["a", 1, "b"]}}`,
			approval.CategoryMixed, approval.SubtypeRenewal, 0.8},
		{"object invalid values", `{"c": {"category": "state", "subtype": "later", "confidence": 7}}`,
			approval.CategoryUnknown, approval.SubtypeUnknown, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := approval.Parse(gjson.Get(tt.payload, "c"))
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.subtype, got.Subtype)
			assert.InDelta(t, tt.conf, got.Confidence, 1e-9)
			assert.NotNil(t, got.Signals)
		})
	}

	obj := approval.Parse(gjson.Get(`{"c": {"category": "ugc", "signals": ["a", 1, "b"]}}`, "c"))
	assert.Equal(t, []string{"a", "b"}, obj.Signals)
}

func TestClassify(t *testing.T) {
	c := approval.NewClassifier(ruleSet(t))

	t.Run("empty text", func(t *testing.T) {
		got := c.Classify("   ")
		assert.Equal(t, approval.CategoryUnknown, got.Category)
		assert.Equal(t, []string{"No text content"}, got.Signals)
		assert.Zero(t, got.Confidence)
	})

	t.Run("aicte new", func(t *testing.T) {
		got := c.Classify("Application to AICTE for fresh approval of a new college of engineering offering MBA.")
		assert.Equal(t, approval.CategoryAICTE, got.Category)
		assert.Equal(t, approval.SubtypeNew, got.Subtype)
		assert.InDelta(t, 0.75, got.Confidence, 1e-9)
	})

	t.Run("ugc renewal", func(t *testing.T) {
		got := c.Classify("UGC renewal request. NAAC grade retained; annual report attached.")
		assert.Equal(t, approval.CategoryUGC, got.Category)
		assert.Equal(t, approval.SubtypeRenewal, got.Subtype)
		assert.InDelta(t, 0.6, got.Confidence, 1e-9)
	})

	t.Run("mixed", func(t *testing.T) {
		got := c.Classify("AICTE and UGC")
		assert.Equal(t, approval.CategoryMixed, got.Category)
		assert.Equal(t, approval.SubtypeUnknown, got.Subtype)
		assert.InDelta(t, 0.6, got.Confidence, 1e-9)
	})

	t.Run("year references break a tie", func(t *testing.T) {
		got := c.Classify("Data for 2022-23 and 2023-2024 submitted to AICTE.")
		assert.Equal(t, approval.SubtypeRenewal, got.Subtype)
		assert.Contains(t, got.Signals, "Multiple year references found: 2")
		assert.InDelta(t, 0.4, got.Confidence, 1e-9)
	})

	t.Run("no keywords", func(t *testing.T) {
		got := c.Classify("Annual sports day schedule.")
		assert.Equal(t, approval.CategoryUnknown, got.Category)
		assert.Equal(t, approval.SubtypeUnknown, got.Subtype)
	})
}

func TestClassify_ConfidenceLadder(t *testing.T) {
	c := approval.NewClassifier(ruleSet(t))
	text := "aicte all india council technical education nba national board of accreditation " +
		"engineering pharmacy management mba mca polytechnic technical institution"
	got := c.Classify(text)
	assert.Equal(t, approval.CategoryAICTE, got.Category)
	assert.InDelta(t, 0.9, got.Confidence, 1e-9)
}

func TestModeDerivation(t *testing.T) {
	tests := []struct {
		c       approval.Classification
		mode    rules.Mode
		newUni  bool
		checkID string
	}{
		{approval.Classification{Category: approval.CategoryAICTE, Subtype: approval.SubtypeNew}, rules.AICTE, false, "aicte_new"},
		{approval.Classification{Category: approval.CategoryMixed, Subtype: approval.SubtypeRenewal}, rules.AICTE, false, "aicte_renewal"},
		{approval.Unknown(""), rules.AICTE, false, "aicte_new"},
		{approval.Classification{Category: approval.CategoryUGC, Subtype: approval.SubtypeNew}, rules.UGC, true, "ugc_new"},
		{approval.Classification{Category: approval.CategoryUGC, Subtype: approval.SubtypeRenewal}, rules.UGC, false, "ugc_renewal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.mode, tt.c.Mode(), tt.checkID)
		assert.Equal(t, tt.newUni, tt.c.NewUniversity(), tt.checkID)
		assert.Equal(t, tt.checkID, tt.c.ApprovalType())
	}
}

func TestCheckReadiness(t *testing.T) {
	rs := ruleSet(t)
	faculty := block.New("faculty_information", map[string]any{"total_faculty": 96.0})
	faculty.Evidence = &block.Evidence{Snippet: "96 full-time faculty", Page: 2}
	blocks := []*block.Block{
		block.New("institution_info", map[string]any{"institution_name": "ABC Institute of Technology"}),
		faculty,
		block.New("infrastructure_information", map[string]any{"built_up_area": "12000 sqm"}),
		block.New("safety_compliance_information", map[string]any{"fire_noc": ""}),
	}

	r := approval.CheckReadiness(rs, approval.Classification{Category: approval.CategoryAICTE, Subtype: approval.SubtypeNew}, blocks)
	assert.Equal(t, "aicte_new", r.ApprovalType)
	require.Len(t, r.Present, 3)
	require.Len(t, r.Missing, 3)
	assert.Equal(t, 50.0, r.Score)

	assert.Equal(t, "faculty_details", r.Present[1].Key)
	assert.Equal(t, "total_faculty", r.Present[1].Field)
	require.NotNil(t, r.Present[1].Evidence)
	assert.Equal(t, 2, r.Present[1].Evidence.Page)

	var missing []string
	for _, d := range r.Missing {
		missing = append(missing, d.Key)
		assert.NotEmpty(t, d.Reason)
	}
	assert.Equal(t, []string{"lab_equipment", "fire_noc", "aicte_approval"}, missing)
}

func TestCheckReadiness_Rounding(t *testing.T) {
	rs := ruleSet(t)
	blocks := []*block.Block{block.New("institution_info", map[string]any{"university_name": "State University"})}

	r := approval.CheckReadiness(rs, approval.Classification{Category: approval.CategoryUGC, Subtype: approval.SubtypeRenewal}, blocks)
	assert.Equal(t, "ugc_renewal", r.ApprovalType)
	assert.Equal(t, 33.33, r.Score)

	none := approval.CheckReadiness(rs, approval.Classification{Category: approval.CategoryUGC, Subtype: approval.SubtypeNew}, nil)
	assert.Zero(t, none.Score)
	assert.Len(t, none.Missing, 4)
	assert.NotNil(t, none.Present)
}
