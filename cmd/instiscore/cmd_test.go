package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"

	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/approval"
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/compliance"
	"github.com/idlab-discover/instiscore/internal/ingest"
	"github.com/idlab-discover/instiscore/internal/kpi"
	"github.com/idlab-discover/instiscore/internal/pipeline"
	"github.com/idlab-discover/instiscore/internal/rules"
	"github.com/idlab-discover/instiscore/internal/store"
	"github.com/idlab-discover/instiscore/internal/sufficiency"
	"github.com/idlab-discover/instiscore/internal/trend"
)

func fptr(v float64) *float64 { return &v }

func TestResolveLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", levelStandard, false},
		{" Debug ", levelDebug, false},
		{"quiet", levelQuiet, false},
		{"verbose", "", true},
	}
	for _, tt := range tests {
		got, err := resolveLogLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("resolveLogLevel(%q) error = %v", tt.in, err)
		}
		if tt.wantErr && !apperr.IsUser(err) {
			t.Fatalf("resolveLogLevel(%q) should return a user error", tt.in)
		}
		if got != tt.want {
			t.Fatalf("resolveLogLevel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanList(t *testing.T) {
	got := cleanList([]string{" a.json ", "", "  ", "b.yaml"})
	if len(got) != 2 || got[0] != "a.json" || got[1] != "b.yaml" {
		t.Fatalf("cleanList() = %v", got)
	}
}

func TestNormalizeOne(t *testing.T) {
	tests := []struct {
		in      string
		value   *float64
		unit    string
		inr     *float64
		hasYear bool
	}{
		{in: "4.5 LPA", value: fptr(4.5), unit: "lpa", inr: fptr(450000)},
		{in: "2 crore", value: fptr(20000000), unit: "inr", inr: fptr(20000000)},
		{in: "85%", value: fptr(85), unit: "percent"},
		{in: "N/A"},
		{in: "2023-24", value: fptr(2023), unit: "count", hasYear: true},
	}
	for _, tt := range tests {
		got := normalizeOne(tt.in)
		if (got.Value == nil) != (tt.value == nil) || (got.Value != nil && *got.Value != *tt.value) {
			t.Fatalf("normalizeOne(%q).Value = %v, want %v", tt.in, got.Value, tt.value)
		}
		if got.Unit != tt.unit {
			t.Fatalf("normalizeOne(%q).Unit = %q, want %q", tt.in, got.Unit, tt.unit)
		}
		if (got.INR == nil) != (tt.inr == nil) || (got.INR != nil && *got.INR != *tt.inr) {
			t.Fatalf("normalizeOne(%q).INR = %v, want %v", tt.in, got.INR, tt.inr)
		}
		if (got.Year != nil) != tt.hasYear {
			t.Fatalf("normalizeOne(%q).Year = %v", tt.in, got.Year)
		}
	}
}

func TestToBatchReport(t *testing.T) {
	res := &pipeline.Result{
		BatchID:        "b-1",
		Mode:           "aicte",
		Classification: approval.Classification{Category: approval.CategoryAICTE, Subtype: approval.SubtypeNew, Confidence: 0.75},
		Sufficiency: sufficiency.Result{
			Percentage: 40, PresentCount: 4, RequiredCount: 10,
			MissingBlocks: []string{"library"}, Color: sufficiency.ColorRed,
		},
		KPIs: kpi.Results{
			KPIs:    []kpi.Result{{ID: "fsr_score", Name: "FSR Score", Value: fptr(100)}},
			Overall: kpi.Result{ID: kpi.OverallScore, Name: "AICTE Overall Score", Value: fptr(92.5)},
		},
		Compliance: []compliance.Flag{{Concept: "fire_noc", Severity: compliance.SeverityHigh, Title: "Fire NOC", Reason: "missing"}},
		Blocks: []pipeline.BlockResult{{
			Record:         block.Record{BlockType: "faculty_information", Confidence: 0.9, IsOutdated: true},
			Evidence:       &block.Evidence{Snippet: "50 faculty", Page: 3},
			Representative: true,
		}},
		Readiness: approval.Readiness{
			ApprovalType: "aicte_new",
			Score:        50,
			Missing:      []approval.Document{{Key: "fire_noc"}},
		},
	}

	r := toBatchReport(res)
	if r.BatchID != "b-1" || r.Band != "red" || r.Present != 4 || r.Required != 10 {
		t.Fatalf("unexpected header fields: %+v", r)
	}
	if r.Classification != "aicte/new (0.75)" {
		t.Fatalf("Classification = %q", r.Classification)
	}
	if len(r.KPIs) != 1 || r.Overall.Name != "AICTE Overall Score" || *r.Overall.Value != 92.5 {
		t.Fatalf("unexpected KPIs: %+v %+v", r.KPIs, r.Overall)
	}
	if len(r.Flags) != 1 || r.Flags[0].Severity != "high" {
		t.Fatalf("unexpected flags: %+v", r.Flags)
	}
	if len(r.Blocks) != 1 || !r.Blocks[0].Outdated || r.Blocks[0].Page != 3 || r.Blocks[0].Evidence != "50 faculty" {
		t.Fatalf("unexpected blocks: %+v", r.Blocks)
	}
	if len(r.MissingDocuments) != 1 || r.MissingDocuments[0] != "fire_noc" {
		t.Fatalf("unexpected missing documents: %v", r.MissingDocuments)
	}

	res.Trends = trend.Report{
		Years:  []int{2023, 2024},
		Trends: []trend.Series{{KPI: "fsr_score", DataPoints: 2, Insight: "Stable (+0.0/year), very consistent (±0.0)"}, {KPI: "research_index"}},
	}
	r = toBatchReport(res)
	if len(r.Years) != 2 || len(r.Trends) != 2 || r.Trends[0].Name != "FSR Score" || r.Trends[1].Name != "research_index" {
		t.Fatalf("unexpected trends: %v %+v", r.Years, r.Trends)
	}
}

// resetInputs clears -i values left over from an earlier Execute.
func resetInputs(t *testing.T) {
	t.Helper()
	if err := scoreCmd.Flags().Lookup("input").Value.(pflag.SliceValue).Replace(nil); err != nil {
		t.Fatal(err)
	}
}

func TestApplyOverrides(t *testing.T) {
	rs, err := rules.Default()
	if err != nil {
		t.Fatal(err)
	}
	parse := func(payload string) *ingest.Batch {
		t.Helper()
		b, err := ingest.NewParser(rs).Parse([]byte(payload))
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		return b
	}

	// --mode ugc on an aicte-declared batch classified as a new UGC university
	derived := parse(`{"batch_id": "a", "mode": "aicte", "classification": "ugc_new"}`)
	applyOverrides([]*ingest.Batch{derived}, rules.UGC, false, false)
	if derived.Mode != rules.UGC || !derived.NewUniversity {
		t.Fatalf("mode=%s new=%v, want ugc and a new university", derived.Mode, derived.NewUniversity)
	}

	// an explicit --new-university=false wins over the classification
	explicit := parse(`{"batch_id": "b", "mode": "aicte", "classification": "ugc_new"}`)
	applyOverrides([]*ingest.Batch{explicit}, rules.UGC, false, true)
	if explicit.NewUniversity {
		t.Fatalf("explicit --new-university=false was overridden")
	}

	untouched := parse(`{"batch_id": "c", "mode": "aicte"}`)
	applyOverrides([]*ingest.Batch{untouched}, "", false, false)
	if untouched.Mode != rules.AICTE || untouched.NewUniversity {
		t.Fatalf("batch changed without overrides: mode=%s new=%v", untouched.Mode, untouched.NewUniversity)
	}
}

func TestScoreCommand_PlainSummaryAndOutput(t *testing.T) {
	resetInputs(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "batch.json")
	out := filepath.Join(dir, "result.json")
	payload := `{"batch_id": "cli-1", "mode": "aicte", "extraction": {"confidence": 0.9, "blocks": {"faculty_information": {"total_faculty": "50"}}}}`
	if err := os.WriteFile(in, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"score", "-i", in, "--plain-summary", "--output", out, "--log-level", "quiet"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("score failed: %v\n%s", err, stderr.String())
	}

	// quiet suppresses the report but still writes the output file
	if stdout.Len() != 0 {
		t.Fatalf("quiet run printed %q", stdout.String())
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	var res map[string]any
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if res["batch_id"] != "cli-1" {
		t.Fatalf("batch_id = %v", res["batch_id"])
	}
}

func TestScoreCommand_MissingInput(t *testing.T) {
	resetInputs(t)
	var stderr bytes.Buffer
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"score", "-i", filepath.Join(t.TempDir(), "nope.json"), "--log-level", "quiet", "--output", ""})
	err := rootCmd.Execute()
	if err == nil || !apperr.IsUser(err) {
		t.Fatalf("expected a user error, got %v", err)
	}
	if !strings.Contains(err.Error(), "nope.json") {
		t.Fatalf("error should name the file: %v", err)
	}
}

func TestSplitIDs(t *testing.T) {
	got := splitIDs([]string{"a,b", " c ", ",", "d"})
	if strings.Join(got, "|") != "a|b|c|d" {
		t.Fatalf("splitIDs = %v", got)
	}
}

func storedBatch(id, name string, placement, overall float64) *pipeline.Result {
	return &pipeline.Result{
		BatchID: id,
		Status:  pipeline.StatusCompleted,
		Mode:    rules.AICTE,
		Blocks: []pipeline.BlockResult{{Record: block.Record{
			BlockType: "institution_information",
			Data:      map[string]any{"institution_name": name},
		}}},
		Sufficiency: sufficiency.Result{Percentage: 50, MissingBlocks: []string{}},
		KPIs: kpi.Results{Mode: rules.AICTE,
			KPIs:    []kpi.Result{{ID: kpi.PlacementIndex, Name: "Placement Index", Value: fptr(placement)}},
			Overall: kpi.Result{ID: kpi.OverallScore, Name: "Overall Score", Value: fptr(overall)}},
		Compliance: []compliance.Flag{},
	}
}

func TestCompareCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range []*pipeline.Result{
		storedBatch("cmp-a", "Alpha Institute", 70, 80),
		storedBatch("cmp-b", "Beta College", 90, 75),
	} {
		if err := db.SaveResult(r); err != nil {
			t.Fatal(err)
		}
	}
	db.Close()

	run := func(args ...string) string {
		t.Helper()
		var stdout, stderr bytes.Buffer
		rootCmd.SetOut(&stdout)
		rootCmd.SetErr(&stderr)
		rootCmd.SetArgs(append([]string{"compare", "--db", path, "--log-level", "quiet", "--output", ""}, args...))
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("compare %v failed: %v\n%s", args, err, stderr.String())
		}
		return stdout.String()
	}

	out := run("--rank=false", "cmp-a,cmp-b", "cmp-gone")
	for _, w := range []string{"Comparison of 2 institutions", "Alpha Institute leads with an overall score of 80.0", "Excluded (1)", "cmp-gone"} {
		if !strings.Contains(out, w) {
			t.Errorf("compare output missing %q.\nGot:\n%s", w, out)
		}
	}

	out = run("--rank", "--by", "placement", "--top", "1", "cmp-a", "cmp-b")
	if !strings.Contains(out, "Top 1 by Placement Index") || !strings.Contains(out, "Beta College") || strings.Contains(out, "Alpha Institute") {
		t.Fatalf("unexpected ranking output:\n%s", out)
	}
}
