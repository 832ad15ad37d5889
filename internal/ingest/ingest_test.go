package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/idlab-discover/instiscore/internal/approval"
	"github.com/idlab-discover/instiscore/internal/evidence"
	"github.com/idlab-discover/instiscore/internal/rules"
)

const samplePayload = `{
  "batch_id": "b-1",
  "source_doc": "mandatory_disclosure.pdf",
  "classification": "aicte_renewal",
  "extraction": {
    "confidence": 0.8,
    "blocks": {
      "faculty_information": {"total_faculty": "96", "confidence": 0.95},
      "placement": [{"placement_rate": "84%"}, {"placement_rate": "88%"}, "junk"],
      "Fire Safety": {"fire_noc": "Available"},
      "zzqx": {"x": 1}
    }
  },
  "document": {
    "full_context_text": "Faculty and placement details for 2023-24.",
    "page_map": {"1": "Cover", "2": "Faculty", "x": "ignored"},
    "kind": "PDF",
    "sections": [{"page": 2, "header": "Faculty Details"}]
  }
}`

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("rules.Default: %v", err)
	}
	return NewParser(rs)
}

func TestParse_Payload(t *testing.T) {
	b, err := newTestParser(t).Parse([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if b.ID != "b-1" || b.SourceDoc != "mandatory_disclosure.pdf" {
		t.Fatalf("unexpected identity: %q %q", b.ID, b.SourceDoc)
	}
	if b.Mode != rules.AICTE || b.ModeDeclared || b.NewUniversity {
		t.Fatalf("mode = %s declared=%v new=%v, want derived aicte", b.Mode, b.ModeDeclared, b.NewUniversity)
	}
	if b.Classification.Category != approval.CategoryAICTE || b.Classification.Subtype != approval.SubtypeRenewal {
		t.Fatalf("classification = %+v", b.Classification)
	}

	wantTypes := []string{"faculty_information", "placement_information", "placement_information", "safety_compliance_information"}
	if len(b.Blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks, want %d", len(b.Blocks), len(wantTypes))
	}
	for i, want := range wantTypes {
		if b.Blocks[i].Type != want {
			t.Fatalf("block %d type = %s, want %s", i, b.Blocks[i].Type, want)
		}
		if b.Blocks[i].SourceDoc != "mandatory_disclosure.pdf" {
			t.Fatalf("block %d source doc = %q", i, b.Blocks[i].SourceDoc)
		}
	}

	faculty := b.Blocks[0]
	if faculty.ExtractionConfidence == nil || *faculty.ExtractionConfidence != 0.95 {
		t.Fatalf("faculty confidence = %v, want 0.95", faculty.ExtractionConfidence)
	}
	if _, ok := faculty.Fields["confidence"]; ok {
		t.Fatalf("confidence must not remain a field")
	}
	if faculty.Fields["total_faculty"] != "96" {
		t.Fatalf("total_faculty = %v", faculty.Fields["total_faculty"])
	}
	if c := b.Blocks[1].ExtractionConfidence; c == nil || *c != 0.8 {
		t.Fatalf("placement confidence = %v, want payload default 0.8", c)
	}
	if b.Blocks[2].Fields["placement_rate"] != "88%" {
		t.Fatalf("second candidate = %v", b.Blocks[2].Fields)
	}

	if len(b.Dropped) != 1 || b.Dropped[0] != "zzqx" {
		t.Fatalf("dropped = %v", b.Dropped)
	}

	doc := b.Document
	if doc.Kind != evidence.KindPDF || len(doc.Pages) != 2 || doc.Pages[2] != "Faculty" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Page != 2 {
		t.Fatalf("sections = %+v", doc.Sections)
	}
	if doc.SourceDoc != "mandatory_disclosure.pdf" {
		t.Fatalf("document source = %q", doc.SourceDoc)
	}
}

func TestParse_ClassifiesDocumentTextWhenUndeclared(t *testing.T) {
	payload := `{"mode": "UGC", "document": {"full_context_text": "Proposal for establishment of a new university under UGC."}}`
	b, err := newTestParser(t).Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.Mode != rules.UGC || !b.ModeDeclared {
		t.Fatalf("mode = %s declared=%v", b.Mode, b.ModeDeclared)
	}
	if b.Classification.Category != approval.CategoryUGC || b.Classification.Subtype != approval.SubtypeNew {
		t.Fatalf("classification = %+v", b.Classification)
	}
	if !b.NewUniversity {
		t.Fatalf("new university should follow a ugc/new classification")
	}
	if len(b.ID) != 36 {
		t.Fatalf("expected generated uuid, got %q", b.ID)
	}
	if b.Document.Kind != evidence.KindPDF {
		t.Fatalf("default kind = %q", b.Document.Kind)
	}
}

func TestParse_ExplicitNewUniversityWins(t *testing.T) {
	payload := `{"classification": "ugc_new", "new_university": false}`
	b, err := newTestParser(t).Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.Mode != rules.UGC || b.NewUniversity {
		t.Fatalf("mode = %s new=%v, want ugc and false", b.Mode, b.NewUniversity)
	}
}

func TestSetMode_RederivesNewUniversity(t *testing.T) {
	payload := `{"mode": "aicte", "classification": "ugc_new"}`
	b, err := newTestParser(t).Parse([]byte(payload))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if b.NewUniversity {
		t.Fatalf("aicte batch must not be a new university")
	}

	b.SetMode(rules.UGC)
	if b.Mode != rules.UGC || !b.ModeDeclared || !b.NewUniversity {
		t.Fatalf("after SetMode(ugc): mode=%s declared=%v new=%v", b.Mode, b.ModeDeclared, b.NewUniversity)
	}
	b.SetMode(rules.AICTE)
	if b.NewUniversity {
		t.Fatalf("after SetMode(aicte): new university still set")
	}

	b.SetNewUniversity(false)
	b.SetMode(rules.UGC)
	if b.NewUniversity {
		t.Fatalf("a declared new-university flag must survive SetMode")
	}
}

func TestParse_Errors(t *testing.T) {
	p := newTestParser(t)
	for _, payload := range []string{`{`, `[1, 2]`, `"aicte"`} {
		if _, err := p.Parse([]byte(payload)); !errors.Is(err, ErrInvalidPayload) {
			t.Fatalf("Parse(%s) error = %v, want ErrInvalidPayload", payload, err)
		}
	}
	if _, err := p.Parse([]byte(`{"mode": "nmc"}`)); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestLoad_YAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "batch.yaml")
	content := "mode: aicte\nextraction:\n  blocks:\n    faculty:\n      total_faculty: 40\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	b, err := newTestParser(t).Load(p, "auto")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(b.Blocks) != 1 || b.Blocks[0].Type != "faculty_information" || b.Blocks[0].Fields["total_faculty"] != 40.0 {
		t.Fatalf("unexpected blocks: %+v", b.Blocks)
	}
	if b.Blocks[0].ExtractionConfidence != nil {
		t.Fatalf("no confidence given, want nil")
	}

	if _, err := newTestParser(t).Load(filepath.Join(t.TempDir(), "missing.json"), ""); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResolveType(t *testing.T) {
	p := newTestParser(t)
	tcs := []struct {
		key  string
		mode rules.Mode
		want string
		ok   bool
	}{
		{"faculty_information", rules.AICTE, "faculty_information", true},
		{" Faculty Information ", rules.AICTE, "faculty_information", true},
		{"faculty", rules.AICTE, "faculty_information", true},
		{"faculty", rules.UGC, "faculty_and_staffing", true},
		{"iqac", rules.AICTE, "iqac_quality_assurance", true},
		{"placement_info", rules.AICTE, "placement_information", true},
		{"zzqx", rules.AICTE, "", false},
		{"  ", rules.AICTE, "", false},
	}
	for _, tc := range tcs {
		got, ok := p.ResolveType(tc.key, tc.mode)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("ResolveType(%q, %s) = (%q,%v), want (%q,%v)", tc.key, tc.mode, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFindBlocks(t *testing.T) {
	rs, err := rules.Default()
	if err != nil {
		t.Fatalf("rules.Default: %v", err)
	}
	if got := FindBlocks(rs, rules.AICTE, ""); len(got) != 10 {
		t.Fatalf("empty query returned %d blocks, want 10", len(got))
	}
	got := FindBlocks(rs, rules.AICTE, "lab")
	if len(got) == 0 || got[0].Type != "lab_equipment_information" {
		t.Fatalf("FindBlocks(lab) = %+v", got)
	}
	if got := FindBlocks(rs, rules.UGC, "zzqx"); len(got) != 0 {
		t.Fatalf("expected no match, got %+v", got)
	}
}
