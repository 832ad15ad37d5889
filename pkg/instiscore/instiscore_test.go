package instiscore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const payload = `{
  "batch_id": "pkg-1",
  "mode": "aicte",
  "extraction": {
    "confidence": 0.9,
    "blocks": {
      "faculty_information": {"total_faculty": "50", "student_faculty_ratio": "1:18"}
    }
  }
}`

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(Options{Now: func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s
}

func TestScore(t *testing.T) {
	res, err := newScorer(t).Score([]byte(payload))
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if res.BatchID != "pkg-1" || res.Status != "completed" {
		t.Fatalf("unexpected result header: %s %s", res.BatchID, res.Status)
	}
	if res.Sufficiency.RequiredCount != 10 || res.Sufficiency.PresentCount != 1 {
		t.Fatalf("sufficiency = %d/%d, want 1/10", res.Sufficiency.PresentCount, res.Sufficiency.RequiredCount)
	}
	if len(res.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(res.Blocks))
	}
}

func TestScore_InvalidPayload(t *testing.T) {
	if _, err := newScorer(t).Score([]byte("not json")); err == nil {
		t.Fatal("expected an error for a malformed payload")
	}
}

func TestScoreFiles(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "a.json")
	yamlPath := filepath.Join(dir, "b.yaml")
	if err := os.WriteFile(jsonPath, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}
	yamlPayload := "batch_id: pkg-2\nmode: ugc\nextraction:\n  blocks: {}\n"
	if err := os.WriteFile(yamlPath, []byte(yamlPayload), 0o600); err != nil {
		t.Fatal(err)
	}

	results, err := newScorer(t).ScoreFiles(context.Background(), jsonPath, yamlPath)
	if err != nil {
		t.Fatalf("ScoreFiles() error = %v", err)
	}
	if len(results) != 2 || results[0].BatchID != "pkg-1" || results[1].BatchID != "pkg-2" {
		t.Fatalf("unexpected results order")
	}
	if results[1].Sufficiency.Percentage != 0 {
		t.Fatalf("empty UGC batch should score 0, got %v", results[1].Sufficiency.Percentage)
	}
}

func TestNormalize(t *testing.T) {
	v, ok := Normalize("4.5 LPA")
	if !ok || v != 4.5 {
		t.Fatalf("Normalize(4.5 LPA) = %v, %v", v, ok)
	}
	if _, ok := Normalize("N/A"); ok {
		t.Fatal("N/A should not normalize")
	}
}
