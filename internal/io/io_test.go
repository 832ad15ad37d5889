package io

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	BatchID string  `json:"batch_id"`
	Score   float64 `json:"score"`
}

func TestResolveFormat_AllCases(t *testing.T) {
	tcs := []struct {
		path, format, data string
		want               string
		ok                 bool
	}{
		{"b.json", "auto", "", "json", true},
		{"b.YAML", "", "", "yaml", true},
		{"b.yml", "", "", "yaml", true},
		{"b", "", `{"a":1}`, "json", true},
		{"b", "", "  [1]", "json", true},
		{"b", "", "mode: aicte", "yaml", true},
		{"b.json", " YAML ", "", "yaml", true},
		{"b.txt", "yml", "", "yaml", true},
		{"b.json", "xml", "", "", false},
	}
	for _, tc := range tcs {
		got, err := ResolveFormat(tc.path, tc.format, []byte(tc.data))
		if (err == nil) != tc.ok || got != tc.want {
			t.Fatalf("ResolveFormat(%q,%q) = (%q,%v), want (%q, ok=%v)", tc.path, tc.format, got, err, tc.want, tc.ok)
		}
	}
}

func TestReadPayload_OpenError(t *testing.T) {
	_, err := ReadPayload(filepath.Join(t.TempDir(), "missing.json"), "auto")
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestReadPayload_InvalidJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "batch.json")
	if err := os.WriteFile(p, []byte(`{`), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadPayload(p, "json"); err == nil {
		t.Fatalf("expected error for invalid JSON")
	}
}

func TestReadPayload_YAMLBecomesJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "batch.yaml")
	content := "mode: ugc\nextraction:\n  blocks:\n    faculty_and_staffing:\n      total_faculty: 40\n      1: numeric key\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := ReadPayload(p, "")
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["mode"] != "ugc" {
		t.Fatalf("mode = %v, want ugc", got["mode"])
	}
	blocks := got["extraction"].(map[string]any)["blocks"].(map[string]any)
	faculty := blocks["faculty_and_staffing"].(map[string]any)
	if faculty["total_faculty"] != 40.0 || faculty["1"] != "numeric key" {
		t.Fatalf("unexpected faculty block: %v", faculty)
	}
}

func TestReadPayload_InvalidYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "batch.yaml")
	if err := os.WriteFile(p, []byte("mode: [unterminated"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := ReadPayload(p, ""); err == nil {
		t.Fatalf("expected error for invalid YAML")
	}
}

func TestWriteResult_JSON_RoundTrip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.json")
	if err := WriteResult(sample{BatchID: "b1", Score: 84.76}, out, "auto"); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	data, err := ReadPayload(out, " JSON ")
	if err != nil {
		t.Fatalf("ReadPayload: %v", err)
	}
	var got sample
	if err := json.Unmarshal(data, &got); err != nil || got.BatchID != "b1" || got.Score != 84.76 {
		t.Fatalf("roundtrip = %+v, %v", got, err)
	}
}

func TestWriteResult_YAML_UsesJSONNames(t *testing.T) {
	out := filepath.Join(t.TempDir(), "result.yaml")
	if err := WriteResult(sample{BatchID: "b2", Score: 40}, out, ""); err != nil {
		t.Fatalf("WriteResult: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(raw), "batch_id: b2") {
		t.Fatalf("expected json field names in yaml output, got:\n%s", raw)
	}
}

func TestWriteResult_ExtensionMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := WriteResult(sample{}, filepath.Join(dir, "result.txt"), "json"); err == nil {
		t.Fatalf("expected extension mismatch error")
	}
	if err := WriteResult(sample{}, filepath.Join(dir, "result.json"), "yaml"); err == nil {
		t.Fatalf("expected extension mismatch error")
	}
	if err := WriteResult(sample{}, filepath.Join(dir, "result.json"), "xml"); err == nil {
		t.Fatalf("expected unsupported format error")
	}
}
