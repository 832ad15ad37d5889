package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// ResolveFormat picks "json" or "yaml" for path. The format parameter can be
// "json", "yaml", or "auto" (default). If "auto", the format is determined
// from the file extension, then from content when data is given.
func ResolveFormat(path string, format string, data []byte) (string, error) {
	actual := strings.ToLower(strings.TrimSpace(format))
	switch actual {
	case "", "auto":
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			return "yaml", nil
		case ".json":
			return "json", nil
		}
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[' {
			return "yaml", nil
		}
		return "json", nil
	case "json", "yaml":
		return actual, nil
	case "yml":
		return "yaml", nil
	}
	return "", fmt.Errorf("unsupported batch format: %q", format)
}

// ReadPayload reads a batch payload and returns it as JSON bytes, so every
// payload goes through the same parser regardless of how it was written.
func ReadPayload(path string, format string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	actual, err := ResolveFormat(path, format, data)
	if err != nil {
		return nil, err
	}
	if actual == "json" {
		if !json.Valid(data) {
			return nil, fmt.Errorf("%s: invalid JSON", path)
		}
		return data, nil
	}
	return YAMLToJSON(data)
}

// YAMLToJSON converts a YAML document to its JSON equivalent.
func YAMLToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	out, err := json.Marshal(jsonCompatible(v))
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return out, nil
}

// WriteResult writes v as indented JSON or as YAML. YAML output follows the
// JSON field names of v.
func WriteResult(v any, outputPath string, format string) error {
	ext := filepath.Ext(outputPath)
	actual, err := ResolveFormat(outputPath, format, nil)
	if err != nil {
		return err
	}

	// Validate extension matches format
	switch actual {
	case "yaml":
		if ext != ".yaml" && ext != ".yml" {
			return fmt.Errorf("output path extension %q does not match format %q", ext, actual)
		}
	case "json":
		if ext != ".json" {
			return fmt.Errorf("output path extension %q does not match format %q", ext, actual)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if actual == "yaml" {
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return err
		}
		if data, err = yaml.Marshal(generic); err != nil {
			return err
		}
	} else {
		data = append(data, '\n')
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// jsonCompatible rewrites map[any]any nodes, which encoding/json rejects.
func jsonCompatible(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, val := range x {
			x[k] = jsonCompatible(val)
		}
		return x
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = jsonCompatible(val)
		}
		return m
	case []any:
		for i, val := range x {
			x[i] = jsonCompatible(val)
		}
		return x
	}
	return v
}
