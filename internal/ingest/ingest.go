// Package ingest turns an extractor payload into a typed batch. It is the
// only place raw LLM and parser output is inspected; everything downstream
// works on blocks, documents and classifications.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/idlab-discover/instiscore/internal/approval"
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/evidence"
	bio "github.com/idlab-discover/instiscore/internal/io"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// ErrInvalidPayload is returned for payloads that are not a JSON object.
var ErrInvalidPayload = errors.New("invalid batch payload")

// Batch is one parsed submission.
type Batch struct {
	ID             string
	Mode           rules.Mode
	ModeDeclared   bool
	NewUniversity  bool
	// NewUniversityDeclared is set when the flag came from the payload or
	// the caller rather than from the classification.
	NewUniversityDeclared bool
	SourceDoc      string
	Classification approval.Classification
	Document       evidence.Document
	// Blocks holds every candidate in payload order; a block type may
	// appear more than once when the extractor made several passes.
	Blocks []*block.Block
	// Dropped lists payload block keys that match no catalogue block type.
	Dropped []string
}

// SetMode overrides the batch mode. An undeclared new-university flag is
// derived again from the classification under the new mode.
func (b *Batch) SetMode(m rules.Mode) {
	b.Mode, b.ModeDeclared = m, true
	if !b.NewUniversityDeclared {
		b.deriveNewUniversity()
	}
}

// SetNewUniversity fixes the new-university flag.
func (b *Batch) SetNewUniversity(v bool) {
	b.NewUniversity, b.NewUniversityDeclared = v, true
}

func (b *Batch) deriveNewUniversity() {
	b.NewUniversity = b.Mode == rules.UGC && b.Classification.NewUniversity()
}

// Parser converts payloads using one rule set.
type Parser struct {
	rules      *rules.RuleSet
	classifier *approval.Classifier
}

func NewParser(rs *rules.RuleSet) *Parser {
	return &Parser{rules: rs, classifier: approval.NewClassifier(rs)}
}

// Load reads a JSON or YAML batch file and parses it. Errors do not
// repeat the path; callers add it.
func (p *Parser) Load(path string, format string) (*Batch, error) {
	data, err := bio.ReadPayload(path, format)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return p.Parse(data)
}

// Parse parses a JSON payload.
func (p *Parser) Parse(data []byte) (*Batch, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed JSON", ErrInvalidPayload)
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected an object", ErrInvalidPayload)
	}

	b := &Batch{
		ID:        root.Get("batch_id").String(),
		SourceDoc: root.Get("source_doc").String(),
		Document:  parseDocument(root.Get("document")),
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Document.SourceDoc == "" {
		b.Document.SourceDoc = b.SourceDoc
	}

	b.Classification = approval.Parse(root.Get("classification"))
	if b.Classification.Category == approval.CategoryUnknown && b.Document.SearchText() != "" {
		b.Classification = p.classifier.Classify(b.Document.SearchText())
	}

	if m := root.Get("mode"); m.Exists() && m.String() != "" {
		mode, err := rules.ParseMode(m.String())
		if err != nil {
			return nil, err
		}
		b.Mode, b.ModeDeclared = mode, true
	} else {
		b.Mode = b.Classification.Mode()
		logf(b.ID, "mode %s derived from classification %s", b.Mode, b.Classification)
	}
	if nu := root.Get("new_university"); nu.Type == gjson.True || nu.Type == gjson.False {
		b.SetNewUniversity(nu.Bool())
	} else {
		b.deriveNewUniversity()
	}

	extraction := root.Get("extraction")
	var defaultConf *float64
	if c := extraction.Get("confidence"); c.Type == gjson.Number {
		v := c.Float()
		defaultConf = &v
	}

	extraction.Get("blocks").ForEach(func(key, value gjson.Result) bool {
		blockType, ok := p.ResolveType(key.String(), b.Mode)
		if !ok {
			logf(b.ID, "dropping unknown block key %q", key.String())
			b.Dropped = append(b.Dropped, key.String())
			return true
		}
		if blockType != key.String() {
			logf(b.ID, "block key %q resolved to %s", key.String(), blockType)
		}
		candidates := []gjson.Result{value}
		if value.IsArray() {
			candidates = value.Array()
		}
		for _, c := range candidates {
			if !c.IsObject() {
				logf(b.ID, "skipping non-object candidate for %s", blockType)
				continue
			}
			b.Blocks = append(b.Blocks, newBlock(blockType, c, defaultConf, b.SourceDoc))
		}
		return true
	})
	return b, nil
}

func newBlock(blockType string, obj gjson.Result, defaultConf *float64, sourceDoc string) *block.Block {
	fields, _ := obj.Value().(map[string]any)
	blk := block.New(blockType, fields)
	blk.SourceDoc = sourceDoc
	blk.ExtractionConfidence = defaultConf
	if c := obj.Get("confidence"); c.Type == gjson.Number {
		v := c.Float()
		blk.ExtractionConfidence = &v
		delete(blk.Fields, "confidence")
	}
	return blk
}

func parseDocument(v gjson.Result) evidence.Document {
	doc := evidence.Document{
		Text:      v.Get("full_context_text").String(),
		Tables:    v.Get("tables_markdown").String(),
		Kind:      evidence.Kind(strings.ToLower(v.Get("kind").String())),
		SourceDoc: v.Get("source_doc").String(),
		Pages:     map[int]string{},
	}
	v.Get("page_map").ForEach(func(k, text gjson.Result) bool {
		if n, err := strconv.Atoi(k.String()); err == nil {
			doc.Pages[n] = text.String()
		}
		return true
	})
	for _, s := range v.Get("sections").Array() {
		doc.Sections = append(doc.Sections, evidence.Section{
			Page:   int(s.Get("page").Int()),
			Header: s.Get("header").String(),
		})
	}
	if doc.Kind == "" {
		doc.Kind = evidence.KindPDF
	}
	return doc
}
