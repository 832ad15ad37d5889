// Package instiscore is the embeddable entry point to the scoring engine:
// parse an extractor payload, score it and get the full auditable result.
package instiscore

import (
	"context"
	"time"

	"github.com/idlab-discover/instiscore/internal/ingest"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/pipeline"
	"github.com/idlab-discover/instiscore/internal/rules"
)

// Result is the scored outcome of one batch.
type Result = pipeline.Result

type Options struct {
	// RulesPath replaces the built-in rule set when set.
	RulesPath string
	// Concurrency caps the batches ScoreFiles runs at once; 0 means no cap.
	Concurrency int
	// Now fixes the clock used for the outdated check.
	Now func() time.Time
}

// Scorer scores batches with one rule set. It is safe for concurrent use.
type Scorer struct {
	engine *pipeline.Engine
	parser *ingest.Parser
	limit  int
}

func New(opts Options) (*Scorer, error) {
	var (
		rs  *rules.RuleSet
		err error
	)
	if opts.RulesPath != "" {
		rs, err = rules.Load(opts.RulesPath)
	} else {
		rs, err = rules.Default()
	}
	if err != nil {
		return nil, err
	}

	var engineOpts []pipeline.Option
	if opts.Now != nil {
		engineOpts = append(engineOpts, pipeline.WithClock(opts.Now))
	}
	engine, err := pipeline.New(rs, engineOpts...)
	if err != nil {
		return nil, err
	}
	return &Scorer{engine: engine, parser: ingest.NewParser(rs), limit: opts.Concurrency}, nil
}

// Score parses a JSON payload and scores it.
func (s *Scorer) Score(payload []byte) (*Result, error) {
	b, err := s.parser.Parse(payload)
	if err != nil {
		return nil, err
	}
	return s.engine.Run(b), nil
}

// ScoreFiles loads and scores JSON or YAML batch files concurrently.
// Results keep the order of paths.
func (s *Scorer) ScoreFiles(ctx context.Context, paths ...string) ([]*Result, error) {
	return s.engine.RunFiles(ctx, s.parser, paths, "auto", s.limit)
}

// Normalize converts a raw extracted value to its canonical number.
func Normalize(raw string) (float64, bool) {
	return normalize.Value(raw)
}
