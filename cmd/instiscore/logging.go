package cmd

import (
	"io"
	"strings"

	"github.com/idlab-discover/instiscore/internal/aggregate"
	"github.com/idlab-discover/instiscore/internal/apperr"
	"github.com/idlab-discover/instiscore/internal/approval"
	"github.com/idlab-discover/instiscore/internal/block"
	"github.com/idlab-discover/instiscore/internal/compare"
	"github.com/idlab-discover/instiscore/internal/compliance"
	"github.com/idlab-discover/instiscore/internal/evidence"
	"github.com/idlab-discover/instiscore/internal/ingest"
	"github.com/idlab-discover/instiscore/internal/kpi"
	"github.com/idlab-discover/instiscore/internal/normalize"
	"github.com/idlab-discover/instiscore/internal/pipeline"
	"github.com/idlab-discover/instiscore/internal/quality"
	"github.com/idlab-discover/instiscore/internal/rules"
	"github.com/idlab-discover/instiscore/internal/store"
	"github.com/idlab-discover/instiscore/internal/sufficiency"
	"github.com/idlab-discover/instiscore/internal/trend"
)

const (
	levelQuiet    = "quiet"
	levelStandard = "standard"
	levelDebug    = "debug"
)

// resolveLogLevel validates a --log-level value; empty means standard.
func resolveLogLevel(raw string) (string, error) {
	level := strings.ToLower(strings.TrimSpace(raw))
	switch level {
	case "":
		return levelStandard, nil
	case levelQuiet, levelStandard, levelDebug:
		return level, nil
	}
	return "", apperr.Userf("invalid --log-level %q (expected quiet|standard|debug)", raw)
}

// configureLogging points the package loggers at w. Debug enables every
// engine package. Standard enables the pipeline and store summaries, unless
// a redrawing progress display owns the terminal. Quiet silences all.
func configureLogging(level string, progressUI bool, w io.Writer) {
	var all, summary io.Writer
	switch level {
	case levelDebug:
		all, summary = w, w
	case levelStandard:
		if !progressUI {
			summary = w
		}
	}
	for _, set := range []func(io.Writer){
		rules.SetLogger,
		normalize.SetLogger,
		block.SetLogger,
		evidence.SetLogger,
		quality.SetLogger,
		sufficiency.SetLogger,
		aggregate.SetLogger,
		kpi.SetLogger,
		trend.SetLogger,
		compliance.SetLogger,
		approval.SetLogger,
		ingest.SetLogger,
	} {
		set(all)
	}
	pipeline.SetLogger(summary)
	store.SetLogger(summary)
	compare.SetLogger(summary)
}
