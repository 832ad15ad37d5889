package sufficiency

import "strings"

// LogResult writes a one-line summary and the missing block list to the
// package logger. Without a logger writer it produces no output.
func LogResult(r Result) {
	logf("score=%.2f%% base=%.2f%% penalty=%.0f (%d/%d present)", r.Percentage, r.BasePercentage, r.Penalty, r.PresentCount, r.RequiredCount)
	if len(r.MissingBlocks) > 0 {
		logf("missing blocks: %s", strings.Join(r.MissingBlocks, ", "))
	}
	if b := r.Breakdown; b != (PenaltyBreakdown{}) {
		logf("flagged blocks: outdated=%d low_quality=%d invalid=%d", b.Outdated, b.LowQuality, b.Invalid)
	}
}
