package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/idlab-discover/instiscore/internal/compliance"
	"github.com/idlab-discover/instiscore/internal/pipeline"
)

// timeLayout is fixed-width so scored_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a batch ID is not stored.
var ErrNotFound = errors.New("batch not found")

// BatchSummary is one row of the batch listing.
type BatchSummary struct {
	BatchID          string
	Mode             string
	NewUniversity    bool
	SourceDoc        string
	Category         string
	Subtype          string
	Sufficiency      float64
	SufficiencyColor string
	Overall          *float64
	FlagCount        int
	ScoredAt         time.Time
}

// SaveResult stores res, replacing any earlier result for the same batch
// together with its blocks and flags.
func (db *DB) SaveResult(res *pipeline.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		"DELETE FROM compliance_flags WHERE batch_id = ?",
		"DELETE FROM blocks WHERE batch_id = ?",
		"DELETE FROM batches WHERE batch_id = ?",
	} {
		if _, err := tx.Exec(q, res.BatchID); err != nil {
			return fmt.Errorf("failed to clear batch %s: %w", res.BatchID, err)
		}
	}

	_, err = tx.Exec(`INSERT INTO batches
		(batch_id, mode, new_university, source_doc, status, category, subtype,
		 sufficiency, sufficiency_color, overall_score, flag_count, scored_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.BatchID, string(res.Mode), res.NewUniversity, res.SourceDoc, res.Status,
		string(res.Classification.Category), string(res.Classification.Subtype),
		res.Sufficiency.Percentage, string(res.Sufficiency.Color), nullFloat(res.KPIs.Overall.Value),
		len(res.Compliance), res.ScoredAt.UTC().Format(timeLayout), string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert batch: %w", err)
	}

	for i, b := range res.Blocks {
		data, err := json.Marshal(b.Data)
		if err != nil {
			return fmt.Errorf("encode block %s: %w", b.BlockType, err)
		}
		_, err = tx.Exec(`INSERT INTO blocks
			(batch_id, position, block_type, confidence, extraction_confidence,
			 is_outdated, is_low_quality, is_invalid, representative, data_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.BatchID, i, b.BlockType, b.Confidence, nullFloat(b.ExtractionConfidence),
			b.IsOutdated, b.IsLowQuality, b.IsInvalid, b.Representative, string(data))
		if err != nil {
			return fmt.Errorf("failed to insert block %s: %w", b.BlockType, err)
		}
	}

	for _, f := range res.Compliance {
		_, err := tx.Exec(`INSERT INTO compliance_flags
			(batch_id, concept, severity, title, reason, recommendation)
			VALUES (?, ?, ?, ?, ?, ?)`,
			res.BatchID, f.Concept, string(f.Severity), f.Title, f.Reason, f.Recommendation)
		if err != nil {
			return fmt.Errorf("failed to insert flag %s: %w", f.Concept, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch %s: %w", res.BatchID, err)
	}
	logf("saved batch %s (%d blocks, %d flags)", res.BatchID, len(res.Blocks), len(res.Compliance))
	return nil
}

// ListBatches returns the most recently scored batches first. A limit of
// zero or less returns all of them.
func (db *DB) ListBatches(limit int) ([]BatchSummary, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.Query(`SELECT batch_id, mode, new_university, source_doc, category, subtype,
		sufficiency, sufficiency_color, overall_score, flag_count, scored_at
		FROM batches ORDER BY scored_at DESC, batch_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []BatchSummary
	for rows.Next() {
		var (
			s                       BatchSummary
			source, cat, sub, color sql.NullString
			overall                 sql.NullFloat64
			scoredAt                string
		)
		if err := rows.Scan(&s.BatchID, &s.Mode, &s.NewUniversity, &source, &cat, &sub,
			&s.Sufficiency, &color, &overall, &s.FlagCount, &scoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan batch: %w", err)
		}
		s.SourceDoc, s.Category, s.Subtype, s.SufficiencyColor = source.String, cat.String, sub.String, color.String
		if overall.Valid {
			v := overall.Float64
			s.Overall = &v
		}
		if s.ScoredAt, err = time.Parse(timeLayout, scoredAt); err != nil {
			return nil, fmt.Errorf("batch %s: bad timestamp %q: %w", s.BatchID, scoredAt, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadResult returns the stored result of batchID.
func (db *DB) LoadResult(batchID string) (*pipeline.Result, error) {
	var payload string
	err := db.QueryRow("SELECT result_json FROM batches WHERE batch_id = ?", batchID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, batchID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %s: %w", batchID, err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, fmt.Errorf("decode batch %s: %w", batchID, err)
	}
	return &res, nil
}

// Flags returns the stored compliance flags of batchID, highest severity
// first.
func (db *DB) Flags(batchID string) ([]compliance.Flag, error) {
	rows, err := db.Query(`SELECT concept, severity, title, reason, recommendation
		FROM compliance_flags WHERE batch_id = ?
		ORDER BY CASE severity WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, flag_id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []compliance.Flag{}
	for rows.Next() {
		var f compliance.Flag
		var reason, rec sql.NullString
		if err := rows.Scan(&f.Concept, &f.Severity, &f.Title, &reason, &rec); err != nil {
			return nil, fmt.Errorf("failed to scan flag: %w", err)
		}
		f.Reason, f.Recommendation = reason.String, rec.String
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountBlocks returns how many blocks are stored for batchID, and how many
// of them are flagged by any quality check.
func (db *DB) CountBlocks(batchID string) (total, flagged int, err error) {
	err = db.QueryRow(`SELECT COUNT(*),
		COALESCE(SUM(CASE WHEN is_outdated OR is_low_quality OR is_invalid THEN 1 ELSE 0 END), 0)
		FROM blocks WHERE batch_id = ?`, batchID).Scan(&total, &flagged)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count blocks: %w", err)
	}
	return total, flagged, nil
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
