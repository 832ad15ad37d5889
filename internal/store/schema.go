package store

const schema = `
PRAGMA foreign_keys = ON;

-- One row per scored batch; result_json holds the full result as returned
-- by the pipeline, the other columns are for listing.
CREATE TABLE IF NOT EXISTS batches (
    batch_id TEXT PRIMARY KEY,
    mode TEXT NOT NULL,
    new_university BOOLEAN DEFAULT 0,
    source_doc TEXT,
    status TEXT NOT NULL,
    category TEXT,
    subtype TEXT,
    sufficiency REAL NOT NULL,
    sufficiency_color TEXT,
    overall_score REAL,          -- NULL when not computable
    flag_count INTEGER DEFAULT 0,
    scored_at TEXT NOT NULL,     -- RFC 3339, UTC
    result_json TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_batches_scored_at ON batches(scored_at);

CREATE TABLE IF NOT EXISTS blocks (
    block_id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    block_type TEXT NOT NULL,
    confidence REAL NOT NULL,
    extraction_confidence REAL,
    is_outdated BOOLEAN DEFAULT 0,
    is_low_quality BOOLEAN DEFAULT 0,
    is_invalid BOOLEAN DEFAULT 0,
    representative BOOLEAN DEFAULT 0,
    data_json TEXT NOT NULL,
    FOREIGN KEY (batch_id) REFERENCES batches(batch_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_blocks_batch ON blocks(batch_id, block_type);

CREATE TABLE IF NOT EXISTS compliance_flags (
    flag_id INTEGER PRIMARY KEY AUTOINCREMENT,
    batch_id TEXT NOT NULL,
    concept TEXT NOT NULL,
    severity TEXT NOT NULL,
    title TEXT NOT NULL,
    reason TEXT,
    recommendation TEXT,
    FOREIGN KEY (batch_id) REFERENCES batches(batch_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_flags_batch ON compliance_flags(batch_id);
`
