package db

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per pipeline invocation
CREATE TABLE IF NOT EXISTS runs (
    run_id TEXT PRIMARY KEY,
    stage TEXT NOT NULL,            -- all, map, reduce
    status TEXT NOT NULL,           -- completed, no_input, no_valid_records, failed
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP NOT NULL,
    input_dir TEXT,
    output_dir TEXT NOT NULL,
    workers INTEGER DEFAULT 0,
    top_k INTEGER DEFAULT 0,
    file_count INTEGER DEFAULT 0,
    failed_file_count INTEGER DEFAULT 0,
    valid_record_count INTEGER DEFAULT 0,
    corrupt_record_count INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

-- Map stage outcome per input file
CREATE TABLE IF NOT EXISTS run_files (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    file_index INTEGER NOT NULL,
    path TEXT NOT NULL,
    size_bytes INTEGER DEFAULT 0,
    distinct_values INTEGER DEFAULT 0,
    total_values INTEGER DEFAULT 0,
    record_path TEXT,
    record_hash TEXT,
    error_type TEXT,
    error_message TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE,
    UNIQUE(run_id, file_index)
);

-- Records the reducer skipped
CREATE TABLE IF NOT EXISTS run_corrupt_records (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    record_name TEXT NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

-- Ranked report lines
CREATE TABLE IF NOT EXISTS run_results (
    run_id TEXT NOT NULL,
    rank INTEGER NOT NULL,
    number INTEGER NOT NULL,
    frequency INTEGER NOT NULL,
    PRIMARY KEY (run_id, rank),
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
`
