package history

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;

-- One row per extract run that produced a conversation
CREATE TABLE IF NOT EXISTS runs (
    run_id INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id TEXT NOT NULL,
    url TEXT,
    title TEXT,
    platform TEXT,
    language TEXT,
    strategy TEXT NOT NULL,
    total_rounds INTEGER NOT NULL DEFAULT 0,
    confidence REAL NOT NULL DEFAULT 0,
    content_hash TEXT,           -- sha256 of the conversation plain text
    extraction_ms INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(url);
CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(content_hash);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);

-- Every strategy tried during a run, including failures
CREATE TABLE IF NOT EXISTS run_strategies (
    attempt_id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL,
    strategy TEXT NOT NULL,
    priority INTEGER NOT NULL,
    rounds INTEGER NOT NULL DEFAULT 0,
    score REAL,                  -- NULL when the strategy found no rounds
    error TEXT,
    FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_strategies_run ON run_strategies(run_id);
`
