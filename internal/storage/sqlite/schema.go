// ABOUTME: SQLite database schema for long-term memory storage
// ABOUTME: One memories table plus a key/value table recording store metadata
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Memories table (atomic facts and compressed summaries)
-- seq gives a stable, never-reused insertion order
CREATE TABLE IF NOT EXISTS memories (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    category TEXT NOT NULL CHECK (category IN ('personal', 'food', 'travel', 'misc')),
    embedding BLOB NOT NULL,
    dim INTEGER NOT NULL,
    created_at INTEGER NOT NULL,
    source_snippet TEXT,
    compressed INTEGER NOT NULL DEFAULT 0 CHECK (compressed IN (0, 1))
);

-- Store metadata (embedding dimension, schema version)
CREATE TABLE IF NOT EXISTS store_meta (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

-- Indexes for efficient querying
CREATE INDEX IF NOT EXISTS idx_memories_category ON memories(category);
CREATE INDEX IF NOT EXISTS idx_memories_uncompressed_age ON memories(compressed, created_at, seq);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
