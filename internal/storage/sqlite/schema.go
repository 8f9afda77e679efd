// ABOUTME: SQLite schema for the local chunk store
// ABOUTME: One row per collection with its vector dimension, one row per stored chunk
package sqlite

// Schema contains all SQL statements for database initialization
const Schema = `
-- Collections with their fixed vector dimension
CREATE TABLE IF NOT EXISTS collections (
    name TEXT PRIMARY KEY,
    dimension INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Chunks and their embeddings
CREATE TABLE IF NOT EXISTS chunks (
    id TEXT NOT NULL,
    collection TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    source TEXT,
    text TEXT NOT NULL,
    vector BLOB NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (collection, id)
);

CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(collection, source);
`

// SchemaVersion is the current schema version for migrations
const SchemaVersion = 1
