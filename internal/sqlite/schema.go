// Package sqlite implements the SQLite storage backend for descriptors.
// Implements: types.Backend (entries, update and index links, tombstones);
//
//	JSONL files as the source of truth, SQLite as the query engine.
package sqlite

// Schema DDL for all tables.
const (
	createEntries = `CREATE TABLE entries (
    action_hash TEXT PRIMARY KEY,
    entry_type TEXT NOT NULL,
    entry TEXT NOT NULL,
    original_hash TEXT NOT NULL,
    previous_hash TEXT NOT NULL,
    seq INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`

	createLinks = `CREATE TABLE links (
    link_id TEXT PRIMARY KEY,
    link_type TEXT NOT NULL,
    from_id TEXT NOT NULL,
    to_id TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createTombstones = `CREATE TABLE tombstones (
    action_hash TEXT PRIMARY KEY,
    target_hash TEXT NOT NULL,
    seq INTEGER NOT NULL,
    created_at TEXT NOT NULL
);`
)

// Index DDL for common queries.
const (
	idxEntriesOriginal = `CREATE INDEX idx_entries_original ON entries(original_hash, seq);`
	idxEntriesSeq      = `CREATE UNIQUE INDEX idx_entries_seq ON entries(seq);`
	idxLinksUnique     = `CREATE UNIQUE INDEX idx_links_unique ON links(link_type, from_id, to_id);`
	idxLinksTypeFrom   = `CREATE INDEX idx_links_type_from ON links(link_type, from_id);`
	idxTombstoneTarget = `CREATE UNIQUE INDEX idx_tombstones_target ON tombstones(target_hash);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createEntries,
	createLinks,
	createTombstones,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxEntriesOriginal,
	idxEntriesSeq,
	idxLinksUnique,
	idxLinksTypeFrom,
	idxTombstoneTarget,
}
