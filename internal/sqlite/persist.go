// This file dumps SQLite tables to their JSONL files.
package sqlite

import (
	"encoding/json"
	"fmt"
	"path/filepath"
)

// persistTableJSONL rewrites the JSONL file for table from SQLite.
// The caller must hold b.mu.
func (b *Backend) persistTableJSONL(table string) error {
	var (
		records []json.RawMessage
		file    string
		err     error
	)
	switch table {
	case "entries":
		records, err = b.dumpEntries()
		file = entriesJSONL
	case "links":
		records, err = b.dumpLinks()
		file = linksJSONL
	case "tombstones":
		records, err = b.dumpTombstones()
		file = tombstonesJSONL
	default:
		return fmt.Errorf("persisting %q: unknown table", table)
	}
	if err != nil {
		return err
	}
	return writeJSONL(filepath.Join(b.dataDir, file), records)
}

func (b *Backend) dumpEntries() ([]json.RawMessage, error) {
	rows, err := b.db.Query("SELECT " + entryColumns + " FROM entries ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("reading entries for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var e entryJSON
		var entry string
		if err := rows.Scan(&e.ActionHash, &e.EntryType, &entry, &e.OriginalHash, &e.PreviousHash, &e.Seq, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning entry for JSONL: %w", err)
		}
		e.Entry = json.RawMessage(entry)
		rec, err := dehydrate(e)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (b *Backend) dumpLinks() ([]json.RawMessage, error) {
	rows, err := b.db.Query("SELECT link_id, link_type, from_id, to_id, created_at FROM links ORDER BY created_at, link_id")
	if err != nil {
		return nil, fmt.Errorf("reading links for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var l linkJSON
		if err := rows.Scan(&l.LinkID, &l.LinkType, &l.FromID, &l.ToID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning link for JSONL: %w", err)
		}
		rec, err := dehydrate(l)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (b *Backend) dumpTombstones() ([]json.RawMessage, error) {
	rows, err := b.db.Query("SELECT action_hash, target_hash, seq, created_at FROM tombstones ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("reading tombstones for JSONL: %w", err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		var t tombstoneJSON
		if err := rows.Scan(&t.ActionHash, &t.TargetHash, &t.Seq, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning tombstone for JSONL: %w", err)
		}
		rec, err := dehydrate(t)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
