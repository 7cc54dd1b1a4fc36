// JSON record structures for SQLite backend persistence.
// These structures define the JSONL record format for data files.
package sqlite

import (
	"encoding/json"
	"fmt"
)

// entryJSON represents an action in entries.jsonl. Entry holds the
// descriptor JSON as written by the caller.
type entryJSON struct {
	ActionHash   string          `json:"action_hash"`
	EntryType    string          `json:"entry_type"`
	Entry        json.RawMessage `json:"entry"`
	OriginalHash string          `json:"original_hash"`
	PreviousHash string          `json:"previous_hash"`
	Seq          int64           `json:"seq"`
	CreatedAt    string          `json:"created_at"`
}

// linkJSON represents a link in links.jsonl.
type linkJSON struct {
	LinkID    string `json:"link_id"`
	LinkType  string `json:"link_type"`
	FromID    string `json:"from_id"`
	ToID      string `json:"to_id"`
	CreatedAt string `json:"created_at"`
}

// tombstoneJSON represents a delete action in tombstones.jsonl.
type tombstoneJSON struct {
	ActionHash string `json:"action_hash"`
	TargetHash string `json:"target_hash"`
	Seq        int64  `json:"seq"`
	CreatedAt  string `json:"created_at"`
}

func dehydrate(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding %T: %w", v, err)
	}
	return b, nil
}
