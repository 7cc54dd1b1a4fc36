// This file implements the types.Store operations.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// timeLayout is the timestamp format stored in SQLite and JSONL.
const timeLayout = time.RFC3339Nano

// deleteEntryType is hashed into delete actions.
const deleteEntryType = "Delete"

const entryColumns = "action_hash, entry_type, entry, original_hash, previous_hash, seq, created_at"

// Create writes a new entry and links it from the entry type's index.
func (b *Backend) Create(ctx context.Context, entryType string, entry []byte) (types.Record, error) {
	index, ok := types.IndexFor(entryType)
	if !ok {
		return types.Record{}, fmt.Errorf("entry type %q: %w", entryType, types.ErrInvalidData)
	}
	if !json.Valid(entry) {
		return types.Record{}, fmt.Errorf("%s entry is not JSON: %w", entryType, types.ErrInvalidData)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.Record{}, types.ErrStoreDetached
	}

	now := b.now().UTC()
	seq := b.seq + 1
	hash := types.ComputeActionHash(entryType, entry, types.ActionHash{}, uint64(seq), now)
	rec := types.Record{
		ActionHash:   hash,
		EntryType:    entryType,
		Entry:        append(json.RawMessage(nil), entry...),
		OriginalHash: hash,
		CreatedAt:    now,
	}

	err := b.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertEntry(ctx, tx, rec, seq); err != nil {
			return err
		}
		return insertLink(ctx, tx, types.LinkTypeIndex, index, hash.String(), now)
	})
	if err != nil {
		return types.Record{}, fmt.Errorf("creating %s: %w", entryType, err)
	}
	b.seq = seq

	// The row is committed; a retry would add a second entry. The JSONL
	// files are rewritten whole on the next persist or on Detach.
	if err := b.persistOrQueue("create", "entries", "links"); err != nil {
		b.logger.Warnw("persisting JSONL after commit failed", "operation", "create", "error", err)
	}
	b.logger.Debugw("created entry", "entry_type", entryType, "action_hash", hash.String(), "seq", seq)
	return rec, nil
}

// Get returns the latest live revision reachable from hash.
func (b *Backend) Get(ctx context.Context, hash types.ActionHash) (types.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return types.Record{}, types.ErrStoreDetached
	}
	return b.latestLive(ctx, hash)
}

// Update writes entry as a new revision of original. previous must be the
// current latest revision.
func (b *Backend) Update(ctx context.Context, original, previous types.ActionHash, entry []byte) (types.Record, error) {
	if !json.Valid(entry) {
		return types.Record{}, fmt.Errorf("update entry is not JSON: %w", types.ErrInvalidData)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.Record{}, types.ErrStoreDetached
	}

	orig, err := b.getEntry(ctx, b.db, original)
	if err != nil {
		return types.Record{}, err
	}
	if orig.OriginalHash != orig.ActionHash {
		return types.Record{}, fmt.Errorf("%s is a revision of %s, not an original: %w", original, orig.OriginalHash, types.ErrInvalidID)
	}
	latest, err := b.latestLive(ctx, original)
	if err != nil {
		return types.Record{}, err
	}
	if latest.ActionHash != previous {
		return types.Record{}, fmt.Errorf("previous %s, latest %s: %w", previous, latest.ActionHash, types.ErrConflict)
	}

	linkType, ok := types.UpdateLinkFor(orig.EntryType)
	if !ok {
		return types.Record{}, fmt.Errorf("entry type %q: %w", orig.EntryType, types.ErrInvalidData)
	}

	now := b.now().UTC()
	seq := b.seq + 1
	hash := types.ComputeActionHash(orig.EntryType, entry, previous, uint64(seq), now)
	rec := types.Record{
		ActionHash:   hash,
		EntryType:    orig.EntryType,
		Entry:        append(json.RawMessage(nil), entry...),
		OriginalHash: original,
		PreviousHash: previous,
		CreatedAt:    now,
	}

	err = b.inTx(ctx, func(tx *sql.Tx) error {
		if err := insertEntry(ctx, tx, rec, seq); err != nil {
			return err
		}
		return insertLink(ctx, tx, linkType, original.String(), hash.String(), now)
	})
	if err != nil {
		return types.Record{}, fmt.Errorf("updating %s: %w", original, err)
	}
	b.seq = seq

	// The row is committed; a retry would add a second entry. The JSONL
	// files are rewritten whole on the next persist or on Detach.
	if err := b.persistOrQueue("update", "entries", "links"); err != nil {
		b.logger.Warnw("persisting JSONL after commit failed", "operation", "update", "error", err)
	}
	b.logger.Debugw("updated entry", "original", original.String(), "action_hash", hash.String(), "seq", seq)
	return rec, nil
}

// Delete tombstones the chain containing hash.
func (b *Backend) Delete(ctx context.Context, hash types.ActionHash) (types.ActionHash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ActionHash{}, types.ErrStoreDetached
	}

	latest, err := b.latestLive(ctx, hash)
	if err != nil {
		return types.ActionHash{}, err
	}

	now := b.now().UTC()
	seq := b.seq + 1
	deleteHash := types.ComputeActionHash(deleteEntryType, nil, latest.ActionHash, uint64(seq), now)
	_, err = b.db.ExecContext(ctx,
		"INSERT INTO tombstones (action_hash, target_hash, seq, created_at) VALUES (?, ?, ?, ?)",
		deleteHash.String(), latest.OriginalHash.String(), seq, now.Format(timeLayout))
	if err != nil {
		return types.ActionHash{}, fmt.Errorf("deleting %s: %w", hash, err)
	}
	b.seq = seq

	// The row is committed; a retry would add a second entry. The JSONL
	// files are rewritten whole on the next persist or on Detach.
	if err := b.persistOrQueue("delete", "tombstones"); err != nil {
		b.logger.Warnw("persisting JSONL after commit failed", "operation", "delete", "error", err)
	}
	b.logger.Debugw("deleted entry", "original", latest.OriginalHash.String(), "action_hash", deleteHash.String())
	return deleteHash, nil
}

// GetAll returns the latest revision of every live entry linked from index,
// in creation order.
func (b *Backend) GetAll(ctx context.Context, index string) ([]types.Record, error) {
	if !types.IsIndex(index) {
		return nil, fmt.Errorf("%q: %w", index, types.ErrIndexNotFound)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT e.action_hash FROM links l
		JOIN entries e ON e.action_hash = l.to_id
		WHERE l.link_type = ? AND l.from_id = ?
		  AND NOT EXISTS (SELECT 1 FROM tombstones t WHERE t.target_hash = e.action_hash)
		ORDER BY e.seq`,
		types.LinkTypeIndex, index)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", index, err)
	}
	var originals []types.ActionHash
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning %s: %w", index, err)
		}
		h, err := types.ParseActionHash(s)
		if err != nil {
			rows.Close()
			return nil, err
		}
		originals = append(originals, h)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]types.Record, 0, len(originals))
	for _, original := range originals {
		rec, err := b.latest(ctx, original)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// latestLive resolves hash to its chain's latest revision, failing with
// ErrNotFound when the chain is absent or tombstoned.
// The caller must hold b.mu.
func (b *Backend) latestLive(ctx context.Context, hash types.ActionHash) (types.Record, error) {
	rec, err := b.getEntry(ctx, b.db, hash)
	if err != nil {
		return types.Record{}, err
	}
	var dead int
	err = b.db.QueryRowContext(ctx, "SELECT 1 FROM tombstones WHERE target_hash = ?", rec.OriginalHash.String()).Scan(&dead)
	if err == nil {
		return types.Record{}, fmt.Errorf("%s was deleted: %w", hash, types.ErrNotFound)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, fmt.Errorf("checking tombstone: %w", err)
	}
	return b.latest(ctx, rec.OriginalHash)
}

// latest follows original's update links to the newest revision, or
// returns the original when it has none.
func (b *Backend) latest(ctx context.Context, original types.ActionHash) (types.Record, error) {
	linkType := types.LinkTypeHolonDescriptorUpdates
	orig, err := b.getEntry(ctx, b.db, original)
	if err != nil {
		return types.Record{}, err
	}
	if lt, ok := types.UpdateLinkFor(orig.EntryType); ok {
		linkType = lt
	}

	row := b.db.QueryRowContext(ctx, `
		SELECT `+prefixed("e", entryColumns)+` FROM links l
		JOIN entries e ON e.action_hash = l.to_id
		WHERE l.link_type = ? AND l.from_id = ?
		ORDER BY e.seq DESC LIMIT 1`,
		linkType, original.String())
	rec, err := scanEntry(row)
	if errors.Is(err, types.ErrNotFound) {
		return orig, nil
	}
	return rec, err
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (b *Backend) getEntry(ctx context.Context, q queryRower, hash types.ActionHash) (types.Record, error) {
	if hash.IsEmpty() {
		return types.Record{}, types.ErrInvalidID
	}
	row := q.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM entries WHERE action_hash = ?", hash.String())
	rec, err := scanEntry(row)
	if errors.Is(err, types.ErrNotFound) {
		return types.Record{}, fmt.Errorf("%s: %w", hash, types.ErrNotFound)
	}
	return rec, err
}

func scanEntry(row *sql.Row) (types.Record, error) {
	var (
		hash, entryType, entry, original, previous, createdAt string
		seq                                                   int64
	)
	err := row.Scan(&hash, &entryType, &entry, &original, &previous, &seq, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Record{}, types.ErrNotFound
	}
	if err != nil {
		return types.Record{}, fmt.Errorf("scanning entry: %w", err)
	}

	rec := types.Record{EntryType: entryType, Entry: json.RawMessage(entry)}
	if err := rec.ActionHash.UnmarshalText([]byte(hash)); err != nil {
		return types.Record{}, err
	}
	if err := rec.OriginalHash.UnmarshalText([]byte(original)); err != nil {
		return types.Record{}, err
	}
	if err := rec.PreviousHash.UnmarshalText([]byte(previous)); err != nil {
		return types.Record{}, err
	}
	rec.CreatedAt, err = time.Parse(timeLayout, createdAt)
	if err != nil {
		return types.Record{}, fmt.Errorf("entry %s created_at: %w", hash, err)
	}
	return rec, nil
}

func insertEntry(ctx context.Context, tx *sql.Tx, rec types.Record, seq int64) error {
	previous := ""
	if !rec.PreviousHash.IsEmpty() {
		previous = rec.PreviousHash.String()
	}
	_, err := tx.ExecContext(ctx,
		"INSERT INTO entries ("+entryColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.ActionHash.String(), rec.EntryType, string(rec.Entry),
		rec.OriginalHash.String(), previous, seq, rec.CreatedAt.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

func insertLink(ctx context.Context, tx *sql.Tx, linkType, from, to string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		"INSERT INTO links (link_id, link_type, from_id, to_id, created_at) VALUES (?, ?, ?, ?, ?)",
		generateUUID(), linkType, from, to, at.Format(timeLayout))
	if err != nil {
		return fmt.Errorf("inserting %s link: %w", linkType, err)
	}
	return nil
}

// inTx runs fn in a transaction, rolling back on error.
func (b *Backend) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// prefixed qualifies a comma-separated column list with a table alias.
func prefixed(alias, columns string) string {
	cols := strings.Split(columns, ",")
	for i, col := range cols {
		cols[i] = alias + "." + strings.TrimSpace(col)
	}
	return strings.Join(cols, ", ")
}
