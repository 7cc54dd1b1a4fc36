package types

import (
	"context"
	"encoding/json"
	"time"
)

// Record is a stored entry as returned by a Store.
type Record struct {
	// ActionHash identifies the action that wrote this revision.
	ActionHash ActionHash `json:"action_hash"`

	// EntryType is one of the EntryType constants.
	EntryType string `json:"entry_type"`

	// Entry is the JSON-encoded descriptor.
	Entry json.RawMessage `json:"entry"`

	// OriginalHash is the create action of the revision chain. For a
	// create it equals ActionHash.
	OriginalHash ActionHash `json:"original_hash"`

	// PreviousHash is the revision this one replaced; zero for a create.
	PreviousHash ActionHash `json:"previous_hash"`

	// CreatedAt is the timestamp of the action.
	CreatedAt time.Time `json:"created_at"`
}

// Store is the content-addressed record store the descriptor subsystem
// persists through. Implementations must be safe for concurrent use.
type Store interface {
	// Create writes a new entry, links it from the entry type's index and
	// returns the stored record.
	// Returns ErrInvalidData if entryType is unknown or entry is not JSON.
	Create(ctx context.Context, entryType string, entry []byte) (Record, error)

	// Get returns the latest revision reachable from hash via update links.
	// hash may name the original or any revision.
	// Returns ErrNotFound if nothing was stored under hash or it was deleted.
	Get(ctx context.Context, hash ActionHash) (Record, error)

	// Update writes a new revision of original. previous must be the
	// current latest revision of original.
	// Returns ErrNotFound if original is absent or deleted and ErrConflict
	// if previous is stale.
	Update(ctx context.Context, original, previous ActionHash, entry []byte) (Record, error)

	// Delete tombstones the chain containing hash and returns the delete
	// action's hash.
	// Returns ErrNotFound if hash is absent or already deleted.
	Delete(ctx context.Context, hash ActionHash) (ActionHash, error)

	// GetAll returns the latest revision of every live entry linked from
	// index, oldest first.
	// Returns ErrIndexNotFound if index is not a known index path.
	GetAll(ctx context.Context, index string) ([]Record, error)
}

// Backend is a Store with an attach/detach lifecycle.
type Backend interface {
	Store

	// Attach connects to the storage described by config. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases resources. Idempotent. After Detach, operations
	// return ErrStoreDetached.
	Detach() error
}
