package descriptors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// Revision is a decoded descriptor together with the action that stored it.
type Revision[T any] struct {
	ActionHash   types.ActionHash `json:"action_hash"`
	OriginalHash types.ActionHash `json:"original_hash"`
	PreviousHash types.ActionHash `json:"previous_hash"`
	CreatedAt    time.Time        `json:"created_at"`
	Descriptor   T                `json:"descriptor"`
}

// Stored revisions of each descriptor kind.
type (
	HolonDescriptorRecord    = Revision[types.HolonDescriptor]
	PropertyDescriptorRecord = Revision[types.PropertyDescriptor]
)

// UpdateHolonDescriptorInput names the revision chain an update extends.
// PreviousHash must be the chain's latest revision.
type UpdateHolonDescriptorInput struct {
	OriginalHash types.ActionHash      `json:"original_hash"`
	PreviousHash types.ActionHash      `json:"previous_hash"`
	Updated      types.HolonDescriptor `json:"updated"`
}

// UpdatePropertyDescriptorInput is the property descriptor analogue of
// UpdateHolonDescriptorInput.
type UpdatePropertyDescriptorInput struct {
	OriginalHash types.ActionHash         `json:"original_hash"`
	PreviousHash types.ActionHash         `json:"previous_hash"`
	Updated      types.PropertyDescriptor `json:"updated"`
}

// Zome is the storage facade for descriptors. It validates and encodes
// descriptors on the way in and decodes records on the way out; storage
// errors are wrapped and returned unchanged in kind.
type Zome struct {
	store  types.Store
	logger *zap.SugaredLogger
}

// NewZome returns a Zome persisting through store. A nil logger discards
// log output.
func NewZome(store types.Store, logger *zap.SugaredLogger) *Zome {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Zome{store: store, logger: logger}
}

// CreateHolonDescriptor validates and stores d, then returns the record
// read back from the store.
func (z *Zome) CreateHolonDescriptor(ctx context.Context, d types.HolonDescriptor) (HolonDescriptorRecord, error) {
	if err := d.Validate(); err != nil {
		return HolonDescriptorRecord{}, err
	}
	return create[types.HolonDescriptor](ctx, z, types.EntryTypeHolonDescriptor, d.Header.TypeName, d)
}

// GetHolonDescriptor returns the latest revision reachable from hash.
func (z *Zome) GetHolonDescriptor(ctx context.Context, hash types.ActionHash) (HolonDescriptorRecord, error) {
	return get[types.HolonDescriptor](ctx, z, types.EntryTypeHolonDescriptor, hash)
}

// UpdateHolonDescriptor stores in.Updated as a new revision of
// in.OriginalHash.
func (z *Zome) UpdateHolonDescriptor(ctx context.Context, in UpdateHolonDescriptorInput) (HolonDescriptorRecord, error) {
	if err := in.Updated.Validate(); err != nil {
		return HolonDescriptorRecord{}, err
	}
	return update[types.HolonDescriptor](ctx, z, types.EntryTypeHolonDescriptor, in.OriginalHash, in.PreviousHash, in.Updated)
}

// DeleteHolonDescriptor tombstones the holon descriptor at hash.
func (z *Zome) DeleteHolonDescriptor(ctx context.Context, hash types.ActionHash) (types.ActionHash, error) {
	return remove(ctx, z, types.EntryTypeHolonDescriptor, hash)
}

// GetAllHolonTypes returns the latest revision of every live holon
// descriptor.
func (z *Zome) GetAllHolonTypes(ctx context.Context) ([]HolonDescriptorRecord, error) {
	return getAll[types.HolonDescriptor](ctx, z, types.IndexAllHolonTypes)
}

// CreatePropertyDescriptor validates and stores d, then returns the record
// read back from the store.
func (z *Zome) CreatePropertyDescriptor(ctx context.Context, d types.PropertyDescriptor) (PropertyDescriptorRecord, error) {
	if err := d.Validate(); err != nil {
		return PropertyDescriptorRecord{}, err
	}
	return create[types.PropertyDescriptor](ctx, z, types.EntryTypePropertyDescriptor, d.Header.TypeName, d)
}

// GetPropertyDescriptor returns the latest revision reachable from hash.
func (z *Zome) GetPropertyDescriptor(ctx context.Context, hash types.ActionHash) (PropertyDescriptorRecord, error) {
	return get[types.PropertyDescriptor](ctx, z, types.EntryTypePropertyDescriptor, hash)
}

// UpdatePropertyDescriptor stores in.Updated as a new revision of
// in.OriginalHash.
func (z *Zome) UpdatePropertyDescriptor(ctx context.Context, in UpdatePropertyDescriptorInput) (PropertyDescriptorRecord, error) {
	if err := in.Updated.Validate(); err != nil {
		return PropertyDescriptorRecord{}, err
	}
	return update[types.PropertyDescriptor](ctx, z, types.EntryTypePropertyDescriptor, in.OriginalHash, in.PreviousHash, in.Updated)
}

// DeletePropertyDescriptor tombstones the property descriptor at hash.
func (z *Zome) DeletePropertyDescriptor(ctx context.Context, hash types.ActionHash) (types.ActionHash, error) {
	return remove(ctx, z, types.EntryTypePropertyDescriptor, hash)
}

// GetAllPropertyDescriptors returns the latest revision of every live
// property descriptor.
func (z *Zome) GetAllPropertyDescriptors(ctx context.Context) ([]PropertyDescriptorRecord, error) {
	return getAll[types.PropertyDescriptor](ctx, z, types.IndexAllPropertyDescriptors)
}

func create[T any](ctx context.Context, z *Zome, entryType, typeName string, d T) (Revision[T], error) {
	entry, err := json.Marshal(d)
	if err != nil {
		return Revision[T]{}, fmt.Errorf("encoding %s %s: %w", entryType, typeName, err)
	}
	rec, err := z.store.Create(ctx, entryType, entry)
	if err != nil {
		return Revision[T]{}, fmt.Errorf("creating %s %s: %w", entryType, typeName, err)
	}
	z.logger.Debugw("created entry", "entry_type", entryType, "type_name", typeName, "action_hash", rec.ActionHash.String())
	return get[T](ctx, z, entryType, rec.ActionHash)
}

func get[T any](ctx context.Context, z *Zome, entryType string, hash types.ActionHash) (Revision[T], error) {
	rec, err := z.store.Get(ctx, hash)
	if err != nil {
		return Revision[T]{}, fmt.Errorf("getting %s %s: %w", entryType, hash, err)
	}
	return decode[T](rec, entryType)
}

func update[T any](ctx context.Context, z *Zome, entryType string, original, previous types.ActionHash, d T) (Revision[T], error) {
	// The original must exist and hold the same kind of entry.
	if _, err := get[T](ctx, z, entryType, original); err != nil {
		return Revision[T]{}, err
	}
	entry, err := json.Marshal(d)
	if err != nil {
		return Revision[T]{}, fmt.Errorf("encoding %s: %w", entryType, err)
	}
	rec, err := z.store.Update(ctx, original, previous, entry)
	if err != nil {
		return Revision[T]{}, fmt.Errorf("updating %s %s: %w", entryType, original, err)
	}
	z.logger.Debugw("updated entry", "entry_type", entryType, "original", original.String(), "action_hash", rec.ActionHash.String())
	return decode[T](rec, entryType)
}

func remove(ctx context.Context, z *Zome, entryType string, hash types.ActionHash) (types.ActionHash, error) {
	rec, err := z.store.Get(ctx, hash)
	if err != nil {
		return types.ActionHash{}, fmt.Errorf("getting %s %s: %w", entryType, hash, err)
	}
	if rec.EntryType != entryType {
		return types.ActionHash{}, fmt.Errorf("%s holds a %s, not a %s: %w", hash, rec.EntryType, entryType, types.ErrNotFound)
	}
	deleted, err := z.store.Delete(ctx, hash)
	if err != nil {
		return types.ActionHash{}, fmt.Errorf("deleting %s %s: %w", entryType, hash, err)
	}
	z.logger.Debugw("deleted entry", "entry_type", entryType, "action_hash", hash.String())
	return deleted, nil
}

func getAll[T any](ctx context.Context, z *Zome, index string) ([]Revision[T], error) {
	recs, err := z.store.GetAll(ctx, index)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", index, err)
	}
	out := make([]Revision[T], 0, len(recs))
	for _, rec := range recs {
		r, err := decode[T](rec, rec.EntryType)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func decode[T any](rec types.Record, entryType string) (Revision[T], error) {
	if rec.EntryType != entryType {
		return Revision[T]{}, fmt.Errorf("%s holds a %s, not a %s: %w", rec.ActionHash, rec.EntryType, entryType, types.ErrNotFound)
	}
	var d T
	if err := json.Unmarshal(rec.Entry, &d); err != nil {
		return Revision[T]{}, fmt.Errorf("decoding %s %s: %v: %w", entryType, rec.ActionHash, err, types.ErrInvalidData)
	}
	return Revision[T]{
		ActionHash:   rec.ActionHash,
		OriginalHash: rec.OriginalHash,
		PreviousHash: rec.PreviousHash,
		CreatedAt:    rec.CreatedAt,
		Descriptor:   d,
	}, nil
}
