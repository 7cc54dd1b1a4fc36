package descriptors

import (
	"context"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// RevisionChain tracks the (original, previous) pair across chained
// updates. Original stays fixed; Previous moves to each update's output.
type RevisionChain struct {
	Original types.ActionHash
	Previous types.ActionHash
}

// NewRevisionChain starts a chain at the create action original.
func NewRevisionChain(original types.ActionHash) *RevisionChain {
	return &RevisionChain{Original: original, Previous: original}
}

// Advance records next as the latest revision.
func (c *RevisionChain) Advance(next types.ActionHash) {
	c.Previous = next
}

// HolonInput returns the update input for the next holon revision.
func (c *RevisionChain) HolonInput(updated types.HolonDescriptor) UpdateHolonDescriptorInput {
	return UpdateHolonDescriptorInput{OriginalHash: c.Original, PreviousHash: c.Previous, Updated: updated}
}

// PropertyInput returns the update input for the next property revision.
func (c *RevisionChain) PropertyInput(updated types.PropertyDescriptor) UpdatePropertyDescriptorInput {
	return UpdatePropertyDescriptorInput{OriginalHash: c.Original, PreviousHash: c.Previous, Updated: updated}
}

// UpdateHolon stores updated as the next revision and advances the chain.
// The chain is unchanged on error.
func (c *RevisionChain) UpdateHolon(ctx context.Context, z *Zome, updated types.HolonDescriptor) (HolonDescriptorRecord, error) {
	rec, err := z.UpdateHolonDescriptor(ctx, c.HolonInput(updated))
	if err != nil {
		return HolonDescriptorRecord{}, err
	}
	c.Advance(rec.ActionHash)
	return rec, nil
}

// UpdateProperty stores updated as the next revision and advances the chain.
// The chain is unchanged on error.
func (c *RevisionChain) UpdateProperty(ctx context.Context, z *Zome, updated types.PropertyDescriptor) (PropertyDescriptorRecord, error) {
	rec, err := z.UpdatePropertyDescriptor(ctx, c.PropertyInput(updated))
	if err != nil {
		return PropertyDescriptorRecord{}, err
	}
	c.Advance(rec.ActionHash)
	return rec, nil
}
