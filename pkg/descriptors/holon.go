package descriptors

import (
	"github.com/mesh-intelligence/holons/pkg/types"
)

// HolonUpdate overrides fields of a Holon descriptor. A non-nil PropertyMap
// replaces the whole map.
type HolonUpdate struct {
	Description *string
	Label       *string
	PropertyMap *types.PropertyDescriptorMap
}

// NewHolonDescriptor returns a Holon descriptor with an empty property map.
// Populate it with UpsertPropertyDescriptor.
func NewHolonDescriptor(typeName, description, label string, isDependent bool) (types.HolonDescriptor, error) {
	h, err := NewTypeHeader(typeName, types.BaseTypeHolon, description, label, isDependent)
	if err != nil {
		return types.HolonDescriptor{}, err
	}
	return types.HolonDescriptor{Header: h, PropertyMap: NewPropertyDescriptorMap()}, nil
}

// UpdateHolonDescriptor returns a copy of original with u applied.
func UpdateHolonDescriptor(original types.HolonDescriptor, u HolonUpdate) (types.HolonDescriptor, error) {
	d := types.HolonDescriptor{
		Header:      applyHeaderUpdate(original.Header, u.Description, u.Label),
		PropertyMap: original.PropertyMap.Clone(),
	}
	if u.PropertyMap != nil {
		d.PropertyMap = u.PropertyMap.Clone()
	}
	if err := d.Validate(); err != nil {
		return types.HolonDescriptor{}, err
	}
	return d, nil
}
