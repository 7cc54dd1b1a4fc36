package descriptors

import (
	"github.com/mesh-intelligence/holons/pkg/types"
)

// NewPropertyDescriptorMap returns an empty map.
func NewPropertyDescriptorMap() types.PropertyDescriptorMap {
	return types.PropertyDescriptorMap{Properties: make(map[string]types.PropertyDescriptorUsage)}
}

// NewPropertyUsage binds descriptor to a slot with usage-local description
// and label.
func NewPropertyUsage(description, label string, descriptor types.PropertyDescriptor, sharing types.DescriptorSharing) types.PropertyDescriptorUsage {
	return types.PropertyDescriptorUsage{
		Description: description,
		Label:       label,
		Descriptor:  descriptor.Clone(),
		Sharing:     sharing,
	}
}

// UpsertPropertyDescriptor stores a copy of usage under name, replacing any
// usage already there.
// Returns an error matching types.ErrEmptyField when name is empty.
func UpsertPropertyDescriptor(m *types.PropertyDescriptorMap, name string, usage types.PropertyDescriptorUsage) error {
	if name == "" {
		return types.EmptyField("property_name")
	}
	if m.Properties == nil {
		m.Properties = make(map[string]types.PropertyDescriptorUsage)
	}
	m.Properties[name] = usage.Clone()
	return nil
}

// RemovePropertyDescriptor deletes name from m. Removing an absent name is
// a no-op.
func RemovePropertyDescriptor(m *types.PropertyDescriptorMap, name string) {
	delete(m.Properties, name)
}
