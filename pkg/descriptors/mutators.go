package descriptors

import (
	"github.com/mesh-intelligence/holons/pkg/types"
)

// Update option structs. A nil field keeps the original's value.

// BooleanUpdate overrides fields of a Boolean descriptor.
type BooleanUpdate struct {
	Description *string
	Label       *string
	IsFuzzy     *bool
}

// StringUpdate overrides fields of a String descriptor.
type StringUpdate struct {
	Description *string
	Label       *string
	MinLength   *uint32
	MaxLength   *uint32
}

// IntegerUpdate overrides fields of an Integer descriptor.
type IntegerUpdate struct {
	Description *string
	Label       *string
	Format      *types.IntegerFormat
	MinValue    *int64
	MaxValue    *int64
}

// ValueCollectionUpdate overrides fields of a ValueCollection descriptor.
type ValueCollectionUpdate struct {
	Description         *string
	Label               *string
	ContainsItemsOfType *string
	MinItems            *uint32
	MaxItems            *uint32
	UniqueItems         *bool
	IsOrdered           *bool
}

// CompositeUpdate overrides fields of a Composite descriptor. A non-nil
// PropertyMap replaces the whole map.
type CompositeUpdate struct {
	Description *string
	Label       *string
	PropertyMap *types.PropertyDescriptorMap
}

func newPropertyDescriptor(typeName, description, label string, isDependent bool, details types.PropertyDescriptorDetails) (types.PropertyDescriptor, error) {
	h, err := NewTypeHeader(typeName, details.BaseType(), description, label, isDependent)
	if err != nil {
		return types.PropertyDescriptor{}, err
	}
	d := types.PropertyDescriptor{Header: h, Details: details}
	if err := d.Validate(); err != nil {
		return types.PropertyDescriptor{}, err
	}
	return d, nil
}

// NewBooleanDescriptor returns a Boolean property descriptor.
func NewBooleanDescriptor(typeName, description, label string, isDependent, isFuzzy bool) (types.PropertyDescriptor, error) {
	return newPropertyDescriptor(typeName, description, label, isDependent,
		types.BooleanDescriptor{IsFuzzy: isFuzzy})
}

// NewStringDescriptor returns a String property descriptor.
// Returns an error matching types.ErrInvalidConstraint when minLength
// exceeds maxLength.
func NewStringDescriptor(typeName, description, label string, isDependent bool, minLength, maxLength uint32) (types.PropertyDescriptor, error) {
	return newPropertyDescriptor(typeName, description, label, isDependent,
		types.StringDescriptor{MinLength: minLength, MaxLength: maxLength})
}

// NewIntegerDescriptor returns an Integer property descriptor.
// Returns an error matching types.ErrInvalidConstraint when the bounds are
// inverted or do not fit format.
func NewIntegerDescriptor(typeName, description, label string, isDependent bool, format types.IntegerFormat, minValue, maxValue int64) (types.PropertyDescriptor, error) {
	return newPropertyDescriptor(typeName, description, label, isDependent,
		types.IntegerDescriptor{Format: format, MinValue: minValue, MaxValue: maxValue})
}

// NewValueCollectionDescriptor returns a ValueCollection property
// descriptor holding items of itemType.
func NewValueCollectionDescriptor(typeName, description, label string, isDependent bool, itemType string, minItems, maxItems uint32, uniqueItems, isOrdered bool) (types.PropertyDescriptor, error) {
	return newPropertyDescriptor(typeName, description, label, isDependent,
		types.ValueCollectionDescriptor{
			ContainsItemsOfType: itemType,
			MinItems:            minItems,
			MaxItems:            maxItems,
			UniqueItems:         uniqueItems,
			IsOrdered:           isOrdered,
		})
}

// NewCompositeDescriptor returns a Composite property descriptor owning a
// copy of propertyMap. Nested composites are validated recursively.
func NewCompositeDescriptor(typeName, description, label string, isDependent bool, propertyMap types.PropertyDescriptorMap) (types.PropertyDescriptor, error) {
	return newPropertyDescriptor(typeName, description, label, isDependent,
		types.CompositeDescriptor{PropertyMap: propertyMap.Clone()})
}

// UpdateBooleanDescriptor returns a copy of original with u applied.
// Returns *types.UnexpectedVariantError if original is not a Boolean.
func UpdateBooleanDescriptor(original types.PropertyDescriptor, u BooleanUpdate) (types.PropertyDescriptor, error) {
	details, ok := original.Details.(types.BooleanDescriptor)
	if !ok {
		return types.PropertyDescriptor{}, unexpected(types.BaseTypeBoolean, original)
	}
	if u.IsFuzzy != nil {
		details.IsFuzzy = *u.IsFuzzy
	}
	return finishUpdate(original, u.Description, u.Label, details)
}

// UpdateStringDescriptor returns a copy of original with u applied.
// Returns *types.UnexpectedVariantError if original is not a String.
func UpdateStringDescriptor(original types.PropertyDescriptor, u StringUpdate) (types.PropertyDescriptor, error) {
	details, ok := original.Details.(types.StringDescriptor)
	if !ok {
		return types.PropertyDescriptor{}, unexpected(types.BaseTypeString, original)
	}
	if u.MinLength != nil {
		details.MinLength = *u.MinLength
	}
	if u.MaxLength != nil {
		details.MaxLength = *u.MaxLength
	}
	return finishUpdate(original, u.Description, u.Label, details)
}

// UpdateIntegerDescriptor returns a copy of original with u applied.
// Returns *types.UnexpectedVariantError if original is not an Integer.
func UpdateIntegerDescriptor(original types.PropertyDescriptor, u IntegerUpdate) (types.PropertyDescriptor, error) {
	details, ok := original.Details.(types.IntegerDescriptor)
	if !ok {
		return types.PropertyDescriptor{}, unexpected(types.BaseTypeInteger, original)
	}
	if u.Format != nil {
		details.Format = *u.Format
	}
	if u.MinValue != nil {
		details.MinValue = *u.MinValue
	}
	if u.MaxValue != nil {
		details.MaxValue = *u.MaxValue
	}
	return finishUpdate(original, u.Description, u.Label, details)
}

// UpdateValueCollectionDescriptor returns a copy of original with u applied.
// Returns *types.UnexpectedVariantError if original is not a ValueCollection.
func UpdateValueCollectionDescriptor(original types.PropertyDescriptor, u ValueCollectionUpdate) (types.PropertyDescriptor, error) {
	details, ok := original.Details.(types.ValueCollectionDescriptor)
	if !ok {
		return types.PropertyDescriptor{}, unexpected(types.BaseTypeCollection, original)
	}
	if u.ContainsItemsOfType != nil {
		details.ContainsItemsOfType = *u.ContainsItemsOfType
	}
	if u.MinItems != nil {
		details.MinItems = *u.MinItems
	}
	if u.MaxItems != nil {
		details.MaxItems = *u.MaxItems
	}
	if u.UniqueItems != nil {
		details.UniqueItems = *u.UniqueItems
	}
	if u.IsOrdered != nil {
		details.IsOrdered = *u.IsOrdered
	}
	return finishUpdate(original, u.Description, u.Label, details)
}

// UpdateCompositeDescriptor returns a copy of original with u applied.
// Returns *types.UnexpectedVariantError if original is not a Composite.
func UpdateCompositeDescriptor(original types.PropertyDescriptor, u CompositeUpdate) (types.PropertyDescriptor, error) {
	current, ok := original.Details.(types.CompositeDescriptor)
	if !ok {
		return types.PropertyDescriptor{}, unexpected(types.BaseTypeComposite, original)
	}
	details := types.CompositeDescriptor{PropertyMap: current.PropertyMap.Clone()}
	if u.PropertyMap != nil {
		details.PropertyMap = u.PropertyMap.Clone()
	}
	return finishUpdate(original, u.Description, u.Label, details)
}

func finishUpdate(original types.PropertyDescriptor, description, label *string, details types.PropertyDescriptorDetails) (types.PropertyDescriptor, error) {
	d := types.PropertyDescriptor{
		Header:  applyHeaderUpdate(original.Header, description, label),
		Details: details,
	}
	if err := d.Validate(); err != nil {
		return types.PropertyDescriptor{}, err
	}
	return d, nil
}

func unexpected(want types.BaseType, got types.PropertyDescriptor) error {
	var actual types.BaseType
	if got.Details != nil {
		actual = got.Details.BaseType()
	}
	return &types.UnexpectedVariantError{Expected: want, Actual: actual}
}
