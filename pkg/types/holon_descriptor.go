package types

import "fmt"

// HolonDescriptor describes a holon type: a header with base type Holon
// and the properties every holon of the type carries.
type HolonDescriptor struct {
	Header      TypeHeader            `json:"header"`
	PropertyMap PropertyDescriptorMap `json:"property_map"`
}

// Validate checks the header, that it is Holon-tagged, and every property.
func (d HolonDescriptor) Validate() error {
	if err := d.Header.Validate(); err != nil {
		return err
	}
	if d.Header.BaseType != BaseTypeHolon {
		return &UnexpectedVariantError{Expected: BaseTypeHolon, Actual: d.Header.BaseType}
	}
	if err := d.PropertyMap.Validate(); err != nil {
		return fmt.Errorf("%s: %w", d.Header.TypeName, err)
	}
	return nil
}

// Clone returns a deep copy of d.
func (d HolonDescriptor) Clone() HolonDescriptor {
	return HolonDescriptor{Header: d.Header, PropertyMap: d.PropertyMap.Clone()}
}
