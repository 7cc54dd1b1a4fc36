package types

import (
	"encoding/json"
	"fmt"
	"math"
)

// PropertyDescriptorDetails is the closed set of property descriptor
// variants: BooleanDescriptor, StringDescriptor, IntegerDescriptor,
// CompositeDescriptor and ValueCollectionDescriptor.
type PropertyDescriptorDetails interface {
	// BaseType returns the base type a header wrapping these details must carry.
	BaseType() BaseType

	validate() error
	clone() PropertyDescriptorDetails
	variantTag() string
}

// Details variant tags used on the wire.
const (
	variantBoolean         = "Boolean"
	variantString          = "String"
	variantInteger         = "Integer"
	variantComposite       = "Composite"
	variantValueCollection = "ValueCollection"
)

// BooleanDescriptor describes a boolean property.
type BooleanDescriptor struct {
	IsFuzzy bool `json:"is_fuzzy"` // true for FuzzyBoolean values
}

func (BooleanDescriptor) BaseType() BaseType { return BaseTypeBoolean }
func (BooleanDescriptor) variantTag() string  { return variantBoolean }
func (d BooleanDescriptor) validate() error   { return nil }
func (d BooleanDescriptor) clone() PropertyDescriptorDetails {
	return d
}

// StringDescriptor describes a string property by its length bounds.
type StringDescriptor struct {
	MinLength uint32 `json:"min_length"`
	MaxLength uint32 `json:"max_length"`
}

func (StringDescriptor) BaseType() BaseType { return BaseTypeString }
func (StringDescriptor) variantTag() string  { return variantString }
func (d StringDescriptor) clone() PropertyDescriptorDetails {
	return d
}

func (d StringDescriptor) validate() error {
	if d.MinLength > d.MaxLength {
		return fmt.Errorf("min_length %d exceeds max_length %d: %w", d.MinLength, d.MaxLength, ErrInvalidConstraint)
	}
	return nil
}

// IntegerFormat is the storage format of an integer property.
type IntegerFormat string

// Integer formats.
const (
	IntegerFormatI8  IntegerFormat = "I8"
	IntegerFormatI16 IntegerFormat = "I16"
	IntegerFormatI32 IntegerFormat = "I32"
	IntegerFormatI64 IntegerFormat = "I64"
	IntegerFormatU8  IntegerFormat = "U8"
	IntegerFormatU16 IntegerFormat = "U16"
	IntegerFormatU32 IntegerFormat = "U32"
	IntegerFormatU64 IntegerFormat = "U64"
)

// integerRanges holds the representable range of each format. U64 is
// clamped to MaxInt64 because bounds are stored as int64.
var integerRanges = map[IntegerFormat][2]int64{
	IntegerFormatI8:  {math.MinInt8, math.MaxInt8},
	IntegerFormatI16: {math.MinInt16, math.MaxInt16},
	IntegerFormatI32: {math.MinInt32, math.MaxInt32},
	IntegerFormatI64: {math.MinInt64, math.MaxInt64},
	IntegerFormatU8:  {0, math.MaxUint8},
	IntegerFormatU16: {0, math.MaxUint16},
	IntegerFormatU32: {0, math.MaxUint32},
	IntegerFormatU64: {0, math.MaxInt64},
}

// Range returns the smallest and largest value representable in the format.
// ok is false for an unknown format.
func (f IntegerFormat) Range() (lo, hi int64, ok bool) {
	r, ok := integerRanges[f]
	return r[0], r[1], ok
}

// IntegerDescriptor describes an integer property by format and bounds.
type IntegerDescriptor struct {
	Format   IntegerFormat `json:"format"`
	MinValue int64         `json:"min_value"`
	MaxValue int64         `json:"max_value"`
}

func (IntegerDescriptor) BaseType() BaseType { return BaseTypeInteger }
func (IntegerDescriptor) variantTag() string  { return variantInteger }
func (d IntegerDescriptor) clone() PropertyDescriptorDetails {
	return d
}

func (d IntegerDescriptor) validate() error {
	lo, hi, ok := d.Format.Range()
	if !ok {
		return fmt.Errorf("integer format %q: %w", d.Format, ErrInvalidConstraint)
	}
	if d.MinValue > d.MaxValue {
		return fmt.Errorf("min_value %d exceeds max_value %d: %w", d.MinValue, d.MaxValue, ErrInvalidConstraint)
	}
	if d.MinValue < lo || d.MaxValue > hi {
		return fmt.Errorf("bounds [%d, %d] outside %s range [%d, %d]: %w",
			d.MinValue, d.MaxValue, d.Format, lo, hi, ErrInvalidConstraint)
	}
	return nil
}

// CompositeDescriptor aggregates named property usages. Composites nest:
// a usage's descriptor may itself be a composite.
type CompositeDescriptor struct {
	PropertyMap PropertyDescriptorMap `json:"property_map"`
}

func (CompositeDescriptor) BaseType() BaseType { return BaseTypeComposite }
func (CompositeDescriptor) variantTag() string  { return variantComposite }
func (d CompositeDescriptor) clone() PropertyDescriptorDetails {
	return CompositeDescriptor{PropertyMap: d.PropertyMap.Clone()}
}

func (d CompositeDescriptor) validate() error {
	return d.PropertyMap.Validate()
}

// ValueCollectionDescriptor describes a collection of property values.
// Items are identified by the type name of their descriptor.
type ValueCollectionDescriptor struct {
	ContainsItemsOfType string `json:"contains_items_of_type"`
	MinItems            uint32 `json:"min_items"`
	MaxItems            uint32 `json:"max_items"`
	UniqueItems         bool   `json:"unique_items"` // duplicates are not allowed
	IsOrdered           bool   `json:"is_ordered"`   // items have an intrinsic order
}

func (ValueCollectionDescriptor) BaseType() BaseType { return BaseTypeCollection }
func (ValueCollectionDescriptor) variantTag() string  { return variantValueCollection }
func (d ValueCollectionDescriptor) clone() PropertyDescriptorDetails {
	return d
}

func (d ValueCollectionDescriptor) validate() error {
	if d.ContainsItemsOfType == "" {
		return EmptyField("contains_items_of_type")
	}
	if d.MinItems > d.MaxItems {
		return fmt.Errorf("min_items %d exceeds max_items %d: %w", d.MinItems, d.MaxItems, ErrInvalidConstraint)
	}
	return nil
}

// PropertyDescriptor describes a property (value) type: a header plus the
// variant-specific details.
type PropertyDescriptor struct {
	Header  TypeHeader
	Details PropertyDescriptorDetails
}

// ValueDescriptor is the other name the data model uses for a
// PropertyDescriptor.
type ValueDescriptor = PropertyDescriptor

// Validate checks the header, that the header's base type agrees with the
// details variant, and the variant's constraints. Composite details are
// validated recursively.
func (d PropertyDescriptor) Validate() error {
	if err := d.Header.Validate(); err != nil {
		return err
	}
	if d.Details == nil {
		return fmt.Errorf("%s: details %w", d.Header.TypeName, ErrEmptyField)
	}
	if d.Header.BaseType != d.Details.BaseType() {
		return &UnexpectedVariantError{Expected: d.Header.BaseType, Actual: d.Details.BaseType()}
	}
	if err := d.Details.validate(); err != nil {
		return fmt.Errorf("%s: %w", d.Header.TypeName, err)
	}
	return nil
}

// Clone returns a deep copy; composite maps are not shared with d.
func (d PropertyDescriptor) Clone() PropertyDescriptor {
	out := PropertyDescriptor{Header: d.Header}
	if d.Details != nil {
		out.Details = d.Details.clone()
	}
	return out
}

// Composite returns the composite details, or an UnexpectedVariantError if
// d is not a composite.
func (d PropertyDescriptor) Composite() (CompositeDescriptor, error) {
	c, ok := d.Details.(CompositeDescriptor)
	if !ok {
		return CompositeDescriptor{}, &UnexpectedVariantError{Expected: BaseTypeComposite, Actual: detailsBaseType(d.Details)}
	}
	return c, nil
}

func detailsBaseType(details PropertyDescriptorDetails) BaseType {
	if details == nil {
		return ""
	}
	return details.BaseType()
}

type propertyDescriptorJSON struct {
	Header  TypeHeader      `json:"header"`
	Details json.RawMessage `json:"details"`
}

// MarshalJSON encodes details as an externally tagged variant, for example
// {"header":{...},"details":{"Boolean":{"is_fuzzy":false}}}.
func (d PropertyDescriptor) MarshalJSON() ([]byte, error) {
	details := json.RawMessage("null")
	if d.Details != nil {
		b, err := json.Marshal(map[string]PropertyDescriptorDetails{d.Details.variantTag(): d.Details})
		if err != nil {
			return nil, fmt.Errorf("encoding %s details: %w", d.Header.TypeName, err)
		}
		details = b
	}
	return json.Marshal(propertyDescriptorJSON{Header: d.Header, Details: details})
}

// UnmarshalJSON decodes the externally tagged form written by MarshalJSON.
func (d *PropertyDescriptor) UnmarshalJSON(data []byte) error {
	var raw propertyDescriptorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	details, err := decodeDetails(raw.Details)
	if err != nil {
		return fmt.Errorf("decoding %s details: %w", raw.Header.TypeName, err)
	}
	d.Header = raw.Header
	d.Details = details
	return nil
}

func decodeDetails(data json.RawMessage) (PropertyDescriptorDetails, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return nil, err
	}
	if len(tagged) != 1 {
		return nil, fmt.Errorf("expected one variant, got %d: %w", len(tagged), ErrInvalidData)
	}
	for tag, body := range tagged {
		switch tag {
		case variantBoolean:
			var v BooleanDescriptor
			err := json.Unmarshal(body, &v)
			return v, err
		case variantString:
			var v StringDescriptor
			err := json.Unmarshal(body, &v)
			return v, err
		case variantInteger:
			var v IntegerDescriptor
			err := json.Unmarshal(body, &v)
			return v, err
		case variantComposite:
			var v CompositeDescriptor
			err := json.Unmarshal(body, &v)
			return v, err
		case variantValueCollection:
			var v ValueCollectionDescriptor
			err := json.Unmarshal(body, &v)
			return v, err
		default:
			return nil, fmt.Errorf("unknown details variant %q: %w", tag, ErrInvalidData)
		}
	}
	return nil, nil
}
