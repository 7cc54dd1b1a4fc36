package types

import (
	"encoding/json"
	"fmt"
)

// BaseType tags the kind of type a TypeHeader describes.
type BaseType string

// Base types. The set is closed; see IsValidBaseType.
const (
	BaseTypeHolon        BaseType = "Holon"
	BaseTypeCollection   BaseType = "Collection"
	BaseTypeComposite    BaseType = "Composite"
	BaseTypeRelationship BaseType = "Relationship"
	BaseTypeBoolean      BaseType = "Boolean"
	BaseTypeInteger      BaseType = "Integer"
	BaseTypeString       BaseType = "String"
	BaseTypeEnum         BaseType = "Enum"
)

// validBaseTypes is the set of recognized base types.
var validBaseTypes = map[BaseType]bool{
	BaseTypeHolon:        true,
	BaseTypeCollection:   true,
	BaseTypeComposite:    true,
	BaseTypeRelationship: true,
	BaseTypeBoolean:      true,
	BaseTypeInteger:      true,
	BaseTypeString:       true,
	BaseTypeEnum:         true,
}

// IsValidBaseType reports whether bt is one of the BaseType constants.
func IsValidBaseType(bt BaseType) bool {
	return validBaseTypes[bt]
}

func (bt BaseType) String() string {
	return string(bt)
}

// baseTypeJSON is the tagged wire form of a BaseType: {"type":"Holon"}.
type baseTypeJSON struct {
	Type string `json:"type"`
}

// MarshalJSON encodes the base type as a tagged object.
func (bt BaseType) MarshalJSON() ([]byte, error) {
	return json.Marshal(baseTypeJSON{Type: string(bt)})
}

// UnmarshalJSON accepts the tagged object form and rejects unknown tags.
func (bt *BaseType) UnmarshalJSON(data []byte) error {
	var v baseTypeJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding base type: %w", err)
	}
	if !IsValidBaseType(BaseType(v.Type)) {
		return fmt.Errorf("base type %q: %w", v.Type, ErrInvalidData)
	}
	*bt = BaseType(v.Type)
	return nil
}

// SemanticVersion is the version carried by every TypeHeader.
type SemanticVersion struct {
	Major uint8 `json:"major"`
	Minor uint8 `json:"minor"`
	Patch uint8 `json:"patch"`
}

// DefaultVersion is the version assigned to newly constructed headers.
func DefaultVersion() SemanticVersion {
	return SemanticVersion{Major: 0, Minor: 0, Patch: 1}
}

func (v SemanticVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// TypeHeader is the metadata common to every descriptor.
type TypeHeader struct {
	TypeName    string          `json:"type_name"` // Required, unique within a namespace.
	BaseType    BaseType        `json:"base_type"`
	Description string          `json:"description"`
	Label       string          `json:"label"` // Human readable display name.
	Version     SemanticVersion `json:"version"`
	IsDependent bool            `json:"is_dependent"` // Instances cannot exist without a parent.
}

// Validate checks the header's required fields.
// Returns an error matching ErrEmptyField when TypeName is empty and
// ErrInvalidData when BaseType is not recognized.
func (h TypeHeader) Validate() error {
	if h.TypeName == "" {
		return EmptyField("type_name")
	}
	if !IsValidBaseType(h.BaseType) {
		return fmt.Errorf("base_type %q: %w", h.BaseType, ErrInvalidData)
	}
	return nil
}
