package descriptors

import (
	"strings"

	"github.com/mesh-intelligence/holons/pkg/types"
)

// NewTypeHeader returns a header at the default version.
// Returns an error matching types.ErrEmptyField when typeName is empty.
func NewTypeHeader(typeName string, baseType types.BaseType, description, label string, isDependent bool) (types.TypeHeader, error) {
	h := types.TypeHeader{
		TypeName:    typeName,
		BaseType:    baseType,
		Description: description,
		Label:       label,
		Version:     types.DefaultVersion(),
		IsDependent: isDependent,
	}
	if err := h.Validate(); err != nil {
		return types.TypeHeader{}, err
	}
	return h, nil
}

// DeriveTypeName builds a conventional type name from an optional prefix,
// the base type and an optional suffix, joined by underscores:
// DeriveTypeName("simple", types.BaseTypeBoolean, "") is
// "simple_Boolean_Type". Prefix and suffix are used as written, so a
// suffix that already starts with an underscore yields a double one.
func DeriveTypeName(prefix string, baseType types.BaseType, suffix string) string {
	parts := make([]string, 0, 3)
	if prefix != "" {
		parts = append(parts, prefix)
	}
	parts = append(parts, baseType.String()+"_Type")
	if suffix != "" {
		parts = append(parts, suffix)
	}
	return strings.Join(parts, "_")
}

// applyHeaderUpdate overrides description and label when set.
func applyHeaderUpdate(h types.TypeHeader, description, label *string) types.TypeHeader {
	if description != nil {
		h.Description = *description
	}
	if label != nil {
		h.Label = *label
	}
	return h
}
