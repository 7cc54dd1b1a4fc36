package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// HolonReference points at a stored descriptor by action hash, by type
// name, or both. A reference with neither is malformed.
type HolonReference struct {
	ID   ActionHash
	Name string
}

// Validate returns ErrMalformedReference when both fields are absent.
func (r HolonReference) Validate() error {
	if r.ID.IsEmpty() && r.Name == "" {
		return ErrMalformedReference
	}
	return nil
}

type holonReferenceJSON struct {
	ID   *ActionHash `json:"id"`
	Name *string     `json:"name"`
}

// MarshalJSON encodes absent fields as null.
func (r HolonReference) MarshalJSON() ([]byte, error) {
	var out holonReferenceJSON
	if !r.ID.IsEmpty() {
		id := r.ID
		out.ID = &id
	}
	if r.Name != "" {
		name := r.Name
		out.Name = &name
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (r *HolonReference) UnmarshalJSON(data []byte) error {
	var in holonReferenceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = HolonReference{}
	if in.ID != nil {
		r.ID = *in.ID
	}
	if in.Name != nil {
		r.Name = *in.Name
	}
	return nil
}

// SharingKind says whether a usage's descriptor is owned inline or refers
// to a separately stored descriptor.
type SharingKind uint8

// Sharing kinds. The zero value is Dedicated.
const (
	SharingDedicated SharingKind = iota
	SharingShared
)

func (k SharingKind) String() string {
	switch k {
	case SharingDedicated:
		return "Dedicated"
	case SharingShared:
		return "Shared"
	default:
		return fmt.Sprintf("SharingKind(%d)", uint8(k))
	}
}

// DescriptorSharing is either Dedicated or Shared with a reference.
type DescriptorSharing struct {
	Kind      SharingKind
	Reference HolonReference // set only when Kind is SharingShared
}

// Dedicated returns the inline sharing mode.
func Dedicated() DescriptorSharing {
	return DescriptorSharing{Kind: SharingDedicated}
}

// Shared returns a sharing mode that refers to ref.
func Shared(ref HolonReference) DescriptorSharing {
	return DescriptorSharing{Kind: SharingShared, Reference: ref}
}

// IsShared reports whether s refers to a stored descriptor.
func (s DescriptorSharing) IsShared() bool {
	return s.Kind == SharingShared
}

// Validate checks the reference of a shared mode.
func (s DescriptorSharing) Validate() error {
	switch s.Kind {
	case SharingDedicated:
		return nil
	case SharingShared:
		return s.Reference.Validate()
	default:
		return fmt.Errorf("sharing kind %d: %w", s.Kind, ErrInvalidData)
	}
}

// MarshalJSON writes "Dedicated" or {"Shared":{"id":...,"name":...}}.
func (s DescriptorSharing) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SharingDedicated:
		return []byte(`"Dedicated"`), nil
	case SharingShared:
		return json.Marshal(map[string]HolonReference{"Shared": s.Reference})
	default:
		return nil, fmt.Errorf("sharing kind %d: %w", s.Kind, ErrInvalidData)
	}
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (s *DescriptorSharing) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return err
		}
		if tag != "Dedicated" {
			return fmt.Errorf("sharing %q: %w", tag, ErrInvalidData)
		}
		*s = Dedicated()
		return nil
	}
	var tagged map[string]HolonReference
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	ref, ok := tagged["Shared"]
	if !ok || len(tagged) != 1 {
		return fmt.Errorf("sharing: expected Shared variant: %w", ErrInvalidData)
	}
	*s = Shared(ref)
	return nil
}
