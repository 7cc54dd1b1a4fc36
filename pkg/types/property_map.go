package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// PropertyDescriptorUsage places a property descriptor inside a holon or
// composite, with usage-local description and label.
type PropertyDescriptorUsage struct {
	Description string             `json:"description"`
	Label       string             `json:"label"`
	Descriptor  PropertyDescriptor `json:"descriptor"`
	Sharing     DescriptorSharing  `json:"sharing"`
}

// Validate checks the usage's descriptor and sharing mode.
func (u PropertyDescriptorUsage) Validate() error {
	if err := u.Sharing.Validate(); err != nil {
		return err
	}
	return u.Descriptor.Validate()
}

// Clone returns a deep copy of u.
func (u PropertyDescriptorUsage) Clone() PropertyDescriptorUsage {
	u.Descriptor = u.Descriptor.Clone()
	return u
}

// PropertyDescriptorMap maps property names to usages. Iteration through
// Names is ordered by name, and so is the JSON encoding.
type PropertyDescriptorMap struct {
	Properties map[string]PropertyDescriptorUsage `json:"properties"`
}

// Len returns the number of properties in m.
func (m PropertyDescriptorMap) Len() int {
	return len(m.Properties)
}

// Get returns the usage stored under name.
func (m PropertyDescriptorMap) Get(name string) (PropertyDescriptorUsage, bool) {
	u, ok := m.Properties[name]
	return u, ok
}

// Names returns the property names in ascending order.
func (m PropertyDescriptorMap) Names() []string {
	names := make([]string, 0, len(m.Properties))
	for name := range m.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns a deep copy of m. The result always has a non-nil map.
func (m PropertyDescriptorMap) Clone() PropertyDescriptorMap {
	out := PropertyDescriptorMap{Properties: make(map[string]PropertyDescriptorUsage, len(m.Properties))}
	for name, u := range m.Properties {
		out.Properties[name] = u.Clone()
	}
	return out
}

// Validate checks every usage in name order and reports the first failure.
func (m PropertyDescriptorMap) Validate() error {
	for _, name := range m.Names() {
		if name == "" {
			return EmptyField("property_name")
		}
		if err := m.Properties[name].Validate(); err != nil {
			return fmt.Errorf("property %s: %w", name, err)
		}
	}
	return nil
}

// MarshalJSON always writes an object for properties, never null.
func (m PropertyDescriptorMap) MarshalJSON() ([]byte, error) {
	props := m.Properties
	if props == nil {
		props = map[string]PropertyDescriptorUsage{}
	}
	return json.Marshal(struct {
		Properties map[string]PropertyDescriptorUsage `json:"properties"`
	}{props})
}

// UnmarshalJSON decodes properties, leaving m with a non-nil map.
func (m *PropertyDescriptorMap) UnmarshalJSON(data []byte) error {
	var in struct {
		Properties map[string]PropertyDescriptorUsage `json:"properties"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Properties == nil {
		in.Properties = map[string]PropertyDescriptorUsage{}
	}
	m.Properties = in.Properties
	return nil
}
