package types

import "time"

// Link type constants.
const (
	LinkTypeIndex                     = "index"                       // index path → entry
	LinkTypeHolonDescriptorUpdates    = "holon_descriptor_updates"    // original → revision
	LinkTypePropertyDescriptorUpdates = "property_descriptor_updates" // original → revision
)

// Link represents a directed edge between an index path or an original
// action and another action.
type Link struct {
	// LinkID is a UUID v7, generated on creation.
	LinkID string `json:"link_id"`

	// LinkType is one of the LinkType constants.
	LinkType string `json:"link_type"`

	// FromID is the index path or the original action hash.
	FromID string `json:"from_id"`

	// ToID is the target action hash.
	ToID string `json:"to_id"`

	// CreatedAt is the timestamp of creation.
	CreatedAt time.Time `json:"created_at"`
}
