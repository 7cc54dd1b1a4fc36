package types

// Entry types accepted by Store.Create.
const (
	EntryTypeHolonDescriptor    = "HolonDescriptor"
	EntryTypePropertyDescriptor = "PropertyDescriptor"
)

// Index paths every created entry is linked from.
const (
	IndexAllHolonTypes          = "all_holon_types"
	IndexAllPropertyDescriptors = "all_property_descriptors"
)

// StandardEntryTypes lists the entry types in creation order.
var StandardEntryTypes = []string{
	EntryTypeHolonDescriptor,
	EntryTypePropertyDescriptor,
}

// entryIndexes maps an entry type to its index path.
var entryIndexes = map[string]string{
	EntryTypeHolonDescriptor:    IndexAllHolonTypes,
	EntryTypePropertyDescriptor: IndexAllPropertyDescriptors,
}

// entryUpdateLinks maps an entry type to the link type joining an original
// to its revisions.
var entryUpdateLinks = map[string]string{
	EntryTypeHolonDescriptor:    LinkTypeHolonDescriptorUpdates,
	EntryTypePropertyDescriptor: LinkTypePropertyDescriptorUpdates,
}

// IndexFor returns the index path for entryType.
func IndexFor(entryType string) (string, bool) {
	idx, ok := entryIndexes[entryType]
	return idx, ok
}

// UpdateLinkFor returns the update link type for entryType.
func UpdateLinkFor(entryType string) (string, bool) {
	lt, ok := entryUpdateLinks[entryType]
	return lt, ok
}

// IsIndex reports whether path is a known index path.
func IsIndex(path string) bool {
	for _, idx := range entryIndexes {
		if idx == path {
			return true
		}
	}
	return false
}
