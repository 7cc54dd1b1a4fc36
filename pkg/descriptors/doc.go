// Package descriptors builds, updates and persists holon and property
// descriptors.
// Implements: descriptor mutators (New*Descriptor, Update*Descriptor);
//
//	property map builder (UpsertPropertyDescriptor, RemovePropertyDescriptor);
//	storage facade over types.Store (Zome, RevisionChain);
//	shared type resolution (Resolver, ResolveReferences).
//
// Mutators and the map builder do no I/O. Everything that touches storage
// goes through a Zome.
package descriptors
