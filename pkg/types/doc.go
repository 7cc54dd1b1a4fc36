// Package types defines the descriptor type model, the Store interface the
// descriptor subsystem persists through, configuration, and the standard
// error types.
// Implements: descriptor data model (TypeHeader, PropertyDescriptor,
// PropertyDescriptorMap, DescriptorSharing, HolonDescriptor);
//
//	storage collaborator interface (Store, Backend, Record, ActionHash);
//	backend configuration (Config, SQLiteConfig, CacheConfig).
package types
