// Package sqlite provides the public API for the SQLite descriptor store.
// This package exposes the factory function for creating SQLite backends
// while keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/holons/internal/sqlite"
	"github.com/mesh-intelligence/holons/pkg/types"
)

// Option configures a backend created by NewBackend.
type Option = sqlite.Option

// Backend options.
var (
	WithLogger = sqlite.WithLogger
	WithClock  = sqlite.WithClock
)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".holons-db",
//	})
//	defer backend.Detach()
//	zome := descriptors.NewZome(backend, nil)
func NewBackend(opts ...Option) types.Backend {
	return sqlite.NewBackend(opts...)
}
