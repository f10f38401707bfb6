// Package storage contains the storage-agnostic contracts used to publish the
// fact table into a database: the Repository interface, a registry of backend
// factories keyed by storage kind, DDL bootstrappers and the batched loader.
//
// Concrete backends live in subpackages and register themselves from init();
// importing salesetl/internal/storage/all enables every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config is the backend-neutral repository configuration.
type Config struct {
	// Kind selects the backend ("postgres", "sqlite", "mssql", "mysql", "kafka").
	Kind string

	// DSN is passed to the backend driver.
	DSN string

	// Table is the destination table, optionally schema-qualified.
	Table string

	// Columns is the ordered destination column list.
	Columns []string
}

// Repository is what the publisher needs from a backend.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to columns and returns the number of
	// rows the backend reports as written.
	CopyFrom(ctx context.Context, columns []string, rows [][]any) (int64, error)

	// Exec runs a single statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// Close releases connections.
	Close()
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
