package storage

import (
	"context"
	"fmt"
	"sync"

	"salesetl/internal/ddl"
)

// DDLBootstrapper creates the destination table described by def, in the
// backend's dialect, through repo.Exec. It must be idempotent.
type DDLBootstrapper func(ctx context.Context, repo Repository, def ddl.TableDef) error

// TypeMapper maps a logical column type ("int", "float", "text",
// "timestamp") to a backend column type.
type TypeMapper func(logical string) string

type dialect struct {
	ensure  DDLBootstrapper
	mapType TypeMapper
}

var (
	ddlMu    sync.RWMutex
	dialects = map[string]dialect{}
)

// RegisterDDL registers (or replaces) the DDL support for a storage kind.
// It is typically called from backend packages' init() functions.
func RegisterDDL(kind string, mapType TypeMapper, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = dialect{ensure: fn, mapType: mapType}
}

// MapperFor returns the type mapper registered for kind.
func MapperFor(kind string) (TypeMapper, error) {
	ddlMu.RLock()
	d, ok := dialects[kind]
	ddlMu.RUnlock()
	if !ok || d.mapType == nil {
		return nil, fmt.Errorf("no DDL registered for storage.kind=%q", kind)
	}
	return d.mapType, nil
}

// EnsureTable runs the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, def ddl.TableDef) error {
	ddlMu.RLock()
	d, ok := dialects[kind]
	ddlMu.RUnlock()
	if !ok || d.ensure == nil {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return d.ensure(ctx, repo, def)
}
