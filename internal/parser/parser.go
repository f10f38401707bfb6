// Package parser maps a pipeline's parser.kind to the reader that turns a
// source stream into a table. Format packages register themselves from init.
package parser

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"salesetl/internal/config"
	"salesetl/internal/table"
)

// ReadFunc parses src into a table named name. Recoverable per-record
// problems go to onErr (which may be nil); src is always closed.
type ReadFunc func(
	ctx context.Context,
	name string,
	src io.ReadCloser,
	opt config.Options,
	onErr func(line int, err error),
) (*table.Table, error)

var (
	mu      sync.RWMutex
	readers = map[string]ReadFunc{}
)

// Register installs (or replaces) the reader for kind.
func Register(kind string, fn ReadFunc) {
	mu.Lock()
	defer mu.Unlock()
	readers[kind] = fn
}

// Lookup returns the reader registered for kind.
func Lookup(kind string) (ReadFunc, error) {
	mu.RLock()
	fn, ok := readers[kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported parser.kind=%q (have %v)", kind, Kinds())
	}
	return fn, nil
}

// Kinds returns the registered kinds, sorted.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(readers))
	for k := range readers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
