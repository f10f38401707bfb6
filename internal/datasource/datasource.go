// Package datasource defines what the loader needs from an input location.
// Implementations live in subpackages: file for local paths, httpds for
// http(s) URLs.
package datasource

import (
	"context"
	"io"
)

// Source is a readable input.
type Source interface {
	// Check reports whether the input exists without reading it.
	Check(ctx context.Context) error

	// Open returns a stream over the input. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)
}
