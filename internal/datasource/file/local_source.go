// Package file implements local filesystem sources and the atomic file sink
// used for the fact-table output.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"salesetl/internal/datasource"
)

var _ datasource.Source = (*Local)(nil)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// NewLocal returns a new Local data source bound to the provided filesystem
// path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// Check verifies that the path exists, is not a directory and can be opened
// for reading, without consuming it. The returned error wraps the underlying
// *fs.PathError so errors.Is(err, os.ErrNotExist) works for callers.
func (l *Local) Check(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fi, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("stat %s: %w", l.path, ErrIsDir)
	}
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", l.path, err)
	}
	return f.Close()
}

// ErrIsDir is returned by Check when the path names a directory.
var ErrIsDir = errors.New("is a directory")

// Open opens the configured path for reading and returns an io.ReadCloser.
//
// Behavior:
//   - If the context is already canceled at the time of the call, Open returns
//     the context error immediately without touching the filesystem.
//   - Any filesystem error is wrapped with the path for context, while still
//     permitting errors.Is/As checks by callers (e.g., errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}

// Pending is an output file being written. Data goes to a temporary file in
// the destination directory; Commit renames it into place and Abort removes
// it. Readers of the destination never observe a partially written file.
type Pending struct {
	f    *os.File
	dest string
	done bool
}

// Create starts an atomic write to l's path.
func (l *Local) Create(ctx context.Context) (*Pending, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	dir := filepath.Dir(l.path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", l.path, err)
	}
	return &Pending{f: f, dest: l.path}, nil
}

// Write implements io.Writer.
func (p *Pending) Write(b []byte) (int, error) { return p.f.Write(b) }

// Commit flushes the temporary file to disk and renames it to the
// destination.
func (p *Pending) Commit() error {
	if p.done {
		return fmt.Errorf("commit %s: already finished", p.dest)
	}
	p.done = true
	if err := p.f.Sync(); err != nil {
		p.cleanup()
		return fmt.Errorf("sync %s: %w", p.dest, err)
	}
	if err := p.f.Close(); err != nil {
		_ = os.Remove(p.f.Name())
		return fmt.Errorf("close %s: %w", p.dest, err)
	}
	if err := os.Chmod(p.f.Name(), 0o644); err != nil {
		_ = os.Remove(p.f.Name())
		return fmt.Errorf("chmod %s: %w", p.dest, err)
	}
	if err := os.Rename(p.f.Name(), p.dest); err != nil {
		_ = os.Remove(p.f.Name())
		return fmt.Errorf("rename %s: %w", p.dest, err)
	}
	return nil
}

// Abort discards the temporary file. It is safe to call after Commit.
func (p *Pending) Abort() {
	if p.done {
		return
	}
	p.done = true
	p.cleanup()
}

func (p *Pending) cleanup() {
	_ = p.f.Close()
	_ = os.Remove(p.f.Name())
}
