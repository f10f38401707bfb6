package mysql

import (
	"context"

	"salesetl/internal/storage"
	myddl "salesetl/internal/storage/mysql/ddl"
)

// Kind is the storage.kind value selecting this backend.
const Kind = "mysql"

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Table: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL(Kind, myddl.MapType, myddl.EnsureTable)
}

// wrappedRepo adapts *Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close closes the underlying connection pool.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
