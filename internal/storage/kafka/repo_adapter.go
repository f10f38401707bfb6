package kafka

import (
	"context"

	"salesetl/internal/storage"
)

// Kind is the storage.kind value selecting this backend.
const Kind = "kafka"

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register(Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{Brokers: ParseBrokers(cfg.DSN), Topic: cfg.Table})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
}

type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close flushes and closes the writer.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
