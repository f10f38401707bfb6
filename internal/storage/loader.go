package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// the provided rows (aligned to columns) and return the number of rows
// reported as inserted. The rows slice is reused after the call returns and
// must not be retained.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains rows from in, groups them into batches of batchSize and
// calls copyFn once per non-empty batch. It returns the total reported by
// copyFn and the first error encountered; no further batches are attempted
// after an error.
//
// Cancellation: returns (total, ctx.Err()) when canceled. Progress is logged
// on each successful flush.
func LoadBatches(
	ctx context.Context,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, fmt.Errorf("copyFn must not be nil")
	}

	var (
		total     int64
		batches   int64
		batch     = make([][]any, 0, batchSize)
		start     = time.Now()
		lastFlush = start
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			log.Printf("publish: batch #%d failed inserted=%d total=%d err=%v", batches+1, n, total, err)
			return err
		}

		batches++
		now := time.Now()
		rps := float64(0)
		if d := now.Sub(lastFlush); d > 0 {
			rps = float64(n) / d.Seconds()
		}
		log.Printf("publish: batch #%d rps=%.0f inserted=%d total_inserted=%d elapsed=%s",
			batches, rps, n, total, now.Sub(start).Truncate(time.Millisecond))
		lastFlush = now
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				// Produce also closes in on cancellation.
				if err := ctx.Err(); err != nil {
					return total, err
				}
				if err := flush(); err != nil {
					return total, err
				}
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}

// Produce streams rows into a channel with the given buffer. The channel is
// closed after the last row or when ctx is canceled, whichever comes first.
func Produce(ctx context.Context, rows [][]any, buffer int) <-chan []any {
	out := make(chan []any, buffer)
	go func() {
		defer close(out)
		for _, r := range rows {
			select {
			case out <- r:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
