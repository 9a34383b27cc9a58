package store

import (
	"context"
	stderrors "errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// DefaultBulkWriteSize is the number of records written per transaction by
// BulkPut and BulkDelete.
const DefaultBulkWriteSize = 500

// BulkPut stores every record, replacing previous versions. Records are
// written in chunks of the store's bulk size, one transaction per chunk; a
// chunk too large for a single transaction is split in half and retried.
// A failure leaves earlier chunks committed.
func (e *Entity[T]) BulkPut(ctx context.Context, vs []*T) error {
	if len(vs) == 0 {
		return ctx.Err()
	}

	ids := make([]string, len(vs))
	for i, v := range vs {
		id, err := e.schema.ValidateID(v)
		if err != nil {
			return err
		}
		ids[i] = id
	}

	err := e.chunked(ctx, len(vs), func(txn *badger.Txn, lo, hi int) error {
		for i := lo; i < hi; i++ {
			data, err := marshal(vs[i])
			if err != nil {
				return err
			}
			if err := e.putTxn(txn, ids[i], vs[i], data); err != nil {
				return err
			}
		}
		return nil
	})
	return e.wrap(err, "bulk put "+e.schema.Kind)
}

// BulkDelete removes every listed record and its index entries.
func (e *Entity[T]) BulkDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return ctx.Err()
	}
	err := e.chunked(ctx, len(ids), func(txn *badger.Txn, lo, hi int) error {
		for _, id := range ids[lo:hi] {
			if err := e.deleteTxn(txn, id); err != nil {
				return err
			}
		}
		return nil
	})
	return e.wrap(err, "bulk delete "+e.schema.Kind)
}

// chunked runs fn over [0, n) in transactions of at most bulkSize items.
func (e *Entity[T]) chunked(ctx context.Context, n int, fn func(txn *badger.Txn, lo, hi int) error) error {
	size := e.store.bulkSize
	for lo := 0; lo < n; lo += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		hi := min(lo+size, n)
		if err := e.commitRange(lo, hi, fn); err != nil {
			return err
		}
	}
	return nil
}

func (e *Entity[T]) commitRange(lo, hi int, fn func(txn *badger.Txn, lo, hi int) error) error {
	err := e.store.db.Update(func(txn *badger.Txn) error {
		return fn(txn, lo, hi)
	})
	if !stderrors.Is(err, badger.ErrTxnTooBig) || hi-lo < 2 {
		return err
	}

	mid := lo + (hi-lo)/2
	e.store.logger.LogAttrs(context.Background(), slog.LevelDebug, "bulk write split",
		slog.String("kind", e.schema.Kind),
		slog.Int("count", hi-lo),
	)
	if err := e.commitRange(lo, mid, fn); err != nil {
		return err
	}
	return e.commitRange(mid, hi, fn)
}
