package store

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/tagcatalog/internal/errors"
)

// Entity is the Badger implementation of Table for one record kind.
//
// Records live at <kind>:<id>. Each index entry is an empty-valued key
// <kind>:idx:<name>:<value>\x00<id>, so a range over values is a single
// ordered key scan.
type Entity[T any] struct {
	store  *Store
	schema Schema[T]
	prefix string
}

// NewEntity creates a new Entity for the schema.
func NewEntity[T any](s *Store, schema Schema[T]) *Entity[T] {
	return &Entity[T]{
		store:  s,
		schema: schema,
		prefix: schema.Prefix(),
	}
}

var _ Table[struct{}] = (*Entity[struct{}])(nil)

// Create stores a new record. Returns CodeAlreadyExists if the id is taken.
func (e *Entity[T]) Create(ctx context.Context, v *T) error {
	return e.write(ctx, v, true)
}

// Put stores a record, replacing any previous version and its index entries.
func (e *Entity[T]) Put(ctx context.Context, v *T) error {
	return e.write(ctx, v, false)
}

func (e *Entity[T]) write(ctx context.Context, v *T, mustBeNew bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	id, err := e.schema.ValidateID(v)
	if err != nil {
		return err
	}
	data, err := marshal(v)
	if err != nil {
		return err
	}

	err = e.store.db.Update(func(txn *badger.Txn) error {
		if mustBeNew {
			_, err := txn.Get(buildKey(e.prefix, id))
			if err == nil {
				return errors.AlreadyExistsf("%s %s already exists", e.schema.Kind, id)
			}
			if !stderrors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return e.putTxn(txn, id, v, data)
	})
	return e.wrap(err, "put "+e.schema.Kind)
}

// putTxn replaces the record and its index entries inside txn.
func (e *Entity[T]) putTxn(txn *badger.Txn, id string, v *T, data []byte) error {
	old, err := e.getTxn(txn, id)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	oldEntries := make(map[IndexEntry]struct{})
	if old != nil {
		for _, entry := range e.schema.Entries(old) {
			oldEntries[entry] = struct{}{}
		}
	}
	newEntries := e.schema.Entries(v)

	for _, entry := range newEntries {
		if _, ok := oldEntries[entry]; ok {
			delete(oldEntries, entry)
			continue
		}
		if entry.Unique {
			if err := e.checkUnique(txn, entry, id); err != nil {
				return err
			}
		}
		if err := txn.Set(buildIndexKey(e.prefix, entry.Name, entry.Value, id), nil); err != nil {
			return err
		}
	}
	for entry := range oldEntries {
		if err := txn.Delete(buildIndexKey(e.prefix, entry.Name, entry.Value, id)); err != nil {
			return err
		}
	}

	return txn.Set(buildKey(e.prefix, id), data)
}

func (e *Entity[T]) checkUnique(txn *badger.Txn, entry IndexEntry, id string) error {
	base := indexBase(e.prefix, entry.Name)
	seek := append(append(base, entry.Value...), 0)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = seek
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(seek); it.ValidForPrefix(seek); it.Next() {
		if _, other, ok := splitIndexKey(it.Item().Key(), base); ok && other != id {
			return errors.AlreadyExistsf("%s with %s %q already exists", e.schema.Kind, entry.Name, entry.Value)
		}
	}
	return nil
}

// Get retrieves a record by id. Returns CodeNotFound if it does not exist.
func (e *Entity[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var v *T
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		v, err = e.getTxn(txn, id)
		return err
	})
	if err != nil {
		return nil, e.wrap(err, "get "+e.schema.Kind)
	}
	return v, nil
}

func (e *Entity[T]) getTxn(txn *badger.Txn, id string) (*T, error) {
	key := buildKey(e.prefix, id)
	defer releaseKey(key)

	item, err := txn.Get(key)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.NotFoundf("%s %s not found", e.schema.Kind, id)
	}
	if err != nil {
		return nil, err
	}

	var v T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal %s %s: %w", e.schema.Kind, id, err)
	}
	return &v, nil
}

// BulkGet retrieves the records that exist among ids, in id order.
func (e *Entity[T]) BulkGet(ctx context.Context, ids []string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(ids))
	err := e.store.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = e.bulkGetTxn(txn, ids, out)
		return err
	})
	if err != nil {
		return nil, e.wrap(err, "bulk get "+e.schema.Kind)
	}
	return out, nil
}

func (e *Entity[T]) bulkGetTxn(txn *badger.Txn, ids []string, out []*T) ([]*T, error) {
	for _, id := range ids {
		v, err := e.getTxn(txn, id)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Delete removes a record and its index entries. Missing ids are ignored.
func (e *Entity[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := e.store.db.Update(func(txn *badger.Txn) error {
		return e.deleteTxn(txn, id)
	})
	return e.wrap(err, "delete "+e.schema.Kind)
}

func (e *Entity[T]) deleteTxn(txn *badger.Txn, id string) error {
	v, err := e.getTxn(txn, id)
	if errors.Is(err, errors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, entry := range e.schema.Entries(v) {
		if err := txn.Delete(buildIndexKey(e.prefix, entry.Name, entry.Value, id)); err != nil {
			return err
		}
	}
	return txn.Delete(buildKey(e.prefix, id))
}

// All returns every record of this kind in id order.
func (e *Entity[T]) All(ctx context.Context) ([]*T, error) {
	return e.Filter(ctx, nil)
}

// Filter returns every record for which pred returns true. A nil pred
// matches everything.
func (e *Entity[T]) Filter(ctx context.Context, pred func(*T) bool) ([]*T, error) {
	var out []*T
	err := e.scan(ctx, true, func(item *badger.Item) error {
		var v T
		if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &v) }); err != nil {
			return fmt.Errorf("unmarshal %s: %w", e.schema.Kind, err)
		}
		if pred == nil || pred(&v) {
			out = append(out, &v)
		}
		return nil
	})
	if err != nil {
		return nil, e.wrap(err, "scan "+e.schema.Kind)
	}
	return out, nil
}

// Count returns the number of records without decoding them.
func (e *Entity[T]) Count(ctx context.Context) (int, error) {
	n := 0
	err := e.scan(ctx, false, func(*badger.Item) error {
		n++
		return nil
	})
	if err != nil {
		return 0, e.wrap(err, "count "+e.schema.Kind)
	}
	return n, nil
}

// scan visits every record key of this kind, skipping the index namespace.
func (e *Entity[T]) scan(ctx context.Context, values bool, fn func(*badger.Item) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	prefix := []byte(e.prefix)
	idxPrefix := []byte(e.prefix + indexNamespace)

	return e.store.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = values

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if bytes.HasPrefix(it.Item().Key(), idxPrefix) {
				// Index keys sort contiguously; jump past them.
				it.Seek(append(bytes.Clone(idxPrefix[:len(idxPrefix)-1]), ':'+1))
				if !it.ValidForPrefix(prefix) {
					break
				}
			}
			if err := fn(it.Item()); err != nil {
				return err
			}
		}
		return nil
	})
}

// Where returns the records with an entry in the lookup's index inside any
// of its ranges. Records are returned once, in first-match order.
func (e *Entity[T]) Where(ctx context.Context, lookup Lookup) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := e.schema.CheckLookup(lookup); err != nil {
		return nil, err
	}

	var out []*T
	err := e.store.db.View(func(txn *badger.Txn) error {
		ids, err := e.lookupIDs(ctx, txn, lookup)
		if err != nil {
			return err
		}
		out, err = e.bulkGetTxn(txn, ids, make([]*T, 0, len(ids)))
		return err
	})
	if err != nil {
		return nil, e.wrap(err, "lookup "+e.schema.Kind+"."+lookup.Index)
	}
	return out, nil
}

func (e *Entity[T]) lookupIDs(ctx context.Context, txn *badger.Txn, lookup Lookup) ([]string, error) {
	base := indexBase(e.prefix, lookup.Index)

	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = base
	it := txn.NewIterator(opts)
	defer it.Close()

	seen := make(map[string]struct{})
	var ids []string

	for _, r := range lookup.Ranges {
		seek := base
		if r.Lower != nil {
			seek = append(bytes.Clone(base), r.Lower.Value...)
		}
		for it.Seek(seek); it.ValidForPrefix(base); it.Next() {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			value, id, ok := splitIndexKey(it.Item().Key(), base)
			if !ok {
				continue
			}
			if r.aboveUpper(value) {
				break
			}
			if r.belowLower(value) {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func marshal[T any](v *T) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "marshal record")
	}
	return data, nil
}

// wrap converts engine errors to CodeStorage, leaving coded errors and
// context errors untouched.
func (e *Entity[T]) wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var coded *errors.Error
	if errors.As(err, &coded) || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Storage(err, op)
}
