package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/store"
)

// maxInParams bounds the ids bound into a single IN (...) clause.
const maxInParams = 500

// Table is the SQLite implementation of store.Table for one record kind.
type Table[T any] struct {
	db       *sql.DB
	schema   store.Schema[T]
	bulkSize int
}

// NewTable creates a table over the shared records and index_entries tables.
func NewTable[T any](db *sql.DB, schema store.Schema[T], bulkSize int) *Table[T] {
	return &Table[T]{db: db, schema: schema, bulkSize: bulkSize}
}

var _ store.Table[struct{}] = (*Table[struct{}])(nil)

// Create inserts a new record. Returns CodeAlreadyExists if the id is taken.
func (t *Table[T]) Create(ctx context.Context, v *T) error {
	id, data, err := t.prepare(ctx, v)
	if err != nil {
		return err
	}
	err = t.inTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM records WHERE kind = ? AND id = ?`, t.schema.Kind, id).Scan(&one)
		if err == nil {
			return errors.AlreadyExistsf("%s %s already exists", t.schema.Kind, id)
		}
		if !stderrors.Is(err, sql.ErrNoRows) {
			return err
		}
		return t.putTx(ctx, tx, id, v, data)
	})
	return t.wrap(err, "put "+t.schema.Kind)
}

// Put inserts or replaces a record and its index entries.
func (t *Table[T]) Put(ctx context.Context, v *T) error {
	id, data, err := t.prepare(ctx, v)
	if err != nil {
		return err
	}
	err = t.inTx(ctx, func(tx *sql.Tx) error {
		return t.putTx(ctx, tx, id, v, data)
	})
	return t.wrap(err, "put "+t.schema.Kind)
}

func (t *Table[T]) prepare(ctx context.Context, v *T) (string, []byte, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	id, err := t.schema.ValidateID(v)
	if err != nil {
		return "", nil, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", nil, errors.Wrap(err, errors.CodeInternal, "marshal record")
	}
	return id, data, nil
}

func (t *Table[T]) putTx(ctx context.Context, tx *sql.Tx, id string, v *T, data []byte) error {
	old, err := t.getTx(ctx, tx, id)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return err
	}

	oldEntries := make(map[store.IndexEntry]struct{})
	if old != nil {
		for _, entry := range t.schema.Entries(old) {
			oldEntries[entry] = struct{}{}
		}
	}

	for _, entry := range t.schema.Entries(v) {
		if _, ok := oldEntries[entry]; ok {
			delete(oldEntries, entry)
			continue
		}
		if entry.Unique {
			var other string
			err := tx.QueryRowContext(ctx, `
				SELECT id FROM index_entries
				WHERE kind = ? AND name = ? AND value = ? AND id <> ?
				LIMIT 1`,
				t.schema.Kind, entry.Name, []byte(entry.Value), id).Scan(&other)
			if err == nil {
				return errors.AlreadyExistsf("%s with %s %q already exists", t.schema.Kind, entry.Name, entry.Value)
			}
			if !stderrors.Is(err, sql.ErrNoRows) {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO index_entries (kind, name, value, id)
			VALUES (?, ?, ?, ?)`,
			t.schema.Kind, entry.Name, []byte(entry.Value), id)
		if err != nil {
			return err
		}
	}

	for entry := range oldEntries {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM index_entries
			WHERE kind = ? AND name = ? AND value = ? AND id = ?`,
			t.schema.Kind, entry.Name, []byte(entry.Value), id)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO records (kind, id, data) VALUES (?, ?, ?)
		ON CONFLICT (kind, id) DO UPDATE SET data = excluded.data`,
		t.schema.Kind, id, data)
	return err
}

// Get retrieves a record by id. Returns CodeNotFound if it does not exist.
func (t *Table[T]) Get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, err := t.getTx(ctx, t.db, id)
	if err != nil {
		return nil, t.wrap(err, "get "+t.schema.Kind)
	}
	return v, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (t *Table[T]) getTx(ctx context.Context, q querier, id string) (*T, error) {
	var data []byte
	err := q.QueryRowContext(ctx,
		`SELECT data FROM records WHERE kind = ? AND id = ?`, t.schema.Kind, id).Scan(&data)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFoundf("%s %s not found", t.schema.Kind, id)
	}
	if err != nil {
		return nil, err
	}
	return t.decode(id, data)
}

func (t *Table[T]) decode(id string, data []byte) (*T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s %s: %w", t.schema.Kind, id, err)
	}
	return &v, nil
}

// BulkGet retrieves the records that exist among ids, in id order.
func (t *Table[T]) BulkGet(ctx context.Context, ids []string) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out, err := t.bulkGet(ctx, t.db, ids)
	if err != nil {
		return nil, t.wrap(err, "bulk get "+t.schema.Kind)
	}
	return out, nil
}

func (t *Table[T]) bulkGet(ctx context.Context, q querier, ids []string) ([]*T, error) {
	found := make(map[string]*T, len(ids))
	for lo := 0; lo < len(ids); lo += maxInParams {
		chunk := ids[lo:min(lo+maxInParams, len(ids))]

		args := make([]any, 0, len(chunk)+1)
		args = append(args, t.schema.Kind)
		for _, id := range chunk {
			args = append(args, id)
		}

		rows, err := q.QueryContext(ctx,
			`SELECT id, data FROM records WHERE kind = ? AND id IN (`+placeholders(len(chunk))+`)`, args...)
		if err != nil {
			return nil, err
		}
		err = func() error {
			defer rows.Close()
			for rows.Next() {
				var (
					id   string
					data []byte
				)
				if err := rows.Scan(&id, &data); err != nil {
					return err
				}
				v, err := t.decode(id, data)
				if err != nil {
					return err
				}
				found[id] = v
			}
			return rows.Err()
		}()
		if err != nil {
			return nil, err
		}
	}

	out := make([]*T, 0, len(found))
	for _, id := range ids {
		if v, ok := found[id]; ok {
			out = append(out, v)
			delete(found, id)
		}
	}
	return out, nil
}

// Delete removes a record and its index entries. Missing ids are ignored.
func (t *Table[T]) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := t.inTx(ctx, func(tx *sql.Tx) error {
		return t.deleteTx(ctx, tx, id)
	})
	return t.wrap(err, "delete "+t.schema.Kind)
}

func (t *Table[T]) deleteTx(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM index_entries WHERE kind = ? AND id = ?`, t.schema.Kind, id); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE kind = ? AND id = ?`, t.schema.Kind, id)
	return err
}

// BulkPut stores every record in transactions of at most bulkSize records.
// A failure leaves earlier chunks committed.
func (t *Table[T]) BulkPut(ctx context.Context, vs []*T) error {
	type prepared struct {
		id   string
		data []byte
	}
	ps := make([]prepared, len(vs))
	for i, v := range vs {
		id, data, err := t.prepare(ctx, v)
		if err != nil {
			return err
		}
		ps[i] = prepared{id: id, data: data}
	}

	err := t.chunked(ctx, len(vs), func(tx *sql.Tx, lo, hi int) error {
		for i := lo; i < hi; i++ {
			if err := t.putTx(ctx, tx, ps[i].id, vs[i], ps[i].data); err != nil {
				return err
			}
		}
		return nil
	})
	return t.wrap(err, "bulk put "+t.schema.Kind)
}

// BulkDelete removes every listed record in chunked transactions.
func (t *Table[T]) BulkDelete(ctx context.Context, ids []string) error {
	err := t.chunked(ctx, len(ids), func(tx *sql.Tx, lo, hi int) error {
		for _, id := range ids[lo:hi] {
			if err := t.deleteTx(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	return t.wrap(err, "bulk delete "+t.schema.Kind)
}

func (t *Table[T]) chunked(ctx context.Context, n int, fn func(tx *sql.Tx, lo, hi int) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for lo := 0; lo < n; lo += t.bulkSize {
		hi := min(lo+t.bulkSize, n)
		if err := t.inTx(ctx, func(tx *sql.Tx) error { return fn(tx, lo, hi) }); err != nil {
			return err
		}
	}
	return nil
}

// All returns every record of this kind in id order.
func (t *Table[T]) All(ctx context.Context) ([]*T, error) {
	return t.Filter(ctx, nil)
}

// Filter returns every record for which pred returns true. A nil pred
// matches everything.
func (t *Table[T]) Filter(ctx context.Context, pred func(*T) bool) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx,
		`SELECT id, data FROM records WHERE kind = ? ORDER BY id`, t.schema.Kind)
	if err != nil {
		return nil, t.wrap(err, "scan "+t.schema.Kind)
	}
	defer rows.Close()

	var out []*T
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, t.wrap(err, "scan "+t.schema.Kind)
		}
		v, err := t.decode(id, data)
		if err != nil {
			return nil, t.wrap(err, "scan "+t.schema.Kind)
		}
		if pred == nil || pred(v) {
			out = append(out, v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, t.wrap(err, "scan "+t.schema.Kind)
	}
	return out, nil
}

// Count returns the number of records of this kind.
func (t *Table[T]) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	var n int
	err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM records WHERE kind = ?`, t.schema.Kind).Scan(&n)
	if err != nil {
		return 0, t.wrap(err, "count "+t.schema.Kind)
	}
	return n, nil
}

// Where returns the records with an entry in the lookup's index inside any
// of its ranges. Records are returned once, in first-match order.
func (t *Table[T]) Where(ctx context.Context, lookup store.Lookup) ([]*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := t.schema.CheckLookup(lookup); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, r := range lookup.Ranges {
		rangeIDs, err := t.rangeIDs(ctx, lookup.Index, r)
		if err != nil {
			return nil, t.wrap(err, "lookup "+t.schema.Kind+"."+lookup.Index)
		}
		for _, id := range rangeIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	out, err := t.bulkGet(ctx, t.db, ids)
	if err != nil {
		return nil, t.wrap(err, "lookup "+t.schema.Kind+"."+lookup.Index)
	}
	return out, nil
}

func (t *Table[T]) rangeIDs(ctx context.Context, index string, r store.Range) ([]string, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id FROM index_entries WHERE kind = ? AND name = ?`)
	args := []any{t.schema.Kind, index}

	if r.Lower != nil {
		if r.Lower.Exclusive {
			sb.WriteString(` AND value > ?`)
		} else {
			sb.WriteString(` AND value >= ?`)
		}
		args = append(args, []byte(r.Lower.Value))
	}
	if r.Upper != nil {
		if r.Upper.Exclusive {
			sb.WriteString(` AND value < ?`)
		} else {
			sb.WriteString(` AND value <= ?`)
		}
		args = append(args, []byte(r.Upper.Value))
	}
	sb.WriteString(` ORDER BY value, id`)

	rows, err := t.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (t *Table[T]) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// wrap converts driver errors to CodeStorage, leaving coded errors and
// context errors untouched.
func (t *Table[T]) wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var coded *errors.Error
	if errors.As(err, &coded) || stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Storage(err, op)
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
