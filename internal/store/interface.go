// Package store defines the persistence interface for the tag catalog and
// its default Badger implementation.
package store

import (
	"context"

	"github.com/listenupapp/tagcatalog/internal/domain"
)

// Table is a keyed collection of records of one kind with secondary indexes.
//
// Get returns a CodeNotFound error for a missing id. BulkGet skips missing
// ids and keeps the order of the ids it found. Delete and BulkDelete are
// idempotent. Engine failures are returned as CodeStorage errors.
type Table[T any] interface {
	Create(ctx context.Context, v *T) error
	Put(ctx context.Context, v *T) error
	Get(ctx context.Context, id string) (*T, error)
	BulkGet(ctx context.Context, ids []string) ([]*T, error)
	BulkPut(ctx context.Context, vs []*T) error
	Delete(ctx context.Context, id string) error
	BulkDelete(ctx context.Context, ids []string) error
	All(ctx context.Context) ([]*T, error)
	Count(ctx context.Context) (int, error)
	Filter(ctx context.Context, pred func(*T) bool) ([]*T, error)
	Where(ctx context.Context, lookup Lookup) ([]*T, error)
}

// Backend is a storage engine holding every table of the catalog.
type Backend interface {
	Files() Table[domain.File]
	Tags() Table[domain.Tag]
	Locations() Table[domain.Location]
	Searches() Table[domain.SavedSearch]
	Close() error
}

// SearchIndexer keeps a full-text index in sync with file writes.
type SearchIndexer interface {
	IndexFiles(ctx context.Context, files []*domain.File) error
	DeleteFiles(ctx context.Context, ids []string) error
}

// NoopSearchIndexer is used when quick search is disabled.
type NoopSearchIndexer struct{}

// IndexFiles is a no-op.
func (NoopSearchIndexer) IndexFiles(context.Context, []*domain.File) error { return nil }

// DeleteFiles is a no-op.
func (NoopSearchIndexer) DeleteFiles(context.Context, []string) error { return nil }

// NewNoopSearchIndexer creates a new no-op search indexer.
func NewNoopSearchIndexer() SearchIndexer {
	return NoopSearchIndexer{}
}
