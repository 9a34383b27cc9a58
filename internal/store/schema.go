package store

import (
	"fmt"
	"strings"

	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/normalize"
)

// Schema describes how records of one kind are keyed and indexed.
// Both storage engines build their tables from the same schema.
type Schema[T any] struct {
	Kind    string // Table name, also the Badger key prefix without the colon
	ID      func(*T) string
	Indexes []Index[T]
}

// Index defines a secondary index. Keys returns the encoded values the
// record is indexed under; a record may have several.
type Index[T any] struct {
	Name   string
	Unique bool
	Keys   func(*T) []string
}

// IndexEntry is one (index, value) pair produced for a record.
type IndexEntry struct {
	Name   string
	Value  string
	Unique bool
}

// Prefix returns the Badger key prefix for records of this kind.
func (s Schema[T]) Prefix() string {
	return s.Kind + ":"
}

// HasIndex reports whether the schema defines an index with that name.
func (s Schema[T]) HasIndex(name string) bool {
	for _, idx := range s.Indexes {
		if idx.Name == name {
			return true
		}
	}
	return false
}

// Entries returns every index entry for v, deduplicated per index.
func (s Schema[T]) Entries(v *T) []IndexEntry {
	var entries []IndexEntry
	for _, idx := range s.Indexes {
		seen := make(map[string]struct{})
		for _, key := range idx.Keys(v) {
			key = normalize.IndexValue(key)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			entries = append(entries, IndexEntry{Name: idx.Name, Value: key, Unique: idx.Unique})
		}
	}
	return entries
}

// CheckLookup returns a validation error for a lookup on an unknown index.
func (s Schema[T]) CheckLookup(l Lookup) error {
	if !s.HasIndex(l.Index) {
		return errors.Validationf("%s has no index %q", s.Kind, l.Index)
	}
	return nil
}

// ValidateID rejects ids that would corrupt index keys.
func (s Schema[T]) ValidateID(v *T) (string, error) {
	id := s.ID(v)
	if id == "" {
		return "", errors.Validationf("%s record has empty id", s.Kind)
	}
	if normalize.IndexValue(id) != id {
		return "", errors.Validation(fmt.Sprintf("%s id %q contains a NUL byte or invalid UTF-8", s.Kind, id))
	}
	if strings.HasPrefix(id, indexNamespace) {
		return "", errors.Validationf("%s id %q collides with the index namespace", s.Kind, id)
	}
	return id, nil
}
