package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/store/storetest"
)

func newTestStore(t *testing.T, bulkSize int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), store.Options{BulkWriteSize: bulkSize})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen(t *testing.T) {
	s := newTestStore(t, 0)

	var journalMode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	for _, table := range []string{"records", "index_entries"} {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestSQLiteConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T, bulkSize int) store.Backend {
		return newTestStore(t, bulkSize)
	})
}

func TestWhere_MatchesBadger(t *testing.T) {
	ctx := context.Background()

	lite := newTestStore(t, 0)
	badger, err := store.Open(filepath.Join(t.TempDir(), "db"), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = badger.Close() })

	files := []*domain.File{
		storetest.File("file-1", "ab", -3, "t1"),
		storetest.File("file-2", "abc", 0, "t1", "t2"),
		storetest.File("file-3", "ABD", 7),
		storetest.File("file-4", "b", 7, "t3"),
		storetest.File("file-5", "Ä", 1e6, "t2"),
	}
	require.NoError(t, lite.Files().BulkPut(ctx, files))
	require.NoError(t, badger.Files().BulkPut(ctx, files))

	lookups := []store.Lookup{
		store.In(store.IndexTags, "t1", "t2", store.UntaggedValue),
		{Index: store.IndexName, Ranges: []store.Range{store.Prefix("ab")}},
		{Index: store.FoldIndex(store.IndexName), Ranges: []store.Range{store.Prefix(store.EncodeFolded("AB"))}},
		{Index: store.FoldIndex(store.IndexName), Ranges: []store.Range{store.Above(store.EncodeFolded("b"), false)}},
		{Index: store.IndexSize, Ranges: []store.Range{
			store.Below(store.EncodeNumber(7), false),
			store.Above(store.EncodeNumber(7), false),
		}},
		{Index: store.IndexSize, Ranges: []store.Range{store.Equal(store.EncodeNumber(7))}},
		{Index: store.IndexDateAdded, Ranges: []store.Range{{}}},
	}

	for _, l := range lookups {
		want, err := badger.Files().Where(ctx, l)
		require.NoError(t, err)
		got, err := lite.Files().Where(ctx, l)
		require.NoError(t, err)
		assert.Equal(t, storetest.IDs(want), storetest.IDs(got), "lookup %+v", l)
	}
}
