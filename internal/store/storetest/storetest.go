// Package storetest holds a conformance suite run against every storage engine.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/store"
)

// Opener returns a fresh, empty backend. bulkSize is the engine's bulk
// write chunk size; the suite uses small values to force several chunks.
type Opener func(t *testing.T, bulkSize int) store.Backend

// File builds a file record for tests.
func File(id, name string, size int64, tags ...string) *domain.File {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	return &domain.File{
		ID:              id,
		LocationID:      "loc-1",
		Name:            name,
		Extension:       "jpg",
		RelativePath:    "photos/" + name + ".jpg",
		AbsolutePath:    "/data/photos/" + name + ".jpg",
		Size:            size,
		Tags:            tags,
		DateAdded:       base,
		DateModified:    base,
		DateCreated:     base,
		DateLastIndexed: base,
	}
}

// IDs returns the ids of files in order.
func IDs(files []*domain.File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}

// Run executes the conformance suite.
func Run(t *testing.T, open Opener) {
	t.Run("CreateGet", func(t *testing.T) { testCreateGet(t, open(t, 500)) })
	t.Run("PutReplacesIndexEntries", func(t *testing.T) { testPutReplaces(t, open(t, 500)) })
	t.Run("InvalidUTF8IndexedAsStored", func(t *testing.T) { testInvalidUTF8(t, open(t, 500)) })
	t.Run("DeleteIdempotent", func(t *testing.T) { testDelete(t, open(t, 500)) })
	t.Run("BulkGetSkipsMissing", func(t *testing.T) { testBulkGet(t, open(t, 500)) })
	t.Run("BulkWritesChunked", func(t *testing.T) { testBulkChunked(t, open(t, 3)) })
	t.Run("WhereEquality", func(t *testing.T) { testWhereEquality(t, open(t, 500)) })
	t.Run("WhereRanges", func(t *testing.T) { testWhereRanges(t, open(t, 500)) })
	t.Run("WherePrefixAndFold", func(t *testing.T) { testWherePrefixFold(t, open(t, 500)) })
	t.Run("WhereUnknownIndex", func(t *testing.T) { testWhereUnknownIndex(t, open(t, 500)) })
	t.Run("UniqueIndex", func(t *testing.T) { testUniqueIndex(t, open(t, 500)) })
	t.Run("FilterAndCount", func(t *testing.T) { testFilterCount(t, open(t, 500)) })
	t.Run("CanceledContext", func(t *testing.T) { testCanceled(t, open(t, 500)) })
}

func testCreateGet(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	f := File("file-1", "sunset", 10, "tag-a")
	require.NoError(t, files.Create(ctx, f))

	got, err := files.Get(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, "sunset", got.Name)
	assert.Equal(t, []string{"tag-a"}, got.Tags)
	assert.True(t, f.DateAdded.Equal(got.DateAdded))

	err = files.Create(ctx, f)
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))

	_, err = files.Get(ctx, "file-missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	err = files.Put(ctx, &domain.File{})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func testPutReplaces(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	require.NoError(t, files.Put(ctx, File("file-1", "a", 1, "tag-a")))
	require.NoError(t, files.Put(ctx, File("file-1", "a", 1, "tag-b")))

	got, err := files.Where(ctx, store.In(store.IndexTags, "tag-a"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = files.Where(ctx, store.In(store.IndexTags, "tag-b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"file-1"}, IDs(got))
}

func testInvalidUTF8(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()
	stored := "a\uFFFD\uFFFDb"
	byName := func(name string) []string {
		t.Helper()
		got, err := files.Where(ctx, store.In(store.IndexName, store.EncodeString(name)))
		require.NoError(t, err)
		return IDs(got)
	}

	require.NoError(t, files.Put(ctx, File("file-1", "a\xff\xfeb", 1)))
	got, err := files.Get(ctx, "file-1")
	require.NoError(t, err)
	assert.Equal(t, stored, got.Name)
	assert.Equal(t, []string{"file-1"}, byName(stored))

	require.NoError(t, files.Put(ctx, File("file-1", "zzz", 1)))
	assert.Empty(t, byName(stored))
	assert.Equal(t, []string{"file-1"}, byName("zzz"))

	require.NoError(t, files.Put(ctx, File("file-2", "x\x80", 2)))
	require.NoError(t, files.Delete(ctx, "file-2"))
	assert.Empty(t, byName("x\uFFFD"))

	n, err := files.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testDelete(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	require.NoError(t, files.Put(ctx, File("file-1", "a", 1, "tag-a")))
	require.NoError(t, files.Delete(ctx, "file-1"))
	require.NoError(t, files.Delete(ctx, "file-1"))

	_, err := files.Get(ctx, "file-1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	got, err := files.Where(ctx, store.In(store.IndexTags, "tag-a"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testBulkGet(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	require.NoError(t, files.BulkPut(ctx, []*domain.File{
		File("file-1", "a", 1), File("file-2", "b", 2), File("file-3", "c", 3),
	}))

	got, err := files.BulkGet(ctx, []string{"file-3", "file-missing", "file-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"file-3", "file-1"}, IDs(got))
}

func testBulkChunked(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	var batch []*domain.File
	var ids []string
	for i := range 10 {
		id := fmt.Sprintf("file-%02d", i)
		batch = append(batch, File(id, id, int64(i), "tag-x"))
		ids = append(ids, id)
	}
	require.NoError(t, files.BulkPut(ctx, batch))

	n, err := files.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	tagged, err := files.Where(ctx, store.In(store.IndexTags, "tag-x"))
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, IDs(tagged))

	require.NoError(t, files.BulkDelete(ctx, append(ids[:7:7], "file-missing")))
	n, err = files.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func testWhereEquality(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	require.NoError(t, files.BulkPut(ctx, []*domain.File{
		File("file-1", "a", 1, "tag-a", "tag-b"),
		File("file-2", "b", 2, "tag-b"),
		File("file-3", "c", 3),
		File("file-4", "d", 4, "tag-c"),
	}))

	got, err := files.Where(ctx, store.In(store.IndexTags, "tag-a", "tag-b"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"file-1", "file-2"}, IDs(got))
	assert.Len(t, got, 2, "records matching several values are returned once")

	got, err = files.Where(ctx, store.In(store.IndexTags, store.UntaggedValue))
	require.NoError(t, err)
	assert.Equal(t, []string{"file-3"}, IDs(got))
}

func testWhereRanges(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	require.NoError(t, files.BulkPut(ctx, []*domain.File{
		File("file-neg", "n", -5),
		File("file-0", "z", 0),
		File("file-10", "t", 10),
		File("file-20", "u", 20),
		File("file-300", "h", 300),
	}))

	idx := store.IndexSize
	enc := func(f float64) string { return store.EncodeNumber(f) }

	tests := []struct {
		name   string
		ranges []store.Range
		want   []string
	}{
		{"equal", []store.Range{store.Equal(enc(10))}, []string{"file-10"}},
		{"below exclusive", []store.Range{store.Below(enc(10), false)}, []string{"file-neg", "file-0"}},
		{"below inclusive", []store.Range{store.Below(enc(10), true)}, []string{"file-neg", "file-0", "file-10"}},
		{"above exclusive", []store.Range{store.Above(enc(20), false)}, []string{"file-300"}},
		{"above inclusive", []store.Range{store.Above(enc(20), true)}, []string{"file-20", "file-300"}},
		{"between", []store.Range{store.Between(enc(0), enc(20))}, []string{"file-0", "file-10"}},
		{"two open ranges", []store.Range{store.Below(enc(10), false), store.Above(enc(10), false)},
			[]string{"file-neg", "file-0", "file-20", "file-300"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := files.Where(ctx, store.Lookup{Index: idx, Ranges: tt.ranges})
			require.NoError(t, err)
			assert.Equal(t, tt.want, IDs(got))
		})
	}
}

func testWherePrefixFold(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	require.NoError(t, files.BulkPut(ctx, []*domain.File{
		File("file-1", "Holiday", 1),
		File("file-2", "holiday-2", 2),
		File("file-3", "Work", 3),
	}))

	got, err := files.Where(ctx, store.Lookup{Index: store.IndexName, Ranges: []store.Range{store.Prefix("Hol")}})
	require.NoError(t, err)
	assert.Equal(t, []string{"file-1"}, IDs(got))

	got, err = files.Where(ctx, store.Lookup{
		Index:  store.FoldIndex(store.IndexName),
		Ranges: []store.Range{store.Prefix(store.EncodeFolded("HOL"))},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"file-1", "file-2"}, IDs(got))

	got, err = files.Where(ctx, store.In(store.FoldIndex(store.IndexName), store.EncodeFolded("WORK")))
	require.NoError(t, err)
	assert.Equal(t, []string{"file-3"}, IDs(got))
}

func testWhereUnknownIndex(t *testing.T, b store.Backend) {
	_, err := b.Files().Where(context.Background(), store.In("colour", "red"))
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func testUniqueIndex(t *testing.T, b store.Backend) {
	ctx := context.Background()
	locs := b.Locations()

	require.NoError(t, locs.Create(ctx, &domain.Location{ID: "loc-1", Path: "/photos"}))
	require.NoError(t, locs.Put(ctx, &domain.Location{ID: "loc-1", Path: "/photos", Index: 1}))

	err := locs.Create(ctx, &domain.Location{ID: "loc-2", Path: "/photos"})
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))

	got, err := locs.Where(ctx, store.In(store.IndexPath, "/photos"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Index)
}

func testFilterCount(t *testing.T, b store.Backend) {
	ctx := context.Background()
	files := b.Files()

	require.NoError(t, files.BulkPut(ctx, []*domain.File{
		File("file-1", "a", 100), File("file-2", "b", 200), File("file-3", "c", 300),
	}))
	require.NoError(t, b.Tags().Put(ctx, domain.NewRootTag()))

	got, err := files.Filter(ctx, func(f *domain.File) bool { return f.Size >= 200 })
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"file-2", "file-3"}, IDs(got))

	all, err := files.All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := files.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = b.Tags().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func testCanceled(t *testing.T, b store.Backend) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Files().All(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, b.Files().Put(ctx, File("file-1", "a", 1)), context.Canceled)
}
