package store_test

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

func setupTestStore(t *testing.T, bulkSize int) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "db"), store.Options{BulkWriteSize: bulkSize})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func TestBadgerConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T, bulkSize int) store.Backend {
		return setupTestStore(t, bulkSize)
	})
}

func TestEntity_ScanSkipsIndexKeys(t *testing.T) {
	s := setupTestStore(t, 0)
	ctx := context.Background()

	// Ids sorting before and after "idx:" keep the scan honest on both sides.
	require.NoError(t, s.Files().BulkPut(ctx, []*domain.File{
		storetest.File("a-file", "a", 1, "tag-1"),
		storetest.File("z-file", "z", 2, "tag-2"),
	}))

	all, err := s.Files().All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-file", "z-file"}, storetest.IDs(all))

	n, err := s.Files().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestEntity_RejectsIndexNamespaceIDs(t *testing.T) {
	s := setupTestStore(t, 0)

	err := s.Files().Put(context.Background(), storetest.File("idx:evil", "x", 1))
	assert.Error(t, err)
}

func TestEntity_InMemory(t *testing.T) {
	s, err := store.Open("", store.Options{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Tags().Create(context.Background(), domain.NewRootTag()))
	root, err := s.Tags().Get(context.Background(), domain.RootTagID)
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
}
