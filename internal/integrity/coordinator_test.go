package integrity_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/integrity"
	"github.com/listenupapp/tagcatalog/internal/query"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/store/storetest"
	"github.com/listenupapp/tagcatalog/internal/taggraph"
)

type failingFiles struct {
	store.Table[domain.File]
}

func (failingFiles) BulkPut(context.Context, []*domain.File) error {
	return errors.Storage(stderrors.New("disk full"), "bulk put")
}

type env struct {
	store *store.Store
	graph *taggraph.Graph
}

func setup(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(t.TempDir(), store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	tags := []*domain.Tag{
		{ID: domain.RootTagID, SubTags: []string{"A", "B", "P"}},
		{ID: "A"},
		{ID: "B"},
		{ID: "P", SubTags: []string{"C"}},
		{ID: "C"},
	}
	require.NoError(t, s.Tags().BulkPut(ctx, tags))
	graph, _ := taggraph.Build(tags)

	require.NoError(t, s.Files().BulkPut(ctx, []*domain.File{
		storetest.File("f1", "one", 1, "A"),
		storetest.File("f2", "two", 2, "A", "B"),
		storetest.File("f3", "three", 3, "B", "C"),
		storetest.File("f4", "four", 4),
	}))

	return &env{store: s, graph: graph}
}

func (e *env) coordinator(files store.Table[domain.File]) *integrity.Coordinator {
	planner := query.NewPlanner(files, e.graph, nil)
	return integrity.NewCoordinator(files, e.store.Tags(), planner, e.graph, nil)
}

func (e *env) tags(t *testing.T, id string) []string {
	t.Helper()
	f, err := e.store.Files().Get(context.Background(), id)
	require.NoError(t, err)
	return f.Tags
}

func TestRemoveTags(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	require.NoError(t, e.coordinator(e.store.Files()).RemoveTags(ctx, []string{"A", "C"}))

	assert.Empty(t, e.tags(t, "f1"))
	assert.Equal(t, []string{"B"}, e.tags(t, "f2"))
	assert.Equal(t, []string{"B"}, e.tags(t, "f3"))

	for _, id := range []string{"A", "C"} {
		_, err := e.store.Tags().Get(ctx, id)
		assert.True(t, errors.Is(err, errors.ErrNotFound), id)
	}
	_, err := e.store.Tags().Get(ctx, "B")
	assert.NoError(t, err)
}

func TestRemoveTags_Empty(t *testing.T) {
	e := setup(t)
	assert.NoError(t, e.coordinator(e.store.Files()).RemoveTags(context.Background(), nil))
}

func TestRemoveTags_StorageFailureAborts(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	err := e.coordinator(failingFiles{e.store.Files()}).RemoveTags(ctx, []string{"A"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStorage))

	_, err = e.store.Tags().Get(ctx, "A")
	assert.NoError(t, err, "tag records survive an aborted cascade")
	assert.Equal(t, []string{"A"}, e.tags(t, "f1"))
}

func TestMergeTag(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	require.NoError(t, e.coordinator(e.store.Files()).MergeTag(ctx, "A", "B"))

	assert.Equal(t, []string{"B"}, e.tags(t, "f1"))
	assert.Equal(t, []string{"B"}, e.tags(t, "f2"), "no duplicate after merge")
	assert.Equal(t, []string{"B", "C"}, e.tags(t, "f3"))

	_, err := e.store.Tags().Get(ctx, "A")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestMergeTag_KeepsPosition(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	require.NoError(t, e.coordinator(e.store.Files()).MergeTag(ctx, "B", "A"))

	assert.Equal(t, []string{"A"}, e.tags(t, "f2"))
	assert.Equal(t, []string{"A", "C"}, e.tags(t, "f3"))
}

func TestMergeTag_Rejections(t *testing.T) {
	e := setup(t)
	c := e.coordinator(e.store.Files())
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to string
		want     error
	}{
		{"self", "A", "A", errors.ErrValidation},
		{"has children", "P", "A", errors.ErrConflict},
		{"root", domain.RootTagID, "A", errors.ErrConflict},
		{"unknown source", "nope", "A", errors.ErrNotFound},
		{"unknown target", "A", "nope", errors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.MergeTag(ctx, tt.from, tt.to)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	assert.Equal(t, []string{"A"}, e.tags(t, "f1"))
}
