package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/integrity"
	"github.com/listenupapp/tagcatalog/internal/query"
	"github.com/listenupapp/tagcatalog/internal/search"
	"github.com/listenupapp/tagcatalog/internal/service"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/taggraph"
)

type catalog struct {
	store     *store.Store
	graph     *taggraph.Graph
	tags      *service.TagService
	files     *service.FileService
	searches  *service.SavedSearchService
	locations *service.LocationService
}

// testLocation is registered by setupCatalog and used by saveFile.
const testLocation = "loc-1"

// setupCatalog is newCatalog with testLocation registered.
func setupCatalog(t *testing.T) *catalog {
	t.Helper()
	c := newCatalog(t)
	require.NoError(t, c.store.Locations().Put(context.Background(), &domain.Location{
		ID: testLocation, Path: "/catalog", SubLocations: []domain.SubLocation{},
	}))
	return c
}

// newCatalog wires the services over a temp Badger store and search index.
func newCatalog(t *testing.T) *catalog {
	t.Helper()

	dir := t.TempDir()
	s, err := store.Open(dir+"/db", store.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	idx, err := search.Open(search.Options{Dir: dir + "/search"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })

	return wire(t, s, idx)
}

func wire(t *testing.T, s *store.Store, idx *search.Index) *catalog {
	t.Helper()

	lock := service.NewWriteLock()
	graph := taggraph.New()
	planner := query.NewPlanner(s.Files(), graph, nil)
	coordinator := integrity.NewCoordinator(s.Files(), s.Tags(), planner, graph, nil)

	tags := service.NewTagService(s.Tags(), graph, coordinator, lock, nil)
	require.NoError(t, tags.Load(context.Background()))

	var searcher service.QuickSearcher
	var indexer store.SearchIndexer
	if idx != nil {
		searcher, indexer = idx, idx
	}
	files := service.NewFileService(s.Files(), s.Locations(), tags, planner, indexer, searcher, lock, nil)

	return &catalog{
		store:     s,
		graph:     graph,
		tags:      tags,
		files:     files,
		searches:  service.NewSavedSearchService(s.Searches(), files, lock, nil),
		locations: service.NewLocationService(s.Locations(), files, lock, nil),
	}
}

func (c *catalog) createTag(t *testing.T, parent, name string) string {
	t.Helper()
	tag, err := c.tags.CreateTag(context.Background(), service.CreateTagRequest{ParentID: parent, Name: name})
	require.NoError(t, err)
	return tag.ID
}

func (c *catalog) saveFile(t *testing.T, id, name string, tags ...string) *domain.File {
	t.Helper()
	f := &domain.File{
		ID:           id,
		LocationID:   testLocation,
		Name:         name,
		Extension:    "jpg",
		RelativePath: name + ".jpg",
		Tags:         tags,
	}
	require.NoError(t, c.files.SaveFile(context.Background(), f))
	return f
}

func (c *catalog) fileTags(t *testing.T, id string) []string {
	t.Helper()
	f, err := c.files.GetFile(context.Background(), id)
	require.NoError(t, err)
	return f.Tags
}

func (c *catalog) storedTag(t *testing.T, id string) *domain.Tag {
	t.Helper()
	tag, err := c.store.Tags().Get(context.Background(), id)
	require.NoError(t, err)
	return tag
}
