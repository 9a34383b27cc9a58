package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/service"
)

func TestLocationService_Create(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	first, err := c.locations.CreateLocation(ctx, service.CreateLocationRequest{Path: "/photos/"})
	require.NoError(t, err)
	assert.Equal(t, "/photos", first.Path)
	assert.Equal(t, 0, first.Index)

	second, err := c.locations.CreateLocation(ctx, service.CreateLocationRequest{Path: "/music"})
	require.NoError(t, err)
	assert.Equal(t, 1, second.Index)

	_, err = c.locations.CreateLocation(ctx, service.CreateLocationRequest{Path: "/photos"})
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))

	_, err = c.locations.CreateLocation(ctx, service.CreateLocationRequest{Path: "relative/dir"})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	list, err := c.locations.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestLocationService_DeleteCascades(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	keep, err := c.locations.CreateLocation(ctx, service.CreateLocationRequest{Path: "/keep"})
	require.NoError(t, err)
	drop, err := c.locations.CreateLocation(ctx, service.CreateLocationRequest{Path: "/drop"})
	require.NoError(t, err)

	require.NoError(t, c.files.SaveFiles(ctx, []*domain.File{
		{ID: "k1", LocationID: keep.ID, Name: "k1"},
		{ID: "d1", LocationID: drop.ID, Name: "d1"},
		{ID: "d2", LocationID: drop.ID, Name: "d2"},
	}))

	removed, err := c.locations.DeleteLocation(ctx, drop.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	n, err := c.files.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = c.locations.GetLocation(ctx, drop.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = c.locations.DeleteLocation(ctx, drop.ID)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLocationService_DeleteCompactsIndexes(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	var ids []string
	for _, path := range []string{"/a", "/b", "/c"} {
		loc, err := c.locations.CreateLocation(ctx, service.CreateLocationRequest{Path: path})
		require.NoError(t, err)
		ids = append(ids, loc.ID)
	}

	_, err := c.locations.DeleteLocation(ctx, ids[0])
	require.NoError(t, err)

	added, err := c.locations.CreateLocation(ctx, service.CreateLocationRequest{Path: "/d"})
	require.NoError(t, err)
	assert.Equal(t, 2, added.Index)

	list, err := c.locations.ListLocations(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, loc := range list {
		assert.Equal(t, i, loc.Index)
	}
	assert.Equal(t, []string{ids[1], ids[2], added.ID}, []string{list[0].ID, list[1].ID, list[2].ID})
}
