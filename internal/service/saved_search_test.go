package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/service"
	"github.com/listenupapp/tagcatalog/internal/store/storetest"
)

func names(searches []*domain.SavedSearch) []string {
	out := make([]string, len(searches))
	for i, s := range searches {
		out[i] = s.Name
	}
	return out
}

func TestSavedSearchService_CreateAndRun(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()
	a := c.createTag(t, "", "a")

	c.saveFile(t, "F1", "alpha", a)
	c.saveFile(t, "F2", "beta")

	saved, err := c.searches.CreateSearch(ctx, service.SaveSearchRequest{
		Name:     "tagged",
		Criteria: []domain.CriterionDTO{dto("tags", "contains", []string{a})},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, saved.Position)
	require.Len(t, saved.Criteria, 1)
	assert.Equal(t, "array", saved.Criteria[0].ValueType, "value type is filled in")

	files, err := c.searches.RunSearch(ctx, saved.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"F1"}, storetest.IDs(files))

	stored, err := c.searches.GetSearch(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved, stored)
}

func TestSavedSearchService_CreateRejectsBadCriteria(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	_, err := c.searches.CreateSearch(ctx, service.SaveSearchRequest{
		Name:     "bad",
		Criteria: []domain.CriterionDTO{dto("size", "contains", 3)},
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = c.searches.CreateSearch(ctx, service.SaveSearchRequest{Name: ""})
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestSavedSearchService_Update(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	saved, err := c.searches.CreateSearch(ctx, service.SaveSearchRequest{Name: "all"})
	require.NoError(t, err)

	updated, err := c.searches.UpdateSearch(ctx, saved.ID, service.SaveSearchRequest{
		Name:     "big",
		Criteria: []domain.CriterionDTO{dto("size", "greaterThan", 1000)},
		MatchAny: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "big", updated.Name)
	assert.True(t, updated.MatchAny)
	assert.Equal(t, saved.Position, updated.Position)

	_, err = c.searches.UpdateSearch(ctx, "missing", service.SaveSearchRequest{Name: "x"})
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestSavedSearchService_OrderingAndDelete(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	var ids []string
	for _, name := range []string{"one", "two", "three", "four"} {
		s, err := c.searches.CreateSearch(ctx, service.SaveSearchRequest{Name: name})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	require.NoError(t, c.searches.MoveSearch(ctx, ids[3], 0))
	list, err := c.searches.ListSearches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "one", "two", "three"}, names(list))

	require.NoError(t, c.searches.MoveSearch(ctx, ids[0], 99))
	list, err = c.searches.ListSearches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "two", "three", "one"}, names(list))

	require.NoError(t, c.searches.DeleteSearch(ctx, ids[1]))
	list, err = c.searches.ListSearches(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"four", "three", "one"}, names(list))
	for i, s := range list {
		assert.Equal(t, i, s.Position)
	}

	assert.True(t, errors.Is(c.searches.DeleteSearch(ctx, ids[1]), errors.ErrNotFound))
	assert.True(t, errors.Is(c.searches.MoveSearch(ctx, "missing", 0), errors.ErrNotFound))
}
