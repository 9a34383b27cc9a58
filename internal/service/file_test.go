package service_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/query"
	"github.com/listenupapp/tagcatalog/internal/service"
	"github.com/listenupapp/tagcatalog/internal/store/storetest"
)

func dto(key, op string, value any) domain.CriterionDTO {
	raw, _ := json.Marshal(value)
	return domain.CriterionDTO{Key: key, Operator: op, Value: raw}
}

func TestFileService_SaveFile(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()
	a := c.createTag(t, "", "a")

	f := &domain.File{LocationID: testLocation, Name: "photo", Tags: []string{a, a}}
	require.NoError(t, c.files.SaveFile(ctx, f))

	assert.NotEmpty(t, f.ID)
	assert.False(t, f.DateAdded.IsZero())

	got, err := c.files.GetFile(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, got.Tags)
}

func TestFileService_SaveFile_Rejections(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	err := c.files.SaveFile(ctx, &domain.File{LocationID: testLocation, Name: "x", Tags: []string{"missing"}})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = c.files.SaveFile(ctx, &domain.File{Name: "x"})
	assert.True(t, errors.Is(err, errors.ErrValidation), "location is required")

	err = c.files.SaveFile(ctx, &domain.File{LocationID: testLocation, Name: "x", Size: -1})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	err = c.files.SaveFiles(ctx, []*domain.File{
		{LocationID: testLocation, Name: "x"},
		{LocationID: "loc-gone", Name: "y"},
	})
	assert.True(t, errors.Is(err, errors.ErrValidation), "location must be registered")

	n, err := c.files.CountFiles(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileService_SaveFiles_AllOrNothingOnUnknownTag(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	err := c.files.SaveFiles(ctx, []*domain.File{
		{ID: "ok", LocationID: testLocation, Name: "ok"},
		{ID: "bad", LocationID: testLocation, Name: "bad", Tags: []string{"nope"}},
	})
	require.Error(t, err)

	files, err := c.files.GetFiles(ctx, []string{"ok", "bad"})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileService_Find(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()
	a := c.createTag(t, "", "a")
	b := c.createTag(t, "", "b")

	c.saveFile(t, "F1", "alpha", a)
	c.saveFile(t, "F2", "beta", a, b)
	c.saveFile(t, "F3", "gamma")

	files, err := c.files.Find(ctx, service.FindRequest{
		Criteria: []domain.CriterionDTO{dto("tags", "contains", []string{})},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"F3"}, storetest.IDs(files))

	files, err = c.files.Find(ctx, service.FindRequest{
		Criteria:  []domain.CriterionDTO{dto("tags", "contains", []string{a})},
		Order:     "name",
		Direction: "desc",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"F2", "F1"}, storetest.IDs(files))

	files, err = c.files.Find(ctx, service.FindRequest{
		Criteria: []domain.CriterionDTO{
			dto("tags", "contains", []string{b}),
			dto("name", "startsWith", "gam"),
		},
		MatchAny: true,
		Order:    "name",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"F2", "F3"}, storetest.IDs(files))

	n, err := c.files.Count(ctx, []domain.CriterionDTO{dto("tags", "notContains", []string{b})}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestFileService_SaveFile_InvalidUTF8Name(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	f := c.saveFile(t, "F1", "a\xffb")
	assert.Equal(t, "a\uFFFDb", f.Name)

	f.Name = "zzz"
	require.NoError(t, c.files.SaveFile(ctx, f))

	for _, tt := range []struct {
		op    string
		value string
		want  []string
	}{
		{"notEqual", "zzz", []string{}},
		{"equals", "a\uFFFDb", []string{}},
		{"equals", "zzz", []string{"F1"}},
	} {
		files, err := c.files.Find(ctx, service.FindRequest{
			Criteria: []domain.CriterionDTO{dto("name", tt.op, tt.value)},
		})
		require.NoError(t, err)
		assert.Equal(t, tt.want, storetest.IDs(files), "name %s %q", tt.op, tt.value)
	}
}

func TestFileService_Find_InvalidInput(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	_, err := c.files.Find(ctx, service.FindRequest{
		Criteria: []domain.CriterionDTO{dto("tags", "startsWith", "x")},
	})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = c.files.Find(ctx, service.FindRequest{Order: "tags"})
	assert.True(t, errors.Is(err, errors.ErrValidation))

	_, err = c.files.FindCriteria(ctx, []criteria.Criterion{
		criteria.Number{Key: criteria.FieldName, Op: criteria.Equals},
	}, query.Options{})
	assert.True(t, errors.Is(err, errors.ErrValidation), "typed criteria are validated before planning")
}

func TestFileService_RemoveFiles(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	c.saveFile(t, "F1", "alpha")
	c.saveFile(t, "F2", "beta")

	require.NoError(t, c.files.RemoveFiles(ctx, []string{"F1", "missing"}))

	_, err := c.files.GetFile(ctx, "F1")
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	hits, err := c.files.QuickSearch(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestFileService_QuickSearch(t *testing.T) {
	c := setupCatalog(t)
	ctx := context.Background()

	c.saveFile(t, "F1", "holiday_beach")
	c.saveFile(t, "F2", "invoice")

	files, err := c.files.QuickSearch(ctx, "beach", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"F1"}, storetest.IDs(files))
}

func TestFileService_QuickSearchDisabled(t *testing.T) {
	c := setupCatalog(t)
	files := service.NewFileService(c.store.Files(), c.store.Locations(), c.tags, nil, nil, nil, service.NewWriteLock(), nil)

	_, err := files.QuickSearch(context.Background(), "x", 0)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}
