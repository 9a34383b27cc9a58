package di_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/config"
	"github.com/listenupapp/tagcatalog/internal/di"
	"github.com/listenupapp/tagcatalog/internal/di/providers"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/service"
)

func testFlags(t *testing.T, backend, search string) config.Flags {
	t.Helper()
	dir := t.TempDir()
	return config.Flags{
		Env:           "development",
		LogLevel:      "error",
		DataPath:      dir,
		Backend:       backend,
		SearchEnabled: search,
		EnvFile:       filepath.Join(dir, "missing.env"),
	}
}

func TestBootstrap(t *testing.T) {
	for _, backend := range []string{config.BackendBadger, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			injector := di.NewContainer(testFlags(t, backend, "true"))
			cat, err := di.Bootstrap(injector)
			require.NoError(t, err)
			ctx := context.Background()

			loc, err := cat.Locations.CreateLocation(ctx, service.CreateLocationRequest{Path: "/photos"})
			require.NoError(t, err)
			tag, err := cat.Tags.CreateTag(ctx, service.CreateTagRequest{Name: "travel"})
			require.NoError(t, err)
			require.NoError(t, cat.Files.SaveFile(ctx, &domain.File{
				ID: "f1", LocationID: loc.ID, Name: "paris_trip", Tags: []string{tag.ID},
			}))

			files, err := cat.Files.QuickSearch(ctx, "paris", 10)
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, "f1", files[0].ID)

			_ = injector.Shutdown()
		})
	}
}

func TestBootstrap_SearchDisabled(t *testing.T) {
	injector := di.NewContainer(testFlags(t, config.BackendBadger, "false"))
	cat, err := di.Bootstrap(injector)
	require.NoError(t, err)

	handle := do.MustInvoke[*providers.SearchIndexHandle](injector)
	assert.Nil(t, handle.Index)

	_, err = cat.Files.QuickSearch(context.Background(), "x", 0)
	assert.Error(t, err)

	_ = injector.Shutdown()
}

func TestBootstrap_ReopenKeepsData(t *testing.T) {
	flags := testFlags(t, config.BackendBadger, "true")
	ctx := context.Background()

	injector := di.NewContainer(flags)
	cat, err := di.Bootstrap(injector)
	require.NoError(t, err)
	_, err = cat.Tags.CreateTag(ctx, service.CreateTagRequest{Name: "kept"})
	require.NoError(t, err)
	_ = injector.Shutdown()

	injector = di.NewContainer(flags)
	defer func() { _ = injector.Shutdown() }()
	cat, err = di.Bootstrap(injector)
	require.NoError(t, err)

	assert.Len(t, cat.Tags.ListTags(ctx), 2)
}

func TestBootstrap_InvalidBackend(t *testing.T) {
	injector := di.NewContainer(testFlags(t, "postgres", "true"))
	_, err := di.Bootstrap(injector)
	assert.Error(t, err)
}
