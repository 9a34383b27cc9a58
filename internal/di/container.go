// Package di provides dependency injection configuration for the catalog.
package di

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcatalog/internal/config"
	"github.com/listenupapp/tagcatalog/internal/di/providers"
	"github.com/listenupapp/tagcatalog/internal/service"
)

// NewContainer creates the DI container. flags are the command line
// overrides for the configuration.
func NewContainer(flags config.Flags) *do.RootScope {
	injector := do.New()

	do.ProvideValue(injector, flags)

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideBackend)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Catalog core
	do.Provide(injector, providers.ProvideWriteLock)
	do.Provide(injector, providers.ProvideTagGraph)
	do.Provide(injector, providers.ProvidePlanner)
	do.Provide(injector, providers.ProvideCoordinator)

	// Services
	do.Provide(injector, providers.ProvideTagService)
	do.Provide(injector, providers.ProvideFileService)
	do.Provide(injector, providers.ProvideSavedSearchService)
	do.Provide(injector, providers.ProvideLocationService)

	return injector
}

// Catalog groups the services a command works with.
type Catalog struct {
	Tags      *service.TagService
	Files     *service.FileService
	Searches  *service.SavedSearchService
	Locations *service.LocationService
}

// Bootstrap opens the storage, loads the tag hierarchy and returns the
// services.
func Bootstrap(injector do.Injector) (*Catalog, error) {
	tags, err := do.Invoke[*service.TagService](injector)
	if err != nil {
		return nil, err
	}
	files, err := do.Invoke[*service.FileService](injector)
	if err != nil {
		return nil, err
	}
	searches, err := do.Invoke[*service.SavedSearchService](injector)
	if err != nil {
		return nil, err
	}
	locations, err := do.Invoke[*service.LocationService](injector)
	if err != nil {
		return nil, err
	}

	return &Catalog{
		Tags:      tags,
		Files:     files,
		Searches:  searches,
		Locations: locations,
	}, nil
}
