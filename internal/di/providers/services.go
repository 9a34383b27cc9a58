package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcatalog/internal/integrity"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/query"
	"github.com/listenupapp/tagcatalog/internal/service"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/taggraph"
)

// ProvideWriteLock provides the catalog-wide write lock.
func ProvideWriteLock(i do.Injector) (*service.WriteLock, error) {
	return service.NewWriteLock(), nil
}

// ProvideTagGraph provides the in-memory tag hierarchy. TagService fills it.
func ProvideTagGraph(i do.Injector) (*taggraph.Graph, error) {
	return taggraph.New(), nil
}

// ProvidePlanner provides the query planner.
func ProvidePlanner(i do.Injector) (*query.Planner, error) {
	backend := do.MustInvoke[*BackendHandle](i)
	graph := do.MustInvoke[*taggraph.Graph](i)
	log := do.MustInvoke[*logger.Logger](i)

	return query.NewPlanner(backend.Files(), graph, log.Logger), nil
}

// ProvideCoordinator provides the referential integrity coordinator.
func ProvideCoordinator(i do.Injector) (*integrity.Coordinator, error) {
	backend := do.MustInvoke[*BackendHandle](i)
	planner := do.MustInvoke[*query.Planner](i)
	graph := do.MustInvoke[*taggraph.Graph](i)
	log := do.MustInvoke[*logger.Logger](i)

	return integrity.NewCoordinator(backend.Files(), backend.Tags(), planner, graph, log.Logger), nil
}

// ProvideTagService provides the tag service with the hierarchy loaded.
func ProvideTagService(i do.Injector) (*service.TagService, error) {
	backend := do.MustInvoke[*BackendHandle](i)
	graph := do.MustInvoke[*taggraph.Graph](i)
	coordinator := do.MustInvoke[*integrity.Coordinator](i)
	lock := do.MustInvoke[*service.WriteLock](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := service.NewTagService(backend.Tags(), graph, coordinator, lock, log.Logger)
	if err := svc.Load(context.Background()); err != nil {
		return nil, err
	}
	return svc, nil
}

// ProvideFileService provides the file service, wired to the quick search
// index when it is enabled.
func ProvideFileService(i do.Injector) (*service.FileService, error) {
	backend := do.MustInvoke[*BackendHandle](i)
	tags := do.MustInvoke[*service.TagService](i)
	planner := do.MustInvoke[*query.Planner](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	lock := do.MustInvoke[*service.WriteLock](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		indexer  = store.NewNoopSearchIndexer()
		searcher service.QuickSearcher
	)
	if searchHandle.Index != nil {
		indexer, searcher = searchHandle.Index, searchHandle.Index
	}

	return service.NewFileService(backend.Files(), backend.Locations(), tags, planner, indexer, searcher, lock, log.Logger), nil
}

// ProvideSavedSearchService provides the saved search service.
func ProvideSavedSearchService(i do.Injector) (*service.SavedSearchService, error) {
	backend := do.MustInvoke[*BackendHandle](i)
	files := do.MustInvoke[*service.FileService](i)
	lock := do.MustInvoke[*service.WriteLock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSavedSearchService(backend.Searches(), files, lock, log.Logger), nil
}

// ProvideLocationService provides the location service.
func ProvideLocationService(i do.Injector) (*service.LocationService, error) {
	backend := do.MustInvoke[*BackendHandle](i)
	files := do.MustInvoke[*service.FileService](i)
	lock := do.MustInvoke[*service.WriteLock](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLocationService(backend.Locations(), files, lock, log.Logger), nil
}
