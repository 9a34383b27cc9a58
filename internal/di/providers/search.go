package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcatalog/internal/config"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/search"
)

// SearchIndexHandle wraps the quick search index with shutdown capability.
// Index is nil when quick search is disabled.
type SearchIndexHandle struct {
	Index *search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	if h.Index == nil {
		return nil
	}
	return h.Index.Close()
}

// ProvideSearchIndex opens the Bleve index when quick search is enabled.
// A freshly created index is filled from the file table.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.Search.Enabled {
		log.Debug("Quick search disabled")
		return &SearchIndexHandle{}, nil
	}

	index, err := search.Open(search.Options{
		Dir:    cfg.SearchPath(),
		Logger: log.Logger,
	})
	if err != nil {
		return nil, err
	}

	if index.Fresh() {
		backend := do.MustInvoke[*BackendHandle](i)
		ctx := context.Background()

		files, err := backend.Files().All(ctx)
		if err != nil {
			_ = index.Close()
			return nil, err
		}
		if len(files) > 0 {
			log.Info("Search index is empty but files exist, reindexing", "files", len(files))
			if err := index.IndexFiles(ctx, files); err != nil {
				_ = index.Close()
				return nil, err
			}
		}
	}

	return &SearchIndexHandle{Index: index}, nil
}
