package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/listenupapp/tagcatalog/internal/config"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/store/sqlite"
)

// BackendHandle wraps the storage engine with shutdown capability.
type BackendHandle struct {
	store.Backend
}

// Shutdown implements do.Shutdownable.
func (h *BackendHandle) Shutdown() error {
	return h.Close()
}

// ProvideBackend opens the configured storage engine.
func ProvideBackend(i do.Injector) (*BackendHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := store.Options{
		Logger:        log.Logger,
		BulkWriteSize: cfg.Storage.BulkWriteSize,
	}
	path := cfg.DatabasePath()

	var (
		backend store.Backend
		err     error
	)
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		backend, err = sqlite.Open(path, opts)
	case config.BackendBadger:
		backend, err = store.Open(path, opts)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	log.Debug("Database opened", "backend", cfg.Storage.Backend, "path", path)
	return &BackendHandle{Backend: backend}, nil
}
