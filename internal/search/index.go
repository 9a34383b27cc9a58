package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/logger"
)

// Index wraps a Bleve index of file documents.
//
// All methods are safe for concurrent use. The mutex is taken exclusively
// only while the index is rebuilt or closed.
type Index struct {
	index  bleve.Index
	path   string
	fresh  bool
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	// Dir holds the index and its mapping version file.
	Dir    string
	Logger *slog.Logger
}

// mappingVersion is bumped whenever buildIndexMapping changes. A mismatch
// on open drops the index so it is rebuilt with the current mapping.
const mappingVersion = "1"

const batchSize = 500

// Open opens the index under opts.Dir, creating it when it is missing,
// unreadable or built with an older mapping. Fresh reports whether the
// index was created empty and needs to be populated.
func Open(opts Options) (*Index, error) {
	log := logger.OrDiscard(opts.Logger)

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create search dir: %w", err)
	}
	indexPath := filepath.Join(opts.Dir, "files.bleve")
	versionPath := filepath.Join(opts.Dir, "files.version")

	var index bleve.Index
	needsRebuild := false

	if _, statErr := os.Stat(indexPath); statErr == nil {
		existing, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			log.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existing) != mappingVersion:
			log.Info("search index mapping version changed, will rebuild",
				"old_version", string(existing),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		default:
			var err error
			index, err = bleve.Open(indexPath)
			if err != nil {
				log.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
				needsRebuild = true
			}
		}
	}

	if needsRebuild {
		if err := os.RemoveAll(indexPath); err != nil {
			return nil, fmt.Errorf("remove old index: %w", err)
		}
	}

	fresh := index == nil
	if fresh {
		var err error
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if err := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); err != nil {
			log.Warn("failed to write search version file", "error", err)
		}
		log.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		log.Info("opened existing search index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		fresh:  fresh,
		logger: log,
	}, nil
}

// Fresh reports whether Open created a new, empty index.
func (s *Index) Fresh() bool {
	return s.fresh
}

// Close closes the index.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// IndexFiles adds or replaces the documents for files in batches.
func (s *Index) IndexFiles(ctx context.Context, files []*domain.File) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexFiles(ctx, files)
}

func (s *Index) indexFiles(ctx context.Context, files []*domain.File) error {
	for i := 0; i < len(files); i += batchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchSize, len(files))

		batch := s.index.NewBatch()
		for _, f := range files[i:end] {
			doc := FromFile(f)
			if err := batch.Index(doc.ID, doc.toMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return fmt.Errorf("commit batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// DeleteFiles removes the documents for ids. Unknown ids are ignored.
func (s *Index) DeleteFiles(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	return s.index.Batch(batch)
}

// Count returns the number of indexed documents.
func (s *Index) Count() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and re-indexes files. Other calls block until it
// finishes.
func (s *Index) Rebuild(ctx context.Context, files []*domain.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}
	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.index = index

	if err := s.indexFiles(ctx, files); err != nil {
		return err
	}
	s.logger.Info("rebuilt search index", "path", s.path, "files", len(files))
	return nil
}
