package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/logger"
)

// Options configures a Badger store.
type Options struct {
	Logger        *slog.Logger
	BulkWriteSize int  // Records per transaction for bulk writes (default: DefaultBulkWriteSize)
	InMemory      bool // Keep everything in memory; path is ignored
}

// Store wraps a Badger database instance and the catalog tables it holds.
type Store struct {
	db       *badger.DB
	logger   *slog.Logger
	bulkSize int

	files     *Entity[domain.File]
	tags      *Entity[domain.Tag]
	locations *Entity[domain.Location]
	searches  *Entity[domain.SavedSearch]
}

var _ Backend = (*Store)(nil)

// Open opens or creates a Badger store at path.
func Open(path string, opts Options) (*Store, error) {
	bopts := badger.DefaultOptions(path)
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	}
	bopts.Logger = nil            // Disable Badger's internal logging
	bopts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	bopts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger.OrDiscard(opts.Logger),
		bulkSize: opts.BulkWriteSize,
	}
	if s.bulkSize <= 0 {
		s.bulkSize = DefaultBulkWriteSize
	}

	s.files = NewEntity(s, FileSchema)
	s.tags = NewEntity(s, TagSchema)
	s.locations = NewEntity(s, LocationSchema)
	s.searches = NewEntity(s, SavedSearchSchema)

	s.logger.Info("Badger database opened successfully", "path", path, "in_memory", opts.InMemory)

	return s, nil
}

// Files returns the file table.
func (s *Store) Files() Table[domain.File] { return s.files }

// Tags returns the tag table.
func (s *Store) Tags() Table[domain.Tag] { return s.tags }

// Locations returns the location table.
func (s *Store) Locations() Table[domain.Location] { return s.locations }

// Searches returns the saved search table.
func (s *Store) Searches() Table[domain.SavedSearch] { return s.searches }

// Close gracefully closes the database connection.
func (s *Store) Close() error {
	s.logger.Info("Closing database connection")
	return s.db.Close()
}
