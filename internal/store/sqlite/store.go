// Package sqlite is the SQLite storage engine for the catalog.
package sqlite

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store provides SQLite-backed persistence for the catalog.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	files     *Table[domain.File]
	tags      *Table[domain.Tag]
	locations *Table[domain.Location]
	searches  *Table[domain.SavedSearch]
}

var _ store.Backend = (*Store)(nil)

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and creates the schema.
func Open(path string, opts store.Options) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	bulkSize := opts.BulkWriteSize
	if bulkSize <= 0 {
		bulkSize = store.DefaultBulkWriteSize
	}

	s := &Store{
		db:     db,
		logger: logger.OrDiscard(opts.Logger),
	}
	s.files = NewTable(db, store.FileSchema, bulkSize)
	s.tags = NewTable(db, store.TagSchema, bulkSize)
	s.locations = NewTable(db, store.LocationSchema, bulkSize)
	s.searches = NewTable(db, store.SavedSearchSchema, bulkSize)

	s.logger.Info("SQLite database opened successfully", "path", path)

	return s, nil
}

// Files returns the file table.
func (s *Store) Files() store.Table[domain.File] { return s.files }

// Tags returns the tag table.
func (s *Store) Tags() store.Table[domain.Tag] { return s.tags }

// Locations returns the location table.
func (s *Store) Locations() store.Table[domain.Location] { return s.locations }

// Searches returns the saved search table.
func (s *Store) Searches() store.Table[domain.SavedSearch] { return s.searches }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
