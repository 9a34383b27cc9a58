package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/id"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/normalize"
	"github.com/listenupapp/tagcatalog/internal/query"
	"github.com/listenupapp/tagcatalog/internal/search"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/validation"
)

// TagChecker reports which tag ids are unknown.
type TagChecker interface {
	Exists(ids []string) (unknown []string)
}

// QuickSearcher finds file ids by free text.
type QuickSearcher interface {
	Search(ctx context.Context, params search.Params) ([]search.Hit, error)
}

// FileService stores files and answers criteria queries over them.
type FileService struct {
	files     store.Table[domain.File]
	locations store.Table[domain.Location]
	tags      TagChecker
	planner   *query.Planner
	indexer   store.SearchIndexer
	searcher  QuickSearcher
	lock      *WriteLock
	validator *validation.Validator
	logger    *slog.Logger
}

// NewFileService creates a new file service. searcher may be nil when
// quick search is disabled.
func NewFileService(
	files store.Table[domain.File],
	locations store.Table[domain.Location],
	tags TagChecker,
	planner *query.Planner,
	indexer store.SearchIndexer,
	searcher QuickSearcher,
	lock *WriteLock,
	log *slog.Logger,
) *FileService {
	if indexer == nil {
		indexer = store.NewNoopSearchIndexer()
	}
	return &FileService{
		files:     files,
		locations: locations,
		tags:      tags,
		planner:   planner,
		indexer:   indexer,
		searcher:  searcher,
		lock:      lock,
		validator: validation.New(),
		logger:    logger.OrDiscard(log),
	}
}

// FindRequest is a criteria query in serialized form.
type FindRequest struct {
	Criteria  []domain.CriterionDTO `json:"criteria" validate:"dive"`
	MatchAny  bool                  `json:"matchAny"`
	Order     string                `json:"order"`
	Direction string                `json:"direction"`
}

// SaveFile creates or replaces a file record. A missing id is generated.
// Duplicate tags are dropped; unknown tags and locations are rejected.
func (s *FileService) SaveFile(ctx context.Context, f *domain.File) error {
	return s.SaveFiles(ctx, []*domain.File{f})
}

// SaveFiles creates or replaces several file records in chunked
// transactions. Nothing is written when any file is invalid.
func (s *FileService) SaveFiles(ctx context.Context, files []*domain.File) error {
	if len(files) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now()
	for _, f := range files {
		if err := s.prepare(f, now); err != nil {
			return err
		}
	}

	s.lock.lock()
	defer s.lock.unlock()

	for _, f := range files {
		if unknown := s.tags.Exists(f.Tags); len(unknown) > 0 {
			return errors.Validationf("file %s references unknown tags: %s", f.ID, strings.Join(unknown, ", "))
		}
	}
	if err := s.checkLocations(ctx, files); err != nil {
		return err
	}

	if err := s.files.BulkPut(ctx, files); err != nil {
		return err
	}
	if err := s.indexer.IndexFiles(ctx, files); err != nil {
		s.logger.Warn("failed to index files for quick search", "files", len(files), "error", err)
	}

	s.logger.Debug("files saved", "count", len(files))
	return nil
}

func (s *FileService) prepare(f *domain.File, now time.Time) error {
	if err := s.validator.Validate(f); err != nil {
		return err
	}
	if f.ID == "" {
		fileID, err := id.Generate(id.PrefixFile)
		if err != nil {
			return errors.Wrap(err, errors.CodeInternal, "generate file id")
		}
		f.ID = fileID
	}
	if f.DateAdded.IsZero() {
		f.DateAdded = now
	}
	// Records round-trip through JSON, which coerces invalid UTF-8. Coerce
	// up front so indexed values match the stored record.
	for _, field := range []*string{&f.Ino, &f.LocationID, &f.RelativePath, &f.AbsolutePath, &f.Name, &f.Extension} {
		*field = normalize.ValidUTF8(*field)
	}
	f.DedupeTags()
	return nil
}

// checkLocations rejects files whose location is not registered. Callers
// hold the write lock so a location cannot disappear in between.
func (s *FileService) checkLocations(ctx context.Context, files []*domain.File) error {
	var ids []string
	seen := make(map[string]bool)
	for _, f := range files {
		if !seen[f.LocationID] {
			seen[f.LocationID] = true
			ids = append(ids, f.LocationID)
		}
	}

	found, err := s.locations.BulkGet(ctx, ids)
	if err != nil {
		return err
	}
	if len(found) == len(ids) {
		return nil
	}
	for _, loc := range found {
		delete(seen, loc.ID)
	}
	var unknown []string
	for _, locID := range ids {
		if seen[locID] {
			unknown = append(unknown, locID)
		}
	}
	return errors.Validationf("unknown locations: %s", strings.Join(unknown, ", "))
}

// GetFile returns a file by id.
func (s *FileService) GetFile(ctx context.Context, fileID string) (*domain.File, error) {
	return s.files.Get(ctx, fileID)
}

// GetFiles returns the files that exist among ids, in order.
func (s *FileService) GetFiles(ctx context.Context, ids []string) ([]*domain.File, error) {
	return s.files.BulkGet(ctx, ids)
}

// RemoveFiles deletes files. Unknown ids are ignored.
func (s *FileService) RemoveFiles(ctx context.Context, ids []string) error {
	s.lock.lock()
	defer s.lock.unlock()
	return s.remove(ctx, ids)
}

func (s *FileService) remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := s.files.BulkDelete(ctx, ids); err != nil {
		return err
	}
	if err := s.indexer.DeleteFiles(ctx, ids); err != nil {
		s.logger.Warn("failed to remove files from quick search", "files", len(ids), "error", err)
	}
	s.logger.Debug("files removed", "count", len(ids))
	return nil
}

// removeByLocation deletes every file of a location. The caller holds the
// write lock.
func (s *FileService) removeByLocation(ctx context.Context, locationID string) (int, error) {
	files, err := s.files.Where(ctx, store.In(store.IndexLocation, locationID))
	if err != nil {
		return 0, err
	}
	ids := make([]string, len(files))
	for i, f := range files {
		ids[i] = f.ID
	}
	return len(ids), s.remove(ctx, ids)
}

// Find runs a serialized criteria query.
func (s *FileService) Find(ctx context.Context, req FindRequest) ([]*domain.File, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	crits, err := criteria.FromDTOs(req.Criteria)
	if err != nil {
		return nil, err
	}
	order, dir, err := query.ParseOrder(req.Order, req.Direction)
	if err != nil {
		return nil, err
	}
	return s.FindCriteria(ctx, crits, query.Options{Order: order, Direction: dir, MatchAny: req.MatchAny})
}

// FindCriteria runs a typed criteria query.
func (s *FileService) FindCriteria(ctx context.Context, crits []criteria.Criterion, opts query.Options) ([]*domain.File, error) {
	if err := criteria.ValidateAll(crits); err != nil {
		return nil, err
	}
	return s.planner.Find(ctx, crits, opts)
}

// Count returns how many files match a serialized criteria list.
func (s *FileService) Count(ctx context.Context, dtos []domain.CriterionDTO, matchAny bool) (int, error) {
	crits, err := criteria.FromDTOs(dtos)
	if err != nil {
		return 0, err
	}
	return s.planner.Count(ctx, crits, matchAny)
}

// CountFiles returns the total number of files.
func (s *FileService) CountFiles(ctx context.Context) (int, error) {
	return s.files.Count(ctx)
}

// QuickSearch returns files whose name or path matches text, best first.
func (s *FileService) QuickSearch(ctx context.Context, text string, limit int) ([]*domain.File, error) {
	if s.searcher == nil {
		return nil, errors.Validation("quick search is disabled")
	}
	hits, err := s.searcher.Search(ctx, search.Params{Text: text, Limit: limit})
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "quick search")
	}
	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}
	return s.files.BulkGet(ctx, ids)
}
