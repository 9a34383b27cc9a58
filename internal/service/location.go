package service

import (
	"cmp"
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/id"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/validation"
)

// LocationService manages the root directories files are cataloged from.
type LocationService struct {
	locations store.Table[domain.Location]
	files     *FileService
	lock      *WriteLock
	validator *validation.Validator
	logger    *slog.Logger
}

// NewLocationService creates a new location service.
func NewLocationService(
	locations store.Table[domain.Location],
	files *FileService,
	lock *WriteLock,
	log *slog.Logger,
) *LocationService {
	return &LocationService{
		locations: locations,
		files:     files,
		lock:      lock,
		validator: validation.New(),
		logger:    logger.OrDiscard(log),
	}
}

// CreateLocationRequest registers a directory.
type CreateLocationRequest struct {
	Path         string               `json:"path" validate:"required"`
	SubLocations []domain.SubLocation `json:"subLocations"`
}

// CreateLocation adds a location after the existing ones. Paths are
// cleaned and must be absolute and unique.
func (s *LocationService) CreateLocation(ctx context.Context, req CreateLocationRequest) (*domain.Location, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	path := filepath.Clean(req.Path)
	if !filepath.IsAbs(path) {
		return nil, errors.Validationf("location path %q must be absolute", req.Path)
	}

	s.lock.lock()
	defer s.lock.unlock()

	count, err := s.locations.Count(ctx)
	if err != nil {
		return nil, err
	}
	locID, err := id.Generate(id.PrefixLocation)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate location id")
	}

	loc := &domain.Location{
		ID:           locID,
		Path:         path,
		DateAdded:    time.Now(),
		Index:        count,
		SubLocations: req.SubLocations,
	}
	if loc.SubLocations == nil {
		loc.SubLocations = []domain.SubLocation{}
	}
	if err := s.locations.Create(ctx, loc); err != nil {
		return nil, err
	}

	s.logger.Info("location created", "location_id", locID, "path", path)
	return loc, nil
}

// GetLocation returns a location by id.
func (s *LocationService) GetLocation(ctx context.Context, locID string) (*domain.Location, error) {
	return s.locations.Get(ctx, locID)
}

// ListLocations returns every location by index.
func (s *LocationService) ListLocations(ctx context.Context) ([]*domain.Location, error) {
	all, err := s.locations.All(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(all, func(a, b *domain.Location) int {
		return cmp.Or(cmp.Compare(a.Index, b.Index), cmp.Compare(a.ID, b.ID))
	})
	return all, nil
}

// DeleteLocation removes every file of the location, then the location,
// and closes the gap in indexes. It returns the number of files removed.
func (s *LocationService) DeleteLocation(ctx context.Context, locID string) (int, error) {
	s.lock.lock()
	defer s.lock.unlock()

	if _, err := s.locations.Get(ctx, locID); err != nil {
		return 0, err
	}

	removed, err := s.files.removeByLocation(ctx, locID)
	if err != nil {
		return 0, err
	}
	if err := s.locations.Delete(ctx, locID); err != nil {
		return removed, err
	}
	if err := s.reindex(ctx); err != nil {
		return removed, err
	}

	s.logger.Info("location deleted", "location_id", locID, "files_removed", removed)
	return removed, nil
}

// reindex rewrites location indexes to 0..n-1 in list order, writing only
// the records whose index changed.
func (s *LocationService) reindex(ctx context.Context) error {
	ordered, err := s.ListLocations(ctx)
	if err != nil {
		return err
	}
	var changed []*domain.Location
	for i, loc := range ordered {
		if loc.Index != i {
			loc.Index = i
			changed = append(changed, loc)
		}
	}
	return s.locations.BulkPut(ctx, changed)
}
