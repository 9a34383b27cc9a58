package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/id"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/validation"
)

// SavedSearchService manages named criteria lists and runs them.
type SavedSearchService struct {
	searches  store.Table[domain.SavedSearch]
	files     *FileService
	lock      *WriteLock
	validator *validation.Validator
	logger    *slog.Logger
}

// NewSavedSearchService creates a new saved search service.
func NewSavedSearchService(
	searches store.Table[domain.SavedSearch],
	files *FileService,
	lock *WriteLock,
	log *slog.Logger,
) *SavedSearchService {
	return &SavedSearchService{
		searches:  searches,
		files:     files,
		lock:      lock,
		validator: validation.New(),
		logger:    logger.OrDiscard(log),
	}
}

// SaveSearchRequest holds the editable fields of a saved search.
type SaveSearchRequest struct {
	Name     string                `json:"name" validate:"required,max=255"`
	Criteria []domain.CriterionDTO `json:"criteria" validate:"dive"`
	MatchAny bool                  `json:"matchAny"`
}

// normalize parses the criteria and re-serializes them, so stored searches
// always carry a value type and canonical values.
func (s *SavedSearchService) normalize(req SaveSearchRequest) ([]domain.CriterionDTO, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	crits, err := criteria.FromDTOs(req.Criteria)
	if err != nil {
		return nil, err
	}
	return criteria.ToDTOs(crits)
}

// CreateSearch saves a new search after the existing ones.
func (s *SavedSearchService) CreateSearch(ctx context.Context, req SaveSearchRequest) (*domain.SavedSearch, error) {
	dtos, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	s.lock.lock()
	defer s.lock.unlock()

	count, err := s.searches.Count(ctx)
	if err != nil {
		return nil, err
	}
	searchID, err := id.Generate(id.PrefixSearch)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate search id")
	}

	saved := &domain.SavedSearch{
		ID:       searchID,
		Name:     req.Name,
		Criteria: dtos,
		MatchAny: req.MatchAny,
		Position: count,
	}
	if err := s.searches.Create(ctx, saved); err != nil {
		return nil, err
	}

	s.logger.Info("saved search created", "search_id", searchID, "name", req.Name, "criteria", len(dtos))
	return saved, nil
}

// UpdateSearch replaces a search's name, criteria and mode.
func (s *SavedSearchService) UpdateSearch(ctx context.Context, searchID string, req SaveSearchRequest) (*domain.SavedSearch, error) {
	dtos, err := s.normalize(req)
	if err != nil {
		return nil, err
	}

	s.lock.lock()
	defer s.lock.unlock()

	saved, err := s.searches.Get(ctx, searchID)
	if err != nil {
		return nil, err
	}
	saved.Name = req.Name
	saved.Criteria = dtos
	saved.MatchAny = req.MatchAny

	if err := s.searches.Put(ctx, saved); err != nil {
		return nil, err
	}
	s.logger.Info("saved search updated", "search_id", searchID)
	return saved, nil
}

// GetSearch returns a saved search by id.
func (s *SavedSearchService) GetSearch(ctx context.Context, searchID string) (*domain.SavedSearch, error) {
	return s.searches.Get(ctx, searchID)
}

// ListSearches returns every saved search by position.
func (s *SavedSearchService) ListSearches(ctx context.Context) ([]*domain.SavedSearch, error) {
	all, err := s.searches.All(ctx)
	if err != nil {
		return nil, err
	}
	sortByPosition(all)
	return all, nil
}

// DeleteSearch removes a saved search and closes the gap in positions.
func (s *SavedSearchService) DeleteSearch(ctx context.Context, searchID string) error {
	s.lock.lock()
	defer s.lock.unlock()

	all, err := s.ListSearches(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(all, func(ss *domain.SavedSearch) bool { return ss.ID == searchID })
	if i < 0 {
		return errors.NotFoundf("saved search %s not found", searchID)
	}

	if err := s.searches.Delete(ctx, searchID); err != nil {
		return err
	}
	if err := s.reposition(ctx, slices.Delete(all, i, i+1)); err != nil {
		return err
	}
	s.logger.Info("saved search deleted", "search_id", searchID)
	return nil
}

// MoveSearch moves a saved search to index (clamped) in the list.
func (s *SavedSearchService) MoveSearch(ctx context.Context, searchID string, index int) error {
	s.lock.lock()
	defer s.lock.unlock()

	all, err := s.ListSearches(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(all, func(ss *domain.SavedSearch) bool { return ss.ID == searchID })
	if i < 0 {
		return errors.NotFoundf("saved search %s not found", searchID)
	}

	moved := all[i]
	all = slices.Delete(all, i, i+1)
	index = max(0, min(index, len(all)))
	all = slices.Insert(all, index, moved)

	return s.reposition(ctx, all)
}

// reposition rewrites the positions of ordered, writing only the records
// whose position changed.
func (s *SavedSearchService) reposition(ctx context.Context, ordered []*domain.SavedSearch) error {
	var changed []*domain.SavedSearch
	for i, ss := range ordered {
		if ss.Position != i {
			ss.Position = i
			changed = append(changed, ss)
		}
	}
	return s.searches.BulkPut(ctx, changed)
}

// RunSearch runs a saved search with the given ordering.
func (s *SavedSearchService) RunSearch(ctx context.Context, searchID, order, direction string) ([]*domain.File, error) {
	saved, err := s.searches.Get(ctx, searchID)
	if err != nil {
		return nil, err
	}
	return s.files.Find(ctx, FindRequest{
		Criteria:  saved.Criteria,
		MatchAny:  saved.MatchAny,
		Order:     order,
		Direction: direction,
	})
}

func sortByPosition(searches []*domain.SavedSearch) {
	slices.SortFunc(searches, func(a, b *domain.SavedSearch) int {
		return cmp.Or(cmp.Compare(a.Position, b.Position), cmp.Compare(a.ID, b.ID))
	})
}
