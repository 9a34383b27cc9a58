package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/id"
	"github.com/listenupapp/tagcatalog/internal/integrity"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/taggraph"
	"github.com/listenupapp/tagcatalog/internal/validation"
)

// TagService owns the tag hierarchy. The graph is the in-memory source of
// truth; every structural change is written back to the tag table, and a
// failed write rolls the graph back.
type TagService struct {
	tags      store.Table[domain.Tag]
	graph     *taggraph.Graph
	integrity *integrity.Coordinator
	lock      *WriteLock
	validator *validation.Validator
	logger    *slog.Logger
}

// NewTagService creates a new tag service.
func NewTagService(
	tags store.Table[domain.Tag],
	graph *taggraph.Graph,
	coordinator *integrity.Coordinator,
	lock *WriteLock,
	log *slog.Logger,
) *TagService {
	return &TagService{
		tags:      tags,
		graph:     graph,
		integrity: coordinator,
		lock:      lock,
		validator: validation.New(),
		logger:    logger.OrDiscard(log),
	}
}

// CreateTagRequest creates a tag under ParentID (the root when empty).
// A nil Index appends the tag after its siblings.
type CreateTagRequest struct {
	ParentID string `json:"parentId"`
	Name     string `json:"name" validate:"required,max=255"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Index    *int   `json:"index,omitempty" validate:"omitempty,min=0"`
}

// UpdateTagRequest changes the set fields of a tag.
type UpdateTagRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Color    *string `json:"color,omitempty" validate:"omitempty,hexcolor|len=0"`
	IsHidden *bool   `json:"isHidden,omitempty"`
}

// Load reads every tag record and rebuilds the hierarchy. Records the
// rebuild had to repair are written back.
func (s *TagService) Load(ctx context.Context) error {
	s.lock.lock()
	defer s.lock.unlock()

	tags, err := s.tags.All(ctx)
	if err != nil {
		return err
	}

	repair := s.graph.Load(tags)
	if repair.Empty() {
		s.logger.Debug("tag hierarchy loaded", "tags", s.graph.Len())
		return nil
	}

	s.logger.Warn("tag hierarchy repaired on load",
		"created_root", repair.CreatedRoot,
		"dropped_children", repair.DroppedChildren,
		"reattached", repair.Reattached,
	)
	return s.tags.BulkPut(ctx, s.records(repair.Changed()...))
}

// GetTag returns a tag by id.
func (s *TagService) GetTag(_ context.Context, tagID string) (*domain.Tag, error) {
	t, ok := s.graph.Get(tagID)
	if !ok {
		return nil, errors.NotFoundf("tag %s not found", tagID)
	}
	return t, nil
}

// ListTags returns every tag in pre-order, root first.
func (s *TagService) ListTags(_ context.Context) []*domain.Tag {
	return s.graph.Tags()
}

// Children returns the direct children of a tag in order.
func (s *TagService) Children(_ context.Context, tagID string) ([]*domain.Tag, error) {
	if !s.graph.Has(tagID) {
		return nil, errors.NotFoundf("tag %s not found", tagID)
	}
	return s.records(s.graph.Children(tagID)...), nil
}

// Parent returns the id of a tag's parent. The root is its own parent.
func (s *TagService) Parent(_ context.Context, tagID string) (string, error) {
	parent, ok := s.graph.Parent(tagID)
	if !ok {
		return "", errors.NotFoundf("tag %s not found", tagID)
	}
	return parent, nil
}

// CreateTag adds a new tag to the hierarchy.
func (s *TagService) CreateTag(ctx context.Context, req CreateTagRequest) (*domain.Tag, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if req.ParentID == "" {
		req.ParentID = domain.RootTagID
	}
	index := taggraph.Append
	if req.Index != nil {
		index = *req.Index
	}

	s.lock.lock()
	defer s.lock.unlock()

	tagID, err := id.Generate(id.PrefixTag)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "generate tag id")
	}
	now := time.Now()
	tag := domain.Tag{
		ID:           tagID,
		Name:         req.Name,
		Color:        req.Color,
		DateAdded:    now,
		DateModified: now,
	}

	if err := s.graph.Insert(req.ParentID, tag, index); err != nil {
		return nil, err
	}
	if err := s.tags.BulkPut(ctx, s.records(tagID, req.ParentID)); err != nil {
		s.graph.Detach(tagID)
		return nil, err
	}

	s.logger.Info("tag created", "tag_id", tagID, "parent_id", req.ParentID, "name", req.Name)
	created, _ := s.graph.Get(tagID)
	return created, nil
}

// UpdateTag changes a tag's name, color or visibility.
func (s *TagService) UpdateTag(ctx context.Context, tagID string, req UpdateTagRequest) (*domain.Tag, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	s.lock.lock()
	defer s.lock.unlock()

	before, ok := s.graph.Get(tagID)
	if !ok {
		return nil, errors.NotFoundf("tag %s not found", tagID)
	}

	s.graph.Update(tagID, func(t *domain.Tag) {
		if req.Name != nil {
			t.Name = *req.Name
		}
		if req.Color != nil {
			t.Color = *req.Color
		}
		if req.IsHidden != nil {
			t.IsHidden = *req.IsHidden
		}
		t.Touch()
	})

	after, _ := s.graph.Get(tagID)
	if err := s.tags.Put(ctx, after); err != nil {
		s.graph.Update(tagID, func(t *domain.Tag) { *t = *before })
		return nil, err
	}

	s.logger.Info("tag updated", "tag_id", tagID)
	return after, nil
}

// MoveTag makes tagID a child of targetID at index. It returns false when
// the move is rejected: moving a tag onto itself, moving the root, or
// moving a tag below one of its own descendants.
func (s *TagService) MoveTag(ctx context.Context, tagID, targetID string, index int) (bool, error) {
	s.lock.lock()
	defer s.lock.unlock()

	oldParent, oldIndex, ok := s.graph.Position(tagID)
	if !ok {
		return false, errors.NotFoundf("tag %s not found", tagID)
	}
	if !s.graph.Has(targetID) {
		return false, errors.NotFoundf("tag %s not found", targetID)
	}

	if !s.graph.Move(tagID, targetID, index) {
		s.logger.Debug("tag move rejected", "tag_id", tagID, "target_id", targetID)
		return false, nil
	}

	changed := []string{targetID}
	if oldParent != targetID {
		changed = append(changed, oldParent)
	}
	if err := s.tags.BulkPut(ctx, s.records(changed...)); err != nil {
		s.rollbackMove(tagID, oldParent, oldIndex)
		return false, err
	}

	s.logger.Info("tag moved", "tag_id", tagID, "from", oldParent, "to", targetID, "index", index)
	return true, nil
}

// rollbackMove puts tagID back at oldIndex under oldParent. A reorder
// within one parent counts positions before the tag is taken out, so the
// index is shifted when the tag now sits in front of its old slot.
func (s *TagService) rollbackMove(tagID, oldParent string, oldIndex int) {
	parent, current, _ := s.graph.Position(tagID)
	if parent == oldParent && current < oldIndex {
		oldIndex++
	}
	s.graph.Move(tagID, oldParent, oldIndex)
}

// DeleteTag deletes a tag and all its descendants, removing them from
// every file first.
func (s *TagService) DeleteTag(ctx context.Context, tagID string) error {
	return s.DeleteTags(ctx, []string{tagID})
}

// DeleteTags deletes several tags and their descendants in one cascade.
func (s *TagService) DeleteTags(ctx context.Context, tagIDs []string) error {
	s.lock.lock()
	defer s.lock.unlock()

	var (
		removed []string
		seen    = make(map[string]bool)
	)
	for _, tagID := range tagIDs {
		if tagID == domain.RootTagID {
			return errors.Conflictf("the root tag cannot be deleted")
		}
		if !s.graph.Has(tagID) {
			return errors.NotFoundf("tag %s not found", tagID)
		}
		for _, sub := range s.graph.Subtree(tagID) {
			if !seen[sub] {
				seen[sub] = true
				removed = append(removed, sub)
			}
		}
	}
	if len(removed) == 0 {
		return nil
	}

	if err := s.integrity.RemoveTags(ctx, removed); err != nil {
		return err
	}

	var parents []string
	for _, tagID := range tagIDs {
		parent, ok := s.graph.Parent(tagID)
		if !ok {
			// Already detached with an ancestor listed earlier.
			continue
		}
		s.graph.Detach(tagID)
		if !seen[parent] {
			seen[parent] = true
			parents = append(parents, parent)
		}
	}

	if err := s.tags.BulkPut(ctx, s.records(parents...)); err != nil {
		return err
	}

	s.logger.Info("tags deleted", "requested", len(tagIDs), "removed", len(removed))
	return nil
}

// MergeTag replaces fromID with intoID on every file and deletes fromID.
// A tag with sub tags cannot be merged.
func (s *TagService) MergeTag(ctx context.Context, fromID, intoID string) error {
	s.lock.lock()
	defer s.lock.unlock()

	if err := s.integrity.MergeTag(ctx, fromID, intoID); err != nil {
		return err
	}

	parent, _ := s.graph.Parent(fromID)
	s.graph.Detach(fromID)
	if err := s.tags.Put(ctx, s.records(parent)[0]); err != nil {
		return err
	}

	s.logger.Info("tag merged", "from", fromID, "into", intoID)
	return nil
}

// Exists reports whether every id is a known tag and returns the unknown ones.
func (s *TagService) Exists(ids []string) (unknown []string) {
	for _, tagID := range ids {
		if !s.graph.Has(tagID) {
			unknown = append(unknown, tagID)
		}
	}
	return unknown
}

// records returns the current records of ids, skipping unknown ones.
func (s *TagService) records(ids ...string) []*domain.Tag {
	out := make([]*domain.Tag, 0, len(ids))
	for _, tagID := range ids {
		if t, ok := s.graph.Get(tagID); ok {
			out = append(out, t)
		}
	}
	return out
}
