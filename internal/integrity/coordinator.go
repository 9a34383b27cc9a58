// Package integrity keeps file tag references consistent with the tag set.
//
// Tag deletions and merges are cascades over two tables: the affected files
// are rewritten first, then the tag records are removed. A storage failure
// aborts the remaining steps and is logged with the operation id so a partial
// cascade can be traced.
package integrity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/store"
)

// Finder returns the files matching a single criterion.
type Finder interface {
	FindExact(ctx context.Context, c criteria.Criterion) ([]*domain.File, error)
}

// Tree is the read side of the tag hierarchy.
type Tree interface {
	Has(id string) bool
	Children(id string) []string
}

// Coordinator runs tag cascades.
type Coordinator struct {
	files  store.Table[domain.File]
	tags   store.Table[domain.Tag]
	finder Finder
	tree   Tree
	logger *slog.Logger
}

// NewCoordinator creates a coordinator.
func NewCoordinator(
	files store.Table[domain.File],
	tags store.Table[domain.Tag],
	finder Finder,
	tree Tree,
	log *slog.Logger,
) *Coordinator {
	return &Coordinator{
		files:  files,
		tags:   tags,
		finder: finder,
		tree:   tree,
		logger: logger.OrDiscard(log),
	}
}

// RemoveTags strips ids from every file that references them, then deletes
// the tag records. It does not touch the tag hierarchy.
func (c *Coordinator) RemoveTags(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	log := c.logger.With("op", "remove_tags", "op_id", uuid.NewString())
	log.Info("cascade started", "tags", len(ids))

	files, err := c.finder.FindExact(ctx, criteria.Array{Key: criteria.FieldTags, Op: criteria.ArrayContains, IDs: ids})
	if err != nil {
		return c.abort(log, "find files", err)
	}

	for _, f := range files {
		f.RemoveTags(ids...)
	}
	if err := c.files.BulkPut(ctx, files); err != nil {
		return c.abort(log, "rewrite files", err)
	}

	if err := c.tags.BulkDelete(ctx, ids); err != nil {
		return c.abort(log, "delete tags", err)
	}

	log.Info("cascade finished", "files", len(files))
	return nil
}

// MergeTag replaces from with into on every file and deletes from. A tag
// with children cannot be merged.
func (c *Coordinator) MergeTag(ctx context.Context, from, into string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if from == into {
		return errors.Validationf("cannot merge tag %s into itself", from)
	}
	if from == domain.RootTagID {
		return errors.Conflictf("the root tag cannot be merged")
	}
	for _, id := range []string{from, into} {
		if !c.tree.Has(id) {
			return errors.NotFoundf("tag %s not found", id)
		}
	}
	if len(c.tree.Children(from)) > 0 {
		return errors.Conflictf("tag %s has sub tags and cannot be merged", from)
	}

	log := c.logger.With("op", "merge_tag", "op_id", uuid.NewString(), "from", from, "into", into)
	log.Info("cascade started")

	files, err := c.finder.FindExact(ctx, criteria.Array{Key: criteria.FieldTags, Op: criteria.ArrayContains, IDs: []string{from}})
	if err != nil {
		return c.abort(log, "find files", err)
	}

	for _, f := range files {
		f.ReplaceTag(from, into)
	}
	if err := c.files.BulkPut(ctx, files); err != nil {
		return c.abort(log, "rewrite files", err)
	}

	if err := c.tags.Delete(ctx, from); err != nil {
		return c.abort(log, "delete tag", err)
	}

	log.Info("cascade finished", "files", len(files))
	return nil
}

func (c *Coordinator) abort(log *slog.Logger, step string, err error) error {
	log.Error("cascade aborted, catalog may be inconsistent", "step", step, "error", err)
	return err
}
