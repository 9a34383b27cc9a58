// Package query evaluates criteria against the file table.
//
// Each criterion is compiled to an optional index lookup plus an in-memory
// predicate. AND queries fetch candidates with the first criterion and
// filter them with the rest. OR queries union concurrent index lookups when
// every criterion is indexable and fall back to one full scan otherwise.
package query

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/logger"
	"github.com/listenupapp/tagcatalog/internal/store"
)

// TagExpander expands tag ids to include every descendant.
type TagExpander interface {
	ExpandSubtrees(ids []string) []string
}

// Options shapes a Find call.
type Options struct {
	Order     Order
	Direction Direction
	MatchAny  bool
}

// Planner runs criteria queries over the file table.
type Planner struct {
	files    store.Table[domain.File]
	expander TagExpander
	logger   *slog.Logger
}

// NewPlanner creates a planner.
func NewPlanner(files store.Table[domain.File], expander TagExpander, log *slog.Logger) *Planner {
	return &Planner{
		files:    files,
		expander: expander,
		logger:   logger.OrDiscard(log),
	}
}

// Find returns the files matching crits, ordered by opts. An empty criteria
// list matches every file in either mode.
func (p *Planner) Find(ctx context.Context, crits []criteria.Criterion, opts Options) ([]*domain.File, error) {
	files, err := p.run(ctx, crits, opts.MatchAny)
	if err != nil {
		return nil, err
	}
	Sort(files, opts.Order, opts.Direction)
	return files, nil
}

// Count returns the number of files matching crits.
func (p *Planner) Count(ctx context.Context, crits []criteria.Criterion, matchAny bool) (int, error) {
	if len(crits) == 0 {
		return p.files.Count(ctx)
	}
	files, err := p.run(ctx, crits, matchAny)
	if err != nil {
		return 0, err
	}
	return len(files), nil
}

// FindExact returns the files matching a single criterion, unordered.
func (p *Planner) FindExact(ctx context.Context, c criteria.Criterion) ([]*domain.File, error) {
	return p.run(ctx, []criteria.Criterion{c}, false)
}

func (p *Planner) run(ctx context.Context, crits []criteria.Criterion, matchAny bool) ([]*domain.File, error) {
	start := time.Now()

	plans := make([]plan, len(crits))
	for i, c := range crits {
		plans[i] = p.compile(c)
	}

	var (
		files    []*domain.File
		err      error
		strategy string
	)
	switch {
	case len(plans) == 0:
		strategy = "all"
		files, err = p.files.All(ctx)
	case matchAny:
		strategy, files, err = p.runAny(ctx, plans)
	default:
		strategy, files, err = p.runAll(ctx, plans)
	}
	if err != nil {
		return nil, err
	}

	p.logger.Debug("query executed",
		"criteria", len(crits),
		"match_any", matchAny,
		"strategy", strategy,
		"results", len(files),
		"duration", time.Since(start),
	)
	return files, nil
}

// runAll intersects: the first criterion selects candidates, the rest filter.
func (p *Planner) runAll(ctx context.Context, plans []plan) (string, []*domain.File, error) {
	first, rest := plans[0], plans[1:]

	var (
		candidates []*domain.File
		err        error
		strategy   string
	)
	if first.indexed() {
		strategy = "index:" + first.lookup.Index
		candidates, err = p.files.Where(ctx, *first.lookup)
	} else {
		strategy = "scan"
		candidates, err = p.files.Filter(ctx, first.match)
	}
	if err != nil {
		return "", nil, err
	}

	if len(rest) == 0 {
		return strategy, candidates, nil
	}
	out := candidates[:0]
	for _, f := range candidates {
		if matchesAll(f, rest) {
			out = append(out, f)
		}
	}
	return strategy, out, nil
}

// runAny unions. Index lookups run concurrently; results keep criterion
// order and each file appears once.
func (p *Planner) runAny(ctx context.Context, plans []plan) (string, []*domain.File, error) {
	for _, pl := range plans {
		if !pl.indexed() {
			files, err := p.files.Filter(ctx, func(f *domain.File) bool { return matchesAny(f, plans) })
			return "scan", files, err
		}
	}

	results := make([][]*domain.File, len(plans))
	g, gctx := errgroup.WithContext(ctx)
	for i, pl := range plans {
		g.Go(func() error {
			files, err := p.files.Where(gctx, *pl.lookup)
			results[i] = files
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}

	seen := make(map[string]struct{})
	var out []*domain.File
	for _, files := range results {
		for _, f := range files {
			if _, dup := seen[f.ID]; dup {
				continue
			}
			seen[f.ID] = struct{}{}
			out = append(out, f)
		}
	}
	return "index-union", out, nil
}

func matchesAll(f *domain.File, plans []plan) bool {
	for _, pl := range plans {
		if !pl.match(f) {
			return false
		}
	}
	return true
}

func matchesAny(f *domain.File, plans []plan) bool {
	for _, pl := range plans {
		if pl.match(f) {
			return true
		}
	}
	return false
}

// Indexed reports whether the criterion can be answered by an index lookup.
func (p *Planner) Indexed(c criteria.Criterion) bool {
	return p.compile(c).indexed()
}
