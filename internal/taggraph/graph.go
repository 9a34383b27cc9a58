// Package taggraph holds the in-memory tag hierarchy.
//
// Tags live in an arena keyed by id. Each node knows its parent id and its
// ordered child ids; the root's parent is itself. Only child lists are
// persisted, so the graph is rebuilt from tag records on load.
package taggraph

import (
	"math"
	"slices"
	"sync"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
)

// Append as an index places a tag after its last sibling.
const Append = math.MaxInt

type node struct {
	tag    domain.Tag // tag.SubTags is the ordered child list
	parent string
}

// Graph is the tag hierarchy. It is safe for concurrent use.
type Graph struct {
	mu    sync.RWMutex
	nodes map[string]*node
}

// New returns a graph holding only a fresh root tag.
func New() *Graph {
	root := domain.NewRootTag()
	return &Graph{nodes: map[string]*node{
		root.ID: {tag: *root, parent: root.ID},
	}}
}

// Len returns the number of tags, root included.
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Has reports whether the tag exists.
func (g *Graph) Has(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Get returns a copy of the tag record, with SubTags set to its current children.
func (g *Graph) Get(id string) (*domain.Tag, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return n.record(), true
}

func (n *node) record() *domain.Tag {
	t := n.tag
	t.SubTags = slices.Clone(n.tag.SubTags)
	if t.SubTags == nil {
		t.SubTags = []string{}
	}
	return &t
}

// Parent returns the parent id. The root is its own parent.
func (g *Graph) Parent(id string) (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return "", false
	}
	return n.parent, true
}

// Position returns the parent id and the tag's index among its siblings.
func (g *Graph) Position(id string) (parent string, index int, ok bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok || id == domain.RootTagID {
		return "", 0, false
	}
	return n.parent, slices.Index(g.nodes[n.parent].tag.SubTags, id), true
}

// Children returns the ordered child ids, or nil for an unknown tag.
func (g *Graph) Children(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	return slices.Clone(n.tag.SubTags)
}

// Ancestors returns the parent chain from the nearest parent up to the root.
// The root has no ancestors.
func (g *Graph) Ancestors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.ancestors(id)
}

func (g *Graph) ancestors(id string) []string {
	var out []string
	n, ok := g.nodes[id]
	for ok && id != domain.RootTagID {
		id = n.parent
		out = append(out, id)
		n, ok = g.nodes[id]
	}
	return out
}

// Subtree returns id followed by all its descendants in pre-order.
func (g *Graph) Subtree(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.subtree(id, nil)
}

func (g *Graph) subtree(id string, out []string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return out
	}
	out = append(out, id)
	for _, child := range n.tag.SubTags {
		out = g.subtree(child, out)
	}
	return out
}

// ExpandSubtrees returns every id with all its descendants, deduplicated in
// first-seen order. Unknown ids are kept so they still match nothing.
func (g *Graph) ExpandSubtrees(ids []string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, id := range ids {
		sub := g.subtree(id, nil)
		if len(sub) == 0 {
			sub = []string{id}
		}
		for _, s := range sub {
			if _, dup := seen[s]; !dup {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	return out
}

// Tags returns every tag record in pre-order starting at the root.
func (g *Graph) Tags() []*domain.Tag {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := g.subtree(domain.RootTagID, nil)
	out := make([]*domain.Tag, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.nodes[id].record())
	}
	return out
}

// Insert adds a new tag under parentID at index (clamped). The tag's own
// SubTags are ignored; a new tag has no children.
func (g *Graph) Insert(parentID string, tag domain.Tag, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	parent, ok := g.nodes[parentID]
	if !ok {
		return errors.NotFoundf("parent tag %s not found", parentID)
	}
	if _, exists := g.nodes[tag.ID]; exists {
		return errors.AlreadyExistsf("tag %s already exists", tag.ID)
	}

	tag.SubTags = []string{}
	g.nodes[tag.ID] = &node{tag: tag, parent: parentID}
	parent.tag.SubTags = insertAt(parent.tag.SubTags, tag.ID, index)
	return nil
}

// Update applies fn to the stored tag. fn cannot change the id or the children.
func (g *Graph) Update(id string, fn func(t *domain.Tag)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	t := n.tag
	t.SubTags = slices.Clone(n.tag.SubTags)
	fn(&t)
	t.ID = n.tag.ID
	t.SubTags = n.tag.SubTags
	n.tag = t
	return true
}

// Move makes id a child of targetID at index. It returns false without
// changing anything when id and targetID are the same, when id is the root
// or unknown, when targetID is unknown, or when targetID lies inside id's
// subtree. Moving within the same parent is a reorder; the index refers to
// positions before the tag is taken out.
func (g *Graph) Move(id, targetID string, index int) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id == targetID || id == domain.RootTagID {
		return false
	}
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	target, ok := g.nodes[targetID]
	if !ok {
		return false
	}

	if n.parent == targetID {
		old := slices.Index(target.tag.SubTags, id)
		if old < index {
			index--
		}
		target.tag.SubTags = slices.Delete(target.tag.SubTags, old, old+1)
		target.tag.SubTags = insertAt(target.tag.SubTags, id, index)
		return true
	}

	if slices.Contains(g.ancestors(targetID), id) {
		return false
	}

	oldParent := g.nodes[n.parent]
	oldParent.tag.SubTags = slices.DeleteFunc(oldParent.tag.SubTags, func(c string) bool { return c == id })
	target.tag.SubTags = insertAt(target.tag.SubTags, id, index)
	n.parent = targetID
	return true
}

// Detach removes id and its whole subtree from the graph and returns the
// removed ids in pre-order. The root cannot be detached.
func (g *Graph) Detach(id string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[id]
	if !ok || id == domain.RootTagID {
		return nil
	}

	removed := g.subtree(id, nil)
	parent := g.nodes[n.parent]
	parent.tag.SubTags = slices.DeleteFunc(parent.tag.SubTags, func(c string) bool { return c == id })
	for _, r := range removed {
		delete(g.nodes, r)
	}
	return removed
}

func insertAt(list []string, id string, index int) []string {
	index = max(0, min(index, len(list)))
	return slices.Insert(list, index, id)
}
