package taggraph

import (
	"slices"

	"github.com/listenupapp/tagcatalog/internal/domain"
)

// Repair lists what Build had to fix in the stored records.
type Repair struct {
	CreatedRoot     bool
	DroppedChildren map[string][]string // parent id -> child ids removed from its list
	Reattached      []string            // tags attached to the root because nothing reached them
}

// Changed returns the ids whose records differ from what was stored, in a
// stable order. These must be written back.
func (r Repair) Changed() []string {
	set := make(map[string]struct{})
	if r.CreatedRoot || len(r.Reattached) > 0 {
		set[domain.RootTagID] = struct{}{}
	}
	for id := range r.DroppedChildren {
		set[id] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Empty reports whether the stored records were already consistent.
func (r Repair) Empty() bool {
	return !r.CreatedRoot && len(r.DroppedChildren) == 0 && len(r.Reattached) == 0
}

// Build reconstructs the hierarchy from stored tag records.
//
// Child ids that reference missing tags are dropped. A tag listed under
// several parents keeps the first one reached in a breadth-first walk from
// the root. Tags the walk never reaches are attached to the root, subtree
// tops first. A missing root is created.
func Build(tags []*domain.Tag) (*Graph, Repair) {
	repair := Repair{DroppedChildren: map[string][]string{}}
	g := &Graph{nodes: make(map[string]*node, len(tags)+1)}

	order := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, dup := g.nodes[t.ID]; dup {
			continue
		}
		n := &node{tag: *t}
		n.tag.SubTags = slices.Clone(t.SubTags)
		g.nodes[t.ID] = n
		order = append(order, t.ID)
	}

	if _, ok := g.nodes[domain.RootTagID]; !ok {
		g.nodes[domain.RootTagID] = &node{tag: *domain.NewRootTag()}
		repair.CreatedRoot = true
	}
	root := g.nodes[domain.RootTagID]
	root.parent = domain.RootTagID

	visited := map[string]bool{domain.RootTagID: true}
	g.walk(domain.RootTagID, visited, &repair)

	for {
		pending := unvisited(order, visited)
		if len(pending) == 0 {
			break
		}
		for _, id := range subtreeTops(g, pending, visited) {
			if visited[id] {
				continue
			}
			g.nodes[id].parent = domain.RootTagID
			root.tag.SubTags = append(root.tag.SubTags, id)
			repair.Reattached = append(repair.Reattached, id)
			visited[id] = true
			g.walk(id, visited, &repair)
		}
	}

	return g, repair
}

// Load replaces the graph's contents with the hierarchy built from tags and
// returns what had to be repaired.
func (g *Graph) Load(tags []*domain.Tag) Repair {
	built, repair := Build(tags)

	g.mu.Lock()
	g.nodes = built.nodes
	g.mu.Unlock()
	return repair
}

// walk claims children breadth-first from start, dropping references to
// missing or already claimed tags.
func (g *Graph) walk(start string, visited map[string]bool, repair *Repair) {
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := g.nodes[id]

		kept := n.tag.SubTags[:0]
		for _, child := range n.tag.SubTags {
			cn, exists := g.nodes[child]
			if !exists || visited[child] {
				repair.DroppedChildren[id] = append(repair.DroppedChildren[id], child)
				continue
			}
			visited[child] = true
			cn.parent = id
			kept = append(kept, child)
			queue = append(queue, child)
		}
		n.tag.SubTags = kept
	}
}

func unvisited(order []string, visited map[string]bool) []string {
	var out []string
	for _, id := range order {
		if !visited[id] {
			out = append(out, id)
		}
	}
	return out
}

// subtreeTops returns the pending tags no other pending tag lists as a child.
// When every pending tag is referenced (a detached cycle), the first one is
// returned so the cycle gets broken.
func subtreeTops(g *Graph, pending []string, visited map[string]bool) []string {
	referenced := make(map[string]bool)
	for _, id := range pending {
		for _, child := range g.nodes[id].tag.SubTags {
			if !visited[child] {
				referenced[child] = true
			}
		}
	}
	var tops []string
	for _, id := range pending {
		if !referenced[id] {
			tops = append(tops, id)
		}
	}
	if len(tops) == 0 {
		return pending[:1]
	}
	return tops
}
