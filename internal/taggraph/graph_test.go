package taggraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
)

func tag(id string, children ...string) *domain.Tag {
	return &domain.Tag{ID: id, Name: id, SubTags: children}
}

// sample builds:
//
//	root
//	├── a
//	│   ├── a1
//	│   └── a2
//	│       └── a2x
//	└── b
func sample(t *testing.T) *Graph {
	t.Helper()
	g, repair := Build([]*domain.Tag{
		tag(domain.RootTagID, "a", "b"),
		tag("a", "a1", "a2"),
		tag("a1"),
		tag("a2", "a2x"),
		tag("a2x"),
		tag("b"),
	})
	require.True(t, repair.Empty())
	return g
}

func TestBuild_Parents(t *testing.T) {
	g := sample(t)

	parent, ok := g.Parent("a2x")
	require.True(t, ok)
	assert.Equal(t, "a2", parent)

	parent, ok = g.Parent(domain.RootTagID)
	require.True(t, ok)
	assert.Equal(t, domain.RootTagID, parent, "root is its own parent")

	assert.Equal(t, []string{"a2", "a", domain.RootTagID}, g.Ancestors("a2x"))
	assert.Empty(t, g.Ancestors(domain.RootTagID))
	assert.Equal(t, 6, g.Len())
}

func TestBuild_Repairs(t *testing.T) {
	g, repair := Build([]*domain.Tag{
		tag(domain.RootTagID, "a", "b", "ghost"),
		tag("a", "shared"),
		tag("b", "shared"),
		tag("shared"),
		tag("orphan", "orphan-child"),
		tag("orphan-child"),
		tag("loop1", "loop2"),
		tag("loop2", "loop1"),
	})

	assert.False(t, repair.Empty())
	assert.Equal(t, []string{"ghost"}, repair.DroppedChildren[domain.RootTagID])
	assert.Equal(t, []string{"shared"}, repair.DroppedChildren["b"])
	assert.Equal(t, []string{"loop1"}, repair.DroppedChildren["loop2"])
	assert.Equal(t, []string{"orphan", "loop1"}, repair.Reattached)
	assert.Equal(t, []string{"b", "loop2", domain.RootTagID}, repair.Changed())

	parent, _ := g.Parent("shared")
	assert.Equal(t, "a", parent, "first parent in breadth-first order wins")
	parent, _ = g.Parent("orphan-child")
	assert.Equal(t, "orphan", parent)
	assert.Equal(t, []string{"a", "b", "orphan", "loop1"}, g.Children(domain.RootTagID))
	assert.Empty(t, g.Children("b"))
}

func TestBuild_CreatesMissingRoot(t *testing.T) {
	g, repair := Build([]*domain.Tag{tag("a")})

	assert.True(t, repair.CreatedRoot)
	assert.Equal(t, []string{"a"}, repair.Reattached)
	assert.True(t, g.Has(domain.RootTagID))
	assert.Equal(t, []string{"a"}, g.Children(domain.RootTagID))
}

func TestSubtreeAndExpand(t *testing.T) {
	g := sample(t)

	assert.Equal(t, []string{"a", "a1", "a2", "a2x"}, g.Subtree("a"))
	assert.Empty(t, g.Subtree("missing"))
	assert.Equal(t, []string{"a2", "a2x", "b", "unknown"}, g.ExpandSubtrees([]string{"a2", "b", "a2x", "unknown"}))

	var ids []string
	for _, tg := range g.Tags() {
		ids = append(ids, tg.ID)
	}
	assert.Equal(t, []string{domain.RootTagID, "a", "a1", "a2", "a2x", "b"}, ids)
}

func TestInsert(t *testing.T) {
	g := sample(t)

	require.NoError(t, g.Insert("a", domain.Tag{ID: "a0", SubTags: []string{"bogus"}}, 0))
	require.NoError(t, g.Insert("a", domain.Tag{ID: "a9"}, Append))
	require.NoError(t, g.Insert("a", domain.Tag{ID: "aneg"}, -4))

	assert.Equal(t, []string{"aneg", "a0", "a1", "a2", "a9"}, g.Children("a"))
	assert.Empty(t, g.Children("a0"))

	err := g.Insert("missing", domain.Tag{ID: "x"}, 0)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
	err = g.Insert("b", domain.Tag{ID: "a1"}, 0)
	assert.True(t, errors.Is(err, errors.ErrAlreadyExists))
}

func TestMove_Rejections(t *testing.T) {
	g := sample(t)
	before := g.Tags()

	assert.False(t, g.Move("a", "a", 0), "identical")
	assert.False(t, g.Move(domain.RootTagID, "b", 0), "root")
	assert.False(t, g.Move("a", "a2x", 0), "into own descendant")
	assert.False(t, g.Move("a", "a1", 0), "into own child")
	assert.False(t, g.Move("missing", "b", 0), "unknown subject")
	assert.False(t, g.Move("a", "missing", 0), "unknown target")

	assert.Equal(t, before, g.Tags(), "rejections do not mutate")
}

func TestMove_Reparent(t *testing.T) {
	g := sample(t)

	require.True(t, g.Move("a2", "b", 0))

	parent, _ := g.Parent("a2")
	assert.Equal(t, "b", parent)
	assert.Equal(t, []string{"a1"}, g.Children("a"))
	assert.Equal(t, []string{"a2"}, g.Children("b"))
	assert.Equal(t, []string{"a2x"}, g.Children("a2"), "subtree moves along")
	assert.Equal(t, []string{"a2", "b", domain.RootTagID}, g.Ancestors("a2x"))
}

func TestMove_ReorderSameParent(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		index int
		want  []string
	}{
		{"forward accounts for removal", "x", 2, []string{"y", "x", "z"}},
		{"to end", "x", 3, []string{"y", "z", "x"}},
		{"backward", "z", 0, []string{"z", "x", "y"}},
		{"same slot", "y", 1, []string{"x", "y", "z"}},
		{"clamped high", "x", 99, []string{"y", "z", "x"}},
		{"clamped low", "z", -3, []string{"z", "x", "y"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, _ := Build([]*domain.Tag{
				tag(domain.RootTagID, "p"),
				tag("p", "x", "y", "z"),
				tag("x"), tag("y"), tag("z"),
			})
			require.True(t, g.Move(tt.id, "p", tt.index))
			assert.Equal(t, tt.want, g.Children("p"))
		})
	}
}

func TestMove_ToAncestor(t *testing.T) {
	g := sample(t)

	require.True(t, g.Move("a2x", domain.RootTagID, 1))
	assert.Equal(t, []string{"a", "a2x", "b"}, g.Children(domain.RootTagID))
	assert.Empty(t, g.Children("a2"))
}

func TestPosition(t *testing.T) {
	g := sample(t)

	parent, index, ok := g.Position("a2")
	require.True(t, ok)
	assert.Equal(t, "a", parent)
	assert.Equal(t, 1, index)

	_, _, ok = g.Position(domain.RootTagID)
	assert.False(t, ok)
}

func TestDetach(t *testing.T) {
	g := sample(t)

	assert.Equal(t, []string{"a2", "a2x"}, g.Detach("a2"))
	assert.False(t, g.Has("a2"))
	assert.False(t, g.Has("a2x"))
	assert.Equal(t, []string{"a1"}, g.Children("a"))

	assert.Nil(t, g.Detach(domain.RootTagID))
	assert.Nil(t, g.Detach("missing"))
}

func TestUpdate(t *testing.T) {
	g := sample(t)

	ok := g.Update("a", func(tg *domain.Tag) {
		tg.Name = "Animals"
		tg.Color = "#ff0000"
		tg.ID = "hijack"
		tg.SubTags = nil
	})
	require.True(t, ok)

	got, ok := g.Get("a")
	require.True(t, ok)
	assert.Equal(t, "Animals", got.Name)
	assert.Equal(t, "#ff0000", got.Color)
	assert.Equal(t, "a", got.ID)
	assert.Equal(t, []string{"a1", "a2"}, got.SubTags)

	assert.False(t, g.Update("missing", func(*domain.Tag) {}))
}

func TestGet_ReturnsCopy(t *testing.T) {
	g := sample(t)

	got, _ := g.Get("a")
	got.SubTags[0] = "mutated"

	assert.Equal(t, []string{"a1", "a2"}, g.Children("a"))
}

func TestLoad_ReplacesContents(t *testing.T) {
	g := New()
	require.NoError(t, g.Insert(domain.RootTagID, domain.Tag{ID: "old"}, Append))

	repair := g.Load([]*domain.Tag{tag(domain.RootTagID, "x", "ghost"), tag("x")})

	assert.False(t, g.Has("old"))
	assert.Equal(t, []string{"x"}, g.Children(domain.RootTagID))
	assert.Equal(t, []string{"ghost"}, repair.DroppedChildren[domain.RootTagID])
}
