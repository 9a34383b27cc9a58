package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/store"
	"github.com/listenupapp/tagcatalog/internal/store/storetest"
	"github.com/listenupapp/tagcatalog/internal/taggraph"
)

type fixture struct {
	planner *Planner
	files   store.Table[domain.File]
}

func newFixture(t *testing.T, files ...*domain.File) *fixture {
	t.Helper()

	s, err := store.Open("", store.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Files().BulkPut(context.Background(), files))

	// root ── parent ── child ── grandchild
	graph, _ := taggraph.Build([]*domain.Tag{
		{ID: domain.RootTagID, SubTags: []string{"parent", "A", "B"}},
		{ID: "parent", SubTags: []string{"child"}},
		{ID: "child", SubTags: []string{"grandchild"}},
		{ID: "grandchild"},
		{ID: "A"},
		{ID: "B"},
	})

	return &fixture{planner: NewPlanner(s.Files(), graph, nil), files: s.Files()}
}

func (fx *fixture) find(t *testing.T, matchAny bool, crits ...criteria.Criterion) []string {
	t.Helper()
	files, err := fx.planner.Find(context.Background(), crits, Options{MatchAny: matchAny})
	require.NoError(t, err)
	return storetest.IDs(files)
}

func tags(op criteria.ArrayOp, ids ...string) criteria.Array {
	if ids == nil {
		ids = []string{}
	}
	return criteria.Array{Key: criteria.FieldTags, Op: op, IDs: ids}
}

func threeFiles() []*domain.File {
	f1 := storetest.File("F1", "one", 100, "A")
	f2 := storetest.File("F2", "two", 200, "A", "B")
	f2.Extension = "png"
	f3 := storetest.File("F3", "three", 300)
	return []*domain.File{f1, f2, f3}
}

func TestFind_ArraySemantics(t *testing.T) {
	fx := newFixture(t, threeFiles()...)

	assert.Equal(t, []string{"F3"}, fx.find(t, false, tags(criteria.ArrayContains)))
	assert.ElementsMatch(t, []string{"F1", "F2"}, fx.find(t, false, tags(criteria.ArrayContains, "A")))
	assert.ElementsMatch(t, []string{"F1", "F3"}, fx.find(t, false, tags(criteria.ArrayNotContains, "B")))
	assert.ElementsMatch(t, []string{"F1", "F2"}, fx.find(t, false, tags(criteria.ArrayNotContains)))

	got := fx.find(t, false, tags(criteria.ArrayContains, "A", "B"))
	assert.Len(t, got, 2, "any-of lookup returns each file once")
}

func TestFind_AndIntersects(t *testing.T) {
	fx := newFixture(t, threeFiles()...)

	got := fx.find(t, false,
		tags(criteria.ArrayContains, "A"),
		criteria.String{Key: criteria.FieldExtension, Op: criteria.StringEquals, Value: "jpg"},
	)
	assert.Equal(t, []string{"F1"}, got)

	// Scan-only first criterion.
	got = fx.find(t, false,
		criteria.String{Key: criteria.FieldName, Op: criteria.StringContains, Value: "T"},
		criteria.Number{Key: criteria.FieldSize, Op: criteria.GreaterThan, Value: 250},
	)
	assert.Equal(t, []string{"F3"}, got)
}

func TestFind_OrUnion(t *testing.T) {
	fx := newFixture(t, threeFiles()...)

	got := fx.find(t, true,
		criteria.Number{Key: criteria.FieldSize, Op: criteria.Equals, Value: 300},
		tags(criteria.ArrayContains, "A"),
		criteria.String{Key: criteria.FieldName, Op: criteria.StringEquals, Value: "one"},
	)
	assert.Equal(t, []string{"F3", "F1", "F2"}, got, "criterion order, deduplicated")

	got = fx.find(t, true,
		tags(criteria.ArrayNotContains, "A"),
		criteria.String{Key: criteria.FieldExtension, Op: criteria.StringEquals, Value: "png"},
	)
	assert.ElementsMatch(t, []string{"F2", "F3"}, got, "scan fallback")
}

func TestFind_EmptyCriteriaMatchesAll(t *testing.T) {
	fx := newFixture(t, threeFiles()...)

	assert.ElementsMatch(t, []string{"F1", "F2", "F3"}, fx.find(t, false))
	assert.ElementsMatch(t, []string{"F1", "F2", "F3"}, fx.find(t, true))

	n, err := fx.planner.Count(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestFind_Recursive(t *testing.T) {
	a := storetest.File("f-grand", "a", 1, "grandchild")
	b := storetest.File("f-parent", "b", 2, "parent")
	c := storetest.File("f-other", "c", 3, "B")
	fx := newFixture(t, a, b, c)

	assert.ElementsMatch(t, []string{"f-grand", "f-parent"},
		fx.find(t, false, tags(criteria.ArrayContainsRecursively, "parent")))
	assert.Equal(t, []string{"f-grand"},
		fx.find(t, false, tags(criteria.ArrayContainsRecursively, "child")))
	assert.Equal(t, []string{"f-other"},
		fx.find(t, false, tags(criteria.ArrayContainsNotRecursively, "parent")))
	assert.ElementsMatch(t, []string{"f-parent", "f-other"},
		fx.find(t, false, tags(criteria.ArrayContainsNotRecursively, "child")))
}

func TestFind_Strings(t *testing.T) {
	f1 := storetest.File("f1", "Holiday", 1)
	f2 := storetest.File("f2", "holiday beach", 2)
	f3 := storetest.File("f3", "Work", 3)
	fx := newFixture(t, f1, f2, f3)

	str := func(op criteria.StringOp, v string) criteria.String {
		return criteria.String{Key: criteria.FieldName, Op: op, Value: v}
	}

	tests := []struct {
		name string
		c    criteria.String
		want []string
	}{
		{"equals is exact", str(criteria.StringEquals, "holiday"), nil},
		{"equals ignore case", str(criteria.StringEqualsIgnoreCase, "HOLIDAY"), []string{"f1"}},
		{"not equal", str(criteria.StringNotEqual, "Work"), []string{"f1", "f2"}},
		{"starts with is exact", str(criteria.StringStartsWith, "Hol"), []string{"f1"}},
		{"starts with ignore case", str(criteria.StringStartsWithIgnoreCase, "hol"), []string{"f1", "f2"}},
		{"contains ignores case", str(criteria.StringContains, "DAY"), []string{"f1", "f2"}},
		{"not contains ignores case", str(criteria.StringNotContains, "BEACH"), []string{"f1", "f3"}},
		{"not starts with ignores case", str(criteria.StringNotStartsWith, "HOL"), []string{"f3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, fx.find(t, false, tt.c))
		})
	}
}

func TestFind_Numbers(t *testing.T) {
	fx := newFixture(t, threeFiles()...)

	num := func(op criteria.CompareOp) criteria.Number {
		return criteria.Number{Key: criteria.FieldSize, Op: op, Value: 200}
	}

	assert.Equal(t, []string{"F2"}, fx.find(t, false, num(criteria.Equals)))
	assert.ElementsMatch(t, []string{"F1", "F3"}, fx.find(t, false, num(criteria.NotEqual)))
	assert.Equal(t, []string{"F1"}, fx.find(t, false, num(criteria.SmallerThan)))
	assert.ElementsMatch(t, []string{"F1", "F2"}, fx.find(t, false, num(criteria.SmallerThanOrEquals)))
	assert.Equal(t, []string{"F3"}, fx.find(t, false, num(criteria.GreaterThan)))
	assert.ElementsMatch(t, []string{"F2", "F3"}, fx.find(t, false, num(criteria.GreaterThanOrEquals)))
}

func TestFind_DatesAtDayGranularity(t *testing.T) {
	f := storetest.File("f", "f", 1)
	f.DateModified = time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	fx := newFixture(t, f)

	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	date := func(op criteria.CompareOp, v time.Time) criteria.Date {
		return criteria.Date{Key: criteria.FieldDateModified, Op: op, Value: v}
	}

	tests := []struct {
		name  string
		c     criteria.Date
		match bool
	}{
		{"equals same day", date(criteria.Equals, day), true},
		{"equals any time that day", date(criteria.Equals, day.Add(23*time.Hour)), true},
		{"smaller than same day", date(criteria.SmallerThan, day), false},
		{"smaller or equal same day", date(criteria.SmallerThanOrEquals, day), true},
		{"greater than same day", date(criteria.GreaterThan, day), false},
		{"greater or equal same day", date(criteria.GreaterThanOrEquals, day), true},
		{"not equal same day", date(criteria.NotEqual, day), false},
		{"not equal next day", date(criteria.NotEqual, day.AddDate(0, 0, 1)), true},
		{"smaller than next day", date(criteria.SmallerThan, day.AddDate(0, 0, 1)), true},
		{"greater than previous day", date(criteria.GreaterThan, day.AddDate(0, 0, -1)), true},
		{"equals previous day", date(criteria.Equals, day.AddDate(0, 0, -1)), false},
		// 15:00 UTC is already March 11th in UTC+10.
		{"day bounds follow the value's zone", date(criteria.Equals,
			time.Date(2024, 3, 11, 0, 0, 0, 0, time.FixedZone("UTC+10", 10*3600))), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fx.find(t, false, tt.c)
			if tt.match {
				assert.Equal(t, []string{"f"}, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestCompile_IndexAgreesWithPredicate(t *testing.T) {
	files := threeFiles()
	files = append(files, storetest.File("F4", "Ärger", 0), storetest.File("F5", "", -7, "child"))
	files[0].DateAdded = time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	files[2].DateAdded = time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	fx := newFixture(t, files...)
	ctx := context.Background()
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	var crits []criteria.Criterion
	for _, op := range []criteria.CompareOp{criteria.Equals, criteria.NotEqual, criteria.SmallerThan,
		criteria.SmallerThanOrEquals, criteria.GreaterThan, criteria.GreaterThanOrEquals} {
		crits = append(crits,
			criteria.Number{Key: criteria.FieldSize, Op: op, Value: 0},
			criteria.Date{Key: criteria.FieldDateAdded, Op: op, Value: day},
		)
	}
	for _, op := range []criteria.StringOp{criteria.StringEquals, criteria.StringNotEqual, criteria.StringStartsWith,
		criteria.StringEqualsIgnoreCase, criteria.StringStartsWithIgnoreCase} {
		crits = append(crits,
			criteria.String{Key: criteria.FieldName, Op: op, Value: "ä"},
			criteria.String{Key: criteria.FieldName, Op: op, Value: "t"},
			criteria.String{Key: criteria.FieldName, Op: op, Value: ""},
		)
	}
	crits = append(crits,
		tags(criteria.ArrayContains),
		tags(criteria.ArrayContains, "A", "child"),
		tags(criteria.ArrayContainsRecursively, "parent"),
		tags(criteria.ArrayContains, "zz"),
	)

	for _, c := range crits {
		pl := fx.planner.compile(c)
		require.True(t, pl.indexed(), "%s %s", c.Field(), c.Operator())

		viaIndex, err := fx.files.Where(ctx, *pl.lookup)
		require.NoError(t, err)
		viaScan, err := fx.files.Filter(ctx, pl.match)
		require.NoError(t, err)

		assert.ElementsMatch(t, storetest.IDs(viaScan), storetest.IDs(viaIndex), "%s %s %v", c.Field(), c.Operator(), c)
	}
}

func TestCompile_ScanOnlyOperators(t *testing.T) {
	fx := newFixture(t)

	scanOnly := []criteria.Criterion{
		tags(criteria.ArrayNotContains, "A"),
		tags(criteria.ArrayContainsNotRecursively, "A"),
		criteria.String{Key: criteria.FieldName, Op: criteria.StringContains, Value: "x"},
		criteria.String{Key: criteria.FieldName, Op: criteria.StringNotContains, Value: "x"},
		criteria.String{Key: criteria.FieldName, Op: criteria.StringNotStartsWith, Value: "x"},
	}
	for _, c := range scanOnly {
		assert.False(t, fx.planner.Indexed(c), "%s %s", c.Field(), c.Operator())
	}
}

func TestFind_InvalidCriterionPanics(t *testing.T) {
	fx := newFixture(t)

	assert.Panics(t, func() {
		_, _ = fx.planner.Find(context.Background(), []criteria.Criterion{
			criteria.Number{Key: criteria.FieldSize, Op: criteria.CompareOp(42)},
		}, Options{})
	})
	assert.Panics(t, func() {
		_, _ = fx.planner.FindExact(context.Background(), criteria.String{Key: criteria.FieldSize, Op: criteria.StringEquals})
	})
	assert.Panics(t, func() { fx.planner.compile(tags(criteria.ArrayContains, "")) },
		"the empty id would hit the untagged index entry")
}

func TestFind_Ordering(t *testing.T) {
	files := threeFiles()
	files = append(files, storetest.File("F0", "zero", 200))
	fx := newFixture(t, files...)
	ctx := context.Background()

	asc, err := fx.planner.Find(ctx, nil, Options{Order: OrderSize, Direction: Asc})
	require.NoError(t, err)
	assert.Equal(t, []string{"F1", "F0", "F2", "F3"}, storetest.IDs(asc), "ties broken by id")

	desc, err := fx.planner.Find(ctx, nil, Options{Order: OrderSize, Direction: Desc})
	require.NoError(t, err)
	assert.Equal(t, []string{"F3", "F2", "F0", "F1"}, storetest.IDs(desc), "desc reverses asc")

	random, err := fx.planner.Find(ctx, nil, Options{Order: OrderRandom})
	require.NoError(t, err)
	assert.ElementsMatch(t, storetest.IDs(asc), storetest.IDs(random))
}

func TestFindExact_And_Count(t *testing.T) {
	fx := newFixture(t, threeFiles()...)
	ctx := context.Background()

	files, err := fx.planner.FindExact(ctx, tags(criteria.ArrayContains, "B"))
	require.NoError(t, err)
	assert.Equal(t, []string{"F2"}, storetest.IDs(files))

	n, err := fx.planner.Count(ctx, []criteria.Criterion{tags(criteria.ArrayContains, "A")}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
