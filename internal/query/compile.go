package query

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/listenupapp/tagcatalog/internal/criteria"
	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/normalize"
	"github.com/listenupapp/tagcatalog/internal/store"
)

// plan is a compiled criterion. lookup is nil for scan-only criteria;
// match is always set and agrees with the lookup.
type plan struct {
	lookup *store.Lookup
	match  func(*domain.File) bool
}

func (p plan) indexed() bool { return p.lookup != nil }

// compile turns a criterion into a plan. Invalid criteria panic: they can
// only come from code, never from parsed input.
func (p *Planner) compile(c criteria.Criterion) plan {
	if err := criteria.Validate(c); err != nil {
		panic(fmt.Sprintf("query: invalid criterion: %v", err))
	}

	switch c := c.(type) {
	case criteria.Array:
		return p.compileArray(c)
	case criteria.String:
		return compileString(c)
	case criteria.Number:
		return compileNumber(c)
	case criteria.Date:
		return compileDate(c)
	default:
		panic(fmt.Sprintf("query: unhandled criterion type %T", c))
	}
}

func (p *Planner) compileArray(c criteria.Array) plan {
	ids := c.IDs
	negate := false

	switch c.Op {
	case criteria.ArrayContains:
	case criteria.ArrayNotContains:
		negate = true
	case criteria.ArrayContainsRecursively:
		ids = p.expander.ExpandSubtrees(ids)
	case criteria.ArrayContainsNotRecursively:
		ids = p.expander.ExpandSubtrees(ids)
		negate = true
	default:
		panic(fmt.Sprintf("query: unhandled array operator %s", c.Op))
	}

	contains := containsAny(ids)
	if negate {
		return plan{match: func(f *domain.File) bool { return !contains(f) }}
	}

	lookup := store.In(store.IndexTags, ids...)
	if len(ids) == 0 {
		lookup = store.In(store.IndexTags, store.UntaggedValue)
	}
	return plan{lookup: &lookup, match: contains}
}

// containsAny is the array contains predicate: an empty list means the file
// has no tags, otherwise the file has at least one of ids.
func containsAny(ids []string) func(*domain.File) bool {
	if len(ids) == 0 {
		return func(f *domain.File) bool { return len(f.Tags) == 0 }
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(f *domain.File) bool {
		for _, t := range f.Tags {
			if _, ok := set[t]; ok {
				return true
			}
		}
		return false
	}
}

func stringField(key criteria.Field) func(*domain.File) string {
	switch key {
	case criteria.FieldName:
		return func(f *domain.File) string { return f.Name }
	case criteria.FieldAbsolutePath:
		return func(f *domain.File) string { return f.AbsolutePath }
	case criteria.FieldRelativePath:
		return func(f *domain.File) string { return f.RelativePath }
	case criteria.FieldExtension:
		return func(f *domain.File) string { return f.Extension }
	default:
		panic(fmt.Sprintf("query: %s is not a string field", key))
	}
}

// compileString builds string plans. Exact operators compare the raw value;
// contains, notContains and notStartsWith ignore case, as do the explicit
// ignore-case variants.
func compileString(c criteria.String) plan {
	get := stringField(c.Key)
	index := string(c.Key)
	value := store.EncodeString(c.Value)

	switch c.Op {
	case criteria.StringEquals:
		return indexedPlan(index, []store.Range{store.Equal(value)},
			func(f *domain.File) bool { return store.EncodeString(get(f)) == value })

	case criteria.StringNotEqual:
		return indexedPlan(index, []store.Range{store.Below(value, false), store.Above(value, false)},
			func(f *domain.File) bool { return store.EncodeString(get(f)) != value })

	case criteria.StringStartsWith:
		return indexedPlan(index, []store.Range{store.Prefix(value)},
			func(f *domain.File) bool { return strings.HasPrefix(store.EncodeString(get(f)), value) })

	case criteria.StringEqualsIgnoreCase:
		folded := store.EncodeFolded(c.Value)
		return indexedPlan(store.FoldIndex(index), []store.Range{store.Equal(folded)},
			func(f *domain.File) bool { return store.EncodeFolded(get(f)) == folded })

	case criteria.StringStartsWithIgnoreCase:
		folded := store.EncodeFolded(c.Value)
		return indexedPlan(store.FoldIndex(index), []store.Range{store.Prefix(folded)},
			func(f *domain.File) bool { return strings.HasPrefix(store.EncodeFolded(get(f)), folded) })

	case criteria.StringContains:
		return plan{match: func(f *domain.File) bool { return normalize.ContainsFold(get(f), c.Value) }}

	case criteria.StringNotContains:
		return plan{match: func(f *domain.File) bool { return !normalize.ContainsFold(get(f), c.Value) }}

	case criteria.StringNotStartsWith:
		return plan{match: func(f *domain.File) bool { return !normalize.HasPrefixFold(get(f), c.Value) }}

	default:
		panic(fmt.Sprintf("query: unhandled string operator %s", c.Op))
	}
}

func numberField(key criteria.Field) func(*domain.File) float64 {
	switch key {
	case criteria.FieldSize:
		return func(f *domain.File) float64 { return float64(f.Size) }
	case criteria.FieldWidth:
		return func(f *domain.File) float64 { return float64(f.Width) }
	case criteria.FieldHeight:
		return func(f *domain.File) float64 { return float64(f.Height) }
	default:
		panic(fmt.Sprintf("query: %s is not a number field", key))
	}
}

func compileNumber(c criteria.Number) plan {
	get := numberField(c.Key)
	v := store.EncodeNumber(c.Value)
	index := string(c.Key)

	var ranges []store.Range
	var match func(x float64) bool

	switch c.Op {
	case criteria.Equals:
		ranges = []store.Range{store.Equal(v)}
		match = func(x float64) bool { return x == c.Value }
	case criteria.NotEqual:
		ranges = []store.Range{store.Below(v, false), store.Above(v, false)}
		match = func(x float64) bool { return x != c.Value }
	case criteria.SmallerThan:
		ranges = []store.Range{store.Below(v, false)}
		match = func(x float64) bool { return x < c.Value }
	case criteria.SmallerThanOrEquals:
		ranges = []store.Range{store.Below(v, true)}
		match = func(x float64) bool { return x <= c.Value }
	case criteria.GreaterThan:
		ranges = []store.Range{store.Above(v, false)}
		match = func(x float64) bool { return x > c.Value }
	case criteria.GreaterThanOrEquals:
		ranges = []store.Range{store.Above(v, true)}
		match = func(x float64) bool { return x >= c.Value }
	default:
		panic(fmt.Sprintf("query: unhandled number operator %s", c.Op))
	}

	return indexedPlan(index, ranges, func(f *domain.File) bool { return match(get(f)) })
}

func dateField(key criteria.Field) func(*domain.File) time.Time {
	switch key {
	case criteria.FieldDateAdded:
		return func(f *domain.File) time.Time { return f.DateAdded }
	case criteria.FieldDateModified:
		return func(f *domain.File) time.Time { return f.DateModified }
	case criteria.FieldDateCreated:
		return func(f *domain.File) time.Time { return f.DateCreated }
	case criteria.FieldDateLastIndexed:
		return func(f *domain.File) time.Time { return f.DateLastIndexed }
	default:
		panic(fmt.Sprintf("query: %s is not a date field", key))
	}
}

// DayBounds returns the start of t's calendar day and the start of the next
// day, both in t's location.
func DayBounds(t time.Time) (start, next time.Time) {
	y, m, d := t.Date()
	start = time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	next = time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
	return start, next
}

// compileDate compares at day granularity: equality is the half-open range
// [start, next) of the value's day.
func compileDate(c criteria.Date) plan {
	get := dateField(c.Key)
	start, next := DayBounds(c.Value)
	s, n := store.EncodeTime(start), store.EncodeTime(next)
	index := string(c.Key)

	var ranges []store.Range
	var match func(t time.Time) bool

	switch c.Op {
	case criteria.Equals:
		ranges = []store.Range{store.Between(s, n)}
		match = func(t time.Time) bool { return !t.Before(start) && t.Before(next) }
	case criteria.NotEqual:
		ranges = []store.Range{store.Below(s, false), store.Above(n, true)}
		match = func(t time.Time) bool { return t.Before(start) || !t.Before(next) }
	case criteria.SmallerThan:
		ranges = []store.Range{store.Below(s, false)}
		match = func(t time.Time) bool { return t.Before(start) }
	case criteria.SmallerThanOrEquals:
		ranges = []store.Range{store.Below(n, false)}
		match = func(t time.Time) bool { return t.Before(next) }
	case criteria.GreaterThan:
		ranges = []store.Range{store.Above(n, true)}
		match = func(t time.Time) bool { return !t.Before(next) }
	case criteria.GreaterThanOrEquals:
		ranges = []store.Range{store.Above(s, true)}
		match = func(t time.Time) bool { return !t.Before(start) }
	default:
		panic(fmt.Sprintf("query: unhandled date operator %s", c.Op))
	}

	return indexedPlan(index, ranges, func(f *domain.File) bool { return match(get(f)) })
}

func indexedPlan(index string, ranges []store.Range, match func(*domain.File) bool) plan {
	return plan{
		lookup: &store.Lookup{Index: index, Ranges: slices.Clip(ranges)},
		match:  match,
	}
}
