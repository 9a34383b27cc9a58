package query

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/listenupapp/tagcatalog/internal/domain"
	"github.com/listenupapp/tagcatalog/internal/errors"
)

// Order is a result ordering: a sortable field name or OrderRandom.
type Order string

// Orders.
const (
	OrderNone            Order = ""
	OrderRandom          Order = "random"
	OrderName            Order = "name"
	OrderAbsolutePath    Order = "absolutePath"
	OrderRelativePath    Order = "relativePath"
	OrderExtension       Order = "extension"
	OrderSize            Order = "size"
	OrderWidth           Order = "width"
	OrderHeight          Order = "height"
	OrderDateAdded       Order = "dateAdded"
	OrderDateModified    Order = "dateModified"
	OrderDateCreated     Order = "dateCreated"
	OrderDateLastIndexed Order = "dateLastIndexed"
)

// Direction is ascending or descending.
type Direction string

// Directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

var comparators = map[Order]func(a, b *domain.File) int{
	OrderName:            func(a, b *domain.File) int { return strings.Compare(a.Name, b.Name) },
	OrderAbsolutePath:    func(a, b *domain.File) int { return strings.Compare(a.AbsolutePath, b.AbsolutePath) },
	OrderRelativePath:    func(a, b *domain.File) int { return strings.Compare(a.RelativePath, b.RelativePath) },
	OrderExtension:       func(a, b *domain.File) int { return strings.Compare(a.Extension, b.Extension) },
	OrderSize:            func(a, b *domain.File) int { return cmp.Compare(a.Size, b.Size) },
	OrderWidth:           func(a, b *domain.File) int { return cmp.Compare(a.Width, b.Width) },
	OrderHeight:          func(a, b *domain.File) int { return cmp.Compare(a.Height, b.Height) },
	OrderDateAdded:       func(a, b *domain.File) int { return compareTime(a.DateAdded, b.DateAdded) },
	OrderDateModified:    func(a, b *domain.File) int { return compareTime(a.DateModified, b.DateModified) },
	OrderDateCreated:     func(a, b *domain.File) int { return compareTime(a.DateCreated, b.DateCreated) },
	OrderDateLastIndexed: func(a, b *domain.File) int { return compareTime(a.DateLastIndexed, b.DateLastIndexed) },
}

func compareTime(a, b time.Time) int { return a.Compare(b) }

// ParseOrder validates a user supplied order and direction.
func ParseOrder(order, direction string) (Order, Direction, error) {
	o := Order(order)
	if o != OrderNone && o != OrderRandom {
		if _, ok := comparators[o]; !ok {
			return "", "", errors.Validationf("unknown order %q", order)
		}
	}
	d := Direction(strings.ToLower(direction))
	switch d {
	case "":
		d = Asc
	case Asc, Desc:
	default:
		return "", "", errors.Validationf("unknown direction %q (must be asc or desc)", direction)
	}
	return o, d, nil
}

// Sort orders files in place. OrderNone keeps the retrieval order and
// OrderRandom shuffles uniformly; direction is ignored for both. Field
// orders sort ascending by the field with the id as tiebreak, then reverse
// for Desc. Unknown orders panic; parse user input with ParseOrder.
func Sort(files []*domain.File, order Order, dir Direction) {
	switch order {
	case OrderNone:
		return
	case OrderRandom:
		rand.Shuffle(len(files), func(i, j int) { files[i], files[j] = files[j], files[i] })
		return
	}

	compare, ok := comparators[order]
	if !ok {
		panic(fmt.Sprintf("query: unknown order %q", order))
	}
	slices.SortStableFunc(files, func(a, b *domain.File) int {
		if c := compare(a, b); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if dir == Desc {
		slices.Reverse(files)
	}
}
