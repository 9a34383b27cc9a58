package store

import (
	"time"

	"github.com/listenupapp/tagcatalog/internal/domain"
)

// File index names. Searchable fields are indexed under their JSON key so
// a criterion key doubles as the index name.
const (
	IndexTags            = "tags"
	IndexLocation        = "locationId"
	IndexIno             = "ino"
	IndexName            = "name"
	IndexAbsolutePath    = "absolutePath"
	IndexRelativePath    = "relativePath"
	IndexExtension       = "extension"
	IndexSize            = "size"
	IndexWidth           = "width"
	IndexHeight          = "height"
	IndexDateAdded       = "dateAdded"
	IndexDateModified    = "dateModified"
	IndexDateCreated     = "dateCreated"
	IndexDateLastIndexed = "dateLastIndexed"

	IndexPath = "path"
)

// UntaggedValue is the tags index entry of a file with no tags.
const UntaggedValue = ""

// FoldIndex names the case-insensitive companion of a string index.
func FoldIndex(name string) string {
	return name + ".fold"
}

func stringIndexes[T any](name string, get func(*T) string) []Index[T] {
	return []Index[T]{
		{Name: name, Keys: func(v *T) []string { return []string{EncodeString(get(v))} }},
		{Name: FoldIndex(name), Keys: func(v *T) []string { return []string{EncodeFolded(get(v))} }},
	}
}

func numberIndex[T any](name string, get func(*T) float64) Index[T] {
	return Index[T]{Name: name, Keys: func(v *T) []string { return []string{EncodeNumber(get(v))} }}
}

func timeIndex[T any](name string, get func(*T) time.Time) Index[T] {
	return Index[T]{Name: name, Keys: func(v *T) []string { return []string{EncodeTime(get(v))} }}
}

// FileSchema indexes every searchable file field.
var FileSchema = Schema[domain.File]{
	Kind: "file",
	ID:   func(f *domain.File) string { return f.ID },
	Indexes: concat(
		[]Index[domain.File]{
			{Name: IndexTags, Keys: func(f *domain.File) []string {
				if len(f.Tags) == 0 {
					return []string{UntaggedValue}
				}
				return f.Tags
			}},
			{Name: IndexLocation, Keys: func(f *domain.File) []string { return []string{f.LocationID} }},
			{Name: IndexIno, Keys: func(f *domain.File) []string {
				if f.Ino == "" {
					return nil
				}
				return []string{f.Ino}
			}},
			numberIndex(IndexSize, func(f *domain.File) float64 { return float64(f.Size) }),
			numberIndex(IndexWidth, func(f *domain.File) float64 { return float64(f.Width) }),
			numberIndex(IndexHeight, func(f *domain.File) float64 { return float64(f.Height) }),
			timeIndex(IndexDateAdded, func(f *domain.File) time.Time { return f.DateAdded }),
			timeIndex(IndexDateModified, func(f *domain.File) time.Time { return f.DateModified }),
			timeIndex(IndexDateCreated, func(f *domain.File) time.Time { return f.DateCreated }),
			timeIndex(IndexDateLastIndexed, func(f *domain.File) time.Time { return f.DateLastIndexed }),
		},
		stringIndexes(IndexName, func(f *domain.File) string { return f.Name }),
		stringIndexes(IndexAbsolutePath, func(f *domain.File) string { return f.AbsolutePath }),
		stringIndexes(IndexRelativePath, func(f *domain.File) string { return f.RelativePath }),
		stringIndexes(IndexExtension, func(f *domain.File) string { return f.Extension }),
	),
}

// TagSchema indexes tags by folded name for CLI lookups.
var TagSchema = Schema[domain.Tag]{
	Kind: "tag",
	ID:   func(t *domain.Tag) string { return t.ID },
	Indexes: []Index[domain.Tag]{
		{Name: FoldIndex(IndexName), Keys: func(t *domain.Tag) []string { return []string{EncodeFolded(t.Name)} }},
	},
}

// LocationSchema keeps location paths unique.
var LocationSchema = Schema[domain.Location]{
	Kind: "location",
	ID:   func(l *domain.Location) string { return l.ID },
	Indexes: []Index[domain.Location]{
		{Name: IndexPath, Unique: true, Keys: func(l *domain.Location) []string { return []string{EncodeString(l.Path)} }},
	},
}

// SavedSearchSchema has no secondary indexes; searches are few and listed whole.
var SavedSearchSchema = Schema[domain.SavedSearch]{
	Kind: "search",
	ID:   func(s *domain.SavedSearch) string { return s.ID },
}

func concat[T any](groups ...[]Index[T]) []Index[T] {
	var out []Index[T]
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
