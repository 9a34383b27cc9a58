package domain

import (
	"slices"
	"time"
)

// File is a cataloged file on disk and the tags applied to it.
// Tags is a unique list in the order the tags were applied.
type File struct {
	ID              string    `json:"id"`
	Ino             string    `json:"ino"`
	LocationID      string    `json:"locationId" validate:"required"`
	RelativePath    string    `json:"relativePath"`
	AbsolutePath    string    `json:"absolutePath"`
	Tags            []string  `json:"tags"`
	DateAdded       time.Time `json:"dateAdded"`
	DateModified    time.Time `json:"dateModified"`
	DateLastIndexed time.Time `json:"dateLastIndexed"`
	Name            string    `json:"name" validate:"required"`
	Extension       string    `json:"extension"`
	Size            int64     `json:"size" validate:"min=0"`
	Width           int       `json:"width" validate:"min=0"`
	Height          int       `json:"height" validate:"min=0"`
	DateCreated     time.Time `json:"dateCreated"`
}

// HasTag reports whether the file carries the tag.
func (f *File) HasTag(tagID string) bool {
	return slices.Contains(f.Tags, tagID)
}

// AddTags appends tags the file does not already carry, keeping order.
// Returns true if anything was added.
func (f *File) AddTags(ids ...string) bool {
	added := false
	for _, id := range ids {
		if !f.HasTag(id) {
			f.Tags = append(f.Tags, id)
			added = true
		}
	}
	return added
}

// RemoveTags drops every listed tag. Returns true if anything was removed.
func (f *File) RemoveTags(ids ...string) bool {
	before := len(f.Tags)
	f.Tags = slices.DeleteFunc(f.Tags, func(t string) bool {
		return slices.Contains(ids, t)
	})
	return len(f.Tags) != before
}

// ReplaceTag swaps from for into at the same position. If the file already
// carries into, from is dropped instead so the list stays unique.
func (f *File) ReplaceTag(from, into string) bool {
	i := slices.Index(f.Tags, from)
	if i < 0 {
		return false
	}
	if f.HasTag(into) {
		f.Tags = slices.Delete(f.Tags, i, i+1)
		return true
	}
	f.Tags[i] = into
	return true
}

// DedupeTags removes repeated ids, keeping the first occurrence.
func (f *File) DedupeTags() {
	seen := make(map[string]struct{}, len(f.Tags))
	f.Tags = slices.DeleteFunc(f.Tags, func(t string) bool {
		if _, ok := seen[t]; ok {
			return true
		}
		seen[t] = struct{}{}
		return false
	})
}
