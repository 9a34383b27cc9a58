package domain

import "time"

// RootTagID is the id of the synthetic tag every other tag descends from.
const RootTagID = "root"

// Tag is a node in the tag hierarchy.
// Only the child direction is persisted; parents are rebuilt on load.
type Tag struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	DateAdded    time.Time `json:"dateAdded"`
	DateModified time.Time `json:"dateModified"`
	Color        string    `json:"color"`
	SubTags      []string  `json:"subTags"`
	IsHidden     bool      `json:"isHidden"`
}

// IsRoot reports whether this is the root tag.
func (t *Tag) IsRoot() bool {
	return t.ID == RootTagID
}

// Touch updates DateModified.
func (t *Tag) Touch() {
	t.DateModified = time.Now()
}

// NewRootTag returns the root tag record written on first start.
func NewRootTag() *Tag {
	now := time.Now()
	return &Tag{
		ID:           RootTagID,
		Name:         "",
		DateAdded:    now,
		DateModified: now,
		SubTags:      []string{},
	}
}
