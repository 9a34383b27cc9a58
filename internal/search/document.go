// Package search keeps a Bleve full-text index of file names and paths for
// quick search. The catalog tables remain the source of truth; the index
// holds only what is needed to find file ids by free text.
package search

import (
	"github.com/listenupapp/tagcatalog/internal/domain"
)

// Document is the indexed form of a file.
type Document struct {
	ID           string
	Name         string
	RelativePath string
	Extension    string
	LocationID   string
}

// FromFile builds the document for f.
func FromFile(f *domain.File) *Document {
	return &Document{
		ID:           f.ID,
		Name:         f.Name,
		RelativePath: f.RelativePath,
		Extension:    f.Extension,
		LocationID:   f.LocationID,
	}
}

// toMap converts the document to field names matching the mapping.
func (d *Document) toMap() map[string]any {
	return map[string]any{
		fieldID:           d.ID,
		fieldName:         d.Name,
		fieldRelativePath: d.RelativePath,
		fieldExtension:    d.Extension,
		fieldLocation:     d.LocationID,
	}
}
