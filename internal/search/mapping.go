package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/mapping"
)

const (
	fieldID           = "id"
	fieldName         = "name"
	fieldRelativePath = "relative_path"
	fieldExtension    = "extension"
	fieldLocation     = "location_id"
)

// buildIndexMapping maps file documents. Names and paths use the simple
// analyzer so separators such as "_", "-" and "/" split tokens and nothing
// is stemmed; extension and location are exact keywords.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = simple.Name

	docMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = simple.Name
	nameFieldMapping.Store = true
	nameFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(fieldName, nameFieldMapping)

	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Analyzer = simple.Name
	docMapping.AddFieldMappingsAt(fieldRelativePath, pathFieldMapping)

	extFieldMapping := bleve.NewTextFieldMapping()
	extFieldMapping.Analyzer = keyword.Name
	extFieldMapping.Store = true
	docMapping.AddFieldMappingsAt(fieldExtension, extFieldMapping)

	locFieldMapping := bleve.NewTextFieldMapping()
	locFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldLocation, locFieldMapping)

	idFieldMapping := bleve.NewTextFieldMapping()
	idFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(fieldID, idFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
