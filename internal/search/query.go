package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps results when the caller passes no limit.
const DefaultLimit = 50

// Params is a quick search request.
type Params struct {
	Text      string
	Extension string
	Limit     int
}

// Hit is one matching file.
type Hit struct {
	ID    string
	Name  string
	Score float64
}

// Search returns file hits ordered by relevance.
func (s *Index) Search(ctx context.Context, params Params) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), limit, 0, false)
	req.Fields = []string{fieldName}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	hits := make([]Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if n, ok := h.Fields[fieldName].(string); ok {
			hit.Name = n
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// buildQuery matches the text against name (boosted, fuzzy and prefix) and
// relative path, optionally restricted to one extension.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	text := strings.TrimSpace(params.Text)
	if text != "" {
		nameMatch := bleve.NewMatchQuery(text)
		nameMatch.SetField(fieldName)
		nameMatch.SetBoost(3.0)

		pathMatch := bleve.NewMatchQuery(text)
		pathMatch.SetField(fieldRelativePath)

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(text))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField(fieldName)
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{nameMatch, pathMatch, fuzzy}

		// Prefix matching for partially typed names.
		if len(text) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(text))
			prefix.SetField(fieldName)
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Extension != "" {
		ext := bleve.NewTermQuery(params.Extension)
		ext.SetField(fieldExtension)
		queries = append(queries, ext)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
