package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query string   // User's search query
	Types []string // Entity types to include (empty = all)

	Limit  int
	Offset int

	SortBy string // "relevance", "name", "rating"

	IncludeFacets bool
	Highlight     bool
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        "relevance",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets []FacetCount `json:"type_facets,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Slug       string            `json:"slug"`
	Headline   string            `json:"headline,omitempty"`
	Industry   string            `json:"industry,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = 20
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)
	addSorting(searchRequest, params)

	if params.IncludeFacets {
		searchRequest.AddFacet("type", bleve.NewFacetRequest("type", 10))
	}
	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("name")
	}
	searchRequest.Fields = []string{"id", "type", "name", "slug", "headline", "industry"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{ID: hit.ID, Score: hit.Score}
		searchHit.Type, _ = hit.Fields["type"].(string)
		searchHit.Name, _ = hit.Fields["name"].(string)
		searchHit.Slug, _ = hit.Fields["slug"].(string)
		searchHit.Headline, _ = hit.Fields["headline"].(string)
		searchHit.Industry, _ = hit.Fields["industry"].(string)

		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, searchHit)
	}

	if typeFacet, ok := searchResult.Facets["type"]; ok && typeFacet.Terms != nil {
		for _, term := range typeFacet.Terms.Terms() {
			result.Facets = append(result.Facets, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
//
// Name matches dominate. Headline and description matches let "payments"
// find companies that never put the word in their name, at a lower boost.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		headlineMatch := bleve.NewMatchQuery(q)
		headlineMatch.SetField("headline")
		headlineMatch.SetBoost(1.0)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")
		descMatch.SetBoost(0.7)

		textQueries := []query.Query{nameMatch, headlineMatch, descMatch}

		lower := strings.ToLower(q)

		// Typo tolerance on single-word names
		if !strings.ContainsAny(lower, " \t") {
			fuzzyQuery := bleve.NewFuzzyQuery(lower)
			fuzzyQuery.SetFuzziness(1)
			fuzzyQuery.SetField("name")
			fuzzyQuery.SetBoost(0.8)
			textQueries = append(textQueries, fuzzyQuery)
		}

		// Prefix query for autocomplete (minimum 2 chars)
		if len(lower) >= 2 {
			prefixQuery := bleve.NewPrefixQuery(lower)
			prefixQuery.SetField("name")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, len(params.Types))
		for i, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(typeQueries...))
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

func addSorting(req *bleve.SearchRequest, params SearchParams) {
	switch params.SortBy {
	case "name":
		req.SortBy([]string{"name", "slug"})
	case "rating":
		req.SortBy([]string{"-average_rating", "-_score"})
	default:
		req.SortBy([]string{"-_score", "slug"})
	}
}
