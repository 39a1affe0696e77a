package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/stagepass/stagepass-server/internal/errors"
	"github.com/stagepass/stagepass-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "search",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search the catalog",
		Description: "Full-text search across artists, events and genres with faceting. A genre filter also matches subgenres.",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains parameters for searching.
type SearchInput struct {
	Query   string    `query:"q" maxLength:"200" doc:"Search query"`
	Types   string    `query:"types" doc:"Comma-separated document types: artist, event, genre"`
	GenreID string    `query:"genre_id" doc:"Only documents tagged with this genre or one of its subgenres"`
	Status  string    `query:"status" enum:"scheduled,cancelled,sold_out" doc:"Event status"`
	From    time.Time `query:"from" doc:"Events starting at or after (RFC 3339)"`
	To      time.Time `query:"to" doc:"Events starting at or before (RFC 3339)"`
	Limit   int       `query:"limit" default:"20" minimum:"1" maximum:"100" doc:"Max results"`
	Offset  int       `query:"offset" default:"0" minimum:"0" doc:"Pagination offset"`
	Sort    string    `query:"sort" default:"relevance" enum:"relevance,name,date,recent" doc:"Sort field"`
	Order   string    `query:"order" default:"desc" enum:"asc,desc" doc:"Sort order"`
	Facets  bool      `query:"facets" default:"true" doc:"Include type and genre facet counts"`
}

// SearchOutput wraps the search result.
type SearchOutput struct {
	Body *search.SearchResult
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	types, err := parseDocTypes(input.Types)
	if err != nil {
		return nil, err
	}

	params := search.DefaultSearchParams()
	params.Query = input.Query
	params.Types = types
	params.Status = input.Status
	params.StartsAfter = input.From
	params.StartsUntil = input.To
	params.Limit = input.Limit
	params.Offset = input.Offset
	params.SortBy = input.Sort
	params.SortOrder = input.Order
	params.IncludeFacets = input.Facets
	if input.GenreID != "" {
		params.GenreIDs = []string{input.GenreID}
	}

	result, err := s.services.Search.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	if result.Hits == nil {
		result.Hits = []search.SearchHit{}
	}
	return &SearchOutput{Body: result}, nil
}

func parseDocTypes(raw string) ([]search.DocType, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var types []search.DocType
	for part := range strings.SplitSeq(raw, ",") {
		t := search.DocType(strings.ToLower(strings.TrimSpace(part)))
		if t == "" {
			continue
		}
		if !t.Valid() {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{
				"types": "unknown document type " + string(t),
			})
		}
		types = append(types, t)
	}
	return types, nil
}
