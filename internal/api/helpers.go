package api

import (
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/store"
)

// PageInput is embedded by cursor-paginated list inputs.
type PageInput struct {
	Limit  int    `query:"limit" minimum:"0" maximum:"500" doc:"Items per page (default 50)"`
	Cursor string `query:"cursor" doc:"Cursor from the previous page's next_cursor"`
}

func (p PageInput) params() store.PaginationParams {
	params := store.PaginationParams{Limit: p.Limit, Cursor: p.Cursor}
	params.Validate()
	return params
}

// PageInfo accompanies every paginated list.
type PageInfo struct {
	NextCursor string `json:"next_cursor,omitempty" doc:"Cursor for the next page; empty on the last page"`
	HasMore    bool   `json:"has_more" doc:"Whether more items follow"`
	Total      int    `json:"total" doc:"Total matching items"`
}

func pageInfo[T any](res *store.PaginatedResult[T]) PageInfo {
	return PageInfo{NextCursor: res.NextCursor, HasMore: res.HasMore, Total: res.Total}
}

// genreRefs resolves genre IDs against tree, skipping IDs that no longer exist.
func genreRefs(tree *genre.Tree, ids []string) []GenreRef {
	refs := make([]GenreRef, 0, len(ids))
	for _, gid := range ids {
		if n, ok := tree.Lookup(gid); ok {
			refs = append(refs, GenreRef{ID: n.ID, Name: n.Name, Slug: n.Slug, Path: n.Path})
		}
	}
	return refs
}

// orEmpty keeps JSON arrays from rendering as null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
