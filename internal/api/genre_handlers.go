package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/service"
	"github.com/stagepass/stagepass-server/internal/store"
)

func (s *Server) registerGenreRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns every genre with its level and display path, or the genres matching q",
		Tags:        []string{"Genres"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenreTree",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/tree",
		Summary:     "Get genre tree",
		Description: "Returns the nested genre hierarchy with siblings in collation order",
		Tags:        []string{"Genres"},
	}, s.handleGetGenreTree)

	huma.Register(s.api, huma.Operation{
		OperationID: "listGenreOptions",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/options",
		Summary:     "List genre options",
		Description: "Returns the depth-first, indented entries for a genre dropdown",
		Tags:        []string{"Genres"},
	}, s.handleListGenreOptions)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenre",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Get genre",
		Description: "Returns a genre by ID or slug, with its breadcrumb and direct subgenres",
		Tags:        []string{"Genres"},
	}, s.handleGetGenre)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createGenre",
		Method:        http.MethodPost,
		Path:          "/api/v1/genres",
		Summary:       "Create genre",
		Description:   "Creates a genre, optionally under a parent",
		Tags:          []string{"Genres"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGenre",
		Method:      http.MethodPatch,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Update genre",
		Description: "Renames, re-parents or edits a genre. Moving a genre under its own subtree is rejected",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteGenre",
		Method:      http.MethodDelete,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Delete genre",
		Description: "Deletes a genre without subgenres and unlinks it from artists and events",
		Tags:        []string{"Genres"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteGenre)
}

// === DTOs ===

// GenreResponse is a genre with its derived position in the tree.
type GenreResponse struct {
	ID          string    `json:"id" doc:"Genre ID"`
	Name        string    `json:"name" doc:"Genre name"`
	Slug        string    `json:"slug" doc:"URL-safe slug"`
	Description string    `json:"description,omitempty" doc:"Description"`
	ParentID    string    `json:"parent_id,omitempty" doc:"Parent genre ID; empty for top-level genres"`
	Color       string    `json:"color,omitempty" doc:"Hex display color"`
	Level       int       `json:"level" doc:"Depth in the tree, 0 for top-level genres"`
	Path        string    `json:"path" doc:"Display path, e.g. Electronic > House > Tech House"`
	ChildCount  int       `json:"child_count" doc:"Number of direct subgenres"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time `json:"updated_at" doc:"Last update time"`
}

// GenreRef is the short form used in breadcrumbs and child lists.
type GenreRef struct {
	ID   string `json:"id" doc:"Genre ID"`
	Name string `json:"name" doc:"Genre name"`
	Slug string `json:"slug" doc:"URL-safe slug"`
	Path string `json:"path" doc:"Display path"`
}

// GenreTreeNode is one node of the nested hierarchy.
type GenreTreeNode struct {
	ID       string          `json:"id" doc:"Genre ID"`
	Name     string          `json:"name" doc:"Genre name"`
	Slug     string          `json:"slug" doc:"URL-safe slug"`
	Color    string          `json:"color,omitempty" doc:"Hex display color"`
	Level    int             `json:"level" doc:"Depth in the tree"`
	Path     string          `json:"path" doc:"Display path"`
	Children []GenreTreeNode `json:"children" doc:"Subgenres in collation order"`
}

type ListGenresInput struct {
	Query string `query:"q" maxLength:"100" doc:"Case-insensitive match on name or path"`
}

type ListGenresResponse struct {
	Genres []GenreResponse `json:"genres" doc:"List of genres"`
}

type ListGenresOutput struct {
	Body ListGenresResponse
}

type GenreTreeResponse struct {
	Genres []GenreTreeNode `json:"genres" doc:"Top-level genres with nested children"`
	Total  int             `json:"total" doc:"Number of genres in the tree"`
}

type GenreTreeOutput struct {
	Body GenreTreeResponse
}

type GenreOptionsResponse struct {
	Options []genre.Option `json:"options" doc:"Dropdown entries in display order"`
}

type GenreOptionsOutput struct {
	Body GenreOptionsResponse
}

type GetGenreInput struct {
	ID string `path:"id" doc:"Genre ID or slug"`
}

type GenreDetailResponse struct {
	GenreResponse
	Ancestors []GenreRef `json:"ancestors" doc:"Breadcrumb from the top-level genre down to the parent"`
	Children  []GenreRef `json:"children" doc:"Direct subgenres in collation order"`
}

type GenreDetailOutput struct {
	Body GenreDetailResponse
}

type CreateGenreRequest struct {
	Name        string `json:"name" minLength:"1" maxLength:"100" doc:"Genre name"`
	Slug        string `json:"slug,omitempty" maxLength:"100" doc:"Slug; derived from the name when empty"`
	ParentID    string `json:"parent_id,omitempty" doc:"Parent genre ID"`
	Description string `json:"description,omitempty" maxLength:"2000" doc:"Description"`
	Color       string `json:"color,omitempty" doc:"Hex display color, e.g. #ff6600"`
}

type CreateGenreInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateGenreRequest
}

type GenreOutput struct {
	Body GenreResponse
}

type UpdateGenreRequest struct {
	Name        *string `json:"name,omitempty" doc:"Genre name"`
	Slug        *string `json:"slug,omitempty" doc:"URL-safe slug"`
	ParentID    *string `json:"parent_id,omitempty" doc:"New parent genre ID; empty string moves the genre to the top level"`
	Description *string `json:"description,omitempty" doc:"Description"`
	Color       *string `json:"color,omitempty" doc:"Hex display color"`
}

type UpdateGenreInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Genre ID"`
	Body          UpdateGenreRequest
}

type DeleteGenreInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Genre ID"`
}

// === Handlers ===

func (s *Server) handleListGenres(ctx context.Context, input *ListGenresInput) (*ListGenresOutput, error) {
	if input.Query != "" {
		nodes, err := s.services.Genre.Search(ctx, input.Query)
		if err != nil {
			return nil, err
		}
		resp := make([]GenreResponse, len(nodes))
		for i, n := range nodes {
			resp[i] = mapGenreResponse(n)
		}
		return &ListGenresOutput{Body: ListGenresResponse{Genres: resp}}, nil
	}

	tree, err := s.services.Genre.Tree(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]GenreResponse, 0, tree.Len())
	tree.Walk(func(n *genre.Node) bool {
		resp = append(resp, mapGenreResponse(n))
		return true
	})

	return &ListGenresOutput{Body: ListGenresResponse{Genres: resp}}, nil
}

func (s *Server) handleGetGenreTree(ctx context.Context, _ *struct{}) (*GenreTreeOutput, error) {
	tree, err := s.services.Genre.Tree(ctx)
	if err != nil {
		return nil, err
	}

	return &GenreTreeOutput{Body: GenreTreeResponse{
		Genres: mapTreeNodes(tree.TopLevel),
		Total:  tree.Len(),
	}}, nil
}

func (s *Server) handleListGenreOptions(ctx context.Context, _ *struct{}) (*GenreOptionsOutput, error) {
	options, err := s.services.Genre.Options(ctx)
	if err != nil {
		return nil, err
	}
	if options == nil {
		options = []genre.Option{}
	}
	return &GenreOptionsOutput{Body: GenreOptionsResponse{Options: options}}, nil
}

func (s *Server) handleGetGenre(ctx context.Context, input *GetGenreInput) (*GenreDetailOutput, error) {
	n, err := s.services.Genre.GetGenre(ctx, input.ID)
	if errors.Is(err, store.ErrNotFound) {
		n, err = s.services.Genre.GetGenreBySlug(ctx, input.ID)
	}
	if err != nil {
		return nil, err
	}

	tree, err := s.services.Genre.Tree(ctx)
	if err != nil {
		return nil, err
	}

	return &GenreDetailOutput{Body: GenreDetailResponse{
		GenreResponse: mapGenreResponse(n),
		Ancestors:     mapGenreRefs(tree.Ancestors(n.ID)),
		Children:      mapGenreRefs(n.Children),
	}}, nil
}

func (s *Server) handleCreateGenre(ctx context.Context, input *CreateGenreInput) (*GenreOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	n, err := s.services.Genre.CreateGenre(ctx, service.CreateGenreRequest{
		Name:        input.Body.Name,
		Slug:        input.Body.Slug,
		ParentID:    input.Body.ParentID,
		Description: input.Body.Description,
		Color:       input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(n)}, nil
}

func (s *Server) handleUpdateGenre(ctx context.Context, input *UpdateGenreInput) (*GenreOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	n, err := s.services.Genre.UpdateGenre(ctx, input.ID, service.UpdateGenreRequest{
		Name:        input.Body.Name,
		Slug:        input.Body.Slug,
		ParentID:    input.Body.ParentID,
		Description: input.Body.Description,
		Color:       input.Body.Color,
	})
	if err != nil {
		return nil, err
	}

	return &GenreOutput{Body: mapGenreResponse(n)}, nil
}

func (s *Server) handleDeleteGenre(ctx context.Context, input *DeleteGenreInput) (*struct{}, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Genre.DeleteGenre(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

// === Mapping ===

func mapGenreResponse(n *genre.Node) GenreResponse {
	return GenreResponse{
		ID:          n.ID,
		Name:        n.Name,
		Slug:        n.Slug,
		Description: n.Description,
		ParentID:    n.ParentID,
		Color:       n.Color,
		Level:       n.Level,
		Path:        n.Path,
		ChildCount:  len(n.Children),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
	}
}

func mapGenreRefs(nodes []*genre.Node) []GenreRef {
	refs := make([]GenreRef, len(nodes))
	for i, n := range nodes {
		refs[i] = GenreRef{ID: n.ID, Name: n.Name, Slug: n.Slug, Path: n.Path}
	}
	return refs
}

func mapTreeNodes(nodes []*genre.Node) []GenreTreeNode {
	out := make([]GenreTreeNode, len(nodes))
	for i, n := range nodes {
		out[i] = GenreTreeNode{
			ID:       n.ID,
			Name:     n.Name,
			Slug:     n.Slug,
			Color:    n.Color,
			Level:    n.Level,
			Path:     n.Path,
			Children: mapTreeNodes(n.Children),
		}
	}
	return out
}
