package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/service"
)

func (s *Server) registerArtistRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listArtists",
		Method:      http.MethodGet,
		Path:        "/api/v1/artists",
		Summary:     "List artists",
		Description: "Returns artists by name, optionally filtered by text or genre",
		Tags:        []string{"Artists"},
	}, s.handleListArtists)

	huma.Register(s.api, huma.Operation{
		OperationID: "getArtist",
		Method:      http.MethodGet,
		Path:        "/api/v1/artists/{id}",
		Summary:     "Get artist",
		Description: "Returns an artist with resolved genres",
		Tags:        []string{"Artists"},
	}, s.handleGetArtist)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createArtist",
		Method:        http.MethodPost,
		Path:          "/api/v1/artists",
		Summary:       "Create artist",
		Description:   "Creates an artist profile. HTML in the bio is converted to Markdown",
		Tags:          []string{"Artists"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateArtist)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateArtist",
		Method:      http.MethodPatch,
		Path:        "/api/v1/artists/{id}",
		Summary:     "Update artist",
		Description: "Updates the given artist fields",
		Tags:        []string{"Artists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateArtist)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteArtist",
		Method:      http.MethodDelete,
		Path:        "/api/v1/artists/{id}",
		Summary:     "Delete artist",
		Description: "Deletes an artist",
		Tags:        []string{"Artists"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteArtist)
}

// === DTOs ===

type ArtistResponse struct {
	ID        string     `json:"id" doc:"Artist ID"`
	Name      string     `json:"name" doc:"Artist name"`
	Slug      string     `json:"slug" doc:"URL-safe slug"`
	Bio       string     `json:"bio,omitempty" doc:"Biography in Markdown"`
	ImageURL  string     `json:"image_url,omitempty" doc:"Press photo URL"`
	Website   string     `json:"website,omitempty" doc:"Official website"`
	Country   string     `json:"country,omitempty" doc:"ISO 3166-1 alpha-2 country code"`
	Genres    []GenreRef `json:"genres" doc:"Genres with display paths"`
	CreatedAt time.Time  `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time  `json:"updated_at" doc:"Last update time"`
}

type ListArtistsInput struct {
	PageInput
	Query            string `query:"q" maxLength:"100" doc:"Substring of the artist name"`
	GenreID          string `query:"genre_id" doc:"Only artists tagged with this genre"`
	IncludeSubgenres bool   `query:"include_subgenres" default:"true" doc:"Also match artists tagged with subgenres of genre_id"`
}

type ListArtistsResponse struct {
	Artists []ArtistResponse `json:"artists" doc:"Artists on this page"`
	PageInfo
}

type ListArtistsOutput struct {
	Body ListArtistsResponse
}

type GetArtistInput struct {
	ID string `path:"id" doc:"Artist ID"`
}

type ArtistOutput struct {
	Body ArtistResponse
}

type CreateArtistRequest struct {
	Name     string   `json:"name" minLength:"1" maxLength:"200" doc:"Artist name"`
	Slug     string   `json:"slug,omitempty" maxLength:"200" doc:"Slug; derived from the name when empty"`
	Bio      string   `json:"bio,omitempty" doc:"Biography, Markdown or HTML"`
	ImageURL string   `json:"image_url,omitempty" doc:"Press photo URL"`
	Website  string   `json:"website,omitempty" doc:"Official website"`
	Country  string   `json:"country,omitempty" doc:"Country code (alpha-2 or alpha-3)"`
	GenreIDs []string `json:"genre_ids,omitempty" maxItems:"20" doc:"Genre IDs"`
}

type CreateArtistInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateArtistRequest
}

type UpdateArtistRequest struct {
	Name     *string   `json:"name,omitempty" doc:"Artist name"`
	Slug     *string   `json:"slug,omitempty" doc:"URL-safe slug"`
	Bio      *string   `json:"bio,omitempty" doc:"Biography, Markdown or HTML"`
	ImageURL *string   `json:"image_url,omitempty" doc:"Press photo URL"`
	Website  *string   `json:"website,omitempty" doc:"Official website"`
	Country  *string   `json:"country,omitempty" doc:"Country code"`
	GenreIDs *[]string `json:"genre_ids,omitempty" doc:"Replaces the genre list"`
}

type UpdateArtistInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Artist ID"`
	Body          UpdateArtistRequest
}

type DeleteArtistInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Artist ID"`
}

// === Handlers ===

func (s *Server) handleListArtists(ctx context.Context, input *ListArtistsInput) (*ListArtistsOutput, error) {
	res, err := s.services.Artist.ListArtists(ctx, service.ArtistQuery{
		Query:            input.Query,
		GenreID:          input.GenreID,
		IncludeSubgenres: input.IncludeSubgenres,
	}, input.params())
	if err != nil {
		return nil, err
	}

	tree, err := s.services.Genre.Tree(ctx)
	if err != nil {
		return nil, err
	}

	artists := make([]ArtistResponse, len(res.Items))
	for i, a := range res.Items {
		artists[i] = mapArtistResponse(a, tree)
	}

	return &ListArtistsOutput{Body: ListArtistsResponse{
		Artists:  artists,
		PageInfo: pageInfo(res),
	}}, nil
}

func (s *Server) handleGetArtist(ctx context.Context, input *GetArtistInput) (*ArtistOutput, error) {
	a, err := s.services.Artist.GetArtist(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return s.artistOutput(ctx, a)
}

func (s *Server) handleCreateArtist(ctx context.Context, input *CreateArtistInput) (*ArtistOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	a, err := s.services.Artist.CreateArtist(ctx, service.CreateArtistRequest{
		Name:     input.Body.Name,
		Slug:     input.Body.Slug,
		Bio:      input.Body.Bio,
		ImageURL: input.Body.ImageURL,
		Website:  input.Body.Website,
		Country:  input.Body.Country,
		GenreIDs: input.Body.GenreIDs,
	})
	if err != nil {
		return nil, err
	}
	return s.artistOutput(ctx, a)
}

func (s *Server) handleUpdateArtist(ctx context.Context, input *UpdateArtistInput) (*ArtistOutput, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	a, err := s.services.Artist.UpdateArtist(ctx, input.ID, service.UpdateArtistRequest{
		Name:     input.Body.Name,
		Slug:     input.Body.Slug,
		Bio:      input.Body.Bio,
		ImageURL: input.Body.ImageURL,
		Website:  input.Body.Website,
		Country:  input.Body.Country,
		GenreIDs: input.Body.GenreIDs,
	})
	if err != nil {
		return nil, err
	}
	return s.artistOutput(ctx, a)
}

func (s *Server) handleDeleteArtist(ctx context.Context, input *DeleteArtistInput) (*struct{}, error) {
	if err := s.requireAdmin(input.Authorization); err != nil {
		return nil, err
	}

	if err := s.services.Artist.DeleteArtist(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) artistOutput(ctx context.Context, a *domain.Artist) (*ArtistOutput, error) {
	tree, err := s.services.Genre.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return &ArtistOutput{Body: mapArtistResponse(a, tree)}, nil
}

func mapArtistResponse(a *domain.Artist, tree *genre.Tree) ArtistResponse {
	return ArtistResponse{
		ID:        a.ID,
		Name:      a.Name,
		Slug:      a.Slug,
		Bio:       a.Bio,
		ImageURL:  a.ImageURL,
		Website:   a.Website,
		Country:   a.Country,
		Genres:    genreRefs(tree, a.GenreIDs),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}
