package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/stagepass/stagepass-server/internal/domain"
	domainerrors "github.com/stagepass/stagepass-server/internal/errors"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/id"
	"github.com/stagepass/stagepass-server/internal/normalize"
	"github.com/stagepass/stagepass-server/internal/store"
	"github.com/stagepass/stagepass-server/internal/validation"
)

// ArtistService manages performer profiles.
type ArtistService struct {
	store     store.ArtistStore
	genres    *GenreService
	indexer   SearchIndexer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewArtistService creates a new artist service.
func NewArtistService(st store.ArtistStore, genres *GenreService, logger *slog.Logger) *ArtistService {
	return &ArtistService{
		store:     st,
		genres:    genres,
		indexer:   noopIndexer{},
		validator: validation.New(),
		logger:    logger,
	}
}

// SetSearchIndexer wires index updates for artist writes.
func (s *ArtistService) SetSearchIndexer(ix SearchIndexer) {
	s.indexer = ix
}

// ArtistQuery filters artist listings.
type ArtistQuery struct {
	Query            string
	GenreID          string
	IncludeSubgenres bool
}

// ListArtists returns one page of artists, optionally narrowed to a genre.
func (s *ArtistService) ListArtists(ctx context.Context, q ArtistQuery, params store.PaginationParams) (*store.PaginatedResult[*domain.Artist], error) {
	filter := store.ArtistFilter{Query: q.Query}
	if q.GenreID != "" {
		ids, err := genreFilter(ctx, s.genres, q.GenreID, q.IncludeSubgenres)
		if err != nil {
			return nil, err
		}
		filter.GenreIDs = ids
	}
	return s.store.ListArtists(ctx, filter, params)
}

// genreFilter resolves a genre query parameter to the IDs a listing should match.
// An unknown genre is a not-found error rather than an empty filter, which would match everything.
func genreFilter(ctx context.Context, genres *GenreService, genreID string, includeSubgenres bool) ([]string, error) {
	var ids []string
	if includeSubgenres {
		expanded, err := genres.Expand(ctx, []string{genreID})
		if err != nil {
			return nil, err
		}
		ids = expanded
	} else if _, err := genres.GetGenre(ctx, genreID); err == nil {
		ids = []string{genreID}
	}
	if len(ids) == 0 {
		return nil, store.ErrNotFound.WithMessagef("genre %s not found", genreID)
	}
	return ids, nil
}

// GetArtist returns an artist by ID.
func (s *ArtistService) GetArtist(ctx context.Context, artistID string) (*domain.Artist, error) {
	return s.store.GetArtist(ctx, artistID)
}

// ArtistGenres resolves an artist's genre IDs to tree nodes, skipping deleted genres.
func (s *ArtistService) ArtistGenres(ctx context.Context, a *domain.Artist) ([]*genre.Node, error) {
	tree, err := s.genres.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return resolveGenres(tree, a.GenreIDs), nil
}

func resolveGenres(tree *genre.Tree, ids []string) []*genre.Node {
	nodes := make([]*genre.Node, 0, len(ids))
	for _, gid := range ids {
		if n, ok := tree.Lookup(gid); ok {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// CreateArtistRequest contains fields for creating an artist.
type CreateArtistRequest struct {
	Name     string   `json:"name" validate:"required,max=200"`
	Slug     string   `json:"slug,omitempty" validate:"omitempty,slug,max=200"`
	Bio      string   `json:"bio,omitempty" validate:"max=20000"`
	ImageURL string   `json:"image_url,omitempty" validate:"omitempty,http_url"`
	Website  string   `json:"website,omitempty" validate:"omitempty,http_url"`
	Country  string   `json:"country,omitempty"`
	GenreIDs []string `json:"genre_ids,omitempty" validate:"max=20"`
}

// CreateArtist creates an artist. HTML in the bio is converted to Markdown.
func (s *ArtistService) CreateArtist(ctx context.Context, req CreateArtistRequest) (*domain.Artist, error) {
	req.Name = normalize.Text(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	country, err := countryCode(req.Country)
	if err != nil {
		return nil, err
	}
	if err := s.genres.CheckIDs(ctx, req.GenreIDs); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = genre.Slugify(req.Name)
	}
	if slug == "" {
		return nil, domainerrors.Validationf("artist name %q has no characters usable in a slug", req.Name)
	}

	artistID, err := id.Generate(id.PrefixArtist)
	if err != nil {
		return nil, err
	}

	a := &domain.Artist{
		Syncable: domain.Syncable{ID: artistID},
		Name:     req.Name,
		Slug:     slug,
		Bio:      normalize.Markdown(req.Bio),
		ImageURL: req.ImageURL,
		Website:  req.Website,
		Country:  country,
		GenreIDs: dedupe(req.GenreIDs),
	}
	a.InitTimestamps()

	if err := s.store.CreateArtist(ctx, a); err != nil {
		return nil, err
	}
	if err := s.indexer.IndexArtist(ctx, a); err != nil {
		s.logger.Warn("failed to index artist", "id", a.ID, "error", err)
	}

	s.logger.Info("artist created", "id", a.ID, "name", a.Name)
	return a, nil
}

// UpdateArtistRequest contains fields for updating an artist. Nil fields are left alone.
type UpdateArtistRequest struct {
	Name     *string   `json:"name,omitempty" validate:"omitempty,max=200"`
	Slug     *string   `json:"slug,omitempty" validate:"omitempty,slug,max=200"`
	Bio      *string   `json:"bio,omitempty" validate:"omitempty,max=20000"`
	ImageURL *string   `json:"image_url,omitempty" validate:"omitempty,http_url"`
	Website  *string   `json:"website,omitempty" validate:"omitempty,http_url"`
	Country  *string   `json:"country,omitempty"`
	GenreIDs *[]string `json:"genre_ids,omitempty"`
}

// UpdateArtist applies a partial update.
func (s *ArtistService) UpdateArtist(ctx context.Context, artistID string, req UpdateArtistRequest) (*domain.Artist, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	a, err := s.store.GetArtist(ctx, artistID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := normalize.Text(*req.Name)
		if name == "" {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
		}
		a.Name = name
	}
	if req.Slug != nil {
		a.Slug = *req.Slug
	}
	if req.Bio != nil {
		a.Bio = normalize.Markdown(*req.Bio)
	}
	if req.ImageURL != nil {
		a.ImageURL = *req.ImageURL
	}
	if req.Website != nil {
		a.Website = *req.Website
	}
	if req.Country != nil {
		country, err := countryCode(*req.Country)
		if err != nil {
			return nil, err
		}
		a.Country = country
	}
	if req.GenreIDs != nil {
		if len(*req.GenreIDs) > 20 {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"genre_ids": "must contain at most 20 items"})
		}
		if err := s.genres.CheckIDs(ctx, *req.GenreIDs); err != nil {
			return nil, err
		}
		a.GenreIDs = dedupe(*req.GenreIDs)
	}

	a.Touch()
	if err := s.store.UpdateArtist(ctx, a); err != nil {
		return nil, err
	}
	if err := s.indexer.IndexArtist(ctx, a); err != nil {
		s.logger.Warn("failed to index artist", "id", a.ID, "error", err)
	}
	return a, nil
}

// DeleteArtist soft-deletes an artist and removes it from every line-up.
func (s *ArtistService) DeleteArtist(ctx context.Context, artistID string) error {
	if err := s.store.DeleteArtist(ctx, artistID); err != nil {
		return err
	}
	// Event documents embed line-up names, so they change too.
	if err := s.indexer.ReindexAll(ctx); err != nil {
		s.logger.Warn("failed to update search index after artist delete", "id", artistID, "error", err)
	}
	s.logger.Info("artist deleted", "id", artistID)
	return nil
}

// countryCode normalizes an optional country, rejecting values that are not ISO codes.
func countryCode(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	code := normalize.CountryCode(raw)
	if code == "" {
		return "", domainerrors.ValidationWithDetails("validation failed", map[string]string{
			"country": "must be an ISO 3166-1 country code",
		})
	}
	return code, nil
}

// dedupe drops repeated IDs, keeping the first occurrence.
func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
