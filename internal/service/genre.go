package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/stagepass/stagepass-server/internal/domain"
	domainerrors "github.com/stagepass/stagepass-server/internal/errors"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/id"
	"github.com/stagepass/stagepass-server/internal/normalize"
	"github.com/stagepass/stagepass-server/internal/store"
	"github.com/stagepass/stagepass-server/internal/validation"
)

// GenreService owns the genre taxonomy: flat records in the store, and the
// tree derived from them through the cache.
type GenreService struct {
	store     store.GenreStore
	cache     *genre.Cache
	moveMu    sync.Mutex // held from checkMove until the new parent is stored
	indexer   SearchIndexer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewGenreService creates a new genre service.
func NewGenreService(st store.GenreStore, cache *genre.Cache, logger *slog.Logger) *GenreService {
	return &GenreService{
		store:     st,
		cache:     cache,
		indexer:   noopIndexer{},
		validator: validation.New(),
		logger:    logger,
	}
}

// SetSearchIndexer wires index updates for genre writes.
func (s *GenreService) SetSearchIndexer(ix SearchIndexer) {
	s.indexer = ix
}

// ListGenres returns the flat genre records, ordered by name.
func (s *GenreService) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	return s.store.ListGenres(ctx)
}

// Tree returns the hierarchy for the current genre records.
// The tree is shared between callers and must not be modified.
func (s *GenreService) Tree(ctx context.Context) (*genre.Tree, error) {
	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	return s.cache.Get(genres), nil
}

// Options returns the nested dropdown entries in display order.
func (s *GenreService) Options(ctx context.Context) ([]genre.Option, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Flatten(), nil
}

// Search finds genres whose name or path contains query, followed by genres
// the query names through a known alias ("dnb" finds Drum & Bass).
func (s *GenreService) Search(ctx context.Context, query string) ([]*genre.Node, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}

	nodes := tree.Search(query)
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		seen[n.ID] = true
	}
	slugs := genre.NormalizeToSlugs(query)
	tree.Walk(func(n *genre.Node) bool {
		if !seen[n.ID] && slices.Contains(slugs, n.Slug) {
			nodes = append(nodes, n)
			seen[n.ID] = true
		}
		return true
	})
	return nodes, nil
}

// Validate reports structural problems in the stored taxonomy.
func (s *GenreService) Validate(ctx context.Context) (genre.Report, error) {
	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return genre.Report{}, fmt.Errorf("list genres: %w", err)
	}
	return genre.Validate(genres), nil
}

// GetGenre returns a genre with its position in the tree.
func (s *GenreService) GetGenre(ctx context.Context, genreID string) (*genre.Node, error) {
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	n, ok := tree.Lookup(genreID)
	if !ok {
		return nil, store.ErrNotFound.WithMessagef("genre %s not found", genreID)
	}
	return n, nil
}

// GetGenreBySlug returns the genre registered under slug.
func (s *GenreService) GetGenreBySlug(ctx context.Context, slug string) (*genre.Node, error) {
	g, err := s.store.GetGenreBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.GetGenre(ctx, g.ID)
}

// Expand resolves genre IDs to themselves plus all their subgenres.
// Unknown IDs are dropped.
func (s *GenreService) Expand(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	tree, err := s.Tree(ctx)
	if err != nil {
		return nil, err
	}
	return tree.Expand(ids), nil
}

// CheckIDs rejects genre IDs that do not name a live genre.
func (s *GenreService) CheckIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tree, err := s.Tree(ctx)
	if err != nil {
		return err
	}
	var unknown []string
	for _, gid := range ids {
		if _, ok := tree.Lookup(gid); !ok {
			unknown = append(unknown, gid)
		}
	}
	if len(unknown) > 0 {
		return domainerrors.ValidationWithDetails("unknown genres", map[string]string{
			"genre_ids": "unknown genre IDs: " + strings.Join(unknown, ", "),
		})
	}
	return nil
}

// CreateGenreRequest contains fields for creating a genre.
type CreateGenreRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,slug,max=100"`
	ParentID    string `json:"parent_id,omitempty"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	Color       string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// CreateGenre creates a genre. The slug defaults to the slugified name.
func (s *GenreService) CreateGenre(ctx context.Context, req CreateGenreRequest) (*genre.Node, error) {
	req.Name = normalize.Text(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	slug := req.Slug
	if slug == "" {
		slug = genre.Slugify(req.Name)
	}
	if slug == "" {
		return nil, domainerrors.Validationf("genre name %q has no characters usable in a slug", req.Name)
	}
	if err := s.ensureSlugFree(ctx, slug, ""); err != nil {
		return nil, err
	}

	genreID, err := id.Generate(id.PrefixGenre)
	if err != nil {
		return nil, err
	}

	g := &domain.Genre{
		Syncable:    domain.Syncable{ID: genreID},
		Name:        req.Name,
		Slug:        slug,
		Description: strings.TrimSpace(req.Description),
		ParentID:    req.ParentID,
		Color:       strings.ToLower(req.Color),
	}
	g.InitTimestamps()

	if err := s.store.CreateGenre(ctx, g); err != nil {
		return nil, err
	}

	n, err := s.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}
	if err := s.indexer.IndexGenre(ctx, n); err != nil {
		s.logger.Warn("failed to index genre", "id", genreID, "error", err)
	}

	s.logger.Info("genre created", "id", genreID, "name", g.Name, "parent", g.ParentID)
	return n, nil
}

// UpdateGenreRequest contains fields for updating a genre. Nil fields are left alone.
// An empty ParentID moves the genre to the top level.
type UpdateGenreRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Slug        *string `json:"slug,omitempty" validate:"omitempty,slug,max=100"`
	ParentID    *string `json:"parent_id,omitempty"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Color       *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}

// UpdateGenre renames, re-parents or edits a genre.
// Renaming keeps the slug so public URLs stay stable; pass Slug to change it.
// Moving a genre beneath itself or one of its subgenres is rejected.
func (s *GenreService) UpdateGenre(ctx context.Context, genreID string, req UpdateGenreRequest) (*genre.Node, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	g, err := s.store.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}
	before := *g

	if req.Name != nil {
		name := normalize.Text(*req.Name)
		if name == "" {
			return nil, domainerrors.ValidationWithDetails("validation failed", map[string]string{"name": "is required"})
		}
		g.Name = name
	}
	if req.Slug != nil && *req.Slug != g.Slug {
		if err := s.ensureSlugFree(ctx, *req.Slug, g.ID); err != nil {
			return nil, err
		}
		g.Slug = *req.Slug
	}
	if req.Description != nil {
		g.Description = strings.TrimSpace(*req.Description)
	}
	if req.Color != nil {
		g.Color = strings.ToLower(*req.Color)
	}
	if req.ParentID != nil && *req.ParentID != g.ParentID {
		s.moveMu.Lock()
		defer s.moveMu.Unlock()
		if err := s.checkMove(ctx, g.ID, *req.ParentID); err != nil {
			return nil, err
		}
		g.ParentID = *req.ParentID
	}

	g.Touch()
	if err := s.store.UpdateGenre(ctx, g); err != nil {
		return nil, err
	}

	n, err := s.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}

	// Names and parents flow into every descendant's path and every tagged
	// artist and event document.
	if before.Name != g.Name || before.ParentID != g.ParentID {
		err = s.indexer.ReindexAll(ctx)
	} else {
		err = s.indexer.IndexGenre(ctx, n)
	}
	if err != nil {
		s.logger.Warn("failed to update search index after genre update", "id", genreID, "error", err)
	}

	s.logger.Info("genre updated", "id", genreID, "name", g.Name, "parent", g.ParentID)
	return n, nil
}

// checkMove rejects a new parent that would close a cycle. Callers hold moveMu
// until the move is stored, so moves within one process are checked against each
// other. A second process writing the same database is not covered; Build still
// breaks any stored cycle and Validate reports it.
func (s *GenreService) checkMove(ctx context.Context, genreID, newParentID string) error {
	if newParentID == "" {
		return nil
	}
	if newParentID == genreID {
		return domainerrors.Validation("a genre cannot be its own parent")
	}
	tree, err := s.Tree(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(tree.Descendants(genreID), newParentID) {
		return domainerrors.Validation("cannot move a genre beneath one of its own subgenres")
	}
	return nil
}

func (s *GenreService) ensureSlugFree(ctx context.Context, slug, ownerID string) error {
	existing, err := s.store.GetGenreBySlug(ctx, slug)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != ownerID:
		return domainerrors.AlreadyExistsf("genre with slug %q already exists", slug)
	}
	return nil
}

// DeleteGenre soft-deletes a genre. Genres with subgenres cannot be deleted.
func (s *GenreService) DeleteGenre(ctx context.Context, genreID string) error {
	if err := s.store.DeleteGenre(ctx, genreID); err != nil {
		return err
	}

	// Artist and event links to the genre were dropped with it.
	if err := s.indexer.ReindexAll(ctx); err != nil {
		s.logger.Warn("failed to update search index after genre delete", "id", genreID, "error", err)
	}

	s.logger.Info("genre deleted", "id", genreID)
	return nil
}

// SeedDefaults creates the default taxonomy when no genres exist yet.
// It returns the number of genres created.
func (s *GenreService) SeedDefaults(ctx context.Context) (int, error) {
	count, err := s.store.CountGenres(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	created := 0
	var seed func(seeds []genre.Seed, parentID string) error
	seed = func(seeds []genre.Seed, parentID string) error {
		for _, sd := range seeds {
			g := &domain.Genre{
				Syncable: domain.Syncable{ID: id.MustGenerate(id.PrefixGenre)},
				Name:     sd.Name,
				Slug:     genre.Slugify(sd.Name),
				ParentID: parentID,
			}
			g.InitTimestamps()
			if err := s.store.CreateGenre(ctx, g); err != nil {
				return fmt.Errorf("seed genre %q: %w", sd.Name, err)
			}
			created++
			if err := seed(sd.Children, g.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := seed(genre.DefaultGenres, ""); err != nil {
		return created, err
	}

	if err := s.indexer.ReindexAll(ctx); err != nil {
		s.logger.Warn("failed to index seeded genres", "error", err)
	}

	s.logger.Info("seeded default genres", "count", created)
	return created, nil
}
