package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/search"
	"github.com/stagepass/stagepass-server/internal/store"
)

// SearchService bridges the search index with the catalog store. It builds
// documents from catalog records and implements SearchIndexer.
type SearchService struct {
	index  *search.SearchIndex
	store  store.Store
	genres *GenreService
	logger *slog.Logger

	// reindexMu serializes full rebuilds.
	reindexMu sync.Mutex
}

// NewSearchService creates a new search service.
func NewSearchService(index *search.SearchIndex, st store.Store, genres *GenreService, logger *slog.Logger) *SearchService {
	return &SearchService{
		index:  index,
		store:  st,
		genres: genres,
		logger: logger,
	}
}

// Search runs a query across artists, events and genres. A genre filter also
// matches documents tagged with any of its subgenres.
func (s *SearchService) Search(ctx context.Context, params search.SearchParams) (*search.SearchResult, error) {
	if len(params.GenreIDs) > 0 {
		expanded, err := s.genres.Expand(ctx, params.GenreIDs)
		if err != nil {
			return nil, err
		}
		if len(expanded) == 0 {
			return &search.SearchResult{Hits: []search.SearchHit{}}, nil
		}
		params.GenreIDs = expanded
	}
	return s.index.Search(ctx, params)
}

// DocumentCount returns the number of indexed documents.
func (s *SearchService) DocumentCount() (uint64, error) {
	return s.index.DocumentCount()
}

// IndexGenre indexes a single genre node.
func (s *SearchService) IndexGenre(_ context.Context, n *genre.Node) error {
	if err := s.index.IndexDocument(search.GenreToSearchDocument(n)); err != nil {
		return fmt.Errorf("index genre: %w", err)
	}
	s.logger.Debug("indexed genre", "id", n.ID, "path", n.Path)
	return nil
}

// IndexArtist indexes a single artist.
func (s *SearchService) IndexArtist(ctx context.Context, a *domain.Artist) error {
	tree, err := s.genres.Tree(ctx)
	if err != nil {
		return err
	}
	if err := s.index.IndexDocument(search.ArtistToSearchDocument(a, tree)); err != nil {
		return fmt.Errorf("index artist: %w", err)
	}
	s.logger.Debug("indexed artist", "id", a.ID, "name", a.Name)
	return nil
}

// IndexEvent indexes a single event with its line-up names.
func (s *SearchService) IndexEvent(ctx context.Context, e *domain.Event) error {
	tree, err := s.genres.Tree(ctx)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(e.ArtistIDs))
	for _, artistID := range e.ArtistIDs {
		a, err := s.store.GetArtist(ctx, artistID)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load artist %s: %w", artistID, err)
		}
		names = append(names, a.Name)
	}

	if err := s.index.IndexDocument(search.EventToSearchDocument(e, names, tree)); err != nil {
		return fmt.Errorf("index event: %w", err)
	}
	s.logger.Debug("indexed event", "id", e.ID, "title", e.Title)
	return nil
}

// DeleteDocument removes a document from the index.
func (s *SearchService) DeleteDocument(_ context.Context, docID string) error {
	return s.index.DeleteDocument(docID)
}

// ReindexAll drops the index and rebuilds it from the store.
func (s *SearchService) ReindexAll(ctx context.Context) error {
	s.reindexMu.Lock()
	defer s.reindexMu.Unlock()

	s.logger.Info("starting full reindex")

	var (
		tree    *genre.Tree
		artists []*domain.Artist
		events  []*domain.Event
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tree, err = s.genres.Tree(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		artists, err = s.store.ListAllArtists(gctx)
		if err != nil {
			return fmt.Errorf("list artists: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		events, err = s.store.ListAllEvents(gctx)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if err := s.index.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	docs := make([]*search.SearchDocument, 0, tree.Len()+len(artists)+len(events))
	tree.Walk(func(n *genre.Node) bool {
		docs = append(docs, search.GenreToSearchDocument(n))
		return true
	})

	artistNames := make(map[string]string, len(artists))
	for _, a := range artists {
		artistNames[a.ID] = a.Name
		docs = append(docs, search.ArtistToSearchDocument(a, tree))
	}
	for _, e := range events {
		names := make([]string, 0, len(e.ArtistIDs))
		for _, artistID := range e.ArtistIDs {
			if name, ok := artistNames[artistID]; ok {
				names = append(names, name)
			}
		}
		docs = append(docs, search.EventToSearchDocument(e, names, tree))
	}

	if err := s.index.IndexDocuments(docs); err != nil {
		return fmt.Errorf("index documents: %w", err)
	}

	s.logger.Info("full reindex completed",
		"genres", tree.Len(),
		"artists", len(artists),
		"events", len(events),
	)
	return nil
}

// ReindexIfEmpty rebuilds the index when it holds no documents but the
// catalog does, as after a mapping change or a lost index directory.
func (s *SearchService) ReindexIfEmpty(ctx context.Context) (bool, error) {
	count, err := s.index.DocumentCount()
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	genres, err := s.genres.ListGenres(ctx)
	if err != nil {
		return false, err
	}
	if len(genres) == 0 {
		return false, nil
	}
	return true, s.ReindexAll(ctx)
}
