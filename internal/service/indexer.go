package service

import (
	"context"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/genre"
)

// SearchIndexer keeps the search index in step with catalog writes.
// SearchService implements it; until one is set, services use a no-op.
type SearchIndexer interface {
	IndexGenre(ctx context.Context, n *genre.Node) error
	IndexArtist(ctx context.Context, a *domain.Artist) error
	IndexEvent(ctx context.Context, e *domain.Event) error
	DeleteDocument(ctx context.Context, id string) error
	// ReindexAll rebuilds every document, for changes that move genre paths.
	ReindexAll(ctx context.Context) error
}

type noopIndexer struct{}

func (noopIndexer) IndexGenre(context.Context, *genre.Node) error     { return nil }
func (noopIndexer) IndexArtist(context.Context, *domain.Artist) error { return nil }
func (noopIndexer) IndexEvent(context.Context, *domain.Event) error   { return nil }
func (noopIndexer) DeleteDocument(context.Context, string) error      { return nil }
func (noopIndexer) ReindexAll(context.Context) error                  { return nil }
