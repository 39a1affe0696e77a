// Package store defines the persistence interface for the StagePass server.
package store

import (
	"context"
	"time"

	"github.com/stagepass/stagepass-server/internal/domain"
)

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error

	GenreStore
	ArtistStore
	EventStore
}

// GenreStore persists the flat genre records the tree is built from.
type GenreStore interface {
	CreateGenre(ctx context.Context, g *domain.Genre) error
	GetGenre(ctx context.Context, id string) (*domain.Genre, error)
	GetGenreBySlug(ctx context.Context, slug string) (*domain.Genre, error)
	ListGenres(ctx context.Context) ([]*domain.Genre, error)
	UpdateGenre(ctx context.Context, g *domain.Genre) error
	DeleteGenre(ctx context.Context, id string) error
	CountGenres(ctx context.Context) (int, error)
}

// ArtistFilter narrows artist listings. Zero values match everything.
type ArtistFilter struct {
	Query    string   // Case-insensitive substring of the name
	GenreIDs []string // Artist has at least one of these genres
}

// ArtistStore persists artists and their genre links.
type ArtistStore interface {
	CreateArtist(ctx context.Context, a *domain.Artist) error
	GetArtist(ctx context.Context, id string) (*domain.Artist, error)
	UpdateArtist(ctx context.Context, a *domain.Artist) error
	DeleteArtist(ctx context.Context, id string) error
	ListArtists(ctx context.Context, filter ArtistFilter, params PaginationParams) (*PaginatedResult[*domain.Artist], error)
	ListAllArtists(ctx context.Context) ([]*domain.Artist, error)
}

// EventFilter narrows event listings. Zero values match everything.
type EventFilter struct {
	Query    string             // Case-insensitive substring of title, venue or city
	GenreIDs []string           // Event has at least one of these genres
	ArtistID string             // Event lists this artist
	City     string             // Exact city, case-insensitive
	Status   domain.EventStatus // Exact status
	OnSale   bool               // Excludes cancelled events
	From     *time.Time         // Starts at or after
	To       *time.Time         // Starts before
}

// EventStore persists events and their artist and genre links.
type EventStore interface {
	CreateEvent(ctx context.Context, e *domain.Event) error
	GetEvent(ctx context.Context, id string) (*domain.Event, error)
	UpdateEvent(ctx context.Context, e *domain.Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventFilter, params PaginationParams) (*PaginatedResult[*domain.Event], error)
	ListAllEvents(ctx context.Context) ([]*domain.Event, error)
}
