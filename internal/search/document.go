// Package search provides full-text search over artists, events and genres using Bleve.
// Documents of every type share one index and are told apart by their type field.
package search

import (
	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/genre"
)

// DocType represents the type of document in the unified index.
type DocType string

// Document types for the search index.
const (
	DocTypeArtist DocType = "artist"
	DocTypeEvent  DocType = "event"
	DocTypeGenre  DocType = "genre"
)

// Valid reports whether t is a known document type.
func (t DocType) Valid() bool {
	switch t {
	case DocTypeArtist, DocTypeEvent, DocTypeGenre:
		return true
	default:
		return false
	}
}

// SearchDocument is the unified document structure for the Bleve index.
//
// Event documents carry their line-up's names so "peggy gou" finds the events
// she plays as well as her profile.
type SearchDocument struct {
	// Identity
	ID   string  `json:"id"`
	Type DocType `json:"type"`

	// Artist name, event title or genre name.
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	// Event-only fields
	Venue    string   `json:"venue,omitempty"`
	City     string   `json:"city,omitempty"`
	Artists  []string `json:"artists,omitempty"`
	Status   string   `json:"status,omitempty"`
	StartsAt int64    `json:"starts_at,omitempty"` // Unix millis

	// Genre IDs for exact filtering and display paths ("Electronic > House")
	// for text matching. A genre document lists itself.
	GenreIDs   []string `json:"genre_ids,omitempty"`
	GenrePaths []string `json:"genre_paths,omitempty"`

	// Timestamps for sorting
	CreatedAt int64 `json:"created_at"` // Unix millis
	UpdatedAt int64 `json:"updated_at"` // Unix millis
}

// ToMap converts the document to a map keyed by the mapping's field names.
// Empty optional fields are left out so they are not indexed as empty terms.
func (d *SearchDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"type":       string(d.Type),
		"name":       d.Name,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Venue != "" {
		m["venue"] = d.Venue
	}
	if d.City != "" {
		m["city"] = d.City
	}
	if len(d.Artists) > 0 {
		m["artists"] = d.Artists
	}
	if d.Status != "" {
		m["status"] = d.Status
	}
	if d.StartsAt != 0 {
		m["starts_at"] = d.StartsAt
	}
	if len(d.GenreIDs) > 0 {
		m["genre_ids"] = d.GenreIDs
	}
	if len(d.GenrePaths) > 0 {
		m["genre_paths"] = d.GenrePaths
	}

	return m
}

// genreFields resolves genre IDs against the tree. Unknown IDs are kept for
// filtering but contribute no path.
func genreFields(ids []string, tree *genre.Tree) (genreIDs, paths []string) {
	for _, id := range ids {
		genreIDs = append(genreIDs, id)
		if tree == nil {
			continue
		}
		if n, ok := tree.Lookup(id); ok {
			paths = append(paths, n.Path)
		}
	}
	return genreIDs, paths
}

// ArtistToSearchDocument converts an artist into a search document.
func ArtistToSearchDocument(a *domain.Artist, tree *genre.Tree) *SearchDocument {
	ids, paths := genreFields(a.GenreIDs, tree)
	return &SearchDocument{
		ID:          a.ID,
		Type:        DocTypeArtist,
		Name:        a.Name,
		Description: a.Bio,
		GenreIDs:    ids,
		GenrePaths:  paths,
		CreatedAt:   a.CreatedAt.UnixMilli(),
		UpdatedAt:   a.UpdatedAt.UnixMilli(),
	}
}

// EventToSearchDocument converts an event into a search document.
// artistNames is the line-up in billing order.
func EventToSearchDocument(e *domain.Event, artistNames []string, tree *genre.Tree) *SearchDocument {
	ids, paths := genreFields(e.GenreIDs, tree)
	return &SearchDocument{
		ID:          e.ID,
		Type:        DocTypeEvent,
		Name:        e.Title,
		Description: e.Description,
		Venue:       e.Venue,
		City:        e.City,
		Artists:     artistNames,
		Status:      string(e.Status),
		StartsAt:    e.StartsAt.UnixMilli(),
		GenreIDs:    ids,
		GenrePaths:  paths,
		CreatedAt:   e.CreatedAt.UnixMilli(),
		UpdatedAt:   e.UpdatedAt.UnixMilli(),
	}
}

// GenreToSearchDocument converts a tree node into a search document.
func GenreToSearchDocument(n *genre.Node) *SearchDocument {
	return &SearchDocument{
		ID:          n.ID,
		Type:        DocTypeGenre,
		Name:        n.Name,
		Description: n.Description,
		GenreIDs:    []string{n.ID},
		GenrePaths:  []string{n.Path},
		CreatedAt:   n.CreatedAt.UnixMilli(),
		UpdatedAt:   n.UpdatedAt.UnixMilli(),
	}
}
