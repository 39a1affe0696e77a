package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stagepass/stagepass-server/internal/domain"
	"github.com/stagepass/stagepass-server/internal/store"
)

// makeTestGenre creates a domain.Genre with sensible defaults for testing.
func makeTestGenre(id, name, slug, parentID string) *domain.Genre {
	now := time.Now()
	return &domain.Genre{
		Syncable: domain.Syncable{
			ID:        id,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:     name,
		Slug:     slug,
		ParentID: parentID,
	}
}

func TestCreateAndGetGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root := makeTestGenre("genre-1", "Electronic", "electronic", "")
	if err := s.CreateGenre(ctx, root); err != nil {
		t.Fatalf("CreateGenre root: %v", err)
	}

	g := makeTestGenre("genre-2", "House", "house", "genre-1")
	g.Description = "Four to the floor."
	g.Color = "#FF5733"
	if err := s.CreateGenre(ctx, g); err != nil {
		t.Fatalf("CreateGenre: %v", err)
	}

	got, err := s.GetGenre(ctx, "genre-2")
	if err != nil {
		t.Fatalf("GetGenre: %v", err)
	}
	if got.Name != "House" || got.Slug != "house" {
		t.Errorf("name/slug: got %q/%q", got.Name, got.Slug)
	}
	if got.ParentID != "genre-1" {
		t.Errorf("ParentID: got %q, want genre-1", got.ParentID)
	}
	if got.Description != g.Description {
		t.Errorf("Description: got %q", got.Description)
	}
	if got.Color != "#FF5733" {
		t.Errorf("Color: got %q", got.Color)
	}
	if !got.CreatedAt.Equal(g.CreatedAt) {
		t.Errorf("CreatedAt: got %v, want %v", got.CreatedAt, g.CreatedAt)
	}
	if got.DeletedAt != nil {
		t.Errorf("DeletedAt: expected nil")
	}

	bySlug, err := s.GetGenreBySlug(ctx, "house")
	if err != nil {
		t.Fatalf("GetGenreBySlug: %v", err)
	}
	if bySlug.ID != "genre-2" {
		t.Errorf("GetGenreBySlug: got %q", bySlug.ID)
	}
}

func TestCreateGenre_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateGenre(ctx, makeTestGenre("genre-1", "Jazz", "jazz", "")); err != nil {
		t.Fatalf("CreateGenre: %v", err)
	}

	err := s.CreateGenre(ctx, makeTestGenre("genre-1", "Blues", "blues", ""))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate ID: expected ErrAlreadyExists, got %v", err)
	}

	err = s.CreateGenre(ctx, makeTestGenre("genre-2", "Jazz Again", "jazz", ""))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Errorf("duplicate slug: expected ErrAlreadyExists, got %v", err)
	}
}

func TestCreateGenre_MissingParent(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateGenre(context.Background(), makeTestGenre("genre-1", "House", "house", "nope"))
	if !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGetGenre_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetGenre(context.Background(), "nonexistent")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListGenres_OrderedByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, g := range []*domain.Genre{
		makeTestGenre("g-3", "Techno", "techno", ""),
		makeTestGenre("g-1", "Ambient", "ambient", ""),
		makeTestGenre("g-2", "House", "house", ""),
	} {
		if err := s.CreateGenre(ctx, g); err != nil {
			t.Fatalf("CreateGenre %s: %v", g.ID, err)
		}
	}

	genres, err := s.ListGenres(ctx)
	if err != nil {
		t.Fatalf("ListGenres: %v", err)
	}
	want := []string{"Ambient", "House", "Techno"}
	if len(genres) != len(want) {
		t.Fatalf("expected %d genres, got %d", len(want), len(genres))
	}
	for i, name := range want {
		if genres[i].Name != name {
			t.Errorf("genres[%d]: got %q, want %q", i, genres[i].Name, name)
		}
	}
}

func TestListGenres_Empty(t *testing.T) {
	s := newTestStore(t)

	genres, err := s.ListGenres(context.Background())
	if err != nil {
		t.Fatalf("ListGenres: %v", err)
	}
	if genres == nil || len(genres) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", genres)
	}
}

func TestUpdateGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, g := range []*domain.Genre{
		makeTestGenre("g-1", "Electronic", "electronic", ""),
		makeTestGenre("g-2", "Rock", "rock", ""),
		makeTestGenre("g-3", "Indie", "indie", "g-1"),
	} {
		if err := s.CreateGenre(ctx, g); err != nil {
			t.Fatalf("CreateGenre %s: %v", g.ID, err)
		}
	}

	g, err := s.GetGenre(ctx, "g-3")
	if err != nil {
		t.Fatalf("GetGenre: %v", err)
	}
	g.ParentID = "g-2"
	g.Name = "Indie Rock"
	g.Slug = "indie-rock"
	g.Touch()
	if err := s.UpdateGenre(ctx, g); err != nil {
		t.Fatalf("UpdateGenre: %v", err)
	}

	got, err := s.GetGenre(ctx, "g-3")
	if err != nil {
		t.Fatalf("GetGenre after update: %v", err)
	}
	if got.ParentID != "g-2" || got.Name != "Indie Rock" {
		t.Errorf("update not applied: %+v", got)
	}

	g.ParentID = "g-3"
	if err := s.UpdateGenre(ctx, g); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("self parent: expected ErrInvalidInput, got %v", err)
	}

	g.ParentID = "missing"
	if err := s.UpdateGenre(ctx, g); !errors.Is(err, store.ErrInvalidInput) {
		t.Errorf("missing parent: expected ErrInvalidInput, got %v", err)
	}

	ghost := makeTestGenre("ghost", "Ghost", "ghost", "")
	if err := s.UpdateGenre(ctx, ghost); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("unknown genre: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteGenre(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, g := range []*domain.Genre{
		makeTestGenre("g-1", "Electronic", "electronic", ""),
		makeTestGenre("g-2", "House", "house", "g-1"),
	} {
		if err := s.CreateGenre(ctx, g); err != nil {
			t.Fatalf("CreateGenre %s: %v", g.ID, err)
		}
	}

	if err := s.DeleteGenre(ctx, "g-1"); !errors.Is(err, store.ErrConflict) {
		t.Fatalf("delete parent with children: expected ErrConflict, got %v", err)
	}

	if err := s.DeleteGenre(ctx, "g-2"); err != nil {
		t.Fatalf("DeleteGenre child: %v", err)
	}
	if _, err := s.GetGenre(ctx, "g-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("deleted genre still visible: %v", err)
	}

	if err := s.DeleteGenre(ctx, "g-1"); err != nil {
		t.Fatalf("DeleteGenre parent after child removed: %v", err)
	}
	if err := s.DeleteGenre(ctx, "g-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}

	n, err := s.CountGenres(ctx)
	if err != nil {
		t.Fatalf("CountGenres: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 live genres, got %d", n)
	}

	// The slug is free again once the old row is soft-deleted.
	if err := s.CreateGenre(ctx, makeTestGenre("g-3", "House", "house", "")); err != nil {
		t.Errorf("recreate slug after delete: %v", err)
	}
}
