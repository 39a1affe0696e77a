package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/stagepass/stagepass-server/internal/errors"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/store"
)

func TestGenreService_SeedDefaults(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.genres.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Equal(t, genre.SeedCount(genre.DefaultGenres), created)

	// Second call is a no-op.
	again, err := env.genres.SeedDefaults(ctx)
	require.NoError(t, err)
	assert.Zero(t, again)

	tree, err := env.genres.Tree(ctx)
	require.NoError(t, err)
	assert.Equal(t, created, tree.Len())

	techHouse, ok := tree.LookupName("Tech House")
	require.True(t, ok)
	assert.Equal(t, 2, techHouse.Level)
	assert.Equal(t, "Electronic > House > Tech House", techHouse.Path)
	assert.Equal(t, "tech-house", techHouse.Slug)

	dnb, ok := tree.LookupName("Drum & Bass")
	require.True(t, ok)
	assert.Equal(t, "drum-and-bass", dnb.Slug)

	report, err := env.genres.Validate(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
}

func TestGenreService_CreateGenre(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	root, err := env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "  Electronic  ", Color: "#1DB954"})
	require.NoError(t, err)
	assert.Equal(t, "Electronic", root.Name)
	assert.Equal(t, "electronic", root.Slug)
	assert.Equal(t, "#1db954", root.Color)
	assert.Equal(t, 0, root.Level)
	assert.True(t, root.IsRoot())

	child, err := env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "Tech House", ParentID: root.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, child.Level)
	assert.Equal(t, "Electronic > Tech House", child.Path)
	assert.Equal(t, root.ID, child.Parent.ID)

	bySlug, err := env.genres.GetGenreBySlug(ctx, "tech-house")
	require.NoError(t, err)
	assert.Equal(t, child.ID, bySlug.ID)
}

func TestGenreService_CreateGenre_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateGenreRequest
	}{
		{"missing name", CreateGenreRequest{}},
		{"whitespace name", CreateGenreRequest{Name: "   "}},
		{"bad slug", CreateGenreRequest{Name: "House", Slug: "Not A Slug"}},
		{"bad color", CreateGenreRequest{Name: "House", Color: "green"}},
		{"no slug characters", CreateGenreRequest{Name: "★★★"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.genres.CreateGenre(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "got %v", err)
		})
	}
}

func TestGenreService_CreateGenre_SlugConflict(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "Drum & Bass"})
	require.NoError(t, err)

	_, err = env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "Drum and Bass"})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))

	// An explicit slug avoids the clash.
	g, err := env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "Drum and Bass", Slug: "drum-and-bass-2"})
	require.NoError(t, err)
	assert.Equal(t, "drum-and-bass-2", g.Slug)
}

func TestGenreService_CreateGenre_UnknownParent(t *testing.T) {
	env := setupTestEnv(t)

	_, err := env.genres.CreateGenre(context.Background(), CreateGenreRequest{Name: "House", ParentID: "genre-missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

func TestGenreService_GetGenre_NotFound(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.genres.GetGenre(ctx, "genre-missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = env.genres.GetGenreBySlug(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGenreService_UpdateGenre_RenamePropagatesPaths(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)

	houseID := genreID(t, tree, "House")
	updated, err := env.genres.UpdateGenre(ctx, houseID, UpdateGenreRequest{Name: ptr("House Music")})
	require.NoError(t, err)
	assert.Equal(t, "House Music", updated.Name)
	assert.Equal(t, "house", updated.Slug, "renaming keeps the slug")

	tree, err = env.genres.Tree(ctx)
	require.NoError(t, err)
	techHouse, ok := tree.LookupName("Tech House")
	require.True(t, ok)
	assert.Equal(t, "Electronic > House Music > Tech House", techHouse.Path)
}

func TestGenreService_UpdateGenre_Move(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)

	funkID := genreID(t, tree, "Funk")
	rbID := genreID(t, tree, "R&B")

	moved, err := env.genres.UpdateGenre(ctx, funkID, UpdateGenreRequest{ParentID: ptr(rbID)})
	require.NoError(t, err)
	assert.Equal(t, "R&B > Funk", moved.Path)
	assert.Equal(t, 1, moved.Level)

	// An empty parent moves the genre to the top level.
	top, err := env.genres.UpdateGenre(ctx, funkID, UpdateGenreRequest{ParentID: ptr("")})
	require.NoError(t, err)
	assert.True(t, top.IsRoot())
	assert.Equal(t, "Funk", top.Path)
}

func TestGenreService_UpdateGenre_RejectsCycles(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)

	electronicID := genreID(t, tree, "Electronic")
	techHouseID := genreID(t, tree, "Tech House")

	_, err := env.genres.UpdateGenre(ctx, electronicID, UpdateGenreRequest{ParentID: ptr(electronicID)})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.genres.UpdateGenre(ctx, electronicID, UpdateGenreRequest{ParentID: ptr(techHouseID)})
	require.Error(t, err)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
	assert.Contains(t, err.Error(), "subgenres")

	// Nothing moved.
	n, err := env.genres.GetGenre(ctx, electronicID)
	require.NoError(t, err)
	assert.True(t, n.IsRoot())
}

func TestGenreService_UpdateGenre_ConcurrentMovesCannotCycle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	a, err := env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "Footwork"})
	require.NoError(t, err)
	b, err := env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "Juke"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	moves := [][2]string{{a.ID, b.ID}, {b.ID, a.ID}}
	for i, m := range moves {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.genres.UpdateGenre(ctx, m[0], UpdateGenreRequest{ParentID: ptr(m[1])})
		}()
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, failed, "exactly one move must be rejected")

	report, err := env.genres.Validate(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK(), "stored taxonomy has a cycle: %+v", report)
}

func TestGenreService_UpdateGenre_Errors(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)
	houseID := genreID(t, tree, "House")

	_, err := env.genres.UpdateGenre(ctx, "genre-missing", UpdateGenreRequest{Name: ptr("X")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = env.genres.UpdateGenre(ctx, houseID, UpdateGenreRequest{Name: ptr("  ")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.genres.UpdateGenre(ctx, houseID, UpdateGenreRequest{Slug: ptr("techno")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrAlreadyExists))

	// Setting a genre's own slug is not a conflict.
	_, err = env.genres.UpdateGenre(ctx, houseID, UpdateGenreRequest{Slug: ptr("house")})
	assert.NoError(t, err)
}

func TestGenreService_DeleteGenre(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)

	// Genres with subgenres cannot be deleted.
	err := env.genres.DeleteGenre(ctx, genreID(t, tree, "House"))
	assert.ErrorIs(t, err, store.ErrConflict)

	deepID := genreID(t, tree, "Deep House")
	require.NoError(t, env.genres.DeleteGenre(ctx, deepID))

	_, err = env.genres.GetGenre(ctx, deepID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = env.genres.DeleteGenre(ctx, deepID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGenreService_Options(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.seedTaxonomy(t)

	opts, err := env.genres.Options(ctx)
	require.NoError(t, err)
	require.Len(t, opts, genre.SeedCount(genre.DefaultGenres))

	// Depth-first, parents before children, siblings by name.
	assert.Equal(t, "Classical", opts[0].Name)
	assert.Equal(t, "  Chamber Music", opts[1].Label)
	assert.Equal(t, "  Opera", opts[2].Label)
	assert.Equal(t, "Country", opts[3].Name)
	assert.Equal(t, "Electronic", opts[4].Name)
	assert.Equal(t, "  Ambient", opts[5].Label)
}

func TestGenreService_Search(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.seedTaxonomy(t)

	nodes, err := env.genres.Search(ctx, "techno")
	require.NoError(t, err)

	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	assert.Equal(t, []string{"Techno", "Hard Techno", "Melodic Techno", "Minimal Techno"}, names)

	none, err := env.genres.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, none)

	aliased, err := env.genres.Search(ctx, "DnB")
	require.NoError(t, err)
	require.Len(t, aliased, 1)
	assert.Equal(t, "Drum & Bass", aliased[0].Name)
}

func TestGenreService_ExpandAndCheckIDs(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)

	houseID := genreID(t, tree, "House")
	expanded, err := env.genres.Expand(ctx, []string{houseID, "genre-missing"})
	require.NoError(t, err)
	assert.Len(t, expanded, 5)
	assert.Equal(t, houseID, expanded[0])

	empty, err := env.genres.Expand(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.NoError(t, env.genres.CheckIDs(ctx, []string{houseID}))
	assert.NoError(t, env.genres.CheckIDs(ctx, nil))

	err = env.genres.CheckIDs(ctx, []string{houseID, "genre-missing"})
	require.Error(t, err)
	var derr *domainerrors.Error
	require.True(t, domainerrors.As(err, &derr))
	assert.Equal(t, domainerrors.CodeValidation, derr.Code)
	assert.Contains(t, derr.Details, "genre_ids")
}

func TestGenreService_TreeIsCached(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.seedTaxonomy(t)

	first, err := env.genres.Tree(ctx)
	require.NoError(t, err)
	second, err := env.genres.Tree(ctx)
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = env.genres.CreateGenre(ctx, CreateGenreRequest{Name: "Gqom"})
	require.NoError(t, err)

	third, err := env.genres.Tree(ctx)
	require.NoError(t, err)
	assert.NotSame(t, first, third)
	_, ok := third.LookupName("Gqom")
	assert.True(t, ok)
}
