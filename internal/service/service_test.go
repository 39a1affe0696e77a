package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/search"
	"github.com/stagepass/stagepass-server/internal/store/sqlite"
)

type testEnv struct {
	store   *sqlite.Store
	index   *search.SearchIndex
	genres  *GenreService
	artists *ArtistService
	events  *EventService
	search  *SearchService
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestEnv wires the catalog services against a temp SQLite file and an
// in-memory search index, the same way the DI container does.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := testLogger()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	cache, err := genre.NewCache(8)
	require.NoError(t, err)

	genres := NewGenreService(st, cache, logger)
	artists := NewArtistService(st, genres, logger)
	events := NewEventService(st, genres, logger)
	searchSvc := NewSearchService(index, st, genres, logger)

	genres.SetSearchIndexer(searchSvc)
	artists.SetSearchIndexer(searchSvc)
	events.SetSearchIndexer(searchSvc)

	return &testEnv{
		store:   st,
		index:   index,
		genres:  genres,
		artists: artists,
		events:  events,
		search:  searchSvc,
	}
}

// seedTaxonomy seeds the default genres and returns the resulting tree.
func (env *testEnv) seedTaxonomy(t *testing.T) *genre.Tree {
	t.Helper()
	ctx := context.Background()

	_, err := env.genres.SeedDefaults(ctx)
	require.NoError(t, err)

	tree, err := env.genres.Tree(ctx)
	require.NoError(t, err)
	return tree
}

// genreID looks up a seeded genre by name.
func genreID(t *testing.T, tree *genre.Tree, name string) string {
	t.Helper()
	n, ok := tree.LookupName(name)
	require.True(t, ok, "genre %q not seeded", name)
	return n.ID
}

func ptr[T any](v T) *T {
	return &v
}
