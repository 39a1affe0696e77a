package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/stagepass/stagepass-server/internal/errors"
	"github.com/stagepass/stagepass-server/internal/store"
)

func TestArtistService_CreateArtist(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)
	deepID := genreID(t, tree, "Deep House")

	a, err := env.artists.CreateArtist(ctx, CreateArtistRequest{
		Name:     "Peggy Gou",
		Bio:      "<p><strong>Live</strong> set</p>",
		Country:  "kor",
		Website:  "https://peggygou.com",
		GenreIDs: []string{deepID, deepID},
	})
	require.NoError(t, err)

	assert.Equal(t, "peggy-gou", a.Slug)
	assert.Equal(t, "**Live** set", a.Bio)
	assert.Equal(t, "KR", a.Country)
	assert.Equal(t, []string{deepID}, a.GenreIDs)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := env.artists.GetArtist(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Name, got.Name)
	assert.Equal(t, []string{deepID}, got.GenreIDs)

	nodes, err := env.artists.ArtistGenres(ctx, got)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Electronic > House > Deep House", nodes[0].Path)
}

func TestArtistService_CreateArtist_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   CreateArtistRequest
		field string
	}{
		{"missing name", CreateArtistRequest{}, "name"},
		{"bad website", CreateArtistRequest{Name: "DJ", Website: "not a url"}, "website"},
		{"bad country", CreateArtistRequest{Name: "DJ", Country: "Atlantis"}, "country"},
		{"unknown genre", CreateArtistRequest{Name: "DJ", GenreIDs: []string{"genre-missing"}}, "genre_ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.artists.CreateArtist(ctx, tt.req)
			require.Error(t, err)

			var derr *domainerrors.Error
			require.True(t, domainerrors.As(err, &derr), "got %v", err)
			assert.Equal(t, domainerrors.CodeValidation, derr.Code)
			assert.Contains(t, derr.Details, tt.field)
		})
	}
}

func TestArtistService_ListArtists_ByGenre(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)

	houseID := genreID(t, tree, "House")
	deepID := genreID(t, tree, "Deep House")
	jazzID := genreID(t, tree, "Jazz")

	deep, err := env.artists.CreateArtist(ctx, CreateArtistRequest{Name: "Kerri Chandler", GenreIDs: []string{deepID}})
	require.NoError(t, err)
	house, err := env.artists.CreateArtist(ctx, CreateArtistRequest{Name: "Frankie Knuckles", GenreIDs: []string{houseID}})
	require.NoError(t, err)
	_, err = env.artists.CreateArtist(ctx, CreateArtistRequest{Name: "Kamasi Washington", GenreIDs: []string{jazzID}})
	require.NoError(t, err)

	params := store.DefaultPaginationParams()

	exact, err := env.artists.ListArtists(ctx, ArtistQuery{GenreID: houseID}, params)
	require.NoError(t, err)
	require.Len(t, exact.Items, 1)
	assert.Equal(t, house.ID, exact.Items[0].ID)

	withSub, err := env.artists.ListArtists(ctx, ArtistQuery{GenreID: houseID, IncludeSubgenres: true}, params)
	require.NoError(t, err)
	assert.Equal(t, 2, withSub.Total)
	assert.Equal(t, house.ID, withSub.Items[0].ID, "ordered by name")
	assert.Equal(t, deep.ID, withSub.Items[1].ID)

	all, err := env.artists.ListArtists(ctx, ArtistQuery{}, params)
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	byName, err := env.artists.ListArtists(ctx, ArtistQuery{Query: "kamasi"}, params)
	require.NoError(t, err)
	assert.Equal(t, 1, byName.Total)

	_, err = env.artists.ListArtists(ctx, ArtistQuery{GenreID: "genre-missing"}, params)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = env.artists.ListArtists(ctx, ArtistQuery{GenreID: "genre-missing", IncludeSubgenres: true}, params)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestArtistService_UpdateArtist(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)
	technoID := genreID(t, tree, "Techno")

	a, err := env.artists.CreateArtist(ctx, CreateArtistRequest{Name: "Helena Hauff", Country: "DE"})
	require.NoError(t, err)

	updated, err := env.artists.UpdateArtist(ctx, a.ID, UpdateArtistRequest{
		Bio:      ptr("<em>Hamburg</em>"),
		GenreIDs: &[]string{technoID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Helena Hauff", updated.Name)
	assert.Equal(t, "*Hamburg*", updated.Bio)
	assert.Equal(t, "DE", updated.Country)
	assert.Equal(t, []string{technoID}, updated.GenreIDs)

	// Clearing genres.
	cleared, err := env.artists.UpdateArtist(ctx, a.ID, UpdateArtistRequest{GenreIDs: &[]string{}})
	require.NoError(t, err)
	assert.Empty(t, cleared.GenreIDs)

	_, err = env.artists.UpdateArtist(ctx, a.ID, UpdateArtistRequest{Name: ptr("")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.artists.UpdateArtist(ctx, a.ID, UpdateArtistRequest{Country: ptr("nowhere")})
	assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

	_, err = env.artists.UpdateArtist(ctx, "artist-missing", UpdateArtistRequest{Name: ptr("X")})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestArtistService_DeleteArtist(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	a, err := env.artists.CreateArtist(ctx, CreateArtistRequest{Name: "Moodymann"})
	require.NoError(t, err)

	require.NoError(t, env.artists.DeleteArtist(ctx, a.ID))

	_, err = env.artists.GetArtist(ctx, a.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, env.artists.DeleteArtist(ctx, a.ID), store.ErrNotFound)
}

func TestGenreDelete_DropsArtistLinks(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	tree := env.seedTaxonomy(t)
	afroID := genreID(t, tree, "Afro House")

	a, err := env.artists.CreateArtist(ctx, CreateArtistRequest{Name: "Black Coffee", GenreIDs: []string{afroID}})
	require.NoError(t, err)

	require.NoError(t, env.genres.DeleteGenre(ctx, afroID))

	got, err := env.artists.GetArtist(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, got.GenreIDs)
}
