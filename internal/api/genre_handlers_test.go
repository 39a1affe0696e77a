package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass-server/internal/genre"
)

func TestGetGenreTree(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/genres/tree")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[GenreTreeResponse](t, resp)
	assert.Equal(t, ts.tree.Len(), env.Data.Total)
	require.Len(t, env.Data.Genres, len(ts.tree.TopLevel))

	for i, root := range env.Data.Genres {
		assert.Equal(t, 0, root.Level)
		assert.Equal(t, root.Name, root.Path)
		assert.Equal(t, ts.tree.TopLevel[i].ID, root.ID)
	}

	var electronic *GenreTreeNode
	for i := range env.Data.Genres {
		if env.Data.Genres[i].Name == "Electronic" {
			electronic = &env.Data.Genres[i]
		}
	}
	require.NotNil(t, electronic)

	var house *GenreTreeNode
	for i := range electronic.Children {
		if electronic.Children[i].Name == "House" {
			house = &electronic.Children[i]
		}
	}
	require.NotNil(t, house)
	assert.Equal(t, 1, house.Level)
	assert.Equal(t, "Electronic > House", house.Path)
	require.Len(t, house.Children, 4)
	assert.Equal(t, []string{"Afro House", "Deep House", "Progressive House", "Tech House"},
		[]string{house.Children[0].Name, house.Children[1].Name, house.Children[2].Name, house.Children[3].Name})
}

func TestListGenreOptions(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/genres/options")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[GenreOptionsResponse](t, resp)
	require.Len(t, env.Data.Options, ts.tree.Len())
	assert.Equal(t, 0, env.Data.Options[0].Level)

	var techHouse *genre.Option
	for i := range env.Data.Options {
		if env.Data.Options[i].Name == "Tech House" {
			techHouse = &env.Data.Options[i]
		}
	}
	require.NotNil(t, techHouse)
	assert.Equal(t, 2, techHouse.Level)
	assert.Equal(t, "    Tech House", techHouse.Label)
	assert.Equal(t, "Electronic > House > Tech House", techHouse.Path)
}

func TestListGenres(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("all in display order", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/genres")
		require.Equal(t, http.StatusOK, resp.Code)

		env := decode[ListGenresResponse](t, resp)
		assert.Len(t, env.Data.Genres, ts.tree.Len())
	})

	t.Run("search by name", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/genres?q=techno")
		require.Equal(t, http.StatusOK, resp.Code)

		env := decode[ListGenresResponse](t, resp)
		require.NotEmpty(t, env.Data.Genres)
		for _, g := range env.Data.Genres {
			assert.Contains(t, strings.ToLower(g.Name), "techno")
		}
	})
}

func TestGetGenre(t *testing.T) {
	ts := setupTestServer(t)
	techHouseID := ts.genreID(t, "Tech House")

	for _, ref := range []string{techHouseID, "tech-house"} {
		t.Run(ref, func(t *testing.T) {
			resp := ts.api.Get("/api/v1/genres/" + ref)
			require.Equal(t, http.StatusOK, resp.Code)

			env := decode[GenreDetailResponse](t, resp)
			assert.Equal(t, techHouseID, env.Data.ID)
			assert.Equal(t, 2, env.Data.Level)
			assert.Equal(t, "Electronic > House > Tech House", env.Data.Path)
			assert.Equal(t, ts.genreID(t, "House"), env.Data.ParentID)
			require.Len(t, env.Data.Ancestors, 2)
			assert.Equal(t, "Electronic", env.Data.Ancestors[0].Name)
			assert.Equal(t, "House", env.Data.Ancestors[1].Name)
			assert.Empty(t, env.Data.Children)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/genres/no-such-genre")
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}

func TestCreateGenre(t *testing.T) {
	ts := setupTestServer(t)
	houseID := ts.genreID(t, "House")

	resp := ts.api.Post("/api/v1/genres", adminAuth(), map[string]any{
		"name":      "Jackin House",
		"parent_id": houseID,
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	env := decode[GenreResponse](t, resp)
	assert.Equal(t, "jackin-house", env.Data.Slug)
	assert.Equal(t, 2, env.Data.Level)
	assert.Equal(t, "Electronic > House > Jackin House", env.Data.Path)

	t.Run("appears in parent's children", func(t *testing.T) {
		resp := ts.api.Get("/api/v1/genres/" + houseID)
		require.Equal(t, http.StatusOK, resp.Code)

		detail := decode[GenreDetailResponse](t, resp)
		assert.Equal(t, 5, detail.Data.ChildCount)
		names := make([]string, len(detail.Data.Children))
		for i, c := range detail.Data.Children {
			names[i] = c.Name
		}
		assert.Contains(t, names, "Jackin House")
	})

	t.Run("duplicate slug", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/genres", adminAuth(), map[string]any{"name": "Jackin House"})
		assert.Equal(t, http.StatusConflict, resp.Code)
	})
}

func TestUpdateGenre(t *testing.T) {
	ts := setupTestServer(t)
	electronicID := ts.genreID(t, "Electronic")
	houseID := ts.genreID(t, "House")
	techHouseID := ts.genreID(t, "Tech House")

	t.Run("move under own subgenre", func(t *testing.T) {
		resp := ts.api.Patch("/api/v1/genres/"+electronicID, adminAuth(), map[string]any{"parent_id": techHouseID})
		require.Equal(t, http.StatusBadRequest, resp.Code)
		assert.Equal(t, "VALIDATION", decode[any](t, resp).Code)
	})

	t.Run("own parent", func(t *testing.T) {
		resp := ts.api.Patch("/api/v1/genres/"+houseID, adminAuth(), map[string]any{"parent_id": houseID})
		assert.Equal(t, http.StatusBadRequest, resp.Code)
	})

	t.Run("move to top level recomputes paths", func(t *testing.T) {
		resp := ts.api.Patch("/api/v1/genres/"+houseID, adminAuth(), map[string]any{"parent_id": ""})
		require.Equal(t, http.StatusOK, resp.Code)

		env := decode[GenreResponse](t, resp)
		assert.Equal(t, 0, env.Data.Level)
		assert.Equal(t, "House", env.Data.Path)

		resp = ts.api.Get("/api/v1/genres/" + techHouseID)
		require.Equal(t, http.StatusOK, resp.Code)
		detail := decode[GenreDetailResponse](t, resp)
		assert.Equal(t, 1, detail.Data.Level)
		assert.Equal(t, "House > Tech House", detail.Data.Path)
	})
}

func TestDeleteGenre(t *testing.T) {
	ts := setupTestServer(t)

	t.Run("with subgenres", func(t *testing.T) {
		resp := ts.api.Delete("/api/v1/genres/"+ts.genreID(t, "House"), adminAuth())
		require.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "CONFLICT", decode[any](t, resp).Code)
	})

	t.Run("leaf", func(t *testing.T) {
		techHouseID := ts.genreID(t, "Tech House")
		resp := ts.api.Delete("/api/v1/genres/"+techHouseID, adminAuth())
		require.Equal(t, http.StatusNoContent, resp.Code)

		resp = ts.api.Get("/api/v1/genres/" + techHouseID)
		assert.Equal(t, http.StatusNotFound, resp.Code)
	})
}
