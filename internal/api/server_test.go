package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagepass/stagepass-server/internal/analytics"
	"github.com/stagepass/stagepass-server/internal/genre"
	"github.com/stagepass/stagepass-server/internal/metrics"
	"github.com/stagepass/stagepass-server/internal/search"
	"github.com/stagepass/stagepass-server/internal/service"
	"github.com/stagepass/stagepass-server/internal/store/sqlite"
)

const testAdminKey = "test-admin-key-0123456789abcdef"

// testEnvelope mirrors the wire envelope for decoding in tests.
type testEnvelope[T any] struct {
	V       int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

type testServer struct {
	api      humatest.TestAPI
	server   *Server
	services *Services
	tree     *genre.Tree
}

type serverOption func(*Server)

func withAdminKey(key string) serverOption {
	return func(s *Server) { s.adminKey = key }
}

func withDevMode() serverOption {
	return func(s *Server) { s.devMode = true }
}

func withIngestLimiter(l *RateLimiter) serverOption {
	return func(s *Server) { s.ingestLimiter = l }
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServices wires the services against a temp SQLite file, an in-memory
// search index and an in-memory session store, and seeds the default genres.
func newTestServices(t *testing.T) (*Services, *sqlite.Store) {
	t.Helper()
	logger := discardLogger()

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	index, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	sessions, err := analytics.Open(analytics.Options{InMemory: true}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sessions.Close() })

	cache, err := genre.NewCache(8)
	require.NoError(t, err)

	genres := service.NewGenreService(st, cache, logger)
	artists := service.NewArtistService(st, genres, logger)
	events := service.NewEventService(st, genres, logger)
	searchSvc := service.NewSearchService(index, st, genres, logger)
	genres.SetSearchIndexer(searchSvc)
	artists.SetSearchIndexer(searchSvc)
	events.SetSearchIndexer(searchSvc)

	_, err = genres.SeedDefaults(context.Background())
	require.NoError(t, err)

	return &Services{
		Genre:     genres,
		Artist:    artists,
		Event:     events,
		Search:    searchSvc,
		Analytics: service.NewAnalyticsService(sessions, logger),
	}, st
}

func setupTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	services, st := newTestServices(t)

	router := chi.NewRouter()
	api := humachi.New(router, NewHumaConfig())
	RegisterErrorHandler()

	s := &Server{
		store:    st,
		services: services,
		router:   router,
		api:      api,
		logger:   discardLogger(),
		adminKey: testAdminKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()

	tree, err := services.Genre.Tree(context.Background())
	require.NoError(t, err)

	return &testServer{
		api:      humatest.Wrap(t, api),
		server:   s,
		services: services,
		tree:     tree,
	}
}

func (ts *testServer) genreID(t *testing.T, name string) string {
	t.Helper()
	n, ok := ts.tree.LookupName(name)
	require.True(t, ok, "genre %q not seeded", name)
	return n.ID
}

func adminAuth() string {
	return "Authorization: Bearer " + testAdminKey
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func TestEnvelopeTransformer(t *testing.T) {
	t.Run("wraps success bodies", func(t *testing.T) {
		out, err := EnvelopeTransformer(nil, "200", map[string]string{"name": "House"})
		require.NoError(t, err)

		env, ok := out.(successEnvelope)
		require.True(t, ok)
		assert.Equal(t, 1, env.Version)
		assert.True(t, env.Success)
		assert.Equal(t, map[string]string{"name": "House"}, env.Data)
	})

	t.Run("wraps API errors", func(t *testing.T) {
		apiErr := &APIError{status: http.StatusNotFound, Code: "NOT_FOUND", Message: "genre g1 not found"}
		out, err := EnvelopeTransformer(nil, "404", apiErr)
		require.NoError(t, err)

		env, ok := out.(errorEnvelope)
		require.True(t, ok)
		assert.False(t, env.Success)
		assert.Equal(t, "genre g1 not found", env.Error)
		assert.Equal(t, "NOT_FOUND", env.Code)
	})
}

func TestNotFound_UsesErrorEnvelope(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/api/v1/artists/art-missing")
	require.Equal(t, http.StatusNotFound, resp.Code)

	env := decode[any](t, resp)
	assert.Equal(t, 1, env.V)
	assert.False(t, env.Success)
	assert.Equal(t, "NOT_FOUND", env.Code)
	assert.NotEmpty(t, env.Error)
}

func TestRequestValidation_Returns422WithDetails(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/genres", adminAuth(), map[string]any{"slug": "no-name"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	env := decode[any](t, resp)
	assert.Equal(t, "VALIDATION", env.Code)
	assert.NotNil(t, env.Details)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, statusHealthy, env.Data.Status)
	assert.Equal(t, statusHealthy, env.Data.Components["database"].Status)
	assert.Equal(t, statusHealthy, env.Data.Components["search"].Status)
	assert.Equal(t, statusHealthy, env.Data.Components["genres"].Status)
}

func TestRequireAdmin(t *testing.T) {
	body := map[string]any{"name": "Gqom"}

	t.Run("missing header", func(t *testing.T) {
		ts := setupTestServer(t)
		resp := ts.api.Post("/api/v1/genres", body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		ts := setupTestServer(t)
		resp := ts.api.Post("/api/v1/genres", "Authorization: Bearer not-the-key", body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		assert.Equal(t, "UNAUTHORIZED", decode[any](t, resp).Code)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		ts := setupTestServer(t)
		resp := ts.api.Post("/api/v1/genres", "Authorization: Basic "+testAdminKey, body)
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})

	t.Run("valid key", func(t *testing.T) {
		ts := setupTestServer(t)
		resp := ts.api.Post("/api/v1/genres", adminAuth(), body)
		assert.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("disabled without key", func(t *testing.T) {
		ts := setupTestServer(t, withAdminKey(""))
		resp := ts.api.Post("/api/v1/genres", adminAuth(), body)
		assert.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, "FORBIDDEN", decode[any](t, resp).Code)
	})

	t.Run("open in dev mode without key", func(t *testing.T) {
		ts := setupTestServer(t, withAdminKey(""), withDevMode())
		resp := ts.api.Post("/api/v1/genres", body)
		assert.Equal(t, http.StatusCreated, resp.Code)
	})

	t.Run("public reads need no key", func(t *testing.T) {
		ts := setupTestServer(t, withAdminKey(""))
		resp := ts.api.Get("/api/v1/genres/tree")
		assert.Equal(t, http.StatusOK, resp.Code)
	})
}

func TestNewServer_Mounts(t *testing.T) {
	services, st := newTestServices(t)
	m := metrics.New()

	srv := NewServer(Options{
		Store:          st,
		Services:       services,
		Metrics:        m,
		Logger:         discardLogger(),
		AdminKey:       testAdminKey,
		AllowedOrigins: []string{"https://stagepass.example"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/genres/tree", nil)
	req.Header.Set("Origin", "https://stagepass.example")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://stagepass.example", rec.Header().Get("Access-Control-Allow-Origin"))

	t.Run("metrics need the admin key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		req.Header.Set("Authorization", "Bearer "+testAdminKey)
		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "stagepass_http_request_duration_seconds")
	})

	t.Run("unknown route uses the envelope", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/venues", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)

		var env testEnvelope[any]
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, 1, env.V)
		assert.Equal(t, "NOT_FOUND", env.Code)
	})
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"forwarded for first hop", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.2:5000", "198.51.100.4"},
		{"remote addr", nil, "192.0.2.10:41234", "192.0.2.10"},
		{"remote addr without port", nil, "192.0.2.10", "192.0.2.10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clientIP(func(k string) string { return tt.headers[k] }, tt.remoteAddr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func futureDate(days int) time.Time {
	return time.Now().UTC().Add(time.Duration(days) * 24 * time.Hour).Truncate(time.Second)
}
