package server

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func newTestServer(t *testing.T) (*Server, *storage.DiskStore) {
	t.Helper()
	db := testhelpers.NewSQLiteDB(t)
	store, err := storage.NewDiskStore(t.TempDir(), "/media/")
	require.NoError(t, err)
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)

	cfg := &config.Config{
		ServerHost:  "localhost",
		ServerPort:  "0",
		GinMode:     "test",
		MediaURL:    "/media/",
		CORSOrigins: []string{"*"},
	}
	srv := New(cfg, api.Deps{
		DB:       db,
		Auth:     service.NewAuthService(db, "test-secret", time.Hour, nil),
		Images:   store,
		Enforcer: enforcer,
	})
	return srv, store
}

func TestNew(t *testing.T) {
	srv, store := newTestServer(t)
	require.NotNil(t, srv)

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("metrics", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "foodgram_http_requests_total")
	})

	t.Run("media", func(t *testing.T) {
		require.NoError(t, os.MkdirAll(filepath.Join(store.Dir(), "recipes"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "recipes", "a.txt"), []byte("pixels"), 0o644))

		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/media/recipes/a.txt", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pixels", w.Body.String())
	})

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nothing", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "Not found."))
	})
}

func TestMediaRoute(t *testing.T) {
	assert.Equal(t, "/media", mediaRoute("/media/"))
	assert.Equal(t, "/uploads", mediaRoute("https://cdn.example.com/uploads/"))
	assert.Equal(t, "/media", mediaRoute(""))
}
