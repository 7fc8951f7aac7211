package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/validation"
)

var registerValidators sync.Once

type memoryDenylist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (d *memoryDenylist) Revoke(_ context.Context, jti string, _ time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[jti] = true
	return nil
}

func (d *memoryDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.revoked[jti], nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
	store  *storage.DiskStore
}

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	registerValidators.Do(func() {
		require.NoError(t, validation.RegisterGin())
	})

	db := testhelpers.NewSQLiteDB(t)
	store, err := storage.NewDiskStore(t.TempDir(), "http://testserver/media/")
	require.NoError(t, err)
	enforcer, err := authz.NewEnforcer()
	require.NoError(t, err)
	auth := service.NewAuthService(db, "test-secret", time.Hour, &memoryDenylist{revoked: map[string]bool{}})

	router := gin.New()
	RegisterRoutes(router, Deps{DB: db, Auth: auth, Images: store, Enforcer: enforcer})
	return &testEnv{router: router, db: db, auth: auth, store: store}
}

// tokenFor signs a token for user
func (e *testEnv) tokenFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := e.auth.GenerateToken(user)
	require.NoError(t, err)
	return token
}

// PerformRequest sends a JSON request, authenticated when token is non-empty
func (e *testEnv) PerformRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewBuffer(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Host = "testserver"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func assertStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, "body: %s", w.Body.String())
}

