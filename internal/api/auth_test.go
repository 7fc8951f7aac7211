package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestLogin(t *testing.T) {
	env := setupTestRouter(t)
	user := testhelpers.CreateUser(t, env.db, models.RoleUser)

	t.Run("success", func(t *testing.T) {
		w := env.PerformRequest(http.MethodPost, "/api/auth/token/login",
			map[string]string{"email": user.Email, "password": testhelpers.DefaultPassword}, "")
		assertStatus(t, http.StatusOK, w)

		resp := decode[types.TokenResponse](t, w)
		assert.NotEmpty(t, resp.AuthToken)

		me := env.PerformRequest(http.MethodGet, "/api/users/me", nil, resp.AuthToken)
		assertStatus(t, http.StatusOK, me)
	})

	t.Run("bad credentials", func(t *testing.T) {
		w := env.PerformRequest(http.MethodPost, "/api/auth/token/login",
			map[string]string{"email": user.Email, "password": "wrong-password"}, "")
		assertStatus(t, http.StatusBadRequest, w)
		assert.JSONEq(t, `{"non_field_errors":["Unable to log in with provided credentials."]}`, w.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		w := env.PerformRequest(http.MethodPost, "/api/auth/token/login", map[string]string{}, "")
		assertStatus(t, http.StatusBadRequest, w)
		body := decode[map[string][]string](t, w)
		assert.Contains(t, body, "email")
		assert.Contains(t, body, "password")
	})

	t.Run("malformed body", func(t *testing.T) {
		w := env.PerformRequest(http.MethodPost, "/api/auth/token/login", "{", "")
		assertStatus(t, http.StatusBadRequest, w)
	})
}

func TestLogout(t *testing.T) {
	env := setupTestRouter(t)
	user := testhelpers.CreateUser(t, env.db, models.RoleUser)
	token := env.tokenFor(t, user)

	w := env.PerformRequest(http.MethodPost, "/api/auth/token/logout", nil, "")
	assertStatus(t, http.StatusUnauthorized, w)

	w = env.PerformRequest(http.MethodPost, "/api/auth/token/logout", nil, token)
	assertStatus(t, http.StatusNoContent, w)

	w = env.PerformRequest(http.MethodGet, "/api/users/me", nil, token)
	assertStatus(t, http.StatusUnauthorized, w)
}
