package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// parseID reads a positive integer path parameter. It responds 404 and
// returns false otherwise.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, notFoundBody)
		return 0, false
	}
	return uint(id), true
}

// subject describes the caller for authorization checks. The role comes from
// the users row, not the token, so a revoked role applies immediately.
// A deleted account is treated as anonymous.
func subject(c *gin.Context, users service.IUserService) (authz.Subject, error) {
	id := middleware.UserID(c)
	if id == 0 {
		return authz.Subject{}, nil
	}
	user, err := users.GetUser(c.Request.Context(), id)
	if errors.Is(err, service.ErrNotFound) {
		return authz.Subject{}, nil
	}
	if err != nil {
		return authz.Subject{}, err
	}
	return authz.Subject{UserID: user.ID, Role: user.Role}, nil
}

// truthy reports whether a boolean query flag is set
func truthy(v string) bool {
	switch v {
	case "1", "true", "True":
		return true
	}
	return false
}
