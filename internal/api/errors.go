package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/validation"
)

var (
	notFoundBody  = gin.H{"detail": "Not found."}
	forbiddenBody = gin.H{"detail": "You do not have permission to perform this action."}
)

// respondError maps service and binding errors to HTTP responses
func respondError(c *gin.Context, err error) {
	if fields := validation.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, fields)
		return
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, verr.Fields)
		return
	}

	var relErr *service.RelationError
	if errors.As(err, &relErr) {
		status := http.StatusBadRequest
		if errors.Is(relErr.Err, service.ErrRelationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"errors": relErr.Error()})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, notFoundBody)
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, forbiddenBody)
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"non_field_errors": []string{"Unable to log in with provided credentials."}})
	case errors.Is(err, service.ErrWrongPassword):
		c.JSON(http.StatusBadRequest, gin.H{"current_password": []string{"Invalid password."}})
	case errors.Is(err, service.ErrSamePassword):
		c.JSON(http.StatusBadRequest, gin.H{"new_password": []string{"The new password must differ from the current one."}})
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, middleware.InternalError)
	}
}

// bindJSON decodes the body into req and responds 400 on failure
func bindJSON(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}
	if fields := validation.FieldErrors(err); fields != nil {
		c.JSON(http.StatusBadRequest, fields)
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"detail": "Malformed request body."})
	return false
}
