package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/logging"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// InternalError is the body of every 500 response
var InternalError = ErrorResponse{Error: "internal server error"}

// Recovery converts panics into a logged 500 JSON response
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logging.Ctx(c.Request.Context()).Error().
					Interface("panic", err).
					Bytes("stack", debug.Stack()).
					Str("path", c.Request.URL.Path).
					Msg("recovered from panic")
				if c.Writer.Written() {
					c.Abort()
					return
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, InternalError)
			}
		}()
		c.Next()
	}
}

// NoRoute answers unknown paths in the API's error shape
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	}
}
