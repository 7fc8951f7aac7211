package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// ShutdownTimeout bounds how long in-flight requests may drain
const ShutdownTimeout = 10 * time.Second

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
}

// New builds the router with the middleware chain, the API routes, metrics
// and, for disk storage, the media file route
func New(cfg *config.Config, deps api.Deps) *Server {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Metrics(),
		middleware.CORS(cfg.CORSOrigins),
	)
	router.NoRoute(middleware.NoRoute())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if disk, ok := deps.Images.(*storage.DiskStore); ok {
		router.Static(mediaRoute(cfg.MediaURL), disk.Dir())
	}
	api.RegisterRoutes(router, deps)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// mediaRoute is the path component of the media base URL
func mediaRoute(mediaURL string) string {
	route := "/media"
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" && u.Path != "/" {
		route = u.Path
	}
	if len(route) > 1 && route[len(route)-1] == '/' {
		route = route[:len(route)-1]
	}
	return route
}

// Handler exposes the router, for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	logging.Info().Str("addr", s.http.Addr).Msg("starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(ctx)
}
