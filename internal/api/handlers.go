package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
)

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Auth     *service.AuthService
	Images   storage.ImageStore
	Enforcer *authz.Enforcer
	// RecipeCreateLimit is optional middleware applied to POST /recipes
	RecipeCreateLimit gin.HandlerFunc
}

// RegisterRoutes registers the health check and every /api route
func RegisterRoutes(router *gin.Engine, deps Deps) {
	// Health check endpoint (no auth required)
	router.GET("/health", NewHealthHandler(deps.DB, deps.Redis).HealthCheck)

	users := service.NewUserService(deps.DB)
	members := service.NewMembershipService(deps.DB)
	presenter := NewPresenter(service.NewAnnotator(deps.DB), users, deps.Images)

	handlers := []interface {
		RegisterRoutes(*gin.RouterGroup)
	}{
		NewAuthHandler(deps.Auth),
		NewUserHandler(users, members, presenter),
		NewRecipeHandler(
			service.NewRecipeService(deps.DB, deps.Images),
			members,
			users,
			service.NewShoppingListService(deps.DB),
			deps.Enforcer,
			presenter,
			deps.RecipeCreateLimit,
		),
		NewCatalogHandler(service.NewTagService(deps.DB), service.NewIngredientService(deps.DB)),
	}

	apiGroup := router.Group("/api")
	apiGroup.Use(middleware.OptionalAuth(deps.Auth))
	for _, h := range handlers {
		h.RegisterRoutes(apiGroup)
	}
}
