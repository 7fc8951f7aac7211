package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/service"
)

// CatalogHandler serves the read-only tag and ingredient lists
type CatalogHandler struct {
	tags        service.ITagService
	ingredients service.IIngredientService
}

func NewCatalogHandler(tags service.ITagService, ingredients service.IIngredientService) *CatalogHandler {
	return &CatalogHandler{tags: tags, ingredients: ingredients}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/tags", h.ListTags)
	router.GET("/tags/:id", h.GetTag)
	router.GET("/ingredients", h.ListIngredients)
	router.GET("/ingredients/:id", h.GetIngredient)
}

func (h *CatalogHandler) ListTags(c *gin.Context) {
	tags, err := h.tags.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagResponses(tags))
}

func (h *CatalogHandler) GetTag(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	tag, err := h.tags.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tagResponse(tag))
}

// ListIngredients filters by ?search= name prefix
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.ingredients.SearchIngredients(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredientResponses(ingredients))
}

func (h *CatalogHandler) GetIngredient(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	ingredient, err := h.ingredients.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ingredientResponse(ingredient))
}
