package api

import (
	"bytes"
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/authz"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ShoppingListFilename is offered to clients downloading the shopping list
const ShoppingListFilename = "shopping_cart.txt"

type RecipeHandler struct {
	recipes   service.IRecipeService
	members   service.IMembershipService
	users     service.IUserService
	shopping  service.IShoppingListService
	enforcer  *authz.Enforcer
	presenter *Presenter
	// createLimit guards recipe creation; nil disables it
	createLimit gin.HandlerFunc
}

func NewRecipeHandler(
	recipes service.IRecipeService,
	members service.IMembershipService,
	users service.IUserService,
	shopping service.IShoppingListService,
	enforcer *authz.Enforcer,
	presenter *Presenter,
	createLimit gin.HandlerFunc,
) *RecipeHandler {
	return &RecipeHandler{
		recipes:     recipes,
		members:     members,
		users:       users,
		shopping:    shopping,
		enforcer:    enforcer,
		presenter:   presenter,
		createLimit: createLimit,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	create := gin.HandlersChain{middleware.RequireAuth()}
	if h.createLimit != nil {
		create = append(create, h.createLimit)
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", middleware.RequireAuth(), h.DownloadShoppingCart)
		recipes.GET("/:id", h.GetRecipe)
		recipes.PATCH("/:id", middleware.RequireAuth(), h.UpdateRecipe)
		recipes.DELETE("/:id", middleware.RequireAuth(), h.DeleteRecipe)
		recipes.POST("/:id/favorite", middleware.RequireAuth(), h.AddFavorite)
		recipes.DELETE("/:id/favorite", middleware.RequireAuth(), h.RemoveFavorite)
		recipes.POST("/:id/shopping_cart", middleware.RequireAuth(), h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", middleware.RequireAuth(), h.RemoveFromCart)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	viewerID := middleware.UserID(c)

	page, number, err := numberPage(c)
	if err != nil {
		respondInvalidPage(c)
		return
	}

	filter := service.RecipeFilter{
		Tags:      c.QueryArray("tags"),
		ViewerID:  viewerID,
		Favorited: truthy(c.Query("is_favorited")),
		InCart:    truthy(c.Query("is_in_shopping_cart")),
	}
	if raw := c.Query("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"author": []string{"Select a valid choice."}})
			return
		}
		filter.AuthorID = uint(id)
	}

	recipes, total, err := h.recipes.ListRecipes(ctx, filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	if checkPageRange(number, page.Limit, total) != nil {
		respondInvalidPage(c)
		return
	}

	results, err := h.presenter.Recipes(ctx, viewerID, recipes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, numberPageResponse(c, number, page.Limit, total, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipe, ok := h.loadRecipe(c)
	if !ok {
		return
	}
	h.renderRecipe(c, http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	recipe, err := h.recipes.CreateRecipe(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.renderRecipe(c, http.StatusCreated, recipe)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	recipe, ok := h.loadRecipe(c)
	if !ok || !h.authorize(c, recipe) {
		return
	}

	var req types.UpdateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.recipes.UpdateRecipe(c.Request.Context(), recipe, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	h.renderRecipe(c, http.StatusOK, updated)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	recipe, ok := h.loadRecipe(c)
	if !ok || !h.authorize(c, recipe) {
		return
	}

	if err := h.recipes.DeleteRecipe(c.Request.Context(), recipe); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) AddFavorite(c *gin.Context) {
	h.addMembership(c, h.members.AddFavorite)
}

func (h *RecipeHandler) RemoveFavorite(c *gin.Context) {
	h.removeMembership(c, h.members.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addMembership(c, h.members.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeMembership(c, h.members.RemoveFromCart)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	lines, err := h.shopping.ShoppingList(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := h.shopping.Render(&buf, lines); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+ShoppingListFilename)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", buf.Bytes())
}

func (h *RecipeHandler) loadRecipe(c *gin.Context) (*models.Recipe, bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return nil, false
	}
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return recipe, true
}

// authorize allows writes by the author or an admin
func (h *RecipeHandler) authorize(c *gin.Context, recipe *models.Recipe) bool {
	sub, err := subject(c, h.users)
	if err != nil {
		respondError(c, err)
		return false
	}
	allowed, err := h.enforcer.Can(sub, recipe.AuthorID, authz.ActionWrite)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !allowed {
		respondError(c, service.ErrForbidden)
		return false
	}
	return true
}

func (h *RecipeHandler) renderRecipe(c *gin.Context, status int, recipe *models.Recipe) {
	resp, err := h.presenter.Recipe(c.Request.Context(), middleware.UserID(c), recipe)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, resp)
}

type addFunc func(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
type removeFunc func(ctx context.Context, userID, recipeID uint) error

func (h *RecipeHandler) addMembership(c *gin.Context, add addFunc) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	recipe, err := add(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.presenter.ShortRecipe(recipe))
}

func (h *RecipeHandler) removeMembership(c *gin.Context, remove removeFunc) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
