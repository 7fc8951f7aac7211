package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserHandler struct {
	users     service.IUserService
	members   service.IMembershipService
	presenter *Presenter
}

func NewUserHandler(users service.IUserService, members service.IMembershipService, presenter *Presenter) *UserHandler {
	return &UserHandler{users: users, members: members, presenter: presenter}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.Register)
		users.GET("/me", middleware.RequireAuth(), h.Me)
		users.POST("/set_password", middleware.RequireAuth(), h.SetPassword)
		users.GET("/subscriptions", middleware.RequireAuth(), h.ListSubscriptions)
		users.GET("/:id", h.GetUser)
		users.POST("/:id/subscribe", middleware.RequireAuth(), h.Subscribe)
		users.DELETE("/:id/subscribe", middleware.RequireAuth(), h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	ctx := c.Request.Context()
	page := offsetPage(c)

	users, total, err := h.users.ListUsers(ctx, page)
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.presenter.Users(ctx, middleware.UserID(c), users)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offsetPageResponse(c, page, total, results))
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createdUserResponse(user))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	h.renderUser(c, id)
}

func (h *UserHandler) Me(c *gin.Context) {
	h.renderUser(c, middleware.UserID(c))
}

func (h *UserHandler) renderUser(c *gin.Context, id uint) {
	ctx := c.Request.Context()
	user, err := h.users.GetUser(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.presenter.User(ctx, middleware.UserID(c), user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	err := h.users.SetPassword(c.Request.Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// recipesLimit reads ?recipes_limit=; 0 means unlimited
func recipesLimit(c *gin.Context) (int, bool) {
	raw := c.Query("recipes_limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"recipes_limit": []string{"A valid non-negative integer is required."}})
		return 0, false
	}
	return n, true
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	viewerID := middleware.UserID(c)
	page := offsetPage(c)

	authors, total, err := h.users.ListSubscriptions(ctx, viewerID, page)
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.presenter.Subscriptions(ctx, viewerID, authors, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, offsetPageResponse(c, page, total, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, ok := recipesLimit(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	viewerID := middleware.UserID(c)

	author, err := h.members.Subscribe(ctx, viewerID, authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	results, err := h.presenter.Subscriptions(ctx, viewerID, []models.User{*author}, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, results[0])
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	authorID, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.members.Unsubscribe(c.Request.Context(), middleware.UserID(c), authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
