package service

import (
	"context"
	"io"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Page is a window over an ordered listing
type Page struct {
	Limit  int
	Offset int
}

// IAuthService defines token issuance and validation
type IAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	GenerateToken(user *models.User) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// IUserService defines account and subscription listing operations
type IUserService interface {
	Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
	ListUsers(ctx context.Context, page Page) ([]models.User, int64, error)
	SetPassword(ctx context.Context, userID uint, current, next string) error
	ListSubscriptions(ctx context.Context, userID uint, page Page) ([]models.User, int64, error)
	AuthorRecipes(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, map[uint]int64, error)
}

// IRecipeService defines recipe reads and transactional writes
type IRecipeService interface {
	ListRecipes(ctx context.Context, filter RecipeFilter, page Page) ([]models.Recipe, int64, error)
	GetRecipe(ctx context.Context, id uint) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, authorID uint, req *types.CreateRecipeRequest) (*models.Recipe, error)
	UpdateRecipe(ctx context.Context, recipe *models.Recipe, req *types.UpdateRecipeRequest) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, recipe *models.Recipe) error
}

// IMembershipService toggles favorites, cart items and subscriptions
type IMembershipService interface {
	AddFavorite(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
	RemoveFavorite(ctx context.Context, userID, recipeID uint) error
	AddToCart(ctx context.Context, userID, recipeID uint) (*models.Recipe, error)
	RemoveFromCart(ctx context.Context, userID, recipeID uint) error
	Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error)
	Unsubscribe(ctx context.Context, userID, authorID uint) error
}

// IAnnotator computes viewer-relative flags for a set of rows
type IAnnotator interface {
	RecipeFlags(ctx context.Context, viewerID uint, recipeIDs []uint) (map[uint]RecipeFlags, error)
	SubscribedAuthors(ctx context.Context, viewerID uint, authorIDs []uint) (map[uint]bool, error)
}

// IShoppingListService aggregates the cart into a shopping list
type IShoppingListService interface {
	ShoppingList(ctx context.Context, userID uint) ([]ShoppingListLine, error)
	Render(w io.Writer, lines []ShoppingListLine) error
}

type ITagService interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
}

type IIngredientService interface {
	SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
}
