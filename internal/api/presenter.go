package api

import (
	"context"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

// Presenter turns models into response bodies. Viewer-relative flags are
// resolved once per result set.
type Presenter struct {
	annotator service.IAnnotator
	users     service.IUserService
	images    storage.ImageStore
}

func NewPresenter(annotator service.IAnnotator, users service.IUserService, images storage.ImageStore) *Presenter {
	return &Presenter{annotator: annotator, users: users, images: images}
}

func userResponse(u *models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func createdUserResponse(u *models.User) types.CreatedUserResponse {
	return types.CreatedUserResponse{
		Email:     u.Email,
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func tagResponse(t *models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func tagResponses(tags []models.Tag) []types.TagResponse {
	out := make([]types.TagResponse, len(tags))
	for i := range tags {
		out[i] = tagResponse(&tags[i])
	}
	return out
}

func ingredientResponse(i *models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

func ingredientResponses(ingredients []models.Ingredient) []types.IngredientResponse {
	out := make([]types.IngredientResponse, len(ingredients))
	for i := range ingredients {
		out[i] = ingredientResponse(&ingredients[i])
	}
	return out
}

func (p *Presenter) ShortRecipe(r *models.Recipe) types.ShortRecipeResponse {
	return types.ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       p.images.URL(r.Image),
		CookingTime: r.CookingTime,
	}
}

// Users renders users with is_subscribed relative to viewerID
func (p *Presenter) Users(ctx context.Context, viewerID uint, users []models.User) ([]types.UserResponse, error) {
	ids := make([]uint, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	subscribed, err := p.annotator.SubscribedAuthors(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]types.UserResponse, len(users))
	for i := range users {
		out[i] = userResponse(&users[i], subscribed[users[i].ID])
	}
	return out, nil
}

func (p *Presenter) User(ctx context.Context, viewerID uint, user *models.User) (types.UserResponse, error) {
	out, err := p.Users(ctx, viewerID, []models.User{*user})
	if err != nil {
		return types.UserResponse{}, err
	}
	return out[0], nil
}

// Recipes renders full recipes. Recipes must have Author, Tags and
// Ingredients.Ingredient loaded.
func (p *Presenter) Recipes(ctx context.Context, viewerID uint, recipes []models.Recipe) ([]types.RecipeResponse, error) {
	recipeIDs := make([]uint, len(recipes))
	authorSet := make(map[uint]struct{}, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for i, r := range recipes {
		recipeIDs[i] = r.ID
		if _, ok := authorSet[r.AuthorID]; !ok {
			authorSet[r.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	flags, err := p.annotator.RecipeFlags(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := p.annotator.SubscribedAuthors(ctx, viewerID, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]types.RecipeResponse, len(recipes))
	for i := range recipes {
		r := &recipes[i]
		ingredients := make([]types.RecipeIngredientResponse, len(r.Ingredients))
		for j, ri := range r.Ingredients {
			ingredients[j] = types.RecipeIngredientResponse{
				ID:              ri.IngredientID,
				Name:            ri.Ingredient.Name,
				MeasurementUnit: ri.Ingredient.MeasurementUnit,
				Amount:          ri.Amount,
			}
		}
		f := flags[r.ID]
		out[i] = types.RecipeResponse{
			ID:               r.ID,
			Tags:             tagResponses(r.Tags),
			Author:           userResponse(&r.Author, subscribed[r.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      f.IsFavorited,
			IsInShoppingCart: f.IsInShoppingCart,
			Name:             r.Name,
			Image:            p.images.URL(r.Image),
			Text:             r.Text,
			CookingTime:      r.CookingTime,
		}
	}
	return out, nil
}

func (p *Presenter) Recipe(ctx context.Context, viewerID uint, recipe *models.Recipe) (types.RecipeResponse, error) {
	out, err := p.Recipes(ctx, viewerID, []models.Recipe{*recipe})
	if err != nil {
		return types.RecipeResponse{}, err
	}
	return out[0], nil
}

// Subscriptions renders authors with up to recipesLimit of their newest
// recipes; recipesLimit <= 0 includes all of them
func (p *Presenter) Subscriptions(ctx context.Context, viewerID uint, authors []models.User, recipesLimit int) ([]types.SubscriptionResponse, error) {
	users, err := p.Users(ctx, viewerID, authors)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	recipes, counts, err := p.users.AuthorRecipes(ctx, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	out := make([]types.SubscriptionResponse, len(authors))
	for i, a := range authors {
		short := make([]types.ShortRecipeResponse, 0, len(recipes[a.ID]))
		for j := range recipes[a.ID] {
			short = append(short, p.ShortRecipe(&recipes[a.ID][j]))
		}
		out[i] = types.SubscriptionResponse{
			UserResponse: users[i],
			Recipes:      short,
			RecipesCount: counts[a.ID],
		}
	}
	return out, nil
}
