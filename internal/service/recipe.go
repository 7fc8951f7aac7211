package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
)

// RecipeFilter narrows a recipe listing. Zero values mean no filter.
type RecipeFilter struct {
	// Tags are slugs; a recipe matches when it carries any of them
	Tags     []string
	AuthorID uint
	// ViewerID scopes Favorited and InCart
	ViewerID  uint
	Favorited bool
	InCart    bool
}

// recipeImagePrefix is the key prefix of stored recipe images
const recipeImagePrefix = "recipes"

// RecipeService handles recipe reads and transactional writes
type RecipeService struct {
	db     *gorm.DB
	images storage.ImageStore
}

var _ IRecipeService = (*RecipeService)(nil)

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images storage.ImageStore) *RecipeService {
	return &RecipeService{db: db, images: images}
}

func withRecipeDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") }).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient")
}

// ListRecipes returns one page of recipes, newest first, plus the total count
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter, page Page) ([]models.Recipe, int64, error) {
	if (filter.Favorited || filter.InCart) && filter.ViewerID == 0 {
		return []models.Recipe{}, 0, nil
	}

	db := s.db.WithContext(ctx).Model(&models.Recipe{})
	if len(filter.Tags) > 0 {
		tagged := s.db.WithContext(ctx).Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", filter.Tags)
		db = db.Where("recipes.id IN (?)", tagged)
	}
	if filter.AuthorID != 0 {
		db = db.Where("recipes.author_id = ?", filter.AuthorID)
	}
	if filter.Favorited {
		db = db.Where("EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = recipes.id AND f.user_id = ?)", filter.ViewerID)
	}
	if filter.InCart {
		db = db.Where("EXISTS (SELECT 1 FROM shopping_cart_items c WHERE c.recipe_id = recipes.id AND c.user_id = ?)", filter.ViewerID)
	}
	db = db.Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := withRecipeDetails(db).
		Order("recipes.id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	return recipes, total, nil
}

// GetRecipe retrieves a recipe by ID with its author, tags and ingredients
func (s *RecipeService) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := withRecipeDetails(s.db.WithContext(ctx)).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

// CreateRecipe stores the image, then writes the recipe with its ingredient
// and tag sets in one transaction
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, req *types.CreateRecipeRequest) (*models.Recipe, error) {
	if verr := checkDuplicates(req.Ingredients, req.Tags); !verr.Empty() {
		return nil, verr
	}

	key, err := s.storeImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Image:       key,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, req.Ingredients, req.Tags); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(recipe).Error; err != nil {
			return fmt.Errorf("failed to create recipe: %w", err)
		}
		return replaceSets(tx, recipe.ID, req.Ingredients, req.Tags)
	})
	if err != nil {
		s.discardImage(ctx, key)
		return nil, constraintError(err)
	}

	metrics.RecipeWrites.WithLabelValues("create").Inc()
	logging.Ctx(ctx).Info().Uint("recipe_id", recipe.ID).Msg("recipe created")
	return s.GetRecipe(ctx, recipe.ID)
}

// UpdateRecipe overwrites the scalars present in req and replaces the
// ingredient and tag sets in one transaction
func (s *RecipeService) UpdateRecipe(ctx context.Context, recipe *models.Recipe, req *types.UpdateRecipeRequest) (*models.Recipe, error) {
	if verr := checkDuplicates(req.Ingredients, req.Tags); !verr.Empty() {
		return nil, verr
	}

	updates := map[string]any{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Text != nil {
		updates["text"] = *req.Text
	}
	if req.CookingTime != nil {
		updates["cooking_time"] = *req.CookingTime
	}

	var newKey string
	if req.Image != nil {
		key, err := s.storeImage(ctx, *req.Image)
		if err != nil {
			return nil, err
		}
		newKey = key
		updates["image"] = key
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, req.Ingredients, req.Tags); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Recipe{ID: recipe.ID}).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update recipe: %w", err)
			}
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeTag{}).Error; err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}
		return replaceSets(tx, recipe.ID, req.Ingredients, req.Tags)
	})
	if err != nil {
		if newKey != "" {
			s.discardImage(ctx, newKey)
		}
		return nil, constraintError(err)
	}

	if newKey != "" && recipe.Image != "" && recipe.Image != newKey {
		s.discardImage(ctx, recipe.Image)
	}
	metrics.RecipeWrites.WithLabelValues("update").Inc()
	return s.GetRecipe(ctx, recipe.ID)
}

// DeleteRecipe removes the recipe and every row that references it, then
// its stored image
func (s *RecipeService) DeleteRecipe(ctx context.Context, recipe *models.Recipe) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dep := range []any{
			&models.RecipeIngredient{},
			&models.RecipeTag{},
			&models.Favorite{},
			&models.ShoppingCartItem{},
		} {
			if err := tx.Where("recipe_id = ?", recipe.ID).Delete(dep).Error; err != nil {
				return fmt.Errorf("failed to delete recipe dependents: %w", err)
			}
		}
		res := tx.Delete(&models.Recipe{}, recipe.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to delete recipe: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	if recipe.Image != "" {
		s.discardImage(ctx, recipe.Image)
	}
	metrics.RecipeWrites.WithLabelValues("delete").Inc()
	return nil
}

// constraintError reports CHECK failures (amount, cooking_time) as a
// validation error; the request rules normally catch them first
func constraintError(err error) error {
	if database.IsCheckViolation(err) {
		return NewValidationError("non_field_errors", "Amounts and cooking time must be at least 1.")
	}
	return err
}

func (s *RecipeService) storeImage(ctx context.Context, uri string) (string, error) {
	img, err := storage.DecodeDataURI(uri)
	if errors.Is(err, storage.ErrImageTooLarge) {
		return "", NewValidationError("image", "The image is too large.")
	}
	if err != nil {
		return "", NewValidationError("image", "Upload a valid image.")
	}

	key := storage.NewKey(recipeImagePrefix, img.Ext)
	if err := s.images.Save(ctx, key, img.Data, img.ContentType); err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return key, nil
}

func (s *RecipeService) discardImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("failed to delete image")
	}
}

func checkDuplicates(ingredients []types.IngredientAmount, tags []uint) *ValidationError {
	verr := &ValidationError{}

	seen := make(map[uint]bool, len(ingredients))
	for _, ia := range ingredients {
		if seen[ia.ID] {
			verr.Add("ingredients", "Ingredients must not repeat.")
			break
		}
		seen[ia.ID] = true
	}

	seen = make(map[uint]bool, len(tags))
	for _, id := range tags {
		if seen[id] {
			verr.Add("tags", "Tags must not repeat.")
			break
		}
		seen[id] = true
	}
	return verr
}

// checkReferences rejects ingredient or tag IDs that do not exist
func checkReferences(tx *gorm.DB, ingredients []types.IngredientAmount, tags []uint) error {
	ingredientIDs := make([]uint, len(ingredients))
	for i, ia := range ingredients {
		ingredientIDs[i] = ia.ID
	}

	verr := &ValidationError{}
	missing, err := missingIDs(tx, &models.Ingredient{}, ingredientIDs)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verr.Add("ingredients", fmt.Sprintf("Ingredient with id %d does not exist.", id))
	}

	missing, err = missingIDs(tx, &models.Tag{}, tags)
	if err != nil {
		return err
	}
	for _, id := range missing {
		verr.Add("tags", fmt.Sprintf("Tag with id %d does not exist.", id))
	}

	if !verr.Empty() {
		return verr
	}
	return nil
}

func missingIDs(tx *gorm.DB, model any, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []uint
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return nil, fmt.Errorf("failed to check references: %w", err)
	}
	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	var missing []uint
	for _, id := range ids {
		if !present[id] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// replaceSets inserts the ingredient and tag rows of a recipe
func replaceSets(tx *gorm.DB, recipeID uint, ingredients []types.IngredientAmount, tags []uint) error {
	rows := make([]models.RecipeIngredient, len(ingredients))
	for i, ia := range ingredients {
		rows[i] = models.RecipeIngredient{RecipeID: recipeID, IngredientID: ia.ID, Amount: ia.Amount}
	}
	if err := tx.Omit(clause.Associations).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to write recipe ingredients: %w", err)
	}

	links := make([]models.RecipeTag, len(tags))
	for i, id := range tags {
		links[i] = models.RecipeTag{RecipeID: recipeID, TagID: id}
	}
	if err := tx.Create(&links).Error; err != nil {
		return fmt.Errorf("failed to write recipe tags: %w", err)
	}
	return nil
}
