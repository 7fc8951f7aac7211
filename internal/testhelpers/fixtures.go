package testhelpers

import (
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// DefaultPassword is the plaintext password of every fixture user
const DefaultPassword = "s3cret-pass"

var seq atomic.Int64

func next() int64 { return seq.Add(1) }

// CreateUser inserts a user with a unique username and email
func CreateUser(t *testing.T, db *gorm.DB, role models.Role) *models.User {
	t.Helper()
	n := next()
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if role == "" {
		role = models.RoleUser
	}
	user := &models.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		Username:     fmt.Sprintf("user%d", n),
		FirstName:    "Test",
		LastName:     fmt.Sprintf("User%d", n),
		PasswordHash: string(hash),
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func CreateTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()
	n := next()
	tag := &models.Tag{
		Name:  "Tag " + slug,
		Color: fmt.Sprintf("#%06X", n),
		Slug:  slug,
	}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}
	return tag
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient: %v", err)
	}
	return ing
}

// Amount pairs an ingredient with a quantity for CreateRecipe
type Amount struct {
	Ingredient *models.Ingredient
	Amount     int
}

// CreateRecipe inserts a recipe with its ingredient rows and tags directly,
// bypassing the service layer.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, tags []*models.Tag, amounts ...Amount) *models.Recipe {
	t.Helper()
	n := next()
	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        fmt.Sprintf("Recipe %d", n),
		Image:       fmt.Sprintf("recipes/%d.png", n),
		Text:        "Mix and bake.",
		CookingTime: 10,
	}
	if err := db.Omit("Tags", "Ingredients", "Author").Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe: %v", err)
	}
	for _, a := range amounts {
		row := &models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: a.Ingredient.ID, Amount: a.Amount}
		if err := db.Omit("Ingredient").Create(row).Error; err != nil {
			t.Fatalf("failed to create recipe ingredient: %v", err)
		}
	}
	for _, tag := range tags {
		if err := db.Create(&models.RecipeTag{RecipeID: recipe.ID, TagID: tag.ID}).Error; err != nil {
			t.Fatalf("failed to tag recipe: %v", err)
		}
	}
	return recipe
}

// PNGDataURI is a 1x1 PNG encoded the way clients upload recipe images
const PNGDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mNkYAAAAAYAAjCB0C8AAAAASUVORK5CYII="
