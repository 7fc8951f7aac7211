package models

import (
	"time"
)

type Recipe struct {
	ID          uint               `gorm:"primaryKey"`
	AuthorID    uint               `gorm:"not null;index"`
	Author      User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Name        string             `gorm:"size:200;not null"`
	Image       string             `gorm:"size:255;not null"`
	Text        string             `gorm:"type:text;not null"`
	CookingTime int                `gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	Ingredients []RecipeIngredient `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// RecipeIngredient is the amount of one ingredient used by a recipe
type RecipeIngredient struct {
	ID           uint       `gorm:"primaryKey"`
	RecipeID     uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient"`
	IngredientID uint       `gorm:"not null;uniqueIndex:idx_recipe_ingredient;index"`
	Ingredient   Ingredient `gorm:"constraint:OnDelete:CASCADE"`
	Amount       int        `gorm:"not null;check:chk_recipe_ingredient_amount,amount >= 1"`
}

// RecipeTag is a row of the recipe_tags join table
type RecipeTag struct {
	RecipeID uint `gorm:"primaryKey"`
	TagID    uint `gorm:"primaryKey"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}

type Favorite struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_favorite_user_recipe;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

type ShoppingCartItem struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe"`
	RecipeID  uint   `gorm:"not null;uniqueIndex:idx_cart_user_recipe;index"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Recipe    Recipe `gorm:"constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

// All lists every model in dependency order for auto-migration
func All() []any {
	return []any{
		&User{},
		&Tag{},
		&Ingredient{},
		&Recipe{},
		&RecipeIngredient{},
		&Favorite{},
		&ShoppingCartItem{},
		&Subscription{},
	}
}
