package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// RecipeFlags are the viewer-relative membership flags of one recipe
type RecipeFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
}

// Annotator resolves derived flags for a whole result set in one query
type Annotator struct {
	db *gorm.DB
}

var _ IAnnotator = (*Annotator)(nil)

func NewAnnotator(db *gorm.DB) *Annotator {
	return &Annotator{db: db}
}

const recipeFlagsQuery = `SELECT r.id AS recipe_id,
	EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?) AS is_favorited,
	EXISTS (SELECT 1 FROM shopping_cart_items c WHERE c.recipe_id = r.id AND c.user_id = ?) AS is_in_shopping_cart
FROM recipes r
WHERE r.id IN ?`

// RecipeFlags returns flags keyed by recipe ID. Recipes absent from the map
// carry no flags, which is also the answer for an anonymous viewer.
func (a *Annotator) RecipeFlags(ctx context.Context, viewerID uint, recipeIDs []uint) (map[uint]RecipeFlags, error) {
	flags := make(map[uint]RecipeFlags, len(recipeIDs))
	if viewerID == 0 || len(recipeIDs) == 0 {
		return flags, nil
	}

	var rows []struct {
		RecipeID         uint
		IsFavorited      bool
		IsInShoppingCart bool
	}
	if err := a.db.WithContext(ctx).Raw(recipeFlagsQuery, viewerID, viewerID, recipeIDs).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to resolve recipe flags: %w", err)
	}
	for _, r := range rows {
		flags[r.RecipeID] = RecipeFlags{IsFavorited: r.IsFavorited, IsInShoppingCart: r.IsInShoppingCart}
	}
	return flags, nil
}

// SubscribedAuthors reports which of authorIDs the viewer follows
func (a *Annotator) SubscribedAuthors(ctx context.Context, viewerID uint, authorIDs []uint) (map[uint]bool, error) {
	subscribed := make(map[uint]bool, len(authorIDs))
	if viewerID == 0 || len(authorIDs) == 0 {
		return subscribed, nil
	}

	var ids []uint
	err := a.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", viewerID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subscriptions: %w", err)
	}
	for _, id := range ids {
		subscribed[id] = true
	}
	return subscribed, nil
}
