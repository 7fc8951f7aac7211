package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
)

// MembershipService toggles favorites, shopping cart items and subscriptions.
// The existence check is a fast path; the unique index decides races.
type MembershipService struct {
	db *gorm.DB
}

var _ IMembershipService = (*MembershipService)(nil)

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

func (s *MembershipService) AddFavorite(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	row := &models.Favorite{UserID: userID, RecipeID: recipeID}
	if err := s.add(ctx, RelationFavorite, row, "user_id = ? AND recipe_id = ?", userID, recipeID); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *MembershipService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}
	return s.remove(ctx, RelationFavorite, &models.Favorite{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

func (s *MembershipService) AddToCart(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.recipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	row := &models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
	if err := s.add(ctx, RelationShoppingCart, row, "user_id = ? AND recipe_id = ?", userID, recipeID); err != nil {
		return nil, err
	}
	return recipe, nil
}

func (s *MembershipService) RemoveFromCart(ctx context.Context, userID, recipeID uint) error {
	if _, err := s.recipe(ctx, recipeID); err != nil {
		return err
	}
	return s.remove(ctx, RelationShoppingCart, &models.ShoppingCartItem{}, "user_id = ? AND recipe_id = ?", userID, recipeID)
}

// Subscribe makes userID follow authorID and returns the author
func (s *MembershipService) Subscribe(ctx context.Context, userID, authorID uint) (*models.User, error) {
	author, err := s.user(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if userID == authorID {
		return nil, &RelationError{Relation: RelationSubscription, Err: ErrSelfSubscription}
	}
	row := &models.Subscription{UserID: userID, AuthorID: authorID}
	if err := s.add(ctx, RelationSubscription, row, "user_id = ? AND author_id = ?", userID, authorID); err != nil {
		return nil, err
	}
	return author, nil
}

func (s *MembershipService) Unsubscribe(ctx context.Context, userID, authorID uint) error {
	if _, err := s.user(ctx, authorID); err != nil {
		return err
	}
	if userID == authorID {
		return &RelationError{Relation: RelationSubscription, Err: ErrSelfSubscription}
	}
	return s.remove(ctx, RelationSubscription, &models.Subscription{}, "user_id = ? AND author_id = ?", userID, authorID)
}

func (s *MembershipService) add(ctx context.Context, rel Relation, row any, query string, args ...any) error {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(row).Where(query, args...).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check %s: %w", rel, err)
	}
	if count > 0 {
		return &RelationError{Relation: rel, Err: ErrAlreadyExists}
	}

	if err := db.Omit(clause.Associations).Create(row).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return &RelationError{Relation: rel, Err: ErrAlreadyExists}
		}
		return fmt.Errorf("failed to add %s: %w", rel, err)
	}
	metrics.MembershipChanges.WithLabelValues(string(rel), "add").Inc()
	return nil
}

func (s *MembershipService) remove(ctx context.Context, rel Relation, model any, query string, args ...any) error {
	res := s.db.WithContext(ctx).Where(query, args...).Delete(model)
	if res.Error != nil {
		return fmt.Errorf("failed to remove %s: %w", rel, res.Error)
	}
	if res.RowsAffected == 0 {
		return &RelationError{Relation: rel, Err: ErrRelationNotFound}
	}
	metrics.MembershipChanges.WithLabelValues(string(rel), "remove").Inc()
	return nil
}

func (s *MembershipService) recipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).First(&recipe, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

func (s *MembershipService) user(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}
