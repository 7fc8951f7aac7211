package service

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/metrics"
)

// ShoppingListLine is the total amount of one ingredient across the cart
type ShoppingListLine struct {
	Name   string
	Amount int64
	Unit   string
}

func (l ShoppingListLine) String() string {
	return fmt.Sprintf("%s - %d %s.", l.Name, l.Amount, l.Unit)
}

type ShoppingListService struct {
	db *gorm.DB
}

var _ IShoppingListService = (*ShoppingListService)(nil)

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// ShoppingList sums ingredient amounts over every recipe in the user's cart
func (s *ShoppingListService) ShoppingList(ctx context.Context, userID uint) ([]ShoppingListLine, error) {
	var lines []ShoppingListLine
	err := s.db.WithContext(ctx).
		Table("shopping_cart_items AS c").
		Select("i.name AS name, SUM(ri.amount) AS amount, i.measurement_unit AS unit").
		Joins("JOIN recipe_ingredients ri ON ri.recipe_id = c.recipe_id").
		Joins("JOIN ingredients i ON i.id = ri.ingredient_id").
		Where("c.user_id = ?", userID).
		Group("i.id, i.name, i.measurement_unit").
		Order("i.name, i.measurement_unit").
		Scan(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to build shopping list: %w", err)
	}
	return lines, nil
}

// Render writes one line per ingredient
func (s *ShoppingListService) Render(w io.Writer, lines []ShoppingListLine) error {
	bw := bufio.NewWriter(w)
	for i, line := range lines {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(line.String()); err != nil {
			return err
		}
	}
	metrics.ShoppingListDownloads.Inc()
	return bw.Flush()
}
