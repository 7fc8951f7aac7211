package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

type IngredientService struct {
	db *gorm.DB
}

var _ IIngredientService = (*IngredientService)(nil)

func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchIngredients matches names starting with prefix, ignoring case.
// An empty prefix returns every ingredient.
func (s *IngredientService) SearchIngredients(ctx context.Context, prefix string) ([]models.Ingredient, error) {
	db := s.db.WithContext(ctx)
	if prefix != "" {
		pattern := likeEscaper.Replace(strings.ToLower(prefix)) + "%"
		db = db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	}

	var ingredients []models.Ingredient
	if err := db.Order("name").Order("id").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to search ingredients: %w", err)
	}
	return ingredients, nil
}

func (s *IngredientService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	err := s.db.WithContext(ctx).First(&ingredient, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ingredient: %w", err)
	}
	return &ingredient, nil
}

// BulkCreate inserts ingredients in batches, skipping (name, unit) pairs
// that already exist. It returns the number of new rows.
func (s *IngredientService) BulkCreate(ctx context.Context, inputs []types.IngredientInput, batchSize int) (int64, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	rows := make([]models.Ingredient, len(inputs))
	for i, in := range inputs {
		if err := validation.Struct(in); err != nil {
			return 0, fmt.Errorf("ingredient %d (%q): %w", i, in.Name, err)
		}
		rows[i] = models.Ingredient{Name: in.Name, MeasurementUnit: in.MeasurementUnit}
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&rows, batchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to create ingredients: %w", res.Error)
	}
	return res.RowsAffected, nil
}
