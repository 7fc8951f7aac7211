package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"github.com/pageza/foodgram/backend/internal/validation"
)

type TagService struct {
	db *gorm.DB
}

var _ ITagService = (*TagService)(nil)

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

func (s *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := s.db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

func (s *TagService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.WithContext(ctx).First(&tag, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tag: %w", err)
	}
	return &tag, nil
}

// UpsertTags validates inputs and inserts them, updating name and color of
// tags whose slug already exists. It returns the number of rows written.
func (s *TagService) UpsertTags(ctx context.Context, inputs []types.TagInput) (int64, error) {
	if len(inputs) == 0 {
		return 0, nil
	}
	tags := make([]models.Tag, len(inputs))
	for i, in := range inputs {
		if err := validation.Struct(in); err != nil {
			return 0, fmt.Errorf("tag %d (%q): %w", i, in.Slug, err)
		}
		tags[i] = models.Tag{Name: in.Name, Color: in.Color, Slug: in.Slug}
	}

	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "color"}),
	}).Create(&tags)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to upsert tags: %w", res.Error)
	}
	return res.RowsAffected, nil
}
