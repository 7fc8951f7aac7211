package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

type UserService struct {
	db *gorm.DB
}

var _ IUserService = (*UserService)(nil)

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register creates an account with the default role
func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (*models.User, error) {
	return s.create(ctx, req, models.RoleUser)
}

// CreateAdmin creates an account with the admin role
func (s *UserService) CreateAdmin(ctx context.Context, req *types.RegisterRequest) (*models.User, error) {
	return s.create(ctx, req, models.RoleAdmin)
}

func (s *UserService) create(ctx context.Context, req *types.RegisterRequest, role models.Role) (*models.User, error) {
	db := s.db.WithContext(ctx)
	email := strings.TrimSpace(req.Email)

	verr := &ValidationError{}
	var count int64
	if err := db.Model(&models.User{}).Where("LOWER(email) = ?", strings.ToLower(email)).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if count > 0 {
		verr.Add("email", "A user with that email already exists.")
	}
	if err := db.Model(&models.User{}).Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		verr.Add("username", "A user with that username already exists.")
	}
	if !verr.Empty() {
		return nil, verr
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		Username:     req.Username,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: hash,
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, NewValidationError("username", "A user with that email or username already exists.")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
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

func (s *UserService) ListUsers(ctx context.Context, page Page) ([]models.User, int64, error) {
	db := s.db.WithContext(ctx).Model(&models.User{}).Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := db.Order("id").Limit(page.Limit).Offset(page.Offset).Find(&users).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	return users, total, nil
}

// SetPassword replaces the password after checking the current one
func (s *UserService) SetPassword(ctx context.Context, userID uint, current, next string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if !CheckPassword(user.PasswordHash, current) {
		return ErrWrongPassword
	}
	if current == next {
		return ErrSamePassword
	}

	hash, err := HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	err = s.db.WithContext(ctx).Model(user).Update("password_hash", hash).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// ListSubscriptions returns the authors userID follows, most recent first
func (s *UserService) ListSubscriptions(ctx context.Context, userID uint, page Page) ([]models.User, int64, error) {
	db := s.db.WithContext(ctx).
		Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Session(&gorm.Session{})

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	err := db.Order("subscriptions.id DESC").Limit(page.Limit).Offset(page.Offset).Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return authors, total, nil
}

// AuthorRecipes loads up to limit newest recipes per author plus each author's
// total count. limit <= 0 means no cap.
func (s *UserService) AuthorRecipes(ctx context.Context, authorIDs []uint, limit int) (map[uint][]models.Recipe, map[uint]int64, error) {
	recipes := make(map[uint][]models.Recipe, len(authorIDs))
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return recipes, counts, nil
	}
	db := s.db.WithContext(ctx)

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := db.Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count author recipes: %w", err)
	}
	for _, r := range rows {
		counts[r.AuthorID] = r.Total
	}

	var all []models.Recipe
	if limit > 0 {
		err = db.Raw(newestRecipesPerAuthorQuery, authorIDs, limit).Scan(&all).Error
	} else {
		err = db.Select("id", "author_id", "name", "image", "cooking_time").
			Where("author_id IN ?", authorIDs).
			Order("id DESC").
			Find(&all).Error
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load author recipes: %w", err)
	}
	for _, r := range all {
		recipes[r.AuthorID] = append(recipes[r.AuthorID], r)
	}
	return recipes, counts, nil
}

const newestRecipesPerAuthorQuery = `SELECT id, author_id, name, image, cooking_time
FROM (
	SELECT id, author_id, name, image, cooking_time,
		ROW_NUMBER() OVER (PARTITION BY author_id ORDER BY id DESC) AS rn
	FROM recipes
	WHERE author_id IN ?
) ranked
WHERE rn <= ?
ORDER BY id DESC`
