package types

// LoginRequest is the body of POST /auth/token/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the body of POST /users
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,password"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,password"`
}

// IngredientAmount references an existing ingredient in a recipe payload
type IngredientAmount struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount" binding:"required,min=1"`
}

// CreateRecipeRequest is the body of POST /recipes.
// Image is a base64 data URI.
type CreateRecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []uint             `json:"tags" binding:"required,min=1,dive,required"`
	Image       string             `json:"image" binding:"required"`
	Name        string             `json:"name" binding:"required,max=200"`
	Text        string             `json:"text" binding:"required"`
	CookingTime int                `json:"cooking_time" binding:"required,min=1"`
}

// UpdateRecipeRequest is the body of PATCH /recipes/:id.
// Scalars are optional; the ingredient and tag sets are always replaced.
type UpdateRecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients" binding:"required,min=1,dive"`
	Tags        []uint             `json:"tags" binding:"required,min=1,dive,required"`
	Image       *string            `json:"image" binding:"omitempty,min=1"`
	Name        *string            `json:"name" binding:"omitempty,min=1,max=200"`
	Text        *string            `json:"text" binding:"omitempty,min=1"`
	CookingTime *int               `json:"cooking_time" binding:"omitempty,min=1"`
}

// TagInput is one entry of the seed tags file
type TagInput struct {
	Name  string `json:"name" validate:"required,max=200"`
	Color string `json:"color" validate:"required,tagcolor"`
	Slug  string `json:"slug" validate:"required,max=200,slug"`
}

// IngredientInput is one entry of the seed ingredients file
type IngredientInput struct {
	Name            string `json:"name" validate:"required,max=200"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=200"`
}
