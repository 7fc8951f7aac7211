package types

// UserResponse is the public representation of a user
type UserResponse struct {
	Email        string `json:"email"`
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// CreatedUserResponse is returned by registration; it has no is_subscribed
type CreatedUserResponse struct {
	Email     string `json:"email"`
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type TagResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type IngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type RecipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeResponse is the full read representation of a recipe
type RecipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []TagResponse              `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

// ShortRecipeResponse is used for favorites, the cart and subscriptions
type ShortRecipeResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// SubscriptionResponse is an author as seen from the subscriptions list
type SubscriptionResponse struct {
	UserResponse
	Recipes      []ShortRecipeResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}

type TokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// PageResponse wraps a paginated listing
type PageResponse[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}
