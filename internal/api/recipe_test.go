package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

type recipeEnv struct {
	*testEnv
	author *models.User
	other  *models.User
	admin  *models.User
	flour  *models.Ingredient
	milk   *models.Ingredient
	tag    *models.Tag
}

func setupRecipeTest(t *testing.T) *recipeEnv {
	env := setupTestRouter(t)
	return &recipeEnv{
		testEnv: env,
		author:  testhelpers.CreateUser(t, env.db, models.RoleUser),
		other:   testhelpers.CreateUser(t, env.db, models.RoleUser),
		admin:   testhelpers.CreateUser(t, env.db, models.RoleAdmin),
		flour:   testhelpers.CreateIngredient(t, env.db, "Flour", "g"),
		milk:    testhelpers.CreateIngredient(t, env.db, "Milk", "ml"),
		tag:     testhelpers.CreateTag(t, env.db, "breakfast"),
	}
}

func (e *recipeEnv) payload() map[string]any {
	return map[string]any{
		"ingredients":  []map[string]any{{"id": e.flour.ID, "amount": 500}, {"id": e.milk.ID, "amount": 100}},
		"tags":         []uint{e.tag.ID},
		"image":        testhelpers.PNGDataURI,
		"name":         "Pancakes",
		"text":         "Whisk and fry.",
		"cooking_time": 15,
	}
}

func TestCreateRecipe(t *testing.T) {
	env := setupRecipeTest(t)
	token := env.tokenFor(t, env.author)

	w := env.PerformRequest(http.MethodPost, "/api/recipes", env.payload(), "")
	assertStatus(t, http.StatusUnauthorized, w)

	w = env.PerformRequest(http.MethodPost, "/api/recipes", env.payload(), token)
	assertStatus(t, http.StatusCreated, w)
	recipe := decode[types.RecipeResponse](t, w)
	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, env.author.ID, recipe.Author.ID)
	assert.False(t, recipe.Author.IsSubscribed)
	assert.False(t, recipe.IsFavorited)
	assert.False(t, recipe.IsInShoppingCart)
	assert.True(t, strings.HasPrefix(recipe.Image, "http://testserver/media/recipes/"))
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "breakfast", recipe.Tags[0].Slug)
	assert.Equal(t, []types.RecipeIngredientResponse{
		{ID: env.flour.ID, Name: "Flour", MeasurementUnit: "g", Amount: 500},
		{ID: env.milk.ID, Name: "Milk", MeasurementUnit: "ml", Amount: 100},
	}, recipe.Ingredients)

	tests := []struct {
		name   string
		modify func(map[string]any)
		field  string
	}{
		{"missing tags", func(p map[string]any) { delete(p, "tags") }, "tags"},
		{"empty ingredients", func(p map[string]any) { p["ingredients"] = []any{} }, "ingredients"},
		{"zero amount", func(p map[string]any) {
			p["ingredients"] = []map[string]any{{"id": env.flour.ID, "amount": 0}}
		}, "ingredients[0].amount"},
		{"zero cooking time", func(p map[string]any) { p["cooking_time"] = 0 }, "cooking_time"},
		{"unknown ingredient", func(p map[string]any) {
			p["ingredients"] = []map[string]any{{"id": 9999, "amount": 1}}
		}, "ingredients"},
		{"duplicate ingredient", func(p map[string]any) {
			p["ingredients"] = []map[string]any{{"id": env.flour.ID, "amount": 1}, {"id": env.flour.ID, "amount": 2}}
		}, "ingredients"},
		{"duplicate tag", func(p map[string]any) { p["tags"] = []uint{env.tag.ID, env.tag.ID} }, "tags"},
		{"bad image", func(p map[string]any) { p["image"] = "not an image" }, "image"},
		{"long name", func(p map[string]any) { p["name"] = strings.Repeat("x", 201) }, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := env.payload()
			tt.modify(p)
			w := env.PerformRequest(http.MethodPost, "/api/recipes", p, token)
			assertStatus(t, http.StatusBadRequest, w)
			assert.Contains(t, decode[map[string][]string](t, w), tt.field)
		})
	}
}

func TestRecipePermissions(t *testing.T) {
	env := setupRecipeTest(t)
	recipe := testhelpers.CreateRecipe(t, env.db, env.author, []*models.Tag{env.tag},
		testhelpers.Amount{Ingredient: env.flour, Amount: 100})
	path := fmt.Sprintf("/api/recipes/%d", recipe.ID)

	update := map[string]any{
		"ingredients": []map[string]any{{"id": env.milk.ID, "amount": 250}},
		"tags":        []uint{env.tag.ID},
		"name":        "Renamed",
	}

	w := env.PerformRequest(http.MethodPatch, path, update, "")
	assertStatus(t, http.StatusUnauthorized, w)

	w = env.PerformRequest(http.MethodPatch, path, update, env.tokenFor(t, env.other))
	assertStatus(t, http.StatusForbidden, w)
	assert.JSONEq(t, `{"detail":"You do not have permission to perform this action."}`, w.Body.String())

	w = env.PerformRequest(http.MethodPatch, path, update, env.tokenFor(t, env.admin))
	assertStatus(t, http.StatusOK, w)
	updated := decode[types.RecipeResponse](t, w)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, []types.RecipeIngredientResponse{
		{ID: env.milk.ID, Name: "Milk", MeasurementUnit: "ml", Amount: 250},
	}, updated.Ingredients)

	w = env.PerformRequest(http.MethodGet, path, nil, "")
	assertStatus(t, http.StatusOK, w)
	assert.Equal(t, updated.Ingredients, decode[types.RecipeResponse](t, w).Ingredients)

	t.Run("update requires the ingredient and tag sets", func(t *testing.T) {
		w := env.PerformRequest(http.MethodPatch, path, map[string]any{"name": "Only a name"}, env.tokenFor(t, env.author))
		assertStatus(t, http.StatusBadRequest, w)
	})

	t.Run("failed update keeps the old ingredients", func(t *testing.T) {
		bad := map[string]any{
			"ingredients": []map[string]any{{"id": 9999, "amount": 1}},
			"tags":        []uint{env.tag.ID},
		}
		w := env.PerformRequest(http.MethodPatch, path, bad, env.tokenFor(t, env.author))
		assertStatus(t, http.StatusBadRequest, w)

		w = env.PerformRequest(http.MethodGet, path, nil, "")
		assert.Equal(t, updated.Ingredients, decode[types.RecipeResponse](t, w).Ingredients)
	})

	t.Run("revoked admin role applies before the token expires", func(t *testing.T) {
		demoted := testhelpers.CreateUser(t, env.db, models.RoleAdmin)
		token := env.tokenFor(t, demoted)
		require.NoError(t, env.db.Model(demoted).Update("role", models.RoleUser).Error)

		w := env.PerformRequest(http.MethodPatch, path, update, token)
		assertStatus(t, http.StatusForbidden, w)
		w = env.PerformRequest(http.MethodDelete, path, nil, token)
		assertStatus(t, http.StatusForbidden, w)
	})

	t.Run("promoted user gains write access", func(t *testing.T) {
		promoted := testhelpers.CreateUser(t, env.db, models.RoleUser)
		token := env.tokenFor(t, promoted)
		require.NoError(t, env.db.Model(promoted).Update("role", models.RoleAdmin).Error)

		w := env.PerformRequest(http.MethodPatch, path, update, token)
		assertStatus(t, http.StatusOK, w)
	})

	w = env.PerformRequest(http.MethodDelete, path, nil, env.tokenFor(t, env.other))
	assertStatus(t, http.StatusForbidden, w)

	w = env.PerformRequest(http.MethodDelete, path, nil, env.tokenFor(t, env.author))
	assertStatus(t, http.StatusNoContent, w)

	w = env.PerformRequest(http.MethodGet, path, nil, "")
	assertStatus(t, http.StatusNotFound, w)
	assert.JSONEq(t, `{"detail":"Not found."}`, w.Body.String())
}

func TestListRecipes(t *testing.T) {
	env := setupRecipeTest(t)
	dinner := testhelpers.CreateTag(t, env.db, "dinner")
	lunch := testhelpers.CreateTag(t, env.db, "lunch")

	var ids []uint
	for i := 0; i < 7; i++ {
		tags := []*models.Tag{env.tag}
		switch i {
		case 0:
			tags = []*models.Tag{dinner, lunch}
		case 1:
			tags = []*models.Tag{lunch}
		}
		ids = append(ids, testhelpers.CreateRecipe(t, env.db, env.author, tags).ID)
	}
	token := env.tokenFor(t, env.other)
	require.NoError(t, env.db.Create(&models.Favorite{UserID: env.other.ID, RecipeID: ids[3]}).Error)

	t.Run("default page", func(t *testing.T) {
		w := env.PerformRequest(http.MethodGet, "/api/recipes", nil, "")
		assertStatus(t, http.StatusOK, w)
		page := decode[types.PageResponse[types.RecipeResponse]](t, w)
		assert.Equal(t, int64(7), page.Count)
		require.Len(t, page.Results, 6)
		assert.Equal(t, ids[6], page.Results[0].ID)
		require.NotNil(t, page.Next)
		assert.Equal(t, "http://testserver/api/recipes?page=2", *page.Next)
		assert.Nil(t, page.Previous)
		for _, r := range page.Results {
			assert.False(t, r.IsFavorited)
			assert.False(t, r.IsInShoppingCart)
		}
	})

	t.Run("last page", func(t *testing.T) {
		w := env.PerformRequest(http.MethodGet, "/api/recipes?page=2", nil, "")
		assertStatus(t, http.StatusOK, w)
		page := decode[types.PageResponse[types.RecipeResponse]](t, w)
		require.Len(t, page.Results, 1)
		assert.Nil(t, page.Next)
		require.NotNil(t, page.Previous)
		assert.Equal(t, "http://testserver/api/recipes", *page.Previous)
	})

	t.Run("invalid page", func(t *testing.T) {
		for _, q := range []string{
			"page=3", "page=0", "page=abc",
			"page=9223372036854775807",
			"page=99999999999999999999",
			"page=3074457345618258604&limit=3",
		} {
			w := env.PerformRequest(http.MethodGet, "/api/recipes?"+q, nil, "")
			assertStatus(t, http.StatusNotFound, w)
			assert.JSONEq(t, `{"detail":"Invalid page."}`, w.Body.String())
		}
	})

	t.Run("tags union", func(t *testing.T) {
		w := env.PerformRequest(http.MethodGet, "/api/recipes?tags=dinner&tags=lunch", nil, "")
		assertStatus(t, http.StatusOK, w)
		page := decode[types.PageResponse[types.RecipeResponse]](t, w)
		assert.Equal(t, int64(2), page.Count)
		require.Len(t, page.Results, 2)
		assert.Equal(t, ids[1], page.Results[0].ID)
		assert.Equal(t, ids[0], page.Results[1].ID)
	})

	t.Run("viewer flags", func(t *testing.T) {
		w := env.PerformRequest(http.MethodGet, "/api/recipes?is_favorited=1", nil, token)
		assertStatus(t, http.StatusOK, w)
		page := decode[types.PageResponse[types.RecipeResponse]](t, w)
		require.Len(t, page.Results, 1)
		assert.Equal(t, ids[3], page.Results[0].ID)
		assert.True(t, page.Results[0].IsFavorited)

		w = env.PerformRequest(http.MethodGet, "/api/recipes?is_favorited=true", nil, "")
		assertStatus(t, http.StatusOK, w)
		assert.Equal(t, int64(0), decode[types.PageResponse[types.RecipeResponse]](t, w).Count)

		w = env.PerformRequest(http.MethodGet, "/api/recipes?is_favorited=0&limit=100", nil, token)
		assert.Equal(t, int64(7), decode[types.PageResponse[types.RecipeResponse]](t, w).Count)
	})

	t.Run("author", func(t *testing.T) {
		w := env.PerformRequest(http.MethodGet, fmt.Sprintf("/api/recipes?author=%d", env.other.ID), nil, "")
		assertStatus(t, http.StatusOK, w)
		assert.Equal(t, int64(0), decode[types.PageResponse[types.RecipeResponse]](t, w).Count)
	})
}

func TestFavoriteAndCart(t *testing.T) {
	env := setupRecipeTest(t)
	recipe := testhelpers.CreateRecipe(t, env.db, env.author, nil,
		testhelpers.Amount{Ingredient: env.flour, Amount: 200})
	token := env.tokenFor(t, env.other)

	for _, rel := range []string{"favorite", "shopping_cart"} {
		t.Run(rel, func(t *testing.T) {
			path := fmt.Sprintf("/api/recipes/%d/%s", recipe.ID, rel)

			w := env.PerformRequest(http.MethodPost, path, nil, "")
			assertStatus(t, http.StatusUnauthorized, w)

			w = env.PerformRequest(http.MethodPost, path, nil, token)
			assertStatus(t, http.StatusCreated, w)
			short := decode[types.ShortRecipeResponse](t, w)
			assert.Equal(t, recipe.ID, short.ID)
			assert.Equal(t, recipe.Name, short.Name)

			w = env.PerformRequest(http.MethodPost, path, nil, token)
			assertStatus(t, http.StatusBadRequest, w)
			assert.Contains(t, decode[map[string]string](t, w), "errors")

			w = env.PerformRequest(http.MethodDelete, path, nil, token)
			assertStatus(t, http.StatusNoContent, w)

			w = env.PerformRequest(http.MethodDelete, path, nil, token)
			assertStatus(t, http.StatusNotFound, w)

			w = env.PerformRequest(http.MethodPost, fmt.Sprintf("/api/recipes/9999/%s", rel), nil, token)
			assertStatus(t, http.StatusNotFound, w)
		})
	}
}

func TestDownloadShoppingCart(t *testing.T) {
	env := setupRecipeTest(t)
	token := env.tokenFor(t, env.other)
	first := testhelpers.CreateRecipe(t, env.db, env.author, nil,
		testhelpers.Amount{Ingredient: env.flour, Amount: 200},
		testhelpers.Amount{Ingredient: env.milk, Amount: 100})
	second := testhelpers.CreateRecipe(t, env.db, env.author, nil,
		testhelpers.Amount{Ingredient: env.flour, Amount: 300})

	w := env.PerformRequest(http.MethodGet, "/api/recipes/download_shopping_cart", nil, "")
	assertStatus(t, http.StatusUnauthorized, w)

	w = env.PerformRequest(http.MethodGet, "/api/recipes/download_shopping_cart", nil, token)
	assertStatus(t, http.StatusOK, w)
	assert.Empty(t, w.Body.String())

	for _, r := range []*models.Recipe{first, second} {
		w = env.PerformRequest(http.MethodPost, fmt.Sprintf("/api/recipes/%d/shopping_cart", r.ID), nil, token)
		assertStatus(t, http.StatusCreated, w)
	}

	w = env.PerformRequest(http.MethodGet, "/api/recipes/download_shopping_cart", nil, token)
	assertStatus(t, http.StatusOK, w)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=shopping_cart.txt", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Flour - 500 g.\nMilk - 100 ml.", w.Body.String())
}
