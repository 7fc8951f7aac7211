package service_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestShoppingListService(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	members := service.NewMembershipService(db)
	shopping := service.NewShoppingListService(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, models.RoleUser)
	buyer := testhelpers.CreateUser(t, db, models.RoleUser)
	flour := testhelpers.CreateIngredient(t, db, "Flour", "g")
	milk := testhelpers.CreateIngredient(t, db, "Milk", "ml")

	first := testhelpers.CreateRecipe(t, db, author, nil,
		testhelpers.Amount{Ingredient: flour, Amount: 200},
		testhelpers.Amount{Ingredient: milk, Amount: 100})
	second := testhelpers.CreateRecipe(t, db, author, nil,
		testhelpers.Amount{Ingredient: flour, Amount: 300})

	render := func(lines []service.ShoppingListLine) string {
		var buf bytes.Buffer
		require.NoError(t, shopping.Render(&buf, lines))
		return buf.String()
	}

	t.Run("empty cart", func(t *testing.T) {
		lines, err := shopping.ShoppingList(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Empty(t, lines)
		assert.Equal(t, "", render(lines))
	})

	_, err := members.AddToCart(ctx, buyer.ID, first.ID)
	require.NoError(t, err)
	_, err = members.AddToCart(ctx, buyer.ID, second.ID)
	require.NoError(t, err)
	// someone else's cart is not included
	_, err = members.AddToCart(ctx, author.ID, first.ID)
	require.NoError(t, err)

	lines, err := shopping.ShoppingList(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, []service.ShoppingListLine{
		{Name: "Flour", Amount: 500, Unit: "g"},
		{Name: "Milk", Amount: 100, Unit: "ml"},
	}, lines)
	assert.Equal(t, "Flour - 500 g.\nMilk - 100 ml.", render(lines))

	t.Run("removing a recipe subtracts its contribution", func(t *testing.T) {
		require.NoError(t, members.RemoveFromCart(ctx, buyer.ID, second.ID))

		lines, err := shopping.ShoppingList(ctx, buyer.ID)
		require.NoError(t, err)
		assert.Equal(t, []service.ShoppingListLine{
			{Name: "Flour", Amount: 200, Unit: "g"},
			{Name: "Milk", Amount: 100, Unit: "ml"},
		}, lines)
	})
}
