package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestMembershipService_Favorites(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	members := service.NewMembershipService(db)
	annotator := service.NewAnnotator(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, models.RoleUser)
	reader := testhelpers.CreateUser(t, db, models.RoleUser)
	recipe := testhelpers.CreateRecipe(t, db, author, nil)

	flags := func() service.RecipeFlags {
		got, err := annotator.RecipeFlags(ctx, reader.ID, []uint{recipe.ID})
		require.NoError(t, err)
		return got[recipe.ID]
	}
	before := flags()

	added, err := members.AddFavorite(ctx, reader.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, added.ID)
	assert.True(t, flags().IsFavorited)

	_, err = members.AddFavorite(ctx, reader.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)
	var relErr *service.RelationError
	require.ErrorAs(t, err, &relErr)
	assert.Equal(t, service.RelationFavorite, relErr.Relation)
	assert.Equal(t, "Recipe is already in favorites.", relErr.Error())

	require.NoError(t, members.RemoveFavorite(ctx, reader.ID, recipe.ID))
	assert.Equal(t, before, flags())

	err = members.RemoveFavorite(ctx, reader.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrRelationNotFound)

	_, err = members.AddFavorite(ctx, reader.ID, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.ErrorIs(t, members.RemoveFavorite(ctx, reader.ID, 9999), service.ErrNotFound)
}

func TestMembershipService_Cart(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	members := service.NewMembershipService(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, models.RoleUser)
	reader := testhelpers.CreateUser(t, db, models.RoleUser)
	recipe := testhelpers.CreateRecipe(t, db, author, nil)

	_, err := members.AddToCart(ctx, reader.ID, recipe.ID)
	require.NoError(t, err)
	_, err = members.AddToCart(ctx, reader.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	// the author's own cart is independent
	_, err = members.AddToCart(ctx, author.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, members.RemoveFromCart(ctx, reader.ID, recipe.ID))
	assert.ErrorIs(t, members.RemoveFromCart(ctx, reader.ID, recipe.ID), service.ErrRelationNotFound)
}

func TestMembershipService_Subscriptions(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	members := service.NewMembershipService(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, models.RoleUser)
	reader := testhelpers.CreateUser(t, db, models.RoleUser)

	got, err := members.Subscribe(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, got.ID)

	_, err = members.Subscribe(ctx, reader.ID, author.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	t.Run("self subscription is rejected in every state", func(t *testing.T) {
		_, err := members.Subscribe(ctx, reader.ID, reader.ID)
		assert.ErrorIs(t, err, service.ErrSelfSubscription)
		assert.ErrorIs(t, members.Unsubscribe(ctx, reader.ID, reader.ID), service.ErrSelfSubscription)
	})

	require.NoError(t, members.Unsubscribe(ctx, reader.ID, author.ID))
	assert.ErrorIs(t, members.Unsubscribe(ctx, reader.ID, author.ID), service.ErrRelationNotFound)

	_, err = members.Subscribe(ctx, reader.ID, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestMembershipService_UniqueIndexDecidesRaces(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	members := service.NewMembershipService(db)
	ctx := context.Background()

	author := testhelpers.CreateUser(t, db, models.RoleUser)
	reader := testhelpers.CreateUser(t, db, models.RoleUser)
	recipe := testhelpers.CreateRecipe(t, db, author, nil)

	// a row written behind the service's back still yields ErrAlreadyExists
	require.NoError(t, db.Create(&models.ShoppingCartItem{UserID: reader.ID, RecipeID: recipe.ID}).Error)
	err := db.Create(&models.ShoppingCartItem{UserID: reader.ID, RecipeID: recipe.ID}).Error
	require.Error(t, err)

	_, err = members.AddToCart(ctx, reader.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)
}
