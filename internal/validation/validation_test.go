package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/types"
)

type account struct {
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,password"`
}

func TestUsernameRule(t *testing.T) {
	cases := map[string]bool{
		"chef_anna":  true,
		"a.b+c@d-e":  true,
		"me":         false,
		"ME":         false,
		"has space":  false,
		"semi;colon": false,
	}
	for name, ok := range cases {
		err := Struct(account{Username: name, Password: "longenough1"})
		if ok {
			assert.NoError(t, err, name)
		} else {
			assert.Error(t, err, name)
		}
	}
}

func TestPasswordRule(t *testing.T) {
	assert.NoError(t, Struct(account{Username: "x", Password: "abcdefgh"}))
	assert.Error(t, Struct(account{Username: "x", Password: "short1"}))
	assert.Error(t, Struct(account{Username: "x", Password: "1234567890"}))
}

func TestTagInputRules(t *testing.T) {
	assert.NoError(t, Struct(types.TagInput{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"}))
	assert.NoError(t, Struct(types.TagInput{Name: "Lunch", Color: "#abc", Slug: "lunch"}))

	err := Struct(types.TagInput{Name: "Bad", Color: "#abcd", Slug: "has space"})
	require.Error(t, err)
	fields := FieldErrors(err)
	assert.Contains(t, fields, "color")
	assert.Contains(t, fields, "slug")
}

func TestFieldErrorsUsesJSONNames(t *testing.T) {
	err := Struct(account{Username: "me", Password: "1"})
	require.Error(t, err)

	fields := FieldErrors(err)
	require.Contains(t, fields, "username")
	require.Contains(t, fields, "password")
	assert.Equal(t, `Username "me" is reserved.`, fields["username"][0])
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, FieldErrors(assert.AnError))
}
