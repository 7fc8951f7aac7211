package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrRelationNotFound   = errors.New("relation not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrSelfSubscription   = errors.New("cannot subscribe to yourself")
	ErrInvalidCredentials = errors.New("unable to log in with provided credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSamePassword       = errors.New("new password must differ from the current one")
	ErrForbidden          = errors.New("you do not have permission to perform this action")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// ValidationError carries field-level messages for a rejected payload
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError with one message
func NewValidationError(field, msg string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Empty reports whether no field has been rejected
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], " ")))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Relation names a user-to-target membership table
type Relation string

const (
	RelationFavorite     Relation = "favorite"
	RelationShoppingCart Relation = "shopping_cart"
	RelationSubscription Relation = "subscription"
)

// RelationError is a membership toggle failure with a client-facing message.
// It unwraps to ErrAlreadyExists, ErrRelationNotFound or ErrSelfSubscription.
type RelationError struct {
	Relation Relation
	Err      error
}

var relationMessages = map[Relation]map[error]string{
	RelationFavorite: {
		ErrAlreadyExists:    "Recipe is already in favorites.",
		ErrRelationNotFound: "Recipe is not in favorites.",
	},
	RelationShoppingCart: {
		ErrAlreadyExists:    "Recipe is already in the shopping cart.",
		ErrRelationNotFound: "Recipe is not in the shopping cart.",
	},
	RelationSubscription: {
		ErrAlreadyExists:    "You are already subscribed to this author.",
		ErrRelationNotFound: "You are not subscribed to this author.",
		ErrSelfSubscription: "You cannot subscribe to yourself.",
	},
}

func (e *RelationError) Error() string {
	if msg, ok := relationMessages[e.Relation][e.Err]; ok {
		return msg
	}
	return fmt.Sprintf("%s: %v", e.Relation, e.Err)
}

func (e *RelationError) Unwrap() error {
	return e.Err
}
