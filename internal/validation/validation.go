// Package validation registers the custom request rules on validator/v10
// and converts its errors into field-keyed messages.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	tagColorPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// MinPasswordLength is the shortest accepted password
const MinPasswordLength = 8

// ReservedUsername cannot be registered because /users/me shadows it
const ReservedUsername = "me"

// Register installs the custom rules and json field naming on v
func Register(v *validator.Validate) error {
	v.RegisterTagNameFunc(jsonFieldName)

	rules := map[string]validator.Func{
		"username": validUsername,
		"password": validPassword,
		"tagcolor": validTagColor,
		"slug":     validSlug,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// RegisterGin installs the rules on gin's default binding engine
func RegisterGin() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not validator/v10")
	}
	return Register(v)
}

var (
	std     *validator.Validate
	stdOnce sync.Once
)

// Struct validates s with `validate` tags, outside of gin binding
func Struct(s any) error {
	stdOnce.Do(func() {
		std = validator.New(validator.WithRequiredStructEnabled())
		if err := Register(std); err != nil {
			panic(err)
		}
	})
	return std.Struct(s)
}

func jsonFieldName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

func validUsername(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return usernamePattern.MatchString(s) && !strings.EqualFold(s, ReservedUsername)
}

func validPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len([]rune(s)) < MinPasswordLength {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func validTagColor(fl validator.FieldLevel) bool {
	return tagColorPattern.MatchString(fl.Field().String())
}

func validSlug(fl validator.FieldLevel) bool {
	return slugPattern.MatchString(fl.Field().String())
}

// FieldErrors converts validator errors to {"field": ["message"]}.
// Returns nil if err is not a validation error.
func FieldErrors(err error) map[string][]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		key := fieldPath(fe)
		out[key] = append(out[key], Message(fe))
	}
	return out
}

// fieldPath drops the top-level struct name from the namespace:
// CreateRecipeRequest.ingredients[0].amount -> ingredients[0].amount
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

// Message renders a single field error for API clients
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this list has at least %s item(s).", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	case "username":
		if strings.EqualFold(fmt.Sprint(fe.Value()), ReservedUsername) {
			return fmt.Sprintf("Username %q is reserved.", ReservedUsername)
		}
		return "Enter a valid username. Letters, digits and @/./+/-/_ only."
	case "password":
		return fmt.Sprintf("Password must be at least %d characters and not entirely numeric.", MinPasswordLength)
	case "tagcolor":
		return "Enter a valid HEX color, e.g. #E26C2D."
	case "slug":
		return "Enter a valid slug of letters, numbers, underscores or hyphens."
	default:
		return fmt.Sprintf("Failed on the %q rule.", fe.Tag())
	}
}
