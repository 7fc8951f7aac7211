package config

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a Config
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, v := range e {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "\n")
}

// ValidateConfig checks cfg against the requirements of its environment
func ValidateConfig(cfg *Config) error {
	var errs ValidationErrors

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			errs = append(errs, ValidationError{"DB_HOST", "is required"})
		}
		if cfg.DBName == "" {
			errs = append(errs, ValidationError{"DB_NAME", "is required"})
		}
		if cfg.Env == Production && cfg.DBPassword == "" {
			errs = append(errs, ValidationError{"db_password", "secret is required in production"})
		}
	case "sqlite":
		if cfg.SQLitePath == "" {
			errs = append(errs, ValidationError{"SQLITE_PATH", "is required"})
		}
	default:
		errs = append(errs, ValidationError{"DB_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	switch cfg.StorageDriver {
	case "s3":
		if cfg.S3Bucket == "" {
			errs = append(errs, ValidationError{"S3_BUCKET_NAME", "is required for s3 storage"})
		}
	case "disk":
		if cfg.MediaDir == "" {
			errs = append(errs, ValidationError{"MEDIA_DIR", "is required for disk storage"})
		}
	default:
		errs = append(errs, ValidationError{"STORAGE_DRIVER", fmt.Sprintf("unsupported driver %q", cfg.StorageDriver)})
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"jwt_secret", "secret is required"})
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, ValidationError{"TOKEN_TTL", "must be positive"})
	}
	if cfg.RecipeCreateLimit <= 0 || cfg.RecipeCreateWindow <= 0 {
		errs = append(errs, ValidationError{"RECIPE_CREATE_LIMIT", "limit and window must be positive"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// IsValidationError reports whether err carries configuration validation failures
func IsValidationError(err error) bool {
	var one ValidationError
	var many ValidationErrors
	return errors.As(err, &one) || errors.As(err, &many)
}
