package config

import (
	"os"
	"strings"
)

// Environment represents the current runtime environment
type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	CI          Environment = "ci"
	Production  Environment = "production"
)

// GetEnvironment determines the current environment.
// CI=true always wins; otherwise ENV selects, defaulting to development.
func GetEnvironment() Environment {
	if os.Getenv("CI") == "true" {
		return CI
	}

	switch strings.ToLower(os.Getenv("ENV")) {
	case "production", "prod":
		return Production
	case "test":
		return Test
	default:
		return Development
	}
}
