// Package config loads and validates the environment configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// minProductionSecretLen keeps the derived cookie keys at full strength.
const minProductionSecretLen = 32

// ValidateEnv validates that all required environment variables are set
func ValidateEnv(requiredVars []string) error {
	var missing []string

	for _, varName := range requiredVars {
		if os.Getenv(varName) == "" {
			missing = append(missing, varName)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	return nil
}

// ValidateSessionSecret ensures the cookie secret is present, and long enough
// when running in production.
func ValidateSessionSecret(secret string, production bool) error {
	if secret == "" {
		return errors.New("SESSION_SECRET is required")
	}

	if production && len(secret) < minProductionSecretLen {
		return fmt.Errorf("SESSION_SECRET must be at least %d bytes in production", minProductionSecretLen)
	}

	return nil
}

// GetEnvOrDefault retrieves an environment variable or returns a default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// MustGetEnv retrieves an environment variable or panics
func MustGetEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}
