package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// APIKeys holds the remote-service credentials loaded from the
// environment. Empty fields mean the matching feature is unavailable.
type APIKeys struct {
	OpenAI string
	Gemini string
}

// LoadEnv loads environment variables from a .env file if one exists.
// Missing files are not an error; system-wide environment variables
// work the same way.
func LoadEnv() error {
	envPaths := []string{
		".env",
		".env.local",
		"../.env",
		"../../.env",
	}

	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("error loading %s file: %w", envPath, err)
			}
			break
		}
	}

	return nil
}

// GetAPIKeys retrieves API keys from the environment and fails fast on
// keys that are present but malformed.
func GetAPIKeys() (*APIKeys, error) {
	apiKeys := &APIKeys{
		OpenAI: strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Gemini: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
	}

	if apiKeys.OpenAI != "" {
		if !strings.HasPrefix(apiKeys.OpenAI, "sk-") {
			return nil, fmt.Errorf("invalid OPENAI_API_KEY format: must start with 'sk-'")
		}
		if len(apiKeys.OpenAI) < 20 {
			return nil, fmt.Errorf("invalid OPENAI_API_KEY format: too short")
		}
	}

	if apiKeys.Gemini != "" {
		if !strings.HasPrefix(apiKeys.Gemini, "AIza") {
			return nil, fmt.Errorf("invalid GEMINI_API_KEY format: must start with 'AIza'")
		}
		if len(apiKeys.Gemini) < 30 {
			return nil, fmt.Errorf("invalid GEMINI_API_KEY format: too short")
		}
	}

	return apiKeys, nil
}

// RequireAPIKeys fails fast for operations that cannot run without at
// least one configured key (semantic search, summarization).
func RequireAPIKeys(apiKeys *APIKeys) error {
	if apiKeys.OpenAI == "" && apiKeys.Gemini == "" {
		return fmt.Errorf("this operation requires an API key - set OPENAI_API_KEY or GEMINI_API_KEY in the environment or .env file")
	}
	return nil
}

// InitializeConfig loads the .env file and validates the configured
// API keys. This is the CLI entry point's first call.
func InitializeConfig() (*APIKeys, error) {
	if err := LoadEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	apiKeys, err := GetAPIKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to get API keys: %w", err)
	}

	return apiKeys, nil
}

// GetProjectRoot finds the project root directory by looking for go.mod.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("could not find project root (go.mod not found)")
}

// GetEnv returns the environment variable value or a default.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt returns an integer environment variable or a default when
// unset or unparsable.
func GetEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// GetEnvBool returns a boolean environment variable, treating "true",
// "1" and "yes" as true.
func GetEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}
