package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const APIKeyEnv = "OPENAI_API_KEY"

// ErrMissingAPIKey is fatal at startup.
var ErrMissingAPIKey = errors.New(APIKeyEnv + " not set")

// LoadAPIKey reads OPENAI_API_KEY after loading the given dotenv files (".env" when none are given).
// Variables already present in the environment win over file values. Missing files are ignored.
func LoadAPIKey(envFiles ...string) (string, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	key := os.Getenv(APIKeyEnv)
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}
