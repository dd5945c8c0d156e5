package config

import (
	"github.com/joho/godotenv"
)

// envPaths are tried in order; the first .env that loads wins.
var envPaths = []string{".env", "../.env", "../../.env"}

// LoadDotEnv loads the first .env file found in the candidate locations and
// returns its path, or "" when none was found. Variables already set in the
// process environment are not overridden.
func LoadDotEnv() string {
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			return path
		}
	}
	return ""
}
