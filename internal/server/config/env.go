package config

import (
	"errors"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// dotenvFile is loaded, when present, before the environment is read.
// Variables already set in the process environment win.
var dotenvFile = ".env"

// parseEnv overlays values from environment variables named by the env tags
// on Config. Unset variables leave the current value untouched.
func parseEnv(config *Config) {
	// a missing .env is the normal case outside local runs
	_ = godotenv.Load(dotenvFile)

	err := envdecode.Decode(config)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		panic(err)
	}
}
