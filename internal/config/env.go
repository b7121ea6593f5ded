package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// EnvLogLevel overrides logging.level when set.
const EnvLogLevel = "SLIDEBUILDER_LOG_LEVEL"

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads the first existing .env file. Variables already present in the
// process environment are not overwritten.
func loadEnvFiles() {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			fmt.Fprintf(os.Stderr, "Note: could not load %s: %v\n", path, err)
			continue
		}
		return
	}
}

func applyEnvOverrides(cfg *Config) {
	if raw := os.Getenv(EnvLogLevel); raw != "" {
		if lvl, err := logLevelNormalizer.NormalizeWithError(raw); err == nil {
			cfg.Logging.Level = lvl
		}
	}
}
