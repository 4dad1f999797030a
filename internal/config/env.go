package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

// Environment variables that override config file values.
const (
	EnvSource   = "SITEGEN_SOURCE"
	EnvOutput   = "SITEGEN_OUTPUT"
	EnvLogLevel = "SITEGEN_LOG_LEVEL"
)

// loadEnvFiles loads .env.local then .env from dir. godotenv never
// overrides variables that are already set, so the process environment
// wins over .env.local, which wins over .env.
func loadEnvFiles(dir string) error {
	for _, name := range []string{".env.local", ".env"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "load environment file").
				WithContext("path", p).Build()
		}
	}
	return nil
}

func applyEnv(c *Config) {
	if v := os.Getenv(EnvSource); v != "" {
		c.Source = v
	}
	if v := os.Getenv(EnvOutput); v != "" {
		c.Output = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = LogLevel(v)
	}
}
