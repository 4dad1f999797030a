package config

import (
	"fmt"
	"path/filepath"
	"strings"

	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

// Validate checks the configuration after all overrides are applied.
func (c *Config) Validate() error {
	if c.Source == "" {
		return ferrors.ConfigError("source directory is required").Build()
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if c.LayoutsDir == "" {
		return ferrors.ConfigError("layouts_dir must not be empty").Build()
	}
	if c.Build.Workers < 0 {
		return ferrors.ConfigError("build.workers must not be negative").
			WithContext("workers", c.Build.Workers).Build()
	}
	if c.Build.Incremental && c.Build.CachePath == "" {
		return ferrors.ConfigError("build.cache_path is required for incremental builds").Build()
	}
	if _, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid logging.level").Build()
	}
	if _, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format)); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid logging.format").Build()
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return ferrors.ConfigError("serve.port out of range").WithContext("port", c.Serve.Port).Build()
	}
	if c.Serve.PollInterval < 0 {
		return ferrors.ConfigError("serve.poll_interval must not be negative").Build()
	}
	return nil
}

// validatePaths rejects an output directory that would overwrite or
// contain the source tree; cleaning it would delete the site's sources.
func (c *Config) validatePaths() error {
	src, err := filepath.Abs(c.Source)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve source directory").Build()
	}
	out, err := filepath.Abs(c.OutputDir())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "resolve output directory").Build()
	}
	if out == src || isWithin(src, out) {
		return ferrors.ConfigError(fmt.Sprintf("output directory %s must not contain the source directory", c.OutputDir())).
			WithContext("source", c.Source).
			WithContext("output", c.OutputDir()).
			Build()
	}
	return nil
}

// isWithin reports whether path lies strictly inside dir.
func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
