package config

import (
	"path/filepath"
	"strings"
)

// normalize canonicalizes enum-like values and trims path fields. Unknown
// log levels and formats are left in place for Validate to report.
func (c *Config) normalize() {
	c.Source = filepath.Clean(strings.TrimSpace(c.Source))
	if out := strings.TrimSpace(c.Output); out != "" {
		c.Output = filepath.Clean(out)
	}
	c.LayoutsDir = strings.TrimSpace(c.LayoutsDir)
	c.Defaults.Layout = strings.TrimSpace(c.Defaults.Layout)

	if lvl, err := logLevelNormalizer.NormalizeWithError(string(c.Logging.Level)); err == nil {
		c.Logging.Level = lvl
	}
	if f, err := logFormatNormalizer.NormalizeWithError(string(c.Logging.Format)); err == nil {
		c.Logging.Format = f
	}
	if c.Notify.Subject == "" {
		c.Notify.Subject = Default().Notify.Subject
	}
}

// SetSource overrides the source directory (command-line precedence).
func (c *Config) SetSource(dir string) {
	if dir != "" {
		c.Source = filepath.Clean(dir)
	}
}

// SetOutput overrides the output directory (command-line precedence).
func (c *Config) SetOutput(dir string) {
	if dir != "" {
		c.Output = filepath.Clean(dir)
	}
}
