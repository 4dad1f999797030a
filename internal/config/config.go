// Package config loads sitegen.yaml.
//
// Values are resolved in order of precedence: command-line arguments (applied
// by the CLI after loading), environment variables, the config file, and
// built-in defaults. Before the file is read, .env.local and .env next to it
// are loaded into the process environment without overriding variables that
// are already set, and ${VAR} references in the file are expanded.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

// DefaultFile is the config file looked up when none is given explicitly.
const DefaultFile = "sitegen.yaml"

// Config represents the sitegen configuration.
type Config struct {
	Source     string   `yaml:"source"`
	Output     string   `yaml:"output"`
	LayoutsDir string   `yaml:"layouts_dir"`
	Exclude    []string `yaml:"exclude,omitempty"`

	Site     SiteConfig     `yaml:"site"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Build    BuildConfig    `yaml:"build"`
	Markdown MarkdownConfig `yaml:"markdown"`
	Logging  LoggingConfig  `yaml:"logging"`
	Serve    ServeConfig    `yaml:"serve"`
	Notify   NotifyConfig   `yaml:"notify"`

	// path of the file this config was read from; empty for defaults.
	file string
}

// SiteConfig holds values exposed to layouts as {{ site.* }}.
type SiteConfig struct {
	Title       string         `yaml:"title"`
	BaseURL     string         `yaml:"base_url"`
	Description string         `yaml:"description"`
	Params      map[string]any `yaml:"params,omitempty"`
}

// DefaultsConfig holds per-document defaults.
type DefaultsConfig struct {
	// Layout is used by documents whose front matter has no layout key.
	Layout string `yaml:"layout"`
}

// BuildConfig controls the build pipeline.
type BuildConfig struct {
	Clean       bool   `yaml:"clean"`
	Workers     int    `yaml:"workers"` // 0 means runtime.NumCPU()
	Incremental bool   `yaml:"incremental"`
	CachePath   string `yaml:"cache_path"`
	GitInfo     bool   `yaml:"git_info"`
	Drafts      bool   `yaml:"drafts"`
}

// MarkdownConfig controls the markdown renderer.
type MarkdownConfig struct {
	UnsafeHTML bool `yaml:"unsafe_html"`
	HeadingIDs bool `yaml:"heading_ids"`
	Footnotes  bool `yaml:"footnotes"`
	Sanitize   bool `yaml:"sanitize"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// ServeConfig controls the preview server.
type ServeConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	LiveReload   bool          `yaml:"live_reload"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Metrics      bool          `yaml:"metrics"`
}

// NotifyConfig controls build notifications.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Source:     ".",
		LayoutsDir: "_layouts",
		Build: BuildConfig{
			CachePath: filepath.Join(".sitegen", "cache.db"),
		},
		Markdown: MarkdownConfig{
			UnsafeHTML: true,
			Footnotes:  true,
		},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
		Serve: ServeConfig{
			Host:       "127.0.0.1",
			Port:       4000,
			LiveReload: true,
			Metrics:    true,
		},
		Notify: NotifyConfig{
			Subject: "sitegen.builds",
		},
	}
}

// Load reads the config file at path. A missing file is an error.
func Load(path string) (*Config, error) {
	return load(path, false)
}

// LoadOptional reads the config file at path, falling back to defaults
// (plus environment overrides) when it does not exist.
func LoadOptional(path string) (*Config, error) {
	return load(path, true)
}

func load(path string, optional bool) (*Config, error) {
	if err := loadEnvFiles(filepath.Dir(path)); err != nil {
		return nil, err
	}

	cfg := Default()

	// #nosec G304 -- path is the config file named on the command line.
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist) && optional:
	case errors.Is(err, fs.ErrNotExist):
		return nil, ferrors.ConfigError("configuration file not found").WithContext("path", path).Build()
	case err != nil:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "read configuration file").
			WithContext("path", path).Build()
	default:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "parse configuration file").
				WithContext("path", path).Build()
		}
		cfg.file = path
		cfg.resolveFilePaths(filepath.Dir(path))
	}

	applyEnv(cfg)
	cfg.normalize()
	return cfg, nil
}

// File returns the path of the loaded config file, or "" for defaults.
func (c *Config) File() string { return c.file }

// resolveFilePaths makes source and output relative to the config file's
// directory rather than the working directory.
func (c *Config) resolveFilePaths(dir string) {
	if dir == "." || dir == "" {
		return
	}
	if c.Source != "" && !filepath.IsAbs(c.Source) {
		c.Source = filepath.Join(dir, c.Source)
	}
	if c.Output != "" && !filepath.IsAbs(c.Output) {
		c.Output = filepath.Join(dir, c.Output)
	}
}

// DefaultOutputDir is the output directory, under the source, used when none is configured.
const DefaultOutputDir = "_site"

// OutputDir is the configured output directory, or _site under the source.
func (c *Config) OutputDir() string {
	if c.Output != "" {
		return c.Output
	}
	return filepath.Join(c.Source, DefaultOutputDir)
}

// LayoutsPath is the layouts directory, resolved against the source.
func (c *Config) LayoutsPath() string {
	return resolveUnder(c.Source, c.LayoutsDir)
}

// CachePath is the build cache database path, resolved against the source.
func (c *Config) CachePath() string {
	return resolveUnder(c.Source, c.Build.CachePath)
}

func resolveUnder(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func (c *Config) String() string {
	return fmt.Sprintf("source=%s output=%s layouts=%s", c.Source, c.OutputDir(), c.LayoutsPath())
}
