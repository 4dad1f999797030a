package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

const exampleConfig = `# sitegen configuration
source: .
output: _site
layouts_dir: _layouts
exclude:
  - "vendor/**"

site:
  title: My Site
  base_url: ""
  description: ""

defaults:
  layout: default

build:
  clean: false
  workers: 0
  incremental: false
  git_info: false
  drafts: false

markdown:
  unsafe_html: true
  heading_ids: false
  footnotes: true
  sanitize: false

logging:
  level: info
  format: text

serve:
  host: 127.0.0.1
  port: 4000
  live_reload: true
  poll_interval: 0s
  metrics: true

notify:
  nats_url: ""
  subject: sitegen.builds
`

const exampleLayout = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{ page.title }} | {{ site.title }}</title>
  <meta name="description" content="{{ page.excerpt }}">
</head>
<body>
  <main>
{{ content }}
  </main>
</body>
</html>
`

const exampleIndex = `---
layout: default
title: Home
---
# Welcome

This site is built with sitegen.
`

// Scaffold writes a starter config, layout and index page into dir and
// returns the paths it wrote. Existing files are only replaced when force is set.
func Scaffold(dir string, force bool) ([]string, error) {
	files := []struct {
		rel  string
		body string
	}{
		{DefaultFile, exampleConfig},
		{filepath.Join("_layouts", "default.html"), exampleLayout},
		{"index.md", exampleIndex},
	}

	if !force {
		for _, f := range files {
			p := filepath.Join(dir, f.rel)
			if _, err := os.Stat(p); err == nil {
				return nil, ferrors.ValidationError("file already exists (use --force to overwrite)").
					WithContext("path", p).Build()
			} else if !errors.Is(err, fs.ErrNotExist) {
				return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "check existing file").
					WithContext("path", p).Build()
			}
		}
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		p := filepath.Join(dir, f.rel)
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			return written, ferrors.WrapError(err, ferrors.CategoryFileSystem, "create directory").
				WithContext("path", filepath.Dir(p)).Build()
		}
		if err := os.WriteFile(p, []byte(f.body), 0o600); err != nil {
			return written, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write file").
				WithContext("path", p).Build()
		}
		written = append(written, p)
	}
	return written, nil
}
