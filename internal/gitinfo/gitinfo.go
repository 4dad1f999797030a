// Package gitinfo reads per-file history from the git repository that
// contains the site source.
package gitinfo

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"

	"github.com/rajesh1993/sitegen/internal/logfields"
)

type entry struct {
	when time.Time
	ok   bool
}

// Resolver answers last-modified queries for files under the source
// directory. A Resolver for a source outside any repository is disabled
// and answers every query with false. It is safe for concurrent use.
type Resolver struct {
	repo   *git.Repository
	prefix string // source dir relative to the worktree root, slash separated

	mu    sync.Mutex
	cache map[string]entry
}

// Open locates the repository containing sourceDir.
func Open(sourceDir string) (*Resolver, error) {
	abs, err := filepath.Abs(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("resolve source %s: %w", sourceDir, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		slog.Debug("Source is not inside a git repository; git info disabled", logfields.Source(abs))
		return Disabled(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("open git repository for %s: %w", abs, err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	root := wt.Filesystem.Root()
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, fmt.Errorf("locate source in worktree: %w", err)
	}
	prefix := filepath.ToSlash(rel)
	if prefix == "." {
		prefix = ""
	}

	return &Resolver{repo: repo, prefix: prefix, cache: make(map[string]entry)}, nil
}

// Disabled returns a resolver that never reports a modification time.
func Disabled() *Resolver {
	return &Resolver{}
}

// Enabled reports whether the resolver is backed by a repository.
func (r *Resolver) Enabled() bool {
	return r != nil && r.repo != nil
}

// LastModified returns the committer time of the most recent commit that
// touched relPath (relative to the source directory). Files that were
// never committed report false.
func (r *Resolver) LastModified(relPath string) (time.Time, bool) {
	if !r.Enabled() {
		return time.Time{}, false
	}

	name := strings.TrimPrefix(filepath.ToSlash(relPath), "/")
	if r.prefix != "" {
		name = r.prefix + "/" + name
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.cache[name]; ok {
		return e.when, e.ok
	}

	e := r.lookup(name)
	r.cache[name] = e
	return e.when, e.ok
}

func (r *Resolver) lookup(name string) entry {
	head, err := r.repo.Head()
	if err != nil {
		return entry{}
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &name})
	if err != nil {
		slog.Debug("git log failed", logfields.Path(name), logfields.Error(err))
		return entry{}
	}
	defer iter.Close()

	c, err := iter.Next()
	if err != nil {
		return entry{}
	}
	return entry{when: c.Committer.When.UTC(), ok: true}
}
