package build

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	ferrors "github.com/rajesh1993/sitegen/internal/foundation/errors"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// WriteFileAtomic writes data to a temporary file next to path and renames
// it into place, so readers never observe a partially written page.
func WriteFileAtomic(path string, data []byte) error {
	return writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

// CopyFile copies src to dst atomically.
func CopyFile(src, dst string) error {
	// #nosec G304 -- src comes from discovery under the source root.
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", berrors.ErrIOFailure, src, err)
	}
	defer func() { _ = in.Close() }()

	return writeAtomic(dst, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}

func writeAtomic(path string, fill func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("%w: create %s: %w", berrors.ErrIOFailure, dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".sitegen-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %w", berrors.ErrIOFailure, dir, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%w: write %s: %w", berrors.ErrIOFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", berrors.ErrIOFailure, path, err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		return fmt.Errorf("%w: chmod %s: %w", berrors.ErrIOFailure, path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: rename into %s: %w", berrors.ErrIOFailure, path, err)
	}
	committed = true
	return nil
}

// removeStale deletes output left behind by an earlier build.
func removeStale(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: remove stale output %s: %w", berrors.ErrIOFailure, path, err)
	}
	return nil
}

// CleanOutput removes the output directory. It refuses to remove a
// directory that is, or contains, the source directory.
func CleanOutput(output, source string) error {
	out, err := filepath.Abs(output)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %w", berrors.ErrIOFailure, output, err)
	}
	src, err := filepath.Abs(source)
	if err != nil {
		return fmt.Errorf("%w: resolve %s: %w", berrors.ErrIOFailure, source, err)
	}
	if contains(out, src) {
		return ferrors.ValidationError("refusing to clean an output directory that contains the source").
			WithContext("output", output).
			WithContext("source", source).
			Build()
	}
	if err := os.RemoveAll(out); err != nil {
		return fmt.Errorf("%w: clean %s: %w", berrors.ErrIOFailure, output, err)
	}
	return nil
}

// contains reports whether path is dir or lies inside it.
func contains(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
