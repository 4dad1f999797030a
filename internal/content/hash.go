package content

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/inful/mdfp"

	berrors "github.com/rajesh1993/sitegen/internal/build/errors"
	"github.com/rajesh1993/sitegen/internal/frontmatter"
)

// SourceHash computes a deterministic hash over the IDs and contents of
// every file in the inventory. It changes whenever a document, asset or
// layout is added, removed or edited.
func SourceHash(inv *Inventory) (string, error) {
	h := sha256.New()
	for _, group := range [][]Source{inv.Documents, inv.Assets, inv.Layouts} {
		for _, src := range group {
			// #nosec G304 -- paths come from discovery.
			data, err := os.ReadFile(src.Path)
			if err != nil {
				return "", fmt.Errorf("%w: hash %s: %w", berrors.ErrIOFailure, src.ID, err)
			}
			sum := sha256.Sum256(data)
			_, _ = fmt.Fprintf(h, "%s|%s\n", src.ID, hex.EncodeToString(sum[:]))
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fingerprint computes the canonical content fingerprint of a document:
// its front matter serialized with sorted keys (any stored fingerprint
// field excluded) plus its body. Reordering front matter keys does not
// change the fingerprint.
func Fingerprint(d *Document) (string, error) {
	fields := make(map[string]any, len(d.FrontMatter))
	for k, v := range d.FrontMatter {
		if k == mdfp.FingerprintField {
			continue
		}
		fields[k] = v
	}

	fm := ""
	if len(fields) > 0 {
		serialized, err := frontmatter.SerializeYAML(fields)
		if err != nil {
			return "", fmt.Errorf("serialize front matter of %s: %w", d.ID, err)
		}
		fm = string(serialized)
		if len(fm) > 0 && fm[len(fm)-1] == '\n' {
			fm = fm[:len(fm)-1]
		}
	}
	return mdfp.CalculateFingerprintFromParts(fm, string(d.Body)), nil
}
