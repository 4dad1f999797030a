package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b-1", BuildID("b-1")},
		{"Document", KeyDocument, "posts/generators.md", Document("posts/generators.md")},
		{"Layout", KeyLayout, "page", Layout("page")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"Output", KeyOutput, "_site/index.html", Output("_site/index.html")},
		{"Source", KeySource, ".", Source(".")},
		{"Stage", KeyStage, "render", Stage("render")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"URL", KeyURL, "/index.html", URL("/index.html")},
		{"Outcome", KeyOutcome, "success", Outcome("success")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if tc.attr.Value.String() != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %s", tc.name, tc.attrVal, tc.attr.Value.String())
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Count(3); a.Key != KeyCount || a.Value.Int64() != 3 {
		t.Fatalf("unexpected count attr %v", a)
	}
	if a := Worker(2); a.Key != KeyWorker || a.Value.Int64() != 2 {
		t.Fatalf("unexpected worker attr %v", a)
	}
	if a := DurationMS(1.5); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Fatalf("unexpected duration attr %v", a)
	}
}

func TestError(t *testing.T) {
	if a := Error(nil); a.Value.String() != "" {
		t.Fatalf("expected empty error value, got %q", a.Value.String())
	}
	if a := Error(errors.New("boom")); a.Key != KeyError || a.Value.String() != "boom" {
		t.Fatalf("unexpected error attr %v", a)
	}
}
