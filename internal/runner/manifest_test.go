package runner

import (
	"bytes"
	"strings"
	"testing"

	"github.com/flyingbitac/fly-in-docker/internal/assets"
)

func TestManifestRenderUntouchedMatchesTemplate(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest(assets.ModelManifestTemplate)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	if !bytes.Equal(m.Render(), assets.ModelManifestTemplate) {
		t.Fatalf("untouched render must reproduce the template:\n%s", m.Render())
	}
}

func TestManifestAppendKeepsFooterLast(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest(assets.ModelManifestTemplate)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	m.Append("9100_custom_quad")
	m.Append("9101_custom_vtol")

	lines := strings.Split(strings.TrimRight(string(m.Render()), "\n"), "\n")
	if got := lines[len(lines)-1]; got != ")" {
		t.Fatalf("final line mismatch: %q", got)
	}
	if got := lines[len(lines)-2]; got != "\t10016_none_iris" {
		t.Fatalf("penultimate line mismatch: %q", got)
	}
	if got := lines[len(lines)-3]; got != "\t9101_custom_vtol" {
		t.Fatalf("last entry must sit before the footer, got %q", got)
	}
	if got := lines[len(lines)-4]; got != "\t9100_custom_quad" {
		t.Fatalf("entries must keep insertion order, got %q", got)
	}
}

func TestManifestEntries(t *testing.T) {
	t.Parallel()

	m, err := ParseManifest(assets.ModelManifestTemplate)
	if err != nil {
		t.Fatalf("ParseManifest: %v", err)
	}
	m.Append("one")
	m.Append("two")

	got := m.Entries()
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Fatalf("entries mismatch: %v", got)
	}

	// Mutating the returned slice must not leak back into the manifest.
	got[0] = "corrupted"
	if m.Entries()[0] != "one" {
		t.Fatal("Entries must return a copy")
	}
}

func TestParseManifestRejectsShortTemplate(t *testing.T) {
	t.Parallel()

	if _, err := ParseManifest([]byte(")\n")); err == nil {
		t.Fatal("expected error for a template without a footer")
	}
}
