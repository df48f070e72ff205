package catalog

import (
	"strings"
	"testing"
)

func TestEnsureHeadingPrepends(t *testing.T) {
	got := EnsureHeading("Hello World", "Some body")
	if got != "# Hello World\n\nSome body" {
		t.Errorf("got %q", got)
	}
}

func TestEnsureHeadingKeepsExisting(t *testing.T) {
	content := "# Original Title\n\nBody text"
	got := EnsureHeading("Different Title", content)
	if got != content {
		t.Errorf("existing heading was touched: %q", got)
	}
}

func TestEnsureHeadingIgnoresLowerLevels(t *testing.T) {
	got := EnsureHeading("Title", "## Subheading\n\nBody")
	if !strings.HasPrefix(got, "# Title\n\n") {
		t.Errorf("level-2 heading should not count: %q", got)
	}
}

func TestEnsureHeadingEmptyContent(t *testing.T) {
	got := EnsureHeading("Title", "")
	if got != "# Title\n\n" {
		t.Errorf("got %q", got)
	}
}

func TestEnsureHeadingLeadingBlankLines(t *testing.T) {
	content := "\n\n# Heading\n\nBody"
	got := EnsureHeading("Other", content)
	if got != content {
		t.Errorf("heading after blank lines should count: %q", got)
	}
}

func TestEnsureHeadingIdempotent(t *testing.T) {
	inputs := []string{"Some body", "# Own Heading\n\nbody", "", "## sub\nbody"}
	for _, content := range inputs {
		once := EnsureHeading("T", content)
		twice := EnsureHeading("T", once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q then %q", content, once, twice)
		}
	}
}
