package slug

import (
	"regexp"
	"testing"
)

var slugShapeRe = regexp.MustCompile(`^[a-z0-9_]+(-[a-z0-9_]+)*$`)

func TestDerive(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"Hello  World", "hello-world"},
		{"  Leading and trailing!  ", "leading-and-trailing"},
		{"UPPER case", "upper-case"},
		{"already-a-slug", "already-a-slug"},
		{"with_underscore", "with_underscore"},
		{"Go 1.25 Notes", "go-1-25-notes"},
		{"你好", "nihao"},
		{"你好 world", "nihao-world"},
		{"区块链入门", "qukuailianrumen"},
		{"café déjà vu", "cafe-deja-vu"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tc := range cases {
		got := Derive(tc.title)
		if got != tc.want {
			t.Errorf("Derive(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestDeriveShape(t *testing.T) {
	titles := []string{
		"Hello World", "你好世界", "Mixed 中文 and English", "a--b---c", "-x-",
	}
	for _, title := range titles {
		got := Derive(title)
		if got == "" {
			continue
		}
		if !slugShapeRe.MatchString(got) {
			t.Errorf("Derive(%q) = %q, does not match slug shape", title, got)
		}
	}
}

func TestDeriveIdempotent(t *testing.T) {
	titles := []string{"Hello World", "你好", "café déjà vu", "a b c"}
	for _, title := range titles {
		once := Derive(title)
		twice := Derive(once)
		if once != twice {
			t.Errorf("Derive not idempotent for %q: %q then %q", title, once, twice)
		}
	}
}
