// Package slug derives URL-safe article filenames from free-text titles.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-pinyin"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonWordRe   = regexp.MustCompile(`[^\w-]+`)
	hyphenRunRe = regexp.MustCompile(`-{2,}`)
)

// pinyinArgs keeps non-Han runes verbatim so mixed-script titles survive
// transliteration.
var pinyinArgs = func() pinyin.Args {
	a := pinyin.NewArgs()
	a.Fallback = func(r rune, _ pinyin.Args) []string {
		return []string{string(r)}
	}
	return a
}()

// Derive converts a title to a filename slug: Han runes become pinyin
// syllables joined with no separator, accented Latin is folded to ASCII,
// every run of non-word characters collapses to a single hyphen, and the
// result is trimmed and lower-cased.
//
// Derive is total and deterministic. Degenerate input produces an empty
// string, which callers must treat as invalid.
func Derive(title string) string {
	s := strings.Join(pinyin.LazyPinyin(title, pinyinArgs), "")
	s = foldAccents(s)
	s = nonWordRe.ReplaceAllString(s, "-")
	s = hyphenRunRe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return strings.ToLower(s)
}

// foldAccents decomposes the string and strips combining marks, turning
// e.g. "café" into "cafe". On transform failure the input is returned as-is;
// the character filter below removes anything left over.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
