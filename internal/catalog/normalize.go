package catalog

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

const timestampFormat = "2006-01-02 15:04:05"

var markdown = goldmark.New()

// hasLeadingHeading reports whether the document's first block is a level-1
// heading.
func hasLeadingHeading(content []byte) bool {
	doc := markdown.Parser().Parse(text.NewReader(content))
	first := doc.FirstChild()
	if first == nil {
		return false
	}
	h, ok := first.(*ast.Heading)
	return ok && h.Level == 1
}

// EnsureHeading prepends "# <title>" plus a blank line unless the content
// already opens with a level-1 heading. An existing heading is never
// touched, so the function is idempotent.
func EnsureHeading(title, content string) string {
	if strings.TrimSpace(content) != "" && hasLeadingHeading([]byte(content)) {
		return content
	}
	return "# " + title + "\n\n" + content
}

// provenanceFooter is appended to every created article.
func provenanceFooter(ts time.Time) string {
	return fmt.Sprintf("\n\n---\n> This article was created by AI at %s and is for reference only.",
		ts.Format(timestampFormat))
}
