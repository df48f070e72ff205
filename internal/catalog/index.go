// Package catalog implements the article catalog: filename derivation,
// per-category index maintenance, and the content operations that keep the
// two consistent.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/ansuz/internal/apperr"
)

const (
	pagesDir      = "pages"
	indexFilename = "_meta.json"
)

// Index is a category's filename → title mapping. Insertion order is
// preserved so that serialized output is stable across read-modify-write
// cycles.
type Index struct {
	m *orderedmap.OrderedMap[string, string]
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{m: orderedmap.New[string, string]()}
}

// ParseIndex decodes a _meta.json document. Any structural problem (not an
// object, non-string values, invalid JSON) is an error; recovery policy is
// the caller's concern.
func ParseIndex(data []byte) (*Index, error) {
	ix := NewIndex()
	if err := json.Unmarshal(data, ix.m); err != nil {
		return nil, fmt.Errorf("catalog: parse index: %w", err)
	}
	return ix, nil
}

// Marshal serializes the index as indented JSON, preserving entry order.
func (ix *Index) Marshal() ([]byte, error) {
	out, err := json.MarshalIndent(ix.m, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("catalog: marshal index: %w", err)
	}
	return out, nil
}

// Set inserts or overwrites the title for filename.
func (ix *Index) Set(filename, title string) {
	ix.m.Set(filename, title)
}

// Title returns the registered title for filename.
func (ix *Index) Title(filename string) (string, bool) {
	return ix.m.Get(filename)
}

// Remove deletes the entry for filename, reporting whether it was present.
func (ix *Index) Remove(filename string) bool {
	_, existed := ix.m.Delete(filename)
	return existed
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return ix.m.Len()
}

// Each calls fn for every entry in insertion order.
func (ix *Index) Each(fn func(filename, title string)) {
	for pair := ix.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// IndexPath returns the repository path of a category's index file.
func IndexPath(category string) string {
	return pagesDir + "/" + category + "/" + indexFilename
}

// ArticlePath returns the repository path for an article file.
func ArticlePath(category, filename string) string {
	return pagesDir + "/" + category + "/" + filename + ".md"
}

// ParseArticlePath splits a path of the exact shape
// pages/<category>/<filename>.md. Any other shape is invalid.
func ParseArticlePath(path string) (category, filename string, err error) {
	parts := strings.Split(path, "/")
	if len(parts) != 3 || parts[0] != pagesDir {
		return "", "", fmt.Errorf("%w: expected pages/<category>/<filename>.md, got %q", apperr.ErrInvalid, path)
	}
	category = parts[1]
	filename = strings.TrimSuffix(parts[2], ".md")
	if category == "" || filename == "" || filename == parts[2] {
		return "", "", fmt.Errorf("%w: expected pages/<category>/<filename>.md, got %q", apperr.ErrInvalid, path)
	}
	return category, filename, nil
}
