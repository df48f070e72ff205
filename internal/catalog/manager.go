package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/gitstore"
	"github.com/starford/ansuz/internal/slug"
)

// Step names the stage at which an operation ended. Mutating operations run
// a fixed sequence of steps; the terminal step of a failed operation tells
// exactly which residual state the store was left in.
type Step string

const (
	StepValidate      Step = "validate"
	StepReadIndex     Step = "read_index"
	StepWriteIndex    Step = "write_index"
	StepWriteContent  Step = "write_content"
	StepDeleteContent Step = "delete_content"
	StepDone          Step = "done"
)

// Operation names used in errors and the journal.
const (
	OpCreate = "create_article"
	OpUpdate = "update_article"
	OpDelete = "delete_article"
	OpDeploy = "deploy"
)

// OpError reports an operation failure together with its terminal step.
type OpError struct {
	Op   string
	Step Step
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s failed at %s: %v", e.Op, e.Step, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Recorder receives the terminal state of each mutating operation.
type Recorder interface {
	Record(op, path, step, errText string) error
}

// Manager implements the article catalog on top of a remote content store.
// It performs no locking and no rollback: write paths touch the index before
// content, delete touches content last, so a partial failure always leaves a
// predictable state.
type Manager struct {
	store      gitstore.Provider
	recorder   Recorder
	logger     *slog.Logger
	categories []string
	now        func() time.Time
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCategories sets the allowed category names.
func WithCategories(categories []string) ManagerOption {
	return func(m *Manager) { m.categories = categories }
}

// WithRecorder sets the operation journal.
func WithRecorder(r Recorder) ManagerOption {
	return func(m *Manager) { m.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a catalog manager over the given store.
func NewManager(store gitstore.Provider, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:      store,
		logger:     slog.Default(),
		categories: []string{"note", "web3"},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Categories returns the allowed category names.
func (m *Manager) Categories() []string {
	return append([]string(nil), m.categories...)
}

func (m *Manager) validCategory(category string) bool {
	for _, c := range m.categories {
		if c == category {
			return true
		}
	}
	return false
}

func (m *Manager) record(op, path string, step Step, opErr error) {
	if m.recorder == nil {
		return
	}
	errText := ""
	if opErr != nil {
		errText = opErr.Error()
	}
	if err := m.recorder.Record(op, path, string(step), errText); err != nil {
		m.logger.Warn("journal record failed",
			slog.String("op", op), slog.String("error", err.Error()))
	}
}

// fail journals the terminal step and wraps err in an OpError.
func (m *Manager) fail(op, path string, step Step, err error) error {
	m.record(op, path, step, err)
	return &OpError{Op: op, Step: step, Err: err}
}

func (m *Manager) done(op, path string) {
	m.record(op, path, StepDone, nil)
}

// Create derives a filename from title, registers it in the category index,
// then writes the article file. The index is written first: an article file
// never exists without its catalog entry. If the article write fails after
// the index commit the error reports the dangling entry; it is not healed
// automatically.
func (m *Manager) Create(ctx context.Context, title, content, category string) (string, error) {
	if strings.TrimSpace(title) == "" {
		return "", m.fail(OpCreate, "", StepValidate, fmt.Errorf("%w: title is empty", apperr.ErrInvalid))
	}
	if !m.validCategory(category) {
		return "", m.fail(OpCreate, "", StepValidate,
			fmt.Errorf("%w: category must be one of: %s", apperr.ErrInvalid, strings.Join(m.categories, ", ")))
	}
	filename := slug.Derive(title)
	if filename == "" {
		return "", m.fail(OpCreate, "", StepValidate,
			fmt.Errorf("%w: title %q yields an empty filename", apperr.ErrInvalid, title))
	}
	path := ArticlePath(category, filename)

	body := EnsureHeading(title, content) + provenanceFooter(m.now())

	// Absent index starts empty; a corrupt one is rebuilt from scratch.
	// Only a remote-store failure aborts here.
	idx := NewIndex()
	indexPath := IndexPath(category)
	data, err := m.store.Read(ctx, indexPath)
	switch {
	case err == nil:
		parsed, perr := ParseIndex(data)
		if perr != nil {
			m.logger.Warn("corrupt category index, rebuilding",
				slog.String("path", indexPath), slog.String("error", perr.Error()))
		} else {
			idx = parsed
		}
	case errors.Is(err, apperr.ErrNotFound):
		// First article in this category.
	default:
		return "", m.fail(OpCreate, path, StepReadIndex, err)
	}

	idx.Set(filename, title)
	out, err := idx.Marshal()
	if err != nil {
		return "", m.fail(OpCreate, path, StepWriteIndex, err)
	}
	msg := fmt.Sprintf("Add article '%s' to _meta.json", title)
	if err := m.store.Write(ctx, indexPath, out, msg); err != nil {
		return "", m.fail(OpCreate, path, StepWriteIndex, err)
	}

	if err := m.store.Write(ctx, path, []byte(body), "Create new article: "+title); err != nil {
		return "", m.fail(OpCreate, path, StepWriteContent,
			fmt.Errorf("index entry committed but article write failed: %w", err))
	}

	m.done(OpCreate, path)
	return path, nil
}

// Get reads an article directly from the store. The index is not consulted;
// a missing file is apperr.ErrNotFound.
func (m *Manager) Get(ctx context.Context, path string) (string, error) {
	data, err := m.store.Read(ctx, path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Update overwrites an article's content, optionally retitling it in the
// category index first. The index is written before content: a failure in
// between leaves the new title with the old content, never the reverse.
func (m *Manager) Update(ctx context.Context, path, content, newTitle string) error {
	if _, err := m.store.Read(ctx, path); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return m.fail(OpUpdate, path, StepValidate, fmt.Errorf("article %w at %s", apperr.ErrNotFound, path))
		}
		return m.fail(OpUpdate, path, StepValidate, err)
	}

	category, filename, err := ParseArticlePath(path)
	if err != nil {
		return m.fail(OpUpdate, path, StepValidate, err)
	}
	if !m.validCategory(category) {
		return m.fail(OpUpdate, path, StepValidate,
			fmt.Errorf("%w: unknown category %q", apperr.ErrInvalid, category))
	}

	if newTitle != "" {
		indexPath := IndexPath(category)
		data, err := m.store.Read(ctx, indexPath)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return m.fail(OpUpdate, path, StepReadIndex,
					fmt.Errorf("%w %q", apperr.ErrNoIndex, category))
			}
			return m.fail(OpUpdate, path, StepReadIndex, err)
		}
		// Retitling requires a usable index; corruption is an error here,
		// not a recovery case.
		idx, perr := ParseIndex(data)
		if perr != nil {
			return m.fail(OpUpdate, path, StepReadIndex, perr)
		}
		if _, ok := idx.Title(filename); !ok {
			return m.fail(OpUpdate, path, StepReadIndex,
				fmt.Errorf("article %q %w in index of category %q", filename, apperr.ErrNotFound, category))
		}
		idx.Set(filename, newTitle)
		out, err := idx.Marshal()
		if err != nil {
			return m.fail(OpUpdate, path, StepWriteIndex, err)
		}
		msg := fmt.Sprintf("Update article title '%s' in _meta.json", filename)
		if err := m.store.Write(ctx, indexPath, out, msg); err != nil {
			return m.fail(OpUpdate, path, StepWriteIndex, err)
		}
	}

	if err := m.store.Write(ctx, path, []byte(content), "Update article: "+path); err != nil {
		return m.fail(OpUpdate, path, StepWriteContent, err)
	}

	m.done(OpUpdate, path)
	return nil
}

// Delete removes an article. The index entry is removed best-effort first;
// an index failure never blocks the file deletion, whose result is the
// result of the whole operation.
func (m *Manager) Delete(ctx context.Context, path string) error {
	if _, err := m.store.Read(ctx, path); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return m.fail(OpDelete, path, StepValidate, fmt.Errorf("article %w at %s", apperr.ErrNotFound, path))
		}
		return m.fail(OpDelete, path, StepValidate, err)
	}

	category, filename, err := ParseArticlePath(path)
	if err != nil {
		return m.fail(OpDelete, path, StepValidate, err)
	}

	m.removeIndexEntry(ctx, category, filename)

	if err := m.store.Delete(ctx, path, "Delete article: "+path); err != nil {
		return m.fail(OpDelete, path, StepDeleteContent, err)
	}

	m.done(OpDelete, path)
	return nil
}

// removeIndexEntry drops filename from the category index, tolerating a
// missing, corrupt, or unwritable index.
func (m *Manager) removeIndexEntry(ctx context.Context, category, filename string) {
	indexPath := IndexPath(category)
	data, err := m.store.Read(ctx, indexPath)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			m.logger.Warn("index read failed during delete",
				slog.String("path", indexPath), slog.String("error", err.Error()))
		}
		return
	}
	idx, perr := ParseIndex(data)
	if perr != nil {
		m.logger.Warn("corrupt category index, skipping entry removal",
			slog.String("path", indexPath), slog.String("error", perr.Error()))
		return
	}
	if !idx.Remove(filename) {
		return
	}
	out, err := idx.Marshal()
	if err != nil {
		m.logger.Warn("index marshal failed during delete", slog.String("error", err.Error()))
		return
	}
	msg := fmt.Sprintf("Remove article '%s' from _meta.json", filename)
	if err := m.store.Write(ctx, indexPath, out, msg); err != nil {
		m.logger.Warn("index write failed during delete",
			slog.String("path", indexPath), slog.String("error", err.Error()))
	}
}

// List returns path → title for every article registered in the indexes of
// the requested category, or of all configured categories when category is
// empty. Categories whose index is missing or unreadable contribute nothing;
// there is no fallback to a directory listing, so entries that drifted out
// of an index are not reported.
func (m *Manager) List(ctx context.Context, category string) (*orderedmap.OrderedMap[string, string], error) {
	categories := m.categories
	if category != "" {
		if !m.validCategory(category) {
			return nil, &OpError{Op: "list_articles", Step: StepValidate,
				Err: fmt.Errorf("%w: category must be one of: %s", apperr.ErrInvalid, strings.Join(m.categories, ", "))}
		}
		categories = []string{category}
	}

	out := orderedmap.New[string, string]()
	for _, cat := range categories {
		data, err := m.store.Read(ctx, IndexPath(cat))
		if err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				m.logger.Warn("index read failed during list",
					slog.String("category", cat), slog.String("error", err.Error()))
			}
			continue
		}
		idx, perr := ParseIndex(data)
		if perr != nil {
			m.logger.Warn("corrupt category index, skipping",
				slog.String("category", cat), slog.String("error", perr.Error()))
			continue
		}
		idx.Each(func(filename, title string) {
			out.Set(ArticlePath(cat, filename), title)
		})
	}
	return out, nil
}

// Deploy writes the deployment marker unconditionally. The commit message
// carries the @deploy trigger token that CI watches for. Returns the
// version timestamp written.
func (m *Manager) Deploy(ctx context.Context) (string, error) {
	version := m.now().Format(timestampFormat)
	content := "deploy-version: " + version
	if err := m.store.Write(ctx, ".deploy-version", []byte(content), "@deploy"); err != nil {
		return "", m.fail(OpDeploy, ".deploy-version", StepWriteContent, err)
	}
	m.done(OpDeploy, ".deploy-version")
	return version, nil
}
