package gitstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/ansuz/internal/apperr"
)

// MutationKind labels a recorded mutation.
type MutationKind string

const (
	MutationWrite  MutationKind = "write"
	MutationDelete MutationKind = "delete"
)

// Mutation is one recorded write or delete against a Memory store.
type Mutation struct {
	Kind    MutationKind
	Path    string
	Message string
}

// Memory implements Provider with an in-memory file map. It records every
// mutation and supports per-path injected failures, which makes it the spy
// store used throughout the tests.
type Memory struct {
	mu        sync.Mutex
	files     map[string][]byte
	branches  []string
	mutations []Mutation

	// WriteErr and DeleteErr, when set for a path, are returned instead of
	// performing the operation.
	WriteErr  map[string]error
	DeleteErr map[string]error
}

// NewMemory creates an empty in-memory store with a single "main" branch.
func NewMemory() *Memory {
	return &Memory{
		files:     make(map[string][]byte),
		branches:  []string{"main"},
		WriteErr:  make(map[string]error),
		DeleteErr: make(map[string]error),
	}
}

// Seed stores content at path without recording a mutation.
func (m *Memory) Seed(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = content
}

// Mutations returns all recorded writes and deletes in order.
func (m *Memory) Mutations() []Mutation {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Mutation, len(m.mutations))
	copy(out, m.mutations)
	return out
}

// Read returns the stored content at path.
func (m *Memory) Read(_ context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("gitstore: read %s: %w", path, apperr.ErrNotFound)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Write stores content at path and records the mutation.
func (m *Memory) Write(_ context.Context, path string, content []byte, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.WriteErr[path]; err != nil {
		return err
	}
	m.files[path] = append([]byte(nil), content...)
	m.mutations = append(m.mutations, Mutation{Kind: MutationWrite, Path: path, Message: message})
	return nil
}

// Delete removes the file at path and records the mutation.
func (m *Memory) Delete(_ context.Context, path string, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.DeleteErr[path]; err != nil {
		return err
	}
	if _, ok := m.files[path]; !ok {
		return fmt.Errorf("gitstore: delete %s: %w", path, apperr.ErrNotFound)
	}
	delete(m.files, path)
	m.mutations = append(m.mutations, Mutation{Kind: MutationDelete, Path: path, Message: message})
	return nil
}

// ListRecursive returns all stored paths under dir, sorted.
func (m *Memory) ListRecursive(_ context.Context, dir string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := dir
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	var out []string
	for p := range m.files {
		if strings.HasPrefix(p, prefix) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out, nil
}

// ListBranches returns the branch names.
func (m *Memory) ListBranches(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.branches...), nil
}

// CreateBranch appends a branch name.
func (m *Memory) CreateBranch(_ context.Context, name, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.branches = append(m.branches, name)
	return nil
}

// BranchInfo returns synthetic head metadata for a known branch.
func (m *Memory) BranchInfo(_ context.Context, name string) (*BranchInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if name == "" {
		name = m.branches[0]
	}
	for _, b := range m.branches {
		if b == name {
			return &BranchInfo{Name: name, CommitSHA: "0000000", Date: time.Unix(0, 0).UTC()}, nil
		}
	}
	return nil, fmt.Errorf("gitstore: branch %s: %w", name, apperr.ErrNotFound)
}
