// Package gitstore defines the remote content store abstraction over a
// hosted Git repository.
package gitstore

import (
	"context"
	"time"
)

// BranchInfo describes the head state of a branch.
type BranchInfo struct {
	Name      string    `json:"name"`
	CommitSHA string    `json:"commit_sha"`
	Message   string    `json:"commit_message"`
	Author    string    `json:"commit_author"`
	Date      time.Time `json:"commit_date"`
	Protected bool      `json:"protected"`
}

// Provider is the interface for repository file and branch operations.
// All paths are relative to the repository root; every write-like call
// produces a commit with the given message on the working branch.
type Provider interface {
	// Read returns the raw content of the file at path.
	// A missing file yields apperr.ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)
	// Write creates or updates the file at path.
	Write(ctx context.Context, path string, content []byte, message string) error
	// Delete removes the file at path.
	Delete(ctx context.Context, path string, message string) error
	// ListRecursive returns every file path under dir, walking subdirectories.
	ListRecursive(ctx context.Context, dir string) ([]string, error)
	// ListBranches returns the names of all branches.
	ListBranches(ctx context.Context) ([]string, error)
	// CreateBranch creates a branch from the named source branch,
	// or from the working branch when from is empty.
	CreateBranch(ctx context.Context, name, from string) error
	// BranchInfo returns head metadata for the named branch,
	// or for the working branch when name is empty.
	BranchInfo(ctx context.Context, name string) (*BranchInfo, error)
}
