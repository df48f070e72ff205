package gitstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"

	"github.com/starford/ansuz/internal/apperr"
)

// GitHub implements Provider backed by the GitHub contents API.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	branch string // working branch, resolved at construction
}

// ParseRepo extracts "owner", "name" from either an "owner/name" slug or a
// full repository URL such as https://github.com/owner/name.
func ParseRepo(raw string) (owner, name string, err error) {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		parts := strings.Split(s, "/")
		if len(parts) < 2 {
			return "", "", fmt.Errorf("gitstore: malformed repository URL: %s", raw)
		}
		owner, name = parts[len(parts)-2], parts[len(parts)-1]
	} else {
		parts := strings.Split(s, "/")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("gitstore: repository must be owner/name or a URL: %s", raw)
		}
		owner, name = parts[0], parts[1]
	}
	name = strings.TrimSuffix(name, ".git")
	if owner == "" || name == "" {
		return "", "", fmt.Errorf("gitstore: repository must be owner/name or a URL: %s", raw)
	}
	return owner, name, nil
}

// NewGitHub creates a GitHub provider for the given repository. When branch
// is empty the repository's default branch is resolved and used.
func NewGitHub(ctx context.Context, repoURL, token, branch string) (*GitHub, error) {
	owner, name, err := ParseRepo(repoURL)
	if err != nil {
		return nil, err
	}

	g := &GitHub{
		client: github.NewClient(nil).WithAuthToken(token),
		owner:  owner,
		repo:   name,
		branch: branch,
	}

	if g.branch == "" {
		repo, _, err := g.client.Repositories.Get(ctx, owner, name)
		if err != nil {
			return nil, fmt.Errorf("gitstore: access repository %s/%s: %w", owner, name, err)
		}
		g.branch = repo.GetDefaultBranch()
	}
	return g, nil
}

// Branch returns the working branch name.
func (g *GitHub) Branch() string { return g.branch }

// isNotFound reports whether err is a GitHub 404 response.
func isNotFound(err error) bool {
	var ge *github.ErrorResponse
	return errors.As(err, &ge) && ge.Response != nil && ge.Response.StatusCode == http.StatusNotFound
}

// Read returns the decoded content of the file at path on the working branch.
func (g *GitHub) Read(ctx context.Context, path string) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: g.branch}
	file, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, opts)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("gitstore: read %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("gitstore: read %s: %w", path, err)
	}
	if file == nil {
		// Path resolved to a directory.
		return nil, fmt.Errorf("gitstore: read %s: %w", path, apperr.ErrNotFound)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("gitstore: decode %s: %w", path, err)
	}
	return []byte(content), nil
}

// Write creates or updates path with a commit. Existence is decided by a
// contents lookup: a known blob SHA means update, otherwise create.
func (g *GitHub) Write(ctx context.Context, path string, content []byte, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(g.branch),
	}

	file, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("gitstore: stat %s: %w", path, err)
	}

	if err == nil && file != nil {
		opts.SHA = github.String(file.GetSHA())
		if _, _, err := g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, path, opts); err != nil {
			return fmt.Errorf("gitstore: update %s: %w", path, err)
		}
		return nil
	}

	if _, _, err := g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path, opts); err != nil {
		return fmt.Errorf("gitstore: create %s: %w", path, err)
	}
	return nil
}

// Delete removes path with a commit.
func (g *GitHub) Delete(ctx context.Context, path string, message string) error {
	file, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path,
		&github.RepositoryContentGetOptions{Ref: g.branch})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("gitstore: delete %s: %w", path, apperr.ErrNotFound)
		}
		return fmt.Errorf("gitstore: stat %s: %w", path, err)
	}
	if file == nil {
		return fmt.Errorf("gitstore: delete %s: %w", path, apperr.ErrNotFound)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     github.String(file.GetSHA()),
		Branch:  github.String(g.branch),
	}
	if _, _, err := g.client.Repositories.DeleteFile(ctx, g.owner, g.repo, path, opts); err != nil {
		return fmt.Errorf("gitstore: delete %s: %w", path, err)
	}
	return nil
}

// ListRecursive walks dir on the working branch and returns every file path.
func (g *GitHub) ListRecursive(ctx context.Context, dir string) ([]string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: g.branch}
	_, entries, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, dir, opts)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("gitstore: list %s: %w", dir, err)
	}

	var out []string
	for _, e := range entries {
		switch e.GetType() {
		case "dir":
			sub, err := g.ListRecursive(ctx, e.GetPath())
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)
		default:
			out = append(out, e.GetPath())
		}
	}
	return out, nil
}

// ListBranches returns all branch names.
func (g *GitHub) ListBranches(ctx context.Context) ([]string, error) {
	var out []string
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		branches, resp, err := g.client.Repositories.ListBranches(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("gitstore: list branches: %w", err)
		}
		for _, b := range branches {
			out = append(out, b.GetName())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

// CreateBranch creates name pointing at the head of from (or the working
// branch when from is empty).
func (g *GitHub) CreateBranch(ctx context.Context, name, from string) error {
	if from == "" {
		from = g.branch
	}
	src, _, err := g.client.Git.GetRef(ctx, g.owner, g.repo, "heads/"+from)
	if err != nil {
		return fmt.Errorf("gitstore: resolve branch %s: %w", from, err)
	}
	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + name),
		Object: &github.GitObject{SHA: src.Object.SHA},
	}
	if _, _, err := g.client.Git.CreateRef(ctx, g.owner, g.repo, ref); err != nil {
		return fmt.Errorf("gitstore: create branch %s: %w", name, err)
	}
	return nil
}

// BranchInfo returns head metadata for name (or the working branch).
func (g *GitHub) BranchInfo(ctx context.Context, name string) (*BranchInfo, error) {
	if name == "" {
		name = g.branch
	}
	b, _, err := g.client.Repositories.GetBranch(ctx, g.owner, g.repo, name, 3)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("gitstore: branch %s: %w", name, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("gitstore: branch %s: %w", name, err)
	}

	info := &BranchInfo{
		Name:      b.GetName(),
		Protected: b.GetProtected(),
	}
	if c := b.GetCommit(); c != nil {
		info.CommitSHA = c.GetSHA()
		if cc := c.GetCommit(); cc != nil {
			info.Message = cc.GetMessage()
			if a := cc.GetAuthor(); a != nil {
				info.Author = a.GetName()
				info.Date = a.GetDate().Time
			}
		}
	}
	return info, nil
}
