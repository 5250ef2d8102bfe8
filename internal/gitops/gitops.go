// Package gitops manages local git repositories with go-git: init, status,
// staging, commits and branch switching for generated pipeline code, plus
// the clone-or-pull used to sync template repositories.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.uber.org/zap"

	"plumber/internal/report"
)

// Default commit identity when the caller supplies none.
const (
	DefaultAuthorName  = "plumber"
	DefaultAuthorEmail = "plumber@localhost"
)

// Service exposes the repository operations.
type Service struct {
	Log *zap.Logger
}

// NewService wires a service.
func NewService(log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{Log: log}
}

func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpen(path)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, fmt.Errorf("not a git repository: %s", path)
	}
	return repo, err
}

func currentBranch(repo *git.Repository) string {
	head, err := repo.Head()
	if err != nil {
		return "no commits yet"
	}
	return head.Name().Short()
}

// Init creates a repository at path, or reports the existing one.
func (s *Service) Init(path string) report.Report {
	if _, err := os.Stat(path); err != nil {
		return report.Errorf("path does not exist: %s", path)
	}

	if repo, err := git.PlainOpen(path); err == nil {
		return report.Successf("Git repository already exists at %s (branch %s)", path, currentBranch(repo))
	}

	if _, err := git.PlainInit(path, false); err != nil {
		return report.Errorf("failed to initialize repository: %v", err)
	}
	s.Log.Info("initialized git repository", zap.String("path", path))
	return report.Successf("Git repository initialized at %s", path)
}

// Status reports the branch and the modified, staged and untracked files.
func (s *Service) Status(path string) report.Report {
	repo, err := open(path)
	if err != nil {
		return report.Errorf("%v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return report.Errorf("worktree: %v", err)
	}
	status, err := wt.Status()
	if err != nil {
		return report.Errorf("status: %v", err)
	}

	var modified, staged, untracked []string
	for file, fs := range status {
		switch {
		case fs.Worktree == git.Untracked:
			untracked = append(untracked, file)
		case fs.Worktree != git.Unmodified:
			modified = append(modified, file)
		}
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			staged = append(staged, file)
		}
	}
	sort.Strings(modified)
	sort.Strings(staged)
	sort.Strings(untracked)

	lines := []string{
		fmt.Sprintf("On branch %s", currentBranch(repo)),
		fmt.Sprintf("Clean: %v", status.IsClean()),
	}
	lines = appendFileList(lines, "Staged", staged)
	lines = appendFileList(lines, "Modified", modified)
	lines = appendFileList(lines, "Untracked", untracked)
	return report.Success(strings.Join(lines, "\n"))
}

func appendFileList(lines []string, label string, files []string) []string {
	if len(files) == 0 {
		return lines
	}
	lines = append(lines, label+":")
	for _, f := range files {
		lines = append(lines, "  "+f)
	}
	return lines
}

// Add stages the named files, or everything when all is set. Named files
// must exist.
func (s *Service) Add(path string, files []string, all bool) report.Report {
	repo, err := open(path)
	if err != nil {
		return report.Errorf("%v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return report.Errorf("worktree: %v", err)
	}

	switch {
	case all:
		if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return report.Errorf("failed to add files: %v", err)
		}
		return report.Success("Staged all modified and untracked files.")
	case len(files) > 0:
		for _, f := range files {
			if _, err := os.Stat(filepath.Join(path, f)); err != nil {
				return report.Errorf("file not found: %s", f)
			}
		}
		for _, f := range files {
			if _, err := wt.Add(f); err != nil {
				return report.Errorf("failed to add %s: %v", f, err)
			}
		}
		return report.Successf("Staged %d file(s): %s", len(files), strings.Join(files, ", "))
	default:
		return report.Errorf("no files specified; pass files or set all")
	}
}

// hasStagedChanges reports whether anything is staged for commit.
func hasStagedChanges(wt *git.Worktree) (bool, error) {
	status, err := wt.Status()
	if err != nil {
		return false, err
	}
	for _, fs := range status {
		if fs.Staging != git.Unmodified && fs.Staging != git.Untracked {
			return true, nil
		}
	}
	return false, nil
}

// Commit records the staged changes. An empty author falls back to the
// plumber identity.
func (s *Service) Commit(path, message, authorName, authorEmail string) report.Report {
	if message == "" {
		return report.Errorf("commit message is required")
	}
	repo, err := open(path)
	if err != nil {
		return report.Errorf("%v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return report.Errorf("worktree: %v", err)
	}

	staged, err := hasStagedChanges(wt)
	if err != nil {
		return report.Errorf("status: %v", err)
	}
	if !staged {
		return report.Errorf("no staged changes to commit")
	}

	if authorName == "" || authorEmail == "" {
		authorName, authorEmail = DefaultAuthorName, DefaultAuthorEmail
	}
	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{Name: authorName, Email: authorEmail, When: time.Now()},
	})
	if err != nil {
		return report.Errorf("failed to commit: %v", err)
	}

	s.Log.Info("committed changes", zap.String("hash", hash.String()[:8]))
	return report.Successf("Committed %s: %s", hash.String()[:8], message)
}

// Branches lists local branches, marking the current one.
func (s *Service) Branches(path string) report.Report {
	repo, err := open(path)
	if err != nil {
		return report.Errorf("%v", err)
	}

	current := currentBranch(repo)
	iter, err := repo.Branches()
	if err != nil {
		return report.Errorf("branches: %v", err)
	}

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if name == current {
			name = "* " + name
		} else {
			name = "  " + name
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return report.Errorf("branches: %v", err)
	}
	if len(names) == 0 {
		return report.Success("No branches yet.")
	}
	sort.Strings(names)
	return report.Success(strings.Join(names, "\n"))
}

// Switch checks out a branch. A dirty worktree refuses the switch; a
// missing branch is created only when create is set.
func (s *Service) Switch(path, branch string, create bool) report.Report {
	repo, err := open(path)
	if err != nil {
		return report.Errorf("%v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return report.Errorf("worktree: %v", err)
	}
	status, err := wt.Status()
	if err != nil {
		return report.Errorf("status: %v", err)
	}
	if !status.IsClean() {
		return report.Errorf("cannot switch branches with uncommitted changes; commit or stash first")
	}

	ref := plumbing.NewBranchReferenceName(branch)
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref}); err == nil {
		return report.Successf("Switched to branch '%s'", branch)
	}
	if !create {
		return report.Errorf("branch %q does not exist; pass create to make it", branch)
	}
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref, Create: true}); err != nil {
		return report.Errorf("failed to create branch %s: %v", branch, err)
	}
	return report.Successf("Created and switched to new branch '%s'", branch)
}

// CloneOrPull makes dir a checkout of url at branch: clones when absent,
// pulls when present. Already-up-to-date is not an error. Returns dir.
func CloneOrPull(ctx context.Context, url, dir, branch string) (string, error) {
	if branch == "" {
		branch = "main"
	}
	ref := plumbing.NewBranchReferenceName(branch)

	if _, err := os.Stat(dir); err == nil {
		repo, err := git.PlainOpen(dir)
		if err != nil {
			return "", fmt.Errorf("open %s: %w", dir, err)
		}
		wt, err := repo.Worktree()
		if err != nil {
			return "", fmt.Errorf("worktree: %w", err)
		}
		err = wt.PullContext(ctx, &git.PullOptions{
			RemoteName:    "origin",
			ReferenceName: ref,
			SingleBranch:  true,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return "", fmt.Errorf("pull %s: %w", url, err)
		}
		return dir, nil
	}

	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           url,
		ReferenceName: ref,
		SingleBranch:  true,
	})
	if err != nil {
		return "", fmt.Errorf("clone %s: %w", url, err)
	}
	return dir, nil
}
