package vcs

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

const (
	authorName  = "flashdeck"
	authorEmail = "flashdeck@localhost"
)

// Snapshots commits each deck write into a git repository rooted at the
// data directory.
type Snapshots struct {
	dir  string
	repo *git.Repository
}

// OpenSnapshots opens the repository at dir, initializing it when absent.
func OpenSnapshots(dir string) (*Snapshots, error) {
	repo, err := git.PlainOpen(dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(dir, false)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot repo at %s: %w", dir, err)
	}
	return &Snapshots{dir: dir, repo: repo}, nil
}

// Snapshot stages the file at path and commits it with message. An
// unchanged file produces no commit.
func (s *Snapshots) Snapshot(path, message string) error {
	rel, err := filepath.Rel(s.dir, path)
	if err != nil {
		return fmt.Errorf("failed to locate %s in %s: %w", path, s.dir, err)
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree for %s: %w", s.dir, err)
	}
	rel = filepath.ToSlash(rel)
	if _, err := worktree.Add(rel); err != nil {
		return fmt.Errorf("failed to stage %s: %w", rel, err)
	}

	// Only the deck file is staged, so other files in the directory must not
	// decide whether there is anything to commit.
	status, err := worktree.Status()
	if err != nil {
		return fmt.Errorf("failed to get status of %s: %w", s.dir, err)
	}
	if fs, ok := status[rel]; !ok || fs.Staging == git.Unmodified {
		return nil
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  authorName,
			Email: authorEmail,
			When:  time.Now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", rel, err)
	}
	return nil
}
