// Package gitops keeps a data directory under version control so every
// ledger change can be audited and reverted with plain git.
package gitops

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Init initializes a new git repository at dir.
func Init(dir string) error {
	cmd := exec.Command("git", "init", "--quiet")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("git init: %s: %w", strings.TrimSpace(string(out)), err)
	}
	return nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// HasChanges reports whether the work tree differs from HEAD.
func HasChanges(dir string) (bool, error) {
	cmd := exec.Command("git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return len(strings.TrimSpace(string(out))) > 0, nil
}

// CommitAll stages all files and creates a commit. Returns the short commit hash.
func CommitAll(dir, message, authorName, authorEmail string) (string, error) {
	add := exec.Command("git", "add", "-A")
	add.Dir = dir
	if out, err := add.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git add: %s: %w", out, err)
	}

	commit := exec.Command("git",
		"-c", "user.name="+authorName,
		"-c", "user.email="+authorEmail,
		"commit", "--quiet", "-m", message,
		"--author", fmt.Sprintf("%s <%s>", authorName, authorEmail))
	commit.Dir = dir
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", out, err)
	}

	rev := exec.Command("git", "rev-parse", "--short", "HEAD")
	rev.Dir = dir
	out, err := rev.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Committer records data directory changes as commits when enabled.
type Committer struct {
	dir         string
	enabled     bool
	authorName  string
	authorEmail string
	log         zerolog.Logger
}

// NewCommitter returns a Committer for dir. A disabled Committer, or one
// whose dir is not a repository, does nothing.
func NewCommitter(dir string, enabled bool, authorName, authorEmail string, log zerolog.Logger) *Committer {
	return &Committer{
		dir:         dir,
		enabled:     enabled,
		authorName:  authorName,
		authorEmail: authorEmail,
		log:         log.With().Str("component", "gitops").Logger(),
	}
}

// Commit stages and commits everything if there is anything to commit.
// It returns the short hash, or "" when nothing was committed.
func (c *Committer) Commit(message string) (string, error) {
	if !c.enabled || !IsRepo(c.dir) {
		return "", nil
	}
	changed, err := HasChanges(c.dir)
	if err != nil {
		return "", err
	}
	if !changed {
		return "", nil
	}
	hash, err := CommitAll(c.dir, message, c.authorName, c.authorEmail)
	if err != nil {
		return "", err
	}
	c.log.Debug().Str("commit", hash).Str("message", message).Msg("data committed")
	return hash, nil
}
