package gitops

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestInitAndIsRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	assert.False(t, IsRepo(dir))

	require.NoError(t, Init(dir))
	assert.True(t, IsRepo(dir))
}

func TestCommitAll(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "accounts.csv"), []byte("id\n"), 0o644))

	hash, err := CommitAll(dir, "init: ledger", "Test Author", "test@example.com")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	log := exec.Command("git", "log", "--format=%s|%an <%ae>", "-1")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "init: ledger|Test Author <test@example.com>")
}

func TestCommitter(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	require.NoError(t, Init(dir))

	c := NewCommitter(dir, true, "fintrack", "fintrack@localhost", zerolog.Nop())

	hash, err := c.Commit("nothing yet")
	require.NoError(t, err)
	assert.Empty(t, hash, "clean tree commits nothing")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "transactions.csv"), []byte("id\n"), 0o644))
	hash, err = c.Commit("tx add F0000001")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	changed, err := HasChanges(dir)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCommitter_DisabledOrNotRepo(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.csv"), []byte("x"), 0o644))

	hash, err := NewCommitter(dir, false, "a", "b", zerolog.Nop()).Commit("x")
	require.NoError(t, err)
	assert.Empty(t, hash)

	hash, err = NewCommitter(dir, true, "a", "b", zerolog.Nop()).Commit("x")
	require.NoError(t, err)
	assert.Empty(t, hash)
}
