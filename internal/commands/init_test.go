package commands_test

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fintrack-dev/fintrack/internal/commands"
	"github.com/fintrack-dev/fintrack/internal/config"
	"github.com/fintrack-dev/fintrack/internal/store/csvstore"
	"github.com/fintrack-dev/fintrack/internal/transactions"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// runFintrack executes the CLI in-process and returns its combined output.
func runFintrack(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("FINTRACK_LOG_LEVEL", "disabled")

	cmd := commands.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(bytes.NewBufferString(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func initDir(t *testing.T, extra ...string) string {
	t.Helper()
	dir := t.TempDir()
	args := append([]string{"init", dir, "--git=false"}, extra...)
	_, err := runFintrack(t, "", args...)
	require.NoError(t, err)
	return dir
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := initDir(t)

	for _, d := range []string{"logs", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	for _, f := range []string{
		config.FileName,
		csvstore.AccountsFile,
		csvstore.TransactionsFile,
		csvstore.PurchasesFile,
		csvstore.CategoriesFile,
		".gitignore",
		filepath.Join("import", ".gitkeep"),
	} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "file %s should exist", f)
	}
}

func TestInit_Config(t *testing.T) {
	dir := initDir(t, "--currency", "eur")

	cfg, err := config.Load(filepath.Join(dir, config.FileName))
	require.NoError(t, err)
	assert.Equal(t, "EUR", cfg.Ledger.DefaultCurrency)
	assert.Equal(t, config.DriverCSV, cfg.Store.Driver)
	assert.False(t, cfg.Git.AutoCommit)
	assert.Equal(t, "DPS", cfg.DPS.Category)
}

func TestInit_Categories(t *testing.T) {
	dir := initDir(t)

	cats, err := csvstore.LoadCategories(dir)
	require.NoError(t, err)
	assert.Equal(t, transactions.DefaultCategories(), cats)
}

func TestInit_RefusesExisting(t *testing.T) {
	dir := initDir(t)

	_, err := runFintrack(t, "", "init", dir, "--git=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInit_SQLite(t *testing.T) {
	dir := initDir(t, "--store", "sqlite")

	_, err := os.Stat(filepath.Join(dir, "fintrack.db"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, csvstore.AccountsFile))
	assert.True(t, os.IsNotExist(err))
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := runFintrack(t, "", "init", t.TempDir(), "--git=false", "--store", "postgres")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store.driver")
}

func TestInit_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()

	out, err := runFintrack(t, "", "init", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized fintrack data at")

	info, err := os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	log, err := exec.Command("git", "-C", dir, "log", "--oneline").Output()
	require.NoError(t, err)
	assert.Contains(t, string(log), "init: Initialize fintrack data")
}
