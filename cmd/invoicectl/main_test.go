package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := &cli{}
	defer c.close()
	root := newRootCmd(c)
	var out, errb bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errb)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func setupEnv(t *testing.T) string {
	dir := t.TempDir()
	// shared cache keeps the in-memory database alive between commands while
	// one connection stays open
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	t.Setenv("LLM_ENABLED", "false")
	t.Setenv("OCR_ENABLED", "false")
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))
	t.Setenv("ARTIFACT_DIR", filepath.Join(dir, "artifacts"))
	t.Setenv("LOG_LEVEL", "error")
	return dir
}

func TestSeedAndListUsers(t *testing.T) {
	dir := setupEnv(t)
	seed := filepath.Join(dir, "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte(`
departments: [Site]
users:
  - {username: ravi, role: site, department: Site}
  - {username: asha, role: finance}
`), 0o644))

	c := &cli{}
	defer c.close()
	exec := func(args ...string) string {
		root := newRootCmd(c)
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(args)
		require.NoError(t, root.Execute())
		return out.String()
	}

	assert.Contains(t, exec("seed", seed), "users created: 2")
	list := exec("users", "list")
	assert.Contains(t, list, "ravi")
	assert.Contains(t, list, "Finance & Accounts")

	exec("users", "disable", "ravi")
	assert.Contains(t, exec("users", "list"), "false")

	assert.Contains(t, exec("stats"), "total")
	assert.Contains(t, exec("sweep", "--older-than", "1h"), "deleted 0")
	assert.Contains(t, exec("health"), "OK")
}

func TestInvoiceCommandsNeedActor(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "invoice", "submit", uuid.NewString())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--as is required")
}

func TestExtractRejectsNonPDF(t *testing.T) {
	dir := setupEnv(t)
	p := filepath.Join(dir, "notes.pdf")
	require.NoError(t, os.WriteFile(p, []byte("plain text"), 0o644))
	_, err := run(t, "extract", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Expected PDF")
}
