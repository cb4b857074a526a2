package app

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-tracker/internal/common"
	"github.com/joseph-ayodele/invoice-tracker/internal/profiles"
)

func testConfig(t *testing.T) *common.Config {
	dir := t.TempDir()
	return &common.Config{
		Database: common.DatabaseConfig{Driver: "sqlite", DSN: "file:" + uuid.NewString() + "?mode=memory&cache=shared"},
		OCR:      common.OCRConfig{Enabled: false, PageWorkers: 1},
		LLM:      common.LLMConfig{Enabled: false},
		Storage: common.StorageConfig{
			Backend:     "local",
			UploadDir:   filepath.Join(dir, "uploads"),
			ArtifactDir: filepath.Join(dir, "artifacts"),
		},
		Workflow: common.WorkflowConfig{OrgTaxIdentity: "AAECS5013J"},
	}
}

func TestNewWiresServices(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.DB.HealthCheck(ctx, 0))
	assert.NotNil(t, a.Processor)
	assert.NotNil(t, a.Workflow)
	assert.NotNil(t, a.Export)

	u, err := a.Profiles.CreateUser(ctx, profiles.CreateUserRequest{Username: "ops", Role: "Super Admin"})
	require.NoError(t, err)
	got, err := a.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops", got.Username)

	assert.DirExists(t, a.Config.Storage.ArtifactDir)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Driver = "mysql"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)
}
