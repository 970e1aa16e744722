package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, 730, cfg.MaxChunkDays)
	assert.Equal(t, 50, cfg.RemarketingLimit)
	assert.Equal(t, 30, cfg.RemarketingCooldown)
	assert.Equal(t, defaultAestheticProductIDs, cfg.AestheticProductIDs)
	assert.Equal(t, "crm_dev.sqlite", cfg.DatabasePath())
}

func TestLoad_PrdDatabasePath(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prd")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsPrd())
	assert.Equal(t, "crm_prd.sqlite", cfg.DatabasePath())
}

func TestLoad_ExplicitDBPathWins(t *testing.T) {
	t.Setenv("ENVIRONMENT", "prd")
	t.Setenv("CRM_DB_PATH", "/tmp/other.sqlite")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/other.sqlite", cfg.DatabasePath())
}

func TestLoad_SegmentFileOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.yaml")
	content := "aesthetic_product_ids:\n  - \"111\"\n  - \"222\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("SEGMENT_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"111", "222"}, cfg.AestheticProductIDs)
}

func TestLoad_SegmentFileEmptySet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "segments.yaml")
	require.NoError(t, os.WriteFile(path, []byte("aesthetic_product_ids: []\n"), 0o644))

	t.Setenv("SEGMENT_FILE", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_SegmentFileMissing(t *testing.T) {
	t.Setenv("SEGMENT_FILE", filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitialSyncWindow(t *testing.T) {
	cfg := Config{HotmartStartDate: "2023-01-01", HotmartEndDate: "2023-06-30"}

	start, end, err := cfg.InitialSyncWindow()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2023, 6, 30, 0, 0, 0, 0, time.UTC), end)
}

func TestInitialSyncWindow_MissingBounds(t *testing.T) {
	cases := []Config{
		{},
		{HotmartStartDate: "2023-01-01"},
		{HotmartEndDate: "2023-06-30"},
	}
	for _, cfg := range cases {
		_, _, err := cfg.InitialSyncWindow()
		assert.Error(t, err)
	}
}

func TestInitialSyncWindow_EndBeforeStart(t *testing.T) {
	cfg := Config{HotmartStartDate: "2023-06-30", HotmartEndDate: "2023-01-01"}
	_, _, err := cfg.InitialSyncWindow()
	assert.Error(t, err)
}

func TestInitialSyncWindow_Malformed(t *testing.T) {
	cfg := Config{HotmartStartDate: "01/01/2023", HotmartEndDate: "2023-06-30"}
	_, _, err := cfg.InitialSyncWindow()
	assert.Error(t, err)
}
