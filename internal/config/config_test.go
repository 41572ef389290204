package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "!", cfg.Prefix)
	assert.Equal(t, "--", cfg.FlagPrefix)
	assert.Equal(t, "json", cfg.StorageDriver)
	assert.Equal(t, "en", cfg.DefaultLocale)
	assert.Equal(t, 2*time.Minute, cfg.MenuTimeout)
	assert.Equal(t, ":8787", cfg.OpsAddr)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "BOT_PREFIX=?\nBOT_OWNER_ID=1,2\nSTORAGE_DRIVER=sqlite\nMENU_TIMEOUT=30s\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("STORAGE_PATH", "data/bot.db")
	// the environment wins over the file
	t.Setenv("BOT_PREFIX", "$")
	t.Cleanup(func() {
		for _, k := range []string{"BOT_OWNER_ID", "STORAGE_DRIVER", "MENU_TIMEOUT"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "$", cfg.Prefix)
	assert.Equal(t, []string{"1", "2"}, cfg.OwnerIDs)
	assert.Equal(t, "sqlite", cfg.StorageDriver)
	assert.Equal(t, "data/bot.db", cfg.StoragePath)
	assert.Equal(t, 30*time.Second, cfg.MenuTimeout)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("MENU_TIMEOUT", "0s")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
	assert.Contains(t, err.Error(), "MENU_TIMEOUT")
}

func TestCategoryWeight(t *testing.T) {
	assert.Less(t, CategoryWeight(CategoryInformation), CategoryWeight(CategorySettings))
	assert.Equal(t, 1000, CategoryWeight("misc"))
}
