package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LumenForge/internal/game"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("LUMENFORGE_ADDR", "")
	t.Setenv("LUMENFORGE_REDIS_ADDR", "")
	t.Setenv("LUMENFORGE_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadParsesFile(t *testing.T) {
	t.Setenv("LUMENFORGE_ADDR", "")
	t.Setenv("LUMENFORGE_REDIS_ADDR", "")
	t.Setenv("LUMENFORGE_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "lumenforge.yaml")
	body := `addr: ":5000"
admin: Mason
olc:
  autosave: [room, Zone]
  extensions:
    - kind: object
      key: rarity
      script: rarity_menu
redis:
  addr: "127.0.0.1:6379"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, "Mason", cfg.Admin)
	assert.Equal(t, "data/accounts.json", cfg.Accounts)
	kinds, err := cfg.AutosaveKinds()
	require.NoError(t, err)
	assert.Equal(t, []game.EntityKind{game.KindRoom, game.KindZone}, kinds)
	require.Len(t, cfg.OLC.Extensions, 1)
	assert.Equal(t, "rarity_menu", cfg.OLC.Extensions[0].Script)
	assert.Equal(t, "lumenforge:olc:", cfg.Redis.Prefix)
}

func TestLoadRejectsUnknownKinds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("olc:\n  autosave: [spaceship]\n"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("olc:\n  extensions:\n    - kind: exit\n      key: k\n      script: s\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("LUMENFORGE_REDIS_ADDR", "redis:6379")
	t.Setenv("LUMENFORGE_ADDR", "")
	t.Setenv("LUMENFORGE_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("LUMENFORGE_ADDR", "")
	t.Setenv("LUMENFORGE_REDIS_ADDR", "")
	t.Setenv("LUMENFORGE_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "nested", "cfg.yaml")
	cfg := DefaultConfig()
	cfg.MetricsAddr = ":9100"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9100", loaded.MetricsAddr)
}
