package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Server, cfg.Server)
	assert.Equal(t, Default().Game.SalonCapacities, cfg.Game.SalonCapacities)
}

func TestLoadYAMLOverlaysDefaults(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 9090
storage:
  driver: memory
game:
  min_players: 30
  auto_collect: true
  salon_capacities:
    1: 4
realtime:
  seconds_per_unit: 250ms
classification:
  celebrity_when: 'avg >= 70'
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 20, cfg.Server.RateLimitBurst)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, 30, cfg.Game.MinPlayers)
	assert.Equal(t, 1000, cfg.Game.MaxPlayers)
	assert.True(t, cfg.Game.AutoCollect)
	assert.Equal(t, 4, cfg.Game.SalonCapacities[1])
	assert.Equal(t, 250*time.Millisecond, cfg.Realtime.SecondsPerUnit)
	assert.Equal(t, "avg >= 70", cfg.Classification.CelebrityWhen)
	assert.NotEmpty(t, cfg.Classification.Stars)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, "server:\n  port: 9090\nlog:\n  level: warn\n")
	t.Setenv("PORT", "7070")
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("STORAGE_DRIVER", "SQLite")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/other.db", cfg.Storage.Path)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":7070", cfg.Addr())
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Run("bad port env", func(t *testing.T) {
		t.Setenv("PORT", "eighty")
		_, err := Load("")
		assert.ErrorContains(t, err, "PORT")
	})
	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeYAML(t, "server: [1, 2"))
		assert.ErrorContains(t, err, "parse config")
	})
	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeYAML(t, "storage:\n  driver: postgres\n"))
		assert.ErrorContains(t, err, "unknown storage.driver")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"players", func(c *Config) { c.Game.MaxPlayers = 5 }, "players bounds"},
		{"salon level", func(c *Config) { c.Game.DefaultSalonLevel = 42 }, "default_salon_level"},
		{"speed", func(c *Config) { c.Realtime.MaxSpeed = 0.01 }, "speed bounds"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"sqlite path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"score", func(c *Config) { c.Game.SurvivalPoints = 0 }, "score points"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestGameConfigMapping(t *testing.T) {
	cfg := Default()
	cfg.Game.AutoCollect = true
	cfg.Game.KillPoints = 7
	cfg.Realtime.SecondsPerUnit = time.Second

	gc := cfg.GameConfig()
	assert.Equal(t, cfg.Game.MinPlayers, gc.MinPlayers)
	assert.Equal(t, cfg.Game.CostPerEvent, gc.CostPerEvent)
	assert.True(t, gc.AutoCollect)
	assert.Equal(t, 7, gc.Score.KillPoints)
	assert.Equal(t, time.Second, gc.TickUnit)
	assert.Equal(t, cfg.Realtime.MaxSpeed, gc.MaxSpeed)
}
