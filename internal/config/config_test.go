package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	require.NoError(t, Load(t.TempDir()))
	c := Current()

	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, ":8081", c.Game.ListenAddr)
	assert.Equal(t, "http://localhost:8080", c.Game.DataAPIBase)
	assert.False(t, c.Game.StrictAbilities)
	assert.True(t, c.Game.ReportBattles)
	assert.Equal(t, ":8080", c.API.ListenAddr)
	assert.Equal(t, 5*time.Minute, c.API.CacheTTL)
	assert.Equal(t, "sqlite", c.DB.Driver)
	assert.Equal(t, "warbands.db", c.DB.Path)
	assert.Equal(t, "5432", c.DB.Port)
	assert.Equal(t, "warbands", c.DB.Database)
}

func TestLoad_WithValidConfigFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	cfg := `{
		"logLevel": "debug",
		"game": { "port": "9001", "strictAbilities": true },
		"db": { "driver": "postgres", "host": "10.0.0.1" }
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(cfg), 0644))

	require.NoError(t, Load(dir))
	c := Current()

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, ":9001", c.Game.ListenAddr)
	assert.True(t, c.Game.StrictAbilities)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "10.0.0.1", c.DB.Host)
	assert.Equal(t, "postgres", c.DB.Username)
}

func TestLoad_EnvironmentWins(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{"game": {"port": "9001"}}`), 0644))
	t.Setenv("GAME_PORT", "7000")
	t.Setenv("DATA_API_BASE", "http://roster:8080")
	t.Setenv("API_CACHE_TTL", "30s")

	require.NoError(t, Load(dir))
	c := Current()

	assert.Equal(t, ":7000", c.Game.ListenAddr)
	assert.Equal(t, "http://roster:8080", c.Game.DataAPIBase)
	assert.Equal(t, 30*time.Second, c.API.CacheTTL)
}

func TestLoad_PortBeatsGamePort(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("PORT", "5555")
	t.Setenv("GAME_PORT", "7000")

	require.NoError(t, Load(t.TempDir()))
	assert.Equal(t, ":5555", Current().Game.ListenAddr)
}

func TestLoad_BrokenFile(t *testing.T) {
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(`{not json`), 0644))

	err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}
