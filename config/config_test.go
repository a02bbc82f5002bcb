package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, `
database:
  host: localhost
  port: 5432
  user: hotel
  password: secret
  name: hotel
  ssl_mode: disable
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Address)
	assert.Equal(t, "19:00", cfg.Hotel.ConfirmationCutoff)
	assert.Equal(t, "12:00", cfg.Hotel.CheckoutTime)
	assert.Equal(t, StorageDriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "host=localhost port=5432 user=hotel password=secret dbname=hotel sslmode=disable", cfg.Database.DSN())
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://hotel@db/hotel")
	t.Setenv("REDIS_PASSWORD", "redis-secret")
	path := writeConfig(t, "http:\n  address: \":9090\"\n")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, "postgres://hotel@db/hotel", cfg.Database.DSN())
	assert.Equal(t, "redis-secret", cfg.Redis.Password)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, `
hotel:
  timezone: Mars/Olympus
  confirmation_cutoff: "7pm"
storage:
  driver: sqlite
`)

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hotel.timezone")
	assert.Contains(t, err.Error(), "hotel.confirmation_cutoff")
	assert.Contains(t, err.Error(), "storage.driver")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
