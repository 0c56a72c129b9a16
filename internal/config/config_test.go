package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
database:
  host: localhost
  user: syndicator
  dbname: catalog
server:
  public_base_url: https://api.example.com
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "https://api.example.com", cfg.Server.SiteURL)
	assert.Equal(t, "postgres", cfg.Catalog.Driver)
	assert.Equal(t, "/api/portal-feed", cfg.Feed.Path)
	assert.Equal(t, time.Hour, cfg.Feed.CacheMaxAge)
	assert.Equal(t, 8, cfg.Sync.UpsertConcurrency)
	assert.Equal(t, 100, cfg.Validation.SampleSize)
	assert.Equal(t, 5, cfg.Validation.PreviewSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.RabbitMQ.Enabled)
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("SYNDICATOR_DB_PASSWORD", "s3cret")

	cfg, err := Parse([]byte(minimalConfig + "\n" + `
sync:
  interval: 10m
`))
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, cfg.Sync.Interval)

	cfg, err = Parse([]byte(`
database:
  host: db
  user: app
  password: ${SYNDICATOR_DB_PASSWORD}
  dbname: catalog
server:
  public_base_url: https://api.example.com
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Contains(t, cfg.Database.DSN(), "password=s3cret")
}

func TestParse_FailsFast(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "missing database host",
			raw: `
database:
  user: app
  dbname: catalog
server:
  public_base_url: https://api.example.com
`,
		},
		{
			name: "missing public base url",
			raw: `
database:
  host: db
  user: app
  dbname: catalog
`,
		},
		{
			name: "rest catalog without base url",
			raw:  minimalConfig + "catalog:\n  driver: rest\n",
		},
		{
			name: "rabbitmq enabled without url",
			raw:  minimalConfig + "rabbitmq:\n  enabled: true\n",
		},
		{
			name: "unknown log level",
			raw:  minimalConfig + "log_level: verbose\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "catalog", cfg.Database.DBName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
