package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.Redis.PolicyTTL)
	assert.Equal(t, 30, cfg.Analytics.WindowDays)
	assert.Equal(t, "0 2 * * *", cfg.Analytics.Schedule)
	assert.Equal(t, "prod", cfg.Log.Mode)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qualitygate.yaml")
	yaml := `
server:
  port: 9000
database:
  driver: postgres
  dsn: host=db user=qg dbname=qg sslmode=disable
redis:
  enabled: true
  addr: cache:6379
  policy_ttl: 30s
analytics:
  window_days: 14
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("QUALITYGATE_ANALYTICS_SCHEDULE", "*/15 * * * *")
	t.Setenv("QUALITYGATE_LOG_MODE", "dev")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.PolicyTTL)
	assert.Equal(t, 14, cfg.Analytics.WindowDays)
	assert.Equal(t, "*/15 * * * *", cfg.Analytics.Schedule)
	assert.Equal(t, "dev", cfg.Log.Mode)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:    ServerConfig{Host: "127.0.0.1", Port: 8080, Mode: "release"},
			Database:  DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
			Analytics: AnalyticsConfig{Enabled: true, Schedule: "0 2 * * *", WindowDays: 30},
		}
	}

	c := valid()
	require.NoError(t, c.Validate())

	cases := map[string]func(c *Config){
		"port":     func(c *Config) { c.Server.Port = 0 },
		"mode":     func(c *Config) { c.Server.Mode = "verbose" },
		"driver":   func(c *Config) { c.Database.Driver = "mysql" },
		"dsn":      func(c *Config) { c.Database.DSN = "" },
		"redis":    func(c *Config) { c.Redis.Enabled = true },
		"window":   func(c *Config) { c.Analytics.WindowDays = 0 },
		"schedule": func(c *Config) { c.Analytics.Schedule = "every night" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	c = valid()
	c.Analytics.Enabled = false
	c.Analytics.Schedule = "every night"
	assert.NoError(t, c.Validate(), "schedule is ignored when analytics is disabled")
}
