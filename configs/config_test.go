package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BOT_TOKEN", "CHANNEL_ID", "ADMIN_ID", "DATABASE_DRIVER", "DATABASE_PATH",
		"POSTGRES_URI", "HEALTH_PORT", "POLL_INTERVAL", "SEND_TIMEOUT",
		"R2_ACCOUNT_ID", "R2_ACCESS_KEY", "R2_SECRET_KEY", "R2_BUCKET_NAME", "R2_PUBLIC_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "@severitynotfound", cfg.ChannelID)
	assert.Equal(t, int64(469085521), cfg.AdminID)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "posts.db", cfg.Database.Path)
	assert.Equal(t, "8080", cfg.HealthPort)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.False(t, cfg.R2.Enabled())

	assert.ErrorIs(t, cfg.Validate(), ErrMissingBotToken)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CHANNEL_ID", "-1001234")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("POLL_INTERVAL", "5s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "-1001234", cfg.ChannelID)
	assert.Equal(t, int64(42), cfg.AdminID)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigRejectsBadAdminID(t *testing.T) {
	clearEnv(t)
	t.Setenv("ADMIN_ID", "admin")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateDatabase(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	cfg.Database.Driver = DriverPostgres
	assert.Error(t, cfg.Validate())

	cfg.Database.PostgresURI = "postgres://localhost/posts?sslmode=disable"
	assert.NoError(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())
}

func TestR2Enabled(t *testing.T) {
	r2 := R2{AccountID: "acc", AccessKey: "key", SecretKey: "secret", BucketName: "media"}
	assert.False(t, r2.Enabled())

	r2.PublicURL = "https://media.example.com"
	assert.True(t, r2.Enabled())
}
