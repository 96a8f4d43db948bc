package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_HOST", "DB_PORT", "JWT_ISSUER", "REDIS_URL", "CRON_ENABLED"} {
		t.Setenv(key, "")
	}

	env, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 8080, env.PORT)
	assert.Equal(t, "postgres", env.DB_DRIVER)
	assert.Equal(t, "localhost", env.DB_HOST)
	assert.Equal(t, "5432", env.DB_PORT)
	assert.Equal(t, "admission-api", env.JWT_ISSUER)
	assert.Equal(t, "redis://localhost:6379/0", env.REDIS_URL)
	assert.True(t, env.CRON_ENABLED)
}

func TestGetOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("CRON_ENABLED", "false")
	t.Setenv("GO_ENV", "production")

	env, err := Get()
	require.NoError(t, err)

	assert.Equal(t, 9090, env.PORT)
	assert.Equal(t, "sqlite", env.DB_DRIVER)
	assert.False(t, env.CRON_ENABLED)
	assert.True(t, env.IsProduction())
}
