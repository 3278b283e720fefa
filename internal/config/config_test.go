package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SCHEDULER_SPEC", "")
	t.Setenv("CALENDAR_TIMEZONE", "")
	t.Setenv("REALTIME_HEARTBEAT_SECONDS", "")
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "@every 1m", cfg.Scheduler.Spec)
	assert.Equal(t, "Europe/Madrid", cfg.Calendar.Location().String())
	assert.Equal(t, 25*time.Second, cfg.Realtime.Heartbeat())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("SCHEDULER_ENABLED", "false")
	t.Setenv("QUIZ_ATTEMPT_TTL_MINUTES", "15")
	t.Setenv("AUTH_BCRYPT_COST", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.App.Addr())
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Quiz.AttemptTTL())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "redis db", env: map[string]string{"REDIS_DB": "zero"}},
		{name: "production default secret", env: map[string]string{"APP_ENV": "production", "AUTH_JWT_SECRET": ""}},
		{name: "inverted calendar window", env: map[string]string{"CALENDAR_DAY_START_HOUR": "22", "CALENDAR_DAY_END_HOUR": "8"}},
		{name: "unknown timezone", env: map[string]string{"CALENDAR_TIMEZONE": "Mars/Olympus"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
