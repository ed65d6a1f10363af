package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/smartsport/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "ENV", "LOG_LEVEL", "API_BASE_URL", "API_TIMEOUT", "SESSION_CHECK_TOKEN_EXPIRY", "SESSION_VALIDATE_ON_RESTORE", "ALLOWED_ORIGINS"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, zerolog.DebugLevel, c.GetLogLevel())
	require.Equal(t, "http://localhost:8000/api/", c.GetAPIBaseURL())
	require.Equal(t, 15*time.Second, c.GetAPITimeout())
	require.True(t, c.GetCheckTokenExpiry())
	require.False(t, c.GetValidateOnRestore())
	require.Equal(t, "/login", c.GetLoginRoute())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("http://localhost:3000"))
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("ENV", "PROD")
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("API_TIMEOUT", "30")
	t.Setenv("SESSION_CHECK_TOKEN_EXPIRY", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://b.io, https://a.io,")
	c := config.New()

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, zerolog.WarnLevel, c.GetLogLevel())
	require.Equal(t, 30*time.Second, c.GetAPITimeout())
	require.False(t, c.GetCheckTokenExpiry())
	require.Equal(t, []string{"https://a.io", "https://b.io"}, c.GetAllowedOrigins().List())
}

func TestDurationFormats(t *testing.T) {
	t.Setenv("API_TIMEOUT", "2m")
	require.Equal(t, 2*time.Minute, config.GetEnvDuration("API_TIMEOUT", time.Second))

	t.Setenv("API_TIMEOUT", "soon")
	require.Equal(t, time.Second, config.GetEnvDuration("API_TIMEOUT", time.Second))
}

func TestProductionLogLevelDefault(t *testing.T) {
	t.Setenv("ENV", "PROD")
	t.Setenv("LOG_LEVEL", "nonsense")
	require.Equal(t, zerolog.InfoLevel, config.New().GetLogLevel())
}
