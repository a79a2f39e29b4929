package config

import (
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func validConfig() *AppConfig {
	return &AppConfig{
		Environment: EnvTest,
		Postgres:    PostgresConfig{MaxConns: 10, QueueLimit: 10},
		Security: SecurityConfig{
			JWTSecret:      strings.Repeat("s", 32),
			JWTTTL:         2 * time.Hour,
			CookieSameSite: "lax",
		},
		RateLimit: RateLimitConfig{Requests: 100, Window: time.Minute},
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, 4000, cfg.HTTP.Port)
	assert.Equal(t, 2*time.Hour, cfg.Security.JWTTTL)
	assert.Equal(t, "token", cfg.Security.CookieName)
	assert.Equal(t, 10, cfg.Postgres.MaxConns)
	assert.Equal(t, 20, cfg.Postgres.ConnectRetries)
	assert.Equal(t, 5*time.Second, cfg.Postgres.ConnectDelay)
	assert.Equal(t, []string{"http://localhost"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Storage.Enabled())
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_POOL_LIMIT", "4")
	t.Setenv("JWT_SECRET", strings.Repeat("x", 40))
	t.Setenv("COOKIE_SAMESITE", "Strict")
	t.Setenv("CLIENT_URL", "https://app.example.com")
	t.Setenv("PORT", "8081")
	t.Setenv("NODE_ENV", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 4, cfg.Postgres.MaxConns)
	assert.Equal(t, 8081, cfg.HTTP.Port)
	assert.Equal(t, EnvProduction, cfg.Environment)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, http.SameSiteStrictMode, cfg.Security.SameSite())
	require.NoError(t, cfg.Validate())
}

func TestLoad_PrefixedEnvWins(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("ACCOUNTDESK_POSTGRES_HOST", "primary")
	t.Setenv("DB_HOST", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.Postgres.Host)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		want   error
	}{
		{name: "ok", mutate: func(*AppConfig) {}},
		{name: "missing secret", mutate: func(c *AppConfig) { c.Security.JWTSecret = "" }, want: ErrSecretRequired},
		{name: "short secret", mutate: func(c *AppConfig) { c.Security.JWTSecret = "short" }, want: ErrSecretTooShort},
		{name: "bad samesite", mutate: func(c *AppConfig) { c.Security.CookieSameSite = "sometimes" }, want: ErrInvalidSameSite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestValidate_PoolLimits(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.MaxConns = 0
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.Postgres.QueueLimit = -1
	assert.Error(t, cfg.Validate())
}

func TestSecureCookie(t *testing.T) {
	tests := []struct {
		env, sameSite string
		want          bool
	}{
		{EnvDevelopment, "lax", false},
		{EnvDevelopment, "strict", false},
		{EnvDevelopment, "none", true},
		{EnvDevelopment, "None", true},
		{EnvProduction, "lax", true},
		{EnvTest, "strict", true},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Environment = tt.env
		cfg.Security.CookieSameSite = tt.sameSite
		assert.Equal(t, tt.want, cfg.SecureCookie(), "%s/%s", tt.env, tt.sameSite)
	}
}

func TestString_RedactsSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Postgres.Password = "hunter2"
	cfg.Security.JWTSecret = "very-secret-signing-key-material-123"

	out := cfg.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "very-secret-signing-key-material-123")
	assert.Contains(t, out, "***")
}
