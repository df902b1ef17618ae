package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"APP_NAME", "APP_VERSION", "ENV", "DEBUG", "PORT", "LOG_LEVEL", "LOG_FORMAT",
	"SHUTDOWN_GRACE_PERIOD", "CORS_ORIGINS", "DATABASE_DRIVER", "DATABASE_FILE", "MONGO_URI",
	"MONGO_DATABASE", "JWT_SECRET", "JWT_ISSUER", "ACCESS_TOKEN_TTL",
	"REFRESH_TOKEN_TTL", "PASSWORD_SCHEMES", "PEPPER_FILE",
	"BOOTSTRAP_ADMIN_USERNAME", "BOOTSTRAP_ADMIN_PASSWORD", "BOOTSTRAP_ADMIN_NAME",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg := LoadConfig()
	require.Equal(t, "starterkit", cfg.AppName)
	require.Equal(t, BuildVersion, cfg.Version)
	require.Equal(t, "dev", cfg.Env)
	require.False(t, cfg.Debug)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, DriverSQLite, cfg.DatabaseDriver)
	require.Equal(t, "users.db", cfg.DatabaseFile)
	require.Equal(t, "starterkit", cfg.JWTIssuer)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, []string{"argon2id", "bcrypt"}, cfg.PasswordSchemes)
	require.Equal(t, []string{"http://localhost:8080"}, cfg.CORSOrigins)

	require.ErrorContains(t, cfg.Validate(), "JWT_SECRET is required")
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_NAME", "accounts")
	t.Setenv("DEBUG", "true")
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_DRIVER", "Mongo")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ACCESS_TOKEN_TTL", "15")
	t.Setenv("REFRESH_TOKEN_TTL", "48h")
	t.Setenv("PASSWORD_SCHEMES", " bcrypt , ,argon2id")
	t.Setenv("CORS_ORIGINS", "https://app.example, https://admin.example")

	cfg := LoadConfig()
	require.Equal(t, "accounts", cfg.AppName)
	require.Equal(t, "accounts", cfg.JWTIssuer)
	require.True(t, cfg.Debug)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, DriverMongo, cfg.DatabaseDriver)
	require.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
	require.Equal(t, []string{"bcrypt", "argon2id"}, cfg.PasswordSchemes)
	require.Equal(t, []string{"https://app.example", "https://admin.example"}, cfg.CORSOrigins)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigCORSDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("CORS_ORIGINS", "None")

	cfg := LoadConfig()
	require.Empty(t, cfg.CORSOrigins)
}

func TestLoadConfigReadsDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides variables that exist, even empty ones
	for _, k := range []string{"APP_NAME", "JWT_SECRET"} {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("PORT", "9999")

	dir := t.TempDir()
	dotenv := "APP_NAME=fromfile\nJWT_SECRET=dotenv-secret-0123456789abcdef0123\nPORT=1234\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(dotenv), 0o600))
	t.Chdir(dir)

	cfg := LoadConfig()
	require.Equal(t, "fromfile", cfg.AppName)
	require.Equal(t, "dotenv-secret-0123456789abcdef0123", cfg.JWTSecret)
	require.Equal(t, 9999, cfg.Port, "process environment wins")
}

func TestLoadConfigIgnoresGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("DEBUG", "maybe")
	t.Setenv("ACCESS_TOKEN_TTL", "soon")

	cfg := LoadConfig()
	require.Equal(t, 8080, cfg.Port)
	require.False(t, cfg.Debug)
	require.Equal(t, 30*time.Minute, cfg.AccessTokenTTL)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Port:            8080,
		DatabaseDriver:  DriverSQLite,
		DatabaseFile:    "users.db",
		JWTSecret:       "0123456789abcdef0123456789abcdef",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
		PasswordSchemes: []string{"argon2id"},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "at least 32 bytes"},
		{"unknown driver", func(c *Config) { c.DatabaseDriver = "postgres" }, "unknown DATABASE_DRIVER"},
		{"mongo without uri", func(c *Config) { c.DatabaseDriver = DriverMongo }, "MONGO_URI"},
		{"zero ttl", func(c *Config) { c.AccessTokenTTL = 0 }, "TTLs must be positive"},
		{"bad port", func(c *Config) { c.Port = 70000 }, "invalid PORT"},
		{"no schemes", func(c *Config) { c.PasswordSchemes = nil }, "PASSWORD_SCHEMES"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			require.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
