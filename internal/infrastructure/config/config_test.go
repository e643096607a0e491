package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"HUB_APP_NAME":                os.Getenv("HUB_APP_NAME"),
		"HUB_APP_ENV":                 os.Getenv("HUB_APP_ENV"),
		"HUB_APP_PORT":                os.Getenv("HUB_APP_PORT"),
		"HUB_DATABASE_HOST":           os.Getenv("HUB_DATABASE_HOST"),
		"HUB_DATABASE_PORT":           os.Getenv("HUB_DATABASE_PORT"),
		"HUB_DATABASE_USER":           os.Getenv("HUB_DATABASE_USER"),
		"HUB_DATABASE_PASSWORD":       os.Getenv("HUB_DATABASE_PASSWORD"),
		"HUB_DATABASE_DBNAME":         os.Getenv("HUB_DATABASE_DBNAME"),
		"HUB_DATABASE_SSLMODE":        os.Getenv("HUB_DATABASE_SSLMODE"),
		"HUB_DATABASE_MAX_OPEN_CONNS": os.Getenv("HUB_DATABASE_MAX_OPEN_CONNS"),
		"HUB_DATABASE_MAX_IDLE_CONNS": os.Getenv("HUB_DATABASE_MAX_IDLE_CONNS"),
		"HUB_HUB_PROVIDER_TIMEOUT":    os.Getenv("HUB_HUB_PROVIDER_TIMEOUT"),
		"HUB_HUB_SYNC_INTERVAL":       os.Getenv("HUB_HUB_SYNC_INTERVAL"),
		"HUB_STORAGE_BUCKET":          os.Getenv("HUB_STORAGE_BUCKET"),
		"HUB_STORAGE_USE_SSL":         os.Getenv("HUB_STORAGE_USE_SSL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "integration-hub", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "postgres", cfg.Database.User)
		assert.Equal(t, "", cfg.Database.Password)
		assert.Equal(t, "integration_hub", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
	})

	t.Run("applies hub defaults", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 30*time.Second, cfg.Hub.ProviderTimeout)
		assert.Equal(t, 2.0, cfg.Hub.ProviderRateLimit)
		assert.Equal(t, 60*time.Second, cfg.Hub.TokenSafetyMargin)
		assert.Equal(t, int64(1<<20), cfg.Hub.WebhookMaxBody)
		assert.Equal(t, 24*time.Hour, cfg.Hub.WebhookDedupeTTL)
		// The background pull loop is opt-in
		assert.Zero(t, cfg.Hub.SyncInterval)
	})

	t.Run("loads values from environment variables with HUB prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("HUB_APP_NAME", "test-app")
		os.Setenv("HUB_APP_ENV", "testing")
		os.Setenv("HUB_APP_PORT", "9000")
		os.Setenv("HUB_DATABASE_HOST", "testdb.local")
		os.Setenv("HUB_DATABASE_PORT", "5433")
		os.Setenv("HUB_DATABASE_USER", "testuser")
		os.Setenv("HUB_DATABASE_PASSWORD", "testpass")
		os.Setenv("HUB_DATABASE_DBNAME", "testdb")
		os.Setenv("HUB_DATABASE_SSLMODE", "require")
		os.Setenv("HUB_HUB_PROVIDER_TIMEOUT", "10s")
		os.Setenv("HUB_HUB_SYNC_INTERVAL", "5m")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testing", cfg.App.Env)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "testuser", cfg.Database.User)
		assert.Equal(t, "testpass", cfg.Database.Password)
		assert.Equal(t, "testdb", cfg.Database.DBName)
		assert.Equal(t, "require", cfg.Database.SSLMode)
		assert.Equal(t, 10*time.Second, cfg.Hub.ProviderTimeout)
		assert.Equal(t, 5*time.Minute, cfg.Hub.SyncInterval)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("HUB_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("HUB_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("zero MaxOpenConns uses default", func(t *testing.T) {
		clearEnv()
		os.Setenv("HUB_DATABASE_MAX_OPEN_CONNS", "0")

		cfg, err := Load()
		require.NoError(t, err)
		// 0 is treated as "not set", so default (25) is used
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	})

	t.Run("validates MaxIdleConns cannot be negative", func(t *testing.T) {
		clearEnv()
		os.Setenv("HUB_DATABASE_MAX_IDLE_CONNS", "-1")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns cannot be negative")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"HUB_APP_ENV":           os.Getenv("HUB_APP_ENV"),
		"HUB_DATABASE_PASSWORD": os.Getenv("HUB_DATABASE_PASSWORD"),
		"HUB_DATABASE_SSLMODE":  os.Getenv("HUB_DATABASE_SSLMODE"),
		"HUB_STORAGE_BUCKET":    os.Getenv("HUB_STORAGE_BUCKET"),
		"HUB_STORAGE_USE_SSL":   os.Getenv("HUB_STORAGE_USE_SSL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	// Helper to set valid production base config
	setValidProductionBase := func() {
		os.Setenv("HUB_APP_ENV", "production")
		os.Setenv("HUB_DATABASE_PASSWORD", "secure-password")
		os.Setenv("HUB_DATABASE_SSLMODE", "require")
	}

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("HUB_APP_ENV", "production")
		os.Setenv("HUB_DATABASE_SSLMODE", "require")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		os.Setenv("HUB_APP_ENV", "production")
		os.Setenv("HUB_DATABASE_PASSWORD", "secure-password")
		os.Setenv("HUB_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("requires storage TLS in production when storage is configured", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("HUB_STORAGE_BUCKET", "labels")
		os.Setenv("HUB_STORAGE_USE_SSL", "false")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.use_ssl must be true in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		// URL-encoded password should be in the DSN
		assert.Contains(t, dsn, "pass%40word%23123")
	})

	t.Run("handles empty password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.NotEmpty(t, dsn)
	})
}
