package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:                 "development",
		Port:                "8000",
		JWTSecret:           "secure-secret-at-least-32-chars-long",
		JWTAccessTTLMinutes: 15,
		JWTRefreshTTLHours:  168,
		DBDriver:            "postgres",
		DBPassword:          "secure-password",
		DBSSLMode:           "require",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
	}{
		{"Valid development", func(*Config) {}, false},
		{"Missing port", func(c *Config) { c.Port = "" }, true},
		{"Missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"Zero access ttl", func(c *Config) { c.JWTAccessTTLMinutes = 0 }, true},
		{"Zero refresh ttl", func(c *Config) { c.JWTRefreshTTLHours = 0 }, true},
		{"Unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"SQLite driver", func(c *Config) { c.DBDriver = "sqlite" }, false},
		{"Production default secret", func(c *Config) {
			c.Env = "production"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"Production short secret", func(c *Config) {
			c.Env = "prod"
			c.JWTSecret = "short"
		}, true},
		{"Production weak db password", func(c *Config) {
			c.Env = "production"
			c.DBPassword = "password"
		}, true},
		{"Production sqlite ignores db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "sqlite"
			c.DBPassword = ""
		}, false},
		{"Production valid", func(c *Config) { c.Env = "production" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_ACCESS_TTL_MINUTES", "30")

	c, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, 30, c.JWTAccessTTLMinutes)
	assert.Equal(t, 168, c.JWTRefreshTTLHours)
	assert.Equal(t, "8000", c.Port)
	assert.Equal(t, "hybrid", c.DBSchemaMode)
	assert.False(t, c.IsProduction())
}

func TestLoadConfig_MissingProfile(t *testing.T) {
	t.Setenv("APP_ENV", "staging-nonexistent")

	_, err := LoadConfig()
	assert.Error(t, err)
}
