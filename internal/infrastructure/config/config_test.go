package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "autoshop-backend", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "8080", cfg.App.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 15*time.Second, cfg.HTTP.ReadTimeout)
	assert.Empty(t, cfg.HTTP.CORSAllowOrigins, "no cross-origin access until configured")
	assert.Contains(t, cfg.HTTP.CORSAllowHeaders, "X-Branch-ID")
}

func TestValidate_PoolSettings(t *testing.T) {
	cfg := defaultConfig()
	cfg.Database.MaxIdleConns = 50
	cfg.Database.MaxOpenConns = 10

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_idle_conns")
}

func TestValidate_ProductionRequirements(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			"missing password",
			func(c *Config) {},
			"database.password is required",
		},
		{
			"ssl disabled",
			func(c *Config) { c.Database.Password = "secret" },
			"sslmode",
		},
		{
			"wildcard cors",
			func(c *Config) {
				c.Database.Password = "secret"
				c.Database.SSLMode = "require"
				c.HTTP.CORSAllowOrigins = []string{"*"}
			},
			"cors_allow_origins",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.App.Env = "production"
			tt.mutate(cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ProductionOK(t *testing.T) {
	cfg := defaultConfig()
	cfg.App.Env = "production"
	cfg.Database.Password = "secret"
	cfg.Database.SSLMode = "require"
	cfg.HTTP.CORSAllowOrigins = []string{"https://shop.example.com"}

	require.NoError(t, cfg.validate())
}

func TestValidate_LogLevel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Log.Level = "verbose"

	err := cfg.validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestDSN_EscapesCredentials(t *testing.T) {
	db := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "autoshop",
		Password: "p@ss/word",
		DBName:   "autoshop",
		SSLMode:  "require",
	}

	dsn := db.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	assert.NotContains(t, dsn, "p@ss/word", "raw password must be escaped")
}
