package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyDefaults(t *testing.T) {
	var c AppConfig
	applyDefaults(&c)

	assert.Equal(t, "8000", c.AppPort)
	assert.Equal(t, "release", c.GinMode)
	assert.Equal(t, "postgres", c.DBDriver)
	assert.Equal(t, "5432", c.DBPort)
	assert.Equal(t, 6379, c.RedisPort)
	assert.Equal(t, 60, c.RateLimitPerMinute)
	assert.Equal(t, "http://localhost:5173", c.FrontendBaseURL)
	assert.Equal(t, "info", c.LogLevel)
	assert.NotEmpty(t, c.AllowedOrigins)
}

func TestApplyDefaultsMySQLPort(t *testing.T) {
	c := AppConfig{DBDriver: "mysql"}
	applyDefaults(&c)
	assert.Equal(t, "3306", c.DBPort)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9100")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")
	t.Setenv("SMTP_TLS", "true")

	var c AppConfig
	applyEnvOverrides(&c)

	assert.Equal(t, "9100", c.AppPort)
	assert.Equal(t, "mysql", c.DBDriver)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, c.AllowedOrigins)
	assert.Equal(t, 120, c.RateLimitPerMinute)
	assert.True(t, c.SMTPTLS)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a , b ,"))
	assert.Empty(t, splitAndTrim(""))
}
