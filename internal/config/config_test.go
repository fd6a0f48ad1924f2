package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, "0.0.0.0:8000", cfg.HTTPAddr)
	assert.Equal(t, "http://localhost:3002", cfg.EngineURL)
	assert.Equal(t, 30*time.Second, cfg.EngineTimeout)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 100, cfg.RateLimitRequests)
	assert.Empty(t, cfg.RedisURL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("ENGINE_TIMEOUT", "45s")
	t.Setenv("HEARTBEAT_INTERVAL", "60") // plain seconds accepted too
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")

	cfg := FromEnv()

	assert.Equal(t, "127.0.0.1:9000", cfg.HTTPAddr)
	assert.Equal(t, 45*time.Second, cfg.EngineTimeout)
	assert.Equal(t, time.Minute, cfg.HeartbeatInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 10, cfg.RateLimitRequests)
}

func TestFromEnvMalformedValuesFallBack(t *testing.T) {
	t.Setenv("ENGINE_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_REQUESTS", "many")

	cfg := FromEnv()
	assert.Equal(t, 30*time.Second, cfg.EngineTimeout)
	assert.Equal(t, 100, cfg.RateLimitRequests)
}
