package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_EXPIRY_HOURS", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("AUTH_RATE_LIMIT", "")

	cfg := Load()

	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 30, cfg.AuthRateLimit)
	assert.Nil(t, cfg.AllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_EXPIRY_HOURS", "2")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	t.Setenv("BCRYPT_COST", "not-a-number")

	cfg := Load()

	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, 10, cfg.BcryptCost, "unparsable values fall back to the default")
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "course:7:events", CacheKey.CourseEventsChannel(7))
	assert.Equal(t, "ratelimit:auth:10.0.0.1:42", CacheKey.AuthRateKey("10.0.0.1", 42))
}
