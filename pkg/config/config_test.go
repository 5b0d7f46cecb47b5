package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 2, cfg.Scheduler.AttemptFactor)
	assert.Equal(t, 3, cfg.Scheduler.TopCandidates)
	assert.Equal(t, 5, cfg.Scheduler.WorkingDays)
	assert.Equal(t, 30*time.Minute, cfg.Cache.ResultTTL)
	assert.Equal(t, float64(2), cfg.RateLimit.RPS)
	assert.Equal(t, 4, cfg.RateLimit.Burst)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SCHEDULER_WORKING_DAYS", 6)
	v.Set("SCHEDULER_RESULT_TTL", "2h")
	v.Set("ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	v.Set("ENABLE_RESULT_CACHE", true)

	cfg := fromViper(v)
	assert.Equal(t, 6, cfg.Scheduler.WorkingDays)
	assert.Equal(t, 2*time.Hour, cfg.Cache.ResultTTL)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)

	v.Set("SCHEDULER_WORKING_DAYS", 4)
	assert.Equal(t, 5, fromViper(v).Scheduler.WorkingDays)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
}
