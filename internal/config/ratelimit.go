package config

import (
	"os"
	"time"
)

// RateLimitConfig parameterizes one token-bucket tier. Two tiers are
// loaded at startup: a general per-IP limit applied to every route
// and a stricter one applied to /api/auth/* to slow down credential
// guessing.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig returns the general tier: 100 requests with a
// refill of one token every 9 seconds (~100 per 15 minutes).
func LoadRateLimitConfig() RateLimitConfig {
	return normalize(RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 100),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 9*time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 30*time.Minute),
		Prefix:         envStr("RATE_LIMIT_PREFIX", "rl"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	})
}

// LoadAuthRateLimitConfig returns the auth tier: 5 attempts with a
// refill of one token every 3 minutes (~5 per 15 minutes).
func LoadAuthRateLimitConfig() RateLimitConfig {
	return normalize(RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("AUTH_RATE_LIMIT_CAPACITY", 5),
		RefillTokens:   envInt("AUTH_RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("AUTH_RATE_LIMIT_REFILL_INTERVAL", 3*time.Minute),
		TTL:            envDur("AUTH_RATE_LIMIT_TTL", 30*time.Minute),
		Prefix:         envStr("AUTH_RATE_LIMIT_PREFIX", "rl:auth"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	})
}

func normalize(c RateLimitConfig) RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if dur, err := time.ParseDuration(v); err == nil {
			return dur
		}
	}
	return d
}
