// Defines rate limit tiers and routing rules.

package ratelimit

import (
	"time"
)

// Scope defines how rate limit keys are determined.
type Scope int

const (
	// ScopeIP uses client IP address as the rate limit key.
	ScopeIP Scope = iota
	// ScopeSession uses the admin session ID as the rate limit key.
	ScopeSession
)

// Tier defines a rate limit tier with its limiter and scope.
type Tier struct {
	Name    string
	Limiter *Limiter
	Scope   Scope
}

// Config holds rate limiters for different tiers.
type Config struct {
	Auth  Tier
	Write Tier
	Read  Tier
}

// NewConfig creates a Config from requests-per-minute values.
// A zero value disables the tier's limit by leaving its Limiter nil.
func NewConfig(authPerMin, writePerMin, readPerMin int) *Config {
	c := &Config{
		Auth:  Tier{Name: "auth", Scope: ScopeIP},
		Write: Tier{Name: "write", Scope: ScopeSession},
		Read:  Tier{Name: "read", Scope: ScopeIP},
	}
	if authPerMin > 0 {
		c.Auth.Limiter = NewLimiter(authPerMin, time.Minute, authPerMin)
	}
	if writePerMin > 0 {
		c.Write.Limiter = NewLimiter(writePerMin, time.Minute, max(writePerMin/6, 1))
	}
	if readPerMin > 0 {
		c.Read.Limiter = NewLimiter(readPerMin, time.Minute, max(readPerMin/6, 1))
	}
	return c
}

// DefaultConfig creates a Config with the default rate limits:
//   - Auth: 5 req/min, IP scope
//   - Write: 120 req/min, session scope
//   - Read: 6,000 req/min, IP scope.
func DefaultConfig() *Config {
	return NewConfig(5, 120, 6000)
}

// Match returns the tier for a request. Returns nil for requests that should
// not be rate limited.
func (c *Config) Match(method, path string) *Tier {
	if c == nil {
		return nil
	}

	// Skip health check
	if path == "/api/health" {
		return nil
	}

	if method == "POST" && path == "/api/auth/login" {
		return &c.Auth
	}

	// Write operations
	switch method {
	case "POST", "PUT", "DELETE":
		return &c.Write
	case "GET":
		return &c.Read
	}

	return nil
}

// Close stops all limiter cleanup goroutines.
func (c *Config) Close() {
	if c == nil {
		return
	}
	for _, t := range []*Tier{&c.Auth, &c.Write, &c.Read} {
		if t.Limiter != nil {
			t.Limiter.Close()
		}
	}
}
