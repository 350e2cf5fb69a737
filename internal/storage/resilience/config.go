package resilience

import (
	"time"
)

// Config configures the timeout and circuit breaker around a gateway.
type Config struct {
	// Timeout bounds every Get and Set. Zero disables it.
	Timeout time.Duration

	Breaker BreakerConfig
}

// BreakerConfig configures circuit breaker behavior.
type BreakerConfig struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32

	// Interval after which closed-state counts are cleared. Zero never clears.
	Interval time.Duration

	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration

	// ConsecutiveFailures trips the breaker once reached.
	ConsecutiveFailures uint32
}

// DefaultConfig returns the defaults used by the server.
func DefaultConfig() Config {
	return Config{
		Timeout: 5 * time.Second,
		Breaker: BreakerConfig{
			MaxRequests:         1,
			Interval:            60 * time.Second,
			OpenTimeout:         30 * time.Second,
			ConsecutiveFailures: 5,
		},
	}
}

// WithTimeout returns a copy of the config with the specified timeout.
func (c Config) WithTimeout(timeout time.Duration) Config {
	c.Timeout = timeout
	return c
}
