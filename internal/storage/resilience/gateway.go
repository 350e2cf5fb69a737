// Package resilience wraps a storage gateway with a timeout, a circuit
// breaker and metrics.
package resilience

import (
	"context"
	"errors"
	"time"

	"finance-tracker/internal/log"
	"finance-tracker/internal/metrics"
	"finance-tracker/internal/storage"

	"github.com/sony/gobreaker"
)

// Gateway decorates a storage.Gateway. A missing key is not a failure as far
// as the breaker is concerned.
type Gateway struct {
	inner   storage.Gateway
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
	metrics metrics.Collector
	logger  *log.Logger
}

var _ storage.Gateway = (*Gateway)(nil)

// Wrap builds a resilient gateway around inner. A nil collector or logger
// falls back to no-op implementations.
func Wrap(inner storage.Gateway, cfg Config, collector metrics.Collector, logger *log.Logger) *Gateway {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentStorage).With(log.FieldBackend, inner.Name())

	g := &Gateway{
		inner:   inner,
		timeout: cfg.Timeout,
		metrics: collector,
		logger:  logger,
	}

	threshold := cfg.Breaker.ConsecutiveFailures
	if threshold == 0 {
		threshold = 5
	}

	g.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        inner.Name(),
		MaxRequests: cfg.Breaker.MaxRequests,
		Interval:    cfg.Breaker.Interval,
		Timeout:     cfg.Breaker.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || storage.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"from", from.String(),
				"to", to.String(),
			)
			g.metrics.RecordCircuitState(name, circuitState(to))
		},
	})

	logger.Debug("resilient gateway initialized",
		"timeout", cfg.Timeout,
		"failure_threshold", threshold,
	)

	return g
}

func (g *Gateway) Name() string {
	return g.inner.Name()
}

// Get reads key through the breaker.
func (g *Gateway) Get(ctx context.Context, key string) (string, error) {
	start := time.Now()
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	result, err := g.cb.Execute(func() (interface{}, error) {
		return g.inner.Get(ctx, key)
	})

	duration := time.Since(start)
	g.metrics.RecordGet(g.Name(), err == nil, duration)
	if err != nil {
		err = g.translate(ctx, err)
		if !storage.IsNotFound(err) {
			g.fail("get", key, duration, err)
		}
		return "", err
	}

	value, _ := result.(string)
	return value, nil
}

// Set writes value under key through the breaker.
func (g *Gateway) Set(ctx context.Context, key, value string) error {
	start := time.Now()
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	_, err := g.cb.Execute(func() (interface{}, error) {
		return nil, g.inner.Set(ctx, key, value)
	})

	duration := time.Since(start)
	g.metrics.RecordSet(g.Name(), err == nil, duration)
	if err != nil {
		err = g.translate(ctx, err)
		g.fail("set", key, duration, err)
		return err
	}
	return nil
}

func (g *Gateway) Close() error {
	return g.inner.Close()
}

// State reports the breaker's current state.
func (g *Gateway) State() metrics.CircuitState {
	return circuitState(g.cb.State())
}

func (g *Gateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

func (g *Gateway) translate(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return storage.ErrCircuitOpen
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return storage.ErrTimeout
	}
	return err
}

func (g *Gateway) fail(op, key string, duration time.Duration, err error) {
	errType := storage.ClassifyError(err)
	g.metrics.RecordError(g.Name(), op, errType)

	switch {
	case errors.Is(err, storage.ErrCircuitOpen):
		g.logger.Warn("circuit breaker open - request rejected",
			log.FieldOperation, op,
			log.FieldStorageKey, key,
		)
	case errors.Is(err, storage.ErrTimeout):
		g.logger.Warn("operation timeout",
			log.FieldOperation, op,
			log.FieldStorageKey, key,
			"timeout", g.timeout,
		)
	default:
		g.logger.Error("storage operation failed",
			log.FieldOperation, op,
			log.FieldStorageKey, key,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldErrorType, errType,
			log.FieldError, err,
		)
	}
}

func circuitState(s gobreaker.State) metrics.CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	default:
		return metrics.CircuitClosed
	}
}
