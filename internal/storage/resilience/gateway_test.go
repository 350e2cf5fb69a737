package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"finance-tracker/internal/metrics"
	metricsmem "finance-tracker/internal/metrics/memory"
	"finance-tracker/internal/storage"
	"finance-tracker/internal/storage/memory"
)

// flakyGateway fails every call while failing is set.
type flakyGateway struct {
	mu      sync.Mutex
	failing bool
	delay   time.Duration
	calls   int
}

func (f *flakyGateway) Get(ctx context.Context, key string) (string, error) {
	if err := f.call(ctx); err != nil {
		return "", err
	}
	return "", storage.ErrNotFound
}

func (f *flakyGateway) Set(ctx context.Context, key, value string) error {
	return f.call(ctx)
}

func (f *flakyGateway) call(ctx context.Context) error {
	f.mu.Lock()
	f.calls++
	failing, delay := f.failing, f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if failing {
		return errors.New("connection refused")
	}
	return nil
}

func (f *flakyGateway) Name() string { return "flaky" }
func (f *flakyGateway) Close() error { return nil }

func testConfig() Config {
	return Config{
		Timeout: time.Second,
		Breaker: BreakerConfig{
			MaxRequests:         1,
			OpenTimeout:         time.Hour,
			ConsecutiveFailures: 3,
		},
	}
}

func TestGatewayPassesThrough(t *testing.T) {
	collector := metricsmem.NewCollector()
	g := Wrap(memory.New("mem"), testConfig(), collector, nil)
	ctx := context.Background()

	if err := g.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := g.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != "v" {
		t.Errorf("Get = %q, want %q", got, "v")
	}
	if g.Name() != "mem" {
		t.Errorf("Name = %q, want mem", g.Name())
	}

	snap := collector.Snapshot()
	if snap.Gets["mem"] != 1 || snap.Sets["mem"] != 1 {
		t.Errorf("metrics gets=%d sets=%d, want 1/1", snap.Gets["mem"], snap.Sets["mem"])
	}
}

func TestGatewayNotFoundDoesNotTrip(t *testing.T) {
	g := Wrap(memory.New("mem"), testConfig(), nil, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if _, err := g.Get(ctx, "missing"); !storage.IsNotFound(err) {
			t.Fatalf("Get #%d error = %v, want ErrNotFound", i, err)
		}
	}
	if g.State() != metrics.CircuitClosed {
		t.Errorf("state = %v, want closed", g.State())
	}
}

func TestGatewayOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &flakyGateway{failing: true}
	collector := metricsmem.NewCollector()
	g := Wrap(inner, testConfig(), collector, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := g.Set(ctx, "k", "v"); err == nil {
			t.Fatalf("Set #%d succeeded, want failure", i)
		}
	}

	err := g.Set(ctx, "k", "v")
	if !errors.Is(err, storage.ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3", inner.calls)
	}

	snap := collector.Snapshot()
	if snap.CircuitStates["flaky"] != metrics.CircuitOpen {
		t.Errorf("recorded state = %v, want open", snap.CircuitStates["flaky"])
	}
	if snap.ErrorsByType["circuit_breaker_open"] != 1 {
		t.Errorf("circuit errors = %d, want 1", snap.ErrorsByType["circuit_breaker_open"])
	}
}

func TestGatewayTimeout(t *testing.T) {
	inner := &flakyGateway{delay: 200 * time.Millisecond}
	g := Wrap(inner, testConfig().WithTimeout(10*time.Millisecond), nil, nil)

	err := g.Set(context.Background(), "k", "v")
	if !errors.Is(err, storage.ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
}
