package http

import (
	"sync"
	"time"
)

const (
	rateWindow     = time.Minute
	rateSweepEvery = 5 * time.Minute
	rateIdleAfter  = 10 * time.Minute
)

// rateLimiter counts requests per client IP in fixed one-minute windows.
type rateLimiter struct {
	limit int

	mu      sync.Mutex
	windows map[string]window

	done     chan struct{}
	stopOnce sync.Once
}

type window struct {
	opened time.Time
	count  int
}

func newRateLimiter(perMinute int) *rateLimiter {
	rl := &rateLimiter{
		limit:   perMinute,
		windows: make(map[string]window),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// allow records a request from ip at now and reports whether it fits the
// current window.
func (rl *rateLimiter) allow(ip string, now time.Time) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[ip]
	if !ok || now.Sub(w.opened) > rateWindow {
		w = window{opened: now}
	}
	w.count++
	rl.windows[ip] = w
	return w.count <= rl.limit
}

func (rl *rateLimiter) sweepLoop() {
	t := time.NewTicker(rateSweepEvery)
	defer t.Stop()
	for {
		select {
		case <-rl.done:
			return
		case now := <-t.C:
			rl.sweep(now)
		}
	}
}

// sweep drops windows opened more than rateIdleAfter before now.
func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, w := range rl.windows {
		if now.Sub(w.opened) > rateIdleAfter {
			delete(rl.windows, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
