package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	limiter := NewLimiter(10, 5)
	if limiter.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", limiter.defaultBurst)
	}

	l2 := NewLimiter(10, -1)
	if l2.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l2.defaultBurst)
	}
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(100, 1) // 100 rps, burst 1
	ctx := context.Background()

	url := "https://www.courtlistener.com/api/rest/v4/search/"
	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("wait failed: %v", err)
	}

	// Different host should also work
	if err := limiter.Wait(ctx, "https://caselaw.example.org"); err != nil {
		t.Errorf("wait failed: %v", err)
	}
}

func TestLimiter_WaitWithDelay(t *testing.T) {
	limiter := NewLimiter(1000, 10)
	ctx := context.Background()
	url := "http://example.com"

	// First request reserves the slot and returns immediately
	start := time.Now()
	if err := limiter.WaitWithDelay(ctx, url, 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("first request should not sleep, took %v", elapsed)
	}

	// Second request to the same host waits out the gap
	start = time.Now()
	if err := limiter.WaitWithDelay(ctx, url, 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected gap >= 50ms, got %v", elapsed)
	}

	// A different host has its own schedule
	start = time.Now()
	if err := limiter.WaitWithDelay(ctx, "http://other.example.org", 50*time.Millisecond); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("other host should not share the gap, took %v", elapsed)
	}
}

func TestLimiter_WaitWithDelay_ConcurrentCallers(t *testing.T) {
	limiter := NewLimiter(1000, 10)
	ctx := context.Background()
	url := "http://example.com"

	var mu sync.Mutex
	var done []time.Time

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.WaitWithDelay(ctx, url, 100*time.Millisecond); err != nil {
				t.Errorf("WaitWithDelay failed: %v", err)
				return
			}
			mu.Lock()
			done = append(done, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(done) != 2 {
		t.Fatalf("expected 2 completions, got %d", len(done))
	}
	gap := done[1].Sub(done[0])
	if gap < 0 {
		gap = -gap
	}
	if gap < 80*time.Millisecond {
		t.Errorf("concurrent requests to one host must be spaced by the minimum delay, gap was %v", gap)
	}
}

func TestLimiter_WaitWithDelay_Cancelled(t *testing.T) {
	limiter := NewLimiter(1000, 10)
	url := "http://example.com"

	// Occupy the slot so the next caller has to wait
	if err := limiter.WaitWithDelay(context.Background(), url, time.Second); err != nil {
		t.Fatalf("WaitWithDelay failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.WaitWithDelay(ctx, url, time.Second); err == nil {
		t.Error("expected context error while waiting for the gap")
	}
}

func TestLimiter_RateLimit(t *testing.T) {
	// 1 rps, burst 1
	limiter := NewLimiter(1, 1)
	ctx := context.Background()
	url := "http://example.com"

	// First request consumes the single burst token
	if err := limiter.Wait(ctx, url); err != nil {
		t.Errorf("first wait failed: %v", err)
	}

	if limiter.Allow(url) {
		t.Errorf("expected allow to fail (exhausted tokens)")
	}

	// A different host has its own bucket
	if !limiter.Allow("http://other.com") {
		t.Errorf("expected allow for other host")
	}
}

func TestLimiter_SetHostRate(t *testing.T) {
	limiter := NewLimiter(10, 10) // fast default
	host := "slow.example.com"

	limiter.SetHostRate(host, 0.1, 1) // very slow

	// First request passes (burst 1)
	if !limiter.Allow("http://" + host) {
		t.Errorf("first request should pass")
	}

	// Second request fails
	if limiter.Allow("http://" + host) {
		t.Errorf("second request should fail")
	}

	// Other host still fast
	if !limiter.Allow("http://fast.example.com") {
		t.Errorf("other host should pass")
	}
}

func TestExtractHost(t *testing.T) {
	host, err := extractHost("http://example.com/foo")
	if err != nil {
		t.Fatalf("extractHost failed: %v", err)
	}
	if host != "example.com" {
		t.Errorf("expected example.com, got %s", host)
	}

	_, err = extractHost("::invalid")
	if err == nil {
		t.Errorf("expected error for invalid URL")
	}
}
