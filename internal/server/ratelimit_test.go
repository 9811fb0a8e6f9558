package server

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestRateLimiter_ImmediateBurst(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(5, 60)
	for i := 0; i < 5; i++ {
		if !rl.allow(now) {
			t.Fatalf("burst token %d refused", i)
		}
	}
	if rl.allow(now) {
		t.Fatal("sixth event in the same instant should be refused")
	}
}

func TestRateLimiter_Refill(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(1, 600) // 10 per second
	if !rl.allow(now) {
		t.Fatal("first event refused")
	}
	if rl.allow(now.Add(50 * time.Millisecond)) {
		t.Fatal("half a token should not be enough")
	}
	if !rl.allow(now.Add(150 * time.Millisecond)) {
		t.Fatal("token should have refilled")
	}
}

func TestRateLimiter_CapsAtBurst(t *testing.T) {
	now := time.Now()
	rl := newRateLimiter(2, 600)
	rl.allow(now)
	rl.allow(now)

	later := now.Add(time.Hour)
	allowed := 0
	for i := 0; i < 5; i++ {
		if rl.allow(later) {
			allowed++
		}
	}
	if allowed != 2 {
		t.Fatalf("expected the bucket to cap at 2, got %d", allowed)
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := newRateLimiter(0, 0)
	if rl.lim.Burst() != defaultEventBurst {
		t.Fatalf("expected default burst %d, got %d", defaultEventBurst, rl.lim.Burst())
	}
	if rl.lim.Limit() != rate.Limit(defaultEventRate/60.0) {
		t.Fatalf("unexpected rate %v", rl.lim.Limit())
	}
}
