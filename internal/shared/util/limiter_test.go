package util

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	// 10 tokens per second, burst of 2
	l := NewLimiter(10, 2)

	if !l.Allow() {
		t.Error("expected first token to be allowed")
	}
	if !l.Allow() {
		t.Error("expected second token to be allowed (burst)")
	}
	if l.Allow() {
		t.Error("expected third token to be rejected (burst exhausted)")
	}
	if d := l.RetryAfter(); d <= 0 || d > 200*time.Millisecond {
		t.Errorf("unexpected retry-after %s", d)
	}

	time.Sleep(150 * time.Millisecond)
	if !l.Allow() {
		t.Error("expected token to be refilled after wait")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !l.Allow() {
			t.Fatalf("request %d rejected with limiting disabled", i)
		}
	}
}

func TestLimiterRegistry(t *testing.T) {
	reg := NewLimiterRegistry(100, 10, time.Hour)
	defer reg.Close()

	l1 := reg.Get("1.1.1.1")
	l2 := reg.Get("2.2.2.2")

	if l1 == l2 {
		t.Error("expected different limiters for different clients")
	}
	if reg.Get("1.1.1.1") != l1 {
		t.Error("expected same limiter for same client")
	}
	if reg.Len() != 2 {
		t.Errorf("expected 2 tracked clients, got %d", reg.Len())
	}

	reg.cleanup(time.Now().Add(2 * time.Hour))
	if reg.Len() != 0 {
		t.Errorf("expected idle clients to be dropped, got %d", reg.Len())
	}
	if reg.Get("1.1.1.1") == l1 {
		t.Error("expected old limiter to be replaced after cleanup")
	}
}
