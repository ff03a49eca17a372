package ratelimit

import (
	"testing"
	"time"
)

func TestAllowEnforcesBurst(t *testing.T) {
	l := New(10, time.Minute, 10*time.Minute)

	for i := 0; i < 10; i++ {
		if !l.Allow("u1") {
			t.Fatalf("call %d rejected within burst", i+1)
		}
	}
	if l.Allow("u1") {
		t.Fatalf("call 11 allowed, want rejection")
	}
}

func TestAllowIsPerKey(t *testing.T) {
	l := New(1, time.Minute, 10*time.Minute)

	if !l.Allow("u1") {
		t.Fatalf("first call for u1 rejected")
	}
	if l.Allow("u1") {
		t.Fatalf("second call for u1 allowed")
	}
	if !l.Allow("u2") {
		t.Fatalf("u2 limited by u1's sends")
	}
}

func TestIdleSendersAreCollected(t *testing.T) {
	base := time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	now := base

	kl := New(5, time.Minute, time.Minute).(*keyedLimiter)
	kl.now = func() time.Time { return now }

	kl.Allow("u1")
	if len(kl.senders) != 1 {
		t.Fatalf("senders = %d, want 1", len(kl.senders))
	}

	now = base.Add(2 * time.Minute)
	kl.Allow("u2")
	if _, ok := kl.senders["u1"]; ok {
		t.Fatalf("idle sender u1 not collected")
	}
	if _, ok := kl.senders["u2"]; !ok {
		t.Fatalf("active sender u2 missing")
	}
}

func TestZeroConfigFallsBackToSaneDefaults(t *testing.T) {
	l := New(0, 0, 0)
	if !l.Allow("u1") {
		t.Fatalf("first call rejected under default config")
	}
}
