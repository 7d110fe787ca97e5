package jobcache

import (
	"testing"
	"time"
)

func TestReconnectBackoffDoublesAndResets(t *testing.T) {
	var b reconnectBackoff

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for i, w := range want {
		if got := b.next(); got != w {
			t.Fatalf("next #%d = %v, want %v", i+1, got, w)
		}
	}

	// A process that weathered an outage starts over at one second on
	// the next disconnect.
	b.reset()
	if got := b.next(); got != time.Second {
		t.Errorf("next after reset = %v, want %v", got, time.Second)
	}
}

func TestReconnectBackoffCap(t *testing.T) {
	var b reconnectBackoff
	var last time.Duration
	for i := 0; i < 10; i++ {
		last = b.next()
	}
	if last != maxRetryBackoff {
		t.Errorf("capped delay = %v, want %v", last, maxRetryBackoff)
	}
}
