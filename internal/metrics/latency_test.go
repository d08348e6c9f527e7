package metrics

import (
	"testing"
	"time"
)

func TestLatencyMean(t *testing.T) {
	var l Latency
	l.Observe(1 * time.Second)
	l.Observe(3 * time.Second)

	if got := l.Count(); got != 2 {
		t.Errorf("Count = %d, want 2", got)
	}
	if got := l.Mean(); got != 2*time.Second {
		t.Errorf("Mean = %v, want 2s", got)
	}
	if got := l.StdDev(); got != 1*time.Second {
		t.Errorf("StdDev = %v, want 1s", got)
	}
}

func TestLatencyEmpty(t *testing.T) {
	var l Latency
	if got := l.StdDev(); got != 0 {
		t.Errorf("StdDev of empty = %v", got)
	}
	if got := l.String(); got != "no requests" {
		t.Errorf("String = %q", got)
	}
}
