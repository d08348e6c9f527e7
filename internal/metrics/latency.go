package metrics

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Latency accumulates request durations using Welford's online algorithm,
// giving running mean and standard deviation in O(1) space without storing
// individual observations. Safe for concurrent use by pool workers.
type Latency struct {
	mu    sync.Mutex
	count int
	mean  float64 // seconds
	m2    float64 // sum of squared differences from mean
}

// Observe records one request duration
func (l *Latency) Observe(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	v := d.Seconds()
	delta := v - l.mean
	l.mean += delta / float64(l.count)
	l.m2 += delta * (v - l.mean)
}

// Count returns the number of observations
func (l *Latency) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Mean returns the mean observed duration
func (l *Latency) Mean() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Duration(l.mean * float64(time.Second))
}

// StdDev returns the population standard deviation of observed durations.
// Returns 0 with fewer than 2 observations.
func (l *Latency) StdDev() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.count < 2 {
		return 0
	}
	return time.Duration(math.Sqrt(l.m2/float64(l.count)) * float64(time.Second))
}

// String renders the stats for stage summary logs
func (l *Latency) String() string {
	if l.Count() == 0 {
		return "no requests"
	}
	return fmt.Sprintf("mean %v ± %v over %d requests",
		l.Mean().Round(time.Millisecond), l.StdDev().Round(time.Millisecond), l.Count())
}
