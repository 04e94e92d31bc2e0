// Package telemetry tracks the latency overhead of the security layer and
// exposes process-level Prometheus collectors.
package telemetry

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Defaults for the rolling latency window.
const (
	DefaultWindowSize     = 100
	DefaultSLAThresholdMs = 50.0
	DefaultBaselineMs     = 2400.0 // typical upstream model response time
)

// SLA status values reported by the tracker. The judgment is based on the
// window mean, not on individual samples.
const (
	StatusWithinSLA   = "within_sla"
	StatusSLABreached = "sla_breached"
)

// LatencySnapshot is the derived statistics view over the current window.
type LatencySnapshot struct {
	AvgLatencyMs       float64 `json:"avg_latency_ms"`
	MedianLatencyMs    float64 `json:"median_latency_ms"`
	P95LatencyMs       float64 `json:"p95_latency_ms"`
	PercentageImpact   float64 `json:"percentage_impact"`
	SLAStatus          string  `json:"sla_status"`
	SLAThresholdMs     float64 `json:"sla_threshold_ms"`
	TotalRequests      int64   `json:"total_requests"`
	SLABreaches        int64   `json:"sla_breaches"`
	BreachRate         float64 `json:"breach_rate"`
	WindowSize         int     `json:"window_size"`
	CurrentWindowCount int     `json:"current_window_count"`
}

// LatencyTracker keeps a fixed-capacity FIFO window of recent duration samples
// plus lifetime counters. It is shared by every request handler, so every
// mutation and read goes through one mutex.
type LatencyTracker struct {
	mu sync.Mutex

	window []float64 // ring buffer, milliseconds
	next   int
	size   int

	totalRequests int64
	slaBreaches   int64

	capacity       int
	slaThresholdMs float64
	baselineMs     float64

	metrics *Metrics // optional Prometheus mirror
}

// NewLatencyTracker constructs a tracker. Non-positive arguments fall back to
// the package defaults. metrics may be nil.
func NewLatencyTracker(windowSize int, slaThresholdMs, baselineMs float64, metrics *Metrics) *LatencyTracker {
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	if slaThresholdMs <= 0 {
		slaThresholdMs = DefaultSLAThresholdMs
	}
	if baselineMs <= 0 {
		baselineMs = DefaultBaselineMs
	}
	return &LatencyTracker{
		window:         make([]float64, windowSize),
		capacity:       windowSize,
		slaThresholdMs: slaThresholdMs,
		baselineMs:     baselineMs,
		metrics:        metrics,
	}
}

// Record pushes one duration sample into the window, evicting the oldest
// sample once the window is full. Lifetime counters keep growing regardless
// of the window capacity.
func (t *LatencyTracker) Record(latencyMs float64) {
	t.mu.Lock()
	t.window[t.next] = latencyMs
	t.next = (t.next + 1) % t.capacity
	if t.size < t.capacity {
		t.size++
	}
	t.totalRequests++
	breached := latencyMs > t.slaThresholdMs
	if breached {
		t.slaBreaches++
	}
	t.mu.Unlock()

	t.metrics.ObserveCheckDuration(latencyMs / 1000.0)
	if breached {
		t.metrics.IncSLABreach()
	}
}

// Measure runs op, records its wall-clock duration, and returns the duration
// in milliseconds alongside op's error. time.Since reads the monotonic clock,
// so system clock adjustments cannot skew the measurement.
func (t *LatencyTracker) Measure(op func() error) (float64, error) {
	start := time.Now()
	err := op()
	elapsedMs := float64(time.Since(start)) / float64(time.Millisecond)
	t.Record(elapsedMs)
	return elapsedMs, err
}

// Avg returns the rolling mean latency, or 0 with an empty window.
func (t *LatencyTracker) Avg() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.avgLocked()
}

// Median returns the rolling median latency, or 0 with an empty window.
func (t *LatencyTracker) Median() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	samples := t.sortedLocked()
	n := len(samples)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return samples[n/2]
	}
	return (samples[n/2-1] + samples[n/2]) / 2
}

// P95 returns the 95th-percentile latency: the sorted window indexed at
// floor(0.95*n), clamped to the last element for small windows.
func (t *LatencyTracker) P95() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	samples := t.sortedLocked()
	n := len(samples)
	if n == 0 {
		return 0
	}
	idx := int(float64(n) * 0.95)
	if idx >= n {
		idx = n - 1
	}
	return samples[idx]
}

// PercentageImpact reports the mean latency as a percentage of baselineMs.
// Returns 0 for a non-positive baseline.
func (t *LatencyTracker) PercentageImpact(baselineMs float64) float64 {
	if baselineMs <= 0 {
		return 0
	}
	return t.Avg() / baselineMs * 100.0
}

// SLAStatus reports whether the window mean is within the SLA threshold.
func (t *LatencyTracker) SLAStatus() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.avgLocked() <= t.slaThresholdMs {
		return StatusWithinSLA
	}
	return StatusSLABreached
}

// Snapshot returns all derived statistics in one consistent view.
func (t *LatencyTracker) Snapshot() LatencySnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	samples := t.sortedLocked()
	n := len(samples)

	avg := t.avgLocked()
	var median, p95 float64
	if n > 0 {
		if n%2 == 1 {
			median = samples[n/2]
		} else {
			median = (samples[n/2-1] + samples[n/2]) / 2
		}
		idx := int(float64(n) * 0.95)
		if idx >= n {
			idx = n - 1
		}
		p95 = samples[idx]
	}

	status := StatusWithinSLA
	if avg > t.slaThresholdMs {
		status = StatusSLABreached
	}

	total := t.totalRequests
	if total < 1 {
		total = 1 // divide-by-zero guard for the breach rate only
	}

	return LatencySnapshot{
		AvgLatencyMs:       round2(avg),
		MedianLatencyMs:    round2(median),
		P95LatencyMs:       round2(p95),
		PercentageImpact:   round2(avg / t.baselineMs * 100.0),
		SLAStatus:          status,
		SLAThresholdMs:     t.slaThresholdMs,
		TotalRequests:      t.totalRequests,
		SLABreaches:        t.slaBreaches,
		BreachRate:         round2(float64(t.slaBreaches) / float64(total) * 100.0),
		WindowSize:         t.capacity,
		CurrentWindowCount: n,
	}
}

// Reset clears the window and zeroes both lifetime counters.
func (t *LatencyTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next = 0
	t.size = 0
	t.totalRequests = 0
	t.slaBreaches = 0
}

func (t *LatencyTracker) avgLocked() float64 {
	if t.size == 0 {
		return 0
	}
	var sum float64
	for _, v := range t.windowLocked() {
		sum += v
	}
	return sum / float64(t.size)
}

func (t *LatencyTracker) sortedLocked() []float64 {
	samples := t.windowLocked()
	sort.Float64s(samples)
	return samples
}

func (t *LatencyTracker) windowLocked() []float64 {
	out := make([]float64, t.size)
	copy(out, t.window[:t.size])
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
