// Package metrics provides metrics collection for the endpoint runner.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector collects and aggregates execution metrics.
type Collector struct {
	// Counters
	runsTotal      atomic.Int64
	requestsTotal  atomic.Int64
	successesTotal atomic.Int64
	failuresTotal  atomic.Int64

	// Response time tracking
	responseTimesSum atomic.Int64
	responseTimesNum atomic.Int64

	// Gauges
	activeWorkers atomic.Int64
	peakWorkers   atomic.Int64

	// Error breakdown
	errorCounts map[string]*atomic.Int64
	errorMu     sync.RWMutex

	// Status code breakdown
	statusCodes map[int]*atomic.Int64
	statusMu    sync.RWMutex

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	return &Collector{
		errorCounts: make(map[string]*atomic.Int64),
		statusCodes: make(map[int]*atomic.Int64),
		startTime:   time.Now(),
	}
}

// RecordRun records a completed batch run.
func (c *Collector) RecordRun() {
	c.runsTotal.Add(1)
}

// RecordRequest records an attempted endpoint invocation.
func (c *Collector) RecordRequest() {
	c.requestsTotal.Add(1)
}

// RecordSuccess records a completed invocation and its status code.
func (c *Collector) RecordSuccess(statusCode int) {
	c.successesTotal.Add(1)

	c.statusMu.Lock()
	if c.statusCodes[statusCode] == nil {
		c.statusCodes[statusCode] = &atomic.Int64{}
	}
	c.statusCodes[statusCode].Add(1)
	c.statusMu.Unlock()
}

// RecordFailure records a failed invocation by error type.
func (c *Collector) RecordFailure(errorType string) {
	c.failuresTotal.Add(1)

	c.errorMu.Lock()
	if c.errorCounts[errorType] == nil {
		c.errorCounts[errorType] = &atomic.Int64{}
	}
	c.errorCounts[errorType].Add(1)
	c.errorMu.Unlock()
}

// RecordResponseTime records a response time.
func (c *Collector) RecordResponseTime(d time.Duration) {
	c.responseTimesSum.Add(d.Milliseconds())
	c.responseTimesNum.Add(1)
}

// WorkerStarted marks one worker as active and updates the peak gauge.
func (c *Collector) WorkerStarted() {
	active := c.activeWorkers.Add(1)
	for {
		peak := c.peakWorkers.Load()
		if active <= peak || c.peakWorkers.CompareAndSwap(peak, active) {
			return
		}
	}
}

// WorkerDone marks one worker as idle.
func (c *Collector) WorkerDone() {
	c.activeWorkers.Add(-1)
}

// ActiveWorkers returns the current number of in-flight invocations.
func (c *Collector) ActiveWorkers() int64 {
	return c.activeWorkers.Load()
}

// PeakWorkers returns the highest number of simultaneous invocations seen.
func (c *Collector) PeakWorkers() int64 {
	return c.peakWorkers.Load()
}

// ResetPeak clears the peak worker gauge. Used between runs.
func (c *Collector) ResetPeak() {
	c.peakWorkers.Store(0)
}

// Snapshot is a point-in-time view of collected metrics.
type Snapshot struct {
	RunsTotal       int64            `json:"runs_total"`
	RequestsTotal   int64            `json:"requests_total"`
	SuccessesTotal  int64            `json:"successes_total"`
	FailuresTotal   int64            `json:"failures_total"`
	AvgResponseMs   int64            `json:"avg_response_ms"`
	ActiveWorkers   int64            `json:"active_workers"`
	PeakWorkers     int64            `json:"peak_workers"`
	ErrorBreakdown  map[string]int64 `json:"error_breakdown,omitempty"`
	StatusBreakdown map[int]int64    `json:"status_breakdown,omitempty"`
	UptimeSeconds   int64            `json:"uptime_seconds"`
}

// GetSnapshot returns a copy of the current metrics.
func (c *Collector) GetSnapshot() Snapshot {
	s := Snapshot{
		RunsTotal:      c.runsTotal.Load(),
		RequestsTotal:  c.requestsTotal.Load(),
		SuccessesTotal: c.successesTotal.Load(),
		FailuresTotal:  c.failuresTotal.Load(),
		ActiveWorkers:  c.activeWorkers.Load(),
		PeakWorkers:    c.peakWorkers.Load(),
		UptimeSeconds:  int64(time.Since(c.startTime).Seconds()),
	}

	if n := c.responseTimesNum.Load(); n > 0 {
		s.AvgResponseMs = c.responseTimesSum.Load() / n
	}

	c.errorMu.RLock()
	if len(c.errorCounts) > 0 {
		s.ErrorBreakdown = make(map[string]int64, len(c.errorCounts))
		for k, v := range c.errorCounts {
			s.ErrorBreakdown[k] = v.Load()
		}
	}
	c.errorMu.RUnlock()

	c.statusMu.RLock()
	if len(c.statusCodes) > 0 {
		s.StatusBreakdown = make(map[int]int64, len(c.statusCodes))
		for k, v := range c.statusCodes {
			s.StatusBreakdown[k] = v.Load()
		}
	}
	c.statusMu.RUnlock()

	return s
}
