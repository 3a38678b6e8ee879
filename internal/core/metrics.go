package core

import (
	"sync"
	"time"
)

// Metrics accumulates run statistics across the lifetime of a runner.
type Metrics struct {
	mu       sync.RWMutex
	runs     int64
	hosts    int64
	failures int64
	errors   int64
	duration time.Duration
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordRun records one finished run.
func (m *Metrics) RecordRun(took time.Duration, hosts, failed int) {
	m.mu.Lock()
	m.runs++
	m.hosts += int64(hosts)
	m.failures += int64(failed)
	m.duration += took
	m.mu.Unlock()
}

// RecordError records a run that was cut short.
func (m *Metrics) RecordError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

// Stats is a point-in-time copy of Metrics.
type Stats struct {
	Runs     int64
	Hosts    int64
	Failures int64
	Errors   int64
	Duration time.Duration
}

func (m *Metrics) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Stats{Runs: m.runs, Hosts: m.hosts, Failures: m.failures, Errors: m.errors, Duration: m.duration}
}
