package mapper

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// RunMetrics tracks counters for one profiling or matching run. Workers
// update it concurrently.
type RunMetrics struct {
	mu        sync.Mutex
	StartTime time.Time
	EndTime   time.Time

	// Profiling
	ColumnsProfiled int
	CacheHits       int
	FailedColumns   map[string]string // column full name -> error message

	// Matching
	Matched      int
	Unmatched    int
	ExactMatches int
}

// NewRunMetrics starts a metrics window
func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		StartTime:     time.Now(),
		FailedColumns: make(map[string]string),
	}
}

// Duration returns elapsed time, live until Finish is called
func (m *RunMetrics) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EndTime.IsZero() {
		return time.Since(m.StartTime)
	}
	return m.EndTime.Sub(m.StartTime)
}

// Finish closes the metrics window
func (m *RunMetrics) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EndTime = time.Now()
}

// RecordProfiled counts a successfully profiled column
func (m *RunMetrics) RecordProfiled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ColumnsProfiled++
}

// RecordCacheHit counts a column served from cached signatures
func (m *RunMetrics) RecordCacheHit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits += n
}

// RecordFailure records a column that could not be profiled
func (m *RunMetrics) RecordFailure(column string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailedColumns[column] = err.Error()
}

// RecordMatch tallies one match result by its reason
func (m *RunMetrics) RecordMatch(matched bool, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case !matched:
		m.Unmatched++
	case reason == "exact_code_match":
		m.ExactMatches++
		m.Matched++
	default:
		m.Matched++
	}
}

// LogSummary emits the run totals
func (m *RunMetrics) LogSummary(logger *zap.Logger, phase string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fields := []zap.Field{
		zap.String("phase", phase),
		zap.Duration("duration", m.EndTime.Sub(m.StartTime)),
	}
	if m.ColumnsProfiled > 0 || m.CacheHits > 0 || len(m.FailedColumns) > 0 {
		fields = append(fields,
			zap.Int("columns_profiled", m.ColumnsProfiled),
			zap.Int("cache_hits", m.CacheHits),
			zap.Int("failed_columns", len(m.FailedColumns)))
	}
	if m.Matched > 0 || m.Unmatched > 0 {
		fields = append(fields,
			zap.Int("matched", m.Matched),
			zap.Int("unmatched", m.Unmatched),
			zap.Int("exact_matches", m.ExactMatches))
	}

	logger.Info("Run complete", fields...)
}
