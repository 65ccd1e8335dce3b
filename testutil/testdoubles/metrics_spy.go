package testdoubles

import (
	"sync"
	"time"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// DurationRecord is one captured RecordDuration call.
type DurationRecord struct {
	Metric   string
	Duration time.Duration
	Labels   map[string]string
}

// CounterRecord is one captured IncrementCounter call.
type CounterRecord struct {
	Metric string
	Labels map[string]string
}

// ValueRecord is one captured RecordValue call.
type ValueRecord struct {
	Metric string
	Value  float64
	Labels map[string]string
}

// MetricsCollectorSpy implements circulation.MetricsCollector and records
// every call.
type MetricsCollectorSpy struct {
	mu        sync.Mutex
	durations []DurationRecord
	counters  []CounterRecord
	values    []ValueRecord
}

var _ circulation.MetricsCollector = (*MetricsCollectorSpy)(nil)

// NewMetricsCollectorSpy creates an empty metrics spy.
func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = append(s.durations, DurationRecord{Metric: metric, Duration: duration, Labels: labels})
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters = append(s.counters, CounterRecord{Metric: metric, Labels: labels})
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values = append(s.values, ValueRecord{Metric: metric, Value: value, Labels: labels})
}

// Durations returns a copy of all captured duration recordings.
func (s *MetricsCollectorSpy) Durations() []DurationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]DurationRecord(nil), s.durations...)
}

// Counters returns a copy of all captured counter increments.
func (s *MetricsCollectorSpy) Counters() []CounterRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]CounterRecord(nil), s.counters...)
}

// Values returns a copy of all captured gauge recordings.
func (s *MetricsCollectorSpy) Values() []ValueRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]ValueRecord(nil), s.values...)
}

// CounterCount returns how often the given counter was incremented.
func (s *MetricsCollectorSpy) CounterCount(metric string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0

	for _, record := range s.counters {
		if record.Metric == metric {
			count++
		}
	}

	return count
}

// Reset discards all captured calls.
func (s *MetricsCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.durations = s.durations[:0]
	s.counters = s.counters[:0]
	s.values = s.values[:0]
}
