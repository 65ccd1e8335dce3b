package testdoubles

import (
	"context"
	"sync"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

// SpanRecord is one captured span with its lifecycle data.
type SpanRecord struct {
	Name         string
	StartAttrs   map[string]string
	FinishStatus string
	FinishAttrs  map[string]string
	Finished     bool
}

// SpanContextSpy implements circulation.SpanContext and records attribute
// and status updates.
type SpanContextSpy struct {
	mu     sync.Mutex
	record *SpanRecord
	status string
	attrs  map[string]string
}

var _ circulation.SpanContext = (*SpanContextSpy)(nil)

func (s *SpanContextSpy) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = status
}

func (s *SpanContextSpy) AddAttribute(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attrs == nil {
		s.attrs = make(map[string]string)
	}

	s.attrs[key] = value
}

// TracingCollectorSpy implements circulation.TracingCollector and records
// every span.
type TracingCollectorSpy struct {
	mu    sync.Mutex
	spans []*SpanRecord
}

var _ circulation.TracingCollector = (*TracingCollectorSpy)(nil)

// NewTracingCollectorSpy creates an empty tracing spy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, circulation.SpanContext) {

	record := &SpanRecord{Name: name, StartAttrs: attrs}

	s.mu.Lock()
	s.spans = append(s.spans, record)
	s.mu.Unlock()

	return ctx, &SpanContextSpy{record: record}
}

func (s *TracingCollectorSpy) FinishSpan(spanCtx circulation.SpanContext, status string, attrs map[string]string) {
	spy, ok := spanCtx.(*SpanContextSpy)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	spy.record.FinishStatus = status
	spy.record.FinishAttrs = attrs
	spy.record.Finished = true
}

// Spans returns a copy of all captured span records.
func (s *TracingCollectorSpy) Spans() []SpanRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	spans := make([]SpanRecord, 0, len(s.spans))
	for _, span := range s.spans {
		spans = append(spans, *span)
	}

	return spans
}
