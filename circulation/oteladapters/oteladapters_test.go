package oteladapters_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/mohamedzaid0/Library-project-sql/circulation/oteladapters"
)

func Test_SlogBridgeLoggerWithHandler_WritesThroughHandler(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	logger := oteladapters.NewSlogBridgeLoggerWithHandler(handler)

	// act
	logger.InfoContext(context.Background(), "book issued", "book_id", "b-1")
	logger.ErrorContext(context.Background(), "append failed", "error", "boom")

	// assert
	output := buf.String()
	assert.Contains(t, output, "book issued")
	assert.Contains(t, output, "book_id=b-1")
	assert.Contains(t, output, "append failed")
}

func Test_MetricsCollector_AcceptsAllInstrumentKinds(t *testing.T) {
	// arrange
	meter := metricnoop.NewMeterProvider().Meter("circulation-test")
	collector := oteladapters.NewMetricsCollector(meter)
	labels := map[string]string{"operation": "issue"}

	// act + assert: no panics on any instrument path
	collector.RecordDuration("circulation_operation_duration", 25*time.Millisecond, labels)
	collector.RecordDurationContext(context.Background(), "circulation_operation_duration", 25*time.Millisecond, labels)
	collector.IncrementCounter("circulation_operation_errors", labels)
	collector.IncrementCounterContext(context.Background(), "circulation_operation_errors", labels)
	collector.RecordValue("circulation_open_issues", 3, labels)
	collector.RecordValueContext(context.Background(), "circulation_open_issues", 3, labels)
}

func Test_TracingCollector_StartAndFinishSpan(t *testing.T) {
	// arrange
	tracer := tracenoop.NewTracerProvider().Tracer("circulation-test")
	collector := oteladapters.NewTracingCollector(tracer)

	// act
	ctx, span := collector.StartSpan(context.Background(), "circulation.issue",
		map[string]string{"book_id": "b-1"})

	// assert
	require.NotNil(t, ctx)
	require.NotNil(t, span)

	span.AddAttribute("member_id", "m-1")
	span.SetStatus("success")
	collector.FinishSpan(span, "success", map[string]string{"status": "success"})
}
