package engine

import (
	"context"
	"math"
	"time"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
)

const (
	logMsgOperationCompleted = "circulation operation completed"
	logMsgOperationFailed    = "circulation operation failed"
	logMsgCompensationFailed = "failed to undo availability transition after append failure"

	logAttrOperation  = "operation"
	logAttrIssueID    = "issue_id"
	logAttrBookID     = "book_id"
	logAttrBookTitle  = "book_title"
	logAttrError      = "error"
	logAttrDurationMS = "duration_ms"

	metricOperationDuration = "circulation_operation_duration"
	metricOperationErrors   = "circulation_operation_errors"
	metricConflicts         = "circulation_conflicts"

	spanNamePrefix   = "circulation."
	spanAttrBookID   = "book_id"
	spanAttrIssueID  = "issue_id"
	spanAttrReturnID = "return_id"
	spanAttrErrType  = "error_type"

	statusSuccess  = "success"
	statusError    = "error"
	statusConflict = "conflict"

	labelOperation = "operation"
	labelStatus    = "status"
)

// startSpan starts a tracing span if a tracing collector is configured.
func (e *Engine) startSpan(
	ctx context.Context,
	operation string,
	attrs map[string]string,
) (context.Context, circulation.SpanContext) {

	if e.tracingCollector == nil {
		return ctx, nil
	}

	attrs[labelOperation] = operation

	return e.tracingCollector.StartSpan(ctx, spanNamePrefix+operation, attrs)
}

// completeOperation records the success path: metrics, span, log and the
// completion notification.
func (e *Engine) completeOperation(
	ctx context.Context,
	span circulation.SpanContext,
	operation string,
	issueID string,
	bookTitle string,
	start time.Time,
) {

	duration := e.clock().Sub(start)

	e.recordDuration(ctx, operation, statusSuccess, duration)
	e.finishSpan(span, statusSuccess, nil)
	e.logInfo(ctx, logMsgOperationCompleted,
		logAttrOperation, operation,
		logAttrIssueID, issueID,
		logAttrBookTitle, bookTitle,
		logAttrDurationMS, toMilliseconds(duration))
	e.notify(operation, issueID, bookTitle, circulation.NotificationCompleted, "")
}

// failOperation records the failure path and passes the error back
// unchanged so callers receive the precise circulation error.
func (e *Engine) failOperation(
	ctx context.Context,
	span circulation.SpanContext,
	operation string,
	issueID string,
	bookTitle string,
	err error,
	start time.Time,
) error {

	duration := e.clock().Sub(start)
	status := statusError

	if circulation.IsConflict(err) {
		status = statusConflict
		e.incrementCounter(ctx, metricConflicts, operation, status)
	} else {
		e.incrementCounter(ctx, metricOperationErrors, operation, status)
	}

	e.recordDuration(ctx, operation, status, duration)
	e.finishSpan(span, status, map[string]string{spanAttrErrType: err.Error()})
	e.logError(ctx, logMsgOperationFailed, err,
		logAttrOperation, operation,
		logAttrIssueID, issueID,
		logAttrDurationMS, toMilliseconds(duration))
	e.notify(operation, issueID, bookTitle, circulation.NotificationFailed, err.Error())

	return err
}

func (e *Engine) finishSpan(span circulation.SpanContext, status string, attrs map[string]string) {
	if e.tracingCollector == nil || span == nil {
		return
	}

	span.SetStatus(status)
	e.tracingCollector.FinishSpan(span, status, attrs)
}

func (e *Engine) recordDuration(ctx context.Context, operation, status string, duration time.Duration) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: operation, labelStatus: status}

	if contextual, ok := e.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextual.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
		return
	}

	e.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
}

func (e *Engine) incrementCounter(ctx context.Context, metric, operation, status string) {
	if e.metricsCollector == nil {
		return
	}

	labels := map[string]string{labelOperation: operation, labelStatus: status}

	if contextual, ok := e.metricsCollector.(circulation.ContextualMetricsCollector); ok {
		contextual.IncrementCounterContext(ctx, metric, labels)
		return
	}

	e.metricsCollector.IncrementCounter(metric, labels)
}

// logInfo prefers the contextual logger and falls back to the plain logger.
func (e *Engine) logInfo(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.InfoContext(ctx, msg, args...)
		return
	}

	if e.logger != nil {
		e.logger.Info(msg, args...)
	}
}

// logError prefers the contextual logger and falls back to the plain logger.
func (e *Engine) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if e.contextualLogger != nil {
		e.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if e.logger != nil {
		e.logger.Error(msg, allArgs...)
	}
}

// toMilliseconds converts a duration to float64 milliseconds with 3 decimal
// places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
