package postgresengine

import (
	"context"
	"math"
	"time"
)

// logSQL logs an executed statement with timing at debug level.
func (s *Stores) logSQL(ctx context.Context, action, sqlQuery string, duration time.Duration) {
	if s.contextualLogger != nil {
		s.contextualLogger.DebugContext(ctx, logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
		return
	}

	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action,
			logAttrDurationMS, toMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logError logs a failure at error level if a logger is configured.
func (s *Stores) logError(ctx context.Context, msg string, err error, args ...any) {
	allArgs := append([]any{logAttrError, err.Error()}, args...)

	if s.contextualLogger != nil {
		s.contextualLogger.ErrorContext(ctx, msg, allArgs...)
		return
	}

	if s.logger != nil {
		s.logger.Error(msg, allArgs...)
	}
}

// logWarn logs a non-critical issue if a logger is configured.
func (s *Stores) logWarn(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// toMilliseconds converts a time.Duration to float64 milliseconds with 3
// decimal places.
func toMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
