package circulation

import "context"

// ConsistencyLevel defines the consistency requirements for store reads.
type ConsistencyLevel int

const (
	// StrongConsistency requires reads from the primary database so that a
	// caller sees its own writes. This is the default and is mandatory for
	// the engine's read-check-write paths.
	StrongConsistency ConsistencyLevel = iota

	// EventualConsistency allows reads from replica databases. Suitable for
	// the fine calculator and report builders: overdue and fine figures are
	// advisory, so slightly stale reads are acceptable.
	EventualConsistency
)

// contextKey is a private type to prevent context key collisions.
type contextKey string

// consistencyLevelKey is the context key used to store the read consistency
// preference.
const consistencyLevelKey contextKey = "circulation.consistency_level"

// WithStrongConsistency returns a context that signals store reads must go
// to the primary database.
func WithStrongConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyLevelKey, StrongConsistency)
}

// WithEventualConsistency returns a context that signals store reads may go
// to a replica, trading freshness for reduced primary load.
func WithEventualConsistency(ctx context.Context) context.Context {
	return context.WithValue(ctx, consistencyLevelKey, EventualConsistency)
}

// GetConsistencyLevel extracts the consistency level from the context,
// defaulting to StrongConsistency.
func GetConsistencyLevel(ctx context.Context) ConsistencyLevel {
	if level, ok := ctx.Value(consistencyLevelKey).(ConsistencyLevel); ok {
		return level
	}

	return StrongConsistency
}

// String provides a string representation for logging.
func (c ConsistencyLevel) String() string {
	switch c {
	case StrongConsistency:
		return "strong"
	case EventualConsistency:
		return "eventual"
	default:
		return "unknown"
	}
}
