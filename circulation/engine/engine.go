// Package engine implements the circulation engine: the orchestration of
// issue, return and void as atomic operations against the catalog, the
// directory, the availability controller and the two ledgers.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/availability"
)

const (
	operationIssue  = "issue"
	operationReturn = "return"
	operationVoid   = "void"
)

// Clock supplies the current time; overridable for tests and backdating.
type Clock func() time.Time

// IssueCommand carries the caller-supplied identifiers for an issuance.
// A zero IssuedAt defaults to the engine clock.
type IssueCommand struct {
	BookID     string
	MemberID   string
	EmployeeID string
	IssueID    string
	IssuedAt   time.Time
}

// ReturnCommand carries the caller-supplied identifiers for a return.
// A zero ReturnedAt defaults to the engine clock.
type ReturnCommand struct {
	IssueID    string
	ReturnID   string
	ReturnedAt time.Time
	Condition  circulation.Condition
}

// Engine orchestrates circulation operations. Each operation either
// completes or fails fast with one of the circulation errors; the
// availability flag is never left inconsistent with the ledgers.
type Engine struct {
	catalog    circulation.CatalogStore
	directory  circulation.DirectoryStore
	issues     circulation.IssueLedger
	returns    circulation.ReturnLedger
	controller *availability.Controller
	locks      *stripedLocks
	clock      Clock

	logger           circulation.Logger
	contextualLogger circulation.ContextualLogger
	metricsCollector circulation.MetricsCollector
	tracingCollector circulation.TracingCollector
	notifier         circulation.Notifier
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets the logger for the Engine and its availability controller.
func WithLogger(logger circulation.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithContextualLogger sets the context-aware logger for the Engine,
// enabling automatic trace correlation when tracing is configured.
func WithContextualLogger(logger circulation.ContextualLogger) Option {
	return func(e *Engine) {
		e.contextualLogger = logger
	}
}

// WithMetrics sets the metrics collector for the Engine. The collector
// receives operation durations, conflict counters and error counters.
func WithMetrics(collector circulation.MetricsCollector) Option {
	return func(e *Engine) {
		e.metricsCollector = collector
	}
}

// WithTracing sets the tracing collector for the Engine. Every operation
// runs inside its own span.
func WithTracing(collector circulation.TracingCollector) Option {
	return func(e *Engine) {
		e.tracingCollector = collector
	}
}

// WithNotifier sets the notifier receiving issue/return/void notifications.
// Without a notifier the engine simply does not emit.
func WithNotifier(notifier circulation.Notifier) Option {
	return func(e *Engine) {
		e.notifier = notifier
	}
}

// WithClock overrides the engine clock.
func WithClock(clock Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// New creates an Engine over the given stores. The availability controller
// is owned by the engine; no other component writes the flag.
func New(
	catalog circulation.CatalogStore,
	directory circulation.DirectoryStore,
	issues circulation.IssueLedger,
	returns circulation.ReturnLedger,
	options ...Option,
) *Engine {

	e := &Engine{
		catalog:   catalog,
		directory: directory,
		issues:    issues,
		returns:   returns,
		locks:     newStripedLocks(defaultLockStripes),
		clock:     time.Now,
	}

	for _, option := range options {
		option(e)
	}

	controllerOptions := make([]availability.Option, 0, 1)
	if e.logger != nil {
		controllerOptions = append(controllerOptions, availability.WithLogger(e.logger))
	}

	e.controller = availability.NewController(catalog, controllerOptions...)

	return e
}

// Issue lends the book to the member, processed by the employee, as one
// atomic unit: the availability flag transitions to OnLoan and the issue
// record becomes visible together, or neither does.
//
// Failure conditions: circulation.ErrBookNotFound, ErrMemberNotFound,
// ErrEmployeeNotFound, ErrDuplicateIssueID, ErrBookUnavailable.
func (e *Engine) Issue(ctx context.Context, command IssueCommand) (circulation.IssueRecord, error) {
	var empty circulation.IssueRecord

	start := e.clock()
	ctx, span := e.startSpan(ctx, operationIssue, map[string]string{
		spanAttrBookID:  command.BookID,
		spanAttrIssueID: command.IssueID,
	})
	ctx = circulation.WithStrongConsistency(ctx)

	unlock := e.locks.lock(command.BookID)
	defer unlock()

	book, err := e.catalog.GetBook(ctx, command.BookID)
	if err != nil {
		return empty, e.failOperation(ctx, span, operationIssue, command.IssueID, "", err, start)
	}

	if _, err = e.directory.GetMember(ctx, command.MemberID); err != nil {
		return empty, e.failOperation(ctx, span, operationIssue, command.IssueID, book.Title, err, start)
	}

	if _, err = e.directory.GetEmployee(ctx, command.EmployeeID); err != nil {
		return empty, e.failOperation(ctx, span, operationIssue, command.IssueID, book.Title, err, start)
	}

	if err = e.ensureFreshIssueID(ctx, command.IssueID); err != nil {
		return empty, e.failOperation(ctx, span, operationIssue, command.IssueID, book.Title, err, start)
	}

	if err = e.controller.Loan(ctx, command.BookID); err != nil {
		return empty, e.failOperation(ctx, span, operationIssue, command.IssueID, book.Title, err, start)
	}

	record := circulation.IssueRecord{
		ID:         command.IssueID,
		MemberID:   command.MemberID,
		EmployeeID: command.EmployeeID,
		BookID:     command.BookID,
		BookTitle:  book.Title,
		IssuedAt:   e.effectiveTime(command.IssuedAt),
	}

	if err = e.issues.Append(ctx, record); err != nil {
		// The flag already flipped; undo it so it stays consistent with
		// the ledger before reporting the append failure.
		e.compensate(ctx, e.controller.Release, command.BookID, operationIssue)

		return empty, e.failOperation(ctx, span, operationIssue, command.IssueID, book.Title, err, start)
	}

	e.completeOperation(ctx, span, operationIssue, command.IssueID, book.Title, start)

	return record, nil
}

// Return closes the issuance identified by command.IssueID as one atomic
// unit: the availability flag transitions back to Available and the return
// record becomes visible together, or neither does.
//
// Failure conditions: circulation.ErrIssueNotFound, ErrAlreadyReturned,
// ErrDuplicateReturnID, ErrInvalidCondition.
func (e *Engine) Return(ctx context.Context, command ReturnCommand) (circulation.ReturnRecord, error) {
	var empty circulation.ReturnRecord

	if !command.Condition.IsValid() {
		return empty, fmt.Errorf("%w: %q", circulation.ErrInvalidCondition, command.Condition)
	}

	start := e.clock()
	ctx, span := e.startSpan(ctx, operationReturn, map[string]string{
		spanAttrIssueID:  command.IssueID,
		spanAttrReturnID: command.ReturnID,
	})
	ctx = circulation.WithStrongConsistency(ctx)

	issue, err := e.issues.Get(ctx, command.IssueID)
	if err != nil {
		return empty, e.failOperation(ctx, span, operationReturn, command.IssueID, "", err, start)
	}

	unlock := e.locks.lock(issue.BookID)
	defer unlock()

	if err = e.ensureNotReturned(ctx, command.IssueID); err != nil {
		return empty, e.failOperation(ctx, span, operationReturn, command.IssueID, issue.BookTitle, err, start)
	}

	if err = e.controller.Release(ctx, issue.BookID); err != nil {
		// The flag says Available although no return record exists: a
		// concurrent return won the race. Report it as a duplicate return.
		if errors.Is(err, circulation.ErrBookNotOnLoan) {
			err = fmt.Errorf("%w: issue %s", circulation.ErrAlreadyReturned, command.IssueID)
		}

		return empty, e.failOperation(ctx, span, operationReturn, command.IssueID, issue.BookTitle, err, start)
	}

	record := circulation.ReturnRecord{
		ID:         command.ReturnID,
		IssueID:    command.IssueID,
		BookTitle:  issue.BookTitle,
		ReturnedAt: e.effectiveTime(command.ReturnedAt),
		Condition:  command.Condition,
	}

	if err = e.returns.Append(ctx, record); err != nil {
		e.compensate(ctx, e.controller.Loan, issue.BookID, operationReturn)

		return empty, e.failOperation(ctx, span, operationReturn, command.IssueID, issue.BookTitle, err, start)
	}

	e.completeOperation(ctx, span, operationReturn, command.IssueID, issue.BookTitle, start)

	return record, nil
}

// Void is the administrative correction removing an erroneous issuance. It
// is permitted only while no return references the record; afterwards the
// ledger history is protected and Void fails with ErrReferentialIntegrity.
// Voiding an open issuance releases the book again.
func (e *Engine) Void(ctx context.Context, issueID string) error {
	start := e.clock()
	ctx, span := e.startSpan(ctx, operationVoid, map[string]string{spanAttrIssueID: issueID})
	ctx = circulation.WithStrongConsistency(ctx)

	issue, err := e.issues.Get(ctx, issueID)
	if err != nil {
		return e.failOperation(ctx, span, operationVoid, issueID, "", err, start)
	}

	unlock := e.locks.lock(issue.BookID)
	defer unlock()

	if _, err = e.returns.FindByIssueID(ctx, issueID); err == nil {
		err = fmt.Errorf("%w: issue %s has a return record", circulation.ErrReferentialIntegrity, issueID)

		return e.failOperation(ctx, span, operationVoid, issueID, issue.BookTitle, err, start)
	} else if !errors.Is(err, circulation.ErrReturnNotFound) {
		return e.failOperation(ctx, span, operationVoid, issueID, issue.BookTitle, err, start)
	}

	if err = e.issues.Delete(ctx, issueID); err != nil {
		return e.failOperation(ctx, span, operationVoid, issueID, issue.BookTitle, err, start)
	}

	// The deleted record was the book's open issuance, so the flag must go
	// back to Available to keep flag and ledger consistent.
	if err = e.controller.Release(ctx, issue.BookID); err != nil && !errors.Is(err, circulation.ErrBookNotOnLoan) {
		return e.failOperation(ctx, span, operationVoid, issueID, issue.BookTitle, err, start)
	}

	e.completeOperation(ctx, span, operationVoid, issueID, issue.BookTitle, start)

	return nil
}

// ensureFreshIssueID rejects an issue id that is already in the ledger.
// The ledger's conditional append re-checks this atomically; the early
// check only produces the precise error before the flag is touched.
func (e *Engine) ensureFreshIssueID(ctx context.Context, issueID string) error {
	_, err := e.issues.Get(ctx, issueID)

	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", circulation.ErrDuplicateIssueID, issueID)
	case errors.Is(err, circulation.ErrIssueNotFound):
		return nil
	default:
		return err
	}
}

// ensureNotReturned rejects a return for an issuance that already has one.
func (e *Engine) ensureNotReturned(ctx context.Context, issueID string) error {
	_, err := e.returns.FindByIssueID(ctx, issueID)

	switch {
	case err == nil:
		return fmt.Errorf("%w: issue %s", circulation.ErrAlreadyReturned, issueID)
	case errors.Is(err, circulation.ErrReturnNotFound):
		return nil
	default:
		return err
	}
}

// compensate undoes a flag transition after a failed ledger append. A
// failing compensation is logged loudly; it cannot mask the original error.
func (e *Engine) compensate(
	ctx context.Context,
	transition func(context.Context, string) error,
	bookID string,
	operation string,
) {
	if err := transition(ctx, bookID); err != nil {
		e.logError(ctx, logMsgCompensationFailed, err, logAttrOperation, operation, logAttrBookID, bookID)
	}
}

func (e *Engine) effectiveTime(supplied time.Time) time.Time {
	if supplied.IsZero() {
		return e.clock()
	}

	return supplied
}

// notify publishes a notification if a notifier is configured.
func (e *Engine) notify(operation, issueID, bookTitle string, status circulation.NotificationStatus, detail string) {
	if e.notifier == nil {
		return
	}

	e.notifier.Publish(circulation.Notification{
		ID:         uuid.NewString(),
		Operation:  operation,
		IssueID:    issueID,
		BookTitle:  bookTitle,
		Status:     status,
		Detail:     detail,
		OccurredAt: e.clock(),
	})
}
