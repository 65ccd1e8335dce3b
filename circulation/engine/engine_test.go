package engine_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/engine"
	"github.com/mohamedzaid0/Library-project-sql/circulation/memoryengine"
	"github.com/mohamedzaid0/Library-project-sql/testutil/fixtures"
	"github.com/mohamedzaid0/Library-project-sql/testutil/testdoubles"
)

func Test_Issue_RecordsIssueAndFlipsAvailability(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)
	command := givenIssueCommand()

	// act
	record, err := circEngine.Issue(ctx, command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, command.IssueID, record.ID)
	assert.Equal(t, fixtures.Book().Title, record.BookTitle)
	assert.True(t, command.IssuedAt.Equal(record.IssuedAt))

	book, err := store.GetBook(ctx, fixtures.BookID)
	require.NoError(t, err)
	assert.Equal(t, circulation.OnLoan, book.Availability)

	stored, err := store.IssueLedger().Get(ctx, command.IssueID)
	require.NoError(t, err)
	assert.Equal(t, record, stored)
}

func Test_Issue_UsesEngineClock_WhenIssuedAtIsZero(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	circEngine := givenEngine(store, engine.WithClock(func() time.Time { return now }))

	command := givenIssueCommand()
	command.IssuedAt = time.Time{}

	// act
	record, err := circEngine.Issue(ctx, command)

	// assert
	require.NoError(t, err)
	assert.True(t, now.Equal(record.IssuedAt))
}

func Test_Issue_Fails_WhenRecordsAreMissing(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(*engine.IssueCommand)
		expectedErr error
	}{
		{
			name:        "unknown book",
			mutate:      func(c *engine.IssueCommand) { c.BookID = uuid.NewString() },
			expectedErr: circulation.ErrBookNotFound,
		},
		{
			name:        "unknown member",
			mutate:      func(c *engine.IssueCommand) { c.MemberID = uuid.NewString() },
			expectedErr: circulation.ErrMemberNotFound,
		},
		{
			name:        "unknown employee",
			mutate:      func(c *engine.IssueCommand) { c.EmployeeID = uuid.NewString() },
			expectedErr: circulation.ErrEmployeeNotFound,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			// arrange
			ctx := context.Background()
			store := fixtures.SeededStore()
			circEngine := givenEngine(store)
			command := givenIssueCommand()
			testCase.mutate(&command)

			// act
			_, err := circEngine.Issue(ctx, command)

			// assert
			require.ErrorIs(t, err, testCase.expectedErr)

			// the flag never moved
			book, getErr := store.GetBook(ctx, fixtures.BookID)
			require.NoError(t, getErr)
			assert.Equal(t, circulation.Available, book.Availability)
		})
	}
}

func Test_Issue_Fails_WhenBookAlreadyOnLoan(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)

	_, err := circEngine.Issue(ctx, givenIssueCommand())
	require.NoError(t, err)

	second := givenIssueCommand()
	second.IssueID = uuid.NewString()

	// act
	_, err = circEngine.Issue(ctx, second)

	// assert
	require.ErrorIs(t, err, circulation.ErrBookUnavailable)

	records, listErr := store.IssueLedger().ListByBook(ctx, fixtures.BookID)
	require.NoError(t, listErr)
	assert.Len(t, records, 1)
}

func Test_Issue_Fails_WithDuplicateIssueID_WithoutTouchingTheFlag(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)

	first := givenIssueCommand()
	_, err := circEngine.Issue(ctx, first)
	require.NoError(t, err)

	duplicate := first
	duplicate.BookID = fixtures.SecondBookID

	// act
	_, err = circEngine.Issue(ctx, duplicate)

	// assert
	require.ErrorIs(t, err, circulation.ErrDuplicateIssueID)

	// the second book was never flipped
	book, getErr := store.GetBook(ctx, fixtures.SecondBookID)
	require.NoError(t, getErr)
	assert.Equal(t, circulation.Available, book.Availability)
}

func Test_Return_RecordsReturnAndReleasesBook(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)

	issueCommand := givenIssueCommand()
	_, err := circEngine.Issue(ctx, issueCommand)
	require.NoError(t, err)

	returnCommand := engine.ReturnCommand{
		IssueID:    issueCommand.IssueID,
		ReturnID:   uuid.NewString(),
		ReturnedAt: time.Date(2025, 5, 20, 16, 0, 0, 0, time.UTC),
		Condition:  circulation.ConditionGood,
	}

	// act
	record, err := circEngine.Return(ctx, returnCommand)

	// assert
	require.NoError(t, err)
	assert.Equal(t, returnCommand.ReturnID, record.ID)
	assert.Equal(t, fixtures.Book().Title, record.BookTitle)
	assert.Equal(t, circulation.ConditionGood, record.Condition)

	book, getErr := store.GetBook(ctx, fixtures.BookID)
	require.NoError(t, getErr)
	assert.Equal(t, circulation.Available, book.Availability)

	stored, findErr := store.ReturnLedger().FindByIssueID(ctx, issueCommand.IssueID)
	require.NoError(t, findErr)
	assert.Equal(t, record, stored)
}

func Test_Return_Fails_WithInvalidCondition(t *testing.T) {
	// arrange
	circEngine := givenEngine(fixtures.SeededStore())

	// act
	_, err := circEngine.Return(context.Background(), engine.ReturnCommand{
		IssueID:   uuid.NewString(),
		ReturnID:  uuid.NewString(),
		Condition: "pristine",
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrInvalidCondition)
}

func Test_Return_Fails_WhenIssueDoesNotExist(t *testing.T) {
	// arrange
	circEngine := givenEngine(fixtures.SeededStore())

	// act
	_, err := circEngine.Return(context.Background(), engine.ReturnCommand{
		IssueID:   uuid.NewString(),
		ReturnID:  uuid.NewString(),
		Condition: circulation.ConditionGood,
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrIssueNotFound)
}

func Test_Return_Fails_WhenIssueAlreadyReturned(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)

	issueCommand := givenIssueCommand()
	_, err := circEngine.Issue(ctx, issueCommand)
	require.NoError(t, err)

	_, err = circEngine.Return(ctx, engine.ReturnCommand{
		IssueID:   issueCommand.IssueID,
		ReturnID:  uuid.NewString(),
		Condition: circulation.ConditionGood,
	})
	require.NoError(t, err)

	// act
	_, err = circEngine.Return(ctx, engine.ReturnCommand{
		IssueID:   issueCommand.IssueID,
		ReturnID:  uuid.NewString(),
		Condition: circulation.ConditionGood,
	})

	// assert
	assert.ErrorIs(t, err, circulation.ErrAlreadyReturned)
}

func Test_Return_Fails_WithDuplicateReturnID_AndRestoresTheFlag(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)

	firstIssue := givenIssueCommand()
	_, err := circEngine.Issue(ctx, firstIssue)
	require.NoError(t, err)

	secondIssue := givenIssueCommand()
	secondIssue.IssueID = uuid.NewString()
	secondIssue.BookID = fixtures.SecondBookID
	_, err = circEngine.Issue(ctx, secondIssue)
	require.NoError(t, err)

	returnID := uuid.NewString()
	_, err = circEngine.Return(ctx, engine.ReturnCommand{
		IssueID:   firstIssue.IssueID,
		ReturnID:  returnID,
		Condition: circulation.ConditionGood,
	})
	require.NoError(t, err)

	// act: reuse the return id for the second issuance
	_, err = circEngine.Return(ctx, engine.ReturnCommand{
		IssueID:   secondIssue.IssueID,
		ReturnID:  returnID,
		Condition: circulation.ConditionGood,
	})

	// assert
	require.ErrorIs(t, err, circulation.ErrDuplicateReturnID)

	// the failed append was compensated: the second book is still on loan
	book, getErr := store.GetBook(ctx, fixtures.SecondBookID)
	require.NoError(t, getErr)
	assert.Equal(t, circulation.OnLoan, book.Availability)
}

func Test_Void_RemovesOpenIssueAndReleasesBook(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)

	issueCommand := givenIssueCommand()
	_, err := circEngine.Issue(ctx, issueCommand)
	require.NoError(t, err)

	// act
	err = circEngine.Void(ctx, issueCommand.IssueID)

	// assert
	require.NoError(t, err)

	_, getErr := store.IssueLedger().Get(ctx, issueCommand.IssueID)
	assert.ErrorIs(t, getErr, circulation.ErrIssueNotFound)

	book, bookErr := store.GetBook(ctx, fixtures.BookID)
	require.NoError(t, bookErr)
	assert.Equal(t, circulation.Available, book.Availability)
}

func Test_Void_Fails_WhenIssueHasReturnRecord(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)

	issueCommand := givenIssueCommand()
	_, err := circEngine.Issue(ctx, issueCommand)
	require.NoError(t, err)

	_, err = circEngine.Return(ctx, engine.ReturnCommand{
		IssueID:   issueCommand.IssueID,
		ReturnID:  uuid.NewString(),
		Condition: circulation.ConditionGood,
	})
	require.NoError(t, err)

	// act
	err = circEngine.Void(ctx, issueCommand.IssueID)

	// assert
	require.ErrorIs(t, err, circulation.ErrReferentialIntegrity)

	// the closed issuance is untouched
	_, getErr := store.IssueLedger().Get(ctx, issueCommand.IssueID)
	assert.NoError(t, getErr)
}

func Test_Void_Fails_WhenIssueDoesNotExist(t *testing.T) {
	// arrange
	circEngine := givenEngine(fixtures.SeededStore())

	// act
	err := circEngine.Void(context.Background(), uuid.NewString())

	// assert
	assert.ErrorIs(t, err, circulation.ErrIssueNotFound)
}

func Test_ConcurrentIssues_ExactlyOneSucceeds(t *testing.T) {
	// arrange
	const attempts = 16

	ctx := context.Background()
	store := fixtures.SeededStore()
	circEngine := givenEngine(store)

	var waitGroup sync.WaitGroup
	errs := make([]error, attempts)

	// act
	for i := 0; i < attempts; i++ {
		waitGroup.Add(1)

		go func(slot int) {
			defer waitGroup.Done()

			command := givenIssueCommand()
			command.IssueID = uuid.NewString()
			_, errs[slot] = circEngine.Issue(ctx, command)
		}(i)
	}

	waitGroup.Wait()

	// assert
	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, circulation.ErrBookUnavailable)
		}
	}

	assert.Equal(t, 1, successes)

	records, err := store.IssueLedger().ListByBook(ctx, fixtures.BookID)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func Test_Issue_EmitsObservabilitySignals_OnSuccess(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	logger := testdoubles.NewLoggerSpy()
	metrics := testdoubles.NewMetricsCollectorSpy()
	tracing := testdoubles.NewTracingCollectorSpy()
	notifier := testdoubles.NewNotifierSpy()

	circEngine := givenEngine(store,
		engine.WithLogger(logger),
		engine.WithMetrics(metrics),
		engine.WithTracing(tracing),
		engine.WithNotifier(notifier),
	)

	// act
	_, err := circEngine.Issue(ctx, givenIssueCommand())

	// assert
	require.NoError(t, err)

	durations := metrics.Durations()
	require.Len(t, durations, 1)
	assert.Equal(t, "circulation_operation_duration", durations[0].Metric)
	assert.Equal(t, "issue", durations[0].Labels["operation"])
	assert.Equal(t, "success", durations[0].Labels["status"])

	spans := tracing.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, "circulation.issue", spans[0].Name)
	assert.True(t, spans[0].Finished)
	assert.Equal(t, "success", spans[0].FinishStatus)

	completed := notifier.WithStatus(circulation.NotificationCompleted)
	require.Len(t, completed, 1)
	assert.Equal(t, "issue", completed[0].Operation)
	assert.Equal(t, fixtures.Book().Title, completed[0].BookTitle)

	assert.True(t, logger.HasMessage("circulation operation completed"))
}

func Test_Issue_EmitsObservabilitySignals_OnConflict(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	metrics := testdoubles.NewMetricsCollectorSpy()
	notifier := testdoubles.NewNotifierSpy()

	circEngine := givenEngine(store,
		engine.WithMetrics(metrics),
		engine.WithNotifier(notifier),
	)

	_, err := circEngine.Issue(ctx, givenIssueCommand())
	require.NoError(t, err)

	conflicting := givenIssueCommand()
	conflicting.IssueID = uuid.NewString()

	// act
	_, err = circEngine.Issue(ctx, conflicting)

	// assert
	require.ErrorIs(t, err, circulation.ErrBookUnavailable)
	assert.Equal(t, 1, metrics.CounterCount("circulation_conflicts"))
	assert.Equal(t, 0, metrics.CounterCount("circulation_operation_errors"))

	failed := notifier.WithStatus(circulation.NotificationFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Detail, "already on loan")
}

func Test_WithLogger_ReachesTheAvailabilityController(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	logger := testdoubles.NewLoggerSpy()
	circEngine := givenEngine(store, engine.WithLogger(logger))

	// act
	_, err := circEngine.Issue(ctx, givenIssueCommand())

	// assert: the controller logs its transition through the engine logger
	require.NoError(t, err)
	assert.True(t, logger.HasMessage("availability transition: available -> on-loan"))
}

/*** Test helpers ***/

func givenEngine(store *memoryengine.Store, options ...engine.Option) *engine.Engine {
	return engine.New(store, store, store.IssueLedger(), store.ReturnLedger(), options...)
}

func givenIssueCommand() engine.IssueCommand {
	return engine.IssueCommand{
		BookID:     fixtures.BookID,
		MemberID:   fixtures.MemberID,
		EmployeeID: fixtures.EmployeeID,
		IssueID:    uuid.NewString(),
		IssuedAt:   time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC),
	}
}
