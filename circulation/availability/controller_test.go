package availability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/availability"
	"github.com/mohamedzaid0/Library-project-sql/testutil/fixtures"
	"github.com/mohamedzaid0/Library-project-sql/testutil/testdoubles"
)

func Test_Loan_TransitionsAvailableToOnLoan(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	controller := availability.NewController(store)

	// act
	err := controller.Loan(ctx, fixtures.BookID)

	// assert
	require.NoError(t, err)

	book, getErr := store.GetBook(ctx, fixtures.BookID)
	require.NoError(t, getErr)
	assert.Equal(t, circulation.OnLoan, book.Availability)
}

func Test_Loan_Fails_WhenBookIsAlreadyOnLoan(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	controller := availability.NewController(store)
	require.NoError(t, controller.Loan(ctx, fixtures.BookID))

	// act
	err := controller.Loan(ctx, fixtures.BookID)

	// assert
	assert.ErrorIs(t, err, circulation.ErrBookUnavailable)
}

func Test_Release_TransitionsOnLoanToAvailable(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	controller := availability.NewController(store)
	require.NoError(t, controller.Loan(ctx, fixtures.BookID))

	// act
	err := controller.Release(ctx, fixtures.BookID)

	// assert
	require.NoError(t, err)

	book, getErr := store.GetBook(ctx, fixtures.BookID)
	require.NoError(t, getErr)
	assert.Equal(t, circulation.Available, book.Availability)
}

func Test_Release_Fails_WhenBookIsNotOnLoan(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	controller := availability.NewController(store)

	// act
	err := controller.Release(ctx, fixtures.BookID)

	// assert
	assert.ErrorIs(t, err, circulation.ErrBookNotOnLoan)
}

func Test_Transitions_LogAtDebugLevel(t *testing.T) {
	// arrange
	ctx := context.Background()
	store := fixtures.SeededStore()
	logger := testdoubles.NewLoggerSpy()
	controller := availability.NewController(store, availability.WithLogger(logger))

	// act
	require.NoError(t, controller.Loan(ctx, fixtures.BookID))
	require.NoError(t, controller.Release(ctx, fixtures.BookID))

	// assert
	assert.Len(t, logger.RecordsWithLevel("debug"), 2)
}
