package fines_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mohamedzaid0/Library-project-sql/circulation"
	"github.com/mohamedzaid0/Library-project-sql/circulation/fines"
)

func Test_Assess_NoFine_WithinGracePeriod(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	issue := givenIssue("i-1", "m-1", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	// act: day 30 is the last day of grace
	assessment := calculator.Assess(issue, nil, time.Date(2024, 1, 31, 10, 0, 0, 0, time.UTC))

	// assert
	assert.False(t, assessment.Overdue)
	assert.Equal(t, 0, assessment.DaysOverdue)
	assert.True(t, assessment.Fine.IsZero())
}

func Test_Assess_FineAccrues_AfterGracePeriod(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	issue := givenIssue("i-1", "m-1", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	// act: 59 calendar days elapsed, 29 past the 30-day grace
	assessment := calculator.Assess(issue, nil, time.Date(2024, 2, 29, 10, 0, 0, 0, time.UTC))

	// assert
	assert.True(t, assessment.Overdue)
	assert.Equal(t, 29, assessment.DaysOverdue)
	assert.True(t, assessment.Fine.Equal(decimal.RequireFromString("14.50")),
		"expected 14.50, got %s", assessment.Fine)
}

func Test_Assess_FineIsMonotonic_WhileUnreturned(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	issue := givenIssue("i-1", "m-1", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	previous := decimal.Zero

	// act + assert: the fine never decreases as time advances
	for day := 0; day <= 120; day += 7 {
		asOf := issue.IssuedAt.AddDate(0, 0, day)
		assessment := calculator.Assess(issue, nil, asOf)

		assert.True(t, assessment.Fine.GreaterThanOrEqual(previous),
			"fine shrank at day %d", day)
		previous = assessment.Fine
	}
}

func Test_Assess_FineFreezes_AtReturnDate(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	issue := givenIssue("i-1", "m-1", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

	returned := circulation.ReturnRecord{
		ID:         "r-1",
		IssueID:    issue.ID,
		BookTitle:  issue.BookTitle,
		ReturnedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC),
		Condition:  circulation.ConditionGood,
	}

	// act: asOf long after the return must not change the verdict
	atReturn := calculator.Assess(issue, &returned, returned.ReturnedAt)
	muchLater := calculator.Assess(issue, &returned, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))

	// assert: 31 days out, 1 past grace, frozen at 0.50
	require.True(t, atReturn.Returned)
	assert.False(t, atReturn.Overdue)
	assert.Equal(t, 1, atReturn.DaysOverdue)
	assert.True(t, atReturn.Fine.Equal(decimal.RequireFromString("0.50")))

	assert.Equal(t, atReturn.DaysOverdue, muchLater.DaysOverdue)
	assert.True(t, atReturn.Fine.Equal(muchLater.Fine))
	assert.True(t, atReturn.AssessedAt.Equal(muchLater.AssessedAt))
}

func Test_Assess_ConditionDoesNotChangeTheFine(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	issue := givenIssue("i-1", "m-1", time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
	returnedAt := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)

	conditions := []circulation.Condition{
		circulation.ConditionGood,
		circulation.ConditionDamaged,
		circulation.ConditionLost,
	}

	// act + assert
	var expected decimal.Decimal

	for i, condition := range conditions {
		returned := circulation.ReturnRecord{
			ID: "r-1", IssueID: issue.ID, ReturnedAt: returnedAt, Condition: condition,
		}

		assessment := calculator.Assess(issue, &returned, returnedAt)

		if i == 0 {
			expected = assessment.Fine
			continue
		}

		assert.True(t, expected.Equal(assessment.Fine), "condition %s changed the fine", condition)
	}
}

func Test_NewCalculator_FillsZeroConfigFieldsWithDefaults(t *testing.T) {
	// arrange + act
	calculator := fines.NewCalculator(fines.Config{GracePeriodDays: 14})
	issue := givenIssue("i-1", "m-1", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	// assert: 20 days out, 6 past the shortened grace, at the default rate
	assessment := calculator.Assess(issue, nil, time.Date(2024, 1, 21, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 6, assessment.DaysOverdue)
	assert.True(t, assessment.Fine.Equal(decimal.RequireFromString("3.00")))
}

func Test_AssessAll_MatchesReturnsToIssues(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	issuedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	open := givenIssue("i-open", "m-1", issuedAt)
	closed := givenIssue("i-closed", "m-2", issuedAt)

	snapshot := fines.NewSnapshot(
		[]circulation.IssueRecord{open, closed},
		[]circulation.ReturnRecord{{
			ID:         "r-1",
			IssueID:    closed.ID,
			ReturnedAt: issuedAt.AddDate(0, 0, 10),
			Condition:  circulation.ConditionGood,
		}},
	)

	// act
	assessments := calculator.AssessAll(snapshot, issuedAt.AddDate(0, 0, 40))

	// assert
	require.Len(t, assessments, 2)

	byIssue := make(map[string]fines.Assessment, len(assessments))
	for _, assessment := range assessments {
		byIssue[assessment.IssueID] = assessment
	}

	assert.True(t, byIssue["i-open"].Overdue)
	assert.Equal(t, 10, byIssue["i-open"].DaysOverdue)

	assert.True(t, byIssue["i-closed"].Returned)
	assert.False(t, byIssue["i-closed"].Overdue)
	assert.True(t, byIssue["i-closed"].Fine.IsZero())
}

func Test_DaysBetween_CountsCalendarDaysInUTC(t *testing.T) {
	testCases := []struct {
		name     string
		from     time.Time
		to       time.Time
		expected int
	}{
		{
			name:     "same day",
			from:     time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
			expected: 0,
		},
		{
			name:     "time of day is ignored",
			from:     time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 1, 2, 1, 0, 0, 0, time.UTC),
			expected: 1,
		},
		{
			name:     "leap day is a real day",
			from:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			to:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			expected: 60,
		},
		{
			name:     "zone offset does not shift the date",
			from:     time.Date(2024, 1, 1, 23, 30, 0, 0, time.FixedZone("east", 2*3600)),
			to:       time.Date(2024, 1, 2, 0, 30, 0, 0, time.UTC),
			expected: 1,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, fines.DaysBetween(testCase.from, testCase.to))
		})
	}
}

/*** Test helpers ***/

func givenIssue(issueID, memberID string, issuedAt time.Time) circulation.IssueRecord {
	return circulation.IssueRecord{
		ID:         issueID,
		MemberID:   memberID,
		EmployeeID: "e-1",
		BookID:     "b-1",
		BookTitle:  "The Go Programming Language",
		IssuedAt:   issuedAt,
	}
}
