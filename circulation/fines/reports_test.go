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

func Test_HighRiskMembers_FlagsMembersAtDamagedThreshold(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	issuedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	issues := []circulation.IssueRecord{
		givenIssue("i-1", "m-risky", issuedAt),
		givenIssue("i-2", "m-risky", issuedAt),
		givenIssue("i-3", "m-careful", issuedAt),
		givenIssue("i-4", "m-careful", issuedAt),
	}
	returns := []circulation.ReturnRecord{
		givenReturn("r-1", "i-1", circulation.ConditionDamaged, issuedAt.AddDate(0, 0, 5)),
		givenReturn("r-2", "i-2", circulation.ConditionDamaged, issuedAt.AddDate(0, 0, 6)),
		givenReturn("r-3", "i-3", circulation.ConditionDamaged, issuedAt.AddDate(0, 0, 7)),
		givenReturn("r-4", "i-4", circulation.ConditionGood, issuedAt.AddDate(0, 0, 8)),
	}

	// act
	risks := calculator.HighRiskMembers(fines.NewSnapshot(issues, returns))

	// assert: two damaged returns flag, one does not
	require.Len(t, risks, 1)
	assert.Equal(t, "m-risky", risks[0].MemberID)
	assert.Equal(t, 2, risks[0].DamagedReturns)
}

func Test_HighRiskMembers_IgnoresLostReturns(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	issuedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	issues := []circulation.IssueRecord{
		givenIssue("i-1", "m-1", issuedAt),
		givenIssue("i-2", "m-1", issuedAt),
	}
	returns := []circulation.ReturnRecord{
		givenReturn("r-1", "i-1", circulation.ConditionLost, issuedAt.AddDate(0, 0, 5)),
		givenReturn("r-2", "i-2", circulation.ConditionLost, issuedAt.AddDate(0, 0, 6)),
	}

	// act
	risks := calculator.HighRiskMembers(fines.NewSnapshot(issues, returns))

	// assert
	assert.Empty(t, risks)
}

func Test_ActiveMembers_CountsIssuesInsideTrailingWindow(t *testing.T) {
	// arrange
	calculator := fines.NewCalculator(fines.DefaultConfig())
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	issues := []circulation.IssueRecord{
		givenIssue("i-recent-1", "m-active", asOf.AddDate(0, 0, -10)),
		givenIssue("i-recent-2", "m-active", asOf.AddDate(0, 0, -3)),
		givenIssue("i-old", "m-dormant", asOf.AddDate(0, 0, -90)),
	}

	// act
	members := calculator.ActiveMembers(fines.NewSnapshot(issues, nil), asOf)

	// assert
	require.Len(t, members, 1)
	assert.Equal(t, "m-active", members[0].MemberID)
	assert.Equal(t, 2, members[0].IssueCount)
	assert.True(t, members[0].LastIssuedAt.Equal(asOf.AddDate(0, 0, -3)))
}

func Test_OverdueAssessments_KeepsOverdueAndFinedRows(t *testing.T) {
	// arrange
	assessments := []fines.Assessment{
		{IssueID: "i-overdue", Overdue: true, Fine: decimal.RequireFromString("2.00")},
		{IssueID: "i-frozen-fine", Returned: true, Fine: decimal.RequireFromString("0.50")},
		{IssueID: "i-clean", Returned: true, Fine: decimal.Zero},
	}

	// act
	filtered := fines.OverdueAssessments(assessments)

	// assert
	require.Len(t, filtered, 2)
	assert.Equal(t, "i-overdue", filtered[0].IssueID)
	assert.Equal(t, "i-frozen-fine", filtered[1].IssueID)
}

func Test_BookIssueCounts_AggregatesPerBook(t *testing.T) {
	// arrange
	issuedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	popular := givenIssue("i-1", "m-1", issuedAt)
	popular.BookID = "b-popular"
	popularAgain := givenIssue("i-2", "m-2", issuedAt)
	popularAgain.BookID = "b-popular"
	other := givenIssue("i-3", "m-1", issuedAt)
	other.BookID = "b-other"

	snapshot := fines.NewSnapshot([]circulation.IssueRecord{popular, popularAgain, other}, nil)

	// act
	counts := fines.BookIssueCounts(snapshot)

	// assert: sorted by book id
	require.Len(t, counts, 2)
	assert.Equal(t, "b-other", counts[0].BookID)
	assert.Equal(t, 1, counts[0].IssueCount)
	assert.Equal(t, "b-popular", counts[1].BookID)
	assert.Equal(t, 2, counts[1].IssueCount)
}

func Test_CategoryIncomes_AttributesOneRentalPricePerIssue(t *testing.T) {
	// arrange
	issuedAt := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	books := []circulation.Book{
		{ID: "b-go", Category: "Programming", RentalPrice: decimal.RequireFromString("4.50")},
		{ID: "b-ddd", Category: "Architecture", RentalPrice: decimal.RequireFromString("6.00")},
	}

	first := givenIssue("i-1", "m-1", issuedAt)
	first.BookID = "b-go"
	second := givenIssue("i-2", "m-2", issuedAt)
	second.BookID = "b-go"
	third := givenIssue("i-3", "m-1", issuedAt)
	third.BookID = "b-ddd"
	unknown := givenIssue("i-4", "m-1", issuedAt)
	unknown.BookID = "b-gone"

	snapshot := fines.NewSnapshot([]circulation.IssueRecord{first, second, third, unknown}, nil)

	// act
	incomes := fines.CategoryIncomes(snapshot, books)

	// assert: sorted by category, issues of unknown books skipped
	require.Len(t, incomes, 2)
	assert.Equal(t, "Architecture", incomes[0].Category)
	assert.True(t, incomes[0].Income.Equal(decimal.RequireFromString("6.00")))
	assert.Equal(t, "Programming", incomes[1].Category)
	assert.True(t, incomes[1].Income.Equal(decimal.RequireFromString("9.00")))
}

func givenReturn(returnID, issueID string, condition circulation.Condition, returnedAt time.Time) circulation.ReturnRecord {
	return circulation.ReturnRecord{
		ID:         returnID,
		IssueID:    issueID,
		BookTitle:  "The Go Programming Language",
		ReturnedAt: returnedAt,
		Condition:  condition,
	}
}
